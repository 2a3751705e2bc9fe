package ws

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"group-chat-service/internal/chat"
	"group-chat-service/internal/models"
	"group-chat-service/internal/repositories"
)

type wireFrame struct {
	Type    string          `json:"type"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type testConn struct {
	t      *testing.T
	conn   *websocket.Conn
	nextID int
}

func startServer(t *testing.T, opts ...chat.Option) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := zap.NewNop().Sugar()
	service := chat.NewService(
		repositories.NewGroupRepo(rdb, logger),
		repositories.NewGroupMessageRepo(rdb, logger, repositories.DefaultRetention),
		logger,
		opts...,
	)
	handler := NewGroupHubHandler(NewHub(logger), service, logger, 0)

	router := gin.New()
	router.GET("/hub/chat", handler.Handle)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/hub/chat"
}

func dial(t *testing.T, url string) *testConn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testConn{t: t, conn: conn}
}

func (c *testConn) send(method string, args ...string) string {
	c.t.Helper()
	c.nextID++
	id := fmt.Sprintf("%d", c.nextID)
	if args == nil {
		args = []string{}
	}
	frame := map[string]any{"type": FrameInvocation, "id": id, "method": method, "args": args}
	require.NoError(c.t, c.conn.WriteJSON(frame))
	return id
}

func (c *testConn) read() wireFrame {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame wireFrame
	require.NoError(c.t, c.conn.ReadJSON(&frame))
	return frame
}

// call invokes method and returns the events received ahead of its completion.
func (c *testConn) call(method string, args ...string) (wireFrame, []wireFrame) {
	c.t.Helper()
	id := c.send(method, args...)
	var events []wireFrame
	for {
		frame := c.read()
		if frame.Type == FrameCompletion {
			require.JSONEq(c.t, fmt.Sprintf("%q", id), string(frame.ID))
			return frame, events
		}
		events = append(events, frame)
	}
}

func (c *testConn) expectEvent(event string, into any) {
	c.t.Helper()
	frame := c.read()
	require.Equal(c.t, FrameEvent, frame.Type)
	require.Equal(c.t, event, frame.Event)
	if into != nil {
		require.NoError(c.t, json.Unmarshal(frame.Payload, into))
	}
}

func TestGroupChatOverWebsocket(t *testing.T) {
	url := startServer(t)
	alice, bob := dial(t, url), dial(t, url)

	done, _ := alice.call("CreateGroup", "book-club")
	require.Equal(t, "user must set a name before sending messages", done.Error)

	done, _ = alice.call("SetUserName", "alice")
	require.JSONEq(t, `"alice"`, string(done.Result))
	done, _ = bob.call("SetDisplayName", "bob")
	require.Empty(t, done.Error)

	done, events := alice.call("CreateGroup", "book-club")
	require.Empty(t, done.Error)
	require.Len(t, events, 1)
	require.Equal(t, chat.EventGroupCreated, events[0].Event)
	require.JSONEq(t, `{"owner":"alice","totalUsers":1,"online":0}`, string(events[0].Payload))
	bob.expectEvent(chat.EventGroupCreated, nil)

	done, _ = bob.call("CreateGroup", "book-club")
	require.Equal(t, "a group with this name already exists", done.Error)

	done, _ = bob.call("GetAvaliableGroups")
	require.JSONEq(t, `["book-club"]`, string(done.Result))

	done, _ = bob.call("JoinGroup", "book-club")
	require.Empty(t, done.Error)
	done, _ = bob.call("GetGroupInfos", "book-club")
	require.JSONEq(t, `{"owner":"alice","totalUsers":2,"online":0}`, string(done.Result))

	done, events = alice.call("SendGroupMessage", "hello bob", "book-club")
	require.Empty(t, done.Error)
	require.Len(t, events, 1)
	var msg models.Message
	bob.expectEvent(chat.EventReceiveGroupMessage, &msg)
	require.Equal(t, "hello bob", msg.Text)
	require.Equal(t, "alice", msg.UserName)

	done, _ = bob.call("GetAllGroupMessages", "book-club")
	var history []models.Message
	require.NoError(t, json.Unmarshal(done.Result, &history))
	require.Len(t, history, 1)

	done, events = bob.call("LeaveGroup", "book-club")
	require.Empty(t, done.Error)
	require.Len(t, events, 1)
	require.Equal(t, chat.EventUserLeaved, events[0].Event)
	var info models.GroupInfo
	alice.expectEvent(chat.EventUserLeaved, &info)
	require.Equal(t, models.GroupInfo{Owner: "alice", TotalUsers: 1}, info)

	done, _ = bob.call("SendMessage", "still here?", "book-club")
	require.Equal(t, "user is not in this group", done.Error)

	done, _ = alice.call("GetGroupInfo", "ghosts")
	require.Equal(t, "group does not exist", done.Error)
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	alice := dial(t, startServer(t))

	require.NoError(t, alice.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, alice.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"invocation","id":"x","method":"JoinGroup","args":[1]}`)))

	done, _ := alice.call("DeleteGroup", "book-club")
	require.Equal(t, `unknown method "DeleteGroup"`, done.Error)
}

func TestInvocationWithoutIDGetsNoCompletion(t *testing.T) {
	alice := dial(t, startServer(t))

	require.NoError(t, alice.conn.WriteJSON(map[string]any{"type": FrameInvocation, "method": "SetDisplayName", "args": []string{"alice"}}))
	done, events := alice.call("CreateGroup", "book-club")
	require.Empty(t, done.Error)
	require.Len(t, events, 1)
}

func TestLeaveOnDisconnect(t *testing.T) {
	url := startServer(t, chat.WithLeaveOnDisconnect(true))
	alice, bob := dial(t, url), dial(t, url)

	alice.call("SetDisplayName", "alice")
	bob.call("SetDisplayName", "bob")
	alice.call("CreateGroup", "book-club")
	bob.expectEvent(chat.EventGroupCreated, nil)
	bob.call("JoinGroup", "book-club")

	require.NoError(t, bob.conn.Close())

	var info models.GroupInfo
	alice.expectEvent(chat.EventUserLeaved, &info)
	require.Equal(t, 1, info.TotalUsers)
}

func TestCreatorReceivesUserLeaved(t *testing.T) {
	url := startServer(t)
	alice, bob := dial(t, url), dial(t, url)

	alice.call("SetDisplayName", "alice")
	bob.call("SetDisplayName", "bob")
	done, _ := alice.call("CreateGroup", "book-club")
	require.Empty(t, done.Error)
	bob.expectEvent(chat.EventGroupCreated, nil)

	done, _ = bob.call("JoinGroup", "book-club")
	require.Empty(t, done.Error)
	done, _ = bob.call("GetGroupInfo", "book-club")
	require.JSONEq(t, `{"owner":"alice","totalUsers":2,"online":0}`, string(done.Result))

	done, _ = bob.call("LeaveGroup", "book-club")
	require.Empty(t, done.Error)

	done, events := alice.call("ListGroups")
	require.JSONEq(t, `["book-club"]`, string(done.Result))
	require.Len(t, events, 1)
	require.Equal(t, chat.EventUserLeaved, events[0].Event)
	require.JSONEq(t, `{"owner":"alice","totalUsers":1,"online":0}`, string(events[0].Payload))
}
