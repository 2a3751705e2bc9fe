package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"group-chat-service/internal/chat"
	"group-chat-service/internal/models"
	"group-chat-service/internal/observability"
	"group-chat-service/internal/session"
)

const defaultMaxMessageSize = 8192

// GroupHubHandler serves the group chat protocol over websocket connections.
type GroupHubHandler struct {
	hub            *Hub
	service        *chat.Service
	logger         *zap.SugaredLogger
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

// NewGroupHubHandler constructs a GroupHubHandler.
func NewGroupHubHandler(hub *Hub, service *chat.Service, logger *zap.SugaredLogger, maxMessageSize int64) *GroupHubHandler {
	if maxMessageSize <= 0 {
		maxMessageSize = defaultMaxMessageSize
	}
	return &GroupHubHandler{
		hub:     hub,
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		maxMessageSize: maxMessageSize,
	}
}

// Handle upgrades the request and serves the connection until it closes.
func (h *GroupHubHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("group-chat-service/ws").Start(c.Request.Context(), "ws.handshake", trace.WithSpanKind(trace.SpanKindInternal))
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		span.End()
		h.logger.Debugw("websocket upgrade failed", "error", err)
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		ConnectedAt: time.Now(),
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		info.TraceID = sc.TraceID().String()
	}
	span.End()

	client := newClient(conn, info, h.logger.With("conn_id", info.ConnID, "ip", info.IP))
	h.hub.AddClient(client)
	observability.IncWSActive(wsKind)
	publishWSEvent(info, "ws_connect", "")
	client.logger.Infow("Connection established")

	go client.writePump()

	// invocations outlive the upgrade request
	h.serve(context.WithoutCancel(ctx), client, session.New(info.ConnID))
}

func (h *GroupHubHandler) serve(ctx context.Context, client *Client, sess *session.Session) {
	var closeReason string
	defer func() {
		client.Close()
		h.hub.Apply(client.ID(), h.service.Disconnect(ctx, sess))
		h.hub.RemoveClient(client)
		observability.DecWSActive(wsKind)
		publishWSEvent(client.info, "ws_disconnect", closeReason)
		client.logger.Infow("Connection closed", "reason", closeReason)
	}()

	client.setupRead(h.maxMessageSize)
	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !client.Closed() {
				publishWSEvent(client.info, "ws_error", closeReason)
			}
			return
		}
		h.handleFrame(ctx, client, sess, raw)
	}
}

func (h *GroupHubHandler) handleFrame(ctx context.Context, client *Client, sess *session.Session, raw []byte) {
	inv, err := parseInvocation(raw)
	if err != nil {
		client.logger.Warnw("Ignoring frame", "error", err)
		return
	}

	res, err := h.service.Invoke(ctx, sess, inv.Method, inv.Args)
	if err != nil {
		if models.KindOf(err) == models.KindStorage {
			client.logger.Errorw("Invocation failed", "method", inv.Method, "error", err)
		} else {
			client.logger.Debugw("Invocation rejected", "method", inv.Method, "error", err)
		}
		h.complete(client, inv.ID, nil, models.ClientMessage(err))
		return
	}

	h.hub.Apply(client.ID(), res.Effects)
	h.complete(client, inv.ID, res.Value, "")
}

func (h *GroupHubHandler) complete(client *Client, id json.RawMessage, result any, errMsg string) {
	if len(id) == 0 {
		return
	}
	payload, err := encodeCompletion(id, result, errMsg)
	if err != nil {
		client.logger.Errorw("Failed to encode completion", "error", err)
		payload, _ = encodeCompletion(id, nil, "internal server error")
	}
	h.hub.SendToClient(client.ID(), payload)
}

// Shutdown closes every open connection.
func (h *GroupHubHandler) Shutdown() {
	for _, client := range h.hub.Clients() {
		client.Close()
	}
}
