package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Frame types exchanged over /hub/chat.
const (
	FrameInvocation = "invocation"
	FrameCompletion = "completion"
	FrameEvent      = "event"
)

var errInvalidFrame = errors.New("invalid frame")

// invocation is a client call: {"type":"invocation","id":"1","method":"JoinGroup","args":["g"]}.
type invocation struct {
	ID     json.RawMessage
	Method string
	Args   []string
}

// completionFrame answers an invocation that carried an id.
type completionFrame struct {
	Type   string          `json:"type"`
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// eventFrame is a server pushed event.
type eventFrame struct {
	Type    string `json:"type"`
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func parseInvocation(raw []byte) (invocation, error) {
	if !gjson.ValidBytes(raw) {
		return invocation{}, fmt.Errorf("%w: not json", errInvalidFrame)
	}
	frame := gjson.ParseBytes(raw)

	inv := invocation{}
	if id := frame.Get("id"); id.Exists() && id.Type != gjson.Null {
		inv.ID = json.RawMessage(id.Raw)
	}
	if typ := frame.Get("type"); typ.Exists() && typ.String() != FrameInvocation {
		return inv, fmt.Errorf("%w: unexpected type %q", errInvalidFrame, typ.String())
	}

	method := frame.Get("method")
	if method.Type != gjson.String || method.String() == "" {
		return inv, fmt.Errorf("%w: missing method", errInvalidFrame)
	}
	inv.Method = method.String()

	args := frame.Get("args")
	if !args.Exists() || args.Type == gjson.Null {
		return inv, nil
	}
	if !args.IsArray() {
		return inv, fmt.Errorf("%w: args must be an array", errInvalidFrame)
	}
	for i, arg := range args.Array() {
		if arg.Type != gjson.String {
			return inv, fmt.Errorf("%w: argument %d must be a string", errInvalidFrame, i)
		}
		inv.Args = append(inv.Args, arg.String())
	}
	return inv, nil
}

func encodeCompletion(id json.RawMessage, result any, errMsg string) ([]byte, error) {
	return json.Marshal(completionFrame{Type: FrameCompletion, ID: id, Result: result, Error: errMsg})
}

func encodeEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(eventFrame{Type: FrameEvent, Event: event, Payload: payload})
}
