package chat

// EffectKind says how the transport must apply an Effect.
type EffectKind int

const (
	// EffectBroadcast delivers Event to every open connection.
	EffectBroadcast EffectKind = iota
	// EffectGroupSend delivers Event to every connection subscribed to Group.
	EffectGroupSend
	// EffectSubscribe adds the calling connection to the Group address.
	EffectSubscribe
	// EffectUnsubscribe removes the calling connection from the Group address.
	EffectUnsubscribe
)

// Names of the events pushed to clients.
const (
	EventGroupCreated        = "GroupCreated"
	EventUserLeaved          = "UserLeaved"
	EventReceiveGroupMessage = "ReceiveGroupMessage"
)

// Effect is a fan-out instruction produced by a successful operation.
// Effects are returned in the order the transport must apply them.
type Effect struct {
	Kind    EffectKind
	Group   string
	Event   string
	Payload any
}

func (k EffectKind) String() string {
	switch k {
	case EffectBroadcast:
		return "broadcast"
	case EffectGroupSend:
		return "group_send"
	case EffectSubscribe:
		return "subscribe"
	case EffectUnsubscribe:
		return "unsubscribe"
	default:
		return "unknown"
	}
}

func broadcast(event string, payload any) Effect {
	return Effect{Kind: EffectBroadcast, Event: event, Payload: payload}
}

func groupSend(group, event string, payload any) Effect {
	return Effect{Kind: EffectGroupSend, Group: group, Event: event, Payload: payload}
}

func subscribe(group string) Effect {
	return Effect{Kind: EffectSubscribe, Group: group}
}

func unsubscribe(group string) Effect {
	return Effect{Kind: EffectUnsubscribe, Group: group}
}
