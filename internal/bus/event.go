package bus

import "time"

// Event kinds. Subscribers filter by the namespace prefix ("push.", "status.").
const (
	KindConnected           = "push.connected"
	KindDisconnected        = "push.disconnected"
	KindExhausted           = "push.exhausted"
	KindClientMessage       = "push.client_message"
	KindAIMessage           = "push.ai_message"
	KindMessageSent         = "push.message_sent"
	KindConversationUpdated = "push.conversation_updated"
	KindUserTyping          = "push.user_typing"

	KindStatusChanged = "status.changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// NewEvent returns an event stamped with the current time.
func NewEvent(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
