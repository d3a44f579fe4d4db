package push

import "encoding/json"

// Inbound event names emitted by the backend.
const (
	EventClientMessage       = "recibedMessage"
	EventAIMessage           = "IAsendMessage"
	EventMessageSent         = "sendMessage"
	EventConversationUpdated = "conversation_updated"
	EventUserTyping          = "user_typing"
)

// Handlers receives channel lifecycle and inbound events. Nil callbacks are
// skipped. Callbacks run on the channel's reader goroutine.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func(err error)
	// OnExhausted fires once when the retry ceiling is exceeded. No further
	// reconnection is attempted afterwards.
	OnExhausted func(err error)

	OnClientMessage       func(data json.RawMessage)
	OnAIMessage           func(data json.RawMessage)
	OnMessageSent         func(data json.RawMessage)
	OnConversationUpdated func(data json.RawMessage)
	OnUserTyping          func(data json.RawMessage)
}

// dispatch routes an inbound event. Returns false for unknown events.
func (h Handlers) dispatch(event string, data json.RawMessage) bool {
	var fn func(json.RawMessage)
	switch event {
	case EventClientMessage:
		fn = h.OnClientMessage
	case EventAIMessage:
		fn = h.OnAIMessage
	case EventMessageSent:
		fn = h.OnMessageSent
	case EventConversationUpdated:
		fn = h.OnConversationUpdated
	case EventUserTyping:
		fn = h.OnUserTyping
	default:
		return false
	}
	if fn != nil {
		fn(data)
	}
	return true
}
