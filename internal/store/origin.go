package store

// Origin classifies who produced a message. The wire carries it as a small
// integer ("typo"); anything outside the known codes is OriginUnknown.
type Origin int

const (
	OriginUnknown Origin = iota
	OriginTemplate
	OriginClient
	OriginAI
	OriginOperator
)

// OriginFromCode maps a wire type code to an Origin.
func OriginFromCode(code int) Origin {
	switch code {
	case 1:
		return OriginTemplate
	case 2:
		return OriginClient
	case 3:
		return OriginAI
	case 4:
		return OriginOperator
	default:
		return OriginUnknown
	}
}

// Code returns the wire type code, 0 for OriginUnknown.
func (o Origin) Code() int {
	switch o {
	case OriginTemplate:
		return 1
	case OriginClient:
		return 2
	case OriginAI:
		return 3
	case OriginOperator:
		return 4
	default:
		return 0
	}
}

// Label returns the human-readable name shown above a message.
func (o Origin) Label() string {
	switch o {
	case OriginTemplate:
		return "Template"
	case OriginClient:
		return "Client"
	case OriginAI:
		return "AI"
	case OriginOperator:
		return "Operator"
	default:
		return "Incoming"
	}
}

// Color returns a tview color tag value for the origin.
func (o Origin) Color() string {
	switch o {
	case OriginTemplate:
		return "#5dade2"
	case OriginClient:
		return "#58d68d"
	case OriginAI:
		return "#af7ac5"
	case OriginOperator:
		return "#f5b041"
	default:
		return "#aab7b8"
	}
}

// Outgoing reports whether messages of this origin were sent to the contact.
func (o Origin) Outgoing() bool {
	switch o {
	case OriginTemplate, OriginAI, OriginOperator:
		return true
	default:
		return false
	}
}

func (o Origin) String() string { return o.Label() }
