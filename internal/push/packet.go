package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Engine.IO v4 packet types (first character of a text frame).
const (
	engineOpen    = '0'
	engineClose   = '1'
	enginePing    = '2'
	enginePong    = '3'
	engineMessage = '4'
)

// Socket.IO v4 packet types (second character of an Engine.IO message).
const (
	socketConnect      = '0'
	socketDisconnect   = '1'
	socketEvent        = '2'
	socketConnectError = '4'
)

var errBadPacket = errors.New("malformed packet")

// packet is a decoded Engine.IO frame, with the Socket.IO layer unpacked
// when the frame is a message.
type packet struct {
	engine byte
	socket byte
	event  string
	data   json.RawMessage
}

func decodePacket(frame string) (packet, error) {
	if frame == "" {
		return packet{}, errBadPacket
	}
	p := packet{engine: frame[0]}
	if p.engine != engineMessage {
		if len(frame) > 1 {
			p.data = json.RawMessage(frame[1:])
		}
		return p, nil
	}
	if len(frame) < 2 {
		return packet{}, errBadPacket
	}
	p.socket = frame[1]
	body := frame[2:]
	switch p.socket {
	case socketEvent:
		// Optional ack id precedes the array.
		body = strings.TrimLeft(body, "0123456789")
		var args []json.RawMessage
		if err := json.Unmarshal([]byte(body), &args); err != nil {
			return packet{}, fmt.Errorf("%w: %v", errBadPacket, err)
		}
		if len(args) == 0 {
			return packet{}, fmt.Errorf("%w: event without name", errBadPacket)
		}
		if err := json.Unmarshal(args[0], &p.event); err != nil {
			return packet{}, fmt.Errorf("%w: event name: %v", errBadPacket, err)
		}
		if len(args) > 1 {
			p.data = args[1]
		}
	default:
		if body != "" {
			p.data = json.RawMessage(body)
		}
	}
	return p, nil
}

func encodeEvent(event string, data any) (string, error) {
	b, err := json.Marshal([]any{event, data})
	if err != nil {
		return "", err
	}
	return "42" + string(b), nil
}

// connectFrame asks the server to join the default namespace.
const connectFrame = "40"

// pongFrame answers a server ping.
const pongFrame = "3"

// socketURL converts the backend base URL into the Socket.IO websocket
// endpoint.
func socketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/"
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
