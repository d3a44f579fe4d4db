package push

import (
	"context"

	"github.com/coder/websocket"
)

// Conn is a text-frame duplex connection.
type Conn interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, frame string) error
	Close() error
}

// Dialer opens connections to the live endpoint.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// readLimit bounds a single frame. Voice notes travel base64-encoded inside
// events, so this is far above the websocket library default.
const readLimit = 32 << 20

// WebSocketDialer dials with github.com/coder/websocket.
type WebSocketDialer struct{}

// Dial implements Dialer.
func (WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(readLimit)
	return &wsConn{c: c}, nil
}

type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) Read(ctx context.Context) (string, error) {
	_, b, err := w.c.Read(ctx)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (w *wsConn) Write(ctx context.Context, frame string) error {
	return w.c.Write(ctx, websocket.MessageText, []byte(frame))
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "")
}
