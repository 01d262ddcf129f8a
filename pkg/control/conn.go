package control

import (
	"context"
	"encoding/json"
	"sync"

	"wabridge/internal/constants"

	"github.com/coder/websocket"
)

// Conn is the persistent control connection to the bot platform. Frames are
// JSON text messages in both directions. Writes from the keepalive timer
// and the webhook ingress are serialized by a mutex; the single read loop
// needs no coordination.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// Dial opens the control connection. The caller owns the returned Conn and
// must Close it.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	ws, resp, err := websocket.Dial(ctx, addr, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(constants.DefaultControlReadLimitBytes)
	return &Conn{ws: ws}, nil
}

// WriteJSON marshals v and sends it as one text frame.
func (c *Conn) WriteJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.Write(ctx, websocket.MessageText, data)
}

// Read returns the payload of the next frame. It blocks until a frame
// arrives, the context is canceled, or the connection closes.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	return data, err
}

// Close sends a normal closure and tears down the connection. Safe to call
// more than once; later calls return the transport's already-closed error.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "shutting down")
}

// CloseClass categorizes how the peer ended the connection.
type CloseClass int

const (
	// CloseUnknown covers local errors and context cancellation.
	CloseUnknown CloseClass = iota
	// CloseGraceful means the peer disconnected without sending a status.
	CloseGraceful
	// CloseAbrupt means the transport dropped without a close handshake.
	CloseAbrupt
)

// Classify maps a read error to a CloseClass. Status 1005 (no status
// received) is the graceful remote disconnect; 1006 (abnormal closure) is
// the terminated transport.
func Classify(err error) CloseClass {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNoStatusRcvd:
		return CloseGraceful
	case websocket.StatusAbnormalClosure:
		return CloseAbrupt
	default:
		return CloseUnknown
	}
}
