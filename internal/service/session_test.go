package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wabridge/internal/errors"
	"wabridge/internal/models"
	"wabridge/pkg/whatsapp/types"
)

type readResult struct {
	data []byte
	err  error
}

// fakeConn is an in-memory ControlConn. Reads are fed through a channel;
// writes are recorded as marshaled JSON.
type fakeConn struct {
	mu       sync.Mutex
	writes   [][]byte
	writeErr error
	reads    chan readResult
	closed   int
}

func newFakeConn() *fakeConn {
	return &fakeConn{reads: make(chan readResult, 16)}
}

func (c *fakeConn) WriteJSON(ctx context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-c.reads:
		return r.data, r.err
	}
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *fakeConn) feed(data string) {
	c.reads <- readResult{data: []byte(data)}
}

func (c *fakeConn) fail(err error) {
	c.reads <- readResult{err: err}
}

// fakeWA is an in-memory Cloud API client.
type fakeWA struct {
	mu       sync.Mutex
	phone    *types.PhoneNumber
	phoneErr error
	sendErr  error
	sent     []*types.SendMessageRequest
}

func newFakeWA() *fakeWA {
	return &fakeWA{
		phone: &types.PhoneNumber{ID: "123456789", VerifiedName: "Support Bot"},
	}
}

func (f *fakeWA) GetPhoneNumber(ctx context.Context) (*types.PhoneNumber, error) {
	if f.phoneErr != nil {
		return nil, f.phoneErr
	}
	return f.phone, nil
}

func (f *fakeWA) SendMessage(ctx context.Context, req *types.SendMessageRequest) (*types.SendMessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, req)
	var resp types.SendMessageResponse
	resp.Messages = append(resp.Messages, struct {
		ID string `json:"id"`
	}{ID: "wamid.sent"})
	return &resp, nil
}

func (f *fakeWA) sentRequests() []*types.SendMessageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.SendMessageRequest, len(f.sent))
	copy(out, f.sent)
	return out
}

func testConfig() *models.Config {
	return &models.Config{
		Bot:          json.RawMessage(`{"greeting":"hi"}`),
		KeepaliveSec: 30,
	}
}

func newTestSession(conn ControlConn, wa *fakeWA) (*BridgeSession, *logrustest.Hook) {
	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewBridgeSession(conn, wa, testConfig(), logger), hook
}

func runSession(t *testing.T, s *BridgeSession) chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(context.Background())
	}()
	return errCh
}

func waitErr(t *testing.T, errCh chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session did not terminate")
		return nil
	}
}

func hasMessage(hook *logrustest.Hook, level logrus.Level, message string) bool {
	for _, entry := range hook.AllEntries() {
		if entry.Level == level && entry.Message == message {
			return true
		}
	}
	return false
}

func TestSessionHandshake(t *testing.T) {
	conn := newFakeConn()
	wa := newFakeWA()
	session, hook := newTestSession(conn, wa)

	errCh := runSession(t, session)

	// Identity is available as soon as the handshake logs.
	require.Eventually(t, func() bool {
		return session.Identity() != nil
	}, time.Second, 5*time.Millisecond)

	user := session.Identity()
	assert.Equal(t, "123456789", user.ID)
	assert.Equal(t, "Support Bot", user.FirstName)
	assert.Equal(t, "123456789", user.Username)
	assert.True(t, user.IsBot)

	writes := conn.written()
	require.NotEmpty(t, writes)
	var init models.InitFrame
	require.NoError(t, json.Unmarshal(writes[0], &init))
	assert.Equal(t, models.FrameTypeInit, init.Type)
	assert.Equal(t, "whatsapp", init.Platform)
	assert.Equal(t, "123456789", init.Bot)
	assert.JSONEq(t, `{"greeting":"hi"}`, string(init.Config))

	assert.True(t, hasMessage(hook, logrus.InfoLevel, "Connected as @123456789"))

	conn.fail(websocket.CloseError{Code: websocket.StatusNoStatusRcvd})
	require.Error(t, waitErr(t, errCh))
}

func TestSessionHandshakeIdentityFailure(t *testing.T) {
	conn := newFakeConn()
	wa := newFakeWA()
	wa.phoneErr = stderrors.New("token expired")
	session, _ := newTestSession(conn, wa)

	err := session.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIdentityResolution, errors.GetCode(err))
	assert.Empty(t, conn.written())
	assert.Nil(t, session.Identity())
}

func TestSessionHandshakeInitWriteFailure(t *testing.T) {
	conn := newFakeConn()
	conn.writeErr = stderrors.New("broken pipe")
	session, _ := newTestSession(conn, newFakeWA())

	err := session.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeControlConnection, errors.GetCode(err))
	assert.Nil(t, session.Identity())
}

func TestSessionCloseClassification(t *testing.T) {
	tests := []struct {
		name    string
		readErr error
		logged  string
	}{
		{
			name:    "graceful disconnect",
			readErr: websocket.CloseError{Code: websocket.StatusNoStatusRcvd},
			logged:  "Disconnected",
		},
		{
			name:    "abrupt termination",
			readErr: websocket.CloseError{Code: websocket.StatusAbnormalClosure},
			logged:  "Terminated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn()
			session, hook := newTestSession(conn, newFakeWA())

			errCh := runSession(t, session)
			conn.fail(tt.readErr)

			err := waitErr(t, errCh)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeControlConnection, errors.GetCode(err))
			assert.True(t, hasMessage(hook, logrus.WarnLevel, tt.logged))

			// The keepalive timer is stopped before the close is reported.
			select {
			case <-session.done:
			default:
				t.Fatal("keepalive not stopped after close")
			}
		})
	}
}

func TestSessionDeliversMessageFrame(t *testing.T) {
	conn := newFakeConn()
	wa := newFakeWA()
	session, _ := newTestSession(conn, wa)

	errCh := runSession(t, session)

	conn.feed(`{"type":"message","message":{
		"id":"1",
		"conversation":{"id":"15550199","name":"Ada"},
		"sender":{"id":"srv","firstName":"","lastName":null,"username":"srv","isBot":true},
		"content":"hello",
		"type":"text",
		"date":0,
		"replyTo":null
	}}`)

	require.Eventually(t, func() bool {
		return len(wa.sentRequests()) == 1
	}, time.Second, 5*time.Millisecond)

	sent := wa.sentRequests()[0]
	assert.Equal(t, "15550199", sent.To)
	assert.Equal(t, "text", sent.Type)
	require.NotNil(t, sent.Text)
	assert.Equal(t, "hello", sent.Text.Body)

	conn.fail(websocket.CloseError{Code: websocket.StatusNoStatusRcvd})
	require.Error(t, waitErr(t, errCh))
}

func TestSessionSwallowsSendFailure(t *testing.T) {
	conn := newFakeConn()
	wa := newFakeWA()
	wa.sendErr = stderrors.New("recipient not on whatsapp")
	session, hook := newTestSession(conn, wa)

	errCh := runSession(t, session)

	conn.feed(`{"type":"message","message":{
		"id":"1",
		"conversation":{"id":"15550199","name":"Ada"},
		"sender":{"id":"srv","firstName":"","lastName":null,"username":"srv","isBot":true},
		"content":"hello",
		"type":"text",
		"date":0,
		"replyTo":null
	}}`)

	require.Eventually(t, func() bool {
		return hasMessage(hook, logrus.ErrorLevel, "Error sending message")
	}, time.Second, 5*time.Millisecond)

	// The failure stays on this side of the bridge: the connection keeps
	// serving frames.
	conn.feed(`{"type":"pong"}`)
	conn.fail(websocket.CloseError{Code: websocket.StatusNoStatusRcvd})

	err := waitErr(t, errCh)
	require.Error(t, err)
	assert.True(t, hasMessage(hook, logrus.WarnLevel, "Disconnected"))
}

func TestSessionDropsUnmappedType(t *testing.T) {
	conn := newFakeConn()
	wa := newFakeWA()
	session, hook := newTestSession(conn, wa)

	errCh := runSession(t, session)

	conn.feed(`{"type":"message","message":{
		"id":"1",
		"conversation":{"id":"15550199","name":"Ada"},
		"sender":{"id":"srv","firstName":"","lastName":null,"username":"srv","isBot":true},
		"content":null,
		"type":"sticker",
		"date":0,
		"replyTo":null
	}}`)

	require.Eventually(t, func() bool {
		return hasMessage(hook, logrus.InfoLevel, "No outbound mapping for message type, dropping")
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, wa.sentRequests())

	conn.fail(websocket.CloseError{Code: websocket.StatusNoStatusRcvd})
	require.Error(t, waitErr(t, errCh))
}

func TestSessionIgnoresMalformedAndUnknownFrames(t *testing.T) {
	conn := newFakeConn()
	wa := newFakeWA()
	session, hook := newTestSession(conn, wa)

	errCh := runSession(t, session)

	conn.feed(`{not json`)
	conn.feed(`{"type":"upgrade"}`)
	conn.feed(`{"type":"message"}`)
	conn.feed(`{"type":"pong"}`)

	require.Eventually(t, func() bool {
		return hasMessage(hook, logrus.WarnLevel, "Discarding control frame") &&
			hasMessage(hook, logrus.DebugLevel, "Ignoring unhandled control frame") &&
			hasMessage(hook, logrus.WarnLevel, "Message frame without message body")
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, wa.sentRequests())

	conn.fail(websocket.CloseError{Code: websocket.StatusNoStatusRcvd})
	require.Error(t, waitErr(t, errCh))
}

func TestSessionKeepalive(t *testing.T) {
	conn := newFakeConn()
	session, _ := newTestSession(conn, newFakeWA())
	session.pingInterval = 10 * time.Millisecond

	errCh := runSession(t, session)

	require.Eventually(t, func() bool {
		for _, data := range conn.written() {
			var frame models.ControlFrame
			if json.Unmarshal(data, &frame) == nil && frame.Type == models.FrameTypePing {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	var ping models.PingFrame
	for _, data := range conn.written() {
		var frame models.ControlFrame
		if json.Unmarshal(data, &frame) == nil && frame.Type == models.FrameTypePing {
			require.NoError(t, json.Unmarshal(data, &ping))
			break
		}
	}
	assert.Equal(t, "123456789", ping.Bot)
	assert.Equal(t, "whatsapp", ping.Platform)

	conn.fail(websocket.CloseError{Code: websocket.StatusNoStatusRcvd})
	require.Error(t, waitErr(t, errCh))

	// No pings after the connection closed.
	count := len(conn.written())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, len(conn.written()))
}

func TestForward(t *testing.T) {
	conn := newFakeConn()
	session, _ := newTestSession(conn, newFakeWA())

	msg := &models.Message{
		ID:           "ENTRY_ID",
		Conversation: models.Conversation{ID: "15550199", Name: "Ada"},
		Sender:       models.User{ID: "15550199", FirstName: "Ada", Username: "15550199"},
		Content:      "hi",
		Type:         models.MessageTypeText,
	}

	// Before the handshake, forwarding is rejected.
	err := session.Forward(context.Background(), msg)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeControlConnection, errors.GetCode(err))
	assert.Empty(t, conn.written())

	errCh := runSession(t, session)
	require.Eventually(t, func() bool {
		return session.Identity() != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, session.Forward(context.Background(), msg))

	writes := conn.written()
	require.Len(t, writes, 2)
	var frame models.MessageFrame
	require.NoError(t, json.Unmarshal(writes[1], &frame))
	assert.Equal(t, models.FrameTypeMessage, frame.Type)
	assert.Equal(t, "123456789", frame.Bot)
	require.NotNil(t, frame.Message)
	assert.Equal(t, "ENTRY_ID", frame.Message.ID)
	assert.Equal(t, "hi", frame.Message.Content)

	conn.fail(websocket.CloseError{Code: websocket.StatusNoStatusRcvd})
	require.Error(t, waitErr(t, errCh))
}

func TestSessionCloseIdempotent(t *testing.T) {
	conn := newFakeConn()
	session, _ := newTestSession(conn, newFakeWA())

	session.Close()
	session.Close()
	assert.Equal(t, 2, conn.closed)
}

func TestDeliverOutcomes(t *testing.T) {
	conn := newFakeConn()
	wa := newFakeWA()
	session, _ := newTestSession(conn, wa)

	text := &models.Message{
		Conversation: models.Conversation{ID: "15550199"},
		Content:      "hi",
		Type:         models.MessageTypeText,
	}

	outcome := session.deliver(context.Background(), text)
	assert.Equal(t, DeliverySent, outcome.Status)
	assert.Equal(t, "wamid.sent", outcome.MessageID)

	wa.sendErr = stderrors.New("rejected")
	outcome = session.deliver(context.Background(), text)
	assert.Equal(t, DeliveryFailed, outcome.Status)
	assert.Error(t, outcome.Err)

	sticker := &models.Message{
		Conversation: models.Conversation{ID: "15550199"},
		Type:         models.MessageTypeSticker,
	}
	outcome = session.deliver(context.Background(), sticker)
	assert.Equal(t, DeliveryDropped, outcome.Status)
}
