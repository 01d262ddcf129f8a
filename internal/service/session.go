package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"wabridge/internal/constants"
	"wabridge/internal/errors"
	"wabridge/internal/metrics"
	"wabridge/internal/models"
	"wabridge/internal/privacy"
	"wabridge/pkg/control"
	"wabridge/pkg/whatsapp"

	"github.com/sirupsen/logrus"
)

// ControlConn is the control-connection surface the session needs. It is
// implemented by *control.Conn.
type ControlConn interface {
	WriteJSON(ctx context.Context, v any) error
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// DeliveryStatus classifies what happened to one outbound send attempt.
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryDropped DeliveryStatus = "dropped"
	DeliveryFailed  DeliveryStatus = "failed"
)

// DeliveryOutcome is the typed result of an outbound send. Failures are
// absorbed at the session boundary: the control connection never sees them.
type DeliveryOutcome struct {
	Status    DeliveryStatus
	MessageID string
	Err       error
}

// BridgeSession owns the control connection for its whole life: identity
// bootstrap and handshake, keepalive, inbound frame dispatch, and close
// classification. One session per process; when Run returns, the process
// exits and external supervision restarts it.
type BridgeSession struct {
	conn      ControlConn
	wa        whatsapp.Client
	botConfig json.RawMessage
	logger    *logrus.Logger

	pingInterval time.Duration
	writeTimeout time.Duration

	mu       sync.RWMutex
	identity *models.User

	done      chan struct{}
	closeOnce sync.Once
}

func NewBridgeSession(conn ControlConn, wa whatsapp.Client, cfg *models.Config, logger *logrus.Logger) *BridgeSession {
	keepalive := cfg.KeepaliveSec
	if keepalive <= 0 {
		keepalive = constants.DefaultKeepaliveIntervalSec
	}
	return &BridgeSession{
		conn:         conn,
		wa:           wa,
		botConfig:    cfg.Bot,
		logger:       logger,
		pingInterval: time.Duration(keepalive) * time.Second,
		writeTimeout: time.Duration(constants.DefaultControlWriteTimeoutSec) * time.Second,
		done:         make(chan struct{}),
	}
}

// Run performs the handshake and then services the connection until it
// closes. The returned error is terminal; no reconnect is attempted.
func (s *BridgeSession) Run(ctx context.Context) error {
	if err := s.handshake(ctx); err != nil {
		return err
	}

	go s.keepalive(ctx)

	return s.readLoop(ctx)
}

// handshake resolves the bot identity and sends the init frame. The init
// frame is the side effect of a successful resolution: until it is sent, no
// ping or message frame may leave the bridge.
func (s *BridgeSession) handshake(ctx context.Context) error {
	user, err := ResolveIdentity(ctx, s.wa)
	if err != nil {
		return err
	}

	init := models.NewInitFrame(*user, s.botConfig)
	if err := s.conn.WriteJSON(ctx, init); err != nil {
		return errors.Wrap(err, errors.ErrCodeControlConnection, "failed to send init frame")
	}

	s.mu.Lock()
	s.identity = user
	s.mu.Unlock()

	s.logger.Infof("Connected as @%s", user.Username)
	return nil
}

// Identity returns the resolved bot identity, or nil before the handshake.
func (s *BridgeSession) Identity() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// keepalive sends a ping frame on a fixed interval. Ticks are
// fire-and-forget: a tick before identity resolution is a no-op, and a slow
// send is never queued behind the next tick.
func (s *BridgeSession) keepalive(ctx context.Context) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			user := s.Identity()
			if user == nil {
				s.logger.Debug("Keepalive tick before identity resolution, skipping")
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			if err := s.conn.WriteJSON(wctx, models.NewPingFrame(user.Username)); err != nil {
				s.logger.WithError(err).Warn("Failed to send keepalive")
			} else {
				metrics.IncrementCounter("control_pings_total", nil, "Keepalive frames sent")
			}
			cancel()
		}
	}
}

// readLoop services inbound control frames until the connection closes,
// then classifies the close. Both close classes stop the keepalive timer
// first and surface a terminal error.
func (s *BridgeSession) readLoop(ctx context.Context) error {
	for {
		data, err := s.conn.Read(ctx)
		if err != nil {
			s.stopKeepalive()
			switch control.Classify(err) {
			case control.CloseGraceful:
				s.logger.Warn("Disconnected")
			case control.CloseAbrupt:
				s.logger.Warn("Terminated")
			default:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.WithError(err).Error("Control connection error")
			}
			return errors.Wrap(err, errors.ErrCodeControlConnection, "control connection closed")
		}

		s.handleFrame(ctx, data)
	}
}

// handleFrame dispatches one inbound frame. Malformed bodies are logged and
// discarded; one bad frame never takes down the bridge.
func (s *BridgeSession) handleFrame(ctx context.Context, data []byte) {
	var frame models.ControlFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.WithError(errors.NewFrameError(err, "malformed control frame")).Warn("Discarding control frame")
		metrics.IncrementCounter("control_frames_malformed_total", nil, "Malformed control frames discarded")
		return
	}

	switch frame.Type {
	case models.FrameTypeMessage:
		if frame.Message == nil {
			s.logger.Warn("Message frame without message body")
			return
		}
		s.deliver(ctx, frame.Message)
	case models.FrameTypePong:
		// keepalive acknowledged
	default:
		s.logger.WithField(LogFieldFrameType, string(frame.Type)).Debug("Ignoring unhandled control frame")
	}
}

// deliver renders and sends one outbound message. This is the at-most-once
// boundary: rejections are logged with the platform's error body and
// swallowed, with no retry and no propagation to the control connection.
func (s *BridgeSession) deliver(ctx context.Context, msg *models.Message) DeliveryOutcome {
	fields := logrus.Fields{
		LogFieldMessageID:   privacy.MaskMessageID(msg.ID),
		LogFieldChatID:      privacy.MaskPhoneNumber(msg.Conversation.ID),
		LogFieldMessageType: string(msg.Type),
		LogFieldDirection:   "outgoing",
	}

	req := RenderMessage(msg)
	if req == nil {
		s.logger.WithFields(fields).Info("No outbound mapping for message type, dropping")
		metrics.IncrementCounter("messages_dropped_total", map[string]string{"type": string(msg.Type)}, "Outbound messages with no mapping")
		return DeliveryOutcome{Status: DeliveryDropped}
	}

	resp, err := s.wa.SendMessage(ctx, req)
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Error sending message")
		metrics.IncrementCounter("messages_failed_total", nil, "Outbound sends rejected by the platform")
		return DeliveryOutcome{Status: DeliveryFailed, Err: err}
	}

	outcome := DeliveryOutcome{Status: DeliverySent, MessageID: resp.MessageID()}
	s.logger.WithFields(fields).WithField(LogFieldOutcome, string(outcome.Status)).Debug("Message delivered")
	metrics.IncrementCounter("messages_sent_total", nil, "Outbound sends accepted by the platform")
	return outcome
}

// Forward wraps one normalized inbound message in a control frame and sends
// it to the bot platform. Messages arriving before the handshake completes
// are rejected, preserving init-first ordering on the wire.
func (s *BridgeSession) Forward(ctx context.Context, msg *models.Message) error {
	user := s.Identity()
	if user == nil {
		return errors.New(errors.ErrCodeControlConnection, "control connection not yet identified")
	}

	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	if err := s.conn.WriteJSON(wctx, models.NewMessageFrame(user.Username, msg)); err != nil {
		return errors.Wrap(err, errors.ErrCodeControlConnection, "failed to forward message frame")
	}

	metrics.IncrementCounter("messages_forwarded_total", map[string]string{"type": string(msg.Type)}, "Inbound messages forwarded to the bot platform")
	return nil
}

func (s *BridgeSession) stopKeepalive() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Close stops the keepalive timer and tears down the transport. Idempotent:
// shutdown paths may invoke it more than once without double-faulting.
func (s *BridgeSession) Close() {
	s.stopKeepalive()
	if err := s.conn.Close(); err != nil {
		s.logger.WithError(err).Debug("Control connection close")
	}
}
