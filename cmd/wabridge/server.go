package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wabridge/internal/middleware"
	"wabridge/internal/models"
	"wabridge/internal/privacy"
	"wabridge/internal/security"
	"wabridge/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// FrameForwarder sends normalized inbound messages toward the bot platform.
// Implemented by *service.BridgeSession.
type FrameForwarder interface {
	Forward(ctx context.Context, msg *models.Message) error
}

// Server is the webhook ingress: it verifies the platform's subscription
// challenge and turns webhook deliveries into control-connection frames.
type Server struct {
	router  *mux.Router
	logger  *logrus.Logger
	cfg     *models.Config
	session FrameForwarder
	server  *http.Server
}

func NewServer(cfg *models.Config, session FrameForwarder, logger *logrus.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		logger:  logger,
		cfg:     cfg,
		session: session,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Observability(s.logger))

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	s.router.HandleFunc("/webhook", s.handleVerification()).Methods(http.MethodGet)
	s.router.HandleFunc("/webhook", s.handleWebhook()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Webhook server listening on port %d", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			s.logger.WithError(err).Debug("Failed to write health response")
		}
	}
}

// handleVerification answers the platform's subscription handshake: echo
// the challenge when the verify token matches, reject otherwise.
func (s *Server) handleVerification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		mode := query.Get("hub.mode")
		token := query.Get("hub.verify_token")
		challenge := query.Get("hub.challenge")

		if mode == "subscribe" && token == s.cfg.WhatsApp.VerifyToken {
			s.logger.Info("Webhook verified")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte(challenge)); err != nil {
				s.logger.WithError(err).Debug("Failed to write challenge response")
			}
			return
		}

		s.logger.WithField(service.LogFieldRemoteIP, r.RemoteAddr).Warn("Webhook verification rejected")
		w.WriteHeader(http.StatusForbidden)
	}
}

// handleWebhook ingests one webhook delivery. Each message inside each
// change is normalized and forwarded individually; the platform always gets
// a success status regardless of downstream outcome, so it never retries
// into a failure loop.
func (s *Server) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := security.VerifySignature(r, s.cfg.WhatsApp.AppSecret)
		if err != nil {
			s.logger.WithError(err).Warn("Webhook signature verification failed")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		defer func() {
			w.WriteHeader(http.StatusOK)
		}()

		var envelope models.WebhookEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			s.logger.WithError(err).Warn("Discarding undecodable webhook payload")
			return
		}

		for i := range envelope.Entry {
			entry := &envelope.Entry[i]
			for j := range entry.Changes {
				s.ingestChange(r.Context(), entry.ID, &entry.Changes[j].Value)
			}
		}
	}
}

// ingestChange normalizes and forwards every message in one change. Changes
// without messages (status updates, read receipts) are skipped here so the
// normalizer only ever sees message-bearing input.
func (s *Server) ingestChange(ctx context.Context, deliveryID string, change *models.ChangeValue) {
	for i := range change.Messages {
		msg, err := service.NormalizeChange(deliveryID, change, &change.Messages[i])
		if err != nil {
			s.logger.WithError(err).WithField(service.LogFieldDirection, "incoming").Warn("Failed to normalize webhook message")
			continue
		}

		if err := s.session.Forward(ctx, msg); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				service.LogFieldMessageID:   msg.ID,
				service.LogFieldChatID:      privacy.MaskPhoneNumber(msg.Conversation.ID),
				service.LogFieldMessageType: string(msg.Type),
			}).Warn("Failed to forward message frame")
		}
	}
}
