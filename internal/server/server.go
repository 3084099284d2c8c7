package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kryail/settlement/internal/idempotency"
	"github.com/kryail/settlement/internal/service"
	"github.com/kryail/settlement/internal/webhook"
	"github.com/kryail/settlement/utils"
)

// WebhookEnqueuer is the queue surface the inbound handler needs.
type WebhookEnqueuer interface {
	EnqueueWebhook(ctx context.Context, event *webhook.Event) error
}

// Claimer grants exclusive processing rights over webhook event keys.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Server struct {
	engine   *gin.Engine
	verifier *webhook.Verifier
	claims   Claimer
	queue    WebhookEnqueuer
	svc      *service.Service
	logger   *utils.Logger
}

func NewServer(verifier *webhook.Verifier, claims Claimer, queue WebhookEnqueuer, svc *service.Service, logger *utils.Logger) *Server {
	s := &Server{
		engine:   gin.New(),
		verifier: verifier,
		claims:   claims,
		queue:    queue,
		svc:      svc,
		logger:   logger,
	}

	s.engine.Use(gin.Recovery())
	s.engine.POST("/webhooks/provider", s.handleProviderWebhook)

	payments := s.engine.Group("/payments")
	{
		payments.POST("/deposit", s.handleStartDeposit)
		payments.POST("/withdraw", s.handleStartWithdrawal)
		payments.POST("/send", s.handleStartSend)
		payments.GET("/:userID/balance", s.handleGetBalance)
		payments.GET("/:userID/transactions", s.handleGetHistory)
	}

	return s
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// handleProviderWebhook is the fast provider-facing path: verify, claim,
// enqueue. It never blocks on ledger mutation.
func (s *Server) handleProviderWebhook(c *gin.Context) {
	// Signature verification must see the exact bytes from the wire,
	// before any parsing.
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil || len(rawBody) == 0 {
		s.logger.Error("Raw body not available for signature verification")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid request"})
		return
	}

	signature := c.GetHeader("X-Webhook-Signature")
	if !s.verifier.VerifySignature(rawBody, signature) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	event, err := webhook.ParseEvent(rawBody)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	s.logger.Infof("Valid webhook event: %s", event.Name)

	unique, err := s.claimEvent(c.Request.Context(), event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency check failed"})
		return
	}
	if !unique {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "detail": "duplicate_ignored"})
		return
	}

	if err := s.queue.EnqueueWebhook(c.Request.Context(), event); err != nil {
		s.logger.Errorf("Failed to enqueue webhook: %v", err)
		s.releaseEvent(c.Request.Context(), event)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// claimEvent applies the idempotency gate. Only transaction-shaped events are
// claimed; events missing an id or status pass through with a warning.
func (s *Server) claimEvent(ctx context.Context, event *webhook.Event) (bool, error) {
	key, ok := s.eventKey(event)
	if !ok {
		return true, nil
	}

	unique, err := s.claims.Claim(ctx, key, idempotency.ClaimTTL)
	if err != nil {
		s.logger.Errorf("Idempotency claim failed: %v", err)
		return false, err
	}
	if !unique {
		s.logger.Infof("Duplicate webhook detected for key %s, skipping", key)
	}
	return unique, nil
}

func (s *Server) releaseEvent(ctx context.Context, event *webhook.Event) {
	key, ok := s.eventKey(event)
	if !ok {
		return
	}
	if err := s.claims.Release(ctx, key); err != nil {
		s.logger.Errorf("Failed to release claim %s: %v", key, err)
	}
}

func (s *Server) eventKey(event *webhook.Event) (string, bool) {
	if !event.IsTransactional() {
		return "", false
	}
	data, err := event.Transaction()
	if err != nil || data.ID == "" || data.Status == "" {
		s.logger.Warnf("Missing transaction id or status in %s event for idempotency check", event.Name)
		return "", false
	}
	return idempotency.KeyFor(data.ID, data.Status), true
}
