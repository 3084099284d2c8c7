package server

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kryail/settlement/internal/webhook"
	"github.com/kryail/settlement/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaimer struct {
	claimed  map[string]bool
	released []string
	err      error
}

func (f *fakeClaimer) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.claimed == nil {
		f.claimed = make(map[string]bool)
	}
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	return true, nil
}

func (f *fakeClaimer) Release(_ context.Context, key string) error {
	delete(f.claimed, key)
	f.released = append(f.released, key)
	return nil
}

type fakeQueue struct {
	events []*webhook.Event
	err    error
}

func (f *fakeQueue) EnqueueWebhook(_ context.Context, event *webhook.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type webhookFixture struct {
	server *Server
	claims *fakeClaimer
	queue  *fakeQueue
	key    *rsa.PrivateKey
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	logger := utils.InitTestLogger()
	verifier, err := webhook.NewVerifier(string(pubPEM), logger)
	require.NoError(t, err)

	claims := &fakeClaimer{}
	queue := &fakeQueue{}
	return &webhookFixture{
		server: NewServer(verifier, claims, queue, nil, logger),
		claims: claims,
		queue:  queue,
		key:    key,
	}
}

func (f *webhookFixture) sign(t *testing.T, payload []byte) string {
	t.Helper()
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, f.key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

func (f *webhookFixture) post(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	rec := httptest.NewRecorder()
	f.server.engine.ServeHTTP(rec, req)
	return rec
}

var validPayload = []byte(`{"event":"TRANSACTION.UPDATED","data":{"id":"tx_1","type":"deposit","status":"completed","amount":5000,"currency":"NGN","customerId":"cust_1"}}`)

func TestWebhookAcceptedAndEnqueued(t *testing.T) {
	f := newWebhookFixture(t)

	rec := f.post(validPayload, f.sign(t, validPayload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	require.Len(t, f.queue.events, 1)
	assert.Equal(t, "TRANSACTION.UPDATED", f.queue.events[0].Name)
}

func TestWebhookDuplicateIgnored(t *testing.T) {
	f := newWebhookFixture(t)
	signature := f.sign(t, validPayload)

	first := f.post(validPayload, signature)
	require.Equal(t, http.StatusOK, first.Code)

	second := f.post(validPayload, signature)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "duplicate_ignored")

	// Only the first delivery reaches the queue.
	assert.Len(t, f.queue.events, 1)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)

	tampered := bytes.Replace(validPayload, []byte("5000"), []byte("9000"), 1)
	rec := f.post(tampered, f.sign(t, validPayload))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.queue.events)

	rec = f.post(validPayload, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsStructurallyInvalid(t *testing.T) {
	f := newWebhookFixture(t)

	payload := []byte(`{"data":{"id":"tx_1"}}`)
	rec := f.post(payload, f.sign(t, payload))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.queue.events)
}

func TestWebhookReleasesClaimOnEnqueueFailure(t *testing.T) {
	f := newWebhookFixture(t)
	f.queue.err = errors.New("redis down")

	rec := f.post(validPayload, f.sign(t, validPayload))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, f.claims.released, 1)

	// After the release a redelivery can claim and enqueue again.
	f.queue.err = nil
	rec = f.post(validPayload, f.sign(t, validPayload))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.queue.events, 1)
}

func TestWebhookNonTransactionalPassesThrough(t *testing.T) {
	f := newWebhookFixture(t)

	payload := []byte(`{"event":"CUSTOMER.CREATED","data":{"customerId":"cust_1"}}`)
	signature := f.sign(t, payload)

	// Non-transactional events are never claimed, so repeats all enqueue.
	first := f.post(payload, signature)
	second := f.post(payload, signature)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Len(t, f.queue.events, 2)
}
