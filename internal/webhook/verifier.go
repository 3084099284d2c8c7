package webhook

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/kryail/settlement/utils"
)

// Verifier checks provider webhook authenticity: an RSA-SHA256 signature
// over the exact raw bytes received on the wire. Verification must never run
// on a re-serialized payload, since re-serialization can reorder bytes and
// invalidate a legitimate signature.
type Verifier struct {
	publicKey *rsa.PublicKey
	logger    *utils.Logger
}

// NewVerifier parses the PEM-encoded public key from config. An empty key
// degrades the verifier to pass-through for non-production environments.
func NewVerifier(publicKeyPEM string, logger *utils.Logger) (*Verifier, error) {
	if publicKeyPEM == "" {
		logger.Warn("WEBHOOK_PUBLIC_KEY not configured - signature verification will be skipped")
		return &Verifier{logger: logger}, nil
	}

	// Keys delivered through env files often carry literal \n sequences.
	normalized := strings.ReplaceAll(publicKeyPEM, `\n`, "\n")

	block, _ := pem.Decode([]byte(normalized))
	if block == nil {
		return nil, errors.New("webhook public key is not valid PEM")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook public key: %w", err)
	}

	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("webhook public key is not an RSA key")
	}

	return &Verifier{publicKey: rsaKey, logger: logger}, nil
}

// VerifySignature reports whether signature (base64) matches rawBody.
func (v *Verifier) VerifySignature(rawBody []byte, signature string) bool {
	if v.publicKey == nil {
		v.logger.Debug("Skipping signature verification (no public key configured)")
		return true
	}

	if signature == "" {
		v.logger.Error("No signature provided in webhook request")
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		v.logger.Errorf("Webhook signature is not valid base64: %v", err)
		return false
	}

	digest := sha256.Sum256(rawBody)
	if err := rsa.VerifyPKCS1v15(v.publicKey, crypto.SHA256, digest[:], sig); err != nil {
		v.logger.Warn("Webhook signature verification failed")
		return false
	}

	return true
}
