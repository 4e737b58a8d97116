package chiawallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// RequestSigner authenticates custody API requests with HMAC-SHA256 over
// the request body
type RequestSigner struct {
	secret string
}

// NewRequestSigner creates a new request signer
func NewRequestSigner(secret string) *RequestSigner {
	return &RequestSigner{
		secret: secret,
	}
}

// Sign computes the hex HMAC-SHA256 signature of the payload
func (s *RequestSigner) Sign(payload []byte) (string, error) {
	if s.secret == "" {
		return "", fmt.Errorf("signing secret not configured")
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payload)

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks a hex HMAC-SHA256 signature against the payload
func (s *RequestSigner) Verify(payload []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("signature is missing")
	}

	expected, err := s.Sign(payload)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return fmt.Errorf("invalid signature")
	}

	return nil
}
