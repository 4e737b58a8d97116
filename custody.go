package chiawallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// CustodyManager talks to the remote signing/custody backend. Every request
// body is HMAC-signed; all calls run behind a circuit breaker, and only
// idempotent reads are retried.
type CustodyManager struct {
	cfg            *Config
	logger         zerolog.Logger
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	signer         *RequestSigner
}

// NewCustodyManager creates a new custody manager
func NewCustodyManager(cfg *Config, logger zerolog.Logger) *CustodyManager {
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fmt.Sprintf("custody-%s", cfg.Network),
		MaxRequests: uint32(cfg.CircuitBreaker.MaxRequests),
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.CircuitBreaker.MaxRequests) {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.CircuitBreaker.Threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Custody circuit breaker state changed")
		},
	})

	return &CustodyManager{
		cfg:            cfg,
		logger:         logger,
		httpClient:     &http.Client{Timeout: cfg.HTTPClient.Timeout},
		circuitBreaker: circuitBreaker,
		signer:         NewRequestSigner(cfg.Custody.SigningSecret),
	}
}

// GetPublicKey retrieves the wallet's master public key from the custody
// backend. Safe to retry.
func (cm *CustodyManager) GetPublicKey(ctx context.Context, walletID string) (string, error) {
	var publicKey string

	err := cm.executeWithRetry(ctx, "get_public_key", func() error {
		_, err := cm.circuitBreaker.Execute(func() (interface{}, error) {
			var resp struct {
				WalletID  string `json:"wallet_id"`
				PublicKey string `json:"public_key"`
			}

			path := fmt.Sprintf("/v1/wallets/%s/public-key", walletID)
			if err := cm.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
				return nil, err
			}

			publicKey = resp.PublicKey
			return nil, nil
		})
		return err
	})

	return publicKey, err
}

// CreateSpendBundle asks the backend to build and sign a spend bundle from
// already-selected coins. Never retried: a duplicate call could double-sign.
func (cm *CustodyManager) CreateSpendBundle(ctx context.Context, req SpendRequest) (*SpendBundle, error) {
	var bundle *SpendBundle

	_, err := cm.circuitBreaker.Execute(func() (interface{}, error) {
		var resp struct {
			SpendBundle SpendBundle `json:"spend_bundle"`
		}

		if err := cm.do(ctx, http.MethodPost, "/v1/spend-bundles", req, &resp); err != nil {
			return nil, err
		}

		bundle = &resp.SpendBundle
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	cm.logger.Debug().
		Str("wallet_id", req.WalletID).
		Int("coin_count", len(req.Coins)).
		Msg("Custody backend signed spend bundle")

	return bundle, nil
}

// CreateOffer asks the backend to create and sign an offer file for the
// given coins and requested payments. Never retried.
func (cm *CustodyManager) CreateOffer(ctx context.Context, offer UnsignedOffer) (string, error) {
	var encoded string

	_, err := cm.circuitBreaker.Execute(func() (interface{}, error) {
		var resp struct {
			Offer string `json:"offer"`
		}

		if err := cm.do(ctx, http.MethodPost, "/v1/offers", offer, &resp); err != nil {
			return nil, err
		}

		encoded = resp.Offer
		return nil, nil
	})

	return encoded, err
}

// do sends one signed request to the custody backend and decodes the
// response into out
func (cm *CustodyManager) do(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var body io.Reader
	var payload []byte

	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal custody request: %w", err)
		}
		payload = jsonData
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, cm.cfg.Custody.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	signature, err := cm.signer.Sign(payload)
	if err != nil {
		return fmt.Errorf("failed to sign custody request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", cm.cfg.Custody.APIKey)
	req.Header.Set("X-Signature", signature)

	resp, err := cm.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("custody request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("custody request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode custody response: %w", err)
		}
	}

	return nil
}

func (cm *CustodyManager) executeWithRetry(ctx context.Context, operation string, fn func() error) error {
	maxAttempts := cm.cfg.Retry.MaxAttempts
	delay := cm.cfg.Retry.InitialDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		if attempt < maxAttempts-1 {
			cm.logger.Warn().
				Err(err).
				Str("operation", operation).
				Int("attempt", attempt+1).
				Int("max_attempts", maxAttempts).
				Dur("retry_delay", delay).
				Msg("Operation failed, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * cm.cfg.Retry.Multiplier)
			if delay > cm.cfg.Retry.MaxDelay {
				delay = cm.cfg.Retry.MaxDelay
			}
		}
	}

	return fmt.Errorf("operation %s failed after %d attempts", operation, maxAttempts)
}
