package chiawallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/brightpool/chia-wallet-sdk/cache"
	"github.com/brightpool/chia-wallet-sdk/requestmanager"
)

// ExplorerClient wraps the block-explorer HTTP API. Every read goes through
// the request manager, so bursts of lookups for the same address collapse
// into one paced network call. NFT metadata is immutable and goes into the
// shared payload cache with a long TTL instead.
type ExplorerClient struct {
	cfg            *Config
	logger         zerolog.Logger
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	requests       *requestmanager.Manager
	metadata       cache.Cache
}

// NewExplorerClient creates a new explorer client
func NewExplorerClient(
	cfg *Config,
	logger zerolog.Logger,
	requests *requestmanager.Manager,
	metadata cache.Cache,
) *ExplorerClient {
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        fmt.Sprintf("explorer-%s", cfg.Network),
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
				Msg("Explorer circuit breaker state changed")
		},
	})

	return &ExplorerClient{
		cfg:            cfg,
		logger:         logger,
		httpClient:     &http.Client{Timeout: cfg.HTTPClient.Timeout},
		circuitBreaker: circuitBreaker,
		requests:       requests,
		metadata:       metadata,
	}
}

// GetBalance returns the confirmed and spendable balance of an address
func (ec *ExplorerClient) GetBalance(ctx context.Context, address string) (*Balance, error) {
	result, err := ec.requests.Execute(ctx, "balance:"+address, func(ctx context.Context) (any, error) {
		var resp Balance
		if err := ec.get(ctx, "/address/balance?address="+url.QueryEscape(address), &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Balance), nil
}

// GetCoins returns the unspent coin records locked by a puzzle hash
func (ec *ExplorerClient) GetCoins(ctx context.Context, puzzleHash string) ([]CoinRecord, error) {
	result, err := ec.requests.Execute(ctx, "coins:"+puzzleHash, func(ctx context.Context) (any, error) {
		var resp struct {
			CoinRecords []CoinRecord `json:"coin_records"`
		}
		path := "/coins/unspent?puzzle_hash=" + url.QueryEscape(puzzleHash)
		if err := ec.get(ctx, path, &resp); err != nil {
			return nil, err
		}
		return resp.CoinRecords, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]CoinRecord), nil
}

// GetNFTs returns the NFTs owned by an address
func (ec *ExplorerClient) GetNFTs(ctx context.Context, address string) ([]NFT, error) {
	result, err := ec.requests.Execute(ctx, "nfts:"+address, func(ctx context.Context) (any, error) {
		var resp struct {
			NFTs []NFT `json:"nfts"`
		}
		if err := ec.get(ctx, "/nfts/owned?address="+url.QueryEscape(address), &resp); err != nil {
			return nil, err
		}
		return resp.NFTs, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]NFT), nil
}

// GetNFTMetadata returns the off-chain metadata of an NFT, served from the
// shared cache when possible
func (ec *ExplorerClient) GetNFTMetadata(ctx context.Context, nft NFT) (*NFTMetadata, error) {
	cacheKey := "nft_metadata:" + nft.LauncherID

	if cached, ok, err := ec.metadata.Get(ctx, cacheKey); err != nil {
		ec.logger.Warn().
			Err(err).
			Str("launcher_id", nft.LauncherID).
			Msg("Failed to read NFT metadata cache, continuing")
	} else if ok {
		var metadata NFTMetadata
		if err := json.Unmarshal(cached, &metadata); err == nil {
			return &metadata, nil
		}
		// Unparseable entry, drop it and refetch.
		_ = ec.metadata.Delete(ctx, cacheKey)
	}

	var metadata NFTMetadata
	path := "/nfts/" + url.PathEscape(nft.LauncherID) + "/metadata"
	if err := ec.get(ctx, path, &metadata); err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(&metadata); err == nil {
		if err := ec.metadata.Set(ctx, cacheKey, encoded, ec.cfg.Cache.DefaultTTL); err != nil {
			ec.logger.Warn().
				Err(err).
				Str("launcher_id", nft.LauncherID).
				Msg("Failed to cache NFT metadata")
		}
	}

	return &metadata, nil
}

// GetTransactions returns up to limit transaction history entries for an
// address, following the explorer's page cursors
func (ec *ExplorerClient) GetTransactions(ctx context.Context, address string, limit int) ([]TransactionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	key := fmt.Sprintf("txns:%s:%d", address, limit)

	result, err := ec.requests.Execute(ctx, key, func(ctx context.Context) (any, error) {
		records := make([]TransactionRecord, 0, limit)
		cursor := ""

		for len(records) < limit {
			pageSize := ec.cfg.Explorer.HistoryPageSize
			if remaining := limit - len(records); remaining < pageSize {
				pageSize = remaining
			}

			path := fmt.Sprintf("/address/transactions?address=%s&limit=%d",
				url.QueryEscape(address), pageSize)
			if cursor != "" {
				path += "&cursor=" + url.QueryEscape(cursor)
			}

			var resp struct {
				Transactions []TransactionRecord `json:"transactions"`
				NextCursor   string              `json:"next_cursor"`
			}
			if err := ec.get(ctx, path, &resp); err != nil {
				return nil, err
			}

			records = append(records, resp.Transactions...)
			cursor = resp.NextCursor

			if cursor == "" || len(resp.Transactions) == 0 {
				break
			}
		}

		if len(records) > limit {
			records = records[:limit]
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]TransactionRecord), nil
}

// PushTransaction broadcasts a signed spend bundle and returns its name.
// Writes bypass the request manager.
func (ec *ExplorerClient) PushTransaction(ctx context.Context, bundle *SpendBundle) (string, error) {
	var name string

	_, err := ec.circuitBreaker.Execute(func() (interface{}, error) {
		reqBody := map[string]interface{}{
			"spend_bundle": bundle,
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal push request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			ec.cfg.Explorer.BaseURL+"/push_tx", bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		ec.setAuth(req)

		resp, err := ec.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to push transaction: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("failed to push transaction: status %d, body: %s", resp.StatusCode, string(bodyBytes))
		}

		var pushResp struct {
			Status string `json:"status"`
			Name   string `json:"name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&pushResp); err != nil {
			return nil, fmt.Errorf("failed to decode push response: %w", err)
		}

		if pushResp.Status != "" && pushResp.Status != "SUCCESS" {
			return nil, fmt.Errorf("transaction rejected: %s", pushResp.Status)
		}

		name = pushResp.Name
		return nil, nil
	})

	return name, err
}

// get performs one GET against the explorer behind the circuit breaker
func (ec *ExplorerClient) get(ctx context.Context, path string, out interface{}) error {
	_, err := ec.circuitBreaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ec.cfg.Explorer.BaseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		ec.setAuth(req)

		resp, err := ec.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("explorer request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("explorer request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode explorer response: %w", err)
		}

		return nil, nil
	})
	return err
}

func (ec *ExplorerClient) setAuth(req *http.Request) {
	if ec.cfg.Explorer.APIKey != "" {
		req.Header.Set("X-API-Key", ec.cfg.Explorer.APIKey)
	}
}
