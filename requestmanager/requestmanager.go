// Package requestmanager deduplicates, paces and caches outbound read
// requests against rate-limited third-party APIs.
//
// Every logical request is identified by a key. A fresh cached result is
// served without a network call; concurrent callers for the same key share a
// single in-flight call; new calls are delayed by a fixed debounce window
// and spaced by a global throttle interval. The manager never retries: a
// failed supplier rejects every waiter with the original error and caches
// nothing.
package requestmanager

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

const (
	// DefaultTTL is how long a successful response is served from cache.
	DefaultTTL = 30 * time.Second

	// DefaultDebounce is the delay before a new request is executed,
	// absorbing bursts of UI-triggered calls for the same key.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultThrottle is the minimum spacing between executed supplier
	// calls across all keys.
	DefaultThrottle = 200 * time.Millisecond
)

// ErrEmptyKey is returned when Execute is called without a request key.
var ErrEmptyKey = errors.New("request key must not be empty")

// Supplier performs exactly one logical network call. It must be idempotent,
// since a cached result makes the call unnecessary.
type Supplier func(ctx context.Context) (any, error)

// Config holds the manager tuning knobs. Zero durations disable the
// corresponding behavior.
type Config struct {
	TTL      time.Duration
	Debounce time.Duration
	Throttle time.Duration
}

// DefaultConfig returns the default manager tuning.
func DefaultConfig() Config {
	return Config{
		TTL:      DefaultTTL,
		Debounce: DefaultDebounce,
		Throttle: DefaultThrottle,
	}
}

type cacheEntry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
}

// pendingRequest is the single in-flight call for a key. value and err are
// written once before done is closed and only read after it is closed.
type pendingRequest struct {
	done  chan struct{}
	value any
	err   error
}

// Manager is the request cache/debounce manager. Each instance carries its
// own cache, pending map and throttle timestamp, so independent instances
// never share state.
type Manager struct {
	cfg   Config
	clock clock.Clock

	mu          sync.Mutex
	entries     map[string]*cacheEntry
	pending     map[string]*pendingRequest
	lastRequest time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock, letting tests control time.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// New creates a request manager with the given tuning.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:     cfg,
		clock:   clock.NewDefaultClock(),
		entries: make(map[string]*cacheEntry),
		pending: make(map[string]*pendingRequest),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute resolves key through the cache, an in-flight request, or a new
// supplier call, in that order. All callers observing the same in-flight
// request get the same outcome. A cancelled caller context abandons the wait
// only; the supplier still completes and populates the cache.
func (m *Manager) Execute(ctx context.Context, key string, supplier Supplier) (any, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	m.mu.Lock()
	if entry, ok := m.entries[key]; ok {
		if m.clock.Now().Before(entry.expiresAt) {
			m.mu.Unlock()
			return entry.value, nil
		}
		// Lazy eviction: expired entries are dropped on the read that
		// discovers them, there is no background sweep.
		delete(m.entries, key)
	}

	if p, ok := m.pending[key]; ok {
		m.mu.Unlock()
		return m.wait(ctx, p)
	}

	// The check above and this insert happen under one lock hold, so a
	// second caller can never start a duplicate call.
	p := &pendingRequest{done: make(chan struct{})}
	m.pending[key] = p
	m.mu.Unlock()

	go m.run(key, p, supplier)

	return m.wait(ctx, p)
}

func (m *Manager) wait(ctx context.Context, p *pendingRequest) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run executes the debounce delay, the throttle wait and the supplier call
// for a pending request, then settles every waiter.
func (m *Manager) run(key string, p *pendingRequest, supplier Supplier) {
	if m.cfg.Debounce > 0 {
		<-m.clock.TickAfter(m.cfg.Debounce)
	}

	// Enforce the global spacing since the last executed call, stamping
	// lastRequest immediately before the supplier runs. Concurrent
	// pending requests serialize here.
	m.mu.Lock()
	for {
		now := m.clock.Now()
		wait := m.cfg.Throttle - now.Sub(m.lastRequest)
		if wait <= 0 {
			m.lastRequest = now
			break
		}
		m.mu.Unlock()
		<-m.clock.TickAfter(wait)
		m.mu.Lock()
	}
	m.mu.Unlock()

	value, err := supplier(context.Background())

	m.mu.Lock()
	if err == nil && m.cfg.TTL > 0 {
		now := m.clock.Now()
		m.entries[key] = &cacheEntry{
			value:     value,
			createdAt: now,
			expiresAt: now.Add(m.cfg.TTL),
		}
	}
	delete(m.pending, key)
	m.mu.Unlock()

	p.value = value
	p.err = err
	close(p.done)
}

// Clear removes one cached entry. In-flight requests are not cancelled.
func (m *Manager) Clear(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

// ClearAll removes every cached entry. In-flight requests are not cancelled.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*cacheEntry)
}

// EntryStats describes one cached entry.
type EntryStats struct {
	Key       string
	CreatedAt time.Time
	ExpiresAt time.Time
	Expired   bool
}

// ManagerStats is a read-only snapshot of the manager state.
type ManagerStats struct {
	Size         int
	PendingCount int
	LastRequest  time.Time
	Entries      []EntryStats
}

// Stats reports the cache contents, pending count and last executed request
// time. Entries that expired but were not yet touched by a read are still
// reported, flagged as expired.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	stats := ManagerStats{
		Size:         len(m.entries),
		PendingCount: len(m.pending),
		LastRequest:  m.lastRequest,
		Entries:      make([]EntryStats, 0, len(m.entries)),
	}
	for key, entry := range m.entries {
		stats.Entries = append(stats.Entries, EntryStats{
			Key:       key,
			CreatedAt: entry.createdAt,
			ExpiresAt: entry.expiresAt,
			Expired:   !now.Before(entry.expiresAt),
		})
	}
	sort.Slice(stats.Entries, func(i, j int) bool {
		return stats.Entries[i].Key < stats.Entries[j].Key
	})

	return stats
}
