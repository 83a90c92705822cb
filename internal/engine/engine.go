// Package engine composes the registry, quote aggregator, executor, record
// store and status tracker into the single surface callers use.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/yourorg/bridge-orchestrator/internal/chain"
	"github.com/yourorg/bridge-orchestrator/internal/circuitbreaker"
	"github.com/yourorg/bridge-orchestrator/internal/executor"
	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/quote"
	"github.com/yourorg/bridge-orchestrator/internal/registry"
	"github.com/yourorg/bridge-orchestrator/internal/store"
	"github.com/yourorg/bridge-orchestrator/internal/tracker"
)

// ErrNotFound is returned by GetStatus for unknown transfer ids
var ErrNotFound = store.ErrNotFound

// ErrInvalidRequest rejects requests that fail basic sanity checks before
// any protocol is consulted
var ErrInvalidRequest = errors.New("invalid transfer request")

// Options configures an Engine
type Options struct {
	Registry      *registry.Registry
	Adapter       chain.Adapter
	GasOracle     chain.GasOracle
	Breaker       *circuitbreaker.CircuitBreaker
	SweepInterval time.Duration
	QueryTimeout  time.Duration
	MaxRetries    int
	OnSweep       func(tracker.SweepStats)
}

// Engine is the bridge aggregation and transfer orchestration core
type Engine struct {
	registry   *registry.Registry
	aggregator *quote.Aggregator
	executor   *executor.Executor
	tracker    *tracker.Tracker
	store      *store.Store
}

// New wires an Engine from its collaborators
func New(opts Options) *Engine {
	st := store.New()
	return &Engine{
		registry:   opts.Registry,
		aggregator: quote.New(opts.Registry, opts.GasOracle, opts.Breaker),
		executor:   executor.New(opts.Registry, opts.Adapter, st),
		tracker: tracker.New(st, opts.Adapter, tracker.Options{
			SweepInterval: opts.SweepInterval,
			QueryTimeout:  opts.QueryTimeout,
			MaxRetries:    opts.MaxRetries,
			OnSweep:       opts.OnSweep,
		}),
		store: st,
	}
}

// Start launches the background status tracker
func (e *Engine) Start() { e.tracker.Start() }

// Stop halts the background status tracker
func (e *Engine) Stop() { e.tracker.Stop() }

// GetQuotes returns basic quotes from every eligible protocol, cheapest
// fee first
func (e *Engine) GetQuotes(ctx context.Context, req model.TransferRequest) ([]model.Quote, error) {
	if !req.IsValid() {
		return nil, ErrInvalidRequest
	}
	return e.aggregator.GetQuotes(ctx, req), nil
}

// GetEnhancedQuotes returns ranked quotes with cost and risk overlays
func (e *Engine) GetEnhancedQuotes(ctx context.Context, req model.TransferRequest, opts model.QuoteOptions) ([]model.EnhancedQuote, error) {
	if !req.IsValid() {
		return nil, ErrInvalidRequest
	}
	return e.aggregator.GetEnhancedQuotes(ctx, req, opts), nil
}

// Execute submits the request through the chosen quote's protocol and
// returns the created transfer record
func (e *Engine) Execute(ctx context.Context, req model.TransferRequest, chosen model.EnhancedQuote, signing chain.SigningContext) (model.TransferRecord, error) {
	return e.executor.Execute(ctx, req, chosen, signing)
}

// GetStatus returns a snapshot of one transfer record
func (e *Engine) GetStatus(transferID string) (model.TransferRecord, error) {
	return e.store.Get(transferID)
}

// ListTransfers returns snapshots of all transfers matching the filter,
// newest first
func (e *Engine) ListTransfers(f store.Filter) []model.TransferRecord {
	return e.store.List(f)
}

// TransferCounts reports the number of transfers per status
func (e *Engine) TransferCounts() map[model.TransferStatus]int {
	return e.store.CountByStatus()
}

// Sweep runs one tracker cycle immediately, outside the timer
func (e *Engine) Sweep(ctx context.Context) tracker.SweepStats {
	return e.tracker.Sweep(ctx)
}
