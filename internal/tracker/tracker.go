// Package tracker advances submitted transfers through their lifecycle by
// sweeping all live records on a fixed interval. It is the sole writer of
// transfer records after creation; there is no other mutator to race with.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/bridge-orchestrator/internal/chain"
	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/store"
)

// Options configures a Tracker
type Options struct {
	// SweepInterval is the fixed period between sweep cycles
	SweepInterval time.Duration

	// QueryTimeout bounds every adapter call; a timeout counts as a query
	// failure like any other
	QueryTimeout time.Duration

	// MaxRetries is the number of consecutive failed sweeps after which a
	// transfer's tracking is abandoned
	MaxRetries int

	// OnSweep is called after every completed sweep with its statistics
	OnSweep func(SweepStats)
}

// SweepStats summarizes one sweep cycle
type SweepStats struct {
	Swept     int
	Advanced  int
	Completed int
	Failed    int
	Errors    int
	Duration  time.Duration
}

// Tracker runs the recurring status sweep
type Tracker struct {
	opts    Options
	store   *store.Store
	adapter chain.Adapter

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a Tracker, applying defaults for unset options
func New(st *store.Store, adapter chain.Adapter, opts Options) *Tracker {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 30 * time.Second
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 10 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	return &Tracker{opts: opts, store: st, adapter: adapter}
}

// Start launches the background sweep loop. Starting a running tracker is
// a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})

	go t.loop()
	logrus.WithField("interval", t.opts.SweepInterval).Info("Status tracker started")
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stopCh)
	done := t.doneCh
	t.mu.Unlock()

	<-done
	logrus.Info("Status tracker stopped")
}

func (t *Tracker) loop() {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.Sweep(context.Background())
		}
	}
}

// Sweep runs one cycle over every live record. Exported so tests and
// operators can drive cycles without the timer.
func (t *Tracker) Sweep(ctx context.Context) SweepStats {
	start := time.Now()
	var stats SweepStats

	for _, id := range t.store.LiveIDs() {
		rec, err := t.store.Get(id)
		if err != nil {
			continue
		}
		stats.Swept++

		outcome := t.track(ctx, rec)
		stats.Advanced += outcome.advanced
		stats.Completed += outcome.completed
		stats.Failed += outcome.failed
		stats.Errors += outcome.errors
	}

	stats.Duration = time.Since(start)
	if stats.Swept > 0 {
		logrus.WithFields(logrus.Fields{
			"swept":     stats.Swept,
			"advanced":  stats.Advanced,
			"completed": stats.Completed,
			"failed":    stats.Failed,
			"errors":    stats.Errors,
			"duration":  stats.Duration,
		}).Debug("Sweep cycle finished")
	}

	if t.opts.OnSweep != nil {
		t.opts.OnSweep(stats)
	}
	return stats
}

type trackOutcome struct {
	advanced  int
	completed int
	failed    int
	errors    int
}

// track advances one record by at most one transition per sweep
func (t *Tracker) track(ctx context.Context, rec model.TransferRecord) trackOutcome {
	switch rec.Status {
	case model.StatusProcessing:
		return t.trackSource(ctx, rec)
	case model.StatusConfirming:
		return t.trackDestination(ctx, rec)
	default:
		return trackOutcome{}
	}
}

// trackSource counts source-chain confirmations and promotes the record to
// confirming once the protocol's required depth is reached
func (t *Tracker) trackSource(ctx context.Context, rec model.TransferRecord) trackOutcome {
	qctx, cancel := context.WithTimeout(ctx, t.opts.QueryTimeout)
	defer cancel()

	status, err := t.adapter.GetTransactionConfirmations(qctx, rec.FromChain, rec.SourceTxHash)
	if err != nil {
		return t.recordQueryFailure(rec, err)
	}

	var advanced bool
	_ = t.store.Update(rec.ID, func(r *model.TransferRecord) {
		r.RetryCount = 0
		// depth can regress on adapter failover; confirmations never do
		if status.Depth > r.Confirmations {
			r.Confirmations = status.Depth
		}
		if status.Confirmed && r.Confirmations >= r.RequiredConfirmations {
			r.Status = model.StatusConfirming
			advanced = true
		}
	})

	if advanced {
		logrus.WithFields(logrus.Fields{
			"transfer_id":   rec.ID,
			"confirmations": status.Depth,
		}).Info("Source chain finalized, watching destination")
		return trackOutcome{advanced: 1}
	}
	return trackOutcome{}
}

// trackDestination polls for the protocol's delivery transaction and
// completes the record when it lands
func (t *Tracker) trackDestination(ctx context.Context, rec model.TransferRecord) trackOutcome {
	qctx, cancel := context.WithTimeout(ctx, t.opts.QueryTimeout)
	defer cancel()

	destTx, found, err := t.adapter.LookupDestinationTransaction(qctx, rec.ToChain, rec.SourceTxHash)
	if err != nil {
		return t.recordQueryFailure(rec, err)
	}

	if !found {
		// delivery still pending; a clean "not yet" resets the retry budget
		_ = t.store.Update(rec.ID, func(r *model.TransferRecord) {
			r.RetryCount = 0
		})
		return trackOutcome{}
	}

	_ = t.store.Update(rec.ID, func(r *model.TransferRecord) {
		r.RetryCount = 0
		r.DestinationTxHash = destTx
		r.Status = model.StatusCompleted
	})

	logrus.WithFields(logrus.Fields{
		"transfer_id":    rec.ID,
		"destination_tx": destTx,
	}).Info("Transfer completed")
	return trackOutcome{completed: 1}
}

// recordQueryFailure counts a failed tracking query against the retry
// budget and abandons tracking at the bound. Abandonment means the engine
// stops watching; the underlying chain transaction may still succeed.
func (t *Tracker) recordQueryFailure(rec model.TransferRecord, err error) trackOutcome {
	var failed bool
	_ = t.store.Update(rec.ID, func(r *model.TransferRecord) {
		r.RetryCount++
		if r.RetryCount >= t.opts.MaxRetries {
			r.Status = model.StatusFailed
			r.ErrorMessage = err.Error()
			failed = true
		}
	})

	if failed {
		logrus.WithFields(logrus.Fields{
			"transfer_id": rec.ID,
			"retries":     t.opts.MaxRetries,
			"error":       err,
		}).Error("Tracking abandoned after retry exhaustion")
		return trackOutcome{failed: 1}
	}

	logrus.WithFields(logrus.Fields{
		"transfer_id": rec.ID,
		"error":       err,
	}).Warn("Tracking query failed, will retry next sweep")
	return trackOutcome{errors: 1}
}
