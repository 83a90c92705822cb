// Package executor submits a chosen quote to its bridge protocol and
// creates the transfer record the status tracker takes over.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/bridge-orchestrator/internal/chain"
	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/protocol"
	"github.com/yourorg/bridge-orchestrator/internal/registry"
	"github.com/yourorg/bridge-orchestrator/internal/store"
	"github.com/yourorg/bridge-orchestrator/internal/validation"
)

// ValidationError carries the accumulated validation failures back to the
// caller as one error
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	return "transfer request invalid: " + e.Result.Error()
}

// Executor builds protocol payloads and dispatches them to the chain
// adapter for signing and broadcast
type Executor struct {
	registry *registry.Registry
	adapter  chain.Adapter
	store    *store.Store
}

// New creates an Executor
func New(reg *registry.Registry, adapter chain.Adapter, st *store.Store) *Executor {
	return &Executor{registry: reg, adapter: adapter, store: st}
}

// Execute submits the request through the protocol of the chosen quote.
// Validation failures abort before any chain interaction; broadcast
// failures surface the adapter error; in neither case is a record created.
// Each call creates an independent transfer: there is no dedup by request
// content.
func (e *Executor) Execute(ctx context.Context, req model.TransferRequest, chosen model.EnhancedQuote, signing chain.SigningContext) (model.TransferRecord, error) {
	desc, ok := e.registry.Get(chosen.ProtocolID)
	if !ok {
		return model.TransferRecord{}, fmt.Errorf("unknown protocol %q in chosen quote", chosen.ProtocolID)
	}

	if result := validation.Validate(req, desc, e.adapter); !result.OK {
		return model.TransferRecord{}, &ValidationError{Result: result}
	}

	variant, err := protocol.ForID(desc.ID)
	if err != nil {
		return model.TransferRecord{}, err
	}

	payload, err := variant.BuildPayload(req, chosen.Quote)
	if err != nil {
		return model.TransferRecord{}, fmt.Errorf("building %s payload: %w", desc.ID, err)
	}

	txHash, err := e.adapter.SubmitSignedPayload(ctx, req.FromChain, payload, signing)
	if err != nil {
		return model.TransferRecord{}, fmt.Errorf("broadcasting on %s via %s: %w", req.FromChain, desc.ID, err)
	}

	now := time.Now().UTC()
	tmin, tmax := desc.EstimatedTime()
	rec := model.TransferRecord{
		ID:                    newTransferID(now),
		Status:                model.StatusProcessing,
		FromChain:             req.FromChain,
		ToChain:               req.ToChain,
		Token:                 req.Token,
		Amount:                req.Amount,
		ProtocolID:            desc.ID,
		SourceTxHash:          txHash,
		RequiredConfirmations: desc.ConfirmationsRequired[req.FromChain],
		CreatedAt:             now,
		UpdatedAt:             now,
		EstimatedCompletionAt: now.Add(model.TimeRange{Min: tmin, Max: tmax}.Midpoint()),
	}

	if err := e.store.Insert(rec); err != nil {
		// The transaction is already in flight; the caller still gets the
		// record so the transfer is not silently untracked.
		return rec, fmt.Errorf("persisting transfer record: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"transfer_id": rec.ID,
		"protocol":    desc.ID,
		"from_chain":  req.FromChain,
		"to_chain":    req.ToChain,
		"amount":      req.Amount,
		"source_tx":   txHash,
	}).Info("Transfer submitted")

	return rec, nil
}

// newTransferID builds an opaque, globally unique id: creation time plus a
// random suffix
func newTransferID(now time.Time) string {
	return fmt.Sprintf("xfer-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
