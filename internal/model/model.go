// Package model defines the core data structures for the bridge orchestration engine.
package model

import (
	"math"
	"time"

	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// TransferRequest is the caller's description of a prospective cross-chain
// transfer. It is never persisted; only the TransferRecord created on
// execution is.
type TransferRequest struct {
	// FromChain is the chain the value currently lives on
	FromChain types.ChainID `json:"from_chain"`

	// ToChain is the chain the value should arrive on
	ToChain types.ChainID `json:"to_chain"`

	// Token is the asset being moved, in source-chain units
	Token types.TokenSymbol `json:"token"`

	// Amount is the transfer size in source-token units, must be > 0
	Amount float64 `json:"amount"`

	// RecipientAddress is the destination address, validated against the
	// destination chain's format by the chain adapter
	RecipientAddress string `json:"recipient_address"`
}

// Quote is a single protocol's stated terms for a prospective transfer
type Quote struct {
	// ProtocolID identifies the bridge protocol that produced this quote
	ProtocolID string `json:"protocol_id"`

	// FromAmount is the amount the sender pays, in source-token units
	FromAmount float64 `json:"from_amount"`

	// ToAmount is the amount the recipient receives after fee and rate loss
	ToAmount float64 `json:"to_amount"`

	// Fee is the protocol fee in source-token units
	Fee float64 `json:"fee"`

	// ExchangeRate is the VM-pair-dependent conversion rate in (0,1]
	ExchangeRate float64 `json:"exchange_rate"`

	// EstimatedTime is the protocol's expected completion window
	EstimatedTime TimeRange `json:"estimated_time"`
}

// EnhancedQuote overlays a basic quote with cost and risk estimates
type EnhancedQuote struct {
	Quote

	// GasCost is the estimated source-chain gas spend, in native units
	GasCost float64 `json:"gas_cost"`

	// TotalCost is Fee plus GasCost
	TotalCost float64 `json:"total_cost"`

	// PriceImpactPct is the estimated price impact, capped at 5
	PriceImpactPct float64 `json:"price_impact_pct"`

	// LiquidityUtilizationPct is the share of protocol liquidity the
	// transfer consumes, capped at 100
	LiquidityUtilizationPct float64 `json:"liquidity_utilization_pct"`

	// ConfidenceScore rates the protocol's reliability for this transfer, 0-100
	ConfidenceScore int `json:"confidence_score"`

	// Route is the ordered chain path, including a hub chain when the
	// protocol cannot connect the endpoints directly
	Route []types.ChainID `json:"route"`
}

// TimeRange is a min/max duration window
type TimeRange struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
}

// Midpoint returns the middle of the window
func (r TimeRange) Midpoint() time.Duration {
	return (r.Min + r.Max) / 2
}

// QuoteOptions selects the ranking strategy for enhanced quotes
type QuoteOptions struct {
	// PrioritizeSpeed ranks quotes by estimated time, fastest first
	PrioritizeSpeed bool `json:"prioritize_speed"`

	// PrioritizeCost ranks quotes by total cost, cheapest first
	PrioritizeCost bool `json:"prioritize_cost"`
}

// TransferStatus is the lifecycle state of a submitted transfer
type TransferStatus string

// Transfer lifecycle states. Completed and Failed are terminal: a record
// never leaves either state. Failed means tracking was abandoned after
// repeated query failures; the underlying chain transaction may still
// have succeeded. Callers must not read it as "transaction reverted".
const (
	StatusProcessing TransferStatus = "processing"
	StatusConfirming TransferStatus = "confirming"
	StatusCompleted  TransferStatus = "completed"
	StatusFailed     TransferStatus = "failed"
)

// Terminal reports whether the status permits no further transitions
func (s TransferStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TransferRecord is the persisted state of one submitted transfer. It is
// created by the executor in StatusProcessing and mutated only by the
// status tracker thereafter.
type TransferRecord struct {
	// ID is an opaque, globally unique identifier
	ID string `json:"id"`

	Status TransferStatus `json:"status"`

	FromChain types.ChainID     `json:"from_chain"`
	ToChain   types.ChainID     `json:"to_chain"`
	Token     types.TokenSymbol `json:"token"`
	Amount    float64           `json:"amount"`

	// ProtocolID is the bridge protocol the transfer was submitted through
	ProtocolID string `json:"protocol_id"`

	// SourceTxHash is the broadcast transaction on the source chain
	SourceTxHash string `json:"source_tx_hash"`

	// DestinationTxHash is the delivery transaction on the destination
	// chain, empty until completion
	DestinationTxHash string `json:"destination_tx_hash,omitempty"`

	// Confirmations is the observed source-chain block depth, monotonically
	// non-decreasing while the record is live
	Confirmations         int `json:"confirmations"`
	RequiredConfirmations int `json:"required_confirmations"`

	// RetryCount counts consecutive failed tracking queries
	RetryCount int `json:"retry_count"`

	// ErrorMessage preserves the last tracking error for audit, set when
	// the record transitions to StatusFailed
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// EstimatedCompletionAt is submission time plus the midpoint of the
	// protocol's estimated time range
	EstimatedCompletionAt time.Time `json:"estimated_completion_at"`
}

// IsValid performs basic sanity checks on a request before protocol-aware
// validation runs
func (r TransferRequest) IsValid() bool {
	return r.FromChain != "" &&
		r.ToChain != "" &&
		r.Token != "" &&
		r.Amount > 0 &&
		!math.IsInf(r.Amount, 0) &&
		!math.IsNaN(r.Amount) &&
		r.RecipientAddress != ""
}
