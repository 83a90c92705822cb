// Package validation provides protocol-aware checks for transfer requests.
// Checks accumulate every failure instead of short-circuiting so a caller
// can present one combined message.
package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/bridge-orchestrator/internal/chain"
	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/protocol"
	"github.com/yourorg/bridge-orchestrator/internal/registry"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// Result collects the outcome of validating one request against one
// protocol descriptor
type Result struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}

// Error joins the accumulated failures into a single message
func (r Result) Error() string {
	return strings.Join(r.Errors, "; ")
}

// AddressValidator is the narrow slice of the chain adapter validation needs
type AddressValidator interface {
	ValidateAddress(chain types.ChainID, address string) bool
}

// Validate checks a request against a protocol descriptor, accumulating
// every failure. Validation failures are caller errors, reported back
// synchronously and never logged as incidents.
func Validate(req model.TransferRequest, desc *registry.Descriptor, addrs AddressValidator) Result {
	var errs []string

	fromVM, fromKnown := types.VMOf(req.FromChain)
	toVM, toKnown := types.VMOf(req.ToChain)

	variant, variantErr := protocol.ForID(desc.ID)

	// 1. source chain and direction capability
	switch {
	case !fromKnown:
		errs = append(errs, fmt.Sprintf("unknown source chain %q", req.FromChain))
	case !desc.SupportsChain(req.FromChain):
		errs = append(errs, fmt.Sprintf("protocol %s does not support source chain %s", desc.ID, req.FromChain))
	case variantErr == nil && toKnown && !variant.SupportsVMPair(fromVM, toVM):
		errs = append(errs, fmt.Sprintf("protocol %s cannot bridge %s to %s", desc.ID, fromVM, toVM))
	}

	// 2. destination chain
	if !toKnown {
		errs = append(errs, fmt.Sprintf("unknown destination chain %q", req.ToChain))
	} else if !desc.SupportsChain(req.ToChain) {
		errs = append(errs, fmt.Sprintf("protocol %s does not support destination chain %s", desc.ID, req.ToChain))
	}

	// 3. token on both endpoints
	if desc.SupportsChain(req.FromChain) && !desc.SupportsToken(req.FromChain, req.Token) {
		errs = append(errs, fmt.Sprintf("token %s not supported on %s by %s", req.Token, req.FromChain, desc.ID))
	}
	if desc.SupportsChain(req.ToChain) && !desc.SupportsToken(req.ToChain, req.Token) {
		errs = append(errs, fmt.Sprintf("token %s not supported on %s by %s", req.Token, req.ToChain, desc.ID))
	}

	// 4. amount is a positive, finite number
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		errs = append(errs, fmt.Sprintf("amount must be a positive finite number, got %v", req.Amount))
	} else {
		// 5. amount within protocol bounds
		if req.Amount < desc.MinAmount {
			errs = append(errs, fmt.Sprintf("amount %v below minimum %v", req.Amount, desc.MinAmount))
		}
		if req.Amount > desc.MaxAmount {
			errs = append(errs, fmt.Sprintf("amount %v exceeds maximum %v", req.Amount, desc.MaxAmount))
		}
	}

	// 6. recipient address format, delegated to the chain adapter
	if toKnown && !addrs.ValidateAddress(req.ToChain, req.RecipientAddress) {
		errs = append(errs, fmt.Sprintf("recipient address %q is not valid for %s", req.RecipientAddress, req.ToChain))
	}

	if len(errs) > 0 {
		logrus.WithFields(logrus.Fields{
			"protocol": desc.ID,
			"failures": len(errs),
		}).Debug("Transfer request failed validation")
	}

	return Result{OK: len(errs) == 0, Errors: errs}
}

// DefaultAddressValidator validates address formats without a full chain
// adapter, using the per-family format rules
type DefaultAddressValidator struct{}

// ValidateAddress checks the address against the chain family's format
func (DefaultAddressValidator) ValidateAddress(c types.ChainID, address string) bool {
	return chain.ValidAddressFormat(c, address)
}
