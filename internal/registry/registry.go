// Package registry holds the catalog of bridge protocol descriptors. The
// catalog is loaded once at startup, validated eagerly, and read-only
// afterwards, so no locking is needed on the query paths.
package registry

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// Descriptor describes one bridge protocol's static capabilities
type Descriptor struct {
	// ID is the protocol's unique identifier, matching its variant in the
	// protocol package
	ID string `yaml:"id"`

	// DisplayName is a human-readable protocol name
	DisplayName string `yaml:"display_name"`

	// SupportedChains lists every chain the protocol can bridge between
	SupportedChains []types.ChainID `yaml:"supported_chains"`

	// SupportedTokens lists the tokens the protocol carries on each chain
	SupportedTokens map[types.ChainID][]types.TokenSymbol `yaml:"supported_tokens"`

	// FeeRate is the protocol fee as a fraction of the amount (0.001 = 0.1%)
	FeeRate float64 `yaml:"fee_rate"`

	// MinAmount and MaxAmount bound the transfer size in source-token units
	MinAmount float64 `yaml:"min_amount"`
	MaxAmount float64 `yaml:"max_amount"`

	// EstimatedTimeMin/Max bound the expected completion time
	EstimatedTimeMin time.Duration `yaml:"estimated_time_min"`
	EstimatedTimeMax time.Duration `yaml:"estimated_time_max"`

	// ConfirmationsRequired gives the source-chain finality depth per chain.
	// Every chain in SupportedChains must have an entry.
	ConfirmationsRequired map[types.ChainID]int `yaml:"confirmations_required"`

	// LiquidityDepth is the protocol's available liquidity in source-token
	// units, used for price impact and utilization estimates
	LiquidityDepth float64 `yaml:"liquidity_depth"`

	// GasOptimized marks protocols with batched or compressed settlement
	GasOptimized bool `yaml:"gas_optimized"`

	// HubChain, when set, is the intermediate chain all transfers between
	// non-hub endpoints route through
	HubChain types.ChainID `yaml:"hub_chain,omitempty"`

	// set lookups built at load time
	chainSet map[types.ChainID]bool
	tokenSet map[types.ChainID]map[types.TokenSymbol]bool
}

// EstimatedTime returns the descriptor's completion window
func (d *Descriptor) EstimatedTime() (min, max time.Duration) {
	return d.EstimatedTimeMin, d.EstimatedTimeMax
}

// SupportsChain reports whether the protocol operates on the chain
func (d *Descriptor) SupportsChain(chain types.ChainID) bool {
	return d.chainSet[chain]
}

// SupportsToken reports whether the protocol carries the token on the chain
func (d *Descriptor) SupportsToken(chain types.ChainID, token types.TokenSymbol) bool {
	return d.tokenSet[chain][token]
}

// Registry is the read-only catalog of loaded protocol descriptors
type Registry struct {
	// descriptors in registration order; eligibility queries preserve it
	descriptors []*Descriptor
	byID        map[string]*Descriptor
}

// Load builds a registry from the given descriptors, failing fast on the
// first malformed one. A malformed descriptor is a configuration error,
// never a runtime condition to tolerate.
func Load(descriptors []*Descriptor) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Descriptor, len(descriptors))}

	for _, d := range descriptors {
		if err := validateDescriptor(d); err != nil {
			return nil, fmt.Errorf("protocol %q: %w", d.ID, err)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("protocol %q: duplicate id", d.ID)
		}
		buildSets(d)
		r.descriptors = append(r.descriptors, d)
		r.byID[d.ID] = d
	}

	logrus.WithField("protocols", len(r.descriptors)).Info("Protocol registry loaded")
	return r, nil
}

// LoadDefault builds a registry from the built-in descriptor set, applying
// overrides from the YAML file at path when path is non-empty.
func LoadDefault(path string) (*Registry, error) {
	descriptors := builtinDescriptors()

	if path != "" {
		overrides, err := readOverrideFile(path)
		if err != nil {
			return nil, fmt.Errorf("protocol override file %s: %w", path, err)
		}
		descriptors = applyOverrides(descriptors, overrides)
		logrus.WithFields(logrus.Fields{
			"path":      path,
			"overrides": len(overrides),
		}).Info("Applied protocol descriptor overrides")
	}

	return Load(descriptors)
}

// validateDescriptor enforces the registry invariants before a descriptor
// is admitted
func validateDescriptor(d *Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("missing id")
	}
	if len(d.SupportedChains) < 2 {
		return fmt.Errorf("needs at least two supported chains, got %d", len(d.SupportedChains))
	}
	if d.MinAmount <= 0 || d.MaxAmount <= 0 {
		return fmt.Errorf("amount bounds must be positive (min=%v max=%v)", d.MinAmount, d.MaxAmount)
	}
	if d.MinAmount > d.MaxAmount {
		return fmt.Errorf("min amount %v exceeds max amount %v", d.MinAmount, d.MaxAmount)
	}
	if d.FeeRate < 0 || d.FeeRate >= 1 {
		return fmt.Errorf("fee rate %v outside [0,1)", d.FeeRate)
	}
	if d.EstimatedTimeMin <= 0 || d.EstimatedTimeMax < d.EstimatedTimeMin {
		return fmt.Errorf("invalid estimated time range %v-%v", d.EstimatedTimeMin, d.EstimatedTimeMax)
	}
	if d.LiquidityDepth <= 0 {
		return fmt.Errorf("liquidity depth must be positive, got %v", d.LiquidityDepth)
	}
	if d.HubChain != "" && !types.IsKnownChain(d.HubChain) {
		return fmt.Errorf("unknown hub chain %q", d.HubChain)
	}

	for _, chain := range d.SupportedChains {
		if !types.IsKnownChain(chain) {
			return fmt.Errorf("unknown chain %q", chain)
		}
		if _, ok := d.ConfirmationsRequired[chain]; !ok {
			return fmt.Errorf("missing confirmation count for supported chain %q", chain)
		}
		if d.ConfirmationsRequired[chain] <= 0 {
			return fmt.Errorf("confirmation count for chain %q must be positive", chain)
		}
		if len(d.SupportedTokens[chain]) == 0 {
			return fmt.Errorf("no supported tokens declared for chain %q", chain)
		}
	}

	return nil
}

func buildSets(d *Descriptor) {
	d.chainSet = make(map[types.ChainID]bool, len(d.SupportedChains))
	for _, chain := range d.SupportedChains {
		d.chainSet[chain] = true
	}
	d.tokenSet = make(map[types.ChainID]map[types.TokenSymbol]bool, len(d.SupportedTokens))
	for chain, tokens := range d.SupportedTokens {
		set := make(map[types.TokenSymbol]bool, len(tokens))
		for _, t := range tokens {
			set[t] = true
		}
		d.tokenSet[chain] = set
	}
}

// ListEligible returns every protocol that operates on both endpoints, in
// registration order. Callers re-sort by their own criteria.
func (r *Registry) ListEligible(from, to types.ChainID) []*Descriptor {
	var eligible []*Descriptor
	for _, d := range r.descriptors {
		if d.SupportsChain(from) && d.SupportsChain(to) {
			eligible = append(eligible, d)
		}
	}
	return eligible
}

// Supports reports whether the protocol set can carry the token between the
// two chains through at least one protocol
func (r *Registry) Supports(from, to types.ChainID, token types.TokenSymbol) bool {
	for _, d := range r.ListEligible(from, to) {
		if d.SupportsToken(from, token) && d.SupportsToken(to, token) {
			return true
		}
	}
	return false
}

// Get returns the descriptor for a protocol id
func (r *Registry) Get(id string) (*Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// All returns every registered descriptor in registration order
func (r *Registry) All() []*Descriptor {
	return r.descriptors
}

// yamlDuration accepts time.ParseDuration strings ("5m", "90s") in the
// override file
type yamlDuration time.Duration

func (d *yamlDuration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q (use forms like 5m or 90s): %w", value.Value, err)
	}
	*d = yamlDuration(dur)
	return nil
}

// overrideEntry is the YAML shape operators use to tune a built-in
// descriptor without redeclaring it wholesale
type overrideEntry struct {
	ID               string        `yaml:"id"`
	FeeRate          *float64      `yaml:"fee_rate,omitempty"`
	MinAmount        *float64      `yaml:"min_amount,omitempty"`
	MaxAmount        *float64      `yaml:"max_amount,omitempty"`
	LiquidityDepth   *float64      `yaml:"liquidity_depth,omitempty"`
	EstimatedTimeMin *yamlDuration `yaml:"estimated_time_min,omitempty"`
	EstimatedTimeMax *yamlDuration `yaml:"estimated_time_max,omitempty"`
	Disabled         bool          `yaml:"disabled,omitempty"`
}

func readOverrideFile(path string) ([]overrideEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Protocols []overrideEntry `yaml:"protocols"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return doc.Protocols, nil
}

func applyOverrides(descriptors []*Descriptor, overrides []overrideEntry) []*Descriptor {
	byID := make(map[string]*Descriptor, len(descriptors))
	for _, d := range descriptors {
		byID[d.ID] = d
	}

	disabled := make(map[string]bool)
	for _, o := range overrides {
		d, ok := byID[o.ID]
		if !ok {
			logrus.WithField("protocol", o.ID).Warn("Override for unknown protocol ignored")
			continue
		}
		if o.Disabled {
			disabled[o.ID] = true
			continue
		}
		if o.FeeRate != nil {
			d.FeeRate = *o.FeeRate
		}
		if o.MinAmount != nil {
			d.MinAmount = *o.MinAmount
		}
		if o.MaxAmount != nil {
			d.MaxAmount = *o.MaxAmount
		}
		if o.LiquidityDepth != nil {
			d.LiquidityDepth = *o.LiquidityDepth
		}
		if o.EstimatedTimeMin != nil {
			d.EstimatedTimeMin = time.Duration(*o.EstimatedTimeMin)
		}
		if o.EstimatedTimeMax != nil {
			d.EstimatedTimeMax = time.Duration(*o.EstimatedTimeMax)
		}
	}

	kept := make([]*Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if !disabled[d.ID] {
			kept = append(kept, d)
		}
	}
	return kept
}
