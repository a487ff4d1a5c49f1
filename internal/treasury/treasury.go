// Package treasury holds the static allow-list the disburser consults: one
// allowed source identity per deployment tier.
//
// The list is configuration, not persisted state. It is read-only once loaded.
package treasury

import (
	"fmt"
	"sort"

	"github.com/roach88/fundledger/internal/fault"
	"github.com/roach88/fundledger/internal/ident"
)

// Tier is a deployment tier name.
type Tier string

const (
	Local Tier = "local"
	Dev   Tier = "dev"
	Prod  Tier = "prod"
)

// Tiers lists the recognized tiers in display order.
var Tiers = []Tier{Local, Dev, Prod}

// DefaultSource is the allowed source every tier maps to unless configured
// otherwise. All three tiers sharing one identity is carried over as data;
// see AllowList.Collapsed.
const DefaultSource = "3GC36PPDbSd2BMDbXWrcMiZgu2uZTLXCrQ5hRwSNMWhG"

// ParseTier validates a tier name. Unknown names are an InvalidArgument.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fault.New(fault.InvalidArgument, "unrecognized tier %q", s)
}

// Rule is one allow-list entry.
type Rule struct {
	Tier          Tier           `json:"tier"`
	AllowedSource ident.Identity `json:"allowed_source"`
}

// AllowList maps each tier to its one allowed source.
type AllowList struct {
	sources map[Tier]ident.Identity
}

// NewAllowList builds an allow-list. Keys must be recognized tiers.
func NewAllowList(sources map[Tier]ident.Identity) (*AllowList, error) {
	cp := make(map[Tier]ident.Identity, len(sources))
	for tier, src := range sources {
		if _, err := ParseTier(string(tier)); err != nil {
			return nil, fmt.Errorf("allow-list: %w", err)
		}
		if src.IsZero() {
			return nil, fmt.Errorf("allow-list: tier %s has zero source", tier)
		}
		cp[tier] = src
	}
	return &AllowList{sources: cp}, nil
}

// Default returns the allow-list with every tier mapped to DefaultSource.
func Default() *AllowList {
	src := ident.MustParse(DefaultSource)
	return &AllowList{sources: map[Tier]ident.Identity{Local: src, Dev: src, Prod: src}}
}

// Source returns the allowed source for tier.
// An unrecognized or unconfigured tier is an InvalidArgument.
func (a *AllowList) Source(tier string) (ident.Identity, error) {
	t, err := ParseTier(tier)
	if err != nil {
		return ident.Zero, err
	}
	src, ok := a.sources[t]
	if !ok {
		return ident.Zero, fault.New(fault.InvalidArgument, "tier %q has no allowed source", tier)
	}
	return src, nil
}

// Check requires source to be the allowed source for tier.
func (a *AllowList) Check(tier string, source ident.Identity) error {
	allowed, err := a.Source(tier)
	if err != nil {
		return err
	}
	if source != allowed {
		return fault.New(fault.AuthorizationMismatch,
			"source is not the %s treasury", tier).WithAccount(source)
	}
	return nil
}

// Rules returns the configured entries in tier order.
func (a *AllowList) Rules() []Rule {
	rules := make([]Rule, 0, len(a.sources))
	for tier, src := range a.sources {
		rules = append(rules, Rule{Tier: tier, AllowedSource: src})
	}
	sort.Slice(rules, func(i, j int) bool {
		return tierIndex(rules[i].Tier) < tierIndex(rules[j].Tier)
	})
	return rules
}

// Collapsed reports whether more than one tier is configured and every
// configured tier maps to the same source. That usually means the tiers were
// never separated.
func (a *AllowList) Collapsed() bool {
	if len(a.sources) < 2 {
		return false
	}
	var first ident.Identity
	seen := false
	for _, src := range a.sources {
		if !seen {
			first, seen = src, true
			continue
		}
		if src != first {
			return false
		}
	}
	return true
}

func tierIndex(t Tier) int {
	for i, known := range Tiers {
		if known == t {
			return i
		}
	}
	return len(Tiers)
}
