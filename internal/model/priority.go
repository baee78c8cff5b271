package model

import (
	"fmt"
	"strings"
)

type PriorityTier string

const (
	TierHigh   PriorityTier = "high"
	TierMedium PriorityTier = "medium"
	TierLow    PriorityTier = "low"
)

// Rank orders tiers for queue sorting: High packs before Medium before Low.
func (t PriorityTier) Rank() int {
	switch t {
	case TierHigh:
		return 1
	case TierMedium:
		return 2
	default:
		return 3
	}
}

// ParseTier accepts the canonical tier names, case-insensitively.
func ParseTier(s string) (PriorityTier, error) {
	switch PriorityTier(strings.ToLower(s)) {
	case TierHigh:
		return TierHigh, nil
	case TierMedium:
		return TierMedium, nil
	case TierLow:
		return TierLow, nil
	}
	return "", fmt.Errorf("unknown priority tier %q", s)
}

// DurationPolicy maps a priority tier to its fixed service duration in
// minutes. Higher tiers get longer interviews.
type DurationPolicy struct {
	High   int
	Medium int
	Low    int
}

// DefaultDurationPolicy returns the stock 25/20/10 minute mapping.
func DefaultDurationPolicy() DurationPolicy {
	return DurationPolicy{High: 25, Medium: 20, Low: 10}
}

// Minutes returns the service duration for a tier.
func (p DurationPolicy) Minutes(t PriorityTier) int {
	switch t {
	case TierHigh:
		return p.High
	case TierMedium:
		return p.Medium
	default:
		return p.Low
	}
}
