// Package matcher provides the core engine that reconciles payables against
// payments.
//
// Matching proceeds through four ordered stages, each consuming payments from
// a shared pool so no payment is ever claimed twice:
//  1. Movement identity: both rows carry the same external movement ID.
//  2. Composite key: normalized description plus fixed two-decimal amount.
//  3. History: normalized history memo, when long enough to be meaningful.
//  4. Approximate: identical amounts with similar descriptions, or near
//     amounts with identical descriptions.
//
// Within a stage, candidates are examined in the order payments were loaded
// and the first eligible payment wins. Payments matched by an earlier stage
// are invisible to later ones.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig(), log)
//	engine.LoadPayments(payments)
//	result, err := engine.Reconcile(ctx, payables)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchType identifies the stage that produced a match. Earlier stages carry
// higher confidence and require less manual review.
type MatchType int

const (
	// MatchMovementID is an identity match on the external movement ID.
	// These matches require no review.
	MatchMovementID MatchType = iota

	// MatchCompositeKey is an exact match on normalized description and
	// two-decimal amount.
	MatchCompositeKey

	// MatchHistory is an exact match on the normalized history memo.
	MatchHistory

	// MatchValueExactDescSimilar pairs rows with identical amounts whose
	// descriptions share a meaningful common substring.
	MatchValueExactDescSimilar

	// MatchValueApproxDescExact pairs rows with identical normalized
	// descriptions whose amounts differ within the value tolerance.
	MatchValueApproxDescExact

	// MatchNone indicates the payable found no payment in any stage.
	MatchNone
)

// String returns the string representation of MatchType
func (mt MatchType) String() string {
	switch mt {
	case MatchMovementID:
		return "movement_id"
	case MatchCompositeKey:
		return "composite_key"
	case MatchHistory:
		return "history"
	case MatchValueExactDescSimilar:
		return "value_exact_desc_similar"
	case MatchValueApproxDescExact:
		return "value_approx_desc_exact"
	case MatchNone:
		return "none"
	default:
		return "unknown"
	}
}

// Config holds the tolerances used by the matching engine. Different
// configurations suit different reconciliation postures; use the provided
// factory functions for the common ones:
//   - DefaultConfig(): the standard tolerances for monthly reconciliation
//   - StrictConfig(): identity and exact-key stages only
//   - RelaxedConfig(): wider value tolerance for exploratory runs
type Config struct {
	// ValueTolerance is the maximum absolute amount difference for the
	// approximate value stage and for flagging value discrepancies.
	ValueTolerance decimal.Decimal `json:"value_tolerance"`

	// DayTolerance is the maximum number of days between due date and
	// payment date before a match is flagged as a timing discrepancy.
	DayTolerance int `json:"day_tolerance"`

	// LongRunLength is the minimum shared substring length for two
	// descriptions to count as similar in the approximate stage.
	LongRunLength int `json:"long_run_length"`

	// MinHistoryLength is the minimum normalized history length for the
	// history stage to consider a memo meaningful.
	MinHistoryLength int `json:"min_history_length"`

	// EnableApproximate enables the fourth, approximate matching stage.
	EnableApproximate bool `json:"enable_approximate"`
}

// DefaultConfig returns a configuration with the standard tolerances.
func DefaultConfig() *Config {
	return &Config{
		ValueTolerance:    decimal.NewFromFloat(0.01),
		DayTolerance:      30,
		LongRunLength:     5,
		MinHistoryLength:  4,
		EnableApproximate: true,
	}
}

// StrictConfig returns a configuration that disables approximate matching,
// leaving only the identity and exact-key stages.
func StrictConfig() *Config {
	return &Config{
		ValueTolerance:    decimal.Zero,
		DayTolerance:      0,
		LongRunLength:     5,
		MinHistoryLength:  4,
		EnableApproximate: false,
	}
}

// RelaxedConfig returns a configuration with wider tolerances for
// exploratory reconciliation runs.
func RelaxedConfig() *Config {
	return &Config{
		ValueTolerance:    decimal.NewFromFloat(0.05),
		DayTolerance:      60,
		LongRunLength:     4,
		MinHistoryLength:  4,
		EnableApproximate: true,
	}
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.ValueTolerance.IsNegative() {
		return fmt.Errorf("value tolerance cannot be negative: %s", c.ValueTolerance)
	}

	if c.DayTolerance < 0 {
		return fmt.Errorf("day tolerance cannot be negative: %d", c.DayTolerance)
	}

	if c.LongRunLength <= 0 {
		return fmt.Errorf("long run length must be positive: %d", c.LongRunLength)
	}

	if c.MinHistoryLength <= 0 {
		return fmt.Errorf("minimum history length must be positive: %d", c.MinHistoryLength)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{ValueTolerance: %s, DayTolerance: %d days, LongRun: %d, Approximate: %t}",
		c.ValueTolerance.String(), c.DayTolerance, c.LongRunLength, c.EnableApproximate)
}
