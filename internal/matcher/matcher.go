package matcher

import (
	"context"
	"fmt"

	"github.com/hoppemairon/calendario-financeiro/internal/dates"
	"github.com/hoppemairon/calendario-financeiro/internal/models"
	"github.com/hoppemairon/calendario-financeiro/internal/similarity"
	"github.com/hoppemairon/calendario-financeiro/pkg/logger"

	"github.com/shopspring/decimal"
)

// Engine is the core engine that reconciles payables against payments.
type Engine struct {
	config *Config
	log    logger.Logger
	pool   *PaymentPool
}

// MatchPair represents a payable paired with the payment that settled it.
type MatchPair struct {
	Payable   *models.Payable `json:"payable"`
	Payment   *models.Payment `json:"payment"`
	MatchType MatchType       `json:"match_type"`

	// ValueDelta is payment amount minus payable amount; zero for exact
	// stages, possibly nonzero for the approximate value stage.
	ValueDelta decimal.Decimal `json:"value_delta"`

	// DayDelta is the number of days from due date to payment date.
	// Positive means the payment landed after the due date. Nil when
	// either date is missing.
	DayDelta *int `json:"day_delta,omitempty"`
}

// Result represents the complete outcome of a reconciliation pass. Every
// input payable appears exactly once: either in Matches or in
// UnmatchedPayables. Every input payment appears at most once in Matches;
// the rest are in UnmatchedPayments.
type Result struct {
	Matches           []*MatchPair      `json:"matches"`
	UnmatchedPayables []*models.Payable `json:"unmatched_payables"`
	UnmatchedPayments []*models.Payment `json:"unmatched_payments"`
	Summary           Summary           `json:"summary"`
}

// Summary provides aggregate statistics about a reconciliation pass.
type Summary struct {
	TotalPayables     int `json:"total_payables"`
	TotalPayments     int `json:"total_payments"`
	MatchedPairs      int `json:"matched_pairs"`
	UnmatchedPayables int `json:"unmatched_payables"`
	UnmatchedPayments int `json:"unmatched_payments"`

	// MatchesByType counts matched pairs per stage name.
	MatchesByType map[string]int `json:"matches_by_type"`

	TotalAmountMatched   decimal.Decimal `json:"total_amount_matched"`
	TotalAmountUnmatched decimal.Decimal `json:"total_amount_unmatched"`
}

// NewEngine creates a matching engine with the given configuration.
func NewEngine(config *Config, log logger.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Engine{
		config: config,
		log:    log.WithComponent("matcher"),
	}
}

// LoadPayments loads the payments available for matching. Their order is the
// tie-break order for every stage.
func (e *Engine) LoadPayments(payments []*models.Payment) {
	e.pool = NewPaymentPool(payments, e.config.MinHistoryLength)
}

// Reconcile runs each matching stage over all payables before moving to the
// next stage, so high-confidence stages claim payments first. Payables keep
// their input order in the result.
func (e *Engine) Reconcile(ctx context.Context, payables []*models.Payable) (*Result, error) {
	if e.pool == nil {
		return nil, fmt.Errorf("payments must be loaded before reconciliation")
	}

	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}

	type pending struct {
		payable *models.Payable
		keys    RowKeys
	}

	remaining := make([]*pending, 0, len(payables))
	for _, p := range payables {
		remaining = append(remaining, &pending{
			payable: p,
			keys:    BuildPayableKeys(p, e.config.MinHistoryLength),
		})
	}

	// matched keeps pairs in the order they were found; order within a
	// stage follows payable input order.
	matched := make(map[*models.Payable]*MatchPair)

	stages := []struct {
		matchType MatchType
		take      func(*pending) *paymentEntry
	}{
		{MatchMovementID, func(p *pending) *paymentEntry {
			return e.pool.TakeByMovementID(p.keys.MovementID)
		}},
		{MatchCompositeKey, func(p *pending) *paymentEntry {
			return e.pool.TakeByCompositeKey(p.keys.CompositeKey)
		}},
		{MatchHistory, func(p *pending) *paymentEntry {
			return e.pool.TakeByHistoryKey(p.keys.HistoryKey)
		}},
		{MatchValueExactDescSimilar, func(p *pending) *paymentEntry {
			if !e.config.EnableApproximate || p.keys.Description == "" {
				return nil
			}
			return e.pool.TakeByAmount(p.keys.AmountKey, func(entry *paymentEntry) bool {
				if entry.keys.Description == "" {
					return false
				}
				return similarity.SharesLongRun(p.keys.Description, entry.keys.Description, e.config.LongRunLength)
			})
		}},
		{MatchValueApproxDescExact, func(p *pending) *paymentEntry {
			if !e.config.EnableApproximate || p.keys.Description == "" {
				return nil
			}
			return e.pool.TakeFirst(func(entry *paymentEntry) bool {
				if entry.keys.Description != p.keys.Description {
					return false
				}
				return models.AmountsWithinTolerance(p.payable.Amount, entry.payment.Amount, e.config.ValueTolerance)
			})
		}},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reconciliation cancelled: %w", err)
		}

		stageMatches := 0
		next := remaining[:0]
		for _, p := range remaining {
			entry := stage.take(p)
			if entry == nil {
				next = append(next, p)
				continue
			}
			matched[p.payable] = e.buildPair(p.payable, entry.payment, stage.matchType)
			stageMatches++
		}
		remaining = next

		e.log.WithFields(logger.Fields{
			"stage":     stage.matchType.String(),
			"matches":   stageMatches,
			"remaining": len(remaining),
		}).Debug("Matching stage completed")
	}

	result := &Result{}
	for _, p := range payables {
		if pair, ok := matched[p]; ok {
			result.Matches = append(result.Matches, pair)
		} else {
			result.UnmatchedPayables = append(result.UnmatchedPayables, p)
		}
	}
	result.UnmatchedPayments = e.pool.Remaining()
	result.Summary = e.buildSummary(result)

	e.log.WithFields(logger.Fields{
		"payables":  result.Summary.TotalPayables,
		"payments":  result.Summary.TotalPayments,
		"matched":   result.Summary.MatchedPairs,
		"unmatched": result.Summary.UnmatchedPayables,
	}).Info("Reconciliation completed")

	return result, nil
}

// buildPair assembles a match pair with its value and timing deltas.
func (e *Engine) buildPair(payable *models.Payable, payment *models.Payment, matchType MatchType) *MatchPair {
	pair := &MatchPair{
		Payable:    payable,
		Payment:    payment,
		MatchType:  matchType,
		ValueDelta: payment.Amount.Sub(payable.Amount),
	}

	if !payable.DueDate.IsZero() && !payment.PaymentDate.IsZero() {
		delta := dates.DaysBetween(payable.DueDate, payment.PaymentDate)
		pair.DayDelta = &delta
	}

	return pair
}

func (e *Engine) buildSummary(result *Result) Summary {
	summary := Summary{
		TotalPayables:        len(result.Matches) + len(result.UnmatchedPayables),
		TotalPayments:        e.pool.Size(),
		MatchedPairs:         len(result.Matches),
		UnmatchedPayables:    len(result.UnmatchedPayables),
		UnmatchedPayments:    len(result.UnmatchedPayments),
		MatchesByType:        make(map[string]int),
		TotalAmountMatched:   decimal.Zero,
		TotalAmountUnmatched: decimal.Zero,
	}

	for _, pair := range result.Matches {
		summary.MatchesByType[pair.MatchType.String()]++
		summary.TotalAmountMatched = summary.TotalAmountMatched.Add(pair.Payment.Amount)
	}

	for _, p := range result.UnmatchedPayables {
		summary.TotalAmountUnmatched = summary.TotalAmountUnmatched.Add(p.Amount)
	}

	return summary
}
