package matcher

import (
	"github.com/hoppemairon/calendario-financeiro/internal/models"
	"github.com/hoppemairon/calendario-financeiro/internal/normalize"

	"github.com/shopspring/decimal"
)

// RowKeys holds the precomputed lookup keys for a ledger row. Any key may be
// empty when the underlying field is absent; empty keys never participate in
// matching.
type RowKeys struct {
	// MovementID is the normalized external movement identifier.
	MovementID string

	// CompositeKey joins the normalized description with the two-decimal
	// amount, for example "ALUGUEL JANEIRO_1500.00".
	CompositeKey string

	// HistoryKey is the normalized history memo, empty when the memo is
	// absent or too short to be meaningful.
	HistoryKey string

	// AmountKey is the fixed two-decimal rendering of the amount.
	AmountKey string

	// Description is the normalized description, kept for the approximate
	// stage's similarity comparisons.
	Description string
}

// BuildPayableKeys computes the lookup keys for a payable.
func BuildPayableKeys(p *models.Payable, minHistoryLength int) RowKeys {
	return buildKeys(p.MovementID, p.Description, p.History, p.Amount, minHistoryLength)
}

// BuildPaymentKeys computes the lookup keys for a payment.
func BuildPaymentKeys(p *models.Payment, minHistoryLength int) RowKeys {
	return buildKeys(p.MovementID, p.Description, p.History, p.Amount, minHistoryLength)
}

func buildKeys(movementID, description, history string, amount decimal.Decimal, minHistoryLength int) RowKeys {
	keys := RowKeys{
		MovementID:  normalize.Field(movementID),
		Description: normalize.Field(description),
		AmountKey:   amount.StringFixed(models.AmountPrecision),
	}

	if keys.Description != "" {
		keys.CompositeKey = keys.Description + "_" + keys.AmountKey
	}

	if h := normalize.Field(history); len(h) >= minHistoryLength {
		keys.HistoryKey = h
	}

	return keys
}

// HasCompositeKey reports whether the row produced a usable composite key.
func (k RowKeys) HasCompositeKey() bool {
	return k.CompositeKey != ""
}

// HasHistoryKey reports whether the row carries a meaningful history memo.
func (k RowKeys) HasHistoryKey() bool {
	return k.HistoryKey != ""
}
