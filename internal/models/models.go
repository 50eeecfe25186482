// Package models defines the two ledger row shapes the reconciliation engine
// operates on, plus the parsing and comparison helpers shared by the rest of
// the system.
//
// A Payable is a recorded obligation keyed by due date; a Payment is a
// recorded money movement keyed by payment date. Both carry free-text
// descriptions and a set of optional fields that may or may not be populated
// depending on the export that produced them. Optional string fields use the
// empty string as the single absent sentinel; ingestion normalizes garbage
// values ("nan", "N/A") to empty before rows reach the engine.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hoppemairon/calendario-financeiro/internal/normalize"

	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of decimal places carried by ledger amounts.
// All amounts are rounded to this precision on entry.
const AmountPrecision = 2

// Payable represents a recorded obligation to pay.
type Payable struct {
	OwnerID     string          `json:"owner_id" csv:"owner_id"`
	Company     string          `json:"company" csv:"company"`
	Supplier    string          `json:"supplier,omitempty" csv:"supplier"`
	Amount      decimal.Decimal `json:"amount" csv:"amount"`
	DueDate     time.Time       `json:"due_date" csv:"due_date"`
	Description string          `json:"description" csv:"description"`
	History     string          `json:"history,omitempty" csv:"history"`
	Category    string          `json:"category,omitempty" csv:"category"`
	MovementID  string          `json:"movement_id,omitempty" csv:"movement_id"`
	BatchID     string          `json:"batch_id" csv:"batch_id"`
}

// Payment represents a recorded money movement.
type Payment struct {
	OwnerID     string          `json:"owner_id" csv:"owner_id"`
	Account     string          `json:"account" csv:"account"`
	Amount      decimal.Decimal `json:"amount" csv:"amount"`
	PaymentDate time.Time       `json:"payment_date" csv:"payment_date"`
	Description string          `json:"description" csv:"description"`
	History     string          `json:"history,omitempty" csv:"history"`
	Category    string          `json:"category" csv:"category"`
	MovementID  string          `json:"movement_id,omitempty" csv:"movement_id"`
	BatchID     string          `json:"batch_id" csv:"batch_id"`
}

// Validate performs basic validation on the Payable. Rows failing validation
// are rejected by ingestion before reaching the engine.
func (p *Payable) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return fmt.Errorf("payable owner ID cannot be empty")
	}

	if p.Amount.IsZero() {
		return fmt.Errorf("payable amount cannot be zero")
	}

	if p.DueDate.IsZero() {
		return fmt.Errorf("payable due date cannot be zero")
	}

	return nil
}

// Validate performs basic validation on the Payment.
func (p *Payment) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return fmt.Errorf("payment owner ID cannot be empty")
	}

	if p.Amount.IsZero() {
		return fmt.Errorf("payment amount cannot be zero")
	}

	if p.PaymentDate.IsZero() {
		return fmt.Errorf("payment date cannot be zero")
	}

	return nil
}

// String returns a string representation of the Payable
func (p *Payable) String() string {
	return fmt.Sprintf("Payable{Owner: %s, Amount: %s, Due: %s, Desc: %s}",
		p.OwnerID, p.Amount.StringFixed(AmountPrecision), p.DueDate.Format("2006-01-02"), p.Description)
}

// String returns a string representation of the Payment
func (p *Payment) String() string {
	return fmt.Sprintf("Payment{Owner: %s, Amount: %s, Paid: %s, Desc: %s}",
		p.OwnerID, p.Amount.StringFixed(AmountPrecision), p.PaymentDate.Format("2006-01-02"), p.Description)
}

// MarshalJSON implements custom JSON marshaling for Payable, rendering the
// amount as a fixed two-decimal string and the date as a calendar date.
func (p *Payable) MarshalJSON() ([]byte, error) {
	type Alias Payable
	return json.Marshal(&struct {
		*Alias
		Amount  string `json:"amount"`
		DueDate string `json:"due_date"`
	}{
		Alias:   (*Alias)(p),
		Amount:  p.Amount.StringFixed(AmountPrecision),
		DueDate: p.DueDate.Format("2006-01-02"),
	})
}

// MarshalJSON implements custom JSON marshaling for Payment
func (p *Payment) MarshalJSON() ([]byte, error) {
	type Alias Payment
	return json.Marshal(&struct {
		*Alias
		Amount      string `json:"amount"`
		PaymentDate string `json:"payment_date"`
	}{
		Alias:       (*Alias)(p),
		Amount:      p.Amount.StringFixed(AmountPrecision),
		PaymentDate: p.PaymentDate.Format("2006-01-02"),
	})
}

// HasMovementID reports whether the row carries an external movement
// identifier usable for identity matching.
func (p *Payable) HasMovementID() bool {
	return !normalize.IsAbsent(p.MovementID)
}

// HasMovementID reports whether the row carries an external movement
// identifier usable for identity matching.
func (p *Payment) HasMovementID() bool {
	return !normalize.IsAbsent(p.MovementID)
}

// RoundAmount rounds d to the ledger's financial precision so amounts parsed
// from different sources build identical keys.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPrecision)
}

// ParseAmount parses a decimal amount from its string form, tolerating the
// currency symbols and thousand separators common in ledger exports.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}

	return RoundAmount(d), nil
}

// ParseDate attempts to parse a calendar date from the formats commonly found
// in payable and payment exports.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		"02/01/2006",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006/01/02",
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// AmountsWithinTolerance reports whether two amounts differ by at most
// tolerance.
func AmountsWithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
