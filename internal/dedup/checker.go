// Package dedup classifies incoming ledger rows as new or duplicate before
// they are persisted.
//
// Duplicate checking is independent of cross-dataset reconciliation: it
// compares each incoming row against rows already in storage for the same
// owner, amount and date, fetched through an injected lookup. The lookup is
// the only I/O in the package and may be remote; a lookup failure degrades to
// "treat as new" so a storage hiccup never blocks an import batch.
package dedup

import (
	"context"
	"strings"
	"time"

	"github.com/hoppemairon/calendario-financeiro/internal/dates"
	"github.com/hoppemairon/calendario-financeiro/internal/models"
	"github.com/hoppemairon/calendario-financeiro/internal/normalize"
	"github.com/hoppemairon/calendario-financeiro/internal/similarity"
	apperrors "github.com/hoppemairon/calendario-financeiro/pkg/errors"
	"github.com/hoppemairon/calendario-financeiro/pkg/logger"

	"github.com/shopspring/decimal"
)

// Row is an incoming ledger row submitted for duplicate classification.
type Row struct {
	OwnerID     string          `json:"owner_id"`
	Supplier    string          `json:"supplier,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
}

// ExistingRow is a persisted row returned by the lookup. The lookup is
// expected to pre-filter by owner, amount and date server-side; the checker
// only compares supplier and description.
type ExistingRow struct {
	ID          string `json:"id"`
	Supplier    string `json:"supplier,omitempty"`
	Description string `json:"description"`
}

// LookupFunc fetches persisted rows with the given owner, amount and date.
type LookupFunc func(ctx context.Context, ownerID string, amount decimal.Decimal, date time.Time) ([]ExistingRow, error)

// Config controls duplicate classification.
type Config struct {
	// Enabled toggles duplicate checking. When false every row is new.
	Enabled bool `json:"enabled"`

	// SimilarityThreshold is the Jaccard similarity above which two
	// descriptions from the same supplier count as the same charge.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// MinDescriptionLength is the minimum description length for the
	// supplier-independent exact-description rule.
	MinDescriptionLength int `json:"min_description_length"`
}

// DefaultConfig returns the standard duplicate-checking configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:              true,
		SimilarityThreshold:  0.8,
		MinDescriptionLength: 10,
	}
}

// Verdict is the classification of a single incoming row.
type Verdict struct {
	Row         Row  `json:"row"`
	IsDuplicate bool `json:"is_duplicate"`

	// Similarity is the description similarity against the matched
	// existing row; 1.0 for exact duplicates, 0.0 for new rows.
	Similarity float64 `json:"similarity"`

	// MatchedID is the ID of the persisted row this one duplicates.
	MatchedID string `json:"matched_id,omitempty"`

	// Reason names the rule that fired: "supplier_and_description",
	// "supplier_and_similar_description" or "exact_description".
	Reason string `json:"reason,omitempty"`
}

// BatchResult is the outcome of classifying a batch of rows. Verdicts keep
// the input order; NewRows and Duplicates are views over the same verdicts.
type BatchResult struct {
	Verdicts       []Verdict `json:"verdicts"`
	NewRows        []Row     `json:"new_rows"`
	Duplicates     []Verdict `json:"duplicates"`
	LookupFailures int       `json:"lookup_failures"`
}

// Checker classifies incoming rows against persisted rows.
type Checker struct {
	config *Config
	lookup LookupFunc
	log    logger.Logger
}

// NewChecker creates a duplicate checker backed by the given lookup.
func NewChecker(config *Config, lookup LookupFunc, log logger.Logger) *Checker {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Checker{
		config: config,
		lookup: lookup,
		log:    log.WithComponent("dedup"),
	}
}

// CheckBatch classifies every row in the batch. Rows are processed in input
// order and each row is classified independently: a row is compared against
// persisted storage, not against other rows in the same batch. A lookup
// failure for a row is logged and the row treated as new.
func (c *Checker) CheckBatch(ctx context.Context, rows []Row) (*BatchResult, error) {
	result := &BatchResult{
		Verdicts: make([]Verdict, 0, len(rows)),
	}

	if !c.config.Enabled {
		for _, row := range rows {
			result.Verdicts = append(result.Verdicts, Verdict{Row: row})
			result.NewRows = append(result.NewRows, row)
		}
		return result, nil
	}

	if c.lookup == nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeMissingConfig, "dedup.lookup", nil, nil)
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CategoryInternal, apperrors.CodeUnexpectedError, "duplicate check cancelled")
		}

		verdict := c.checkRow(ctx, row, result)
		result.Verdicts = append(result.Verdicts, verdict)
		if verdict.IsDuplicate {
			result.Duplicates = append(result.Duplicates, verdict)
		} else {
			result.NewRows = append(result.NewRows, row)
		}
	}

	c.log.WithFields(logger.Fields{
		"rows":            len(rows),
		"new":             len(result.NewRows),
		"duplicates":      len(result.Duplicates),
		"lookup_failures": result.LookupFailures,
	}).Info("Duplicate check completed")

	return result, nil
}

func (c *Checker) checkRow(ctx context.Context, row Row, result *BatchResult) Verdict {
	// The lookup is an equality pre-filter, so its arguments must be in
	// canonical form: trimmed owner, two-decimal amount, calendar day.
	ownerID := strings.TrimSpace(row.OwnerID)
	amount := models.RoundAmount(row.Amount)
	day := dates.Truncate(row.Date)

	existing, err := c.lookup(ctx, ownerID, amount, day)
	if err != nil {
		result.LookupFailures++
		lookupErr := apperrors.LookupError(apperrors.CodeLookupFailed, ownerID, err)
		c.log.WithError(lookupErr).WithFields(logger.Fields{
			"owner_id": ownerID,
			"amount":   amount.StringFixed(models.AmountPrecision),
			"date":     day.Format("2006-01-02"),
		}).Warn("Duplicate lookup failed, treating row as new")
		return Verdict{Row: row}
	}

	supplier := normalize.Field(row.Supplier)
	description := normalize.Field(row.Description)

	for _, candidate := range existing {
		candSupplier := normalize.Field(candidate.Supplier)
		candDescription := normalize.Field(candidate.Description)

		sameSupplier := supplier != "" && supplier == candSupplier
		sameDescription := description != "" && description == candDescription

		if sameSupplier && sameDescription {
			return Verdict{
				Row:         row,
				IsDuplicate: true,
				Similarity:  1.0,
				MatchedID:   candidate.ID,
				Reason:      "supplier_and_description",
			}
		}

		if sameSupplier {
			if sim := similarity.Jaccard(description, candDescription); sim > c.config.SimilarityThreshold {
				return Verdict{
					Row:         row,
					IsDuplicate: true,
					Similarity:  sim,
					MatchedID:   candidate.ID,
					Reason:      "supplier_and_similar_description",
				}
			}
		}

		if sameDescription && len(description) > c.config.MinDescriptionLength {
			return Verdict{
				Row:         row,
				IsDuplicate: true,
				Similarity:  1.0,
				MatchedID:   candidate.ID,
				Reason:      "exact_description",
			}
		}
	}

	return Verdict{Row: row}
}

// PayableRow adapts a payable into a duplicate-check row keyed by due date.
func PayableRow(p *models.Payable) Row {
	return Row{
		OwnerID:     p.OwnerID,
		Supplier:    p.Supplier,
		Description: p.Description,
		Amount:      p.Amount,
		Date:        p.DueDate,
	}
}

// PayableRows adapts a batch of payables for CheckBatch.
func PayableRows(payables []*models.Payable) []Row {
	rows := make([]Row, len(payables))
	for i, p := range payables {
		rows[i] = PayableRow(p)
	}
	return rows
}

// PaymentRow adapts a payment into a duplicate-check row keyed by payment
// date. Payments carry no supplier, so only the description rules apply.
func PaymentRow(p *models.Payment) Row {
	return Row{
		OwnerID:     p.OwnerID,
		Description: p.Description,
		Amount:      p.Amount,
		Date:        p.PaymentDate,
	}
}
