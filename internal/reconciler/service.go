// Package reconciler orchestrates the end-to-end reconciliation run:
// parsing payable and payment files, optional duplicate screening,
// matching, and difference analysis, producing a single run report.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/hoppemairon/calendario-financeiro/internal/dates"
	"github.com/hoppemairon/calendario-financeiro/internal/dedup"
	"github.com/hoppemairon/calendario-financeiro/internal/matcher"
	"github.com/hoppemairon/calendario-financeiro/internal/models"
	"github.com/hoppemairon/calendario-financeiro/internal/parsers"
	"github.com/hoppemairon/calendario-financeiro/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service wires the parsers, the duplicate checker and the matching
// engine into a single entry point for reconciliation runs.
type Service struct {
	checker *dedup.Checker
	config  *Config
	log     logger.Logger
}

// Config holds configuration options for the reconciliation service.
type Config struct {
	// Matching controls the engine thresholds and stage toggles.
	Matching *matcher.Config

	// Dedup controls the duplicate screening pre-step. A nil DedupLookup
	// with Dedup.Enabled true is rejected at construction.
	Dedup       *dedup.Config
	DedupLookup dedup.LookupFunc

	// ValidateInputs re-validates parsed rows before matching.
	ValidateInputs bool

	// DetectOverdue flags unmatched payables whose due date has passed
	// AsOf. A zero AsOf means time.Now at run time.
	DetectOverdue bool
	AsOf          time.Time
}

// DefaultConfig returns the default service configuration with
// duplicate screening disabled (no lookup wired).
func DefaultConfig() *Config {
	return &Config{
		Matching:       matcher.DefaultConfig(),
		Dedup:          &dedup.Config{Enabled: false},
		ValidateInputs: true,
		DetectOverdue:  true,
	}
}

// Validate validates the service configuration.
func (c *Config) Validate() error {
	if c.Matching == nil {
		return fmt.Errorf("matching configuration is required")
	}
	if err := c.Matching.Validate(); err != nil {
		return fmt.Errorf("invalid matching configuration: %w", err)
	}
	if c.Dedup != nil && c.Dedup.Enabled && c.DedupLookup == nil {
		return fmt.Errorf("duplicate screening is enabled but no lookup is configured")
	}
	return nil
}

// Request describes one file-based reconciliation run.
type Request struct {
	PayableFile   string
	PaymentFile   string
	PayableConfig *parsers.PayableParserConfig
	PaymentConfig *parsers.PaymentParserConfig
}

// Validate validates the request.
func (r *Request) Validate() error {
	if r.PayableFile == "" {
		return fmt.Errorf("payable file path is required")
	}
	if r.PaymentFile == "" {
		return fmt.Errorf("payment file path is required")
	}
	return nil
}

// RunResult contains the complete outcome of one reconciliation run.
type RunResult struct {
	RunID   string          `json:"run_id"`
	Summary *RunSummary     `json:"summary"`
	Match   *matcher.Result `json:"match"`

	// Differences among matched pairs that exceed the configured
	// value or timing tolerances.
	Differences *matcher.DifferenceReport `json:"differences,omitempty"`

	// Overdue lists unmatched payables whose due date is before AsOf.
	Overdue []*models.Payable `json:"overdue,omitempty"`

	// Dedup holds the duplicate screening outcome when enabled.
	Dedup *dedup.BatchResult `json:"dedup,omitempty"`

	ProcessingStats *ProcessingStats `json:"processing_stats,omitempty"`
	ProcessedAt     time.Time        `json:"processed_at"`
}

// RunSummary provides a high-level financial overview of a run.
type RunSummary struct {
	TotalPayables     int `json:"total_payables"`
	TotalPayments     int `json:"total_payments"`
	MatchedPairs      int `json:"matched_pairs"`
	UnmatchedPayables int `json:"unmatched_payables"`
	UnmatchedPayments int `json:"unmatched_payments"`

	MatchesByType map[string]int `json:"matches_by_type"`

	TotalPayableAmount decimal.Decimal `json:"total_payable_amount"`
	TotalPaidAmount    decimal.Decimal `json:"total_paid_amount"`
	PendingAmount      decimal.Decimal `json:"pending_amount"`
	ExtraPaidAmount    decimal.Decimal `json:"extra_paid_amount"`
	PercentPaid        float64         `json:"percent_paid"`

	ValueDifferences  int `json:"value_differences"`
	TimingDifferences int `json:"timing_differences"`
	OverduePayables   int `json:"overdue_payables"`
	DuplicatesFound   int `json:"duplicates_found,omitempty"`

	ProcessingDuration time.Duration `json:"processing_duration"`
}

// ProcessingStats contains per-phase processing statistics.
type ProcessingStats struct {
	PayableBatchID string `json:"payable_batch_id,omitempty"`
	PaymentBatchID string `json:"payment_batch_id,omitempty"`

	ParseErrors      int `json:"parse_errors"`
	ValidationErrors int `json:"validation_errors"`
	LookupFailures   int `json:"lookup_failures"`

	ParsingTime  time.Duration `json:"parsing_time"`
	MatchingTime time.Duration `json:"matching_time"`
	TotalTime    time.Duration `json:"total_time"`
}

// NewService creates a reconciliation service. A nil config uses
// DefaultConfig. Parser configs are optional for Reconcile-only use;
// ProcessFiles requires them on the request or here.
func NewService(config *Config, log logger.Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	svc := &Service{
		config: config,
		log:    log.WithComponent("reconciler"),
	}

	if config.Dedup != nil && config.Dedup.Enabled {
		svc.checker = dedup.NewChecker(config.Dedup, config.DedupLookup, log)
	}

	return svc, nil
}

// ProcessFiles parses both input files and reconciles them.
func (s *Service) ProcessFiles(ctx context.Context, request *Request) (*RunResult, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	payableConfig := request.PayableConfig
	if payableConfig == nil {
		payableConfig = parsers.DefaultPayableParserConfig()
	}
	paymentConfig := request.PaymentConfig
	if paymentConfig == nil {
		paymentConfig = parsers.DefaultPaymentParserConfig()
	}

	payableParser, err := parsers.NewPayableParser(payableConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create payable parser: %w", err)
	}
	paymentParser, err := parsers.NewPaymentParser(paymentConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment parser: %w", err)
	}

	op := logger.NewOperationLogger("process_files", s.log).
		WithField("payable_file", request.PayableFile).
		WithField("payment_file", request.PaymentFile)

	parseStart := time.Now()

	op.Step("parse_payables")
	payables, payableStats, err := payableParser.ParseFile(ctx, request.PayableFile)
	if err != nil {
		op.Error(err, "Payable parsing failed")
		return nil, fmt.Errorf("failed to parse payables from %s: %w", request.PayableFile, err)
	}

	op.Step("parse_payments")
	payments, paymentStats, err := paymentParser.ParseFile(ctx, request.PaymentFile)
	if err != nil {
		op.Error(err, "Payment parsing failed")
		return nil, fmt.Errorf("failed to parse payments from %s: %w", request.PaymentFile, err)
	}

	parsingTime := time.Since(parseStart)

	op.Step("reconcile")
	result, err := s.Reconcile(ctx, payables, payments)
	if err != nil {
		op.Error(err, "Reconciliation failed")
		return nil, err
	}
	op.Success("Files reconciled")

	result.ProcessingStats.PayableBatchID = payableStats.BatchID
	result.ProcessingStats.PaymentBatchID = paymentStats.BatchID
	result.ProcessingStats.ParseErrors = payableStats.ErrorCount + paymentStats.ErrorCount
	result.ProcessingStats.ParsingTime = parsingTime
	result.ProcessingStats.TotalTime += parsingTime
	result.Summary.ProcessingDuration = result.ProcessingStats.TotalTime

	return result, nil
}

// Reconcile runs duplicate screening (when enabled), matching and
// difference analysis over already-loaded rows.
func (s *Service) Reconcile(ctx context.Context, payables []*models.Payable, payments []*models.Payment) (*RunResult, error) {
	startTime := time.Now()

	result := &RunResult{
		RunID:           uuid.NewString(),
		ProcessedAt:     startTime,
		ProcessingStats: &ProcessingStats{},
	}

	s.log.WithFields(logger.Fields{
		"run_id":   result.RunID,
		"payables": len(payables),
		"payments": len(payments),
	}).Info("Starting reconciliation run")

	if s.config.ValidateInputs {
		payables, payments = s.validateInputs(payables, payments, result.ProcessingStats)
	}

	if s.checker != nil {
		dedupResult, err := s.checker.CheckBatch(ctx, dedup.PayableRows(payables))
		if err != nil {
			return nil, fmt.Errorf("duplicate screening failed: %w", err)
		}
		result.Dedup = dedupResult
		result.ProcessingStats.LookupFailures = dedupResult.LookupFailures
	}

	matchingStart := time.Now()

	engine := matcher.NewEngine(s.config.Matching, s.log)
	engine.LoadPayments(payments)

	matchResult, err := engine.Reconcile(ctx, payables)
	if err != nil {
		return nil, fmt.Errorf("matching failed: %w", err)
	}
	result.Match = matchResult
	result.Differences = engine.AnalyzeDifferences(matchResult.Matches)
	result.ProcessingStats.MatchingTime = time.Since(matchingStart)

	if s.config.DetectOverdue {
		result.Overdue = s.findOverdue(matchResult.UnmatchedPayables)
	}

	result.ProcessingStats.TotalTime = time.Since(startTime)
	result.Summary = s.buildSummary(result)

	s.log.WithFields(logger.Fields{
		"run_id":   result.RunID,
		"matched":  result.Summary.MatchedPairs,
		"pending":  result.Summary.UnmatchedPayables,
		"overdue":  result.Summary.OverduePayables,
		"duration": result.ProcessingStats.TotalTime.String(),
	}).Info("Reconciliation run completed")

	return result, nil
}

// UpdateConfiguration replaces the service configuration.
func (s *Service) UpdateConfiguration(config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	s.config = config
	if config.Dedup != nil && config.Dedup.Enabled {
		s.checker = dedup.NewChecker(config.Dedup, config.DedupLookup, s.log)
	} else {
		s.checker = nil
	}
	return nil
}

// GetConfiguration returns the current configuration.
func (s *Service) GetConfiguration() *Config {
	return s.config
}

func (s *Service) validateInputs(payables []*models.Payable, payments []*models.Payment, stats *ProcessingStats) ([]*models.Payable, []*models.Payment) {
	validPayables := payables[:0:0]
	for _, p := range payables {
		if err := p.Validate(); err != nil {
			stats.ValidationErrors++
			s.log.WithFields(logger.Fields{
				"owner_id": p.OwnerID,
				"error":    err.Error(),
			}).Warn("Skipping invalid payable")
			continue
		}
		validPayables = append(validPayables, p)
	}

	validPayments := payments[:0:0]
	for _, p := range payments {
		if err := p.Validate(); err != nil {
			stats.ValidationErrors++
			s.log.WithFields(logger.Fields{
				"owner_id": p.OwnerID,
				"error":    err.Error(),
			}).Warn("Skipping invalid payment")
			continue
		}
		validPayments = append(validPayments, p)
	}

	return validPayables, validPayments
}

func (s *Service) findOverdue(unmatched []*models.Payable) []*models.Payable {
	asOf := s.config.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	asOf = dates.Truncate(asOf)

	var overdue []*models.Payable
	for _, p := range unmatched {
		if p.DueDate.IsZero() {
			continue
		}
		if dates.Truncate(p.DueDate).Before(asOf) {
			overdue = append(overdue, p)
		}
	}
	return overdue
}

func (s *Service) buildSummary(result *RunResult) *RunSummary {
	match := result.Match
	summary := &RunSummary{
		TotalPayables:      match.Summary.TotalPayables,
		TotalPayments:      match.Summary.TotalPayments,
		MatchedPairs:       match.Summary.MatchedPairs,
		UnmatchedPayables:  len(match.UnmatchedPayables),
		UnmatchedPayments:  len(match.UnmatchedPayments),
		MatchesByType:      match.Summary.MatchesByType,
		OverduePayables:    len(result.Overdue),
		ProcessingDuration: result.ProcessingStats.TotalTime,
	}

	totalPayable := decimal.Zero
	for _, pair := range match.Matches {
		totalPayable = totalPayable.Add(pair.Payable.Amount)
		summary.TotalPaidAmount = summary.TotalPaidAmount.Add(pair.Payment.Amount)
	}
	for _, p := range match.UnmatchedPayables {
		totalPayable = totalPayable.Add(p.Amount)
		summary.PendingAmount = summary.PendingAmount.Add(p.Amount)
	}
	for _, p := range match.UnmatchedPayments {
		summary.ExtraPaidAmount = summary.ExtraPaidAmount.Add(p.Amount)
	}
	summary.TotalPayableAmount = totalPayable

	if !totalPayable.IsZero() {
		paid := totalPayable.Sub(summary.PendingAmount)
		percent, _ := paid.Div(totalPayable).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		summary.PercentPaid = percent
	}

	if result.Differences != nil {
		summary.ValueDifferences = len(result.Differences.ValueDiffs)
		summary.TimingDifferences = len(result.Differences.TimingDiffs)
	}
	if result.Dedup != nil {
		summary.DuplicatesFound = len(result.Dedup.Duplicates)
	}

	return summary
}
