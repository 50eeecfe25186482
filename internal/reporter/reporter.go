// Package reporter renders reconciliation run results for people and
// machines.
//
// Supported output formats:
//   - Console: human-readable summary for terminal display
//   - JSON: structured output for programmatic consumption
//   - CSV: row-per-item output for spreadsheet review
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hoppemairon/calendario-financeiro/internal/matcher"
	"github.com/hoppemairon/calendario-financeiro/internal/models"
	"github.com/hoppemairon/calendario-financeiro/internal/reconciler"
)

// OutputFormat selects how a run result is rendered.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	IncludeMatches     bool `json:"include_matches"`
	IncludeUnmatched   bool `json:"include_unmatched"`
	IncludeDifferences bool `json:"include_differences"`
	IncludeStats       bool `json:"include_stats"`

	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatConsole,
		IncludeMatches:     false,
		IncludeUnmatched:   true,
		IncludeDifferences: true,
		IncludeStats:       true,
		CSVDelimiter:       ',',
		CSVHeaders:         true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.CSVDelimiter == 0 {
		return fmt.Errorf("csv delimiter is required")
	}
	return nil
}

// ReportGenerator renders reconciliation run results.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator. A nil config uses
// DefaultReportConfig.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders the run result to the writer in the configured
// format.
func (rg *ReportGenerator) GenerateReport(result *reconciler.RunResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("run result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *reconciler.RunResult, writer io.Writer) error {
	summary := result.Summary

	fmt.Fprintf(writer, "RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Run ID:    %s\n", result.RunID)
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Duration:  %v\n\n", summary.ProcessingDuration)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Payables:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalPayables)
	fmt.Fprintf(writer, "  Matched:   %d (%.1f%%)\n",
		summary.MatchedPairs, percentage(summary.MatchedPairs, summary.TotalPayables))
	fmt.Fprintf(writer, "  Pending:   %d (%.1f%%)\n",
		summary.UnmatchedPayables, percentage(summary.UnmatchedPayables, summary.TotalPayables))
	fmt.Fprintf(writer, "  Overdue:   %d\n", summary.OverduePayables)
	fmt.Fprintf(writer, "\nPayments:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalPayments)
	fmt.Fprintf(writer, "  Matched:   %d (%.1f%%)\n",
		summary.MatchedPairs, percentage(summary.MatchedPairs, summary.TotalPayments))
	fmt.Fprintf(writer, "  Unmatched: %d (%.1f%%)\n\n",
		summary.UnmatchedPayments, percentage(summary.UnmatchedPayments, summary.TotalPayments))

	fmt.Fprintf(writer, "=== FINANCIAL SUMMARY ===\n")
	fmt.Fprintf(writer, "Total Payable: %s\n", summary.TotalPayableAmount.StringFixed(2))
	fmt.Fprintf(writer, "Total Paid:    %s\n", summary.TotalPaidAmount.StringFixed(2))
	fmt.Fprintf(writer, "Pending:       %s\n", summary.PendingAmount.StringFixed(2))
	fmt.Fprintf(writer, "Extra Paid:    %s\n", summary.ExtraPaidAmount.StringFixed(2))
	fmt.Fprintf(writer, "Percent Paid:  %.2f%%\n\n", summary.PercentPaid)

	if len(summary.MatchesByType) > 0 {
		fmt.Fprintf(writer, "=== MATCHES BY TYPE ===\n")
		for _, matchType := range matchTypeOrder {
			if count, ok := summary.MatchesByType[matchType]; ok && count > 0 {
				fmt.Fprintf(writer, "  %-25s %d\n", matchType, count)
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeDifferences && result.Differences != nil && result.Differences.HasDifferences() {
		fmt.Fprintf(writer, "=== DIFFERENCES ===\n")
		for _, diff := range result.Differences.ValueDiffs {
			fmt.Fprintf(writer, "  value  %-30s delta %s\n",
				diff.Pair.Payable.Description, diff.ValueDelta.StringFixed(2))
		}
		for _, diff := range result.Differences.TimingDiffs {
			fmt.Fprintf(writer, "  timing %-30s %d days %s\n",
				diff.Pair.Payable.Description, abs(diff.DayDelta), diff.Direction)
		}
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatched {
		rg.printUnmatched(result, writer)
	}

	if result.Dedup != nil {
		fmt.Fprintf(writer, "=== DUPLICATE SCREENING ===\n")
		fmt.Fprintf(writer, "  New rows:        %d\n", len(result.Dedup.NewRows))
		fmt.Fprintf(writer, "  Duplicates:      %d\n", len(result.Dedup.Duplicates))
		fmt.Fprintf(writer, "  Lookup failures: %d\n\n", result.Dedup.LookupFailures)
	}

	if rg.config.IncludeStats && result.ProcessingStats != nil {
		stats := result.ProcessingStats
		fmt.Fprintf(writer, "=== PROCESSING STATISTICS ===\n")
		fmt.Fprintf(writer, "  Parse errors:      %d\n", stats.ParseErrors)
		fmt.Fprintf(writer, "  Validation errors: %d\n", stats.ValidationErrors)
		fmt.Fprintf(writer, "  Parsing time:      %v\n", stats.ParsingTime)
		fmt.Fprintf(writer, "  Matching time:     %v\n", stats.MatchingTime)
	}

	return nil
}

func (rg *ReportGenerator) printUnmatched(result *reconciler.RunResult, writer io.Writer) {
	overdue := make(map[*models.Payable]bool, len(result.Overdue))
	for _, p := range result.Overdue {
		overdue[p] = true
	}

	if len(result.Match.UnmatchedPayables) > 0 {
		fmt.Fprintf(writer, "=== PENDING PAYABLES ===\n")
		for _, p := range result.Match.UnmatchedPayables {
			marker := ""
			if overdue[p] {
				marker = "  OVERDUE"
			}
			fmt.Fprintf(writer, "  %-30s %10s  due %s%s\n",
				p.Description, p.Amount.StringFixed(2), formatDate(p.DueDate), marker)
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(result.Match.UnmatchedPayments) > 0 {
		fmt.Fprintf(writer, "=== UNMATCHED PAYMENTS ===\n")
		for _, p := range result.Match.UnmatchedPayments {
			fmt.Fprintf(writer, "  %-30s %10s  paid %s\n",
				p.Description, p.Amount.StringFixed(2), formatDate(p.PaymentDate))
		}
		fmt.Fprintf(writer, "\n")
	}
}

func (rg *ReportGenerator) generateJSONReport(result *reconciler.RunResult, writer io.Writer) error {
	filtered := rg.filterResultForOutput(result)

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(filtered)
}

// filterResultForOutput drops sections disabled in the configuration
// without mutating the original result.
func (rg *ReportGenerator) filterResultForOutput(result *reconciler.RunResult) *reconciler.RunResult {
	filtered := *result

	if !rg.config.IncludeDifferences {
		filtered.Differences = nil
	}
	if !rg.config.IncludeStats {
		filtered.ProcessingStats = nil
	}
	if !rg.config.IncludeMatches || !rg.config.IncludeUnmatched {
		match := *result.Match
		if !rg.config.IncludeMatches {
			match.Matches = nil
		}
		if !rg.config.IncludeUnmatched {
			match.UnmatchedPayables = nil
			match.UnmatchedPayments = nil
		}
		filtered.Match = &match
	}

	return &filtered
}

func (rg *ReportGenerator) generateCSVReport(result *reconciler.RunResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"Type",
			"Description",
			"Amount",
			"Date",
			"Status",
			"Match_Type",
			"Value_Delta",
			"Day_Delta",
			"Notes",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	if rg.config.IncludeMatches {
		for _, pair := range result.Match.Matches {
			dayDelta := ""
			if pair.DayDelta != nil {
				dayDelta = strconv.Itoa(*pair.DayDelta)
			}
			record := []string{
				"Matched Payable",
				pair.Payable.Description,
				pair.Payable.Amount.StringFixed(2),
				formatDate(pair.Payable.DueDate),
				"Matched",
				pair.MatchType.String(),
				pair.ValueDelta.StringFixed(2),
				dayDelta,
				"",
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write matched pair record: %w", err)
			}
		}
	}

	if rg.config.IncludeUnmatched {
		overdue := make(map[*models.Payable]bool, len(result.Overdue))
		for _, p := range result.Overdue {
			overdue[p] = true
		}

		for _, p := range result.Match.UnmatchedPayables {
			notes := "No matching payment found"
			if overdue[p] {
				notes = "Overdue, no matching payment found"
			}
			record := []string{
				"Pending Payable",
				p.Description,
				p.Amount.StringFixed(2),
				formatDate(p.DueDate),
				"Unmatched",
				"",
				"",
				"",
				notes,
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write pending payable record: %w", err)
			}
		}

		for _, p := range result.Match.UnmatchedPayments {
			record := []string{
				"Unmatched Payment",
				p.Description,
				p.Amount.StringFixed(2),
				formatDate(p.PaymentDate),
				"Unmatched",
				"",
				"",
				"",
				"No matching payable found",
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write unmatched payment record: %w", err)
			}
		}
	}

	return nil
}

// matchTypeOrder fixes the console ordering of the match breakdown.
var matchTypeOrder = []string{
	matcher.MatchMovementID.String(),
	matcher.MatchCompositeKey.String(),
	matcher.MatchHistory.String(),
	matcher.MatchValueExactDescSimilar.String(),
	matcher.MatchValueApproxDescExact.String(),
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
