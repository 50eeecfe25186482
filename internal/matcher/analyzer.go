package matcher

import (
	"github.com/hoppemairon/calendario-financeiro/pkg/logger"

	"github.com/shopspring/decimal"
)

// TimingDirection classifies a timing discrepancy relative to the due date.
type TimingDirection string

const (
	// TimingEarly means the payment landed before the due date.
	TimingEarly TimingDirection = "early"
	// TimingLate means the payment landed after the due date.
	TimingLate TimingDirection = "late"
)

// ValueDifference flags a matched pair whose amounts diverge beyond the
// value tolerance.
type ValueDifference struct {
	Pair       *MatchPair      `json:"pair"`
	ValueDelta decimal.Decimal `json:"value_delta"`
}

// TimingDifference flags a matched pair whose payment date falls outside the
// day tolerance around the due date.
type TimingDifference struct {
	Pair      *MatchPair      `json:"pair"`
	DayDelta  int             `json:"day_delta"`
	Direction TimingDirection `json:"direction"`
}

// DifferenceReport collects the discrepancies found among matched pairs. A
// pair can appear in both lists when its amount and its timing both diverge.
type DifferenceReport struct {
	ValueDiffs  []ValueDifference  `json:"value_diffs"`
	TimingDiffs []TimingDifference `json:"timing_diffs"`
}

// HasDifferences reports whether any discrepancy was found.
func (r *DifferenceReport) HasDifferences() bool {
	return len(r.ValueDiffs) > 0 || len(r.TimingDiffs) > 0
}

// AnalyzeDifferences inspects matched pairs for amount and timing
// discrepancies. Pairs are examined in match order, so the report is
// deterministic for a given result. Pairs missing either date are skipped
// for timing analysis; their amounts are still checked.
func (e *Engine) AnalyzeDifferences(matches []*MatchPair) *DifferenceReport {
	report := &DifferenceReport{}

	for _, pair := range matches {
		if pair.ValueDelta.Abs().GreaterThan(e.config.ValueTolerance) {
			report.ValueDiffs = append(report.ValueDiffs, ValueDifference{
				Pair:       pair,
				ValueDelta: pair.ValueDelta,
			})
		}

		if pair.DayDelta == nil {
			continue
		}

		delta := *pair.DayDelta
		if abs(delta) > e.config.DayTolerance {
			direction := TimingLate
			if delta < 0 {
				direction = TimingEarly
			}
			report.TimingDiffs = append(report.TimingDiffs, TimingDifference{
				Pair:      pair,
				DayDelta:  delta,
				Direction: direction,
			})
		}
	}

	e.log.WithFields(logger.Fields{
		"pairs":        len(matches),
		"value_diffs":  len(report.ValueDiffs),
		"timing_diffs": len(report.TimingDiffs),
	}).Debug("Difference analysis completed")

	return report
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
