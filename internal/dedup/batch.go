package dedup

import (
	"fmt"

	"github.com/hoppemairon/calendario-financeiro/internal/dates"
	"github.com/hoppemairon/calendario-financeiro/internal/normalize"
	"github.com/hoppemairon/calendario-financeiro/internal/similarity"
)

// BatchGroup is a set of rows within one input batch that look like
// duplicates of each other.
type BatchGroup struct {
	Rows       []Row   `json:"rows"`
	GroupID    string  `json:"group_id"`
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
}

// FindBatchDuplicates groups rows inside a single batch that share the
// same owner, amount and day and whose descriptions are identical or
// similar beyond the configured threshold. Unlike CheckBatch it needs
// no lookup: the batch is compared against itself.
func (c *Checker) FindBatchDuplicates(rows []Row) []BatchGroup {
	var groups []BatchGroup
	grouped := make([]bool, len(rows))

	for i := range rows {
		if grouped[i] {
			continue
		}

		group := []Row{rows[i]}
		lowest := 1.0
		reason := "same_description"

		for j := i + 1; j < len(rows); j++ {
			if grouped[j] {
				continue
			}

			sim, ok := c.batchPairSimilarity(rows[i], rows[j])
			if !ok {
				continue
			}
			group = append(group, rows[j])
			grouped[j] = true
			if sim < lowest {
				lowest = sim
				reason = "similar_description"
			}
		}

		if len(group) > 1 {
			grouped[i] = true
			groups = append(groups, BatchGroup{
				Rows:       group,
				GroupID:    fmt.Sprintf("batch-dup-%d", len(groups)+1),
				Similarity: lowest,
				Reason:     reason,
			})
		}
	}

	return groups
}

// batchPairSimilarity reports whether two rows of the same batch look
// like duplicates, and how similar their descriptions are.
func (c *Checker) batchPairSimilarity(a, b Row) (float64, bool) {
	if normalize.Text(a.OwnerID) != normalize.Text(b.OwnerID) {
		return 0, false
	}
	if !a.Amount.Equal(b.Amount) {
		return 0, false
	}
	if !dates.SameDay(a.Date, b.Date) {
		return 0, false
	}

	descA := normalize.Field(a.Description)
	descB := normalize.Field(b.Description)
	if descA == "" || descB == "" {
		return 0, false
	}
	if descA == descB {
		return 1.0, true
	}

	sim := similarity.Jaccard(descA, descB)
	if sim > c.config.SimilarityThreshold {
		return sim, true
	}
	return 0, false
}
