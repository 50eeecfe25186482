package dedup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hoppemairon/calendario-financeiro/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryLookup simulates the persistence boundary: rows are keyed by owner,
// amount and date exactly as the storage-side pre-filter would.
type memoryLookup struct {
	rows   map[string][]ExistingRow
	nextID int
	calls  int
	err    error
}

func newMemoryLookup() *memoryLookup {
	return &memoryLookup{rows: make(map[string][]ExistingRow)}
}

func lookupKey(ownerID string, amount decimal.Decimal, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", ownerID, amount.StringFixed(models.AmountPrecision), date.Format("2006-01-02"))
}

func (m *memoryLookup) fn() LookupFunc {
	return func(_ context.Context, ownerID string, amount decimal.Decimal, date time.Time) ([]ExistingRow, error) {
		m.calls++
		if m.err != nil {
			return nil, m.err
		}
		return m.rows[lookupKey(ownerID, amount, date)], nil
	}
}

func (m *memoryLookup) insert(row Row) {
	m.nextID++
	key := lookupKey(row.OwnerID, row.Amount, row.Date)
	m.rows[key] = append(m.rows[key], ExistingRow{
		ID:          fmt.Sprintf("row-%d", m.nextID),
		Supplier:    row.Supplier,
		Description: row.Description,
	})
}

func checkRow(supplier, description string, amount float64) Row {
	return Row{
		OwnerID:     "U1",
		Supplier:    supplier,
		Description: description,
		Amount:      decimal.NewFromFloat(amount),
		Date:        time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheckBatch_ExactDuplicate(t *testing.T) {
	lookup := newMemoryLookup()
	lookup.insert(checkRow("ACME", "PAGAMENTO REF 99", 50.00))

	checker := NewChecker(DefaultConfig(), lookup.fn(), nil)

	result, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("ACME", "PAGAMENTO REF 99", 50.00),
	})
	require.NoError(t, err)
	require.Len(t, result.Verdicts, 1)

	verdict := result.Verdicts[0]
	assert.True(t, verdict.IsDuplicate)
	assert.Equal(t, 1.0, verdict.Similarity)
	assert.Equal(t, "supplier_and_description", verdict.Reason)
	assert.Equal(t, "row-1", verdict.MatchedID)
	assert.Empty(t, result.NewRows)
}

func TestCheckBatch_SimilarDescriptionSameSupplier(t *testing.T) {
	lookup := newMemoryLookup()
	// 5 shared tokens over a 6-token union: Jaccard = 5/6 > 0.8.
	lookup.insert(checkRow("ACME", "PAGAMENTO NOTA FISCAL SERVICO 99", 50.00))

	checker := NewChecker(DefaultConfig(), lookup.fn(), nil)

	result, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("ACME", "PAGAMENTO NOTA FISCAL SERVICO 99 MARCO", 50.00),
	})
	require.NoError(t, err)
	require.Len(t, result.Duplicates, 1)

	verdict := result.Duplicates[0]
	assert.Equal(t, "supplier_and_similar_description", verdict.Reason)
	assert.Greater(t, verdict.Similarity, 0.8)
	assert.Less(t, verdict.Similarity, 1.0)
}

func TestCheckBatch_SimilarityAtThresholdIsNew(t *testing.T) {
	lookup := newMemoryLookup()
	// 4 shared tokens over a 5-token union: Jaccard is exactly 0.8, and
	// the threshold is strict.
	lookup.insert(checkRow("ACME", "PAG NF 99 MARCO", 50.00))

	checker := NewChecker(DefaultConfig(), lookup.fn(), nil)

	result, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("ACME", "PAG NF 99 MARCO EXTRA", 50.00),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Duplicates)
	assert.Len(t, result.NewRows, 1)
}

func TestCheckBatch_ExactDescriptionDifferentSupplier(t *testing.T) {
	lookup := newMemoryLookup()
	lookup.insert(checkRow("ACME", "MENSALIDADE SISTEMA GESTAO", 120.00))

	checker := NewChecker(DefaultConfig(), lookup.fn(), nil)

	result, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("OUTRA LTDA", "MENSALIDADE SISTEMA GESTAO", 120.00),
	})
	require.NoError(t, err)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, "exact_description", result.Duplicates[0].Reason)
}

func TestCheckBatch_ShortExactDescriptionNeedsSupplier(t *testing.T) {
	lookup := newMemoryLookup()
	lookup.insert(checkRow("ACME", "TARIFA", 8.00))

	checker := NewChecker(DefaultConfig(), lookup.fn(), nil)

	// Same short description from a different supplier: too generic to
	// count as a duplicate on its own.
	result, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("OUTRA LTDA", "TARIFA", 8.00),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Duplicates)
	assert.Len(t, result.NewRows, 1)
}

func TestCheckBatch_DifferentAmountIsNew(t *testing.T) {
	lookup := newMemoryLookup()
	lookup.insert(checkRow("ACME", "PAGAMENTO REF 99", 50.00))

	checker := NewChecker(DefaultConfig(), lookup.fn(), nil)

	result, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("ACME", "PAGAMENTO REF 99", 51.00),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Duplicates)
}

func TestCheckBatch_LookupFailureFailsOpen(t *testing.T) {
	lookup := newMemoryLookup()
	lookup.err = errors.New("storage unavailable")

	checker := NewChecker(DefaultConfig(), lookup.fn(), nil)

	result, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("ACME", "PAGAMENTO REF 99", 50.00),
		checkRow("ACME", "OUTRO PAGAMENTO", 75.00),
	})
	require.NoError(t, err, "a lookup failure must not fail the batch")

	assert.Len(t, result.NewRows, 2)
	assert.Empty(t, result.Duplicates)
	assert.Equal(t, 2, result.LookupFailures)
}

func TestCheckBatch_Disabled(t *testing.T) {
	lookup := newMemoryLookup()
	lookup.insert(checkRow("ACME", "PAGAMENTO REF 99", 50.00))

	config := DefaultConfig()
	config.Enabled = false
	checker := NewChecker(config, lookup.fn(), nil)

	result, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("ACME", "PAGAMENTO REF 99", 50.00),
	})
	require.NoError(t, err)

	assert.Len(t, result.NewRows, 1)
	assert.Zero(t, lookup.calls, "disabled checker must not hit storage")
}

func TestCheckBatch_MissingLookup(t *testing.T) {
	checker := NewChecker(DefaultConfig(), nil, nil)

	_, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("ACME", "PAGAMENTO REF 99", 50.00),
	})
	assert.Error(t, err)
}

func TestCheckBatch_Idempotence(t *testing.T) {
	lookup := newMemoryLookup()
	checker := NewChecker(DefaultConfig(), lookup.fn(), nil)

	batch := []Row{
		checkRow("ACME", "PAGAMENTO NOTA FISCAL 99", 50.00),
		checkRow("OUTRA LTDA", "MENSALIDADE SISTEMA GESTAO", 120.00),
		checkRow("", "TRANSFERENCIA ENTRE CONTAS", 300.00),
	}

	first, err := checker.CheckBatch(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, first.NewRows, len(batch), "empty storage must classify everything as new")

	for _, row := range first.NewRows {
		lookup.insert(row)
	}

	second, err := checker.CheckBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Empty(t, second.NewRows, "re-checking a persisted batch must yield zero new rows")
	assert.Len(t, second.Duplicates, len(batch))
}

func TestCheckBatch_NormalizesBeforeComparing(t *testing.T) {
	lookup := newMemoryLookup()
	lookup.insert(checkRow("ACME", "PAGAMENTO REF 99", 50.00))

	checker := NewChecker(DefaultConfig(), lookup.fn(), nil)

	result, err := checker.CheckBatch(context.Background(), []Row{
		checkRow("  acme ", "pagamento ref 99", 50.00),
	})
	require.NoError(t, err)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, "supplier_and_description", result.Duplicates[0].Reason)
}

func TestCheckBatch_NormalizesLookupArguments(t *testing.T) {
	var gotOwner string
	var gotAmount decimal.Decimal
	var gotDate time.Time

	lookup := func(_ context.Context, ownerID string, amount decimal.Decimal, date time.Time) ([]ExistingRow, error) {
		gotOwner = ownerID
		gotAmount = amount
		gotDate = date
		return nil, nil
	}

	checker := NewChecker(DefaultConfig(), lookup, nil)

	row := Row{
		OwnerID:     "  U1 ",
		Supplier:    "ACME",
		Description: "NOTA FISCAL 12",
		Amount:      decimal.NewFromFloat(50.004),
		Date:        time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC),
	}

	_, err := checker.CheckBatch(context.Background(), []Row{row})
	require.NoError(t, err)

	assert.Equal(t, "U1", gotOwner)
	assert.True(t, gotAmount.Equal(decimal.NewFromFloat(50.00)),
		"amount = %s, want 50.00", gotAmount)
	assert.True(t, gotDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		"date = %s, want the calendar day", gotDate)
}

func TestPayableRowAndPaymentRowAdapters(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	paid := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	payable := &models.Payable{
		OwnerID:     "U1",
		Supplier:    "ACME",
		Description: "NOTA 55",
		Amount:      decimal.NewFromFloat(99.90),
		DueDate:     due,
	}
	payment := &models.Payment{
		OwnerID:     "U1",
		Description: "PAG NOTA 55",
		Amount:      decimal.NewFromFloat(99.90),
		PaymentDate: paid,
	}

	pr := PayableRow(payable)
	assert.Equal(t, "ACME", pr.Supplier)
	assert.True(t, pr.Date.Equal(due))

	mr := PaymentRow(payment)
	assert.Empty(t, mr.Supplier)
	assert.True(t, mr.Date.Equal(paid))
}
