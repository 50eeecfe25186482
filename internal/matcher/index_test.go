package matcher

import (
	"testing"

	"github.com/hoppemairon/calendario-financeiro/internal/models"

	"github.com/shopspring/decimal"
)

func poolPayment(movementID, description string, amount float64) *models.Payment {
	return &models.Payment{
		OwnerID:     "owner-1",
		MovementID:  movementID,
		Description: description,
		Amount:      decimal.NewFromFloat(amount),
	}
}

func TestPaymentPool_TakeByMovementID(t *testing.T) {
	payments := []*models.Payment{
		poolPayment("M1", "FIRST", 10),
		poolPayment("M1", "SECOND", 10),
		poolPayment("M2", "THIRD", 20),
	}
	pool := NewPaymentPool(payments, 4)

	first := pool.TakeByMovementID("M1")
	if first == nil || first.payment.Description != "FIRST" {
		t.Fatalf("expected first M1 payment, got %+v", first)
	}

	second := pool.TakeByMovementID("M1")
	if second == nil || second.payment.Description != "SECOND" {
		t.Fatalf("expected second M1 payment, got %+v", second)
	}

	if pool.TakeByMovementID("M1") != nil {
		t.Error("expected M1 candidates to be exhausted")
	}

	if pool.TakeByMovementID("") != nil {
		t.Error("empty movement ID must never match")
	}
}

func TestPaymentPool_ConsumedEntriesInvisibleToAllLookups(t *testing.T) {
	payments := []*models.Payment{
		poolPayment("M1", "ALUGUEL JANEIRO", 1500),
	}
	pool := NewPaymentPool(payments, 4)

	if pool.TakeByMovementID("M1") == nil {
		t.Fatal("expected movement ID match")
	}

	if pool.TakeByCompositeKey("ALUGUEL JANEIRO_1500.00") != nil {
		t.Error("consumed payment must not match by composite key")
	}
	if pool.TakeByAmount("1500.00", nil) != nil {
		t.Error("consumed payment must not match by amount")
	}
	if got := pool.TakeFirst(func(*paymentEntry) bool { return true }); got != nil {
		t.Error("consumed payment must not match a pool scan")
	}
}

func TestPaymentPool_TakeFirstPreservesLoadOrder(t *testing.T) {
	payments := []*models.Payment{
		poolPayment("", "AAA AAA", 10),
		poolPayment("", "BBB BBB", 10),
		poolPayment("", "CCC CCC", 10),
	}
	pool := NewPaymentPool(payments, 4)

	got := pool.TakeFirst(func(entry *paymentEntry) bool {
		return entry.payment.Amount.Equal(decimal.NewFromInt(10))
	})
	if got == nil || got.payment.Description != "AAA AAA" {
		t.Fatalf("expected the earliest loaded payment, got %+v", got)
	}
}

func TestPaymentPool_Remaining(t *testing.T) {
	payments := []*models.Payment{
		poolPayment("M1", "FIRST", 10),
		poolPayment("M2", "SECOND", 20),
	}
	pool := NewPaymentPool(payments, 4)

	pool.TakeByMovementID("M2")

	remaining := pool.Remaining()
	if len(remaining) != 1 || remaining[0].Description != "FIRST" {
		t.Errorf("Remaining() = %v, want the unconsumed first payment", remaining)
	}

	if pool.Size() != 2 {
		t.Errorf("Size() = %d, want 2", pool.Size())
	}
	if pool.ConsumedCount() != 1 {
		t.Errorf("ConsumedCount() = %d, want 1", pool.ConsumedCount())
	}
}
