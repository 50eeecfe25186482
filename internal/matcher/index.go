package matcher

import (
	"github.com/hoppemairon/calendario-financeiro/internal/models"
)

// paymentEntry is a payment held in the pool together with its precomputed
// keys and consumption state.
type paymentEntry struct {
	payment  *models.Payment
	keys     RowKeys
	position int
	consumed bool
}

// PaymentPool holds the payments available for matching, indexed by every key
// the matching stages look up. Entries keep their load order; all lookups
// return candidates in that order, which makes stage results deterministic.
// Once a payment is consumed by a match it disappears from every lookup.
type PaymentPool struct {
	entries []*paymentEntry

	byMovementID   map[string][]*paymentEntry
	byCompositeKey map[string][]*paymentEntry
	byHistoryKey   map[string][]*paymentEntry
	byAmountKey    map[string][]*paymentEntry
}

// NewPaymentPool builds a pool from the given payments, preserving their
// order. minHistoryLength controls which history memos produce a history key.
func NewPaymentPool(payments []*models.Payment, minHistoryLength int) *PaymentPool {
	pool := &PaymentPool{
		entries:        make([]*paymentEntry, 0, len(payments)),
		byMovementID:   make(map[string][]*paymentEntry),
		byCompositeKey: make(map[string][]*paymentEntry),
		byHistoryKey:   make(map[string][]*paymentEntry),
		byAmountKey:    make(map[string][]*paymentEntry),
	}

	for i, payment := range payments {
		entry := &paymentEntry{
			payment:  payment,
			keys:     BuildPaymentKeys(payment, minHistoryLength),
			position: i,
		}
		pool.entries = append(pool.entries, entry)

		if entry.keys.MovementID != "" {
			pool.byMovementID[entry.keys.MovementID] = append(pool.byMovementID[entry.keys.MovementID], entry)
		}
		if entry.keys.HasCompositeKey() {
			pool.byCompositeKey[entry.keys.CompositeKey] = append(pool.byCompositeKey[entry.keys.CompositeKey], entry)
		}
		if entry.keys.HasHistoryKey() {
			pool.byHistoryKey[entry.keys.HistoryKey] = append(pool.byHistoryKey[entry.keys.HistoryKey], entry)
		}
		pool.byAmountKey[entry.keys.AmountKey] = append(pool.byAmountKey[entry.keys.AmountKey], entry)
	}

	return pool
}

// TakeByMovementID consumes and returns the first unconsumed payment with the
// given movement ID, or nil when none remains.
func (pp *PaymentPool) TakeByMovementID(movementID string) *paymentEntry {
	if movementID == "" {
		return nil
	}
	return takeFirst(pp.byMovementID[movementID])
}

// TakeByCompositeKey consumes and returns the first unconsumed payment with
// the given composite key.
func (pp *PaymentPool) TakeByCompositeKey(key string) *paymentEntry {
	if key == "" {
		return nil
	}
	return takeFirst(pp.byCompositeKey[key])
}

// TakeByHistoryKey consumes and returns the first unconsumed payment with the
// given history key.
func (pp *PaymentPool) TakeByHistoryKey(key string) *paymentEntry {
	if key == "" {
		return nil
	}
	return takeFirst(pp.byHistoryKey[key])
}

// TakeByAmount consumes and returns the first unconsumed payment with the
// given exact amount key that satisfies accept. Candidates are tried in load
// order.
func (pp *PaymentPool) TakeByAmount(amountKey string, accept func(*paymentEntry) bool) *paymentEntry {
	for _, entry := range pp.byAmountKey[amountKey] {
		if entry.consumed {
			continue
		}
		if accept == nil || accept(entry) {
			entry.consumed = true
			return entry
		}
	}
	return nil
}

// TakeFirst consumes and returns the first unconsumed payment, in load order,
// that satisfies accept. This is the fallback scan used by the approximate
// value stage, which cannot be served by an exact index.
func (pp *PaymentPool) TakeFirst(accept func(*paymentEntry) bool) *paymentEntry {
	for _, entry := range pp.entries {
		if entry.consumed {
			continue
		}
		if accept(entry) {
			entry.consumed = true
			return entry
		}
	}
	return nil
}

// Remaining returns the unconsumed payments in load order.
func (pp *PaymentPool) Remaining() []*models.Payment {
	remaining := make([]*models.Payment, 0)
	for _, entry := range pp.entries {
		if !entry.consumed {
			remaining = append(remaining, entry.payment)
		}
	}
	return remaining
}

// Size returns the total number of payments loaded into the pool.
func (pp *PaymentPool) Size() int {
	return len(pp.entries)
}

// ConsumedCount returns the number of payments claimed by matches so far.
func (pp *PaymentPool) ConsumedCount() int {
	count := 0
	for _, entry := range pp.entries {
		if entry.consumed {
			count++
		}
	}
	return count
}

func takeFirst(candidates []*paymentEntry) *paymentEntry {
	for _, entry := range candidates {
		if !entry.consumed {
			entry.consumed = true
			return entry
		}
	}
	return nil
}
