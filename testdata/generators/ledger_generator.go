// Command ledger_generator produces paired payable and payment CSV
// fixtures with a known match profile, for exercising the reconcile
// command against data of arbitrary size.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerGenerator generates paired payable and payment fixtures.
type LedgerGenerator struct {
	Count     int
	StartDate time.Time
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	MatchRate float64
	DupRate   float64
	rng       *rand.Rand
}

type payableRow struct {
	OwnerID     string
	Amount      decimal.Decimal
	DueDate     time.Time
	Description string
	Supplier    string
	History     string
	MovementID  string
}

type paymentRow struct {
	OwnerID     string
	Amount      decimal.Decimal
	PaymentDate time.Time
	Description string
	History     string
	MovementID  string
	Account     string
}

var suppliers = []string{
	"IMOBILIARIA CENTRAL", "ENERGISA", "SABESP", "VIVO EMPRESAS",
	"CONDOMINIO EDIFICIO AURORA", "PAPELARIA DUQUE", "TRANSPORTADORA RAPIDO",
}

var descriptions = []string{
	"ALUGUEL", "ENERGIA ELETRICA", "AGUA E ESGOTO", "TELEFONIA MOVEL",
	"CONDOMINIO", "MATERIAL DE ESCRITORIO", "FRETE MERCADORIA",
}

func main() {
	var (
		payableOut = flag.String("payables", "generated_payables.csv", "payables output path")
		paymentOut = flag.String("payments", "generated_payments.csv", "payments output path")
		count      = flag.Int("count", 1000, "number of payables to generate")
		startDate  = flag.String("start-date", "2025-01-01", "first due date (YYYY-MM-DD)")
		minAmount  = flag.Float64("min-amount", 10.00, "minimum amount")
		maxAmount  = flag.Float64("max-amount", 20000.00, "maximum amount")
		matchRate  = flag.Float64("match-rate", 0.8, "fraction of payables that get a payment")
		dupRate    = flag.Float64("dup-rate", 0.02, "fraction of payables duplicated in the batch")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	if *matchRate < 0 || *matchRate > 1 {
		log.Fatalf("match-rate must be in [0, 1]")
	}

	generator := &LedgerGenerator{
		Count:     *count,
		StartDate: start,
		MinAmount: decimal.NewFromFloat(*minAmount),
		MaxAmount: decimal.NewFromFloat(*maxAmount),
		MatchRate: *matchRate,
		DupRate:   *dupRate,
		rng:       rand.New(rand.NewSource(*seed)),
	}

	payables, payments := generator.Generate()

	if err := writePayables(*payableOut, payables); err != nil {
		log.Fatalf("Writing payables: %v", err)
	}
	if err := writePayments(*paymentOut, payments); err != nil {
		log.Fatalf("Writing payments: %v", err)
	}

	fmt.Printf("Generated %d payables (%s) and %d payments (%s)\n",
		len(payables), *payableOut, len(payments), *paymentOut)
}

// Generate builds the payable batch and its partially-matching payment
// batch. Matched payments are split across the stages the engine
// recognizes: movement IDs, exact composite keys, history memos and
// approximate variants.
func (g *LedgerGenerator) Generate() ([]payableRow, []paymentRow) {
	payables := make([]payableRow, 0, g.Count)
	payments := make([]paymentRow, 0, g.Count)

	for i := 0; i < g.Count; i++ {
		amount := g.randomAmount()
		due := g.StartDate.AddDate(0, 0, g.rng.Intn(90))
		desc := fmt.Sprintf("%s %06d", descriptions[g.rng.Intn(len(descriptions))], i)

		p := payableRow{
			OwnerID:     "owner-1",
			Amount:      amount,
			DueDate:     due,
			Description: desc,
			Supplier:    suppliers[g.rng.Intn(len(suppliers))],
		}

		variant := g.rng.Intn(4)
		switch variant {
		case 0:
			p.MovementID = fmt.Sprintf("MOV-%06d", i)
		case 1:
			// composite key only
		case 2:
			p.History = fmt.Sprintf("DOC %06d TRANSFERENCIA", i)
		case 3:
			// approximate candidates
		}

		payables = append(payables, p)

		if g.rng.Float64() < g.DupRate {
			payables = append(payables, p)
		}

		if g.rng.Float64() >= g.MatchRate {
			continue
		}

		paid := due.AddDate(0, 0, g.rng.Intn(10)-2)
		payment := paymentRow{
			OwnerID:     p.OwnerID,
			Amount:      amount,
			PaymentDate: paid,
			Description: desc,
			History:     p.History,
			MovementID:  p.MovementID,
			Account:     "CONTA CORRENTE",
		}

		switch variant {
		case 0:
			// movement ID carries the match, scramble the description
			payment.Description = fmt.Sprintf("PAGTO %06d", i)
		case 2:
			// history carries the match
			payment.Description = fmt.Sprintf("LANCAMENTO %06d", i)
		case 3:
			if g.rng.Intn(2) == 0 {
				// same amount, truncated description
				payment.Description = desc[:len(desc)-3]
			} else {
				// same description, amount off by a cent
				payment.Amount = amount.Add(decimal.NewFromFloat(0.01))
			}
		}

		payments = append(payments, payment)
	}

	// Stray payments with no payable counterpart.
	strays := g.Count / 20
	for i := 0; i < strays; i++ {
		payments = append(payments, paymentRow{
			OwnerID:     "owner-1",
			Amount:      g.randomAmount(),
			PaymentDate: g.StartDate.AddDate(0, 0, g.rng.Intn(90)),
			Description: fmt.Sprintf("TARIFA AVULSA %04d", i),
			Account:     "CONTA CORRENTE",
		})
	}

	return payables, payments
}

func (g *LedgerGenerator) randomAmount() decimal.Decimal {
	span := g.MaxAmount.Sub(g.MinAmount).InexactFloat64()
	return g.MinAmount.Add(decimal.NewFromFloat(g.rng.Float64() * span)).Round(2)
}

func writePayables(path string, rows []payableRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"owner_id", "amount", "due_date", "description", "supplier", "history", "movement_id"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.OwnerID,
			r.Amount.StringFixed(2),
			r.DueDate.Format("2006-01-02"),
			r.Description,
			r.Supplier,
			r.History,
			r.MovementID,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writePayments(path string, rows []paymentRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"owner_id", "amount", "payment_date", "description", "history", "movement_id", "account"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.OwnerID,
			r.Amount.StringFixed(2),
			r.PaymentDate.Format("2006-01-02"),
			r.Description,
			r.History,
			r.MovementID,
			r.Account,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
