package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPayable_Validate(t *testing.T) {
	valid := Payable{
		OwnerID:     "owner-1",
		Amount:      decimal.NewFromFloat(1500.00),
		DueDate:     time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Description: "ALUGUEL JANEIRO",
	}

	tests := []struct {
		name    string
		mutate  func(p *Payable)
		wantErr bool
	}{
		{"valid payable", func(p *Payable) {}, false},
		{"empty owner", func(p *Payable) { p.OwnerID = "  " }, true},
		{"zero amount", func(p *Payable) { p.Amount = decimal.Zero }, true},
		{"zero due date", func(p *Payable) { p.DueDate = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Payable.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPayment_Validate(t *testing.T) {
	valid := Payment{
		OwnerID:     "owner-1",
		Amount:      decimal.NewFromFloat(1500.00),
		PaymentDate: time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
		Description: "ALUGUEL JANEIRO",
	}

	tests := []struct {
		name    string
		mutate  func(p *Payment)
		wantErr bool
	}{
		{"valid payment", func(p *Payment) {}, false},
		{"empty owner", func(p *Payment) { p.OwnerID = "" }, true},
		{"zero amount", func(p *Payment) { p.Amount = decimal.Zero }, true},
		{"zero payment date", func(p *Payment) { p.PaymentDate = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Payment.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPayable_HasMovementID(t *testing.T) {
	tests := []struct {
		name       string
		movementID string
		want       bool
	}{
		{"present", "MOV-001", true},
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"nan sentinel", "nan", false},
		{"n/a sentinel", "N/A", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Payable{MovementID: tt.movementID}
			if got := p.HasMovementID(); got != tt.want {
				t.Errorf("HasMovementID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"1500.00", "1500.00", false},
		{"R$ 1,500.00", "1500.00", false},
		{"$99.9", "99.90", false},
		{"100.505", "100.51", false},
		{"  250.75  ", "250.75", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.StringFixed(AmountPrecision) != tt.expected {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.StringFixed(AmountPrecision), tt.expected)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2025-01-10", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), false},
		{"10/01/2025", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), false},
		{"2025/01/10", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"not-a-date", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAmountsWithinTolerance(t *testing.T) {
	tolerance := decimal.NewFromFloat(0.01)

	tests := []struct {
		name string
		a    float64
		b    float64
		want bool
	}{
		{"identical", 100.00, 100.00, true},
		{"within tolerance", 100.00, 100.01, true},
		{"outside tolerance", 100.00, 100.02, false},
		{"negative delta within", 100.01, 100.00, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := decimal.NewFromFloat(tt.a)
			b := decimal.NewFromFloat(tt.b)
			if got := AmountsWithinTolerance(a, b, tolerance); got != tt.want {
				t.Errorf("AmountsWithinTolerance(%s, %s) = %v, want %v", a, b, got, tt.want)
			}
		})
	}
}

func TestPayable_MarshalJSON(t *testing.T) {
	p := Payable{
		OwnerID:     "owner-1",
		Company:     "ACME LTDA",
		Amount:      decimal.NewFromFloat(1500.5),
		DueDate:     time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Description: "ALUGUEL JANEIRO",
	}

	data, err := json.Marshal(&p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	s := string(data)
	if !strings.Contains(s, `"amount":"1500.50"`) {
		t.Errorf("expected fixed-precision amount in %s", s)
	}
	if !strings.Contains(s, `"due_date":"2025-01-10"`) {
		t.Errorf("expected calendar date in %s", s)
	}
}
