package parsers

import (
	"context"
	goerrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hoppemairon/calendario-financeiro/pkg/errors"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestPayableParser_ParseFile(t *testing.T) {
	content := `owner_id,amount,due_date,description,supplier,history,movement_id
U1,1500.00,2025-01-05,ALUGUEL JANEIRO,IMOBILIARIA SILVA,PIX ALUGUEL,M1
U1,250.00,2025-01-10,FORNECEDOR X NOTA 123,FORNECEDOR X,nan,
U1,80.50,2025-01-15,TARIFA BANCARIA MENSAL,,,
`
	path := writeTempCSV(t, "payables.csv", content)

	parser, err := NewPayableParser(DefaultPayableParserConfig())
	if err != nil {
		t.Fatalf("NewPayableParser() error = %v", err)
	}

	payables, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if len(payables) != 3 {
		t.Fatalf("expected 3 payables, got %d", len(payables))
	}
	if stats.RecordsValid != 3 || stats.HasErrors() {
		t.Errorf("stats = %s, want 3 valid and no errors", stats)
	}
	if stats.BatchID == "" {
		t.Error("expected a batch ID to be assigned")
	}

	first := payables[0]
	if first.MovementID != "M1" {
		t.Errorf("MovementID = %q, want M1", first.MovementID)
	}
	if first.Amount.StringFixed(2) != "1500.00" {
		t.Errorf("Amount = %s, want 1500.00", first.Amount.StringFixed(2))
	}
	if !first.DueDate.Equal(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DueDate = %v", first.DueDate)
	}
	if first.BatchID != stats.BatchID {
		t.Errorf("row batch ID %q does not match stats batch ID %q", first.BatchID, stats.BatchID)
	}

	// "nan" history must be scrubbed to the absent sentinel.
	if payables[1].History != "" {
		t.Errorf("History = %q, want empty for a nan placeholder", payables[1].History)
	}
}

func TestPayableParser_SkipsMalformedRows(t *testing.T) {
	content := `owner_id,amount,due_date,description
U1,not-a-number,2025-01-05,BROKEN AMOUNT
U1,100.00,not-a-date,BROKEN DATE
U1,100.00,2025-01-05,VALID ROW
`
	path := writeTempCSV(t, "payables.csv", content)

	parser, err := NewPayableParser(DefaultPayableParserConfig())
	if err != nil {
		t.Fatalf("NewPayableParser() error = %v", err)
	}

	payables, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if len(payables) != 1 {
		t.Fatalf("expected 1 valid payable, got %d", len(payables))
	}
	if payables[0].Description != "VALID ROW" {
		t.Errorf("Description = %q, want VALID ROW", payables[0].Description)
	}
	if stats.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", stats.ErrorCount)
	}
}

func TestPayableParser_MissingRequiredHeader(t *testing.T) {
	content := `owner_id,amount,description
U1,100.00,NO DUE DATE COLUMN
`
	path := writeTempCSV(t, "payables.csv", content)

	parser, err := NewPayableParser(DefaultPayableParserConfig())
	if err != nil {
		t.Fatalf("NewPayableParser() error = %v", err)
	}

	_, _, err = parser.ParseFile(context.Background(), path)
	if err == nil {
		t.Fatal("expected an error for a missing required header")
	}

	var parseErr *errors.EnhancedParseError
	if !goerrors.As(err, &parseErr) {
		t.Fatalf("expected an EnhancedParseError, got %T", err)
	}
	if !strings.Contains(parseErr.Message, "due_date") {
		t.Errorf("error message %q does not name the missing column", parseErr.Message)
	}
	if parseErr.Recoverable {
		t.Error("a missing column should not be marked recoverable")
	}
}

func TestPayableParser_EmptyOwnerSkipped(t *testing.T) {
	content := `owner_id,amount,due_date,description
,100.00,2025-01-05,NO OWNER
U2,150.00,2025-01-06,HAS OWNER
`
	path := writeTempCSV(t, "payables.csv", content)

	parser, err := NewPayableParser(DefaultPayableParserConfig())
	if err != nil {
		t.Fatalf("NewPayableParser() error = %v", err)
	}

	payables, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if len(payables) != 1 {
		t.Fatalf("expected 1 valid payable, got %d", len(payables))
	}
	if payables[0].OwnerID != "U2" {
		t.Errorf("OwnerID = %q, want U2", payables[0].OwnerID)
	}
	if stats.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", stats.ErrorCount)
	}
}

func TestPayableParser_FileNotFound(t *testing.T) {
	parser, err := NewPayableParser(DefaultPayableParserConfig())
	if err != nil {
		t.Fatalf("NewPayableParser() error = %v", err)
	}

	if _, _, err := parser.ParseFile(context.Background(), "/nonexistent/payables.csv"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestPaymentParser_ParseFile(t *testing.T) {
	content := `owner_id,amount,payment_date,description,history
U1,1500.00,2025-01-05,PAG ALUGUEL,PIX ALUGUEL
U1,"R$ 2,500.00",2025-01-07,FOLHA PAGAMENTO,
`
	path := writeTempCSV(t, "payments.csv", content)

	parser, err := NewPaymentParser(DefaultPaymentParserConfig())
	if err != nil {
		t.Fatalf("NewPaymentParser() error = %v", err)
	}

	payments, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if len(payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(payments))
	}
	if stats.RecordsValid != 2 {
		t.Errorf("RecordsValid = %d, want 2", stats.RecordsValid)
	}

	// Currency symbols and thousand separators are stripped on parse.
	if payments[1].Amount.StringFixed(2) != "2500.00" {
		t.Errorf("Amount = %s, want 2500.00", payments[1].Amount.StringFixed(2))
	}
}

func TestPaymentParser_PreservesRowOrder(t *testing.T) {
	content := `owner_id,amount,payment_date,description
U1,10.00,2025-01-01,THIRD
U1,20.00,2025-01-02,FIRST
U1,30.00,2025-01-03,SECOND
`
	path := writeTempCSV(t, "payments.csv", content)

	parser, err := NewPaymentParser(DefaultPaymentParserConfig())
	if err != nil {
		t.Fatalf("NewPaymentParser() error = %v", err)
	}

	payments, _, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	want := []string{"THIRD", "FIRST", "SECOND"}
	for i, description := range want {
		if payments[i].Description != description {
			t.Errorf("payments[%d] = %q, want %q (file order must be preserved)", i, payments[i].Description, description)
		}
	}
}

func TestPaymentParser_PortugueseLayout(t *testing.T) {
	content := `empresa_id;valor;data_pagamento;descricao;historico;categoria;id_movimento;conta
U1;99.90;10/01/2025;MENSALIDADE SISTEMA;DEB AUTO;SOFTWARE;MOV-77;CONTA CORRENTE
`
	path := writeTempCSV(t, "extrato.csv", content)

	parser, err := NewPaymentParser(BankExtractPaymentConfig)
	if err != nil {
		t.Fatalf("NewPaymentParser() error = %v", err)
	}

	payments, _, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}

	payment := payments[0]
	if payment.MovementID != "MOV-77" {
		t.Errorf("MovementID = %q, want MOV-77", payment.MovementID)
	}
	if !payment.PaymentDate.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("PaymentDate = %v, want 2025-01-10", payment.PaymentDate)
	}
	if payment.Account != "CONTA CORRENTE" {
		t.Errorf("Account = %q", payment.Account)
	}
}

func TestParserConfigValidation(t *testing.T) {
	payableConfig := DefaultPayableParserConfig()
	payableConfig.AmountColumn = ""
	if _, err := NewPayableParser(payableConfig); err == nil {
		t.Error("expected an error for a payable config without an amount column")
	}

	paymentConfig := DefaultPaymentParserConfig()
	paymentConfig.PaymentDateColumn = " "
	if _, err := NewPaymentParser(paymentConfig); err == nil {
		t.Error("expected an error for a payment config without a date column")
	}
}

func TestParseFile_BatchIDsDifferPerRun(t *testing.T) {
	content := `owner_id,amount,due_date,description
U1,100.00,2025-01-05,CONTA
`
	path := writeTempCSV(t, "payables.csv", content)

	parser, err := NewPayableParser(DefaultPayableParserConfig())
	if err != nil {
		t.Fatalf("NewPayableParser() error = %v", err)
	}

	_, first, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	_, second, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if first.BatchID == second.BatchID {
		t.Error("expected each parse run to get its own batch ID")
	}
}
