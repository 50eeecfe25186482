package parsers

import (
	"fmt"
	"strings"
)

// PayableParserConfig holds the column mapping for payable exports.
// Mandatory columns must exist in the file; optional columns may be mapped
// to an empty name when the export lacks them.
type PayableParserConfig struct {
	OwnerColumn       string            `json:"owner_column"`
	AmountColumn      string            `json:"amount_column"`
	DueDateColumn     string            `json:"due_date_column"`
	DescriptionColumn string            `json:"description_column"`
	SupplierColumn    string            `json:"supplier_column,omitempty"`
	HistoryColumn     string            `json:"history_column,omitempty"`
	CategoryColumn    string            `json:"category_column,omitempty"`
	MovementIDColumn  string            `json:"movement_id_column,omitempty"`
	CompanyColumn     string            `json:"company_column,omitempty"`
	HasHeader         bool              `json:"has_header"`
	Delimiter         rune              `json:"delimiter"`
	ColumnAliases     map[string]string `json:"column_aliases,omitempty"`
}

// Validate checks if the payable parser configuration is valid
func (c *PayableParserConfig) Validate() error {
	if strings.TrimSpace(c.OwnerColumn) == "" {
		return fmt.Errorf("owner column cannot be empty")
	}

	if strings.TrimSpace(c.AmountColumn) == "" {
		return fmt.Errorf("amount column cannot be empty")
	}

	if strings.TrimSpace(c.DueDateColumn) == "" {
		return fmt.Errorf("due date column cannot be empty")
	}

	if strings.TrimSpace(c.DescriptionColumn) == "" {
		return fmt.Errorf("description column cannot be empty")
	}

	return nil
}

// GetColumnName returns the actual column name, checking aliases first
func (c *PayableParserConfig) GetColumnName(standardName string) string {
	if alias, exists := c.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "owner_id":
		return c.OwnerColumn
	case "amount":
		return c.AmountColumn
	case "due_date":
		return c.DueDateColumn
	case "description":
		return c.DescriptionColumn
	case "supplier":
		return c.SupplierColumn
	case "history":
		return c.HistoryColumn
	case "category":
		return c.CategoryColumn
	case "movement_id":
		return c.MovementIDColumn
	case "company":
		return c.CompanyColumn
	default:
		return standardName
	}
}

// DefaultPayableParserConfig returns a configuration with standard defaults
func DefaultPayableParserConfig() *PayableParserConfig {
	return &PayableParserConfig{
		OwnerColumn:       "owner_id",
		AmountColumn:      "amount",
		DueDateColumn:     "due_date",
		DescriptionColumn: "description",
		SupplierColumn:    "supplier",
		HistoryColumn:     "history",
		CategoryColumn:    "category",
		MovementIDColumn:  "movement_id",
		CompanyColumn:     "company",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases:     make(map[string]string),
	}
}

// PaymentParserConfig holds the column mapping for payment exports.
type PaymentParserConfig struct {
	OwnerColumn       string            `json:"owner_column"`
	AmountColumn      string            `json:"amount_column"`
	PaymentDateColumn string            `json:"payment_date_column"`
	DescriptionColumn string            `json:"description_column"`
	HistoryColumn     string            `json:"history_column,omitempty"`
	CategoryColumn    string            `json:"category_column,omitempty"`
	MovementIDColumn  string            `json:"movement_id_column,omitempty"`
	AccountColumn     string            `json:"account_column,omitempty"`
	HasHeader         bool              `json:"has_header"`
	Delimiter         rune              `json:"delimiter"`
	ColumnAliases     map[string]string `json:"column_aliases,omitempty"`
}

// Validate checks if the payment parser configuration is valid
func (c *PaymentParserConfig) Validate() error {
	if strings.TrimSpace(c.OwnerColumn) == "" {
		return fmt.Errorf("owner column cannot be empty")
	}

	if strings.TrimSpace(c.AmountColumn) == "" {
		return fmt.Errorf("amount column cannot be empty")
	}

	if strings.TrimSpace(c.PaymentDateColumn) == "" {
		return fmt.Errorf("payment date column cannot be empty")
	}

	if strings.TrimSpace(c.DescriptionColumn) == "" {
		return fmt.Errorf("description column cannot be empty")
	}

	return nil
}

// GetColumnName returns the actual column name, checking aliases first
func (c *PaymentParserConfig) GetColumnName(standardName string) string {
	if alias, exists := c.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "owner_id":
		return c.OwnerColumn
	case "amount":
		return c.AmountColumn
	case "payment_date":
		return c.PaymentDateColumn
	case "description":
		return c.DescriptionColumn
	case "history":
		return c.HistoryColumn
	case "category":
		return c.CategoryColumn
	case "movement_id":
		return c.MovementIDColumn
	case "account":
		return c.AccountColumn
	default:
		return standardName
	}
}

// DefaultPaymentParserConfig returns a configuration with standard defaults
func DefaultPaymentParserConfig() *PaymentParserConfig {
	return &PaymentParserConfig{
		OwnerColumn:       "owner_id",
		AmountColumn:      "amount",
		PaymentDateColumn: "payment_date",
		DescriptionColumn: "description",
		HistoryColumn:     "history",
		CategoryColumn:    "category",
		MovementIDColumn:  "movement_id",
		AccountColumn:     "account",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases:     make(map[string]string),
	}
}

// Predefined configurations for the export layouts we see in practice.
var (
	// ContaAzulPayableConfig matches the ERP export with Portuguese headers.
	ContaAzulPayableConfig = &PayableParserConfig{
		OwnerColumn:       "empresa_id",
		AmountColumn:      "valor",
		DueDateColumn:     "data_vencimento",
		DescriptionColumn: "descricao",
		SupplierColumn:    "fornecedor",
		HistoryColumn:     "historico",
		CategoryColumn:    "categoria",
		MovementIDColumn:  "id_movimento",
		CompanyColumn:     "empresa",
		HasHeader:         true,
		Delimiter:         ',',
	}

	// BankExtractPaymentConfig matches the bank extract layout with
	// Portuguese headers and semicolon delimiters.
	BankExtractPaymentConfig = &PaymentParserConfig{
		OwnerColumn:       "empresa_id",
		AmountColumn:      "valor",
		PaymentDateColumn: "data_pagamento",
		DescriptionColumn: "descricao",
		HistoryColumn:     "historico",
		CategoryColumn:    "categoria",
		MovementIDColumn:  "id_movimento",
		AccountColumn:     "conta",
		HasHeader:         true,
		Delimiter:         ';',
	}
)
