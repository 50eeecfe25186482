// Package config builds component configurations from CLI inputs.
package config

import (
	"fmt"
	"time"

	"github.com/hoppemairon/calendario-financeiro/internal/matcher"
	"github.com/hoppemairon/calendario-financeiro/internal/parsers"
	"github.com/hoppemairon/calendario-financeiro/internal/reconciler"
	"github.com/hoppemairon/calendario-financeiro/internal/reporter"

	"github.com/shopspring/decimal"
)

// PayableLayout resolves a layout name accepted by the CLI to a parser
// configuration.
func PayableLayout(name string) (*parsers.PayableParserConfig, error) {
	switch name {
	case "", "default":
		return parsers.DefaultPayableParserConfig(), nil
	case "contaazul":
		return parsers.ContaAzulPayableConfig, nil
	default:
		return nil, fmt.Errorf("unknown payable layout %q, valid layouts: default, contaazul", name)
	}
}

// PaymentLayout resolves a layout name accepted by the CLI to a parser
// configuration.
func PaymentLayout(name string) (*parsers.PaymentParserConfig, error) {
	switch name {
	case "", "default":
		return parsers.DefaultPaymentParserConfig(), nil
	case "extract":
		return parsers.BankExtractPaymentConfig, nil
	default:
		return nil, fmt.Errorf("unknown payment layout %q, valid layouts: default, extract", name)
	}
}

// CreateMatchingConfig builds an engine configuration from CLI
// tolerances.
func CreateMatchingConfig(valueTolerance float64, dayTolerance int, approximate bool) *matcher.Config {
	config := matcher.DefaultConfig()
	config.ValueTolerance = decimal.NewFromFloat(valueTolerance)
	config.DayTolerance = dayTolerance
	config.EnableApproximate = approximate
	return config
}

// CreateServiceConfig builds a reconciliation service configuration.
// asOf may be zero for "now".
func CreateServiceConfig(matching *matcher.Config, asOf time.Time) *reconciler.Config {
	config := reconciler.DefaultConfig()
	config.Matching = matching
	config.AsOf = asOf
	return config
}

// CreateReportConfig builds a report configuration for the given
// output format.
func CreateReportConfig(format string, includeMatches bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.IncludeMatches = includeMatches

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
	default:
		return nil, fmt.Errorf("unsupported output format %q, valid formats: console, json, csv", format)
	}
	return config, nil
}
