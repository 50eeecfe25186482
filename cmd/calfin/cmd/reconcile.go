package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hoppemairon/calendario-financeiro/cmd/calfin/config"
	"github.com/hoppemairon/calendario-financeiro/internal/reconciler"
	"github.com/hoppemairon/calendario-financeiro/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	payableFile    string
	paymentFile    string
	payableLayout  string
	paymentLayout  string
	outputFormat   string
	outputFile     string
	asOfDate       string
	valueTolerance float64
	dayTolerance   int
	approximate    bool
	includeMatches bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile payables with payment records",
	Long: `Reconcile compares an accounts-payable schedule with payment records
to pair settled rows, list pending payables and stray payments, and
report value and timing differences.

This command requires:
- A payables file (CSV format)
- A payments file (CSV format)

Examples:
  # Basic reconciliation
  calfin reconcile --payables payables.csv --payments payments.csv

  # Portuguese ERP export against a bank extract
  calfin reconcile --payables export.csv --payable-layout contaazul \
    --payments extrato.csv --payment-layout extract

  # Custom output format and tolerances
  calfin reconcile --payables p.csv --payments b.csv \
    --output-format json --output-file report.json \
    --value-tolerance 0.05 --day-tolerance 60

  # Disable approximate matching for strict pairing
  calfin reconcile --payables p.csv --payments b.csv --approximate=false`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&payableFile, "payables", "p", "", "path to the payables CSV file (required)")
	reconcileCmd.Flags().StringVarP(&paymentFile, "payments", "b", "", "path to the payments CSV file (required)")

	// Layout flags
	reconcileCmd.Flags().StringVar(&payableLayout, "payable-layout", "default", "payable file layout: default, contaazul")
	reconcileCmd.Flags().StringVar(&paymentLayout, "payment-layout", "default", "payment file layout: default, extract")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reconcileCmd.Flags().BoolVar(&includeMatches, "include-matches", false, "include matched pairs in the output")

	// Matching configuration flags
	reconcileCmd.Flags().Float64Var(&valueTolerance, "value-tolerance", 0.01, "amount tolerance for approximate matching")
	reconcileCmd.Flags().IntVarP(&dayTolerance, "day-tolerance", "d", 30, "timing difference tolerance in days")
	reconcileCmd.Flags().BoolVar(&approximate, "approximate", true, "enable approximate matching stages")
	reconcileCmd.Flags().StringVar(&asOfDate, "as-of", "", "reference date for overdue detection (YYYY-MM-DD, default: today)")

	reconcileCmd.MarkFlagRequired("payables")
	reconcileCmd.MarkFlagRequired("payments")

	viper.BindPFlag("payables", reconcileCmd.Flags().Lookup("payables"))
	viper.BindPFlag("payments", reconcileCmd.Flags().Lookup("payments"))
	viper.BindPFlag("payable-layout", reconcileCmd.Flags().Lookup("payable-layout"))
	viper.BindPFlag("payment-layout", reconcileCmd.Flags().Lookup("payment-layout"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("include-matches", reconcileCmd.Flags().Lookup("include-matches"))
	viper.BindPFlag("value-tolerance", reconcileCmd.Flags().Lookup("value-tolerance"))
	viper.BindPFlag("day-tolerance", reconcileCmd.Flags().Lookup("day-tolerance"))
	viper.BindPFlag("approximate", reconcileCmd.Flags().Lookup("approximate"))
	viper.BindPFlag("as-of", reconcileCmd.Flags().Lookup("as-of"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Viper values allow overrides from the config file.
	payableFile = viper.GetString("payables")
	paymentFile = viper.GetString("payments")
	payableLayout = viper.GetString("payable-layout")
	paymentLayout = viper.GetString("payment-layout")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	includeMatches = viper.GetBool("include-matches")
	valueTolerance = viper.GetFloat64("value-tolerance")
	dayTolerance = viper.GetInt("day-tolerance")
	approximate = viper.GetBool("approximate")
	asOfDate = viper.GetString("as-of")

	if payableFile == "" {
		return fmt.Errorf("payables file is required")
	}
	if paymentFile == "" {
		return fmt.Errorf("payments file is required")
	}

	if err := validateFileExists(payableFile, "payables file"); err != nil {
		return err
	}
	if err := validateFileExists(paymentFile, "payments file"); err != nil {
		return err
	}

	if _, err := config.PayableLayout(payableLayout); err != nil {
		return err
	}
	if _, err := config.PaymentLayout(paymentLayout); err != nil {
		return err
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format %q, valid formats: console, json, csv", outputFormat)
	}

	if asOfDate != "" {
		if _, err := time.Parse("2006-01-02", asOfDate); err != nil {
			return fmt.Errorf("invalid as-of date format, use YYYY-MM-DD: %w", err)
		}
	}

	if valueTolerance < 0 {
		return fmt.Errorf("value tolerance cannot be negative")
	}
	if dayTolerance < 0 {
		return fmt.Errorf("day tolerance cannot be negative")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Payables: %s (%s layout)\n", payableFile, payableLayout)
		fmt.Fprintf(os.Stderr, "Payments: %s (%s layout)\n", paymentFile, paymentLayout)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	payableConfig, err := config.PayableLayout(payableLayout)
	if err != nil {
		return err
	}
	paymentConfig, err := config.PaymentLayout(paymentLayout)
	if err != nil {
		return err
	}

	var asOf time.Time
	if asOfDate != "" {
		asOf, _ = time.Parse("2006-01-02", asOfDate)
	}

	matchingConfig := config.CreateMatchingConfig(valueTolerance, dayTolerance, approximate)
	serviceConfig := config.CreateServiceConfig(matchingConfig, asOf)

	service, err := reconciler.NewService(serviceConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation service: %w", err)
	}

	result, err := service.ProcessFiles(ctx, &reconciler.Request{
		PayableFile:   payableFile,
		PaymentFile:   paymentFile,
		PayableConfig: payableConfig,
		PaymentConfig: paymentConfig,
	})
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	reportConfig, err := config.CreateReportConfig(outputFormat, includeMatches)
	if err != nil {
		return err
	}
	generator, err := reporter.NewSafeReportGenerator(reportConfig, nil)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	if outputFile != "" {
		if err := generator.WriteReportToFile(result, outputFile); err != nil {
			return err
		}
	} else {
		if err := generator.GenerateReportSafely(result, os.Stdout); err != nil {
			return err
		}
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReconciliation completed.\n")
		fmt.Fprintf(os.Stderr, "Processed %d payables and %d payments.\n",
			result.Summary.TotalPayables, result.Summary.TotalPayments)
		fmt.Fprintf(os.Stderr, "Found %d matches, %d pending payables, %d unmatched payments.\n",
			result.Summary.MatchedPairs, result.Summary.UnmatchedPayables, result.Summary.UnmatchedPayments)
		if result.Summary.OverduePayables > 0 {
			fmt.Fprintf(os.Stderr, "Overdue payables: %d\n", result.Summary.OverduePayables)
		}
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Summary.ProcessingDuration)
	}

	return nil
}
