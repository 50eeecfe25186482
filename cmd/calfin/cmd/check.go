package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/hoppemairon/calendario-financeiro/cmd/calfin/config"
	"github.com/hoppemairon/calendario-financeiro/internal/dedup"
	"github.com/hoppemairon/calendario-financeiro/internal/parsers"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	checkFile      string
	checkLayout    string
	checkThreshold float64
)

// checkCmd screens a payables file for rows that duplicate each other.
var checkCmd = &cobra.Command{
	Use:   "check-duplicates",
	Short: "Screen a payables file for duplicated rows",
	Long: `Check-duplicates parses a payables file and groups rows that share
the same owner, amount and due date with identical or highly similar
descriptions. Use it before importing a batch to catch double entries.

Examples:
  calfin check-duplicates --payables payables.csv
  calfin check-duplicates --payables export.csv --layout contaazul --threshold 0.9`,

	PreRunE: validateCheckFlags,
	RunE:    runCheckDuplicates,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkFile, "payables", "p", "", "path to the payables CSV file (required)")
	checkCmd.Flags().StringVar(&checkLayout, "layout", "default", "payable file layout: default, contaazul")
	checkCmd.Flags().Float64VarP(&checkThreshold, "threshold", "t", 0.8, "description similarity threshold (0-1)")

	checkCmd.MarkFlagRequired("payables")
}

func validateCheckFlags(cmd *cobra.Command, args []string) error {
	if checkFile == "" {
		return fmt.Errorf("payables file is required")
	}
	if err := validateFileExists(checkFile, "payables file"); err != nil {
		return err
	}
	if _, err := config.PayableLayout(checkLayout); err != nil {
		return err
	}
	if checkThreshold < 0 || checkThreshold > 1 {
		return fmt.Errorf("threshold must be in [0, 1]")
	}
	return nil
}

func runCheckDuplicates(cmd *cobra.Command, args []string) error {
	layout, err := config.PayableLayout(checkLayout)
	if err != nil {
		return err
	}

	parser, err := parsers.NewPayableParser(layout)
	if err != nil {
		return fmt.Errorf("failed to create payable parser: %w", err)
	}

	payables, stats, err := parser.ParseFile(context.Background(), checkFile)
	if err != nil {
		return fmt.Errorf("failed to parse payables from %s: %w", checkFile, err)
	}

	checkerConfig := dedup.DefaultConfig()
	checkerConfig.SimilarityThreshold = checkThreshold
	checker := dedup.NewChecker(checkerConfig, nil, nil)

	groups := checker.FindBatchDuplicates(dedup.PayableRows(payables))

	fmt.Printf("Checked %d rows from %s (batch %s)\n", len(payables), checkFile, stats.BatchID)
	if stats.ErrorCount > 0 {
		fmt.Printf("Skipped %d malformed rows\n", stats.ErrorCount)
	}

	if len(groups) == 0 {
		fmt.Println("No duplicate rows found.")
		return nil
	}

	fmt.Printf("Found %d duplicate groups:\n\n", len(groups))
	for _, group := range groups {
		fmt.Printf("Group %s (%s, similarity %.2f):\n", group.GroupID, group.Reason, group.Similarity)
		for _, row := range group.Rows {
			fmt.Printf("  %-40s %10s  %s\n",
				row.Description, row.Amount.StringFixed(2), row.Date.Format("2006-01-02"))
		}
		fmt.Println()
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Duplicate screening completed for %s\n", checkFile)
	}

	return nil
}
