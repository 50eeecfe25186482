package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hoppemairon/calendario-financeiro/internal/reconciler"
	"github.com/hoppemairon/calendario-financeiro/pkg/errors"
	"github.com/hoppemairon/calendario-financeiro/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with logging and fallback
// handling so a rendering failure never loses the run result entirely.
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a report generator with error handling.
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the report configuration values")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely renders the result, falling back to console
// format when the configured format fails.
func (srg *SafeReportGenerator) GenerateReportSafely(result *reconciler.RunResult, writer io.Writer) error {
	if result == nil {
		return errors.ValidationError(errors.CodeMissingField, "result", nil, nil).
			WithSuggestion("Provide a reconciliation run result")
	}
	if writer == nil {
		return errors.ValidationError(errors.CodeMissingField, "writer", nil, nil).
			WithSuggestion("Provide an output writer")
	}

	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"run_id": result.RunID,
	}).Info("Starting report generation")

	err := srg.GenerateReport(result, writer)
	if err == nil {
		srg.logger.Info("Report generation completed")
		return nil
	}

	if srg.config.Format == FormatConsole {
		return srg.wrapGenerationError(err)
	}

	srg.logger.WithError(err).Warn("Report generation failed, falling back to console format")

	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole
	fallback, fbErr := NewReportGenerator(&fallbackConfig)
	if fbErr != nil {
		return srg.wrapGenerationError(err)
	}

	fmt.Fprintf(writer, "NOTE: report rendered in fallback format, requested format failed: %v\n\n", err)

	if fbErr := fallback.GenerateReport(result, writer); fbErr != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", err, fbErr),
		)
	}

	srg.logger.Info("Report generated using console fallback")
	return nil
}

// WriteReportToFile renders the result to the given path. When the
// path cannot be written, a sibling backup path is tried before giving
// up.
func (srg *SafeReportGenerator) WriteReportToFile(result *reconciler.RunResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		backupPath := backupPathFor(path)
		srg.logger.WithFields(logger.Fields{
			"path":   path,
			"backup": backupPath,
		}).Warn("Could not create report file, trying backup path")

		backup, backupErr := os.Create(backupPath)
		if backupErr != nil {
			return errors.FileError(errors.CodeFileNotFound, path, err).
				WithSuggestion("Check that the output directory exists and is writable")
		}
		defer backup.Close()

		if err := srg.GenerateReportSafely(result, backup); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Warning: could not write to %s, report saved to %s\n", path, backupPath)
		return nil
	}
	defer file.Close()

	return srg.GenerateReportSafely(result, file)
}

func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if ledgerErr, ok := errors.AsLedgerError(err); ok {
		return ledgerErr
	}
	return errors.InternalError(
		errors.CodeProcessingError,
		"report_generation",
		err,
	).WithSuggestion("Check the output destination and report format settings")
}

func backupPathFor(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}
