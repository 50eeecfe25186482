package parsers

import (
	"context"
	"fmt"
	"io"

	"github.com/hoppemairon/calendario-financeiro/internal/models"
	"github.com/hoppemairon/calendario-financeiro/internal/normalize"
	"github.com/hoppemairon/calendario-financeiro/pkg/errors"
	"github.com/hoppemairon/calendario-financeiro/pkg/logger"

	"github.com/google/uuid"
)

// PayableParser loads payable rows from a CSV export.
type PayableParser struct {
	*BaseParser
	config *PayableParserConfig
	logger logger.Logger
}

// NewPayableParser creates a new PayableParser with the given configuration
func NewPayableParser(config *PayableParserConfig) (*PayableParser, error) {
	if config == nil {
		config = DefaultPayableParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"payable_parser_config",
			config,
			err,
		).WithSuggestion("Check the payable parser column mapping")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	return &PayableParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("payable_parser"),
	}, nil
}

// ParseFile parses a CSV file containing payable rows. Malformed rows are
// recorded in the stats and skipped; the returned error is reserved for
// failures that make the whole file unusable.
func (pp *PayableParser) ParseFile(ctx context.Context, filePath string) ([]*models.Payable, *ParseStats, error) {
	pp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "parse_payables",
	}).Info("Starting payable parsing")

	file, reader, err := pp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()
	stats.BatchID = uuid.NewString()

	requiredHeaders := pp.getRequiredHeaders()
	if err := pp.ReadHeaders(reader, parseCtx, filePath, requiredHeaders); err != nil {
		return nil, stats, err
	}

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "parse_payables",
		Logger:    pp.logger,
	})

	var payables []*models.Payable

	for {
		if parseCtx.IsCancelled() {
			err := fmt.Errorf("parsing cancelled by context")
			progress.CompleteWithError(err)
			return payables, stats, errors.InternalError(
				errors.CodeUnexpectedError,
				"payable_parsing",
				err,
			)
		}

		record, err := pp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "failed to read record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		payable, parseErr := pp.parseRecord(record, parseCtx, filePath, stats.BatchID)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := payable.Validate(); err != nil {
			pp.logger.WithError(err).WithField("line_number", parseCtx.LineNumber).Warn("Payable validation failed")

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: err.Error(),
				Err:     errors.ValidationError(errors.CodeInvalidData, "payable", payable.Description, err),
			})
			continue
		}

		payables = append(payables, payable)
		stats.RecordsValid++
		progress.Increment()
	}

	progress.Complete()
	stats.TotalLines = parseCtx.LineNumber

	pp.logger.WithFields(logger.Fields{
		"file_path":      filePath,
		"batch_id":       stats.BatchID,
		"total_lines":    stats.TotalLines,
		"records_parsed": stats.RecordsParsed,
		"records_valid":  stats.RecordsValid,
		"error_count":    stats.ErrorCount,
	}).Info("Payable parsing completed")

	if stats.HasErrors() {
		pp.logger.WithField("sample_errors", stats.GetSampleErrors(3)).Warn("Encountered errors during parsing")
	}

	return payables, stats, nil
}

func (pp *PayableParser) getRequiredHeaders() []string {
	return []string{
		pp.config.GetColumnName("owner_id"),
		pp.config.GetColumnName("amount"),
		pp.config.GetColumnName("due_date"),
		pp.config.GetColumnName("description"),
	}
}

// parseRecord creates a Payable from a CSV record
func (pp *PayableParser) parseRecord(record []string, parseCtx *ParseContext, filePath, batchID string) (*models.Payable, *ParseError) {
	ownerID, err := pp.GetFieldValue(record, parseCtx, pp.config.GetColumnName("owner_id"))
	if err != nil {
		return nil, fieldError(parseCtx.LineNumber, pp.config.GetColumnName("owner_id"), err)
	}
	if ownerID == "" {
		parseErr := errors.InvalidOwnerError(filePath, parseCtx.LineNumber, pp.config.GetColumnName("owner_id"), ownerID)
		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   pp.config.GetColumnName("owner_id"),
			Message: parseErr.Message,
			Err:     parseErr,
		}
	}

	amountStr, err := pp.GetFieldValue(record, parseCtx, pp.config.GetColumnName("amount"))
	if err != nil {
		return nil, fieldError(parseCtx.LineNumber, pp.config.GetColumnName("amount"), err)
	}

	amount, err := models.ParseAmount(amountStr)
	if err != nil {
		parseErr := errors.InvalidAmountError(filePath, parseCtx.LineNumber, pp.config.GetColumnName("amount"), amountStr)
		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   pp.config.GetColumnName("amount"),
			Value:   amountStr,
			Message: parseErr.Message,
			Err:     parseErr,
		}
	}

	dueDateStr, err := pp.GetFieldValue(record, parseCtx, pp.config.GetColumnName("due_date"))
	if err != nil {
		return nil, fieldError(parseCtx.LineNumber, pp.config.GetColumnName("due_date"), err)
	}

	dueDate, err := models.ParseDate(dueDateStr)
	if err != nil {
		parseErr := errors.InvalidDateError(filePath, parseCtx.LineNumber, pp.config.GetColumnName("due_date"), dueDateStr)
		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   pp.config.GetColumnName("due_date"),
			Value:   dueDateStr,
			Message: parseErr.Message,
			Err:     parseErr,
		}
	}

	description, err := pp.GetFieldValue(record, parseCtx, pp.config.GetColumnName("description"))
	if err != nil {
		return nil, fieldError(parseCtx.LineNumber, pp.config.GetColumnName("description"), err)
	}

	return &models.Payable{
		OwnerID:     ownerID,
		Company:     normalize.Field(pp.GetOptionalFieldValue(record, parseCtx, pp.config.GetColumnName("company"))),
		Supplier:    normalize.Field(pp.GetOptionalFieldValue(record, parseCtx, pp.config.GetColumnName("supplier"))),
		Amount:      amount,
		DueDate:     dueDate,
		Description: description,
		History:     normalize.Field(pp.GetOptionalFieldValue(record, parseCtx, pp.config.GetColumnName("history"))),
		Category:    normalize.Field(pp.GetOptionalFieldValue(record, parseCtx, pp.config.GetColumnName("category"))),
		MovementID:  normalize.Field(pp.GetOptionalFieldValue(record, parseCtx, pp.config.GetColumnName("movement_id"))),
		BatchID:     batchID,
	}, nil
}

// fieldError wraps a missing-field failure into a per-line ParseError.
func fieldError(line int, field string, err error) *ParseError {
	return &ParseError{
		Line:    line,
		Field:   field,
		Message: fmt.Sprintf("missing required field '%s'", field),
		Err:     err,
	}
}
