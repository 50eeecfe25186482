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

// PaymentParser loads payment rows from a CSV export.
type PaymentParser struct {
	*BaseParser
	config *PaymentParserConfig
	logger logger.Logger
}

// NewPaymentParser creates a new PaymentParser with the given configuration
func NewPaymentParser(config *PaymentParserConfig) (*PaymentParser, error) {
	if config == nil {
		config = DefaultPaymentParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"payment_parser_config",
			config,
			err,
		).WithSuggestion("Check the payment parser column mapping")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	return &PaymentParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("payment_parser"),
	}, nil
}

// ParseFile parses a CSV file containing payment rows. The order of rows in
// the file is preserved; the matching engine uses it as the tie-break order.
func (pp *PaymentParser) ParseFile(ctx context.Context, filePath string) ([]*models.Payment, *ParseStats, error) {
	pp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "parse_payments",
	}).Info("Starting payment parsing")

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
		Operation: "parse_payments",
		Logger:    pp.logger,
	})

	var payments []*models.Payment

	for {
		if parseCtx.IsCancelled() {
			err := fmt.Errorf("parsing cancelled by context")
			progress.CompleteWithError(err)
			return payments, stats, errors.InternalError(
				errors.CodeUnexpectedError,
				"payment_parsing",
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

		payment, parseErr := pp.parseRecord(record, parseCtx, filePath, stats.BatchID)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := payment.Validate(); err != nil {
			pp.logger.WithError(err).WithField("line_number", parseCtx.LineNumber).Warn("Payment validation failed")

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: err.Error(),
				Err:     errors.ValidationError(errors.CodeInvalidData, "payment", payment.Description, err),
			})
			continue
		}

		payments = append(payments, payment)
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
	}).Info("Payment parsing completed")

	if stats.HasErrors() {
		pp.logger.WithField("sample_errors", stats.GetSampleErrors(3)).Warn("Encountered errors during parsing")
	}

	return payments, stats, nil
}

func (pp *PaymentParser) getRequiredHeaders() []string {
	return []string{
		pp.config.GetColumnName("owner_id"),
		pp.config.GetColumnName("amount"),
		pp.config.GetColumnName("payment_date"),
		pp.config.GetColumnName("description"),
	}
}

// parseRecord creates a Payment from a CSV record
func (pp *PaymentParser) parseRecord(record []string, parseCtx *ParseContext, filePath, batchID string) (*models.Payment, *ParseError) {
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

	paymentDateStr, err := pp.GetFieldValue(record, parseCtx, pp.config.GetColumnName("payment_date"))
	if err != nil {
		return nil, fieldError(parseCtx.LineNumber, pp.config.GetColumnName("payment_date"), err)
	}

	paymentDate, err := models.ParseDate(paymentDateStr)
	if err != nil {
		parseErr := errors.InvalidDateError(filePath, parseCtx.LineNumber, pp.config.GetColumnName("payment_date"), paymentDateStr)
		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   pp.config.GetColumnName("payment_date"),
			Value:   paymentDateStr,
			Message: parseErr.Message,
			Err:     parseErr,
		}
	}

	description, err := pp.GetFieldValue(record, parseCtx, pp.config.GetColumnName("description"))
	if err != nil {
		return nil, fieldError(parseCtx.LineNumber, pp.config.GetColumnName("description"), err)
	}

	return &models.Payment{
		OwnerID:     ownerID,
		Account:     normalize.Field(pp.GetOptionalFieldValue(record, parseCtx, pp.config.GetColumnName("account"))),
		Amount:      amount,
		PaymentDate: paymentDate,
		Description: description,
		History:     normalize.Field(pp.GetOptionalFieldValue(record, parseCtx, pp.config.GetColumnName("history"))),
		Category:    normalize.Field(pp.GetOptionalFieldValue(record, parseCtx, pp.config.GetColumnName("category"))),
		MovementID:  normalize.Field(pp.GetOptionalFieldValue(record, parseCtx, pp.config.GetColumnName("movement_id"))),
		BatchID:     batchID,
	}, nil
}
