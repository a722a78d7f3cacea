package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/investor-account-ledger/internal/api/middleware"
	"github.com/investor-account-ledger/internal/api/service"
	"github.com/investor-account-ledger/internal/domain/account"
	"github.com/investor-account-ledger/internal/domain/money"
	"github.com/investor-account-ledger/internal/domain/transaction"
	"github.com/investor-account-ledger/internal/engine"
)

// TransactionHandler handles HTTP requests for transaction operations
type TransactionHandler struct {
	engine service.TransactionEngine
	reader service.TransactionReader
	logger *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, eng service.TransactionEngine, reader service.TransactionReader) *TransactionHandler {
	return &TransactionHandler{
		engine: eng,
		reader: reader,
		logger: logger,
	}
}

// New applies a single transaction (credit or debit) with idempotency support
func (h *TransactionHandler) New(c *gin.Context) {
	var req NewTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, string(engine.ReasonMissingFields), "Invalid request body: "+err.Error())
		return
	}

	minor, err := money.PositiveMinorUnits(req.Amount)
	if err != nil {
		h.logger.Error("Invalid transaction amount", "amount", req.Amount.String(), "error", err)
		RespondBadRequest(c, string(engine.ReasonInvalidAmount), err.Error())
		return
	}

	txn, err := h.engine.Apply(c.Request.Context(), engine.Request{
		IdempotencyKey: req.IdempotencyKey,
		AccountNumber:  req.AccountNumber,
		Amount:         minor,
		Type:           transaction.Type(req.Type),
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		h.respondApplyError(c, err)
		return
	}

	RespondCreated(c, gin.H{
		"message":     "Transaction applied",
		"transaction": mapTransactionToResponse(txn),
	})
}

// NewBulk ingests a CSV upload of transactions, reporting per-row outcomes.
// Partial failure is expected; the response details which rows were skipped
// or failed and why.
func (h *TransactionHandler) NewBulk(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.logger.Error("Bulk upload is missing the file field", "error", err)
		RespondBadRequest(c, "MISSING_FILE", "Multipart field 'file' is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open bulk upload file", "filename", fileHeader.Filename, "error", err)
		RespondInternalError(c)
		return
	}
	defer file.Close()

	rows, err := engine.ParseCSV(file)
	if err != nil {
		h.logger.Error("Failed to parse bulk upload", "filename", fileHeader.Filename, "error", err)
		RespondBadRequest(c, "MALFORMED_CSV", err.Error())
		return
	}

	report := h.engine.IngestBatch(c.Request.Context(), rows, middleware.GetCorrelationID(c))

	RespondCreated(c, gin.H{
		"message":  "Batch processed",
		"inserted": report.Inserted,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"details":  report.Rows,
	})
}

// Get retrieves a transaction record by its ID, returns 404 if not found
func (h *TransactionHandler) Get(c *gin.Context) {
	idParam := c.Query("transactionId")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "transaction_id", idParam, "error", err)
		RespondBadRequest(c, "INVALID_TRANSACTION_ID", "Query parameter 'transactionId' must be a valid UUID")
		return
	}

	txn, cached, err := h.reader.GetTransaction(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrRecordNotFound{}) {
			RespondNotFound(c, "TRANSACTION_NOT_FOUND", "Transaction not found")
			return
		}
		h.logger.Error("Failed to get transaction", "transaction_id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, gin.H{
		"transaction": mapTransactionToResponse(txn),
		"cached":      cached,
	})
}

// History lists an account's transactions newest first, with optional limit
// and offset pagination. An account with no transactions yields an empty list.
func (h *TransactionHandler) History(c *gin.Context) {
	numberParam := c.Query("accountNumber")
	accountNumber, err := strconv.ParseInt(numberParam, 10, 64)
	if err != nil || accountNumber <= 0 {
		h.logger.Error("Invalid account number", "account_number", numberParam, "error", err)
		RespondBadRequest(c, "INVALID_ACCOUNT_NUMBER", "Query parameter 'accountNumber' must be a positive integer")
		return
	}

	limit, offset, err := paginationParams(c)
	if err != nil {
		RespondBadRequest(c, "INVALID_PAGINATION", err.Error())
		return
	}

	txns, err := h.reader.GetAccountTransactions(c.Request.Context(), accountNumber, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list account transactions", "account_number", accountNumber, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, mapTransactionToResponse(txn))
	}

	RespondOK(c, gin.H{
		"transactions": responses,
		"count":        len(responses),
	})
}

// paginationParams reads the optional limit and offset query parameters
func paginationParams(c *gin.Context) (limit int, offset int, err error) {
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, errors.New("query parameter 'limit' must be a non-negative integer")
		}
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("query parameter 'offset' must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

// Reverse applies a new inverse transaction for the given target. The
// original record is never modified; the response carries the new reversal
// transaction.
func (h *TransactionHandler) Reverse(c *gin.Context) {
	var req ReverseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, string(engine.ReasonMissingFields), "Invalid request body: "+err.Error())
		return
	}

	id, err := uuid.Parse(req.TransactionID)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "transaction_id", req.TransactionID, "error", err)
		RespondBadRequest(c, "INVALID_TRANSACTION_ID", "Field 'transactionId' must be a valid UUID")
		return
	}

	txn, err := h.engine.Reverse(c.Request.Context(), id, middleware.GetCorrelationID(c))
	if err != nil {
		var notFound engine.TransactionNotFoundError
		if errors.As(err, &notFound) {
			RespondNotFound(c, "TRANSACTION_NOT_FOUND", "Transaction not found")
			return
		}
		h.respondApplyError(c, err)
		return
	}

	RespondCreated(c, gin.H{
		"message":     "Transaction reversed",
		"transaction": mapTransactionToResponse(txn),
	})
}

// respondApplyError maps engine apply errors onto the HTTP error surface
func (h *TransactionHandler) respondApplyError(c *gin.Context, err error) {
	var dup engine.DuplicateTransactionError
	switch {
	case errors.Is(err, engine.ErrMissingIdempotencyKey),
		errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrInvalidType):
		RespondBadRequest(c, string(engine.ReasonForError(err)), err.Error())
	case errors.Is(err, account.ErrInsufficientFunds):
		RespondBadRequest(c, string(engine.ReasonInsufficientFunds), err.Error())
	case errors.Is(err, account.ErrAccountNotFound{}):
		RespondNotFound(c, string(engine.ReasonAccountNotFound), "Account not found")
	case errors.As(err, &dup):
		var existing interface{}
		if dup.Existing != nil {
			existing = mapTransactionToResponse(dup.Existing)
		}
		RespondConflict(c, string(engine.ReasonAlreadyExists), "A transaction with this idempotency key already exists", existing)
	default:
		h.logger.Error("Failed to apply transaction", "error", err)
		RespondInternalError(c)
	}
}
