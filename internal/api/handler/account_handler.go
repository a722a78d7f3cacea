package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/investor-account-ledger/internal/api/service"
	"github.com/investor-account-ledger/internal/domain/account"
	"github.com/investor-account-ledger/internal/domain/money"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// New opens a new investor account
func (h *AccountHandler) New(c *gin.Context) {
	var req NewAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "MISSING_FIELDS", "Invalid request body: "+err.Error())
		return
	}

	investorID, err := uuid.Parse(req.InvestorID)
	if err != nil {
		h.logger.Error("Invalid investor ID", "investor_id", req.InvestorID, "error", err)
		RespondBadRequest(c, "INVALID_INVESTOR_ID", "Field 'investorId' must be a valid UUID")
		return
	}

	openingBalance, err := money.ToMinorUnits(req.OpeningBalance)
	if err != nil || openingBalance < 0 {
		h.logger.Error("Invalid opening balance", "opening_balance", req.OpeningBalance.String(), "error", err)
		RespondBadRequest(c, "INVALID_AMOUNT", "Field 'openingBalance' must be a non-negative amount")
		return
	}

	acc, err := h.accountService.OpenAccount(c.Request.Context(), req.AccountNumber, investorID, openingBalance)
	if err != nil {
		var dup account.ErrDuplicateAccountNumber
		if errors.As(err, &dup) {
			RespondConflict(c, "DUPLICATE_ACCOUNT", err.Error(), nil)
			return
		}
		h.logger.Error("Failed to open account", "account_number", req.AccountNumber, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, gin.H{
		"message": "Account opened",
		"account": mapAccountToResponse(acc),
	})
}

// Get retrieves an account by its number, returns 404 if not found
func (h *AccountHandler) Get(c *gin.Context) {
	numberParam := c.Query("accountNumber")
	accountNumber, err := strconv.ParseInt(numberParam, 10, 64)
	if err != nil || accountNumber <= 0 {
		h.logger.Error("Invalid account number", "account_number", numberParam, "error", err)
		RespondBadRequest(c, "INVALID_ACCOUNT", "Query parameter 'accountNumber' must be a positive integer")
		return
	}

	acc, cached, err := h.accountService.GetAccount(c.Request.Context(), accountNumber)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "ACCOUNT_NOT_FOUND", "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "account_number", accountNumber, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, gin.H{
		"account": mapAccountToResponse(acc),
		"cached":  cached,
	})
}
