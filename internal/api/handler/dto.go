package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/investor-account-ledger/internal/domain/account"
	"github.com/investor-account-ledger/internal/domain/money"
	"github.com/investor-account-ledger/internal/domain/transaction"
)

// NewTransactionRequest represents a request to apply a single transaction.
// Amounts are decimal strings or numbers in major units (e.g. "40.25").
type NewTransactionRequest struct {
	IdempotencyKey string          `json:"idempotencyKey" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	AccountNumber  int64           `json:"accountNumber" binding:"required,gt=0"`
	Type           string          `json:"type" binding:"required"`
}

// ReverseTransactionRequest represents a request to reverse a transaction
type ReverseTransactionRequest struct {
	TransactionID string `json:"transactionId" binding:"required,uuid"`
}

// NewAccountRequest represents a request to open an investor account
type NewAccountRequest struct {
	AccountNumber  int64           `json:"accountNumber" binding:"required,gt=0"`
	InvestorID     string          `json:"investorId" binding:"required,uuid"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// TransactionResponse represents a transaction record in API responses
type TransactionResponse struct {
	TransactionID  string `json:"transactionId"`
	IdempotencyKey string `json:"idempotencyKey"`
	AccountNumber  int64  `json:"accountNumber"`
	Type           string `json:"type"`
	Amount         string `json:"amount"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt"`
	AppliedAt      string `json:"appliedAt,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	AccountNumber int64  `json:"accountNumber"`
	InvestorID    string `json:"investorId"`
	Balance       string `json:"balance"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// mapTransactionToResponse maps a transaction record to its response DTO,
// converting the stored minor units back to a decimal amount
func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		TransactionID:  txn.ID.String(),
		IdempotencyKey: txn.IdempotencyKey,
		AccountNumber:  txn.AccountNumber,
		Type:           string(txn.Type),
		Amount:         money.FromMinorUnits(txn.Amount).String(),
		Status:         string(txn.Status),
		CreatedAt:      txn.CreatedAt.Format(time.RFC3339),
	}

	if txn.AppliedAt != nil {
		response.AppliedAt = txn.AppliedAt.Format(time.RFC3339)
	}

	return response
}

// mapAccountToResponse maps an account to its response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		AccountNumber: acc.AccountNumber,
		InvestorID:    acc.InvestorID.String(),
		Balance:       money.FromMinorUnits(acc.Balance).String(),
		CreatedAt:     acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     acc.UpdatedAt.Format(time.RFC3339),
	}
}
