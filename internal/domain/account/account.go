package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInsufficientFunds    = errors.New("insufficient funds for debit")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidAccountNumber = errors.New("account number must be positive")
	ErrMissingInvestor      = errors.New("account must reference an investor")
)

// Account represents an investor-owned ledger account. Balances are mutated
// only through Credit/Debit so the no-overdraft invariant holds everywhere.
type Account struct {
	ID            uuid.UUID `json:"id"`
	AccountNumber int64     `json:"account_number"`
	InvestorID    uuid.UUID `json:"investor_id"`
	Balance       int64     `json:"balance"` // Stored in cents/minor units
	Version       int       `json:"version"` // For optimistic locking
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewAccount creates a new account owned by the given investor
func NewAccount(accountNumber int64, investorID uuid.UUID, openingBalance int64) (*Account, error) {
	if accountNumber <= 0 {
		return nil, ErrInvalidAccountNumber
	}
	if investorID == uuid.Nil {
		return nil, ErrMissingInvestor
	}
	if openingBalance < 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now()
	return &Account{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		InvestorID:    investorID,
		Balance:       openingBalance,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Credit adds the specified amount to the account balance
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance += amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Debit subtracts the specified amount from the account balance.
// The balance must cover the full amount; overdrafts are rejected.
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if a.Balance < amount {
		return ErrInsufficientFunds
	}

	a.Balance -= amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}
