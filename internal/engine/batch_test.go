package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/investor-account-ledger/internal/domain/account"
	"github.com/investor-account-ledger/internal/domain/journal"
	"github.com/investor-account-ledger/internal/domain/transaction"
)

// expectApplySuccess wires the happy apply path for one idempotency key
func (f *engineFixture) expectApplySuccess(ctx context.Context, key string, acc *account.Account) {
	f.records.On("GetByIdempotencyKey", ctx, key).Return(nil, nil).Once()
	f.accounts.On("LockForUpdate", ctx, acc.AccountNumber).Return(acc, nil).Once()
	f.accounts.On("Update", ctx, mock.Anything).Return(nil).Once()
	f.journal.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.records.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.journal.On("UpdateStatus", ctx, mock.Anything, journal.StatusApplied).Return(nil).Once()
	f.cache.On("Delete", ctx, mock.Anything).Return(nil).Once()
}

func TestEngine_IngestBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("MixedOutcomes", func(t *testing.T) {
		f := newEngineFixture()
		f.accounts.On("WithTx", mock.Anything).Return(f.accounts)
		f.journal.On("WithTx", mock.Anything).Return(f.journal)

		acc := &account.Account{AccountNumber: 42, Balance: 100000, Version: 1}
		f.expectApplySuccess(ctx, "order-1", acc)

		// order-2 was applied by an earlier batch
		existing := transaction.New("order-2", 42, 100, transaction.TypeCredit, "")
		f.records.On("GetByIdempotencyKey", ctx, "order-2").Return(existing, nil).Once()

		// order-4 targets a missing account
		f.records.On("GetByIdempotencyKey", ctx, "order-4").Return(nil, nil).Once()
		f.accounts.On("LockForUpdate", ctx, int64(99)).Return(nil, account.ErrAccountNotFound{AccountNumber: 99}).Once()

		rows := []Row{
			{Line: 2, IdempotencyKey: "order-1", Amount: "40.25", Account: "42", Type: "credit"},
			{Line: 3, IdempotencyKey: "order-2", Amount: "1.00", Account: "42", Type: "credit"},
			{Line: 4, IdempotencyKey: "order-1", Amount: "40.25", Account: "42", Type: "credit"},
			{Line: 5, IdempotencyKey: "order-4", Amount: "5.00", Account: "99", Type: "debit"},
			{Line: 6, IdempotencyKey: "", Amount: "5.00", Account: "42", Type: "debit"},
		}

		report := f.engine.IngestBatch(ctx, rows, "corr-1")

		assert.Equal(t, 5, report.Processed)
		assert.Equal(t, 1, report.Inserted)
		assert.Equal(t, 2, report.Skipped)
		assert.Equal(t, 2, report.Failed)
		assert.Equal(t, report.Processed, report.Inserted+report.Skipped+report.Failed)

		require.Len(t, report.Rows, 4)
		assert.Equal(t, RowOutcome{Line: 3, IdempotencyKey: "order-2", Status: RowSkipped, Reason: ReasonAlreadyExists}, report.Rows[0])
		assert.Equal(t, RowOutcome{Line: 4, IdempotencyKey: "order-1", Status: RowSkipped, Reason: ReasonDuplicateInBatch}, report.Rows[1])
		assert.Equal(t, RowOutcome{Line: 5, IdempotencyKey: "order-4", Status: RowFailed, Reason: ReasonAccountNotFound}, report.Rows[2])
		assert.Equal(t, RowOutcome{Line: 6, IdempotencyKey: "", Status: RowFailed, Reason: ReasonMissingFields}, report.Rows[3])
	})

	t.Run("InvalidAmounts", func(t *testing.T) {
		f := newEngineFixture()

		rows := []Row{
			{Line: 2, IdempotencyKey: "a", Amount: "not-a-number", Account: "42", Type: "credit"},
			{Line: 3, IdempotencyKey: "b", Amount: "1.005", Account: "42", Type: "credit"},
			{Line: 4, IdempotencyKey: "c", Amount: "-5", Account: "42", Type: "credit"},
		}

		report := f.engine.IngestBatch(ctx, rows, "")
		assert.Equal(t, 3, report.Failed)
		for _, outcome := range report.Rows {
			assert.Equal(t, ReasonInvalidAmount, outcome.Reason)
		}
	})

	t.Run("InvalidAccountField", func(t *testing.T) {
		f := newEngineFixture()

		rows := []Row{
			{Line: 2, IdempotencyKey: "a", Amount: "5", Account: "abc", Type: "credit"},
			{Line: 3, IdempotencyKey: "b", Amount: "5", Account: "-1", Type: "credit"},
		}

		report := f.engine.IngestBatch(ctx, rows, "")
		assert.Equal(t, 2, report.Failed)
		for _, outcome := range report.Rows {
			assert.Equal(t, ReasonInvalidAccount, outcome.Reason)
		}
	})

	t.Run("InsufficientFundsDoesNotAbortBatch", func(t *testing.T) {
		f := newEngineFixture()
		f.accounts.On("WithTx", mock.Anything).Return(f.accounts)
		f.journal.On("WithTx", mock.Anything).Return(f.journal)

		poor := &account.Account{AccountNumber: 7, Balance: 1, Version: 1}
		f.records.On("GetByIdempotencyKey", ctx, "big-debit").Return(nil, nil).Once()
		f.accounts.On("LockForUpdate", ctx, int64(7)).Return(poor, nil).Once()

		rich := &account.Account{AccountNumber: 8, Balance: 100000, Version: 1}
		f.expectApplySuccess(ctx, "small-credit", rich)

		rows := []Row{
			{Line: 2, IdempotencyKey: "big-debit", Amount: "100.00", Account: "7", Type: "debit"},
			{Line: 3, IdempotencyKey: "small-credit", Amount: "1.00", Account: "8", Type: "credit"},
		}

		report := f.engine.IngestBatch(ctx, rows, "")
		assert.Equal(t, 1, report.Inserted)
		assert.Equal(t, 1, report.Failed)
		require.Len(t, report.Rows, 1)
		assert.Equal(t, ReasonInsufficientFunds, report.Rows[0].Reason)
	})

	t.Run("ParseFailureDoesNotReserveKey", func(t *testing.T) {
		f := newEngineFixture()
		f.accounts.On("WithTx", mock.Anything).Return(f.accounts)
		f.journal.On("WithTx", mock.Anything).Return(f.journal)

		acc := &account.Account{AccountNumber: 42, Balance: 100000, Version: 1}
		f.expectApplySuccess(ctx, "retry-1", acc)

		rows := []Row{
			{Line: 2, IdempotencyKey: "retry-1", Amount: "oops", Account: "42", Type: "credit"},
			{Line: 3, IdempotencyKey: "retry-1", Amount: "5.00", Account: "42", Type: "credit"},
		}

		report := f.engine.IngestBatch(ctx, rows, "")
		assert.Equal(t, 1, report.Inserted)
		assert.Equal(t, 0, report.Skipped)
		assert.Equal(t, 1, report.Failed)
		require.Len(t, report.Rows, 1)
		assert.Equal(t, RowOutcome{Line: 2, IdempotencyKey: "retry-1", Status: RowFailed, Reason: ReasonInvalidAmount}, report.Rows[0])
	})

	t.Run("RejectedApplyStillReservesKey", func(t *testing.T) {
		f := newEngineFixture()
		f.accounts.On("WithTx", mock.Anything).Return(f.accounts)
		f.journal.On("WithTx", mock.Anything).Return(f.journal)

		poor := &account.Account{AccountNumber: 7, Balance: 1, Version: 1}
		f.records.On("GetByIdempotencyKey", ctx, "big-debit").Return(nil, nil).Once()
		f.accounts.On("LockForUpdate", ctx, int64(7)).Return(poor, nil).Once()

		rows := []Row{
			{Line: 2, IdempotencyKey: "big-debit", Amount: "100.00", Account: "7", Type: "debit"},
			{Line: 3, IdempotencyKey: "big-debit", Amount: "100.00", Account: "7", Type: "debit"},
		}

		report := f.engine.IngestBatch(ctx, rows, "")
		assert.Equal(t, 1, report.Skipped)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, RowOutcome{Line: 3, IdempotencyKey: "big-debit", Status: RowSkipped, Reason: ReasonDuplicateInBatch}, report.Rows[1])
	})

	t.Run("StoreFailure", func(t *testing.T) {
		f := newEngineFixture()

		f.records.On("GetByIdempotencyKey", ctx, "a").Return(nil, errors.New("store down")).Once()

		report := f.engine.IngestBatch(ctx, []Row{
			{Line: 2, IdempotencyKey: "a", Amount: "5", Account: "42", Type: "credit"},
		}, "")
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, ReasonStoreUnavailable, report.Rows[0].Reason)
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		f := newEngineFixture()
		report := f.engine.IngestBatch(ctx, nil, "")
		assert.Equal(t, 0, report.Processed)
		assert.Empty(t, report.Rows)
	})
}
