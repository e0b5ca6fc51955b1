package service

import (
	"context"
	"errors"
	"time"

	"github.com/clipline/sms-campaigns/internal/constants"
	"github.com/clipline/sms-campaigns/internal/model"
	"github.com/clipline/sms-campaigns/internal/repository"
	"go.uber.org/zap"
)

// LedgerService owns the credit buckets. Every mutation locks the account
// row, adjusts both buckets and appends one transaction with before/after
// snapshots, all inside a single database transaction. available+reserved
// is conserved across reserve/refund; only spend leaves the pool.
type LedgerService interface {
	Reserve(ctx context.Context, cmd ReserveCreditsCommand) error
	Refund(ctx context.Context, cmd RefundCreditsCommand) (int64, error)
	Spend(ctx context.Context, cmd SpendCreditsCommand) error
	Balance(ctx context.Context, userID string) (BalanceResponse, error)
	Transactions(ctx context.Context, userID string, limit, offset int) ([]CreditTxView, error)
}

type ledger struct {
	accountRepo repository.CreditAccountRepository
	txRepo      repository.CreditTxRepository
	txManager   repository.TxManager
	logger      *zap.Logger
}

func NewLedgerService(accountRepo repository.CreditAccountRepository, txRepo repository.CreditTxRepository,
	txManager repository.TxManager, logger *zap.Logger) LedgerService {
	return &ledger{accountRepo: accountRepo, txRepo: txRepo, txManager: txManager, logger: logger}
}

func (l *ledger) Reserve(ctx context.Context, cmd ReserveCreditsCommand) error {
	return l.txManager.WithTx(ctx, func(ctx context.Context) error {
		account, err := l.getAccount(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		if account.Available < cmd.Amount {
			l.logger.Warn("Reserve refused, insufficient credits",
				zap.String("userID", cmd.UserID),
				zap.Int64("requested", cmd.Amount),
				zap.Int64("available", account.Available))
			return NewServiceError(constants.ErrCodeInsufficientCredits, errors.New("insufficient credits"))
		}

		tx := snapshot(account, cmd.UserID, &cmd.MessageID, model.CreditTxKindReserve, cmd.Amount, "activation reserve")

		account.Available -= cmd.Amount
		account.Reserved += cmd.Amount

		return l.apply(ctx, account, tx)
	})
}

// Refund returns reserved credits to the available bucket, capped by the
// current reserved pool so interleaved messages can never drive it negative.
// The applied amount is returned.
func (l *ledger) Refund(ctx context.Context, cmd RefundCreditsCommand) (int64, error) {
	var applied int64

	err := l.txManager.WithTx(ctx, func(ctx context.Context) error {
		account, err := l.getAccount(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		applied = cmd.Amount
		if applied > account.Reserved {
			applied = account.Reserved
		}

		if applied == 0 {
			l.logger.Info("Nothing reserved to refund", zap.String("userID", cmd.UserID))
			return nil
		}

		tx := snapshot(account, cmd.UserID, &cmd.MessageID, model.CreditTxKindRefund, applied, cmd.Reason)

		account.Available += applied
		account.Reserved -= applied

		return l.apply(ctx, account, tx)
	})

	return applied, err
}

// Spend takes directly from available; test sends beyond the free daily
// allotment and per-recipient settlement go through here.
func (l *ledger) Spend(ctx context.Context, cmd SpendCreditsCommand) error {
	return l.txManager.WithTx(ctx, func(ctx context.Context) error {
		account, err := l.getAccount(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		if account.Available < cmd.Amount {
			return NewServiceError(constants.ErrCodeInsufficientCredits, errors.New("insufficient credits"))
		}

		tx := snapshot(account, cmd.UserID, cmd.MessageID, model.CreditTxKindSpend, cmd.Amount, cmd.Reason)

		account.Available -= cmd.Amount

		return l.apply(ctx, account, tx)
	})
}

func (l *ledger) Balance(ctx context.Context, userID string) (BalanceResponse, error) {
	account, err := l.accountRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return BalanceResponse{}, NewServiceError(constants.ErrCodeAccountNotFound, err)
		}

		return BalanceResponse{}, NewServiceError(ErrCodeDatabase, err)
	}

	return BalanceResponse{Available: account.Available, Reserved: account.Reserved}, nil
}

func (l *ledger) Transactions(ctx context.Context, userID string, limit, offset int) ([]CreditTxView, error) {
	txs, err := l.txRepo.GetByUserID(userID, limit, offset)
	if err != nil {
		l.logger.Error("Failed to load credit transactions",
			zap.Error(err),
			zap.String("userID", userID))
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	views := make([]CreditTxView, 0, len(txs))
	for _, tx := range txs {
		view := CreditTxView{
			Kind:         tx.Kind,
			Amount:       tx.Amount,
			OldAvailable: tx.OldAvailable,
			NewAvailable: tx.NewAvailable,
			OldReserved:  tx.OldReserved,
			NewReserved:  tx.NewReserved,
			Reason:       tx.Reason,
			CreatedAt:    tx.CreatedAt.Format(time.RFC3339),
		}
		if tx.MessageID != nil {
			view.MessageID = *tx.MessageID
		}
		views = append(views, view)
	}

	return views, nil
}

func (l *ledger) getAccount(ctx context.Context, userID string) (*model.CreditAccount, error) {
	account, err := l.accountRepo.GetForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, NewServiceError(constants.ErrCodeAccountNotFound, err)
		}

		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	return account, nil
}

func (l *ledger) apply(ctx context.Context, account *model.CreditAccount, tx *model.CreditTransaction) error {
	tx.NewAvailable = account.Available
	tx.NewReserved = account.Reserved

	account.UpdatedAt = time.Now()
	if err := l.accountRepo.UpdateBalances(ctx, account); err != nil {
		l.logger.Error("Failed to update credit balances",
			zap.Error(err),
			zap.String("userID", account.UserID))
		return NewServiceError(ErrCodeDatabase, err)
	}

	if err := l.txRepo.Create(ctx, tx); err != nil {
		l.logger.Error("Failed to append credit transaction",
			zap.Error(err),
			zap.String("userID", account.UserID))
		return NewServiceError(ErrCodeDatabase, err)
	}

	return nil
}

// snapshot captures the before state; apply fills in the after state once
// the buckets have moved.
func snapshot(account *model.CreditAccount, userID string, messageID *string, kind string, amount int64, reason string) *model.CreditTransaction {
	return &model.CreditTransaction{
		UserID:       userID,
		MessageID:    messageID,
		Kind:         kind,
		Amount:       amount,
		OldAvailable: account.Available,
		OldReserved:  account.Reserved,
		Reason:       reason,
		CreatedAt:    time.Now(),
	}
}
