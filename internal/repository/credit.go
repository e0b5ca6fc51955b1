package repository

import (
	"context"
	"errors"

	"github.com/clipline/sms-campaigns/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAccountNotFound = errors.New("ACCOUNT_NOT_FOUND")

type CreditAccountRepository interface {
	GetByUserID(userID string) (*model.CreditAccount, error)
	GetForUpdate(ctx context.Context, userID string) (*model.CreditAccount, error)
	UpdateBalances(ctx context.Context, account *model.CreditAccount) error
}

type CreditTxRepository interface {
	Create(ctx context.Context, tx *model.CreditTransaction) error
	GetByUserID(userID string, limit, offset int) ([]model.CreditTransaction, error)
}

type CreditAccount struct {
	db *gorm.DB
}

func NewCreditAccountRepository(db *gorm.DB) CreditAccountRepository {
	return &CreditAccount{db: db}
}

func (r *CreditAccount) GetByUserID(userID string) (*model.CreditAccount, error) {
	var account model.CreditAccount

	err := r.db.Where("user_id = ?", userID).First(&account).Error
	if err == nil {
		return &account, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}

	return nil, err
}

// GetForUpdate takes a row lock; call inside a TxManager transaction so the
// balance read and the paired write cannot interleave with another mutation.
func (r *CreditAccount) GetForUpdate(ctx context.Context, userID string) (*model.CreditAccount, error) {
	db := GetTx(ctx, r.db)

	var account model.CreditAccount
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error
	if err == nil {
		return &account, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}

	return nil, err
}

func (r *CreditAccount) UpdateBalances(ctx context.Context, account *model.CreditAccount) error {
	db := GetTx(ctx, r.db)
	return db.Model(&model.CreditAccount{}).
		Where("user_id = ?", account.UserID).
		Updates(map[string]interface{}{
			"available":  account.Available,
			"reserved":   account.Reserved,
			"updated_at": account.UpdatedAt,
		}).Error
}

type CreditTx struct {
	db *gorm.DB
}

func NewCreditTxRepository(db *gorm.DB) CreditTxRepository {
	return &CreditTx{db: db}
}

func (r *CreditTx) Create(ctx context.Context, tx *model.CreditTransaction) error {
	db := GetTx(ctx, r.db)
	return db.Create(tx).Error
}

func (r *CreditTx) GetByUserID(userID string, limit, offset int) ([]model.CreditTransaction, error) {
	var txs []model.CreditTransaction

	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, err
	}

	return txs, nil
}
