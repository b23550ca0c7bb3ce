package ticketing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairtix/fairtix/internal/models"
)

// Wallet manages user balances outside any collection: deposits, withdrawals
// and balance reads. Lifecycle payments themselves go through the engine.
type Wallet struct {
	db *gorm.DB
}

func NewWallet(db *gorm.DB) *Wallet {
	return &Wallet{db: db}
}

func (w *Wallet) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var account models.Account
	err := w.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (w *Wallet) Deposit(ctx context.Context, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := creditAccount(tx, userID, amount); err != nil {
			return err
		}
		return recordTransfer(tx, models.Transfer{
			Kind:     models.TransferDeposit,
			Amount:   amount,
			ToUserID: &userID,
		})
	})
}

func (w *Wallet) Withdraw(ctx context.Context, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := debitAccount(tx, userID, amount); err != nil {
			return err
		}
		return recordTransfer(tx, models.Transfer{
			Kind:       models.TransferWithdrawal,
			Amount:     amount,
			FromUserID: &userID,
		})
	})
}

// History lists a user's fund movements, newest first.
func (w *Wallet) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transfer, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var transfers []models.Transfer
	err := w.db.WithContext(ctx).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transfers).Error
	return transfers, err
}
