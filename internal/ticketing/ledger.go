package ticketing

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairtix/fairtix/internal/models"
)

// The ledger helpers below are the only code that mutates ticket ownership,
// per-collection counters, wallet balances or the retained balance. They are
// unexported so nothing outside the engine and registry can reach them, and
// every one of them runs against the transaction of the calling operation.

func ticketBySerial(tx *gorm.DB, collectionID uuid.UUID, serial int) (*models.Ticket, error) {
	var ticket models.Ticket
	err := tx.Where("collection_id = ? AND serial = ?", collectionID, serial).First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// recordMint issues the next serial for the collection and bumps both
// supply counters. The collection struct is mutated in place so callers see
// the new counters.
func recordMint(tx *gorm.DB, collection *models.Collection, owner uuid.UUID, price int64) (*models.Ticket, error) {
	ticket := models.Ticket{
		CollectionID:  collection.ID,
		Serial:        collection.MintedCount + 1,
		OwnerID:       owner,
		LastPricePaid: price,
	}
	if err := tx.Create(&ticket).Error; err != nil {
		return nil, err
	}

	collection.MintedCount++
	collection.CirculatingSupply++
	err := tx.Model(collection).Updates(map[string]any{
		"minted_count":       collection.MintedCount,
		"circulating_supply": collection.CirculatingSupply,
	}).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func transferOwnership(tx *gorm.DB, ticket *models.Ticket, newOwner uuid.UUID, price int64) error {
	ticket.OwnerID = newOwner
	ticket.LastPricePaid = price
	return tx.Model(ticket).Updates(map[string]any{
		"owner_id":        newOwner,
		"last_price_paid": price,
	}).Error
}

// retire permanently invalidates a ticket. Soft delete keeps the serial
// reserved, so a second refund of the same serial resolves to not-found.
func retire(tx *gorm.DB, collection *models.Collection, ticket *models.Ticket) error {
	if err := tx.Delete(ticket).Error; err != nil {
		return err
	}
	collection.CirculatingSupply--
	return tx.Model(collection).Update("circulating_supply", collection.CirculatingSupply).Error
}

func markCheckedIn(tx *gorm.DB, ticket *models.Ticket) error {
	ticket.CheckedIn = true
	return tx.Model(ticket).Update("checked_in", true).Error
}

func ownedCount(tx *gorm.DB, collectionID, owner uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&models.Ticket{}).
		Where("collection_id = ? AND owner_id = ?", collectionID, owner).
		Count(&n).Error
	return n, err
}

// debitAccount takes amount from a wallet, failing closed when the balance
// cannot cover it. The guard lives in the WHERE clause so a concurrent
// spender can never drive a balance negative.
func debitAccount(tx *gorm.DB, userID uuid.UUID, amount int64) error {
	res := tx.Model(&models.Account{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := tx.Model(&models.Account{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrAccountNotFound
		}
		return ErrInsufficientFunds
	}
	return nil
}

func creditAccount(tx *gorm.DB, userID uuid.UUID, amount int64) error {
	res := tx.Model(&models.Account{}).
		Where("user_id = ?", userID).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func creditRetained(tx *gorm.DB, collection *models.Collection, amount int64) error {
	collection.RetainedBalance += amount
	return tx.Model(collection).Update("retained_balance", collection.RetainedBalance).Error
}

func debitRetained(tx *gorm.DB, collection *models.Collection, amount int64) error {
	if collection.RetainedBalance < amount {
		return ErrInsufficientContractBalance
	}
	collection.RetainedBalance -= amount
	return tx.Model(collection).Update("retained_balance", collection.RetainedBalance).Error
}

func recordTransfer(tx *gorm.DB, transfer models.Transfer) error {
	return tx.Create(&transfer).Error
}
