package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TransferMint           = "mint"
	TransferResaleProceeds = "resale_proceeds"
	TransferOrganizerFee   = "organizer_fee"
	TransferRefund         = "refund"
	TransferCancelRefund   = "cancel_refund"
	TransferDeposit        = "deposit"
	TransferWithdrawal     = "withdrawal"
	TransferCreationFee    = "creation_fee"
	TransferFeeWithdrawal  = "fee_withdrawal"
)

// Transfer is the audit row written for every fund movement. Party fields
// are nil when the counterparty is a collection's retained balance or the
// platform treasury rather than a user wallet.
type Transfer struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Kind         string     `gorm:"not null;index" json:"kind"`
	Amount       int64      `gorm:"not null" json:"amount"`
	FromUserID   *uuid.UUID `gorm:"type:uuid;index" json:"from_user_id,omitempty"`
	ToUserID     *uuid.UUID `gorm:"type:uuid;index" json:"to_user_id,omitempty"`
	CollectionID *uuid.UUID `gorm:"type:uuid;index" json:"collection_id,omitempty"`
	TicketSerial *int       `json:"ticket_serial,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (transfer *Transfer) BeforeCreate(tx *gorm.DB) (err error) {
	if transfer.ID == uuid.Nil {
		transfer.ID = uuid.New()
	}
	return
}
