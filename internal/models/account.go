package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a user's wallet. All amounts across the system are integer
// cents; lifecycle operations debit and credit accounts inside the same
// transaction that mutates the ticket ledger.
type Account struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Balance   int64     `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (account *Account) BeforeCreate(tx *gorm.DB) (err error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	return
}

// PlatformTreasury accumulates collection creation fees until an admin
// withdraws them. Single row, id 1.
type PlatformTreasury struct {
	ID        uint  `gorm:"primary_key"`
	Balance   int64 `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
