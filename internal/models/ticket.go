package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket is one issued ticket. Serial numbers run 1..MintedCount per
// collection and are never reused; a refunded ticket is soft-deleted, so
// its serial keeps resolving to "not found" forever.
type Ticket struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CollectionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_collection_serial" json:"collection_id"`
	Collection   Collection `json:"-"`
	Serial       int        `gorm:"not null;uniqueIndex:idx_collection_serial" json:"serial"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   *User     `gorm:"foreignKey:OwnerID" json:"-"`

	LastPricePaid int64 `gorm:"not null" json:"last_price_paid"`
	CheckedIn     bool  `gorm:"not null;default:false" json:"checked_in"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
