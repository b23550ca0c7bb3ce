package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection is one event's ticket collection. Pricing fields are set at
// creation and never updated afterwards; only MetadataBaseLocator and the
// cancellation latch are mutable, and both only by the organizer.
type Collection struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key"`
	Name   string    `gorm:"not null" json:"name"`
	Symbol string    `gorm:"not null" json:"symbol"`

	OrganizerID uuid.UUID `gorm:"type:uuid;not null;index" json:"organizer_id"`
	Organizer   *User     `gorm:"foreignKey:OrganizerID" json:"-"`

	FaceValue           int64 `gorm:"not null" json:"face_value"`
	MaxSupply           int   `gorm:"not null" json:"max_supply"`
	MaxResalePercent    int   `gorm:"not null" json:"max_resale_percent"`
	OrganizerFeePercent int   `gorm:"not null" json:"organizer_fee_percent"`

	// Optional hardening knobs, 0 disables.
	MaxMintPerUser   int `gorm:"not null;default:0" json:"max_mint_per_user"`
	MinResalePercent int `gorm:"not null;default:0" json:"min_resale_percent"`

	MetadataBaseLocator string `gorm:"not null" json:"metadata_base_locator"`

	Cancelled    bool   `gorm:"not null;default:false" json:"cancelled"`
	CancelReason string `json:"cancel_reason,omitempty"`

	MintedCount       int `gorm:"not null;default:0" json:"minted_count"`
	CirculatingSupply int `gorm:"not null;default:0" json:"circulating_supply"`

	// RetainedBalance holds every mint payment until it is claimed back
	// through a refund. Resale money never lands here.
	RetainedBalance int64 `gorm:"not null;default:0" json:"retained_balance"`

	Tickets []Ticket `gorm:"foreignKey:CollectionID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (collection *Collection) BeforeCreate(tx *gorm.DB) (err error) {
	if collection.ID == uuid.Nil {
		collection.ID = uuid.New()
	}
	return
}
