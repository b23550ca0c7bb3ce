package ticketing

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairtix/fairtix/internal/models"
)

// Global policy every new collection is validated against.
const (
	MaxTicketsPerEvent     = 10000
	MinTicketPrice         = 100 // cents
	GlobalMaxResalePercent = 200
	MaxOrganizerFeePercent = 100
)

// CreateParams is everything a new collection needs. Validated as a whole
// before anything is written.
type CreateParams struct {
	Name                string
	Symbol              string
	MaxSupply           int
	FaceValue           int64
	OrganizerID         uuid.UUID
	MetadataBaseLocator string
	MaxResalePercent    int
	OrganizerFeePercent int
	MaxMintPerUser      int
	MinResalePercent    int
}

// Registry creates and indexes collections. It charges a flat creation fee
// into the platform treasury, which an admin later withdraws.
type Registry struct {
	db          *gorm.DB
	creationFee int64
}

func NewRegistry(db *gorm.DB, creationFee int64) *Registry {
	return &Registry{db: db, creationFee: creationFee}
}

func (r *Registry) validate(params CreateParams) error {
	switch {
	case strings.TrimSpace(params.Name) == "":
		return ErrEmptyName
	case strings.TrimSpace(params.Symbol) == "":
		return ErrEmptySymbol
	case params.MaxSupply < 1 || params.MaxSupply > MaxTicketsPerEvent:
		return ErrInvalidMaxSupply
	case params.FaceValue < MinTicketPrice:
		return ErrFaceValueTooLow
	case params.OrganizerID == uuid.Nil:
		return ErrNoOrganizer
	case strings.TrimSpace(params.MetadataBaseLocator) == "":
		return ErrEmptyMetadataLocator
	case params.MaxResalePercent < 100 || params.MaxResalePercent > GlobalMaxResalePercent:
		return ErrInvalidResalePercent
	case params.OrganizerFeePercent < 0 || params.OrganizerFeePercent > MaxOrganizerFeePercent:
		return ErrInvalidFeePercent
	case params.MinResalePercent < 0 || (params.MinResalePercent > 0 && params.MinResalePercent > params.MaxResalePercent):
		return ErrInvalidResalePercent
	case params.MaxMintPerUser < 0 || params.MaxMintPerUser > MaxTicketsPerEvent:
		return ErrInvalidMaxSupply
	}
	return nil
}

// Create validates params, charges the creation fee from the organizer's
// wallet and inserts the collection, atomically.
func (r *Registry) Create(ctx context.Context, params CreateParams) (*models.Collection, error) {
	if err := r.validate(params); err != nil {
		return nil, err
	}

	collection := models.Collection{
		Name:                params.Name,
		Symbol:              params.Symbol,
		OrganizerID:         params.OrganizerID,
		FaceValue:           params.FaceValue,
		MaxSupply:           params.MaxSupply,
		MaxResalePercent:    params.MaxResalePercent,
		OrganizerFeePercent: params.OrganizerFeePercent,
		MaxMintPerUser:      params.MaxMintPerUser,
		MinResalePercent:    params.MinResalePercent,
		MetadataBaseLocator: params.MetadataBaseLocator,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&collection).Error; err != nil {
			return err
		}
		if r.creationFee == 0 {
			return nil
		}
		if err := debitAccount(tx, params.OrganizerID, r.creationFee); err != nil {
			return err
		}
		if err := creditTreasury(tx, r.creationFee); err != nil {
			return err
		}
		return recordTransfer(tx, models.Transfer{
			Kind:         models.TransferCreationFee,
			Amount:       r.creationFee,
			FromUserID:   &params.OrganizerID,
			CollectionID: &collection.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// List returns a page of collections, newest first, optionally filtered by
// organizer.
func (r *Registry) List(ctx context.Context, organizerID *uuid.UUID, page, limit int) ([]models.Collection, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := r.db.WithContext(ctx).Model(&models.Collection{})
	if organizerID != nil {
		query = query.Where("organizer_id = ?", *organizerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var collections []models.Collection
	err := query.Offset((page - 1) * limit).Limit(limit).Order("created_at DESC").Find(&collections).Error
	if err != nil {
		return nil, 0, err
	}
	return collections, total, nil
}

// WithdrawFees moves the treasury's accumulated creation fees into the
// calling admin's wallet and returns the amount moved.
func (r *Registry) WithdrawFees(ctx context.Context, adminID uuid.UUID) (int64, error) {
	var withdrawn int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var treasury models.PlatformTreasury
		if err := tx.FirstOrCreate(&treasury, models.PlatformTreasury{ID: 1}).Error; err != nil {
			return err
		}
		if treasury.Balance == 0 {
			return nil
		}
		withdrawn = treasury.Balance
		if err := tx.Model(&treasury).Update("balance", 0).Error; err != nil {
			return err
		}
		if err := creditAccount(tx, adminID, withdrawn); err != nil {
			return err
		}
		return recordTransfer(tx, models.Transfer{
			Kind:     models.TransferFeeWithdrawal,
			Amount:   withdrawn,
			ToUserID: &adminID,
		})
	})
	if err != nil {
		return 0, err
	}
	return withdrawn, nil
}

func creditTreasury(tx *gorm.DB, amount int64) error {
	var treasury models.PlatformTreasury
	if err := tx.FirstOrCreate(&treasury, models.PlatformTreasury{ID: 1}).Error; err != nil {
		return err
	}
	return tx.Model(&treasury).Update("balance", gorm.Expr("balance + ?", amount)).Error
}
