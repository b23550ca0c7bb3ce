package ticketing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fairtix/fairtix/internal/models"
)

// Engine runs the per-event ticket lifecycle: mint, controlled resale,
// refunds, check-in and event cancellation. Every mutating operation is a
// single database transaction serialized per collection, and inside a
// transaction all ledger writes happen before any wallet is paid out, so no
// operation can ever observe another one half-applied.
type Engine struct {
	db    *gorm.DB
	locks sync.Map // collection id -> *sync.Mutex
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

func (e *Engine) lock(collectionID uuid.UUID) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(collectionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// withCollection serializes the operation against its collection and hands
// the callback a transaction with the collection row already loaded. Any
// error rolls back every write the callback made.
func (e *Engine) withCollection(ctx context.Context, collectionID uuid.UUID, fn func(tx *gorm.DB, collection *models.Collection) error) error {
	mu := e.lock(collectionID)
	mu.Lock()
	defer mu.Unlock()

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var collection models.Collection
		err := tx.Where("id = ?", collectionID).First(&collection).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollectionNotFound
		}
		if err != nil {
			return err
		}
		return fn(tx, &collection)
	})
}

// Mint issues the next ticket of a collection to buyerID. The payment must
// equal the face value exactly; it is debited from the buyer's wallet into
// the collection's retained balance, where it stays to cover a future
// refund. Nothing is forwarded to the organizer at mint time.
func (e *Engine) Mint(ctx context.Context, collectionID, buyerID uuid.UUID, payment int64) (*models.Ticket, error) {
	var minted *models.Ticket
	err := e.withCollection(ctx, collectionID, func(tx *gorm.DB, collection *models.Collection) error {
		if collection.Cancelled {
			return ErrEventCancelled
		}
		if payment != collection.FaceValue {
			return ErrIncorrectPayment
		}
		if collection.MintedCount >= collection.MaxSupply {
			return ErrEventSoldOut
		}
		if collection.MaxMintPerUser > 0 {
			owned, err := ownedCount(tx, collection.ID, buyerID)
			if err != nil {
				return err
			}
			if owned >= int64(collection.MaxMintPerUser) {
				return ErrMintLimitReached
			}
		}

		ticket, err := recordMint(tx, collection, buyerID, collection.FaceValue)
		if err != nil {
			return err
		}

		if err := debitAccount(tx, buyerID, payment); err != nil {
			return err
		}
		if err := creditRetained(tx, collection, payment); err != nil {
			return err
		}
		minted = ticket
		return recordTransfer(tx, models.Transfer{
			Kind:         models.TransferMint,
			Amount:       payment,
			FromUserID:   &buyerID,
			CollectionID: &collection.ID,
			TicketSerial: &ticket.Serial,
		})
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// Resale moves a ticket to buyerID at proposedPrice, which must be matched
// exactly by the payment and must sit inside the collection's price window.
// The ownership change is committed to the ledger before the seller and the
// organizer are paid; a failed payout rolls the ownership change back with
// the rest of the transaction.
func (e *Engine) Resale(ctx context.Context, collectionID uuid.UUID, serial int, buyerID uuid.UUID, proposedPrice, payment int64) error {
	return e.withCollection(ctx, collectionID, func(tx *gorm.DB, collection *models.Collection) error {
		if proposedPrice <= 0 || payment != proposedPrice {
			return ErrIncorrectPayment
		}
		if collection.Cancelled {
			return ErrEventCancelled
		}

		ticket, err := ticketBySerial(tx, collection.ID, serial)
		if err != nil {
			return err
		}
		if ticket.OwnerID == buyerID {
			return ErrCannotBuyOwnTicket
		}
		if ticket.CheckedIn {
			return ErrTicketAlreadyUsed
		}
		if proposedPrice > MaxResalePrice(collection.FaceValue, collection.MaxResalePercent) {
			return ErrExceedsResaleCap
		}
		if collection.MinResalePercent > 0 && proposedPrice < MinResalePrice(collection.FaceValue, collection.MinResalePercent) {
			return ErrBelowResaleFloor
		}

		fee := OrganizerFee(proposedPrice, collection.OrganizerFeePercent)
		proceeds := SellerProceeds(proposedPrice, fee)
		seller := ticket.OwnerID

		if err := transferOwnership(tx, ticket, buyerID, proposedPrice); err != nil {
			return err
		}

		if err := debitAccount(tx, buyerID, payment); err != nil {
			return err
		}
		if err := creditAccount(tx, seller, proceeds); err != nil {
			return err
		}
		if err := recordTransfer(tx, models.Transfer{
			Kind:         models.TransferResaleProceeds,
			Amount:       proceeds,
			FromUserID:   &buyerID,
			ToUserID:     &seller,
			CollectionID: &collection.ID,
			TicketSerial: &ticket.Serial,
		}); err != nil {
			return err
		}
		if fee == 0 {
			return nil
		}
		if err := creditAccount(tx, collection.OrganizerID, fee); err != nil {
			return err
		}
		return recordTransfer(tx, models.Transfer{
			Kind:         models.TransferOrganizerFee,
			Amount:       fee,
			FromUserID:   &buyerID,
			ToUserID:     &collection.OrganizerID,
			CollectionID: &collection.ID,
			TicketSerial: &ticket.Serial,
		})
	})
}

// Refund retires a ticket and returns exactly the face value to its owner,
// no matter what the ticket last traded for. Unavailable once the event is
// cancelled; CancelRefund is the path for that.
func (e *Engine) Refund(ctx context.Context, collectionID uuid.UUID, serial int, callerID uuid.UUID) error {
	return e.refund(ctx, collectionID, serial, callerID, false)
}

// CancelRefund is the refund path for cancelled events. Unlike Refund it
// accepts checked-in tickets: once the event is off, even a used ticket
// entitles its holder to the face value back.
func (e *Engine) CancelRefund(ctx context.Context, collectionID uuid.UUID, serial int, callerID uuid.UUID) error {
	return e.refund(ctx, collectionID, serial, callerID, true)
}

func (e *Engine) refund(ctx context.Context, collectionID uuid.UUID, serial int, callerID uuid.UUID, afterCancellation bool) error {
	return e.withCollection(ctx, collectionID, func(tx *gorm.DB, collection *models.Collection) error {
		if afterCancellation && !collection.Cancelled {
			return ErrEventNotCancelled
		}
		if !afterCancellation && collection.Cancelled {
			return ErrEventCancelled
		}

		ticket, err := ticketBySerial(tx, collection.ID, serial)
		if err != nil {
			return err
		}
		if ticket.OwnerID != callerID {
			return ErrNotTicketOwner
		}
		if !afterCancellation && ticket.CheckedIn {
			return ErrTicketAlreadyUsed
		}
		if collection.RetainedBalance < collection.FaceValue {
			return ErrInsufficientContractBalance
		}

		if err := retire(tx, collection, ticket); err != nil {
			return err
		}

		if err := debitRetained(tx, collection, collection.FaceValue); err != nil {
			return err
		}
		if err := creditAccount(tx, callerID, collection.FaceValue); err != nil {
			return err
		}
		kind := models.TransferRefund
		if afterCancellation {
			kind = models.TransferCancelRefund
		}
		return recordTransfer(tx, models.Transfer{
			Kind:         kind,
			Amount:       collection.FaceValue,
			ToUserID:     &callerID,
			CollectionID: &collection.ID,
			TicketSerial: &ticket.Serial,
		})
	})
}

// CheckIn marks a ticket as used at the venue. Organizer only; no funds
// move. A checked-in ticket can no longer be resold or standard-refunded.
func (e *Engine) CheckIn(ctx context.Context, collectionID uuid.UUID, serial int, callerID uuid.UUID) error {
	return e.withCollection(ctx, collectionID, func(tx *gorm.DB, collection *models.Collection) error {
		if collection.OrganizerID != callerID {
			return ErrNotOrganizer
		}
		ticket, err := ticketBySerial(tx, collection.ID, serial)
		if err != nil {
			return err
		}
		if ticket.CheckedIn {
			return ErrTicketAlreadyUsed
		}
		return markCheckedIn(tx, ticket)
	})
}

// CancelEvent flips the collection's one-way cancellation latch. Minting
// and resale stop immediately; refunds stay pull-based, each holder claims
// through CancelRefund individually.
func (e *Engine) CancelEvent(ctx context.Context, collectionID, callerID uuid.UUID, reason string) error {
	return e.withCollection(ctx, collectionID, func(tx *gorm.DB, collection *models.Collection) error {
		if collection.OrganizerID != callerID {
			return ErrNotOrganizer
		}
		if strings.TrimSpace(reason) == "" {
			return ErrEmptyCancellationReason
		}
		if collection.Cancelled {
			return ErrEventAlreadyCancelled
		}
		return tx.Model(collection).Updates(map[string]any{
			"cancelled":     true,
			"cancel_reason": reason,
		}).Error
	})
}

// SetMetadataLocator updates the collection's metadata base locator.
func (e *Engine) SetMetadataLocator(ctx context.Context, collectionID, callerID uuid.UUID, locator string) error {
	return e.withCollection(ctx, collectionID, func(tx *gorm.DB, collection *models.Collection) error {
		if collection.OrganizerID != callerID {
			return ErrNotOrganizer
		}
		if strings.TrimSpace(locator) == "" {
			return ErrEmptyMetadataLocator
		}
		if locator == collection.MetadataBaseLocator {
			return ErrMetadataLocatorUnchanged
		}
		return tx.Model(collection).Update("metadata_base_locator", locator).Error
	})
}

// Summary is the read-only view of a collection: event details, the
// anti-scalping configuration and the live counters.
type Summary struct {
	Collection       models.Collection `json:"collection"`
	MaxResalePrice   int64             `json:"max_resale_price"`
	MinResalePrice   int64             `json:"min_resale_price,omitempty"`
	TicketsRemaining int               `json:"tickets_remaining"`
}

func (e *Engine) Summary(ctx context.Context, collectionID uuid.UUID) (*Summary, error) {
	var collection models.Collection
	err := e.db.WithContext(ctx).Where("id = ?", collectionID).First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Summary{
		Collection:       collection,
		MaxResalePrice:   MaxResalePrice(collection.FaceValue, collection.MaxResalePercent),
		MinResalePrice:   MinResalePrice(collection.FaceValue, collection.MinResalePercent),
		TicketsRemaining: collection.MaxSupply - collection.MintedCount,
	}, nil
}

// TicketInfo is the read-only per-ticket view.
type TicketInfo struct {
	Serial        int       `json:"serial"`
	OwnerID       uuid.UUID `json:"owner_id"`
	OriginalPrice int64     `json:"original_price"`
	LastPricePaid int64     `json:"last_price_paid"`
	CheckedIn     bool      `json:"checked_in"`
	Cancelled     bool      `json:"event_cancelled"`
}

func (e *Engine) TicketInfo(ctx context.Context, collectionID uuid.UUID, serial int) (*TicketInfo, error) {
	var collection models.Collection
	err := e.db.WithContext(ctx).Where("id = ?", collectionID).First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, err
	}
	ticket, err := ticketBySerial(e.db.WithContext(ctx), collectionID, serial)
	if err != nil {
		return nil, err
	}
	return &TicketInfo{
		Serial:        ticket.Serial,
		OwnerID:       ticket.OwnerID,
		OriginalPrice: collection.FaceValue,
		LastPricePaid: ticket.LastPricePaid,
		CheckedIn:     ticket.CheckedIn,
		Cancelled:     collection.Cancelled,
	}, nil
}

// TicketMetadataURI resolves a ticket's descriptive metadata location from
// the collection's base locator and the ticket serial.
func (e *Engine) TicketMetadataURI(ctx context.Context, collectionID uuid.UUID, serial int) (string, error) {
	var collection models.Collection
	err := e.db.WithContext(ctx).Where("id = ?", collectionID).First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrCollectionNotFound
	}
	if err != nil {
		return "", err
	}
	if _, err := ticketBySerial(e.db.WithContext(ctx), collectionID, serial); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", collection.MetadataBaseLocator, serial), nil
}
