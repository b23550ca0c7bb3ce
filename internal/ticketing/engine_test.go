package ticketing

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fairtix/fairtix/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection so every session sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Account{},
		&models.Collection{},
		&models.Ticket{},
		&models.Transfer{},
		&models.PlatformTreasury{},
	)
	require.NoError(t, err)

	return db
}

func newTestUser(t *testing.T, db *gorm.DB, balance int64) uuid.UUID {
	t.Helper()

	user := models.User{
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()),
		Password: "hashed",
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Account{UserID: user.ID, Balance: balance}).Error)
	return user.ID
}

func balanceOf(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()

	var account models.Account
	require.NoError(t, db.Where("user_id = ?", userID).First(&account).Error)
	return account.Balance
}

func createCollection(t *testing.T, db *gorm.DB, organizer uuid.UUID, opts ...func(*models.Collection)) *models.Collection {
	t.Helper()

	collection := &models.Collection{
		Name:                "Test Event",
		Symbol:              "TST",
		OrganizerID:         organizer,
		FaceValue:           100,
		MaxSupply:           10,
		MaxResalePercent:    150,
		OrganizerFeePercent: 10,
		MetadataBaseLocator: "https://tickets.example.com/meta/",
	}
	for _, opt := range opts {
		opt(collection)
	}
	require.NoError(t, db.Create(collection).Error)
	return collection
}

func reloadCollection(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Collection {
	t.Helper()

	var collection models.Collection
	require.NoError(t, db.Where("id = ?", id).First(&collection).Error)
	return &collection
}

func TestMint(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	buyer := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer)

	ticket, err := engine.Mint(ctx, collection.ID, buyer, 100)
	require.NoError(t, err)

	assert.Equal(t, 1, ticket.Serial)
	assert.Equal(t, buyer, ticket.OwnerID)
	assert.Equal(t, int64(100), ticket.LastPricePaid)
	assert.False(t, ticket.CheckedIn)

	// Payment lands in the retained balance, not the organizer's wallet.
	assert.Equal(t, int64(900), balanceOf(t, db, buyer))
	assert.Equal(t, int64(0), balanceOf(t, db, organizer))

	reloaded := reloadCollection(t, db, collection.ID)
	assert.Equal(t, 1, reloaded.MintedCount)
	assert.Equal(t, 1, reloaded.CirculatingSupply)
	assert.Equal(t, int64(100), reloaded.RetainedBalance)

	var transfer models.Transfer
	require.NoError(t, db.Where("kind = ?", models.TransferMint).First(&transfer).Error)
	assert.Equal(t, int64(100), transfer.Amount)
}

func TestMint_ExactPaymentRequired(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	buyer := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer)

	// Overpayment is rejected outright, never partially refunded.
	_, err := engine.Mint(ctx, collection.ID, buyer, 101)
	assert.ErrorIs(t, err, ErrIncorrectPayment)

	_, err = engine.Mint(ctx, collection.ID, buyer, 99)
	assert.ErrorIs(t, err, ErrIncorrectPayment)

	assert.Equal(t, int64(1000), balanceOf(t, db, buyer))
	assert.Equal(t, 0, reloadCollection(t, db, collection.ID).MintedCount)
}

func TestMint_SupplyBound(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	buyer := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer, func(c *models.Collection) {
		c.MaxSupply = 2
	})

	first, err := engine.Mint(ctx, collection.ID, buyer, 100)
	require.NoError(t, err)
	second, err := engine.Mint(ctx, collection.ID, buyer, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Serial)
	assert.Equal(t, 2, second.Serial)

	_, err = engine.Mint(ctx, collection.ID, buyer, 100)
	assert.ErrorIs(t, err, ErrEventSoldOut)
	assert.Equal(t, 2, reloadCollection(t, db, collection.ID).MintedCount)
}

func TestMint_InsufficientFundsRollsBack(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	buyer := newTestUser(t, db, 50)
	collection := createCollection(t, db, organizer)

	_, err := engine.Mint(ctx, collection.ID, buyer, 100)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The ticket write from before the failed debit must be gone.
	reloaded := reloadCollection(t, db, collection.ID)
	assert.Equal(t, 0, reloaded.MintedCount)
	assert.Equal(t, int64(0), reloaded.RetainedBalance)

	var count int64
	require.NoError(t, db.Model(&models.Ticket{}).Where("collection_id = ?", collection.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMint_PerUserLimit(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	buyer := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer, func(c *models.Collection) {
		c.MaxMintPerUser = 2
	})

	_, err := engine.Mint(ctx, collection.ID, buyer, 100)
	require.NoError(t, err)
	_, err = engine.Mint(ctx, collection.ID, buyer, 100)
	require.NoError(t, err)

	_, err = engine.Mint(ctx, collection.ID, buyer, 100)
	assert.ErrorIs(t, err, ErrMintLimitReached)
}

// Full lifecycle: mint at 100, resell at the 150 cap with a 10 percent
// organizer fee, reject 151, refund at face value, reject a second refund.
func TestResaleRefundScenario(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	bob := newTestUser(t, db, 1000)
	carol := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer, func(c *models.Collection) {
		c.MaxSupply = 2
	})

	ticket, err := engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)
	require.Equal(t, 1, ticket.Serial)

	// Bob buys at the cap: fee 15 to the organizer, 135 to Alice.
	require.NoError(t, engine.Resale(ctx, collection.ID, 1, bob, 150, 150))

	assert.Equal(t, int64(1035), balanceOf(t, db, alice))
	assert.Equal(t, int64(850), balanceOf(t, db, bob))
	assert.Equal(t, int64(15), balanceOf(t, db, organizer))

	info, err := engine.TicketInfo(ctx, collection.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, bob, info.OwnerID)
	assert.Equal(t, int64(150), info.LastPricePaid)
	assert.Equal(t, int64(100), info.OriginalPrice)

	// One cent over the cap is rejected, never partially applied.
	err = engine.Resale(ctx, collection.ID, 1, carol, 151, 151)
	assert.ErrorIs(t, err, ErrExceedsResaleCap)
	assert.Equal(t, int64(1000), balanceOf(t, db, carol))

	// Bob paid 150 but gets the face value back, not his purchase price.
	require.NoError(t, engine.Refund(ctx, collection.ID, 1, bob))
	assert.Equal(t, int64(950), balanceOf(t, db, bob))

	reloaded := reloadCollection(t, db, collection.ID)
	assert.Equal(t, int64(0), reloaded.RetainedBalance)
	assert.Equal(t, 0, reloaded.CirculatingSupply)
	assert.Equal(t, 1, reloaded.MintedCount)

	err = engine.Refund(ctx, collection.ID, 1, bob)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestResale_Validation(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	bob := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer)

	_, err := engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)

	tests := []struct {
		name    string
		serial  int
		buyer   uuid.UUID
		price   int64
		payment int64
		want    error
	}{
		{"zero price", 1, bob, 0, 0, ErrIncorrectPayment},
		{"payment mismatch", 1, bob, 120, 100, ErrIncorrectPayment},
		{"unknown serial", 99, bob, 120, 120, ErrTicketNotFound},
		{"own ticket", 1, alice, 120, 120, ErrCannotBuyOwnTicket},
		{"above cap", 1, bob, 151, 151, ErrExceedsResaleCap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Resale(ctx, collection.ID, tt.serial, tt.buyer, tt.price, tt.payment)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// Nothing above may have moved money or ownership.
	assert.Equal(t, int64(1000), balanceOf(t, db, bob))
	info, err := engine.TicketInfo(ctx, collection.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, alice, info.OwnerID)
}

func TestResale_PriceFloor(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	bob := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer, func(c *models.Collection) {
		c.MinResalePercent = 80
	})

	_, err := engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)

	err = engine.Resale(ctx, collection.ID, 1, bob, 79, 79)
	assert.ErrorIs(t, err, ErrBelowResaleFloor)

	require.NoError(t, engine.Resale(ctx, collection.ID, 1, bob, 80, 80))
}

func TestResale_BuyerCannotPayRollsBack(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	bob := newTestUser(t, db, 10)
	collection := createCollection(t, db, organizer)

	_, err := engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)

	err = engine.Resale(ctx, collection.ID, 1, bob, 150, 150)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The ownership change committed before the payout must be rolled
	// back with the rest of the transaction.
	info, err := engine.TicketInfo(ctx, collection.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, alice, info.OwnerID)
	assert.Equal(t, int64(100), info.LastPricePaid)
	assert.Equal(t, int64(900), balanceOf(t, db, alice))
}

func TestRefund_Validation(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	bob := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer)

	_, err := engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)

	err = engine.Refund(ctx, collection.ID, 1, bob)
	assert.ErrorIs(t, err, ErrNotTicketOwner)

	err = engine.Refund(ctx, collection.ID, 99, alice)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	// A drained retained balance fails the refund closed instead of
	// paying out partially.
	require.NoError(t, db.Model(collection).Update("retained_balance", 10).Error)
	err = engine.Refund(ctx, collection.ID, 1, alice)
	assert.ErrorIs(t, err, ErrInsufficientContractBalance)
	assert.Equal(t, int64(900), balanceOf(t, db, alice))
}

func TestCheckIn_LocksTicket(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	bob := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer)

	_, err := engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)

	err = engine.CheckIn(ctx, collection.ID, 1, alice)
	assert.ErrorIs(t, err, ErrNotOrganizer)

	require.NoError(t, engine.CheckIn(ctx, collection.ID, 1, organizer))

	err = engine.CheckIn(ctx, collection.ID, 1, organizer)
	assert.ErrorIs(t, err, ErrTicketAlreadyUsed)

	err = engine.Resale(ctx, collection.ID, 1, bob, 120, 120)
	assert.ErrorIs(t, err, ErrTicketAlreadyUsed)

	err = engine.Refund(ctx, collection.ID, 1, alice)
	assert.ErrorIs(t, err, ErrTicketAlreadyUsed)
}

func TestCancelEvent(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	bob := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer, func(c *models.Collection) {
		c.MaxSupply = 2
	})

	_, err := engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)
	_, err = engine.Mint(ctx, collection.ID, bob, 100)
	require.NoError(t, err)

	// Claiming a cancellation refund before any cancellation is rejected.
	err = engine.CancelRefund(ctx, collection.ID, 1, alice)
	assert.ErrorIs(t, err, ErrEventNotCancelled)

	err = engine.CancelEvent(ctx, collection.ID, alice, "venue closed")
	assert.ErrorIs(t, err, ErrNotOrganizer)

	err = engine.CancelEvent(ctx, collection.ID, organizer, "  ")
	assert.ErrorIs(t, err, ErrEmptyCancellationReason)

	require.NoError(t, engine.CancelEvent(ctx, collection.ID, organizer, "venue closed"))

	err = engine.CancelEvent(ctx, collection.ID, organizer, "again")
	assert.ErrorIs(t, err, ErrEventAlreadyCancelled)

	// The latch blocks mint and resale but not cancellation refunds.
	_, err = engine.Mint(ctx, collection.ID, bob, 100)
	assert.ErrorIs(t, err, ErrEventCancelled)

	err = engine.Resale(ctx, collection.ID, 1, bob, 120, 120)
	assert.ErrorIs(t, err, ErrEventCancelled)

	err = engine.Refund(ctx, collection.ID, 1, alice)
	assert.ErrorIs(t, err, ErrEventCancelled)

	require.NoError(t, engine.CancelRefund(ctx, collection.ID, 2, bob))
	assert.Equal(t, int64(1000), balanceOf(t, db, bob))

	err = engine.CancelRefund(ctx, collection.ID, 2, bob)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

// Once an event is cancelled even a checked-in ticket can be refunded; the
// check-in lock only applies to the standard paths.
func TestCancelRefund_AcceptsCheckedInTickets(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer)

	_, err := engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)
	require.NoError(t, engine.CheckIn(ctx, collection.ID, 1, organizer))
	require.NoError(t, engine.CancelEvent(ctx, collection.ID, organizer, "venue closed"))

	require.NoError(t, engine.CancelRefund(ctx, collection.ID, 1, alice))
	assert.Equal(t, int64(1000), balanceOf(t, db, alice))
}

func TestSetMetadataLocator(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer)

	err := engine.SetMetadataLocator(ctx, collection.ID, alice, "https://new.example.com/")
	assert.ErrorIs(t, err, ErrNotOrganizer)

	err = engine.SetMetadataLocator(ctx, collection.ID, organizer, "")
	assert.ErrorIs(t, err, ErrEmptyMetadataLocator)

	err = engine.SetMetadataLocator(ctx, collection.ID, organizer, collection.MetadataBaseLocator)
	assert.ErrorIs(t, err, ErrMetadataLocatorUnchanged)

	require.NoError(t, engine.SetMetadataLocator(ctx, collection.ID, organizer, "https://new.example.com/"))

	_, err = engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)

	uri, err := engine.TicketMetadataURI(ctx, collection.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com/1", uri)
}

func TestSummary(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	organizer := newTestUser(t, db, 0)
	alice := newTestUser(t, db, 1000)
	collection := createCollection(t, db, organizer, func(c *models.Collection) {
		c.MaxSupply = 5
	})

	_, err := engine.Mint(ctx, collection.ID, alice, 100)
	require.NoError(t, err)

	summary, err := engine.Summary(ctx, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(150), summary.MaxResalePrice)
	assert.Equal(t, 4, summary.TicketsRemaining)
	assert.Equal(t, 1, summary.Collection.CirculatingSupply)
	assert.False(t, summary.Collection.Cancelled)

	_, err = engine.Summary(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}
