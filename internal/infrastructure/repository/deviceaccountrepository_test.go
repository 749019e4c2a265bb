package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fredylg/ReefBuddy-sub001/internal/domain/credit"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/purchase"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/persistence/models"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

var testDBCounter int

func setupTestDB(t *testing.T) *gorm.DB {
	testDBCounter++
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared&_busy_timeout=5000", testDBCounter)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A shared-cache memory database disappears when the last connection
	// closes, so hold exactly one.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.DeviceAccountModel{},
		&models.CreditReservationModel{},
		&models.PurchaseTransactionModel{},
	))

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func newTestRepo(t *testing.T, freeLimit int) credit.Repository {
	return NewDeviceAccountRepository(setupTestDB(t), freeLimit, logger.NewNop())
}

func TestGetOrCreate_NewDevice(t *testing.T) {
	repo := newTestRepo(t, 3)
	ctx := context.Background()

	account, err := repo.GetOrCreate(ctx, "device-new")
	require.NoError(t, err)

	assert.Equal(t, 3, account.FreeLimit())
	assert.Equal(t, 0, account.FreeUsed())
	assert.Equal(t, 0, account.PaidCredits())
	assert.Equal(t, 0, account.TotalAnalyses())
	assert.Equal(t, 3, account.Available())
}

func TestGetOrCreate_ExistingDevice(t *testing.T) {
	repo := newTestRepo(t, 3)
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "device-a")
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, "device-a")
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
}

func TestGetOrCreate_InvalidDeviceID(t *testing.T) {
	repo := newTestRepo(t, 3)

	_, err := repo.GetOrCreate(context.Background(), "")
	assert.ErrorIs(t, err, credit.ErrDeviceIDRequired)
}

func TestAuthorizeAndReserve_ConsumeFreeThenPaid(t *testing.T) {
	repo := newTestRepo(t, 2)
	ctx := context.Background()

	require.NoError(t, repo.ApplyPurchase(ctx, "device-a", "txn-1", "txn-1", "com.reefbuddy.credits.5", 1, []byte("blob")))

	// Two free units then one paid unit.
	for i := 0; i < 3; i++ {
		reservation, err := repo.AuthorizeAndReserve(ctx, "device-a", 5*time.Minute)
		require.NoError(t, err)
		require.NoError(t, repo.Settle(ctx, reservation.ID(), credit.OutcomeConsumed))
	}

	account, err := repo.GetOrCreate(ctx, "device-a")
	require.NoError(t, err)
	assert.Equal(t, 2, account.FreeUsed(), "free allowance consumed first")
	assert.Equal(t, 0, account.PaidCredits(), "paid pool consumed after free")
	assert.Equal(t, 3, account.TotalAnalyses())
	assert.Equal(t, 0, account.Available())

	_, err = repo.AuthorizeAndReserve(ctx, "device-a", 5*time.Minute)
	assert.ErrorIs(t, err, credit.ErrInsufficientCredit)
}

func TestAuthorizeAndReserve_ConcurrentLastUnit(t *testing.T) {
	repo := newTestRepo(t, 1)
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "device-race")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AuthorizeAndReserve(ctx, "device-race", 5*time.Minute)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	granted := 0
	for err := range results {
		if err == nil {
			granted++
		} else {
			assert.ErrorIs(t, err, credit.ErrInsufficientCredit)
		}
	}
	assert.Equal(t, 1, granted, "exactly one request may win the last unit")
}

func TestSettle_Idempotent(t *testing.T) {
	repo := newTestRepo(t, 3)
	ctx := context.Background()

	reservation, err := repo.AuthorizeAndReserve(ctx, "device-a", 5*time.Minute)
	require.NoError(t, err)

	require.NoError(t, repo.Settle(ctx, reservation.ID(), credit.OutcomeConsumed))
	require.NoError(t, repo.Settle(ctx, reservation.ID(), credit.OutcomeConsumed))
	require.NoError(t, repo.Settle(ctx, reservation.ID(), credit.OutcomeReleased))

	account, err := repo.GetOrCreate(ctx, "device-a")
	require.NoError(t, err)
	assert.Equal(t, 1, account.FreeUsed(), "repeated settles must not double-charge")
	assert.Equal(t, 1, account.TotalAnalyses())
	assert.Equal(t, 0, account.Reserved())
}

func TestSettle_ReleasedLeavesBalance(t *testing.T) {
	repo := newTestRepo(t, 3)
	ctx := context.Background()

	reservation, err := repo.AuthorizeAndReserve(ctx, "device-a", 5*time.Minute)
	require.NoError(t, err)
	require.NoError(t, repo.Settle(ctx, reservation.ID(), credit.OutcomeReleased))

	account, err := repo.GetOrCreate(ctx, "device-a")
	require.NoError(t, err)
	assert.Equal(t, 0, account.FreeUsed())
	assert.Equal(t, 0, account.TotalAnalyses())
	assert.Equal(t, 3, account.Available())
}

func TestSettle_UnknownReservation(t *testing.T) {
	repo := newTestRepo(t, 3)

	err := repo.Settle(context.Background(), "rsv_missing", credit.OutcomeConsumed)
	assert.ErrorIs(t, err, credit.ErrReservationNotFound)
}

func TestReleaseExpired(t *testing.T) {
	repo := newTestRepo(t, 3)
	ctx := context.Background()

	short, err := repo.AuthorizeAndReserve(ctx, "device-a", 10*time.Millisecond)
	require.NoError(t, err)
	_, err = repo.AuthorizeAndReserve(ctx, "device-a", time.Hour)
	require.NoError(t, err)

	released, err := repo.ReleaseExpired(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, released, "only the expired hold is released")

	// The released reservation is terminal; settling it again changes nothing.
	require.NoError(t, repo.Settle(ctx, short.ID(), credit.OutcomeConsumed))

	account, err := repo.GetOrCreate(ctx, "device-a")
	require.NoError(t, err)
	assert.Equal(t, 1, account.Reserved())
	assert.Equal(t, 0, account.FreeUsed())
}

func TestApplyPurchase(t *testing.T) {
	repo := newTestRepo(t, 3)
	ctx := context.Background()

	err := repo.ApplyPurchase(ctx, "device-a", "txn-100", "txn-100", "com.reefbuddy.credits.5", 5, []byte("encrypted"))
	require.NoError(t, err)

	account, err := repo.GetOrCreate(ctx, "device-a")
	require.NoError(t, err)
	assert.Equal(t, 5, account.PaidCredits())
	assert.Equal(t, 8, account.TotalCredits())
}

func TestApplyPurchase_DuplicateTransactionID(t *testing.T) {
	repo := newTestRepo(t, 3)
	ctx := context.Background()

	require.NoError(t, repo.ApplyPurchase(ctx, "device-a", "txn-100", "txn-100", "com.reefbuddy.credits.5", 5, []byte("encrypted")))

	err := repo.ApplyPurchase(ctx, "device-a", "txn-100", "txn-100", "com.reefbuddy.credits.5", 5, []byte("encrypted"))
	assert.ErrorIs(t, err, purchase.ErrAlreadyApplied)

	account, err := repo.GetOrCreate(ctx, "device-a")
	require.NoError(t, err)
	assert.Equal(t, 5, account.PaidCredits(), "duplicate must credit exactly once")
}
