package repository

import (
	"testing"
	"time"

	"smartretail-pos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Transaction{},
		&model.TransactionItem{},
	))

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type saleSpec struct {
	product *model.Product
	qty     int
	date    time.Time
	status  model.TransactionStatus
}

func seedSale(t *testing.T, db *gorm.DB, userID uint, spec saleSpec) *model.Transaction {
	t.Helper()

	subtotal := int64(spec.qty) * spec.product.Price
	tx := &model.Transaction{
		ID:         uuid.NewString(),
		UserID:     userID,
		TotalPrice: subtotal,
		Date:       spec.date,
		Status:     spec.status,
	}
	require.NoError(t, db.Create(tx).Error)
	require.NoError(t, db.Create(&model.TransactionItem{
		TransactionID: tx.ID,
		ProductID:     spec.product.ID,
		Qty:           spec.qty,
		Subtotal:      subtotal,
	}).Error)
	return tx
}

func seedCatalog(t *testing.T, db *gorm.DB) (uint, *model.Product, *model.Product) {
	t.Helper()

	user := &model.User{Username: "kasir", Password: "x", StoreName: "Warung Tester"}
	require.NoError(t, db.Create(user).Error)
	kopi := &model.Product{Name: "Kopi Susu", Price: 15000, Stock: 100}
	teh := &model.Product{Name: "Teh Botol", Price: 5000, Stock: 100}
	require.NoError(t, db.Create(kopi).Error)
	require.NoError(t, db.Create(teh).Error)
	return user.ID, kopi, teh
}

func TestFindUnsyncedIncludesFailedOldestFirst(t *testing.T) {
	db := newTestDB(t)
	userID, kopi, _ := seedCatalog(t, db)
	repo := NewTransactionRepo(db)

	now := time.Now()
	seedSale(t, db, userID, saleSpec{kopi, 1, now.Add(-3 * time.Hour), model.StatusSynced})
	failed := seedSale(t, db, userID, saleSpec{kopi, 1, now.Add(-2 * time.Hour), model.StatusFailed})
	pending := seedSale(t, db, userID, saleSpec{kopi, 1, now.Add(-1 * time.Hour), model.StatusPending})

	unsynced, err := repo.FindUnsynced()
	require.NoError(t, err)
	require.Len(t, unsynced, 2)
	assert.Equal(t, failed.ID, unsynced[0].ID, "oldest first")
	assert.Equal(t, pending.ID, unsynced[1].ID)

	n, err := repo.UnsyncedCount()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMarkSyncedIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	userID, kopi, _ := seedCatalog(t, db)
	repo := NewTransactionRepo(db)

	sale := seedSale(t, db, userID, saleSpec{kopi, 1, time.Now(), model.StatusPending})

	require.NoError(t, repo.MarkSynced(sale.ID))
	require.NoError(t, repo.MarkSynced(sale.ID))

	fresh, err := repo.FindByID(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, fresh.Status)
}

func TestMarkFailedNeverTouchesSyncedRows(t *testing.T) {
	db := newTestDB(t)
	userID, kopi, _ := seedCatalog(t, db)
	repo := NewTransactionRepo(db)

	synced := seedSale(t, db, userID, saleSpec{kopi, 1, time.Now(), model.StatusSynced})
	pending := seedSale(t, db, userID, saleSpec{kopi, 1, time.Now(), model.StatusPending})

	require.NoError(t, repo.MarkFailed([]string{synced.ID, pending.ID}))
	require.NoError(t, repo.MarkFailed(nil))

	fresh, err := repo.FindByID(synced.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSynced, fresh.Status, "a confirmed upload can never regress")

	fresh, err = repo.FindByID(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, fresh.Status)
}

func TestRevenueAggregates(t *testing.T) {
	db := newTestDB(t)
	userID, kopi, teh := seedCatalog(t, db)
	repo := NewTransactionRepo(db)

	today := time.Now()
	yesterday := today.AddDate(0, 0, -1)

	seedSale(t, db, userID, saleSpec{kopi, 2, yesterday, model.StatusSynced}) // 30000
	seedSale(t, db, userID, saleSpec{kopi, 1, today, model.StatusPending})    // 15000
	seedSale(t, db, userID, saleSpec{teh, 4, today, model.StatusPending})     // 20000

	total, err := repo.TotalRevenue()
	require.NoError(t, err)
	assert.Equal(t, int64(65000), total)

	startOfDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	todayRevenue, err := repo.RevenueBetween(startOfDay, startOfDay.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(35000), todayRevenue)

	todayCount, err := repo.CountBetween(startOfDay, startOfDay.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), todayCount)
}

func TestBestSellingOrdersByQuantity(t *testing.T) {
	db := newTestDB(t)
	userID, kopi, teh := seedCatalog(t, db)
	repo := NewTransactionRepo(db)

	seedSale(t, db, userID, saleSpec{kopi, 2, time.Now(), model.StatusSynced})
	seedSale(t, db, userID, saleSpec{teh, 5, time.Now(), model.StatusSynced})
	seedSale(t, db, userID, saleSpec{teh, 3, time.Now(), model.StatusPending})

	best, err := repo.BestSelling(5)
	require.NoError(t, err)
	require.Len(t, best, 2)
	assert.Equal(t, "Teh Botol", best[0].Name)
	assert.Equal(t, 8, best[0].TotalQty)
	assert.Equal(t, int64(40000), best[0].TotalRevenue)
	assert.Equal(t, "Kopi Susu", best[1].Name)
}

func TestTotalRevenueOnEmptyStore(t *testing.T) {
	db := newTestDB(t)
	repo := NewTransactionRepo(db)

	total, err := repo.TotalRevenue()
	require.NoError(t, err)
	assert.Zero(t, total)
}
