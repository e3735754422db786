package service

import (
	"testing"

	"smartretail-pos/internal/model"
	"smartretail-pos/internal/repository"
	"smartretail-pos/internal/watch"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database. The pool is pinned to one
// connection because every sqlite :memory: connection is its own database.
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

func seedUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	user := &model.User{Username: "kasir", StoreName: "Warung Tester"}
	require.NoError(t, user.SetPassword("rahasia1"))
	require.NoError(t, repository.NewUserRepo(db).Create(user))
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, stock int) *model.Product {
	t.Helper()

	product := &model.Product{Name: name, Price: price, Stock: stock}
	require.NoError(t, repository.NewProductRepo(db).Create(product))
	return product
}

func newCheckoutService(t *testing.T, db *gorm.DB) (TransactionService, *watch.Broker) {
	t.Helper()

	broker := watch.NewBroker()
	svc := NewTransactionService(
		db,
		repository.NewTransactionRepo(db),
		repository.NewProductRepo(db),
		broker,
	)
	return svc, broker
}
