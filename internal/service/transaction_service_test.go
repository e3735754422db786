package service

import (
	"sync"
	"testing"

	"smartretail-pos/internal/model"
	"smartretail-pos/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutRecordsSaleAtomically(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	kopi := seedProduct(t, db, "Kopi Susu", 15000, 20)
	svc, _ := newCheckoutService(t, db)

	tx, err := svc.Checkout(user.ID, []model.CartItem{
		{ProductID: kopi.ID, Qty: 3},
	})
	require.NoError(t, err)
	require.NotEmpty(t, tx.ID)

	assert.Equal(t, int64(45000), tx.TotalPrice)
	assert.Equal(t, model.StatusPending, tx.Status)

	// Stock decremented in the same commit.
	fresh, err := repository.NewProductRepo(db).FindByID(kopi.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, fresh.Stock)

	// Line item captured the price at sale time.
	items, err := repository.NewTransactionRepo(db).Items(tx.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Qty)
	assert.Equal(t, int64(45000), items[0].Subtotal)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	svc, _ := newCheckoutService(t, db)

	_, err := svc.Checkout(user.ID, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.Checkout(user.ID, []model.CartItem{{ProductID: 1, Qty: 0}})
	assert.ErrorIs(t, err, ErrInvalidQty)
}

func TestCheckoutRollsBackOnBadLine(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	kopi := seedProduct(t, db, "Kopi Susu", 15000, 20)
	svc, _ := newCheckoutService(t, db)

	// Second line references a product that does not exist, so the failure
	// happens after the header and first decrement were already written.
	_, err := svc.Checkout(user.ID, []model.CartItem{
		{ProductID: kopi.ID, Qty: 2},
		{ProductID: 9999, Qty: 1},
	})
	require.Error(t, err)

	txRepo := repository.NewTransactionRepo(db)
	count, err := txRepo.Count()
	require.NoError(t, err)
	assert.Zero(t, count, "no header may survive a failed checkout")

	var itemCount int64
	require.NoError(t, db.Model(&model.TransactionItem{}).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	fresh, err := repository.NewProductRepo(db).FindByID(kopi.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, fresh.Stock, "decrement must be rolled back")
}

func TestCheckoutRejectsDeletedProduct(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	kopi := seedProduct(t, db, "Kopi Susu", 15000, 20)
	require.NoError(t, repository.NewProductRepo(db).SoftDelete(kopi.ID))
	svc, _ := newCheckoutService(t, db)

	_, err := svc.Checkout(user.ID, []model.CartItem{{ProductID: kopi.ID, Qty: 1}})
	assert.Error(t, err)
}

func TestConcurrentCheckoutsMayOversell(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	teh := seedProduct(t, db, "Teh Botol", 5000, 8)
	svc, _ := newCheckoutService(t, db)

	// Two cashiers sell 5 each from a stock of 8. Both sales must succeed
	// and both decrements must land; stock going negative is accepted.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(user.ID, []model.CartItem{{ProductID: teh.ID, Qty: 5}})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	fresh, err := repository.NewProductRepo(db).FindByID(teh.ID)
	require.NoError(t, err)
	assert.Equal(t, -2, fresh.Stock)
}

func TestItemsDetailSurvivesProductDeletion(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	kopi := seedProduct(t, db, "Kopi Susu", 15000, 20)
	svc, _ := newCheckoutService(t, db)

	tx, err := svc.Checkout(user.ID, []model.CartItem{{ProductID: kopi.ID, Qty: 2}})
	require.NoError(t, err)

	productRepo := repository.NewProductRepo(db)
	require.NoError(t, productRepo.SoftDelete(kopi.ID))

	// Gone from the catalog list...
	products, err := productRepo.FindAll()
	require.NoError(t, err)
	assert.Empty(t, products)

	// ...but old receipts still resolve the product name.
	detail, err := svc.ItemsDetail(tx.ID)
	require.NoError(t, err)
	require.Len(t, detail, 1)
	assert.Equal(t, "Kopi Susu", detail[0].Name)
}

func TestCheckoutNotifiesWatchers(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	kopi := seedProduct(t, db, "Kopi Susu", 15000, 20)
	svc, broker := newCheckoutService(t, db)

	sub := broker.Subscribe("transactions", []string{"transactions"}, func() (interface{}, error) {
		return repository.NewTransactionRepo(db).FindAll()
	})
	defer sub.Close()

	// Initial snapshot is empty.
	first := <-sub.Updates()
	assert.Empty(t, first.Data)

	_, err := svc.Checkout(user.ID, []model.CartItem{{ProductID: kopi.ID, Qty: 1}})
	require.NoError(t, err)

	second := <-sub.Updates()
	txs, ok := second.Data.([]model.Transaction)
	require.True(t, ok)
	assert.Len(t, txs, 1)
}
