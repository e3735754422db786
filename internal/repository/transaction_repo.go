package repository

import (
	"time"

	"smartretail-pos/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository interface {
	Insert(tx *gorm.DB, transaction *model.Transaction) error
	InsertItems(tx *gorm.DB, items []model.TransactionItem) error
	FindAll() ([]model.Transaction, error)
	FindByID(id string) (*model.Transaction, error)
	Items(id string) ([]model.TransactionItem, error)
	ItemsDetail(id string) ([]OrderDetailItem, error)
	FindUnsynced() ([]model.Transaction, error)
	UnsyncedCount() (int64, error)
	MarkSynced(id string) error
	MarkFailed(ids []string) error
	Count() (int64, error)
	TotalRevenue() (int64, error)
	RevenueBetween(start, end time.Time) (int64, error)
	CountBetween(start, end time.Time) (int64, error)
	BestSelling(limit int) ([]BestSellingProduct, error)
	DailyRevenueSince(start time.Time) ([]DailyRevenue, error)
}

// OrderDetailItem is one line of an order-detail view: the stored item joined
// with the product it referenced. Soft-deleted products still resolve here,
// which is the point of soft deletion.
type OrderDetailItem struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"` // unit price at catalog, for display
	Qty       int    `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
}

// BestSellingProduct aggregates sales per product for the dashboard.
type BestSellingProduct struct {
	Name         string `json:"name"`
	TotalQty     int    `json:"total_qty"`
	TotalRevenue int64  `json:"total_revenue"`
}

// DailyRevenue is one point of the revenue trend chart.
type DailyRevenue struct {
	Date    string `json:"date"`
	Revenue int64  `json:"revenue"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

// Insert writes the header through the caller's transaction handle so the
// recorder can commit header, items and stock decrements as one unit.
func (r *transactionRepo) Insert(tx *gorm.DB, transaction *model.Transaction) error {
	return tx.Create(transaction).Error
}

func (r *transactionRepo) InsertItems(tx *gorm.DB, items []model.TransactionItem) error {
	return tx.Create(&items).Error
}

func (r *transactionRepo) FindAll() ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.Order("date DESC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(id string) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.Preload("Items").First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) Items(id string) ([]model.TransactionItem, error) {
	var items []model.TransactionItem
	err := r.db.Where("transaction_id = ?", id).Find(&items).Error
	return items, err
}

// ItemsDetail deliberately does not filter products on is_deleted: receipts
// and order history must keep resolving names for products deleted later.
func (r *transactionRepo) ItemsDetail(id string) ([]OrderDetailItem, error) {
	var items []OrderDetailItem
	err := r.db.Model(&model.TransactionItem{}).
		Select("products.id AS product_id, products.name, products.price, transaction_items.qty, transaction_items.subtotal").
		Joins("INNER JOIN products ON products.id = transaction_items.product_id").
		Where("transaction_items.transaction_id = ?", id).
		Scan(&items).Error
	return items, err
}

// FindUnsynced selects everything not yet confirmed by the server. FAILED
// rows are included: a run that exhausted its retry budget does not remove a
// record from the upload set, the next fresh period offers it again.
func (r *transactionRepo) FindUnsynced() ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.Where("status <> ?", model.StatusSynced).Order("date ASC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) UnsyncedCount() (int64, error) {
	var n int64
	err := r.db.Model(&model.Transaction{}).Where("status <> ?", model.StatusSynced).Count(&n).Error
	return n, err
}

// MarkSynced is an idempotent status flip: re-marking an already synced row
// changes nothing.
func (r *transactionRepo) MarkSynced(id string) error {
	return r.db.Model(&model.Transaction{}).
		Where("id = ?", id).
		Update("status", model.StatusSynced).Error
}

// MarkFailed stamps rows whose sync run ran out of retries. Synced rows are
// never touched.
func (r *transactionRepo) MarkFailed(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Transaction{}).
		Where("id IN ? AND status <> ?", ids, model.StatusSynced).
		Update("status", model.StatusFailed).Error
}

func (r *transactionRepo) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.Transaction{}).Count(&n).Error
	return n, err
}

func (r *transactionRepo) TotalRevenue() (int64, error) {
	var total int64
	err := r.db.Model(&model.Transaction{}).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&total).Error
	return total, err
}

func (r *transactionRepo) RevenueBetween(start, end time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&model.Transaction{}).
		Where("date BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&total).Error
	return total, err
}

func (r *transactionRepo) CountBetween(start, end time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&model.Transaction{}).
		Where("date BETWEEN ? AND ?", start, end).
		Count(&n).Error
	return n, err
}

func (r *transactionRepo) BestSelling(limit int) ([]BestSellingProduct, error) {
	if limit <= 0 {
		limit = 5
	}
	var results []BestSellingProduct
	err := r.db.Model(&model.TransactionItem{}).
		Select("products.name, SUM(transaction_items.qty) AS total_qty, SUM(transaction_items.subtotal) AS total_revenue").
		Joins("INNER JOIN products ON products.id = transaction_items.product_id").
		Group("transaction_items.product_id").
		Order("total_qty DESC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}

func (r *transactionRepo) DailyRevenueSince(start time.Time) ([]DailyRevenue, error) {
	var results []DailyRevenue
	err := r.db.Model(&model.Transaction{}).
		Select("strftime('%Y-%m-%d', date) AS date, SUM(total_price) AS revenue").
		Where("date >= ?", start).
		Group("strftime('%Y-%m-%d', date)").
		Order("date ASC").
		Scan(&results).Error
	return results, err
}
