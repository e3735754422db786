package repository

import (
	"smartretail-pos/internal/model"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindByID(id uint) (*model.Product, error)
	Update(product *model.Product) error
	SoftDelete(id uint) error
	DecreaseStock(tx *gorm.DB, id uint, qty int) error
	LowStock(threshold int) ([]model.Product, error)
	Count() (int64, error)
	LowStockCount(threshold int) (int64, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

// FindAll returns the active catalog. Soft-deleted rows are filtered out by
// default everywhere except historical joins.
func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("is_deleted = ?", false).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

// SoftDelete keeps the row so past transaction items stay joinable; the
// cleared sync flag tells a future upload the deletion happened locally.
func (r *productRepo) SoftDelete(id uint) error {
	return r.db.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"is_synced":  false,
		}).Error
}

// DecreaseStock runs the arithmetic inside the database engine itself, so
// concurrent checkouts serialize on the statement and no read-modify-write
// race can lose an update. There is deliberately no floor: stock may go
// negative. It accepts the caller's *gorm.DB so it can join the checkout's
// transaction.
func (r *productRepo) DecreaseStock(tx *gorm.DB, id uint, qty int) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock - ?", qty)).Error
}

func (r *productRepo) LowStock(threshold int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.
		Where("is_deleted = ? AND stock < ?", false, threshold).
		Order("stock ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) Count() (int64, error) {
	var n int64
	err := r.db.Model(&model.Product{}).Where("is_deleted = ?", false).Count(&n).Error
	return n, err
}

func (r *productRepo) LowStockCount(threshold int) (int64, error) {
	var n int64
	err := r.db.Model(&model.Product{}).
		Where("is_deleted = ? AND stock < ?", false, threshold).
		Count(&n).Error
	return n, err
}
