package service

import (
	"errors"

	"smartretail-pos/internal/model"
	"smartretail-pos/internal/repository"
	"smartretail-pos/internal/watch"
	"smartretail-pos/pkg/validator"
)

// DefaultLowStockThreshold is used when the caller does not supply one.
const DefaultLowStockThreshold = 10

var ErrProductNotFound = errors.New("product not found")

// InventoryService is the inventory ledger: every product write in the
// system goes through here, and every write notifies the watch broker so
// subscribed views re-emit.
type InventoryService interface {
	AddProduct(name string, price int64, stock int) (*model.Product, error)
	UpdateProduct(id uint, name string, price int64, stock int) (*model.Product, error)
	SoftDelete(id uint) error
	Products() ([]model.Product, error)
	ProductByID(id uint) (*model.Product, error)
	LowStock(threshold int) ([]model.Product, error)
	ProductCount() (int64, error)
	LowStockCount(threshold int) (int64, error)
}

type inventoryService struct {
	productRepo repository.ProductRepository
	broker      *watch.Broker
}

func NewInventoryService(productRepo repository.ProductRepository, broker *watch.Broker) InventoryService {
	return &inventoryService{
		productRepo: productRepo,
		broker:      broker,
	}
}

// AddProduct inserts a new catalog row. New rows start unsynced and not
// deleted. Beyond the struct tags there is no validation here: the calling
// surface is responsible for rejecting blank or negative input.
func (s *inventoryService) AddProduct(name string, price int64, stock int) (*model.Product, error) {
	product := &model.Product{
		Name:      name,
		Price:     price,
		Stock:     stock,
		IsSynced:  false,
		IsDeleted: false,
	}
	if err := validator.FirstError(validator.ValidateStruct(product)); err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	s.broker.Notify("products")
	return product, nil
}

func (s *inventoryService) UpdateProduct(id uint, name string, price int64, stock int) (*model.Product, error) {
	existing, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	existing.Name = name
	existing.Price = price
	existing.Stock = stock
	existing.IsSynced = false

	if err := validator.FirstError(validator.ValidateStruct(existing)); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(existing); err != nil {
		return nil, err
	}
	s.broker.Notify("products")
	return existing, nil
}

func (s *inventoryService) SoftDelete(id uint) error {
	if _, err := s.productRepo.FindByID(id); err != nil {
		return ErrProductNotFound
	}
	if err := s.productRepo.SoftDelete(id); err != nil {
		return err
	}
	s.broker.Notify("products")
	return nil
}

func (s *inventoryService) Products() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *inventoryService) ProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *inventoryService) LowStock(threshold int) ([]model.Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return s.productRepo.LowStock(threshold)
}

func (s *inventoryService) ProductCount() (int64, error) {
	return s.productRepo.Count()
}

func (s *inventoryService) LowStockCount(threshold int) (int64, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return s.productRepo.LowStockCount(threshold)
}
