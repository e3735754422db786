package service

import (
	"errors"
	"fmt"
	"time"

	"smartretail-pos/internal/model"
	"smartretail-pos/internal/repository"
	"smartretail-pos/internal/watch"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart  = errors.New("cart is empty")
	ErrInvalidQty = errors.New("quantity must be greater than zero")
)

// TransactionService is the transaction recorder. Checkout is the strongest
// consistency point in the system: header, items and stock decrements commit
// or roll back as one unit.
type TransactionService interface {
	Checkout(userID uint, cart []model.CartItem) (*model.Transaction, error)
	Transactions() ([]model.Transaction, error)
	TransactionByID(id string) (*model.Transaction, error)
	ItemsDetail(id string) ([]repository.OrderDetailItem, error)
}

type transactionService struct {
	db          *gorm.DB
	txRepo      repository.TransactionRepository
	productRepo repository.ProductRepository
	broker      *watch.Broker
}

func NewTransactionService(
	db *gorm.DB,
	txRepo repository.TransactionRepository,
	productRepo repository.ProductRepository,
	broker *watch.Broker,
) TransactionService {
	return &transactionService{
		db:          db,
		txRepo:      txRepo,
		productRepo: productRepo,
		broker:      broker,
	}
}

// Checkout writes the transaction header, all line items and every stock
// decrement inside a single database transaction. A failure at any point,
// including a product that turns out to be missing or deleted, rolls the
// whole sale back: no reader ever observes a header without its decrements.
//
// Subtotals are captured at sale time from the product's current price and
// never recomputed. The decrement is plain arithmetic in the database; stock
// may go negative when concurrent sales outrun supply.
func (s *transactionService) Checkout(userID uint, cart []model.CartItem) (*model.Transaction, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range cart {
		if line.Qty <= 0 {
			return nil, ErrInvalidQty
		}
	}

	header := &model.Transaction{
		ID:     uuid.NewString(),
		UserID: userID,
		Date:   time.Now(),
		Status: model.StatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.txRepo.Insert(tx, header); err != nil {
			return err
		}

		var total int64
		for _, line := range cart {
			var product model.Product
			if err := tx.First(&product, "id = ? AND is_deleted = ?", line.ProductID, false).Error; err != nil {
				return fmt.Errorf("product %d unavailable: %w", line.ProductID, err)
			}

			item := model.TransactionItem{
				TransactionID: header.ID,
				ProductID:     product.ID,
				Qty:           line.Qty,
				Subtotal:      int64(line.Qty) * product.Price,
			}
			if err := s.txRepo.InsertItems(tx, []model.TransactionItem{item}); err != nil {
				return err
			}
			if err := s.productRepo.DecreaseStock(tx, product.ID, line.Qty); err != nil {
				return err
			}
			total += item.Subtotal
		}

		header.TotalPrice = total
		return tx.Model(&model.Transaction{}).
			Where("id = ?", header.ID).
			Update("total_price", total).Error
	})
	if err != nil {
		return nil, err
	}

	s.broker.Notify("transactions", "products")
	return header, nil
}

func (s *transactionService) Transactions() ([]model.Transaction, error) {
	return s.txRepo.FindAll()
}

func (s *transactionService) TransactionByID(id string) (*model.Transaction, error) {
	return s.txRepo.FindByID(id)
}

func (s *transactionService) ItemsDetail(id string) ([]repository.OrderDetailItem, error) {
	return s.txRepo.ItemsDetail(id)
}
