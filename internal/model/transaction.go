package model

import "time"

type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusSynced  TransactionStatus = "SYNCED"
	// StatusFailed marks a batch whose sync run exhausted its retry budget.
	// Failed rows stay in the unsynced set and are re-offered on the next
	// scheduled period.
	StatusFailed TransactionStatus = "FAILED"
)

// Transaction is one checkout header. The primary key is a UUID string, not
// a sequence number, so records created independently on any device never
// collide when they reach the server.
type Transaction struct {
	ID         string            `gorm:"type:varchar(36);primaryKey" json:"transaction_id"`
	UserID     uint              `gorm:"not null;index" json:"user_id" validate:"required"`
	User       *User             `gorm:"foreignKey:UserID" json:"user,omitempty" validate:"-"`
	TotalPrice int64             `gorm:"not null" json:"total_price"`
	Date       time.Time         `gorm:"not null;index" json:"date"`
	Status     TransactionStatus `gorm:"type:varchar(10);not null;default:PENDING" json:"status"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items,omitempty" validate:"-"`
}

// TransactionItem is one immutable line of a transaction. Subtotal is
// captured at sale time (qty x unit price), never recomputed later.
type TransactionItem struct {
	ID            uint   `gorm:"primaryKey" json:"item_id"`
	TransactionID string `gorm:"type:varchar(36);not null;index" json:"transaction_id"`
	ProductID     uint   `gorm:"not null;index" json:"product_id" validate:"required"`
	Qty           int    `gorm:"not null" json:"qty" validate:"required,gt=0"`
	Subtotal      int64  `gorm:"not null" json:"subtotal"`
}

// CartItem is the checkout input: what the cashier rang up.
type CartItem struct {
	ProductID uint `json:"product_id" validate:"required"`
	Qty       int  `json:"qty" validate:"required,gt=0"`
}
