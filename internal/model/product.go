package model

// Product is a sellable item in the local catalog.
//
// Stock has no floor: the atomic decrement during checkout may drive it
// negative, which low-stock queries must still treat as "low".
// Rows are never physically removed; IsDeleted flags them instead so that
// historical transaction items stay joinable and the server can learn about
// the deletion on a future sync.
type Product struct {
	ID    uint   `gorm:"primaryKey" json:"product_id"`
	Name  string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Price int64  `gorm:"not null;default:0" json:"price" validate:"gte=0"` // minor currency units
	Stock int    `gorm:"not null;default:0" json:"stock"`

	// Offline-first bookkeeping. IsSynced is present in the schema for the
	// upload flow but no consumer reads it yet.
	IsSynced  bool `gorm:"not null;default:false" json:"is_synced"`
	IsDeleted bool `gorm:"not null;default:false;index" json:"is_deleted"`
}
