package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the single on-device operator account. Created once at first-run
// registration and never deleted through the normal flow: the transactions
// foreign key restricts deletion while sales history references it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"user_id"`
	Username  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username" validate:"required"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	StoreName string    `gorm:"type:varchar(255)" json:"store_name" validate:"required"`
	CreatedAt time.Time `json:"created_at"`

	Transactions []Transaction `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"transactions,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// UserResponse is used for API responses (without the password hash)
type UserResponse struct {
	ID        uint      `json:"user_id"`
	Username  string    `json:"username"`
	StoreName string    `json:"store_name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		StoreName: u.StoreName,
		CreatedAt: u.CreatedAt,
	}
}
