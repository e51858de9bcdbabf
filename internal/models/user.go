package models

import "gorm.io/gorm"

// Role distinguishes regular shoppers from store administrators.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// User represents a storefront account. The same shape travels over the wire
// as the session user returned by login and verify.
type User struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	FirstName   string `json:"firstName" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	LastName    string `json:"lastName" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Email       string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" gorm:"type:varchar(32)" validate:"omitempty,min=6,max=32"`
	Address     string `json:"address" gorm:"type:varchar(255)" validate:"omitempty,max=255"`
	Role        Role   `json:"role" gorm:"type:varchar(16);default:CUSTOMER" validate:"omitempty,oneof=CUSTOMER ADMIN"`
	Password    string `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	gorm.Model  `json:"-"` // CreatedAt, UpdatedAt, DeletedAt
}

// IsAdmin reports whether the user may access admin-prefixed routes.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
