package models

import (
	"time"
)

// Customer represents a renting customer
type Customer struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	FullName  string     `gorm:"size:100;not null" json:"full_name"`
	Email     string     `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Phone     string     `gorm:"size:20" json:"phone"`
	Identity  string     `gorm:"size:20;index" json:"identity"`
	Status    string     `gorm:"default:active;not null;index" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"-"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// Customer status constants
const (
	CustomerStatusActive  = "active"
	CustomerStatusBlocked = "blocked"
)

// IsActive returns true if the customer can be contacted
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive && c.DeletedAt == nil
}
