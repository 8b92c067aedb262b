package models

import (
	"fmt"
	"time"
)

// Vehicle represents a fleet vehicle available for lease
type Vehicle struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Plate     string    `gorm:"size:16;not null;uniqueIndex" json:"plate"`
	Make      string    `gorm:"size:50;not null" json:"make"`
	Model     string    `gorm:"size:50;not null" json:"model"`
	Year      int       `json:"year"`
	Status    string    `gorm:"default:available;not null;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Vehicle
func (Vehicle) TableName() string {
	return "vehicles"
}

// Vehicle status constants
const (
	VehicleStatusAvailable = "available"
	VehicleStatusLeased    = "leased"
	VehicleStatusRetired   = "retired"
)

// Label returns a short human-readable vehicle description
func (v *Vehicle) Label() string {
	return fmt.Sprintf("%s %s %d (%s)", v.Make, v.Model, v.Year, v.Plate)
}
