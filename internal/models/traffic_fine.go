package models

import (
	"time"
)

// TrafficFine is a fine issued against a vehicle plate on a given date.
// Assignment links it to the lease covering that date and materializes a
// traffic-fine obligation for the amount.
type TrafficFine struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	VehicleID    uint       `gorm:"not null;index" json:"vehicle_id"`
	LeaseID      *uint      `gorm:"index" json:"lease_id,omitempty"`
	ObligationID *uint      `gorm:"index" json:"obligation_id,omitempty"`
	Plate        string     `gorm:"size:16;not null;index" json:"plate"`
	Amount       float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	IssuedAt     time.Time  `gorm:"type:date;not null;index" json:"issued_at"`
	Authority    string     `gorm:"size:100" json:"authority"`
	ExternalRef  *string    `gorm:"size:64;index" json:"external_ref,omitempty"`
	Status       string     `gorm:"default:unassigned;not null;index" json:"status"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Associations
	Vehicle Vehicle `gorm:"foreignKey:VehicleID" json:"-"`
	Lease   *Lease  `gorm:"foreignKey:LeaseID" json:"-"`
}

// TableName specifies the table name for TrafficFine
func (TrafficFine) TableName() string {
	return "traffic_fines"
}

// Traffic fine status constants
const (
	FineStatusUnassigned = "unassigned"
	FineStatusAssigned   = "assigned"
	FineStatusOrphaned   = "orphaned" // no lease covered the fine date
)
