package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Actor     string    `gorm:"size:100;not null" json:"actor"`
	Action    string    `gorm:"size:50;not null" json:"action"` // RECONCILE, ALLOCATE, ASSIGN_FINE, ...
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Lease, PaymentObligation, TrafficFine
	EntityID  uint      `json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
