package models

import (
	"time"
)

// Notification represents a back-office notification
type Notification struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	CustomerID       uint       `gorm:"not null;index" json:"customer_id"`
	Title            string     `gorm:"not null" json:"title"`
	Message          string     `gorm:"not null" json:"message"`
	NotificationType *string    `gorm:"index" json:"notification_type"`
	ReadAt           *time.Time `gorm:"index" json:"read_at"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Associations
	Customer Customer `gorm:"foreignKey:CustomerID" json:"-"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification type constants
const (
	NotificationTypeObligationOverdue = "obligation_overdue"
	NotificationTypePaymentApplied    = "payment_applied"
	NotificationTypeLeaseActivated    = "lease_activated"
	NotificationTypeLeaseClosed       = "lease_closed"
	NotificationTypeFineAssigned      = "fine_assigned"
	NotificationTypeSystem            = "system"
)

// IsRead returns true if notification has been read
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkAsRead marks the notification as read
func (n *Notification) MarkAsRead() {
	now := time.Now()
	n.ReadAt = &now
}
