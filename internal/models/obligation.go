package models

import (
	"time"
)

// PaymentObligation is one expected charge tied to a lease and a calendar
// month: the monthly rent, a late fee, an overpayment remainder or an
// additional payment. Its nominal due date buckets it to "its" month.
type PaymentObligation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	LeaseID       uint       `gorm:"not null;index" json:"lease_id"`
	Amount        float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaidAmount    *float64   `gorm:"type:decimal(15,2);default:0" json:"paid_amount"`
	Balance       float64    `gorm:"type:decimal(15,2);default:0" json:"balance"`
	DueDate       *time.Time `gorm:"type:date;index" json:"due_date"`
	PaymentDate   *time.Time `gorm:"type:date" json:"payment_date"`
	PaymentMethod *string    `gorm:"size:50" json:"payment_method,omitempty"`
	Status        string     `gorm:"default:pending;not null;index" json:"status"`
	Type          string     `gorm:"default:rent;not null;index" json:"type"`
	DaysOverdue   int        `gorm:"default:0" json:"days_overdue"`
	LateFeeAmount float64    `gorm:"type:decimal(10,2);default:0" json:"late_fee_amount"`
	Description   *string    `gorm:"type:text" json:"description,omitempty"`
	ReferenceID   *string    `gorm:"size:64;index" json:"reference_id,omitempty"`
	TransactionID *string    `gorm:"size:64" json:"transaction_id,omitempty"`
	ReceiptPath   *string    `json:"-"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`

	// Associations
	Lease Lease `gorm:"foreignKey:LeaseID" json:"-"`
}

// TableName specifies the table name for PaymentObligation
func (PaymentObligation) TableName() string {
	return "payment_obligations"
}

// Obligation status constants. "paid" is the canonical terminal status;
// "completed" is a legacy alias accepted on input and normalized by
// NormalizeStatus.
const (
	ObligationStatusPending       = "pending"
	ObligationStatusOverdue       = "overdue"
	ObligationStatusPartiallyPaid = "partially_paid"
	ObligationStatusPaid          = "paid"
	ObligationStatusCompleted     = "completed"
)

// Obligation type constants
const (
	ObligationTypeRent       = "rent"
	ObligationTypeAdditional = "additional_payment"
	ObligationTypeOverpay    = "overpayment"
	ObligationTypeLateFee    = "late_fee"
	ObligationTypeFine       = "traffic_fine"
)

// NormalizeStatus maps legacy status aliases onto the canonical set
func NormalizeStatus(status string) string {
	if status == ObligationStatusCompleted {
		return ObligationStatusPaid
	}
	return status
}

// StatusRank orders statuses for duplicate resolution; lower rank means the
// record carries more settled payment state and wins the bucket.
func StatusRank(status string) int {
	switch NormalizeStatus(status) {
	case ObligationStatusPaid:
		return 0
	case ObligationStatusPartiallyPaid:
		return 1
	case ObligationStatusOverdue:
		return 2
	case ObligationStatusPending:
		return 3
	default:
		return 4
	}
}

// PaidValue returns the paid amount, treating nil as zero
func (o *PaymentObligation) PaidValue() float64 {
	if o.PaidAmount == nil {
		return 0
	}
	return *o.PaidAmount
}

// HasPayment reports whether any amount has been applied to the obligation
func (o *PaymentObligation) HasPayment() bool {
	return o.PaidValue() > 0
}

// RecalcBalance recomputes balance from amount and paid amount, floored at
// zero. Balance is always derived, never drifted independently.
func (o *PaymentObligation) RecalcBalance() {
	balance := o.Amount - o.PaidValue()
	if balance < 0 {
		balance = 0
	}
	o.Balance = balance
}

// IsSettled returns true when the obligation is fully paid
func (o *PaymentObligation) IsSettled() bool {
	return NormalizeStatus(o.Status) == ObligationStatusPaid
}

// IsOutstanding returns true when the obligation can still receive payments
func (o *PaymentObligation) IsOutstanding() bool {
	switch NormalizeStatus(o.Status) {
	case ObligationStatusPending, ObligationStatusOverdue, ObligationStatusPartiallyPaid:
		return true
	}
	return false
}

// OverdueDaysAt returns whole days elapsed between the nominal due date and
// the given time, floored at zero
func (o *PaymentObligation) OverdueDaysAt(now time.Time) int {
	if o.DueDate == nil || !now.After(*o.DueDate) {
		return 0
	}
	return int(now.Sub(*o.DueDate).Hours() / 24)
}

// MonthKey returns the (year, month) bucket of the nominal due date.
// Obligations without a due date return ok=false and stay unbucketed.
func (o *PaymentObligation) MonthKey() (year int, month time.Month, ok bool) {
	if o.DueDate == nil {
		return 0, 0, false
	}
	return o.DueDate.Year(), o.DueDate.Month(), true
}

// ObligationResponse is the JSON response format for payment obligations
type ObligationResponse struct {
	ID            uint       `json:"id"`
	LeaseID       uint       `json:"lease_id"`
	Amount        float64    `json:"amount"`
	PaidAmount    float64    `json:"paid_amount"`
	Balance       float64    `json:"balance"`
	DueDate       *time.Time `json:"due_date"`
	PaymentDate   *time.Time `json:"payment_date"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	Status        string     `json:"status"`
	Type          string     `json:"type"`
	DaysOverdue   int        `json:"days_overdue"`
	LateFeeAmount float64    `json:"late_fee_amount"`
	Description   *string    `json:"description,omitempty"`
	ReferenceID   *string    `json:"reference_id,omitempty"`
	HasReceipt    bool       `json:"has_receipt"`
}

// ToResponse converts PaymentObligation to ObligationResponse
func (o *PaymentObligation) ToResponse() ObligationResponse {
	return ObligationResponse{
		ID:            o.ID,
		LeaseID:       o.LeaseID,
		Amount:        o.Amount,
		PaidAmount:    o.PaidValue(),
		Balance:       o.Balance,
		DueDate:       o.DueDate,
		PaymentDate:   o.PaymentDate,
		PaymentMethod: o.PaymentMethod,
		Status:        NormalizeStatus(o.Status),
		Type:          o.Type,
		DaysOverdue:   o.DaysOverdue,
		LateFeeAmount: o.LateFeeAmount,
		Description:   o.Description,
		ReferenceID:   o.ReferenceID,
		HasReceipt:    o.ReceiptPath != nil && *o.ReceiptPath != "",
	}
}
