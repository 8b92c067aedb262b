package models

import (
	"time"
)

// Lease represents a vehicle rental agreement. The reconciliation engine
// treats it as read-only input: it parameterizes schedule generation (rent
// amount, dates, fee policy) but is never mutated by it.
type Lease struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	CustomerID       uint       `gorm:"not null;index" json:"customer_id"`
	VehicleID        uint       `gorm:"not null;index" json:"vehicle_id"`
	StartDate        *time.Time `gorm:"type:date;index" json:"start_date"`
	EndDate          *time.Time `gorm:"type:date;index" json:"end_date"`
	MonthlyRent      float64    `gorm:"type:decimal(10,2);not null" json:"monthly_rent"`
	DueDay           int        `gorm:"default:1" json:"due_day"`
	LateFeeDailyRate float64    `gorm:"type:decimal(10,2);default:120" json:"late_fee_daily_rate"`
	LateFeeCap       float64    `gorm:"type:decimal(10,2);default:3000" json:"late_fee_cap"`
	Status           string     `gorm:"default:draft;not null;index" json:"status"`
	Active           bool       `gorm:"default:false;index" json:"active"`
	Notes            *string    `gorm:"type:text" json:"notes,omitempty"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Associations
	Customer    Customer            `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Vehicle     Vehicle             `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Obligations []PaymentObligation `gorm:"foreignKey:LeaseID" json:"obligations,omitempty"`
}

// TableName specifies the table name for Lease
func (Lease) TableName() string {
	return "leases"
}

// Lease status constants
const (
	LeaseStatusDraft     = "draft"
	LeaseStatusActive    = "active"
	LeaseStatusClosed    = "closed"
	LeaseStatusCancelled = "cancelled"
)

// Rent policy defaults, applied when a lease leaves them unset
const (
	DefaultDueDay           = 1
	DefaultLateFeeDailyRate = 120.0
	DefaultLateFeeCap       = 3000.0
)

// EffectiveDueDay returns the day-of-month rent is due (default 1st)
func (l *Lease) EffectiveDueDay() int {
	if l.DueDay < 1 || l.DueDay > 28 {
		return DefaultDueDay
	}
	return l.DueDay
}

// EffectiveDailyRate returns the daily late-fee rate (default 120)
func (l *Lease) EffectiveDailyRate() float64 {
	if l.LateFeeDailyRate <= 0 {
		return DefaultLateFeeDailyRate
	}
	return l.LateFeeDailyRate
}

// EffectiveFeeCap returns the maximum accruable late fee (default 3000)
func (l *Lease) EffectiveFeeCap() float64 {
	if l.LateFeeCap <= 0 {
		return DefaultLateFeeCap
	}
	return l.LateFeeCap
}

// HasSchedulableDates reports whether the lease carries the dates the
// schedule synchronizer needs
func (l *Lease) HasSchedulableDates() bool {
	return l.StartDate != nil && l.EndDate != nil
}

// CoversDate reports whether the given date falls within the lease term
func (l *Lease) CoversDate(d time.Time) bool {
	if !l.HasSchedulableDates() {
		return false
	}
	day := d.Truncate(24 * time.Hour)
	return !day.Before(l.StartDate.Truncate(24*time.Hour)) && !day.After(l.EndDate.Truncate(24*time.Hour))
}

// MayActivate returns true if the lease can transition to active
func (l *Lease) MayActivate() bool {
	return l.Status == LeaseStatusDraft && l.HasSchedulableDates() && l.MonthlyRent > 0
}

// MayClose returns true if the lease can be closed
func (l *Lease) MayClose() bool {
	return l.Status == LeaseStatusActive
}

// MayCancel returns true if the lease can be cancelled
func (l *Lease) MayCancel() bool {
	return l.Status == LeaseStatusDraft || l.Status == LeaseStatusActive
}

// LeaseResponse is the JSON response format for leases
type LeaseResponse struct {
	ID               uint       `json:"id"`
	CustomerID       uint       `json:"customer_id"`
	VehicleID        uint       `json:"vehicle_id"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	MonthlyRent      float64    `json:"monthly_rent"`
	DueDay           int        `json:"due_day"`
	LateFeeDailyRate float64    `json:"late_fee_daily_rate"`
	LateFeeCap       float64    `json:"late_fee_cap"`
	Status           string     `json:"status"`
	Active           bool       `json:"active"`
	CustomerName     string     `json:"customer_name,omitempty"`
	VehiclePlate     string     `json:"vehicle_plate,omitempty"`
	VehicleLabel     string     `json:"vehicle_label,omitempty"`
}

// ToResponse converts Lease to LeaseResponse
func (l *Lease) ToResponse() LeaseResponse {
	resp := LeaseResponse{
		ID:               l.ID,
		CustomerID:       l.CustomerID,
		VehicleID:        l.VehicleID,
		StartDate:        l.StartDate,
		EndDate:          l.EndDate,
		MonthlyRent:      l.MonthlyRent,
		DueDay:           l.EffectiveDueDay(),
		LateFeeDailyRate: l.EffectiveDailyRate(),
		LateFeeCap:       l.EffectiveFeeCap(),
		Status:           l.Status,
		Active:           l.Active,
	}

	if l.Customer.ID != 0 {
		resp.CustomerName = l.Customer.FullName
	}
	if l.Vehicle.ID != 0 {
		resp.VehiclePlate = l.Vehicle.Plate
		resp.VehicleLabel = l.Vehicle.Label()
	}

	return resp
}
