package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Customer     CustomerRepository
	Vehicle      VehicleRepository
	Lease        LeaseRepository
	Obligation   ObligationRepository
	Fine         FineRepository
	Notification NotificationRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Customer:     NewCustomerRepository(db),
		Vehicle:      NewVehicleRepository(db),
		Lease:        NewLeaseRepository(db),
		Obligation:   NewObligationRepository(db),
		Fine:         NewFineRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
