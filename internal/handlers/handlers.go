package handlers

import (
	"github.com/rentora/rentora-api/internal/services"
	"github.com/rentora/rentora-api/internal/storage"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Lease        *LeaseHandler
	Obligation   *ObligationHandler
	Fine         *FineHandler
	Notification *NotificationHandler
	Report       *ReportHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, storage *storage.LocalStorage) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Lease:        NewLeaseHandler(svcs.Lease, svcs.Reconciliation, svcs.Report),
		Obligation:   NewObligationHandler(svcs.Obligation, svcs.Reconciliation, storage),
		Fine:         NewFineHandler(svcs.Fine),
		Notification: NewNotificationHandler(svcs.Notification),
		Report:       NewReportHandler(svcs.Report),
	}
}
