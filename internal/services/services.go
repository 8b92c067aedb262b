package services

import (
	"github.com/rentora/rentora-api/internal/config"
	"github.com/rentora/rentora-api/internal/jobs"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Lease          *LeaseService
	Obligation     *ObligationService
	Reconciliation *ReconciliationService
	Fine           *FineService
	Notification   *NotificationService
	Email          *EmailService
	Report         *ReportService
	Audit          *AuditService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, storage *storage.LocalStorage, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(db)

	reconciliationSvc := NewReconciliationService(repos.Lease, repos.Obligation, auditSvc, NewLogSink())

	return &Services{
		Lease:          NewLeaseService(repos.Lease, repos.Customer, repos.Vehicle, repos.Obligation, reconciliationSvc, notificationSvc, emailSvc, auditSvc, worker, cfg),
		Obligation:     NewObligationService(repos.Obligation, repos.Lease, notificationSvc, emailSvc, storage),
		Reconciliation: reconciliationSvc,
		Fine:           NewFineService(repos.Fine, repos.Vehicle, repos.Lease, repos.Obligation, notificationSvc, auditSvc, worker),
		Notification:   notificationSvc,
		Email:          emailSvc,
		Report:         NewReportService(repos.Lease, repos.Obligation, repos.Customer),
		Audit:          auditSvc,
	}
}
