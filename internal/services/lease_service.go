package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rentora/rentora-api/internal/config"
	"github.com/rentora/rentora-api/internal/jobs"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/statemachine"
	"github.com/rentora/rentora-api/pkg/logger"
)

type LeaseService struct {
	repo            repository.LeaseRepository
	customerRepo    repository.CustomerRepository
	vehicleRepo     repository.VehicleRepository
	obligationRepo  repository.ObligationRepository
	reconciliation  *ReconciliationService
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	worker          *jobs.Worker
	config          *config.Config
}

func NewLeaseService(
	repo repository.LeaseRepository,
	customerRepo repository.CustomerRepository,
	vehicleRepo repository.VehicleRepository,
	obligationRepo repository.ObligationRepository,
	reconciliation *ReconciliationService,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
	cfg *config.Config,
) *LeaseService {
	return &LeaseService{
		repo:            repo,
		customerRepo:    customerRepo,
		vehicleRepo:     vehicleRepo,
		obligationRepo:  obligationRepo,
		reconciliation:  reconciliation,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		worker:          worker,
		config:          cfg,
	}
}

// FindByID gets a lease by ID
func (s *LeaseService) FindByID(ctx context.Context, id uint) (*models.Lease, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByIDWithDetails gets a lease with customer, vehicle and obligations preloaded
func (s *LeaseService) FindByIDWithDetails(ctx context.Context, id uint) (*models.Lease, error) {
	return s.repo.FindByIDWithDetails(ctx, id)
}

func (s *LeaseService) List(ctx context.Context, query *repository.LeaseQuery) ([]models.Lease, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *LeaseService) Create(ctx context.Context, lease *models.Lease) error {
	customer, err := s.customerRepo.FindByID(ctx, lease.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to load customer: %w", err)
	}
	if !customer.IsActive() {
		return ErrInvalidState
	}

	vehicle, err := s.vehicleRepo.FindByID(ctx, lease.VehicleID)
	if err != nil {
		return fmt.Errorf("failed to load vehicle: %w", err)
	}
	if vehicle.Status != models.VehicleStatusAvailable {
		return ErrInvalidState
	}

	if lease.StartDate != nil && lease.EndDate != nil && lease.EndDate.Before(*lease.StartDate) {
		return fmt.Errorf("lease end date precedes start date")
	}
	if lease.MonthlyRent <= 0 {
		return ErrInvalidAmount
	}

	// Policy defaults for fields the request left unset
	if lease.DueDay == 0 {
		lease.DueDay = s.config.RentDueDay
	}
	if lease.LateFeeDailyRate == 0 {
		lease.LateFeeDailyRate = s.config.LateFeeDailyRate
	}
	if lease.LateFeeCap == 0 {
		lease.LateFeeCap = s.config.LateFeeCap
	}

	if err := s.repo.Create(ctx, lease); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, "system", "CREATE", "Lease", lease.ID,
		fmt.Sprintf("Lease drafted for vehicle %s, monthly rent %.2f", vehicle.Label(), lease.MonthlyRent), "")

	return nil
}

func (s *LeaseService) Update(ctx context.Context, lease *models.Lease) error {
	return s.repo.Update(ctx, lease)
}

// Activate transitions a draft lease to active, marks the vehicle leased and
// materializes the payment schedule up to the current month.
func (s *LeaseService) Activate(ctx context.Context, id uint) (*models.Lease, error) {
	lease, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lease.HasSchedulableDates() {
		return nil, ErrMissingDates
	}

	fsm := statemachine.NewLeaseFSM(lease)
	if err := fsm.Activate(ctx); err != nil {
		return nil, fmt.Errorf("cannot activate lease: %w", err)
	}

	if err := s.repo.Update(ctx, lease); err != nil {
		return nil, err
	}

	lease.Vehicle.Status = models.VehicleStatusLeased
	if err := s.vehicleRepo.Update(ctx, &lease.Vehicle); err != nil {
		logger.Error("Failed to mark vehicle as leased", "vehicle_id", lease.VehicleID, "error", err)
	}

	if _, _, err := s.reconciliation.SynchronizeSchedule(ctx, lease.ID); err != nil {
		logger.Error("Failed to materialize schedule on activation", "lease_id", lease.ID, "error", err)
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		if err := s.notificationSvc.NotifyCustomer(ctx, lease.CustomerID,
			"Lease activated",
			fmt.Sprintf("Your lease on %s is now active", lease.Vehicle.Label()),
			models.NotificationTypeLeaseActivated); err != nil {
			return err
		}
		return s.emailSvc.SendLeaseActivated(ctx, &lease.Customer, lease)
	})

	s.auditSvc.Log(ctx, "system", "ACTIVATE", "Lease", lease.ID,
		fmt.Sprintf("Lease activated for vehicle %s", lease.Vehicle.Label()), "")

	return lease, nil
}

// Close ends an active lease and returns the vehicle to the available pool.
// Obligations already materialized are left in place for collection.
func (s *LeaseService) Close(ctx context.Context, id uint) (*models.Lease, error) {
	lease, err := s.repo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	fsm := statemachine.NewLeaseFSM(lease)
	if err := fsm.Close(ctx); err != nil {
		return nil, fmt.Errorf("cannot close lease: %w", err)
	}

	now := time.Now()
	lease.ClosedAt = &now

	if err := s.repo.Update(ctx, lease); err != nil {
		return nil, err
	}

	lease.Vehicle.Status = models.VehicleStatusAvailable
	if err := s.vehicleRepo.Update(ctx, &lease.Vehicle); err != nil {
		logger.Error("Failed to release vehicle", "vehicle_id", lease.VehicleID, "error", err)
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyCustomer(ctx, lease.CustomerID,
			"Lease closed",
			fmt.Sprintf("Your lease on %s has ended", lease.Vehicle.Label()),
			models.NotificationTypeLeaseClosed)
	})

	s.auditSvc.Log(ctx, "system", "CLOSE", "Lease", lease.ID, "Lease closed", "")

	return lease, nil
}

// Cancel voids a draft lease before activation
func (s *LeaseService) Cancel(ctx context.Context, id uint) (*models.Lease, error) {
	lease, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fsm := statemachine.NewLeaseFSM(lease)
	if err := fsm.Cancel(ctx); err != nil {
		return nil, fmt.Errorf("cannot cancel lease: %w", err)
	}

	if err := s.repo.Update(ctx, lease); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, "system", "CANCEL", "Lease", lease.ID, "Lease cancelled", "")

	return lease, nil
}

// Obligations returns the lease's obligations ordered by due date
func (s *LeaseService) Obligations(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error) {
	if _, err := s.repo.FindByID(ctx, leaseID); err != nil {
		return nil, err
	}
	return s.obligationRepo.FindByLease(ctx, leaseID)
}
