package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rentora/rentora-api/internal/jobs"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/pkg/logger"
	"gorm.io/gorm"
)

type FineService struct {
	repo            repository.FineRepository
	vehicleRepo     repository.VehicleRepository
	leaseRepo       repository.LeaseRepository
	obligationRepo  repository.ObligationRepository
	notificationSvc *NotificationService
	auditSvc        *AuditService
	worker          *jobs.Worker
}

func NewFineService(
	repo repository.FineRepository,
	vehicleRepo repository.VehicleRepository,
	leaseRepo repository.LeaseRepository,
	obligationRepo repository.ObligationRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *FineService {
	return &FineService{
		repo:            repo,
		vehicleRepo:     vehicleRepo,
		leaseRepo:       leaseRepo,
		obligationRepo:  obligationRepo,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
		worker:          worker,
	}
}

func (s *FineService) FindByID(ctx context.Context, id uint) (*models.TrafficFine, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *FineService) FindByLease(ctx context.Context, leaseID uint) ([]models.TrafficFine, error) {
	return s.repo.FindByLease(ctx, leaseID)
}

// Register records a fine received from an issuing authority, resolving the
// vehicle by plate. Duplicate external references are ignored.
func (s *FineService) Register(ctx context.Context, plate string, amount float64, issuedAt time.Time, authority string, externalRef *string) (*models.TrafficFine, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	vehicle, err := s.vehicleRepo.FindByPlate(ctx, plate)
	if err != nil {
		return nil, fmt.Errorf("unknown plate %s: %w", plate, err)
	}

	fine := &models.TrafficFine{
		VehicleID:   vehicle.ID,
		Plate:       plate,
		Amount:      amount,
		IssuedAt:    issuedAt,
		Authority:   authority,
		ExternalRef: externalRef,
		Status:      models.FineStatusUnassigned,
	}
	if err := s.repo.Create(ctx, fine); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, "system", "REGISTER", "TrafficFine", fine.ID,
		fmt.Sprintf("Fine of %.2f registered against plate %s", amount, plate), "")

	return fine, nil
}

// Assign attributes a fine to the lease that covered the vehicle on the
// issue date and books the amount as an obligation on that lease. Fines
// with no covering lease are marked orphaned for manual follow-up.
func (s *FineService) Assign(ctx context.Context, fineID uint) (*models.TrafficFine, error) {
	fine, err := s.repo.FindByID(ctx, fineID)
	if err != nil {
		return nil, err
	}
	if fine.Status != models.FineStatusUnassigned {
		return nil, ErrInvalidState
	}

	lease, err := s.leaseRepo.FindActiveByVehicleAt(ctx, fine.VehicleID, fine.IssuedAt)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fine.Status = models.FineStatusOrphaned
			if updateErr := s.repo.Update(ctx, fine); updateErr != nil {
				return nil, updateErr
			}
			return fine, ErrNoCoveringLease
		}
		return nil, err
	}

	dueDate := fine.IssuedAt
	description := fmt.Sprintf("Traffic fine %s, issued %s", fine.Authority, fine.IssuedAt.Format("02/01/2006"))
	obligation := &models.PaymentObligation{
		LeaseID:     lease.ID,
		Amount:      fine.Amount,
		DueDate:     &dueDate,
		Status:      models.ObligationStatusPending,
		Type:        models.ObligationTypeFine,
		Description: &description,
		ReferenceID: fine.ExternalRef,
	}
	obligation.RecalcBalance()

	if err := s.obligationRepo.Create(ctx, obligation); err != nil {
		return nil, err
	}

	now := time.Now()
	fine.LeaseID = &lease.ID
	fine.ObligationID = &obligation.ID
	fine.Status = models.FineStatusAssigned
	fine.AssignedAt = &now
	if err := s.repo.Update(ctx, fine); err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyCustomer(ctx, lease.CustomerID,
			"Traffic fine assigned",
			fmt.Sprintf("A fine of %.2f issued on %s has been added to your lease", fine.Amount, fine.IssuedAt.Format("02/01/2006")),
			models.NotificationTypeFineAssigned)
	})

	s.auditSvc.Log(ctx, "system", "ASSIGN", "TrafficFine", fine.ID,
		fmt.Sprintf("Fine assigned to lease %d as obligation %d", lease.ID, obligation.ID), "")

	return fine, nil
}

// AssignPending sweeps all unassigned fines. Used by the scheduled job;
// per-fine failures are logged and do not stop the sweep.
func (s *FineService) AssignPending(ctx context.Context) (int, error) {
	fines, err := s.repo.FindUnassigned(ctx)
	if err != nil {
		return 0, err
	}

	assigned := 0
	for _, fine := range fines {
		if _, err := s.Assign(ctx, fine.ID); err != nil {
			if errors.Is(err, ErrNoCoveringLease) {
				logger.Warn("Fine has no covering lease", "fine_id", fine.ID, "plate", fine.Plate)
			} else {
				logger.Error("Failed to assign fine", "fine_id", fine.ID, "error", err)
			}
			continue
		}
		assigned++
	}
	return assigned, nil
}
