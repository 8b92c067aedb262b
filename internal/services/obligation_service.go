package services

import (
	"context"
	"mime/multipart"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/storage"
	"github.com/rentora/rentora-api/pkg/logger"
)

type ObligationService struct {
	repo            repository.ObligationRepository
	leaseRepo       repository.LeaseRepository
	notificationSvc *NotificationService
	emailSvc        *EmailService
	storage         *storage.LocalStorage
}

func NewObligationService(
	repo repository.ObligationRepository,
	leaseRepo repository.LeaseRepository,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	storage *storage.LocalStorage,
) *ObligationService {
	return &ObligationService{
		repo:            repo,
		leaseRepo:       leaseRepo,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		storage:         storage,
	}
}

func (s *ObligationService) FindByID(ctx context.Context, id uint) (*models.PaymentObligation, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ObligationService) List(ctx context.Context, query *repository.ListQuery) ([]models.PaymentObligation, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *ObligationService) GetMonthlyStats(ctx context.Context) (*repository.ObligationStats, error) {
	return s.repo.GetMonthlyStats(ctx)
}

// UploadReceipt stores a receipt file for an obligation and records its path
func (s *ObligationService) UploadReceipt(ctx context.Context, id uint, file multipart.File, header *multipart.FileHeader) (*models.PaymentObligation, error) {
	obligation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := s.storage.Upload(file, header, "receipts")
	if err != nil {
		return nil, err
	}

	// Replace any previous receipt
	if obligation.ReceiptPath != nil && *obligation.ReceiptPath != "" {
		if err := s.storage.Delete(*obligation.ReceiptPath); err != nil {
			logger.Warn("Failed to delete previous receipt", "obligation_id", id, "error", err)
		}
	}

	obligation.ReceiptPath = &path
	if err := s.repo.Update(ctx, obligation); err != nil {
		return nil, err
	}

	return obligation, nil
}

// SendOverdueReminders emails each customer their overdue obligations and
// records an in-app notification. Used by the daily scheduled job.
func (s *ObligationService) SendOverdueReminders(ctx context.Context) (int, error) {
	overdue, err := s.repo.FindOverdueForActiveLeases(ctx)
	if err != nil {
		return 0, err
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	byCustomer := make(map[uint][]models.PaymentObligation)
	for _, o := range overdue {
		if o.Lease.Customer.ID == 0 {
			continue
		}
		byCustomer[o.Lease.Customer.ID] = append(byCustomer[o.Lease.Customer.ID], o)
	}

	sent := 0
	for customerID, obligations := range byCustomer {
		customer := obligations[0].Lease.Customer

		if err := s.emailSvc.SendOverdueObligations(ctx, &customer, obligations); err != nil {
			logger.Error("Failed to send overdue reminder", "customer_id", customerID, "error", err)
			continue
		}

		if err := s.notificationSvc.NotifyCustomer(ctx, customerID,
			"Overdue rent payments",
			"You have overdue rent payments on your lease",
			models.NotificationTypeObligationOverdue); err != nil {
			logger.Warn("Failed to create overdue notification", "customer_id", customerID, "error", err)
		}
		sent++
	}

	return sent, nil
}
