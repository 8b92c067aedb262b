package repository

import (
	"context"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// ObligationStats holds monthly obligation statistics
type ObligationStats struct {
	PendingThisMonth   float64 `json:"pending_this_month"`
	CollectedThisMonth float64 `json:"collected_this_month"`
	TotalOverdue       float64 `json:"total_overdue"`
}

// ObligationRepository defines the interface for payment obligation data access
type ObligationRepository interface {
	FindByID(ctx context.Context, id uint) (*models.PaymentObligation, error)
	FindByLease(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error)
	FindOutstandingByLease(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error)
	FindByLeaseNewestFirst(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error)
	Create(ctx context.Context, obligation *models.PaymentObligation) error
	Update(ctx context.Context, obligation *models.PaymentObligation) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.PaymentObligation, int64, error)
	FindOverdueForActiveLeases(ctx context.Context) ([]models.PaymentObligation, error)
	GetMonthlyStats(ctx context.Context) (*ObligationStats, error)
}

type obligationRepository struct {
	db *gorm.DB
}

// NewObligationRepository creates a new obligation repository
func NewObligationRepository(db *gorm.DB) ObligationRepository {
	return &obligationRepository{db: db}
}

func (r *obligationRepository) FindByID(ctx context.Context, id uint) (*models.PaymentObligation, error) {
	var obligation models.PaymentObligation
	err := r.db.WithContext(ctx).First(&obligation, id).Error
	if err != nil {
		return nil, err
	}
	return &obligation, nil
}

// FindByLease returns all obligations for a lease ordered by nominal due date
// ascending; records without a due date sort last.
func (r *obligationRepository) FindByLease(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error) {
	var obligations []models.PaymentObligation
	err := r.db.WithContext(ctx).
		Where("lease_id = ?", leaseID).
		Order("due_date ASC NULLS LAST").
		Find(&obligations).Error
	return obligations, err
}

// FindOutstandingByLease returns obligations still able to receive payments,
// oldest due date first. This ordering is the waterfall invariant: earlier
// obligations are satisfied before later ones.
func (r *obligationRepository) FindOutstandingByLease(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error) {
	var obligations []models.PaymentObligation
	err := r.db.WithContext(ctx).
		Where("lease_id = ? AND status IN ?", leaseID, []string{
			models.ObligationStatusPending,
			models.ObligationStatusPartiallyPaid,
			models.ObligationStatusOverdue,
		}).
		Order("due_date ASC NULLS LAST").
		Find(&obligations).Error
	return obligations, err
}

// FindByLeaseNewestFirst returns the lease's obligations newest payment first
// (unpaid rows fall back to due date).
func (r *obligationRepository) FindByLeaseNewestFirst(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error) {
	var obligations []models.PaymentObligation
	err := r.db.WithContext(ctx).
		Where("lease_id = ?", leaseID).
		Order("payment_date DESC NULLS LAST").
		Order("due_date DESC NULLS LAST").
		Find(&obligations).Error
	return obligations, err
}

func (r *obligationRepository) Create(ctx context.Context, obligation *models.PaymentObligation) error {
	return r.db.WithContext(ctx).Create(obligation).Error
}

func (r *obligationRepository) Update(ctx context.Context, obligation *models.PaymentObligation) error {
	return r.db.WithContext(ctx).Save(obligation).Error
}

func (r *obligationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.PaymentObligation{}, id).Error
}

func (r *obligationRepository) List(ctx context.Context, query *ListQuery) ([]models.PaymentObligation, int64, error) {
	var obligations []models.PaymentObligation
	var total int64

	db := r.db.WithContext(ctx).Model(&models.PaymentObligation{})

	if status := query.Filters["status"]; status != "" {
		if status == models.ObligationStatusOverdue {
			// Virtual filter: pending rows past due count as overdue too
			db = db.Where("payment_obligations.status = ? OR (payment_obligations.status = ? AND payment_obligations.due_date < CURRENT_DATE)",
				models.ObligationStatusOverdue, models.ObligationStatusPending)
		} else {
			db = db.Where("payment_obligations.status = ?", models.NormalizeStatus(status))
		}
	}
	if typ := query.Filters["type"]; typ != "" {
		db = db.Where("payment_obligations.type = ?", typ)
	}
	if leaseID := query.Filters["lease_id"]; leaseID != "" {
		db = db.Where("payment_obligations.lease_id = ?", leaseID)
	}

	countDb := db.Session(&gorm.Session{})
	if err := countDb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("payment_obligations.due_date ASC NULLS LAST")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&obligations).Error
	return obligations, total, err
}

// FindOverdueForActiveLeases returns overdue rent obligations on active
// leases with the lease and customer preloaded for reminder emails.
func (r *obligationRepository) FindOverdueForActiveLeases(ctx context.Context) ([]models.PaymentObligation, error) {
	var obligations []models.PaymentObligation
	err := r.db.WithContext(ctx).
		Joins("JOIN leases ON leases.id = payment_obligations.lease_id AND leases.status = ? AND leases.active = ?",
			models.LeaseStatusActive, true).
		Where("payment_obligations.status = ?", models.ObligationStatusOverdue).
		Preload("Lease.Customer").
		Preload("Lease.Vehicle").
		Order("due_date ASC").
		Find(&obligations).Error
	return obligations, err
}

func (r *obligationRepository) GetMonthlyStats(ctx context.Context) (*ObligationStats, error) {
	stats := &ObligationStats{}

	err := r.db.WithContext(ctx).Model(&models.PaymentObligation{}).
		Select("COALESCE(SUM(balance), 0)").
		Where("status IN ? AND date_trunc('month', due_date) = date_trunc('month', CURRENT_DATE)", []string{
			models.ObligationStatusPending,
			models.ObligationStatusPartiallyPaid,
			models.ObligationStatusOverdue,
		}).
		Scan(&stats.PendingThisMonth).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&models.PaymentObligation{}).
		Select("COALESCE(SUM(paid_amount), 0)").
		Where("payment_date IS NOT NULL AND date_trunc('month', payment_date) = date_trunc('month', CURRENT_DATE)").
		Scan(&stats.CollectedThisMonth).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&models.PaymentObligation{}).
		Select("COALESCE(SUM(balance), 0)").
		Where("status = ?", models.ObligationStatusOverdue).
		Scan(&stats.TotalOverdue).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
