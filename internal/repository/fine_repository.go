package repository

import (
	"context"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// FineRepository defines the interface for traffic fine data access
type FineRepository interface {
	FindByID(ctx context.Context, id uint) (*models.TrafficFine, error)
	FindUnassigned(ctx context.Context) ([]models.TrafficFine, error)
	FindByLease(ctx context.Context, leaseID uint) ([]models.TrafficFine, error)
	Create(ctx context.Context, fine *models.TrafficFine) error
	Update(ctx context.Context, fine *models.TrafficFine) error
}

type fineRepository struct {
	db *gorm.DB
}

// NewFineRepository creates a new traffic fine repository
func NewFineRepository(db *gorm.DB) FineRepository {
	return &fineRepository{db: db}
}

func (r *fineRepository) FindByID(ctx context.Context, id uint) (*models.TrafficFine, error) {
	var fine models.TrafficFine
	err := r.db.WithContext(ctx).Preload("Vehicle").First(&fine, id).Error
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

func (r *fineRepository) FindUnassigned(ctx context.Context) ([]models.TrafficFine, error) {
	var fines []models.TrafficFine
	err := r.db.WithContext(ctx).
		Where("status = ?", models.FineStatusUnassigned).
		Order("issued_at ASC").
		Find(&fines).Error
	return fines, err
}

func (r *fineRepository) FindByLease(ctx context.Context, leaseID uint) ([]models.TrafficFine, error) {
	var fines []models.TrafficFine
	err := r.db.WithContext(ctx).
		Where("lease_id = ?", leaseID).
		Order("issued_at ASC").
		Find(&fines).Error
	return fines, err
}

func (r *fineRepository) Create(ctx context.Context, fine *models.TrafficFine) error {
	return r.db.WithContext(ctx).Create(fine).Error
}

func (r *fineRepository) Update(ctx context.Context, fine *models.TrafficFine) error {
	return r.db.WithContext(ctx).Save(fine).Error
}
