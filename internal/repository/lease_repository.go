package repository

import (
	"context"
	"strings"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// LeaseRepository defines the interface for lease data access
type LeaseRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Lease, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Lease, error)
	FindActive(ctx context.Context) ([]models.Lease, error)
	FindActiveByVehicleAt(ctx context.Context, vehicleID uint, at time.Time) (*models.Lease, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]models.Lease, error)
	Create(ctx context.Context, lease *models.Lease) error
	Update(ctx context.Context, lease *models.Lease) error
	List(ctx context.Context, query *LeaseQuery) ([]models.Lease, int64, error)
}

// LeaseQuery extends ListQuery with lease-specific filters
type LeaseQuery struct {
	*ListQuery
	Status     string
	CustomerID uint
	VehicleID  uint
}

type leaseRepository struct {
	db *gorm.DB
}

// NewLeaseRepository creates a new lease repository
func NewLeaseRepository(db *gorm.DB) LeaseRepository {
	return &leaseRepository{db: db}
}

func (r *leaseRepository) FindByID(ctx context.Context, id uint) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).First(&lease, id).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *leaseRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Lease, error) {
	var lease models.Lease
	// Customer and Vehicle join in one query; Obligations are one-to-many so
	// they stay a Preload.
	err := r.db.WithContext(ctx).
		Joins("Customer").
		Joins("Vehicle").
		Preload("Obligations", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_date ASC")
		}).
		First(&lease, id).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *leaseRepository) FindActive(ctx context.Context) ([]models.Lease, error) {
	var leases []models.Lease
	err := r.db.WithContext(ctx).
		Where("status = ? AND active = ?", models.LeaseStatusActive, true).
		Find(&leases).Error
	return leases, err
}

// FindActiveByVehicleAt returns the lease covering the given date for a
// vehicle, if any. Used by traffic-fine assignment.
func (r *leaseRepository) FindActiveByVehicleAt(ctx context.Context, vehicleID uint, at time.Time) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND start_date <= ? AND end_date >= ?", vehicleID, at, at).
		Where("status IN ?", []string{models.LeaseStatusActive, models.LeaseStatusClosed}).
		Order("start_date DESC").
		First(&lease).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *leaseRepository) FindByCustomer(ctx context.Context, customerID uint) ([]models.Lease, error) {
	var leases []models.Lease
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Preload("Vehicle").
		Find(&leases).Error
	return leases, err
}

func (r *leaseRepository) Create(ctx context.Context, lease *models.Lease) error {
	return r.db.WithContext(ctx).Create(lease).Error
}

func (r *leaseRepository) Update(ctx context.Context, lease *models.Lease) error {
	return r.db.WithContext(ctx).Save(lease).Error
}

func (r *leaseRepository) List(ctx context.Context, query *LeaseQuery) ([]models.Lease, int64, error) {
	var leases []models.Lease
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Lease{})

	if query.Status != "" {
		db = db.Where("leases.status = ?", query.Status)
	}
	if query.CustomerID > 0 {
		db = db.Where("leases.customer_id = ?", query.CustomerID)
	}
	if query.VehicleID > 0 {
		db = db.Where("leases.vehicle_id = ?", query.VehicleID)
	}

	// Case-insensitive search across customer and vehicle fields
	if search := query.Filters["search_term"]; search != "" {
		term := "%" + search + "%"
		db = db.Joins("JOIN customers ON customers.id = leases.customer_id").
			Joins("JOIN vehicles ON vehicles.id = leases.vehicle_id").
			Where("(customers.full_name ILIKE ? OR customers.email ILIKE ? OR customers.identity ILIKE ? OR "+
				"vehicles.plate ILIKE ? OR vehicles.make ILIKE ? OR vehicles.model ILIKE ?)",
				term, term, term, term, term, term)
	}

	countDb := db.Session(&gorm.Session{})
	if err := countDb.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		field := query.SortBy
		switch field {
		case "created_at", "updated_at", "start_date", "end_date", "monthly_rent":
			field = "leases." + field
		default:
			field = "leases.created_at"
		}
		order := field
		if strings.ToLower(query.SortDir) == "desc" {
			order += " DESC"
		} else {
			order += " ASC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("leases.created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Select("leases.*").
		Preload("Customer").
		Preload("Vehicle").
		Find(&leases).Error

	return leases, total, err
}
