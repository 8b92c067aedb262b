package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

// Mock LeaseRepository (using embedding to avoid implementing all methods)
type mockLeaseRepository struct {
	repository.LeaseRepository
	mockFindByID   func(ctx context.Context, id uint) (*models.Lease, error)
	mockFindActive func(ctx context.Context) ([]models.Lease, error)
}

func (m *mockLeaseRepository) FindByID(ctx context.Context, id uint) (*models.Lease, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return &models.Lease{ID: id}, nil
}

func (m *mockLeaseRepository) FindActive(ctx context.Context) ([]models.Lease, error) {
	if m.mockFindActive != nil {
		return m.mockFindActive(ctx)
	}
	return nil, nil
}

// In-memory ObligationRepository fake. The engine re-reads state between
// phases, so a stateful store exercises it more faithfully than per-call
// stubs.
type fakeObligationRepository struct {
	mu          sync.Mutex
	nextID      uint
	obligations map[uint]models.PaymentObligation

	failUpdate bool
	failDelete bool
}

func newFakeObligationRepository() *fakeObligationRepository {
	return &fakeObligationRepository{obligations: make(map[uint]models.PaymentObligation)}
}

func (f *fakeObligationRepository) seed(o models.PaymentObligation) uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	o.ID = f.nextID
	f.obligations[o.ID] = o
	return o.ID
}

func (f *fakeObligationRepository) byLease(leaseID uint) []models.PaymentObligation {
	var out []models.PaymentObligation
	for _, o := range f.obligations {
		if o.LeaseID == leaseID {
			out = append(out, o)
		}
	}
	return out
}

func sortByDueDateAsc(obligations []models.PaymentObligation) {
	sort.SliceStable(obligations, func(i, j int) bool {
		a, b := obligations[i].DueDate, obligations[j].DueDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if a.Equal(*b) {
			return obligations[i].ID < obligations[j].ID
		}
		return a.Before(*b)
	})
}

func (f *fakeObligationRepository) FindByID(ctx context.Context, id uint) (*models.PaymentObligation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.obligations[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &o, nil
}

func (f *fakeObligationRepository) FindByLease(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.byLease(leaseID)
	sortByDueDateAsc(out)
	return out, nil
}

func (f *fakeObligationRepository) FindOutstandingByLease(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentObligation
	for _, o := range f.byLease(leaseID) {
		if o.IsOutstanding() {
			out = append(out, o)
		}
	}
	sortByDueDateAsc(out)
	return out, nil
}

func (f *fakeObligationRepository) FindByLeaseNewestFirst(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.byLease(leaseID)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PaymentDate, out[j].PaymentDate
		if a != nil && b != nil && !a.Equal(*b) {
			return a.After(*b)
		}
		if (a != nil) != (b != nil) {
			return a != nil
		}
		da, db := out[i].DueDate, out[j].DueDate
		if da != nil && db != nil {
			return da.After(*db)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeObligationRepository) Create(ctx context.Context, obligation *models.PaymentObligation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	obligation.ID = f.nextID
	f.obligations[obligation.ID] = *obligation
	return nil
}

func (f *fakeObligationRepository) Update(ctx context.Context, obligation *models.PaymentObligation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return errors.New("store unavailable")
	}
	if _, ok := f.obligations[obligation.ID]; !ok {
		return errors.New("record not found")
	}
	obligation.UpdatedAt = time.Now()
	f.obligations[obligation.ID] = *obligation
	return nil
}

func (f *fakeObligationRepository) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return errors.New("store unavailable")
	}
	delete(f.obligations, id)
	return nil
}

func (f *fakeObligationRepository) List(ctx context.Context, query *repository.ListQuery) ([]models.PaymentObligation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentObligation
	for _, o := range f.obligations {
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (f *fakeObligationRepository) FindOverdueForActiveLeases(ctx context.Context) ([]models.PaymentObligation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentObligation
	for _, o := range f.obligations {
		if models.NormalizeStatus(o.Status) == models.ObligationStatusOverdue {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeObligationRepository) GetMonthlyStats(ctx context.Context) (*repository.ObligationStats, error) {
	return &repository.ObligationStats{}, nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := date(year, month, day)
	return &d
}

func float64Ptr(v float64) *float64 { return &v }

func newTestService(leaseRepo repository.LeaseRepository, obligationRepo repository.ObligationRepository, today time.Time) *ReconciliationService {
	svc := NewReconciliationService(leaseRepo, obligationRepo, nil, NewLogSink())
	svc.now = func() time.Time { return today }
	return svc
}

func schedulableLease(id uint) *models.Lease {
	return &models.Lease{
		ID:          id,
		CustomerID:  1,
		VehicleID:   1,
		StartDate:   datePtr(2025, time.January, 1),
		EndDate:     datePtr(2025, time.December, 31),
		MonthlyRent: 500,
		Status:      models.LeaseStatusActive,
		Active:      true,
	}
}

func leaseRepoFor(lease *models.Lease) *mockLeaseRepository {
	return &mockLeaseRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Lease, error) {
			if id != lease.ID {
				return nil, errors.New("record not found")
			}
			return lease, nil
		},
	}
}

func TestSynchronizeSchedule_MaterializesStartThroughCurrentMonth(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))

	generated, updated, err := svc.SynchronizeSchedule(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 4, generated)
	assert.Equal(t, 0, updated)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Len(t, obligations, 4)

	months := make(map[time.Month]models.PaymentObligation)
	for _, o := range obligations {
		assert.NotNil(t, o.DueDate)
		months[o.DueDate.Month()] = o
		assert.Equal(t, 500.0, o.Amount)
		assert.Equal(t, models.ObligationTypeRent, o.Type)
		assert.Equal(t, 1, o.DueDate.Day())
	}

	// January through April exist, May and beyond do not
	for _, m := range []time.Month{time.January, time.February, time.March, time.April} {
		_, ok := months[m]
		assert.True(t, ok, "expected obligation for %s", m)
	}
	_, ok := months[time.May]
	assert.False(t, ok)

	// All four due dates precede April 15, so all are overdue with a capped fee
	jan := months[time.January]
	assert.Equal(t, models.ObligationStatusOverdue, jan.Status)
	assert.Equal(t, 104, jan.DaysOverdue)
	assert.Equal(t, 3000.0, jan.LateFeeAmount)

	apr := months[time.April]
	assert.Equal(t, models.ObligationStatusOverdue, apr.Status)
	assert.Equal(t, 14, apr.DaysOverdue)
	assert.Equal(t, 1680.0, apr.LateFeeAmount)
}

func TestSynchronizeSchedule_SecondRunGeneratesNothing(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))

	generated, _, err := svc.SynchronizeSchedule(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 4, generated)

	generated, updated, err := svc.SynchronizeSchedule(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 0, generated)
	assert.Equal(t, 0, updated)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Len(t, obligations, 4)
}

func TestSynchronizeSchedule_MissingDatesIsNoOp(t *testing.T) {
	lease := &models.Lease{ID: 1, MonthlyRent: 500}
	repo := newFakeObligationRepository()
	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))

	generated, updated, err := svc.SynchronizeSchedule(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 0, generated)
	assert.Equal(t, 0, updated)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Empty(t, obligations)
}

func TestSynchronizeSchedule_StopsAtLeaseEnd(t *testing.T) {
	lease := schedulableLease(1)
	lease.EndDate = datePtr(2025, time.February, 28)
	repo := newFakeObligationRepository()
	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))

	generated, _, err := svc.SynchronizeSchedule(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 2, generated)
}

func TestSynchronizeSchedule_FlipsStalePendingToOverdue(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	repo.seed(models.PaymentObligation{
		LeaseID: 1,
		Amount:  500,
		Balance: 500,
		DueDate: datePtr(2025, time.January, 1),
		Status:  models.ObligationStatusPending,
		Type:    models.ObligationTypeRent,
	})
	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.February, 10))

	generated, updated, err := svc.SynchronizeSchedule(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 1, generated) // February
	assert.Equal(t, 1, updated)   // January flipped

	obligations, _ := repo.FindByLease(context.Background(), 1)
	jan := obligations[0]
	assert.Equal(t, models.ObligationStatusOverdue, jan.Status)
	assert.Equal(t, 40, jan.DaysOverdue)
	assert.Equal(t, 3000.0, jan.LateFeeAmount)
}

func TestResolveDuplicates_KeepsBestAndMergesPaymentData(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()

	// Legacy terminal alias wins the bucket but carries no payment data
	keptID := repo.seed(models.PaymentObligation{
		LeaseID: 1,
		Amount:  500,
		Balance: 500,
		DueDate: datePtr(2025, time.January, 1),
		Status:  models.ObligationStatusCompleted,
		Type:    models.ObligationTypeRent,
	})
	txn := "tx-123"
	method := "cash"
	repo.seed(models.PaymentObligation{
		LeaseID:       1,
		Amount:        500,
		PaidAmount:    float64Ptr(200),
		Balance:       300,
		DueDate:       datePtr(2025, time.January, 5),
		PaymentDate:   datePtr(2025, time.January, 6),
		PaymentMethod: &method,
		TransactionID: &txn,
		Status:        models.ObligationStatusPartiallyPaid,
		Type:          models.ObligationTypeRent,
	})

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	fixed, err := svc.ResolveDuplicates(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 1, fixed)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Len(t, obligations, 1)

	kept := obligations[0]
	assert.Equal(t, keptID, kept.ID)
	assert.Equal(t, 200.0, kept.PaidValue())
	assert.Equal(t, models.ObligationStatusPartiallyPaid, kept.Status)
	assert.NotNil(t, kept.PaymentDate)
	assert.Equal(t, "tx-123", *kept.TransactionID)
	assert.Equal(t, "cash", *kept.PaymentMethod)
	assert.Equal(t, 300.0, kept.Balance)
}

func TestResolveDuplicates_PaidRecordOutranksPending(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()

	repo.seed(models.PaymentObligation{
		LeaseID: 1,
		Amount:  500,
		Balance: 500,
		DueDate: datePtr(2025, time.March, 1),
		Status:  models.ObligationStatusPending,
		Type:    models.ObligationTypeRent,
	})
	paidID := repo.seed(models.PaymentObligation{
		LeaseID:     1,
		Amount:      500,
		PaidAmount:  float64Ptr(500),
		Balance:     0,
		DueDate:     datePtr(2025, time.March, 1),
		PaymentDate: datePtr(2025, time.March, 2),
		Status:      models.ObligationStatusPaid,
		Type:        models.ObligationTypeRent,
	})

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	fixed, err := svc.ResolveDuplicates(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 1, fixed)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Len(t, obligations, 1)
	assert.Equal(t, paidID, obligations[0].ID)
	assert.Equal(t, 500.0, obligations[0].PaidValue())
}

func TestResolveDuplicates_LeavesRecordsWithoutDueDate(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()

	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 500, Balance: 500,
		Status: models.ObligationStatusPending, Type: models.ObligationTypeRent,
	})
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 500, Balance: 500,
		Status: models.ObligationStatusPending, Type: models.ObligationTypeRent,
	})

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	fixed, err := svc.ResolveDuplicates(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 0, fixed)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Len(t, obligations, 2)
}

func TestResolveDuplicates_IgnoresNonRentTypes(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()

	// Two overpayments in the same month are legitimate
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 100, PaidAmount: float64Ptr(100),
		DueDate: datePtr(2025, time.March, 5),
		Status:  models.ObligationStatusPaid, Type: models.ObligationTypeOverpay,
	})
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 50, PaidAmount: float64Ptr(50),
		DueDate: datePtr(2025, time.March, 20),
		Status:  models.ObligationStatusPaid, Type: models.ObligationTypeOverpay,
	})

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	fixed, err := svc.ResolveDuplicates(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 0, fixed)
}

func seedWaterfallObligations(repo *fakeObligationRepository) {
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 500, Balance: 500,
		DueDate: datePtr(2025, time.January, 1),
		Status:  models.ObligationStatusOverdue, Type: models.ObligationTypeRent,
	})
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 500, Balance: 500,
		DueDate: datePtr(2025, time.February, 1),
		Status:  models.ObligationStatusPending, Type: models.ObligationTypeRent,
	})
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 500, Balance: 500,
		DueDate: datePtr(2025, time.March, 1),
		Status:  models.ObligationStatusPending, Type: models.ObligationTypeRent,
	})
}

func TestReconcilePayment_WaterfallPartial(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	seedWaterfallObligations(repo)

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	method := "transfer"
	_, err := svc.ReconcilePayment(context.Background(), 1, PaymentInput{
		Amount:      700,
		PaymentDate: datePtr(2025, time.April, 10),
		Method:      &method,
	})
	assert.NoError(t, err)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Len(t, obligations, 3)

	jan, feb, mar := obligations[0], obligations[1], obligations[2]

	assert.Equal(t, models.ObligationStatusPaid, jan.Status)
	assert.Equal(t, 500.0, jan.PaidValue())
	assert.Equal(t, 0.0, jan.Balance)

	assert.Equal(t, models.ObligationStatusPartiallyPaid, feb.Status)
	assert.Equal(t, 200.0, feb.PaidValue())
	assert.Equal(t, 300.0, feb.Balance)
	assert.Equal(t, "transfer", *feb.PaymentMethod)

	assert.Equal(t, models.ObligationStatusPending, mar.Status)
	assert.Equal(t, 0.0, mar.PaidValue())
	assert.Equal(t, 500.0, mar.Balance)

	// Balance invariant holds on every row
	for _, o := range obligations {
		assert.Equal(t, o.Amount-o.PaidValue(), o.Balance)
	}
}

func TestReconcilePayment_OverpaymentRemainder(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	seedWaterfallObligations(repo)

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	_, err := svc.ReconcilePayment(context.Background(), 1, PaymentInput{
		Amount:      1600,
		PaymentDate: datePtr(2025, time.April, 10),
	})
	assert.NoError(t, err)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Len(t, obligations, 4)

	var overpayment *models.PaymentObligation
	for i := range obligations {
		o := &obligations[i]
		if o.Type == models.ObligationTypeOverpay {
			overpayment = o
			continue
		}
		assert.Equal(t, models.ObligationStatusPaid, o.Status)
		assert.Equal(t, 500.0, o.PaidValue())
		assert.Equal(t, 0.0, o.Balance)
	}

	assert.NotNil(t, overpayment)
	assert.Equal(t, 100.0, overpayment.Amount)
	assert.Equal(t, 100.0, overpayment.PaidValue())
	assert.Equal(t, 0.0, overpayment.Balance)
	assert.Equal(t, models.ObligationStatusPaid, overpayment.Status)
	assert.NotNil(t, overpayment.TransactionID)
}

func TestReconcilePayment_NoOutstandingCreatesAdditionalPayment(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	result, err := svc.ReconcilePayment(context.Background(), 1, PaymentInput{
		Amount:      300,
		PaymentDate: datePtr(2025, time.April, 10),
	})
	assert.NoError(t, err)
	assert.Len(t, result, 1)

	o := result[0]
	assert.Equal(t, models.ObligationTypeAdditional, o.Type)
	assert.Equal(t, 300.0, o.Amount)
	assert.Equal(t, 300.0, o.PaidValue())
	assert.Equal(t, 0.0, o.Balance)
	assert.Equal(t, models.ObligationStatusPaid, o.Status)
}

func TestReconcilePayment_ZeroAmountRefreshesStatusesOnly(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	result, err := svc.ReconcilePayment(context.Background(), 1, PaymentInput{Amount: 0})

	assert.NoError(t, err)
	// Schedule materialized January through April, nothing paid
	assert.Len(t, result, 4)
	for _, o := range result {
		assert.Equal(t, 0.0, o.PaidValue())
	}
}

func TestReconcilePayment_StoreFailureReturnsTypedError(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	seedWaterfallObligations(repo)
	repo.failUpdate = true

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	_, err := svc.ReconcilePayment(context.Background(), 1, PaymentInput{Amount: 700})

	assert.Error(t, err)
	var recErr *ReconciliationError
	assert.True(t, errors.As(err, &recErr))
	assert.Equal(t, "allocate_payment", recErr.Op)
	assert.Equal(t, uint(1), recErr.LeaseID)
}

func TestReconcilePayment_SkipsExcessBeyondOutstanding(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 500, PaidAmount: float64Ptr(400), Balance: 100,
		DueDate: datePtr(2025, time.January, 1),
		Status:  models.ObligationStatusPartiallyPaid, Type: models.ObligationTypeRent,
	})

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	_, err := svc.ReconcilePayment(context.Background(), 1, PaymentInput{Amount: 100})
	assert.NoError(t, err)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Len(t, obligations, 1)
	assert.Equal(t, models.ObligationStatusPaid, obligations[0].Status)
	assert.Equal(t, 500.0, obligations[0].PaidValue())
	assert.Equal(t, 0.0, obligations[0].Balance)
}

func TestRecordManualPayment_RefreshesLateFeeAndSettles(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	id := repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 500, Balance: 500,
		DueDate: datePtr(2025, time.April, 1),
		Status:  models.ObligationStatusOverdue, Type: models.ObligationTypeRent,
	})

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 11))
	obligation, err := svc.RecordManualPayment(context.Background(), id, 500, nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.ObligationStatusPaid, obligation.Status)
	assert.Equal(t, 10, obligation.DaysOverdue)
	assert.Equal(t, 1200.0, obligation.LateFeeAmount)
	assert.Equal(t, 0.0, obligation.Balance)
}

func TestRecordManualPayment_RejectsNonPositiveAmount(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))

	_, err := svc.RecordManualPayment(context.Background(), 1, 0, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestReconcilePayment_SecondPartialPaymentAccumulates(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 500, Balance: 400, PaidAmount: float64Ptr(100),
		DueDate: datePtr(2025, time.January, 1),
		Status:  models.ObligationStatusPartiallyPaid, Type: models.ObligationTypeRent,
	})

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	_, err := svc.ReconcilePayment(context.Background(), 1, PaymentInput{
		Amount:      100,
		PaymentDate: datePtr(2025, time.April, 10),
	})
	assert.NoError(t, err)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	jan := obligations[0]
	assert.Equal(t, models.ObligationStatusPartiallyPaid, jan.Status)
	assert.Equal(t, 200.0, jan.PaidValue())
	assert.Equal(t, 300.0, jan.Balance)
}

func TestReconcilePayment_IgnoresFloatDustRemainder(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 100.1, Balance: 100.1,
		DueDate: datePtr(2025, time.January, 1),
		Status:  models.ObligationStatusOverdue, Type: models.ObligationTypeRent,
	})
	repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 200.2, Balance: 200.2,
		DueDate: datePtr(2025, time.February, 1),
		Status:  models.ObligationStatusPending, Type: models.ObligationTypeRent,
	})

	// 300.3 - 100.1 - 200.2 leaves float dust, not a real remainder
	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	_, err := svc.ReconcilePayment(context.Background(), 1, PaymentInput{
		Amount:      300.3,
		PaymentDate: datePtr(2025, time.April, 10),
	})
	assert.NoError(t, err)

	obligations, _ := repo.FindByLease(context.Background(), 1)
	assert.Len(t, obligations, 2)
	for _, o := range obligations {
		assert.Equal(t, models.ObligationStatusPaid, o.Status)
		assert.NotEqual(t, models.ObligationTypeOverpay, o.Type)
	}
}

func TestRecordManualPayment_SecondPartialPaymentAccumulates(t *testing.T) {
	lease := schedulableLease(1)
	repo := newFakeObligationRepository()
	id := repo.seed(models.PaymentObligation{
		LeaseID: 1, Amount: 500, Balance: 400, PaidAmount: float64Ptr(100),
		DueDate: datePtr(2025, time.April, 1),
		Status:  models.ObligationStatusPartiallyPaid, Type: models.ObligationTypeRent,
	})

	svc := newTestService(leaseRepoFor(lease), repo, date(2025, time.April, 15))
	obligation, err := svc.RecordManualPayment(context.Background(), id, 150, nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, models.ObligationStatusPartiallyPaid, obligation.Status)
	assert.Equal(t, 250.0, obligation.PaidValue())
	assert.Equal(t, 250.0, obligation.Balance)
}

func TestLeaseLocks_SerializesSameLease(t *testing.T) {
	var locks leaseLocks

	release := locks.acquire(7)

	entered := make(chan struct{})
	go func() {
		r := locks.acquire(7)
		close(entered)
		r()
	}()

	select {
	case <-entered:
		t.Fatal("second acquire should block until release")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("second acquire should proceed after release")
	}
}

func TestLeaseLocks_IndependentLeasesDoNotBlock(t *testing.T) {
	var locks leaseLocks

	release := locks.acquire(1)
	defer release()

	done := make(chan struct{})
	go func() {
		r := locks.acquire(2)
		r()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different lease must not be blocked")
	}
}
