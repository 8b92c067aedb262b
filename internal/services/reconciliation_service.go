package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/statemachine"
	"github.com/rentora/rentora-api/pkg/logger"
)

// PaymentInput carries an incoming payment to reconcile against a lease.
// A non-positive Amount degrades ReconcilePayment to a status-only refresh.
type PaymentInput struct {
	Amount      float64
	PaymentDate *time.Time
	Method      *string
	Description *string
}

// ReconciliationService keeps a lease's payment obligations consistent: it
// repairs duplicate month records, materializes missing monthly obligations,
// and distributes incoming payments oldest-due-first. All three phases
// re-read current state rather than trusting a snapshot, and every run for a
// lease holds that lease's lock for its whole duration.
type ReconciliationService struct {
	leaseRepo      repository.LeaseRepository
	obligationRepo repository.ObligationRepository
	auditSvc       *AuditService
	sink           ReconciliationSink
	locks          leaseLocks

	// now is swappable for tests
	now func() time.Time
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	leaseRepo repository.LeaseRepository,
	obligationRepo repository.ObligationRepository,
	auditSvc *AuditService,
	sink ReconciliationSink,
) *ReconciliationService {
	if sink == nil {
		sink = NewLogSink()
	}
	return &ReconciliationService{
		leaseRepo:      leaseRepo,
		obligationRepo: obligationRepo,
		auditSvc:       auditSvc,
		sink:           sink,
		now:            time.Now,
	}
}

// leaseLocks serializes reconciliation runs per lease. Concurrent
// allocations against the same lease would otherwise race on the same
// obligation rows (read-modify-write with no version check).
type leaseLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func (l *leaseLocks) acquire(leaseID uint) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[uint]*sync.Mutex)
	}
	lock, ok := l.locks[leaseID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[leaseID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// withStore applies the shared retry policy to one store call
func withStore(ctx context.Context, fn func(ctx context.Context) error) error {
	return repository.WithRetry(ctx, repository.DefaultRetryAttempts, repository.DefaultRetryBackoff, fn)
}

// remainderEpsilon is half a cent. Float subtraction while walking the
// waterfall can leave dust that must not count as a real remainder.
const remainderEpsilon = 0.005

// ResolveDuplicates enforces the one-rent-obligation-per-month invariant for
// a lease: duplicate records for the same calendar month are merged into the
// highest-priority one and the rest deleted. Returns the number of
// duplicates removed. Best-effort: a failed bucket is logged and skipped.
func (s *ReconciliationService) ResolveDuplicates(ctx context.Context, leaseID uint) (int, error) {
	release := s.locks.acquire(leaseID)
	defer release()
	return s.resolveDuplicates(ctx, leaseID)
}

func (s *ReconciliationService) resolveDuplicates(ctx context.Context, leaseID uint) (int, error) {
	if _, err := s.leaseRepo.FindByID(ctx, leaseID); err != nil {
		return 0, fmt.Errorf("failed to load lease %d: %w", leaseID, err)
	}

	var obligations []models.PaymentObligation
	err := withStore(ctx, func(ctx context.Context) error {
		var err error
		obligations, err = s.obligationRepo.FindByLease(ctx, leaseID)
		return err
	})
	if err != nil {
		return 0, newReconciliationError("resolve_duplicates", leaseID, err)
	}

	// Bucket rent obligations by (year, month) of the nominal due date.
	// Records without a due date stay unbucketed and untouched; non-rent
	// types (overpayments, additional payments, late fees) may legitimately
	// repeat within a month.
	type monthKey struct {
		year  int
		month time.Month
	}
	buckets := make(map[monthKey][]models.PaymentObligation)
	var order []monthKey
	for _, o := range obligations {
		if o.Type != models.ObligationTypeRent {
			continue
		}
		year, month, ok := o.MonthKey()
		if !ok {
			continue
		}
		key := monthKey{year, month}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], o)
	}

	fixed := 0
	for _, key := range order {
		bucket := buckets[key]
		if len(bucket) < 2 {
			continue
		}

		sort.SliceStable(bucket, func(i, j int) bool {
			return duplicatePriorityLess(&bucket[i], &bucket[j])
		})

		kept := &bucket[0]
		for i := 1; i < len(bucket); i++ {
			dup := &bucket[i]

			// Data-preserving merge: never lose payment information held
			// only by the record about to be deleted.
			if dup.HasPayment() && !kept.HasPayment() {
				kept.PaidAmount = dup.PaidAmount
				kept.PaymentDate = dup.PaymentDate
				kept.PaymentMethod = dup.PaymentMethod
				kept.TransactionID = dup.TransactionID
				kept.Status = models.NormalizeStatus(dup.Status)
				kept.RecalcBalance()

				err := withStore(ctx, func(ctx context.Context) error {
					return s.obligationRepo.Update(ctx, kept)
				})
				if err != nil {
					logger.Error("Failed to merge duplicate obligation", "lease_id", leaseID, "obligation_id", dup.ID, "error", err)
					continue
				}
				s.sink.Emit(ctx, ReconciliationEvent{
					Kind:         EventDuplicateMerged,
					LeaseID:      leaseID,
					ObligationID: kept.ID,
					Amount:       dup.PaidValue(),
					Detail:       fmt.Sprintf("payment data moved from obligation %d", dup.ID),
					At:           s.now(),
				})
			}

			err := withStore(ctx, func(ctx context.Context) error {
				return s.obligationRepo.Delete(ctx, dup.ID)
			})
			if err != nil {
				logger.Error("Failed to delete duplicate obligation", "lease_id", leaseID, "obligation_id", dup.ID, "error", err)
				continue
			}

			s.sink.Emit(ctx, ReconciliationEvent{
				Kind:         EventDuplicateRemoved,
				LeaseID:      leaseID,
				ObligationID: dup.ID,
				Detail:       fmt.Sprintf("duplicate for %04d-%02d", key.year, key.month),
				At:           s.now(),
			})
			fixed++
		}
	}

	return fixed, nil
}

// duplicatePriorityLess orders obligations within a month bucket so the
// record to keep sorts first: most settled status wins, then presence of
// payment data, then higher paid amount, then (both overdue) more days
// overdue, then most recently updated.
func duplicatePriorityLess(a, b *models.PaymentObligation) bool {
	rankA, rankB := models.StatusRank(a.Status), models.StatusRank(b.Status)
	if rankA != rankB {
		return rankA < rankB
	}
	if a.HasPayment() != b.HasPayment() {
		return a.HasPayment()
	}
	if a.PaidValue() != b.PaidValue() {
		return a.PaidValue() > b.PaidValue()
	}
	if models.NormalizeStatus(a.Status) == models.ObligationStatusOverdue &&
		a.DaysOverdue != b.DaysOverdue {
		return a.DaysOverdue > b.DaysOverdue
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}

// SynchronizeSchedule ensures every calendar month of the lease term, from
// the start date through the current month, has exactly one rent obligation:
// missing months are created and stale pending/overdue state is refreshed.
// Future months are never materialized. Returns (generated, updated) counts.
// Callers are expected to resolve duplicates first.
func (s *ReconciliationService) SynchronizeSchedule(ctx context.Context, leaseID uint) (int, int, error) {
	release := s.locks.acquire(leaseID)
	defer release()
	return s.synchronizeSchedule(ctx, leaseID)
}

func (s *ReconciliationService) synchronizeSchedule(ctx context.Context, leaseID uint) (int, int, error) {
	lease, err := s.leaseRepo.FindByID(ctx, leaseID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load lease %d: %w", leaseID, err)
	}

	if !lease.HasSchedulableDates() {
		logger.Warn("Schedule synchronization skipped: lease has no start or end date", "lease_id", leaseID)
		return 0, 0, nil
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// Effective end: min(lease end, today), truncated to the first of month
	end := *lease.EndDate
	if end.After(now) {
		end = now
	}
	effectiveEnd := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)

	var existing []models.PaymentObligation
	err = withStore(ctx, func(ctx context.Context) error {
		var err error
		existing, err = s.obligationRepo.FindByLease(ctx, leaseID)
		return err
	})
	if err != nil {
		return 0, 0, newReconciliationError("synchronize_schedule", leaseID, err)
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	index := make(map[monthKey]*models.PaymentObligation)
	for i := range existing {
		o := &existing[i]
		if o.Type != models.ObligationTypeRent {
			continue
		}
		if year, month, ok := o.MonthKey(); ok {
			index[monthKey{year, month}] = o
		}
	}

	generated, updated := 0, 0
	start := *lease.StartDate
	for cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !cursor.After(effectiveEnd); cursor = cursor.AddDate(0, 1, 0) {
		key := monthKey{cursor.Year(), cursor.Month()}
		dueDate := time.Date(cursor.Year(), cursor.Month(), lease.EffectiveDueDay(), 0, 0, 0, 0, time.UTC)

		obligation, exists := index[key]
		if !exists {
			created, err := s.createMonthObligation(ctx, lease, dueDate, today)
			if err != nil {
				logger.Error("Failed to create monthly obligation", "lease_id", leaseID, "month", cursor.Format("2006-01"), "error", err)
				continue
			}
			s.sink.Emit(ctx, ReconciliationEvent{
				Kind:         EventObligationCreated,
				LeaseID:      leaseID,
				ObligationID: created.ID,
				Amount:       created.Amount,
				Detail:       cursor.Format("2006-01"),
				At:           now,
			})
			generated++
			continue
		}

		changed, err := s.refreshOverdueState(ctx, lease, obligation, today)
		if err != nil {
			logger.Error("Failed to refresh obligation state", "lease_id", leaseID, "obligation_id", obligation.ID, "error", err)
			continue
		}
		if changed {
			s.sink.Emit(ctx, ReconciliationEvent{
				Kind:         EventObligationUpdated,
				LeaseID:      leaseID,
				ObligationID: obligation.ID,
				Detail:       fmt.Sprintf("%d days overdue", obligation.DaysOverdue),
				At:           now,
			})
			updated++
		}
	}

	return generated, updated, nil
}

func (s *ReconciliationService) createMonthObligation(ctx context.Context, lease *models.Lease, dueDate, today time.Time) (*models.PaymentObligation, error) {
	description := fmt.Sprintf("Monthly rent %s %d", dueDate.Month(), dueDate.Year())
	referenceID := uuid.NewString()

	obligation := &models.PaymentObligation{
		LeaseID:     lease.ID,
		Amount:      lease.MonthlyRent,
		DueDate:     &dueDate,
		Status:      models.ObligationStatusPending,
		Type:        models.ObligationTypeRent,
		Description: &description,
		ReferenceID: &referenceID,
	}

	if dueDate.Before(today) {
		obligation.Status = models.ObligationStatusOverdue
		obligation.DaysOverdue = obligation.OverdueDaysAt(today)
		obligation.LateFeeAmount = LateFee(obligation.DaysOverdue, lease.EffectiveDailyRate(), lease.EffectiveFeeCap())
	}
	obligation.RecalcBalance()

	err := withStore(ctx, func(ctx context.Context) error {
		return s.obligationRepo.Create(ctx, obligation)
	})
	if err != nil {
		return nil, err
	}
	return obligation, nil
}

// refreshOverdueState brings a rent obligation's overdue bookkeeping current:
// pending rows past their due date flip to overdue, and already-overdue rows
// get days-overdue and the capped late fee recomputed when they moved.
func (s *ReconciliationService) refreshOverdueState(ctx context.Context, lease *models.Lease, obligation *models.PaymentObligation, today time.Time) (bool, error) {
	status := models.NormalizeStatus(obligation.Status)
	if status != models.ObligationStatusPending && status != models.ObligationStatusOverdue {
		return false, nil
	}

	days := obligation.OverdueDaysAt(today)
	if days <= 0 {
		return false, nil
	}
	if status == models.ObligationStatusOverdue && days == obligation.DaysOverdue {
		return false, nil
	}

	if status == models.ObligationStatusPending {
		fsm := statemachine.NewObligationFSM(obligation)
		if err := fsm.MarkOverdue(ctx); err != nil {
			return false, err
		}
	}
	obligation.DaysOverdue = days
	obligation.LateFeeAmount = LateFee(days, lease.EffectiveDailyRate(), lease.EffectiveFeeCap())
	obligation.RecalcBalance()

	err := withStore(ctx, func(ctx context.Context) error {
		return s.obligationRepo.Update(ctx, obligation)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReconcilePayment applies an incoming payment across the lease's
// outstanding obligations oldest-due-first (waterfall). With no positive
// amount it degrades to a status-only refresh: resolve duplicates,
// synchronize the schedule, and return the current obligation list. Always
// returns the lease's obligations newest payment first.
//
// Store failures during allocation abort the run with a typed
// ReconciliationError; writes already committed stay committed (no
// cross-statement transaction), and re-running converges because settled
// obligations are excluded from the outstanding set.
func (s *ReconciliationService) ReconcilePayment(ctx context.Context, leaseID uint, input PaymentInput) ([]models.PaymentObligation, error) {
	release := s.locks.acquire(leaseID)
	defer release()

	// Clean duplicates before anything reads obligation state
	if _, err := s.resolveDuplicates(ctx, leaseID); err != nil {
		return nil, err
	}

	if input.Amount <= 0 {
		// Status-only refresh
		if _, _, err := s.synchronizeSchedule(ctx, leaseID); err != nil {
			return nil, err
		}
		return s.currentObligations(ctx, leaseID)
	}

	paymentDate := input.PaymentDate
	if paymentDate == nil {
		now := s.now()
		paymentDate = &now
	}

	var outstanding []models.PaymentObligation
	err := withStore(ctx, func(ctx context.Context) error {
		var err error
		outstanding, err = s.obligationRepo.FindOutstandingByLease(ctx, leaseID)
		return err
	})
	if err != nil {
		return nil, newReconciliationError("allocate_payment", leaseID, err)
	}

	if len(outstanding) == 0 {
		if err := s.createSettledObligation(ctx, leaseID, models.ObligationTypeAdditional, input.Amount, paymentDate, input.Method, input.Description); err != nil {
			return nil, newReconciliationError("allocate_payment", leaseID, err)
		}
		s.audit(ctx, leaseID, "ALLOCATE", fmt.Sprintf("additional payment of %.2f recorded", input.Amount))
		return s.currentObligations(ctx, leaseID)
	}

	remaining := input.Amount
	for i := range outstanding {
		if remaining < remainderEpsilon {
			break
		}
		obligation := &outstanding[i]
		obligation.RecalcBalance()

		amountToApply := remaining
		if obligation.Balance < amountToApply {
			amountToApply = obligation.Balance
		}
		if amountToApply <= 0 {
			continue
		}

		newPaid := obligation.PaidValue() + amountToApply
		obligation.PaidAmount = &newPaid
		obligation.PaymentDate = paymentDate
		if input.Method != nil {
			obligation.PaymentMethod = input.Method
		}

		fsm := statemachine.NewObligationFSM(obligation)
		if newPaid >= obligation.Amount {
			if err := fsm.Settle(ctx); err != nil {
				return nil, newReconciliationError("allocate_payment", leaseID, err)
			}
		} else {
			if err := fsm.ApplyPartial(ctx); err != nil {
				return nil, newReconciliationError("allocate_payment", leaseID, err)
			}
		}
		obligation.RecalcBalance()

		err := withStore(ctx, func(ctx context.Context) error {
			return s.obligationRepo.Update(ctx, obligation)
		})
		if err != nil {
			// No rollback of earlier writes; the caller re-invokes
			// reconciliation and settled rows are skipped on retry.
			return nil, newReconciliationError("allocate_payment", leaseID, err)
		}

		s.sink.Emit(ctx, ReconciliationEvent{
			Kind:         EventPaymentApplied,
			LeaseID:      leaseID,
			ObligationID: obligation.ID,
			Amount:       amountToApply,
			Detail:       models.NormalizeStatus(obligation.Status),
			At:           s.now(),
		})
		remaining -= amountToApply
	}

	if remaining > remainderEpsilon {
		if err := s.createSettledObligation(ctx, leaseID, models.ObligationTypeOverpay, remaining, paymentDate, input.Method, input.Description); err != nil {
			return nil, newReconciliationError("allocate_payment", leaseID, err)
		}
		s.sink.Emit(ctx, ReconciliationEvent{
			Kind:    EventOverpayment,
			LeaseID: leaseID,
			Amount:  remaining,
			At:      s.now(),
		})
	}

	s.audit(ctx, leaseID, "ALLOCATE", fmt.Sprintf("payment of %.2f allocated", input.Amount))
	return s.currentObligations(ctx, leaseID)
}

// createSettledObligation books a fully-paid obligation (additional payment
// or overpayment remainder) for the given amount.
func (s *ReconciliationService) createSettledObligation(ctx context.Context, leaseID uint, obligationType string, amount float64, paymentDate *time.Time, method, description *string) error {
	transactionID := uuid.NewString()
	paid := amount

	obligation := &models.PaymentObligation{
		LeaseID:       leaseID,
		Amount:        amount,
		PaidAmount:    &paid,
		DueDate:       paymentDate,
		PaymentDate:   paymentDate,
		PaymentMethod: method,
		Status:        models.ObligationStatusPaid,
		Type:          obligationType,
		Description:   description,
		TransactionID: &transactionID,
	}
	obligation.RecalcBalance()

	return withStore(ctx, func(ctx context.Context) error {
		return s.obligationRepo.Create(ctx, obligation)
	})
}

// RecordManualPayment is the one-off manual entry flow: it refreshes the
// obligation's late-fee bookkeeping through the shared cap policy, then
// applies the amount to that single obligation.
func (s *ReconciliationService) RecordManualPayment(ctx context.Context, obligationID uint, amount float64, paymentDate *time.Time, method *string) (*models.PaymentObligation, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	obligation, err := s.obligationRepo.FindByID(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load obligation %d: %w", obligationID, err)
	}

	release := s.locks.acquire(obligation.LeaseID)
	defer release()

	lease, err := s.leaseRepo.FindByID(ctx, obligation.LeaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lease %d: %w", obligation.LeaseID, err)
	}

	if !obligation.IsOutstanding() {
		return nil, ErrInvalidState
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if days := obligation.OverdueDaysAt(today); days > 0 {
		obligation.DaysOverdue = days
		obligation.LateFeeAmount = LateFee(days, lease.EffectiveDailyRate(), lease.EffectiveFeeCap())
	}

	if paymentDate == nil {
		paymentDate = &now
	}

	newPaid := obligation.PaidValue() + amount
	obligation.PaidAmount = &newPaid
	obligation.PaymentDate = paymentDate
	if method != nil {
		obligation.PaymentMethod = method
	}

	fsm := statemachine.NewObligationFSM(obligation)
	if newPaid >= obligation.Amount {
		if err := fsm.Settle(ctx); err != nil {
			return nil, err
		}
	} else {
		if err := fsm.ApplyPartial(ctx); err != nil {
			return nil, err
		}
	}
	obligation.RecalcBalance()

	err = withStore(ctx, func(ctx context.Context) error {
		return s.obligationRepo.Update(ctx, obligation)
	})
	if err != nil {
		return nil, newReconciliationError("manual_payment", obligation.LeaseID, err)
	}

	s.audit(ctx, obligation.LeaseID, "MANUAL_PAYMENT", fmt.Sprintf("manual payment of %.2f on obligation %d", amount, obligationID))
	return obligation, nil
}

// RefreshAllSchedules runs the duplicate resolver and schedule synchronizer
// across every active lease. Used by the scheduled hourly job; per-lease
// failures are logged and do not stop the sweep.
func (s *ReconciliationService) RefreshAllSchedules(ctx context.Context) error {
	leases, err := s.leaseRepo.FindActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active leases: %w", err)
	}

	for _, lease := range leases {
		release := s.locks.acquire(lease.ID)
		if _, err := s.resolveDuplicates(ctx, lease.ID); err != nil {
			logger.Error("Schedule refresh: duplicate resolution failed", "lease_id", lease.ID, "error", err)
			release()
			continue
		}
		if _, _, err := s.synchronizeSchedule(ctx, lease.ID); err != nil {
			logger.Error("Schedule refresh: synchronization failed", "lease_id", lease.ID, "error", err)
		}
		release()
	}
	return nil
}

func (s *ReconciliationService) currentObligations(ctx context.Context, leaseID uint) ([]models.PaymentObligation, error) {
	var obligations []models.PaymentObligation
	err := withStore(ctx, func(ctx context.Context) error {
		var err error
		obligations, err = s.obligationRepo.FindByLeaseNewestFirst(ctx, leaseID)
		return err
	})
	if err != nil {
		return nil, newReconciliationError("list_obligations", leaseID, err)
	}
	return obligations, nil
}

func (s *ReconciliationService) audit(ctx context.Context, leaseID uint, action, details string) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Log(ctx, "system", action, "Lease", leaseID, details, ""); err != nil {
		logger.Warn("Failed to write audit entry", "lease_id", leaseID, "action", action, "error", err)
	}
}
