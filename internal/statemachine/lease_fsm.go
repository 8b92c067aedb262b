package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rentora/rentora-api/internal/models"
)

// LeaseFSM wraps a lease with its state machine
type LeaseFSM struct {
	lease *models.Lease
	fsm   *fsm.FSM
}

// NewLeaseFSM creates a new lease state machine
func NewLeaseFSM(lease *models.Lease) *LeaseFSM {
	lfsm := &LeaseFSM{
		lease: lease,
	}

	lfsm.fsm = fsm.NewFSM(
		lease.Status,
		fsm.Events{
			{Name: "activate", Src: []string{models.LeaseStatusDraft}, Dst: models.LeaseStatusActive},
			{Name: "close", Src: []string{models.LeaseStatusActive}, Dst: models.LeaseStatusClosed},
			{Name: "cancel", Src: []string{models.LeaseStatusDraft, models.LeaseStatusActive}, Dst: models.LeaseStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// Activate transitions the lease to active
func (l *LeaseFSM) Activate(ctx context.Context) error {
	if !l.lease.MayActivate() {
		return fmt.Errorf("lease cannot be activated in current state: %s", l.lease.Status)
	}

	if err := l.fsm.Event(ctx, "activate"); err != nil {
		return fmt.Errorf("failed to activate lease: %w", err)
	}

	l.lease.Status = l.fsm.Current()
	l.lease.Active = true
	return nil
}

// Close transitions the lease to closed
func (l *LeaseFSM) Close(ctx context.Context) error {
	if !l.lease.MayClose() {
		return fmt.Errorf("lease cannot be closed in current state: %s", l.lease.Status)
	}

	if err := l.fsm.Event(ctx, "close"); err != nil {
		return fmt.Errorf("failed to close lease: %w", err)
	}

	l.lease.Status = l.fsm.Current()
	l.lease.Active = false
	return nil
}

// Cancel transitions the lease to cancelled
func (l *LeaseFSM) Cancel(ctx context.Context) error {
	if !l.lease.MayCancel() {
		return fmt.Errorf("lease cannot be cancelled in current state: %s", l.lease.Status)
	}

	if err := l.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel lease: %w", err)
	}

	l.lease.Status = l.fsm.Current()
	l.lease.Active = false
	return nil
}

// Current returns the current state
func (l *LeaseFSM) Current() string {
	return l.fsm.Current()
}
