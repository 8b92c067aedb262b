package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rentora/rentora-api/internal/models"
)

// ObligationFSM wraps a payment obligation with its state machine. The
// machine always starts from the normalized status so the legacy "completed"
// alias behaves exactly like "paid".
type ObligationFSM struct {
	obligation *models.PaymentObligation
	fsm        *fsm.FSM
}

// NewObligationFSM creates a new obligation state machine
func NewObligationFSM(obligation *models.PaymentObligation) *ObligationFSM {
	ofsm := &ObligationFSM{
		obligation: obligation,
	}

	ofsm.fsm = fsm.NewFSM(
		models.NormalizeStatus(obligation.Status),
		fsm.Events{
			// pending → overdue (due date passed unpaid)
			{Name: "mark_overdue", Src: []string{models.ObligationStatusPending}, Dst: models.ObligationStatusOverdue},

			// pending/overdue/partially_paid → partially_paid (repeat partial
			// payments keep the status until the obligation settles)
			{Name: "apply_partial", Src: []string{models.ObligationStatusPending, models.ObligationStatusOverdue, models.ObligationStatusPartiallyPaid}, Dst: models.ObligationStatusPartiallyPaid},

			// pending/overdue/partially_paid → paid
			{Name: "settle", Src: []string{models.ObligationStatusPending, models.ObligationStatusOverdue, models.ObligationStatusPartiallyPaid}, Dst: models.ObligationStatusPaid},
		},
		fsm.Callbacks{},
	)

	return ofsm
}

// MarkOverdue transitions the obligation to overdue
func (o *ObligationFSM) MarkOverdue(ctx context.Context) error {
	if err := o.fsm.Event(ctx, "mark_overdue"); err != nil {
		return fmt.Errorf("cannot mark obligation overdue: %w", err)
	}
	o.obligation.Status = o.fsm.Current()
	return nil
}

// ApplyPartial transitions the obligation to partially_paid. Applying a
// partial payment to an already partially paid obligation is a self
// transition, which looplab reports as NoTransitionError.
func (o *ObligationFSM) ApplyPartial(ctx context.Context) error {
	if err := o.fsm.Event(ctx, "apply_partial"); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return fmt.Errorf("cannot partially pay obligation: %w", err)
		}
	}
	o.obligation.Status = o.fsm.Current()
	return nil
}

// Settle transitions the obligation to paid
func (o *ObligationFSM) Settle(ctx context.Context) error {
	if err := o.fsm.Event(ctx, "settle"); err != nil {
		return fmt.Errorf("cannot settle obligation: %w", err)
	}
	o.obligation.Status = o.fsm.Current()
	return nil
}

// Current returns the current state
func (o *ObligationFSM) Current() string {
	return o.fsm.Current()
}

// Can checks if a transition is possible
func (o *ObligationFSM) Can(event string) bool {
	return o.fsm.Can(event)
}
