package payroll

import (
	"context"
	"fmt"

	"github.com/brightsteps/billing-engine/core"
)

// =============================================================================
// SLIP LIFECYCLE
// =============================================================================

// RefreshSlip recomputes a pending slip in place: the attendance deduction
// is re-derived from current attendance, and the adjustment lines are
// re-summed from the live amounts of adjustments still pointing at this
// slip. It does NOT re-run the pending sweep - detached or newly queued
// adjustments are picked up only by generation.
func (e *Engine) RefreshSlip(ctx context.Context, id core.SlipID) (*core.SalarySlip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slip, err := e.store.SlipByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if slip == nil {
		return nil, &core.NotFoundError{Kind: "slip", ID: string(id)}
	}
	if slip.Status != core.DocPending {
		return nil, &core.InvalidStateError{Kind: "slip", ID: string(id), State: string(slip.Status), Op: "refresh"}
	}

	member, err := e.store.StaffByID(ctx, slip.StaffID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, &core.NotFoundError{Kind: "staff", ID: string(slip.StaffID)}
	}

	deduction, err := e.attendanceDeduction(ctx, *member, slip.Period)
	if err != nil {
		return nil, err
	}
	linked, err := e.store.PayrollAdjustmentsAppliedTo(ctx, core.SlipRef(id))
	if err != nil {
		return nil, err
	}

	slip.AttendanceDeduction = deduction
	slip.Adjustments = slip.Adjustments[:0]
	for _, adj := range linked {
		slip.Adjustments = append(slip.Adjustments, core.AppliedAdjustment{
			AdjustmentID: adj.ID,
			Kind:         adj.Kind,
			Description:  adj.Description,
			Amount:       adj.Amount,
		})
	}
	slip.Recalculate()

	if err := e.store.UpsertSlip(ctx, *slip); err != nil {
		return nil, err
	}
	return slip, nil
}

// MarkPaid transitions a pending slip to paid and records the salary
// expense in the transaction ledger. Already-paid slips are rejected.
func (e *Engine) MarkPaid(ctx context.Context, id core.SlipID) (*core.SalarySlip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slip, err := e.store.SlipByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if slip == nil {
		return nil, &core.NotFoundError{Kind: "slip", ID: string(id)}
	}
	if slip.Status != core.DocPending {
		return nil, &core.InvalidStateError{Kind: "slip", ID: string(id), State: string(slip.Status), Op: "mark-paid"}
	}

	slip.Status = core.DocPaid
	slip.PaidOn = e.today()
	if err := e.store.UpsertSlip(ctx, *slip); err != nil {
		return nil, err
	}
	err = e.store.AppendLedgerEntry(ctx, core.LedgerEntry{
		ID:         core.EntryID(core.NewID()),
		Kind:       core.EntrySalaryExpense,
		Document:   core.SlipRef(id),
		EntityID:   string(slip.StaffID),
		EntityKind: core.KindStaff,
		Amount:     slip.NetSalary,
		Note:       fmt.Sprintf("Salary %s", slip.Period),
		RecordedAt: e.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return slip, nil
}

// DeleteSlip removes a slip of any status and releases its Applied
// adjustments back to Pending, making them available to the next
// generation sweep. Paid slips are deletable; the release step keeps the
// adjustment bookkeeping consistent either way.
func (e *Engine) DeleteSlip(ctx context.Context, id core.SlipID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	slip, err := e.store.SlipByID(ctx, id)
	if err != nil {
		return err
	}
	if slip == nil {
		return &core.NotFoundError{Kind: "slip", ID: string(id)}
	}

	if err := e.store.DeleteSlip(ctx, id); err != nil {
		return err
	}
	owned, err := e.store.PayrollAdjustmentsAppliedTo(ctx, core.SlipRef(id))
	if err != nil {
		return err
	}
	for _, adj := range owned {
		adj.State = core.Pending()
		if err := e.store.UpsertPayrollAdjustment(ctx, adj); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// FINE-GRAINED DETACH
// =============================================================================

// DetachMode selects what happens to an adjustment removed from a slip.
type DetachMode string

const (
	// DetachCancel permanently deletes the adjustment; it can never be
	// billed again.
	DetachCancel DetachMode = "cancel"
	// DetachPostpone releases the adjustment to Pending with its effective
	// date moved to the first day of the month after the slip's period, so
	// any later payroll run picks it up.
	DetachPostpone DetachMode = "postpone"
)

// DetachAdjustment removes one adjustment from a pending slip. The slip's
// totals are NOT recomputed here; the caller follows up with RefreshSlip.
func (e *Engine) DetachAdjustment(ctx context.Context, slipID core.SlipID, adjustmentID core.AdjustmentID, mode DetachMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	slip, err := e.store.SlipByID(ctx, slipID)
	if err != nil {
		return err
	}
	if slip == nil {
		return &core.NotFoundError{Kind: "slip", ID: string(slipID)}
	}
	if slip.Status != core.DocPending {
		return &core.InvalidStateError{Kind: "slip", ID: string(slipID), State: string(slip.Status), Op: "detach"}
	}

	adj, err := e.store.PayrollAdjustmentByID(ctx, adjustmentID)
	if err != nil {
		return err
	}
	if adj == nil {
		return &core.NotFoundError{Kind: "adjustment", ID: string(adjustmentID)}
	}
	owner, applied := adj.State.Owner()
	if !applied || owner != core.SlipRef(slipID) {
		return &core.InvalidStateError{Kind: "adjustment", ID: string(adjustmentID), State: adj.State.String(), Op: "detach"}
	}

	switch mode {
	case DetachCancel:
		// Release, then remove for good.
		return e.store.DeletePayrollAdjustment(ctx, adjustmentID)
	case DetachPostpone:
		adj.State = core.Pending()
		adj.Date = slip.Period.Next().Start()
		return e.store.UpsertPayrollAdjustment(ctx, *adj)
	default:
		return &core.ValidationError{Field: "mode", Reason: "must be cancel or postpone"}
	}
}

// =============================================================================
// ADJUSTMENT CRUD (pending only)
// =============================================================================

// UpdateAdjustment edits a pending payroll adjustment. Applied adjustments
// must be released through their owning slip first.
func (e *Engine) UpdateAdjustment(ctx context.Context, id core.AdjustmentID, kind core.PayrollAdjustmentKind, amount core.Money, description string, date core.Date) (*core.PayrollAdjustment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := core.ValidateCharge(amount, description); err != nil {
		return nil, err
	}
	adj, err := e.store.PayrollAdjustmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if adj == nil {
		return nil, &core.NotFoundError{Kind: "adjustment", ID: string(id)}
	}
	if adj.State.IsApplied() {
		return nil, &core.InvalidStateError{Kind: "adjustment", ID: string(id), State: adj.State.String(), Op: "edit"}
	}

	adj.Kind = kind
	adj.Amount = amount
	adj.Description = description
	if !date.IsZero() {
		adj.Date = date
	}
	if err := e.store.UpsertPayrollAdjustment(ctx, *adj); err != nil {
		return nil, err
	}
	return adj, nil
}

// QueueAdjustment records a new pending payroll adjustment for the next
// generation sweep.
func (e *Engine) QueueAdjustment(ctx context.Context, staffID core.StaffID, kind core.PayrollAdjustmentKind, amount core.Money, description string, date core.Date) (*core.PayrollAdjustment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := core.ValidateCharge(amount, description); err != nil {
		return nil, err
	}
	member, err := e.store.StaffByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, &core.NotFoundError{Kind: "staff", ID: string(staffID)}
	}
	if date.IsZero() {
		date = e.today()
	}

	adj := core.PayrollAdjustment{
		ID:          core.AdjustmentID(core.NewID()),
		StaffID:     staffID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Date:        date,
		State:       core.Pending(),
	}
	if err := e.store.UpsertPayrollAdjustment(ctx, adj); err != nil {
		return nil, err
	}
	return &adj, nil
}

// DeleteAdjustment removes a pending payroll adjustment.
func (e *Engine) DeleteAdjustment(ctx context.Context, id core.AdjustmentID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	adj, err := e.store.PayrollAdjustmentByID(ctx, id)
	if err != nil {
		return err
	}
	if adj == nil {
		return &core.NotFoundError{Kind: "adjustment", ID: string(id)}
	}
	if adj.State.IsApplied() {
		return &core.InvalidStateError{Kind: "adjustment", ID: string(id), State: adj.State.String(), Op: "delete"}
	}
	return e.store.DeletePayrollAdjustment(ctx, id)
}
