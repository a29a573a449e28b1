/*
Package payroll turns staff base salaries, attendance and pending payroll
adjustments into salary slips, and manages the slip lifecycle.

GENERATION RULES (per staff member, per period):
 1. At most one slip per (staff, period); an existing slip means skip.
 2. Attendance deduction is pro-rated: per-day rate = base salary divided
    by the calendar days in the period, deducted for each unpaid-absence
    day (absent or unpaid leave). Paid leave deducts nothing.
 3. Generation sweeps ALL currently pending payroll adjustments for the
    staff member, regardless of effective date: bonuses raise pay,
    fines/advances/deductions lower it. Each consumed adjustment becomes
    Applied with a back-reference to the new slip.
 4. Net salary = base - attendance deduction - deductions + bonuses,
    clamped at zero. A slip never shows negative pay.

The slip is persisted before any adjustment is marked Applied, mirroring
invoice generation.
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brightsteps/billing-engine/core"
	"github.com/shopspring/decimal"
)

// Engine implements payroll generation and slip lifecycle management over
// an injected store.
type Engine struct {
	mu    sync.Mutex
	store core.Store

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewEngine(s core.Store) *Engine {
	return &Engine{store: s, Now: time.Now}
}

func (e *Engine) today() core.Date {
	return core.DateOf(e.Now().UTC())
}

// =============================================================================
// GENERATION
// =============================================================================

// GeneratePayroll runs the payroll sweep for one period. With explicit
// staff IDs it targets only those members; otherwise every active staff
// member. Returns the number of slips generated; zero is a normal outcome.
func (e *Engine) GeneratePayroll(ctx context.Context, period core.Period, staffIDs []core.StaffID) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if period.IsZero() {
		return 0, &core.ValidationError{Field: "period", Reason: "required"}
	}

	var targets []core.Staff
	if len(staffIDs) > 0 {
		for _, id := range staffIDs {
			member, err := e.store.StaffByID(ctx, id)
			if err != nil {
				return 0, err
			}
			if member == nil {
				return 0, &core.NotFoundError{Kind: "staff", ID: string(id)}
			}
			targets = append(targets, *member)
		}
	} else {
		members, err := e.store.StaffMembers(ctx)
		if err != nil {
			return 0, err
		}
		for _, m := range members {
			if m.Status == core.StatusActive {
				targets = append(targets, m)
			}
		}
	}

	generated := 0
	var failures []error
	for _, member := range targets {
		ok, err := e.generateFor(ctx, member, period)
		if err != nil {
			failures = append(failures, fmt.Errorf("staff %s: %w", member.ID, err))
			continue
		}
		if ok {
			generated++
		}
	}
	return generated, errors.Join(failures...)
}

func (e *Engine) generateFor(ctx context.Context, member core.Staff, period core.Period) (bool, error) {
	existing, err := e.store.SlipByStaffPeriod(ctx, member.ID, period)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil // at-most-one-slip invariant
	}

	deduction, err := e.attendanceDeduction(ctx, member, period)
	if err != nil {
		return false, err
	}

	pending, err := e.store.PendingPayrollAdjustments(ctx, member.ID)
	if err != nil {
		return false, err
	}
	lines := make([]core.AppliedAdjustment, 0, len(pending))
	for _, adj := range pending {
		lines = append(lines, core.AppliedAdjustment{
			AdjustmentID: adj.ID,
			Kind:         adj.Kind,
			Description:  adj.Description,
			Amount:       adj.Amount,
		})
	}

	slip := core.SalarySlip{
		ID:                  core.SlipID(core.NewID()),
		StaffID:             member.ID,
		Period:              period,
		BaseSalary:          member.BaseSalary,
		AttendanceDeduction: deduction,
		Adjustments:         lines,
		Status:              core.DocPending,
		GeneratedAt:         e.Now().UTC(),
	}
	slip.Recalculate()

	if err := e.store.UpsertSlip(ctx, slip); err != nil {
		return false, err
	}
	for _, adj := range pending {
		adj.State = core.AppliedTo(core.SlipRef(slip.ID))
		if err := e.store.UpsertPayrollAdjustment(ctx, adj); err != nil {
			return false, err
		}
	}
	return true, nil
}

// attendanceDeduction computes the pro-rated salary deduction for
// unpaid-absence days in the period.
func (e *Engine) attendanceDeduction(ctx context.Context, member core.Staff, period core.Period) (core.Money, error) {
	records, err := e.store.AttendanceForPeriod(ctx, string(member.ID), core.KindStaff, period)
	if err != nil {
		return core.ZeroMoney(), err
	}
	stats := core.ComputeAttendanceStats(records)
	if stats.UnpaidAbsenceDays() == 0 {
		return core.ZeroMoney(), nil
	}
	perDay := member.BaseSalary.Div(decimal.NewFromInt(int64(period.DaysInMonth())))
	return perDay.MulInt(stats.UnpaidAbsenceDays()), nil
}
