/*
Package billing turns enrollments, attendance and pending student
adjustments into invoices, and manages the invoice lifecycle.

GENERATION RULES (per student, per period):
 1. Tuition is billed at most once per (student, period). A period counts
    as billed when an existing invoice for that student+period carries a
    tuition line item - adjustment-only invoices do not count.
 2. Monthly enrollments bill the agreed fee flat. Daily enrollments bill
    agreed fee x attended days (present or late); zero attended days
    contributes nothing.
 3. Generation sweeps ALL currently pending adjustments for the student,
    regardless of their effective date. Each consumed adjustment becomes
    Applied with a back-reference to the new invoice.
 4. An empty item list creates no invoice and touches no adjustment.

ORDERING:
  The invoice is persisted before any adjustment is marked Applied, so a
  failure can never leave an adjustment consumed without an owning invoice.

CONCURRENCY:
  A single mutex serializes every mutating operation (single logical
  writer); a concurrent read never observes an Applied adjustment whose
  invoice does not exist.
*/
package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brightsteps/billing-engine/core"
)

// DueDays is the payment window granted on generated invoices.
const DueDays = 10

// Engine implements invoice generation and lifecycle management over an
// injected store.
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
// PERIODIC GENERATION
// =============================================================================

// GenerateInvoices runs the billing sweep for one period. With a target
// student it bills only that student; otherwise it bills every active
// student. Returns the number of invoices created; zero is a normal
// outcome ("nothing to bill"), not an error.
//
// Batch runs are atomic per student: one student's failure is reported but
// does not block the rest, and never leaves that student's adjustments
// partially consumed.
func (e *Engine) GenerateInvoices(ctx context.Context, period core.Period, target *core.StudentID) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if period.IsZero() {
		return 0, &core.ValidationError{Field: "period", Reason: "required"}
	}

	var targets []core.StudentID
	if target != nil {
		student, err := e.store.StudentByID(ctx, *target)
		if err != nil {
			return 0, err
		}
		if student == nil {
			return 0, &core.NotFoundError{Kind: "student", ID: string(*target)}
		}
		targets = []core.StudentID{*target}
	} else {
		students, err := e.store.Students(ctx)
		if err != nil {
			return 0, err
		}
		for _, s := range students {
			if s.Status == core.StatusActive {
				targets = append(targets, s.ID)
			}
		}
	}

	created := 0
	var failures []error
	for _, id := range targets {
		ok, err := e.generateFor(ctx, id, period)
		if err != nil {
			failures = append(failures, fmt.Errorf("student %s: %w", id, err))
			continue
		}
		if ok {
			created++
		}
	}
	return created, errors.Join(failures...)
}

// generateFor bills a single student. Returns whether an invoice was created.
func (e *Engine) generateFor(ctx context.Context, studentID core.StudentID, period core.Period) (bool, error) {
	var items []core.LineItem

	billed, err := e.tuitionBilled(ctx, studentID, period)
	if err != nil {
		return false, err
	}
	if !billed {
		tuition, err := e.tuitionItems(ctx, studentID, period)
		if err != nil {
			return false, err
		}
		items = append(items, tuition...)
	}

	pending, err := e.store.PendingStudentAdjustments(ctx, studentID)
	if err != nil {
		return false, err
	}
	for _, adj := range pending {
		items = append(items, core.LineItem{
			Kind:        core.LineCharge,
			Description: adj.Description,
			Amount:      adj.Amount,
		})
	}

	if len(items) == 0 {
		return false, nil
	}

	today := e.today()
	seq, err := e.store.NextInvoiceNumber(ctx)
	if err != nil {
		return false, err
	}
	inv := core.Invoice{
		ID:        core.InvoiceID(core.NewID()),
		Number:    core.FormatInvoiceNumber(seq),
		StudentID: studentID,
		Period:    period,
		IssuedOn:  today,
		DueDate:   today.AddDays(DueDays),
		Status:    core.DocPending,
		Items:     items,
	}
	inv.Recalculate()

	// Invoice first, then consume: an adjustment is applied only once its
	// owning document durably exists.
	if err := e.store.UpsertInvoice(ctx, inv); err != nil {
		return false, err
	}
	for _, adj := range pending {
		adj.State = core.AppliedTo(core.InvoiceRef(inv.ID))
		if err := e.store.UpsertStudentAdjustment(ctx, adj); err != nil {
			return false, err
		}
	}
	return true, nil
}

// tuitionBilled reports whether an invoice for this student+period already
// carries a tuition line.
func (e *Engine) tuitionBilled(ctx context.Context, studentID core.StudentID, period core.Period) (bool, error) {
	existing, err := e.store.InvoicesForPeriod(ctx, studentID, period)
	if err != nil {
		return false, err
	}
	for i := range existing {
		if existing[i].HasTuition() {
			return true, nil
		}
	}
	return false, nil
}

// tuitionItems builds the tuition lines for a student's enrollments.
// The attended-day count is fetched once and shared by all daily
// enrollments; it is whatever attendance exists at generation time, so a
// mid-period run locks in a partial count for the rest of the month.
func (e *Engine) tuitionItems(ctx context.Context, studentID core.StudentID, period core.Period) ([]core.LineItem, error) {
	enrollments, err := e.store.EnrollmentsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return nil, nil
	}

	attendedDays := -1 // lazily computed, only if a daily enrollment exists
	var items []core.LineItem
	for _, enr := range enrollments {
		name, err := e.courseName(ctx, enr.CourseID)
		if err != nil {
			return nil, err
		}
		switch enr.Basis {
		case core.BasisMonthly:
			items = append(items, core.LineItem{
				Kind:        core.LineTuition,
				Description: fmt.Sprintf("Tuition - %s (%s)", name, period.Label()),
				Amount:      enr.AgreedFee,
			})
		case core.BasisDaily:
			if attendedDays < 0 {
				records, err := e.store.AttendanceForPeriod(ctx, string(studentID), core.KindStudent, period)
				if err != nil {
					return nil, err
				}
				attendedDays = core.ComputeAttendanceStats(records).BillableDays()
			}
			if attendedDays == 0 {
				continue
			}
			items = append(items, core.LineItem{
				Kind:        core.LineTuition,
				Description: fmt.Sprintf("Tuition - %s (%s, %d days attended)", name, period.Label(), attendedDays),
				Amount:      enr.AgreedFee.MulInt(attendedDays),
			})
		}
	}
	return items, nil
}

func (e *Engine) courseName(ctx context.Context, id core.CourseID) (string, error) {
	course, err := e.store.CourseByID(ctx, id)
	if err != nil {
		return "", err
	}
	if course == nil {
		return string(id), nil
	}
	return course.Name, nil
}

// =============================================================================
// AD-HOC INVOICING
// =============================================================================

// AdHocInvoiceInput describes a single-item invoice recorded outside the
// periodic sweep.
type AdHocInvoiceInput struct {
	StudentID   core.StudentID
	Kind        core.LineKind
	Amount      core.Money
	Description string
	DueDate     core.Date
	Paid        bool
}

// CreateAdHocInvoice records a one-off charge immediately, bypassing the
// adjustment ledger. A Paid ad-hoc invoice always implies a recorded
// payment: the ledger entry is written in the same critical section.
func (e *Engine) CreateAdHocInvoice(ctx context.Context, in AdHocInvoiceInput) (*core.Invoice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := core.ValidateCharge(in.Amount, in.Description); err != nil {
		return nil, err
	}
	student, err := e.store.StudentByID(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, &core.NotFoundError{Kind: "student", ID: string(in.StudentID)}
	}

	today := e.today()
	due := in.DueDate
	if due.IsZero() {
		due = today.AddDays(DueDays)
	}
	kind := in.Kind
	if kind == "" {
		kind = core.LineCharge
	}

	seq, err := e.store.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}
	inv := core.Invoice{
		ID:        core.InvoiceID(core.NewID()),
		Number:    core.FormatInvoiceNumber(seq),
		StudentID: in.StudentID,
		Period:    core.PeriodOf(today),
		IssuedOn:  today,
		DueDate:   due,
		Status:    core.DocPending,
		Items:     []core.LineItem{{Kind: kind, Description: in.Description, Amount: in.Amount}},
	}
	inv.Recalculate()
	if in.Paid {
		inv.Status = core.DocPaid
		inv.PaidOn = today
	}

	if err := e.store.UpsertInvoice(ctx, inv); err != nil {
		return nil, err
	}
	if in.Paid {
		if err := e.appendPayment(ctx, inv); err != nil {
			return nil, err
		}
	}
	return &inv, nil
}

// =============================================================================
// QUEUE-OR-MERGE CHARGES
// =============================================================================

// ChargeOutcome reports which path QueueOrMergeCharge took.
type ChargeOutcome string

const (
	ChargeMerged ChargeOutcome = "merged" // appended to an existing pending invoice
	ChargeQueued ChargeOutcome = "queued" // waiting for the next generation sweep
)

// QueueOrMergeCharge records a student charge. If the student has a pending
// invoice (any period) the charge is appended to it and the adjustment is
// recorded as immediately Applied against that invoice; otherwise a pending
// adjustment is queued for the next sweep.
func (e *Engine) QueueOrMergeCharge(ctx context.Context, studentID core.StudentID, kind core.StudentChargeKind, amount core.Money, description string, date core.Date) (ChargeOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := core.ValidateCharge(amount, description); err != nil {
		return "", err
	}
	student, err := e.store.StudentByID(ctx, studentID)
	if err != nil {
		return "", err
	}
	if student == nil {
		return "", &core.NotFoundError{Kind: "student", ID: string(studentID)}
	}
	if date.IsZero() {
		date = e.today()
	}

	adj := core.StudentAdjustment{
		ID:          core.AdjustmentID(core.NewID()),
		StudentID:   studentID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Date:        date,
		State:       core.Pending(),
	}

	open, err := e.firstPendingInvoice(ctx, studentID)
	if err != nil {
		return "", err
	}
	if open == nil {
		if err := e.store.UpsertStudentAdjustment(ctx, adj); err != nil {
			return "", err
		}
		return ChargeQueued, nil
	}

	open.AppendItem(core.LineItem{Kind: core.LineCharge, Description: description, Amount: amount})
	if err := e.store.UpsertInvoice(ctx, *open); err != nil {
		return "", err
	}
	adj.State = core.AppliedTo(core.InvoiceRef(open.ID))
	if err := e.store.UpsertStudentAdjustment(ctx, adj); err != nil {
		return "", err
	}
	return ChargeMerged, nil
}

// firstPendingInvoice returns the student's oldest pending invoice, by
// invoice number, or nil.
func (e *Engine) firstPendingInvoice(ctx context.Context, studentID core.StudentID) (*core.Invoice, error) {
	invoices, err := e.store.InvoicesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if invoices[i].Status == core.DocPending {
			return &invoices[i], nil
		}
	}
	return nil, nil
}

func (e *Engine) appendPayment(ctx context.Context, inv core.Invoice) error {
	return e.store.AppendLedgerEntry(ctx, core.LedgerEntry{
		ID:         core.EntryID(core.NewID()),
		Kind:       core.EntryPayment,
		Document:   core.InvoiceRef(inv.ID),
		EntityID:   string(inv.StudentID),
		EntityKind: core.KindStudent,
		Amount:     inv.AmountDue,
		Note:       fmt.Sprintf("Payment for %s", inv.Number),
		RecordedAt: e.Now().UTC(),
	})
}
