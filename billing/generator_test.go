package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/billing-engine/billing"
	"github.com/brightsteps/billing-engine/core"
	"github.com/brightsteps/billing-engine/core/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var june = core.Period{Year: 2024, Month: time.June}

func newTestEngine(t *testing.T) (*billing.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	engine := billing.NewEngine(mem)
	engine.Now = func() time.Time {
		return time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	}
	return engine, mem
}

func seedStudent(t *testing.T, mem *store.Memory, id core.StudentID) {
	t.Helper()
	err := mem.UpsertStudent(context.Background(), core.Student{
		ID: id, Name: "Student " + string(id), Status: core.StatusActive,
	})
	require.NoError(t, err)
}

func seedMonthly(t *testing.T, mem *store.Memory, studentID core.StudentID, fee int64) {
	t.Helper()
	err := mem.UpsertEnrollment(context.Background(), core.Enrollment{
		ID:        core.EnrollmentID("enr-" + string(studentID)),
		StudentID: studentID,
		CourseID:  "speech",
		Basis:     core.BasisMonthly,
		AgreedFee: core.MoneyFromInt(fee),
		StartedOn: june.Start(),
	})
	require.NoError(t, err)
}

func seedDaily(t *testing.T, mem *store.Memory, studentID core.StudentID, fee int64) {
	t.Helper()
	err := mem.UpsertEnrollment(context.Background(), core.Enrollment{
		ID:        core.EnrollmentID("enr-d-" + string(studentID)),
		StudentID: studentID,
		CourseID:  "occupational",
		Basis:     core.BasisDaily,
		AgreedFee: core.MoneyFromInt(fee),
		StartedOn: june.Start(),
	})
	require.NoError(t, err)
}

func markDays(t *testing.T, mem *store.Memory, studentID core.StudentID, statuses map[int]core.AttendanceStatus) {
	t.Helper()
	for day, status := range statuses {
		err := mem.UpsertAttendance(context.Background(), core.AttendanceRecord{
			EntityID: string(studentID),
			Kind:     core.KindStudent,
			Date:     core.NewDate(2024, time.June, day),
			Status:   status,
		})
		require.NoError(t, err)
	}
}

func queueCharge(t *testing.T, mem *store.Memory, id core.AdjustmentID, studentID core.StudentID, amount int64, desc string) {
	t.Helper()
	err := mem.UpsertStudentAdjustment(context.Background(), core.StudentAdjustment{
		ID:          id,
		StudentID:   studentID,
		Kind:        core.ChargeOther,
		Amount:      core.MoneyFromInt(amount),
		Description: desc,
		Date:        june.Start(),
		State:       core.Pending(),
	})
	require.NoError(t, err)
}

// =============================================================================
// TUITION GENERATION
// =============================================================================

func TestGenerate_MonthlyFlatFee(t *testing.T) {
	// GIVEN: One active student on a monthly enrollment
	// WHEN: The billing sweep runs
	// THEN: One invoice with one tuition line at the agreed fee

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	seedMonthly(t, mem, "alice", 1500)

	created, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	invoices, err := mem.InvoicesByStudent(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	inv := invoices[0]
	assert.Equal(t, "INV-0001", inv.Number)
	assert.Equal(t, core.DocPending, inv.Status)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, core.LineTuition, inv.Items[0].Kind)
	assert.Equal(t, "1500.00", inv.AmountDue.String())
	assert.Equal(t, inv.IssuedOn.AddDays(billing.DueDays), inv.DueDate)
}

func TestGenerate_TuitionBilledOncePerPeriod(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	seedMonthly(t, mem, "alice", 1500)

	created, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// Re-running the same period bills nothing new.
	created, err = engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// A different period bills again.
	july := june.Next()
	created, err = engine.GenerateInvoices(ctx, july, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestGenerate_AdjustmentOnlyInvoiceDoesNotBlockTuition(t *testing.T) {
	// An invoice with no tuition line must not count as "tuition billed"
	// for the period.

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	queueCharge(t, mem, "adj-1", "alice", 250, "Assessment materials")

	// No enrollment yet: the sweep produces an adjustment-only invoice.
	created, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	seedMonthly(t, mem, "alice", 1500)
	created, err = engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created, "tuition should still be billable for the period")

	invoices, err := mem.InvoicesByStudent(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, invoices, 2)
}

func TestGenerate_DailyBilling(t *testing.T) {
	// Daily fee 500 x 3 billable days (2 present + 1 late); the absent day
	// contributes nothing.

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "budi")
	seedDaily(t, mem, "budi", 500)
	markDays(t, mem, "budi", map[int]core.AttendanceStatus{
		3:  core.AttPresent,
		4:  core.AttLate,
		5:  core.AttAbsent,
		10: core.AttPresent,
	})

	created, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	invoices, err := mem.InvoicesByStudent(ctx, "budi")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "1500.00", invoices[0].AmountDue.String())
	assert.Contains(t, invoices[0].Items[0].Description, "3 days attended")
}

func TestGenerate_DailyZeroAttendance_NoInvoice(t *testing.T) {
	// GIVEN: A daily enrollment with no attendance and no adjustments
	// WHEN: The sweep runs
	// THEN: No invoice; zero generated is success, not an error

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "budi")
	seedDaily(t, mem, "budi", 500)

	created, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	invoices, err := mem.InvoicesByStudent(ctx, "budi")
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestGenerate_InactiveStudentSkipped(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	err := mem.UpsertStudent(ctx, core.Student{ID: "gone", Name: "Gone", Status: core.StatusInactive})
	require.NoError(t, err)
	seedMonthly(t, mem, "gone", 1500)

	created, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestGenerate_TargetStudentNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)
	missing := core.StudentID("nobody")

	_, err := engine.GenerateInvoices(context.Background(), june, &missing)
	assert.True(t, core.IsNotFound(err))
}

// =============================================================================
// ADJUSTMENT SWEEP
// =============================================================================

func TestGenerate_SweepsAllPendingAdjustments(t *testing.T) {
	// Pending adjustments are consumed regardless of their effective date,
	// including ones dated in other months.

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	seedMonthly(t, mem, "alice", 15000)
	queueCharge(t, mem, "adj-1", "alice", 500, "Late pickup fee")
	err := mem.UpsertStudentAdjustment(ctx, core.StudentAdjustment{
		ID: "adj-2", StudentID: "alice", Kind: core.ChargeFine,
		Amount: core.MoneyFromInt(75), Description: "Old fine",
		Date:  core.NewDate(2024, time.March, 2), // months earlier
		State: core.Pending(),
	})
	require.NoError(t, err)

	created, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	invoices, err := mem.InvoicesByStudent(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	inv := invoices[0]
	assert.Len(t, inv.Items, 3)
	assert.Equal(t, "15575.00", inv.AmountDue.String())

	// Every consumed adjustment points back at the invoice.
	owned, err := mem.StudentAdjustmentsAppliedTo(ctx, core.InvoiceRef(inv.ID))
	require.NoError(t, err)
	assert.Len(t, owned, 2)
	pending, err := mem.PendingStudentAdjustments(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGenerate_BatchBillsEveryActiveStudent(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	seedMonthly(t, mem, "alice", 1500)
	seedStudent(t, mem, "budi")
	seedMonthly(t, mem, "budi", 1200)
	seedStudent(t, mem, "citra") // nothing to bill

	created, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestMarkPaid_RecordsExactlyOnePayment(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	seedMonthly(t, mem, "alice", 1500)
	_, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	invoices, _ := mem.InvoicesByStudent(ctx, "alice")
	require.Len(t, invoices, 1)

	paid, err := engine.MarkPaid(ctx, invoices[0].ID)
	require.NoError(t, err)
	assert.Equal(t, core.DocPaid, paid.Status)
	assert.False(t, paid.PaidOn.IsZero())

	// Second attempt is rejected and the ledger is untouched.
	_, err = engine.MarkPaid(ctx, invoices[0].ID)
	assert.True(t, core.IsInvalidState(err))

	entries, err := mem.LedgerEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.EntryPayment, entries[0].Kind)
	assert.Equal(t, "1500.00", entries[0].Amount.String())
}

func TestDelete_ReleasesAdjustments(t *testing.T) {
	// GIVEN: An invoice that consumed an adjustment
	// WHEN: The invoice is deleted
	// THEN: The adjustment is Pending again and the next sweep re-bills it

	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	seedMonthly(t, mem, "alice", 1500)
	queueCharge(t, mem, "adj-1", "alice", 250, "Assessment materials")
	_, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	invoices, _ := mem.InvoicesByStudent(ctx, "alice")
	require.Len(t, invoices, 1)

	require.NoError(t, engine.Delete(ctx, invoices[0].ID))

	pending, err := mem.PendingStudentAdjustments(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, core.AdjustmentID("adj-1"), pending[0].ID)

	// Tuition is billable again too: the invoice carrying it is gone.
	created, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	invoices, _ = mem.InvoicesByStudent(ctx, "alice")
	require.Len(t, invoices, 1)
	assert.Equal(t, "1750.00", invoices[0].AmountDue.String())
}

func TestDelete_PaidInvoice_PaymentNotReversed(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	seedMonthly(t, mem, "alice", 1500)
	_, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)
	invoices, _ := mem.InvoicesByStudent(ctx, "alice")
	_, err = engine.MarkPaid(ctx, invoices[0].ID)
	require.NoError(t, err)

	require.NoError(t, engine.Delete(ctx, invoices[0].ID))

	// The invoice is gone but the recorded payment stays.
	inv, err := mem.InvoiceByID(ctx, invoices[0].ID)
	require.NoError(t, err)
	assert.Nil(t, inv)
	entries, err := mem.LedgerEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// =============================================================================
// AD-HOC AND QUEUE-OR-MERGE
// =============================================================================

func TestAdHocInvoice_PaidImpliesLedgerEntry(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")

	inv, err := engine.CreateAdHocInvoice(ctx, billing.AdHocInvoiceInput{
		StudentID:   "alice",
		Amount:      core.MoneyFromInt(300),
		Description: "Initial assessment",
		Paid:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, core.DocPaid, inv.Status)
	assert.Equal(t, "INV-0001", inv.Number)

	entries, err := mem.LedgerEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.InvoiceRef(inv.ID), entries[0].Document)
}

func TestQueueOrMergeCharge_MergesIntoPendingInvoice(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	seedMonthly(t, mem, "alice", 1500)
	_, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)

	outcome, err := engine.QueueOrMergeCharge(ctx, "alice", core.ChargeFine,
		core.MoneyFromInt(50), "Late pickup fee", core.Date{})
	require.NoError(t, err)
	assert.Equal(t, billing.ChargeMerged, outcome)

	invoices, _ := mem.InvoicesByStudent(ctx, "alice")
	require.Len(t, invoices, 1)
	assert.Equal(t, "1550.00", invoices[0].AmountDue.String())

	// The adjustment is recorded as already applied to that invoice.
	owned, err := mem.StudentAdjustmentsAppliedTo(ctx, core.InvoiceRef(invoices[0].ID))
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestQueueOrMergeCharge_QueuesWithoutPendingInvoice(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")

	outcome, err := engine.QueueOrMergeCharge(ctx, "alice", core.ChargeOther,
		core.MoneyFromInt(120), "Workbook", core.Date{})
	require.NoError(t, err)
	assert.Equal(t, billing.ChargeQueued, outcome)

	pending, err := mem.PendingStudentAdjustments(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestQueueOrMergeCharge_RejectsInvalidAmount(t *testing.T) {
	engine, mem := newTestEngine(t)
	seedStudent(t, mem, "alice")

	_, err := engine.QueueOrMergeCharge(context.Background(), "alice",
		core.ChargeFine, core.ZeroMoney(), "Zero fine", core.Date{})
	assert.True(t, core.IsValidation(err))
}

// =============================================================================
// ADJUSTMENT CRUD
// =============================================================================

func TestUpdateAdjustment_AppliedRejected(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	queueCharge(t, mem, "adj-1", "alice", 250, "Assessment materials")
	_, err := engine.GenerateInvoices(ctx, june, nil)
	require.NoError(t, err)

	_, err = engine.UpdateAdjustment(ctx, "adj-1", core.ChargeOther,
		core.MoneyFromInt(300), "Changed", core.Date{})
	assert.True(t, core.IsInvalidState(err))

	err = engine.DeleteAdjustment(ctx, "adj-1")
	assert.True(t, core.IsInvalidState(err))
}

func TestUpdateAdjustment_PendingEditable(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()
	seedStudent(t, mem, "alice")
	queueCharge(t, mem, "adj-1", "alice", 250, "Assessment materials")

	adj, err := engine.UpdateAdjustment(ctx, "adj-1", core.ChargeFine,
		core.MoneyFromInt(300), "Corrected amount", core.Date{})
	require.NoError(t, err)
	assert.Equal(t, "300.00", adj.Amount.String())
	assert.Equal(t, core.ChargeFine, adj.Kind)

	require.NoError(t, engine.DeleteAdjustment(ctx, "adj-1"))
	pending, err := mem.PendingStudentAdjustments(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
