/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates students, staff,
	courses, enrollments, attendance and adjustments that demonstrate
	specific engine features.

AVAILABLE SCENARIOS:

	therapy-center:  Full dataset - monthly and daily students, staff,
	                 pending adjustments of both kinds
	daily-billing:   Per-attended-day billing with partial attendance
	payroll-cycle:   Staff absences + bonus/advance, slips generated

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create directory records (students, staff, courses, enrollments)
 3. Mark attendance for the previous month
 4. Queue pending adjustments
 5. Optionally run a generation sweep

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "therapy-center"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/brightsteps/billing-engine/core"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "therapy-center",
		Name:        "Therapy Center",
		Description: "Monthly and daily students, staff, pending adjustments of both kinds",
	},
	{
		ID:          "daily-billing",
		Name:        "Daily Billing",
		Description: "Per-attended-day billing with partial attendance",
	},
	{
		ID:          "payroll-cycle",
		Name:        "Payroll Cycle",
		Description: "Staff absences plus bonus and advance, slips generated for last month",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: h.currentScenario, Name: h.currentScenario})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "therapy-center":
		err = h.loadTherapyCenter(ctx)
	case "daily-billing":
		err = h.loadDailyBilling(ctx)
	case "payroll-cycle":
		err = h.loadPayrollCycle(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]any{"loaded": req.ScenarioID})
}

// ResetDatabase clears everything.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// lastMonth is the period scenarios bill for: complete attendance exists.
func lastMonth() core.Period {
	return core.PeriodOf(core.Today()).Previous()
}

// markWeekdays marks every weekday of the period with the given status,
// except the dates listed in exceptions.
func (h *Handler) markWeekdays(ctx context.Context, entityID string, kind core.EntityKind, p core.Period, status core.AttendanceStatus, exceptions map[string]core.AttendanceStatus) error {
	for d := p.Start(); !d.After(p.End()); d = d.AddDays(1) {
		wd := d.Time().Weekday()
		if wd == 0 || wd == 6 { // Sunday, Saturday
			continue
		}
		s := status
		if override, ok := exceptions[d.String()]; ok {
			s = override
		}
		err := h.Store.UpsertAttendance(ctx, core.AttendanceRecord{
			EntityID: entityID,
			Kind:     kind,
			Date:     d,
			Status:   s,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// loadTherapyCenter seeds the full demo dataset.
func (h *Handler) loadTherapyCenter(ctx context.Context) error {
	p := lastMonth()

	courses := []core.Course{
		{ID: "speech", Name: "Speech Therapy", DefaultFee: core.MoneyFromInt(1500), Basis: core.BasisMonthly},
		{ID: "occupational", Name: "Occupational Therapy", DefaultFee: core.MoneyFromInt(350), Basis: core.BasisDaily},
		{ID: "behavior", Name: "Behavior Therapy", DefaultFee: core.MoneyFromInt(2000), Basis: core.BasisMonthly},
	}
	for _, c := range courses {
		if err := h.Store.UpsertCourse(ctx, c); err != nil {
			return err
		}
	}

	students := []core.Student{
		{ID: "alice", Name: "Alice Tan", Guardian: "Mrs. Tan", Status: core.StatusActive},
		{ID: "budi", Name: "Budi Santoso", Guardian: "Mr. Santoso", Status: core.StatusActive},
		{ID: "citra", Name: "Citra Dewi", Guardian: "Mrs. Dewi", Status: core.StatusActive},
	}
	for _, s := range students {
		if err := h.Store.UpsertStudent(ctx, s); err != nil {
			return err
		}
	}

	enrollments := []core.Enrollment{
		{ID: "enr-1", StudentID: "alice", CourseID: "speech", Basis: core.BasisMonthly, AgreedFee: core.MoneyFromInt(1500), StartedOn: p.Start()},
		{ID: "enr-2", StudentID: "budi", CourseID: "occupational", Basis: core.BasisDaily, AgreedFee: core.MoneyFromInt(350), StartedOn: p.Start()},
		{ID: "enr-3", StudentID: "citra", CourseID: "speech", Basis: core.BasisMonthly, AgreedFee: core.MoneyFromInt(1200), StartedOn: p.Start()},
		{ID: "enr-4", StudentID: "citra", CourseID: "occupational", Basis: core.BasisDaily, AgreedFee: core.MoneyFromInt(300), StartedOn: p.Start()},
	}
	for _, e := range enrollments {
		if err := h.Store.UpsertEnrollment(ctx, e); err != nil {
			return err
		}
	}

	// Budi attends most weekdays; Citra attends with some absences.
	if err := h.markWeekdays(ctx, "budi", core.KindStudent, p, core.AttPresent, map[string]core.AttendanceStatus{
		p.Start().AddDays(7).String(): core.AttAbsent,
	}); err != nil {
		return err
	}
	if err := h.markWeekdays(ctx, "citra", core.KindStudent, p, core.AttPresent, map[string]core.AttendanceStatus{
		p.Start().AddDays(2).String(): core.AttLate,
		p.Start().AddDays(9).String(): core.AttAbsent,
	}); err != nil {
		return err
	}

	// Pending student charges awaiting the next invoice sweep.
	charges := []core.StudentAdjustment{
		{ID: "sadj-1", StudentID: "alice", Kind: core.ChargeOther, Amount: core.MoneyFromInt(250), Description: "Assessment materials", Date: p.Start().AddDays(4), State: core.Pending()},
		{ID: "sadj-2", StudentID: "budi", Kind: core.ChargeFine, Amount: core.MoneyFromInt(50), Description: "Late pickup fee", Date: p.Start().AddDays(11), State: core.Pending()},
	}
	for _, adj := range charges {
		if err := h.Store.UpsertStudentAdjustment(ctx, adj); err != nil {
			return err
		}
	}

	staff := []core.Staff{
		{ID: "dina", Name: "Dina Kusuma", Role: "Speech Therapist", Status: core.StatusActive, BaseSalary: core.MoneyFromInt(9000)},
		{ID: "eko", Name: "Eko Prasetyo", Role: "Occupational Therapist", Status: core.StatusActive, BaseSalary: core.MoneyFromInt(8400)},
	}
	for _, m := range staff {
		if err := h.Store.UpsertStaff(ctx, m); err != nil {
			return err
		}
	}
	if err := h.markWeekdays(ctx, "dina", core.KindStaff, p, core.AttPresent, nil); err != nil {
		return err
	}
	if err := h.markWeekdays(ctx, "eko", core.KindStaff, p, core.AttPresent, map[string]core.AttendanceStatus{
		p.Start().AddDays(3).String(): core.AttUnpaidLeave,
		p.Start().AddDays(4).String(): core.AttPaidLeave,
	}); err != nil {
		return err
	}

	payrollAdjs := []core.PayrollAdjustment{
		{ID: "padj-1", StaffID: "dina", Kind: core.AdjBonus, Amount: core.MoneyFromInt(500), Description: "Caseload bonus", Date: p.Start().AddDays(14), State: core.Pending()},
		{ID: "padj-2", StaffID: "eko", Kind: core.AdjAdvance, Amount: core.MoneyFromInt(1000), Description: "Salary advance", Date: p.Start().AddDays(6), State: core.Pending()},
	}
	for _, adj := range payrollAdjs {
		if err := h.Store.UpsertPayrollAdjustment(ctx, adj); err != nil {
			return err
		}
	}
	return nil
}

// loadDailyBilling seeds a single daily-basis student with partial
// attendance, then runs the invoice sweep to show per-day billing.
func (h *Handler) loadDailyBilling(ctx context.Context) error {
	p := lastMonth()

	if err := h.Store.UpsertCourse(ctx, core.Course{
		ID: "occupational", Name: "Occupational Therapy", DefaultFee: core.MoneyFromInt(350), Basis: core.BasisDaily,
	}); err != nil {
		return err
	}
	if err := h.Store.UpsertStudent(ctx, core.Student{
		ID: "budi", Name: "Budi Santoso", Guardian: "Mr. Santoso", Status: core.StatusActive,
	}); err != nil {
		return err
	}
	if err := h.Store.UpsertEnrollment(ctx, core.Enrollment{
		ID: "enr-1", StudentID: "budi", CourseID: "occupational",
		Basis: core.BasisDaily, AgreedFee: core.MoneyFromInt(350), StartedOn: p.Start(),
	}); err != nil {
		return err
	}

	// Three attended days only.
	for _, offset := range []int{1, 3, 8} {
		err := h.Store.UpsertAttendance(ctx, core.AttendanceRecord{
			EntityID: "budi", Kind: core.KindStudent, Date: p.Start().AddDays(offset), Status: core.AttPresent,
		})
		if err != nil {
			return err
		}
	}

	_, err := h.Billing.GenerateInvoices(ctx, p, nil)
	return err
}

// loadPayrollCycle seeds staff with absences and adjustments, then runs
// the payroll sweep so slips exist immediately.
func (h *Handler) loadPayrollCycle(ctx context.Context) error {
	p := lastMonth()

	staff := []core.Staff{
		{ID: "dina", Name: "Dina Kusuma", Role: "Speech Therapist", Status: core.StatusActive, BaseSalary: core.MoneyFromInt(9000)},
		{ID: "eko", Name: "Eko Prasetyo", Role: "Occupational Therapist", Status: core.StatusActive, BaseSalary: core.MoneyFromInt(8400)},
	}
	for _, m := range staff {
		if err := h.Store.UpsertStaff(ctx, m); err != nil {
			return err
		}
	}
	if err := h.markWeekdays(ctx, "dina", core.KindStaff, p, core.AttPresent, map[string]core.AttendanceStatus{
		p.Start().AddDays(10).String(): core.AttAbsent,
	}); err != nil {
		return err
	}
	if err := h.markWeekdays(ctx, "eko", core.KindStaff, p, core.AttPresent, map[string]core.AttendanceStatus{
		p.Start().AddDays(3).String(): core.AttUnpaidLeave,
		p.Start().AddDays(4).String(): core.AttUnpaidLeave,
	}); err != nil {
		return err
	}

	adjustments := []core.PayrollAdjustment{
		{ID: "padj-1", StaffID: "dina", Kind: core.AdjBonus, Amount: core.MoneyFromInt(750), Description: "Quarterly bonus", Date: p.Start().AddDays(20), State: core.Pending()},
		{ID: "padj-2", StaffID: "eko", Kind: core.AdjAdvance, Amount: core.MoneyFromInt(1200), Description: "Salary advance", Date: p.Start().AddDays(5), State: core.Pending()},
		{ID: "padj-3", StaffID: "eko", Kind: core.AdjFine, Amount: core.MoneyFromInt(100), Description: "Equipment damage", Date: p.Start().AddDays(12), State: core.Pending()},
	}
	for _, adj := range adjustments {
		if err := h.Store.UpsertPayrollAdjustment(ctx, adj); err != nil {
			return err
		}
	}

	_, err := h.Payroll.GeneratePayroll(ctx, p, nil)
	return err
}
