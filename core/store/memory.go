// Package store provides the in-memory core.Store implementation used for
// tests and development. All collections live in mutex-guarded maps; reads
// return copies so callers can never alias store internals.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/brightsteps/billing-engine/core"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	students    map[core.StudentID]core.Student
	staff       map[core.StaffID]core.Staff
	courses     map[core.CourseID]core.Course
	enrollments map[core.EnrollmentID]core.Enrollment

	// attendance keyed by (kind, entity, date) so re-marking replaces
	attendance map[attKey]core.AttendanceRecord

	studentAdjs map[core.AdjustmentID]core.StudentAdjustment
	payrollAdjs map[core.AdjustmentID]core.PayrollAdjustment

	invoices map[core.InvoiceID]core.Invoice
	slips    map[core.SlipID]core.SalarySlip

	ledger []core.LedgerEntry

	invoiceSeq int
}

type attKey struct {
	Kind     core.EntityKind
	EntityID string
	Date     string
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.students = make(map[core.StudentID]core.Student)
	m.staff = make(map[core.StaffID]core.Staff)
	m.courses = make(map[core.CourseID]core.Course)
	m.enrollments = make(map[core.EnrollmentID]core.Enrollment)
	m.attendance = make(map[attKey]core.AttendanceRecord)
	m.studentAdjs = make(map[core.AdjustmentID]core.StudentAdjustment)
	m.payrollAdjs = make(map[core.AdjustmentID]core.PayrollAdjustment)
	m.invoices = make(map[core.InvoiceID]core.Invoice)
	m.slips = make(map[core.SlipID]core.SalarySlip)
	m.ledger = nil
	m.invoiceSeq = 0
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// =============================================================================
// DIRECTORIES
// =============================================================================

func (m *Memory) Students(_ context.Context) ([]core.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) StudentByID(_ context.Context, id core.StudentID) (*core.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) UpsertStudent(_ context.Context, s core.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
	return nil
}

func (m *Memory) StaffMembers(_ context.Context) ([]core.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Staff, 0, len(m.staff))
	for _, s := range m.staff {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) StaffByID(_ context.Context, id core.StaffID) (*core.Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.staff[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) UpsertStaff(_ context.Context, s core.Staff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[s.ID] = s
	return nil
}

func (m *Memory) Courses(_ context.Context) ([]core.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CourseByID(_ context.Context, id core.CourseID) (*core.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) UpsertCourse(_ context.Context, c core.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return nil
}

func (m *Memory) EnrollmentsByStudent(_ context.Context, id core.StudentID) ([]core.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == id {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpsertEnrollment(_ context.Context, e core.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments[e.ID] = e
	return nil
}

func (m *Memory) DeleteEnrollment(_ context.Context, id core.EnrollmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.enrollments, id)
	return nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (m *Memory) AttendanceForPeriod(_ context.Context, entityID string, kind core.EntityKind, p core.Period) ([]core.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.AttendanceRecord
	for _, r := range m.attendance {
		if r.EntityID == entityID && r.Kind == kind && p.Contains(r.Date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) UpsertAttendance(_ context.Context, r core.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance[attKey{Kind: r.Kind, EntityID: r.EntityID, Date: r.Date.String()}] = r
	return nil
}

// =============================================================================
// STUDENT ADJUSTMENTS
// =============================================================================

func (m *Memory) StudentAdjustments(_ context.Context) ([]core.StudentAdjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.StudentAdjustment, 0, len(m.studentAdjs))
	for _, a := range m.studentAdjs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) StudentAdjustmentByID(_ context.Context, id core.AdjustmentID) (*core.StudentAdjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.studentAdjs[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) PendingStudentAdjustments(_ context.Context, id core.StudentID) ([]core.StudentAdjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.StudentAdjustment
	for _, a := range m.studentAdjs {
		if a.StudentID == id && !a.State.IsApplied() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) StudentAdjustmentsAppliedTo(_ context.Context, ref core.DocumentRef) ([]core.StudentAdjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.StudentAdjustment
	for _, a := range m.studentAdjs {
		if owner, ok := a.State.Owner(); ok && owner == ref {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpsertStudentAdjustment(_ context.Context, a core.StudentAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.studentAdjs[a.ID] = a
	return nil
}

func (m *Memory) DeleteStudentAdjustment(_ context.Context, id core.AdjustmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.studentAdjs, id)
	return nil
}

// =============================================================================
// PAYROLL ADJUSTMENTS
// =============================================================================

func (m *Memory) PayrollAdjustments(_ context.Context) ([]core.PayrollAdjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.PayrollAdjustment, 0, len(m.payrollAdjs))
	for _, a := range m.payrollAdjs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) PayrollAdjustmentByID(_ context.Context, id core.AdjustmentID) (*core.PayrollAdjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.payrollAdjs[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) PendingPayrollAdjustments(_ context.Context, id core.StaffID) ([]core.PayrollAdjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.PayrollAdjustment
	for _, a := range m.payrollAdjs {
		if a.StaffID == id && !a.State.IsApplied() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) PayrollAdjustmentsAppliedTo(_ context.Context, ref core.DocumentRef) ([]core.PayrollAdjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.PayrollAdjustment
	for _, a := range m.payrollAdjs {
		if owner, ok := a.State.Owner(); ok && owner == ref {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpsertPayrollAdjustment(_ context.Context, a core.PayrollAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payrollAdjs[a.ID] = a
	return nil
}

func (m *Memory) DeletePayrollAdjustment(_ context.Context, id core.AdjustmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.payrollAdjs, id)
	return nil
}

// =============================================================================
// INVOICES
// =============================================================================

func copyInvoice(inv core.Invoice) core.Invoice {
	items := make([]core.LineItem, len(inv.Items))
	copy(items, inv.Items)
	inv.Items = items
	return inv
}

func (m *Memory) Invoices(_ context.Context) ([]core.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, copyInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *Memory) InvoiceByID(_ context.Context, id core.InvoiceID) (*core.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, nil
	}
	c := copyInvoice(inv)
	return &c, nil
}

func (m *Memory) InvoicesByStudent(_ context.Context, id core.StudentID) ([]core.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Invoice
	for _, inv := range m.invoices {
		if inv.StudentID == id {
			out = append(out, copyInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *Memory) InvoicesForPeriod(_ context.Context, id core.StudentID, p core.Period) ([]core.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Invoice
	for _, inv := range m.invoices {
		if inv.StudentID == id && inv.Period == p {
			out = append(out, copyInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *Memory) UpsertInvoice(_ context.Context, inv core.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (m *Memory) DeleteInvoice(_ context.Context, id core.InvoiceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.invoices, id)
	return nil
}

// =============================================================================
// SLIPS
// =============================================================================

func copySlip(s core.SalarySlip) core.SalarySlip {
	adjs := make([]core.AppliedAdjustment, len(s.Adjustments))
	copy(adjs, s.Adjustments)
	s.Adjustments = adjs
	return s
}

func (m *Memory) Slips(_ context.Context) ([]core.SalarySlip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.SalarySlip, 0, len(m.slips))
	for _, s := range m.slips {
		out = append(out, copySlip(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SlipByID(_ context.Context, id core.SlipID) (*core.SalarySlip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.slips[id]
	if !ok {
		return nil, nil
	}
	c := copySlip(s)
	return &c, nil
}

func (m *Memory) SlipByStaffPeriod(_ context.Context, id core.StaffID, p core.Period) (*core.SalarySlip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.slips {
		if s.StaffID == id && s.Period == p {
			c := copySlip(s)
			return &c, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpsertSlip(_ context.Context, s core.SalarySlip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slips[s.ID] = copySlip(s)
	return nil
}

func (m *Memory) DeleteSlip(_ context.Context, id core.SlipID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slips, id)
	return nil
}

// =============================================================================
// LEDGER AND SEQUENCES
// =============================================================================

func (m *Memory) AppendLedgerEntry(_ context.Context, e core.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = append(m.ledger, e)
	return nil
}

func (m *Memory) LedgerEntries(_ context.Context) ([]core.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.LedgerEntry, len(m.ledger))
	copy(out, m.ledger)
	return out, nil
}

func (m *Memory) NextInvoiceNumber(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoiceSeq++
	return m.invoiceSeq, nil
}
