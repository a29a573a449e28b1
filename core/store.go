/*
store.go - Repository interfaces between the engine and persistence

PURPOSE:
  The engine depends only on these interfaces, never on a concrete store.
  Each collection supports atomic get-all / get-by-id / upsert / delete;
  any storage backend satisfying them can be substituted without touching
  billing logic.

IMPLEMENTATIONS:
  - core/store (memory.go): mutex-guarded in-memory store for tests and dev
  - store/sqlite:           production SQLite store

WRITE DISCIPLINE:
  Directory collections (students, staff, courses, enrollments, attendance)
  are written only by the administrative CRUD surface and the scenario
  seeder; the engine reads them. The ledger is append-only. The sequence
  allocator must hand out monotonically increasing, collision-free invoice
  numbers and is advanced only when an invoice is actually created.
*/
package core

import "context"

// =============================================================================
// DIRECTORIES (read-mostly)
// =============================================================================

type StudentDirectory interface {
	Students(ctx context.Context) ([]Student, error)
	StudentByID(ctx context.Context, id StudentID) (*Student, error)
	UpsertStudent(ctx context.Context, s Student) error
}

type StaffDirectory interface {
	StaffMembers(ctx context.Context) ([]Staff, error)
	StaffByID(ctx context.Context, id StaffID) (*Staff, error)
	UpsertStaff(ctx context.Context, s Staff) error
}

type CourseDirectory interface {
	Courses(ctx context.Context) ([]Course, error)
	CourseByID(ctx context.Context, id CourseID) (*Course, error)
	UpsertCourse(ctx context.Context, c Course) error
}

type EnrollmentRepo interface {
	EnrollmentsByStudent(ctx context.Context, id StudentID) ([]Enrollment, error)
	UpsertEnrollment(ctx context.Context, e Enrollment) error
	DeleteEnrollment(ctx context.Context, id EnrollmentID) error
}

// AttendanceRepo is the read-only query surface over attendance marks.
// UpsertAttendance replaces any prior record for the same (entity, date).
type AttendanceRepo interface {
	AttendanceForPeriod(ctx context.Context, entityID string, kind EntityKind, p Period) ([]AttendanceRecord, error)
	UpsertAttendance(ctx context.Context, r AttendanceRecord) error
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

type StudentAdjustmentRepo interface {
	StudentAdjustments(ctx context.Context) ([]StudentAdjustment, error)
	StudentAdjustmentByID(ctx context.Context, id AdjustmentID) (*StudentAdjustment, error)
	PendingStudentAdjustments(ctx context.Context, id StudentID) ([]StudentAdjustment, error)
	StudentAdjustmentsAppliedTo(ctx context.Context, ref DocumentRef) ([]StudentAdjustment, error)
	UpsertStudentAdjustment(ctx context.Context, a StudentAdjustment) error
	DeleteStudentAdjustment(ctx context.Context, id AdjustmentID) error
}

type PayrollAdjustmentRepo interface {
	PayrollAdjustments(ctx context.Context) ([]PayrollAdjustment, error)
	PayrollAdjustmentByID(ctx context.Context, id AdjustmentID) (*PayrollAdjustment, error)
	PendingPayrollAdjustments(ctx context.Context, id StaffID) ([]PayrollAdjustment, error)
	PayrollAdjustmentsAppliedTo(ctx context.Context, ref DocumentRef) ([]PayrollAdjustment, error)
	UpsertPayrollAdjustment(ctx context.Context, a PayrollAdjustment) error
	DeletePayrollAdjustment(ctx context.Context, id AdjustmentID) error
}

// =============================================================================
// DOCUMENTS
// =============================================================================

type InvoiceRepo interface {
	Invoices(ctx context.Context) ([]Invoice, error)
	InvoiceByID(ctx context.Context, id InvoiceID) (*Invoice, error)
	InvoicesByStudent(ctx context.Context, id StudentID) ([]Invoice, error)
	InvoicesForPeriod(ctx context.Context, id StudentID, p Period) ([]Invoice, error)
	UpsertInvoice(ctx context.Context, inv Invoice) error
	DeleteInvoice(ctx context.Context, id InvoiceID) error
}

type SlipRepo interface {
	Slips(ctx context.Context) ([]SalarySlip, error)
	SlipByID(ctx context.Context, id SlipID) (*SalarySlip, error)
	SlipByStaffPeriod(ctx context.Context, id StaffID, p Period) (*SalarySlip, error)
	UpsertSlip(ctx context.Context, s SalarySlip) error
	DeleteSlip(ctx context.Context, id SlipID) error
}

// =============================================================================
// LEDGER AND SEQUENCES
// =============================================================================

type LedgerRepo interface {
	AppendLedgerEntry(ctx context.Context, e LedgerEntry) error
	LedgerEntries(ctx context.Context) ([]LedgerEntry, error)
}

// SequenceAllocator hands out invoice numbers. Values are monotonically
// increasing and collision-free under the single-writer model.
type SequenceAllocator interface {
	NextInvoiceNumber(ctx context.Context) (int, error)
}

// =============================================================================
// STORE - Everything the engine needs, bundled
// =============================================================================

type Store interface {
	StudentDirectory
	StaffDirectory
	CourseDirectory
	EnrollmentRepo
	AttendanceRepo
	StudentAdjustmentRepo
	PayrollAdjustmentRepo
	InvoiceRepo
	SlipRepo
	LedgerRepo
	SequenceAllocator

	// Reset clears every collection. Dev/demo only, used by scenario loading.
	Reset(ctx context.Context) error
}
