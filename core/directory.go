package core

// =============================================================================
// DIRECTORY RECORDS - Read-only to the engine
// =============================================================================
// Students, staff, courses and enrollments are maintained by the routine
// administrative CRUD surface. The engine only reads them; it never mutates
// a directory record.

type EntityStatus string

const (
	StatusActive   EntityStatus = "active"
	StatusInactive EntityStatus = "inactive"
)

// Student is a directory record for an enrolled child.
type Student struct {
	ID       StudentID
	Name     string
	Guardian string
	Status   EntityStatus
}

// Staff is a directory record for a therapist/teacher. BaseSalary is the
// monthly salary snapshot source for payroll generation.
type Staff struct {
	ID         StaffID
	Name       string
	Role       string
	Status     EntityStatus
	BaseSalary Money
}

// FeeBasis determines how an enrollment is billed: a flat monthly fee or a
// per-attended-day fee.
type FeeBasis string

const (
	BasisMonthly FeeBasis = "monthly"
	BasisDaily   FeeBasis = "daily"
)

// Course is a program offering. DefaultFee is only a suggestion for new
// enrollments; billing always uses the enrollment's AgreedFee.
type Course struct {
	ID         CourseID
	Name       string
	DefaultFee Money
	Basis      FeeBasis
}

// Enrollment links a student to a course. AgreedFee is fixed at enrollment
// time and is independent of the course's current default fee. Enrollments
// are created on enrollment and deleted on discontinuation; never mutated.
type Enrollment struct {
	ID        EnrollmentID
	StudentID StudentID
	CourseID  CourseID
	Basis     FeeBasis
	AgreedFee Money
	StartedOn Date
}
