/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts travel as decimal strings ("150.00") in both directions. JSON
  numbers lose precision for currency; strings don't.

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  them through a shared validator instance before touching the engines.

SEE ALSO:
  - handlers.go: Uses these types
  - core: domain model these types mirror
*/
package api

import (
	"time"

	"github.com/brightsteps/billing-engine/core"
)

// =============================================================================
// DIRECTORY TYPES
// =============================================================================

// StudentDTO represents a student in API responses.
type StudentDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Guardian string `json:"guardian,omitempty"`
	Status   string `json:"status"`
}

// CreateStudentRequest is the request to register a student.
type CreateStudentRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Guardian string `json:"guardian"`
}

// StaffDTO represents a staff member in API responses.
type StaffDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Status     string `json:"status"`
	BaseSalary string `json:"base_salary"`
}

// CreateStaffRequest is the request to register a staff member.
type CreateStaffRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role"`
	BaseSalary string `json:"base_salary" validate:"required"`
}

// CourseDTO represents a course or service offering.
type CourseDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DefaultFee string `json:"default_fee"`
	Basis      string `json:"basis"`
}

// CreateCourseRequest is the request to create a course.
type CreateCourseRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	DefaultFee string `json:"default_fee" validate:"required"`
	Basis      string `json:"basis" validate:"required,oneof=monthly daily"`
}

// EnrollmentDTO represents a student's enrollment in a course.
type EnrollmentDTO struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
	Basis     string `json:"basis"`
	AgreedFee string `json:"agreed_fee"`
	StartedOn string `json:"started_on"`
}

// CreateEnrollmentRequest is the request to enroll a student. AgreedFee
// empty means "use the course default".
type CreateEnrollmentRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	Basis     string `json:"basis" validate:"omitempty,oneof=monthly daily"`
	AgreedFee string `json:"agreed_fee"`
	StartedOn string `json:"started_on"`
}

// MarkAttendanceRequest records one attendance day. Re-marking the same
// day replaces the prior record.
type MarkAttendanceRequest struct {
	Date   string `json:"date" validate:"required"`
	Status string `json:"status" validate:"required,oneof=present late absent unpaid_leave paid_leave"`
}

// AttendanceDTO represents one attendance record.
type AttendanceDTO struct {
	EntityID string `json:"entity_id"`
	Kind     string `json:"kind"`
	Date     string `json:"date"`
	Status   string `json:"status"`
}

// =============================================================================
// BILLING TYPES
// =============================================================================

// LineItemDTO represents one invoice line.
type LineItemDTO struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// InvoiceDTO represents an invoice in API responses.
type InvoiceDTO struct {
	ID        string        `json:"id"`
	Number    string        `json:"number"`
	StudentID string        `json:"student_id"`
	Period    string        `json:"period"`
	IssuedOn  string        `json:"issued_on"`
	DueDate   string        `json:"due_date"`
	Status    string        `json:"status"`
	PaidOn    string        `json:"paid_on,omitempty"`
	Items     []LineItemDTO `json:"items"`
	AmountDue string        `json:"amount_due"`
}

// GenerateInvoicesRequest triggers a billing sweep. StudentID empty means
// every active student.
type GenerateInvoicesRequest struct {
	Period    string `json:"period" validate:"required"`
	StudentID string `json:"student_id"`
}

// GenerateResultDTO is the outcome of a generation sweep.
type GenerateResultDTO struct {
	Generated int    `json:"generated"`
	Errors    string `json:"errors,omitempty"`
}

// AdHocInvoiceRequest records a one-off invoice outside the periodic sweep.
type AdHocInvoiceRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	Kind        string `json:"kind" validate:"omitempty,oneof=tuition charge"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required"`
	DueDate     string `json:"due_date"`
	Paid        bool   `json:"paid"`
}

// ChargeRequest records a student charge via the queue-or-merge path.
type ChargeRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=fine other"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date"`
}

// ChargeResultDTO reports which path a charge took.
type ChargeResultDTO struct {
	Outcome string `json:"outcome"` // "merged" or "queued"
}

// StudentAdjustmentDTO represents a student adjustment with its state.
type StudentAdjustmentDTO struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
	State       string `json:"state"`
	AppliedTo   string `json:"applied_to,omitempty"`
}

// UpdateStudentAdjustmentRequest edits a pending student adjustment.
type UpdateStudentAdjustmentRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=fine other"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date"`
}

// =============================================================================
// PAYROLL TYPES
// =============================================================================

// AppliedAdjustmentDTO is one adjustment line on a slip.
type AppliedAdjustmentDTO struct {
	AdjustmentID string `json:"adjustment_id"`
	Kind         string `json:"kind"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
}

// SlipDTO represents a salary slip in API responses.
type SlipDTO struct {
	ID                  string                 `json:"id"`
	StaffID             string                 `json:"staff_id"`
	Period              string                 `json:"period"`
	BaseSalary          string                 `json:"base_salary"`
	AttendanceDeduction string                 `json:"attendance_deduction"`
	Adjustments         []AppliedAdjustmentDTO `json:"adjustments"`
	TotalBonuses        string                 `json:"total_bonuses"`
	TotalDeductions     string                 `json:"total_deductions"`
	NetSalary           string                 `json:"net_salary"`
	Status              string                 `json:"status"`
	GeneratedAt         string                 `json:"generated_at"`
	PaidOn              string                 `json:"paid_on,omitempty"`
}

// GeneratePayrollRequest triggers a payroll sweep. Empty StaffIDs means
// every active staff member.
type GeneratePayrollRequest struct {
	Period   string   `json:"period" validate:"required"`
	StaffIDs []string `json:"staff_ids"`
}

// PayrollAdjustmentDTO represents a payroll adjustment with its state.
type PayrollAdjustmentDTO struct {
	ID          string `json:"id"`
	StaffID     string `json:"staff_id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
	State       string `json:"state"`
	AppliedTo   string `json:"applied_to,omitempty"`
}

// QueuePayrollAdjustmentRequest records a new pending payroll adjustment.
type QueuePayrollAdjustmentRequest struct {
	StaffID     string `json:"staff_id" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=bonus fine advance deduction"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date"`
}

// UpdatePayrollAdjustmentRequest edits a pending payroll adjustment.
type UpdatePayrollAdjustmentRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=bonus fine advance deduction"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required"`
	Date        string `json:"date"`
}

// DetachAdjustmentRequest removes an adjustment from a pending slip.
type DetachAdjustmentRequest struct {
	Mode string `json:"mode" validate:"required,oneof=cancel postpone"`
}

// =============================================================================
// LEDGER / SCENARIO / ERROR TYPES
// =============================================================================

// LedgerEntryDTO represents one transaction ledger entry.
type LedgerEntryDTO struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	DocKind    string `json:"doc_kind"`
	DocID      string `json:"doc_id"`
	EntityID   string `json:"entity_id"`
	EntityKind string `json:"entity_kind"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func dateString(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func toStudentDTO(s core.Student) StudentDTO {
	return StudentDTO{ID: string(s.ID), Name: s.Name, Guardian: s.Guardian, Status: string(s.Status)}
}

func toStaffDTO(s core.Staff) StaffDTO {
	return StaffDTO{
		ID:         string(s.ID),
		Name:       s.Name,
		Role:       s.Role,
		Status:     string(s.Status),
		BaseSalary: s.BaseSalary.String(),
	}
}

func toCourseDTO(c core.Course) CourseDTO {
	return CourseDTO{ID: string(c.ID), Name: c.Name, DefaultFee: c.DefaultFee.String(), Basis: string(c.Basis)}
}

func toEnrollmentDTO(e core.Enrollment) EnrollmentDTO {
	return EnrollmentDTO{
		ID:        string(e.ID),
		StudentID: string(e.StudentID),
		CourseID:  string(e.CourseID),
		Basis:     string(e.Basis),
		AgreedFee: e.AgreedFee.String(),
		StartedOn: dateString(e.StartedOn),
	}
}

func toAttendanceDTO(r core.AttendanceRecord) AttendanceDTO {
	return AttendanceDTO{
		EntityID: r.EntityID,
		Kind:     string(r.Kind),
		Date:     r.Date.String(),
		Status:   string(r.Status),
	}
}

func toInvoiceDTO(inv core.Invoice) InvoiceDTO {
	items := make([]LineItemDTO, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = LineItemDTO{Kind: string(it.Kind), Description: it.Description, Amount: it.Amount.String()}
	}
	return InvoiceDTO{
		ID:        string(inv.ID),
		Number:    inv.Number,
		StudentID: string(inv.StudentID),
		Period:    inv.Period.String(),
		IssuedOn:  dateString(inv.IssuedOn),
		DueDate:   dateString(inv.DueDate),
		Status:    string(inv.Status),
		PaidOn:    dateString(inv.PaidOn),
		Items:     items,
		AmountDue: inv.AmountDue.String(),
	}
}

func toInvoiceDTOs(invs []core.Invoice) []InvoiceDTO {
	dtos := make([]InvoiceDTO, len(invs))
	for i, inv := range invs {
		dtos[i] = toInvoiceDTO(inv)
	}
	return dtos
}

func toSlipDTO(s core.SalarySlip) SlipDTO {
	adjs := make([]AppliedAdjustmentDTO, len(s.Adjustments))
	for i, a := range s.Adjustments {
		adjs[i] = AppliedAdjustmentDTO{
			AdjustmentID: string(a.AdjustmentID),
			Kind:         string(a.Kind),
			Description:  a.Description,
			Amount:       a.Amount.String(),
		}
	}
	return SlipDTO{
		ID:                  string(s.ID),
		StaffID:             string(s.StaffID),
		Period:              s.Period.String(),
		BaseSalary:          s.BaseSalary.String(),
		AttendanceDeduction: s.AttendanceDeduction.String(),
		Adjustments:         adjs,
		TotalBonuses:        s.TotalBonuses.String(),
		TotalDeductions:     s.TotalDeductions.String(),
		NetSalary:           s.NetSalary.String(),
		Status:              string(s.Status),
		GeneratedAt:         s.GeneratedAt.UTC().Format(time.RFC3339),
		PaidOn:              dateString(s.PaidOn),
	}
}

func toSlipDTOs(slips []core.SalarySlip) []SlipDTO {
	dtos := make([]SlipDTO, len(slips))
	for i, s := range slips {
		dtos[i] = toSlipDTO(s)
	}
	return dtos
}

func adjustmentState(state core.AdjustmentState) (label, appliedTo string) {
	if ref, ok := state.Owner(); ok {
		return "applied", string(ref.Kind) + ":" + ref.ID
	}
	return "pending", ""
}

func toStudentAdjustmentDTO(a core.StudentAdjustment) StudentAdjustmentDTO {
	label, appliedTo := adjustmentState(a.State)
	return StudentAdjustmentDTO{
		ID:          string(a.ID),
		StudentID:   string(a.StudentID),
		Kind:        string(a.Kind),
		Amount:      a.Amount.String(),
		Description: a.Description,
		Date:        dateString(a.Date),
		State:       label,
		AppliedTo:   appliedTo,
	}
}

func toPayrollAdjustmentDTO(a core.PayrollAdjustment) PayrollAdjustmentDTO {
	label, appliedTo := adjustmentState(a.State)
	return PayrollAdjustmentDTO{
		ID:          string(a.ID),
		StaffID:     string(a.StaffID),
		Kind:        string(a.Kind),
		Amount:      a.Amount.String(),
		Description: a.Description,
		Date:        dateString(a.Date),
		State:       label,
		AppliedTo:   appliedTo,
	}
}

func toLedgerEntryDTO(e core.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:         string(e.ID),
		Kind:       string(e.Kind),
		DocKind:    string(e.Document.Kind),
		DocID:      e.Document.ID,
		EntityID:   e.EntityID,
		EntityKind: string(e.EntityKind),
		Amount:     e.Amount.String(),
		Note:       e.Note,
		RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339),
	}
}
