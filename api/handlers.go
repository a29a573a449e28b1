/*
handlers.go - HTTP API handlers for the billing and payroll engine

PURPOSE:
  Exposes the billing/payroll engines via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Students:
    GET    /api/students                   List students
    POST   /api/students                   Register student
    GET    /api/students/{id}              Get student
    GET    /api/students/{id}/invoices     Student's invoices
    GET    /api/students/{id}/enrollments  Student's enrollments
    POST   /api/students/{id}/enrollments  Enroll in a course
    GET    /api/students/{id}/attendance   Attendance for a period
    POST   /api/students/{id}/attendance   Mark one day

  Staff:
    GET    /api/staff                      List staff
    POST   /api/staff                      Register staff member
    GET    /api/staff/{id}                 Get staff member
    GET    /api/staff/{id}/attendance      Attendance for a period
    POST   /api/staff/{id}/attendance      Mark one day

  Billing:
    POST   /api/billing/generate           Run the invoice sweep
    GET    /api/invoices                   List (filter: student_id, period, status)
    GET    /api/invoices/{id}              Get invoice
    POST   /api/invoices/{id}/pay          Mark paid
    DELETE /api/invoices/{id}              Delete + release adjustments
    POST   /api/invoices/adhoc             One-off invoice
    POST   /api/charges                    Queue-or-merge a student charge

  Payroll:
    POST   /api/payroll/generate           Run the payroll sweep
    GET    /api/slips                      List (filter: staff_id, period)
    GET    /api/slips/{id}                 Get slip
    POST   /api/slips/{id}/pay             Mark paid
    POST   /api/slips/{id}/refresh         Recompute a pending slip
    DELETE /api/slips/{id}                 Delete + release adjustments
    POST   /api/slips/{id}/adjustments/{adjID}/detach  Cancel or postpone

  Adjustments / Ledger / Scenarios:
    GET|PUT|DELETE /api/adjustments/student/...
    GET|POST|PUT|DELETE /api/adjustments/payroll/...
    GET    /api/ledger
    GET    /api/scenarios, POST /api/scenarios/load, POST /api/scenarios/reset

ERROR HANDLING:
  Domain errors map onto HTTP status via errors.Is:
  - 400: validation errors, invalid input
  - 404: not found
  - 409: invalid state (already paid, adjustment applied)
  - 500: internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brightsteps/billing-engine/billing"
	"github.com/brightsteps/billing-engine/core"
	"github.com/brightsteps/billing-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   core.Store
	Billing *billing.Engine
	Payroll *payroll.Engine

	validate *validator.Validate

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store core.Store) *Handler {
	return &Handler{
		Store:    store,
		Billing:  billing.NewEngine(store),
		Payroll:  payroll.NewEngine(store),
		validate: validator.New(),
	}
}

// decode parses and validates a JSON request body.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &core.ValidationError{Field: "body", Reason: "invalid JSON"}
	}
	if err := h.validate.Struct(dst); err != nil {
		return &core.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns all students.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Store.Students(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}
	dtos := make([]StudentDTO, len(students))
	for i, s := range students {
		dtos[i] = toStudentDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStudent returns a single student.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id := core.StudentID(chi.URLParam(r, "id"))
	student, err := h.Store.StudentByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if student == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(*student))
}

// CreateStudent registers a new student.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.ID == "" {
		req.ID = core.NewID()
	}
	student := core.Student{
		ID:       core.StudentID(req.ID),
		Name:     req.Name,
		Guardian: req.Guardian,
		Status:   core.StatusActive,
	}
	if err := h.Store.UpsertStudent(r.Context(), student); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create student", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(student))
}

// ListStudentInvoices returns all invoices for one student.
func (h *Handler) ListStudentInvoices(w http.ResponseWriter, r *http.Request) {
	id := core.StudentID(chi.URLParam(r, "id"))
	invoices, err := h.Store.InvoicesByStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invoices", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTOs(invoices))
}

// ListEnrollments returns a student's enrollments.
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	id := core.StudentID(chi.URLParam(r, "id"))
	enrollments, err := h.Store.EnrollmentsByStudent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list enrollments", err)
		return
	}
	dtos := make([]EnrollmentDTO, len(enrollments))
	for i, e := range enrollments {
		dtos[i] = toEnrollmentDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEnrollment enrolls a student in a course. The fee and basis default
// to the course's, and are locked in at enrollment time.
func (h *Handler) CreateEnrollment(w http.ResponseWriter, r *http.Request) {
	studentID := core.StudentID(chi.URLParam(r, "id"))
	var req CreateEnrollmentRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	ctx := r.Context()
	student, err := h.Store.StudentByID(ctx, studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get student", err)
		return
	}
	if student == nil {
		writeError(w, http.StatusNotFound, "Student not found", nil)
		return
	}
	course, err := h.Store.CourseByID(ctx, core.CourseID(req.CourseID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get course", err)
		return
	}
	if course == nil {
		writeError(w, http.StatusNotFound, "Course not found", nil)
		return
	}

	fee := course.DefaultFee
	if req.AgreedFee != "" {
		fee, err = core.ParseMoney(req.AgreedFee)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}
	basis := course.Basis
	if req.Basis != "" {
		basis = core.FeeBasis(req.Basis)
	}
	started := core.Today()
	if req.StartedOn != "" {
		started, err = core.ParseDate(req.StartedOn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid started_on format (use YYYY-MM-DD)", err)
			return
		}
	}

	enrollment := core.Enrollment{
		ID:        core.EnrollmentID(core.NewID()),
		StudentID: studentID,
		CourseID:  course.ID,
		Basis:     basis,
		AgreedFee: fee,
		StartedOn: started,
	}
	if err := h.Store.UpsertEnrollment(ctx, enrollment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create enrollment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEnrollmentDTO(enrollment))
}

// DeleteEnrollment discontinues an enrollment. Already-issued invoices are
// unaffected.
func (h *Handler) DeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	id := core.EnrollmentID(chi.URLParam(r, "enrollmentID"))
	if err := h.Store.DeleteEnrollment(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete enrollment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// MarkStudentAttendance records one attendance day for a student.
func (h *Handler) MarkStudentAttendance(w http.ResponseWriter, r *http.Request) {
	h.markAttendance(w, r, core.KindStudent)
}

// GetStudentAttendance returns a student's attendance for ?period=YYYY-MM.
func (h *Handler) GetStudentAttendance(w http.ResponseWriter, r *http.Request) {
	h.getAttendance(w, r, core.KindStudent)
}

// =============================================================================
// STAFF HANDLERS
// =============================================================================

// ListStaff returns all staff members.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	members, err := h.Store.StaffMembers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list staff", err)
		return
	}
	dtos := make([]StaffDTO, len(members))
	for i, m := range members {
		dtos[i] = toStaffDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStaff returns a single staff member.
func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	id := core.StaffID(chi.URLParam(r, "id"))
	member, err := h.Store.StaffByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get staff member", err)
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Staff member not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(*member))
}

// CreateStaff registers a new staff member.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	salary, err := core.ParseMoney(req.BaseSalary)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.ID == "" {
		req.ID = core.NewID()
	}
	member := core.Staff{
		ID:         core.StaffID(req.ID),
		Name:       req.Name,
		Role:       req.Role,
		Status:     core.StatusActive,
		BaseSalary: salary,
	}
	if err := h.Store.UpsertStaff(r.Context(), member); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create staff member", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffDTO(member))
}

// MarkStaffAttendance records one attendance day for a staff member.
func (h *Handler) MarkStaffAttendance(w http.ResponseWriter, r *http.Request) {
	h.markAttendance(w, r, core.KindStaff)
}

// GetStaffAttendance returns a staff member's attendance for ?period=YYYY-MM.
func (h *Handler) GetStaffAttendance(w http.ResponseWriter, r *http.Request) {
	h.getAttendance(w, r, core.KindStaff)
}

func (h *Handler) markAttendance(w http.ResponseWriter, r *http.Request, kind core.EntityKind) {
	entityID := chi.URLParam(r, "id")
	var req MarkAttendanceRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()
	if exists, err := h.entityExists(r, entityID, kind); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up entity", err)
		return
	} else if !exists {
		writeError(w, http.StatusNotFound, "Entity not found", nil)
		return
	}

	record := core.AttendanceRecord{
		EntityID: entityID,
		Kind:     kind,
		Date:     date,
		Status:   core.AttendanceStatus(req.Status),
	}
	if err := h.Store.UpsertAttendance(ctx, record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to mark attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceDTO(record))
}

func (h *Handler) getAttendance(w http.ResponseWriter, r *http.Request, kind core.EntityKind) {
	entityID := chi.URLParam(r, "id")
	period, err := core.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", err)
		return
	}
	records, err := h.Store.AttendanceForPeriod(r.Context(), entityID, kind, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get attendance", err)
		return
	}
	dtos := make([]AttendanceDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAttendanceDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) entityExists(r *http.Request, entityID string, kind core.EntityKind) (bool, error) {
	if kind == core.KindStudent {
		s, err := h.Store.StudentByID(r.Context(), core.StudentID(entityID))
		return s != nil, err
	}
	m, err := h.Store.StaffByID(r.Context(), core.StaffID(entityID))
	return m != nil, err
}

// =============================================================================
// COURSE HANDLERS
// =============================================================================

// ListCourses returns all courses.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Store.Courses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list courses", err)
		return
	}
	dtos := make([]CourseDTO, len(courses))
	for i, c := range courses {
		dtos[i] = toCourseDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCourse creates a course.
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	fee, err := core.ParseMoney(req.DefaultFee)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.ID == "" {
		req.ID = core.NewID()
	}
	course := core.Course{
		ID:         core.CourseID(req.ID),
		Name:       req.Name,
		DefaultFee: fee,
		Basis:      core.FeeBasis(req.Basis),
	}
	if err := h.Store.UpsertCourse(r.Context(), course); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create course", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCourseDTO(course))
}

// =============================================================================
// BILLING HANDLERS
// =============================================================================

// GenerateInvoices runs the invoice sweep for one period.
func (h *Handler) GenerateInvoices(w http.ResponseWriter, r *http.Request) {
	var req GenerateInvoicesRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	period, err := core.ParsePeriod(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", err)
		return
	}
	var target *core.StudentID
	if req.StudentID != "" {
		id := core.StudentID(req.StudentID)
		target = &id
	}

	generated, err := h.Billing.GenerateInvoices(r.Context(), period, target)
	if err != nil && generated == 0 {
		writeDomainError(w, err)
		return
	}
	result := GenerateResultDTO{Generated: generated}
	if err != nil {
		result.Errors = err.Error()
	}
	writeJSON(w, http.StatusOK, result)
}

// ListInvoices returns invoices, optionally filtered by student_id, period
// and status query parameters.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.Invoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invoices", err)
		return
	}

	q := r.URL.Query()
	studentID := q.Get("student_id")
	period := q.Get("period")
	status := q.Get("status")

	filtered := invoices[:0]
	for _, inv := range invoices {
		if studentID != "" && string(inv.StudentID) != studentID {
			continue
		}
		if period != "" && inv.Period.String() != period {
			continue
		}
		if status != "" && string(inv.Status) != status {
			continue
		}
		filtered = append(filtered, inv)
	}
	writeJSON(w, http.StatusOK, toInvoiceDTOs(filtered))
}

// GetInvoice returns a single invoice.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := core.InvoiceID(chi.URLParam(r, "id"))
	inv, err := h.Store.InvoiceByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get invoice", err)
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(*inv))
}

// PayInvoice marks a pending invoice paid.
func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	id := core.InvoiceID(chi.URLParam(r, "id"))
	inv, err := h.Billing.MarkPaid(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(*inv))
}

// DeleteInvoice deletes an invoice, releasing its adjustments.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := core.InvoiceID(chi.URLParam(r, "id"))
	if err := h.Billing.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// CreateAdHocInvoice records a one-off invoice outside the periodic sweep.
func (h *Handler) CreateAdHocInvoice(w http.ResponseWriter, r *http.Request) {
	var req AdHocInvoiceRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var due core.Date
	if req.DueDate != "" {
		due, err = core.ParseDate(req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due_date format (use YYYY-MM-DD)", err)
			return
		}
	}

	inv, err := h.Billing.CreateAdHocInvoice(r.Context(), billing.AdHocInvoiceInput{
		StudentID:   core.StudentID(req.StudentID),
		Kind:        core.LineKind(req.Kind),
		Amount:      amount,
		Description: req.Description,
		DueDate:     due,
		Paid:        req.Paid,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceDTO(*inv))
}

// CreateCharge records a student charge via the queue-or-merge path.
func (h *Handler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var date core.Date
	if req.Date != "" {
		date, err = core.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	outcome, err := h.Billing.QueueOrMergeCharge(r.Context(),
		core.StudentID(req.StudentID), core.StudentChargeKind(req.Kind), amount, req.Description, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ChargeResultDTO{Outcome: string(outcome)})
}

// =============================================================================
// STUDENT ADJUSTMENT HANDLERS
// =============================================================================

// ListStudentAdjustments returns student adjustments, optionally filtered
// by student_id and state ("pending"/"applied").
func (h *Handler) ListStudentAdjustments(w http.ResponseWriter, r *http.Request) {
	adjustments, err := h.Store.StudentAdjustments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list adjustments", err)
		return
	}
	q := r.URL.Query()
	studentID := q.Get("student_id")
	state := q.Get("state")

	dtos := make([]StudentAdjustmentDTO, 0, len(adjustments))
	for _, adj := range adjustments {
		if studentID != "" && string(adj.StudentID) != studentID {
			continue
		}
		dto := toStudentAdjustmentDTO(adj)
		if state != "" && dto.State != state {
			continue
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateStudentAdjustment edits a pending student adjustment.
func (h *Handler) UpdateStudentAdjustment(w http.ResponseWriter, r *http.Request) {
	id := core.AdjustmentID(chi.URLParam(r, "id"))
	var req UpdateStudentAdjustmentRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var date core.Date
	if req.Date != "" {
		date, err = core.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	adj, err := h.Billing.UpdateAdjustment(r.Context(), id,
		core.StudentChargeKind(req.Kind), amount, req.Description, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentAdjustmentDTO(*adj))
}

// DeleteStudentAdjustment removes a pending student adjustment.
func (h *Handler) DeleteStudentAdjustment(w http.ResponseWriter, r *http.Request) {
	id := core.AdjustmentID(chi.URLParam(r, "id"))
	if err := h.Billing.DeleteAdjustment(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// GeneratePayroll runs the payroll sweep for one period.
func (h *Handler) GeneratePayroll(w http.ResponseWriter, r *http.Request) {
	var req GeneratePayrollRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	period, err := core.ParsePeriod(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period format (use YYYY-MM)", err)
		return
	}
	ids := make([]core.StaffID, len(req.StaffIDs))
	for i, id := range req.StaffIDs {
		ids[i] = core.StaffID(id)
	}

	generated, err := h.Payroll.GeneratePayroll(r.Context(), period, ids)
	if err != nil && generated == 0 {
		writeDomainError(w, err)
		return
	}
	result := GenerateResultDTO{Generated: generated}
	if err != nil {
		result.Errors = err.Error()
	}
	writeJSON(w, http.StatusOK, result)
}

// ListSlips returns salary slips, optionally filtered by staff_id and period.
func (h *Handler) ListSlips(w http.ResponseWriter, r *http.Request) {
	slips, err := h.Store.Slips(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list slips", err)
		return
	}
	q := r.URL.Query()
	staffID := q.Get("staff_id")
	period := q.Get("period")

	filtered := slips[:0]
	for _, s := range slips {
		if staffID != "" && string(s.StaffID) != staffID {
			continue
		}
		if period != "" && s.Period.String() != period {
			continue
		}
		filtered = append(filtered, s)
	}
	writeJSON(w, http.StatusOK, toSlipDTOs(filtered))
}

// GetSlip returns a single salary slip.
func (h *Handler) GetSlip(w http.ResponseWriter, r *http.Request) {
	id := core.SlipID(chi.URLParam(r, "id"))
	slip, err := h.Store.SlipByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get slip", err)
		return
	}
	if slip == nil {
		writeError(w, http.StatusNotFound, "Slip not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSlipDTO(*slip))
}

// PaySlip marks a pending slip paid.
func (h *Handler) PaySlip(w http.ResponseWriter, r *http.Request) {
	id := core.SlipID(chi.URLParam(r, "id"))
	slip, err := h.Payroll.MarkPaid(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlipDTO(*slip))
}

// RefreshSlip recomputes a pending slip from current data.
func (h *Handler) RefreshSlip(w http.ResponseWriter, r *http.Request) {
	id := core.SlipID(chi.URLParam(r, "id"))
	slip, err := h.Payroll.RefreshSlip(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlipDTO(*slip))
}

// DeleteSlip deletes a slip, releasing its adjustments.
func (h *Handler) DeleteSlip(w http.ResponseWriter, r *http.Request) {
	id := core.SlipID(chi.URLParam(r, "id"))
	if err := h.Payroll.DeleteSlip(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// DetachSlipAdjustment removes one adjustment from a pending slip, then
// refreshes the slip so its totals reflect the removal.
func (h *Handler) DetachSlipAdjustment(w http.ResponseWriter, r *http.Request) {
	slipID := core.SlipID(chi.URLParam(r, "id"))
	adjID := core.AdjustmentID(chi.URLParam(r, "adjID"))
	var req DetachAdjustmentRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Payroll.DetachAdjustment(r.Context(), slipID, adjID, payroll.DetachMode(req.Mode)); err != nil {
		writeDomainError(w, err)
		return
	}
	slip, err := h.Payroll.RefreshSlip(r.Context(), slipID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlipDTO(*slip))
}

// =============================================================================
// PAYROLL ADJUSTMENT HANDLERS
// =============================================================================

// ListPayrollAdjustments returns payroll adjustments, optionally filtered
// by staff_id and state ("pending"/"applied").
func (h *Handler) ListPayrollAdjustments(w http.ResponseWriter, r *http.Request) {
	adjustments, err := h.Store.PayrollAdjustments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list adjustments", err)
		return
	}
	q := r.URL.Query()
	staffID := q.Get("staff_id")
	state := q.Get("state")

	dtos := make([]PayrollAdjustmentDTO, 0, len(adjustments))
	for _, adj := range adjustments {
		if staffID != "" && string(adj.StaffID) != staffID {
			continue
		}
		dto := toPayrollAdjustmentDTO(adj)
		if state != "" && dto.State != state {
			continue
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// QueuePayrollAdjustment records a new pending payroll adjustment.
func (h *Handler) QueuePayrollAdjustment(w http.ResponseWriter, r *http.Request) {
	var req QueuePayrollAdjustmentRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var date core.Date
	if req.Date != "" {
		date, err = core.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	adj, err := h.Payroll.QueueAdjustment(r.Context(),
		core.StaffID(req.StaffID), core.PayrollAdjustmentKind(req.Kind), amount, req.Description, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayrollAdjustmentDTO(*adj))
}

// UpdatePayrollAdjustment edits a pending payroll adjustment.
func (h *Handler) UpdatePayrollAdjustment(w http.ResponseWriter, r *http.Request) {
	id := core.AdjustmentID(chi.URLParam(r, "id"))
	var req UpdatePayrollAdjustmentRequest
	if err := h.decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var date core.Date
	if req.Date != "" {
		date, err = core.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	adj, err := h.Payroll.UpdateAdjustment(r.Context(), id,
		core.PayrollAdjustmentKind(req.Kind), amount, req.Description, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollAdjustmentDTO(*adj))
}

// DeletePayrollAdjustment removes a pending payroll adjustment.
func (h *Handler) DeletePayrollAdjustment(w http.ResponseWriter, r *http.Request) {
	id := core.AdjustmentID(chi.URLParam(r, "id"))
	if err := h.Payroll.DeleteAdjustment(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListLedger returns the full transaction ledger, oldest first.
func (h *Handler) ListLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.LedgerEntries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ledger entries", err)
		return
	}
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLedgerEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeDomainError maps engine errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case core.IsInvalidState(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case core.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
