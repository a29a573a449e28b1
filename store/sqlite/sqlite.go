/*
Package sqlite provides the SQLite-backed implementation of core.Store.

PURPOSE:
  Persists every engine collection (directories, adjustments, invoices,
  slips, ledger, sequences) in a single SQLite database. The same SQL
  patterns apply to PostgreSQL with minor dialect changes.

STORAGE NOTES:
  - Money is stored as TEXT decimal strings; never floats.
  - Dates are TEXT (YYYY-MM-DD), periods TEXT (YYYY-MM).
  - Invoice line items and slip adjustment snapshots are JSON columns:
    they are document-internal detail, never queried relationally.
  - Attendance is keyed (kind, entity_id, date) so re-marking a day
    replaces the prior record.
  - The ledger table is append-only: no UPDATE or DELETE statements exist
    for it.
  - Invoice numbers come from a sequences row advanced in the same
    transaction that reads it.

WAL MODE:
  The database is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, one writer at a time, which matches the engine's
  single-writer model.

USAGE:
  st, err := sqlite.New("./data/billing.db")
  defer st.Close()
  engine := billing.NewEngine(st)

SEE ALSO:
  - core/store.go: interface definitions
  - core/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brightsteps/billing-engine/core"
)

// Store implements core.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (and migrates) a SQLite store. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		guardian TEXT,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT,
		status TEXT NOT NULL,
		base_salary TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS courses (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		default_fee TEXT NOT NULL,
		basis TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS enrollments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		course_id TEXT NOT NULL,
		basis TEXT NOT NULL,
		agreed_fee TEXT NOT NULL,
		started_on TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_enrollments_student ON enrollments(student_id);

	-- Re-marking a day replaces the prior record for that (kind, entity, date)
	CREATE TABLE IF NOT EXISTS attendance (
		kind TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		PRIMARY KEY (kind, entity_id, date)
	);

	CREATE TABLE IF NOT EXISTS student_adjustments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT NOT NULL,
		date TEXT NOT NULL,
		applied INTEGER NOT NULL DEFAULT 0,
		doc_kind TEXT,
		doc_id TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_student_adjustments_student
		ON student_adjustments(student_id, applied);
	CREATE INDEX IF NOT EXISTS idx_student_adjustments_doc
		ON student_adjustments(doc_kind, doc_id) WHERE doc_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS payroll_adjustments (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		description TEXT NOT NULL,
		date TEXT NOT NULL,
		applied INTEGER NOT NULL DEFAULT 0,
		doc_kind TEXT,
		doc_id TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_payroll_adjustments_staff
		ON payroll_adjustments(staff_id, applied);
	CREATE INDEX IF NOT EXISTS idx_payroll_adjustments_doc
		ON payroll_adjustments(doc_kind, doc_id) WHERE doc_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		student_id TEXT NOT NULL,
		period TEXT NOT NULL,
		issued_on TEXT NOT NULL,
		due_date TEXT NOT NULL,
		status TEXT NOT NULL,
		paid_on TEXT,
		amount_due TEXT NOT NULL,
		items_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_invoices_student_period ON invoices(student_id, period);

	CREATE TABLE IF NOT EXISTS slips (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		period TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		attendance_deduction TEXT NOT NULL,
		adjustments_json TEXT NOT NULL,
		total_bonuses TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		net_salary TEXT NOT NULL,
		status TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		paid_on TEXT,
		UNIQUE (staff_id, period)
	);

	-- Append-only: no UPDATE/DELETE is ever issued against this table
	CREATE TABLE IF NOT EXISTS ledger (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		doc_kind TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		entity_kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		note TEXT,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_doc ON ledger(doc_kind, doc_id);

	CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset clears every collection. Dev/demo only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tables := []string{
		"students", "staff", "courses", "enrollments", "attendance",
		"student_adjustments", "payroll_adjustments", "invoices", "slips",
		"ledger", "sequences",
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func dateOrNull(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func scanDate(s sql.NullString) core.Date {
	if !s.Valid || s.String == "" {
		return core.Date{}
	}
	return mustDate(s.String)
}

func mustDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

func mustPeriod(s string) core.Period {
	p, err := core.ParsePeriod(s)
	if err != nil {
		return core.Period{}
	}
	return p
}

func stateColumns(state core.AdjustmentState) (applied int, docKind, docID any) {
	if ref, ok := state.Owner(); ok {
		return 1, string(ref.Kind), ref.ID
	}
	return 0, nil, nil
}

func scanState(applied int, docKind, docID sql.NullString) core.AdjustmentState {
	if applied == 0 || !docID.Valid {
		return core.Pending()
	}
	return core.AppliedTo(core.DocumentRef{Kind: core.DocumentKind(docKind.String), ID: docID.String})
}

// =============================================================================
// STUDENTS / STAFF / COURSES
// =============================================================================

func (s *Store) Students(ctx context.Context) ([]core.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(guardian,''), status FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Student
	for rows.Next() {
		var st core.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Guardian, &st.Status); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) StudentByID(ctx context.Context, id core.StudentID) (*core.Student, error) {
	var st core.Student
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(guardian,''), status FROM students WHERE id = ?`, id).
		Scan(&st.ID, &st.Name, &st.Guardian, &st.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) UpsertStudent(ctx context.Context, st core.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (id, name, guardian, status) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, guardian=excluded.guardian, status=excluded.status`,
		st.ID, st.Name, st.Guardian, st.Status)
	return err
}

func (s *Store) StaffMembers(ctx context.Context) ([]core.Staff, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(role,''), status, base_salary FROM staff ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Staff
	for rows.Next() {
		var st core.Staff
		var salary string
		if err := rows.Scan(&st.ID, &st.Name, &st.Role, &st.Status, &salary); err != nil {
			return nil, err
		}
		st.BaseSalary = core.MustParseMoney(salary)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) StaffByID(ctx context.Context, id core.StaffID) (*core.Staff, error) {
	var st core.Staff
	var salary string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(role,''), status, base_salary FROM staff WHERE id = ?`, id).
		Scan(&st.ID, &st.Name, &st.Role, &st.Status, &salary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.BaseSalary = core.MustParseMoney(salary)
	return &st, nil
}

func (s *Store) UpsertStaff(ctx context.Context, st core.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff (id, name, role, status, base_salary) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, role=excluded.role,
			status=excluded.status, base_salary=excluded.base_salary`,
		st.ID, st.Name, st.Role, st.Status, st.BaseSalary.String())
	return err
}

func (s *Store) Courses(ctx context.Context) ([]core.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, default_fee, basis FROM courses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Course
	for rows.Next() {
		var c core.Course
		var fee string
		if err := rows.Scan(&c.ID, &c.Name, &fee, &c.Basis); err != nil {
			return nil, err
		}
		c.DefaultFee = core.MustParseMoney(fee)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CourseByID(ctx context.Context, id core.CourseID) (*core.Course, error) {
	var c core.Course
	var fee string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, default_fee, basis FROM courses WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &fee, &c.Basis)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.DefaultFee = core.MustParseMoney(fee)
	return &c, nil
}

func (s *Store) UpsertCourse(ctx context.Context, c core.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (id, name, default_fee, basis) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, default_fee=excluded.default_fee, basis=excluded.basis`,
		c.ID, c.Name, c.DefaultFee.String(), c.Basis)
	return err
}

// =============================================================================
// ENROLLMENTS / ATTENDANCE
// =============================================================================

func (s *Store) EnrollmentsByStudent(ctx context.Context, id core.StudentID) ([]core.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, course_id, basis, agreed_fee, started_on
		FROM enrollments WHERE student_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Enrollment
	for rows.Next() {
		var e core.Enrollment
		var fee, started string
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Basis, &fee, &started); err != nil {
			return nil, err
		}
		e.AgreedFee = core.MustParseMoney(fee)
		e.StartedOn = mustDate(started)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) UpsertEnrollment(ctx context.Context, e core.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, student_id, course_id, basis, agreed_fee, started_on)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET student_id=excluded.student_id, course_id=excluded.course_id,
			basis=excluded.basis, agreed_fee=excluded.agreed_fee, started_on=excluded.started_on`,
		e.ID, e.StudentID, e.CourseID, e.Basis, e.AgreedFee.String(), e.StartedOn.String())
	return err
}

func (s *Store) DeleteEnrollment(ctx context.Context, id core.EnrollmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = ?`, id)
	return err
}

func (s *Store) AttendanceForPeriod(ctx context.Context, entityID string, kind core.EntityKind, p core.Period) ([]core.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, kind, date, status FROM attendance
		WHERE entity_id = ? AND kind = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		entityID, kind, p.Start().String(), p.End().String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.AttendanceRecord
	for rows.Next() {
		var r core.AttendanceRecord
		var date string
		if err := rows.Scan(&r.EntityID, &r.Kind, &date, &r.Status); err != nil {
			return nil, err
		}
		r.Date = mustDate(date)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertAttendance(ctx context.Context, r core.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (kind, entity_id, date, status) VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, entity_id, date) DO UPDATE SET status=excluded.status`,
		r.Kind, r.EntityID, r.Date.String(), r.Status)
	return err
}

// =============================================================================
// STUDENT ADJUSTMENTS
// =============================================================================

const studentAdjCols = `id, student_id, kind, amount, description, date, applied, doc_kind, doc_id`

func scanStudentAdjustments(rows *sql.Rows) ([]core.StudentAdjustment, error) {
	defer rows.Close()
	var out []core.StudentAdjustment
	for rows.Next() {
		var a core.StudentAdjustment
		var amount, date string
		var applied int
		var docKind, docID sql.NullString
		if err := rows.Scan(&a.ID, &a.StudentID, &a.Kind, &amount, &a.Description, &date, &applied, &docKind, &docID); err != nil {
			return nil, err
		}
		a.Amount = core.MustParseMoney(amount)
		a.Date = mustDate(date)
		a.State = scanState(applied, docKind, docID)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) StudentAdjustments(ctx context.Context) ([]core.StudentAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+studentAdjCols+` FROM student_adjustments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanStudentAdjustments(rows)
}

func (s *Store) StudentAdjustmentByID(ctx context.Context, id core.AdjustmentID) (*core.StudentAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+studentAdjCols+` FROM student_adjustments WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	adjs, err := scanStudentAdjustments(rows)
	if err != nil || len(adjs) == 0 {
		return nil, err
	}
	return &adjs[0], nil
}

func (s *Store) PendingStudentAdjustments(ctx context.Context, id core.StudentID) ([]core.StudentAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+studentAdjCols+` FROM student_adjustments WHERE student_id = ? AND applied = 0 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	return scanStudentAdjustments(rows)
}

func (s *Store) StudentAdjustmentsAppliedTo(ctx context.Context, ref core.DocumentRef) ([]core.StudentAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+studentAdjCols+` FROM student_adjustments WHERE applied = 1 AND doc_kind = ? AND doc_id = ? ORDER BY id`,
		string(ref.Kind), ref.ID)
	if err != nil {
		return nil, err
	}
	return scanStudentAdjustments(rows)
}

func (s *Store) UpsertStudentAdjustment(ctx context.Context, a core.StudentAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied, docKind, docID := stateColumns(a.State)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_adjustments (`+studentAdjCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET student_id=excluded.student_id, kind=excluded.kind,
			amount=excluded.amount, description=excluded.description, date=excluded.date,
			applied=excluded.applied, doc_kind=excluded.doc_kind, doc_id=excluded.doc_id`,
		a.ID, a.StudentID, a.Kind, a.Amount.String(), a.Description, a.Date.String(), applied, docKind, docID)
	return err
}

func (s *Store) DeleteStudentAdjustment(ctx context.Context, id core.AdjustmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM student_adjustments WHERE id = ?`, id)
	return err
}

// =============================================================================
// PAYROLL ADJUSTMENTS
// =============================================================================

const payrollAdjCols = `id, staff_id, kind, amount, description, date, applied, doc_kind, doc_id`

func scanPayrollAdjustments(rows *sql.Rows) ([]core.PayrollAdjustment, error) {
	defer rows.Close()
	var out []core.PayrollAdjustment
	for rows.Next() {
		var a core.PayrollAdjustment
		var amount, date string
		var applied int
		var docKind, docID sql.NullString
		if err := rows.Scan(&a.ID, &a.StaffID, &a.Kind, &amount, &a.Description, &date, &applied, &docKind, &docID); err != nil {
			return nil, err
		}
		a.Amount = core.MustParseMoney(amount)
		a.Date = mustDate(date)
		a.State = scanState(applied, docKind, docID)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) PayrollAdjustments(ctx context.Context) ([]core.PayrollAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+payrollAdjCols+` FROM payroll_adjustments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanPayrollAdjustments(rows)
}

func (s *Store) PayrollAdjustmentByID(ctx context.Context, id core.AdjustmentID) (*core.PayrollAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+payrollAdjCols+` FROM payroll_adjustments WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	adjs, err := scanPayrollAdjustments(rows)
	if err != nil || len(adjs) == 0 {
		return nil, err
	}
	return &adjs[0], nil
}

func (s *Store) PendingPayrollAdjustments(ctx context.Context, id core.StaffID) ([]core.PayrollAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+payrollAdjCols+` FROM payroll_adjustments WHERE staff_id = ? AND applied = 0 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	return scanPayrollAdjustments(rows)
}

func (s *Store) PayrollAdjustmentsAppliedTo(ctx context.Context, ref core.DocumentRef) ([]core.PayrollAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+payrollAdjCols+` FROM payroll_adjustments WHERE applied = 1 AND doc_kind = ? AND doc_id = ? ORDER BY id`,
		string(ref.Kind), ref.ID)
	if err != nil {
		return nil, err
	}
	return scanPayrollAdjustments(rows)
}

func (s *Store) UpsertPayrollAdjustment(ctx context.Context, a core.PayrollAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied, docKind, docID := stateColumns(a.State)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_adjustments (`+payrollAdjCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET staff_id=excluded.staff_id, kind=excluded.kind,
			amount=excluded.amount, description=excluded.description, date=excluded.date,
			applied=excluded.applied, doc_kind=excluded.doc_kind, doc_id=excluded.doc_id`,
		a.ID, a.StaffID, a.Kind, a.Amount.String(), a.Description, a.Date.String(), applied, docKind, docID)
	return err
}

func (s *Store) DeletePayrollAdjustment(ctx context.Context, id core.AdjustmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM payroll_adjustments WHERE id = ?`, id)
	return err
}

// =============================================================================
// INVOICES
// =============================================================================

type lineItemRow struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func encodeItems(items []core.LineItem) (string, error) {
	rows := make([]lineItemRow, len(items))
	for i, it := range items {
		rows[i] = lineItemRow{Kind: string(it.Kind), Description: it.Description, Amount: it.Amount.String()}
	}
	b, err := json.Marshal(rows)
	return string(b), err
}

func decodeItems(data string) ([]core.LineItem, error) {
	var rows []lineItemRow
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, err
	}
	items := make([]core.LineItem, len(rows))
	for i, r := range rows {
		items[i] = core.LineItem{
			Kind:        core.LineKind(r.Kind),
			Description: r.Description,
			Amount:      core.MustParseMoney(r.Amount),
		}
	}
	return items, nil
}

const invoiceCols = `id, number, student_id, period, issued_on, due_date, status, paid_on, amount_due, items_json`

func scanInvoices(rows *sql.Rows) ([]core.Invoice, error) {
	defer rows.Close()
	var out []core.Invoice
	for rows.Next() {
		var inv core.Invoice
		var period, issued, due, amount, items string
		var paid sql.NullString
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.StudentID, &period, &issued, &due,
			&inv.Status, &paid, &amount, &items); err != nil {
			return nil, err
		}
		inv.Period = mustPeriod(period)
		inv.IssuedOn = mustDate(issued)
		inv.DueDate = mustDate(due)
		inv.PaidOn = scanDate(paid)
		inv.AmountDue = core.MustParseMoney(amount)
		decoded, err := decodeItems(items)
		if err != nil {
			return nil, err
		}
		inv.Items = decoded
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) Invoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+invoiceCols+` FROM invoices ORDER BY number`)
	if err != nil {
		return nil, err
	}
	return scanInvoices(rows)
}

func (s *Store) InvoiceByID(ctx context.Context, id core.InvoiceID) (*core.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	invs, err := scanInvoices(rows)
	if err != nil || len(invs) == 0 {
		return nil, err
	}
	return &invs[0], nil
}

func (s *Store) InvoicesByStudent(ctx context.Context, id core.StudentID) ([]core.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE student_id = ? ORDER BY number`, id)
	if err != nil {
		return nil, err
	}
	return scanInvoices(rows)
}

func (s *Store) InvoicesForPeriod(ctx context.Context, id core.StudentID, p core.Period) ([]core.Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE student_id = ? AND period = ? ORDER BY number`,
		id, p.String())
	if err != nil {
		return nil, err
	}
	return scanInvoices(rows)
}

func (s *Store) UpsertInvoice(ctx context.Context, inv core.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := encodeItems(inv.Items)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET number=excluded.number, student_id=excluded.student_id,
			period=excluded.period, issued_on=excluded.issued_on, due_date=excluded.due_date,
			status=excluded.status, paid_on=excluded.paid_on, amount_due=excluded.amount_due,
			items_json=excluded.items_json`,
		inv.ID, inv.Number, inv.StudentID, inv.Period.String(), inv.IssuedOn.String(),
		inv.DueDate.String(), inv.Status, dateOrNull(inv.PaidOn), inv.AmountDue.String(), items)
	return err
}

func (s *Store) DeleteInvoice(ctx context.Context, id core.InvoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	return err
}

// =============================================================================
// SLIPS
// =============================================================================

type appliedAdjRow struct {
	AdjustmentID string `json:"adjustment_id"`
	Kind         string `json:"kind"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
}

func encodeAppliedAdjs(adjs []core.AppliedAdjustment) (string, error) {
	rows := make([]appliedAdjRow, len(adjs))
	for i, a := range adjs {
		rows[i] = appliedAdjRow{
			AdjustmentID: string(a.AdjustmentID),
			Kind:         string(a.Kind),
			Description:  a.Description,
			Amount:       a.Amount.String(),
		}
	}
	b, err := json.Marshal(rows)
	return string(b), err
}

func decodeAppliedAdjs(data string) ([]core.AppliedAdjustment, error) {
	var rows []appliedAdjRow
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, err
	}
	adjs := make([]core.AppliedAdjustment, len(rows))
	for i, r := range rows {
		adjs[i] = core.AppliedAdjustment{
			AdjustmentID: core.AdjustmentID(r.AdjustmentID),
			Kind:         core.PayrollAdjustmentKind(r.Kind),
			Description:  r.Description,
			Amount:       core.MustParseMoney(r.Amount),
		}
	}
	return adjs, nil
}

const slipCols = `id, staff_id, period, base_salary, attendance_deduction, adjustments_json,
	total_bonuses, total_deductions, net_salary, status, generated_at, paid_on`

func scanSlips(rows *sql.Rows) ([]core.SalarySlip, error) {
	defer rows.Close()
	var out []core.SalarySlip
	for rows.Next() {
		var sl core.SalarySlip
		var period, base, deduction, adjs, bonuses, deductions, net, generated string
		var paid sql.NullString
		if err := rows.Scan(&sl.ID, &sl.StaffID, &period, &base, &deduction, &adjs,
			&bonuses, &deductions, &net, &sl.Status, &generated, &paid); err != nil {
			return nil, err
		}
		sl.Period = mustPeriod(period)
		sl.BaseSalary = core.MustParseMoney(base)
		sl.AttendanceDeduction = core.MustParseMoney(deduction)
		sl.TotalBonuses = core.MustParseMoney(bonuses)
		sl.TotalDeductions = core.MustParseMoney(deductions)
		sl.NetSalary = core.MustParseMoney(net)
		sl.PaidOn = scanDate(paid)
		if t, err := time.Parse(time.RFC3339, generated); err == nil {
			sl.GeneratedAt = t
		}
		decoded, err := decodeAppliedAdjs(adjs)
		if err != nil {
			return nil, err
		}
		sl.Adjustments = decoded
		out = append(out, sl)
	}
	return out, rows.Err()
}

func (s *Store) Slips(ctx context.Context) ([]core.SalarySlip, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+slipCols+` FROM slips ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanSlips(rows)
}

func (s *Store) SlipByID(ctx context.Context, id core.SlipID) (*core.SalarySlip, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+slipCols+` FROM slips WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	slips, err := scanSlips(rows)
	if err != nil || len(slips) == 0 {
		return nil, err
	}
	return &slips[0], nil
}

func (s *Store) SlipByStaffPeriod(ctx context.Context, id core.StaffID, p core.Period) (*core.SalarySlip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+slipCols+` FROM slips WHERE staff_id = ? AND period = ?`, id, p.String())
	if err != nil {
		return nil, err
	}
	slips, err := scanSlips(rows)
	if err != nil || len(slips) == 0 {
		return nil, err
	}
	return &slips[0], nil
}

func (s *Store) UpsertSlip(ctx context.Context, sl core.SalarySlip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	adjs, err := encodeAppliedAdjs(sl.Adjustments)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO slips (id, staff_id, period, base_salary, attendance_deduction, adjustments_json,
			total_bonuses, total_deductions, net_salary, status, generated_at, paid_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET staff_id=excluded.staff_id, period=excluded.period,
			base_salary=excluded.base_salary, attendance_deduction=excluded.attendance_deduction,
			adjustments_json=excluded.adjustments_json, total_bonuses=excluded.total_bonuses,
			total_deductions=excluded.total_deductions, net_salary=excluded.net_salary,
			status=excluded.status, generated_at=excluded.generated_at, paid_on=excluded.paid_on`,
		sl.ID, sl.StaffID, sl.Period.String(), sl.BaseSalary.String(), sl.AttendanceDeduction.String(),
		adjs, sl.TotalBonuses.String(), sl.TotalDeductions.String(), sl.NetSalary.String(),
		sl.Status, sl.GeneratedAt.UTC().Format(time.RFC3339), dateOrNull(sl.PaidOn))
	return err
}

func (s *Store) DeleteSlip(ctx context.Context, id core.SlipID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM slips WHERE id = ?`, id)
	return err
}

// =============================================================================
// LEDGER / SEQUENCES
// =============================================================================

func (s *Store) AppendLedgerEntry(ctx context.Context, e core.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger (id, kind, doc_kind, doc_id, entity_id, entity_kind, amount, note, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, string(e.Document.Kind), e.Document.ID, e.EntityID, e.EntityKind,
		e.Amount.String(), e.Note, e.RecordedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) LedgerEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, doc_kind, doc_id, entity_id, entity_kind, amount, COALESCE(note,''), recorded_at
		FROM ledger ORDER BY recorded_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.LedgerEntry
	for rows.Next() {
		var e core.LedgerEntry
		var docKind, docID, amount, recorded string
		if err := rows.Scan(&e.ID, &e.Kind, &docKind, &docID, &e.EntityID, &e.EntityKind,
			&amount, &e.Note, &recorded); err != nil {
			return nil, err
		}
		e.Document = core.DocumentRef{Kind: core.DocumentKind(docKind), ID: docID}
		e.Amount = core.MustParseMoney(amount)
		if t, err := time.Parse(time.RFC3339, recorded); err == nil {
			e.RecordedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// NextInvoiceNumber advances and returns the invoice sequence. The advance
// and read run in one transaction so values are collision-free.
func (s *Store) NextInvoiceNumber(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sequences (name, value) VALUES ('invoice', 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1`); err != nil {
		return 0, err
	}
	var value int
	if err := tx.QueryRowContext(ctx, `SELECT value FROM sequences WHERE name = 'invoice'`).Scan(&value); err != nil {
		return 0, err
	}
	return value, tx.Commit()
}
