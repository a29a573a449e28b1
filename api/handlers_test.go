/*
handlers_test.go - HTTP tests for the API surface

Exercises the router end to end against the in-memory store: directory
CRUD, generation sweeps, lifecycle transitions and the domain-error to
HTTP-status mapping.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightsteps/billing-engine/core"
	"github.com/brightsteps/billing-engine/core/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *Handler, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	h := NewHandler(mem)
	fixed := func() time.Time { return time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC) }
	h.Billing.Now = fixed
	h.Payroll.Now = fixed
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, h, mem
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func seedBillableStudent(t *testing.T, mem *store.Memory) {
	t.Helper()
	ctx := context.Background()
	if err := mem.UpsertStudent(ctx, core.Student{ID: "alice", Name: "Alice Tan", Status: core.StatusActive}); err != nil {
		t.Fatalf("seed student: %v", err)
	}
	err := mem.UpsertEnrollment(ctx, core.Enrollment{
		ID: "enr-1", StudentID: "alice", CourseID: "speech",
		Basis: core.BasisMonthly, AgreedFee: core.MoneyFromInt(1500),
		StartedOn: core.NewDate(2024, time.June, 1),
	})
	if err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestCreateAndGetStudent(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doJSON(t, "POST", srv.URL+"/api/students", CreateStudentRequest{
		ID: "alice", Name: "Alice Tan", Guardian: "Mrs. Tan",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "GET", srv.URL+"/api/students/alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var dto StudentDTO
	decodeBody(t, resp, &dto)
	if dto.Name != "Alice Tan" || dto.Status != "active" {
		t.Errorf("unexpected student: %+v", dto)
	}
}

func TestCreateStudent_MissingName(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp := doJSON(t, "POST", srv.URL+"/api/students", CreateStudentRequest{ID: "x"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetStudent_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp := doJSON(t, "GET", srv.URL+"/api/students/nobody", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMarkAttendance_InvalidStatus(t *testing.T) {
	srv, _, mem := newTestServer(t)
	if err := mem.UpsertStudent(context.Background(), core.Student{ID: "alice", Name: "Alice", Status: core.StatusActive}); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, "POST", srv.URL+"/api/students/alice/attendance", MarkAttendanceRequest{
		Date: "2024-06-03", Status: "vacationing",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

// =============================================================================
// BILLING
// =============================================================================

func TestGenerateInvoicesEndpoint(t *testing.T) {
	srv, _, mem := newTestServer(t)
	seedBillableStudent(t, mem)

	resp := doJSON(t, "POST", srv.URL+"/api/billing/generate", GenerateInvoicesRequest{Period: "2024-06"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	var result GenerateResultDTO
	decodeBody(t, resp, &result)
	if result.Generated != 1 {
		t.Fatalf("generated = %d, want 1", result.Generated)
	}

	resp = doJSON(t, "GET", srv.URL+"/api/invoices?student_id=alice&period=2024-06", nil)
	var invoices []InvoiceDTO
	decodeBody(t, resp, &invoices)
	if len(invoices) != 1 {
		t.Fatalf("invoices = %d", len(invoices))
	}
	if invoices[0].AmountDue != "1500.00" || invoices[0].Number != "INV-0001" {
		t.Errorf("unexpected invoice: %+v", invoices[0])
	}
}

func TestPayInvoice_DoublePayConflicts(t *testing.T) {
	srv, _, mem := newTestServer(t)
	seedBillableStudent(t, mem)
	resp := doJSON(t, "POST", srv.URL+"/api/billing/generate", GenerateInvoicesRequest{Period: "2024-06"})
	resp.Body.Close()

	resp = doJSON(t, "GET", srv.URL+"/api/invoices", nil)
	var invoices []InvoiceDTO
	decodeBody(t, resp, &invoices)
	if len(invoices) != 1 {
		t.Fatalf("invoices = %d", len(invoices))
	}
	id := invoices[0].ID

	resp = doJSON(t, "POST", srv.URL+"/api/invoices/"+id+"/pay", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pay status = %d", resp.StatusCode)
	}
	var paid InvoiceDTO
	decodeBody(t, resp, &paid)
	if paid.Status != "paid" || paid.PaidOn == "" {
		t.Errorf("unexpected paid invoice: %+v", paid)
	}

	resp = doJSON(t, "POST", srv.URL+"/api/invoices/"+id+"/pay", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second pay status = %d, want 409", resp.StatusCode)
	}
}

func TestCreateCharge_QueuedThenVisible(t *testing.T) {
	srv, _, mem := newTestServer(t)
	if err := mem.UpsertStudent(context.Background(), core.Student{ID: "alice", Name: "Alice", Status: core.StatusActive}); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, "POST", srv.URL+"/api/charges", ChargeRequest{
		StudentID: "alice", Kind: "fine", Amount: "50.00", Description: "Late pickup fee",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("charge status = %d", resp.StatusCode)
	}
	var result ChargeResultDTO
	decodeBody(t, resp, &result)
	if result.Outcome != "queued" {
		t.Errorf("outcome = %s, want queued", result.Outcome)
	}

	resp = doJSON(t, "GET", srv.URL+"/api/adjustments/student?student_id=alice&state=pending", nil)
	var adjustments []StudentAdjustmentDTO
	decodeBody(t, resp, &adjustments)
	if len(adjustments) != 1 || adjustments[0].Amount != "50.00" {
		t.Errorf("unexpected adjustments: %+v", adjustments)
	}
}

func TestAdHocInvoiceEndpoint(t *testing.T) {
	srv, _, mem := newTestServer(t)
	if err := mem.UpsertStudent(context.Background(), core.Student{ID: "alice", Name: "Alice", Status: core.StatusActive}); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, "POST", srv.URL+"/api/invoices/adhoc", AdHocInvoiceRequest{
		StudentID: "alice", Amount: "300.00", Description: "Initial assessment", Paid: true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("adhoc status = %d", resp.StatusCode)
	}
	var inv InvoiceDTO
	decodeBody(t, resp, &inv)
	if inv.Status != "paid" || inv.AmountDue != "300.00" {
		t.Errorf("unexpected invoice: %+v", inv)
	}

	resp = doJSON(t, "GET", srv.URL+"/api/ledger", nil)
	var entries []LedgerEntryDTO
	decodeBody(t, resp, &entries)
	if len(entries) != 1 || entries[0].Kind != "payment" {
		t.Errorf("unexpected ledger: %+v", entries)
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

func TestPayrollEndpoints(t *testing.T) {
	srv, _, mem := newTestServer(t)
	ctx := context.Background()
	if err := mem.UpsertStaff(ctx, core.Staff{
		ID: "dina", Name: "Dina Kusuma", Status: core.StatusActive, BaseSalary: core.MoneyFromInt(9000),
	}); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, "POST", srv.URL+"/api/adjustments/payroll", QueuePayrollAdjustmentRequest{
		StaffID: "dina", Kind: "bonus", Amount: "500.00", Description: "Caseload bonus",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("queue adjustment status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/api/payroll/generate", GeneratePayrollRequest{Period: "2024-06"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	var result GenerateResultDTO
	decodeBody(t, resp, &result)
	if result.Generated != 1 {
		t.Fatalf("generated = %d", result.Generated)
	}

	resp = doJSON(t, "GET", srv.URL+"/api/slips?staff_id=dina", nil)
	var slips []SlipDTO
	decodeBody(t, resp, &slips)
	if len(slips) != 1 {
		t.Fatalf("slips = %d", len(slips))
	}
	if slips[0].NetSalary != "9500.00" {
		t.Errorf("net = %s, want 9500.00", slips[0].NetSalary)
	}

	resp = doJSON(t, "POST", srv.URL+"/api/slips/"+slips[0].ID+"/pay", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pay status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/api/slips/"+slips[0].ID+"/refresh", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("refresh paid slip status = %d, want 409", resp.StatusCode)
	}
}

func TestDetachEndpoint_PostponeRefreshesTotals(t *testing.T) {
	srv, _, mem := newTestServer(t)
	ctx := context.Background()
	if err := mem.UpsertStaff(ctx, core.Staff{
		ID: "dina", Name: "Dina", Status: core.StatusActive, BaseSalary: core.MoneyFromInt(9000),
	}); err != nil {
		t.Fatal(err)
	}
	if err := mem.UpsertPayrollAdjustment(ctx, core.PayrollAdjustment{
		ID: "padj-1", StaffID: "dina", Kind: core.AdjBonus,
		Amount: core.MoneyFromInt(500), Description: "Bonus",
		Date: core.NewDate(2024, time.June, 10), State: core.Pending(),
	}); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, "POST", srv.URL+"/api/payroll/generate", GeneratePayrollRequest{Period: "2024-06"})
	resp.Body.Close()
	resp = doJSON(t, "GET", srv.URL+"/api/slips", nil)
	var slips []SlipDTO
	decodeBody(t, resp, &slips)
	if len(slips) != 1 || slips[0].NetSalary != "9500.00" {
		t.Fatalf("unexpected slips: %+v", slips)
	}

	resp = doJSON(t, "POST", srv.URL+"/api/slips/"+slips[0].ID+"/adjustments/padj-1/detach",
		DetachAdjustmentRequest{Mode: "postpone"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detach status = %d", resp.StatusCode)
	}
	var refreshed SlipDTO
	decodeBody(t, resp, &refreshed)
	if refreshed.NetSalary != "9000.00" || len(refreshed.Adjustments) != 0 {
		t.Errorf("unexpected refreshed slip: %+v", refreshed)
	}

	// The postponed adjustment is pending again, dated next month.
	resp = doJSON(t, "GET", srv.URL+"/api/adjustments/payroll?state=pending", nil)
	var adjustments []PayrollAdjustmentDTO
	decodeBody(t, resp, &adjustments)
	if len(adjustments) != 1 || adjustments[0].Date != "2024-07-01" {
		t.Errorf("unexpected adjustments: %+v", adjustments)
	}
}
