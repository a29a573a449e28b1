/*
scenarios_test.go - Tests for demo scenario loaders

Verifies each scenario seeds the expected state: directory records exist,
attendance is marked, and the scenarios that run a generation sweep leave
documents behind.
*/
package api

import (
	"context"
	"net/http"
	"testing"
)

func TestLoadScenario_TherapyCenter(t *testing.T) {
	srv, h, mem := newTestServer(t)

	resp := doJSON(t, "POST", srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "therapy-center"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status = %d", resp.StatusCode)
	}
	if h.currentScenario != "therapy-center" {
		t.Errorf("currentScenario = %q", h.currentScenario)
	}

	ctx := context.Background()
	students, err := mem.Students(ctx)
	if err != nil || len(students) != 3 {
		t.Fatalf("students = %d, err = %v", len(students), err)
	}
	staff, err := mem.StaffMembers(ctx)
	if err != nil || len(staff) != 2 {
		t.Fatalf("staff = %d, err = %v", len(staff), err)
	}
	pending, err := mem.PendingStudentAdjustments(ctx, "alice")
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending for alice = %d, err = %v", len(pending), err)
	}
}

func TestLoadScenario_DailyBilling_GeneratesInvoice(t *testing.T) {
	srv, _, mem := newTestServer(t)

	resp := doJSON(t, "POST", srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "daily-billing"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status = %d", resp.StatusCode)
	}

	invoices, err := mem.InvoicesByStudent(context.Background(), "budi")
	if err != nil {
		t.Fatal(err)
	}
	if len(invoices) != 1 {
		t.Fatalf("invoices = %d", len(invoices))
	}
	// 3 attended days x 350
	if got := invoices[0].AmountDue.String(); got != "1050.00" {
		t.Errorf("amount = %s, want 1050.00", got)
	}
}

func TestLoadScenario_PayrollCycle_GeneratesSlips(t *testing.T) {
	srv, _, mem := newTestServer(t)

	resp := doJSON(t, "POST", srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "payroll-cycle"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status = %d", resp.StatusCode)
	}

	slips, err := mem.Slips(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(slips) != 2 {
		t.Fatalf("slips = %d", len(slips))
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp := doJSON(t, "POST", srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestResetDatabase(t *testing.T) {
	srv, h, mem := newTestServer(t)

	resp := doJSON(t, "POST", srv.URL+"/api/scenarios/load", LoadScenarioRequest{ScenarioID: "therapy-center"})
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/api/scenarios/reset", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}
	if h.currentScenario != "" {
		t.Errorf("currentScenario should be cleared, got %q", h.currentScenario)
	}
	students, err := mem.Students(context.Background())
	if err != nil || len(students) != 0 {
		t.Errorf("students after reset = %d, err = %v", len(students), err)
	}
}
