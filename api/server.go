/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/students/*     Student directory, enrollments, attendance
  /api/staff/*        Staff directory, attendance
  /api/courses/*      Course directory
  /api/billing/*      Invoice generation
  /api/invoices/*     Invoice lifecycle
  /api/charges        Queue-or-merge student charges
  /api/payroll/*      Payroll generation
  /api/slips/*        Slip lifecycle
  /api/adjustments/*  Adjustment CRUD (both kinds)
  /api/ledger         Transaction ledger
  /api/scenarios/*    Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Student routes
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.CreateStudent)
			r.Get("/{id}", h.GetStudent)
			r.Get("/{id}/invoices", h.ListStudentInvoices)
			r.Get("/{id}/enrollments", h.ListEnrollments)
			r.Post("/{id}/enrollments", h.CreateEnrollment)
			r.Get("/{id}/attendance", h.GetStudentAttendance)
			r.Post("/{id}/attendance", h.MarkStudentAttendance)
		})
		r.Delete("/enrollments/{enrollmentID}", h.DeleteEnrollment)

		// Staff routes
		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.CreateStaff)
			r.Get("/{id}", h.GetStaff)
			r.Get("/{id}/attendance", h.GetStaffAttendance)
			r.Post("/{id}/attendance", h.MarkStaffAttendance)
		})

		// Course routes
		r.Route("/courses", func(r chi.Router) {
			r.Get("/", h.ListCourses)
			r.Post("/", h.CreateCourse)
		})

		// Billing routes
		r.Post("/billing/generate", h.GenerateInvoices)
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/adhoc", h.CreateAdHocInvoice)
			r.Get("/{id}", h.GetInvoice)
			r.Post("/{id}/pay", h.PayInvoice)
			r.Delete("/{id}", h.DeleteInvoice)
		})
		r.Post("/charges", h.CreateCharge)

		// Payroll routes
		r.Post("/payroll/generate", h.GeneratePayroll)
		r.Route("/slips", func(r chi.Router) {
			r.Get("/", h.ListSlips)
			r.Get("/{id}", h.GetSlip)
			r.Post("/{id}/pay", h.PaySlip)
			r.Post("/{id}/refresh", h.RefreshSlip)
			r.Delete("/{id}", h.DeleteSlip)
			r.Post("/{id}/adjustments/{adjID}/detach", h.DetachSlipAdjustment)
		})

		// Adjustment routes
		r.Route("/adjustments", func(r chi.Router) {
			r.Get("/student", h.ListStudentAdjustments)
			r.Put("/student/{id}", h.UpdateStudentAdjustment)
			r.Delete("/student/{id}", h.DeleteStudentAdjustment)
			r.Get("/payroll", h.ListPayrollAdjustments)
			r.Post("/payroll", h.QueuePayrollAdjustment)
			r.Put("/payroll/{id}", h.UpdatePayrollAdjustment)
			r.Delete("/payroll/{id}", h.DeletePayrollAdjustment)
		})

		// Ledger routes
		r.Get("/ledger", h.ListLedger)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Landing page with an endpoint index, until a frontend exists.
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Billing Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Billing &amp; Payroll Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/students">/api/students</a> - List students</li>
<li><a href="/api/staff">/api/staff</a> - List staff</li>
<li><a href="/api/invoices">/api/invoices</a> - List invoices</li>
<li><a href="/api/slips">/api/slips</a> - List salary slips</li>
<li><a href="/api/ledger">/api/ledger</a> - Transaction ledger</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
