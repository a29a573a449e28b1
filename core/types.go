/*
Package core provides the shared types of the billing and payroll engine.

PURPOSE:
  This package contains the domain model and storage interfaces that the
  billing and payroll packages compute over: money, billing periods,
  directory records (students, staff, courses, enrollments, attendance),
  adjustments, invoices, salary slips, and the transaction ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount backed by decimal.Decimal
  - Typed IDs: StudentID, StaffID, InvoiceID, ... prevent mixing identifiers
  - EntityKind: discriminates student vs staff records where both share a
    collection (attendance)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents cross-domain mixups
  3. Derived values (AmountDue, NetSalary) are always recomputed, never
     edited independently

SEE ALSO:
  - period.go: Billing period (calendar month) math
  - adjustment.go: Adjustment state machine
  - store.go: Repository interfaces
*/
package core

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount
// =============================================================================

// Money is a currency amount. The system is single-currency; Money carries
// only the value.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func MoneyFromInt(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

func ZeroMoney() Money {
	return Money{Value: decimal.Zero}
}

// ParseMoney parses a decimal string ("150.00").
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney(), &ValidationError{Field: "amount", Reason: "not a decimal number"}
	}
	return Money{Value: d}, nil
}

// MustParseMoney parses a decimal string, returning zero on failure.
// Intended for seed data and stored values that were written by this system.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money          { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money          { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s)} }
func (m Money) MulInt(n int) Money         { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) Div(s decimal.Decimal) Money { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                 { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool           { return m.Value.IsNegative() }
func (m Money) IsZero() bool               { return m.Value.IsZero() }
func (m Money) IsPositive() bool           { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool         { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool   { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool      { return m.Value.LessThan(o.Value) }

// ClampZero returns zero when the amount is negative, otherwise the amount.
func (m Money) ClampZero() Money {
	if m.IsNegative() {
		return ZeroMoney()
	}
	return m
}

func (m Money) String() string { return m.Value.StringFixed(2) }

// Float64 returns an approximate float value for API serialization.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	StudentID    string
	StaffID      string
	CourseID     string
	EnrollmentID string
	InvoiceID    string
	SlipID       string
	AdjustmentID string
	EntryID      string
)

// NewID returns a fresh unique identifier for generated records.
func NewID() string {
	return uuid.NewString()
}

// EntityKind discriminates the owner of records shared between the student
// and staff domains (attendance, ledger entries).
type EntityKind string

const (
	KindStudent EntityKind = "student"
	KindStaff   EntityKind = "staff"
)

// FormatInvoiceNumber renders a sequence value as the human-readable invoice
// number shown on printed documents.
func FormatInvoiceNumber(seq int) string {
	return fmt.Sprintf("INV-%04d", seq)
}
