package core

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day (UTC, day granularity)
// =============================================================================

// Date is a calendar day. All engine dates are day-granular and UTC;
// normalizing here keeps comparisons free of time-of-day noise.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return DateOf(t), nil
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }
func (d Date) IsZero() bool       { return d.t.IsZero() }

func (d Date) AddDays(n int) Date   { return DateOf(d.t.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.t.AddDate(0, n, 0)) }

func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// StartOfNextMonth returns the first day of the month after d.
// Used when postponing an adjustment to the next payroll run.
func (d Date) StartOfNextMonth() Date {
	return NewDate(d.Year(), d.Month(), 1).AddMonths(1)
}

// =============================================================================
// PERIOD - Calendar month (YYYY-MM) scoping billing and payroll runs
// =============================================================================

// Period identifies a billing month. Invoices and salary slips are scoped to
// exactly one period; tuition is billed at most once per (student, period)
// and at most one slip exists per (staff, period).
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a YYYY-MM period identifier.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, &ValidationError{Field: "period", Reason: "must be YYYY-MM"}
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func PeriodOf(d Date) Period {
	return Period{Year: d.Year(), Month: d.Month()}
}

func (p Period) IsZero() bool { return p.Year == 0 }

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label renders the period for line-item descriptions, e.g. "May 2024".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.Month.String(), p.Year)
}

func (p Period) Start() Date {
	return NewDate(p.Year, p.Month, 1)
}

func (p Period) End() Date {
	return p.Start().AddMonths(1).AddDays(-1)
}

func (p Period) Contains(d Date) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

// DaysInMonth returns the number of calendar days in the period. The payroll
// per-day rate divides base salary by this value.
func (p Period) DaysInMonth() int {
	return p.End().Day()
}

func (p Period) Next() Period {
	return PeriodOf(p.Start().AddMonths(1))
}

func (p Period) Previous() Period {
	return PeriodOf(p.Start().AddMonths(-1))
}
