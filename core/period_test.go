package core

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"2024-05", Period{Year: 2024, Month: time.May}, false},
		{"2024-12", Period{Year: 2024, Month: time.December}, false},
		{"2024-13", Period{}, true},
		{"2024", Period{}, true},
		{"", Period{}, true},
		{"May 2024", Period{}, true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePeriod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPeriodBounds(t *testing.T) {
	p := Period{Year: 2024, Month: time.February} // leap year
	if got := p.Start().String(); got != "2024-02-01" {
		t.Errorf("Start = %s", got)
	}
	if got := p.End().String(); got != "2024-02-29" {
		t.Errorf("End = %s", got)
	}
	if got := p.DaysInMonth(); got != 29 {
		t.Errorf("DaysInMonth = %d", got)
	}
}

func TestPeriodNextPrevious(t *testing.T) {
	dec := Period{Year: 2024, Month: time.December}
	if got := dec.Next(); got != (Period{Year: 2025, Month: time.January}) {
		t.Errorf("Next across year = %v", got)
	}
	jan := Period{Year: 2024, Month: time.January}
	if got := jan.Previous(); got != (Period{Year: 2023, Month: time.December}) {
		t.Errorf("Previous across year = %v", got)
	}
}

func TestPeriodContains(t *testing.T) {
	p := Period{Year: 2024, Month: time.June}
	if !p.Contains(NewDate(2024, time.June, 30)) {
		t.Error("last day should be contained")
	}
	if p.Contains(NewDate(2024, time.July, 1)) {
		t.Error("first day of next month should not be contained")
	}
}

func TestPeriodLabel(t *testing.T) {
	p := Period{Year: 2024, Month: time.May}
	if got := p.Label(); got != "May 2024" {
		t.Errorf("Label = %q", got)
	}
	if got := p.String(); got != "2024-05" {
		t.Errorf("String = %q", got)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.June, 28)
	if got := d.AddDays(10).String(); got != "2024-07-08" {
		t.Errorf("AddDays = %s", got)
	}
	if got := d.StartOfNextMonth().String(); got != "2024-07-01" {
		t.Errorf("StartOfNextMonth = %s", got)
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2024-06-31"); err == nil {
		t.Error("invalid calendar day should fail")
	}
	d, err := ParseDate("2024-06-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.June || d.Day() != 15 {
		t.Errorf("parsed %v", d)
	}
}
