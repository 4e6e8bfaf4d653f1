package types

import "testing"

func TestDateParsingPrecision(t *testing.T) {
	year, err := NewDate("2023")
	if err != nil {
		t.Fatal(err)
	}
	if year.Precision() != YearPrecision || year.Month() != 0 {
		t.Errorf("NewDate(2023) precision = %v, month = %d, want YearPrecision and 0", year.Precision(), year.Month())
	}

	full, err := NewDate("2023-06-15")
	if err != nil {
		t.Fatal(err)
	}
	if full.Precision() != DayPrecision {
		t.Errorf("NewDate(2023-06-15) precision = %v, want DayPrecision", full.Precision())
	}
	if full.Year() != 2023 || full.Month() != 6 || full.Day() != 15 {
		t.Errorf("NewDate(2023-06-15) = %v, want 2023-06-15", full)
	}
}

func TestDateEqualRequiresMatchingPrecision(t *testing.T) {
	// FHIRPath dates at different precisions are never considered equal -
	// 2023 and 2023-06 might represent different actual dates.
	year, _ := NewDate("2023")
	month, _ := NewDate("2023-06")
	if year.Equal(month) {
		t.Error("2023.Equal(2023-06) = true, want false (precision mismatch)")
	}
	if !year.Equal(year) {
		t.Error("a date should equal itself")
	}
}

func TestDateCompare(t *testing.T) {
	earlier, _ := NewDate("2020-01-01")
	later, _ := NewDate("2020-01-02")
	cmp, err := earlier.Compare(later)
	if err != nil {
		t.Fatal(err)
	}
	if cmp >= 0 {
		t.Errorf("2020-01-01.Compare(2020-01-02) = %d, want negative", cmp)
	}
}

func TestDateTimeParsingAndComponents(t *testing.T) {
	dt, err := NewDateTime("2023-06-15T10:30:45.250+02:00")
	if err != nil {
		t.Fatal(err)
	}
	if dt.Year() != 2023 || dt.Month() != 6 || dt.Day() != 15 {
		t.Errorf("date part = %d-%d-%d, want 2023-6-15", dt.Year(), dt.Month(), dt.Day())
	}
	if dt.Hour() != 10 || dt.Minute() != 30 || dt.Second() != 45 || dt.Millisecond() != 250 {
		t.Errorf("time part = %d:%d:%d.%d, want 10:30:45.250", dt.Hour(), dt.Minute(), dt.Second(), dt.Millisecond())
	}
}

func TestDateTimeAcceptsDateOnlyPrecision(t *testing.T) {
	// A bare date string is a valid (day-precision) DateTime literal too -
	// toDateTime() relies on this to promote a Date without reformatting.
	dt, err := NewDateTime("2020-03-01")
	if err != nil {
		t.Fatalf("NewDateTime(date-only) failed: %v", err)
	}
	if dt.Year() != 2020 || dt.Month() != 3 || dt.Day() != 1 {
		t.Errorf("NewDateTime(2020-03-01) = %v, want 2020-03-01", dt)
	}
}

func TestDateTimeCompare(t *testing.T) {
	earlier, err := NewDateTime("2023-01-01T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	later, err := NewDateTime("2023-01-01T00:00:01Z")
	if err != nil {
		t.Fatal(err)
	}
	cmp, err := earlier.Compare(later)
	if err != nil {
		t.Fatal(err)
	}
	if cmp >= 0 {
		t.Errorf("earlier.Compare(later) = %d, want negative", cmp)
	}
}

func TestTimeParsingAndComponents(t *testing.T) {
	tm, err := NewTime("14:30:00.100")
	if err != nil {
		t.Fatal(err)
	}
	if tm.Hour() != 14 || tm.Minute() != 30 || tm.Second() != 0 || tm.Millisecond() != 100 {
		t.Errorf("NewTime(14:30:00.100) = %v, want 14:30:00.100", tm)
	}
}

func TestTimeCompare(t *testing.T) {
	earlier, err := NewTime("08:00:00")
	if err != nil {
		t.Fatal(err)
	}
	later, err := NewTime("09:00:00")
	if err != nil {
		t.Fatal(err)
	}
	cmp, err := earlier.Compare(later)
	if err != nil {
		t.Fatal(err)
	}
	if cmp >= 0 {
		t.Errorf("08:00.Compare(09:00) = %d, want negative", cmp)
	}
}

func TestDateAddDuration(t *testing.T) {
	d, err := NewDate("2023-01-01")
	if err != nil {
		t.Fatal(err)
	}
	got := d.AddDuration(1, "month")
	if got.Month() != 2 {
		t.Errorf("2023-01-01 + 1 month = %v, want month 2", got)
	}
}
