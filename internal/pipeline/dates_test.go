package pipeline

import (
	"reflect"
	"testing"
	"time"
)

func TestDateKey(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want int
	}{
		{
			name: "utc timestamp",
			in:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
			want: 20260115,
		},
		{
			name: "offset timestamp same utc day",
			in:   time.Date(2026, 1, 15, 23, 30, 0, 0, time.FixedZone("EAT", 3*3600)),
			want: 20260115,
		},
		{
			name: "offset timestamp crosses utc midnight",
			in:   time.Date(2026, 1, 15, 1, 30, 0, 0, time.FixedZone("EAT", 3*3600)),
			want: 20260114,
		},
		{
			name: "end of century",
			in:   time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
			want: 19991231,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateKey(tt.in); got != tt.want {
				t.Errorf("DateKey(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateFromKeyRoundTrip(t *testing.T) {
	for _, key := range []int{20200101, 20240229, 20260115, 20301231} {
		d := DateFromKey(key)
		if got := DateKey(d); got != key {
			t.Errorf("DateKey(DateFromKey(%d)) = %d", key, got)
		}
	}
}

func TestBuildDateDim(t *testing.T) {
	start := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 18, 0, 0, 0, 0, time.UTC)

	dims, err := BuildDateDim(start, end)
	if err != nil {
		t.Fatalf("BuildDateDim returned error: %v", err)
	}
	if len(dims) != 7 {
		t.Fatalf("expected 7 rows for one week, got %d", len(dims))
	}

	// Monday the 12th through Sunday the 18th.
	first := dims[0]
	if first.DateKey != 20260112 || first.DayName != "Monday" || first.DayOfWeek != 1 {
		t.Errorf("unexpected first row: %+v", first)
	}

	thursday := dims[3]
	if thursday.DateKey != 20260115 {
		t.Fatalf("expected 20260115 at index 3, got %d", thursday.DateKey)
	}
	if thursday.DayName != "Thursday" || thursday.DayOfWeek != 4 {
		t.Errorf("unexpected weekday attributes: %+v", thursday)
	}
	if thursday.WeekOfYear != 3 || thursday.MonthNum != 1 || thursday.MonthName != "January" {
		t.Errorf("unexpected calendar attributes: %+v", thursday)
	}
	if thursday.Quarter != 1 || thursday.Year != 2026 {
		t.Errorf("unexpected quarter/year: %+v", thursday)
	}
	if thursday.IsWeekend {
		t.Error("Thursday flagged as weekend")
	}

	saturday, sunday := dims[5], dims[6]
	if saturday.DayOfWeek != 6 || !saturday.IsWeekend {
		t.Errorf("Saturday not flagged as weekend: %+v", saturday)
	}
	if sunday.DayOfWeek != 0 || !sunday.IsWeekend {
		t.Errorf("Sunday not flagged as weekend: %+v", sunday)
	}
}

func TestBuildDateDimGapless(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	dims, err := BuildDateDim(start, end)
	if err != nil {
		t.Fatalf("BuildDateDim returned error: %v", err)
	}
	// 29 leap-February days plus March 1st.
	if len(dims) != 30 {
		t.Fatalf("expected 30 rows, got %d", len(dims))
	}
	for i := 1; i < len(dims); i++ {
		if !dims[i].FullDate.Equal(dims[i-1].FullDate.AddDate(0, 0, 1)) {
			t.Fatalf("gap between %v and %v", dims[i-1].FullDate, dims[i].FullDate)
		}
		if dims[i].DateKey <= dims[i-1].DateKey {
			t.Fatalf("date keys not strictly ascending at index %d", i)
		}
	}
	if dims[28].DateKey != 20240229 {
		t.Errorf("expected leap day 20240229, got %d", dims[28].DateKey)
	}
}

func TestBuildDateDimQuarters(t *testing.T) {
	tests := []struct {
		month time.Month
		want  int
	}{
		{time.January, 1},
		{time.March, 1},
		{time.April, 2},
		{time.June, 2},
		{time.July, 3},
		{time.October, 4},
		{time.December, 4},
	}
	for _, tt := range tests {
		day := time.Date(2026, tt.month, 10, 0, 0, 0, 0, time.UTC)
		dims, err := BuildDateDim(day, day)
		if err != nil {
			t.Fatalf("BuildDateDim returned error: %v", err)
		}
		if len(dims) != 1 {
			t.Fatalf("expected single row, got %d", len(dims))
		}
		if dims[0].Quarter != tt.want {
			t.Errorf("quarter for %s = %d, want %d", tt.month, dims[0].Quarter, tt.want)
		}
	}
}

func TestBuildDateDimInvertedRange(t *testing.T) {
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := BuildDateDim(start, end); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestBuildDateDimDeterministic(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	first, err := BuildDateDim(start, end)
	if err != nil {
		t.Fatalf("BuildDateDim returned error: %v", err)
	}
	second, err := BuildDateDim(start, end)
	if err != nil {
		t.Fatalf("BuildDateDim returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two builds over the same range differ")
	}
}
