package settlement

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Riyadh")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestWindow(t *testing.T) {
	loc := mustLoc(t)

	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{
			name:      "mid-week wednesday",
			now:       time.Date(2026, 8, 26, 15, 30, 0, 0, loc),
			wantStart: time.Date(2026, 8, 22, 0, 0, 0, 0, loc),
		},
		{
			name:      "saturday itself starts a new window",
			now:       time.Date(2026, 8, 22, 0, 0, 0, 0, loc),
			wantStart: time.Date(2026, 8, 22, 0, 0, 0, 0, loc),
		},
		{
			name:      "friday belongs to the window opened previous saturday",
			now:       time.Date(2026, 8, 28, 23, 59, 59, 0, loc),
			wantStart: time.Date(2026, 8, 22, 0, 0, 0, 0, loc),
		},
		{
			name:      "instant in another zone resolves to the same window",
			now:       time.Date(2026, 8, 26, 23, 30, 0, 0, time.UTC),
			wantStart: time.Date(2026, 8, 22, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Window(tt.now, loc)
			if !start.Equal(tt.wantStart) {
				t.Fatalf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantStart.AddDate(0, 0, 7)) {
				t.Fatalf("end = %v, want %v", end, tt.wantStart.AddDate(0, 0, 7))
			}
		})
	}
}

func TestWindow_DeterministicWithinWeek(t *testing.T) {
	loc := mustLoc(t)

	first, _ := Window(time.Date(2026, 8, 22, 1, 0, 0, 0, loc), loc)
	last, _ := Window(time.Date(2026, 8, 28, 23, 0, 0, 0, loc), loc)

	if !first.Equal(last) {
		t.Fatalf("window start must not depend on when it is computed: %v vs %v", first, last)
	}
}

func TestPeriodKey(t *testing.T) {
	loc := mustLoc(t)
	start, _ := Window(time.Date(2026, 8, 26, 12, 0, 0, 0, loc), loc)

	year, week := PeriodKey(start)
	wantYear, wantWeek := start.ISOWeek()
	if year != wantYear || week != wantWeek {
		t.Fatalf("PeriodKey = (%d, %d), want (%d, %d)", year, week, wantYear, wantWeek)
	}
}
