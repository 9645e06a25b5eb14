package clock

import (
	"testing"
	"time"
)

func TestParseHHMM(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 900, false},
		{"09:30", 930, false},
		{"19:05", 1905, false},
		{"23:59", 2359, false},
		{"24:00", 0, true},
		{"9:00", 0, true},
		{"0900", 0, true},
		{"", 0, true},
		{"aa:bb", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHHMM(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHHMM(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseHHMM(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithinDailyWindow(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 14, h, m, 0, 0, time.UTC)
	}

	tests := []struct {
		name       string
		now        time.Time
		start, end int
		want       bool
	}{
		{"inside", at(10, 0), 900, 1900, true},
		{"at start boundary", at(9, 0), 900, 1900, true},
		{"at end boundary", at(19, 0), 900, 1900, true},
		{"minute before start", at(8, 59), 900, 1900, false},
		{"minute after end", at(19, 1), 900, 1900, false},
		{"evening outside", at(20, 30), 900, 1900, false},
		{"single-minute window hit", at(12, 30), 1230, 1230, true},
		{"single-minute window miss", at(12, 31), 1230, 1230, false},
		{"midnight-crossing fails closed even inside", at(23, 0), 2200, 200, false},
		{"midnight-crossing fails closed after midnight", at(1, 0), 2200, 200, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinDailyWindow(tt.now, tt.start, tt.end); got != tt.want {
				t.Errorf("WithinDailyWindow(%s, %d, %d) = %v, want %v",
					tt.now.Format("15:04"), tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want string
	}{
		{"plain", time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), 1, "2026-03-15"},
		{"month rollover", time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC), 1, "2026-02-01"},
		{"year rollover", time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC), 1, "2026-01-01"},
		{"leap february", time.Date(2028, 2, 28, 0, 0, 0, 0, time.UTC), 1, "2028-02-29"},
		{"backwards", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), -1, "2026-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddDays(tt.in, tt.n).Format("2006-01-02")
			if got != tt.want {
				t.Errorf("AddDays(%s, %d) = %s, want %s", tt.in.Format("2006-01-02"), tt.n, got, tt.want)
			}
		})
	}
}

func TestSameCalendarDay(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 23:30 UTC on the 14th is already the 15th in Warsaw.
	lateUTC := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	nextMorning := time.Date(2026, 3, 15, 8, 0, 0, 0, warsaw)

	if !SameCalendarDay(lateUTC, nextMorning, warsaw) {
		t.Error("expected same Warsaw calendar day")
	}
	if SameCalendarDay(lateUTC, nextMorning, time.UTC) {
		t.Error("expected different UTC calendar days")
	}
}

func TestDateString(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	in := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	if got := DateString(in, warsaw); got != "2026-03-15" {
		t.Errorf("DateString = %s, want 2026-03-15", got)
	}
}

func TestFixedClock(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	if got := Fixed(now).Now(); !got.Equal(now) {
		t.Errorf("Fixed.Now() = %v, want %v", got, now)
	}
}
