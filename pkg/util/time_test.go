package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, ok := ParseTime("2024-03-15")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 15 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	if got := ParseTimeDefault("", def); !got.Equal(def) {
		t.Fatalf("expected default")
	}
	if got := ParseTimeDefault("yesterday", def); !got.Equal(def) {
		t.Fatalf("expected default for garbage input")
	}
}

func TestSessionAt(t *testing.T) {
	ny := time.FixedZone("NY", -4*60*60)
	cases := []struct {
		name string
		at   time.Time
		want Session
	}{
		{"open bell", time.Date(2024, 6, 12, 9, 30, 0, 0, ny), SessionRegular},
		{"midday", time.Date(2024, 6, 12, 12, 0, 0, 0, ny), SessionRegular},
		{"pre-market", time.Date(2024, 6, 12, 9, 29, 0, 0, ny), SessionAfterHours},
		{"close bell", time.Date(2024, 6, 12, 16, 0, 0, 0, ny), SessionAfterHours},
		{"saturday", time.Date(2024, 6, 15, 12, 0, 0, 0, ny), SessionWeekend},
		{"sunday night", time.Date(2024, 6, 16, 23, 0, 0, 0, ny), SessionWeekend},
		// 14:00 UTC is 10:00 in NY
		{"utc input", time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC), SessionRegular},
	}
	for _, tc := range cases {
		if got := SessionAt(tc.at, ny); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	got := SplitCSV(" a, ,b ,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected %v", got)
	}
	if SplitCSV("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("42", 7); got != 42 {
		t.Fatalf("got %d", got)
	}
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("expected default for empty, got %d", got)
	}
	if got := ParseIntDefault("4x", 7); got != 7 {
		t.Fatalf("expected default for garbage, got %d", got)
	}
}
