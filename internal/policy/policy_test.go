package policy

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec     string
		expected Threshold
	}{
		{"10M", Size(10 * 1024 * 1024)},
		{"1K", Size(1024)},
		{"2G", Size(2 * 1024 * 1024 * 1024)},
		{" 5M ", Size(5 * MiB)},
		{"7", AgeDays(7)},
		{"30", AgeDays(30)},
		{"abc", Threshold{}},
		{"xyz", Threshold{}},
		{"", Threshold{}},
		{"10m", Threshold{}},
		{"10MB", Threshold{}},
		{"M", Threshold{}},
		{"-5", Threshold{}},
		{"0", Threshold{}},
		{"0M", Threshold{}},
		{"1.5M", Threshold{}},
		{"99999999999999999999G", Threshold{}},
		{"9999999999G", Threshold{}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got := Parse(tt.spec)
			if got != tt.expected {
				t.Errorf("Parse(%q) = %+v, expected %+v", tt.spec, got, tt.expected)
			}
			// Parse is pure
			if again := Parse(tt.spec); again != got {
				t.Errorf("Parse(%q) not deterministic: %+v vs %+v", tt.spec, got, again)
			}
		})
	}
}

func TestSizeBoundary(t *testing.T) {
	th := Parse("10M")
	now := time.Now()

	if th.NeedsRotation(FileStat{Size: 10 * MiB}, now) {
		t.Error("file of exactly the threshold size should not rotate")
	}
	if !th.NeedsRotation(FileStat{Size: 10*MiB + 1}, now) {
		t.Error("file one byte over the threshold should rotate")
	}
	if !th.NeedsRotation(FileStat{Size: 11 * MiB}, now) {
		t.Error("11 MB file should rotate at 10M")
	}
}

func TestAgeBoundary(t *testing.T) {
	th := Parse("7")
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		created  time.Time
		expected bool
	}{
		{"fresh", now.Add(-time.Hour), false},
		{"exactly seven days", now.Add(-7 * 24 * time.Hour), false},
		{"seven and a half days", now.Add(-(7*24 + 12) * time.Hour), false},
		{"eight days", now.Add(-8 * 24 * time.Hour), true},
		{"unknown creation time", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.NeedsRotation(FileStat{Created: tt.created}, now)
			if got != tt.expected {
				t.Errorf("NeedsRotation = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestInvalidNeverRotates(t *testing.T) {
	th := Parse("xyz")
	if th.Valid() {
		t.Fatal("xyz should parse as invalid")
	}

	now := time.Now()
	stats := []FileStat{
		{Size: 0},
		{Size: 1 << 40},
		{Created: now.Add(-10000 * 24 * time.Hour)},
		{Size: 1 << 40, Created: now.Add(-10000 * 24 * time.Hour)},
	}
	for _, st := range stats {
		if th.NeedsRotation(st, now) {
			t.Errorf("invalid threshold rotated for %+v", st)
		}
	}
}

func TestString(t *testing.T) {
	for _, spec := range []string{"10M", "1K", "3G", "1536K", "7"} {
		if got := Parse(spec).String(); got != spec {
			t.Errorf("Parse(%q).String() = %q", spec, got)
		}
	}
	if got := Parse("bad").String(); got != "invalid" {
		t.Errorf("invalid String() = %q", got)
	}
}
