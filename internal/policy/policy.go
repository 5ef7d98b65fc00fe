// Package policy decides when a log file is due for rotation.
package policy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant held by a Threshold.
type Kind int

const (
	// KindInvalid never triggers rotation.
	KindInvalid Kind = iota
	// KindSize rotates once the file is larger than Bytes.
	KindSize
	// KindAge rotates once the file is older than Days whole days.
	KindAge
)

const (
	KiB int64 = 1024
	MiB       = 1024 * KiB
	GiB       = 1024 * MiB
)

var (
	sizePattern = regexp.MustCompile(`^(\d+)([GMK])$`)
	agePattern  = regexp.MustCompile(`^(\d+)$`)
)

// Threshold is a parsed rotation threshold. The zero value is invalid.
type Threshold struct {
	Kind  Kind
	Bytes int64
	Days  int
}

// FileStat is what NeedsRotation looks at.
type FileStat struct {
	Size    int64
	Created time.Time
}

// Size returns a size threshold.
func Size(bytes int64) Threshold {
	return Threshold{Kind: KindSize, Bytes: bytes}
}

// AgeDays returns an age threshold.
func AgeDays(days int) Threshold {
	return Threshold{Kind: KindAge, Days: days}
}

// Parse reads "<n>G", "<n>M", "<n>K" (base-1024 sizes) or a bare "<n>" (days).
// Anything else, including zero or overflowing values, yields an invalid
// threshold, which disables rotation instead of failing the call.
func Parse(spec string) Threshold {
	spec = strings.TrimSpace(spec)

	if m := sizePattern.FindStringSubmatch(spec); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n <= 0 {
			return Threshold{}
		}
		unit := map[string]int64{"K": KiB, "M": MiB, "G": GiB}[m[2]]
		if n > (1<<63-1)/unit {
			return Threshold{}
		}
		return Size(n * unit)
	}

	if m := agePattern.FindStringSubmatch(spec); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return Threshold{}
		}
		return AgeDays(n)
	}

	return Threshold{}
}

// Valid reports whether the threshold can ever trigger rotation.
func (t Threshold) Valid() bool {
	return t.Kind != KindInvalid
}

// NeedsRotation compares f against the threshold; both comparisons are
// strictly greater-than. Age is measured from creation, in whole days.
func (t Threshold) NeedsRotation(f FileStat, now time.Time) bool {
	switch t.Kind {
	case KindSize:
		return f.Size > t.Bytes
	case KindAge:
		if f.Created.IsZero() {
			return false
		}
		days := int(now.Sub(f.Created) / (24 * time.Hour))
		return days > t.Days
	default:
		return false
	}
}

// String renders the threshold in the grammar Parse accepts.
func (t Threshold) String() string {
	switch t.Kind {
	case KindSize:
		switch {
		case t.Bytes%GiB == 0:
			return fmt.Sprintf("%dG", t.Bytes/GiB)
		case t.Bytes%MiB == 0:
			return fmt.Sprintf("%dM", t.Bytes/MiB)
		default:
			return fmt.Sprintf("%dK", t.Bytes/KiB)
		}
	case KindAge:
		return strconv.Itoa(t.Days)
	default:
		return "invalid"
	}
}
