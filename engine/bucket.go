package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/reportcube/recordset"
)

// ============================================================================
// TIME BUCKETER — date value → bucket key
// ============================================================================
//   daily    "2026-01-15"
//   weekly   "Week 3"     week of the month: ceil(day/7), resets every month
//   monthly  "Jan 2026"
//   yearly   "2026"
// Unparseable dates land in "Unknown".
// ============================================================================

// Granularity selects the bucket width.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// UnknownBucket holds records whose date could not be parsed.
const UnknownBucket = "Unknown"

// ErrUnknownGranularity is returned by ParseGranularity.
var ErrUnknownGranularity = errors.New("unknown granularity")

// ParseGranularity converts configuration input into a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "yearly", "year", "annual":
		return Yearly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	switch g {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (g Granularity) mustValid() {
	if !g.Valid() {
		panic(fmt.Sprintf("engine: invalid granularity %q", string(g)))
	}
}

// BucketKey maps a date value to its bucket key.
// The weekly index is a within-month week number, not an ISO week, so
// "Week 1" of January and "Week 1" of February share a bucket.
func BucketKey(v any, g Granularity) string {
	g.mustValid()
	t, ok := recordset.ParseTime(v)
	if !ok {
		return UnknownBucket
	}
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		return fmt.Sprintf("Week %d", (t.Day()+6)/7)
	case Monthly:
		return t.Format("Jan 2006")
	default:
		return fmt.Sprintf("%04d", t.Year())
	}
}

// bucketOrder converts a bucket key back into a sortable number.
func bucketOrder(key string, g Granularity) (int64, bool) {
	switch g {
	case Daily:
		t, err := time.Parse("2006-01-02", key)
		if err != nil {
			return 0, false
		}
		return t.Unix(), true
	case Weekly:
		n, err := strconv.Atoi(strings.TrimPrefix(key, "Week "))
		if err != nil || !strings.HasPrefix(key, "Week ") {
			return 0, false
		}
		return int64(n), true
	case Monthly:
		t, err := time.Parse("Jan 2006", key)
		if err != nil {
			return 0, false
		}
		return int64(t.Year()*100 + int(t.Month())), true
	case Yearly:
		n, err := strconv.Atoi(key)
		if err != nil {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

// CompareBuckets orders bucket keys chronologically. Keys that are not
// valid buckets of g (including "Unknown") sort first.
func CompareBuckets(a, b string, g Granularity) int {
	oa, okA := bucketOrder(a, g)
	ob, okB := bucketOrder(b, g)
	switch {
	case !okA && !okB:
		return strings.Compare(a, b)
	case !okA:
		return -1
	case !okB:
		return 1
	case oa < ob:
		return -1
	case oa > ob:
		return 1
	}
	return 0
}

// TimeBucketer buckets the records of a RecordSet by one date field.
type TimeBucketer struct {
	Field       string
	Granularity Granularity
}

// Key returns the bucket of the i-th record.
func (b TimeBucketer) Key(rs *recordset.RecordSet, i int) string {
	return BucketKey(rs.Value(i, b.Field), b.Granularity)
}

// Less orders two bucket keys chronologically.
func (b TimeBucketer) Less(x, y string) bool {
	return CompareBuckets(x, y, b.Granularity) < 0
}
