package datetaken

import "time"

const displayLayout = "2006-01-02 15:04:05"

// ResolvedDate is a capture timestamp or the explicit absence marker. Day and
// time of day are kept even though placement only needs year and month.
type ResolvedDate struct {
	t  time.Time
	ok bool
}

// Absent returns the absence marker.
func Absent() ResolvedDate { return ResolvedDate{} }

// At wraps a resolved timestamp.
func At(t time.Time) ResolvedDate { return ResolvedDate{t: t, ok: true} }

func (d ResolvedDate) IsAbsent() bool { return !d.ok }

// Time returns the wall-clock capture time, or the zero time when absent.
func (d ResolvedDate) Time() time.Time { return d.t }

func (d ResolvedDate) Year() int { return d.t.Year() }

func (d ResolvedDate) Month() time.Month { return d.t.Month() }

func (d ResolvedDate) String() string {
	if !d.ok {
		return "absent"
	}
	return d.t.Format(displayLayout)
}
