package pricing

import (
	"sort"
	"time"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// SlotMinutes is the atomic selection granularity.  Every token,
// candidate and booking spans a positive multiple of this.
const SlotMinutes = 30

// SlotToken is one selectable half-hour for one resource.  Tokens are
// ephemeral user-selection state scoped to a single calendar date held
// by the caller; they are never persisted.
type SlotToken struct {
	ResourceID  uint64
	Category    model.ResourceCategory
	StartMinute int // minutes since midnight, 30-minute aligned
}

// BookingCandidate is a maximal contiguous run of selected tokens for
// one resource: the unit that gets priced and, on confirmation,
// becomes a booking.  DurationMin is always a positive multiple of 30.
type BookingCandidate struct {
	ResourceID  uint64
	Category    model.ResourceCategory
	Date        time.Time
	StartMinute int
	DurationMin int
}

// EndMinute returns the minute-since-midnight at which the candidate ends.
func (c BookingCandidate) EndMinute() int { return c.StartMinute + c.DurationMin }

// Hours returns the candidate length in hours.
func (c BookingCandidate) Hours() float64 { return float64(c.DurationMin) / 60.0 }

// StartTime combines the date and start minute into a UTC instant.
func (c BookingCandidate) StartTime() time.Time {
	return c.Date.Add(time.Duration(c.StartMinute) * time.Minute)
}

// Aggregate merges raw slot selections into booking candidates.  Tokens
// are partitioned by resource, sorted by start minute and scanned left
// to right: a run extends while the next token starts exactly 30
// minutes after the previous one; any gap closes the current candidate
// and opens a new one.  Gap detection is strict equality on
// "previous + 30", so non-contiguous tokens for the same resource
// produce several shorter candidates rather than an error.  Duplicate
// tokens are dropped.  An empty selection yields an empty list.
func Aggregate(date time.Time, tokens []SlotToken) []BookingCandidate {
	byResource := make(map[uint64][]SlotToken)
	order := make([]uint64, 0)
	for _, t := range tokens {
		if _, seen := byResource[t.ResourceID]; !seen {
			order = append(order, t.ResourceID)
		}
		byResource[t.ResourceID] = append(byResource[t.ResourceID], t)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]BookingCandidate, 0, len(order))
	for _, rid := range order {
		part := byResource[rid]
		sort.Slice(part, func(i, j int) bool { return part[i].StartMinute < part[j].StartMinute })

		var cur *BookingCandidate
		prev := -1
		for _, t := range part {
			if t.StartMinute == prev {
				continue // duplicate token
			}
			if cur != nil && t.StartMinute == prev+SlotMinutes {
				cur.DurationMin += SlotMinutes
			} else {
				if cur != nil {
					out = append(out, *cur)
				}
				cur = &BookingCandidate{
					ResourceID:  rid,
					Category:    t.Category,
					Date:        date,
					StartMinute: t.StartMinute,
					DurationMin: SlotMinutes,
				}
			}
			prev = t.StartMinute
		}
		if cur != nil {
			out = append(out, *cur)
		}
	}
	return out
}
