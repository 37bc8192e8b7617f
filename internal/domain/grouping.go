package domain

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Tab selects which records participate in grouping.
// It is the explicit form of the popup's currently selected filter.
type Tab string

const (
	TabAll       Tab = "all"
	TabPending   Tab = "pending"
	TabContacted Tab = "contacted"
)

// ParseTab maps a query value to a Tab. Empty means TabAll.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case "", TabAll:
		return TabAll, nil
	case TabPending, TabContacted:
		return Tab(s), nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// Includes reports whether r belongs to the tab.
func (t Tab) Includes(r *StoreRecord) bool {
	if t == TabAll || t == "" {
		return true
	}
	return string(r.Status) == string(t)
}

// BucketKind classifies a record's urgency relative to now.
// The declaration order is the display priority.
type BucketKind int

const (
	BucketOverdue BucketKind = iota
	BucketToday
	BucketTomorrow
	BucketSoon
	BucketDated
	BucketUnscheduled
)

// soonHorizon is the last day offset rendered as "in N days".
const soonHorizon = 7

var bucketKindNames = [...]string{
	BucketOverdue:     "overdue",
	BucketToday:       "today",
	BucketTomorrow:    "tomorrow",
	BucketSoon:        "soon",
	BucketDated:       "dated",
	BucketUnscheduled: "unscheduled",
}

func (k BucketKind) String() string {
	if k < 0 || int(k) >= len(bucketKindNames) {
		return fmt.Sprintf("BucketKind(%d)", int(k))
	}
	return bucketKindNames[k]
}

// MarshalText renders the kind name in JSON output.
func (k BucketKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Bucket identifies one display group.
//
// Days is the whole-day distance from today: days overdue for BucketOverdue,
// days ahead for BucketSoon and BucketDated, zero otherwise. Kind and Days
// together are unique per calendar date, so Bucket is usable as a map key.
type Bucket struct {
	Kind BucketKind
	Days int
}

// Less orders buckets most urgent first:
// overdue (most overdue first), today, tomorrow, soon, dated, unscheduled.
func (b Bucket) Less(o Bucket) bool {
	return compareBuckets(b, o) < 0
}

func compareBuckets(a, b Bucket) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if a.Kind == BucketOverdue {
		return cmp.Compare(b.Days, a.Days)
	}
	return cmp.Compare(a.Days, b.Days)
}

// BucketFor classifies r against now. Calendar dates are compared in now's location.
func BucketFor(r *StoreRecord, now time.Time) Bucket {
	at, ok := r.FollowUpAt(now.Location())
	if !ok {
		return Bucket{Kind: BucketUnscheduled}
	}

	diff := DaysBetween(now, at)
	switch {
	case diff < 0:
		return Bucket{Kind: BucketOverdue, Days: -diff}
	case diff == 0:
		return Bucket{Kind: BucketToday}
	case diff == 1:
		return Bucket{Kind: BucketTomorrow}
	case diff <= soonHorizon:
		return Bucket{Kind: BucketSoon, Days: diff}
	default:
		return Bucket{Kind: BucketDated, Days: diff}
	}
}

// DaysBetween returns the number of calendar days from now's date to t's date,
// both taken in now's location. Time of day is ignored.
func DaysBetween(now, t time.Time) int {
	loc := now.Location()
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.In(loc).Date()
	// UTC midnights keep every day exactly 24h long across DST shifts.
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// Label renders the bucket heading. now supplies the current date and year.
func (b Bucket) Label(now time.Time) string {
	switch b.Kind {
	case BucketOverdue:
		if b.Days == 1 {
			return "Overdue since yesterday"
		}
		return fmt.Sprintf("Overdue by %d days", b.Days)
	case BucketToday:
		return "Today"
	case BucketTomorrow:
		return "Tomorrow"
	case BucketSoon:
		return fmt.Sprintf("In %d days", b.Days)
	case BucketDated:
		date := b.Date(now)
		if date.Year() != now.Year() {
			return date.Format("Jan 2, 2006")
		}
		return date.Format("Mon Jan 2")
	default:
		return "Unscheduled"
	}
}

// Date returns the calendar date of the bucket at midnight in now's location.
// The zero time is returned for unscheduled buckets.
func (b Bucket) Date(now time.Time) time.Time {
	var offset int
	switch b.Kind {
	case BucketOverdue:
		offset = -b.Days
	case BucketToday:
		offset = 0
	case BucketTomorrow:
		offset = 1
	case BucketSoon, BucketDated:
		offset = b.Days
	default:
		return time.Time{}
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, now.Location())
}

// Group is one ordered display bucket.
type Group struct {
	Kind    BucketKind     `json:"kind"`
	Days    int            `json:"days,omitempty"`
	Date    string         `json:"date,omitempty"`
	Label   string         `json:"label"`
	Records []*StoreRecord `json:"records"`
}

// GroupRecords groups the records of tab into priority-ordered buckets.
//
// The result depends only on its arguments: buckets follow Bucket.Less and
// records inside a bucket are ordered by follow-up time, then creation time,
// then id. The input slice is not modified.
func GroupRecords(records []*StoreRecord, now time.Time, tab Tab) []Group {
	loc := now.Location()
	byBucket := make(map[Bucket][]*StoreRecord)
	for _, r := range records {
		if r == nil || !tab.Includes(r) {
			continue
		}
		b := BucketFor(r, now)
		byBucket[b] = append(byBucket[b], r)
	}

	buckets := make([]Bucket, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	slices.SortFunc(buckets, compareBuckets)

	groups := make([]Group, 0, len(buckets))
	for _, b := range buckets {
		members := byBucket[b]
		slices.SortFunc(members, func(x, y *StoreRecord) int {
			return compareWithinBucket(x, y, loc)
		})

		g := Group{
			Kind:    b.Kind,
			Label:   b.Label(now),
			Records: members,
		}
		if b.Kind == BucketOverdue || b.Kind == BucketSoon || b.Kind == BucketDated {
			g.Days = b.Days
		}
		if b.Kind != BucketUnscheduled {
			g.Date = b.Date(now).Format(time.DateOnly)
		}
		groups = append(groups, g)
	}

	return groups
}

// compareWithinBucket sorts by follow-up time, falling back to createdAt
// when a record has none, then by createdAt, then by id.
func compareWithinBucket(x, y *StoreRecord, loc *time.Location) int {
	if c := sortTime(x, loc).Compare(sortTime(y, loc)); c != 0 {
		return c
	}
	if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(x.ID, y.ID)
}

func sortTime(r *StoreRecord, loc *time.Location) time.Time {
	if at, ok := r.FollowUpAt(loc); ok {
		return at
	}
	return r.CreatedAt
}
