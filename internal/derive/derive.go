// Package derive computes the displayed task list and aggregate statistics
// from the authoritative store state. Everything here is a pure function of
// its inputs; nothing is cached or stored.
package derive

import (
	"math"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"taskflow/internal/model"
)

type FilterKey string

const (
	FilterAll       FilterKey = "all"
	FilterCompleted FilterKey = "completed"
	// Any other value is treated as a category id.
)

type SortKey string

const (
	SortTitle    SortKey = "title"
	SortPriority SortKey = "priority"
	SortDueDate  SortKey = "dueDate"
)

type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

type Query struct {
	Filter    FilterKey
	Sort      SortKey
	Direction Direction
}

// Apply filters and orders a copy of tasks according to the query. The
// input slices are never modified. Sorting is stable: tasks comparing
// equal on the sort key keep their prior relative order.
func Apply(tasks []model.Task, categories []model.Category, q Query) []model.Task {
	out := filter(tasks, categories, q.Filter)

	asc := q.Direction != Descending
	switch q.Sort {
	case SortTitle:
		coll := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			cmp := coll.CompareString(out[i].Title, out[j].Title)
			if asc {
				return cmp < 0
			}
			return cmp > 0
		})
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
			if asc {
				return ri < rj
			}
			return ri > rj
		})
	case SortDueDate:
		// Undated tasks always sort last; direction only flips the
		// relative order of dated tasks.
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := out[i].DueDate, out[j].DueDate
			if di == nil {
				return false
			}
			if dj == nil {
				return true
			}
			if asc {
				return di.Before(*dj)
			}
			return dj.Before(*di)
		})
	}
	return out
}

func filter(tasks []model.Task, categories []model.Category, key FilterKey) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	switch key {
	case FilterAll, FilterKey(""):
		out = append(out, tasks...)
	case FilterCompleted:
		for _, t := range tasks {
			if t.IsCompleted {
				out = append(out, t)
			}
		}
	default:
		// A filter key naming no existing category (deleted, or never
		// valid) degrades to an empty result rather than matching the
		// dangling references tasks may still carry.
		if !categoryExists(categories, string(key)) {
			return out
		}
		for _, t := range tasks {
			if t.CategoryID == string(key) {
				out = append(out, t)
			}
		}
	}
	return out
}

func categoryExists(categories []model.Category, id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

type Stats struct {
	Total             int
	Completed         int
	Pending           int
	CompletionPercent int
}

// ComputeStats aggregates counters over the unfiltered task list. The
// completion percent of an empty list is 0.
func ComputeStats(tasks []model.Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.IsCompleted {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionPercent = int(math.Round(100 * float64(s.Completed) / float64(s.Total)))
	}
	return s
}

// DueLabel formats a due date for display relative to now: "Today",
// "Tomorrow", or the calendar date.
func DueLabel(due, now time.Time) string {
	if sameDay(due, now) {
		return "Today"
	}
	if sameDay(due, now.AddDate(0, 0, 1)) {
		return "Tomorrow"
	}
	return due.Format("Jan 2, 2006")
}

// IsOverdue reports whether an incomplete task's due day has fully passed.
// The task stays on time until the end of its due day.
func IsOverdue(t model.Task, now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted {
		return false
	}
	endOfDay := time.Date(t.DueDate.Year(), t.DueDate.Month(), t.DueDate.Day(),
		23, 59, 59, int(time.Second-time.Nanosecond), t.DueDate.Location())
	return endOfDay.Before(now)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
