// Package taskview computes the user-facing view of a task list: search
// and status filtering plus the aggregate counts shown on filter badges.
// Everything here is a pure function of its inputs.
package taskview

import (
	"strings"
	"time"

	"github.com/taskdeck/backend/domain"
)

// Filter selects which tasks stay visible after the search pass.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
	FilterOverdue   Filter = "overdue"
)

// Valid reports whether f is one of the known filters. The empty filter
// is treated as FilterAll by Apply.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterCompleted, FilterPending, FilterOverdue, "":
		return true
	}
	return false
}

// Stats holds the aggregate counts over an unfiltered task list.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// Apply returns the tasks matching the query and filter, preserving the
// input order. The query matches case-insensitively against title and
// description; an empty query matches everything.
func Apply(tasks []domain.Task, query string, filter Filter, now time.Time) []domain.Task {
	if now.IsZero() {
		now = time.Now()
	}
	// the query is matched verbatim, whitespace included
	query = strings.ToLower(query)

	result := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchesQuery(&t, query) {
			continue
		}
		if !matchesFilter(&t, filter, now) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// Summarize counts the full list regardless of any active filter, so
// badge counts always reflect the whole cache.
func Summarize(tasks []domain.Task, now time.Time) Stats {
	if now.IsZero() {
		now = time.Now()
	}
	stats := Stats{Total: len(tasks)}
	for i := range tasks {
		t := &tasks[i]
		if t.Completed {
			stats.Completed++
			continue
		}
		stats.Pending++
		if t.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats
}

func matchesQuery(t *domain.Task, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), query)
}

func matchesFilter(t *domain.Task, filter Filter, now time.Time) bool {
	switch filter {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	case FilterOverdue:
		return t.IsOverdue(now)
	default:
		return true
	}
}
