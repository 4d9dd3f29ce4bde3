package board

import (
	"strings"
	"time"

	"dayboard/domain"
)

// View derivations are pure functions over a snapshot. They never mutate
// their input and are safe to recompute on every render.

// FilterByQuery returns the tasks whose title or description contains the
// query, case-insensitively. A blank query returns the input unchanged.
func FilterByQuery(tasks []domain.Task, query string) []domain.Task {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return tasks
	}

	out := []domain.Task{}
	for _, t := range tasks {
		haystack := strings.ToLower(t.Title + " " + t.Description)
		if strings.Contains(haystack, q) {
			out = append(out, t)
		}
	}
	return out
}

// DueToday returns the tasks due on the same calendar day as now, compared in
// now's location.
func DueToday(tasks []domain.Task, now time.Time) []domain.Task {
	return DueOn(tasks, domain.DateOf(now))
}

// DueOn returns the tasks whose due date equals the given calendar date.
func DueOn(tasks []domain.Task, date domain.Date) []domain.Task {
	out := []domain.Task{}
	for _, t := range tasks {
		if t.DueDate != nil && t.DueDate.Equal(date) {
			out = append(out, t)
		}
	}
	return out
}

// ResolveDropStatus resolves a drag-and-drop target to the status to assign.
// A column id resolves to that status; a task id resolves to that task's
// current status. Unrecognized targets resolve to nothing and the caller must
// not mutate anything.
func ResolveDropStatus(tasks []domain.Task, overID string) (domain.TaskStatus, bool) {
	if overID == "" {
		return "", false
	}
	if s := domain.TaskStatus(overID); domain.ValidStatus(s) {
		return s, true
	}
	for _, t := range tasks {
		if t.ID == overID {
			return t.DisplayStatus(), true
		}
	}
	return "", false
}

// StatusBuckets groups tasks into the three board columns, preserving order.
// Tasks with no stored status land in the todo column.
func StatusBuckets(tasks []domain.Task) map[domain.TaskStatus][]domain.Task {
	buckets := map[domain.TaskStatus][]domain.Task{
		domain.StatusTodo:       {},
		domain.StatusInProgress: {},
		domain.StatusDone:       {},
	}
	for _, t := range tasks {
		s := t.DisplayStatus()
		buckets[s] = append(buckets[s], t)
	}
	return buckets
}
