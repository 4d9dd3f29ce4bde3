package domain

import "time"

// TaskStatus is the board column a task lives in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// ValidStatus reports whether s is one of the three board columns.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// TaskPriority is an optional task weight.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ValidPriority reports whether p is a known priority. The empty value means
// "no priority" and is valid.
func ValidPriority(p TaskPriority) bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single board item owned by one user.
type Task struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"ownerId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	Status      TaskStatus   `json:"status,omitempty"`
	DueDate     *Date        `json:"dueDate,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// DisplayStatus returns the task status, defaulting to todo when the stored
// value is absent.
func (t Task) DisplayStatus() TaskStatus {
	if t.Status == "" {
		return StatusTodo
	}
	return t.Status
}
