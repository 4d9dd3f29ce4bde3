package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLen       = 120
	maxDescriptionLen = 1000
)

// TaskInput carries user-editable task fields for create and update calls.
type TaskInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueDate     *Date        `json:"dueDate"`
}

// Normalize trims whitespace, collapses a blank description to no value and
// applies the todo status default.
func (in TaskInput) Normalize() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if in.DueDate != nil && in.DueDate.IsZero() {
		in.DueDate = nil
	}
	return in
}

// Validate checks field constraints. Call it on normalized input.
func (in TaskInput) Validate() error {
	if in.Title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLen {
		return &ValidationError{Field: "title", Message: "must be at most 120 characters"}
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Message: "must be at most 1000 characters"}
	}
	if !ValidPriority(in.Priority) {
		return &ValidationError{Field: "priority", Message: "must be low, medium or high"}
	}
	if !ValidStatus(in.Status) {
		return &ValidationError{Field: "status", Message: "must be todo, in_progress or done"}
	}
	return nil
}
