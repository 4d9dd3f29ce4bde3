package api

import "dayboard/domain"

const taskBodyMaxSize = 64 * 1024 // 64 KiB

type tasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusChangeRequest moves a task to another board column. Either the status
// itself or a drag-and-drop target (a column id or another task's id) must be
// provided.
type statusChangeRequest struct {
	Status domain.TaskStatus `json:"status,omitempty"`
	Target string            `json:"target,omitempty"`
}

type insightsResponse struct {
	Summary string `json:"summary"`
}
