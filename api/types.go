package api

import (
	"context"

	"dayboard/domain"
)

// Storage abstracts owner-scoped task persistence for handlers.
type Storage interface {
	FetchTasks(ctx context.Context, ownerID string) ([]domain.Task, error)
	FetchTasksDueOn(ctx context.Context, ownerID string, due domain.Date) ([]domain.Task, error)
	InsertTask(ctx context.Context, ownerID string, in domain.TaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, in domain.TaskInput) (domain.Task, error)
	UpdateTaskStatus(ctx context.Context, ownerID, id string, status domain.TaskStatus) (domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) (domain.Task, error)
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Subscription is one live, exclusively-owned change feed subscription.
type Subscription interface {
	Events() <-chan domain.ChangeEvent
	Close()
}

// FeedSource opens per-owner change feed subscriptions.
type FeedSource interface {
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)
}

// Summarizer produces the weekly productivity summary.
type Summarizer interface {
	WeeklySummary(ctx context.Context, tasks []domain.Task) (string, error)
}
