// Package board keeps an in-memory task collection consistent with the remote
// store under concurrent local edits, push-feed events and full refetches.
package board

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"dayboard/domain"
)

// Store is the slice of the task store the reconciler needs.
type Store interface {
	FetchTasks(ctx context.Context, ownerID string) ([]domain.Task, error)
	UpdateTaskStatus(ctx context.Context, ownerID, id string, status domain.TaskStatus) (domain.Task, error)
}

// Reconciler owns the authoritative in-memory task collection for one active
// session. It merges full fetches, push-feed events and local optimistic
// edits into a single ordered view, newest first. Merge rules favor
// idempotence over synchronization: duplicate inserts are absorbed by
// identity check and updates to unknown rows are dropped, so applying the
// same event twice is indistinguishable from applying it once.
//
// The collection never holds two entries with the same id.
type Reconciler struct {
	store   Store
	ownerID string
	logger  *log.Logger

	mu      sync.Mutex
	tasks   []domain.Task
	loading bool
	err     error
}

// NewReconciler creates a reconciler for the given owner. The collection
// starts empty; call Load to seed it.
func NewReconciler(store Store, ownerID string, logger *log.Logger) *Reconciler {
	if store == nil {
		panic("board.NewReconciler: store is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Reconciler{store: store, ownerID: ownerID, logger: logger}
}

// Load fetches the full current task set and replaces the collection. On
// failure the previous collection stays intact and the error state is
// recorded. A Load resolving after a local optimistic edit overwrites that
// edit with the fetched data; the feed self-corrects within one round trip.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	r.loading = true
	r.err = nil
	r.mu.Unlock()

	tasks, err := r.store.FetchTasks(ctx, r.ownerID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	if err != nil {
		r.err = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		return r.err
	}
	r.tasks = tasks
	return nil
}

// ApplyRemoteEvent merges one push-feed event into the collection.
func (r *Reconciler) ApplyRemoteEvent(ev domain.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case domain.ChangeInserted:
		// An insert that already reconciled locally arrives again via the
		// feed echo; absorb it.
		if r.indexOf(ev.Task.ID) >= 0 {
			return
		}
		r.tasks = append([]domain.Task{ev.Task}, r.tasks...)
	case domain.ChangeUpdated:
		if i := r.indexOf(ev.Task.ID); i >= 0 {
			r.tasks[i] = ev.Task
		}
	case domain.ChangeDeleted:
		if i := r.indexOf(ev.Task.ID); i >= 0 {
			r.tasks = append(r.tasks[:i:i], r.tasks[i+1:]...)
		}
	default:
		r.logger.Warnf("reconciler: unknown change kind %q", ev.Kind)
	}
}

// SetStatusOptimistic patches the entry's status in place before remote
// confirmation, then issues the remote update. On remote failure the whole
// collection reverts to its pre-mutation snapshot and the error is surfaced.
// The optimistic value is not durable until this call returns nil.
func (r *Reconciler) SetStatusOptimistic(ctx context.Context, id string, status domain.TaskStatus) error {
	r.mu.Lock()
	prev := copyTasks(r.tasks)
	if i := r.indexOf(id); i >= 0 {
		r.tasks[i].Status = status
	}
	r.mu.Unlock()

	if _, err := r.store.UpdateTaskStatus(ctx, r.ownerID, id, status); err != nil {
		r.mu.Lock()
		r.tasks = prev
		r.err = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		r.mu.Unlock()
		return r.err
	}
	return nil
}

// Run consumes feed events until the channel closes or ctx is done.
func (r *Reconciler) Run(ctx context.Context, events <-chan domain.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.ApplyRemoteEvent(ev)
		}
	}
}

// Snapshot returns a copy of the current ordered collection. Mutation happens
// only through Load, ApplyRemoteEvent and SetStatusOptimistic.
func (r *Reconciler) Snapshot() []domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyTasks(r.tasks)
}

// Loading reports whether a Load is in flight.
func (r *Reconciler) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Err returns the recorded error state, if any.
func (r *Reconciler) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// indexOf must be called with the mutex held.
func (r *Reconciler) indexOf(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func copyTasks(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	copy(out, tasks)
	return out
}
