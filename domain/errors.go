package domain

import "errors"

var (
	// ErrNotAuthenticated means no valid session identity was presented.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStoreUnavailable means a fetch or mutation against the task store failed.
	ErrStoreUnavailable = errors.New("task store unavailable")
	// ErrTaskNotFound means no task with the given id exists for the caller.
	ErrTaskNotFound = errors.New("task not found")
	// ErrExternalService means the insights service failed or returned garbage.
	ErrExternalService = errors.New("external service failure")
	// ErrSubscriptionFailed means the live feed could not be established. The
	// caller degrades to fetch-only mode; this is never surfaced to the user.
	ErrSubscriptionFailed = errors.New("feed subscription failed")
)

// ValidationError reports a field constraint violation. Inputs failing
// validation are surfaced inline and never sent to the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
