package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"dayboard/domain"
)

type fakeSubscription struct {
	events chan domain.ChangeEvent
	closed bool
}

func (s *fakeSubscription) Events() <-chan domain.ChangeEvent { return s.events }
func (s *fakeSubscription) Close()                            { s.closed = true }

type fakeFeedSource struct {
	sub *fakeSubscription
	err error
}

func (f *fakeFeedSource) Subscribe(ctx context.Context, ownerID string) (Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

func streamContext(t *testing.T, ctx context.Context) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer token")
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sseFrames(body string) []string {
	var frames []string
	for _, part := range strings.Split(body, "\n\n") {
		if strings.HasPrefix(part, "data: ") {
			frames = append(frames, strings.TrimPrefix(part, "data: "))
		}
	}
	return frames
}

func TestStreamTasksEmitsSnapshotPerEvent(t *testing.T) {
	store := &mockStore{tasks: []domain.Task{{ID: "t1", Title: "Plan week"}}}
	sub := &fakeSubscription{events: make(chan domain.ChangeEvent, 1)}
	sub.events <- domain.ChangeEvent{
		Kind: domain.ChangeInserted,
		Task: domain.Task{ID: "t2", Title: "Review board"},
	}
	close(sub.events)
	feeds := &fakeFeedSource{sub: sub}
	c, rec := streamContext(t, nil)

	if err := streamTasks(store, feeds, mockAuth{}, log.New())(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	frames := sseFrames(rec.Body.String())
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %q", len(frames), rec.Body.String())
	}
	if strings.Contains(frames[0], "t2") {
		t.Fatalf("initial snapshot must predate the event: %s", frames[0])
	}
	if !strings.Contains(frames[1], "t2") || !strings.Contains(frames[1], "t1") {
		t.Fatalf("merged snapshot missing tasks: %s", frames[1])
	}
	if !sub.closed {
		t.Fatal("subscription must be closed when the stream ends")
	}
}

func TestStreamTasksUnauthorized(t *testing.T) {
	c, rec := streamContext(t, nil)
	feeds := &fakeFeedSource{sub: &fakeSubscription{events: make(chan domain.ChangeEvent)}}

	if err := streamTasks(&mockStore{}, feeds, mockAuth{err: errors.New("bad token")}, log.New())(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestStreamTasksQueryTokenAuth(t *testing.T) {
	store := &mockStore{}
	sub := &fakeSubscription{events: make(chan domain.ChangeEvent)}
	close(sub.events)
	feeds := &fakeFeedSource{sub: sub}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/stream?token=query-token", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	auth := &recordingAuth{}
	if err := streamTasks(store, feeds, auth, log.New())(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if auth.header != "Bearer query-token" {
		t.Fatalf("query token not lifted into auth header: %q", auth.header)
	}
}

type recordingAuth struct {
	header string
}

func (a *recordingAuth) UserIDFromAuthHeader(header string) (string, error) {
	a.header = header
	return "owner", nil
}

func TestStreamTasksInitialLoadFailure(t *testing.T) {
	store := &mockStore{err: errors.New("connection refused")}
	feeds := &fakeFeedSource{sub: &fakeSubscription{events: make(chan domain.ChangeEvent)}}
	c, rec := streamContext(t, nil)

	if err := streamTasks(store, feeds, mockAuth{}, log.New())(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestStreamTasksSurvivesFeedFailure(t *testing.T) {
	store := &mockStore{tasks: []domain.Task{{ID: "t1", Title: "Plan week"}}}
	feeds := &fakeFeedSource{err: domain.ErrSubscriptionFailed}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, rec := streamContext(t, ctx)

	if err := streamTasks(store, feeds, mockAuth{}, log.New())(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	frames := sseFrames(rec.Body.String())
	if len(frames) != 1 || !strings.Contains(frames[0], "t1") {
		t.Fatalf("expected the initial snapshot despite feed failure, got %q", rec.Body.String())
	}
}
