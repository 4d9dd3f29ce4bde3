package board

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"dayboard/domain"
)

func TestFilterByQueryBlankReturnsInputUnchanged(t *testing.T) {
	tasks := []domain.Task{task("t1", "Plan week"), task("t2", "Build UI")}
	for _, q := range []string{"", "   ", "\t"} {
		got := FilterByQuery(tasks, q)
		if !reflect.DeepEqual(got, tasks) {
			t.Fatalf("query %q: expected input unchanged, got %+v", q, got)
		}
	}
}

func TestFilterByQueryMatchesTitleAndDescription(t *testing.T) {
	tasks := []domain.Task{
		{ID: "t1", Title: "Plan week", Description: "Outline priorities"},
		{ID: "t2", Title: "Build UI"},
	}

	got := FilterByQuery(tasks, "outline")
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("expected only t1, got %+v", got)
	}

	got = FilterByQuery(tasks, "BUILD")
	if len(got) != 1 || got[0].ID != "t2" {
		t.Fatalf("case-insensitive title match failed, got %+v", got)
	}

	if got := FilterByQuery(tasks, "nothing-here"); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestFilterByQueryReturnsOrderedSubset(t *testing.T) {
	tasks := []domain.Task{
		{ID: "a", Title: "alpha report"},
		{ID: "b", Title: "beta"},
		{ID: "c", Title: "alpha review"},
	}
	got := FilterByQuery(tasks, "alpha")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("subset must preserve input order, got %+v", got)
	}
	for _, task := range got {
		if !strings.Contains(strings.ToLower(task.Title), "alpha") {
			t.Fatalf("non-matching member in result: %+v", task)
		}
	}
}

func TestResolveDropStatus(t *testing.T) {
	done := task("t2", "two")
	done.Status = domain.StatusDone
	tasks := []domain.Task{task("t1", "one"), done}

	if got, ok := ResolveDropStatus(tasks, "in_progress"); !ok || got != domain.StatusInProgress {
		t.Fatalf("column id must resolve to itself, got %q ok=%v", got, ok)
	}
	if got, ok := ResolveDropStatus(tasks, "t2"); !ok || got != domain.StatusDone {
		t.Fatalf("task id must resolve to its status, got %q ok=%v", got, ok)
	}
	if got, ok := ResolveDropStatus(tasks, "missing"); ok || got != "" {
		t.Fatalf("unknown target must not resolve, got %q ok=%v", got, ok)
	}
	if _, ok := ResolveDropStatus(tasks, ""); ok {
		t.Fatal("empty target must not resolve")
	}
}

func TestResolveDropStatusDefaultsAbsentStatus(t *testing.T) {
	tasks := []domain.Task{{ID: "t1", Title: "no status"}}
	if got, ok := ResolveDropStatus(tasks, "t1"); !ok || got != domain.StatusTodo {
		t.Fatalf("absent status displays as todo, got %q ok=%v", got, ok)
	}
}

func TestDueOnAndDueToday(t *testing.T) {
	today := domain.DateOf(time.Now())
	tomorrow := domain.DateOf(time.Now().AddDate(0, 0, 1))

	t1 := task("t1", "due today")
	t1.DueDate = &today
	t2 := task("t2", "due tomorrow")
	t2.DueDate = &tomorrow
	t3 := task("t3", "no due date")
	tasks := []domain.Task{t1, t2, t3}

	got := DueToday(tasks, time.Now())
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("expected only t1 due today, got %+v", got)
	}

	got = DueOn(tasks, tomorrow)
	if len(got) != 1 || got[0].ID != "t2" {
		t.Fatalf("expected only t2 due tomorrow, got %+v", got)
	}
}

func TestStatusBuckets(t *testing.T) {
	doing := task("t2", "two")
	doing.Status = domain.StatusInProgress
	bare := domain.Task{ID: "t3", Title: "no status"}
	tasks := []domain.Task{task("t1", "one"), doing, bare}

	buckets := StatusBuckets(tasks)
	if len(buckets[domain.StatusTodo]) != 2 {
		t.Fatalf("todo bucket should hold t1 and the statusless task, got %+v", buckets[domain.StatusTodo])
	}
	if len(buckets[domain.StatusInProgress]) != 1 || buckets[domain.StatusInProgress][0].ID != "t2" {
		t.Fatalf("unexpected in_progress bucket: %+v", buckets[domain.StatusInProgress])
	}
	if len(buckets[domain.StatusDone]) != 0 {
		t.Fatalf("done bucket should be empty, got %+v", buckets[domain.StatusDone])
	}
}
