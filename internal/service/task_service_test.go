package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	dom "taskapi/internal/domain"
	"taskapi/internal/repo"
)

func newTestService(c ListCache) *TaskService {
	return NewTaskService(repo.NewMemTaskRepo(), c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func strPtr(s string) *string { return &s }

// fakeCache mirrors TaskCache: a fill carrying an old generation is dropped.
type fakeCache struct {
	list        []dom.Task
	hit         bool
	gen         int64
	gets        int
	sets        int
	invalidates int
}

func (f *fakeCache) GetList(ctx context.Context) ([]dom.Task, bool, error) {
	f.gets++
	return f.list, f.hit, nil
}

func (f *fakeCache) Generation(ctx context.Context) (int64, error) {
	return f.gen, nil
}

func (f *fakeCache) SetList(ctx context.Context, gen int64, list []dom.Task) error {
	if gen != f.gen {
		return nil
	}
	f.sets++
	f.list = list
	f.hit = true
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context) error {
	f.invalidates++
	f.gen++
	f.list = nil
	f.hit = false
	return nil
}

func TestCreate_AssignsIDAndDefaultsPending(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()

	created, err := s.Create(ctx, strPtr("buy milk"))
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.Title == nil || *created.Title != "buy milk" {
		t.Fatalf("created=%+v", created)
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Done {
		t.Fatalf("new task should not be done")
	}
}

func TestCreate_NoTitle(t *testing.T) {
	s := newTestService(nil)

	created, err := s.Create(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if created.Title != nil {
		t.Fatalf("title=%q, want nil", *created.Title)
	}
}

func TestMarkDone_RoundTripAndIdempotence(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()
	task, _ := s.Create(ctx, strPtr("walk dog"))

	if err := s.MarkDone(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.UnmarkDone(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, task.ID); got.Done {
		t.Fatalf("mark then unmark should restore pending")
	}

	if err := s.MarkDone(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkDone(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, task.ID)
	if !got.Done {
		t.Fatalf("mark-done twice should leave done=true")
	}

	if err := s.UnmarkDone(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.UnmarkDone(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(ctx, task.ID)
	if got.Done {
		t.Fatalf("unmark-done twice should leave done=false")
	}
}

func TestUpdate_ReplacesTitleKeepsDone(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()
	task, _ := s.Create(ctx, strPtr("draft"))
	_ = s.MarkDone(ctx, task.ID)

	updated, err := s.Update(ctx, task.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != nil {
		t.Fatalf("title should be cleared")
	}
	got, _ := s.Get(ctx, task.ID)
	if !got.Done {
		t.Fatalf("update must not touch done")
	}
}

func TestMissingID_IsNotFound(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()

	if _, err := s.Update(ctx, 9999, strPtr("x")); !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("update err=%v", err)
	}
	if err := s.Delete(ctx, 9999); !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("delete err=%v", err)
	}
	if err := s.MarkDone(ctx, 9999); !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("mark err=%v", err)
	}
	if err := s.UnmarkDone(ctx, 9999); !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("unmark err=%v", err)
	}
}

func TestInvalidID_IsValidation(t *testing.T) {
	s := newTestService(nil)

	if _, err := s.Get(context.Background(), 0); !errors.Is(err, dom.ErrValidation) {
		t.Fatalf("err=%v", err)
	}
	if err := s.Delete(context.Background(), -1); !errors.Is(err, dom.ErrValidation) {
		t.Fatalf("err=%v", err)
	}
}

func TestDelete_RemovesFromList(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()
	a, _ := s.Create(ctx, strPtr("a"))
	b, _ := s.Create(ctx, strPtr("b"))

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("list=%+v", list)
	}
	if err := s.Delete(ctx, a.ID); !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("second delete err=%v", err)
	}
}

func TestList_ReturnsEveryCreatedTask(t *testing.T) {
	s := newTestService(nil)
	ctx := context.Background()
	titles := []*string{strPtr("one"), nil, strPtr("three"), strPtr("")}
	for _, title := range titles {
		if _, err := s.Create(ctx, title); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(titles) {
		t.Fatalf("len=%d want %d", len(list), len(titles))
	}
	for i, task := range list {
		want := titles[i]
		if (want == nil) != (task.Title == nil) || (want != nil && *want != *task.Title) {
			t.Fatalf("list[%d].Title=%v want %v", i, task.Title, want)
		}
		if task.Done {
			t.Fatalf("list[%d] should be pending", i)
		}
	}
}

func TestList_UsesCacheAndInvalidatesOnWrite(t *testing.T) {
	c := &fakeCache{}
	s := newTestService(c)
	ctx := context.Background()

	task, _ := s.Create(ctx, strPtr("cached"))
	if c.invalidates != 1 {
		t.Fatalf("create should invalidate, got %d", c.invalidates)
	}

	if _, err := s.List(ctx); err != nil {
		t.Fatal(err)
	}
	if c.sets != 1 {
		t.Fatalf("miss should fill cache, sets=%d", c.sets)
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c.sets != 1 || len(list) != 1 {
		t.Fatalf("hit should not refill, sets=%d len=%d", c.sets, len(list))
	}

	if err := s.MarkDone(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	list, _ = s.List(ctx)
	if !list[0].Done {
		t.Fatalf("list served stale snapshot after write")
	}
}

// slowListRepo runs afterRead once the store snapshot is taken, before List returns.
type slowListRepo struct {
	*repo.MemTaskRepo
	afterRead func()
}

func (r *slowListRepo) List(ctx context.Context) ([]dom.Task, error) {
	list, err := r.MemTaskRepo.List(ctx)
	if r.afterRead != nil {
		hook := r.afterRead
		r.afterRead = nil
		hook()
	}
	return list, err
}

func TestList_WriteDuringFillDoesNotCacheStaleSnapshot(t *testing.T) {
	c := &fakeCache{}
	r := &slowListRepo{MemTaskRepo: repo.NewMemTaskRepo()}
	s := NewTaskService(r, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	task, _ := s.Create(ctx, strPtr("walk dog"))
	r.afterRead = func() {
		if err := s.MarkDone(ctx, task.ID); err != nil {
			t.Errorf("mark done: %v", err)
		}
	}

	if _, err := s.List(ctx); err != nil {
		t.Fatal(err)
	}
	if c.hit {
		t.Fatalf("snapshot read before the write was cached")
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !list[0].Done {
		t.Fatalf("list=%+v, want the committed mark-done", list)
	}
}

func TestList_SharedFillSurvivesCanceledCaller(t *testing.T) {
	s := newTestService(&fakeCache{})
	_, _ = s.Create(context.Background(), strPtr("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len=%d", len(list))
	}
}
