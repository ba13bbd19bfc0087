package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	dom "taskapi/internal/domain"
)

// MemTaskRepo implements TaskRepo in process memory. Ids start at 1.
type MemTaskRepo struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]dom.Task
}

func NewMemTaskRepo() *MemTaskRepo {
	return &MemTaskRepo{nextID: 1, tasks: make(map[int64]dom.Task)}
}

func (r *MemTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	if err := ctx.Err(); err != nil {
		return dom.Task{}, fmt.Errorf("insert task: %w: %w", dom.ErrStoreUnavailable, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = r.nextID
	r.nextID++
	t.Title = cloneTitle(t.Title)
	r.tasks[t.ID] = t
	return copyTask(t), nil
}

func (r *MemTaskRepo) GetByID(ctx context.Context, id int64) (dom.Task, error) {
	if err := ctx.Err(); err != nil {
		return dom.Task{}, fmt.Errorf("get task: %w: %w", dom.ErrStoreUnavailable, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, fmt.Errorf("get task: %w", dom.ErrNotFound)
	}
	return copyTask(t), nil
}

func (r *MemTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w: %w", dom.ErrStoreUnavailable, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]dom.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, copyTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemTaskRepo) UpdateTitle(ctx context.Context, id int64, title *string) (dom.Task, error) {
	return r.mutate(ctx, "update task", id, func(t *dom.Task) { t.Title = cloneTitle(title) })
}

func (r *MemTaskRepo) SetDone(ctx context.Context, id int64, done bool) (dom.Task, error) {
	return r.mutate(ctx, "set task done", id, func(t *dom.Task) { t.Done = done })
}

func (r *MemTaskRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete task: %w: %w", dom.ErrStoreUnavailable, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("delete task: %w", dom.ErrNotFound)
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemTaskRepo) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ping: %w: %w", dom.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *MemTaskRepo) mutate(ctx context.Context, op string, id int64, fn func(*dom.Task)) (dom.Task, error) {
	if err := ctx.Err(); err != nil {
		return dom.Task{}, fmt.Errorf("%s: %w: %w", op, dom.ErrStoreUnavailable, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, fmt.Errorf("%s: %w", op, dom.ErrNotFound)
	}
	fn(&t)
	r.tasks[id] = t
	return copyTask(t), nil
}

func copyTask(t dom.Task) dom.Task {
	t.Title = cloneTitle(t.Title)
	return t
}

func cloneTitle(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}

var (
	_ TaskRepo = (*MemTaskRepo)(nil)
	_ TaskRepo = (*PGTaskRepo)(nil)
)
