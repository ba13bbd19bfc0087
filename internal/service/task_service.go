package service

import (
	"context"
	"fmt"
	"log/slog"

	dom "taskapi/internal/domain"
	"taskapi/internal/repo"

	"golang.org/x/sync/singleflight"
)

// ListCache is the snapshot cache consulted by List.
// SetList must drop the fill when Invalidate ran after gen was read.
type ListCache interface {
	GetList(ctx context.Context) ([]dom.Task, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetList(ctx context.Context, gen int64, list []dom.Task) error
	Invalidate(ctx context.Context) error
}

type TaskService struct {
	repo  repo.TaskRepo
	cache ListCache
	log   *slog.Logger
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c ListCache, log *slog.Logger) *TaskService {
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{repo: r, cache: c, log: log}
}

// Create stores a new pending task. The id comes from the store.
func (s *TaskService) Create(ctx context.Context, title *string) (dom.Task, error) {
	t, err := s.repo.Create(ctx, dom.NewTask(title))
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (dom.Task, error) {
	if err := validateID(id); err != nil {
		return dom.Task{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// List returns every task ordered by id.
func (s *TaskService) List(ctx context.Context) ([]dom.Task, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}
	// The flight is shared by every waiting caller, so it must outlive the first one.
	v, err, _ := s.sf.Do("list", func() (interface{}, error) {
		list, err := s.loadList(context.WithoutCancel(ctx))
		return list, err
	})
	if err != nil {
		return nil, err
	}
	// shared result; hand each caller its own slice
	shared := v.([]dom.Task)
	out := make([]dom.Task, len(shared))
	copy(out, shared)
	return out, nil
}

func (s *TaskService) loadList(ctx context.Context) ([]dom.Task, error) {
	list, hit, err := s.cache.GetList(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "task cache read failed", slog.Any("err", err))
	}
	if hit {
		return list, nil
	}

	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		s.log.WarnContext(ctx, "task cache generation read failed", slog.Any("err", genErr))
	}
	list, err = s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if err := s.cache.SetList(ctx, gen, list); err != nil {
			s.log.WarnContext(ctx, "task cache write failed", slog.Any("err", err))
		}
	}
	return list, nil
}

// Update replaces the title wholesale; done is untouched.
func (s *TaskService) Update(ctx context.Context, id int64, title *string) (dom.Task, error) {
	if err := validateID(id); err != nil {
		return dom.Task{}, err
	}
	t, err := s.repo.UpdateTitle(ctx, id, title)
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// MarkDone moves a task to completed. Marking a completed task again is a no-op.
func (s *TaskService) MarkDone(ctx context.Context, id int64) error {
	return s.setDone(ctx, id, true)
}

// UnmarkDone moves a task back to pending. Unmarking a pending task is a no-op.
func (s *TaskService) UnmarkDone(ctx context.Context, id int64) error {
	return s.setDone(ctx, id, false)
}

// Ping reports whether the backing store is reachable.
func (s *TaskService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *TaskService) setDone(ctx context.Context, id int64, done bool) error {
	if err := validateID(id); err != nil {
		return err
	}
	if _, err := s.repo.SetDone(ctx, id, done); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WarnContext(ctx, "task cache invalidate failed", slog.Any("err", err))
	}
}

func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("id must be positive, got %d: %w", id, dom.ErrValidation)
	}
	return nil
}
