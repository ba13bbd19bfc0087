package repo

import (
	"context"

	dom "taskapi/internal/domain"
)

// TaskRepo is the persistence contract for tasks.
// Lookups of a missing id return an error wrapping dom.ErrNotFound;
// store failures wrap dom.ErrStoreUnavailable.
type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	GetByID(ctx context.Context, id int64) (dom.Task, error)
	List(ctx context.Context) ([]dom.Task, error)
	UpdateTitle(ctx context.Context, id int64, title *string) (dom.Task, error)
	SetDone(ctx context.Context, id int64, done bool) (dom.Task, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

const taskColumns = `id, title, done`

// PGTaskRepo implements TaskRepo with Postgres, one Session per call.
type PGTaskRepo struct {
	gw *Gateway
}

func NewPGTaskRepo(gw *Gateway) *PGTaskRepo {
	return &PGTaskRepo{gw: gw}
}

// Create inserts t, commits, then reloads the row so store-assigned fields are populated.
func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	s, err := r.gw.Acquire(ctx)
	if err != nil {
		return dom.Task{}, err
	}
	defer s.Release()

	if err := s.Begin(ctx); err != nil {
		return dom.Task{}, err
	}
	var id int64
	err = s.Q().QueryRow(ctx,
		`INSERT INTO tasks (title, done) VALUES ($1, $2) RETURNING id`,
		t.Title, t.Done,
	).Scan(&id)
	if err != nil {
		return dom.Task{}, classify("insert task", err)
	}
	if err := s.Commit(ctx); err != nil {
		return dom.Task{}, err
	}

	out, err := getByID(ctx, s.Q(), id)
	if err != nil {
		return dom.Task{}, classify("reload task", err)
	}
	return out, nil
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id int64) (dom.Task, error) {
	s, err := r.gw.Acquire(ctx)
	if err != nil {
		return dom.Task{}, err
	}
	defer s.Release()

	t, err := getByID(ctx, s.Q(), id)
	if err != nil {
		return dom.Task{}, classify("get task", err)
	}
	return t, nil
}

func (r *PGTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	s, err := r.gw.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Release()

	rows, err := s.Q().Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, classify("list tasks", err)
	}
	defer rows.Close()
	list := make([]dom.Task, 0)
	for rows.Next() {
		var t dom.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Done); err != nil {
			return nil, classify("scan task", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list tasks", err)
	}
	return list, nil
}

// UpdateTitle replaces the title wholesale; done is left as stored.
func (r *PGTaskRepo) UpdateTitle(ctx context.Context, id int64, title *string) (dom.Task, error) {
	return r.mutate(ctx, "update task", id, func(t *dom.Task) { t.Title = title })
}

func (r *PGTaskRepo) SetDone(ctx context.Context, id int64, done bool) (dom.Task, error) {
	return r.mutate(ctx, "set task done", id, func(t *dom.Task) { t.Done = done })
}

func (r *PGTaskRepo) Delete(ctx context.Context, id int64) error {
	s, err := r.gw.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.Release()

	if err := s.Begin(ctx); err != nil {
		return err
	}
	var deleted int64
	if err := s.Q().QueryRow(ctx, `DELETE FROM tasks WHERE id = $1 RETURNING id`, id).Scan(&deleted); err != nil {
		return classify("delete task", err)
	}
	return s.Commit(ctx)
}

func (r *PGTaskRepo) Ping(ctx context.Context) error {
	return r.gw.Ping(ctx)
}

// mutate locks the row, applies fn and writes the mutable fields back in one transaction.
func (r *PGTaskRepo) mutate(ctx context.Context, op string, id int64, fn func(*dom.Task)) (dom.Task, error) {
	s, err := r.gw.Acquire(ctx)
	if err != nil {
		return dom.Task{}, err
	}
	defer s.Release()

	if err := s.Begin(ctx); err != nil {
		return dom.Task{}, err
	}
	var t dom.Task
	err = s.Q().QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id,
	).Scan(&t.ID, &t.Title, &t.Done)
	if err != nil {
		return dom.Task{}, classify(op, err)
	}

	fn(&t)

	if _, err := s.Q().Exec(ctx, `UPDATE tasks SET title = $2, done = $3 WHERE id = $1`, t.ID, t.Title, t.Done); err != nil {
		return dom.Task{}, classify(op, err)
	}
	if err := s.Commit(ctx); err != nil {
		return dom.Task{}, err
	}
	return t, nil
}

func getByID(ctx context.Context, q Querier, id int64) (dom.Task, error) {
	var t dom.Task
	err := q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id).
		Scan(&t.ID, &t.Title, &t.Done)
	return t, err
}

var _ TaskRepo = (*PGTaskRepo)(nil)
