package repo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	dom "taskapi/internal/domain"
	"taskapi/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
)

func newPGRepo(t *testing.T) *PGTaskRepo {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set (integration test)")
	}
	if err := migrations.Up(dsn); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE tasks RESTART IDENTITY`); err != nil {
		t.Fatal(err)
	}
	return NewPGTaskRepo(NewGateway(pool))
}

func TestPGTaskRepo_CreateReloadsAssignedID(t *testing.T) {
	r := newPGRepo(t)
	ctx := context.Background()

	title := "buy milk"
	created, err := r.Create(ctx, dom.NewTask(&title))
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 {
		t.Fatalf("expected store-assigned id")
	}
	if created.Title == nil || *created.Title != "buy milk" || created.Done {
		t.Fatalf("created=%+v", created)
	}

	untitled, err := r.Create(ctx, dom.NewTask(nil))
	if err != nil {
		t.Fatal(err)
	}
	if untitled.Title != nil {
		t.Fatalf("expected NULL title, got %q", *untitled.Title)
	}
}

func TestPGTaskRepo_Lifecycle(t *testing.T) {
	r := newPGRepo(t)
	ctx := context.Background()

	task, err := r.Create(ctx, dom.NewTask(nil))
	if err != nil {
		t.Fatal(err)
	}

	title := "renamed"
	updated, err := r.UpdateTitle(ctx, task.ID, &title)
	if err != nil {
		t.Fatal(err)
	}
	if *updated.Title != "renamed" || updated.Done {
		t.Fatalf("updated=%+v", updated)
	}

	for i := 0; i < 2; i++ {
		done, err := r.SetDone(ctx, task.ID, true)
		if err != nil {
			t.Fatal(err)
		}
		if !done.Done {
			t.Fatalf("expected done after mark %d", i+1)
		}
	}
	if got, _ := r.GetByID(ctx, task.ID); *got.Title != "renamed" {
		t.Fatalf("title lost on toggle: %+v", got)
	}

	if err := r.Delete(ctx, task.ID); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(ctx, task.ID); !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("second delete err=%v", err)
	}
	list, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("list=%+v", list)
	}
}

func TestPGTaskRepo_MissingID(t *testing.T) {
	r := newPGRepo(t)
	ctx := context.Background()

	if _, err := r.UpdateTitle(ctx, 9999, nil); !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("update err=%v", err)
	}
	if _, err := r.SetDone(ctx, 9999, false); !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("set done err=%v", err)
	}
	if _, err := r.GetByID(ctx, 9999); !errors.Is(err, dom.ErrNotFound) {
		t.Fatalf("get err=%v", err)
	}
}
