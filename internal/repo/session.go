package repo

import (
	"context"
	"errors"
	"fmt"

	dom "taskapi/internal/domain"
	"taskapi/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the statement surface shared by a pooled connection and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Gateway hands out one Session per unit of work.
type Gateway struct {
	pool *pgxpool.Pool
}

// NewGateway returns a Gateway over pool.
func NewGateway(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool}
}

// Acquire takes a connection from the pool. The caller must Release the session.
func (g *Gateway) Acquire(ctx context.Context) (*Session, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, classify("acquire session", err)
	}
	return &Session{conn: conn}, nil
}

// Ping checks that the store answers.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.pool.Ping(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// Session is a single connection with at most one open transaction.
// It is not safe for concurrent use.
type Session struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
}

// Begin opens a transaction; statements run inside it until Commit or Release.
func (s *Session) Begin(ctx context.Context) error {
	if s.tx != nil {
		return errors.New("session: transaction already open")
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return classify("begin", err)
	}
	s.tx = tx
	return nil
}

// Commit makes the open transaction durable. A failed commit leaves the store unchanged.
func (s *Session) Commit(ctx context.Context) error {
	if s.tx == nil {
		return errors.New("session: no open transaction")
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return classify("commit", err)
	}
	return nil
}

// Release rolls back an uncommitted transaction and returns the connection to the pool.
// It is safe to call more than once.
func (s *Session) Release() {
	if s.tx != nil {
		_ = s.tx.Rollback(context.Background())
		s.tx = nil
	}
	if s.conn != nil {
		s.conn.Release()
		s.conn = nil
	}
}

// Q returns the transaction when one is open, otherwise the bare connection.
func (s *Session) Q() Querier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// classify sorts a driver error into not-found or store-unavailable.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, dom.ErrNotFound):
		return fmt.Errorf("%s: %w", op, dom.ErrNotFound)
	case errors.Is(err, dom.ErrStoreUnavailable):
		return err
	case utils.IsPGConnectionError(err):
		return fmt.Errorf("%s: %w: connection: %w", op, dom.ErrStoreUnavailable, err)
	}
	if code, ok := utils.PGCode(err); ok {
		return fmt.Errorf("%s: %w: sqlstate %s: %w", op, dom.ErrStoreUnavailable, code, err)
	}
	return fmt.Errorf("%s: %w: %w", op, dom.ErrStoreUnavailable, err)
}
