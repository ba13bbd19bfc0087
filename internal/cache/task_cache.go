package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	dom "taskapi/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyList = "task:list"
	// keyGen is bumped by every invalidation; a fill only lands if it is unchanged.
	keyGen = "task:list:gen"
)

// TaskCache caches the full task list snapshot in Redis.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

type cachedTask struct {
	ID    int64   `json:"id"`
	Title *string `json:"title"`
	Done  bool    `json:"done"`
}

// GetList returns the cached list and whether it was a hit.
func (c *TaskCache) GetList(ctx context.Context) ([]dom.Task, bool, error) {
	b, err := c.rdb.Get(ctx, keyList).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var raw []cachedTask
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, false, err
	}
	list := make([]dom.Task, len(raw))
	for i, t := range raw {
		list[i] = dom.Task{ID: t.ID, Title: t.Title, Done: t.Done}
	}
	return list, true, nil
}

// Generation returns the current invalidation counter. Read it before loading
// the list from the store and hand it to SetList.
func (c *TaskCache) Generation(ctx context.Context) (int64, error) {
	return c.generation(ctx, c.rdb)
}

// SetList stores list only if no invalidation happened since gen was read.
// A skipped fill is not an error.
func (c *TaskCache) SetList(ctx context.Context, gen int64, list []dom.Task) error {
	raw := make([]cachedTask, len(list))
	for i, t := range list {
		raw[i] = cachedTask{ID: t.ID, Title: t.Title, Done: t.Done}
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := c.generation(ctx, tx)
		if err != nil {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, keyList, b, c.ttl)
			return nil
		})
		return err
	}, keyGen)
	if errors.Is(err, errStaleFill) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the generation and drops the snapshot; called after every write.
func (c *TaskCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, keyGen)
		p.Del(ctx, keyList)
		return nil
	})
	return err
}

var errStaleFill = errors.New("task list changed during fill")

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *TaskCache) generation(ctx context.Context, cmd stringGetter) (int64, error) {
	gen, err := cmd.Get(ctx, keyGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}
