package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"dayboard/domain"
)

type backend interface {
	FetchTasks(ctx context.Context, ownerID string) ([]domain.Task, error)
	FetchTasksDueOn(ctx context.Context, ownerID string, due domain.Date) ([]domain.Task, error)
	InsertTask(ctx context.Context, ownerID string, in domain.TaskInput) (domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, in domain.TaskInput) (domain.Task, error)
	UpdateTaskStatus(ctx context.Context, ownerID, id string, status domain.TaskStatus) (domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) (domain.Task, error)
}

// Cache wraps a Store with a Redis-backed task-list cache. The full list is
// cached per owner and evicted on any mutation; filtered reads pass through.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) FetchTasks(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if tasks, ok := c.loadFromCache(ctx, ownerID); ok {
		return tasks, nil
	}

	tasks, err := c.base.FetchTasks(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, ownerID, tasks)
	return tasks, nil
}

func (c *Cache) FetchTasksDueOn(ctx context.Context, ownerID string, due domain.Date) ([]domain.Task, error) {
	return c.base.FetchTasksDueOn(ctx, ownerID, due)
}

func (c *Cache) InsertTask(ctx context.Context, ownerID string, in domain.TaskInput) (domain.Task, error) {
	t, err := c.base.InsertTask(ctx, ownerID, in)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, ownerID)
	return t, nil
}

func (c *Cache) UpdateTask(ctx context.Context, ownerID, id string, in domain.TaskInput) (domain.Task, error) {
	t, err := c.base.UpdateTask(ctx, ownerID, id, in)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, ownerID)
	return t, nil
}

func (c *Cache) UpdateTaskStatus(ctx context.Context, ownerID, id string, status domain.TaskStatus) (domain.Task, error) {
	t, err := c.base.UpdateTaskStatus(ctx, ownerID, id, status)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, ownerID)
	return t, nil
}

func (c *Cache) DeleteTask(ctx context.Context, ownerID, id string) (domain.Task, error) {
	t, err := c.base.DeleteTask(ctx, ownerID, id)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, ownerID)
	return t, nil
}

func (c *Cache) loadFromCache(ctx context.Context, ownerID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(ownerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, ownerID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(ownerID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, ownerID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Result()
}

func tasksCacheKey(ownerID string) string {
	return "tasks:" + ownerID
}
