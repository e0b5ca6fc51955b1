package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clipline/sms-campaigns/pkg/preview"
	"github.com/redis/go-redis/v9"
)

// PreviewCache keeps backend-ranked candidate lists warm between override
// edits; any change to purpose, limit or overrides invalidates the entry.
// AllotmentCounter tracks free test sends per user per calendar day.
type PreviewCache interface {
	GetCandidates(ctx context.Context, key string) (*preview.Result, error)
	StoreCandidates(ctx context.Context, key string, result preview.Result) error
	Invalidate(ctx context.Context, key string) error
}

type AllotmentCounter interface {
	IncrTestSends(ctx context.Context, userID string, day time.Time) (int64, error)
	DecrTestSends(ctx context.Context, userID string, day time.Time) error
}

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func PreviewKey(userID, messageID, algorithm string, limit int) string {
	return fmt.Sprintf("preview:%s:%s:%s:%d", userID, messageID, algorithm, limit)
}

func (c *RedisCache) GetCandidates(ctx context.Context, key string) (*preview.Result, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var result preview.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *RedisCache) StoreCandidates(ctx context.Context, key string, result preview.Result) error {
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// IncrTestSends bumps and returns today's counter. The key expires at the
// next UTC midnight so the allotment resets daily without a sweeper.
func (c *RedisCache) IncrTestSends(ctx context.Context, userID string, day time.Time) (int64, error) {
	day = day.UTC()
	key := testSendKey(userID, day)

	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	pipe.ExpireAt(ctx, key, midnight)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

// DecrTestSends releases a slot taken by IncrTestSends when the send it
// counted never happened.
func (c *RedisCache) DecrTestSends(ctx context.Context, userID string, day time.Time) error {
	return c.rdb.Decr(ctx, testSendKey(userID, day.UTC())).Err()
}

func testSendKey(userID string, day time.Time) string {
	return fmt.Sprintf("testsend:%s:%s", userID, day.Format("2006-01-02"))
}
