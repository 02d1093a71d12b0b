package redis

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
)

func wrapNil(err error, op string) error {
	if errors.Is(err, goredis.Nil) {
		return ErrNil
	}
	return errors.Wrapf(err, "redis %s", op)
}

// Get 读取字符串，键不存在返回 ErrNil
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.getSlave().Get(ctx, key).Result()
	if err != nil {
		return "", wrapNil(err, "get")
	}
	return val, nil
}

// Set 写入字符串
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return errors.Wrap(c.getMaster().Set(ctx, key, value, expiration).Err(), "redis set")
}

// Del 删除键，返回删除数量
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.getMaster().Del(ctx, keys...).Result()
	return n, errors.Wrap(err, "redis del")
}

// HGet 读取哈希字段，不存在返回 ErrNil
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	val, err := c.getSlave().HGet(ctx, key, field).Result()
	if err != nil {
		return "", wrapNil(err, "hget")
	}
	return val, nil
}

// HGetAll 读取整个哈希
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	vals, err := c.getSlave().HGetAll(ctx, key).Result()
	return vals, errors.Wrap(err, "redis hgetall")
}
