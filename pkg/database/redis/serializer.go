package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
)

// GetObject 读取并反序列化 JSON 对象
func GetObject[T any](ctx context.Context, c *Client, key string) (*T, error) {
	val, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var obj T
	if err := json.Unmarshal([]byte(val), &obj); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s", key)
	}
	return &obj, nil
}

// SetObject 序列化为 JSON 后写入
func SetObject(ctx context.Context, c *Client, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", key)
	}
	return c.Set(ctx, key, data, expiration)
}

// HGetObject 读取并反序列化哈希字段
func HGetObject[T any](ctx context.Context, c *Client, key, field string) (*T, error) {
	val, err := c.HGet(ctx, key, field)
	if err != nil {
		return nil, err
	}

	var obj T
	if err := json.Unmarshal([]byte(val), &obj); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s[%s]", key, field)
	}
	return &obj, nil
}

// HGetAllObjects 读取整个哈希并逐字段反序列化，键不存在时返回空 map
func HGetAllObjects[T any](ctx context.Context, c *Client, key string) (map[string]*T, error) {
	vals, err := c.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*T, len(vals))
	for field, val := range vals {
		var obj T
		if err := json.Unmarshal([]byte(val), &obj); err != nil {
			return nil, errors.Wrapf(err, "unmarshal %s[%s]", key, field)
		}
		results[field] = &obj
	}
	return results, nil
}

// ReplaceHashObjects 在一个 MULTI 中删除旧哈希、写入全部字段并设置过期
func ReplaceHashObjects[T any](ctx context.Context, c *Client, key string, fields map[string]T, expiration time.Duration) error {
	values := make([]interface{}, 0, len(fields)*2)
	for field, obj := range fields {
		data, err := json.Marshal(obj)
		if err != nil {
			return errors.Wrapf(err, "marshal %s[%s]", key, field)
		}
		values = append(values, field, data)
	}

	_, err := c.getMaster().TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, key)
		if len(values) > 0 {
			p.HSet(ctx, key, values...)
			if expiration > 0 {
				p.Expire(ctx, key, expiration)
			}
		}
		return nil
	})
	return errors.Wrapf(err, "replace hash %s", key)
}
