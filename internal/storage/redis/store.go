// Package redis 基于 Redis 的端点状态存储
// 多实例部署时共享首选前缀与禁用集合
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore Redis 键值存储
type RedisStore struct {
	client  *redis.Client
	prefix  string // 键前缀，如 "lineload:state:"
	timeout time.Duration
}

// NewRedisStore 解析URL、建立连接并 Ping
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// 状态读写量很小，连接池保持精简
	opts.PoolSize = 4
	opts.MinIdleConns = 1
	opts.ConnMaxLifetime = 5 * time.Minute
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix), nil
}

// NewRedisStoreWithClient 使用已有客户端（测试注入）
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, timeout: 2 * time.Second}
}

func (rs *RedisStore) key(k string) string {
	return rs.prefix + k
}

// Get 读取键值
func (rs *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	val, err := rs.client.Get(ctx, rs.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set 写入键值（不设TTL，过期由上层按记录时间判断）
func (rs *RedisStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	if err := rs.client.Set(ctx, rs.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove 删除键
func (rs *RedisStore) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	if err := rs.client.Del(ctx, rs.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping 连通性检查
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Close 关闭Redis连接
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
