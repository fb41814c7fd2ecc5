package repository

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// 会话记录的保留时长，与对话 ID 生命周期一致。
const recordTTL = 7 * 24 * time.Hour

type redisKV struct {
	client *redis.Client
}

// NewRedisKV 用 Redis 客户端构造 KV 存储。
func NewRedisKV(client *redis.Client) KV {
	return &redisKV{client: client}
}

func (r *redisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *redisKV) Set(ctx context.Context, key, value string) error {
	err := r.client.Set(ctx, key, value, recordTTL).Err()
	if err != nil && isOOM(err) {
		return ErrQuotaExceeded
	}
	return err
}

func (r *redisKV) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// isOOM 识别 Redis 达到 maxmemory 时的写入拒绝。
func isOOM(err error) bool {
	return strings.HasPrefix(err.Error(), "OOM")
}
