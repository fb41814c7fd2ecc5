// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"errors"
)

// ErrNotFound 表示键不存在。
var ErrNotFound = errors.New("kv: key not found")

// ErrQuotaExceeded 表示存储配额不足，本次写入被拒绝。
var ErrQuotaExceeded = errors.New("kv: storage quota exceeded")

// KV 是带配额的同步键值存储抽象。写入失败时不得破坏已提交的旧值。
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
}
