package repository

import (
	"context"
	"sync"
)

// memoryKV 是进程内的 KV 实现，带字节配额以模拟存储受限环境。
// 用于未配置 Redis 的本地运行和测试。
type memoryKV struct {
	mu       sync.Mutex
	data     map[string]string
	maxBytes int
}

// NewMemoryKV 构造内存 KV。maxBytes <= 0 表示不限配额。
func NewMemoryKV(maxBytes int) KV {
	return &memoryKV{data: make(map[string]string), maxBytes: maxBytes}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxBytes > 0 {
		total := len(key) + len(value)
		for k, v := range m.data {
			if k == key {
				continue
			}
			total += len(k) + len(v)
		}
		// 超出配额时拒绝写入，保留旧值不动
		if total > m.maxBytes {
			return ErrQuotaExceeded
		}
	}
	m.data[key] = value
	return nil
}

func (m *memoryKV) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
