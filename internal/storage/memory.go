package storage

import (
	"context"
	"sync"
)

// Memory はプロセス内メモリに値を保持するStorage実装。
// テストや永続化を必要としない一時的な実行で使用する。
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemory は空のMemoryストレージを生成する。
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

// Get はキーに対応する値を返す。
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set はキーに値を保存する。
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = value
	return nil
}

// Remove はキーを削除する。
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Len は保持しているキーの数を返す。テスト用。
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
