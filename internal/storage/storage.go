// Package storage はクライアント側の永続キーバリューストレージを提供する。
// ブラウザのlocalStorageに相当し、認証トークンやロケール設定の保存に使用する。
package storage

import (
	"context"
	"errors"
)

// ErrNotFound は指定されたキーが存在しない場合に返される。
var ErrNotFound = errors.New("storage: key not found")

// Storage は永続キーバリューストレージのインターフェース。
// 実装は複数goroutineからの同時アクセスに対して安全でなければならない。
type Storage interface {
	// Get はキーに対応する値を返す。キーが存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, key string) (string, error)
	// Set はキーに値を保存する。既存の値は上書きされる。
	Set(ctx context.Context, key, value string) error
	// Remove はキーを削除する。キーが存在しない場合もエラーにしない。
	Remove(ctx context.Context, key string) error
}

// GetOrEmpty はキーに対応する値を返す。キーが存在しない場合は空文字列を返す。
func GetOrEmpty(ctx context.Context, s Storage, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
