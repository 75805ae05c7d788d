package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File はJSONファイル1つに全キーを保存するStorage実装。
// CLIの実行をまたいでトークンやユーザー情報を保持するために使用する。
// 書き込みは一時ファイルへの書き出しとリネームで行い、途中で中断しても
// 既存のファイルが壊れないようにする。
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile は指定パスのファイルを使うFileストレージを生成する。
// ファイルは最初の書き込み時に作成される。
func NewFile(path string) *File {
	return &File{path: path}
}

// Path は保存先ファイルのパスを返す。
func (f *File) Path() string {
	return f.path
}

// Get はキーに対応する値を返す。
func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return "", err
	}

	v, ok := items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set はキーに値を保存する。
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	items[key] = value
	return f.save(items)
}

// Remove はキーを削除する。
func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return f.save(items)
}

// load はファイルを読み込む。ファイルが存在しない場合は空のマップを返す。
func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ストレージファイルの読み込みに失敗しました: %w", err)
	}

	items := make(map[string]string)
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("ストレージファイルのパースに失敗しました: %w", err)
	}
	return items, nil
}

// save はマップをファイルに書き出す。
func (f *File) save(items map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("ストレージディレクトリの作成に失敗しました: %w", err)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("ストレージのエンコードに失敗しました: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("一時ファイルへの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("一時ファイルのクローズに失敗しました: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ストレージファイルの権限設定に失敗しました: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ストレージファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}
