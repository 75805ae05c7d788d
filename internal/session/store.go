// Package session はクライアントの認証状態（トークンとユーザープロフィール）を管理する。
// 状態は永続ストレージに保存され、プロセス起動時に復元される。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/hitoshi/smartlib/internal/storage"
)

// 永続ストレージのキー。
const (
	StorageKeyToken = "token"
	StorageKeyUser  = "user"
)

// GuestUsername は未ログイン時に表示するユーザー名。
const GuestUsername = "未登录"

// ErrNotLoggedIn は未ログイン状態でユーザー情報を更新しようとした場合に返される。
var ErrNotLoggedIn = errors.New("session: not logged in")

// Store は認証状態の唯一の保持者。
// 状態の変更は常にメモリと永続ストレージの両方に反映する。
// メモリ上の状態は永続化の成否に関わらず更新し、永続化の失敗はエラーとして返す。
type Store struct {
	mu      sync.RWMutex
	storage storage.Storage
	logger  *slog.Logger

	token string
	user  Profile
}

// Open は永続ストレージから認証状態を復元したStoreを返す。
// 値が存在しない、または壊れている場合は未ログイン状態として扱う。
func Open(ctx context.Context, st storage.Storage, logger *slog.Logger) *Store {
	s := &Store{storage: st, logger: logger}

	token, err := storage.GetOrEmpty(ctx, st, StorageKeyToken)
	if err != nil {
		logger.Warn("保存済みトークンの読み込みに失敗しました",
			slog.String("error", err.Error()),
		)
		token = ""
	}
	s.token = token

	raw, err := storage.GetOrEmpty(ctx, st, StorageKeyUser)
	if err != nil {
		logger.Warn("保存済みユーザー情報の読み込みに失敗しました",
			slog.String("error", err.Error()),
		)
		raw = ""
	}
	if raw != "" {
		var user Profile
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			logger.Warn("保存済みユーザー情報が不正な形式のため破棄します",
				slog.String("error", err.Error()),
			)
		} else {
			s.user = user
		}
	}

	return s
}

// Login はログイン結果を保存する。
// dataのtokenキーをトークンとして、data全体をユーザー情報として保持する。
// ペイロードの形式は検証しない。
func (s *Store) Login(ctx context.Context, data Profile) error {
	user := data.Clone()
	if user == nil {
		user = Profile{}
	}
	token := user.String(KeyToken)

	encoded, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("ユーザー情報のエンコードに失敗しました: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	return errors.Join(
		s.storage.Set(ctx, StorageKeyToken, token),
		s.storage.Set(ctx, StorageKeyUser, string(encoded)),
	)
}

// Logout は認証状態を破棄する。未ログイン状態で呼び出しても問題ない。
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	return errors.Join(
		s.storage.Remove(ctx, StorageKeyToken),
		s.storage.Remove(ctx, StorageKeyUser),
	)
}

// UpdateUser はユーザー情報にpartialを浅くマージして保存する。
// 未ログイン状態ではErrNotLoggedInを返し、何も変更しない。
func (s *Store) UpdateUser(ctx context.Context, partial Profile) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	merged := s.user.Merge(partial)
	encoded, err := json.Marshal(merged)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("ユーザー情報のエンコードに失敗しました: %w", err)
	}
	s.user = merged
	s.mu.Unlock()

	return s.storage.Set(ctx, StorageKeyUser, string(encoded))
}

// SetToken はトークンのみを置き換える。ユーザー情報は変更しない。
// バックエンドがトークンを自動更新した場合に使用する。
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	return s.storage.Set(ctx, StorageKeyToken, token)
}

// Token は現在のトークンを返す。未ログインの場合は空文字列。
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User は現在のユーザー情報のコピーを返す。未ログインの場合はnil。
func (s *Store) User() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// IsLoggedIn はトークンを保持しているかを返す。
func (s *Store) IsLoggedIn() bool {
	return s.Token() != ""
}

// UserID はユーザーIDを返す。未ログインまたはIDが無い場合はfalseを返す。
func (s *Store) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return "", false
	}
	switch v := s.user[KeyUserID].(type) {
	case string:
		return v, v != ""
	case float64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Username はユーザー名を返す。未設定の場合はGuestUsername。
func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name := s.user.String(KeyUsername); name != "" {
		return name
	}
	return GuestUsername
}

// AvatarURL はアバター画像のURLを返す。未設定の場合は空文字列。
func (s *Store) AvatarURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.String(KeyAvatarURL)
}
