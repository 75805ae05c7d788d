// Package favorite は図書1件ごとのお気に入り状態を管理する。
package favorite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/smartlib/internal/gateway"
)

var (
	// ErrLoginRequired は未ログイン状態で操作しようとした場合に返される。
	ErrLoginRequired = errors.New("favorite: login required")
	// ErrSessionExpired は操作中に認証が失効した場合に返される。
	ErrSessionExpired = errors.New("favorite: session expired")
	// ErrInProgress は切り替え処理が実行中の場合に返される。
	ErrInProgress = errors.New("favorite: toggle in progress")
)

// API はお気に入りのバックエンドAPI。*api.Clientが実装する。
type API interface {
	AddFavorite(ctx context.Context, resourceID string) (bool, error)
	RemoveFavorite(ctx context.Context, resourceID string) (bool, error)
	CheckFavorite(ctx context.Context, resourceID string) (bool, error)
}

// AuthState はログイン状態。
type AuthState interface {
	IsLoggedIn() bool
}

// Tracker は図書1件のお気に入り状態を保持する。
type Tracker struct {
	resourceID string
	api        API
	auth       AuthState
	navigator  gateway.Navigator
	loginPath  string
	logger     *slog.Logger

	mu        sync.Mutex
	favorited bool
	loading   bool
}

// NewTracker はTrackerを生成する。初期状態は未登録。
func NewTracker(resourceID string, api API, auth AuthState, nav gateway.Navigator, loginPath string, logger *slog.Logger) *Tracker {
	if loginPath == "" {
		loginPath = gateway.DefaultLoginPath
	}
	return &Tracker{
		resourceID: resourceID,
		api:        api,
		auth:       auth,
		navigator:  nav,
		loginPath:  loginPath,
		logger:     logger,
	}
}

// IsFavorited は現在の状態を返す。
func (t *Tracker) IsFavorited() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.favorited
}

// Loading は切り替え処理が実行中かを返す。
func (t *Tracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// Check はバックエンドに問い合わせて状態を更新する。
// 未ログインまたは取得に失敗した場合は未登録として扱う。
func (t *Tracker) Check(ctx context.Context) bool {
	if !t.auth.IsLoggedIn() {
		t.set(false)
		return false
	}

	ok, err := t.api.CheckFavorite(ctx, t.resourceID)
	if err != nil {
		t.logger.Error("お気に入り状態の確認に失敗しました",
			slog.String("resource_id", t.resourceID),
			slog.String("error", err.Error()),
		)
		ok = false
	}
	t.set(ok)
	return ok
}

// Toggle はお気に入りの追加と削除を切り替え、切り替え後の状態を返す。
// 未ログインの場合はログイン画面へ遷移してErrLoginRequiredを返す。
func (t *Tracker) Toggle(ctx context.Context) (bool, error) {
	if !t.auth.IsLoggedIn() {
		if err := t.navigator.Navigate(ctx, t.loginPath); err != nil {
			t.logger.Warn("ログイン画面への遷移に失敗しました",
				slog.String("error", err.Error()),
			)
		}
		return false, ErrLoginRequired
	}

	t.mu.Lock()
	if t.loading {
		t.mu.Unlock()
		return t.IsFavorited(), ErrInProgress
	}
	t.loading = true
	current := t.favorited
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.loading = false
		t.mu.Unlock()
	}()

	var err error
	if current {
		_, err = t.api.RemoveFavorite(ctx, t.resourceID)
	} else {
		_, err = t.api.AddFavorite(ctx, t.resourceID)
	}
	if err != nil {
		t.logger.Error("お気に入りの切り替えに失敗しました",
			slog.String("resource_id", t.resourceID),
			slog.Bool("favorited", current),
			slog.String("error", err.Error()),
		)
		// 認証失敗時のログアウトと遷移はGatewayが実施済み
		if errors.Is(err, gateway.ErrAuthentication) {
			return current, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		return current, err
	}

	t.set(!current)
	return !current, nil
}

func (t *Tracker) set(v bool) {
	t.mu.Lock()
	t.favorited = v
	t.mu.Unlock()
}
