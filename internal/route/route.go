// Package route はクライアント内の画面遷移を管理する。
// ルートテーブルとの照合、ログインが必要な画面のガード、現在位置の保持を行う。
package route

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"
)

// ルート名。
const (
	NameHome         = "home"
	NameBook         = "book"
	NameBookDetail   = "book-detail"
	NameAuthorDetail = "author-detail"
	NameLogin        = "login"
	NameFavorites    = "favorites"
	NameNotFound     = "not-found"
)

// レイアウト名。
const (
	LayoutWeb  = "web"
	LayoutNone = "none"
)

// RedirectQueryKey はガードでログイン画面に誘導した際に元の遷移先を保持するクエリキー。
const RedirectQueryKey = "redirect"

// Route はルートテーブルの1エントリ。
type Route struct {
	Name         string
	Pattern      string
	Layout       string
	RequiresAuth bool
	KeepAlive    bool
}

// DefaultRoutes はアプリケーションのルートテーブル。
var DefaultRoutes = []Route{
	{Name: NameHome, Pattern: "/", Layout: LayoutWeb},
	{Name: NameBook, Pattern: "/book", Layout: LayoutWeb, KeepAlive: true},
	{Name: NameBookDetail, Pattern: "/book/{bookId}", Layout: LayoutWeb},
	{Name: NameAuthorDetail, Pattern: "/author/{authorId}", Layout: LayoutWeb},
	{Name: NameLogin, Pattern: "/login", Layout: LayoutNone},
	{Name: NameFavorites, Pattern: "/favorites", Layout: LayoutWeb, RequiresAuth: true},
}

var notFoundRoute = Route{Name: NameNotFound, Layout: LayoutNone}

// Location は解決済みの遷移先。
type Location struct {
	Route    Route
	Path     string
	Params   map[string]string
	Query    url.Values
	FullPath string
}

// Param はパスパラメータを返す。
func (l Location) Param(key string) string {
	return l.Params[key]
}

// AuthState はガードが参照するログイン状態。
type AuthState interface {
	IsLoggedIn() bool
}

// Listener は遷移完了後に呼び出される。
type Listener func(from, to Location)

// Router はクライアント内ルーター。複数goroutineから同時に使用できる。
// 同時に遷移した場合は最後に完了した遷移が現在位置になる。
type Router struct {
	mux       *chi.Mux
	byPattern map[string]Route
	auth      AuthState
	logger    *slog.Logger

	mu        sync.RWMutex
	current   Location
	listeners []Listener
}

// New はDefaultRoutesを持つRouterを生成する。
func New(auth AuthState, logger *slog.Logger) *Router {
	r, err := NewWithRoutes(DefaultRoutes, auth, logger)
	if err != nil {
		panic(err)
	}
	return r
}

// NewWithRoutes は指定したルートテーブルでRouterを生成する。
// ログインルートが無い場合はエラーを返す。
func NewWithRoutes(routes []Route, auth AuthState, logger *slog.Logger) (*Router, error) {
	mux := chi.NewRouter()
	byPattern := make(map[string]Route, len(routes))
	hasLogin := false

	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, rt := range routes {
		if _, dup := byPattern[rt.Pattern]; dup {
			return nil, fmt.Errorf("ルートのパターンが重複しています: %s", rt.Pattern)
		}
		mux.Get(rt.Pattern, noop)
		byPattern[rt.Pattern] = rt
		if rt.Name == NameLogin {
			hasLogin = true
		}
	}
	if !hasLogin {
		return nil, fmt.Errorf("ルートテーブルに %q が含まれていません", NameLogin)
	}

	return &Router{
		mux:       mux,
		byPattern: byPattern,
		auth:      auth,
		logger:    logger,
	}, nil
}

// Resolve はパスをルートテーブルと照合する。一致しない場合はnot-foundルートになる。
func (r *Router) Resolve(rawPath string) (Location, error) {
	u, err := url.Parse(rawPath)
	if err != nil {
		return Location{}, fmt.Errorf("遷移先のパースに失敗しました: %w", err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	loc := Location{
		Route:    notFoundRoute,
		Path:     path,
		Params:   map[string]string{},
		Query:    u.Query(),
		FullPath: path,
	}
	if u.RawQuery != "" {
		loc.FullPath = path + "?" + u.RawQuery
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return loc, nil
	}
	if rt, ok := r.byPattern[rctx.RoutePattern()]; ok {
		loc.Route = rt
	}
	for i, key := range rctx.URLParams.Keys {
		loc.Params[key] = rctx.URLParams.Values[i]
	}
	return loc, nil
}

// Push は遷移先を解決し、ガードを適用してから現在位置を更新する。
// ログインが必要な画面に未ログインで遷移した場合はログイン画面に誘導し、
// 元の遷移先をredirectクエリに保持する。
func (r *Router) Push(ctx context.Context, rawPath string) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}

	to, err := r.Resolve(rawPath)
	if err != nil {
		return Location{}, err
	}

	if to.Route.RequiresAuth && (r.auth == nil || !r.auth.IsLoggedIn()) {
		redirect := url.Values{RedirectQueryKey: {to.FullPath}}
		guarded, err := r.Resolve(r.loginPattern() + "?" + redirect.Encode())
		if err != nil {
			return Location{}, err
		}
		r.logger.Info("ログインが必要な画面のためログイン画面に誘導します",
			slog.String("to", to.FullPath),
		)
		to = guarded
	}

	r.mu.Lock()
	from := r.current
	r.current = to
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	for _, l := range listeners {
		l(from, to)
	}
	return to, nil
}

// Navigate は指定パスへ遷移する。
func (r *Router) Navigate(ctx context.Context, path string) error {
	_, err := r.Push(ctx, path)
	return err
}

// Current は現在位置を返す。
func (r *Router) Current() Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// OnChange は遷移完了時に呼び出されるリスナーを登録する。
func (r *Router) OnChange(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

func (r *Router) loginPattern() string {
	for pattern, rt := range r.byPattern {
		if rt.Name == NameLogin {
			return pattern
		}
	}
	return "/login"
}
