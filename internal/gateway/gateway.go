// Package gateway はバックエンドAPIへの全てのHTTP呼び出しが通過する単一の経路を提供する。
// 送信前に認証ヘッダーを付与し、受信後にトークンの自動更新、レスポンスエンベロープの正規化、
// 認証失敗時のログアウトとログイン画面への遷移を行う。
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/smartlib/internal/storage"
)

// デフォルト設定値。
const (
	DefaultTimeout       = 10 * time.Second
	DefaultLoginPath     = "/login"
	DefaultRenewalHeader = "X-New-Token"
)

// tokenStorageKey はトークンを保存しているストレージのキー。
const tokenStorageKey = "token"

// リクエスト結果の分類。Recorderに渡される。
const (
	OutcomeSuccess        = "success"
	OutcomeAPIError       = "api_error"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomePrepareError   = "prepare_error"
)

// Session はGatewayが更新する認証状態。
type Session interface {
	SetToken(ctx context.Context, token string) error
	Logout(ctx context.Context) error
}

// Navigator はクライアントの画面遷移を行う。
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// Recorder はリクエストの結果を記録する。
type Recorder interface {
	RecordRequest(method, outcome string, duration time.Duration)
	RecordTokenRenewal()
	RecordAuthFailure()
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, string, time.Duration) {}
func (nopRecorder) RecordTokenRenewal()                         {}
func (nopRecorder) RecordAuthFailure()                          {}

// Config はGatewayの設定。
type Config struct {
	// BaseURL は全リクエストの基準となるURL（例: http://localhost:3000/api）。
	BaseURL string
	// Timeout はリクエスト1件あたりのタイムアウト。0の場合はDefaultTimeout。
	Timeout time.Duration
	// LoginPath は認証失敗時の遷移先。空の場合はDefaultLoginPath。
	LoginPath string
	// RenewalHeader はトークン自動更新を通知するレスポンスヘッダー名。空の場合はDefaultRenewalHeader。
	RenewalHeader string
}

// Option はGatewayのオプション設定。
type Option func(*Gateway)

// WithHTTPClient はリクエストに使用するHTTPクライアントを差し替える。
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithRecorder はリクエスト結果の記録先を設定する。
func WithRecorder(r Recorder) Option {
	return func(g *Gateway) { g.recorder = r }
}

// WithLanguage はAccept-Languageヘッダーの値を返す関数を設定する。
func WithLanguage(fn func() string) Option {
	return func(g *Gateway) { g.language = fn }
}

// Gateway はバックエンドAPIのクライアント。
// 複数goroutineから同時に使用できる。
type Gateway struct {
	baseURL       *url.URL
	httpClient    *http.Client
	storage       storage.Storage
	session       Session
	navigator     Navigator
	logger        *slog.Logger
	recorder      Recorder
	language      func() string
	loginPath     string
	renewalHeader string
}

// New はGatewayを生成する。
// トークンはsessionではなくstorageから毎回読み込む。
func New(cfg Config, st storage.Storage, sess Session, nav Navigator, logger *slog.Logger, opts ...Option) (*Gateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ベースURLのパースに失敗しました: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ベースURLにはスキームとホストが必要です: %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	g := &Gateway{
		baseURL:       base,
		httpClient:    &http.Client{Timeout: timeout},
		storage:       st,
		session:       sess,
		navigator:     nav,
		logger:        logger,
		recorder:      nopRecorder{},
		loginPath:     cfg.LoginPath,
		renewalHeader: cfg.RenewalHeader,
	}
	if g.loginPath == "" {
		g.loginPath = DefaultLoginPath
	}
	if g.renewalHeader == "" {
		g.renewalHeader = DefaultRenewalHeader
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Do はリクエストを送信し、成功した場合はエンベロープを返す。
//
// エンベロープのcodeが成功以外の場合は*APIErrorを、
// 2xx以外のステータスの場合は*StatusErrorを、
// 通信エラーやタイムアウトの場合はhttp.Clientが返したエラーをそのまま返す。
// いずれの場合も401/403であればログアウトとログイン画面への遷移を行ってからエラーを返す。
// 再試行は行わない。
func (g *Gateway) Do(ctx context.Context, r Request) (*Envelope, error) {
	start := time.Now()

	req, err := g.prepare(ctx, r)
	if err != nil {
		g.logger.Error("リクエストの準備に失敗しました",
			slog.String("method", r.Method),
			slog.String("path", r.Path),
			slog.String("error", err.Error()),
		)
		g.recorder.RecordRequest(r.Method, OutcomePrepareError, time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrPrepareRequest, err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.onFailure(ctx, r, 0, err)
		g.recorder.RecordRequest(r.Method, OutcomeTransportError, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.onFailure(ctx, r, resp.StatusCode, err)
		g.recorder.RecordRequest(r.Method, OutcomeTransportError, time.Since(start))
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       body,
			Envelope:   parseEnvelope(body),
		}
		g.onFailure(ctx, r, resp.StatusCode, statusErr)
		g.recorder.RecordRequest(r.Method, OutcomeHTTPError, time.Since(start))
		return nil, statusErr
	}

	env, err := g.onResponse(ctx, r, resp.Header, body)
	if err != nil {
		g.recorder.RecordRequest(r.Method, OutcomeAPIError, time.Since(start))
		return nil, err
	}
	g.recorder.RecordRequest(r.Method, OutcomeSuccess, time.Since(start))
	return env, nil
}

// Get はGETリクエストを送信する。
func (g *Gateway) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return g.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post はbodyをJSONとしてPOSTする。bodyがnilの場合はボディなしで送信する。
func (g *Gateway) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return g.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Delete はDELETEリクエストを送信する。
func (g *Gateway) Delete(ctx context.Context, path string) (*Envelope, error) {
	return g.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// prepare は送信するHTTPリクエストを組み立てる。
// ストレージにトークンがあればAuthorizationヘッダーを付与する。
func (g *Gateway) prepare(ctx context.Context, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	u := g.baseURL.JoinPath(r.Path)
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		encoded, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.language != nil {
		if lang := g.language(); lang != "" {
			req.Header.Set("Accept-Language", lang)
		}
	}

	token, err := storage.GetOrEmpty(ctx, g.storage, tokenStorageKey)
	if err != nil {
		return nil, fmt.Errorf("トークンの読み込みに失敗しました: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// onResponse は2xxレスポンスを処理する。
// トークン更新ヘッダーはエンベロープの結果に関わらず反映する。
func (g *Gateway) onResponse(ctx context.Context, r Request, header http.Header, body []byte) (*Envelope, error) {
	if newToken := header.Get(g.renewalHeader); newToken != "" {
		if err := g.session.SetToken(ctx, newToken); err != nil {
			g.logger.Warn("更新されたトークンの保存に失敗しました",
				slog.String("error", err.Error()),
			)
		}
		g.recorder.RecordTokenRenewal()
		g.logger.Info("トークンが自動更新されました",
			slog.String("path", r.Path),
		)
	}

	env := parseEnvelope(body)
	if env.Succeeded() {
		return env, nil
	}

	msg := env.Message
	if msg == "" {
		msg = defaultErrorMessage
	}
	if env.Code == nil {
		g.logger.Error("APIが不正なcodeを返しました",
			slog.String("method", r.Method),
			slog.String("path", r.Path),
			slog.String("message", env.Message),
		)
		return nil, &APIError{Message: msg}
	}

	code := *env.Code
	g.logger.Error("APIがエラーを返しました",
		slog.String("method", r.Method),
		slog.String("path", r.Path),
		slog.Int("code", code),
		slog.String("message", env.Message),
	)
	if isAuthCode(code) {
		g.handleAuthFailure(ctx)
	}
	return nil, &APIError{Code: code, Message: msg}
}

// onFailure は通信エラーと2xx以外のレスポンスを処理する。
// statusCodeは通信エラーの場合0。
func (g *Gateway) onFailure(ctx context.Context, r Request, statusCode int, err error) {
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.Path),
		slog.String("error", err.Error()),
	}
	if statusCode != 0 {
		attrs = append(attrs, slog.Int("http_status", statusCode))
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		attrs = append(attrs, slog.Bool("timeout", true))
	}
	g.logger.Error("ネットワークリクエストに失敗しました", attrs...)

	if isAuthCode(statusCode) {
		g.handleAuthFailure(ctx)
	}
}

// handleAuthFailure はログアウトしてログイン画面へ遷移する。
// 同時に複数回呼ばれても問題ない。
func (g *Gateway) handleAuthFailure(ctx context.Context) {
	g.recorder.RecordAuthFailure()
	if err := g.session.Logout(ctx); err != nil {
		g.logger.Warn("ログアウト処理に失敗しました",
			slog.String("error", err.Error()),
		)
	}
	if err := g.navigator.Navigate(ctx, g.loginPath); err != nil {
		g.logger.Warn("ログイン画面への遷移に失敗しました",
			slog.String("path", g.loginPath),
			slog.String("error", err.Error()),
		)
	}
}
