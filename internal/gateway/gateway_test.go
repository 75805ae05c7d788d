package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/smartlib/internal/session"
	"github.com/hitoshi/smartlib/internal/storage"
)

// fakeNavigator は遷移先を記録するNavigator。
type fakeNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *fakeNavigator) Navigate(_ context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
	return nil
}

func (n *fakeNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// fakeRecorder は記録された結果を保持するRecorder。
type fakeRecorder struct {
	mu           sync.Mutex
	outcomes     []string
	renewals     int
	authFailures int
}

func (r *fakeRecorder) RecordRequest(_ string, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *fakeRecorder) RecordTokenRenewal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renewals++
}

func (r *fakeRecorder) RecordAuthFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authFailures++
}

// brokenStorage は読み込みが常に失敗するストレージ。
type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) (string, error) {
	return "", errors.New("storage unavailable")
}
func (brokenStorage) Set(context.Context, string, string) error { return nil }
func (brokenStorage) Remove(context.Context, string) error      { return nil }

type testEnv struct {
	gw       *Gateway
	store    *session.Store
	storage  *storage.Memory
	nav      *fakeNavigator
	recorder *fakeRecorder
	logs     *bytes.Buffer
}

func newTestEnv(t *testing.T, baseURL string, opts ...Option) *testEnv {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	st := storage.NewMemory()
	store := session.Open(context.Background(), st, logger)
	nav := &fakeNavigator{}
	rec := &fakeRecorder{}

	opts = append([]Option{WithRecorder(rec)}, opts...)
	gw, err := New(Config{BaseURL: baseURL}, st, store, nav, logger, opts...)
	if err != nil {
		t.Fatalf("New がエラーを返した: %v", err)
	}
	return &testEnv{gw: gw, store: store, storage: st, nav: nav, recorder: rec, logs: &buf}
}

func (e *testEnv) login(t *testing.T, token string) {
	t.Helper()
	if err := e.store.Login(context.Background(), session.Profile{"token": token, "username": "alice"}); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	for _, base := range []string{"", "/api", "://bad"} {
		if _, err := New(Config{BaseURL: base}, storage.NewMemory(), nil, nil, logger); err == nil {
			t.Errorf("BaseURL %q はエラーになるべき", base)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	env := newTestEnv(t, "http://localhost:3000/api")

	if env.gw.httpClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", env.gw.httpClient.Timeout, DefaultTimeout)
	}
	if env.gw.loginPath != DefaultLoginPath {
		t.Errorf("loginPath = %q", env.gw.loginPath)
	}
	if env.gw.renewalHeader != DefaultRenewalHeader {
		t.Errorf("renewalHeader = %q", env.gw.renewalHeader)
	}
}

func TestDo_CodeZero_ResolvesWithEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 0, "message": "ok", "data": map[string]string{"title": "三体"}})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL+"/api")
	got, err := env.gw.Get(context.Background(), "/book/b1", nil)
	if err != nil {
		t.Fatalf("Get がエラーを返した: %v", err)
	}
	if got.Code == nil || *got.Code != 0 {
		t.Errorf("Code = %v, want 0", got.Code)
	}
	if got.Message != "ok" {
		t.Errorf("Message = %q, want ok", got.Message)
	}

	book, err := Decode[map[string]string](got)
	if err != nil {
		t.Fatalf("Decode がエラーを返した: %v", err)
	}
	if book["title"] != "三体" {
		t.Errorf("title = %q", book["title"])
	}
	if len(env.nav.Paths()) != 0 {
		t.Error("成功時は遷移しないべき")
	}
}

func TestDo_Code200_And_NoCode_Resolve(t *testing.T) {
	bodies := []string{
		`{"code":200,"data":1}`,
		`{"data":[1,2]}`,
		`plain text`,
		``,
	}
	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		}))

		env := newTestEnv(t, server.URL)
		if _, err := env.gw.Get(context.Background(), "/x", nil); err != nil {
			t.Errorf("body %q: Get がエラーを返した: %v", body, err)
		}
		server.Close()
	}
}

func TestDo_NonJSONBody_RawData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	got, err := env.gw.Get(context.Background(), "/ping", nil)
	if err != nil {
		t.Fatalf("Get がエラーを返した: %v", err)
	}
	if got.Code != nil {
		t.Errorf("Code = %v, want nil", *got.Code)
	}
	if string(got.Data) != "pong" {
		t.Errorf("Data = %q, want pong", got.Data)
	}
}

func TestDo_ApplicationError_RejectsWithMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 1, "message": "X"})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.login(t, "tok")

	_, err := env.gw.Get(context.Background(), "/book/b1", nil)
	if err == nil {
		t.Fatal("code 1 はエラーになるべき")
	}
	if err.Error() != "X" {
		t.Errorf("error message = %q, want X", err.Error())
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 1 {
		t.Errorf("err = %#v, want *APIError{Code:1}", err)
	}
	if errors.Is(err, ErrAuthentication) {
		t.Error("code 1 は認証エラーではない")
	}
	if !env.store.IsLoggedIn() {
		t.Error("認証以外のエラーではログアウトしないべき")
	}
	if len(env.nav.Paths()) != 0 {
		t.Error("認証以外のエラーでは遷移しないべき")
	}
	if !strings.Contains(env.logs.String(), `"level":"ERROR"`) {
		t.Error("アプリケーションエラーは ERROR ログを出力するべき")
	}
}

func TestDo_ApplicationError_FallbackMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 500})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	_, err := env.gw.Get(context.Background(), "/x", nil)
	if err == nil || err.Error() != defaultErrorMessage {
		t.Errorf("err = %v, want %q", err, defaultErrorMessage)
	}
}

func TestDo_Code401_LogsOutAndNavigatesOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 401, "message": "token expired"})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.login(t, "tok")

	_, err := env.gw.Get(context.Background(), "/favorite/list", nil)
	if err == nil {
		t.Fatal("code 401 はエラーになるべき")
	}
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("err = %v, want ErrAuthentication", err)
	}
	if err.Error() != "token expired" {
		t.Errorf("error message = %q", err.Error())
	}
	if env.store.IsLoggedIn() || env.store.User() != nil {
		t.Error("code 401 の後は未ログイン状態であるべき")
	}
	if env.storage.Len() != 0 {
		t.Error("code 401 の後はストレージが空であるべき")
	}
	if paths := env.nav.Paths(); len(paths) != 1 || paths[0] != "/login" {
		t.Errorf("遷移 = %v, want [/login]", paths)
	}
	if env.recorder.authFailures != 1 {
		t.Errorf("authFailures = %d, want 1", env.recorder.authFailures)
	}
}

func TestDo_HTTP403_ReturnsStatusErrorAndLogsOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"code": 403, "message": "forbidden"})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.login(t, "tok")

	_, err := env.gw.Post(context.Background(), "/comment/create", map[string]string{"content": "hi"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", statusErr.StatusCode)
	}
	if statusErr.Envelope == nil || statusErr.Envelope.Message != "forbidden" {
		t.Errorf("Envelope = %+v", statusErr.Envelope)
	}
	if !errors.Is(err, ErrAuthentication) {
		t.Error("HTTP 403 は ErrAuthentication と一致するべき")
	}
	if env.store.IsLoggedIn() {
		t.Error("HTTP 403 の後は未ログイン状態であるべき")
	}
	if paths := env.nav.Paths(); len(paths) != 1 || paths[0] != "/login" {
		t.Errorf("遷移 = %v, want [/login]", paths)
	}
	if Message(err, "操作失败") != "forbidden" {
		t.Errorf("Message = %q", Message(err, "操作失败"))
	}
}

func TestDo_HTTP500_NoLogout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.login(t, "tok")

	_, err := env.gw.Get(context.Background(), "/x", nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 500 {
		t.Fatalf("err = %v, want *StatusError(500)", err)
	}
	if errors.Is(err, ErrAuthentication) {
		t.Error("HTTP 500 は認証エラーではない")
	}
	if !env.store.IsLoggedIn() {
		t.Error("HTTP 500 ではログアウトしないべき")
	}
	if Message(err, "操作失败") != "操作失败" {
		t.Errorf("Message = %q, want fallback", Message(err, "操作失败"))
	}
}

func TestDo_RenewalHeader_UpdatesTokenWithoutChangingResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-new-token", "abc")
		writeJSON(w, http.StatusOK, map[string]any{"code": 0, "data": "payload"})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.login(t, "old")

	got, err := env.gw.Get(context.Background(), "/x", nil)
	if err != nil {
		t.Fatalf("Get がエラーを返した: %v", err)
	}
	if data, _ := Decode[string](got); data != "payload" {
		t.Errorf("data = %q, want payload", data)
	}
	if env.store.Token() != "abc" {
		t.Errorf("Token = %q, want abc", env.store.Token())
	}
	if v, _ := env.storage.Get(context.Background(), "token"); v != "abc" {
		t.Errorf("保存されたトークン = %q, want abc", v)
	}
	if env.store.Username() != "alice" {
		t.Error("トークン更新はユーザー情報を変更しないべき")
	}
	if env.recorder.renewals != 1 {
		t.Errorf("renewals = %d, want 1", env.recorder.renewals)
	}
}

func TestDo_RenewalHeader_AppliedEvenOnApplicationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-New-Token", "fresh")
		writeJSON(w, http.StatusOK, map[string]any{"code": 1, "message": "bad"})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.login(t, "old")

	if _, err := env.gw.Get(context.Background(), "/x", nil); err == nil {
		t.Fatal("code 1 はエラーになるべき")
	}
	if env.store.Token() != "fresh" {
		t.Errorf("Token = %q, want fresh", env.store.Token())
	}
}

func TestDo_CustomRenewalHeaderAndLoginPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Refresh", "r1")
		writeJSON(w, http.StatusOK, map[string]any{"code": 403})
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	st := storage.NewMemory()
	store := session.Open(context.Background(), st, logger)
	nav := &fakeNavigator{}
	gw, err := New(Config{BaseURL: server.URL, LoginPath: "/signin", RenewalHeader: "X-Refresh"}, st, store, nav, logger)
	if err != nil {
		t.Fatalf("New がエラーを返した: %v", err)
	}

	gw.Get(context.Background(), "/x", nil)

	if paths := nav.Paths(); len(paths) != 1 || paths[0] != "/signin" {
		t.Errorf("遷移 = %v, want [/signin]", paths)
	}
}

func TestDo_AttachesBearerTokenFromStorage(t *testing.T) {
	var gotAuth, gotRequestID, gotLang atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		gotRequestID.Store(r.Header.Get("X-Request-ID"))
		gotLang.Store(r.Header.Get("Accept-Language"))
		writeJSON(w, http.StatusOK, map[string]any{"code": 0})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, WithLanguage(func() string { return "zh" }))
	// メモリ上のセッションではなくストレージの値が使われる
	env.storage.Set(context.Background(), "token", "stored-token")

	if _, err := env.gw.Get(context.Background(), "/x", nil); err != nil {
		t.Fatalf("Get がエラーを返した: %v", err)
	}
	if gotAuth.Load() != "Bearer stored-token" {
		t.Errorf("Authorization = %q", gotAuth.Load())
	}
	if id, _ := gotRequestID.Load().(string); id == "" {
		t.Error("X-Request-ID が設定されていない")
	}
	if gotLang.Load() != "zh" {
		t.Errorf("Accept-Language = %q, want zh", gotLang.Load())
	}
}

func TestDo_NoToken_NoAuthorizationHeader(t *testing.T) {
	var hasAuth atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["Authorization"]
		hasAuth.Store(ok)
		writeJSON(w, http.StatusOK, map[string]any{"code": 0})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.gw.Get(context.Background(), "/x", nil)

	if hasAuth.Load() {
		t.Error("トークンが無い場合は Authorization ヘッダーを付与しないべき")
	}
}

func TestDo_BuildsURLQueryAndBody(t *testing.T) {
	type captured struct {
		method, path, query, contentType, body string
	}
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.Store(captured{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("Content-Type"), string(b)})
		writeJSON(w, http.StatusOK, map[string]any{"code": 0})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL+"/api")

	env.gw.Get(context.Background(), "/author/id", url.Values{"resourceId": {"r1"}, "sort": {"1"}})
	c := got.Load().(captured)
	if c.method != http.MethodGet || c.path != "/api/author/id" || c.query != "resourceId=r1&sort=1" {
		t.Errorf("GET captured = %+v", c)
	}

	env.gw.Post(context.Background(), "/book/search", map[string]any{"keyword": "go"})
	c = got.Load().(captured)
	if c.method != http.MethodPost || c.path != "/api/book/search" {
		t.Errorf("POST captured = %+v", c)
	}
	if c.contentType != "application/json" || !strings.Contains(c.body, `"keyword":"go"`) {
		t.Errorf("POST body = %q, content-type = %q", c.body, c.contentType)
	}

	env.gw.Delete(context.Background(), "/comment/c1")
	c = got.Load().(captured)
	if c.method != http.MethodDelete || c.path != "/api/comment/c1" || c.body != "" {
		t.Errorf("DELETE captured = %+v", c)
	}
}

func TestDo_StorageReadFailure_NothingSent(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"code": 0})
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	nav := &fakeNavigator{}
	rec := &fakeRecorder{}
	store := session.Open(context.Background(), storage.NewMemory(), logger)
	gw, err := New(Config{BaseURL: server.URL}, brokenStorage{}, store, nav, logger, WithRecorder(rec))
	if err != nil {
		t.Fatalf("New がエラーを返した: %v", err)
	}

	_, err = gw.Get(context.Background(), "/x", nil)
	if !errors.Is(err, ErrPrepareRequest) {
		t.Errorf("err = %v, want ErrPrepareRequest", err)
	}
	if hits.Load() != 0 {
		t.Errorf("送信前処理の失敗時にリクエストが %d 件送信された", hits.Load())
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomePrepareError {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
}

func TestDo_Timeout_ReturnsOriginalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	env.login(t, "tok")

	_, err := env.gw.Get(context.Background(), "/slow", nil)
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Fatalf("err = %v, want *url.Error", err)
	}
	if !urlErr.Timeout() {
		t.Errorf("タイムアウトエラーであるべき: %v", err)
	}
	if !env.store.IsLoggedIn() {
		t.Error("タイムアウトではログアウトしないべき")
	}
	if len(env.recorder.outcomes) != 1 || env.recorder.outcomes[0] != OutcomeTransportError {
		t.Errorf("outcomes = %v", env.recorder.outcomes)
	}
}

func TestDo_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	env := newTestEnv(t, base)
	_, err := env.gw.Get(context.Background(), "/x", nil)
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Fatalf("err = %v, want *url.Error", err)
	}
	if len(env.nav.Paths()) != 0 {
		t.Error("ネットワークエラーでは遷移しないべき")
	}
}

func TestDo_ConcurrentUnauthorized_BothLogOut(t *testing.T) {
	var release sync.WaitGroup
	release.Add(2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 両方のリクエストが到着してから応答する
		release.Done()
		release.Wait()
		writeJSON(w, http.StatusOK, map[string]any{"code": 401, "message": "expired"})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.login(t, "tok")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.gw.Get(context.Background(), "/x", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrAuthentication) {
			t.Errorf("リクエスト %d: err = %v, want ErrAuthentication", i, err)
		}
	}
	if env.store.IsLoggedIn() || env.store.User() != nil {
		t.Error("同時 401 の後は未ログイン状態であるべき")
	}
	if env.storage.Len() != 0 {
		t.Error("同時 401 の後はストレージが空であるべき")
	}
	if paths := env.nav.Paths(); len(paths) != 2 {
		t.Errorf("遷移回数 = %d, want 2", len(paths))
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 0})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.gw.Get(ctx, "/x", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEnvelope_Decode_NullData(t *testing.T) {
	env := &Envelope{Data: json.RawMessage("null")}
	v, err := Decode[[]string](env)
	if err != nil {
		t.Fatalf("Decode がエラーを返した: %v", err)
	}
	if v != nil {
		t.Errorf("v = %v, want nil", v)
	}

	if _, err := Decode[int](&Envelope{Data: json.RawMessage(`"x"`)}); err == nil {
		t.Error("型が一致しない data はエラーになるべき")
	}
}

func TestDo_MistypedEnvelopeFields_Reject(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantMsg    string
		wantAuth   bool
		wantLogout bool
	}{
		{
			name:       "メッセージがオブジェクトの401",
			body:       `{"code":401,"message":{"zh":"expired"}}`,
			wantMsg:    defaultErrorMessage,
			wantAuth:   true,
			wantLogout: true,
		},
		{
			name:    "文字列のcode",
			body:    `{"code":"500","message":"server busy"}`,
			wantMsg: "server busy",
		},
		{
			name:    "nullのcode",
			body:    `{"code":null,"data":{"id":"b1"}}`,
			wantMsg: defaultErrorMessage,
		},
		{
			name:    "小数のcode",
			body:    `{"code":1.5,"message":7}`,
			wantMsg: defaultErrorMessage,
		},
		{
			name:    "文字列の0",
			body:    `{"code":"0","data":[]}`,
			wantMsg: defaultErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			env := newTestEnv(t, server.URL)
			env.login(t, "tok")

			got, err := env.gw.Get(context.Background(), "/x", nil)
			if err == nil {
				t.Fatalf("%s はエラーになるべき: got %+v", tt.body, got)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %#v, want *APIError", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("error message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if errors.Is(err, ErrAuthentication) != tt.wantAuth {
				t.Errorf("errors.Is(err, ErrAuthentication) = %v, want %v", !tt.wantAuth, tt.wantAuth)
			}
			if env.store.IsLoggedIn() == tt.wantLogout {
				t.Errorf("IsLoggedIn = %v, want %v", env.store.IsLoggedIn(), !tt.wantLogout)
			}
			wantNavs := 0
			if tt.wantLogout {
				wantNavs = 1
			}
			if paths := env.nav.Paths(); len(paths) != wantNavs {
				t.Errorf("遷移 = %v, want %d 回", paths, wantNavs)
			}
		})
	}
}

func TestDo_NonObjectJSONBody_RawData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []string{"a", "b"})
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	got, err := env.gw.Get(context.Background(), "/tags", nil)
	if err != nil {
		t.Fatalf("Get がエラーを返した: %v", err)
	}
	tags, err := Decode[[]string](got)
	if err != nil {
		t.Fatalf("Decode がエラーを返した: %v", err)
	}
	if len(tags) != 2 || tags[0] != "a" {
		t.Errorf("tags = %v, want [a b]", tags)
	}
}

func TestDo_BodyReadFailureOn401_LogsOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 宣言より短いボディで接続が切られる
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"code":401`)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.login(t, "tok")

	_, err := env.gw.Get(context.Background(), "/x", nil)
	if err == nil {
		t.Fatal("ボディの読み取り失敗はエラーになるべき")
	}
	if env.store.IsLoggedIn() {
		t.Error("ステータス401のレスポンスではボディが読めなくてもログアウトするべき")
	}
	if paths := env.nav.Paths(); len(paths) != 1 || paths[0] != "/login" {
		t.Errorf("遷移 = %v, want [/login]", paths)
	}
}
