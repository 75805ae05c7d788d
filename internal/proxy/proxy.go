// Package proxy は開発用のリバースプロキシを提供する。
// /api 配下のリクエストをプレフィックスを外してバックエンドに転送する。
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/smartlib/internal/config"
	"github.com/hitoshi/smartlib/internal/metrics"
	"github.com/hitoshi/smartlib/internal/middleware"
)

// Server は開発用リバースプロキシ。
type Server struct {
	cfg     config.ProxyConfig
	backend *url.URL
	logger  *slog.Logger
	limiter *middleware.RateLimiter
	handler http.Handler
}

// Deps はServerの依存関係。
type Deps struct {
	Collector     metrics.MetricsCollector
	Gatherer      prometheus.Gatherer
	RenewalHeader string
	Logger        *slog.Logger
}

// New はServerを生成する。BackendURLにはスキームとホストが必要。
func New(cfg config.ProxyConfig, deps Deps) (*Server, error) {
	backend, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("バックエンドURLのパースに失敗しました: %w", err)
	}
	if backend.Scheme == "" || backend.Host == "" {
		return nil, fmt.Errorf("バックエンドURLにスキームとホストが必要です: %q", cfg.BackendURL)
	}

	prefix := "/" + strings.Trim(cfg.PathPrefix, "/")
	if prefix == "/" {
		return nil, errors.New("パスプレフィックスが空です")
	}
	cfg.PathPrefix = prefix

	s := &Server{
		cfg:     cfg,
		backend: backend,
		logger:  deps.Logger,
		limiter: middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimit), deps.Logger, deps.Collector),
	}
	s.handler = s.routes(deps)
	return s, nil
}

// routes はミドルウェアチェーンとルーティングを構成する。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Logging → RateLimit
//
// セキュリティヘッダーはプロキシ自身が応答するルートにはミドルウェアで、
// 転送するレスポンスにはModifyResponseで付与する。
func (s *Server) routes(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(s.logger))
	r.Use(middleware.NewCORSMiddleware(s.cfg.CORSOrigin, deps.RenewalHeader))
	r.Use(middleware.NewLoggingMiddleware(s.logger, deps.Collector))
	r.Use(s.limiter.Middleware())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Get("/health", s.health)
		if deps.Gatherer != nil {
			r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
		}
	})

	r.Mount(s.cfg.PathPrefix, http.StripPrefix(s.cfg.PathPrefix, s.reverseProxy()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.SetSecurityHeaders(w.Header())
		middleware.WriteErrorResponse(w, http.StatusNotFound, "Not Found")
	})

	return r
}

func (s *Server) reverseProxy() *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			// SetURLはHostヘッダーもバックエンドのものに書き換える
			pr.SetURL(s.backend)
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			if s.cfg.CORSOrigin != "" {
				for k := range resp.Header {
					if strings.HasPrefix(k, "Access-Control-") {
						resp.Header.Del(k)
					}
				}
			}
			middleware.SetSecurityHeaders(resp.Header)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Error("バックエンドへの転送に失敗しました",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			middleware.SetSecurityHeaders(w.Header())
			middleware.WriteErrorResponse(w, http.StatusBadGateway, "Bad Gateway")
		},
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Handler はミドルウェア適用済みのHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr は待ち受けアドレスを返す。
func (s *Server) Addr() string {
	return ":" + s.cfg.Port
}

// Run はPortで待ち受け、ctxがキャンセルされるまでリクエストを処理する。
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("待ち受けに失敗しました: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve は指定したリスナーでリクエストを処理する。
// ctxがキャンセルされるとShutdownTimeoutの範囲でグレースフルシャットダウンを行う。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.limiter.Stop()

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("proxy starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("backend", s.backend.String()),
		)
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("proxy server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down proxy...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("proxy shutdown failed: %w", err)
	}

	s.logger.Info("proxy stopped gracefully")
	return nil
}
