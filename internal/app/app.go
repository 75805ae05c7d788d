// Package app はCLIのエントリーポイントと依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/message"

	"github.com/hitoshi/smartlib/internal/api"
	"github.com/hitoshi/smartlib/internal/config"
	"github.com/hitoshi/smartlib/internal/favorite"
	"github.com/hitoshi/smartlib/internal/gateway"
	"github.com/hitoshi/smartlib/internal/locale"
	"github.com/hitoshi/smartlib/internal/logger"
	"github.com/hitoshi/smartlib/internal/metrics"
	"github.com/hitoshi/smartlib/internal/route"
	"github.com/hitoshi/smartlib/internal/security"
	"github.com/hitoshi/smartlib/internal/session"
	"github.com/hitoshi/smartlib/internal/storage"
)

// App はCLIコマンドが利用する依存関係をまとめたもの。
type App struct {
	cfg    *config.Config
	out    io.Writer
	logger *slog.Logger

	storage      storage.Storage
	closeStorage func() error

	session   *session.Store
	locale    *locale.Store
	router    *route.Router
	registry  *prometheus.Registry
	collector *metrics.Collector
	gateway   *gateway.Gateway
	api       *api.Client
	sanitizer security.ContentSanitizerService
}

// Init はログをセットアップし、環境変数からConfigを読み込む。
// ログはlogOutに出力する。
func Init(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.SetupDefault(logOut, slog.LevelInfo)
		return nil, nil, fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	return cfg, logger.SetupDefault(logOut, cfg.LogLevel), nil
}

// Run はCLIのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。コマンドの出力はstdoutに、ログはstderrに書き込む。
func Run(stdout, stderr io.Writer, args []string) error {
	cmd := ParseCommand(args)
	var rest []string
	if len(args) > 0 {
		rest = args[1:]
	}

	if cmd == CommandHelp {
		fmt.Fprint(stdout, usage)
		if len(args) > 0 && args[0] != string(CommandHelp) {
			return fmt.Errorf("不明なコマンドです: %s", args[0])
		}
		return nil
	}

	cfg, log, err := Init(stderr)
	if err != nil {
		return fmt.Errorf("初期化に失敗しました: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == CommandHealthcheck {
		return runHealthcheck(ctx, stdout, cfg, log)
	}

	a, err := New(ctx, cfg, stdout, log)
	if err != nil {
		return fmt.Errorf("初期化に失敗しました: %w", err)
	}
	defer a.Close()

	log.Debug("running command", slog.String("command", string(cmd)))

	return a.Execute(ctx, cmd, rest)
}

// New はConfigから全依存関係をワイヤリングしたAppを生成する。
func New(ctx context.Context, cfg *config.Config, out io.Writer, log *slog.Logger) (*App, error) {
	st, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:          cfg,
		out:          out,
		logger:       log,
		storage:      st,
		closeStorage: closeStorage,
		sanitizer:    security.NewContentSanitizer(),
	}

	a.session = session.Open(ctx, st, logger.Component(log, "session"))
	a.locale = locale.Open(ctx, st, locale.PreferredFromEnv(cfg.Language, cfg.Lang), logger.Component(log, "locale"))
	a.router = route.New(a.session, logger.Component(log, "route"))
	a.router.OnChange(func(from, to route.Location) {
		if to.Route.Name == route.NameLogin && from.Route.Name != route.NameLogin {
			fmt.Fprintln(a.out, a.printer().Sprintf(locale.MsgRedirectedLogin))
		}
	})

	a.registry = prometheus.NewRegistry()
	a.collector = metrics.NewCollector(a.registry)

	a.gateway, err = gateway.New(gateway.Config{
		BaseURL:       cfg.APIURL,
		Timeout:       cfg.Timeout,
		LoginPath:     cfg.LoginPath,
		RenewalHeader: cfg.RenewalHeader,
	}, st, a.session, a.router, logger.Component(log, "gateway"),
		gateway.WithRecorder(a.collector),
		gateway.WithLanguage(a.locale.Current),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("Gatewayの作成に失敗しました: %w", err)
	}
	a.api = api.NewClient(a.gateway)

	return a, nil
}

// Close はストレージの接続を閉じる。
func (a *App) Close() error {
	if a.closeStorage == nil {
		return nil
	}
	return a.closeStorage()
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, func() error, error) {
	nop := func() error { return nil }

	switch cfg.StorageDriver {
	case config.StorageMemory:
		return storage.NewMemory(), nop, nil
	case config.StorageRedis:
		r, err := storage.OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("Redisストレージの接続に失敗しました: %w", err)
		}
		return r, r.Close, nil
	default:
		return storage.NewFile(cfg.StateFile), nop, nil
	}
}

func (a *App) printer() *message.Printer {
	return a.locale.Printer()
}

func (a *App) printf(key string, args ...any) {
	fmt.Fprintln(a.out, a.printer().Sprintf(key, args...))
}

// CommandError はユーザー向けに整形したメッセージを持つエラー。
// 元のエラーはerrors.Is/errors.Asで参照できる。
type CommandError struct {
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// fail はエラーを表示用のメッセージに変換する。
func (a *App) fail(err error) error {
	p := a.printer()

	var msg string
	switch {
	case errors.Is(err, favorite.ErrLoginRequired), errors.Is(err, session.ErrNotLoggedIn):
		msg = p.Sprintf(locale.MsgLoginRequired)
	case errors.Is(err, gateway.ErrAuthentication):
		msg = p.Sprintf(locale.MsgSessionExpired)
	default:
		fallback := p.Sprintf(locale.MsgOperationFailed)
		if msg = gateway.Message(err, fallback); msg == fallback {
			msg = fallback + ": " + err.Error()
		}
	}

	a.logger.Debug("command failed", slog.String("error", err.Error()))
	return &CommandError{Message: msg, Err: err}
}
