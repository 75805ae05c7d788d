// Package logger はJSON構造化ログの出力を設定する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup はlevel以上のログをJSONでwに出力するslog.Loggerを返す。
func Setup(w io.Writer, level slog.Leveler) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if level == nil {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(slog.String("app", "smartlib"))
}

// SetupDefault はSetupで生成したロガーをグローバルロガーとして設定して返す。
// CLIの標準出力を汚さないよう、wがnilの場合はos.Stderrに出力する。
func SetupDefault(w io.Writer, level slog.Leveler) *slog.Logger {
	l := Setup(w, level)
	slog.SetDefault(l)
	return l
}

// Component はコンポーネント名を付与したロガーを返す。
func Component(l *slog.Logger, name string) *slog.Logger {
	return l.With(slog.String("component", name))
}
