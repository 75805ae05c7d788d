// Package locale は表示言語の選択を管理する。
// 手動設定が無い場合は優先言語リストから自動的に決定する。
package locale

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hitoshi/smartlib/internal/storage"
)

// 対応している言語。
const (
	Chinese = "zh"
	English = "en"
)

// StorageKeyManual は手動設定した言語を保存するストレージのキー。
const StorageKeyManual = "app-locale-manual"

var chineseBase, _ = language.Chinese.Base()

// Store は表示言語の状態を保持する。複数goroutineから同時に使用できる。
type Store struct {
	storage   storage.Storage
	logger    *slog.Logger
	preferred []string

	mu     sync.RWMutex
	manual string
}

// Open は保存済みの手動設定を読み込んだStoreを返す。
// preferredは優先順の言語リスト（例: LANGUAGE環境変数の値を分割したもの）。
func Open(ctx context.Context, st storage.Storage, preferred []string, logger *slog.Logger) *Store {
	s := &Store{storage: st, logger: logger, preferred: preferred}

	manual, err := storage.GetOrEmpty(ctx, st, StorageKeyManual)
	if err != nil {
		logger.Warn("言語設定の読み込みに失敗しました",
			slog.String("error", err.Error()),
		)
		return s
	}
	if manual != "" && !IsSupported(manual) {
		logger.Warn("保存済みの言語設定が不正なため無視します",
			slog.String("lang", manual),
		)
		return s
	}
	s.manual = manual
	return s
}

// IsSupported は対応している言語かを返す。
func IsSupported(lang string) bool {
	return lang == Chinese || lang == English
}

// Auto は優先言語リストの先頭が中国語ならzh、それ以外はenを返す。
func (s *Store) Auto() string {
	if len(s.preferred) == 0 {
		return English
	}
	tag, err := language.Parse(normalize(s.preferred[0]))
	if err != nil {
		return English
	}
	if base, _ := tag.Base(); base == chineseBase {
		return Chinese
	}
	return English
}

// Manual は手動設定された言語を返す。自動の場合は空文字列。
func (s *Store) Manual() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manual
}

// IsAuto は言語が自動決定されているかを返す。
func (s *Store) IsAuto() bool {
	return s.Manual() == ""
}

// Current は現在の表示言語を返す。
func (s *Store) Current() string {
	if m := s.Manual(); m != "" {
		return m
	}
	return s.Auto()
}

// Set は言語を手動設定する。
func (s *Store) Set(ctx context.Context, lang string) error {
	if !IsSupported(lang) {
		return fmt.Errorf("対応していない言語です: %q", lang)
	}
	s.mu.Lock()
	s.manual = lang
	s.mu.Unlock()

	return s.storage.Set(ctx, StorageKeyManual, lang)
}

// Toggle は中国語と英語を切り替え、切り替え後の言語を返す。切り替え後は手動設定になる。
func (s *Store) Toggle(ctx context.Context) (string, error) {
	next := Chinese
	if s.Current() == Chinese {
		next = English
	}
	return next, s.Set(ctx, next)
}

// ResetToAuto は手動設定を解除する。
func (s *Store) ResetToAuto(ctx context.Context) error {
	s.mu.Lock()
	s.manual = ""
	s.mu.Unlock()

	return s.storage.Remove(ctx, StorageKeyManual)
}

// Tag は現在の表示言語のlanguage.Tagを返す。
func (s *Store) Tag() language.Tag {
	if s.Current() == Chinese {
		return language.Chinese
	}
	return language.English
}

// Printer は現在の表示言語でメッセージを整形するPrinterを返す。
func (s *Store) Printer() *message.Printer {
	return message.NewPrinter(s.Tag(), message.Catalog(messageCatalog))
}

// PreferredFromEnv はLANGUAGEとLANG環境変数の値から優先言語リストを作る。
// LANGUAGEはコロン区切りのリスト、LANGは単一のロケール。
func PreferredFromEnv(languageVar, langVar string) []string {
	var out []string
	for _, l := range strings.Split(languageVar, ":") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if langVar = strings.TrimSpace(langVar); langVar != "" && langVar != "C" && langVar != "POSIX" {
		out = append(out, langVar)
	}
	return out
}

// normalize はPOSIXロケール形式（zh_CN.UTF-8）をBCP 47形式（zh-CN）に変換する。
func normalize(l string) string {
	if i := strings.IndexAny(l, ".@"); i >= 0 {
		l = l[:i]
	}
	return strings.ReplaceAll(l, "_", "-")
}
