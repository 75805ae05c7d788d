// Package security はバックエンドから受け取ったコンテンツを安全に表示するための機能を提供する。
//
// 図書の概要や著者紹介、コメントにはクロール元のHTMLが含まれることがあるため、
// 表示前に許可リストベースでサニタイズし、端末表示用にはプレーンテキストへ変換する。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェース。
type ContentSanitizerService interface {
	// Sanitize は許可タグのみを残したHTMLを返す。
	Sanitize(rawHTML string) string
	// PlainText はHTMLを端末表示用のプレーンテキストに変換する。
	PlainText(rawHTML string) string
}

// ContentSanitizer はContentSanitizerServiceの実装。複数goroutineから同時に使用できる。
type ContentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, strong, em, b, i, h3, h4, img
//   - script, iframe, style および on* イベント属性は除去
//   - a と img の URL は https のみ許可
//   - a には target="_blank" と rel="noopener noreferrer" を付与
func NewContentSanitizer() *ContentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em", "b", "i",
		"h3", "h4",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// 表紙画像はCDN（MinIO）のURLを想定
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return u.Host != ""
	})

	return &ContentSanitizer{policy: p}
}

// Sanitize は許可タグのみを残したHTMLを返す。同一入力に対して常に同一出力を返す。
func (s *ContentSanitizer) Sanitize(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}
	return s.policy.Sanitize(rawHTML)
}

// PlainText はサニタイズ後のHTMLをプレーンテキストに変換する。
func (s *ContentSanitizer) PlainText(rawHTML string) string {
	return renderText(s.Sanitize(rawHTML))
}
