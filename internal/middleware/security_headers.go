package middleware

import "net/http"

// SetSecurityHeaders はセキュリティ関連のレスポンスヘッダーを設定する。
// バックエンドが同じヘッダーを返していても上書きする。
func SetSecurityHeaders(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Cache-Control", "no-store")
}

// NewSecurityHeadersMiddleware はプロキシ自身が応答するエンドポイント用に
// セキュリティヘッダーを付与するミドルウェアを返す。
// プロキシするレスポンスにはReverseProxy.ModifyResponseからSetSecurityHeadersを適用する。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetSecurityHeaders(w.Header())
			next.ServeHTTP(w, r)
		})
	}
}
