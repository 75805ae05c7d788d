package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope はプロキシ自身が返すエラーレスポンス。
// バックエンドと同じ {code, message, data} 形式にそろえる。
type ErrorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// WriteErrorResponse はHTTPステータスと同じコードを持つエンベロープを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorEnvelope{
		Code:    statusCode,
		Message: message,
	})
}

// WriteInternalServerError は内部エラーのレスポンスを書き込む。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, "内部エラーが発生しました")
}
