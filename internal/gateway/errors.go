package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// 認証エラーとして扱うコード。エンベロープのcodeとHTTPステータスの両方に適用する。
const (
	codeUnauthorized = http.StatusUnauthorized
	codeForbidden    = http.StatusForbidden
)

// defaultErrorMessage はエンベロープにmessageが無い場合のエラーメッセージ。
const defaultErrorMessage = "Error"

var (
	// ErrAuthentication は401または403による失敗を表す。
	// APIErrorとStatusErrorはerrors.Isでこのエラーと一致する。
	ErrAuthentication = errors.New("gateway: authentication failed")

	// ErrPrepareRequest はリクエストの送信前処理に失敗したことを表す。
	// この場合リクエストは送信されていない。
	ErrPrepareRequest = errors.New("gateway: failed to prepare request")
)

func isAuthCode(code int) bool {
	return code == codeUnauthorized || code == codeForbidden
}

// APIError はエンベロープのcodeが成功以外だった場合のアプリケーションエラー。
// codeが整数でなかった場合Codeは0。
type APIError struct {
	Code    int
	Message string
}

// Error はエンベロープのメッセージをそのまま返す。
func (e *APIError) Error() string {
	return e.Message
}

// Is は認証エラーコードの場合にErrAuthenticationと一致する。
func (e *APIError) Is(target error) bool {
	return target == ErrAuthentication && isAuthCode(e.Code)
}

// StatusError はバックエンドが2xx以外のHTTPステータスを返した場合のエラー。
// レスポンスの内容を保持する。
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Envelope はボディをエンベロープとして解釈した結果。
	Envelope *Envelope
}

func (e *StatusError) Error() string {
	if e.Envelope != nil && e.Envelope.Message != "" {
		return fmt.Sprintf("バックエンドがステータス %d を返しました: %s", e.StatusCode, e.Envelope.Message)
	}
	return fmt.Sprintf("バックエンドがステータス %d を返しました", e.StatusCode)
}

// Is は401/403の場合にErrAuthenticationと一致する。
func (e *StatusError) Is(target error) bool {
	return target == ErrAuthentication && isAuthCode(e.StatusCode)
}

// Message はユーザーに表示するためのエラーメッセージを取り出す。
// バックエンドのメッセージがあればそれを、無ければfallbackを返す。
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Envelope != nil && statusErr.Envelope.Message != "" {
		return statusErr.Envelope.Message
	}
	return fallback
}
