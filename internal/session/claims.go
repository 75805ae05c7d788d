package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims はトークンに含まれる主要なクレーム。
type TokenClaims struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// Expired はtime時点でトークンが期限切れかを返す。期限が無い場合はfalse。
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

type backendClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Claims は現在のトークンをデコードしてクレームを返す。
// 署名は検証しない（検証はバックエンドの責務）。表示用途に限って使用する。
func (s *Store) Claims() (TokenClaims, error) {
	token := s.Token()
	if token == "" {
		return TokenClaims{}, ErrNotLoggedIn
	}
	return ParseClaims(token)
}

// ParseClaims はトークン文字列を署名検証なしでデコードする。
func ParseClaims(token string) (TokenClaims, error) {
	var claims backendClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, fmt.Errorf("トークンのデコードに失敗しました: %w", err)
	}

	tc := TokenClaims{
		UserID:   claims.UserID,
		Username: claims.Username,
	}
	if tc.UserID == "" {
		tc.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		tc.ExpiresAt = claims.ExpiresAt.Time
	}
	if tc.UserID == "" && tc.ExpiresAt.IsZero() {
		return TokenClaims{}, errors.New("トークンに必要なクレームが含まれていません")
	}
	return tc, nil
}
