package api

import (
	"context"
	"errors"

	"github.com/hitoshi/smartlib/internal/session"
)

// LoginRequest はログインのリクエスト。
type LoginRequest struct {
	PhoneOrEmail string `json:"phoneOrEmail"`
	Password     string `json:"password"`
}

// RegisterRequest はユーザー登録のリクエスト。
type RegisterRequest struct {
	PhoneOrEmail    string `json:"phoneOrEmail"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UserSearchRequest はユーザー検索の条件。
type UserSearchRequest struct {
	UserID       string `json:"userId,omitempty"`
	Username     string `json:"username,omitempty"`
	PhoneOrEmail string `json:"phoneOrEmail,omitempty"`
}

// UserPublic はユーザーの公開情報。
type UserPublic struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// ErrPasswordMismatch は確認用パスワードが一致しない場合に返される。
var ErrPasswordMismatch = errors.New("api: passwords do not match")

// Login はログインし、トークンを含むユーザー情報を返す。
// 戻り値はそのままsession.Store.Loginに渡せる。
func (c *Client) Login(ctx context.Context, req LoginRequest) (session.Profile, error) {
	return fetch[session.Profile](c.post(ctx, "/user/login", req))
}

// Register はユーザーを登録する。
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	_, err := c.post(ctx, "/user/register", req)
	return err
}

// SearchUsers は条件に一致するユーザーを検索する。
func (c *Client) SearchUsers(ctx context.Context, req UserSearchRequest) ([]UserPublic, error) {
	return fetch[[]UserPublic](c.post(ctx, "/user/search", req))
}

// Logout はバックエンド側のトークンを無効化する。
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.post(ctx, "/user/logout", nil)
	return err
}
