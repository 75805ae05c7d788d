// Package api はバックエンドの各リソースAPIを呼び出すクライアントを提供する。
// 全ての呼び出しはgateway.Gatewayを経由する。
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/smartlib/internal/gateway"
)

// Doer はリクエストを送信してエンベロープを返す。*gateway.Gatewayが実装する。
type Doer interface {
	Do(ctx context.Context, r gateway.Request) (*gateway.Envelope, error)
}

// Client はバックエンドAPIのクライアント。
type Client struct {
	doer Doer
}

// NewClient はClientを生成する。
func NewClient(doer Doer) *Client {
	return &Client{doer: doer}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*gateway.Envelope, error) {
	return c.doer.Do(ctx, gateway.Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) post(ctx context.Context, path string, body any) (*gateway.Envelope, error) {
	return c.doer.Do(ctx, gateway.Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) delete(ctx context.Context, path string) (*gateway.Envelope, error) {
	return c.doer.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: path})
}

// fetch はリクエスト結果のdataを型Tとしてデコードする。
func fetch[T any](env *gateway.Envelope, err error) (T, error) {
	if err != nil {
		var zero T
		return zero, err
	}
	return gateway.Decode[T](env)
}

// pathID はパスに埋め込むIDをエスケープする。
func pathID(id string) string {
	return url.PathEscape(id)
}
