package api

import (
	"context"
	"net/url"
	"strconv"
)

// Favorite はユーザーのお気に入りに登録された図書。
type Favorite struct {
	ResourceID string `json:"resourceId"`
	Title      string `json:"title"`
	CoverURL   string `json:"coverUrl,omitempty"`
	Ctime      string `json:"ctime,omitempty"`
}

// お気に入り一覧のデフォルト値。
const DefaultFavoriteLimit = 20

// AddFavorite は図書をお気に入りに追加する。
func (c *Client) AddFavorite(ctx context.Context, resourceID string) (bool, error) {
	if resourceID == "" {
		return false, ErrEmptyID
	}
	return fetch[bool](c.post(ctx, "/favorite/add/"+pathID(resourceID), nil))
}

// RemoveFavorite は図書をお気に入りから削除する。
func (c *Client) RemoveFavorite(ctx context.Context, resourceID string) (bool, error) {
	if resourceID == "" {
		return false, ErrEmptyID
	}
	return fetch[bool](c.delete(ctx, "/favorite/remove/"+pathID(resourceID)))
}

// CheckFavorite は図書がお気に入り登録済みかを返す。
func (c *Client) CheckFavorite(ctx context.Context, resourceID string) (bool, error) {
	if resourceID == "" {
		return false, ErrEmptyID
	}
	return fetch[bool](c.get(ctx, "/favorite/check/"+pathID(resourceID), nil))
}

// Favorites はお気に入り一覧を取得する。limitが0以下の場合はDefaultFavoriteLimit。
func (c *Client) Favorites(ctx context.Context, limit, offset int) ([]Favorite, error) {
	if limit <= 0 {
		limit = DefaultFavoriteLimit
	}
	if offset < 0 {
		offset = 0
	}
	q := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	return fetch[[]Favorite](c.get(ctx, "/favorite/list", q))
}

// CountFavorites はお気に入り数を取得する。
func (c *Client) CountFavorites(ctx context.Context) (int, error) {
	return fetch[int](c.get(ctx, "/favorite/count", nil))
}
