package api

import (
	"context"
	"net/url"
	"strconv"
)

// Author は著者の詳細情報。
type Author struct {
	AuthorID    string `json:"authorId"`
	Name        string `json:"name"`
	Nationality string `json:"nationality,omitempty"`
	Intro       string `json:"intro,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Books       []Book `json:"books,omitempty"`
}

// GetAuthor は著者の詳細を取得する。
func (c *Client) GetAuthor(ctx context.Context, authorID string) (Author, error) {
	if authorID == "" {
		return Author{}, ErrEmptyID
	}
	return fetch[Author](c.get(ctx, "/author/"+pathID(authorID), nil))
}

// AuthorID は図書の第sort著者のIDを取得する。sortは1始まり。
func (c *Client) AuthorID(ctx context.Context, resourceID string, sort int) (string, error) {
	if resourceID == "" {
		return "", ErrEmptyID
	}
	q := url.Values{
		"resourceId": {resourceID},
		"sort":       {strconv.Itoa(sort)},
	}
	return fetch[string](c.get(ctx, "/author/id", q))
}
