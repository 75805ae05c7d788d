package api

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// Comment は図書へのコメント。
type Comment struct {
	CommentID  string `json:"commentId"`
	ResourceID string `json:"resourceId"`
	UserID     string `json:"userId"`
	Username   string `json:"username,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	Content    string `json:"content"`
	ParentID   string `json:"parentId,omitempty"`
	Ctime      string `json:"ctime,omitempty"`
}

// CreateCommentRequest はコメント作成のリクエスト。
type CreateCommentRequest struct {
	ResourceID string `json:"resourceId"`
	Content    string `json:"content"`
	ParentID   string `json:"parentId,omitempty"`
}

// ErrEmptyComment はコメント本文が空の場合に返される。
var ErrEmptyComment = errors.New("api: comment content is empty")

// Comments は図書のコメント一覧を取得する。
func (c *Client) Comments(ctx context.Context, resourceID string) ([]Comment, error) {
	if resourceID == "" {
		return nil, ErrEmptyID
	}
	return fetch[[]Comment](c.get(ctx, "/comment/list", url.Values{"resourceId": {resourceID}}))
}

// CreateComment はコメントを投稿し、作成されたコメントを返す。
func (c *Client) CreateComment(ctx context.Context, req CreateCommentRequest) (Comment, error) {
	if req.ResourceID == "" {
		return Comment{}, ErrEmptyID
	}
	if strings.TrimSpace(req.Content) == "" {
		return Comment{}, ErrEmptyComment
	}
	return fetch[Comment](c.post(ctx, "/comment/create", req))
}

// DeleteComment はコメントを削除する。
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	if commentID == "" {
		return ErrEmptyID
	}
	_, err := c.delete(ctx, "/comment/"+pathID(commentID))
	return err
}
