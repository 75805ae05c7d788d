package api

import (
	"context"
	"errors"
)

// AuthorBrief は図書に付随する著者情報。
type AuthorBrief struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
	Sort     int    `json:"sort,omitempty"`
}

// Book は検索結果などに含まれる図書の公開情報。
type Book struct {
	ResourceID  string        `json:"resourceId"`
	Title       string        `json:"title"`
	CoverURL    string        `json:"coverUrl,omitempty"`
	Authors     []AuthorBrief `json:"authors,omitempty"`
	Publisher   string        `json:"publisher,omitempty"`
	PublishDate string        `json:"publishDate,omitempty"`
	Description string        `json:"description,omitempty"`
}

// ResourceFile は図書に紐づく電子ファイル。
type ResourceFile struct {
	ResourceID   string `json:"resourceId"`
	FileType     int    `json:"fileType"`
	FileTypeDesc string `json:"fileTypeDesc"`
	FileURL      string `json:"fileUrl"`
	FileSize     int64  `json:"fileSize"`
	Ctime        string `json:"ctime,omitempty"`
}

// BookDetail は図書の詳細情報。
type BookDetail struct {
	Book
	ISBN           string         `json:"isbn,omitempty"`
	Price          float64        `json:"price,omitempty"`
	PageCount      int            `json:"pageCount,omitempty"`
	DOI            string         `json:"doi,omitempty"`
	Files          []ResourceFile `json:"files,omitempty"`
	Summary        string         `json:"summary,omitempty"`
	SourceOrigin   int            `json:"sourceOrigin,omitempty"`
	SourceURL      string         `json:"sourceUrl,omitempty"`
	SentimentScore float64        `json:"sentimentScore,omitempty"`
	CategoryPaths  [][]Category   `json:"categoryPaths,omitempty"`
	Ctime          string         `json:"ctime,omitempty"`
	Mtime          string         `json:"mtime,omitempty"`
}

// Category は図書の分類。
type Category struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	ParentID   string `json:"parentId,omitempty"`
	Level      int    `json:"level,omitempty"`
}

// Tag は図書のタグ。
type Tag struct {
	TagID string `json:"tagId"`
	Name  string `json:"name"`
}

// SearchParams は図書検索の条件。
type SearchParams struct {
	PageNum     int      `json:"pageNum"`
	PageSize    int      `json:"pageSize"`
	Keyword     string   `json:"keyword,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	TagIDs      []string `json:"tagIds,omitempty"`
	SortBy      string   `json:"sortBy,omitempty"`
}

// 検索のデフォルト値。
const (
	DefaultPageNum  = 1
	DefaultPageSize = 20
)

// Page はページング結果。
type Page[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	PageNum  int   `json:"pageNum"`
	PageSize int   `json:"pageSize"`
}

// ErrEmptyID はIDが空の場合に返される。
var ErrEmptyID = errors.New("api: id is empty")

// SearchBooks は条件に一致する図書を検索する。
// PageNumとPageSizeが0以下の場合はデフォルト値を使用する。
func (c *Client) SearchBooks(ctx context.Context, p SearchParams) (Page[Book], error) {
	if p.PageNum <= 0 {
		p.PageNum = DefaultPageNum
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	return fetch[Page[Book]](c.post(ctx, "/book/search", p))
}

// GetBook は図書の詳細を取得する。
func (c *Client) GetBook(ctx context.Context, bookID string) (BookDetail, error) {
	if bookID == "" {
		return BookDetail{}, ErrEmptyID
	}
	return fetch[BookDetail](c.get(ctx, "/book/"+pathID(bookID), nil))
}

// Categories は全ての分類を取得する。
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return fetch[[]Category](c.get(ctx, "/category/list", nil))
}

// Tags は全てのタグを取得する。
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	return fetch[[]Tag](c.get(ctx, "/tag/list", nil))
}
