package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	// ErrUnresolvedPlaceholder means the content still references staged
	// images that were never uploaded.
	ErrUnresolvedPlaceholder = errors.New("content still contains temporary images")
	ErrInvalidPage           = errors.New("unknown page")
	ErrInvalidVideo          = errors.New("unsupported video url")
)

// Pages an article can be published on.
var Pages = map[string]bool{
	"velonews":      true,
	"artigos":       true,
	"bot_perguntas": true,
}

// NormalizePage maps the console's page ids onto stored page names.
func NormalizePage(pageID string) (string, error) {
	if pageID == "botPerguntas" {
		pageID = "bot_perguntas"
	}
	if !Pages[pageID] {
		return "", ErrInvalidPage
	}
	return pageID, nil
}

// Media lists the uploaded images and the videos referenced by an article.
type Media struct {
	Images []string `json:"images"`
	Videos []string `json:"videos"`
}

type Article struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	PageID      string     `json:"page_id" gorm:"index;not null"`
	Title       string     `json:"title" gorm:"not null"`
	Content     string     `json:"content" gorm:"type:text"`
	Media       Media      `json:"media" gorm:"serializer:json;type:jsonb"`
	AuthorID    string     `json:"author_id" gorm:"index"`
	AuthorName  string     `json:"author_name,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CreateArticleRequest struct {
	PageID    string `json:"pageId" binding:"required"`
	Title     string `json:"title" binding:"required,min=1,max=200"`
	Content   string `json:"content" binding:"required"`
	Media     Media  `json:"media"`
	Published bool   `json:"published"`
}

type UpdateArticleRequest struct {
	Title     *string `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Content   *string `json:"content,omitempty"`
	Media     *Media  `json:"media,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

type ArticleFilter struct {
	PageID    *string
	Published *bool
	Search    *string
	Limit     int
	Offset    int
}

// Author identifies the operator making a change.
type Author struct {
	ID   string
	Name string
}

// RenderedArticle pairs an article with its sanitized display HTML.
type RenderedArticle struct {
	Article *Article `json:"article"`
	HTML    string   `json:"html"`
}

type ArticleRepository interface {
	Create(ctx context.Context, article *Article) error
	GetByID(ctx context.Context, id uint) (*Article, error)
	GetAll(ctx context.Context, filter ArticleFilter) ([]*Article, error)
	Update(ctx context.Context, article *Article) error
	Delete(ctx context.Context, id uint) error
}

type ArticleService interface {
	CreateArticle(ctx context.Context, req CreateArticleRequest, author Author) (*Article, error)
	GetArticle(ctx context.Context, id uint) (*Article, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]*Article, error)
	UpdateArticle(ctx context.Context, id uint, req UpdateArticleRequest) (*Article, error)
	DeleteArticle(ctx context.Context, id uint) error
	RenderArticle(ctx context.Context, id uint) (*RenderedArticle, error)
}
