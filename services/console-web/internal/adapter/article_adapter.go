package adapter

import (
	"context"
	"fmt"
)

// Media is the image and video list sent with an article.
type Media struct {
	Images []string `json:"images"`
	Videos []string `json:"videos"`
}

// ArticlePayload is the body content-service accepts for a page.
type ArticlePayload struct {
	PageID    string `json:"pageId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Media     Media  `json:"media"`
	Published bool   `json:"published"`
}

// SavedArticle is the part of the stored article the console needs back.
type SavedArticle struct {
	ID     uint   `json:"id"`
	PageID string `json:"page_id"`
	Title  string `json:"title"`
}

// GatewayError carries a non-2xx answer from the gateway.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Message)
}

type ArticleAdapter interface {
	// Save creates the article, or replaces it when articleID is set.
	Save(ctx context.Context, accessToken, articleID string, payload ArticlePayload) (*SavedArticle, error)
}
