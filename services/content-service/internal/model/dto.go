package model

import "github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/domain"

// ArticleQuery holds the query-string filters of GET /articles.
type ArticleQuery struct {
	Page      string `form:"page"`
	Published *bool  `form:"published"`
	Search    string `form:"search"`
	Limit     int    `form:"limit" binding:"omitempty,min=0,max=100"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// Filter converts the query into a repository filter.
func (q ArticleQuery) Filter() domain.ArticleFilter {
	f := domain.ArticleFilter{
		Published: q.Published,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if q.Page != "" {
		page := q.Page
		f.PageID = &page
	}
	if q.Search != "" {
		search := q.Search
		f.Search = &search
	}
	return f
}

// ListArticlesResponse is the body of GET /articles.
type ListArticlesResponse struct {
	Articles []*domain.Article `json:"articles"`
	Count    int               `json:"count"`
}
