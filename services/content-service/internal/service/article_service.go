package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/markdown"
	"github.com/admVeloHub/Console-v2-gcp/pkg/media"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/adapter"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/domain"
)

type articleService struct {
	repo   domain.ArticleRepository
	images adapter.ImageAdapter
	conv   *markdown.Converter
	log    *logger.Logger
}

// NewArticleService creates a new ArticleService with the given repository and image adapter.
func NewArticleService(repo domain.ArticleRepository, images adapter.ImageAdapter, conv *markdown.Converter, log *logger.Logger) domain.ArticleService {
	return &articleService{repo: repo, images: images, conv: conv, log: log}
}

// CreateArticle validates and stores a new article.
func (s *articleService) CreateArticle(ctx context.Context, req domain.CreateArticleRequest, author domain.Author) (*domain.Article, error) {
	page, err := domain.NormalizePage(req.PageID)
	if err != nil {
		return nil, err
	}
	if err := checkContent(req.Content); err != nil {
		return nil, err
	}
	m, err := s.normalizeMedia(req.Media, req.Content)
	if err != nil {
		return nil, err
	}
	article := &domain.Article{
		PageID:     page,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Media:      m,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Published:  req.Published,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}
	s.log.With("article_id", article.ID).With("page", page).Info("article created")
	return article, nil
}

// GetArticle retrieves an article by its ID.
func (s *articleService) GetArticle(ctx context.Context, id uint) (*domain.Article, error) {
	return s.repo.GetByID(ctx, id)
}

// ListArticles returns the articles matching filter.
func (s *articleService) ListArticles(ctx context.Context, filter domain.ArticleFilter) ([]*domain.Article, error) {
	if filter.PageID != nil {
		page, err := domain.NormalizePage(*filter.PageID)
		if err != nil {
			return nil, err
		}
		filter.PageID = &page
	}
	return s.repo.GetAll(ctx, filter)
}

// UpdateArticle applies the fields present in req. Images dropped from the
// article are deleted from storage after the update succeeds.
func (s *articleService) UpdateArticle(ctx context.Context, id uint, req domain.UpdateArticleRequest) (*domain.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := s.imagesOf(article)

	if req.Title != nil {
		article.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		if err := checkContent(*req.Content); err != nil {
			return nil, err
		}
		article.Content = *req.Content
	}
	if req.Published != nil {
		article.Published = *req.Published
	}
	m := article.Media
	if req.Media != nil {
		m = *req.Media
	}
	if article.Media, err = s.normalizeMedia(m, article.Content); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}

	after := make(map[string]bool)
	for _, u := range s.imagesOf(article) {
		after[u] = true
	}
	var orphaned []string
	for _, u := range before {
		if !after[u] {
			orphaned = append(orphaned, u)
		}
	}
	if len(orphaned) > 0 {
		n := s.images.DeleteImages(ctx, orphaned)
		s.log.With("article_id", id).Debug(fmt.Sprintf("deleted %d orphaned images", n))
	}
	return article, nil
}

// DeleteArticle removes the article, then its images (best effort).
func (s *articleService) DeleteArticle(ctx context.Context, id uint) error {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	n := s.images.DeleteImages(ctx, s.imagesOf(article))
	s.log.With("article_id", id).Info(fmt.Sprintf("article deleted with %d images", n))
	return nil
}

// RenderArticle returns the article with its sanitized display HTML.
func (s *articleService) RenderArticle(ctx context.Context, id uint) (*domain.RenderedArticle, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.RenderedArticle{Article: article, HTML: s.conv.Render(article.Content)}, nil
}

func checkContent(content string) error {
	if n := imageupload.CountTemporaryImages(content); n > 0 {
		return fmt.Errorf("%w: %d unresolved", domain.ErrUnresolvedPlaceholder, n)
	}
	return nil
}

// normalizeMedia canonicalizes video URLs and lists images by object name
// (img_<page>/<file>), adding every stored image the content shows.
func (s *articleService) normalizeMedia(m domain.Media, content string) (domain.Media, error) {
	out := domain.Media{Images: []string{}, Videos: []string{}}
	for _, v := range m.Videos {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		canonical, ok := media.CanonicalVideoURL(v)
		if !ok {
			return domain.Media{}, fmt.Errorf("%w: %s", domain.ErrInvalidVideo, v)
		}
		out.Videos = appendUnique(out.Videos, canonical)
	}
	for _, img := range m.Images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if name, ok := media.ObjectName(img); ok {
			img = name
		}
		out.Images = appendUnique(out.Images, img)
	}
	for _, src := range s.conv.ImageSources(content) {
		if name, ok := media.ObjectName(src); ok {
			out.Images = appendUnique(out.Images, name)
		}
	}
	return out, nil
}

// imagesOf returns the object names of every stored image the article
// lists or shows.
func (s *articleService) imagesOf(article *domain.Article) []string {
	var names []string
	for _, img := range article.Media.Images {
		if name, ok := media.ObjectName(img); ok {
			names = appendUnique(names, name)
		}
	}
	for _, src := range s.conv.ImageSources(article.Content) {
		if name, ok := media.ObjectName(src); ok {
			names = appendUnique(names, name)
		}
	}
	return names
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
