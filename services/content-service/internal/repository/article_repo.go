package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/domain"
)

type articleRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewArticleRepository creates a new ArticleRepository with the given GORM DB instance.
func NewArticleRepository(db *gorm.DB) domain.ArticleRepository {
	return &articleRepository{db: db, now: time.Now}
}

// Create inserts a new article into the database.
func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	now := r.now()
	article.CreatedAt = now
	article.UpdatedAt = now
	if article.Published {
		article.PublishedAt = &now
	} else {
		article.PublishedAt = nil
	}
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

// GetByID retrieves an article by its ID from the database.
func (r *articleRepository) GetByID(ctx context.Context, id uint) (*domain.Article, error) {
	var article domain.Article
	if err := r.db.WithContext(ctx).First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

// GetAll returns all articles matching the given filter, newest first.
func (r *articleRepository) GetAll(ctx context.Context, filter domain.ArticleFilter) ([]*domain.Article, error) {
	var articles []*domain.Article
	query := r.db.WithContext(ctx).Model(&domain.Article{})
	if filter.PageID != nil {
		query = query.Where("page_id = ?", *filter.PageID)
	}
	if filter.Published != nil {
		query = query.Where("published = ?", *filter.Published)
	}
	if filter.Search != nil {
		like := "%" + *filter.Search + "%"
		query = query.Where("title ILIKE ? OR content ILIKE ?", like, like)
	}
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, nil
}

// Update writes every mutable column of an existing article.
func (r *articleRepository) Update(ctx context.Context, article *domain.Article) error {
	now := r.now()
	article.UpdatedAt = now
	if article.Published && article.PublishedAt == nil {
		article.PublishedAt = &now
	} else if !article.Published {
		article.PublishedAt = nil
	}
	result := r.db.WithContext(ctx).Model(article).
		Select("title", "content", "media", "published", "published_at", "updated_at").
		Updates(article)
	if result.Error != nil {
		return fmt.Errorf("failed to update article: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}

// Delete removes an article by its ID from the database.
func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Article{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete article: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrArticleNotFound
	}
	return nil
}
