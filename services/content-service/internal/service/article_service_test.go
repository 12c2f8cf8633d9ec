package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/markdown"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/domain"
)

type memRepo struct {
	articles map[uint]*domain.Article
	nextID   uint
}

func newMemRepo() *memRepo {
	return &memRepo{articles: map[uint]*domain.Article{}, nextID: 1}
}

func (m *memRepo) Create(_ context.Context, a *domain.Article) error {
	a.ID = m.nextID
	m.nextID++
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uint) (*domain.Article, error) {
	a, ok := m.articles[id]
	if !ok {
		return nil, domain.ErrArticleNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) GetAll(_ context.Context, f domain.ArticleFilter) ([]*domain.Article, error) {
	var out []*domain.Article
	for _, a := range m.articles {
		if f.PageID != nil && a.PageID != *f.PageID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, a *domain.Article) error {
	if _, ok := m.articles[a.ID]; !ok {
		return domain.ErrArticleNotFound
	}
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.articles[id]; !ok {
		return domain.ErrArticleNotFound
	}
	delete(m.articles, id)
	return nil
}

type fakeImages struct {
	deleted []string
}

func (f *fakeImages) DeleteImage(_ context.Context, u string) error {
	f.deleted = append(f.deleted, u)
	return nil
}

func (f *fakeImages) DeleteImages(ctx context.Context, urls []string) int {
	for _, u := range urls {
		_ = f.DeleteImage(ctx, u)
	}
	return len(urls)
}

const (
	storedImage     = "https://storage.googleapis.com/bucket/img_artigos/1.png"
	storedImageName = "img_artigos/1.png"
)

func newTestService() (*articleService, *memRepo, *fakeImages) {
	repo := newMemRepo()
	images := &fakeImages{}
	svc := NewArticleService(repo, images, markdown.NewConverter(nil), logger.Nop()).(*articleService)
	return svc, repo, images
}

func TestCreateArticleNormalizesMedia(t *testing.T) {
	svc, _, _ := newTestService()

	article, err := svc.CreateArticle(context.Background(), domain.CreateArticleRequest{
		PageID:  "botPerguntas",
		Title:   "  Pergunta  ",
		Content: "veja ![foto](" + storedImage + ")",
		Media: domain.Media{
			Videos: []string{"https://youtu.be/dQw4w9WgXcQ", "", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		},
	}, domain.Author{ID: "op-1", Name: "Ana"})
	require.NoError(t, err)

	assert.Equal(t, "bot_perguntas", article.PageID)
	assert.Equal(t, "Pergunta", article.Title)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}, article.Media.Videos)
	assert.Equal(t, []string{storedImageName}, article.Media.Images)
	assert.Equal(t, "op-1", article.AuthorID)
}

func TestCreateArticleListsImagesByObjectName(t *testing.T) {
	svc, _, _ := newTestService()

	article, err := svc.CreateArticle(context.Background(), domain.CreateArticleRequest{
		PageID:  "artigos",
		Title:   "t",
		Content: "![a](" + storedImage + ") ![b](https://example.com/cat.png)",
		Media: domain.Media{Images: []string{
			"img_artigos/1.png",
			"https://acct.blob.core.windows.net/images/img_artigos/2.png",
		}},
	}, domain.Author{ID: "op-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"img_artigos/1.png", "img_artigos/2.png"}, article.Media.Images)
}

func TestCreateArticleRejectsPlaceholders(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.CreateArticle(context.Background(), domain.CreateArticleRequest{
		PageID:  "artigos",
		Title:   "t",
		Content: "![temp:abc](blob:http://localhost/abc)",
	}, domain.Author{ID: "op-1"})

	assert.ErrorIs(t, err, domain.ErrUnresolvedPlaceholder)
	assert.Empty(t, repo.articles)
}

func TestCreateArticleRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateArticle(ctx, domain.CreateArticleRequest{PageID: "blog", Title: "t", Content: "c"}, domain.Author{})
	assert.ErrorIs(t, err, domain.ErrInvalidPage)

	_, err = svc.CreateArticle(ctx, domain.CreateArticleRequest{
		PageID: "velonews", Title: "t", Content: "c",
		Media: domain.Media{Videos: []string{"https://vimeo.com/1"}},
	}, domain.Author{})
	assert.ErrorIs(t, err, domain.ErrInvalidVideo)
}

func TestUpdateArticleDeletesOrphanedImages(t *testing.T) {
	svc, _, images := newTestService()
	ctx := context.Background()
	created, err := svc.CreateArticle(ctx, domain.CreateArticleRequest{
		PageID: "artigos", Title: "t", Content: "![a](" + storedImage + ")",
	}, domain.Author{ID: "op-1"})
	require.NoError(t, err)

	content := "sem imagens"
	published := true
	updated, err := svc.UpdateArticle(ctx, created.ID, domain.UpdateArticleRequest{
		Content:   &content,
		Media:     &domain.Media{},
		Published: &published,
	})
	require.NoError(t, err)

	assert.Equal(t, "sem imagens", updated.Content)
	assert.True(t, updated.Published)
	assert.Empty(t, updated.Media.Images)
	assert.Equal(t, []string{storedImageName}, images.deleted)
}

func TestUpdateArticleKeepsUnchangedImages(t *testing.T) {
	svc, _, images := newTestService()
	ctx := context.Background()
	created, err := svc.CreateArticle(ctx, domain.CreateArticleRequest{
		PageID: "artigos", Title: "t", Content: "![a](" + storedImage + ")",
	}, domain.Author{ID: "op-1"})
	require.NoError(t, err)

	title := "novo"
	_, err = svc.UpdateArticle(ctx, created.ID, domain.UpdateArticleRequest{Title: &title})
	require.NoError(t, err)
	assert.Empty(t, images.deleted)

	bad := "![temp:x](blob:http://localhost/x)"
	_, err = svc.UpdateArticle(ctx, created.ID, domain.UpdateArticleRequest{Content: &bad})
	assert.ErrorIs(t, err, domain.ErrUnresolvedPlaceholder)
}

func TestDeleteArticleRemovesImages(t *testing.T) {
	svc, repo, images := newTestService()
	ctx := context.Background()
	created, err := svc.CreateArticle(ctx, domain.CreateArticleRequest{
		PageID: "velonews", Title: "t", Content: "![a](" + storedImage + ")",
	}, domain.Author{ID: "op-1"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteArticle(ctx, created.ID))
	assert.Empty(t, repo.articles)
	assert.Equal(t, []string{storedImageName}, images.deleted)

	assert.ErrorIs(t, svc.DeleteArticle(ctx, created.ID), domain.ErrArticleNotFound)
}

func TestRenderArticleSanitizes(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	created, err := svc.CreateArticle(ctx, domain.CreateArticleRequest{
		PageID: "artigos", Title: "t", Content: "**oi** <img src=\"javascript:alert(1)\" alt=\"x\" width=\"10\" />",
	}, domain.Author{ID: "op-1"})
	require.NoError(t, err)

	rendered, err := svc.RenderArticle(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, rendered.HTML, "<strong>oi</strong>")
	assert.NotContains(t, rendered.HTML, "javascript:")
}
