package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
)

func TestSaveCreatesAndUpdates(t *testing.T) {
	var methods, paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var p ArticlePayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(SavedArticle{ID: 9, PageID: p.PageID, Title: p.Title})
	}))
	defer srv.Close()

	a := NewArticleAdapter(srv.URL, logger.Nop())
	payload := ArticlePayload{PageID: "artigos", Title: "t", Content: "c", Media: Media{Images: []string{}, Videos: []string{}}}

	saved, err := a.Save(context.Background(), "tok", "", payload)
	require.NoError(t, err)
	assert.Equal(t, uint(9), saved.ID)

	_, err = a.Save(context.Background(), "tok", "9", payload)
	require.NoError(t, err)

	assert.Equal(t, []string{http.MethodPost, http.MethodPut}, methods)
	assert.Equal(t, []string{"/v1/articles", "/v1/articles/9"}, paths)
}

func TestSaveSurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"content still contains temporary images"}`))
	}))
	defer srv.Close()

	_, err := NewArticleAdapter(srv.URL, logger.Nop()).Save(context.Background(), "tok", "", ArticlePayload{})
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.Status)
	assert.Equal(t, "content still contains temporary images", gwErr.Message)
}
