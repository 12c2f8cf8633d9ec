package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admVeloHub/Console-v2-gcp/pkg/editor"
	"github.com/admVeloHub/Console-v2-gcp/pkg/imagestore"
	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
	"github.com/admVeloHub/Console-v2-gcp/pkg/jwt"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/markdown"
	"github.com/admVeloHub/Console-v2-gcp/pkg/middleware"
	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/adapter"
	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/session"
)

type fakeUploader struct {
	fail bool
}

func (f *fakeUploader) Upload(_ context.Context, file imagestore.File, folder string) (*imageupload.Result, error) {
	if f.fail {
		return nil, errors.New("storage unavailable")
	}
	name := folder + "/" + file.Name
	return &imageupload.Result{URL: "https://storage.googleapis.com/bucket/" + name, FileName: name, Bucket: "bucket"}, nil
}

type fakeArticles struct {
	mu       sync.Mutex
	payloads []adapter.ArticlePayload
	token    string
	err      error
}

func (f *fakeArticles) Save(_ context.Context, token, articleID string, p adapter.ArticlePayload) (*adapter.SavedArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.token = token
	f.payloads = append(f.payloads, p)
	return &adapter.SavedArticle{ID: 12, PageID: p.PageID, Title: p.Title}, nil
}

type fixture struct {
	router   *gin.Engine
	store    *imagestore.Store
	uploader *fakeUploader
	articles *fakeArticles
	tokens   jwt.TokenManager
	// tokenA belongs to op-a, the operator requests run as by default.
	tokenA string
	tokenB string
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	conv := markdown.NewConverter(log)
	store := imagestore.NewMemoryStore(log)
	uploader := &fakeUploader{}
	articles := &fakeArticles{}
	registry := session.NewRegistry(conv, store, log, editor.WithTiming(5*time.Millisecond, 5*time.Millisecond))
	processor := imageupload.NewProcessor(store, uploader, log, imageupload.WithRetry(1, 0))

	tokens := jwt.NewTokenManagerWithoutRedis("test-secret")
	r := gin.New()
	NewEditorHandler(registry, conv, store, processor, articles, log).
		Register(r.Group("/api"), middleware.NewRateLimiter(1000, 1000), middleware.CookieAuthMiddleware(tokens))

	tokenA, _ := tokens.GenerateToken(jwt.Operator{ID: "op-a", Name: "Ana"}, time.Hour)
	tokenB, _ := tokens.GenerateToken(jwt.Operator{ID: "op-b", Name: "Bruno"}, time.Hour)
	return &fixture{router: r, store: store, uploader: uploader, articles: articles, tokens: tokens, tokenA: tokenA, tokenB: tokenB}
}

// do sends a request as op-a unless header is non-nil.
func (f *fixture) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	if header == nil {
		header = bearer(f.tokenA)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// drafts returns the staged images of operator on pageID.
func (f *fixture) drafts(operator, pageID string) map[string]*imagestore.Record {
	return f.store.GetAll(imagestore.WithOwner(context.Background(), operator), pageID)
}

func (f *fixture) openSession(t *testing.T, pageID, value string) sessionView {
	t.Helper()
	return f.openSessionAs(t, f.tokenA, pageID, value)
}

func (f *fixture) openSessionAs(t *testing.T, token, pageID, value string) sessionView {
	t.Helper()
	body, _ := json.Marshal(openSessionRequest{PageID: pageID, Value: value})
	w := f.do(http.MethodPost, "/api/editor/sessions", string(body), bearer(token))
	require.Equal(t, http.StatusCreated, w.Code)
	var v sessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func (f *fixture) insertImage(t *testing.T, sessionID, name, mimeType string) (string, string) {
	t.Helper()
	return f.insertImageAs(t, f.tokenA, sessionID, name, mimeType)
}

func (f *fixture) insertImageAs(t *testing.T, token, sessionID, name, mimeType string) (string, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	hdr.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write([]byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, mw.WriteField("naturalWidth", "400"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/editor/sessions/"+sessionID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		UUID    string `json:"uuid"`
		BlobURL string `json:"blobUrl"`
		HTML    string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.HTML, `alt="temp:`+resp.UUID+`"`)
	return resp.UUID, resp.BlobURL
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture()
	v := f.openSession(t, "artigos", "**oi**")
	assert.Equal(t, "<p><strong>oi</strong></p>", v.HTML)
	assert.Equal(t, "idle", v.Phase)

	w := f.do(http.MethodPut, "/api/editor/sessions/"+v.ID+"/html", `{"html":"<p><u>novo</u></p>"}`, nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	// the page's push is ignored while the user is typing
	w = f.do(http.MethodPut, "/api/editor/sessions/"+v.ID+"/value", `{"value":"externo"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"applied":false`)

	assert.Eventually(t, func() bool {
		w := f.do(http.MethodGet, "/api/editor/sessions/"+v.ID, "", nil)
		var got sessionView
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		return got.Phase == "idle" && got.Propagated == "__novo__" && got.Revision == 1
	}, time.Second, 5*time.Millisecond)

	w = f.do(http.MethodPut, "/api/editor/sessions/"+v.ID+"/value", `{"value":"externo"}`, nil)
	assert.Contains(t, w.Body.String(), `"applied":true`)

	w = f.do(http.MethodDelete, "/api/editor/sessions/"+v.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodGet, "/api/editor/sessions/"+v.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInsertAndManageTempImages(t *testing.T) {
	f := newFixture()
	v := f.openSession(t, "velonews", "")
	id, _ := f.insertImage(t, v.ID, "foto.png", "image/png")

	w := f.do(http.MethodGet, "/api/pages/velonews/temp-images", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.NotContains(t, w.Body.String(), "base64")

	w = f.do(http.MethodGet, "/api/pages/velonews/temp-images/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.Body.Bytes())

	content := `{"content":"![temp:` + id + `](blob:x) ![temp:deadbeef](blob:y)"}`
	w = f.do(http.MethodPost, "/api/pages/velonews/temp-images/check", content, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"missing":["deadbeef"]`)

	w = f.do(http.MethodPost, "/api/pages/velonews/temp-images/sweep?maxAgeHours=1", "", nil)
	assert.Contains(t, w.Body.String(), `"removed":0`)

	w = f.do(http.MethodDelete, "/api/pages/velonews/temp-images/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, f.drafts("op-a", "velonews"))
}

func TestStagedImagesArePrivateToOperator(t *testing.T) {
	f := newFixture()
	va := f.openSessionAs(t, f.tokenA, "velonews", "")
	idA, blobA := f.insertImageAs(t, f.tokenA, va.ID, "a.png", "image/png")
	vb := f.openSessionAs(t, f.tokenB, "velonews", "")
	f.insertImageAs(t, f.tokenB, vb.ID, "b.png", "image/png")

	w := f.do(http.MethodDelete, "/api/pages/velonews/temp-images", "", http.Header{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = f.do(http.MethodGet, "/api/pages/velonews/temp-images", "", http.Header{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/pages/velonews/temp-images/"+idA, "", bearer(f.tokenB))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(http.MethodGet, "/api/editor/sessions/"+va.ID, "", bearer(f.tokenB))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(http.MethodDelete, "/api/editor/sessions/"+va.ID, "", bearer(f.tokenB))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodDelete, "/api/pages/velonews/temp-images", "", bearer(f.tokenB))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, f.drafts("op-b", "velonews"))
	assert.Len(t, f.drafts("op-a", "velonews"), 1)

	body, _ := json.Marshal(submitRequest{Title: "t", Content: "![temp:" + idA + "](" + blobA + ")"})
	w = f.do(http.MethodPost, "/api/pages/velonews/submit", string(body), bearer(f.tokenA))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []string{"img_velonews/a.png"}, f.articles.payloads[0].Media.Images)
}

func TestInsertImageRejectsUnsupportedType(t *testing.T) {
	f := newFixture()
	v := f.openSession(t, "velonews", "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="doc.pdf"`)
	hdr.Set("Content-Type", "application/pdf")
	part, _ := mw.CreatePart(hdr)
	_, _ = part.Write([]byte("%PDF"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/editor/sessions/"+v.ID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+f.tokenA)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestResizeRoutes(t *testing.T) {
	f := newFixture()
	v := f.openSession(t, "artigos", "")
	_, blobURL := f.insertImage(t, v.ID, "foto.png", "image/png")

	w := f.do(http.MethodGet, "/api/editor/sessions/"+v.ID+"/images/menu?src="+blobURL+"&displayedWidth=210", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var menu editor.Menu
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &menu))
	assert.Equal(t, 50, menu.Current)

	body, _ := json.Marshal(map[string]any{"src": blobURL, "percent": 25})
	w = f.do(http.MethodPut, "/api/editor/sessions/"+v.ID+"/images/size", string(body), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var patch editor.Patch
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &patch))
	assert.Equal(t, 100, patch.Width)

	body, _ = json.Marshal(map[string]any{"src": blobURL, "percent": 33})
	w = f.do(http.MethodPut, "/api/editor/sessions/"+v.ID+"/images/size", string(body), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, _ = json.Marshal(map[string]any{"src": "blob:missing", "percent": 50})
	w = f.do(http.MethodPut, "/api/editor/sessions/"+v.ID+"/images/size", string(body), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConvertRoutes(t *testing.T) {
	f := newFixture()

	w := f.do(http.MethodPost, "/api/convert/to-markdown", `{"html":"<p><strong>a</strong></p>"}`, nil)
	assert.JSONEq(t, `{"markdown":"**a**"}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/convert/to-html", `{"markdown":"~~a~~"}`, nil)
	assert.JSONEq(t, `{"html":"<p><s>a</s></p>"}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/convert/render", `{"markdown":"[x](javascript:alert(1))"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "javascript")
}

func TestSubmitUploadsAndSaves(t *testing.T) {
	f := newFixture()
	v := f.openSession(t, "artigos", "")
	id, blobURL := f.insertImage(t, v.ID, "foto.png", "image/png")

	body, _ := json.Marshal(submitRequest{
		Title:   "Artigo",
		Content: "texto\n\n![temp:" + id + "](" + blobURL + ")",
		Videos:  []string{"https://youtu.be/dQw4w9WgXcQ", " "},
	})
	w := f.do(http.MethodPost, "/api/pages/artigos/submit", string(body), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Len(t, f.articles.payloads, 1)
	p := f.articles.payloads[0]
	url := "https://storage.googleapis.com/bucket/img_artigos/foto.png"
	assert.Equal(t, f.tokenA, f.articles.token)
	assert.Equal(t, "artigos", p.PageID)
	assert.Equal(t, "texto\n\n![foto.png]("+url+")", p.Content)
	assert.Equal(t, []string{"img_artigos/foto.png"}, p.Media.Images, "media lists object names, not public URLs")
	assert.Equal(t, []string{"https://youtu.be/dQw4w9WgXcQ"}, p.Media.Videos)
	assert.Empty(t, f.drafts("op-a", "artigos"))

	var resp struct {
		Images []string `json:"images"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"img_artigos/foto.png"}, resp.Images)
}

func TestSubmitRequiresToken(t *testing.T) {
	f := newFixture()
	w := f.do(http.MethodPost, "/api/pages/artigos/submit", `{"title":"t","content":"c"}`, http.Header{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/pages/artigos/submit", `{"title":"t","content":"c"}`, bearer("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/pages/artigos/submit", strings.NewReader(`{"title":"t","content":"c"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "access_token", Value: f.tokenB})
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, f.tokenB, f.articles.token)
}

func TestSubmitFailsWhenUploadFails(t *testing.T) {
	f := newFixture()
	f.uploader.fail = true
	v := f.openSession(t, "velonews", "")
	id, blobURL := f.insertImage(t, v.ID, "foto.png", "image/png")

	body, _ := json.Marshal(submitRequest{Title: "t", Content: "![temp:" + id + "](" + blobURL + ")"})
	w := f.do(http.MethodPost, "/api/pages/velonews/submit", string(body), nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp struct {
		Failed []string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{id}, resp.Failed)
	assert.Empty(t, f.articles.payloads)
	assert.Len(t, f.drafts("op-a", "velonews"), 1)
}

func TestSubmitPassesGatewayStatus(t *testing.T) {
	f := newFixture()
	f.articles.err = &adapter.GatewayError{Status: http.StatusUnprocessableEntity, Message: "content still contains temporary images"}

	w := f.do(http.MethodPost, "/api/pages/artigos/submit", `{"title":"t","content":"c"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
