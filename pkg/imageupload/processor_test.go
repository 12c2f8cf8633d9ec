package imageupload

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imagestore"
)

type fakeUploader struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]int // file name -> failures before success; -1 fails forever
	err      error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{calls: make(map[string]int), failures: make(map[string]int)}
}

func (f *fakeUploader) Upload(_ context.Context, file imagestore.File, folder string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[file.Name]++
	left := f.failures[file.Name]
	if left != 0 {
		if left > 0 {
			f.failures[file.Name] = left - 1
		}
		if f.err != nil {
			return nil, f.err
		}
		return nil, errors.New("storage unavailable")
	}
	name := folder + "/" + file.Name
	return &Result{
		URL:      "https://storage.googleapis.com/bucket/" + name,
		FileName: name,
		Bucket:   "bucket",
	}, nil
}

func (f *fakeUploader) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func stage(t *testing.T, s *imagestore.Store, uuid, name string) {
	t.Helper()
	file := imagestore.File{Name: name, Type: "image/png", Data: []byte("png-" + uuid)}
	require.NoError(t, s.Save(context.Background(), file, uuid, "blob:http://localhost/"+uuid, "velonews"))
}

func newTestProcessor(store *imagestore.Store, up Uploader) *Processor {
	return NewProcessor(store, up, nil, WithRetry(3, time.Millisecond))
}

func TestProcessRewritesPlaceholder(t *testing.T) {
	ctx := context.Background()
	store := imagestore.NewMemoryStore(nil)
	stage(t, store, "abc", "abc.png")
	up := newFakeUploader()

	out, err := newTestProcessor(store, up).Process(ctx, "intro ![temp:abc](blob:xyz) outro", "velonews", nil)
	require.NoError(t, err)

	assert.Equal(t, "intro ![abc.png](https://storage.googleapis.com/bucket/img_velonews/abc.png) outro", out.Markdown)
	assert.Equal(t, []string{"https://storage.googleapis.com/bucket/img_velonews/abc.png"}, out.ImageURLs)
	assert.Equal(t, []string{"img_velonews/abc.png"}, out.ImageFileNames)

	_, ok := store.Get(ctx, "abc", "velonews")
	assert.False(t, ok, "consumed record is removed")
}

func TestProcessMissingRecordFailsAtomically(t *testing.T) {
	ctx := context.Background()
	store := imagestore.NewMemoryStore(nil)
	stage(t, store, "aaaa", "a.png")
	up := newFakeUploader()

	text := "![temp:aaaa](blob:http://localhost/aaaa) ![temp:bbbb](blob:http://localhost/bbbb)"
	out, err := newTestProcessor(store, up).Process(ctx, text, "velonews", nil)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "bbbb")
	assert.ErrorIs(t, err, ErrImageNotStored)

	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, []string{"bbbb"}, upErr.UUIDs())

	_, ok := store.Get(ctx, "aaaa", "velonews")
	assert.True(t, ok, "records survive a failed process call")
}

func TestProcessRetriesTransientFailures(t *testing.T) {
	store := imagestore.NewMemoryStore(nil)
	stage(t, store, "abc", "abc.png")
	up := newFakeUploader()
	up.failures["abc.png"] = 2

	out, err := newTestProcessor(store, up).Process(context.Background(), "![temp:abc](blob:x)", "artigos", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, up.callCount("abc.png"))
	assert.Equal(t, []string{"img_artigos/abc.png"}, out.ImageFileNames)
}

func TestProcessGivesUpAfterThreeAttempts(t *testing.T) {
	ctx := context.Background()
	store := imagestore.NewMemoryStore(nil)
	stage(t, store, "abc", "abc.png")
	stage(t, store, "def", "def.png")
	up := newFakeUploader()
	up.failures["abc.png"] = -1
	up.failures["def.png"] = -1

	_, err := newTestProcessor(store, up).Process(ctx, "![temp:abc](blob:1) ![temp:def](blob:2)", "velonews", nil)
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.ElementsMatch(t, []string{"abc", "def"}, upErr.UUIDs())
	assert.Equal(t, 3, up.callCount("abc.png"))
	assert.Equal(t, 3, up.callCount("def.png"))
	assert.Len(t, store.GetAll(ctx, "velonews"), 2)
}

func TestProcessDoesNotRetryValidationErrors(t *testing.T) {
	store := imagestore.NewMemoryStore(nil)
	stage(t, store, "abc", "abc.png")
	up := newFakeUploader()
	up.failures["abc.png"] = -1
	up.err = ErrFileTooLarge

	_, err := newTestProcessor(store, up).Process(context.Background(), "![temp:abc](blob:1)", "velonews", nil)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, 1, up.callCount("abc.png"))
}

func TestProcessHTMLFormsKeepSizing(t *testing.T) {
	store := imagestore.NewMemoryStore(nil)
	stage(t, store, "aaa", "first.png")
	stage(t, store, "bbb", "second.png")

	text := `<img alt="temp:aaa" src="blob:http://localhost/aaa" width="200" style="width: 200px;" />` + "\n\n" +
		`<img src="blob:http://localhost/bbb" alt="temp:bbb" />`
	out, err := newTestProcessor(store, newFakeUploader()).Process(context.Background(), text, "bot_perguntas", nil)
	require.NoError(t, err)

	assert.Equal(t,
		`<img alt="first.png" src="https://storage.googleapis.com/bucket/img_bot_perguntas/first.png" width="200" style="width: 200px;" />`+"\n\n"+
			`<img src="https://storage.googleapis.com/bucket/img_bot_perguntas/second.png" alt="second.png" />`,
		out.Markdown)
	assert.Equal(t, 0, CountTemporaryImages(out.Markdown))
}

func TestProcessReportsProgress(t *testing.T) {
	store := imagestore.NewMemoryStore(nil)
	stage(t, store, "aaa", "a.png")
	stage(t, store, "bbb", "b.png")

	var mu sync.Mutex
	var calls [][2]int
	progress := func(current, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{current, total})
	}

	_, err := newTestProcessor(store, newFakeUploader()).Process(context.Background(),
		"![temp:aaa](blob:1) ![temp:bbb](blob:2)", "velonews", progress)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
}

func TestProcessWithoutPlaceholders(t *testing.T) {
	up := newFakeUploader()
	out, err := newTestProcessor(imagestore.NewMemoryStore(nil), up).Process(context.Background(), "just text", "velonews", nil)
	require.NoError(t, err)
	assert.Equal(t, "just text", out.Markdown)
	assert.Empty(t, out.ImageURLs)
	assert.Empty(t, up.calls)
}
