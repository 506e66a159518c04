package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"culld/internal/browse"
	"culld/internal/errors"
	"culld/internal/server"
	"culld/internal/watch"
	"culld/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	files []string
	err   error
}

func (f *fakeScanner) Scan(string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.files...), nil
}

type fakeStore struct {
	stars    map[string]int
	writeErr error
}

func (f *fakeStore) Read(path string) (int, bool) {
	stars, ok := f.stars[path]
	return stars, ok
}

func (f *fakeStore) Write(path string, stars int) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if stars == 0 {
		delete(f.stars, path)
	} else {
		f.stars[path] = stars
	}
	return nil
}

func (f *fakeStore) Delete(path string) error {
	delete(f.stars, path)
	return nil
}

type fakeCodec struct {
	applyErr error
	applied  int
}

func (f *fakeCodec) Probe(path string) (*types.ImageMeta, error) {
	return &types.ImageMeta{
		Path: path, Format: "png", Width: 2, Height: 2,
		SizeBytes: 64, Preview: []byte("preview-jpeg-bytes"),
	}, nil
}

func (f *fakeCodec) Apply(string, types.Transform) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied++
	return nil
}

type fixture struct {
	handler http.Handler
	server  *server.Server
	session *browse.Session
	codec   *fakeCodec
	store   *fakeStore
	dir     string
	files   []string
}

func newFixture(t *testing.T, names ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(files[i], []byte("image bytes"), 0o644))
	}
	store := &fakeStore{stars: map[string]int{}}
	codec := &fakeCodec{}
	session := browse.NewSession(&fakeScanner{files: files}, store, codec)
	if len(names) > 0 {
		_, err := session.LoadFolder(dir)
		require.NoError(t, err)
	}
	srv := server.New(session, "127.0.0.1:0")
	return &fixture{
		handler: srv.Handler(),
		server:  srv,
		session: session,
		codec:   codec,
		store:   store,
		dir:     dir,
		files:   files,
	}
}

// do sends one request through the handler and returns the recorder.
func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestStateEndpoint(t *testing.T) {
	f := newFixture(t, "a.png", "b.png")
	f.store.stars[f.files[1]] = 3
	_, err := f.session.LoadFolder(f.dir) // pick up the rating seeded after fixture load
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var state struct {
		Root    string `json:"root"`
		State   string `json:"state"`
		Cursor  int    `json:"cursor"`
		Count   int    `json:"count"`
		Stale   bool   `json:"stale"`
		Entries []struct {
			Name   string       `json:"name"`
			Rating types.Rating `json:"rating"`
		} `json:"entries"`
	}
	decodeBody(t, rec, &state)
	assert.Equal(t, f.dir, state.Root)
	assert.Equal(t, "viewing", state.State)
	assert.Equal(t, 0, state.Cursor)
	assert.Equal(t, 2, state.Count)
	assert.False(t, state.Stale)
	require.Len(t, state.Entries, 2)
	assert.Equal(t, "a.png", state.Entries[0].Name)
	assert.Equal(t, types.Rating{Known: true, Stars: 3}, state.Entries[1].Rating)
}

func TestRotateThenNavigateCommits(t *testing.T) {
	f := newFixture(t, "a.png", "b.png")

	rec := f.do(t, http.MethodPost, "/api/rotate", map[string]int{"degrees": 90})
	require.Equal(t, http.StatusOK, rec.Code)
	var rotated struct {
		Pending types.Transform `json:"pending"`
	}
	decodeBody(t, rec, &rotated)
	assert.Equal(t, 90, rotated.Pending.Rotation)

	rec = f.do(t, http.MethodPost, "/api/nav", map[string]string{"direction": "next"})
	require.Equal(t, http.StatusOK, rec.Code)
	var nav struct {
		Cursor int `json:"cursor"`
	}
	decodeBody(t, rec, &nav)
	assert.Equal(t, 1, nav.Cursor)
	assert.Equal(t, 1, f.codec.applied, "navigation must save pending edits")
	assert.True(t, f.session.Pending().IsIdentity())
}

func TestRotateRejectsBadDegrees(t *testing.T) {
	f := newFixture(t, "a.png")
	rec := f.do(t, http.MethodPost, "/api/rotate", map[string]int{"degrees": 45})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "multiple of 90")
}

func TestNavBoundaryConflict(t *testing.T) {
	f := newFixture(t, "a.png")
	rec := f.do(t, http.MethodPost, "/api/nav", map[string]string{"direction": "prev"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "boundary")
}

func TestNavRejectsUnknownDirection(t *testing.T) {
	f := newFixture(t, "a.png")
	rec := f.do(t, http.MethodPost, "/api/nav", map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNavCommitFailureIs500(t *testing.T) {
	f := newFixture(t, "a.png", "b.png")
	_, err := f.session.Rotate(90)
	require.NoError(t, err)
	f.codec.applyErr = errors.NewFileError("encode failed", f.files[0], errors.TransformApplyFailed, nil)

	rec := f.do(t, http.MethodPost, "/api/nav", map[string]string{"direction": "next"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, f.session.Cursor())
	assert.Equal(t, 90, f.session.Pending().Rotation)
}

func TestEmptySessionIsNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/image/preview", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/skip", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/rescan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewETag(t *testing.T) {
	f := newFixture(t, "a.png")

	rec := f.do(t, http.MethodGet, "/api/image/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "preview-jpeg-bytes", rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/image/preview", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	f.handler.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)
	assert.Empty(t, cached.Body.String())
}

func TestFullImage(t *testing.T) {
	f := newFixture(t, "a.png")
	rec := f.do(t, http.MethodGet, "/api/image/full", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "image bytes", rec.Body.String())
}

func TestRatingEndpoint(t *testing.T) {
	f := newFixture(t, "a.png")

	rec := f.do(t, http.MethodPost, "/api/rating", map[string]int{"stars": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Rating types.Rating `json:"rating"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, types.Rating{Known: true, Stars: 4}, body.Rating)
	assert.Equal(t, 4, f.store.stars[f.files[0]])
}

func TestRatingWriteFailureIs500(t *testing.T) {
	f := newFixture(t, "a.png")
	f.store.writeErr = errors.NewFileError("disk full", f.files[0]+".rating", errors.RatingWriteFailed, nil)
	rec := f.do(t, http.MethodPost, "/api/rating", map[string]int{"stars": 4})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBadJSONBody(t *testing.T) {
	f := newFixture(t, "a.png")
	req := httptest.NewRequest(http.MethodPost, "/api/rating", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitAndDiscard(t *testing.T) {
	f := newFixture(t, "a.png")
	_, err := f.session.Rotate(180)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/commit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var committed struct {
		Pending types.Transform `json:"pending"`
	}
	decodeBody(t, rec, &committed)
	assert.Equal(t, 180, committed.Pending.Rotation, "standalone commit keeps pending visible")

	rec = f.do(t, http.MethodPost, "/api/discard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var discarded struct {
		Discarded types.Transform `json:"discarded"`
	}
	decodeBody(t, rec, &discarded)
	assert.Equal(t, 180, discarded.Discarded.Rotation)
	assert.True(t, f.session.Pending().IsIdentity())
}

func TestDeleteEndpoint(t *testing.T) {
	f := newFixture(t, "a.png", "b.png")

	rec := f.do(t, http.MethodPost, "/api/delete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Cursor int    `json:"cursor"`
		Count  int    `json:"count"`
		State  string `json:"state"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 0, body.Cursor)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "viewing", body.State)
	assert.NoFileExists(t, f.files[0])
}

func TestFolderEndpoint(t *testing.T) {
	f := newFixture(t, "a.png")

	rec := f.do(t, http.MethodPost, "/api/folder", map[string]string{"path": f.dir})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 1, body.Count)

	rec = f.do(t, http.MethodPost, "/api/folder", map[string]string{"path": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRescanClearsStaleness(t *testing.T) {
	f := newFixture(t, "a.png")

	ch := make(chan watch.Notification, 1)
	f.server.TrackStaleness(ch)
	ch <- watch.Notification{Root: f.dir, Changes: 1, At: time.Now()}

	require.Eventually(t, func() bool {
		rec := f.do(t, http.MethodGet, "/api/state", nil)
		var state struct {
			Stale bool `json:"stale"`
		}
		decodeBody(t, rec, &state)
		return state.Stale
	}, 2*time.Second, 10*time.Millisecond, "staleness should reach /api/state")

	rec := f.do(t, http.MethodPost, "/api/rescan", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/state", nil)
	var state struct {
		Stale bool `json:"stale"`
	}
	decodeBody(t, rec, &state)
	assert.False(t, state.Stale)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, "a.png")
	rec := f.do(t, http.MethodGet, "/api/skip", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
