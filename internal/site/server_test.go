package site

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLoader struct{}

func (failingLoader) Load(context.Context) (*Config, error) {
	return nil, &LoadError{Document: SiteFile, Err: errors.New("boom")}
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_RendersPerRequest(t *testing.T) {
	dir := writeFiles(t, map[string]string{SiteFile: "name: Ada\n"})
	h := NewServer(NewFileSetLoader(DirSource{Root: dir}), nil, "", nil)

	rec := serve(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada", parseDoc(t, rec.Body.String()).Find("#profile-name").Text())

	require.NoError(t, os.WriteFile(filepath.Join(dir, SiteFile), []byte("name: Grace\n"), 0644))
	rec = serve(t, h, "/index.html")
	assert.Equal(t, "Grace", parseDoc(t, rec.Body.String()).Find("#profile-name").Text())
}

func TestServer_LoadFailure(t *testing.T) {
	h := NewServer(failingLoader{}, nil, "", nil)

	rec := serve(t, h, "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 1, parseDoc(t, rec.Body.String()).Find(".load-error").Length())
}

func TestServer_StaticAndHealth(t *testing.T) {
	static := writeFiles(t, map[string]string{"main.css": "body{}"})
	h := NewServer(failingLoader{}, nil, static, nil)

	rec := serve(t, h, "/main.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())

	rec = serve(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(t, h, "/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
