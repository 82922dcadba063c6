package site

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_Read(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query().Get("v"))
		if r.URL.Path != "/config/site.yml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("name: Ada\n"))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL + "/config/")
	data, err := src.Read(context.Background(), SiteFile)
	require.NoError(t, err)
	assert.Equal(t, "name: Ada\n", string(data))

	_, err = src.Read(context.Background(), NewsFile)
	assert.ErrorIs(t, err, ErrNotFound)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0], "cache-busting parameter is sent")
	assert.NotEqual(t, seen[0], seen[1])
}

func TestDirSource(t *testing.T) {
	dir := writeFiles(t, map[string]string{SiteFile: "name: Ada\n"})
	src := DirSource{Root: dir}

	data, err := src.Read(context.Background(), SiteFile)
	require.NoError(t, err)
	assert.Equal(t, "name: Ada\n", string(data))

	_, err = src.Read(context.Background(), NewsFile)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, filepath.Join(dir, "papers", "a.pdf"), src.Path("papers/a.pdf"))
	abs := filepath.Join(dir, "elsewhere.pdf")
	assert.Equal(t, abs, src.Path(abs))
}

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		in, dir, name string
	}{
		{"site.json", ".", "site.json"},
		{"/site.json", "/", "site.json"},
		{"config/site.toml", "config", "site.toml"},
		{"https://example.org/a/site.json", "https://example.org/a", "site.json"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			dir, name := splitLocation(tt.in)
			assert.Equal(t, tt.dir, dir)
			assert.Equal(t, tt.name, name)
		})
	}
}
