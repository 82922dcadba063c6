package site

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultHTTPTimeout bounds a single configuration document fetch.
const DefaultHTTPTimeout = 15 * time.Second

// ErrNotFound indicates a configuration document does not exist.
var ErrNotFound = errors.New("configuration document not found")

// StatusError is a non-200 response while fetching a document.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Source reads named configuration documents.
type Source interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// DirSource reads documents from a local directory.
type DirSource struct {
	Root string
}

// Read returns the contents of Root/name.
func (s DirSource) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path(name))
		}
		return nil, err
	}
	return data, nil
}

// Path resolves a document name, or a path found inside a document, against
// Root. Absolute paths are returned unchanged.
func (s DirSource) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Root, filepath.FromSlash(name))
}

func (s DirSource) String() string { return s.Root }

// HTTPSource fetches documents relative to a base URL. Every request carries
// a random v= parameter so intermediary caches never serve a stale copy.
type HTTPSource struct {
	Base   string
	Client *http.Client
}

// NewHTTPSource creates a source rooted at base.
func NewHTTPSource(base string) *HTTPSource {
	return &HTTPSource{
		Base:   strings.TrimRight(base, "/"),
		Client: &http.Client{Timeout: DefaultHTTPTimeout},
	}
}

// Read GETs Base/name. Any status other than 200 is an error.
func (s *HTTPSource) Read(ctx context.Context, name string) ([]byte, error) {
	target := s.Base + "/" + strings.TrimLeft(name, "/") +
		"?v=" + strconv.FormatFloat(rand.Float64(), 'f', -1, 64)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: s.Base + "/" + name, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func (s *HTTPSource) String() string { return s.Base }

// IsRemote reports whether location names an HTTP(S) resource.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// NewLoader picks a loading strategy for a location: a directory or base URL
// uses the file set, a path or URL ending in .json or .toml is a single
// document.
func NewLoader(location string, opts ...LoaderOption) (Loader, error) {
	if location == "" {
		return nil, errors.New("no site configuration location given")
	}

	if format, ok := documentFormat(location); ok {
		trimmed, _, _ := strings.Cut(location, "?")
		dir, name := splitLocation(trimmed)
		var src Source
		if IsRemote(location) {
			src = NewHTTPSource(dir)
		} else {
			src = DirSource{Root: dir}
		}
		return NewDocumentLoader(src, name, format, opts...), nil
	}

	if IsRemote(location) {
		return NewFileSetLoader(NewHTTPSource(location), opts...), nil
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("site configuration: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site configuration %s: expected a directory, .json or .toml file", location)
	}
	return NewFileSetLoader(DirSource{Root: location}, opts...), nil
}

// splitLocation separates the document name from its directory or base URL.
func splitLocation(location string) (string, string) {
	i := strings.LastIndex(location, "/")
	if i < 0 {
		return ".", location
	}
	if i == 0 {
		return "/", location[1:]
	}
	return location[:i], location[i+1:]
}
