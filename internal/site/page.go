package site

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/matsen/homepage/internal/logging"
)

//go:embed templates/index.html
var defaultTemplate []byte

// DefaultTemplate returns a copy of the built-in page template.
func DefaultTemplate() []byte {
	return bytes.Clone(defaultTemplate)
}

// BuildPage loads configuration and renders it into tmpl (the default
// template when nil). Configuration is fully loaded before the page is
// touched. When loading fails the page holds only the error message and
// the load error is returned along with it.
func BuildPage(ctx context.Context, loader Loader, tmpl []byte, now time.Time, log logrus.FieldLogger) (string, error) {
	log = logging.OrDiscard(log)
	if tmpl == nil {
		tmpl = defaultTemplate
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(tmpl))
	if err != nil {
		return "", fmt.Errorf("parsing page template: %w", err)
	}

	cfg, loadErr := loader.Load(ctx)
	if loadErr != nil {
		log.WithError(loadErr).Error("site configuration could not be loaded")
		RenderError(doc)
	} else {
		Render(doc, cfg, now)
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serializing page: %w", err)
	}
	return out, loadErr
}
