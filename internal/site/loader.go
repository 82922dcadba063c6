package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/matsen/homepage/internal/bibtex"
	"github.com/matsen/homepage/internal/doi"
	"github.com/matsen/homepage/internal/logging"
)

// Documents read by FileSetLoader.
const (
	SiteFile         = "site.yml"
	NewsFile         = "news.yml"
	ProjectsFile     = "projects.yml"
	PublicationsFile = "publications.bib"
)

// Single-document formats understood by DocumentLoader.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// DefaultFeedLimit caps news items imported from a feed.
const DefaultFeedLimit = 5

// Loader produces a complete Config or fails as a whole. Section-level
// problems are logged and leave the section empty.
type Loader interface {
	Load(ctx context.Context) (*Config, error)
}

// LoadError is a top-level configuration failure.
type LoadError struct {
	Document string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Document, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FeedConfig points at an RSS or Atom feed whose entries become news items.
type FeedConfig struct {
	URL   string `yaml:"url" json:"url" toml:"url"`
	Limit int    `yaml:"limit" json:"limit" toml:"limit"`
}

type loaderOptions struct {
	log        logrus.FieldLogger
	httpClient *http.Client
}

// LoaderOption configures a loader.
type LoaderOption func(*loaderOptions)

// WithLogger sets the logger that receives section warnings.
func WithLogger(l logrus.FieldLogger) LoaderOption {
	return func(o *loaderOptions) {
		o.log = logging.OrDiscard(l)
	}
}

// WithHTTPClient sets the client used to fetch news feeds.
func WithHTTPClient(hc *http.Client) LoaderOption {
	return func(o *loaderOptions) {
		o.httpClient = hc
	}
}

func newLoaderOptions(opts []LoaderOption) loaderOptions {
	o := loaderOptions{
		log:        logging.Discard(),
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FileSetLoader reads site.yml, news.yml, projects.yml and publications.bib
// from a Source. Only site.yml is required.
type FileSetLoader struct {
	src Source
	loaderOptions
}

// NewFileSetLoader creates a loader over src.
func NewFileSetLoader(src Source, opts ...LoaderOption) *FileSetLoader {
	return &FileSetLoader{src: src, loaderOptions: newLoaderOptions(opts)}
}

// Load reads and merges the four documents.
func (l *FileSetLoader) Load(ctx context.Context) (*Config, error) {
	siteData, err := l.src.Read(ctx, SiteFile)
	if err != nil {
		return nil, &LoadError{Document: SiteFile, Err: err}
	}

	cfg := &Config{}

	if sections, err := yamlSections(siteData); err != nil {
		l.warn(SiteFile, "", err)
	} else {
		applySite(sections, cfg, l.warner(SiteFile))
	}

	cfg.News = l.loadNews(ctx)
	cfg.Projects = l.loadProjects(ctx)
	cfg.Publications = l.loadPublications(ctx)

	return cfg, nil
}

// readOptional reads a secondary document; failures are warnings.
func (l *FileSetLoader) readOptional(ctx context.Context, name string) ([]byte, bool) {
	data, err := l.src.Read(ctx, name)
	if err != nil {
		l.warn(name, "", err)
		return nil, false
	}
	return data, true
}

// loadNews accepts either a bare list or {items: [...], feed: {...}}.
func (l *FileSetLoader) loadNews(ctx context.Context) []NewsItem {
	data, ok := l.readOptional(ctx, NewsFile)
	if !ok {
		return nil
	}

	var items []NewsItem
	var feed *FeedConfig
	err := decodeListOrKey(data, "items", &items, func(sections sectionDecoder) {
		decodeInto(sections, "feed", &feed, l.warner(NewsFile))
	})
	if err != nil {
		l.warn(NewsFile, "", err)
		items = nil
	}

	if feed != nil && feed.URL != "" {
		items = append(items, l.importFeed(ctx, *feed)...)
	}
	return items
}

// loadProjects accepts either a bare list or {projects: [...]}.
func (l *FileSetLoader) loadProjects(ctx context.Context) []Project {
	data, ok := l.readOptional(ctx, ProjectsFile)
	if !ok {
		return nil
	}

	var projects []Project
	if err := decodeListOrKey(data, "projects", &projects, nil); err != nil {
		l.warn(ProjectsFile, "", err)
		return nil
	}
	return projects
}

func (l *FileSetLoader) loadPublications(ctx context.Context) []Publication {
	data, ok := l.readOptional(ctx, PublicationsFile)
	if !ok {
		return nil
	}

	pubs := PublicationsFromEntries(bibtex.Parse(string(data)))
	l.linkFromPDFs(pubs)
	return pubs
}

// linkFromPDFs looks for a DOI inside the local PDF of every publication
// that has no link of its own. Only directory sources have local files.
func (l *FileSetLoader) linkFromPDFs(pubs []Publication) {
	dir, ok := l.src.(DirSource)
	if !ok {
		return
	}

	for i := range pubs {
		p := &pubs[i]
		if len(p.Links) > 0 || p.File == "" {
			continue
		}
		pdfPath := dir.Path(pdfFromFileField(p.File))
		match, err := doi.FromPDF(pdfPath)
		if err != nil {
			l.log.WithError(err).WithField("file", pdfPath).Warn("could not read publication PDF")
			continue
		}
		if !match.Found() {
			l.log.WithField("file", pdfPath).Debug("no DOI in publication PDF")
			continue
		}
		l.log.WithFields(logrus.Fields{
			"file": pdfPath,
			"doi":  match.DOI,
			"page": match.Page,
		}).Debug("DOI read from publication PDF")
		p.DOI = match.DOI
		fillLinks(pubs[i : i+1])
	}
}

// pdfFromFileField extracts the path from reference-manager file fields
// such as ":papers/x.pdf:PDF".
func pdfFromFileField(field string) string {
	field, _, _ = strings.Cut(field, ";")
	for _, part := range strings.Split(field, ":") {
		if strings.HasSuffix(strings.ToLower(part), ".pdf") {
			return part
		}
	}
	return field
}

func (l *FileSetLoader) importFeed(ctx context.Context, fc FeedConfig) []NewsItem {
	items, err := fetchFeed(ctx, l.httpClient, l.src, fc)
	if err != nil {
		l.log.WithError(err).WithField("feed", fc.URL).Warn("news feed unavailable")
		return nil
	}
	return items
}

func (l *FileSetLoader) warn(document, section string, err error) {
	l.warner(document)(section, err)
}

func (l *FileSetLoader) warner(document string) warnFunc {
	return sectionWarner(l.log, document)
}

// DocumentLoader reads every section from one JSON or TOML document.
type DocumentLoader struct {
	src    Source
	name   string
	format string
	loaderOptions
}

// NewDocumentLoader creates a loader for the document name in src.
func NewDocumentLoader(src Source, name, format string, opts ...LoaderOption) *DocumentLoader {
	return &DocumentLoader{src: src, name: name, format: format, loaderOptions: newLoaderOptions(opts)}
}

// Load fetches and decodes the document. Only a fetch failure fails the
// load; an undecodable document or section is logged and left empty.
func (l *DocumentLoader) Load(ctx context.Context) (*Config, error) {
	data, err := l.src.Read(ctx, l.name)
	if err != nil {
		return nil, &LoadError{Document: l.name, Err: err}
	}

	var sections sectionDecoder
	switch l.format {
	case FormatJSON:
		sections, err = jsonSections(data)
	case FormatTOML:
		sections, err = tomlSections(data)
	default:
		return nil, &LoadError{Document: l.name, Err: fmt.Errorf("unsupported document format %q", l.format)}
	}

	cfg := &Config{}
	warn := sectionWarner(l.log, l.name)
	if err != nil {
		warn("", err)
		return cfg, nil
	}
	applySite(sections, cfg, warn)
	decodeInto(sections, "news", &cfg.News, warn)
	decodeInto(sections, "projects", &cfg.Projects, warn)
	decodeInto(sections, "publications", &cfg.Publications, warn)
	fillLinks(cfg.Publications)

	var feed *FeedConfig
	decodeInto(sections, "feed", &feed, warn)
	if feed != nil && feed.URL != "" {
		items, err := fetchFeed(ctx, l.httpClient, l.src, *feed)
		if err != nil {
			l.log.WithError(err).WithField("feed", feed.URL).Warn("news feed unavailable")
		}
		cfg.News = append(cfg.News, items...)
	}

	return cfg, nil
}

// documentFormat reports the single-document format named by a location's
// extension.
func documentFormat(location string) (string, bool) {
	location, _, _ = strings.Cut(location, "?")
	switch strings.ToLower(path.Ext(location)) {
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	}
	return "", false
}

type warnFunc func(section string, err error)

func sectionWarner(log logrus.FieldLogger, document string) warnFunc {
	return func(section string, err error) {
		entry := log.WithError(err).WithField("document", document)
		if section != "" {
			entry = entry.WithField("section", section)
		}
		entry.Warn("ignoring unreadable configuration; section left empty")
	}
}

// applySite decodes the profile and list sections shared by every format.
func applySite(d sectionDecoder, cfg *Config, warn warnFunc) {
	decodeInto(d, "name", &cfg.Profile.Name, warn)
	decodeInto(d, "tagline", &cfg.Profile.Tagline, warn)
	decodeInto(d, "location", &cfg.Profile.Location, warn)
	decodeInto(d, "about", &cfg.Profile.About, warn)
	decodeInto(d, "avatar", &cfg.Profile.Avatar, warn)
	decodeInto(d, "affiliations", &cfg.Profile.Affiliations, warn)
	decodeInto(d, "email", &cfg.Profile.Email, warn)
	decodeInto(d, "socialLinks", &cfg.SocialLinks, warn)
	decodeInto(d, "researchFocus", &cfg.ResearchFocus, warn)
	decodeInto(d, "spotlight", &cfg.Spotlight, warn)
	decodeInto(d, "projectsSubtitle", &cfg.ProjectsSubtitle, warn)
	decodeInto(d, "publicationsSubtitle", &cfg.PublicationsSubtitle, warn)
	decodeInto(d, "teaching", &cfg.Teaching, warn)
	decodeInto(d, "timeline", &cfg.Timeline, warn)
}

// decodeInto decodes one section into dst. On failure dst is left untouched
// and the problem reported.
func decodeInto[T any](d sectionDecoder, name string, dst *T, warn warnFunc) {
	var v T
	if err := d.decode(name, &v); err != nil {
		warn(name, err)
		return
	}
	*dst = v
}

// sectionDecoder decodes named top-level values of a parsed document.
// Absent names decode to nothing and no error.
type sectionDecoder interface {
	decode(name string, v any) error
}

type yamlDecoder map[string]*yaml.Node

func (d yamlDecoder) decode(name string, v any) error {
	n, ok := d[name]
	if !ok {
		return nil
	}
	return n.Decode(v)
}

// yamlSections parses a YAML mapping document. An empty document has no
// sections.
func yamlSections(data []byte) (yamlDecoder, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	doc := documentBody(&root)
	sections := yamlDecoder{}
	if doc == nil {
		return sections, nil
	}
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping at top level", doc.Line)
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		sections[doc.Content[i].Value] = doc.Content[i+1]
	}
	return sections, nil
}

// documentBody returns the top-level node, or nil for an empty or null document.
func documentBody(root *yaml.Node) *yaml.Node {
	doc := root
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil
		}
		doc = doc.Content[0]
	}
	if doc.Kind == 0 || (doc.Kind == yaml.ScalarNode && doc.Tag == "!!null") {
		return nil
	}
	return doc
}

// decodeListOrKey decodes a YAML document that is either a list or a
// mapping holding the list under key. extra sees the mapping's sections.
func decodeListOrKey[T any](data []byte, key string, dst *[]T, extra func(sectionDecoder)) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	doc := documentBody(&root)
	if doc == nil {
		return nil
	}

	switch doc.Kind {
	case yaml.SequenceNode:
		return doc.Decode(dst)
	case yaml.MappingNode:
		sections, err := yamlSections(data)
		if err != nil {
			return err
		}
		if extra != nil {
			extra(sections)
		}
		return sections.decode(key, dst)
	default:
		return fmt.Errorf("line %d: expected a list or a mapping with %q", doc.Line, key)
	}
}

type jsonDecoder map[string]json.RawMessage

func (d jsonDecoder) decode(name string, v any) error {
	raw, ok := d[name]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func jsonSections(data []byte) (jsonDecoder, error) {
	sections := jsonDecoder{}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty document")
	}
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

type tomlDecoder struct {
	md       toml.MetaData
	sections map[string]toml.Primitive
}

func (d tomlDecoder) decode(name string, v any) error {
	p, ok := d.sections[name]
	if !ok {
		return nil
	}
	return d.md.PrimitiveDecode(p, v)
}

func tomlSections(data []byte) (tomlDecoder, error) {
	d := tomlDecoder{}
	md, err := toml.Decode(string(data), &d.sections)
	if err != nil {
		return tomlDecoder{}, err
	}
	d.md = md
	return d, nil
}

// fetchFeed reads an RSS or Atom feed and turns its newest entries into news
// items. Relative feed locations are read through src.
func fetchFeed(ctx context.Context, hc *http.Client, src Source, fc FeedConfig) ([]NewsItem, error) {
	parser := gofeed.NewParser()
	parser.Client = hc

	var feed *gofeed.Feed
	var err error
	if IsRemote(fc.URL) {
		feed, err = parser.ParseURLWithContext(fc.URL, ctx)
	} else {
		var data []byte
		data, err = src.Read(ctx, fc.URL)
		if err == nil {
			feed, err = parser.Parse(bytes.NewReader(data))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", fc.URL, err)
	}

	limit := fc.Limit
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	items := []NewsItem{}
	for _, entry := range feed.Items {
		if len(items) == limit {
			break
		}
		items = append(items, NewsItem{
			Date:   Text(feedDate(entry)),
			Detail: entry.Title,
		})
	}
	return items, nil
}

func feedDate(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.Format(time.DateOnly)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.Format(time.DateOnly)
	default:
		return item.Published
	}
}
