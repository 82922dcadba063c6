package site

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/matsen/homepage/internal/logging"
)

// Server renders the homepage on every request, so configuration edits show
// up on the next page view.
type Server struct {
	loader   Loader
	template []byte
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewServer returns the HTTP handler for the rendered page. When staticDir
// is set, any other path is served from it.
func NewServer(loader Loader, tmpl []byte, staticDir string, log logrus.FieldLogger) http.Handler {
	s := &Server{
		loader:   loader,
		template: tmpl,
		log:      logging.OrDiscard(log),
		now:      time.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests)

	s.Register(router)
	if staticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(staticDir))))
	}

	return router
}

// Register adds the page routes to r.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/", s.page)
	r.GET("/index.html", s.page)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) page(c *gin.Context) {
	page, err := BuildPage(c.Request.Context(), s.loader, s.template, s.now(), s.log)
	if page == "" {
		c.String(http.StatusInternalServerError, "page template unusable: %v", err)
		return
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusServiceUnavailable
	}
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Data(status, "text/html; charset=utf-8", []byte(page))
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.WithFields(logrus.Fields{
		"method":   c.Request.Method,
		"path":     c.Request.URL.Path,
		"status":   c.Writer.Status(),
		"duration": time.Since(start),
	}).Debug("request served")
}
