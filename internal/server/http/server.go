// Package httpserver exposes the admin auth, content and contact API over HTTP.
package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/sitecms/internal/limiter"
	"github.com/and161185/sitecms/internal/service"
)

const (
	defaultMaxBody  = 4 << 20
	maxAuthBody     = 16 << 10
	maxContactBody  = 64 << 10
	contentLimitKey = "content-"
)

// Options tune the HTTP boundary.
type Options struct {
	// MaxContentBody caps the raw POST /api/content body; the service applies the exact document cap.
	MaxContentBody int64
	// MaxContentSize is the document cap reported when the raw body cap trips.
	MaxContentSize int
	// VerboseLogs logs per-client auth and write events.
	VerboseLogs bool
}

// Server wires services into gin handlers.
type Server struct {
	auth    service.AuthService
	content service.ContentService
	contact service.ContactService
	lim     limiter.Limiter
	cookies *CookieCodec
	log     *zap.Logger
	opts    Options
	now     func() time.Time
}

// New constructs the HTTP server with injected services. lim guards content writes.
func New(
	auth service.AuthService,
	content service.ContentService,
	contact service.ContactService,
	lim limiter.Limiter,
	cookies *CookieCodec,
	log *zap.Logger,
	opts Options,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxContentBody <= 0 {
		opts.MaxContentBody = defaultMaxBody
	}
	if opts.MaxContentSize <= 0 {
		opts.MaxContentSize = service.DefaultMaxContentSize
	}
	return &Server{
		auth:    auth,
		content: content,
		contact: contact,
		lim:     lim,
		cookies: cookies,
		log:     log,
		opts:    opts,
		now:     time.Now,
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		securityHeaders(),
		requestID(),
		accessLog(s.log),
		recovery(s.log),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	api.POST("/admin/auth", s.handleAuth)
	api.GET("/content", s.handleGetContent)
	api.POST("/content", s.guardContentWrite, s.handlePostContent)
	api.POST("/content/reset", s.guardContentWrite, s.handleResetContent)
	api.GET("/site-content", s.handleSiteContent)
	api.POST("/contact", s.handleContact)

	r.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, fail("Not found")) })
	return r
}

func clientID(c *gin.Context) string {
	if v := c.GetString(ctxClientID); v != "" {
		return v
	}
	return ClientID(c.Request)
}
