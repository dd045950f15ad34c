package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/sitecms/internal/errs"
	"github.com/and161185/sitecms/internal/model"
	"github.com/and161185/sitecms/internal/service"
)

const (
	ctxSessionToken     = "session_token"
	headerContentSource = "X-Content-Source"
	jsonContentType     = "application/json; charset=utf-8"
)

// guardContentWrite applies the per-client write limit and requires a live session.
func (s *Server) guardContentWrite(c *gin.Context) {
	ctx := c.Request.Context()
	client := clientID(c)

	if s.lim != nil {
		d, err := s.lim.Check(ctx, contentLimitKey+client)
		if err != nil {
			s.writeError(c, fmt.Errorf("%w: rate limiter: %w", errs.ErrStorage, err))
			return
		}
		if !d.Allowed {
			s.writeError(c, &errs.RateLimitError{ResetAt: d.ResetAt})
			return
		}
	}

	token := s.cookies.Read(c.Request)
	if !s.auth.IsAuthenticated(ctx, token) {
		if s.opts.VerboseLogs {
			s.log.Warn("unauthorized content update attempt", zap.String("client", client))
		}
		s.writeError(c, errs.ErrUnauthorized)
		return
	}
	c.Set(ctxSessionToken, token)
	c.Next()
}

func (s *Server) handleGetContent(c *gin.Context) {
	content, err := s.content.Read(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeDocument(c, content)
}

func (s *Server) handlePostContent(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxContentBody)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if bodyTooLarge(err) {
			s.writeError(c, &errs.TooLargeError{Size: int(s.opts.MaxContentBody) + 1, Limit: s.opts.MaxContentSize})
			return
		}
		s.writeError(c, fmt.Errorf("%w: read body: %w", errs.ErrMalformedInput, err))
		return
	}

	var content model.SiteContent
	if err := json.Unmarshal(raw, &content); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, fail("Invalid JSON"))
		return
	}
	// null decodes into a zero document without error
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		s.writeError(c, fmt.Errorf("%w: document is null", errs.ErrMalformedInput))
		return
	}

	if err := s.content.Write(c.Request.Context(), content, c.GetString(ctxSessionToken)); err != nil {
		s.writeError(c, err)
		return
	}
	if s.opts.VerboseLogs {
		s.log.Info("content updated", zap.String("client", clientID(c)))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleResetContent(c *gin.Context) {
	if err := s.content.Reset(c.Request.Context(), c.GetString(ctxSessionToken)); err != nil {
		s.writeError(c, err)
		return
	}
	if s.opts.VerboseLogs {
		s.log.Info("content reset to defaults", zap.String("client", clientID(c)))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleSiteContent serves the public document, falling back to the defaults.
func (s *Server) handleSiteContent(c *gin.Context) {
	content, src, err := s.content.Effective(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header(headerContentSource, string(src))
	s.writeDocument(c, content)
}

func (s *Server) writeDocument(c *gin.Context, content model.SiteContent) {
	b, err := service.Canonical(content)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, jsonContentType, b)
}
