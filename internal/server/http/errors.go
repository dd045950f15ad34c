package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/sitecms/internal/errs"
)

// writeError maps a service error to its status code and JSON body.
func (s *Server) writeError(c *gin.Context, err error) {
	var rl *errs.RateLimitError
	var tl *errs.TooLargeError
	switch {
	case errors.As(err, &rl):
		c.Header("Retry-After", strconv.Itoa(rl.RetryAfter(s.now())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":   false,
			"error":     "Too many attempts. Please try again later.",
			"resetTime": rl.ResetAt.UnixMilli(),
		})
	case errors.Is(err, errs.ErrRateLimited):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, fail("Too many attempts. Please try again later."))
	case errors.Is(err, errs.ErrInvalidCredential):
		c.AbortWithStatusJSON(http.StatusUnauthorized, fail("Invalid password"))
	case errors.Is(err, errs.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, fail("Unauthorized"))
	case errors.As(err, &tl):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
			fail(fmt.Sprintf("Content too large. Maximum size: %d bytes", tl.Limit)))
	case errors.Is(err, errs.ErrTooLarge):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, fail("Content too large"))
	case errors.Is(err, errs.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, fail("Content not found"))
	case errors.Is(err, errs.ErrMalformedInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, fail("Invalid request body"))
	default:
		s.log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, fail("Internal server error"))
	}
}

func fail(msg string) gin.H { return gin.H{"success": false, "error": msg} }

// bodyTooLarge reports whether err came from http.MaxBytesReader.
func bodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
