package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/and161185/sitecms/internal/errs"
	"github.com/and161185/sitecms/internal/model"
)

func (s *Server) handleContact(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxContactBody)
	var req model.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, fail("Invalid request body"))
		return
	}

	msg, err := s.contact.Submit(c.Request.Context(), req, clientID(c))
	if err != nil {
		if errors.Is(err, errs.ErrMalformedInput) {
			c.AbortWithStatusJSON(http.StatusBadRequest, fail("Please fill in all required fields."))
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}
