package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type authRequest struct {
	Action   string `json:"action"`
	Password string `json:"password"`
}

type authResponse struct {
	Success       bool `json:"success"`
	Authenticated bool `json:"authenticated"`
}

// handleAuth serves POST /api/admin/auth for the login, logout and check actions.
func (s *Server) handleAuth(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAuthBody)
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, fail("Invalid request body"))
		return
	}

	switch req.Action {
	case "login":
		s.login(c, req.Password)
	case "logout":
		s.logout(c)
	case "check":
		s.check(c)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, fail("Invalid action"))
	}
}

func (s *Server) login(c *gin.Context, password string) {
	ctx := c.Request.Context()
	token, err := s.auth.Login(ctx, password, clientID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.cookies.Set(c.Writer, token); err != nil {
		_ = s.auth.Logout(ctx, token)
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Success: true, Authenticated: true})
}

func (s *Server) logout(c *gin.Context) {
	if token := s.cookies.Read(c.Request); token != "" {
		if err := s.auth.Logout(c.Request.Context(), token); err != nil {
			s.writeError(c, err)
			return
		}
	}
	s.cookies.Clear(c.Writer)
	c.JSON(http.StatusOK, authResponse{Success: true, Authenticated: false})
}

func (s *Server) check(c *gin.Context) {
	token := s.cookies.Read(c.Request)
	if token == "" || !s.auth.IsAuthenticated(c.Request.Context(), token) {
		if s.cookies.Present(c.Request) {
			s.cookies.Clear(c.Writer)
		}
		c.JSON(http.StatusOK, authResponse{Success: true, Authenticated: false})
		return
	}
	c.JSON(http.StatusOK, authResponse{Success: true, Authenticated: true})
}
