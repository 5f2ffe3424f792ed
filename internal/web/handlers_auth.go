package web

import (
	"errors"
	"net/http"

	"github.com/aleister1102/releasewatch/internal/users"
	"github.com/gin-gonic/gin"
)

type loginForm struct {
	Username string `form:"username" binding:"required,max=64"`
	Password string `form:"password" binding:"required,max=256"`
}

func (s *Server) handleLoginForm(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		if _, err := s.sessions.Parse(token); err == nil {
			c.Redirect(http.StatusFound, "/")
			return
		}
	}
	s.render(c, http.StatusOK, "login.html", nil)
}

func (s *Server) handleLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusBadRequest, "login.html", gin.H{"error": "Username and password are required."})
		return
	}

	user, err := s.users.Authenticate(form.Username, form.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			s.logger.Warn().Str("username", form.Username).Str("client_ip", c.ClientIP()).Msg("Failed login attempt")
			s.render(c, http.StatusUnauthorized, "login.html", gin.H{"error": "Invalid username or password."})
			return
		}
		_ = c.Error(err)
		s.render(c, http.StatusInternalServerError, "login.html", gin.H{"error": "Login is currently unavailable."})
		return
	}

	token, _, err := s.sessions.Issue(user.ID, user.Username)
	if err != nil {
		_ = c.Error(err)
		s.render(c, http.StatusInternalServerError, "login.html", gin.H{"error": "Login is currently unavailable."})
		return
	}
	s.setSession(c, token)
	s.logger.Info().Str("username", user.Username).Msg("User logged in")
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleLogout(c *gin.Context) {
	s.clearSession(c)
	c.Redirect(http.StatusFound, "/login")
}
