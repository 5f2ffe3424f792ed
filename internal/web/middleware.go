package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	sessionCookie   = "rw_session"
	requestIDHeader = "X-Request-ID"
	ctxUserKey      = "user"
	ctxRequestIDKey = "request_id"
)

// currentUser is what the auth middleware stores in the gin context
type currentUser struct {
	ID       string
	Username string
}

func (u currentUser) IsAdmin() bool {
	return u.Username == "admin"
}

// accessLog logs every request with a request id, reusing an inbound one
func accessLog(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxRequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Debug()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// recovery turns handler panics into a 500 and logs them
func recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.GetString(ctxRequestIDKey)).
					Msg("Panic recovered in handler")
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// requireAuth resolves the session cookie. Pages redirect to the login form,
// API routes answer 401.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(sessionCookie)
		claims, err := s.sessions.Parse(token)
		if err == nil {
			if _, lookupErr := s.users.Get(claims.Username); lookupErr == nil {
				c.Set(ctxUserKey, currentUser{ID: claims.UserID, Username: claims.Username})
				c.Next()
				return
			}
		}

		s.clearSession(c)
		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			return
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

// requireAdmin must run after requireAuth
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !userFrom(c).IsAdmin() {
			setFlash(c, flashDanger, "Only the admin user can manage users.")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func userFrom(c *gin.Context) currentUser {
	if v, ok := c.Get(ctxUserKey); ok {
		if u, ok := v.(currentUser); ok {
			return u
		}
	}
	return currentUser{}
}

func isAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.HasPrefix(c.Request.URL.Path, "/ws/")
}
