package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const flashCookie = "rw_flash"

const (
	flashSuccess = "success"
	flashDanger  = "danger"
	flashInfo    = "info"
)

type flashMessage struct {
	Category string
	Message  string
}

// setFlash stores a one-shot message shown on the next rendered page
func setFlash(c *gin.Context, category, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, url.QueryEscape(category+"|"+message), 60, "/", "", false, true)
}

// popFlash reads and clears the pending message
func popFlash(c *gin.Context) *flashMessage {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	category, message, found := strings.Cut(decoded, "|")
	if !found {
		return &flashMessage{Category: flashInfo, Message: decoded}
	}
	return &flashMessage{Category: category, Message: message}
}
