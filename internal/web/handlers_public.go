package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/monitor"
	"github.com/gin-gonic/gin"
)

type releaseRow struct {
	Repo      string
	Slug      string
	Tag       string
	Name      string
	Published string
	Excerpt   string
}

func (s *Server) handleReleaseIndex(c *gin.Context) {
	releases, err := s.state.CachedReleases()
	if err != nil {
		_ = c.Error(err)
		s.render(c, http.StatusInternalServerError, "error.html", gin.H{"error": "Releases could not be loaded."})
		return
	}

	loc := s.config.Current().Location()
	rows := make([]releaseRow, 0, len(releases))
	for _, r := range releases {
		rows = append(rows, releaseRow{
			Repo:      r.Repo,
			Slug:      models.ReleaseSlug(r.Repo),
			Tag:       r.Tag,
			Name:      r.Name,
			Published: monitor.FormatMarker(r.PublishedAt, loc),
			Excerpt:   s.markdown.Excerpt(r.Body, excerptLength),
		})
	}
	s.render(c, http.StatusOK, "releases.html", gin.H{"releases": rows})
}

func (s *Server) handleReleasePage(c *gin.Context) {
	key := models.KeyFromSlug(c.Param("slug"))
	payload, err := s.state.GetCachedRelease(key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.render(c, http.StatusNotFound, "error.html", gin.H{"error": "No release known for " + key + "."})
			return
		}
		_ = c.Error(err)
		s.render(c, http.StatusInternalServerError, "error.html", gin.H{"error": "Release could not be loaded."})
		return
	}

	body, err := s.releaseBody(c, *payload)
	if err != nil {
		_ = c.Error(err)
		body = template.HTML(template.HTMLEscapeString(payload.Body))
	}

	s.render(c, http.StatusOK, "release.html", gin.H{
		"release":   payload,
		"body":      body,
		"published": monitor.FormatMarker(payload.PublishedAt, s.config.Current().Location()),
		"downloads": payload.TotalDownloads(),
	})
}

// releaseBody renders the changelog, going through the page cache. The key
// includes the marker so a new release never serves an old rendering.
func (s *Server) releaseBody(c *gin.Context, payload models.ReleasePayload) (template.HTML, error) {
	cacheKey := "release:" + payload.Repo + ":" + payload.Marker()
	if cached, ok := s.cache.Get(c.Request.Context(), cacheKey); ok {
		return template.HTML(cached), nil
	}
	rendered, err := s.markdown.Render(payload.Body)
	if err != nil {
		return "", err
	}
	s.cache.Set(c.Request.Context(), cacheKey, string(rendered))
	return rendered, nil
}
