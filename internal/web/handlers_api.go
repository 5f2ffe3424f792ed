package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/monitor"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	apiHistoryLimit   = 20
	defaultStatsLimit = 30
	maxStatsLimit     = 365
)

type repoStatus struct {
	Repo   string `json:"repo"`
	Slug   string `json:"slug"`
	Marker string `json:"marker,omitempty"`
}

func (s *Server) handleAPIStatus(c *gin.Context) {
	cfg := s.config.Current().Config()
	state, err := s.state.Snapshot()
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "state unavailable"})
		return
	}

	repos := make([]repoStatus, 0, len(cfg.GitHub.Repos))
	for _, repo := range monitor.SortedRepos(cfg.GitHub.Repos, state.GitHub) {
		repos = append(repos, repoStatus{Repo: repo, Slug: models.ReleaseSlug(repo), Marker: state.GitHub[repo]})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"scheduler_running": s.scheduler.IsRunning(),
		"github":            repos,
		"plausible":         state.Plausible,
		"history":           s.recentHistory(c.Request.Context(), c.Query("group"), apiHistoryLimit),
		"last_completed":    s.lastCompleted(c.Request.Context()),
	})
}

// lastCompleted maps each monitor group to the start of its latest completed cycle
func (s *Server) lastCompleted(ctx context.Context) map[string]*time.Time {
	out := map[string]*time.Time{}
	if s.history == nil {
		return out
	}
	for _, kind := range []models.EntityKind{models.KindRelease, models.KindStats} {
		last, err := s.history.LastCompleted(ctx, string(kind))
		if err != nil {
			s.logger.Warn().Err(err).Str("group", string(kind)).Msg("Failed to read last completed cycle")
			continue
		}
		out[string(kind)] = last
	}
	return out
}

func (s *Server) handleAPIStats(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "stats archive disabled"})
		return
	}

	limit := defaultStatsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxStatsLimit)
	}

	site := c.Param("site")
	records, err := s.archive.History(site, limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "stats archive unavailable"})
		return
	}

	snapshots := make([]models.StatsSnapshot, 0, len(records))
	for _, r := range records {
		snapshots = append(snapshots, r.Snapshot())
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"site":      site,
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"scheduler_running": s.scheduler.IsRunning(),
		"ws_clients":        clients,
		"page_cache":        s.cache.Enabled(),
		"resources":         common.GetResourceUsage(),
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header and those whose
// Origin host matches the request host
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

func (s *Server) handleEvents(c *gin.Context) {
	if s.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "event feed disabled"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WS upgrade failed")
		return
	}

	client := newWSClient(s.hub, conn)
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		_ = conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}
