package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/monitor"
	"github.com/aleister1102/releasewatch/internal/scheduler"
	"github.com/gin-gonic/gin"
)

const (
	dashboardHistory = 10
	excerptLength    = 160
)

type repoRow struct {
	Repo        string
	Slug        string
	LastRelease string
	Tag         string
	Excerpt     string
}

type siteRow struct {
	Site      string
	LastDay   string
	CheckedAt string
	Stats     *models.StatsSnapshot
}

func (s *Server) handleDashboard(c *gin.Context) {
	snap := s.config.Current()
	cfg := snap.Config()

	state, err := s.state.Snapshot()
	if err != nil {
		_ = c.Error(err)
		s.render(c, http.StatusInternalServerError, "error.html", gin.H{"error": "State could not be loaded."})
		return
	}

	repos := monitor.SortedRepos(cfg.GitHub.Repos, state.GitHub)
	repoRows := make([]repoRow, 0, len(repos))
	for _, repo := range repos {
		row := repoRow{
			Repo:        repo,
			Slug:        models.ReleaseSlug(repo),
			LastRelease: monitor.FormatMarker(state.GitHub[repo], snap.Location()),
		}
		if payload, err := s.state.GetCachedRelease(repo); err == nil {
			row.Tag = payload.Tag
			row.Excerpt = s.markdown.Excerpt(payload.Body, excerptLength)
		} else if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn().Err(err).Str("repo", repo).Msg("Cached release unreadable")
		}
		repoRows = append(repoRows, row)
	}

	siteRows := make([]siteRow, 0, len(cfg.Plausible.Sites))
	for _, site := range cfg.Plausible.Sites {
		row := siteRow{
			Site:      site,
			LastDay:   state.Plausible.Markers[site],
			CheckedAt: state.Plausible.CheckedSites[site],
		}
		if stats, err := s.state.GetCachedStats(site); err == nil {
			row.Stats = stats
		}
		siteRows = append(siteRows, row)
	}

	s.render(c, http.StatusOK, "index.html", gin.H{
		"config":            cfg,
		"repos":             repoRows,
		"sites":             siteRows,
		"plausible":         state.Plausible,
		"history":           s.recentHistory(c.Request.Context(), "", dashboardHistory),
		"scheduler_running": s.scheduler.IsRunning(),
	})
}

func (s *Server) recentHistory(ctx context.Context, group string, limit int) []scheduler.HistoryEntry {
	if s.history == nil {
		return nil
	}
	entries, err := s.history.RecentCycles(ctx, group, limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read cycle history")
		return nil
	}
	return entries
}
