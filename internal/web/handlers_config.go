package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/gin-gonic/gin"
)

const siteDiscoveryTimeout = 15 * time.Second

func (s *Server) handleConfigForm(c *gin.Context) {
	cfg := s.config.Current().Config()
	data := gin.H{"config": cfg}

	if c.Query("discover") == "1" && s.sites != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), siteDiscoveryTimeout)
		defer cancel()
		sites, err := s.sites.ListSites(ctx, cfg.Plausible.Token)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Plausible site discovery failed")
			data["discover_error"] = err.Error()
		} else {
			data["available_sites"] = sites
		}
	}

	s.render(c, http.StatusOK, "config.html", data)
}

func (s *Server) handleConfigSave(c *gin.Context) {
	cfg := s.config.Current().Config()

	cfg.GitHub.Repos = splitList(c.PostForm("github_repos"))
	cfg.GitHub.NtfyTopic = orDefault(c.PostForm("github_ntfy_topic"), config.DefaultGitHubNtfyTopic)
	keepUnlessBlank(&cfg.GitHub.Token, c.PostForm("github_token"))

	cfg.Plausible.Sites = splitList(c.PostForm("plausible_sites"))
	cfg.Plausible.NtfyTopic = orDefault(c.PostForm("plausible_ntfy_topic"), config.DefaultPlausibleNtfyTopic)
	cfg.Plausible.ReportTime = orDefault(c.PostForm("plausible_report_time"), cfg.Plausible.ReportTime)
	keepUnlessBlank(&cfg.Plausible.Token, c.PostForm("plausible_token"))

	cfg.Ntfy.BaseURL = orDefault(c.PostForm("ntfy_base_url"), config.DefaultNtfyBaseURL)
	keepUnlessBlank(&cfg.Ntfy.Token, c.PostForm("ntfy_token"))

	cfg.General.CheckInterval = parseInterval(c.PostForm("check_interval"))

	if err := s.config.Update(cfg); err != nil {
		s.logger.Warn().Err(err).Msg("Rejected configuration update")
		s.render(c, http.StatusBadRequest, "config.html", gin.H{
			"config": cfg,
			"error":  err.Error(),
		})
		return
	}

	s.logger.Info().Str("username", userFrom(c).Username).Msg("Configuration saved from web interface")
	setFlash(c, flashSuccess, "Configuration saved.")
	c.Redirect(http.StatusFound, "/")
}

// splitList parses a comma separated form value, dropping blank entries
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseInterval falls back to the default for anything but a positive integer
func parseInterval(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return config.DefaultCheckIntervalSeconds
	}
	return n
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// keepUnlessBlank only replaces a secret when the form carries a new one
func keepUnlessBlank(target *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*target = v
	}
}
