package web

import (
	"net/http"
	"strings"

	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/gin-gonic/gin"
)

// groupsFor maps the run-check form value onto monitor groups
func groupsFor(group string) ([]models.EntityKind, bool) {
	switch group {
	case "", string(models.KindRelease):
		return []models.EntityKind{models.KindRelease}, true
	case string(models.KindStats):
		return []models.EntityKind{models.KindStats}, true
	case "all":
		return []models.EntityKind{models.KindRelease, models.KindStats}, true
	default:
		return nil, false
	}
}

func (s *Server) handleRunCheck(c *gin.Context) {
	kinds, ok := groupsFor(strings.TrimSpace(c.PostForm("group")))
	if !ok {
		setFlash(c, flashDanger, "Unknown check group.")
		c.Redirect(http.StatusFound, "/")
		return
	}

	var queued, pending []string
	for _, kind := range kinds {
		accepted, err := s.scheduler.Trigger(kind)
		if err != nil {
			s.logger.Error().Err(err).Str("group", string(kind)).Msg("Manual check could not be queued")
			setFlash(c, flashDanger, "Manual "+string(kind)+" check could not be queued.")
			c.Redirect(http.StatusFound, "/")
			return
		}
		if accepted {
			queued = append(queued, string(kind))
		} else {
			pending = append(pending, string(kind))
		}
	}

	s.logger.Info().
		Str("username", userFrom(c).Username).
		Strs("queued", queued).
		Strs("already_pending", pending).
		Msg("Manual check requested")

	msg := ""
	if len(queued) > 0 {
		msg = "Manual check queued: " + strings.Join(queued, ", ") + "."
	}
	if len(pending) > 0 {
		msg = strings.TrimSpace(msg + " Already pending: " + strings.Join(pending, ", ") + ".")
	}
	setFlash(c, flashSuccess, msg)
	c.Redirect(http.StatusFound, "/")
}
