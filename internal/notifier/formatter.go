package notifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aleister1102/releasewatch/internal/models"
)

// ReleaseLink is the URL a release notification points to. With a public base
// URL it is the local release page, otherwise the upstream release page.
func ReleaseLink(payload models.ReleasePayload, publicBaseURL string) string {
	if publicBaseURL == "" {
		return payload.HTMLURL
	}
	return strings.TrimRight(publicBaseURL, "/") + "/releases/" + models.ReleaseSlug(payload.Repo)
}

// FormatReleaseMessage builds the notification for a newly seen release
func FormatReleaseMessage(topic string, payload models.ReleasePayload, publicBaseURL string) models.Notification {
	link := ReleaseLink(payload, publicBaseURL)

	description := strings.TrimSpace(payload.Body)
	if description == "" {
		description = NoDescriptionText
	}
	body := fmt.Sprintf("**%s** veröffentlicht!\n\n%s\n\n[%s](%s)", payload.Tag, description, ReleaseLinkLabel, link)

	return NewNotificationBuilder(topic).
		WithTitle(ReleaseTitlePrefix + payload.Repo).
		WithBody(body).
		WithTags(releaseTags...).
		WithClick(link).
		WithIcon(GitHubIconURL).
		Build()
}

// StatsTemplateValues returns the slot values available to the stats template
func StatsTemplateValues(snap models.StatsSnapshot) map[string]string {
	return map[string]string{
		"site":           snap.Site,
		"visitors":       strconv.FormatInt(snap.Visitors, 10),
		"pageviews":      strconv.FormatInt(snap.Pageviews, 10),
		"bounce_rate":    strconv.FormatFloat(snap.BounceRate, 'f', -1, 64),
		"visit_duration": strconv.FormatInt(snap.VisitDuration, 10),
		"date":           snap.Day,
	}
}

// FormatStatsMessage builds the daily report notification for one site
func FormatStatsMessage(topic, template string, snap models.StatsSnapshot) models.Notification {
	return NewNotificationBuilder(topic).
		WithTitle(StatsTitlePrefix + snap.Site).
		WithBody(RenderTemplate(template, StatsTemplateValues(snap))).
		WithTags(statsTags...).
		Build()
}
