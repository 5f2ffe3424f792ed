package notifier

import (
	"strings"
	"testing"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   string
		values map[string]string
		want   string
	}{
		{"all slots", "{site}: {visitors}", map[string]string{"site": "a.com", "visitors": "3"}, "a.com: 3"},
		{"missing slot renders empty", "{site} {unknown}!", map[string]string{"site": "a.com"}, "a.com !"},
		{"no slots", "plain text", nil, "plain text"},
		{"braces that are not slots", "{ x } {1a}", nil, "{ x } {1a}"},
		{"repeated slot", "{a}{a}", map[string]string{"a": "x"}, "xx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderTemplate(tt.tmpl, tt.values))
		})
	}
}

func TestFormatReleaseMessage(t *testing.T) {
	payload := models.ReleasePayload{
		Repo:    "acme/widget",
		Tag:     "v1.2.0",
		Body:    "- faster",
		HTMLURL: "https://github.com/acme/widget/releases/tag/v1.2.0",
	}

	n := FormatReleaseMessage("github", payload, "")
	assert.Equal(t, "github", n.Topic)
	assert.Equal(t, "🚀 Neues Release: acme/widget", n.Title)
	assert.Equal(t, []string{"github", "release"}, n.Tags)
	assert.Equal(t, "**v1.2.0** veröffentlicht!\n\n- faster\n\n[Download & Changelog](https://github.com/acme/widget/releases/tag/v1.2.0)", n.Body)
	assert.Equal(t, payload.HTMLURL, n.ExtraHeaders["Click"])
	assert.Equal(t, GitHubIconURL, n.ExtraHeaders["Icon"])
}

func TestFormatReleaseMessage_BaseURLAndEmptyBody(t *testing.T) {
	payload := models.ReleasePayload{Repo: "acme/widget", Tag: "v2", HTMLURL: "https://github.com/x"}

	n := FormatReleaseMessage("github", payload, "https://watch.example.com/")
	assert.Contains(t, n.Body, NoDescriptionText)
	assert.Contains(t, n.Body, "(https://watch.example.com/releases/acme-widget)")
	assert.Equal(t, "https://watch.example.com/releases/acme-widget", n.ExtraHeaders["Click"])
}

func TestFormatReleaseMessage_TruncatesLongBody(t *testing.T) {
	payload := models.ReleasePayload{Repo: "acme/widget", Tag: "v3", Body: strings.Repeat("ä", MaxMessageBodyLength)}

	n := FormatReleaseMessage("github", payload, "")
	assert.LessOrEqual(t, len(n.Body), MaxMessageBodyLength)
	assert.True(t, strings.HasSuffix(n.Body, "..."))
}

func TestFormatStatsMessage_DefaultTemplate(t *testing.T) {
	snap := models.StatsSnapshot{Site: "example.com", Visitors: 42, Pageviews: 99, BounceRate: 37.5, VisitDuration: 61, Day: "2024-05-01"}

	n := FormatStatsMessage("plausible", config.DefaultPlausibleTemplate, snap)
	assert.Equal(t, "📈 Tagesstatistik: example.com", n.Title)
	assert.Equal(t, []string{"stats", "website"}, n.Tags)
	assert.Equal(t, "**Tagesstatistik für example.com**\n\n"+
		"📊 Besucher: 42\n"+
		"👀 Seitenaufrufe: 99\n"+
		"↩️ Absprungrate: 37.5%\n"+
		"⏱️ Durchschn. Besuchsdauer: 61s", n.Body)
	assert.Empty(t, n.ExtraHeaders)
}
