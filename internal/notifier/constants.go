package notifier

// ntfy header values
const (
	GitHubIconURL   = "https://github.githubassets.com/images/modules/logos_page/GitHub-Mark.png"
	DefaultPriority = "default"
	markdownEnabled = "true"
)

// Message text
const (
	ReleaseTitlePrefix   = "🚀 Neues Release: "
	StatsTitlePrefix     = "📈 Tagesstatistik: "
	NoDescriptionText    = "Keine Beschreibung verfügbar"
	ReleaseLinkLabel     = "Download & Changelog"
	MaxMessageBodyLength = 4000 // ntfy rejects larger plain-text bodies
)

var (
	releaseTags = []string{"github", "release"}
	statsTags   = []string{"stats", "website"}
)
