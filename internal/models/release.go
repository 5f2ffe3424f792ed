package models

// Asset is one downloadable file attached to a release
type Asset struct {
	Name          string `json:"name"`
	Size          int64  `json:"size"`
	DownloadURL   string `json:"download_url"`
	DownloadCount int64  `json:"download_count"`
}

// ReleasePayload is the cached copy of the latest release of a repository
type ReleasePayload struct {
	Repo            string  `json:"repo"`
	Tag             string  `json:"tag"`
	Name            string  `json:"name"`
	Body            string  `json:"body"`
	PublishedAt     string  `json:"published_at"`
	HTMLURL         string  `json:"html_url"`
	AuthorLogin     string  `json:"author_login"`
	AuthorAvatarURL string  `json:"author_avatar_url"`
	Assets          []Asset `json:"assets"`
}

// Marker is the value compared between cycles
func (r ReleasePayload) Marker() string {
	return r.PublishedAt
}

// TotalDownloads sums download counts over all assets
func (r ReleasePayload) TotalDownloads() int64 {
	var total int64
	for _, a := range r.Assets {
		total += a.DownloadCount
	}
	return total
}
