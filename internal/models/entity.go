package models

import "strings"

// EntityKind identifies which adapter and monitor group an entity belongs to
type EntityKind string

const (
	// KindRelease is a repository watched for new releases
	KindRelease EntityKind = "github"
	// KindStats is an analytics site reported once per day
	KindStats EntityKind = "plausible"
)

// Valid reports whether k is a known kind
func (k EntityKind) Valid() bool {
	return k == KindRelease || k == KindStats
}

// Outcome is the terminal result of one entity check
type Outcome string

const (
	OutcomeNotified    Outcome = "notified"
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeFetchFailed Outcome = "fetch_failed"
)

// ReleaseSlug turns "owner/name" into the URL slug "owner-name"
func ReleaseSlug(key string) string {
	return strings.ReplaceAll(key, "/", "-")
}

// KeyFromSlug reverses ReleaseSlug by splitting on the first "-" only. Owners
// containing "-" do not round-trip. A slug without "-" is returned unchanged.
func KeyFromSlug(slug string) string {
	owner, name, found := strings.Cut(slug, "-")
	if !found {
		return slug
	}
	return owner + "/" + name
}
