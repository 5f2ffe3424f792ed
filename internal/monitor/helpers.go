package monitor

import (
	"sort"
	"time"
)

const (
	// absentMarker sorts repositories that were never fetched last
	absentMarker = "0000-00-00T00:00:00Z"
	// DisplayTimeLayout is how markers and cycle times are shown to operators
	DisplayTimeLayout = "02.01.2006 15:04"
)

// ReportDue reports whether the daily stats report should be sent at now.
// A manual request is always due. Otherwise the report time of now's day must
// have been reached and no report may be recorded for that day yet.
func ReportDue(now time.Time, hour, minute int, lastReport string, manual bool) bool {
	if manual {
		return true
	}
	reportAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return !now.Before(reportAt) && lastReport != now.Format(dayLayout)
}

// SortedRepos orders repos by stored marker, newest first
func SortedRepos(repos []string, markers map[string]string) []string {
	out := append([]string(nil), repos...)
	key := func(repo string) string {
		if m := markers[repo]; m != "" {
			return m
		}
		return absentMarker
	}
	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]) > key(out[j])
	})
	return out
}

// FormatMarker renders an RFC 3339 release marker in loc. An empty marker
// stays empty and a value that does not parse is returned unchanged.
func FormatMarker(marker string, loc *time.Location) string {
	if marker == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, marker)
	if err != nil {
		return marker
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DisplayTimeLayout)
}
