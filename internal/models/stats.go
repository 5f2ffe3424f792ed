package models

import "time"

// StatsSnapshot is one day of aggregate analytics for a site
type StatsSnapshot struct {
	Site          string    `json:"site"`
	Visitors      int64     `json:"visitors"`
	Pageviews     int64     `json:"pageviews"`
	BounceRate    float64   `json:"bounce_rate"`
	VisitDuration int64     `json:"visit_duration"`
	Day           string    `json:"day"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Marker is the reporting day, YYYY-MM-DD in the reference zone
func (s StatsSnapshot) Marker() string {
	return s.Day
}

// StatsArchiveRecord is the parquet row written for every fetched snapshot
type StatsArchiveRecord struct {
	Site          string  `parquet:"site,dict"`
	Day           string  `parquet:"day"`
	Visitors      int64   `parquet:"visitors"`
	Pageviews     int64   `parquet:"pageviews"`
	BounceRate    float64 `parquet:"bounce_rate"`
	VisitDuration int64   `parquet:"visit_duration"`
	FetchedAt     int64   `parquet:"fetched_at"` // unix milliseconds
	Manual        bool    `parquet:"manual"`
}

// ToArchiveRecord converts a snapshot into its parquet row
func (s StatsSnapshot) ToArchiveRecord(manual bool) StatsArchiveRecord {
	return StatsArchiveRecord{
		Site:          s.Site,
		Day:           s.Day,
		Visitors:      s.Visitors,
		Pageviews:     s.Pageviews,
		BounceRate:    s.BounceRate,
		VisitDuration: s.VisitDuration,
		FetchedAt:     s.FetchedAt.UnixMilli(),
		Manual:        manual,
	}
}

// Snapshot converts an archived row back into a snapshot
func (r StatsArchiveRecord) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Site:          r.Site,
		Visitors:      r.Visitors,
		Pageviews:     r.Pageviews,
		BounceRate:    r.BounceRate,
		VisitDuration: r.VisitDuration,
		Day:           r.Day,
		FetchedAt:     time.UnixMilli(r.FetchedAt).UTC(),
	}
}
