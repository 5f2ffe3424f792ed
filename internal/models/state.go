package models

// StateRecord is the persisted last-seen state of every entity
type StateRecord struct {
	GitHub    map[string]string `json:"github"`
	Plausible PlausibleState    `json:"plausible"`
}

// PlausibleState carries the stats markers plus report bookkeeping
type PlausibleState struct {
	// Markers maps site to the last reported day
	Markers map[string]string `json:"markers"`
	// CheckedSites maps site to the local time of its last successful report
	CheckedSites map[string]string `json:"checked_sites"`
	LastReport   string            `json:"last_report,omitempty"`
	LastCheck    string            `json:"last_check,omitempty"`
	Manual       bool              `json:"manual"`
}

// NewStateRecord returns an empty record with all maps allocated
func NewStateRecord() StateRecord {
	return StateRecord{
		GitHub: map[string]string{},
		Plausible: PlausibleState{
			Markers:      map[string]string{},
			CheckedSites: map[string]string{},
		},
	}
}

// Normalize allocates maps left nil by decoding an older or partial file
func (s *StateRecord) Normalize() {
	if s.GitHub == nil {
		s.GitHub = map[string]string{}
	}
	if s.Plausible.Markers == nil {
		s.Plausible.Markers = map[string]string{}
	}
	if s.Plausible.CheckedSites == nil {
		s.Plausible.CheckedSites = map[string]string{}
	}
}

// Markers returns the marker map for kind, nil for unknown kinds
func (s *StateRecord) Markers(kind EntityKind) map[string]string {
	switch kind {
	case KindRelease:
		return s.GitHub
	case KindStats:
		return s.Plausible.Markers
	default:
		return nil
	}
}

// Clone returns a deep copy
func (s StateRecord) Clone() StateRecord {
	out := NewStateRecord()
	for k, v := range s.GitHub {
		out.GitHub[k] = v
	}
	for k, v := range s.Plausible.Markers {
		out.Plausible.Markers[k] = v
	}
	for k, v := range s.Plausible.CheckedSites {
		out.Plausible.CheckedSites[k] = v
	}
	out.Plausible.LastReport = s.Plausible.LastReport
	out.Plausible.LastCheck = s.Plausible.LastCheck
	out.Plausible.Manual = s.Plausible.Manual
	return out
}
