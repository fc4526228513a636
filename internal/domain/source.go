package domain

import "strings"

// Health is the probed reachability state of a source.
type Health string

const (
	HealthUnknown     Health = "unknown"
	HealthReachable   Health = "reachable"
	HealthUnreachable Health = "unreachable"
)

// SourceKind classifies where a source URL points
type SourceKind string

const (
	KindYouTube     SourceKind = "youtube"
	KindDailymotion SourceKind = "dailymotion"
	KindArchive     SourceKind = "archive"
	KindGeneric     SourceKind = "generic"
)

// Source is one candidate network location for acquiring an item.
// Everything except Health is immutable after construction; Health is
// written by the prober and read by the orchestrator.
type Source struct {
	URL      string     `json:"url"`
	Kind     SourceKind `json:"kind"`
	Quality  string     `json:"quality,omitempty"`
	Priority int        `json:"priority"`
	Health   Health     `json:"-"`
}

// NewSource creates a source with the given priority. An empty kind is
// detected from the URL.
func NewSource(url string, kind SourceKind, priority int) Source {
	if kind == "" {
		kind = DetectKind(url)
	}
	return Source{
		URL:      url,
		Kind:     kind,
		Priority: priority,
		Health:   HealthUnknown,
	}
}

// MarkReachable records a successful probe.
func (s *Source) MarkReachable() {
	s.Health = HealthReachable
}

// MarkUnreachable records a failed probe.
func (s *Source) MarkUnreachable() {
	s.Health = HealthUnreachable
}

// IsReachable reports whether the last probe succeeded.
func (s *Source) IsReachable() bool {
	return s.Health == HealthReachable
}

// DetectKind detects the source kind from a URL.
func DetectKind(url string) SourceKind {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "youtube.com/") || strings.Contains(lower, "youtu.be/"):
		return KindYouTube
	case strings.Contains(lower, "dailymotion.com/"):
		return KindDailymotion
	case strings.Contains(lower, "archive.org/"):
		return KindArchive
	default:
		return KindGeneric
	}
}

// ValidateKind checks if a source kind is one of the recognized values.
func ValidateKind(kind SourceKind) bool {
	switch kind {
	case KindYouTube, KindDailymotion, KindArchive, KindGeneric:
		return true
	default:
		return false
	}
}
