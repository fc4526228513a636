package domain

import "sort"

// Item is a logical media unit to acquire, with metadata and an ordered
// list of candidate sources. The catalog owns items; the acquisition
// core only reads them (it never mutates title, description or the
// original source list).
type Item struct {
	Title         string   `json:"title"`
	SeriesID      string   `json:"series_id"`
	SequenceIndex int      `json:"sequence_index"`
	Description   string   `json:"description,omitempty"`
	Sources       []Source `json:"sources"`
	Duration      string   `json:"duration,omitempty"`
	Year          int      `json:"year,omitempty"`
}

// SortedSources returns a copy of the item's sources sorted ascending
// by priority (lower priority value is tried first). The sort is stable
// so sources sharing a priority keep their catalog order.
func (it *Item) SortedSources() []Source {
	sources := make([]Source, len(it.Sources))
	copy(sources, it.Sources)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority < sources[j].Priority
	})
	return sources
}

// HasSources reports whether the item lists any known sources.
func (it *Item) HasSources() bool {
	return len(it.Sources) > 0
}
