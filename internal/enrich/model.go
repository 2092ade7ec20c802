package enrich

import "slices"

// ArtistInfo holds the enrichment fields stored on a record. Empty strings
// and a nil Genres slice mean "unknown".
type ArtistInfo struct {
	MBID         string   `json:"mbid,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	WikipediaURL string   `json:"wikipedia_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Image        string   `json:"image,omitempty"`
}

// Clear resets every field.
func (a *ArtistInfo) Clear() {
	*a = ArtistInfo{}
}

// IsEnriched reports whether any directory or encyclopedia data is present.
func (a *ArtistInfo) IsEnriched() bool {
	return a.MBID != "" || a.Description != ""
}

// Equal reports whether both hold the same values.
func (a *ArtistInfo) Equal(b ArtistInfo) bool {
	return a.MBID == b.MBID &&
		slices.Equal(a.Genres, b.Genres) &&
		a.WikipediaURL == b.WikipediaURL &&
		a.Description == b.Description &&
		a.Image == b.Image
}

// Target is a record that can be enriched in place.
type Target interface {
	// ArtistName is the free-text name looked up in the providers.
	ArtistName() string
	// RecordID identifies the record; it seeds stored image file names
	// and may be empty for records that are not persisted yet.
	RecordID() string
	// ArtistInfo returns the fields to update. It must not return nil.
	ArtistInfo() *ArtistInfo
}
