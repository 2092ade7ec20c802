package musicbrainz

// MusicBrainz API response types.

// SearchResponse is the top-level response from the artist search endpoint.
type SearchResponse struct {
	Created string     `json:"created"`
	Count   int        `json:"count"`
	Offset  int        `json:"offset"`
	Artists []MBArtist `json:"artists"`
}

// MBArtist represents a MusicBrainz artist entity. Search results carry
// Score; the lookup endpoint carries Tags, Genres and Relations.
type MBArtist struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	SortName       string       `json:"sort-name"`
	Type           string       `json:"type"`
	Disambiguation string       `json:"disambiguation"`
	Country        string       `json:"country"`
	Score          int          `json:"score"`
	Tags           []MBTag      `json:"tags"`
	Genres         []MBTag      `json:"genres"`
	Relations      []MBRelation `json:"relations"`
}

// MBTag is a curated genre or a community tag with its vote count.
type MBTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MBRelation represents a relationship between entities.
type MBRelation struct {
	Type       string         `json:"type"`
	TargetType string         `json:"target-type"`
	URL        *MBRelationURL `json:"url,omitempty"`
}

// MBRelationURL holds URL data within a relation.
type MBRelationURL struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
}

// Kind classifies what sort of artist a match is.
type Kind string

// Artist kinds.
const (
	KindGroup   Kind = "Group"
	KindPerson  Kind = "Person"
	KindOther   Kind = "Other"
	KindUnknown Kind = "Unknown"
)

// Match is the resolved identity of an artist. It is built once per
// successful lookup and never modified afterwards.
type Match struct {
	MBID           string   `json:"mbid"`
	Name           string   `json:"name"`
	Kind           Kind     `json:"kind"`
	Genres         []string `json:"genres,omitempty"`
	WikipediaURL   string   `json:"wikipedia_url,omitempty"`
	Disambiguation string   `json:"disambiguation,omitempty"`
}
