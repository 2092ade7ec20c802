package concert

import (
	"time"

	"github.com/kohlkopf/kohlkopf/internal/enrich"
)

// DateLayout is the format of Concert.Date.
const DateLayout = "2006-01-02"

// Concert is a show of one artist. The title doubles as the artist name
// used for enrichment.
type Concert struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Venue     string            `json:"venue,omitempty"`
	Date      string            `json:"date,omitempty"`
	Artist    enrich.ArtistInfo `json:"artist"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ArtistName implements enrich.Target.
func (c *Concert) ArtistName() string { return c.Title }

// RecordID implements enrich.Target.
func (c *Concert) RecordID() string { return c.ID }

// ArtistInfo implements enrich.Target.
func (c *Concert) ArtistInfo() *enrich.ArtistInfo { return &c.Artist }
