// Package concert stores concerts and their artist enrichment data in SQLite.
package concert

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no concert has the requested ID.
var ErrNotFound = errors.New("concert not found")

const concertColumns = `id, title, venue, date, mbid, genres, wikipedia_url, artist_description, artist_image, created_at, updated_at`

// Service provides concert data operations.
type Service struct {
	db *sql.DB
}

// NewService creates a concert service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Validate trims the title and checks the fields Create and Update require.
func Validate(c *Concert) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return fmt.Errorf("concert title is required")
	}
	if c.Date != "" {
		if _, err := time.Parse(DateLayout, c.Date); err != nil {
			return fmt.Errorf("concert date must be YYYY-MM-DD: %q", c.Date)
		}
	}
	return nil
}

// Create inserts a new concert, assigning an ID when none is set.
func (s *Service) Create(ctx context.Context, c *Concert) error {
	if err := Validate(c); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	genres, err := encodeGenres(c.Artist.Genres)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO concerts (`+concertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.Title, c.Venue, c.Date,
		nullableString(c.Artist.MBID), genres, nullableString(c.Artist.WikipediaURL),
		nullableString(c.Artist.Description), nullableString(c.Artist.Image),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating concert: %w", err)
	}
	return nil
}

// GetByID retrieves a concert by primary key.
func (s *Service) GetByID(ctx context.Context, id string) (*Concert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+concertColumns+` FROM concerts WHERE id = ?`, id)
	c, err := scanConcert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting concert by id: %w", err)
	}
	return c, nil
}

// List returns all concerts ordered by date, undated ones last.
func (s *Service) List(ctx context.Context) ([]Concert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+concertColumns+` FROM concerts ORDER BY date = '', date, title`)
	if err != nil {
		return nil, fmt.Errorf("listing concerts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var concerts []Concert
	for rows.Next() {
		c, err := scanConcert(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning concert: %w", err)
		}
		concerts = append(concerts, *c)
	}
	return concerts, rows.Err()
}

// Update writes all fields of an existing concert.
func (s *Service) Update(ctx context.Context, c *Concert) error {
	if err := Validate(c); err != nil {
		return err
	}
	genres, err := encodeGenres(c.Artist.Genres)
	if err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE concerts SET title = ?, venue = ?, date = ?, mbid = ?, genres = ?, wikipedia_url = ?,
			artist_description = ?, artist_image = ?, updated_at = ?
		WHERE id = ?
	`,
		c.Title, c.Venue, c.Date,
		nullableString(c.Artist.MBID), genres, nullableString(c.Artist.WikipediaURL),
		nullableString(c.Artist.Description), nullableString(c.Artist.Image),
		c.UpdatedAt.Format(time.RFC3339),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating concert: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, c.ID)
	}
	return nil
}

// Delete removes a concert by ID. Stored images are the caller's concern.
func (s *Service) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM concerts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting concert: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanConcert(row interface{ Scan(...any) error }) (*Concert, error) {
	var c Concert
	var mbid, genres, wikiURL, description, image sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&c.ID, &c.Title, &c.Venue, &c.Date,
		&mbid, &genres, &wikiURL, &description, &image,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Artist.MBID = mbid.String
	c.Artist.WikipediaURL = wikiURL.String
	c.Artist.Description = description.String
	c.Artist.Image = image.String
	if genres.Valid && genres.String != "" {
		if err := json.Unmarshal([]byte(genres.String), &c.Artist.Genres); err != nil {
			return nil, fmt.Errorf("decoding genres: %w", err)
		}
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)

	return &c, nil
}

// encodeGenres stores an empty list as NULL.
func encodeGenres(genres []string) (any, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(genres)
	if err != nil {
		return nil, fmt.Errorf("encoding genres: %w", err)
	}
	return string(data), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
