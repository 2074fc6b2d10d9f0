package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/movie-booking/internal/model"
)

// MovieRepo is the catalog store.  Titles are unique; the surrogate id
// stays stable across renames.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo returns a MovieRepo bound to db.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = `id, title, description, trailer, image, rating, labels, created_at, updated_at`

// ListAll returns every movie ordered by title.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()
	out := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return out, nil
}

// GetByID returns the movie with id or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	return scanMovie(row)
}

// GetByTitle returns the movie whose title equals title exactly.
func (r *MovieRepo) GetByTitle(ctx context.Context, title string) (model.Movie, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE title = ?`, title)
	return scanMovie(row)
}

// Create inserts m and sets its id.  A duplicate title yields ErrMovieExists.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	labels, err := encodeLabels(m.Labels)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (title, description, trailer, image, rating, labels, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Description, m.Trailer, m.Image, nullRating(m.Rating), labels, now, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrMovieExists
		}
		return fmt.Errorf("insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	m.ID = uint64(id)
	m.CreatedAt, m.UpdatedAt = now, now
	return nil
}

// Update overwrites the movie with m.ID.  Changing the title renames the
// movie; renaming onto another movie's title yields ErrMovieExists.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	labels, err := encodeLabels(m.Labels)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE movies SET title = ?, description = ?, trailer = ?, image = ?, rating = ?, labels = ?, updated_at = ?
WHERE id = ?`,
		m.Title, m.Description, m.Trailer, m.Image, nullRating(m.Rating), labels, now, m.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrMovieExists
		}
		return fmt.Errorf("update movie: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	if n == 0 {
		// MySQL reports 0 for an unchanged row too.
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, m.ID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMovieNotFound
		}
		if err != nil {
			return fmt.Errorf("update movie: %w", err)
		}
	}
	m.UpdatedAt = now
	return nil
}

// Delete removes the movie with id.  Existing bookings keep the title
// they were made with.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

func scanMovie(s rowScanner) (model.Movie, error) {
	var (
		m      model.Movie
		rating sql.NullFloat64
		labels []byte
	)
	err := s.Scan(&m.ID, &m.Title, &m.Description, &m.Trailer, &m.Image, &rating, &labels, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrMovieNotFound
	}
	if err != nil {
		return m, fmt.Errorf("scan movie: %w", err)
	}
	if rating.Valid {
		v := rating.Float64
		m.Rating = &v
	}
	m.Labels = []string{}
	if len(labels) > 0 {
		if err := json.Unmarshal(labels, &m.Labels); err != nil {
			return m, fmt.Errorf("decode labels of movie %d: %w", m.ID, err)
		}
	}
	return m, nil
}

func encodeLabels(labels []string) ([]byte, error) {
	if labels == nil {
		labels = []string{}
	}
	b, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}
	return b, nil
}

func nullRating(r *float64) sql.NullFloat64 {
	if r == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *r, Valid: true}
}
