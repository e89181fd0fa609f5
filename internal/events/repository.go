package events

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
)

const columns = `event_id, name, date, time, venue, description, image_url,
	is_active, max_capacity, created_at, updated_at`

// Repository handles event persistence. The check-in core only reads from it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events
		(event_id, name, date, time, venue, description, image_url, is_active, max_capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		e.EventID, e.Name, e.Date, e.Time, e.Venue, e.Description,
		e.ImageURL, e.IsActive, e.MaxCapacity,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by ID, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, eventID string) (*models.Event, error) {
	q := `SELECT ` + columns + ` FROM events WHERE event_id = $1`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, eventID).Scan(
		&e.EventID, &e.Name, &e.Date, &e.Time, &e.Venue, &e.Description,
		&e.ImageURL, &e.IsActive, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetSummary returns the event with its live registration and check-in
// counts, or nil when absent. Counts come from the registration rows, not a
// maintained counter.
func (r *Repository) GetSummary(ctx context.Context, eventID string) (*models.EventSummary, error) {
	e, err := r.GetByID(ctx, eventID)
	if err != nil || e == nil {
		return nil, err
	}
	const q = `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $2)
		FROM registrations WHERE event_id = $1`
	var s models.EventSummary
	s.Event = *e
	if err := r.pool.QueryRow(ctx, q, eventID, models.StatusCheckedIn).
		Scan(&s.RegistrationCount, &s.CheckedInCount); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListActive returns active events ordered by date.
func (r *Repository) ListActive(ctx context.Context) ([]models.Event, error) {
	q := `SELECT ` + columns + ` FROM events WHERE is_active ORDER BY date ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(
			&e.EventID, &e.Name, &e.Date, &e.Time, &e.Venue, &e.Description,
			&e.ImageURL, &e.IsActive, &e.MaxCapacity, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update rewrites the mutable event fields.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events SET name = $2, date = $3, time = $4, venue = $5,
		description = $6, image_url = $7, max_capacity = $8, updated_at = NOW()
		WHERE event_id = $1
		RETURNING updated_at`
	return r.pool.QueryRow(ctx, q,
		e.EventID, e.Name, e.Date, e.Time, e.Venue, e.Description,
		e.ImageURL, e.MaxCapacity,
	).Scan(&e.UpdatedAt)
}

// Deactivate soft-deletes an event. Registrations are never deleted.
func (r *Repository) Deactivate(ctx context.Context, eventID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET is_active = FALSE, updated_at = NOW() WHERE event_id = $1`,
		eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
