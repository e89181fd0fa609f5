package registrations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
)

const columns = `registration_id, event_id, name, email, phone, organization,
	designation, credential, qr_object_key, registration_type, status,
	checked_in_at, whatsapp_sent, created_at, updated_at`

// Repository handles registration persistence and the read-only lookup paths.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new pending registration.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations
		(registration_id, event_id, name, email, phone, organization, designation,
		 credential, registration_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, q,
		reg.RegistrationID, reg.EventID, reg.Name, reg.Email, reg.Phone,
		reg.Organization, reg.Designation, reg.Credential, reg.Type, reg.Status,
	).Scan(&reg.CreatedAt, &reg.UpdatedAt)
}

// GetByID returns a registration by its public ID, or nil when absent.
func (r *Repository) GetByID(ctx context.Context, registrationID string) (*models.Registration, error) {
	q := `SELECT ` + columns + ` FROM registrations WHERE registration_id = $1`
	return scanOne(r.pool.QueryRow(ctx, q, registrationID))
}

// FindByEmail returns registrations matching the email, case-insensitively,
// newest first. eventID narrows the search when non-empty. No match is an
// empty slice, not an error.
func (r *Repository) FindByEmail(ctx context.Context, eventID, email string) ([]models.Registration, error) {
	q := `SELECT ` + columns + ` FROM registrations WHERE LOWER(email) = LOWER($1)`
	args := []any{email}
	if eventID != "" {
		q += ` AND event_id = $2`
		args = append(args, eventID)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// ListByEvent returns all registrations for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error) {
	q := `SELECT ` + columns + ` FROM registrations WHERE event_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// List returns all registrations, newest first (admin view).
func (r *Repository) List(ctx context.Context) ([]models.Registration, error) {
	q := `SELECT ` + columns + ` FROM registrations ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// CountByEvent returns per-type and per-status counts for an event.
func (r *Repository) CountByEvent(ctx context.Context, eventID string) (total, checkedIn, online, kiosk int, err error) {
	const q = `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = $2),
		COUNT(*) FILTER (WHERE registration_type = $3),
		COUNT(*) FILTER (WHERE registration_type = $4)
		FROM registrations WHERE event_id = $1`
	err = r.pool.QueryRow(ctx, q, eventID,
		models.StatusCheckedIn, models.RegistrationOnline, models.RegistrationKiosk,
	).Scan(&total, &checkedIn, &online, &kiosk)
	return total, checkedIn, online, kiosk, err
}

// SetQRObjectKey records the S3 key of the uploaded QR badge image.
func (r *Repository) SetQRObjectKey(ctx context.Context, registrationID, key string) error {
	const q = `UPDATE registrations SET qr_object_key = $2, updated_at = NOW() WHERE registration_id = $1`
	_, err := r.pool.Exec(ctx, q, registrationID, key)
	return err
}

func scanOne(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(
		&reg.RegistrationID, &reg.EventID, &reg.Name, &reg.Email, &reg.Phone,
		&reg.Organization, &reg.Designation, &reg.Credential, &reg.QRObjectKey,
		&reg.Type, &reg.Status, &reg.CheckedInAt, &reg.WhatsappSent,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func scanAll(rows pgx.Rows) ([]models.Registration, error) {
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(
			&reg.RegistrationID, &reg.EventID, &reg.Name, &reg.Email, &reg.Phone,
			&reg.Organization, &reg.Designation, &reg.Credential, &reg.QRObjectKey,
			&reg.Type, &reg.Status, &reg.CheckedInAt, &reg.WhatsappSent,
			&reg.CreatedAt, &reg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}
