package checkin

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
)

const registrationColumns = `registration_id, event_id, name, email, phone,
	organization, designation, credential, qr_object_key, registration_type,
	status, checked_in_at, whatsapp_sent, created_at, updated_at`

// Repository is the PostgreSQL-backed registration store for the check-in
// state machine.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a check-in repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByRegistrationID returns the registration with the given ID, or nil.
func (r *Repository) GetByRegistrationID(ctx context.Context, registrationID string) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE registration_id = $1`
	return scanRegistration(r.pool.QueryRow(ctx, q, registrationID))
}

// GetByRegistrationAndEvent returns the registration matching both the ID and
// its event binding, or nil.
func (r *Repository) GetByRegistrationAndEvent(ctx context.Context, registrationID, eventID string) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE registration_id = $1 AND event_id = $2`
	return scanRegistration(r.pool.QueryRow(ctx, q, registrationID, eventID))
}

// CheckIn applies the pending->checked_in transition and writes the audit row
// in one transaction. The UPDATE is conditioned on the current status, so two
// concurrent calls can never both apply: the row's status is the gate, not a
// prior read. Returns applied=false when the registration was already
// checked in (zero rows matched the precondition).
func (r *Repository) CheckIn(ctx context.Context, rec *models.CheckIn) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE registrations
		 SET status = $1, checked_in_at = $2, updated_at = NOW()
		 WHERE registration_id = $3 AND event_id = $4 AND status = $5`,
		models.StatusCheckedIn, rec.OccurredAt, rec.RegistrationID, rec.EventID, models.StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("conditional update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO checkins (checkin_id, registration_id, event_id, occurred_at)
		 VALUES ($1, $2, $3, $4)`,
		rec.CheckinID, rec.RegistrationID, rec.EventID, rec.OccurredAt,
	); err != nil {
		return false, fmt.Errorf("insert checkin: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// CountCheckedIn returns the number of checked-in registrations for an event,
// recomputed from the rows themselves so the broadcast value cannot drift.
func (r *Repository) CountCheckedIn(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = $2`,
		eventID, models.StatusCheckedIn,
	).Scan(&n)
	return n, err
}

// ListByEvent returns the check-in audit records for an event with their
// registrations, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID string) ([]CheckInDetail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.checkin_id, c.registration_id, c.event_id, c.occurred_at,
		        r.registration_id, r.event_id, r.name, r.email, r.phone,
		        r.organization, r.designation, r.credential, r.qr_object_key,
		        r.registration_type, r.status, r.checked_in_at, r.whatsapp_sent,
		        r.created_at, r.updated_at
		 FROM checkins c
		 JOIN registrations r ON r.registration_id = c.registration_id
		 WHERE c.event_id = $1
		 ORDER BY c.occurred_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []CheckInDetail
	for rows.Next() {
		var d CheckInDetail
		if err := rows.Scan(
			&d.CheckinID, &d.RegistrationID, &d.EventID, &d.OccurredAt,
			&d.Registration.RegistrationID, &d.Registration.EventID, &d.Registration.Name,
			&d.Registration.Email, &d.Registration.Phone, &d.Registration.Organization,
			&d.Registration.Designation, &d.Registration.Credential, &d.Registration.QRObjectKey,
			&d.Registration.Type, &d.Registration.Status, &d.Registration.CheckedInAt,
			&d.Registration.WhatsappSent, &d.Registration.CreatedAt, &d.Registration.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// CheckInDetail is an audit record joined with its registration, for the
// admin check-in log.
type CheckInDetail struct {
	models.CheckIn
	Registration models.Registration `json:"registration"`
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
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
