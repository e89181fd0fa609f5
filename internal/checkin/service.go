// Package checkin holds the authoritative gate for the pending->checked_in
// transition. Every scanner and kiosk funnels through Service.Verify; nothing
// else mutates a registration's status.
package checkin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KATHANJAIN1311/creative-era-event/internal/credential"
	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
)

// Store is the registration persistence the state machine needs. CheckIn must
// perform the status transition conditionally (only when the current status
// is pending) and atomically with the audit insert; applied=false reports a
// failed precondition, not an error.
type Store interface {
	GetByRegistrationID(ctx context.Context, registrationID string) (*models.Registration, error)
	GetByRegistrationAndEvent(ctx context.Context, registrationID, eventID string) (*models.Registration, error)
	CheckIn(ctx context.Context, rec *models.CheckIn) (applied bool, err error)
	CountCheckedIn(ctx context.Context, eventID string) (int, error)
}

// EventStore resolves the parent event summary for successful outcomes.
type EventStore interface {
	GetSummary(ctx context.Context, eventID string) (*models.EventSummary, error)
}

// Broadcaster fans the post-transition count out to dashboards. Publish must
// not block; delivery is best effort (a missed count is superseded by the
// next one).
type Broadcaster interface {
	PublishCheckIn(eventID string, checkedInCount int)
}

// Outcome is the result of a Verify call. AlreadyCheckedIn is a normal,
// reportable state, not a fault.
type Outcome struct {
	Success          bool                 `json:"success"`
	AlreadyCheckedIn bool                 `json:"already_checked_in"`
	Registration     *models.Registration `json:"registration"`
	Event            *models.EventSummary `json:"event,omitempty"`
	CheckIn          *models.CheckIn      `json:"checkin,omitempty"`
	Message          string               `json:"message"`
}

// Service implements the check-in state machine.
type Service struct {
	codec       *credential.Codec
	store       Store
	events      EventStore
	broadcaster Broadcaster
	now         func() time.Time
	logger      *zap.Logger
}

// NewService creates the check-in service. events and broadcaster may be nil
// (outcomes then omit the event summary / no counts are published).
func NewService(codec *credential.Codec, store Store, events EventStore, broadcaster Broadcaster, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		codec:       codec,
		store:       store,
		events:      events,
		broadcaster: broadcaster,
		now:         time.Now,
		logger:      logger,
	}
}

// Verify resolves a scanned credential (or bare registration ID) and attempts
// the pending->checked_in transition. Exactly one of N concurrent calls for
// the same registration succeeds; the rest report AlreadyCheckedIn. Repeat
// calls after success are idempotent: same outcome, no new audit row, no
// re-broadcast.
func (s *Service) Verify(ctx context.Context, qrData string) (*Outcome, error) {
	cred, err := s.codec.Decode(qrData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	reg, err := s.load(ctx, cred)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, ErrUnknownRegistration
	}

	rec := &models.CheckIn{
		CheckinID:      uuid.New(),
		RegistrationID: reg.RegistrationID,
		EventID:        reg.EventID,
		OccurredAt:     s.now().UTC(),
	}
	applied, err := s.store.CheckIn(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !applied {
		// Lost the race or scanned twice. Reload so the caller sees the
		// recorded checked_in_at, unchanged. A reload fault surfaces as
		// retryable rather than an outcome that contradicts itself.
		current, err := s.load(ctx, cred)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, ErrUnknownRegistration
		}
		return &Outcome{
			AlreadyCheckedIn: true,
			Registration:     current,
			Message:          "Already checked in",
		}, nil
	}

	reg.Status = models.StatusCheckedIn
	reg.CheckedInAt = &rec.OccurredAt

	s.publish(ctx, reg.EventID)

	var summary *models.EventSummary
	if s.events != nil {
		if summary, err = s.events.GetSummary(ctx, reg.EventID); err != nil {
			s.logger.Warn("event summary lookup failed",
				zap.String("event_id", reg.EventID), zap.Error(err))
			summary = nil
		}
	}

	s.logger.Info("check-in",
		zap.String("registration_id", reg.RegistrationID),
		zap.String("event_id", reg.EventID),
		zap.String("checkin_id", rec.CheckinID.String()),
	)

	return &Outcome{
		Success:      true,
		Registration: reg,
		Event:        summary,
		CheckIn:      rec,
		Message:      "Check-in successful",
	}, nil
}

// load fetches the registration a credential refers to. Bare IDs match on
// registration ID alone; full tokens must also match the event binding.
func (s *Service) load(ctx context.Context, cred credential.Credential) (*models.Registration, error) {
	var (
		reg *models.Registration
		err error
	)
	if cred.Source == credential.SourceBareID {
		reg, err = s.store.GetByRegistrationID(ctx, cred.RegistrationID)
	} else {
		reg, err = s.store.GetByRegistrationAndEvent(ctx, cred.RegistrationID, cred.EventID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return reg, nil
}

// publish recomputes the event's checked-in count from the store and hands it
// to the broadcaster. Only called after an applied transition, so duplicate
// scans never re-broadcast.
func (s *Service) publish(ctx context.Context, eventID string) {
	if s.broadcaster == nil {
		return
	}
	count, err := s.store.CountCheckedIn(ctx, eventID)
	if err != nil {
		s.logger.Warn("checked-in count failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	s.broadcaster.PublishCheckIn(eventID, count)
}
