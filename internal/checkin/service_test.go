package checkin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KATHANJAIN1311/creative-era-event/internal/credential"
	"github.com/KATHANJAIN1311/creative-era-event/internal/models"
)

// fakeStore is an in-memory Store whose CheckIn performs the same conditional
// transition the SQL repository does: the status check and the flip happen
// under one lock.
type fakeStore struct {
	mu            sync.Mutex
	registrations map[string]*models.Registration
	checkins      []models.CheckIn
	lookups       int
	failNext      error
	// fail lookups once more than this many have succeeded (0 = never)
	failAfterLookups int
}

func newFakeStore(regs ...*models.Registration) *fakeStore {
	s := &fakeStore{registrations: make(map[string]*models.Registration)}
	for _, r := range regs {
		s.registrations[r.RegistrationID] = r
	}
	return s
}

func (s *fakeStore) GetByRegistrationID(_ context.Context, id string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.failNext != nil {
		return nil, s.failNext
	}
	if s.failAfterLookups > 0 && s.lookups > s.failAfterLookups {
		return nil, errors.New("connection reset")
	}
	if r, ok := s.registrations[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) GetByRegistrationAndEvent(ctx context.Context, id, eventID string) (*models.Registration, error) {
	r, err := s.GetByRegistrationID(ctx, id)
	if err != nil || r == nil || r.EventID != eventID {
		return nil, err
	}
	return r, nil
}

func (s *fakeStore) CheckIn(_ context.Context, rec *models.CheckIn) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		return false, s.failNext
	}
	r, ok := s.registrations[rec.RegistrationID]
	if !ok || r.EventID != rec.EventID || r.Status != models.StatusPending {
		return false, nil
	}
	r.Status = models.StatusCheckedIn
	at := rec.OccurredAt
	r.CheckedInAt = &at
	s.checkins = append(s.checkins, *rec)
	return true, nil
}

func (s *fakeStore) CountCheckedIn(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.registrations {
		if r.EventID == eventID && r.Status == models.StatusCheckedIn {
			n++
		}
	}
	return n, nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	counts []int
	events []string
}

func (b *fakeBroadcaster) PublishCheckIn(eventID string, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventID)
	b.counts = append(b.counts, count)
}

func (b *fakeBroadcaster) published() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.counts)
}

func pendingRegistration(codec *credential.Codec, id, eventID string) *models.Registration {
	return &models.Registration{
		RegistrationID: id,
		EventID:        eventID,
		Name:           "Asha Rao",
		Email:          "asha@example.com",
		Phone:          "+911234567890",
		Credential:     codec.Encode(id, eventID),
		Type:           models.RegistrationOnline,
		Status:         models.StatusPending,
	}
}

func newTestService(store *fakeStore, b Broadcaster) (*Service, *credential.Codec) {
	codec := credential.NewCodec("test-secret")
	return NewService(codec, store, nil, b, zap.NewNop()), codec
}

func TestVerify_Success(t *testing.T) {
	t.Parallel()

	broadcaster := &fakeBroadcaster{}
	codec := credential.NewCodec("test-secret")
	reg := pendingRegistration(codec, "A1B2C3D4", "E1")
	store := newFakeStore(reg)
	svc := NewService(codec, store, nil, broadcaster, zap.NewNop())

	outcome, err := svc.Verify(context.Background(), reg.Credential)
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.False(t, outcome.AlreadyCheckedIn)
	assert.Equal(t, models.StatusCheckedIn, outcome.Registration.Status)
	require.NotNil(t, outcome.Registration.CheckedInAt)
	require.NotNil(t, outcome.CheckIn)
	assert.Equal(t, "A1B2C3D4", outcome.CheckIn.RegistrationID)

	require.Len(t, store.checkins, 1)
	require.Equal(t, 1, broadcaster.published())
	assert.Equal(t, []string{"E1"}, broadcaster.events)
	assert.Equal(t, []int{1}, broadcaster.counts)
}

func TestVerify_BareIDManualEntry(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, codec := newTestService(store, nil)
	reg := pendingRegistration(codec, "A1B2C3D4", "E1")
	store.registrations[reg.RegistrationID] = reg

	outcome, err := svc.Verify(context.Background(), "A1B2C3D4")
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "E1", outcome.Registration.EventID)
}

func TestVerify_IdempotentAfterSuccess(t *testing.T) {
	t.Parallel()

	broadcaster := &fakeBroadcaster{}
	store := newFakeStore()
	svc, codec := newTestService(store, broadcaster)
	reg := pendingRegistration(codec, "A1B2C3D4", "E1")
	store.registrations[reg.RegistrationID] = reg

	first, err := svc.Verify(context.Background(), reg.Credential)
	require.NoError(t, err)
	require.True(t, first.Success)
	firstAt := *first.Registration.CheckedInAt

	second, err := svc.Verify(context.Background(), reg.Credential)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.True(t, second.AlreadyCheckedIn)
	require.NotNil(t, second.Registration.CheckedInAt)
	assert.True(t, second.Registration.CheckedInAt.Equal(firstAt), "checked_in_at must not change")
	assert.Nil(t, second.CheckIn)

	// One audit row, one broadcast, regardless of repeat scans.
	assert.Len(t, store.checkins, 1)
	assert.Equal(t, 1, broadcaster.published())
}

func TestVerify_ConcurrentScansExactlyOneSuccess(t *testing.T) {
	t.Parallel()

	const n = 32

	broadcaster := &fakeBroadcaster{}
	store := newFakeStore()
	svc, codec := newTestService(store, broadcaster)
	reg := pendingRegistration(codec, "A1B2C3D4", "E1")
	store.registrations[reg.RegistrationID] = reg

	outcomes := make([]*Outcome, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			outcomes[i], errs[i] = svc.Verify(context.Background(), reg.Credential)
		}(i)
	}
	close(start)
	wg.Wait()

	successes, already := 0, 0
	for i, out := range outcomes {
		require.NoError(t, errs[i])
		if out.Success {
			successes++
		}
		if out.AlreadyCheckedIn {
			already++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent scan may win")
	assert.Equal(t, n-1, already)
	assert.Len(t, store.checkins, 1, "exactly one audit row")
	assert.Equal(t, 1, broadcaster.published(), "duplicates must not re-broadcast")
}

func TestVerify_MalformedNeverTouchesStore(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, _ := newTestService(store, nil)

	for _, input := range []string{"", "not-a-token", "a|b|c", "|E1"} {
		_, err := svc.Verify(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidCredential, "input %q", input)
	}
	assert.Zero(t, store.lookups, "malformed input must be rejected before any lookup")
}

func TestVerify_UnknownRegistration(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, codec := newTestService(store, nil)

	_, err := svc.Verify(context.Background(), codec.Encode("XYZXYZXY", "E1"))
	assert.ErrorIs(t, err, ErrUnknownRegistration)
}

func TestVerify_EventMismatchIsUnknown(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, codec := newTestService(store, nil)
	store.registrations["A1B2C3D4"] = pendingRegistration(codec, "A1B2C3D4", "E1")

	// Token signed for the wrong event: the binding must not match.
	_, err := svc.Verify(context.Background(), codec.Encode("A1B2C3D4", "E2"))
	assert.ErrorIs(t, err, ErrUnknownRegistration)
}

func TestVerify_StoreUnavailable(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, codec := newTestService(store, nil)
	store.registrations["A1B2C3D4"] = pendingRegistration(codec, "A1B2C3D4", "E1")
	store.failNext = errors.New("connection refused")

	_, err := svc.Verify(context.Background(), codec.Encode("A1B2C3D4", "E1"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	// Retry after the fault clears: the conditional transition still applies
	// exactly once.
	store.mu.Lock()
	store.failNext = nil
	store.mu.Unlock()
	outcome, err := svc.Verify(context.Background(), codec.Encode("A1B2C3D4", "E1"))
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestVerify_DuplicateScanReloadFaultIsRetryable(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, codec := newTestService(store, nil)
	reg := pendingRegistration(codec, "A1B2C3D4", "E1")
	at := time.Date(2026, 8, 1, 18, 30, 0, 0, time.UTC)
	reg.Status = models.StatusCheckedIn
	reg.CheckedInAt = &at
	store.registrations[reg.RegistrationID] = reg

	// The initial load succeeds, the transition reports already-applied, and
	// the reload faults: the caller gets a retryable error, never an outcome
	// claiming AlreadyCheckedIn with a pending registration attached.
	store.failAfterLookups = 1
	_, err := svc.Verify(context.Background(), reg.Credential)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	store.mu.Lock()
	store.failAfterLookups = 0
	store.lookups = 0
	store.mu.Unlock()
	outcome, err := svc.Verify(context.Background(), reg.Credential)
	require.NoError(t, err)
	assert.True(t, outcome.AlreadyCheckedIn)
	assert.True(t, outcome.Registration.CheckedInAt.Equal(at))
}

func TestVerify_LegacyJSONCredential(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, codec := newTestService(store, nil)
	store.registrations["A1B2C3D4"] = pendingRegistration(codec, "A1B2C3D4", "E1")

	outcome, err := svc.Verify(context.Background(),
		`{"registrationId":"A1B2C3D4","eventId":"E1","name":"Asha","timestamp":"2024-01-01T00:00:00Z"}`)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestVerify_FixedClock(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc, codec := newTestService(store, nil)
	reg := pendingRegistration(codec, "A1B2C3D4", "E1")
	store.registrations[reg.RegistrationID] = reg

	at := time.Date(2026, 8, 1, 18, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	outcome, err := svc.Verify(context.Background(), reg.Credential)
	require.NoError(t, err)
	assert.True(t, outcome.CheckIn.OccurredAt.Equal(at))
	assert.True(t, outcome.Registration.CheckedInAt.Equal(at))
}
