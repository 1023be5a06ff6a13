package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"club-system/internal/status"
	"club-system/models"
)

// memEventStore mimics the document store: updates are serialized per
// store and apply read-modify-write on a private copy, so a failed fn
// leaves the stored document untouched.
type memEventStore struct {
	mu     sync.Mutex
	events map[string]*models.Event
}

func newMemEventStore(events ...*models.Event) *memEventStore {
	s := &memEventStore{events: map[string]*models.Event{}}
	for _, ev := range events {
		s.events[ev.ID] = ev
	}
	return s
}

func cloneEvent(ev *models.Event) *models.Event {
	data, _ := json.Marshal(ev)
	var out models.Event
	_ = json.Unmarshal(data, &out)
	return &out
}

func (s *memEventStore) Get(ctx context.Context, eventID string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, status.ErrEventNotFound
	}
	return cloneEvent(ev), nil
}

func (s *memEventStore) Update(ctx context.Context, eventID string, fn func(*models.Event) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return status.ErrEventNotFound
	}
	next := cloneEvent(ev)
	if err := fn(next); err != nil {
		return err
	}
	next.Revision++
	s.events[eventID] = next
	return nil
}

func (s *memEventStore) Create(ctx context.Context, ev *models.Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == "" {
		ev.ID = "generated"
	}
	s.events[ev.ID] = cloneEvent(ev)
	return ev.ID, nil
}

func (s *memEventStore) Delete(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return status.ErrEventNotFound
	}
	if ev.DeletionBlocked() {
		return status.ErrDeletionBlocked
	}
	delete(s.events, eventID)
	return nil
}

func (s *memEventStore) ListOpen(ctx context.Context) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Event
	for _, ev := range s.events {
		if ev.Status == models.EventOpen {
			out = append(out, cloneEvent(ev))
		}
	}
	return out, nil
}

// conflictStore reports a write conflict for the first n updates.
type conflictStore struct {
	*memEventStore
	mu        sync.Mutex
	conflicts int
}

func (s *conflictStore) Update(ctx context.Context, eventID string, fn func(*models.Event) error) error {
	s.mu.Lock()
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return errors.New("database is locked")
	}
	s.mu.Unlock()
	return s.memEventStore.Update(ctx, eventID, fn)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) ParticipantRemoved(ctx context.Context, eventID, studentID, eventTitle string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, studentID+"@"+eventID+":"+eventTitle)
}

func member(studentID string) models.MemberProfile {
	return models.MemberProfile{StudentID: studentID, Name: "member " + studentID}
}

func generalEvent(id string, capacity int) *models.Event {
	return &models.Event{
		ID:     id,
		Type:   models.EventGeneral,
		Title:  "regular meetup",
		Status: models.EventOpen,
		Roster: models.Roster{Capacity: capacity},
	}
}

func tastingFixture(id string) *models.Event {
	return &models.Event{
		ID:     id,
		Type:   models.EventTasting,
		Title:  "october tasting",
		Status: models.EventOpen,
		Venues: []models.Venue{
			{ID: "v1", Name: "north", Roster: models.Roster{Capacity: 2}},
			{ID: "v2", Name: "south", Roster: models.Roster{Capacity: 2}},
		},
	}
}

func TestReservationService_ReserveAndWaitlist(t *testing.T) {
	store := newMemEventStore(generalEvent("ev1", 2))
	svc := NewReservationService(store, nil, nil, 5)
	ctx := context.Background()

	res, err := svc.Reserve(ctx, "ev1", "", member("x"))
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionConfirmed, res)

	res, err = svc.Reserve(ctx, "ev1", "", member("y"))
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionConfirmed, res)

	res, err = svc.Reserve(ctx, "ev1", "", member("z"))
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionWaitlisted, res)

	ev, err := store.Get(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, ev.Roster.Confirmed, 2)
	require.Len(t, ev.Roster.Waiting, 1)
	assert.Equal(t, "z", ev.Roster.Waiting[0].StudentID)
}

func TestReservationService_Reserve_SnapshotsProfile(t *testing.T) {
	store := newMemEventStore(generalEvent("ev1", 0))
	svc := NewReservationService(store, nil, nil, 5)

	profile := models.MemberProfile{
		StudentID:  "20231234",
		Name:       "Kim",
		Gender:     "female",
		Year:       "3",
		College:    "engineering",
		Department: "cs",
		Phone:      "010-0000-0000",
	}
	_, err := svc.Reserve(context.Background(), "ev1", "", profile)
	require.NoError(t, err)

	ev, _ := store.Get(context.Background(), "ev1")
	require.Len(t, ev.Roster.Confirmed, 1)
	got := ev.Roster.Confirmed[0]
	assert.Equal(t, "20231234", got.StudentID)
	assert.Equal(t, "cs", got.Department)
	assert.False(t, got.Timestamp.IsZero())
}

func TestReservationService_Reserve_DuplicateRejected(t *testing.T) {
	store := newMemEventStore(generalEvent("ev1", 5))
	svc := NewReservationService(store, nil, nil, 5)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "ev1", "", member("x"))
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "ev1", "", member("x"))
	assert.ErrorIs(t, err, status.ErrDuplicateRegistration)
}

func TestReservationService_Reserve_CrossVenueDuplicateRejected(t *testing.T) {
	store := newMemEventStore(tastingFixture("ev1"))
	svc := NewReservationService(store, nil, nil, 5)
	ctx := context.Background()

	res, err := svc.Reserve(ctx, "ev1", "v1", member("p"))
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionConfirmed, res)

	_, err = svc.Reserve(ctx, "ev1", "v2", member("p"))
	assert.ErrorIs(t, err, status.ErrDuplicateRegistration)

	ev, _ := store.Get(ctx, "ev1")
	assert.Len(t, ev.Venues[0].Roster.Confirmed, 1)
	assert.Empty(t, ev.Venues[1].Roster.Confirmed)
}

func TestReservationService_Reserve_UnknownVenue(t *testing.T) {
	store := newMemEventStore(tastingFixture("ev1"))
	svc := NewReservationService(store, nil, nil, 5)

	_, err := svc.Reserve(context.Background(), "ev1", "nope", member("p"))
	assert.ErrorIs(t, err, status.ErrVenueNotFound)
}

func TestReservationService_Reserve_EventGone(t *testing.T) {
	store := newMemEventStore()
	svc := NewReservationService(store, nil, nil, 5)

	_, err := svc.Reserve(context.Background(), "missing", "", member("p"))
	assert.ErrorIs(t, err, status.ErrEventNotFound)
}

func TestReservationService_Cancel_PromotesHead(t *testing.T) {
	store := newMemEventStore(generalEvent("ev1", 2))
	svc := NewReservationService(store, nil, nil, 5)
	ctx := context.Background()

	for _, id := range []string{"x", "y", "a", "b"} {
		_, err := svc.Reserve(ctx, "ev1", "", member(id))
		require.NoError(t, err)
	}

	res, err := svc.Cancel(ctx, "ev1", "", "x")
	require.NoError(t, err)
	assert.Equal(t, models.RemovedFromConfirmed, res.Outcome)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, "a", res.Promoted.StudentID)

	ev, _ := store.Get(ctx, "ev1")
	assert.Equal(t, "y", ev.Roster.Confirmed[0].StudentID)
	assert.Equal(t, "a", ev.Roster.Confirmed[1].StudentID)
	require.Len(t, ev.Roster.Waiting, 1)
	assert.Equal(t, "b", ev.Roster.Waiting[0].StudentID)
}

func TestReservationService_Cancel_AbsentIsBenign(t *testing.T) {
	store := newMemEventStore(generalEvent("ev1", 2))
	svc := NewReservationService(store, nil, nil, 5)
	ctx := context.Background()

	res, err := svc.Cancel(ctx, "ev1", "", "ghost")
	require.NoError(t, err)
	assert.Equal(t, models.CancelNotFound, res.Outcome)

	// Second call is equally harmless.
	res, err = svc.Cancel(ctx, "ev1", "", "ghost")
	require.NoError(t, err)
	assert.Equal(t, models.CancelNotFound, res.Outcome)
}

func TestReservationService_AdminAdd_PlacementAndDuplicate(t *testing.T) {
	store := newMemEventStore(generalEvent("ev1", 1))
	svc := NewReservationService(store, nil, nil, 5)
	ctx := context.Background()

	res, err := svc.AdminAdd(ctx, "ev1", "", member("x"))
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionConfirmed, res)

	// Admin insertion still respects capacity: overflow goes to waiting.
	res, err = svc.AdminAdd(ctx, "ev1", "", member("y"))
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionWaitlisted, res)

	_, err = svc.AdminAdd(ctx, "ev1", "", member("x"))
	assert.ErrorIs(t, err, status.ErrDuplicateRegistration)
}

func TestReservationService_AdminRemove_PromotesAndNotifies(t *testing.T) {
	store := newMemEventStore(generalEvent("ev1", 1))
	notifier := &recordingNotifier{}
	svc := NewReservationService(store, nil, notifier, 5)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "ev1", "", member("x"))
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, "ev1", "", member("w"))
	require.NoError(t, err)

	res, err := svc.AdminRemove(ctx, "ev1", "", "x")
	require.NoError(t, err)
	assert.Equal(t, models.RemovedFromConfirmed, res.Outcome)
	require.NotNil(t, res.Promoted)
	assert.Equal(t, "w", res.Promoted.StudentID)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "x@ev1:regular meetup", notifier.calls[0])
}

func TestReservationService_AdminRemove_AbsentIsError(t *testing.T) {
	store := newMemEventStore(generalEvent("ev1", 1))
	notifier := &recordingNotifier{}
	svc := NewReservationService(store, nil, notifier, 5)

	_, err := svc.AdminRemove(context.Background(), "ev1", "", "ghost")
	assert.ErrorIs(t, err, status.ErrParticipantNotFound)
	assert.Empty(t, notifier.calls, "no notification for a failed removal")
}

func TestReservationService_RetriesConflictsWithinBudget(t *testing.T) {
	store := &conflictStore{memEventStore: newMemEventStore(generalEvent("ev1", 1)), conflicts: 2}
	svc := NewReservationService(store, nil, nil, 5)

	res, err := svc.Reserve(context.Background(), "ev1", "", member("x"))
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionConfirmed, res)
}

func TestReservationService_ConcurrencyExhausted(t *testing.T) {
	store := &conflictStore{memEventStore: newMemEventStore(generalEvent("ev1", 1)), conflicts: 100}
	svc := NewReservationService(store, nil, nil, 3)

	_, err := svc.Reserve(context.Background(), "ev1", "", member("x"))
	assert.ErrorIs(t, err, status.ErrConcurrencyExhausted)
}

func TestReservationService_AdminPathDoesNotRetry(t *testing.T) {
	store := &conflictStore{memEventStore: newMemEventStore(generalEvent("ev1", 1)), conflicts: 1}
	svc := NewReservationService(store, nil, nil, 5)
	ctx := context.Background()

	// A single conflict is enough to fail the admin path outright.
	_, err := svc.AdminAdd(ctx, "ev1", "", member("x"))
	assert.ErrorIs(t, err, status.ErrConcurrencyExhausted)

	// The self-service path with the same single conflict succeeds.
	_, err = svc.Reserve(ctx, "ev1", "", member("x"))
	assert.NoError(t, err)
}

func TestReservationService_RacingAdmitsForLastSlot(t *testing.T) {
	store := newMemEventStore(generalEvent("ev1", 1))
	svc := NewReservationService(store, nil, nil, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]models.AdmissionResult, 2)
	for i, id := range []string{"p1", "p2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			res, err := svc.Reserve(ctx, "ev1", "", member(id))
			require.NoError(t, err)
			results[i] = res
		}(i, id)
	}
	wg.Wait()

	confirmed, waitlisted := 0, 0
	for _, r := range results {
		switch r {
		case models.AdmissionConfirmed:
			confirmed++
		case models.AdmissionWaitlisted:
			waitlisted++
		}
	}
	assert.Equal(t, 1, confirmed, "exactly one racer wins the last slot")
	assert.Equal(t, 1, waitlisted)

	ev, _ := store.Get(ctx, "ev1")
	assert.Len(t, ev.Roster.Confirmed, 1)
	assert.Len(t, ev.Roster.Waiting, 1)
}
