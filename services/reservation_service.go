package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"club-system/internal/status"
	"club-system/models"
	"club-system/monitoring"
)

// RetryPolicy bounds how many times a roster mutation is re-run when the
// store reports a write conflict. Self-service paths get the configured
// budget; admin paths run with a single attempt so contention surfaces
// immediately in the admin UI instead of being papered over.
type RetryPolicy struct {
	Attempts int
}

// RemovalNotifier is the fire-and-forget side channel pinged after an
// admin removes somebody from a roster. Delivery failures never affect
// the committed mutation.
type RemovalNotifier interface {
	ParticipantRemoved(ctx context.Context, eventID, studentID, eventTitle string)
}

// ReservationService is the transactional roster mutator. Every operation
// re-reads the current event document, applies the admission or
// cancellation algorithm against it and writes the whole document back
// atomically, so the FIFO promotion order always works off the freshest
// waiting list even across retries.
type ReservationService struct {
	store       EventStore
	cache       *EventCache
	notifier    RemovalNotifier
	policy      RetryPolicy
	adminPolicy RetryPolicy
}

func NewReservationService(store EventStore, cache *EventCache, notifier RemovalNotifier, attempts int) *ReservationService {
	if attempts < 1 {
		attempts = 1
	}
	return &ReservationService{
		store:       store,
		cache:       cache,
		notifier:    notifier,
		policy:      RetryPolicy{Attempts: attempts},
		adminPolicy: RetryPolicy{Attempts: 1},
	}
}

// Reserve registers a member for the event (or the named venue of a
// tasting event). The uniqueness guard runs inside the transaction, so a
// racing duplicate from a second browser session loses cleanly.
func (s *ReservationService) Reserve(ctx context.Context, eventID, venueID string, member models.MemberProfile) (models.AdmissionResult, error) {
	var result models.AdmissionResult
	entry := member.Snapshot(time.Now().UTC())

	err := s.runEventTx(ctx, eventID, s.policy, func(ev *models.Event) error {
		if ev.HasRegistration(member.StudentID) {
			return status.ErrDuplicateRegistration
		}
		roster, err := ev.RosterFor(venueID)
		if err != nil {
			return err
		}
		result = roster.Admit(entry)
		return nil
	})
	if err != nil {
		monitoring.TrackReservationOp("reserve", eventID, "error")
		return "", err
	}
	monitoring.TrackReservationOp("reserve", eventID, string(result))
	return result, nil
}

// Cancel withdraws the member's own registration. A registration that was
// already removed by a concurrent operation is a benign no-op: the
// transaction commits unchanged and the caller gets CancelNotFound.
func (s *ReservationService) Cancel(ctx context.Context, eventID, venueID, studentID string) (models.CancelResult, error) {
	var result models.CancelResult

	err := s.runEventTx(ctx, eventID, s.policy, func(ev *models.Event) error {
		roster, err := ev.RosterFor(venueID)
		if err != nil {
			return err
		}
		result = roster.Cancel(studentID)
		return nil
	})
	if err != nil {
		monitoring.TrackReservationOp("cancel", eventID, "error")
		return models.CancelResult{}, err
	}
	monitoring.TrackReservationOp("cancel", eventID, string(result.Outcome))
	return result, nil
}

// AdminAdd inserts an arbitrary member on an admin's behalf. Placement
// follows the same capacity rule as self-service admission; a duplicate
// is a data-entry mistake and is reported, not ignored.
func (s *ReservationService) AdminAdd(ctx context.Context, eventID, venueID string, member models.MemberProfile) (models.AdmissionResult, error) {
	var result models.AdmissionResult
	entry := member.Snapshot(time.Now().UTC())

	err := s.runEventTx(ctx, eventID, s.adminPolicy, func(ev *models.Event) error {
		if ev.HasRegistration(member.StudentID) {
			return status.ErrDuplicateRegistration
		}
		roster, err := ev.RosterFor(venueID)
		if err != nil {
			return err
		}
		result = roster.Admit(entry)
		return nil
	})
	if err != nil {
		monitoring.TrackReservationOp("admin_add", eventID, "error")
		return "", err
	}
	monitoring.TrackReservationOp("admin_add", eventID, string(result))
	return result, nil
}

// AdminRemove removes any member from a roster, promoting the waitlist
// head when a confirmed seat frees up. Unlike self-service Cancel an
// absent participant is an error here: it means the admin acted on a
// stale roster view.
func (s *ReservationService) AdminRemove(ctx context.Context, eventID, venueID, studentID string) (models.CancelResult, error) {
	var result models.CancelResult
	var eventTitle string

	err := s.runEventTx(ctx, eventID, s.adminPolicy, func(ev *models.Event) error {
		eventTitle = ev.Title
		roster, err := ev.RosterFor(venueID)
		if err != nil {
			return err
		}
		result = roster.Cancel(studentID)
		if result.Outcome == models.CancelNotFound {
			return status.ErrParticipantNotFound
		}
		return nil
	})
	if err != nil {
		monitoring.TrackReservationOp("admin_remove", eventID, "error")
		return models.CancelResult{}, err
	}
	monitoring.TrackReservationOp("admin_remove", eventID, string(result.Outcome))

	if s.notifier != nil {
		s.notifier.ParticipantRemoved(ctx, eventID, studentID, eventTitle)
	}
	return result, nil
}

// runEventTx runs one roster mutation under the given retry policy.
// Domain errors abort immediately; store conflicts are retried until the
// attempt budget runs out and then surface as ErrConcurrencyExhausted.
func (s *ReservationService) runEventTx(ctx context.Context, eventID string, policy RetryPolicy, fn func(*models.Event) error) error {
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.store.Update(ctx, eventID, fn)
		if err == nil {
			monitoring.TrackTransactionAttempts(eventID, attempt)
			if s.cache != nil {
				s.cache.Invalidate(ctx, eventID)
			}
			return nil
		}
		if isDomainErr(err) {
			return err
		}
		lastErr = err
		log.Printf("event %s: transaction attempt %d/%d failed: %v", eventID, attempt, policy.Attempts, err)
	}
	monitoring.TrackTransactionAttempts(eventID, policy.Attempts)
	return fmt.Errorf("%w: %v", status.ErrConcurrencyExhausted, lastErr)
}

func isDomainErr(err error) bool {
	return errors.Is(err, status.ErrDuplicateRegistration) ||
		errors.Is(err, status.ErrEventNotFound) ||
		errors.Is(err, status.ErrVenueNotFound) ||
		errors.Is(err, status.ErrParticipantNotFound) ||
		errors.Is(err, status.ErrDeletionBlocked)
}
