package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"club-system/models"
	"club-system/utils"
)

// EventDraft is the admin's create/update payload for an event.
type EventDraft struct {
	Type     models.EventType `json:"type"`
	Title    string           `json:"title"`
	Datetime string           `json:"datetime"`
	Limit    int              `json:"limit"`
	Status   models.EventStatus
	Payment  *models.Payment `json:"payment,omitempty"`
	Venues   []models.Venue  `json:"venues,omitempty"`
}

// EventService covers the admin lifecycle of events: create, edit,
// archive, delete, plus the cached reads the member-facing pages use.
type EventService struct {
	store EventStore
	cache *EventCache
}

func NewEventService(store EventStore, cache *EventCache) *EventService {
	return &EventService{store: store, cache: cache}
}

func (s *EventService) validateDraft(draft *EventDraft) error {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Type == "" || draft.Title == "" || draft.Datetime == "" {
		return fmt.Errorf("type, title and datetime are required")
	}
	if draft.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	switch draft.Type {
	case models.EventGeneral, models.EventMT, models.EventAssembly:
	case models.EventTasting:
		kept := draft.Venues[:0]
		for _, v := range draft.Venues {
			v.Name = strings.TrimSpace(v.Name)
			if v.Name == "" || v.Roster.Capacity <= 0 {
				continue
			}
			kept = append(kept, v)
		}
		draft.Venues = kept
		if len(draft.Venues) == 0 {
			return fmt.Errorf("a tasting event needs at least one venue with a positive capacity")
		}
	default:
		return fmt.Errorf("unknown event type %q", draft.Type)
	}
	if draft.Status == "" {
		draft.Status = models.EventOpen
	}
	return nil
}

// Create builds a new event from the draft. Venues missing an id get a
// generated one so roster edits can match them up later.
func (s *EventService) Create(ctx context.Context, draft EventDraft) (*models.Event, error) {
	if err := s.validateDraft(&draft); err != nil {
		return nil, err
	}

	ev := &models.Event{
		Type:     draft.Type,
		Title:    draft.Title,
		Datetime: draft.Datetime,
		Status:   draft.Status,
		Payment:  draft.Payment,
		Roster:   models.Roster{Capacity: draft.Limit, Confirmed: []models.Participant{}, Waiting: []models.Participant{}},
	}
	if draft.Type == models.EventTasting {
		for _, v := range draft.Venues {
			if v.ID == "" {
				code, err := utils.GenerateCode(6)
				if err != nil {
					return nil, fmt.Errorf("generate venue id: %w", err)
				}
				v.ID = code
			}
			v.Roster.Confirmed = []models.Participant{}
			v.Roster.Waiting = []models.Participant{}
			ev.Venues = append(ev.Venues, v)
		}
	}

	if _, err := s.store.Create(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Update edits event fields in place. For tasting events the venue list
// is merged so rosters of surviving venues are untouched by the edit.
func (s *EventService) Update(ctx context.Context, eventID string, draft EventDraft) error {
	if err := s.validateDraft(&draft); err != nil {
		return err
	}
	err := s.store.Update(ctx, eventID, func(ev *models.Event) error {
		ev.Type = draft.Type
		ev.Title = draft.Title
		ev.Datetime = draft.Datetime
		ev.Status = draft.Status
		ev.Payment = draft.Payment
		ev.Roster.Capacity = draft.Limit
		if ev.IsTasting() {
			for i := range draft.Venues {
				if draft.Venues[i].ID == "" {
					code, err := utils.GenerateCode(6)
					if err != nil {
						return fmt.Errorf("generate venue id: %w", err)
					}
					draft.Venues[i].ID = code
				}
			}
			ev.MergeVenues(draft.Venues)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, eventID)
	return nil
}

// Archive hides the event from the member-facing listing.
func (s *EventService) Archive(ctx context.Context, eventID string) error {
	return s.setStatus(ctx, eventID, models.EventArchived)
}

// Unarchive republishes an archived event.
func (s *EventService) Unarchive(ctx context.Context, eventID string) error {
	return s.setStatus(ctx, eventID, models.EventOpen)
}

func (s *EventService) setStatus(ctx context.Context, eventID string, st models.EventStatus) error {
	err := s.store.Update(ctx, eventID, func(ev *models.Event) error {
		ev.Status = st
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, eventID)
	return nil
}

// Delete permanently removes the event. The store refuses to delete a
// tasting event that has reviews attached.
func (s *EventService) Delete(ctx context.Context, eventID string) error {
	if err := s.store.Delete(ctx, eventID); err != nil {
		return err
	}
	s.invalidate(ctx, eventID)
	return nil
}

// Get reads the event through the cache.
func (s *EventService) Get(ctx context.Context, eventID string) (*models.Event, error) {
	if s.cache != nil {
		if ev, ok := s.cache.Get(ctx, eventID); ok {
			return ev, nil
		}
	}
	ev, err := s.store.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, ev)
	}
	return ev, nil
}

// ListOpen returns all open events straight from the store.
func (s *EventService) ListOpen(ctx context.Context) ([]*models.Event, error) {
	return s.store.ListOpen(ctx)
}

// SaveReview upserts the author's review on the event document.
func (s *EventService) SaveReview(ctx context.Context, eventID, studentID, name string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	now := time.Now().UTC()
	err := s.store.Update(ctx, eventID, func(ev *models.Event) error {
		ev.UpsertReview(models.Review{
			StudentID: studentID,
			Name:      name,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, eventID)
	return nil
}

func (s *EventService) invalidate(ctx context.Context, eventID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, eventID)
	}
}
