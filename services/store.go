package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pocketbase/pocketbase/core"

	"club-system/internal/status"
	"club-system/models"
)

// EventStore is the one primitive the reservation core needs from the
// document store: read an event and atomically read-modify-write it.
// The PocketBase implementation backs production; tests run against an
// in-memory store with the same semantics.
type EventStore interface {
	Get(ctx context.Context, eventID string) (*models.Event, error)
	Update(ctx context.Context, eventID string, fn func(*models.Event) error) error
	Create(ctx context.Context, ev *models.Event) (string, error)
	Delete(ctx context.Context, eventID string) error
	ListOpen(ctx context.Context) ([]*models.Event, error)
}

// RecordEventStore persists events as records of the "events" collection.
// Update runs inside a store transaction, so the whole document is
// re-read and re-written as one atomic unit; concurrent writers to the
// same event serialize against each other.
type RecordEventStore struct {
	app core.App
}

func NewRecordEventStore(app core.App) *RecordEventStore {
	return &RecordEventStore{app: app}
}

func (s *RecordEventStore) Get(ctx context.Context, eventID string) (*models.Event, error) {
	rec, err := s.app.FindRecordById("events", eventID)
	if err != nil {
		return nil, status.ErrEventNotFound
	}
	return eventFromRecord(rec)
}

func (s *RecordEventStore) Update(ctx context.Context, eventID string, fn func(*models.Event) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		rec, err := txApp.FindRecordById("events", eventID)
		if err != nil {
			return status.ErrEventNotFound
		}
		ev, err := eventFromRecord(rec)
		if err != nil {
			return fmt.Errorf("decode event %s: %w", eventID, err)
		}
		if err := fn(ev); err != nil {
			return err
		}
		ev.Revision++
		if err := applyEventToRecord(ev, rec); err != nil {
			return fmt.Errorf("encode event %s: %w", eventID, err)
		}
		return txApp.Save(rec)
	})
}

func (s *RecordEventStore) Create(ctx context.Context, ev *models.Event) (string, error) {
	collection, err := s.app.FindCollectionByNameOrId("events")
	if err != nil {
		return "", fmt.Errorf("find events collection: %w", err)
	}
	rec := core.NewRecord(collection)
	if err := applyEventToRecord(ev, rec); err != nil {
		return "", fmt.Errorf("encode new event: %w", err)
	}
	if err := s.app.Save(rec); err != nil {
		return "", fmt.Errorf("save new event: %w", err)
	}
	ev.ID = rec.Id
	return rec.Id, nil
}

// Delete removes the event document. The review-protection check runs
// inside the same transaction as the delete so a review submitted after
// the admin's confirmation dialog still blocks the removal.
func (s *RecordEventStore) Delete(ctx context.Context, eventID string) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		rec, err := txApp.FindRecordById("events", eventID)
		if err != nil {
			return status.ErrEventNotFound
		}
		ev, err := eventFromRecord(rec)
		if err != nil {
			return fmt.Errorf("decode event %s: %w", eventID, err)
		}
		if ev.DeletionBlocked() {
			return status.ErrDeletionBlocked
		}
		return txApp.Delete(rec)
	})
}

func (s *RecordEventStore) ListOpen(ctx context.Context) ([]*models.Event, error) {
	records, err := s.app.FindRecordsByFilter("events", "status = {:status}", "-created", 0, 0,
		map[string]any{"status": string(models.EventOpen)})
	if err != nil {
		return nil, fmt.Errorf("list open events: %w", err)
	}
	events := make([]*models.Event, 0, len(records))
	for _, rec := range records {
		ev, err := eventFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("decode event %s: %w", rec.Id, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// venueDoc is the venue shape stored on the record, matching the flat
// restaurant entries of the original document layout.
type venueDoc struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Info         string               `json:"info"`
	ImageURL     string               `json:"imageUrl"`
	Capacity     int                  `json:"capacity"`
	Reservations []models.Participant `json:"reservations"`
	Waiting      []models.Participant `json:"waiting"`
}

func eventFromRecord(rec *core.Record) (*models.Event, error) {
	ev := &models.Event{
		ID:       rec.Id,
		Type:     models.EventType(rec.GetString("type")),
		Title:    rec.GetString("title"),
		Datetime: rec.GetString("datetime"),
		Status:   models.EventStatus(rec.GetString("status")),
		Revision: int64(rec.GetInt("revision")),
	}
	ev.Roster.Capacity = rec.GetInt("limit")

	if err := unmarshalJSONField(rec, "applicants", &ev.Roster.Confirmed); err != nil {
		return nil, err
	}
	if err := unmarshalJSONField(rec, "waiting", &ev.Roster.Waiting); err != nil {
		return nil, err
	}
	if err := unmarshalJSONField(rec, "reviews", &ev.Reviews); err != nil {
		return nil, err
	}

	var payment *models.Payment
	if err := unmarshalJSONField(rec, "payment", &payment); err != nil {
		return nil, err
	}
	ev.Payment = payment

	var docs []venueDoc
	if err := unmarshalJSONField(rec, "restaurants", &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		ev.Venues = append(ev.Venues, models.Venue{
			ID:       d.ID,
			Name:     d.Name,
			Info:     d.Info,
			ImageURL: d.ImageURL,
			Roster: models.Roster{
				Capacity:  d.Capacity,
				Confirmed: d.Reservations,
				Waiting:   d.Waiting,
			},
		})
	}
	return ev, nil
}

func applyEventToRecord(ev *models.Event, rec *core.Record) error {
	rec.Set("type", string(ev.Type))
	rec.Set("title", ev.Title)
	rec.Set("datetime", ev.Datetime)
	rec.Set("status", string(ev.Status))
	rec.Set("limit", ev.Roster.Capacity)
	rec.Set("revision", ev.Revision)

	if err := setJSONField(rec, "applicants", orEmpty(ev.Roster.Confirmed)); err != nil {
		return err
	}
	if err := setJSONField(rec, "waiting", orEmpty(ev.Roster.Waiting)); err != nil {
		return err
	}
	if err := setJSONField(rec, "reviews", orEmpty(ev.Reviews)); err != nil {
		return err
	}
	if ev.Payment != nil {
		if err := setJSONField(rec, "payment", ev.Payment); err != nil {
			return err
		}
	} else {
		rec.Set("payment", nil)
	}

	docs := make([]venueDoc, 0, len(ev.Venues))
	for _, v := range ev.Venues {
		docs = append(docs, venueDoc{
			ID:           v.ID,
			Name:         v.Name,
			Info:         v.Info,
			ImageURL:     v.ImageURL,
			Capacity:     v.Roster.Capacity,
			Reservations: orEmpty(v.Roster.Confirmed),
			Waiting:      orEmpty(v.Roster.Waiting),
		})
	}
	return setJSONField(rec, "restaurants", docs)
}

func unmarshalJSONField(rec *core.Record, field string, dst any) error {
	raw := rec.GetString(field)
	if raw == "" || raw == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	return nil
}

func setJSONField(rec *core.Record, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("field %q: %w", field, err)
	}
	rec.Set(field, string(data))
	return nil
}

// orEmpty keeps stored lists as [] instead of null so older documents and
// fresh ones decode the same way.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
