package models

import (
	"time"

	"github.com/shopspring/decimal"

	"club-system/internal/status"
)

type EventType string

const (
	EventGeneral  EventType = "general"
	EventTasting  EventType = "tasting"
	EventMT       EventType = "mt"
	EventAssembly EventType = "assembly"
)

type EventStatus string

const (
	EventOpen     EventStatus = "open"
	EventArchived EventStatus = "archived"
)

// Payment carries the transfer details shown on payment-bearing event
// types (mt, assembly).
type Payment struct {
	Bank   string          `json:"bank"`
	Number string          `json:"number"`
	Holder string          `json:"holder"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// Venue is one restaurant slot of a tasting event with its own roster.
type Venue struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Info     string `json:"info"`
	ImageURL string `json:"imageUrl"`
	Roster   Roster `json:"roster"`
}

// Review is a post-event feedback entry stored on the event document,
// keyed by the author's student id.
type Review struct {
	StudentID string    `json:"studentId"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event is the whole reservation document. General-shaped types (general,
// mt, assembly) carry a single Roster; tasting events carry an ordered
// venue list, each venue with its own roster. The event document is the
// unit of mutual exclusion: every roster mutation rewrites the document
// atomically, which is also what makes the cross-venue uniqueness check
// race-free.
type Event struct {
	ID       string      `json:"id"`
	Type     EventType   `json:"type"`
	Title    string      `json:"title"`
	Datetime string      `json:"datetime"`
	Status   EventStatus `json:"status"`
	Payment  *Payment    `json:"payment,omitempty"`
	Roster   Roster      `json:"roster"`
	Venues   []Venue     `json:"venues,omitempty"`
	Reviews  []Review    `json:"reviews,omitempty"`
	Revision int64       `json:"revision"`
}

// IsTasting reports whether the event is venue-partitioned.
func (e *Event) IsTasting() bool {
	return e.Type == EventTasting
}

// RosterFor resolves the target roster: the event's own roster for
// general-shaped events (venueID ignored), or the named venue's roster
// for tasting events.
func (e *Event) RosterFor(venueID string) (*Roster, error) {
	if !e.IsTasting() {
		return &e.Roster, nil
	}
	for i := range e.Venues {
		if e.Venues[i].ID == venueID {
			return &e.Venues[i].Roster, nil
		}
	}
	return nil, status.ErrVenueNotFound
}

// HasRegistration is the uniqueness guard: true when the student already
// holds a seat (confirmed or waiting) anywhere in the event. For tasting
// events this spans every venue, so one member can never occupy seats at
// two restaurants of the same event.
func (e *Event) HasRegistration(studentID string) bool {
	if !e.IsTasting() {
		return e.Roster.Contains(studentID)
	}
	for i := range e.Venues {
		if e.Venues[i].Roster.Contains(studentID) {
			return true
		}
	}
	return false
}

// DeletionBlocked reports whether deleting the event would destroy
// user-submitted feedback. Tasting events with reviews are never deleted.
func (e *Event) DeletionBlocked() bool {
	return e.IsTasting() && len(e.Reviews) > 0
}

// UpsertReview adds the review or replaces the author's previous one,
// keeping the original CreatedAt on replacement.
func (e *Event) UpsertReview(rv Review) {
	for i, existing := range e.Reviews {
		if existing.StudentID == rv.StudentID {
			rv.CreatedAt = existing.CreatedAt
			e.Reviews[i] = rv
			return
		}
	}
	e.Reviews = append(e.Reviews, rv)
}

// MergeVenues applies an admin edit of the venue list while preserving
// the rosters of venues that survive the edit, matched by venue id. New
// venues start with empty rosters.
func (e *Event) MergeVenues(edited []Venue) {
	old := make(map[string]Roster, len(e.Venues))
	for _, v := range e.Venues {
		old[v.ID] = v.Roster
	}
	for i := range edited {
		if kept, ok := old[edited[i].ID]; ok {
			capacity := edited[i].Roster.Capacity
			edited[i].Roster = kept
			edited[i].Roster.Capacity = capacity
		}
	}
	e.Venues = edited
}
