package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"club-system/services"
)

type AdminHandler struct {
	reservations *services.ReservationService
	events       *services.EventService
	members      *services.MemberService
}

func NewAdminHandler(reservations *services.ReservationService, events *services.EventService, members *services.MemberService) *AdminHandler {
	return &AdminHandler{reservations: reservations, events: events, members: members}
}

func requireAdmin(e *core.RequestEvent) error {
	if e.Auth == nil || e.Auth.Collection().Name != "admins" {
		return apis.NewUnauthorizedError("Admin access required", nil)
	}
	return nil
}

// AddParticipant inserts an arbitrary member into a roster on the
// admin's behalf. Capacity placement is the same as self-service; a
// duplicate insert is surfaced as a data-entry error.
func (h *AdminHandler) AddParticipant(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	var req struct {
		StudentID string `json:"student_id"`
		Name      string `json:"name"`
		VenueID   string `json:"venue_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.StudentID == "" {
		return apis.NewBadRequestError("student_id is required", nil)
	}

	eventID := e.Request.PathValue("eventId")
	profile := h.members.Profile(e.Request.Context(), req.StudentID, req.Name)

	result, err := h.reservations.AdminAdd(e.Request.Context(), eventID, req.VenueID, profile)
	if err != nil {
		return toAPIError(err)
	}

	log.Printf("Admin %s added %s to event %s (%s)", e.Auth.Id, req.StudentID, eventID, result)
	return e.JSON(http.StatusOK, map[string]any{"result": result})
}

// RemoveParticipant removes any member from a roster, promoting the
// waitlist head when a confirmed seat frees up. A missing participant is
// a visible error here: the admin's roster view was stale.
func (h *AdminHandler) RemoveParticipant(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	eventID := e.Request.PathValue("eventId")
	studentID := e.Request.PathValue("studentId")
	venueID := e.Request.URL.Query().Get("venue_id")

	result, err := h.reservations.AdminRemove(e.Request.Context(), eventID, venueID, studentID)
	if err != nil {
		return toAPIError(err)
	}

	log.Printf("Admin %s removed %s from event %s (%s)", e.Auth.Id, studentID, eventID, result.Outcome)

	resp := map[string]any{"outcome": result.Outcome}
	if result.Promoted != nil {
		resp["promoted"] = result.Promoted.StudentID
	}
	return e.JSON(http.StatusOK, resp)
}

// RosterDashboard summarizes roster occupancy for every open event.
func (h *AdminHandler) RosterDashboard(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	events, err := h.events.ListOpen(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to list events", err)
	}

	dashboard := []map[string]any{}
	for _, ev := range events {
		entry := map[string]any{
			"event_id": ev.ID,
			"title":    ev.Title,
			"type":     ev.Type,
		}
		if ev.IsTasting() {
			venues := []map[string]any{}
			for _, v := range ev.Venues {
				venues = append(venues, map[string]any{
					"venue_id":  v.ID,
					"name":      v.Name,
					"capacity":  v.Roster.Capacity,
					"confirmed": len(v.Roster.Confirmed),
					"waiting":   len(v.Roster.Waiting),
				})
			}
			entry["venues"] = venues
		} else {
			entry["capacity"] = ev.Roster.Capacity
			entry["confirmed"] = len(ev.Roster.Confirmed)
			entry["waiting"] = len(ev.Roster.Waiting)
		}
		dashboard = append(dashboard, entry)
	}
	return e.JSON(http.StatusOK, dashboard)
}
