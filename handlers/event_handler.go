package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"club-system/models"
	"club-system/services"
)

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// ListOpen returns every open event for the member-facing listing.
func (h *EventHandler) ListOpen(e *core.RequestEvent) error {
	events, err := h.events.ListOpen(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to list events", err)
	}
	return e.JSON(http.StatusOK, events)
}

// Get returns one event through the read-through cache.
func (h *EventHandler) Get(e *core.RequestEvent) error {
	ev, err := h.events.Get(e.Request.Context(), e.Request.PathValue("eventId"))
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, ev)
}

// Create makes a new event from an admin draft.
func (h *EventHandler) Create(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	var draft services.EventDraft
	if err := e.BindBody(&draft); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	ev, err := h.events.Create(e.Request.Context(), draft)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, ev)
}

// Update edits an existing event; rosters of surviving venues are kept.
func (h *EventHandler) Update(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}

	var draft services.EventDraft
	if err := e.BindBody(&draft); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.events.Update(e.Request.Context(), e.Request.PathValue("eventId"), draft); err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Event updated"})
}

// Archive hides the event; Unarchive republishes it.
func (h *EventHandler) Archive(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}
	if err := h.events.Archive(e.Request.Context(), e.Request.PathValue("eventId")); err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"status": models.EventArchived})
}

func (h *EventHandler) Unarchive(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}
	if err := h.events.Unarchive(e.Request.Context(), e.Request.PathValue("eventId")); err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"status": models.EventOpen})
}

// Delete permanently removes an event. Tasting events with reviews are
// refused outright.
func (h *EventHandler) Delete(e *core.RequestEvent) error {
	if err := requireAdmin(e); err != nil {
		return err
	}
	if err := h.events.Delete(e.Request.Context(), e.Request.PathValue("eventId")); err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Event deleted"})
}

// SaveReview upserts the caller's post-event review.
func (h *EventHandler) SaveReview(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Login required", nil)
	}
	studentID := e.Auth.GetString("student_id")
	if studentID == "" {
		return apis.NewForbiddenError("Account has no student id", nil)
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	err := h.events.SaveReview(e.Request.Context(), e.Request.PathValue("eventId"),
		studentID, e.Auth.GetString("name"), req.Rating, req.Comment)
	if err != nil {
		return toAPIError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Review saved"})
}
