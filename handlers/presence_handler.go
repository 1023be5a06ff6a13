package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"club-system/services"
)

type PresenceHandler struct {
	presence *services.PresenceService
}

func NewPresenceHandler(presence *services.PresenceService) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// Heartbeat refreshes the caller's online marker.
func (h *PresenceHandler) Heartbeat(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Login required", nil)
	}
	studentID := e.Auth.GetString("student_id")
	if studentID == "" {
		return apis.NewForbiddenError("Account has no student id", nil)
	}
	if err := h.presence.Heartbeat(e.Request.Context(), studentID); err != nil {
		return apis.NewBadRequestError("Failed to record presence", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "ok"})
}

// Offline drops the caller from the online list immediately.
func (h *PresenceHandler) Offline(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Login required", nil)
	}
	studentID := e.Auth.GetString("student_id")
	if studentID == "" {
		return apis.NewForbiddenError("Account has no student id", nil)
	}
	if err := h.presence.Offline(e.Request.Context(), studentID); err != nil {
		return apis.NewBadRequestError("Failed to clear presence", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "ok"})
}

// Online lists the members currently online.
func (h *PresenceHandler) Online(e *core.RequestEvent) error {
	ids, err := h.presence.Online(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to list online members", err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"count":   len(ids),
		"members": ids,
	})
}
