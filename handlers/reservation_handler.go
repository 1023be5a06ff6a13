package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"club-system/models"
	"club-system/services"
)

type ReservationHandler struct {
	reservations *services.ReservationService
	members      *services.MemberService
}

func NewReservationHandler(reservations *services.ReservationService, members *services.MemberService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, members: members}
}

// Reserve handles a member's own registration for an event or for one
// venue of a tasting event.
func (h *ReservationHandler) Reserve(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Login required", nil)
	}
	studentID := e.Auth.GetString("student_id")
	if studentID == "" {
		return apis.NewForbiddenError("Account has no student id", nil)
	}

	var req struct {
		VenueID string `json:"venue_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	eventID := e.Request.PathValue("eventId")
	profile := h.members.Profile(e.Request.Context(), studentID, e.Auth.GetString("name"))

	result, err := h.reservations.Reserve(e.Request.Context(), eventID, req.VenueID, profile)
	if err != nil {
		return toAPIError(err)
	}

	message := "Reservation confirmed"
	if result == models.AdmissionWaitlisted {
		message = "Added to the waitlist"
	}
	return e.JSON(http.StatusOK, map[string]any{
		"result":  result,
		"message": message,
	})
}

// Cancel withdraws the member's own registration. A registration that was
// already gone is reported as such, not as a failure.
func (h *ReservationHandler) Cancel(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Login required", nil)
	}
	studentID := e.Auth.GetString("student_id")
	if studentID == "" {
		return apis.NewForbiddenError("Account has no student id", nil)
	}

	var req struct {
		VenueID string `json:"venue_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	eventID := e.Request.PathValue("eventId")
	result, err := h.reservations.Cancel(e.Request.Context(), eventID, req.VenueID, studentID)
	if err != nil {
		return toAPIError(err)
	}

	resp := map[string]any{"outcome": result.Outcome}
	if result.Promoted != nil {
		resp["promoted"] = result.Promoted.StudentID
	}
	return e.JSON(http.StatusOK, resp)
}
