package handlers

import (
	"errors"

	"github.com/pocketbase/pocketbase/apis"

	"club-system/internal/status"
)

// toAPIError translates the service error taxonomy into the responses
// the UI shows. Anything unrecognized becomes a generic bad request so
// internals never leak to members.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, status.ErrDuplicateRegistration):
		return apis.NewBadRequestError("You may only apply to one venue or slot per event.", err)
	case errors.Is(err, status.ErrEventNotFound):
		return apis.NewNotFoundError("Event not found.", err)
	case errors.Is(err, status.ErrVenueNotFound):
		return apis.NewNotFoundError("Venue not found.", err)
	case errors.Is(err, status.ErrParticipantNotFound):
		return apis.NewNotFoundError("Participant not found. The roster may have changed, refresh and retry.", err)
	case errors.Is(err, status.ErrConcurrencyExhausted):
		return apis.NewApiError(429, "Too many concurrent requests, please retry.", nil)
	case errors.Is(err, status.ErrDeletionBlocked):
		return apis.NewApiError(409, "This event has reviews attached and cannot be deleted.", nil)
	default:
		return apis.NewBadRequestError("Request failed.", err)
	}
}
