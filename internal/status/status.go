package status

import "errors"

var (
	ErrDuplicateRegistration = errors.New("reservation: already registered for this event")
	ErrEventNotFound         = errors.New("event: event not found")
	ErrVenueNotFound         = errors.New("event: venue not found")
	ErrConcurrencyExhausted  = errors.New("reservation: too many concurrent updates, retry later")
	ErrParticipantNotFound   = errors.New("roster: participant not found")
	ErrDeletionBlocked       = errors.New("event: deletion blocked by existing reviews")
)
