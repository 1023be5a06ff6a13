package models

// Roster is the confirmed/waiting list pair attached to an event or to a
// single venue of a tasting event. Confirmed order is admission order and
// the waiting list is a strict FIFO queue: a freed confirmed slot always
// goes to the earliest-queued waiter.
type Roster struct {
	Confirmed []Participant `json:"confirmed"`
	Waiting   []Participant `json:"waiting"`
	Capacity  int           `json:"capacity"`
}

// AdmissionResult reports where Admit placed the participant.
type AdmissionResult string

const (
	AdmissionConfirmed  AdmissionResult = "confirmed"
	AdmissionWaitlisted AdmissionResult = "waitlisted"
)

// CancelOutcome reports which list Cancel removed the participant from.
type CancelOutcome string

const (
	RemovedFromConfirmed CancelOutcome = "removed_from_confirmed"
	RemovedFromWaiting   CancelOutcome = "removed_from_waiting"
	CancelNotFound       CancelOutcome = "not_found"
)

// CancelResult is the outcome of a cancellation, including the waiter
// promoted into the freed slot when one exists.
type CancelResult struct {
	Outcome  CancelOutcome
	Promoted *Participant
}

// Unlimited reports whether the roster has no confirmed-seat bound.
// Capacity 0 means unlimited.
func (r *Roster) Unlimited() bool {
	return r.Capacity <= 0
}

// HasRoom reports whether a new participant would land in confirmed.
func (r *Roster) HasRoom() bool {
	return r.Unlimited() || len(r.Confirmed) < r.Capacity
}

// Contains reports whether the student holds any seat, confirmed or waiting.
func (r *Roster) Contains(studentID string) bool {
	for _, p := range r.Confirmed {
		if p.StudentID == studentID {
			return true
		}
	}
	for _, p := range r.Waiting {
		if p.StudentID == studentID {
			return true
		}
	}
	return false
}

// Admit places the participant at the end of confirmed if capacity allows,
// otherwise at the tail of the waiting queue. The caller must have run the
// uniqueness check first; Admit itself never rejects.
func (r *Roster) Admit(p Participant) AdmissionResult {
	if r.HasRoom() {
		r.Confirmed = append(r.Confirmed, p)
		return AdmissionConfirmed
	}
	r.Waiting = append(r.Waiting, p)
	return AdmissionWaitlisted
}

// Cancel removes the student from the roster. Removal from confirmed
// promotes the head of the waiting queue into the freed slot; removal from
// waiting never touches confirmed. An absent student is a no-op reported
// as CancelNotFound.
func (r *Roster) Cancel(studentID string) CancelResult {
	for i, p := range r.Confirmed {
		if p.StudentID != studentID {
			continue
		}
		r.Confirmed = append(r.Confirmed[:i], r.Confirmed[i+1:]...)
		if len(r.Waiting) > 0 {
			promoted := r.Waiting[0]
			r.Waiting = r.Waiting[1:]
			r.Confirmed = append(r.Confirmed, promoted)
			return CancelResult{Outcome: RemovedFromConfirmed, Promoted: &promoted}
		}
		return CancelResult{Outcome: RemovedFromConfirmed}
	}
	for i, p := range r.Waiting {
		if p.StudentID != studentID {
			continue
		}
		r.Waiting = append(r.Waiting[:i], r.Waiting[i+1:]...)
		return CancelResult{Outcome: RemovedFromWaiting}
	}
	return CancelResult{Outcome: CancelNotFound}
}
