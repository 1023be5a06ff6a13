package models

import (
	"time"
)

// Participant is the profile snapshot captured when a member registers.
// The fields are copied from the member profile at registration time and
// are never updated afterwards, so a later profile edit does not rewrite
// history on old rosters.
type Participant struct {
	StudentID  string    `json:"studentId"`
	Name       string    `json:"name"`
	Gender     string    `json:"gender"`
	Year       string    `json:"year"`
	College    string    `json:"college"`
	Department string    `json:"department"`
	Phone      string    `json:"phone"`
	Timestamp  time.Time `json:"timestamp"`
}

// MemberProfile is the live profile record a snapshot is taken from.
type MemberProfile struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Year       string `json:"year"`
	College    string `json:"college"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

// Snapshot freezes a member profile into a roster participant.
func (m MemberProfile) Snapshot(now time.Time) Participant {
	return Participant{
		StudentID:  m.StudentID,
		Name:       m.Name,
		Gender:     m.Gender,
		Year:       m.Year,
		College:    m.College,
		Department: m.Department,
		Phone:      m.Phone,
		Timestamp:  now,
	}
}
