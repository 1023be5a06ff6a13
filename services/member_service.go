package services

import (
	"context"

	"github.com/pocketbase/pocketbase/core"

	"club-system/models"
)

// MemberService resolves the profile snapshot taken at registration time.
type MemberService struct {
	app core.App
}

func NewMemberService(app core.App) *MemberService {
	return &MemberService{app: app}
}

// Profile fetches the member's profile fields by student id. A member
// without a profile record still gets a usable snapshot: identity comes
// from the auth layer, the profile fields stay blank. That matches how
// registrations behaved before profiles became mandatory.
func (s *MemberService) Profile(ctx context.Context, studentID, name string) models.MemberProfile {
	profile := models.MemberProfile{StudentID: studentID, Name: name}

	rec, err := s.app.FindFirstRecordByData("members", "student_id", studentID)
	if err != nil {
		return profile
	}
	profile.Gender = rec.GetString("gender")
	profile.Year = rec.GetString("year")
	profile.College = rec.GetString("college")
	profile.Department = rec.GetString("department")
	profile.Phone = rec.GetString("phone")
	if profile.Name == "" {
		profile.Name = rec.GetString("name")
	}
	return profile
}
