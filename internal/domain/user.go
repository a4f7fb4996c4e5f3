package domain

import (
	"strings"
	"time"
)

// User is the persisted profile of an identity-provider subject.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      Role
	OrgID     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns "first last", falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// OrgIDValue dereferences OrgID.
func (u User) OrgIDValue() string {
	if u.OrgID == nil {
		return ""
	}
	return *u.OrgID
}
