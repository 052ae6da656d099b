package domain

import "time"

// ProfileField names a profile attribute addressable by an edit.
type ProfileField string

const (
	FieldFirstName ProfileField = "firstName"
	FieldLastName  ProfileField = "lastName"
	// FieldEmail is sourced from the identity provider and is read-only.
	FieldEmail ProfileField = "email"
)

// Profile is the user-facing record stored once per user ID.
type Profile struct {
	ID        string    `json:"id"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of p, or nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.FirstName = cloneString(p.FirstName)
	c.LastName = cloneString(p.LastName)
	c.Email = cloneString(p.Email)
	return &c
}

// ProfilePatch carries the editable subset of a profile. There is no email
// field: email can never be written through a patch.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	// IfUnmodifiedSince makes the write conditional on the stored UpdatedAt.
	// The zero value writes unconditionally.
	IfUnmodifiedSince time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
