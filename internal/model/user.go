package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Role is a named capability granted by the backend.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleModerator Role = "moderator"
)

// RoleSet is the normalised set of a user's roles.
//
// The backend has sent roles both as an array and, in older payloads, as a
// single bare string. UnmarshalJSON accepts either shape so the rest of the
// code only ever sees a set.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from roles, ignoring blanks.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s.Add(r)
	}
	return s
}

// Add inserts r after trimming and lower-casing it.
func (s RoleSet) Add(r Role) {
	r = Role(strings.ToLower(strings.TrimSpace(string(r))))
	if r != "" {
		s[r] = struct{}{}
	}
}

// Has reports whether r is in the set. A nil set has no roles.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Slice returns the roles sorted, for stable output.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *RoleSet) UnmarshalJSON(b []byte) error {
	set := RoleSet{}
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
	case len(b) > 0 && b[0] == '"':
		var single string
		if err := json.Unmarshal(b, &single); err != nil {
			return fmt.Errorf("model: decoding role: %w", err)
		}
		set.Add(Role(single))
	default:
		var many []string
		if err := json.Unmarshal(b, &many); err != nil {
			return fmt.Errorf("model: decoding roles: %w", err)
		}
		for _, r := range many {
			set.Add(Role(r))
		}
	}
	*s = set
	return nil
}

// User is a profile record as returned by /users/profile and /users?ids=.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	FullName    string    `json:"full_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Roles       RoleSet   `json:"roles"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   Timestamp `json:"created_at"`
}

// UnmarshalJSON folds the legacy single "role" field into Roles.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var aux struct {
		plain
		Role *RoleSet `json:"role"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.Roles == nil {
		u.Roles = RoleSet{}
	}
	if aux.Role != nil {
		for r := range *aux.Role {
			u.Roles[r] = struct{}{}
		}
	}
	return nil
}

// Public returns the part of u any visitor may see next to a post. Contact
// details, account flags and dates stay with the owner's session.
func (u User) Public() User {
	roles := maps.Clone(u.Roles)
	if roles == nil {
		roles = RoleSet{}
	}
	return User{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		Roles:     roles,
	}
}

// DisplayName is the name shown next to posts.
func (u *User) DisplayName() string {
	if u == nil {
		return "Аноним"
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Credentials is the login/register payload forwarded to the backend.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
