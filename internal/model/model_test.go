package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_RolesShapes(t *testing.T) {
	tests := []struct {
		name string
		json string
		want []Role
	}{
		{"array", `{"id":1,"roles":["Admin"," moderator "]}`, []Role{RoleAdmin, RoleModerator}},
		{"bare string", `{"id":1,"roles":"organizer"}`, []Role{RoleOrganizer}},
		{"null", `{"id":1,"roles":null}`, []Role{}},
		{"missing", `{"id":1}`, []Role{}},
		{"legacy role field", `{"id":1,"role":"admin","roles":["user"]}`, []Role{RoleAdmin, RoleUser}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			require.NoError(t, json.Unmarshal([]byte(tt.json), &u))
			require.NotNil(t, u.Roles)
			assert.Equal(t, tt.want, u.Roles.Slice())
		})
	}
}

func TestUser_RolesMarshalSorted(t *testing.T) {
	u := User{ID: 1, Roles: NewRoleSet(RoleModerator, RoleAdmin, "")}
	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"roles":["admin","moderator"]`)
}

func TestRoleSet_NilHasNothing(t *testing.T) {
	var s RoleSet
	assert.False(t, s.Has(RoleAdmin))
}

func TestDisplayName(t *testing.T) {
	var nobody *User
	assert.Equal(t, "Аноним", nobody.DisplayName())
	assert.Equal(t, "anna", (&User{Username: "anna"}).DisplayName())
	assert.Equal(t, "Анна К.", (&User{Username: "anna", FullName: "Анна К."}).DisplayName())
}

func TestTimestamp_Layouts(t *testing.T) {
	want := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	for _, in := range []string{
		`"2026-03-15T09:30:00Z"`,
		`"2026-03-15T12:30:00+03:00"`,
		`"2026-03-15T09:30:00"`,
		`"2026-03-15T09:30:00.000000"`,
		`"2026-03-15 09:30:00"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(in), &ts), in)
		assert.True(t, want.Equal(ts.Time), "%s parsed as %v", in, ts.Time)
	}
}

func TestTimestamp_EmptyAndInvalid(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12345`), &ts))

	b, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestUser_PublicDropsPrivateFields(t *testing.T) {
	u := User{
		ID:          1,
		Username:    "anna",
		FullName:    "Анна",
		AvatarURL:   "/media/a.jpg",
		Email:       "anna@private.example",
		IsSuperuser: true,
		IsActive:    true,
		Roles:       NewRoleSet(RoleAdmin),
	}

	pub := u.Public()
	raw, err := json.Marshal(pub)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "anna@private.example")
	assert.False(t, pub.IsSuperuser)
	assert.Equal(t, "Анна", pub.DisplayName())
	assert.True(t, pub.Roles.Has(RoleAdmin))

	pub.Roles.Add(RoleModerator)
	assert.False(t, u.Roles.Has(RoleModerator), "roles are copied")
}

func TestTopic_AuthorID(t *testing.T) {
	assert.Zero(t, (&Topic{}).AuthorID())
	id := int64(9)
	assert.Equal(t, int64(9), (&Topic{UserID: &id}).AuthorID())
}
