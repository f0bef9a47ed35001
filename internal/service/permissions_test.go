package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/service"
)

func TestDerivePermissions(t *testing.T) {
	tests := []struct {
		name string
		user *model.User
		want model.Permissions
	}{
		{"anonymous", nil, model.Permissions{}},
		{"plain user", ptr(user(1, "u", model.RoleUser)), model.Permissions{}},
		{
			name: "superuser without roles",
			user: &model.User{ID: 1, IsSuperuser: true},
			want: model.Permissions{
				IsSuperuser:               true,
				IsAdmin:                   true,
				IsOrganizer:               true,
				IsModerator:               true,
				CanAccessAdmin:            true,
				CanManageUsers:            true,
				CanManageRoles:            true,
				CanModerateForum:          true,
				CanManageGroupBuys:        true,
				CanApproveGroupBuys:       true,
				CanViewAnalytics:          true,
				CanManageOwnGroupBuysOnly: true,
				CanManageSettings:         true,
			},
		},
		{
			name: "admin",
			user: ptr(user(1, "a", model.RoleAdmin)),
			want: model.Permissions{
				IsAdmin:             true,
				CanAccessAdmin:      true,
				CanManageUsers:      true,
				CanManageRoles:      true,
				CanModerateForum:    true,
				CanManageGroupBuys:  true,
				CanApproveGroupBuys: true,
				CanViewAnalytics:    true,
				CanManageSettings:   true,
			},
		},
		{
			name: "organizer",
			user: ptr(user(1, "o", model.RoleOrganizer)),
			want: model.Permissions{
				IsOrganizer:               true,
				CanAccessAdmin:            true,
				CanManageGroupBuys:        true,
				CanViewAnalytics:          true,
				CanManageOwnGroupBuysOnly: true,
			},
		},
		{
			name: "moderator",
			user: ptr(user(1, "m", model.RoleModerator)),
			want: model.Permissions{
				IsModerator:      true,
				CanAccessAdmin:   true,
				CanModerateForum: true,
			},
		},
		{
			name: "admin and organizer",
			user: ptr(user(1, "ao", model.RoleAdmin, model.RoleOrganizer)),
			want: model.Permissions{
				IsAdmin:             true,
				IsOrganizer:         true,
				CanAccessAdmin:      true,
				CanManageUsers:      true,
				CanManageRoles:      true,
				CanModerateForum:    true,
				CanManageGroupBuys:  true,
				CanApproveGroupBuys: true,
				CanViewAnalytics:    true,
				CanManageSettings:   true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.DerivePermissions(tt.user))
		})
	}
}
