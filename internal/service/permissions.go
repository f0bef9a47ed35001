package service

import "github.com/sakif/forumfront/internal/model"

// DerivePermissions computes the admin-area capabilities of u. It is pure:
// no backend call, nothing stored. A nil user has no permissions and a
// superuser has all of them.
func DerivePermissions(u *model.User) model.Permissions {
	if u == nil {
		return model.Permissions{}
	}
	if u.IsSuperuser {
		return model.Permissions{
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
		}
	}

	isAdmin := u.Roles.Has(model.RoleAdmin)
	isOrganizer := u.Roles.Has(model.RoleOrganizer)
	isModerator := u.Roles.Has(model.RoleModerator)

	return model.Permissions{
		IsAdmin:                   isAdmin,
		IsOrganizer:               isOrganizer,
		IsModerator:               isModerator,
		CanAccessAdmin:            isAdmin || isOrganizer || isModerator,
		CanManageUsers:            isAdmin,
		CanManageRoles:            isAdmin,
		CanModerateForum:          isAdmin || isModerator,
		CanManageGroupBuys:        isAdmin || isOrganizer,
		CanApproveGroupBuys:       isAdmin,
		CanViewAnalytics:          isAdmin || isOrganizer,
		CanManageOwnGroupBuysOnly: isOrganizer && !isAdmin,
		CanManageSettings:         isAdmin,
	}
}
