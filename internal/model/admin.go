package model

// ReportStatus is the moderation state of a report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportApproved ReportStatus = "approved"
	ReportRejected ReportStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportApproved, ReportRejected:
		return true
	}
	return false
}

// Report is a user complaint about a topic or reply.
type Report struct {
	ID          int64        `json:"id"`
	ContentType string       `json:"content_type"`
	ContentID   int64        `json:"content_id"`
	Reason      string       `json:"reason"`
	Description string       `json:"description,omitempty"`
	ReporterID  int64        `json:"reporter_id"`
	Status      ReportStatus `json:"status"`
	Preview     string       `json:"content_preview,omitempty"`
	CreatedAt   Timestamp    `json:"created_at"`
}

// Permissions is the admin-area capability set derived from a user's roles.
type Permissions struct {
	IsSuperuser               bool `json:"is_superuser"`
	IsAdmin                   bool `json:"is_admin"`
	IsOrganizer               bool `json:"is_organizer"`
	IsModerator               bool `json:"is_moderator"`
	CanAccessAdmin            bool `json:"can_access_admin"`
	CanManageUsers            bool `json:"can_manage_users"`
	CanManageRoles            bool `json:"can_manage_roles"`
	CanModerateForum          bool `json:"can_moderate_forum"`
	CanManageGroupBuys        bool `json:"can_manage_group_buys"`
	CanApproveGroupBuys       bool `json:"can_approve_group_buys"`
	CanViewAnalytics          bool `json:"can_view_analytics"`
	CanManageOwnGroupBuysOnly bool `json:"can_manage_own_group_buys_only"`
	CanManageSettings         bool `json:"can_manage_settings"`
}
