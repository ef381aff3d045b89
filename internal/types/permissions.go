package types

// Capability names one boolean flag of a PermissionSet.
type Capability string

const (
	CanManageProject Capability = "canManageProject"
	CanManageTasks   Capability = "canManageTasks"
	CanManageMembers Capability = "canManageMembers"
	CanCreateTasks   Capability = "canCreateTasks"
	CanEditTasks     Capability = "canEditTasks"
	CanDeleteTasks   Capability = "canDeleteTasks"
	CanViewTasks     Capability = "canViewTasks"
	CanComment       Capability = "canComment"
)

var AllCapabilities = []Capability{
	CanManageProject, CanManageTasks, CanManageMembers, CanCreateTasks,
	CanEditTasks, CanDeleteTasks, CanViewTasks, CanComment,
}

func (c Capability) Valid() bool {
	for _, v := range AllCapabilities {
		if v == c {
			return true
		}
	}
	return false
}

// PermissionSet is the fixed capability schema attached to a role.
type PermissionSet struct {
	CanManageProject bool `json:"canManageProject"`
	CanManageTasks   bool `json:"canManageTasks"`
	CanManageMembers bool `json:"canManageMembers"`
	CanCreateTasks   bool `json:"canCreateTasks"`
	CanEditTasks     bool `json:"canEditTasks"`
	CanDeleteTasks   bool `json:"canDeleteTasks"`
	CanViewTasks     bool `json:"canViewTasks"`
	CanComment       bool `json:"canComment"`
}

// Allows reports whether the capability is granted. Unknown capabilities are never granted.
func (p PermissionSet) Allows(c Capability) bool {
	switch c {
	case CanManageProject:
		return p.CanManageProject
	case CanManageTasks:
		return p.CanManageTasks
	case CanManageMembers:
		return p.CanManageMembers
	case CanCreateTasks:
		return p.CanCreateTasks
	case CanEditTasks:
		return p.CanEditTasks
	case CanDeleteTasks:
		return p.CanDeleteTasks
	case CanViewTasks:
		return p.CanViewTasks
	case CanComment:
		return p.CanComment
	}
	return false
}

// DefaultPermissions returns the hardcoded permission matrix for a default role.
// ok is false for custom role names.
func DefaultPermissions(role RoleName) (PermissionSet, bool) {
	switch role {
	case RoleOwner, RoleAdmin:
		return PermissionSet{
			CanManageProject: true,
			CanManageTasks:   true,
			CanManageMembers: true,
			CanCreateTasks:   true,
			CanEditTasks:     true,
			CanDeleteTasks:   true,
			CanViewTasks:     true,
			CanComment:       true,
		}, true
	case RoleProjectManager:
		return PermissionSet{
			CanManageTasks:   true,
			CanManageMembers: true,
			CanCreateTasks:   true,
			CanEditTasks:     true,
			CanDeleteTasks:   true,
			CanViewTasks:     true,
			CanComment:       true,
		}, true
	case RoleEditor:
		return PermissionSet{
			CanCreateTasks: true,
			CanEditTasks:   true,
			CanViewTasks:   true,
			CanComment:     true,
		}, true
	case RoleViewer:
		return PermissionSet{
			CanViewTasks: true,
			CanComment:   true,
		}, true
	}
	return PermissionSet{}, false
}

// NotificationSettings are per-membership delivery preferences.
type NotificationSettings struct {
	Email           bool `json:"email"`
	InApp           bool `json:"inApp"`
	TaskAssigned    bool `json:"taskAssigned"`
	TaskUpdated     bool `json:"taskUpdated"`
	CommentMention  bool `json:"commentMention"`
	DueDateReminder bool `json:"dueDateReminder"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Email:           true,
		InApp:           true,
		TaskAssigned:    true,
		TaskUpdated:     true,
		CommentMention:  true,
		DueDateReminder: true,
	}
}
