package types

// RoleName identifies a project-scoped role in the Role Registry.
// Custom role names are allowed; the five defaults are seeded for every project.
type RoleName string

// Default project roles
const (
	RoleOwner          RoleName = "owner"
	RoleAdmin          RoleName = "admin"
	RoleProjectManager RoleName = "project_manager"
	RoleEditor         RoleName = "editor"
	RoleViewer         RoleName = "viewer"
)

// DefaultRoleNames in creation order
var DefaultRoleNames = []RoleName{
	RoleOwner, RoleAdmin, RoleProjectManager, RoleEditor, RoleViewer,
}

func (r RoleName) IsOwner() bool {
	return r == RoleOwner
}

func (r RoleName) IsDefault() bool {
	for _, n := range DefaultRoleNames {
		if n == r {
			return true
		}
	}
	return false
}

func (r RoleName) String() string {
	return string(r)
}

// GlobalRole is the application-wide role of a principal.
type GlobalRole string

const (
	GlobalUser  GlobalRole = "user"
	GlobalAdmin GlobalRole = "admin"
)

func (r GlobalRole) IsAdmin() bool {
	return r == GlobalAdmin
}

func (r GlobalRole) Valid() bool {
	return r == GlobalUser || r == GlobalAdmin
}

// LegacyProjectRole is the coarse tag on the user_projects join record.
type LegacyProjectRole string

const (
	LegacyOwner  LegacyProjectRole = "owner"
	LegacyMember LegacyProjectRole = "member"
	LegacyViewer LegacyProjectRole = "viewer"
)

var ValidLegacyProjectRoles = []LegacyProjectRole{LegacyOwner, LegacyMember, LegacyViewer}

func (r LegacyProjectRole) Valid() bool {
	for _, v := range ValidLegacyProjectRoles {
		if v == r {
			return true
		}
	}
	return false
}

// Project Status values
const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on_hold"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

var ValidProjectStatuses = []string{
	ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled,
}

// Task Status values
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

var ValidTaskStatuses = []string{
	StatusTodo, StatusInProgress, StatusReview, StatusDone,
}

// Priority values (projects use low..high, tasks add urgent)
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var ValidProjectPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

var ValidTaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Milestone Status values
const (
	MilestonePlanned    = "planned"
	MilestoneInProgress = "in_progress"
	MilestoneCompleted  = "completed"
	MilestoneDelayed    = "delayed"
)

var ValidMilestoneStatuses = []string{
	MilestonePlanned, MilestoneInProgress, MilestoneCompleted, MilestoneDelayed,
}

func IsValidProjectStatus(s string) bool { return contains(ValidProjectStatuses, s) }
func IsValidProjectPriority(s string) bool { return contains(ValidProjectPriorities, s) }
func IsValidTaskStatus(s string) bool { return contains(ValidTaskStatuses, s) }
func IsValidTaskPriority(s string) bool { return contains(ValidTaskPriorities, s) }
func IsValidMilestoneStatus(s string) bool { return contains(ValidMilestoneStatuses, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
