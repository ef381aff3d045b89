package service

import (
	"context"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
)

// Notifier receives domain events after a successful write. Implementations
// must not fail the request; delivery problems are theirs to log.
type Notifier interface {
	MemberAdded(ctx context.Context, member *repository.ProjectMember, actorID string)
	MemberRemoved(ctx context.Context, projectID, userID string)
	MemberRoleUpdated(ctx context.Context, member *repository.ProjectMember)
	RolePermissionsUpdated(ctx context.Context, role *repository.ProjectRole)
	TaskAssigned(ctx context.Context, task *repository.Task, actorID string)
	TaskUpdated(ctx context.Context, task *repository.Task, actorID string)
	CommentAdded(ctx context.Context, task *repository.Task, comment *repository.Comment)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) MemberAdded(context.Context, *repository.ProjectMember, string) {}
func (NopNotifier) MemberRemoved(context.Context, string, string) {}
func (NopNotifier) MemberRoleUpdated(context.Context, *repository.ProjectMember) {}
func (NopNotifier) RolePermissionsUpdated(context.Context, *repository.ProjectRole) {}
func (NopNotifier) TaskAssigned(context.Context, *repository.Task, string) {}
func (NopNotifier) TaskUpdated(context.Context, *repository.Task, string) {}
func (NopNotifier) CommentAdded(context.Context, *repository.Task, *repository.Comment) {}
