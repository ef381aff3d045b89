// Package notification delivers domain events over WebSocket and email,
// honoring each recipient's per-project notification settings.
package notification

import (
	"context"
	"fmt"

	"github.com/Marga-Ghale/ora-projects-backend/internal/email"
	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/service"
	"github.com/Marga-Ghale/ora-projects-backend/internal/socket"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// Mailer is the subset of the email queue the service needs.
type Mailer interface {
	Enqueue(send func(s *email.Service) error)
}

// Service implements service.Notifier.
type Service struct {
	repos       *repository.Repositories
	broadcaster *socket.Broadcaster // optional
	mailer      Mailer              // optional
	frontendURL string
}

var _ service.Notifier = (*Service)(nil)

func NewService(repos *repository.Repositories, broadcaster *socket.Broadcaster, mailer Mailer, frontendURL string) *Service {
	return &Service{
		repos:       repos,
		broadcaster: broadcaster,
		mailer:      mailer,
		frontendURL: frontendURL,
	}
}

// settingsFor returns the recipient's settings in projectID, or the defaults
// when the task has no project or the user holds no membership there.
func (s *Service) settingsFor(ctx context.Context, projectID *string, userID string) types.NotificationSettings {
	if projectID == nil || *projectID == "" {
		return types.DefaultNotificationSettings()
	}
	member, err := s.repos.MemberRepo.FindMember(ctx, *projectID, userID)
	if err != nil {
		logger.Warn().Err(err).Str("userId", userID).Msg("[Notification] load settings")
		return types.DefaultNotificationSettings()
	}
	if member == nil {
		return types.DefaultNotificationSettings()
	}
	return member.NotificationSettings
}

func (s *Service) inApp(settings types.NotificationSettings, event bool) bool {
	return s.broadcaster != nil && settings.InApp && event
}

func (s *Service) byEmail(settings types.NotificationSettings, event bool) bool {
	return s.mailer != nil && settings.Email && event
}

func (s *Service) user(ctx context.Context, id string) *repository.User {
	user, err := s.repos.UserRepo.FindByID(ctx, id)
	if err != nil {
		logger.Warn().Err(err).Str("userId", id).Msg("[Notification] load user")
		return nil
	}
	return user
}

func (s *Service) userName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	if u := s.user(ctx, id); u != nil {
		return u.Name
	}
	return ""
}

func (s *Service) taskURL(task *repository.Task) string {
	return fmt.Sprintf("%s/tasks/%s", s.frontendURL, task.ID)
}

// ============================================
// Membership Events
// ============================================

func (s *Service) MemberAdded(ctx context.Context, member *repository.ProjectMember, actorID string) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberAdded(member.ProjectID, memberPayload(member), actorID)
	}

	if !s.byEmail(member.NotificationSettings, true) {
		return
	}
	recipient := member.User
	if recipient == nil {
		if recipient = s.user(ctx, member.UserID); recipient == nil {
			return
		}
	}
	project, err := s.repos.ProjectRepo.FindByID(ctx, member.ProjectID)
	if err != nil || project == nil {
		return
	}

	data := email.ProjectInvitationData{
		ProjectName: project.Name,
		InvitedBy:   s.userName(ctx, actorID),
		ProjectURL:  fmt.Sprintf("%s/projects/%s", s.frontendURL, project.ID),
	}
	if member.Role != nil {
		data.RoleName = string(member.Role.Name)
	}
	to := recipient.Email
	s.mailer.Enqueue(func(m *email.Service) error { return m.SendProjectInvitation(to, data) })
}

func (s *Service) MemberRemoved(ctx context.Context, projectID, userID string) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberRemoved(projectID, userID)
	}
}

func (s *Service) MemberRoleUpdated(ctx context.Context, member *repository.ProjectMember) {
	if s.broadcaster == nil {
		return
	}
	var roleName string
	if member.Role != nil {
		roleName = string(member.Role.Name)
	}
	s.broadcaster.BroadcastMemberRoleUpdated(member.ProjectID, member.UserID, member.RoleID, roleName)
}

func (s *Service) RolePermissionsUpdated(ctx context.Context, role *repository.ProjectRole) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastRolePermissionsUpdated(role.ProjectID, map[string]interface{}{
		"id":          role.ID,
		"roleName":    role.Name,
		"permissions": role.Permissions,
	})
}

// ============================================
// Task Events
// ============================================

func (s *Service) TaskAssigned(ctx context.Context, task *repository.Task, actorID string) {
	if task.AssignedTo == nil || *task.AssignedTo == "" || *task.AssignedTo == actorID {
		return
	}
	assigneeID := *task.AssignedTo
	settings := s.settingsFor(ctx, task.ProjectID, assigneeID)

	if s.inApp(settings, settings.TaskAssigned) {
		s.broadcaster.SendTaskAssigned(assigneeID, taskPayload(task), actorID)
	}
	if !s.byEmail(settings, settings.TaskAssigned) {
		return
	}
	assignee := s.user(ctx, assigneeID)
	if assignee == nil {
		return
	}

	data := email.TaskAssignedData{
		AssigneeName: assignee.Name,
		AssignerName: s.userName(ctx, actorID),
		TaskTitle:    task.Title,
		Priority:     task.Priority,
		TaskURL:      s.taskURL(task),
	}
	if task.DueDate != nil {
		data.DueDate = task.DueDate.Format("Jan 2, 2006")
	}
	to := assignee.Email
	s.mailer.Enqueue(func(m *email.Service) error { return m.SendTaskAssigned(to, data) })
}

// TaskUpdated reaches the creator and the assignee, never the actor.
func (s *Service) TaskUpdated(ctx context.Context, task *repository.Task, actorID string) {
	if s.broadcaster == nil {
		return
	}
	for _, userID := range taskAudience(task, actorID) {
		settings := s.settingsFor(ctx, task.ProjectID, userID)
		if s.inApp(settings, settings.TaskUpdated) {
			s.broadcaster.SendTaskUpdated(userID, taskPayload(task), actorID)
		}
	}
}

// TaskDueSoon sends the due date reminder for one task to its assignee.
func (s *Service) TaskDueSoon(ctx context.Context, task *repository.Task) {
	if task.AssignedTo == nil || *task.AssignedTo == "" {
		return
	}
	assigneeID := *task.AssignedTo
	settings := s.settingsFor(ctx, task.ProjectID, assigneeID)

	if s.inApp(settings, settings.DueDateReminder) {
		s.broadcaster.SendTaskDueSoon(assigneeID, taskPayload(task))
	}
	if !s.byEmail(settings, settings.DueDateReminder) {
		return
	}
	assignee := s.user(ctx, assigneeID)
	if assignee == nil {
		return
	}

	data := email.DueDateReminderData{
		UserName:     assignee.Name,
		DashboardURL: s.frontendURL,
		Tasks:        []email.DueDateReminderTask{{Title: task.Title}},
	}
	if task.DueDate != nil {
		data.Tasks[0].DueDate = task.DueDate.Format("Jan 2, 2006 15:04")
	}
	to := assignee.Email
	s.mailer.Enqueue(func(m *email.Service) error { return m.SendDueDateReminder(to, data) })
}

// ============================================
// Comment Events
// ============================================

// CommentAdded pushes the comment to the task's creator and assignee and
// sends mention notifications to every mentioned user.
func (s *Service) CommentAdded(ctx context.Context, task *repository.Task, comment *repository.Comment) {
	payload := map[string]interface{}{
		"id":        comment.ID,
		"content":   comment.Content,
		"userId":    comment.UserID,
		"mentions":  []string(comment.Mentions),
		"createdAt": comment.CreatedAt,
	}

	mentioned := make(map[string]bool, len(comment.Mentions))
	for _, userID := range comment.Mentions {
		if userID == "" || userID == comment.UserID || mentioned[userID] {
			continue
		}
		mentioned[userID] = true
		s.mention(ctx, task, comment, userID, payload)
	}

	if s.broadcaster == nil {
		return
	}
	for _, userID := range taskAudience(task, comment.UserID) {
		if mentioned[userID] {
			continue
		}
		if settings := s.settingsFor(ctx, task.ProjectID, userID); settings.InApp {
			s.broadcaster.SendCommentAdded(userID, task.ID, payload)
		}
	}
}

func (s *Service) mention(ctx context.Context, task *repository.Task, comment *repository.Comment, userID string, payload map[string]interface{}) {
	settings := s.settingsFor(ctx, task.ProjectID, userID)
	if s.inApp(settings, settings.CommentMention) {
		s.broadcaster.SendCommentAdded(userID, task.ID, payload)
	}
	if !s.byEmail(settings, settings.CommentMention) {
		return
	}
	user := s.user(ctx, userID)
	if user == nil {
		return
	}

	data := email.MentionData{
		UserName:       user.Name,
		MentionedBy:    s.userName(ctx, comment.UserID),
		TaskTitle:      task.Title,
		CommentContent: comment.Content,
		TaskURL:        s.taskURL(task),
	}
	to := user.Email
	s.mailer.Enqueue(func(m *email.Service) error { return m.SendMention(to, data) })
}

// ============================================
// Payloads
// ============================================

func taskAudience(task *repository.Task, actorID string) []string {
	var out []string
	if task.CreatedBy != "" && task.CreatedBy != actorID {
		out = append(out, task.CreatedBy)
	}
	if task.AssignedTo != nil && *task.AssignedTo != "" && *task.AssignedTo != actorID && *task.AssignedTo != task.CreatedBy {
		out = append(out, *task.AssignedTo)
	}
	return out
}

func taskPayload(task *repository.Task) map[string]interface{} {
	payload := map[string]interface{}{
		"id":       task.ID,
		"title":    task.Title,
		"status":   task.Status,
		"priority": task.Priority,
	}
	if task.ProjectID != nil {
		payload["projectId"] = *task.ProjectID
	}
	if task.AssignedTo != nil {
		payload["assignedTo"] = *task.AssignedTo
	}
	if task.DueDate != nil {
		payload["dueDate"] = task.DueDate
	}
	return payload
}

func memberPayload(member *repository.ProjectMember) map[string]interface{} {
	payload := map[string]interface{}{
		"id":       member.ID,
		"userId":   member.UserID,
		"roleId":   member.RoleID,
		"joinedAt": member.JoinedAt,
	}
	if member.User != nil {
		payload["name"] = member.User.Name
		payload["email"] = member.User.Email
	}
	if member.Role != nil {
		payload["roleName"] = member.Role.Name
	}
	return payload
}
