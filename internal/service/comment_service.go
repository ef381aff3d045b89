package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// CommentService works on the comments of a task that belongs to the project
// in the caller's ProjectAccess.
type CommentService interface {
	List(ctx context.Context, access *ProjectAccess, taskID string) ([]*repository.Comment, error)
	Create(ctx context.Context, access *ProjectAccess, taskID, content string, parentCommentID *string, mentions []string) (*repository.Comment, error)
	Update(ctx context.Context, access *ProjectAccess, taskID, commentID, content string) (*repository.Comment, error)
	Delete(ctx context.Context, access *ProjectAccess, taskID, commentID string) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
	notifier    Notifier
}

func NewCommentService(repos *repository.Repositories, notifier Notifier) CommentService {
	return &commentService{
		commentRepo: repos.CommentRepo,
		taskRepo:    repos.TaskRepo,
		notifier:    notifier,
	}
}

func (s *commentService) List(ctx context.Context, access *ProjectAccess, taskID string) ([]*repository.Comment, error) {
	if _, err := s.projectTask(ctx, access, taskID); err != nil {
		return nil, err
	}
	return s.commentRepo.FindByTask(ctx, taskID)
}

func (s *commentService) Create(ctx context.Context, access *ProjectAccess, taskID, content string, parentCommentID *string, mentions []string) (*repository.Comment, error) {
	task, err := s.projectTask(ctx, access, taskID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, InvalidInput("Comment content is required")
	}

	if parentCommentID != nil && *parentCommentID != "" {
		if _, err := s.taskComment(ctx, taskID, *parentCommentID); err != nil {
			return nil, err
		}
	} else {
		parentCommentID = nil
	}

	if mentions == nil {
		mentions = []string{}
	}
	comment := &repository.Comment{
		Content:         content,
		TaskID:          taskID,
		UserID:          access.Principal.ID,
		ParentCommentID: parentCommentID,
		Mentions:        mentions,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.notifier.CommentAdded(ctx, task, comment)
	return comment, nil
}

func (s *commentService) Update(ctx context.Context, access *ProjectAccess, taskID, commentID, content string) (*repository.Comment, error) {
	if _, err := s.projectTask(ctx, access, taskID); err != nil {
		return nil, err
	}
	comment, err := s.taskComment(ctx, taskID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != access.Principal.ID {
		return nil, newError(ErrForbidden, "Not authorized to update this comment")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, InvalidInput("Comment content is required")
	}
	comment.Content = content
	comment.IsEdited = true

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// Delete is allowed for the author and for members who can manage tasks.
func (s *commentService) Delete(ctx context.Context, access *ProjectAccess, taskID, commentID string) error {
	if _, err := s.projectTask(ctx, access, taskID); err != nil {
		return err
	}
	comment, err := s.taskComment(ctx, taskID, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != access.Principal.ID && !access.Can(types.CanManageTasks) {
		logger.Warn().Str("commentId", commentID).Str("userId", access.Principal.ID).Msg("[CommentService][Delete] DENIED")
		return newError(ErrForbidden, "Not authorized to delete this comment")
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

func (s *commentService) projectTask(ctx context.Context, access *ProjectAccess, taskID string) (*repository.Task, error) {
	if access == nil {
		return nil, ErrAccessDenied
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || derefString(task.ProjectID) != access.ProjectID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *commentService) taskComment(ctx context.Context, taskID, commentID string) (*repository.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil || comment.TaskID != taskID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}
