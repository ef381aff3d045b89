package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// TaskInput holds optional task fields; nil means unchanged on update.
type TaskInput struct {
	Title          *string
	Description    *string
	Status         *string
	Priority       *string
	DueDate        *time.Time
	EstimatedHours *decimal.Decimal
	ActualHours    *decimal.Decimal
	Tags           []string
	ProjectID      *string
	MilestoneID    *string
	AssignedTo     *string
}

// ============================================
// Task Service
// ============================================

// TaskService applies the ownership guard: admins and creators may write,
// admins, creators and assignees may read.
type TaskService interface {
	List(ctx context.Context, principal Principal, filter repository.TaskFilter) ([]*repository.Task, error)
	Create(ctx context.Context, principal Principal, input *TaskInput) (*repository.Task, error)
	Get(ctx context.Context, principal Principal, taskID string) (*repository.Task, error)
	Update(ctx context.Context, principal Principal, taskID string, input *TaskInput) (*repository.Task, error)
	Delete(ctx context.Context, principal Principal, taskID string) error
}

type taskService struct {
	taskRepo      repository.TaskRepository
	projectRepo   repository.ProjectRepository
	userRepo      repository.UserRepository
	milestoneRepo repository.MilestoneRepository
	notifier      Notifier
}

func NewTaskService(repos *repository.Repositories, notifier Notifier) TaskService {
	return &taskService{
		taskRepo:      repos.TaskRepo,
		projectRepo:   repos.ProjectRepo,
		userRepo:      repos.UserRepo,
		milestoneRepo: repos.MilestoneRepo,
		notifier:      notifier,
	}
}

func (s *taskService) List(ctx context.Context, principal Principal, filter repository.TaskFilter) ([]*repository.Task, error) {
	if !principal.IsAdmin() {
		filter.VisibleTo = principal.ID
	}
	return s.taskRepo.List(ctx, filter)
}

// Create only checks that the referenced project and assignee exist.
func (s *taskService) Create(ctx context.Context, principal Principal, input *TaskInput) (*repository.Task, error) {
	task := &repository.Task{
		Status:    types.StatusTodo,
		Priority:  types.PriorityMedium,
		CreatedBy: principal.ID,
		Tags:      []string{},
	}
	if err := s.applyInput(ctx, task, input); err != nil {
		return nil, err
	}
	if task.Title == "" {
		return nil, InvalidInput("Task title is required")
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if task.AssignedTo != nil && *task.AssignedTo != principal.ID {
		s.notifier.TaskAssigned(ctx, task, principal.ID)
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, principal Principal, taskID string) (*repository.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canReadTask(principal, task) {
		return nil, newError(ErrForbidden, "Not authorized to view this task")
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, principal Principal, taskID string, input *TaskInput) (*repository.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !canWriteTask(principal, task) {
		logger.Warn().Str("taskId", taskID).Str("userId", principal.ID).Msg("[TaskService][Update] DENIED")
		return nil, newError(ErrForbidden, "Not authorized to update this task")
	}

	previousAssignee := derefString(task.AssignedTo)
	if err := s.applyInput(ctx, task, input); err != nil {
		return nil, err
	}
	if task.Title == "" {
		return nil, InvalidInput("Task title is required")
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if assignee := derefString(task.AssignedTo); assignee != "" && assignee != previousAssignee && assignee != principal.ID {
		s.notifier.TaskAssigned(ctx, task, principal.ID)
	} else {
		s.notifier.TaskUpdated(ctx, task, principal.ID)
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, principal Principal, taskID string) error {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !canWriteTask(principal, task) {
		logger.Warn().Str("taskId", taskID).Str("userId", principal.ID).Msg("[TaskService][Delete] DENIED")
		return newError(ErrForbidden, "Not authorized to delete this task")
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (s *taskService) findTask(ctx context.Context, taskID string) (*repository.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *taskService) applyInput(ctx context.Context, t *repository.Task, in *TaskInput) error {
	if in == nil {
		return nil
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if in.Status != nil {
		if !types.IsValidTaskStatus(*in.Status) {
			return InvalidInput("Invalid task status")
		}
		t.Status = *in.Status
	}
	if in.Priority != nil {
		if !types.IsValidTaskPriority(*in.Priority) {
			return InvalidInput("Invalid task priority")
		}
		t.Priority = *in.Priority
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.EstimatedHours != nil {
		if in.EstimatedHours.IsNegative() {
			return InvalidInput("Estimated hours cannot be negative")
		}
		t.EstimatedHours = decimal.NewNullDecimal(*in.EstimatedHours)
	}
	if in.ActualHours != nil {
		if in.ActualHours.IsNegative() {
			return InvalidInput("Actual hours cannot be negative")
		}
		t.ActualHours = decimal.NewNullDecimal(*in.ActualHours)
	}
	if in.Tags != nil {
		t.Tags = in.Tags
	}

	if in.ProjectID != nil {
		project, err := s.projectRepo.FindByID(ctx, *in.ProjectID)
		if err != nil {
			return err
		}
		if project == nil {
			return ErrProjectNotFound
		}
		if t.ProjectID == nil || *t.ProjectID != project.ID {
			// milestones belong to a single project
			t.MilestoneID = nil
		}
		t.ProjectID = &project.ID
	}
	if in.AssignedTo != nil {
		if *in.AssignedTo == "" {
			t.AssignedTo = nil
		} else {
			user, err := s.userRepo.FindByID(ctx, *in.AssignedTo)
			if err != nil {
				return err
			}
			if user == nil {
				return ErrAssigneeNotFound
			}
			t.AssignedTo = &user.ID
		}
	}
	if in.MilestoneID != nil {
		if *in.MilestoneID == "" {
			t.MilestoneID = nil
		} else {
			milestone, err := s.milestoneRepo.FindByID(ctx, *in.MilestoneID)
			if err != nil {
				return err
			}
			if milestone == nil || t.ProjectID == nil || milestone.ProjectID != *t.ProjectID {
				return ErrMilestoneNotFound
			}
			t.MilestoneID = &milestone.ID
		}
	}
	return nil
}

func canReadTask(principal Principal, task *repository.Task) bool {
	return canWriteTask(principal, task) || derefString(task.AssignedTo) == principal.ID
}

func canWriteTask(principal Principal, task *repository.Task) bool {
	return principal.IsAdmin() || task.CreatedBy == principal.ID
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
