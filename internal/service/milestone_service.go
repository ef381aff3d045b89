package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

type MilestoneInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *string
	Order       *int
	Color       *string
}

// MilestoneService assumes the caller already passed checkTaskView or
// checkTaskManagement for projectID.
type MilestoneService interface {
	List(ctx context.Context, projectID string) ([]*repository.Milestone, error)
	Get(ctx context.Context, projectID, milestoneID string) (*repository.Milestone, error)
	Create(ctx context.Context, projectID string, input *MilestoneInput) (*repository.Milestone, error)
	Update(ctx context.Context, projectID, milestoneID string, input *MilestoneInput) (*repository.Milestone, error)
	Delete(ctx context.Context, projectID, milestoneID string) error
}

type milestoneService struct {
	milestoneRepo repository.MilestoneRepository
	taskRepo      repository.TaskRepository
}

func NewMilestoneService(repos *repository.Repositories) MilestoneService {
	return &milestoneService{
		milestoneRepo: repos.MilestoneRepo,
		taskRepo:      repos.TaskRepo,
	}
}

func (s *milestoneService) List(ctx context.Context, projectID string) ([]*repository.Milestone, error) {
	return s.milestoneRepo.FindByProject(ctx, projectID)
}

func (s *milestoneService) Get(ctx context.Context, projectID, milestoneID string) (*repository.Milestone, error) {
	milestone, err := s.milestoneRepo.FindByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if milestone == nil || milestone.ProjectID != projectID {
		return nil, ErrMilestoneNotFound
	}
	return milestone, nil
}

func (s *milestoneService) Create(ctx context.Context, projectID string, input *MilestoneInput) (*repository.Milestone, error) {
	milestone := &repository.Milestone{
		ProjectID: projectID,
		Status:    types.MilestonePlanned,
		Color:     "#6366f1",
	}
	if err := applyMilestoneInput(milestone, input); err != nil {
		return nil, err
	}
	if milestone.Title == "" {
		return nil, InvalidInput("Milestone title is required")
	}

	if err := s.milestoneRepo.Create(ctx, milestone); err != nil {
		return nil, fmt.Errorf("failed to create milestone: %w", err)
	}
	return milestone, nil
}

func (s *milestoneService) Update(ctx context.Context, projectID, milestoneID string, input *MilestoneInput) (*repository.Milestone, error) {
	milestone, err := s.Get(ctx, projectID, milestoneID)
	if err != nil {
		return nil, err
	}
	if err := applyMilestoneInput(milestone, input); err != nil {
		return nil, err
	}
	if milestone.Title == "" {
		return nil, InvalidInput("Milestone title is required")
	}

	if err := s.milestoneRepo.Update(ctx, milestone); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, err
	}
	return milestone, nil
}

// Delete detaches the milestone's tasks before removing it.
func (s *milestoneService) Delete(ctx context.Context, projectID, milestoneID string) error {
	if _, err := s.Get(ctx, projectID, milestoneID); err != nil {
		return err
	}
	if err := s.taskRepo.ClearMilestone(ctx, milestoneID); err != nil {
		return fmt.Errorf("failed to detach tasks: %w", err)
	}
	if err := s.milestoneRepo.Delete(ctx, milestoneID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMilestoneNotFound
		}
		return err
	}
	return nil
}

func applyMilestoneInput(m *repository.Milestone, in *MilestoneInput) error {
	if in == nil {
		return nil
	}
	if in.Title != nil {
		m.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		m.Description = in.Description
	}
	if in.DueDate != nil {
		m.DueDate = in.DueDate
	}
	if in.Status != nil {
		if !types.IsValidMilestoneStatus(*in.Status) {
			return InvalidInput("Invalid milestone status")
		}
		m.Status = *in.Status
	}
	if in.Order != nil {
		m.Order = *in.Order
	}
	if in.Color != nil {
		m.Color = *in.Color
	}
	return nil
}
