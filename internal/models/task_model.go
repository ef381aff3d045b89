package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================
// TASK REQUESTS & RESPONSES
// ============================================

type CreateTaskRequest struct {
	Title          string           `json:"title" binding:"required"`
	Description    *string          `json:"description"`
	Status         *string          `json:"status" binding:"omitempty,oneof=todo in_progress review done"`
	Priority       *string          `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate        *time.Time       `json:"dueDate"`
	EstimatedHours *decimal.Decimal `json:"estimatedHours"`
	ActualHours    *decimal.Decimal `json:"actualHours"`
	Tags           []string         `json:"tags"`
	ProjectID      *string          `json:"projectId"`
	MilestoneID    *string          `json:"milestoneId"`
	AssignedTo     *string          `json:"assignedTo"`
}

type UpdateTaskRequest struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Status         *string          `json:"status" binding:"omitempty,oneof=todo in_progress review done"`
	Priority       *string          `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate        *time.Time       `json:"dueDate"`
	EstimatedHours *decimal.Decimal `json:"estimatedHours"`
	ActualHours    *decimal.Decimal `json:"actualHours"`
	Tags           []string         `json:"tags"`
	ProjectID      *string          `json:"projectId"`
	MilestoneID    *string          `json:"milestoneId"`
	AssignedTo     *string          `json:"assignedTo"`
}

type TaskQuery struct {
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	ProjectID  string `form:"projectId"`
	AssignedTo string `form:"assignedTo"`
}

type TaskResponse struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Description    *string             `json:"description,omitempty"`
	Status         string              `json:"status"`
	Priority       string              `json:"priority"`
	DueDate        *time.Time          `json:"dueDate,omitempty"`
	EstimatedHours decimal.NullDecimal `json:"estimatedHours"`
	ActualHours    decimal.NullDecimal `json:"actualHours"`
	Tags           []string            `json:"tags"`
	ProjectID      *string             `json:"projectId"`
	MilestoneID    *string             `json:"milestoneId"`
	AssignedTo     *string             `json:"assignedTo"`
	CreatedBy      string              `json:"createdBy"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// ============================================
// MILESTONE REQUESTS & RESPONSES
// ============================================

type CreateMilestoneRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status" binding:"omitempty,oneof=planned in_progress completed delayed"`
	Order       *int       `json:"order"`
	Color       *string    `json:"color"`
}

type UpdateMilestoneRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status" binding:"omitempty,oneof=planned in_progress completed delayed"`
	Order       *int       `json:"order"`
	Color       *string    `json:"color"`
}

// ============================================
// COMMENT REQUESTS & RESPONSES
// ============================================

type CreateCommentRequest struct {
	Content         string   `json:"content" binding:"required"`
	ParentCommentID *string  `json:"parentCommentId"`
	Mentions        []string `json:"mentions"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}
