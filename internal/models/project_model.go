package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request models
type CreateProjectRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description *string          `json:"description"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
	Status      *string          `json:"status" binding:"omitempty,oneof=planning active on_hold completed cancelled"`
	Priority    *string          `json:"priority" binding:"omitempty,oneof=low medium high"`
	Budget      *decimal.Decimal `json:"budget"`
}

type UpdateProjectRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	StartDate   *time.Time       `json:"startDate"`
	EndDate     *time.Time       `json:"endDate"`
	Status      *string          `json:"status" binding:"omitempty,oneof=planning active on_hold completed cancelled"`
	Priority    *string          `json:"priority" binding:"omitempty,oneof=low medium high"`
	Budget      *decimal.Decimal `json:"budget"`
}

// AddProjectUserRequest binds a user to a project in the legacy join table.
type AddProjectUserRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
	UserID    string `json:"userId" binding:"required"`
	Role      string `json:"role" binding:"omitempty,oneof=owner member viewer"`
}

// Response models
type ProjectResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description,omitempty"`
	StartDate   *time.Time          `json:"startDate,omitempty"`
	EndDate     *time.Time          `json:"endDate,omitempty"`
	Status      string              `json:"status"`
	Priority    string              `json:"priority"`
	Budget      decimal.NullDecimal `json:"budget"`
	CreatedBy   string              `json:"createdBy"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type ProjectUserResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProjectID string    `json:"projectId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
