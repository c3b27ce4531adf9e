package domain

import (
	"context"
	"errors"
)

type CreatePlanRequest struct {
	Name         string `json:"name"`
	MonthlyPrice int64  `json:"monthly_price"` // paise
	Speed        string `json:"speed"`
	DataLimit    string `json:"data_limit"`
	Commitment   string `json:"commitment"`
}

type UpdatePlanRequest struct {
	Name         *string `json:"name,omitempty"`
	MonthlyPrice *int64  `json:"monthly_price,omitempty"`
	Speed        *string `json:"speed,omitempty"`
	DataLimit    *string `json:"data_limit,omitempty"`
	Commitment   *string `json:"commitment,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (Plan, error)
	Update(ctx context.Context, id string, req UpdatePlanRequest) (Plan, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Plan, error)
	List(ctx context.Context) ([]Plan, error)
}

var (
	ErrInvalidPlan     = errors.New("invalid_plan")
	ErrInvalidName     = errors.New("invalid_plan_name")
	ErrInvalidPrice    = errors.New("invalid_plan_price")
	ErrPlanNotFound    = errors.New("plan_not_found")
	ErrPlanInUse       = errors.New("plan_in_use")
)
