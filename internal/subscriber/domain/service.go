package domain

import (
	"context"
	"errors"

	"github.com/fiberlink/backoffice/pkg/db/pagination"
)

type CreateSubscriberRequest struct {
	CustomerCode     string `json:"customer_code"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Address          string `json:"address"`
	PlanID           string `json:"plan_id"`
	OldPendingAmount int64  `json:"old_pending_amount"`
}

type UpdateSubscriberRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

type ListSubscribersRequest struct {
	Status    Status `form:"status"`
	PlanID    string `form:"plan_id"`
	Query     string `form:"q"`
	PageSize  int    `form:"page_size"`
	PageToken string `form:"page_token"`
}

type ListSubscribersResponse struct {
	Subscribers []Subscriber        `json:"subscribers"`
	PageInfo    pagination.PageInfo `json:"page_info"`
}

type Service interface {
	Create(ctx context.Context, req CreateSubscriberRequest) (Subscriber, error)
	Update(ctx context.Context, id string, req UpdateSubscriberRequest) (Subscriber, error)
	GetByID(ctx context.Context, id string) (Subscriber, error)
	List(ctx context.Context, req ListSubscribersRequest) (ListSubscribersResponse, error)
}

var (
	ErrSubscriberNotFound  = errors.New("subscriber_not_found")
	ErrInvalidPhone        = errors.New("invalid_phone")
	ErrInvalidCustomerCode = errors.New("invalid_customer_code")
	ErrInvalidPendingAmt   = errors.New("invalid_pending_amount")
	ErrDuplicateSubscriber = errors.New("duplicate_subscriber")
	ErrInvalidStatus       = errors.New("invalid_status")
)
