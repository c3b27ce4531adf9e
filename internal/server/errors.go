package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	ledgerdomain "github.com/fiberlink/backoffice/internal/billingledger/domain"
	invoicedomain "github.com/fiberlink/backoffice/internal/invoice/domain"
	lifecycledomain "github.com/fiberlink/backoffice/internal/lifecycle/domain"
	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    err.Error(),
					Message: err.Error(),
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, plandomain.ErrInvalidPlan),
		errors.Is(err, plandomain.ErrInvalidName),
		errors.Is(err, plandomain.ErrInvalidPrice),
		errors.Is(err, subscriberdomain.ErrInvalidPhone),
		errors.Is(err, subscriberdomain.ErrInvalidCustomerCode),
		errors.Is(err, subscriberdomain.ErrInvalidPendingAmt),
		errors.Is(err, subscriberdomain.ErrInvalidStatus),
		errors.Is(err, lifecycledomain.ErrInvalidMonths),
		errors.Is(err, lifecycledomain.ErrPastInstallationDate),
		errors.Is(err, lifecycledomain.ErrNoBillingChanges),
		errors.Is(err, ledgerdomain.ErrInvalidCategory),
		errors.Is(err, ledgerdomain.ErrEmptyCorrection),
		errors.Is(err, ledgerdomain.ErrMissingReason),
		errors.Is(err, invoicedomain.ErrInvalidPaymentMethod):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, subscriberdomain.ErrSubscriberNotFound),
		errors.Is(err, ledgerdomain.ErrEntryNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, plandomain.ErrPlanInUse),
		errors.Is(err, subscriberdomain.ErrDuplicateSubscriber),
		errors.Is(err, lifecycledomain.ErrInvalidTransition),
		errors.Is(err, lifecycledomain.ErrReductionBeforeToday),
		errors.Is(err, invoicedomain.ErrPaymentAlreadyRecorded):
		return true
	default:
		return false
	}
}
