package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	lifecycledomain "github.com/fiberlink/backoffice/internal/lifecycle/domain"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

type renewRequest struct {
	Months        int    `json:"months"`
	PaymentMethod string `json:"payment_method"`
}

func (s *Server) RenewPlan(c *gin.Context) {
	var req renewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.lifecycleSvc.RenewOrReduce(c.Request.Context(), strings.TrimSpace(c.Param("id")), lifecycledomain.RenewRequest{
		Months:        req.Months,
		PaymentMethod: strings.ToUpper(strings.TrimSpace(req.PaymentMethod)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateBillingRequest struct {
	PaymentStatus    *string `json:"payment_status,omitempty"`
	OldPendingAmount *int64  `json:"old_pending_amount,omitempty"`
	PaymentDueDate   *string `json:"payment_due_date,omitempty"`
	PlanID           *string `json:"plan_id,omitempty"`
	Notes            string  `json:"notes"`
}

func (s *Server) UpdateBilling(c *gin.Context) {
	var req updateBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := lifecycledomain.UpdateBillingRequest{
		OldPendingAmount: req.OldPendingAmount,
		PlanID:           req.PlanID,
		Notes:            strings.TrimSpace(req.Notes),
	}
	if req.PaymentStatus != nil {
		status := subscriberdomain.PaymentStatus(strings.ToUpper(strings.TrimSpace(*req.PaymentStatus)))
		update.PaymentStatus = &status
	}
	if req.PaymentDueDate != nil {
		due, err := time.Parse("2006-01-02", *req.PaymentDueDate)
		if err != nil {
			AbortWithError(c, newValidationError("payment_due_date", "invalid_date", "expected YYYY-MM-DD"))
			return
		}
		update.PaymentDueDate = &due
	}

	resp, err := s.lifecycleSvc.UpdateBilling(c.Request.Context(), strings.TrimSpace(c.Param("id")), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type scheduleInstallationRequest struct {
	InstallationDate string `json:"installation_date"`
}

func (s *Server) ScheduleInstallation(c *gin.Context) {
	var req scheduleInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	date, err := time.Parse("2006-01-02", req.InstallationDate)
	if err != nil {
		AbortWithError(c, newValidationError("installation_date", "invalid_date", "expected YYYY-MM-DD"))
		return
	}

	resp, err := s.lifecycleSvc.ScheduleInstallation(c.Request.Context(), strings.TrimSpace(c.Param("id")), lifecycledomain.ScheduleInstallationRequest{
		InstallationDate: date,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CompleteInstallation(c *gin.Context) {
	resp, err := s.lifecycleSvc.CompleteInstallation(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SuspendSubscriber(c *gin.Context) {
	resp, err := s.lifecycleSvc.Suspend(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExpireSubscriber(c *gin.Context) {
	resp, err := s.lifecycleSvc.ExpireNow(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
