package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

type createSubscriberRequest struct {
	CustomerCode     string `json:"customer_code"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Address          string `json:"address"`
	PlanID           string `json:"plan_id"`
	OldPendingAmount int64  `json:"old_pending_amount"`
}

func (s *Server) CreateSubscriber(c *gin.Context) {
	var req createSubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subSvc.Create(c.Request.Context(), subscriberdomain.CreateSubscriberRequest{
		CustomerCode:     strings.TrimSpace(req.CustomerCode),
		Name:             strings.TrimSpace(req.Name),
		Phone:            strings.TrimSpace(req.Phone),
		Email:            strings.TrimSpace(req.Email),
		Address:          strings.TrimSpace(req.Address),
		PlanID:           strings.TrimSpace(req.PlanID),
		OldPendingAmount: req.OldPendingAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSubscribers(c *gin.Context) {
	var query subscriberdomain.ListSubscribersRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSubscriberByID(c *gin.Context) {
	resp, err := s.subSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateSubscriber(c *gin.Context) {
	var req subscriberdomain.UpdateSubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
