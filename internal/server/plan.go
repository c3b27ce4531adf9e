package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
)

type createPlanRequest struct {
	Name         string `json:"name"`
	MonthlyPrice int64  `json:"monthly_price"`
	Speed        string `json:"speed"`
	DataLimit    string `json:"data_limit"`
	Commitment   string `json:"commitment"`
}

func (s *Server) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Create(c.Request.Context(), plandomain.CreatePlanRequest{
		Name:         strings.TrimSpace(req.Name),
		MonthlyPrice: req.MonthlyPrice,
		Speed:        strings.TrimSpace(req.Speed),
		DataLimit:    strings.TrimSpace(req.DataLimit),
		Commitment:   strings.TrimSpace(req.Commitment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPlans(c *gin.Context) {
	resp, err := s.planSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlanByID(c *gin.Context) {
	resp, err := s.planSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePlan(c *gin.Context) {
	var req plandomain.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePlan(c *gin.Context) {
	if err := s.planSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
