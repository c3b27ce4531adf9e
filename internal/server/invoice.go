package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	invoicedomain "github.com/fiberlink/backoffice/internal/invoice/domain"
)

func (s *Server) ListInvoices(c *gin.Context) {
	var query invoicedomain.ListInvoicesRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSubscriberInvoices(c *gin.Context) {
	var query invoicedomain.ListInvoicesRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	query.SubscriberID = strings.TrimSpace(c.Param("id"))

	resp, err := s.invoiceSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type payInvoiceRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func (s *Server) PayInvoice(c *gin.Context) {
	var req payInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.RecordPayment(c.Request.Context(), strings.TrimSpace(c.Param("id")),
		strings.ToUpper(strings.TrimSpace(req.PaymentMethod)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
