package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ledgerdomain "github.com/fiberlink/backoffice/internal/billingledger/domain"
)

func (s *Server) ListLedgerEntries(c *gin.Context) {
	var query ledgerdomain.ListEntriesRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	query.SubscriberID = strings.TrimSpace(c.Param("id"))

	resp, err := s.ledgerSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CorrectLedgerEntry(c *gin.Context) {
	var req ledgerdomain.CorrectEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledgerSvc.CorrectEntry(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
