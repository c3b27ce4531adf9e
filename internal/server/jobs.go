package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TriggerExpirySweep runs the daily sweep on demand. The sweep is
// idempotent, so operators can call this freely after restoring a missed
// schedule.
func (s *Server) TriggerExpirySweep(c *gin.Context) {
	count, err := s.sweeperSvc.RunOnce(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"expired": count}})
}
