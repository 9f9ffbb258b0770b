package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leaseline/leaseline/internal/tenantctx"
)

func (s *Server) handleListThread(c *gin.Context) {
	tenantID, ok := tenantctx.TenantIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_tenant"})
		return
	}
	threadID := c.Param("thread_id")
	if threadID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_thread"})
		return
	}

	comms, err := s.comms.ListThread(c.Request.Context(), tenantID, threadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"communications": comms})
}
