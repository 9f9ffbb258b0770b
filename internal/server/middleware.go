package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/leaseline/leaseline/internal/tenantctx"
	"go.uber.org/zap"
)

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// requireTenant resolves the tenant from the X-Tenant-ID header and stores it
// on the request context.
func requireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Tenant-ID"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_tenant"})
			return
		}
		tenantID, err := snowflake.ParseString(raw)
		if err != nil || tenantID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_tenant"})
			return
		}
		c.Request = c.Request.WithContext(tenantctx.WithTenantID(c.Request.Context(), tenantID))
		c.Next()
	}
}
