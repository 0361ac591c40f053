package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/felling-licence-api/internal/service"
)

// AuditMeta records the caller's address and user agent on the request context so that
// service-level audit entries can attribute writes to a client.
func AuditMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := service.WithAuditMeta(c.Request.Context(), service.AuditMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
