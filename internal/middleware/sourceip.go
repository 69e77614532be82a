package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errcode"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/response"
)

type IPProvider interface {
	AllowedIPs(ctx context.Context) ([]string, error)
}

// SourceIP admits only callers whose address is on the allowlist. An
// unreadable allowlist is a 503, not a 403: the caller did nothing wrong and
// should retry once configuration recovers.
func SourceIP(provider IPProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := provider.AllowedIPs(c.Request.Context())
		if err != nil {
			logutil.GetLogger(c.Request.Context()).Error("source ip allowlist unavailable", zap.Error(err))
			response.Error(c, http.StatusServiceUnavailable, errcode.ErrUnavailable, "Service is temporarily unavailable due to a configuration issue.")
			c.Abort()
			return
		}
		ip := clientIP(c)
		if ip == "" {
			response.Error(c, http.StatusForbidden, errcode.ErrForbidden, "Could not determine client IP address.")
			c.Abort()
			return
		}
		if !slices.Contains(allowed, ip) {
			logutil.GetLogger(c.Request.Context()).Warn("blocked request from unlisted ip", zap.String("ip", ip))
			response.Error(c, http.StatusForbidden, errcode.ErrForbidden, "Access from your IP address is not permitted.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// clientIP prefers the source address recorded by the gateway; local serving
// falls back to what gin derives from the connection.
func clientIP(c *gin.Context) string {
	if gwCtx, ok := core.GetAPIGatewayContextFromContext(c.Request.Context()); ok && gwCtx.Identity.SourceIP != "" {
		return gwCtx.Identity.SourceIP
	}
	return c.ClientIP()
}
