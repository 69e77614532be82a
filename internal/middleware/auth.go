package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/auth"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errcode"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/response"
)

const ContextOwnerIDKey = "owner_id"

// Credentials resolves the caller into an owner id from the credential
// header. Behind the gateway the authorizer has already checked the password
// against Cognito; here only the username is extracted, and any malformed
// header is rejected before a handler can touch storage.
func Credentials(headerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _, err := auth.DecodeCredentials(c.GetHeader(headerName))
		if err != nil {
			logutil.GetLogger(c.Request.Context()).Info("rejecting request without usable credentials", zap.Error(err))
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Set(ContextOwnerIDKey, username)
		c.Next()
	}
}
