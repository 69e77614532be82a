package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/middleware"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errcode"
	appErr "github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/errors"
	"github.com/thatsmidnight/cartographers-cloud-kit/internal/pkg/response"
)

func ownerID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextOwnerIDKey)
	owner, _ := value.(string)
	return owner
}

func boolQuery(c *gin.Context, name string) bool {
	value, err := strconv.ParseBool(c.DefaultQuery(name, "false"))
	if err != nil {
		return false
	}
	return value
}

func handleError(c *gin.Context, err error) {
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("owner_id", ownerID(c)),
			zap.Error(err),
		)
	}
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "Unauthorized")
	case errors.Is(err, appErr.ErrFileMissing):
		response.Error(c, http.StatusNotFound, errcode.ErrFileMissing, "Asset file not found in S3")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "Asset not found or access denied")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "Invalid request")
	case errors.Is(err, appErr.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrUnavailable, "Service is temporarily unavailable due to a configuration issue.")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "Internal server error")
	}
}
