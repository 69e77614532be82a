package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/thatsmidnight/cartographers-cloud-kit/internal/middleware"
)

type RouterDeps struct {
	Assets      *AssetHandler
	Allowlist   middleware.IPProvider
	APIPrefix   string
	AuthHeader  string
	CORSOrigins []string
	// Middlewares are appended to the global chain; the local server adds
	// gzip here while the Lambda path leaves compression to the gateway.
	Middlewares []gin.HandlerFunc
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(deps.CORSOrigins, deps.AuthHeader))
	for _, mw := range deps.Middlewares {
		router.Use(mw)
	}

	api := router.Group(deps.APIPrefix)

	assets := api.Group("/assets")
	assets.Use(middleware.SourceIP(deps.Allowlist))
	assets.Use(middleware.Credentials(deps.AuthHeader))
	assets.POST("/initiate-upload", deps.Assets.InitiateUpload)
	assets.GET("", deps.Assets.List)
	assets.GET("/:asset_id", deps.Assets.Get)
	assets.PUT("/:asset_id", deps.Assets.Update)
	assets.DELETE("/:asset_id", deps.Assets.Delete)

	return router
}
