package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/apiserver/handler"
	"github.com/traidnet/wificore/internal/apiserver/middleware"
	"github.com/traidnet/wificore/internal/auth/jwt"
	"github.com/traidnet/wificore/pkg/metrics"
	"github.com/traidnet/wificore/pkg/version"
)

// NewRouter wires the full HTTP surface: health and metrics stay open,
// everything under /api requires a valid token.
func NewRouter(
	logger *zap.Logger,
	db *gorm.DB,
	h *handler.Handler,
	jwtService *jwt.Service,
	m *metrics.Metrics,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(otelgin.Middleware("wificore"))
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
	})

	api := r.Group("/api", middleware.JWTAuthMiddleware(jwtService))

	users := api.Group("/network-users")
	users.POST("", h.HandleNetworkUserCreate)
	users.GET("", h.HandleNetworkUserList)
	users.GET("/:id", h.HandleNetworkUserGet)
	users.PUT("/:id", h.HandleNetworkUserUpdate)
	users.DELETE("/:id", h.HandleNetworkUserDelete)
	users.POST("/:id/block", h.HandleNetworkUserBlock)
	users.POST("/:id/unblock", h.HandleNetworkUserUnblock)
	users.POST("/:id/reset-credentials", h.HandleNetworkUserResetCredentials)

	api.POST("/packages", h.HandlePackageCreate)
	api.GET("/packages", h.HandlePackageList)

	routers := api.Group("/routers")
	routers.POST("", h.HandleRouterRegister)
	routers.GET("", h.HandleRouterList)
	routers.GET("/:id", h.HandleRouterGet)
	routers.GET("/:id/services", h.HandleRouterServiceList)

	services := api.Group("/services")
	services.POST("", h.HandleServiceConfigure)
	services.POST("/:id/deploy", h.HandleServiceDeploy)
	services.GET("/:id/status", h.HandleServiceStatus)

	api.GET("/ip-pools", h.HandlePoolList)
	api.POST("/ip-pools/:id/expand", h.HandlePoolExpand)

	admin := api.Group("", middleware.RequireAdmin())
	admin.POST("/tenants", h.HandleTenantCreate)
	admin.GET("/tenants", h.HandleTenantList)
	admin.POST("/auth/tokens", h.HandleIssueToken)

	return r
}
