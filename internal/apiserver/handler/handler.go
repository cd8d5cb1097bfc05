package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/apiserver/middleware"
	"github.com/traidnet/wificore/internal/auth/jwt"
	"github.com/traidnet/wificore/internal/common/errorx"
	"github.com/traidnet/wificore/internal/provisioning"
	"github.com/traidnet/wificore/internal/tenant"
)

// Handler carries the shared dependencies of all API endpoints.
type Handler struct {
	logger  *zap.Logger
	db      *gorm.DB
	orch    *provisioning.Orchestrator
	schemas *tenant.SchemaManager
	jwt     *jwt.Service
}

func NewHandler(
	logger *zap.Logger,
	db *gorm.DB,
	orch *provisioning.Orchestrator,
	schemas *tenant.SchemaManager,
	jwtService *jwt.Service,
) *Handler {
	return &Handler{
		logger:  logger.Named("api"),
		db:      db,
		orch:    orch,
		schemas: schemas,
		jwt:     jwtService,
	}
}

// tenantID extracts the caller's tenant from the validated token. Platform
// admins may act on behalf of a tenant via the tenant_id query parameter.
func (h *Handler) tenantID(c *gin.Context) (string, bool) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	if claims.TenantID != "" {
		return claims.TenantID, true
	}
	if claims.Role == "admin" {
		if id := c.Query("tenant_id"); id != "" {
			return id, true
		}
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "no tenant in token"})
	return "", false
}

// respondErr maps the error taxonomy onto HTTP statuses. Reasons go to the
// client, wrapped causes stay in the log.
func (h *Handler) respondErr(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	switch errorx.KindOf(err) {
	case errorx.KindInvalidArgument:
		return http.StatusBadRequest
	case errorx.KindNotFound:
		return http.StatusNotFound
	case errorx.KindDuplicateUsername, errorx.KindOverlappingRange, errorx.KindExpansionDenied:
		return http.StatusConflict
	case errorx.KindScriptValidation:
		return http.StatusUnprocessableEntity
	case errorx.KindTenantNotProvisioned:
		return http.StatusForbidden
	case errorx.KindDeviceUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
