package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/traidnet/wificore/internal/common/dto"
	"github.com/traidnet/wificore/internal/tenant"
)

// HandleTenantCreate provisions a tenant: the row, a fresh schema name and
// the schema itself with its tables. Admin only.
func (h *Handler) HandleTenantCreate(c *gin.Context) {
	var req dto.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := h.db.Model(&tenant.Tenant{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		h.respondErr(c, err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "tenant name already exists"})
		return
	}

	t := &tenant.Tenant{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Email:      req.Email,
		SchemaName: tenant.NewSchemaName(),
		IsActive:   true,
	}
	if err := h.db.Create(t).Error; err != nil {
		h.respondErr(c, err)
		return
	}
	if err := h.schemas.CreateSchema(c.Request.Context(), t); err != nil {
		h.logger.Error("schema provisioning failed",
			zap.String("tenant_id", t.ID),
			zap.Error(err))
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// HandleTenantList lists all tenants. Admin only.
func (h *Handler) HandleTenantList(c *gin.Context) {
	var tenants []*tenant.Tenant
	if err := h.db.Order("created_at").Find(&tenants).Error; err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// HandleIssueToken mints an API token for a tenant operator. Admin only;
// the first admin token comes from the CLI, not this endpoint.
func (h *Handler) HandleIssueToken(c *gin.Context) {
	var req dto.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role == "operator" && req.TenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "operator tokens need a tenant"})
		return
	}
	if req.TenantID != "" {
		var count int64
		if err := h.db.Model(&tenant.Tenant{}).Where("id = ?", req.TenantID).Count(&count).Error; err != nil {
			h.respondErr(c, err)
			return
		}
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			return
		}
	}

	userID := req.UserID
	if userID == "" {
		userID = uuid.NewString()
	}
	token, err := h.jwt.GenerateToken(userID, req.Username, req.TenantID, req.Role)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.IssueTokenResponse{Token: token})
}
