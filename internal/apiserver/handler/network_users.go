package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traidnet/wificore/internal/common/dto"
	"github.com/traidnet/wificore/internal/provisioning"
)

// HandleNetworkUserCreate provisions a subscriber and returns the generated
// credential once.
func (h *Handler) HandleNetworkUserCreate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req dto.CreateNetworkUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.orch.CreateNetworkUser(c.Request.Context(), tenantID, provisioning.CreateUserInput{
		Username:        req.Username,
		Password:        req.Password,
		FullName:        req.FullName,
		Phone:           req.Phone,
		Email:           req.Email,
		Service:         req.Service,
		PackageID:       req.PackageID,
		SimultaneousUse: req.SimultaneousUse,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CreateNetworkUserResponse{
		ID:       res.User.ID,
		Username: res.User.Username,
		Password: res.Password,
	})
}

// HandleNetworkUserList lists the tenant's subscribers.
func (h *Handler) HandleNetworkUserList(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	users, err := h.orch.ListNetworkUsers(c.Request.Context(), tenantID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// HandleNetworkUserGet fetches one subscriber.
func (h *Handler) HandleNetworkUserGet(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	user, err := h.orch.GetNetworkUser(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleNetworkUserUpdate applies a partial update.
func (h *Handler) HandleNetworkUserUpdate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req dto.UpdateNetworkUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.orch.UpdateNetworkUser(c.Request.Context(), tenantID, c.Param("id"), provisioning.UpdateUserInput{
		Password:        req.Password,
		FullName:        req.FullName,
		Phone:           req.Phone,
		Email:           req.Email,
		PackageID:       req.PackageID,
		SimultaneousUse: req.SimultaneousUse,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleNetworkUserDelete removes a subscriber and its AAA state.
func (h *Handler) HandleNetworkUserDelete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if err := h.orch.DeleteNetworkUser(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleNetworkUserBlock suspends a subscriber's access.
func (h *Handler) HandleNetworkUserBlock(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if err := h.orch.BlockNetworkUser(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "blocked"})
}

// HandleNetworkUserUnblock restores a subscriber's access with a fresh
// credential.
func (h *Handler) HandleNetworkUserUnblock(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if err := h.orch.UnblockNetworkUser(c.Request.Context(), tenantID, c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "active"})
}

// HandleNetworkUserResetCredentials rotates the password and returns it once.
func (h *Handler) HandleNetworkUserResetCredentials(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	res, err := h.orch.ResetCredentials(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreateNetworkUserResponse{
		ID:       res.User.ID,
		Username: res.User.Username,
		Password: res.Password,
	})
}

// HandlePackageCreate adds a service plan.
func (h *Handler) HandlePackageCreate(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req dto.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pkg, err := h.orch.CreatePackage(c.Request.Context(), tenantID, provisioning.CreatePackageInput{
		Name:            req.Name,
		Type:            req.Type,
		Validity:        req.Validity,
		DownloadSpeed:   req.DownloadSpeed,
		UploadSpeed:     req.UploadSpeed,
		SimultaneousUse: req.SimultaneousUse,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

// HandlePackageList lists the tenant's service plans.
func (h *Handler) HandlePackageList(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	pkgs, err := h.orch.ListPackages(c.Request.Context(), tenantID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, pkgs)
}
