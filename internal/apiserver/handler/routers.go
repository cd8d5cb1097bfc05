package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traidnet/wificore/internal/common/dto"
	"github.com/traidnet/wificore/internal/provisioning"
)

// HandleRouterRegister onboards a managed device.
func (h *Handler) HandleRouterRegister(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req dto.RegisterRouterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err := h.orch.RegisterRouter(c.Request.Context(), tenantID, provisioning.RegisterRouterInput{
		Name:      req.Name,
		IPAddress: req.IPAddress,
		Username:  req.Username,
		Password:  req.Password,
		APIPort:   req.APIPort,
		DNSName:   req.DNSName,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// HandleRouterList lists the tenant's fleet.
func (h *Handler) HandleRouterList(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	routers, err := h.orch.ListRouters(c.Request.Context(), tenantID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, routers)
}

// HandleRouterGet fetches one device.
func (h *Handler) HandleRouterGet(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	r, err := h.orch.GetRouter(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// HandleRouterServiceList lists the service bindings on one device.
func (h *Handler) HandleRouterServiceList(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	svcs, err := h.orch.ListRouterServices(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, svcs)
}

// HandleServiceConfigure allocates resources, builds the script and queues
// the rollout.
func (h *Handler) HandleServiceConfigure(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req dto.ConfigureServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	svc, err := h.orch.ConfigureRouterService(c.Request.Context(), tenantID, provisioning.ConfigureServiceInput{
		RouterID:    req.RouterID,
		ServiceType: req.ServiceType,
		Interfaces:  req.Interfaces,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, svc)
}

// HandleServiceDeploy retriggers a rollout.
func (h *Handler) HandleServiceDeploy(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req dto.DeployServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.orch.DeployService(c.Request.Context(), tenantID, c.Param("id"), req.Synchronous); err != nil {
		h.respondErr(c, err)
		return
	}
	if req.Synchronous {
		c.JSON(http.StatusOK, gin.H{"status": "deployed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// HandleServiceStatus returns the deployment state for polling.
func (h *Handler) HandleServiceStatus(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	svc, err := h.orch.ServiceStatus(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         svc.ID,
		"status":     svc.DeploymentStatus,
		"lastError":  svc.LastError,
		"deployedAt": svc.DeployedAt,
	})
}

// HandlePoolList lists address pools with utilization.
func (h *Handler) HandlePoolList(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	stats, err := h.orch.ListPools(c.Request.Context(), tenantID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandlePoolExpand doubles a pool's range when the adjacent space is free.
func (h *Handler) HandlePoolExpand(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	pool, err := h.orch.ExpandPool(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}
