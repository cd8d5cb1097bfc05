package router

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/common/errorx"
	"github.com/traidnet/wificore/internal/tenant"
)

// Store persists routers and their service bindings inside a tenant scope.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (st *Store) CreateRouter(scope *tenant.Scope, r *Router) error {
	return scope.DB().Create(r).Error
}

// GetRouter fetches one device. The tenant filter keeps a foreign id
// unreadable on dialects where every tenant shares one table.
func (st *Store) GetRouter(scope *tenant.Scope, id string) (*Router, error) {
	var r Router
	err := scope.DB().Where("id = ? AND tenant_id = ?", id, scope.TenantID()).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorx.New(errorx.KindNotFound, fmt.Sprintf("router %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (st *Store) ListRouters(scope *tenant.Scope, tenantID string) ([]*Router, error) {
	var routers []*Router
	err := scope.DB().Where("tenant_id = ?", tenantID).
		Order("created_at").
		Find(&routers).Error
	return routers, err
}

// UpdateAddress reconciles a discovered address drift into the store and
// stamps the device as seen.
func (st *Store) UpdateAddress(scope *tenant.Scope, id, ip string) error {
	now := time.Now()
	return scope.DB().Model(&Router{}).
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Updates(map[string]any{"ip_address": ip, "last_seen_at": now}).Error
}

func (st *Store) CreateService(scope *tenant.Scope, svc *RouterService) error {
	if svc.DeploymentStatus == "" {
		svc.DeploymentStatus = cnst.DeployPending
	}
	return scope.DB().Create(svc).Error
}

func (st *Store) GetService(scope *tenant.Scope, id string) (*RouterService, error) {
	var svc RouterService
	err := scope.DB().Where("id = ? AND tenant_id = ?", id, scope.TenantID()).First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorx.New(errorx.KindNotFound, fmt.Sprintf("router service %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (st *Store) ListServices(scope *tenant.Scope, routerID string) ([]*RouterService, error) {
	var svcs []*RouterService
	err := scope.DB().Where("router_id = ? AND tenant_id = ?", routerID, scope.TenantID()).
		Order("created_at desc").
		Find(&svcs).Error
	return svcs, err
}

// MarkInProgress moves a service to in_progress before any network call is
// made, so a crash mid-deployment is visible rather than silently pending.
func (st *Store) MarkInProgress(scope *tenant.Scope, id string) error {
	return st.setStatus(scope, id, cnst.DeployInProgress, "")
}

// MarkDeployed records a successful rollout.
func (st *Store) MarkDeployed(scope *tenant.Scope, id string) error {
	now := time.Now()
	res := scope.DB().Model(&RouterService{}).
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Updates(map[string]any{
			"deployment_status": cnst.DeployDeployed,
			"last_error":        "",
			"deployed_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errorx.New(errorx.KindNotFound, fmt.Sprintf("router service %s not found", id))
	}
	return nil
}

// MarkFailed records a failed rollout, retaining the reason.
func (st *Store) MarkFailed(scope *tenant.Scope, id, reason string) error {
	return st.setStatus(scope, id, cnst.DeployFailed, reason)
}

// ResetPending returns a service to pending for a clean re-deploy.
func (st *Store) ResetPending(scope *tenant.Scope, id string) error {
	return st.setStatus(scope, id, cnst.DeployPending, "")
}

func (st *Store) setStatus(scope *tenant.Scope, id, status, lastError string) error {
	res := scope.DB().Model(&RouterService{}).
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Updates(map[string]any{
			"deployment_status": status,
			"last_error":        lastError,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errorx.New(errorx.KindNotFound, fmt.Sprintf("router service %s not found", id))
	}
	return nil
}
