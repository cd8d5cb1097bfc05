package provisioning

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/common/errorx"
	"github.com/traidnet/wificore/internal/ipam"
	"github.com/traidnet/wificore/internal/router"
	"github.com/traidnet/wificore/internal/subscriber"
	"github.com/traidnet/wificore/internal/tenant"
)

// RegisterRouterInput describes a managed device being onboarded. The API
// password is taken in cleartext once and stored encrypted.
type RegisterRouterInput struct {
	Name      string
	IPAddress string
	Username  string
	Password  string
	APIPort   int
	DNSName   string
}

// RegisterRouter onboards a device into the tenant's fleet.
func (o *Orchestrator) RegisterRouter(ctx context.Context, tenantID string, in RegisterRouterInput) (*router.Router, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if in.Name == "" || in.IPAddress == "" || in.Username == "" {
		return nil, errorx.New(errorx.KindInvalidArgument, "name, address and username are required")
	}
	encrypted, err := o.cipher.Encrypt(in.Password)
	if err != nil {
		return nil, err
	}

	r := &router.Router{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		Name:              in.Name,
		IPAddress:         in.IPAddress,
		Username:          in.Username,
		EncryptedPassword: encrypted,
		APIPort:           in.APIPort,
		DNSName:           in.DNSName,
	}
	if r.APIPort == 0 {
		r.APIPort = 8728
	}
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		return o.routers.CreateRouter(s, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRouter fetches one device.
func (o *Orchestrator) GetRouter(ctx context.Context, tenantID, routerID string) (*router.Router, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var r *router.Router
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		r, err = o.routers.GetRouter(s, routerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRouters lists the tenant's fleet.
func (o *Orchestrator) ListRouters(ctx context.Context, tenantID string) ([]*router.Router, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var routers []*router.Router
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		routers, err = o.routers.ListRouters(s, tenantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return routers, nil
}

// ListRouterServices lists the service bindings on one device.
func (o *Orchestrator) ListRouterServices(ctx context.Context, tenantID, routerID string) ([]*router.RouterService, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var svcs []*router.RouterService
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		if _, err := o.routers.GetRouter(s, routerID); err != nil {
			return err
		}
		svcs, err = o.routers.ListServices(s, routerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return svcs, nil
}

// PoolStats is the utilization view returned for capacity monitoring.
type PoolStats struct {
	Pool           *ipam.Pool `json:"pool"`
	Utilization    float64    `json:"utilization"`
	NeedsExpansion bool       `json:"needsExpansion"`
}

// ListPools lists the tenant's address pools with utilization.
func (o *Orchestrator) ListPools(ctx context.Context, tenantID string) ([]PoolStats, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var stats []PoolStats
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		pools, err := o.pools.ListPools(s, tenantID)
		if err != nil {
			return err
		}
		stats = make([]PoolStats, 0, len(pools))
		for _, p := range pools {
			stats = append(stats, PoolStats{
				Pool:           p,
				Utilization:    ipam.Utilization(p),
				NeedsExpansion: ipam.NeedsExpansion(p),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CreatePackageInput describes a new service plan.
type CreatePackageInput struct {
	Name            string
	Type            string // pppoe, hotspot or empty for any service
	Validity        string
	DownloadSpeed   string
	UploadSpeed     string
	SimultaneousUse int
}

// CreatePackage adds a service plan to the tenant's catalog.
func (o *Orchestrator) CreatePackage(ctx context.Context, tenantID string, in CreatePackageInput) (*subscriber.Package, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, errorx.New(errorx.KindInvalidArgument, "package name is required")
	}
	if in.Type != "" && in.Type != cnst.ServiceHotspot && in.Type != cnst.ServicePPPoE {
		return nil, errorx.New(errorx.KindInvalidArgument, fmt.Sprintf("unsupported package type %q", in.Type))
	}
	pkg := &subscriber.Package{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		Name:            in.Name,
		Type:            in.Type,
		Validity:        in.Validity,
		DownloadSpeed:   in.DownloadSpeed,
		UploadSpeed:     in.UploadSpeed,
		SimultaneousUse: in.SimultaneousUse,
		IsActive:        true,
	}
	if pkg.SimultaneousUse <= 0 {
		pkg.SimultaneousUse = 1
	}
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		return o.users.CreatePackage(s, pkg)
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// ListPackages lists the tenant's service plans.
func (o *Orchestrator) ListPackages(ctx context.Context, tenantID string) ([]*subscriber.Package, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var pkgs []*subscriber.Package
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		pkgs, err = o.users.ListPackages(s, tenantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pkgs, nil
}

// ExpandPool doubles a pool's range when the adjacent space is free.
func (o *Orchestrator) ExpandPool(ctx context.Context, tenantID, poolID string) (*ipam.Pool, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var pool *ipam.Pool
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		if pool, err = o.pools.GetPool(s, poolID); err != nil {
			return err
		}
		return o.pools.Expand(s, pool)
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
