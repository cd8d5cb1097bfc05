package ipam

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/common/errorx"
	"github.com/traidnet/wificore/internal/tenant"
)

// ExpansionThreshold is the utilization percentage at which a pool is
// considered due for expansion.
const ExpansionThreshold = 85.0

// maxPoolSize caps any single pool at the usable size of a /16.
const maxPoolSize = 65534

// Per-service base networks used for automatic allocation. The third octet
// advances when a subnet is already claimed.
var baseNetworks = map[string]string{
	cnst.ServiceHotspot:    "192.168.100.0",
	cnst.ServicePPPoE:      "192.168.200.0",
	cnst.ServiceManagement: "192.168.10.0",
}

// AllocatePoolInput describes a pool allocation request.
type AllocatePoolInput struct {
	TenantID     string
	ServiceType  string
	Network      string // CIDR
	RangeStart   string
	RangeEnd     string
	Gateway      string
	DNSPrimary   string
	DNSSecondary string
}

// Service manages tenant address pools and VLAN assignments. All operations
// run inside a tenant scope; concurrent allocation for the same tenant and
// service serializes on row locks taken within the scope's transaction.
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger.Named("ipam")}
}

// AllocatePool creates a pool after checking the requested space against
// every existing pool of the tenant. Overlap with any pool, regardless of
// service type, is rejected and nothing is written.
func (s *Service) AllocatePool(scope *tenant.Scope, in AllocatePoolInput) (*Pool, error) {
	lo, hi, err := parseRange(in.RangeStart, in.RangeEnd)
	if err != nil {
		return nil, err
	}
	netLo, netHi, err := cidrBounds(in.Network)
	if err != nil {
		return nil, err
	}
	if lo < netLo || hi > netHi {
		return nil, fmt.Errorf("range %s-%s falls outside network %s", in.RangeStart, in.RangeEnd, in.Network)
	}

	existing, err := s.lockPools(scope, in.TenantID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOverlap(existing, netLo, netHi, ""); err != nil {
		return nil, err
	}

	total := int64(hi) - int64(lo) + 1
	pool := &Pool{
		ID:           uuid.NewString(),
		TenantID:     in.TenantID,
		ServiceType:  in.ServiceType,
		Network:      in.Network,
		RangeStart:   in.RangeStart,
		RangeEnd:     in.RangeEnd,
		Gateway:      in.Gateway,
		DNSPrimary:   in.DNSPrimary,
		DNSSecondary: in.DNSSecondary,
		TotalIPs:     total,
		Status:       PoolActive,
	}
	if err := scope.DB().Create(pool).Error; err != nil {
		return nil, err
	}
	s.logger.Info("pool allocated",
		zap.String("tenant_id", in.TenantID),
		zap.String("service", in.ServiceType),
		zap.String("network", in.Network),
		zap.Int64("total_ips", total))
	return pool, nil
}

// forUpdate applies a row lock where the dialect supports one. SQLite
// serializes writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return db
	}
}

// lockPools reads all of the tenant's pools under FOR UPDATE so concurrent
// allocations for the same tenant serialize.
func (s *Service) lockPools(scope *tenant.Scope, tenantID string) ([]Pool, error) {
	var pools []Pool
	err := forUpdate(scope.DB()).
		Where("tenant_id = ?", tenantID).
		Find(&pools).Error
	return pools, err
}

// checkOverlap rejects the candidate space [lo,hi] when it intersects any
// existing pool's network, skipping the pool with id skipID.
func (s *Service) checkOverlap(pools []Pool, lo, hi uint32, skipID string) error {
	for _, p := range pools {
		if p.ID == skipID {
			continue
		}
		pLo, pHi, err := cidrBounds(p.Network)
		if err != nil {
			// fall back to the configured range when the stored CIDR is bad
			pLo, pHi, err = parseRange(p.RangeStart, p.RangeEnd)
			if err != nil {
				continue
			}
		}
		if rangesOverlap(lo, hi, pLo, pHi) {
			return errorx.New(errorx.KindOverlappingRange,
				fmt.Sprintf("requested space overlaps pool %s (%s)", p.ID, p.Network))
		}
	}
	return nil
}

// Utilization returns allocated/total as a percentage.
func Utilization(p *Pool) float64 {
	if p.TotalIPs == 0 {
		return 0
	}
	return float64(p.AllocatedIPs) / float64(p.TotalIPs) * 100
}

// NeedsExpansion reports whether the pool crossed the high-water mark.
func NeedsExpansion(p *Pool) bool {
	return Utilization(p) >= ExpansionThreshold
}

// Expand doubles the pool's usable range by moving range_end. The widened
// space must stay free: intersection with a sibling pool or growth past the
// /16 ceiling denies the expansion and leaves the pool untouched.
func (s *Service) Expand(scope *tenant.Scope, pool *Pool) error {
	lo, hi, err := parseRange(pool.RangeStart, pool.RangeEnd)
	if err != nil {
		return err
	}
	size := int64(hi) - int64(lo) + 1
	newSize := size * 2
	if newSize > maxPoolSize {
		return errorx.New(errorx.KindExpansionDenied,
			fmt.Sprintf("pool %s would exceed %d addresses", pool.ID, maxPoolSize))
	}
	newHi := uint32(int64(lo) + newSize - 1)

	siblings, err := s.lockPools(scope, pool.TenantID)
	if err != nil {
		return err
	}
	// only the newly claimed space needs to be free
	if err := s.checkOverlap(siblings, hi+1, newHi, pool.ID); err != nil {
		return errorx.Wrap(errorx.KindExpansionDenied,
			fmt.Sprintf("adjacent space for pool %s is claimed", pool.ID), err)
	}

	pool.RangeEnd = uintToIP(newHi).String()
	pool.TotalIPs = newSize
	if pool.Status == PoolExhausted && pool.AllocatedIPs < pool.TotalIPs {
		pool.Status = PoolActive
	}
	if err := scope.DB().Model(&Pool{}).
		Where("id = ? AND tenant_id = ?", pool.ID, scope.TenantID()).
		Updates(map[string]any{
			"range_end": pool.RangeEnd,
			"total_ips": pool.TotalIPs,
			"status":    pool.Status,
		}).Error; err != nil {
		return err
	}
	s.logger.Info("pool expanded",
		zap.String("pool_id", pool.ID),
		zap.String("range_end", pool.RangeEnd),
		zap.Int64("total_ips", pool.TotalIPs))
	return nil
}

// GetOrCreateServicePool returns the tenant's pool for the service type,
// allocating one from the per-service base network when none exists, and
// expanding an existing pool that crossed the high-water mark.
func (s *Service) GetOrCreateServicePool(scope *tenant.Scope, tenantID, serviceType string) (*Pool, error) {
	var pool Pool
	err := forUpdate(scope.DB()).
		Where("tenant_id = ? AND service_type = ?", tenantID, serviceType).
		First(&pool).Error
	if err == nil {
		if NeedsExpansion(&pool) {
			if expErr := s.Expand(scope, &pool); expErr != nil {
				s.logger.Warn("pool expansion denied",
					zap.String("pool_id", pool.ID),
					zap.Error(expErr))
			}
		}
		return &pool, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	base, ok := baseNetworks[serviceType]
	if !ok {
		return nil, fmt.Errorf("no base network for service type %q", serviceType)
	}
	baseLo, _, err := parseRange(base, base)
	if err != nil {
		return nil, err
	}

	existing, err := s.lockPools(scope, tenantID)
	if err != nil {
		return nil, err
	}
	// advance the third octet until a free /24 is found
	for i := 0; i < 50; i++ {
		netLo := baseLo + uint32(i)*256
		netHi := netLo + 255
		if s.checkOverlap(existing, netLo, netHi, "") != nil {
			continue
		}
		cidr := uintToIP(netLo).String() + "/24"
		return s.AllocatePool(scope, AllocatePoolInput{
			TenantID:     tenantID,
			ServiceType:  serviceType,
			Network:      cidr,
			RangeStart:   uintToIP(netLo + 10).String(),
			RangeEnd:     uintToIP(netLo + 250).String(),
			Gateway:      uintToIP(netLo + 1).String(),
			DNSPrimary:   "8.8.8.8",
			DNSSecondary: "8.8.4.4",
		})
	}
	return nil, errorx.New(errorx.KindExpansionDenied,
		fmt.Sprintf("no free subnet for tenant %s service %s", tenantID, serviceType))
}

// AllocateIP takes one address from the pool's counters, flipping the pool
// to exhausted when the last one goes.
func (s *Service) AllocateIP(scope *tenant.Scope, poolID string) error {
	var pool Pool
	if err := forUpdate(scope.DB()).
		Where("id = ? AND tenant_id = ?", poolID, scope.TenantID()).
		First(&pool).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.KindNotFound, fmt.Sprintf("pool %s not found", poolID))
		}
		return err
	}
	if pool.AllocatedIPs >= pool.TotalIPs {
		return fmt.Errorf("pool %s is exhausted", poolID)
	}
	pool.AllocatedIPs++
	status := PoolActive
	if pool.AllocatedIPs >= pool.TotalIPs {
		status = PoolExhausted
	}
	return scope.DB().Model(&Pool{}).Where("id = ?", poolID).Updates(map[string]any{
		"allocated_ips": pool.AllocatedIPs,
		"status":        status,
	}).Error
}

// ReleaseIP returns one address to the pool's counters.
func (s *Service) ReleaseIP(scope *tenant.Scope, poolID string) error {
	var pool Pool
	if err := forUpdate(scope.DB()).
		Where("id = ? AND tenant_id = ?", poolID, scope.TenantID()).
		First(&pool).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.KindNotFound, fmt.Sprintf("pool %s not found", poolID))
		}
		return err
	}
	if pool.AllocatedIPs > 0 {
		pool.AllocatedIPs--
	}
	return scope.DB().Model(&Pool{}).Where("id = ?", poolID).Updates(map[string]any{
		"allocated_ips": pool.AllocatedIPs,
		"status":        PoolActive,
	}).Error
}

// GetPool fetches one pool.
func (s *Service) GetPool(scope *tenant.Scope, poolID string) (*Pool, error) {
	var pool Pool
	if err := scope.DB().Where("id = ? AND tenant_id = ?", poolID, scope.TenantID()).First(&pool).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.KindNotFound, fmt.Sprintf("pool %s not found", poolID))
		}
		return nil, err
	}
	return &pool, nil
}

// ListPools lists the tenant's pools.
func (s *Service) ListPools(scope *tenant.Scope, tenantID string) ([]*Pool, error) {
	var pools []*Pool
	if err := scope.DB().
		Where("tenant_id = ?", tenantID).
		Order("created_at").
		Find(&pools).Error; err != nil {
		return nil, err
	}
	return pools, nil
}

// DeletePool removes a pool that no router service references.
func (s *Service) DeletePool(scope *tenant.Scope, poolID string) error {
	var refs int64
	if err := scope.DB().Table("tenant_router_services").
		Where("pool_id = ?", poolID).
		Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("pool %s is referenced by %d router services", poolID, refs)
	}
	return scope.DB().
		Where("id = ? AND tenant_id = ?", poolID, scope.TenantID()).
		Delete(&Pool{}).Error
}

// vlanRange is the window service VLANs are assigned from.
const (
	vlanMin = 100
	vlanMax = 999
)

// AssignVlan returns the tenant's VLAN for a service type, allocating the
// lowest free id in the window when none is assigned yet.
func (s *Service) AssignVlan(scope *tenant.Scope, tenantID, serviceType string) (*ServiceVlan, error) {
	var existing ServiceVlan
	err := scope.DB().
		Where("tenant_id = ? AND service_type = ?", tenantID, serviceType).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var taken []int
	if err := forUpdate(scope.DB().Model(&ServiceVlan{})).
		Where("tenant_id = ?", tenantID).
		Pluck("vlan_id", &taken).Error; err != nil {
		return nil, err
	}
	used := make(map[int]bool, len(taken))
	for _, id := range taken {
		used[id] = true
	}
	for id := vlanMin; id <= vlanMax; id++ {
		if used[id] {
			continue
		}
		v := &ServiceVlan{
			ID:          uuid.NewString(),
			TenantID:    tenantID,
			ServiceType: serviceType,
			VlanID:      id,
		}
		if err := scope.DB().Create(v).Error; err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("no free VLAN id for tenant %s", tenantID)
}
