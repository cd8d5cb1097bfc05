package ipam

import (
	"time"
)

// Pool statuses.
const (
	PoolActive    = "active"
	PoolExhausted = "exhausted"
)

// Pool is a tenant-scoped address pool bound to one service type. TotalIPs
// and AllocatedIPs are maintained by the service; Status flips to exhausted
// when the counters meet.
type Pool struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID     string    `json:"tenantId" gorm:"type:varchar(36);not null;index"`
	ServiceType  string    `json:"serviceType" gorm:"type:varchar(32);not null;index"`
	Network      string    `json:"network" gorm:"type:varchar(64);not null"` // CIDR
	RangeStart   string    `json:"rangeStart" gorm:"type:varchar(64);not null"`
	RangeEnd     string    `json:"rangeEnd" gorm:"type:varchar(64);not null"`
	Gateway      string    `json:"gateway" gorm:"type:varchar(64)"`
	DNSPrimary   string    `json:"dnsPrimary" gorm:"type:varchar(64)"`
	DNSSecondary string    `json:"dnsSecondary" gorm:"type:varchar(64)"`
	TotalIPs     int64     `json:"totalIps"`
	AllocatedIPs int64     `json:"allocatedIps"`
	Status       string    `json:"status" gorm:"type:varchar(16);default:active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Pool) TableName() string {
	return "tenant_ip_pools"
}

// ServiceVlan assigns a VLAN id to a service type inside a tenant.
type ServiceVlan struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID    string    `json:"tenantId" gorm:"type:varchar(36);not null;index"`
	ServiceType string    `json:"serviceType" gorm:"type:varchar(32);not null"`
	VlanID      int       `json:"vlanId" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (ServiceVlan) TableName() string {
	return "tenant_service_vlans"
}
