package router

import (
	"time"
)

// Router is a tenant-scoped managed device. The API password is stored
// encrypted; the cleartext exists only inside a deployment attempt.
type Router struct {
	ID                string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID          string     `json:"tenantId" gorm:"type:varchar(36);not null;index"`
	Name              string     `json:"name" gorm:"type:varchar(255);not null"`
	IPAddress         string     `json:"ipAddress" gorm:"type:varchar(64)"`
	Username          string     `json:"username" gorm:"type:varchar(64)"`
	EncryptedPassword string     `json:"-" gorm:"type:text"`
	APIPort           int        `json:"apiPort" gorm:"default:8728"`
	DNSName           string     `json:"dnsName" gorm:"type:varchar(255)"` // discovery hint
	LastSeenAt        *time.Time `json:"lastSeenAt"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (Router) TableName() string {
	return "tenant_routers"
}

// RouterService binds a router to one service deployment: the service type,
// its address pool, the interfaces it claims and where the rollout stands.
type RouterService struct {
	ID               string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID         string     `json:"tenantId" gorm:"type:varchar(36);not null;index"`
	RouterID         string     `json:"routerId" gorm:"type:varchar(36);not null;index"`
	ServiceType      string     `json:"serviceType" gorm:"type:varchar(32);not null"`
	PoolID           string     `json:"poolId" gorm:"column:pool_id;type:varchar(36);index"`
	VlanID           int        `json:"vlanId"`
	Interfaces       string     `json:"interfaces" gorm:"type:text"` // JSON-encoded assignments
	Script           string     `json:"-" gorm:"type:text"`          // rendered script awaiting deployment
	DeploymentStatus string     `json:"deploymentStatus" gorm:"type:varchar(16);default:pending;index"`
	LastError        string     `json:"lastError" gorm:"type:text"`
	DeployedAt       *time.Time `json:"deployedAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (RouterService) TableName() string {
	return "tenant_router_services"
}
