package subscriber

import (
	"time"
)

// NetworkUser is a tenant-scoped subscriber account. PasswordHash is the
// application-side bcrypt hash; the RADIUS tables carry the cleartext and
// NT forms separately.
type NetworkUser struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID        string     `json:"tenantId" gorm:"type:varchar(36);not null;index"`
	Username        string     `json:"username" gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordHash    string     `json:"-" gorm:"type:varchar(255)"`
	FullName        string     `json:"fullName" gorm:"type:varchar(255)"`
	Phone           string     `json:"phone" gorm:"type:varchar(32);index"`
	Email           string     `json:"email" gorm:"type:varchar(255)"`
	Service         string     `json:"service" gorm:"type:varchar(32);not null"` // pppoe or hotspot
	PackageID       string     `json:"packageId" gorm:"type:varchar(36);index"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	SimultaneousUse int        `json:"simultaneousUse" gorm:"default:1"`
	Status          string     `json:"status" gorm:"type:varchar(16);default:active"`
	IsActive        bool       `json:"isActive" gorm:"default:true"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (NetworkUser) TableName() string {
	return "tenant_network_users"
}

// Package is a tenant-scoped service plan. An empty Type makes the plan
// usable for any service; otherwise it binds to pppoe or hotspot accounts
// only.
type Package struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	TenantID        string    `json:"tenantId" gorm:"type:varchar(36);not null;index"`
	Name            string    `json:"name" gorm:"type:varchar(255);not null"`
	Type            string    `json:"type" gorm:"type:varchar(16)"`     // pppoe, hotspot or empty
	Validity        string    `json:"validity" gorm:"type:varchar(32)"` // e.g. "30 days"
	DownloadSpeed   string    `json:"downloadSpeed" gorm:"type:varchar(16)"`
	UploadSpeed     string    `json:"uploadSpeed" gorm:"type:varchar(16)"`
	SimultaneousUse int       `json:"simultaneousUse" gorm:"default:1"`
	IsActive        bool      `json:"isActive" gorm:"default:true"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Package) TableName() string {
	return "tenant_packages"
}
