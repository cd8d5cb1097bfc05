package tenant

import (
	"time"
)

// Tenant lives in the shared schema and records whether the tenant's own
// schema has been provisioned yet.
type Tenant struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null;index"`
	Email         string    `json:"email" gorm:"type:varchar(255)"`
	SchemaName    string    `json:"schemaName" gorm:"type:varchar(64);uniqueIndex"`
	SchemaCreated bool      `json:"schemaCreated" gorm:"default:false"`
	IsActive      bool      `json:"isActive" gorm:"default:true"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Tenant) TableName() string {
	return "tenants"
}
