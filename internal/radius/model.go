package radius

import (
	"time"
)

// RadCheck is a FreeRADIUS check attribute row. The table lives in the
// shared schema; every server instance reads the same AAA state.
type RadCheck struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"column:username;type:varchar(64);not null;index"`
	Attribute string `gorm:"type:varchar(64);not null"`
	Op        string `gorm:"column:op;type:varchar(2);not null;default:':='"`
	Value     string `gorm:"type:varchar(253);not null"`
}

func (RadCheck) TableName() string {
	return "radcheck"
}

// RadReply is a FreeRADIUS reply attribute row.
type RadReply struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"column:username;type:varchar(64);not null;index"`
	Attribute string `gorm:"type:varchar(64);not null"`
	Op        string `gorm:"column:op;type:varchar(2);not null;default:':='"`
	Value     string `gorm:"type:varchar(253);not null"`
}

func (RadReply) TableName() string {
	return "radreply"
}

// UserSchemaMapping indexes a RADIUS username back to the tenant schema it
// belongs to. FreeRADIUS policy hooks use it to route per-tenant lookups.
type UserSchemaMapping struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Username   string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	SchemaName string    `gorm:"type:varchar(64);not null"`
	TenantID   string    `gorm:"type:varchar(36);not null;index"`
	UserRole   string    `gorm:"type:varchar(32)"`
	IsActive   bool      `gorm:"default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (UserSchemaMapping) TableName() string {
	return "radius_user_schema_mapping"
}
