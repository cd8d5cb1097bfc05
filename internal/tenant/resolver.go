package tenant

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/common/errorx"
)

// Resolver maps a tenant id to its schema name.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the schema for the tenant. Missing, inactive and
// not-yet-provisioned tenants all fail the same way so callers cannot
// accidentally fall through to the shared schema.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) (string, error) {
	var t Tenant
	err := r.db.WithContext(ctx).Where("id = ?", tenantID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errorx.New(errorx.KindTenantNotProvisioned, fmt.Sprintf("tenant %s not found", tenantID))
	}
	if err != nil {
		return "", err
	}
	if !t.IsActive {
		return "", errorx.New(errorx.KindTenantNotProvisioned, fmt.Sprintf("tenant %s is inactive", tenantID))
	}
	if !t.SchemaCreated || t.SchemaName == "" {
		return "", errorx.New(errorx.KindTenantNotProvisioned, fmt.Sprintf("tenant %s has no schema", tenantID))
	}
	if !ValidSchemaName(t.SchemaName) {
		return "", errorx.New(errorx.KindInvalidSchemaName, fmt.Sprintf("invalid schema name %q", t.SchemaName))
	}
	return t.SchemaName, nil
}

// Get returns the full tenant row.
func (r *Resolver) Get(ctx context.Context, tenantID string) (*Tenant, error) {
	var t Tenant
	err := r.db.WithContext(ctx).Where("id = ?", tenantID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorx.New(errorx.KindNotFound, fmt.Sprintf("tenant %s not found", tenantID))
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
