package tenant

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/common/errorx"
)

// Scope is a data context bound to one tenant for the duration of a single
// transaction. It is only ever constructed by RunInSchema and never stored;
// when the transaction ends the scope is dead.
type Scope struct {
	tx       *gorm.DB
	schema   string
	tenantID string
}

// DB returns the transaction-bound gorm handle.
func (s *Scope) DB() *gorm.DB { return s.tx }

// Schema returns the schema this scope is switched to.
func (s *Scope) Schema() string { return s.schema }

// TenantID returns the tenant this scope belongs to. Stores filter every
// by-id read on it, so isolation does not depend on schema separation; on
// dialects without schema support it is the only wall between tenants.
func (s *Scope) TenantID() string { return s.tenantID }

// RunInSchema opens a transaction, switches its search path to the tenant's
// schema and runs fn with a scope bound to that transaction. SET LOCAL keeps
// the switch confined to this transaction, so a pooled connection returned
// afterwards carries no tenant state. An error from fn rolls back the whole
// unit of work.
func RunInSchema(ctx context.Context, db *gorm.DB, schema, tenantID string, fn func(*Scope) error) error {
	if !ValidSchemaName(schema) {
		return errorx.New(errorx.KindInvalidSchemaName, fmt.Sprintf("invalid schema name %q", schema))
	}
	if tenantID == "" {
		return errorx.New(errorx.KindInvalidArgument, "tenant id is required for a scoped transaction")
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(fmt.Sprintf(`SET LOCAL search_path TO %q, %s`, schema, cnst.SystemSchema)).Error; err != nil {
				return fmt.Errorf("set search path: %w", err)
			}
		}
		return fn(&Scope{tx: tx, schema: schema, tenantID: tenantID})
	})
}
