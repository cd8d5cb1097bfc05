package tenant

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/common/errorx"
)

// schemaNamePattern is the whitelist a schema name must pass before it is
// ever interpolated into SQL. Quoting alone is not enough; identifiers that
// fail this pattern are rejected outright.
var schemaNamePattern = regexp.MustCompile(`^ts_[a-z0-9]+$`)

// ValidSchemaName reports whether name is safe to use as a schema identifier.
func ValidSchemaName(name string) bool {
	return schemaNamePattern.MatchString(name)
}

// NewSchemaName generates a fresh tenant schema name: the fixed prefix plus
// twelve lowercase hex characters.
func NewSchemaName() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return cnst.SchemaPrefix + hex.EncodeToString(b)
}

// SchemaManager provisions and tears down per-tenant schemas.
type SchemaManager struct {
	db     *gorm.DB
	logger *zap.Logger
	models []any
}

// NewSchemaManager returns a manager that migrates the given models into
// every schema it creates.
func NewSchemaManager(db *gorm.DB, logger *zap.Logger, models ...any) *SchemaManager {
	return &SchemaManager{db: db, logger: logger.Named("tenant.schema"), models: models}
}

// CreateSchema creates the tenant's schema, migrates the tenant-scoped
// tables into it and marks the tenant row as provisioned. Safe to call
// again after a partial failure.
func (m *SchemaManager) CreateSchema(ctx context.Context, t *Tenant) error {
	if t.SchemaName == "" {
		t.SchemaName = NewSchemaName()
	}
	if !ValidSchemaName(t.SchemaName) {
		return errorx.New(errorx.KindInvalidSchemaName, fmt.Sprintf("invalid schema name %q", t.SchemaName))
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, t.SchemaName)).Error; err != nil {
				return fmt.Errorf("create schema: %w", err)
			}
			if err := tx.Exec(fmt.Sprintf(`SET LOCAL search_path TO %q, %s`, t.SchemaName, cnst.SystemSchema)).Error; err != nil {
				return err
			}
		}
		if err := tx.AutoMigrate(m.models...); err != nil {
			return fmt.Errorf("migrate tenant tables: %w", err)
		}
		t.SchemaCreated = true
		if err := tx.Model(&Tenant{}).Where("id = ?", t.ID).
			Updates(map[string]any{"schema_name": t.SchemaName, "schema_created": true}).Error; err != nil {
			return err
		}
		m.logger.Info("tenant schema provisioned",
			zap.String("tenant_id", t.ID),
			zap.String("schema", t.SchemaName))
		return nil
	})
}

// DropSchema removes the tenant's schema and everything in it.
func (m *SchemaManager) DropSchema(ctx context.Context, t *Tenant) error {
	if !ValidSchemaName(t.SchemaName) {
		return errorx.New(errorx.KindInvalidSchemaName, fmt.Sprintf("invalid schema name %q", t.SchemaName))
	}
	if m.db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := m.db.WithContext(ctx).
		Exec(fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, t.SchemaName)).Error; err != nil {
		return err
	}
	return m.db.WithContext(ctx).Model(&Tenant{}).Where("id = ?", t.ID).
		Update("schema_created", false).Error
}

// SchemaExists checks the catalog for the tenant's schema.
func (m *SchemaManager) SchemaExists(ctx context.Context, name string) (bool, error) {
	if !ValidSchemaName(name) {
		return false, errorx.New(errorx.KindInvalidSchemaName, fmt.Sprintf("invalid schema name %q", name))
	}
	if m.db.Dialector.Name() != "postgres" {
		return true, nil
	}
	var count int64
	err := m.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?`, name).
		Scan(&count).Error
	return count > 0, err
}
