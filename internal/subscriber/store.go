package subscriber

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/common/errorx"
	"github.com/traidnet/wificore/internal/tenant"
)

// Store reads and writes subscriber rows inside a tenant scope. It carries
// no state of its own; every method acts on the scope's transaction.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// Create inserts a subscriber, mapping unique-constraint violations to the
// duplicate-username error so callers need not parse driver messages. The
// pre-check only sees the scope's tenant; a cross-tenant collision still
// surfaces through the unique index on username.
func (st *Store) Create(scope *tenant.Scope, u *NetworkUser) error {
	if _, err := st.GetByUsername(scope, u.Username); err == nil {
		return errorx.New(errorx.KindDuplicateUsername, fmt.Sprintf("username %q already exists", u.Username))
	} else if errorx.KindOf(err) != errorx.KindNotFound {
		return err
	}
	if err := scope.DB().Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return errorx.New(errorx.KindDuplicateUsername, fmt.Sprintf("username %q already exists", u.Username))
		}
		return err
	}
	return nil
}

// GetByUsername fetches a subscriber by username.
func (st *Store) GetByUsername(scope *tenant.Scope, username string) (*NetworkUser, error) {
	var u NetworkUser
	err := scope.DB().Where("username = ? AND tenant_id = ?", username, scope.TenantID()).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorx.New(errorx.KindNotFound, fmt.Sprintf("user %q not found", username))
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Get fetches a subscriber by id. The tenant filter backs up the schema
// switch; a foreign id reads as not found even when the dialect keeps all
// tenants in one namespace.
func (st *Store) Get(scope *tenant.Scope, id string) (*NetworkUser, error) {
	var u NetworkUser
	err := scope.DB().Where("id = ? AND tenant_id = ?", id, scope.TenantID()).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorx.New(errorx.KindNotFound, fmt.Sprintf("user %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update saves the full subscriber row.
func (st *Store) Update(scope *tenant.Scope, u *NetworkUser) error {
	if u.TenantID != scope.TenantID() {
		return errorx.New(errorx.KindNotFound, fmt.Sprintf("user %s not found", u.ID))
	}
	return scope.DB().Save(u).Error
}

// SetStatus updates status and active flag together.
func (st *Store) SetStatus(scope *tenant.Scope, id, status string, active bool) error {
	res := scope.DB().Model(&NetworkUser{}).
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Updates(map[string]any{"status": status, "is_active": active})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errorx.New(errorx.KindNotFound, fmt.Sprintf("user %s not found", id))
	}
	return nil
}

// Delete removes a subscriber row.
func (st *Store) Delete(scope *tenant.Scope, id string) error {
	return scope.DB().
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Delete(&NetworkUser{}).Error
}

// List returns the tenant's subscribers, newest first.
func (st *Store) List(scope *tenant.Scope, tenantID string) ([]*NetworkUser, error) {
	var users []*NetworkUser
	err := scope.DB().Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Find(&users).Error
	return users, err
}

// GetPackage fetches a plan by id.
func (st *Store) GetPackage(scope *tenant.Scope, id string) (*Package, error) {
	var p Package
	err := scope.DB().Where("id = ? AND tenant_id = ?", id, scope.TenantID()).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorx.New(errorx.KindNotFound, fmt.Sprintf("package %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPackages returns the tenant's plans, oldest first.
func (st *Store) ListPackages(scope *tenant.Scope, tenantID string) ([]*Package, error) {
	var pkgs []*Package
	err := scope.DB().Where("tenant_id = ?", tenantID).
		Order("created_at").
		Find(&pkgs).Error
	return pkgs, err
}

// CreatePackage inserts a plan.
func (st *Store) CreatePackage(scope *tenant.Scope, p *Package) error {
	return scope.DB().Create(p).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "unique constraint")
}
