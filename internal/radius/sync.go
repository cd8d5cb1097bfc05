package radius

import (
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/tenant"
)

// SyncInput is everything the synchronizer needs to materialize a
// subscriber's AAA state. Password is cleartext; it never leaves the
// transaction except as radcheck rows.
type SyncInput struct {
	Username        string
	Password        string
	TenantID        string
	Service         string // cnst.ServicePPPoE or cnst.ServiceHotspot
	ExpiresAt       *time.Time
	RateLimit       string // "down/up", already normalized; empty for none
	SimultaneousUse int
	Active          bool
	Status          string
}

// rejected reports whether the subscriber must be refused outright.
func (in *SyncInput) rejected() bool {
	return !in.Active || in.Status == cnst.StatusBlocked || in.Status == cnst.StatusInactive
}

// Synchronizer keeps radcheck/radreply and the username-to-schema index in
// step with subscriber state. Every write replaces the user's full
// attribute set so the tables never accumulate stale rows.
type Synchronizer struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewSynchronizer(logger *zap.Logger) *Synchronizer {
	return &Synchronizer{logger: logger.Named("radius"), now: time.Now}
}

// Sync writes the subscriber's canonical attribute set inside the scope's
// transaction. A blocked or inactive subscriber gets a single Auth-Type
// reject row and nothing else, so no stale credential can still match.
func (s *Synchronizer) Sync(scope *tenant.Scope, in SyncInput) error {
	if err := s.clear(scope, in.Username); err != nil {
		return err
	}

	if in.rejected() {
		reject := &RadCheck{
			Username:  in.Username,
			Attribute: cnst.AttrAuthType,
			Op:        cnst.AttrOpSet,
			Value:     cnst.AuthReject,
		}
		if err := scope.DB().Create(reject).Error; err != nil {
			return err
		}
		return s.upsertMapping(scope, in, false)
	}

	checks := []RadCheck{
		{Username: in.Username, Attribute: cnst.AttrCleartextPassword, Op: cnst.AttrOpSet, Value: in.Password},
		{Username: in.Username, Attribute: cnst.AttrNTPassword, Op: cnst.AttrOpSet, Value: NTHash(in.Password)},
	}
	if in.ExpiresAt != nil {
		checks = append(checks, RadCheck{
			Username: in.Username, Attribute: cnst.AttrExpiration, Op: cnst.AttrOpSet,
			Value: in.ExpiresAt.Format(ExpirationFormat),
		})
	}
	if in.SimultaneousUse > 0 {
		checks = append(checks, RadCheck{
			Username: in.Username, Attribute: cnst.AttrSimultaneousUse, Op: cnst.AttrOpSet,
			Value: strconv.Itoa(in.SimultaneousUse),
		})
	}
	if err := scope.DB().Create(&checks).Error; err != nil {
		return err
	}

	replies := []RadReply{
		{Username: in.Username, Attribute: cnst.AttrTenantID, Op: cnst.AttrOpSet, Value: in.TenantID},
		{Username: in.Username, Attribute: cnst.AttrServiceType, Op: cnst.AttrOpSet, Value: serviceTypeValue(in.Service)},
	}
	if in.ExpiresAt != nil {
		replies = append(replies, RadReply{
			Username: in.Username, Attribute: cnst.AttrSessionTimeout, Op: cnst.AttrOpSet,
			Value: strconv.FormatInt(SessionTimeout(*in.ExpiresAt, s.now()), 10),
		})
	}
	if in.RateLimit != "" {
		replies = append(replies, RadReply{
			Username: in.Username, Attribute: cnst.AttrRateLimit, Op: cnst.AttrOpSet,
			Value: in.RateLimit,
		})
	}
	if err := scope.DB().Create(&replies).Error; err != nil {
		return err
	}

	s.logger.Debug("radius attributes synced",
		zap.String("username", in.Username),
		zap.String("tenant_id", in.TenantID))
	return s.upsertMapping(scope, in, true)
}

// SyncMeta refreshes the non-credential attributes only. A user currently
// carrying an Auth-Type reject is left alone; unblocking is an explicit
// operation, not a side effect of a metadata update.
func (s *Synchronizer) SyncMeta(scope *tenant.Scope, in SyncInput) error {
	var rejects int64
	err := scope.DB().Model(&RadCheck{}).
		Where("username = ? AND attribute = ?", in.Username, cnst.AttrAuthType).
		Count(&rejects).Error
	if err != nil {
		return err
	}
	if rejects > 0 {
		return nil
	}

	if in.ExpiresAt != nil {
		if err := s.upsertCheck(scope, in.Username, cnst.AttrExpiration, in.ExpiresAt.Format(ExpirationFormat)); err != nil {
			return err
		}
		if err := s.upsertReply(scope, in.Username, cnst.AttrSessionTimeout,
			strconv.FormatInt(SessionTimeout(*in.ExpiresAt, s.now()), 10)); err != nil {
			return err
		}
	}
	if in.SimultaneousUse > 0 {
		if err := s.upsertCheck(scope, in.Username, cnst.AttrSimultaneousUse, strconv.Itoa(in.SimultaneousUse)); err != nil {
			return err
		}
	}
	if in.RateLimit != "" {
		if err := s.upsertReply(scope, in.Username, cnst.AttrRateLimit, in.RateLimit); err != nil {
			return err
		}
	}
	return nil
}

// Unblock removes the reject row and rebuilds the full attribute set.
func (s *Synchronizer) Unblock(scope *tenant.Scope, in SyncInput) error {
	err := scope.DB().
		Where("username = ? AND attribute = ?", in.Username, cnst.AttrAuthType).
		Delete(&RadCheck{}).Error
	if err != nil {
		return err
	}
	in.Active = true
	in.Status = cnst.StatusActive
	return s.Sync(scope, in)
}

// Delete removes every trace of the username from the AAA tables.
func (s *Synchronizer) Delete(scope *tenant.Scope, username string) error {
	if err := s.clear(scope, username); err != nil {
		return err
	}
	return scope.DB().Where("username = ?", username).Delete(&UserSchemaMapping{}).Error
}

func (s *Synchronizer) clear(scope *tenant.Scope, username string) error {
	if err := scope.DB().Where("username = ?", username).Delete(&RadCheck{}).Error; err != nil {
		return err
	}
	return scope.DB().Where("username = ?", username).Delete(&RadReply{}).Error
}

func (s *Synchronizer) upsertMapping(scope *tenant.Scope, in SyncInput, active bool) error {
	m := &UserSchemaMapping{
		Username:   in.Username,
		SchemaName: scope.Schema(),
		TenantID:   in.TenantID,
		UserRole:   in.Service,
		IsActive:   active,
	}
	return scope.DB().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"schema_name", "tenant_id", "user_role", "is_active", "updated_at"}),
	}).Create(m).Error
}

func (s *Synchronizer) upsertCheck(scope *tenant.Scope, username, attr, value string) error {
	res := scope.DB().Model(&RadCheck{}).
		Where("username = ? AND attribute = ?", username, attr).
		Update("value", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return scope.DB().Create(&RadCheck{
		Username: username, Attribute: attr, Op: cnst.AttrOpSet, Value: value,
	}).Error
}

func (s *Synchronizer) upsertReply(scope *tenant.Scope, username, attr, value string) error {
	res := scope.DB().Model(&RadReply{}).
		Where("username = ? AND attribute = ?", username, attr).
		Update("value", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return scope.DB().Create(&RadReply{
		Username: username, Attribute: attr, Op: cnst.AttrOpSet, Value: value,
	}).Error
}

func serviceTypeValue(service string) string {
	if service == cnst.ServiceHotspot {
		return cnst.ServiceTypeLoginUser
	}
	return cnst.ServiceTypeFramedUser
}
