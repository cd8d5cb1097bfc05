package errorx

import (
	"errors"
	"fmt"
)

// Kind is a stable machine-readable failure category. Callers branch on
// kinds, humans read reasons.
type Kind string

const (
	KindInvalidSchemaName    Kind = "invalid_schema_name"
	KindTenantNotProvisioned Kind = "tenant_not_provisioned"
	KindOverlappingRange     Kind = "overlapping_range"
	KindExpansionDenied      Kind = "expansion_denied"
	KindDuplicateUsername    Kind = "duplicate_username"
	KindDeviceUnreachable    Kind = "device_unreachable"
	KindScriptValidation     Kind = "script_validation_failed"
	KindDecryptionFailed     Kind = "decryption_failed"
	KindInvalidArgument      Kind = "invalid_argument"
	KindNotFound             Kind = "not_found"
	KindInternal             Kind = "internal"
)

// Error carries a kind plus a human-readable reason. The wrapped cause is
// kept for logs but is not part of the user-visible message.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is match on kind so sentinel comparisons work across
// independently constructed instances.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an error of the given kind.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf extracts the kind from err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Transient reports whether the failure is worth retrying. Only device
// reachability problems qualify; everything else in the taxonomy is either
// a permanent input problem or a data-integrity signal.
func Transient(err error) bool {
	return KindOf(err) == KindDeviceUnreachable
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidSchemaName    = New(KindInvalidSchemaName, "schema name fails validation")
	ErrTenantNotProvisioned = New(KindTenantNotProvisioned, "tenant has no provisioned schema")
	ErrOverlappingRange     = New(KindOverlappingRange, "address range overlaps an existing pool")
	ErrExpansionDenied      = New(KindExpansionDenied, "adjacent address space is already claimed")
	ErrDuplicateUsername    = New(KindDuplicateUsername, "username already exists in this tenant")
	ErrDeviceUnreachable    = New(KindDeviceUnreachable, "device is unreachable")
	ErrScriptValidation     = New(KindScriptValidation, "generated script fails safety validation")
	ErrDecryptionFailed     = New(KindDecryptionFailed, "stored credential cannot be decrypted")
)
