package cnst

// Service types a router interface can be bound to.
const (
	ServiceHotspot    = "hotspot"
	ServicePPPoE      = "pppoe"
	ServiceManagement = "management"
	ServiceHybrid     = "hybrid"
	ServiceNone       = "none"
)

// Deployment lifecycle of a router service.
const (
	DeployPending    = "pending"
	DeployInProgress = "in_progress"
	DeployDeployed   = "deployed"
	DeployFailed     = "failed"
)

// Subscriber status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusBlocked  = "blocked"
	StatusExpired  = "expired"
)

// RADIUS attribute names as the FreeRADIUS dictionary expects them.
const (
	AttrCleartextPassword = "Cleartext-Password"
	AttrNTPassword        = "NT-Password"
	AttrExpiration        = "Expiration"
	AttrSimultaneousUse   = "Simultaneous-Use"
	AttrAuthType          = "Auth-Type"
	AttrServiceType       = "Service-Type"
	AttrTenantID          = "Tenant-ID"
	AttrSessionTimeout    = "Session-Timeout"
	AttrRateLimit         = "Mikrotik-Rate-Limit"
)

// AttrOpSet is the only operator the synchronizer emits.
const AttrOpSet = ":="

// AuthReject is the Auth-Type value that makes FreeRADIUS refuse a user
// before any other check attribute is consulted.
const AuthReject = "Reject"

// Service-Type reply values by subscriber kind.
const (
	ServiceTypeFramedUser = "Framed-User"
	ServiceTypeLoginUser  = "Login-User"
)

// DeployStream is the redis stream deployment jobs are published to.
const DeployStream = "wificore:deploy"

// SchemaPrefix prefixes every tenant schema name.
const SchemaPrefix = "ts_"

// SystemSchema holds the shared, non-tenant tables (tenants, AAA rows,
// the username to schema index).
const SystemSchema = "public"
