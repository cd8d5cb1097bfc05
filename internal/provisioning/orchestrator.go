package provisioning

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/common/errorx"
	"github.com/traidnet/wificore/internal/deploy"
	"github.com/traidnet/wificore/internal/ipam"
	"github.com/traidnet/wificore/internal/radius"
	"github.com/traidnet/wificore/internal/router"
	"github.com/traidnet/wificore/internal/script"
	"github.com/traidnet/wificore/internal/subscriber"
	"github.com/traidnet/wificore/internal/tenant"
	"github.com/traidnet/wificore/pkg/metrics"
)

// Enqueuer hands a deployment job off for asynchronous execution.
type Enqueuer interface {
	Enqueue(ctx context.Context, job deploy.Job) error
}

// Deployer applies a service synchronously.
type Deployer interface {
	Deploy(ctx context.Context, job deploy.Job) error
}

// Orchestrator is the façade request handlers call. Every operation takes
// an explicit tenant id, resolves the tenant's schema, and runs its data
// steps inside one scoped transaction; device rollout happens after commit.
type Orchestrator struct {
	logger   *zap.Logger
	db       *gorm.DB
	resolver *tenant.Resolver
	users    *subscriber.Store
	routers  *router.Store
	pools    *ipam.Service
	sync     *radius.Synchronizer
	builder  *script.Builder
	cipher   *router.Cipher
	queue    Enqueuer
	deployer Deployer
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// WithMetrics attaches a metrics registry; RADIUS synchronizations are
// then counted per tenant.
func (o *Orchestrator) WithMetrics(m *metrics.Metrics) *Orchestrator {
	o.metrics = m
	return o
}

// recordSync is deferred by every operation that rewrites AAA attributes.
func (o *Orchestrator) recordSync(tenantID string, start time.Time, err *error) {
	if o.metrics == nil {
		return
	}
	status := "ok"
	if *err != nil {
		status = "error"
	}
	o.metrics.SyncDone(tenantID, status, start)
}

func NewOrchestrator(
	logger *zap.Logger,
	db *gorm.DB,
	builder *script.Builder,
	cipher *router.Cipher,
	queue Enqueuer,
	deployer Deployer,
	notifier Notifier,
) *Orchestrator {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &Orchestrator{
		logger:   logger.Named("provisioning"),
		db:       db,
		resolver: tenant.NewResolver(db),
		users:    subscriber.NewStore(),
		routers:  router.NewStore(),
		pools:    ipam.NewService(logger),
		sync:     radius.NewSynchronizer(logger),
		builder:  builder,
		cipher:   cipher,
		queue:    queue,
		deployer: deployer,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateUserInput describes a new subscriber.
type CreateUserInput struct {
	Username        string
	Password        string // empty means generate
	FullName        string
	Phone           string
	Email           string
	Service         string // pppoe or hotspot
	PackageID       string
	SimultaneousUse int
}

// CreateUserResult carries the generated credential back exactly once.
type CreateUserResult struct {
	User     *subscriber.NetworkUser
	Password string
}

// CreateNetworkUser provisions a subscriber: row, bcrypt hash, AAA
// attributes and the schema index, all in one unit of work.
func (o *Orchestrator) CreateNetworkUser(ctx context.Context, tenantID string, in CreateUserInput) (res *CreateUserResult, err error) {
	defer o.recordSync(tenantID, o.now(), &err)
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	username := in.Username
	if username == "" && in.Service == cnst.ServiceHotspot {
		if username, err = UsernameFromPhone(in.Phone); err != nil {
			return nil, err
		}
	}
	if username == "" {
		return nil, errorx.New(errorx.KindInvalidArgument, "username is required")
	}
	password := in.Password
	if password == "" {
		if password, err = GeneratePassword(); err != nil {
			return nil, err
		}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user *subscriber.NetworkUser
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		expiry, rate, simUse, err := o.resolvePlan(s, in.PackageID, in.Service, in.SimultaneousUse)
		if err != nil {
			return err
		}
		user = &subscriber.NetworkUser{
			ID:              uuid.NewString(),
			TenantID:        tenantID,
			Username:        username,
			PasswordHash:    hash,
			FullName:        in.FullName,
			Phone:           in.Phone,
			Email:           in.Email,
			Service:         in.Service,
			PackageID:       in.PackageID,
			ExpiresAt:       expiry,
			SimultaneousUse: simUse,
			Status:          cnst.StatusActive,
			IsActive:        true,
		}
		if err := o.users.Create(s, user); err != nil {
			return err
		}
		return o.sync.Sync(s, o.syncInput(user, password, rate))
	})
	if err != nil {
		return nil, err
	}

	o.notifier.Notify(ctx, Event{Type: EventUserCreated, TenantID: tenantID, Username: username})
	return &CreateUserResult{User: user, Password: password}, nil
}

// UpdateUserInput carries the mutable subscriber fields. Nil pointers leave
// the current value alone.
type UpdateUserInput struct {
	Password        *string
	FullName        *string
	Phone           *string
	Email           *string
	PackageID       *string
	SimultaneousUse *int
}

// UpdateNetworkUser applies field changes and refreshes AAA state: a new
// password triggers a full re-sync, anything else only touches metadata.
func (o *Orchestrator) UpdateNetworkUser(ctx context.Context, tenantID, userID string, in UpdateUserInput) (res *subscriber.NetworkUser, err error) {
	defer o.recordSync(tenantID, o.now(), &err)
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var user *subscriber.NetworkUser
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		if user, err = o.users.Get(s, userID); err != nil {
			return err
		}
		if in.FullName != nil {
			user.FullName = *in.FullName
		}
		if in.Phone != nil {
			user.Phone = *in.Phone
		}
		if in.Email != nil {
			user.Email = *in.Email
		}
		if in.PackageID != nil {
			user.PackageID = *in.PackageID
		}
		if in.SimultaneousUse != nil {
			user.SimultaneousUse = *in.SimultaneousUse
		}

		var password string
		if in.Password != nil && *in.Password != "" {
			password = *in.Password
			if user.PasswordHash, err = HashPassword(password); err != nil {
				return err
			}
		}

		expiry, rate, simUse, err := o.resolvePlan(s, user.PackageID, user.Service, user.SimultaneousUse)
		if err != nil {
			return err
		}
		user.ExpiresAt = expiry
		user.SimultaneousUse = simUse
		if err := o.users.Update(s, user); err != nil {
			return err
		}

		if password != "" {
			return o.sync.Sync(s, o.syncInput(user, password, rate))
		}
		return o.sync.SyncMeta(s, o.syncInput(user, "", rate))
	})
	if err != nil {
		return nil, err
	}

	o.notifier.Notify(ctx, Event{Type: EventUserUpdated, TenantID: tenantID, Username: user.Username})
	return user, nil
}

// DeleteNetworkUser removes the subscriber and every AAA trace.
func (o *Orchestrator) DeleteNetworkUser(ctx context.Context, tenantID, userID string) (err error) {
	defer o.recordSync(tenantID, o.now(), &err)
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}

	var username string
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		user, err := o.users.Get(s, userID)
		if err != nil {
			return err
		}
		username = user.Username
		if err := o.users.Delete(s, userID); err != nil {
			return err
		}
		return o.sync.Delete(s, username)
	})
	if err != nil {
		return err
	}

	o.notifier.Notify(ctx, Event{Type: EventUserDeleted, TenantID: tenantID, Username: username})
	return nil
}

// BlockNetworkUser flips the subscriber to blocked; AAA keeps a single
// reject row so no credential can match while blocked.
func (o *Orchestrator) BlockNetworkUser(ctx context.Context, tenantID, userID string) error {
	return o.setBlocked(ctx, tenantID, userID, true)
}

// UnblockNetworkUser restores the full AAA attribute set.
func (o *Orchestrator) UnblockNetworkUser(ctx context.Context, tenantID, userID string) error {
	return o.setBlocked(ctx, tenantID, userID, false)
}

func (o *Orchestrator) setBlocked(ctx context.Context, tenantID, userID string, blocked bool) (err error) {
	defer o.recordSync(tenantID, o.now(), &err)
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}

	var username string
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		user, err := o.users.Get(s, userID)
		if err != nil {
			return err
		}
		username = user.Username

		status := cnst.StatusActive
		if blocked {
			status = cnst.StatusBlocked
		}
		if err := o.users.SetStatus(s, userID, status, !blocked); err != nil {
			return err
		}
		user.Status = status
		user.IsActive = !blocked

		expiry, rate, simUse, err := o.resolvePlan(s, user.PackageID, user.Service, user.SimultaneousUse)
		if err != nil {
			return err
		}
		user.ExpiresAt = expiry
		user.SimultaneousUse = simUse

		if blocked {
			return o.sync.Sync(s, o.syncInput(user, "", rate))
		}
		// unblock needs the cleartext back on the radcheck row; the bcrypt
		// hash cannot produce it, so a credential reset rides along
		password, err := GeneratePassword()
		if err != nil {
			return err
		}
		if user.PasswordHash, err = HashPassword(password); err != nil {
			return err
		}
		if err := o.users.Update(s, user); err != nil {
			return err
		}
		return o.sync.Unblock(s, o.syncInput(user, password, rate))
	})
	if err != nil {
		return err
	}

	typ := EventUserUnblocked
	if blocked {
		typ = EventUserBlocked
	}
	o.notifier.Notify(ctx, Event{Type: typ, TenantID: tenantID, Username: username})
	return nil
}

// ResetCredentials issues a fresh password and returns it exactly once.
func (o *Orchestrator) ResetCredentials(ctx context.Context, tenantID, userID string) (res *CreateUserResult, err error) {
	defer o.recordSync(tenantID, o.now(), &err)
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	password, err := GeneratePassword()
	if err != nil {
		return nil, err
	}

	var user *subscriber.NetworkUser
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		if user, err = o.users.Get(s, userID); err != nil {
			return err
		}
		if user.PasswordHash, err = HashPassword(password); err != nil {
			return err
		}
		if err := o.users.Update(s, user); err != nil {
			return err
		}
		_, rate, _, err := o.resolvePlan(s, user.PackageID, user.Service, user.SimultaneousUse)
		if err != nil {
			return err
		}
		return o.sync.Sync(s, o.syncInput(user, password, rate))
	})
	if err != nil {
		return nil, err
	}

	o.notifier.Notify(ctx, Event{Type: EventUserUpdated, TenantID: tenantID, Username: user.Username})
	return &CreateUserResult{User: user, Password: password}, nil
}

// resolvePlan folds the subscriber's package into expiry, rate limit and
// session cap. No package means no expiry and defaults. A typed package
// only attaches to accounts of the matching service.
func (o *Orchestrator) resolvePlan(s *tenant.Scope, packageID, service string, simUse int) (*time.Time, string, int, error) {
	if packageID == "" {
		if simUse <= 0 {
			simUse = 1
		}
		return nil, "", simUse, nil
	}
	pkg, err := o.users.GetPackage(s, packageID)
	if err != nil {
		return nil, "", 0, err
	}
	if pkg.Type != "" && pkg.Type != service {
		return nil, "", 0, errorx.New(errorx.KindInvalidArgument,
			fmt.Sprintf("package %q is a %s plan and cannot serve a %s account", pkg.Name, pkg.Type, service))
	}
	expiry := radius.ComputeExpiry(pkg.Validity, o.now())
	rate := radius.RateLimit(pkg.DownloadSpeed, pkg.UploadSpeed)
	if simUse <= 0 {
		simUse = pkg.SimultaneousUse
	}
	if simUse <= 0 {
		simUse = 1
	}
	return &expiry, rate, simUse, nil
}

func (o *Orchestrator) syncInput(u *subscriber.NetworkUser, password, rate string) radius.SyncInput {
	return radius.SyncInput{
		Username:        u.Username,
		Password:        password,
		TenantID:        u.TenantID,
		Service:         u.Service,
		ExpiresAt:       u.ExpiresAt,
		RateLimit:       rate,
		SimultaneousUse: u.SimultaneousUse,
		Active:          u.IsActive,
		Status:          u.Status,
	}
}

// ConfigureServiceInput describes a router service rollout request.
type ConfigureServiceInput struct {
	RouterID    string
	ServiceType string
	Interfaces  []string
}

// ConfigureRouterService allocates network resources, renders and validates
// the script, writes the service as pending and enqueues its deployment.
// The committed state survives a failed rollout; the deployment status
// records the lag until an operator retriggers.
func (o *Orchestrator) ConfigureRouterService(ctx context.Context, tenantID string, in ConfigureServiceInput) (*router.RouterService, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if in.ServiceType != cnst.ServiceHotspot && in.ServiceType != cnst.ServicePPPoE {
		return nil, errorx.New(errorx.KindInvalidArgument, fmt.Sprintf("unsupported service type %q", in.ServiceType))
	}
	if len(in.Interfaces) == 0 {
		return nil, errorx.New(errorx.KindInvalidArgument, "at least one interface is required")
	}
	for _, name := range in.Interfaces {
		if !script.IfaceNameOK(name) {
			return nil, errorx.New(errorx.KindInvalidArgument, fmt.Sprintf("invalid interface name %q", name))
		}
	}

	var svc *router.RouterService
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		if _, err := o.routers.GetRouter(s, in.RouterID); err != nil {
			return err
		}
		pool, err := o.pools.GetOrCreateServicePool(s, tenantID, in.ServiceType)
		if err != nil {
			return err
		}
		vlan, err := o.pools.AssignVlan(s, tenantID, in.ServiceType)
		if err != nil {
			return err
		}

		services := make(map[string]string, len(in.Interfaces))
		configs := make(map[string]script.InterfaceConfig, len(in.Interfaces))
		for _, name := range in.Interfaces {
			services[name] = in.ServiceType
			configs[name] = script.InterfaceConfig{
				RangeStart: pool.RangeStart,
				RangeEnd:   pool.RangeEnd,
				DNSPrimary: pool.DNSPrimary,
			}
		}
		scr, err := o.builder.ServiceScript(in.Interfaces, services, configs)
		if err != nil {
			return err
		}
		text := script.Render(scr)
		if err := script.Validate(text); err != nil {
			return err
		}

		encoded, err := json.Marshal(in.Interfaces)
		if err != nil {
			return err
		}
		svc = &router.RouterService{
			ID:               uuid.NewString(),
			TenantID:         tenantID,
			RouterID:         in.RouterID,
			ServiceType:      in.ServiceType,
			PoolID:           pool.ID,
			VlanID:           vlan.VlanID,
			Interfaces:       string(encoded),
			Script:           text,
			DeploymentStatus: cnst.DeployPending,
		}
		return o.routers.CreateService(s, svc)
	})
	if err != nil {
		return nil, err
	}

	if o.queue != nil {
		if err := o.queue.Enqueue(ctx, deploy.Job{TenantID: tenantID, Schema: schema, ServiceID: svc.ID}); err != nil {
			o.logger.Error("cannot enqueue deployment",
				zap.String("service_id", svc.ID),
				zap.Error(err))
		}
	}
	return svc, nil
}

// DeployService retriggers a rollout: asynchronously through the queue, or
// synchronously when the caller wants the result in-line. Either way the
// service returns to pending first so the attempt starts clean.
func (o *Orchestrator) DeployService(ctx context.Context, tenantID, serviceID string, synchronous bool) error {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		return o.routers.ResetPending(s, serviceID)
	}); err != nil {
		return err
	}

	if synchronous && o.deployer != nil {
		err := o.deployer.Deploy(ctx, deploy.Job{TenantID: tenantID, Schema: schema, ServiceID: serviceID})
		o.notifier.Notify(ctx, Event{
			Type: EventDeployFinished, TenantID: tenantID, ServiceID: serviceID,
			Status: deployOutcome(err),
		})
		return err
	}
	if o.queue == nil {
		return fmt.Errorf("no deployment queue configured")
	}
	return o.queue.Enqueue(ctx, deploy.Job{TenantID: tenantID, Schema: schema, ServiceID: serviceID})
}

// ServiceStatus returns the deployment state for polling.
func (o *Orchestrator) ServiceStatus(ctx context.Context, tenantID, serviceID string) (*router.RouterService, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var svc *router.RouterService
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		svc, err = o.routers.GetService(s, serviceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// GetNetworkUser fetches one subscriber.
func (o *Orchestrator) GetNetworkUser(ctx context.Context, tenantID, userID string) (*subscriber.NetworkUser, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var user *subscriber.NetworkUser
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		user, err = o.users.Get(s, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListNetworkUsers lists the tenant's subscribers.
func (o *Orchestrator) ListNetworkUsers(ctx context.Context, tenantID string) ([]*subscriber.NetworkUser, error) {
	schema, err := o.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var users []*subscriber.NetworkUser
	err = tenant.RunInSchema(ctx, o.db, schema, tenantID, func(s *tenant.Scope) error {
		users, err = o.users.List(s, tenantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func deployOutcome(err error) string {
	if err != nil {
		return cnst.DeployFailed
	}
	return cnst.DeployDeployed
}
