package provisioning

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/common/config"
	"github.com/traidnet/wificore/internal/common/errorx"
	"github.com/traidnet/wificore/internal/deploy"
	"github.com/traidnet/wificore/internal/ipam"
	"github.com/traidnet/wificore/internal/radius"
	"github.com/traidnet/wificore/internal/router"
	"github.com/traidnet/wificore/internal/script"
	"github.com/traidnet/wificore/internal/subscriber"
	"github.com/traidnet/wificore/internal/tenant"
)

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []deploy.Job
	err  error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, job deploy.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeDeployer struct {
	calls []deploy.Job
	err   error
}

func (f *fakeDeployer) Deploy(_ context.Context, job deploy.Job) error {
	f.calls = append(f.calls, job)
	return f.err
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeNotifier) Notify(_ context.Context, e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeNotifier) last(t *testing.T) Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.events)
	return f.events[len(f.events)-1]
}

type orchEnv struct {
	db       *gorm.DB
	orch     *Orchestrator
	queue    *fakeEnqueuer
	deployer *fakeDeployer
	notifier *fakeNotifier
}

const (
	testTenantID = "t-0001"
	testSchema   = "ts_0011aabbccdd"
)

func newOrchEnv(t *testing.T) *orchEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tenant.Tenant{},
		&subscriber.NetworkUser{}, &subscriber.Package{},
		&ipam.Pool{}, &ipam.ServiceVlan{},
		&router.Router{}, &router.RouterService{},
		&radius.RadCheck{}, &radius.RadReply{}, &radius.UserSchemaMapping{},
	))
	require.NoError(t, db.Create(&tenant.Tenant{
		ID: testTenantID, Name: "Test ISP", SchemaName: testSchema,
		SchemaCreated: true, IsActive: true,
	}).Error)

	logger := zap.NewNop()
	queue := &fakeEnqueuer{}
	deployer := &fakeDeployer{}
	notifier := &fakeNotifier{}
	builder := script.NewBuilder(logger, config.RadiusConfig{
		ServerHost: "10.0.0.5", Secret: "radsecret", PortalURL: "http://portal.test",
	})
	cipher, err := router.NewCipher("test-secret")
	require.NoError(t, err)
	return &orchEnv{
		db:       db,
		orch:     NewOrchestrator(logger, db, builder, cipher, queue, deployer, notifier),
		queue:    queue,
		deployer: deployer,
		notifier: notifier,
	}
}

func (e *orchEnv) inScope(t *testing.T, fn func(*tenant.Scope)) {
	t.Helper()
	require.NoError(t, tenant.RunInSchema(context.Background(), e.db, testSchema, testTenantID, func(s *tenant.Scope) error {
		fn(s)
		return nil
	}))
}

func (e *orchEnv) seedPackage(t *testing.T) *subscriber.Package {
	t.Helper()
	pkg := &subscriber.Package{
		ID: "pkg-1", TenantID: testTenantID, Name: "Home 10M",
		Validity: "30 days", DownloadSpeed: "10M", UploadSpeed: "5M",
		SimultaneousUse: 2, IsActive: true,
	}
	e.inScope(t, func(s *tenant.Scope) {
		require.NoError(t, subscriber.NewStore().CreatePackage(s, pkg))
	})
	return pkg
}

func (e *orchEnv) seedRouter(t *testing.T) *router.Router {
	t.Helper()
	r := &router.Router{
		ID: "r1", TenantID: testTenantID, Name: "edge-1",
		IPAddress: "10.0.0.2", Username: "api", APIPort: 8728,
	}
	e.inScope(t, func(s *tenant.Scope) {
		require.NoError(t, router.NewStore().CreateRouter(s, r))
	})
	return r
}

func (e *orchEnv) checkRows(t *testing.T, username string) []radius.RadCheck {
	t.Helper()
	var rows []radius.RadCheck
	require.NoError(t, e.db.Where("username = ?", username).Find(&rows).Error)
	return rows
}

func (e *orchEnv) replyRows(t *testing.T, username string) []radius.RadReply {
	t.Helper()
	var rows []radius.RadReply
	require.NoError(t, e.db.Where("username = ?", username).Find(&rows).Error)
	return rows
}

func TestCreateNetworkUser(t *testing.T) {
	env := newOrchEnv(t)
	env.seedPackage(t)
	ctx := context.Background()

	res, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username:  "alice",
		Password:  "wifi1234",
		FullName:  "Alice A",
		Service:   cnst.ServicePPPoE,
		PackageID: "pkg-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "wifi1234", res.Password)
	assert.Equal(t, cnst.StatusActive, res.User.Status)
	require.NotNil(t, res.User.ExpiresAt)
	assert.Equal(t, 2, res.User.SimultaneousUse)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("wifi1234")))

	checks := env.checkRows(t, "alice")
	attrs := make(map[string]string, len(checks))
	for _, c := range checks {
		attrs[c.Attribute] = c.Value
	}
	assert.Equal(t, "wifi1234", attrs[cnst.AttrCleartextPassword])
	assert.Contains(t, attrs, cnst.AttrNTPassword)
	assert.Contains(t, attrs, cnst.AttrExpiration)
	assert.Equal(t, "2", attrs[cnst.AttrSimultaneousUse])
	assert.NotContains(t, attrs, cnst.AttrAuthType)

	replies := env.replyRows(t, "alice")
	reply := make(map[string]string, len(replies))
	for _, r := range replies {
		reply[r.Attribute] = r.Value
	}
	assert.Equal(t, cnst.ServiceTypeFramedUser, reply[cnst.AttrServiceType])
	assert.Equal(t, "10M/5M", reply[cnst.AttrRateLimit])
	assert.Equal(t, testTenantID, reply[cnst.AttrTenantID])

	var mapping radius.UserSchemaMapping
	require.NoError(t, env.db.Where("username = ?", "alice").First(&mapping).Error)
	assert.Equal(t, testSchema, mapping.SchemaName)
	assert.True(t, mapping.IsActive)

	ev := env.notifier.last(t)
	assert.Equal(t, EventUserCreated, ev.Type)
	assert.Equal(t, "alice", ev.Username)
}

func TestCreateNetworkUserHotspotDefaults(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	res, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Phone:   "+254 712 345678",
		Service: cnst.ServiceHotspot,
	})
	require.NoError(t, err)
	assert.Equal(t, "254712345678", res.User.Username)
	assert.Len(t, res.Password, generatedPasswordLength)

	replies := env.replyRows(t, "254712345678")
	var serviceType string
	for _, r := range replies {
		if r.Attribute == cnst.AttrServiceType {
			serviceType = r.Value
		}
	}
	assert.Equal(t, cnst.ServiceTypeLoginUser, serviceType)
}

func TestCreateNetworkUserDuplicateRollsBack(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	_, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "bob", Password: "first123", Service: cnst.ServicePPPoE,
	})
	require.NoError(t, err)
	before := env.checkRows(t, "bob")

	_, err = env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "bob", Password: "second99", Service: cnst.ServicePPPoE,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errorx.ErrDuplicateUsername))

	// the failed attempt must not have touched the first account's rows
	after := env.checkRows(t, "bob")
	require.Equal(t, len(before), len(after))
	for _, c := range after {
		if c.Attribute == cnst.AttrCleartextPassword {
			assert.Equal(t, "first123", c.Value)
		}
	}
}

func TestCreateNetworkUserUnknownTenant(t *testing.T) {
	env := newOrchEnv(t)
	_, err := env.orch.CreateNetworkUser(context.Background(), "nope", CreateUserInput{
		Username: "x", Service: cnst.ServicePPPoE,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errorx.ErrTenantNotProvisioned))
}

func TestUpdateNetworkUser(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	res, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "carol", Password: "orig1234", Service: cnst.ServicePPPoE,
	})
	require.NoError(t, err)

	t.Run("metadata only keeps password", func(t *testing.T) {
		name := "Carol C"
		updated, err := env.orch.UpdateNetworkUser(ctx, testTenantID, res.User.ID, UpdateUserInput{
			FullName: &name,
		})
		require.NoError(t, err)
		assert.Equal(t, "Carol C", updated.FullName)

		for _, c := range env.checkRows(t, "carol") {
			if c.Attribute == cnst.AttrCleartextPassword {
				assert.Equal(t, "orig1234", c.Value)
			}
		}
	})

	t.Run("new password triggers full resync", func(t *testing.T) {
		pw := "fresh567"
		updated, err := env.orch.UpdateNetworkUser(ctx, testTenantID, res.User.ID, UpdateUserInput{
			Password: &pw,
		})
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("fresh567")))

		var found bool
		for _, c := range env.checkRows(t, "carol") {
			if c.Attribute == cnst.AttrCleartextPassword {
				found = true
				assert.Equal(t, "fresh567", c.Value)
			}
		}
		assert.True(t, found)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := env.orch.UpdateNetworkUser(ctx, testTenantID, "absent", UpdateUserInput{})
		require.Error(t, err)
		assert.Equal(t, errorx.KindNotFound, errorx.KindOf(err))
	})
}

func TestBlockUnblockNetworkUser(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	res, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "dave", Password: "dave1234", Service: cnst.ServicePPPoE,
	})
	require.NoError(t, err)
	oldHash := res.User.PasswordHash

	require.NoError(t, env.orch.BlockNetworkUser(ctx, testTenantID, res.User.ID))

	checks := env.checkRows(t, "dave")
	require.Len(t, checks, 1, "blocked user keeps exactly one check row")
	assert.Equal(t, cnst.AttrAuthType, checks[0].Attribute)
	assert.Equal(t, cnst.AuthReject, checks[0].Value)
	assert.Empty(t, env.replyRows(t, "dave"))
	assert.Equal(t, EventUserBlocked, env.notifier.last(t).Type)

	var blocked subscriber.NetworkUser
	require.NoError(t, env.db.First(&blocked, "id = ?", res.User.ID).Error)
	assert.Equal(t, cnst.StatusBlocked, blocked.Status)
	assert.False(t, blocked.IsActive)

	require.NoError(t, env.orch.UnblockNetworkUser(ctx, testTenantID, res.User.ID))

	attrs := make(map[string]string)
	for _, c := range env.checkRows(t, "dave") {
		attrs[c.Attribute] = c.Value
	}
	assert.NotContains(t, attrs, cnst.AttrAuthType)
	assert.Contains(t, attrs, cnst.AttrCleartextPassword)
	assert.NotEmpty(t, env.replyRows(t, "dave"))
	assert.Equal(t, EventUserUnblocked, env.notifier.last(t).Type)

	// the stored hash cannot yield the cleartext, so unblocking rotates it
	var unblocked subscriber.NetworkUser
	require.NoError(t, env.db.First(&unblocked, "id = ?", res.User.ID).Error)
	assert.NotEqual(t, oldHash, unblocked.PasswordHash)
	assert.Equal(t, cnst.StatusActive, unblocked.Status)
	assert.True(t, unblocked.IsActive)
}

func TestDeleteNetworkUser(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	res, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "erin", Password: "erin1234", Service: cnst.ServiceHotspot,
	})
	require.NoError(t, err)

	require.NoError(t, env.orch.DeleteNetworkUser(ctx, testTenantID, res.User.ID))

	assert.Empty(t, env.checkRows(t, "erin"))
	assert.Empty(t, env.replyRows(t, "erin"))
	var mappings int64
	require.NoError(t, env.db.Model(&radius.UserSchemaMapping{}).Where("username = ?", "erin").Count(&mappings).Error)
	assert.Zero(t, mappings)
	var users int64
	require.NoError(t, env.db.Model(&subscriber.NetworkUser{}).Where("id = ?", res.User.ID).Count(&users).Error)
	assert.Zero(t, users)
	assert.Equal(t, EventUserDeleted, env.notifier.last(t).Type)
}

func TestResetCredentials(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	res, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "frank", Password: "frank123", Service: cnst.ServicePPPoE,
	})
	require.NoError(t, err)

	reset, err := env.orch.ResetCredentials(ctx, testTenantID, res.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "frank123", reset.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reset.User.PasswordHash), []byte(reset.Password)))

	for _, c := range env.checkRows(t, "frank") {
		if c.Attribute == cnst.AttrCleartextPassword {
			assert.Equal(t, reset.Password, c.Value)
		}
	}
}

func TestConfigureRouterService(t *testing.T) {
	env := newOrchEnv(t)
	env.seedRouter(t)
	ctx := context.Background()

	svc, err := env.orch.ConfigureRouterService(ctx, testTenantID, ConfigureServiceInput{
		RouterID:    "r1",
		ServiceType: cnst.ServiceHotspot,
		Interfaces:  []string{"ether3", "ether4"},
	})
	require.NoError(t, err)
	assert.Equal(t, cnst.DeployPending, svc.DeploymentStatus)
	assert.NotEmpty(t, svc.PoolID)
	assert.GreaterOrEqual(t, svc.VlanID, 100)
	assert.Contains(t, svc.Script, "/ip hotspot")
	assert.Contains(t, svc.Interfaces, "ether3")

	// the pool was auto-allocated for the hotspot base network
	var pool ipam.Pool
	require.NoError(t, env.db.First(&pool, "id = ?", svc.PoolID).Error)
	assert.Equal(t, cnst.ServiceHotspot, pool.ServiceType)
	assert.Contains(t, pool.Network, "192.168.")

	require.Len(t, env.queue.jobs, 1)
	assert.Equal(t, deploy.Job{TenantID: testTenantID, Schema: testSchema, ServiceID: svc.ID}, env.queue.jobs[0])
}

func TestConfigureRouterServiceRejectsBadInput(t *testing.T) {
	env := newOrchEnv(t)
	env.seedRouter(t)
	ctx := context.Background()

	_, err := env.orch.ConfigureRouterService(ctx, testTenantID, ConfigureServiceInput{
		RouterID: "r1", ServiceType: "bridge", Interfaces: []string{"ether3"},
	})
	assert.Error(t, err)

	_, err = env.orch.ConfigureRouterService(ctx, testTenantID, ConfigureServiceInput{
		RouterID: "r1", ServiceType: cnst.ServicePPPoE,
	})
	assert.Error(t, err)

	_, err = env.orch.ConfigureRouterService(ctx, testTenantID, ConfigureServiceInput{
		RouterID: "r1", ServiceType: cnst.ServicePPPoE, Interfaces: []string{"ether3; /system reset"},
	})
	assert.Error(t, err)

	_, err = env.orch.ConfigureRouterService(ctx, testTenantID, ConfigureServiceInput{
		RouterID: "ghost", ServiceType: cnst.ServicePPPoE, Interfaces: []string{"ether3"},
	})
	require.Error(t, err)
	assert.Equal(t, errorx.KindNotFound, errorx.KindOf(err))

	assert.Empty(t, env.queue.jobs)
}

func TestConfigureRouterServiceEnqueueFailureKeepsService(t *testing.T) {
	env := newOrchEnv(t)
	env.seedRouter(t)
	env.queue.err = errors.New("stream down")
	ctx := context.Background()

	svc, err := env.orch.ConfigureRouterService(ctx, testTenantID, ConfigureServiceInput{
		RouterID: "r1", ServiceType: cnst.ServicePPPoE, Interfaces: []string{"ether3"},
	})
	require.NoError(t, err, "a dead queue must not lose the committed service")
	assert.Equal(t, cnst.DeployPending, svc.DeploymentStatus)
}

func TestDeployService(t *testing.T) {
	env := newOrchEnv(t)
	env.seedRouter(t)
	ctx := context.Background()

	svc, err := env.orch.ConfigureRouterService(ctx, testTenantID, ConfigureServiceInput{
		RouterID: "r1", ServiceType: cnst.ServicePPPoE, Interfaces: []string{"ether3"},
	})
	require.NoError(t, err)
	env.queue.jobs = nil

	t.Run("asynchronous", func(t *testing.T) {
		require.NoError(t, env.orch.DeployService(ctx, testTenantID, svc.ID, false))
		require.Len(t, env.queue.jobs, 1)
		assert.Equal(t, svc.ID, env.queue.jobs[0].ServiceID)
		assert.Empty(t, env.deployer.calls)
	})

	t.Run("synchronous success", func(t *testing.T) {
		require.NoError(t, env.orch.DeployService(ctx, testTenantID, svc.ID, true))
		require.Len(t, env.deployer.calls, 1)
		assert.Equal(t, deploy.Job{TenantID: testTenantID, Schema: testSchema, ServiceID: svc.ID}, env.deployer.calls[0])

		ev := env.notifier.last(t)
		assert.Equal(t, EventDeployFinished, ev.Type)
		assert.Equal(t, cnst.DeployDeployed, ev.Status)
	})

	t.Run("synchronous failure reported", func(t *testing.T) {
		env.deployer.err = errorx.ErrDeviceUnreachable
		err := env.orch.DeployService(ctx, testTenantID, svc.ID, true)
		require.Error(t, err)
		assert.Equal(t, cnst.DeployFailed, env.notifier.last(t).Status)
	})

	t.Run("unknown service", func(t *testing.T) {
		err := env.orch.DeployService(ctx, testTenantID, "ghost", false)
		require.Error(t, err)
		assert.Equal(t, errorx.KindNotFound, errorx.KindOf(err))
	})
}

func TestServiceStatus(t *testing.T) {
	env := newOrchEnv(t)
	env.seedRouter(t)
	ctx := context.Background()

	svc, err := env.orch.ConfigureRouterService(ctx, testTenantID, ConfigureServiceInput{
		RouterID: "r1", ServiceType: cnst.ServiceHotspot, Interfaces: []string{"ether5"},
	})
	require.NoError(t, err)

	got, err := env.orch.ServiceStatus(ctx, testTenantID, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, cnst.DeployPending, got.DeploymentStatus)
}

func TestListNetworkUsers(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	for _, name := range []string{"u1", "u2", "u3"} {
		_, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
			Username: name, Password: "pass" + name, Service: cnst.ServicePPPoE,
		})
		require.NoError(t, err)
	}

	users, err := env.orch.ListNetworkUsers(ctx, testTenantID)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	one, err := env.orch.GetNetworkUser(ctx, testTenantID, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, users[0].Username, one.Username)
}

func TestPlanExpiryFollowsPackage(t *testing.T) {
	env := newOrchEnv(t)
	env.seedPackage(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	env.orch.now = func() time.Time { return base }

	res, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "gina", Password: "gina1234", Service: cnst.ServicePPPoE, PackageID: "pkg-1",
	})
	require.NoError(t, err)
	require.NotNil(t, res.User.ExpiresAt)
	assert.Equal(t, base.Add(30*24*time.Hour), *res.User.ExpiresAt)
}

func TestCreateNetworkUserRejectsMismatchedPackage(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	pkg := &subscriber.Package{
		ID: "pkg-hs", TenantID: testTenantID, Name: "Hotspot Daily",
		Type: cnst.ServiceHotspot, Validity: "1 days", SimultaneousUse: 1, IsActive: true,
	}
	env.inScope(t, func(s *tenant.Scope) {
		require.NoError(t, subscriber.NewStore().CreatePackage(s, pkg))
	})

	// a hotspot plan on a pppoe account must not provision anything
	_, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "mismatch", Password: "pass1234",
		Service: cnst.ServicePPPoE, PackageID: "pkg-hs",
	})
	require.Error(t, err)
	assert.Equal(t, errorx.KindInvalidArgument, errorx.KindOf(err))
	assert.Empty(t, env.checkRows(t, "mismatch"))
	var users int64
	require.NoError(t, env.db.Model(&subscriber.NetworkUser{}).Count(&users).Error)
	assert.Zero(t, users, "rejected user must roll back")

	// the matching service attaches cleanly
	res, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "hs-user", Password: "pass1234",
		Service: cnst.ServiceHotspot, PackageID: "pkg-hs",
	})
	require.NoError(t, err)
	require.NotNil(t, res.User.ExpiresAt)
}

func TestUpdateNetworkUserRejectsMismatchedPackage(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	env.inScope(t, func(s *tenant.Scope) {
		require.NoError(t, subscriber.NewStore().CreatePackage(s, &subscriber.Package{
			ID: "pkg-hs", TenantID: testTenantID, Name: "Hotspot Daily",
			Type: cnst.ServiceHotspot, Validity: "1 days", IsActive: true,
		}))
	})

	res, err := env.orch.CreateNetworkUser(ctx, testTenantID, CreateUserInput{
		Username: "ppp-user", Password: "pass1234", Service: cnst.ServicePPPoE,
	})
	require.NoError(t, err)

	hs := "pkg-hs"
	_, err = env.orch.UpdateNetworkUser(ctx, testTenantID, res.User.ID, UpdateUserInput{
		PackageID: &hs,
	})
	require.Error(t, err)
	assert.Equal(t, errorx.KindInvalidArgument, errorx.KindOf(err))

	// the rejected switch rolled back with the transaction
	got, err := env.orch.GetNetworkUser(ctx, testTenantID, res.User.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PackageID)
}

func TestCreatePackageValidatesType(t *testing.T) {
	env := newOrchEnv(t)
	ctx := context.Background()

	_, err := env.orch.CreatePackage(ctx, testTenantID, CreatePackageInput{
		Name: "Weird", Type: "bridge",
	})
	require.Error(t, err)
	assert.Equal(t, errorx.KindInvalidArgument, errorx.KindOf(err))

	pkg, err := env.orch.CreatePackage(ctx, testTenantID, CreatePackageInput{
		Name: "PPPoE Home", Type: cnst.ServicePPPoE, Validity: "30 days",
	})
	require.NoError(t, err)
	assert.Equal(t, cnst.ServicePPPoE, pkg.Type)
}
