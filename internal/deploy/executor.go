package deploy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/common/cnst"
	"github.com/traidnet/wificore/internal/common/config"
	"github.com/traidnet/wificore/internal/common/errorx"
	"github.com/traidnet/wificore/internal/router"
	"github.com/traidnet/wificore/internal/routeros"
	"github.com/traidnet/wificore/internal/script"
	"github.com/traidnet/wificore/internal/tenant"
	"github.com/traidnet/wificore/pkg/metrics"
	"github.com/traidnet/wificore/pkg/trace"
)

// freeSpaceMargin is the minimum free storage a device must report before a
// script is uploaded.
const freeSpaceMargin = 5 * 1024 * 1024

// portalFileName is where RouterOS serves the hotspot login page from.
const portalFileName = "hotspot/login.html"

// Executor applies a rendered script to a device and tracks the deployment
// state machine. Each persistence step commits in its own transaction so
// the recorded state is truthful even when the process dies mid-rollout.
type Executor struct {
	logger     *zap.Logger
	cfg        config.RouterConfig
	radius     config.RadiusConfig
	db         *gorm.DB
	store      *router.Store
	cipher     *router.Cipher
	dial       routeros.Dialer
	discoverer *Discoverer
	metrics    *metrics.Metrics
}

// WithMetrics attaches a metrics registry; deployments are then counted
// by outcome.
func (e *Executor) WithMetrics(m *metrics.Metrics) *Executor {
	e.metrics = m
	return e
}

func NewExecutor(logger *zap.Logger, cfg config.RouterConfig, radius config.RadiusConfig, db *gorm.DB, cipher *router.Cipher) *Executor {
	return &Executor{
		logger:     logger.Named("deploy"),
		cfg:        cfg,
		radius:     radius,
		db:         db,
		store:      router.NewStore(),
		cipher:     cipher,
		dial:       routeros.Dial,
		discoverer: NewDiscoverer(logger, cfg),
	}
}

// Deploy rolls the service's stored script out to its router. The service
// ends in deployed or failed, never stuck in progress: a timeout or crash
// before the final state commit is visible as in_progress with a stale
// updated_at, and re-running Deploy starts clean.
func (e *Executor) Deploy(ctx context.Context, job Job) (err error) {
	scope := trace.Tracer("deploy").Start(ctx, "deploy.apply").
		WithAttrs(
			attribute.String("service_id", job.ServiceID),
			attribute.String("tenant_id", job.TenantID),
		)
	ctx = scope.Ctx
	defer func() { scope.RecordError(err).End() }()

	var (
		svc *router.RouterService
		rtr *router.Router
	)
	err = tenant.RunInSchema(ctx, e.db, job.Schema, job.TenantID, func(s *tenant.Scope) error {
		var err error
		if svc, err = e.store.GetService(s, job.ServiceID); err != nil {
			return err
		}
		rtr, err = e.store.GetRouter(s, svc.RouterID)
		return err
	})
	if err != nil {
		return err
	}

	if e.metrics != nil {
		start := time.Now()
		e.metrics.DeployStart(svc.ServiceType)
		defer func() {
			status := "deployed"
			if err != nil {
				status = "failed"
			}
			e.metrics.DeployDone(svc.ServiceType, status, start)
		}()
	}

	if err := script.Validate(svc.Script); err != nil {
		e.fail(ctx, job, err)
		return err
	}

	// in_progress is committed before the first network call
	if err := tenant.RunInSchema(ctx, e.db, job.Schema, job.TenantID, func(s *tenant.Scope) error {
		return e.store.MarkInProgress(s, job.ServiceID)
	}); err != nil {
		return err
	}

	if err := e.apply(ctx, job, svc, rtr); err != nil {
		e.fail(ctx, job, err)
		return err
	}

	return tenant.RunInSchema(ctx, e.db, job.Schema, job.TenantID, func(s *tenant.Scope) error {
		return e.store.MarkDeployed(s, job.ServiceID)
	})
}

// fail records the failure on a fresh context so the reason is persisted
// even when the deployment context already expired.
func (e *Executor) fail(ctx context.Context, job Job, cause error) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := tenant.RunInSchema(persistCtx, e.db, job.Schema, job.TenantID, func(s *tenant.Scope) error {
		return e.store.MarkFailed(s, job.ServiceID, cause.Error())
	}); err != nil {
		e.logger.Error("cannot persist deployment failure",
			zap.String("service_id", job.ServiceID),
			zap.Error(err))
	}
}

func (e *Executor) apply(ctx context.Context, job Job, svc *router.RouterService, rtr *router.Router) error {
	password, err := e.cipher.Decrypt(rtr.EncryptedPassword)
	if err != nil {
		// halt outright; a blank secret must never go on the wire
		return err
	}

	dev, err := e.connect(ctx, job, rtr, password)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := e.reconcileAddress(ctx, job, rtr, &dev, password); err != nil {
		return err
	}

	free, err := dev.FreeSpace()
	if err != nil {
		return err
	}
	if free <= freeSpaceMargin {
		return fmt.Errorf("device has %d bytes free, below the %d byte margin", free, freeSpaceMargin)
	}

	prefix := "svc_" + svc.ID + "_"
	stale, err := dev.ListFiles(prefix)
	if err != nil {
		return err
	}
	for _, name := range stale {
		if err := dev.RemoveFile(name); err != nil {
			return err
		}
	}

	fileName := prefix + uuid.NewString()[:8] + ".rsc"
	if err := dev.UploadFile(fileName, svc.Script); err != nil {
		return err
	}
	readBack, err := dev.FileContents(fileName)
	if err != nil {
		return err
	}
	if readBack != svc.Script {
		return fmt.Errorf("uploaded file %s does not match the script", fileName)
	}
	if err := dev.Import(fileName); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if err := dev.RemoveFile(fileName); err != nil {
		e.logger.Warn("cannot remove imported script file",
			zap.String("file", fileName),
			zap.Error(err))
	}

	if svc.ServiceType == cnst.ServiceHotspot {
		if err := e.uploadPortalPage(ctx, job, &dev); err != nil {
			return err
		}
	}

	e.logger.Info("service deployed",
		zap.String("service_id", svc.ID),
		zap.String("router_id", rtr.ID))
	return nil
}

// uploadPortalPage puts the captive-portal login page on the device so
// hotspot clients land on the configured portal. Without a portal URL the
// device keeps its stock login page.
func (e *Executor) uploadPortalPage(ctx context.Context, job Job, dev *routeros.Device) error {
	if e.radius.PortalURL == "" {
		return nil
	}
	page, err := script.RenderPortalPage(script.PortalData{
		TenantName: e.tenantName(ctx, job.TenantID),
		PortalURL:  e.radius.PortalURL,
	})
	if err != nil {
		return fmt.Errorf("render portal page: %w", err)
	}
	if err := dev.UploadFile(portalFileName, page); err != nil {
		return fmt.Errorf("upload portal page: %w", err)
	}
	e.logger.Info("portal page uploaded",
		zap.String("tenant_id", job.TenantID),
		zap.String("portal_url", e.radius.PortalURL))
	return nil
}

func (e *Executor) tenantName(ctx context.Context, tenantID string) string {
	var tn tenant.Tenant
	err := e.db.WithContext(ctx).First(&tn, "id = ?", tenantID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			e.logger.Warn("cannot look up tenant name", zap.String("tenant_id", tenantID), zap.Error(err))
		}
		return ""
	}
	return tn.Name
}

// connect dials the stored address, retrying transient failures with
// backoff and falling back to discovery when the device has moved.
func (e *Executor) connect(ctx context.Context, job Job, rtr *router.Router, password string) (routeros.Device, error) {
	address := rtr.IPAddress
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return routeros.Device{}, err
		}
		if attempt > 0 {
			select {
			case <-time.After(e.cfg.RetryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return routeros.Device{}, ctx.Err()
			}
		}

		sess, err := e.dial(e.hostPort(rtr, address), rtr.Username, password, e.cfg.ConnectTimeout)
		if err == nil {
			return *routeros.NewDevice(sess), nil
		}
		lastErr = err
		if !errorx.Transient(err) {
			return routeros.Device{}, err
		}

		// the device may have moved; ask discovery before the next attempt
		if found, derr := e.discoverer.Discover(ctx, rtr.DNSName); derr == nil && found != address {
			e.logger.Info("retrying at discovered address",
				zap.String("router_id", rtr.ID),
				zap.String("address", found))
			address = found
		}
	}
	if address != rtr.IPAddress {
		// remember where we last looked even though the connect failed
		e.persistAddress(ctx, job, rtr, address)
	}
	return routeros.Device{}, lastErr
}

// reconcileAddress reads the device's primary address and, when it drifted
// from the stored one, updates the store and reconnects at the new address.
func (e *Executor) reconcileAddress(ctx context.Context, job Job, rtr *router.Router, dev *routeros.Device, password string) error {
	actual, err := dev.PrimaryAddress()
	if err != nil {
		return err
	}
	if actual == rtr.IPAddress || net.ParseIP(actual) == nil {
		return nil
	}
	e.logger.Info("device address drifted",
		zap.String("router_id", rtr.ID),
		zap.String("stored", rtr.IPAddress),
		zap.String("actual", actual))
	e.persistAddress(ctx, job, rtr, actual)

	sess, err := e.dial(e.hostPort(rtr, actual), rtr.Username, password, e.cfg.ConnectTimeout)
	if err != nil {
		return err
	}
	_ = dev.Close()
	*dev = *routeros.NewDevice(sess)
	return nil
}

func (e *Executor) persistAddress(ctx context.Context, job Job, rtr *router.Router, address string) {
	if err := tenant.RunInSchema(ctx, e.db, job.Schema, job.TenantID, func(s *tenant.Scope) error {
		return e.store.UpdateAddress(s, rtr.ID, address)
	}); err != nil {
		e.logger.Warn("cannot persist device address",
			zap.String("router_id", rtr.ID),
			zap.Error(err))
		return
	}
	rtr.IPAddress = address
}

// hostPort joins the address with the router's own API port, falling back
// to the configured default for devices registered without one.
func (e *Executor) hostPort(rtr *router.Router, address string) string {
	port := rtr.APIPort
	if port == 0 {
		port = e.cfg.APIPort
	}
	return net.JoinHostPort(address, rtrPort(port))
}

func rtrPort(p int) string {
	if p == 0 {
		p = 8728
	}
	return strconv.Itoa(p)
}
