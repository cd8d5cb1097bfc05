package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/traidnet/wificore/internal/apiserver/handler"
	"github.com/traidnet/wificore/internal/auth/jwt"
	"github.com/traidnet/wificore/internal/common/config"
	"github.com/traidnet/wificore/internal/deploy"
	"github.com/traidnet/wificore/internal/ipam"
	"github.com/traidnet/wificore/internal/provisioning"
	"github.com/traidnet/wificore/internal/radius"
	"github.com/traidnet/wificore/internal/router"
	"github.com/traidnet/wificore/internal/script"
	"github.com/traidnet/wificore/internal/subscriber"
	"github.com/traidnet/wificore/internal/tenant"
)

type stubQueue struct {
	jobs []deploy.Job
}

func (q *stubQueue) Enqueue(_ context.Context, job deploy.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type stubDeployer struct {
	err error
}

func (d *stubDeployer) Deploy(context.Context, deploy.Job) error { return d.err }

type apiEnv struct {
	srv      *gin.Engine
	db       *gorm.DB
	queue    *stubQueue
	deployer *stubDeployer
	admin    string
	operator string
}

const apiTenantID = "t-api-1"

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
		ID: apiTenantID, Name: "API Tenant", SchemaName: "ts_ffff00001111",
		SchemaCreated: true, IsActive: true,
	}).Error)

	logger := zap.NewNop()
	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: "this-is-a-very-long-secret-key-for-testing",
		Duration:  time.Hour,
	})
	require.NoError(t, err)

	cipher, err := router.NewCipher("api-test-secret")
	require.NoError(t, err)
	builder := script.NewBuilder(logger, config.RadiusConfig{ServerHost: "10.0.0.5", Secret: "rad"})
	queue := &stubQueue{}
	deployer := &stubDeployer{}
	orch := provisioning.NewOrchestrator(logger, db, builder, cipher, queue, deployer, nil)
	schemas := tenant.NewSchemaManager(db, logger,
		&subscriber.NetworkUser{}, &subscriber.Package{},
		&ipam.Pool{}, &ipam.ServiceVlan{},
		&router.Router{}, &router.RouterService{})

	h := handler.NewHandler(logger, db, orch, schemas, jwtService)
	srv := NewRouter(logger, db, h, jwtService, nil)

	admin, err := jwtService.GenerateToken("u-admin", "root", "", "admin")
	require.NoError(t, err)
	operator, err := jwtService.GenerateToken("u-op", "op", apiTenantID, "operator")
	require.NoError(t, err)

	return &apiEnv{srv: srv, db: db, queue: queue, deployer: deployer, admin: admin, operator: operator}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestAPIRequiresToken(t *testing.T) {
	env := newAPIEnv(t)
	w := env.do(t, http.MethodGet, "/api/network-users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNetworkUserEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/network-users", env.operator, gin.H{
		"username": "alice", "password": "wifi1234", "service": "pppoe",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	decode(t, w, &created)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "wifi1234", created.Password)

	w = env.do(t, http.MethodPost, "/api/network-users", env.operator, gin.H{
		"username": "alice", "password": "other999", "service": "pppoe",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// service must be pppoe or hotspot
	w = env.do(t, http.MethodPost, "/api/network-users", env.operator, gin.H{
		"username": "mallory", "service": "bridge",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/network-users", env.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	decode(t, w, &users)
	require.Len(t, users, 1)
	assert.NotContains(t, w.Body.String(), "passwordHash", "hashes never leave the API")

	w = env.do(t, http.MethodPost, "/api/network-users/"+created.ID+"/block", env.operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var checks []radius.RadCheck
	require.NoError(t, env.db.Where("username = ?", "alice").Find(&checks).Error)
	require.Len(t, checks, 1)
	assert.Equal(t, "Auth-Type", checks[0].Attribute)

	w = env.do(t, http.MethodPost, "/api/network-users/"+created.ID+"/unblock", env.operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/network-users/"+created.ID+"/reset-credentials", env.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reset struct {
		Password string `json:"password"`
	}
	decode(t, w, &reset)
	assert.NotEmpty(t, reset.Password)

	w = env.do(t, http.MethodDelete, "/api/network-users/"+created.ID, env.operator, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/network-users/"+created.ID, env.operator, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServiceEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/routers", env.operator, gin.H{
		"name": "edge-1", "ipAddress": "10.0.0.2", "username": "api", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rtr struct {
		ID string `json:"id"`
	}
	decode(t, w, &rtr)
	assert.NotContains(t, w.Body.String(), "secret", "credentials never leave the API")

	w = env.do(t, http.MethodPost, "/api/services", env.operator, gin.H{
		"routerId": rtr.ID, "serviceType": "hotspot", "interfaces": []string{"ether3"},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var svc struct {
		ID string `json:"id"`
	}
	decode(t, w, &svc)
	require.Len(t, env.queue.jobs, 1)

	w = env.do(t, http.MethodGet, "/api/services/"+svc.ID+"/status", env.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pending")

	w = env.do(t, http.MethodGet, "/api/routers/"+rtr.ID+"/services", env.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/services/"+svc.ID+"/deploy", env.operator, gin.H{"synchronous": true})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/services/"+svc.ID+"/deploy", env.operator, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = env.do(t, http.MethodGet, "/api/ip-pools", env.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pools []struct {
		Pool struct {
			ID string `json:"id"`
		} `json:"pool"`
		Utilization float64 `json:"utilization"`
	}
	decode(t, w, &pools)
	require.Len(t, pools, 1)

	w = env.do(t, http.MethodPost, "/api/ip-pools/"+pools[0].Pool.ID+"/expand", env.operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	// operators cannot reach the admin group
	w := env.do(t, http.MethodPost, "/api/tenants", env.operator, gin.H{"name": "Another ISP"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/tenants", env.admin, gin.H{"name": "Another ISP"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created tenant.Tenant
	decode(t, w, &created)
	assert.True(t, created.SchemaCreated)
	assert.True(t, tenant.ValidSchemaName(created.SchemaName))

	w = env.do(t, http.MethodPost, "/api/tenants", env.admin, gin.H{"name": "Another ISP"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/tenants", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tenants []tenant.Tenant
	decode(t, w, &tenants)
	assert.Len(t, tenants, 2)

	// mint an operator token for the new tenant and use it
	w = env.do(t, http.MethodPost, "/api/auth/tokens", env.admin, gin.H{
		"username": "newop", "tenantId": created.ID, "role": "operator",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok struct {
		Token string `json:"token"`
	}
	decode(t, w, &tok)

	w = env.do(t, http.MethodGet, "/api/network-users", tok.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// operator tokens must be tenant-scoped
	w = env.do(t, http.MethodPost, "/api/auth/tokens", env.admin, gin.H{
		"username": "newop", "role": "operator",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/tokens", env.admin, gin.H{
		"username": "newop", "tenantId": "ghost", "role": "operator",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
