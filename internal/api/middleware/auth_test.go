// 文件路径: internal/api/middleware/auth_test.go
// 模块说明: 这是 internal 模块里的 auth 中间件测试逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverlode/fleetpanel/internal/api/requestctx"
	"github.com/silverlode/fleetpanel/internal/auth/token"
	"github.com/silverlode/fleetpanel/internal/service"
)

type fakeNodeResolver struct {
	apiKey string
	nodeID int64
}

func (f *fakeNodeResolver) Heartbeat(_ context.Context, apiKey string) (*service.NodeView, error) {
	if apiKey != f.apiKey {
		return nil, service.ErrNotFound
	}
	return &service.NodeView{ID: f.nodeID}, nil
}

func newTestTokenManager(t *testing.T) *token.Manager {
	t.Helper()
	manager, err := token.NewManager(token.Options{
		SigningKey: []byte("middleware-test-key"),
		Issuer:     "fleetpanel",
		TTL:        time.Hour,
	})
	require.NoError(t, err)
	return manager
}

func TestOperatorGuardInjectsOperator(t *testing.T) {
	manager := newTestTokenManager(t)
	signed, _, err := manager.Issue("alpha", true)
	require.NoError(t, err)

	var seen service.Operator
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, found = requestctx.GetOperator(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	OperatorGuard(manager)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, found)
	assert.Equal(t, "alpha", seen.Username)
	assert.True(t, seen.IsSudo)
}

func TestOperatorGuardRejectsMissingHeader(t *testing.T) {
	manager := newTestTokenManager(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	OperatorGuard(manager)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestOperatorGuardRejectsForgedToken(t *testing.T) {
	manager := newTestTokenManager(t)
	forger, err := token.NewManager(token.Options{
		SigningKey: []byte("different-key"),
		Issuer:     "fleetpanel",
		TTL:        time.Hour,
	})
	require.NoError(t, err)
	signed, _, err := forger.Issue("alpha", true)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a forged token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	OperatorGuard(manager)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSudoGuardBlocksRegularOperator(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := SudoGuard()(next)

	req := httptest.NewRequest(http.MethodPost, "/api/admins", nil)
	op := service.Operator{Username: "alpha", IsSudo: false}
	req = req.WithContext(requestctx.WithOperator(req.Context(), op))
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admins", nil)
	op.IsSudo = true
	req = req.WithContext(requestctx.WithOperator(req.Context(), op))
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSudoGuardRequiresOperatorContext(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without operator identity")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admins", nil)
	rec := httptest.NewRecorder()
	SudoGuard()(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNodeGuardResolvesNodeID(t *testing.T) {
	resolver := &fakeNodeResolver{apiKey: "node-key-1", nodeID: 42}

	var seenID int64
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID, found = requestctx.GetNodeID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/node/usage", nil)
	req.Header.Set("X-Node-Key", "node-key-1")
	rec := httptest.NewRecorder()
	NodeGuard(resolver)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, found)
	assert.Equal(t, int64(42), seenID)
}

func TestNodeGuardRejectsUnknownKey(t *testing.T) {
	resolver := &fakeNodeResolver{apiKey: "node-key-1", nodeID: 42}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for unknown nodes")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/node/usage", nil)
	req.Header.Set("X-Node-Key", "wrong-key")
	rec := httptest.NewRecorder()
	NodeGuard(resolver)(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/node/usage", nil)
	rec = httptest.NewRecorder()
	NodeGuard(resolver)(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
