package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cozyhive/backend-pos/internal/common"
	"github.com/cozyhive/backend-pos/internal/store"
)

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	svc := newTestService(t, newFakeRepo())
	mw := Middleware{Service: svc}

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "admin@example.com", "supersecret", store.RoleAdmin)
	svc := newTestService(t, repo)

	login, err := svc.Login(context.Background(), "admin@example.com", "supersecret", "", "")
	require.NoError(t, err)

	mw := Middleware{Service: svc}
	var gotUser, gotRole string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = common.UserID(r.Context())
		gotRole, _ = common.Role(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, login.User.ID, gotUser)
	require.Equal(t, store.RoleAdmin, gotRole)
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(store.RoleAdmin)(next)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", nil)
	req = req.WithContext(common.WithRole(req.Context(), store.RoleCashier))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/items", nil)
	req = req.WithContext(common.WithRole(req.Context(), store.RoleAdmin))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestPolicy(t *testing.T) {
	require.True(t, CanManageCatalog(store.RoleAdmin))
	require.False(t, CanManageCatalog(store.RoleCashier))
	require.True(t, CanViewSummary(store.RoleAdmin))
	require.False(t, CanViewSummary(store.RoleCashier))
	require.True(t, CanOperateSessions(store.RoleCashier))
	require.True(t, CanOperateSessions(store.RoleAdmin))
	require.False(t, CanOperateSessions("intern"))
}
