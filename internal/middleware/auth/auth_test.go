package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "github.com/trackboard/trackboard/internal/middleware/auth"
	"github.com/trackboard/trackboard/internal/repo"
	"github.com/trackboard/trackboard/internal/service"
	"github.com/trackboard/trackboard/internal/testutil"
	"github.com/trackboard/trackboard/internal/tokens"
)

func newGuardServer(t *testing.T) (*echo.Echo, *service.AuthService) {
	t.Helper()

	db := testutil.OpenDB(t)
	store := repo.NewGormRepo(db)
	codec := tokens.NewCodec([]byte("test-secret"), 900*time.Second)
	svc := service.NewAuthService(store, codec, time.Hour)

	reader := testutil.CreateRole(t, db, "reader", "read")
	testutil.CreateUser(t, db, "reader@example.com", "password1", "Reader", reader)

	guard := authmw.NewGuard(svc)
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	e := echo.New()
	protected := e.Group("", guard.RequireAuth)
	protected.GET("/open", ok, guard.RequirePermissions())
	protected.GET("/readable", ok, guard.RequirePermissions("read", "write", "admin"))
	protected.GET("/admin-only", ok, guard.RequirePermissions("admin"))
	protected.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, authmw.UserFromContext(c).Email)
	})
	return e, svc
}

func get(e *echo.Echo, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGuard_PermissionChecks(t *testing.T) {
	t.Parallel()

	e, svc := newGuardServer(t)
	login, err := svc.Login(context.Background(), "reader@example.com", "password1", "")
	require.NoError(t, err)
	token := login.AccessToken

	// Any-of semantics: one of {read,write,admin} held is enough.
	assert.Equal(t, http.StatusOK, get(e, "/readable", token).Code)
	// An empty permission set only requires authentication.
	assert.Equal(t, http.StatusOK, get(e, "/open", token).Code)
	// Authenticated but lacking the permission is 403, not 401.
	assert.Equal(t, http.StatusForbidden, get(e, "/admin-only", token).Code)
}

func TestGuard_Unauthenticated(t *testing.T) {
	t.Parallel()

	e, _ := newGuardServer(t)

	assert.Equal(t, http.StatusUnauthorized, get(e, "/readable", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/readable", "garbage").Code)

	req := httptest.NewRequest(http.MethodGet, "/readable", nil)
	req.Header.Set(echo.HeaderAuthorization, "Token abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuard_AttachesUser(t *testing.T) {
	t.Parallel()

	e, svc := newGuardServer(t)
	login, err := svc.Login(context.Background(), "reader@example.com", "password1", "")
	require.NoError(t, err)

	rec := get(e, "/whoami", login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reader@example.com", rec.Body.String())
}

func TestGuard_DeletedUserLosesAccess(t *testing.T) {
	t.Parallel()

	db := testutil.OpenDB(t)
	store := repo.NewGormRepo(db)
	codec := tokens.NewCodec([]byte("test-secret"), 900*time.Second)
	svc := service.NewAuthService(store, codec, time.Hour)
	user := testutil.CreateUser(t, db, "gone@example.com", "password1", "Gone")

	login, err := svc.Login(context.Background(), "gone@example.com", "password1", "")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		authmw.NewGuard(svc).RequireAuth)

	assert.Equal(t, http.StatusOK, get(e, "/ping", login.AccessToken).Code)

	// Identity is re-read on every request, so a deleted user is locked
	// out before the access token expires.
	require.NoError(t, db.Delete(user).Error)
	assert.Equal(t, http.StatusUnauthorized, get(e, "/ping", login.AccessToken).Code)
}
