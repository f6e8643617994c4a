package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-kasir-ws/internal/middleware"
	"go-kasir-ws/internal/model"
	"go-kasir-ws/internal/repository/memory"
	"go-kasir-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testIssuer = "go-kasir-ws-test"
)

type fixture struct {
	app    *fiber.App
	issuer *jwt.Issuer
	actors map[model.Role]*model.Actor
}

func newFixture(t *testing.T, allowed ...model.Role) *fixture {
	t.Helper()
	store := memory.New().Repository()
	f := &fixture{
		issuer: jwt.NewIssuer(testSecret, testIssuer, time.Hour),
		actors: make(map[model.Role]*model.Actor),
	}
	for _, role := range []model.Role{model.RoleAdmin, model.RoleManager, model.RoleCashier} {
		a := &model.Actor{Username: string(role) + "1", Role: role, IsActive: true}
		require.NoError(t, a.SetPassword("secret"))
		require.NoError(t, store.Actors.Create(context.Background(), a))
		f.actors[role] = a
	}

	f.app = fiber.New()
	f.app.Use(middleware.RequestLogger(zerolog.Nop()))
	f.app.Get("/protected",
		middleware.RequireAuth(f.issuer, store.Actors),
		middleware.RequireRole(allowed...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"role":     middleware.Role(c),
				"actor_id": middleware.ActorID(c).String(),
			})
		},
	)
	f.app.Get("/deactivate/:role", func(c *fiber.Ctx) error {
		a := f.actors[model.Role(c.Params("role"))]
		a.IsActive = false
		return store.Actors.Update(c.UserContext(), a)
	})
	return f
}

func (f *fixture) bearer(t *testing.T, role model.Role) string {
	t.Helper()
	a := f.actors[role]
	tok, err := f.issuer.GenerateToken(a.ID, a.Username, string(a.Role))
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *fixture) get(t *testing.T, path, auth string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRequireRole_AllowedRolePasses(t *testing.T) {
	f := newFixture(t, model.RoleAdmin, model.RoleManager)

	resp := f.get(t, "/protected", f.bearer(t, model.RoleManager))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "manager", body["role"])
	assert.Equal(t, f.actors[model.RoleManager].ID.String(), body["actor_id"])
}

func TestRequireRole_CashierForbiddenOnManagerRoute(t *testing.T) {
	f := newFixture(t, model.RoleAdmin, model.RoleManager)

	resp := f.get(t, "/protected", f.bearer(t, model.RoleCashier))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	f := newFixture(t, model.RoleCashier)

	resp := f.get(t, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	f := newFixture(t, model.RoleCashier)

	resp := f.get(t, "/protected", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	f := newFixture(t, model.RoleCashier)
	other := jwt.NewIssuer("another-secret", testIssuer, time.Hour)
	a := f.actors[model.RoleCashier]
	tok, err := other.GenerateToken(a.ID, a.Username, string(a.Role))
	require.NoError(t, err)

	resp := f.get(t, "/protected", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_UnknownActor(t *testing.T) {
	f := newFixture(t, model.RoleCashier)
	tok, err := f.issuer.GenerateToken(uuid.New(), "ghost", string(model.RoleCashier))
	require.NoError(t, err)

	resp := f.get(t, "/protected", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuth_DeactivatedActorRejected(t *testing.T) {
	f := newFixture(t, model.RoleCashier)
	auth := f.bearer(t, model.RoleCashier)

	require.Equal(t, http.StatusOK, f.get(t, "/protected", auth).StatusCode)
	require.Equal(t, http.StatusOK, f.get(t, "/deactivate/cashier", "").StatusCode)

	resp := f.get(t, "/protected", auth)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
