package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/authz"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/catalog"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/coordinator"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/testdb"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/override"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/web/handler/evaluate"
)

const token = "test-token-0123456789"

var testParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32} //nolint:gochecknoglobals

type client struct {
	t   *testing.T
	app *fiber.App
}

func setup(t *testing.T) *client {
	t.Helper()

	return setupWithRole(t, nil)
}

// setupWithRole gates the API by the role matrix when matrix is not nil.
func setupWithRole(t *testing.T, matrix permission.Matrix) *client {
	t.Helper()

	hash, err := argon2id.CreateHash(token, testParams)
	require.NoError(t, err)

	gdb := testdb.Open(t)
	svc := authz.New(coordinator.New(gdb), override.New(gdb, nil), authz.WithCache(100, time.Minute))

	deps := handler.Deps{
		Catalog:     catalog.New(gdb, svc),
		Coordinator: coordinator.New(gdb, coordinator.WithInvalidator(svc)),
		Overrides:   override.New(gdb, svc),
		Authz:       svc,
	}

	cfg := &config.Config{Title: "test", DevMode: true, Auth: config.Auth{APITokenHashes: []string{hash}}}

	var apiRole uint

	if matrix != nil {
		ctx := t.Context()

		r, err := deps.Coordinator.CreateRole(ctx, coordinator.RoleInput{Name: "api"})
		require.NoError(t, err)

		_, err = deps.Coordinator.ReplaceMatrix(ctx, r.ID, matrix, "")
		require.NoError(t, err)

		apiRole = r.ID
	}

	s, err := web.New(cfg, deps, apiRole)
	require.NoError(t, err)

	return &client{t: t, app: s.App}
}

func (c *client) raw(method, path string, body io.Reader, auth string) (int, []byte) {
	c.t.Helper()

	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}

	resp, err := c.app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(c.t, err)

	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	return resp.StatusCode, out
}

func (c *client) do(method, path string, body, out any) int {
	c.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)

		r = bytes.NewReader(b)
	}

	status, raw := c.raw(method, path, r, "Bearer "+token)
	if out != nil && len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, out), string(raw))
	}

	return status
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	c := setup(t)

	status, body := c.raw(http.MethodGet, web.CheckAlivePath, nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))

	status, _ = c.raw(http.MethodGet, web.MetricsPath, nil, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestAPIRequiresToken(t *testing.T) {
	c := setup(t)

	testCases := []struct {
		name   string
		auth   string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"valid again from memo", "bearer " + token, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := c.raw(http.MethodGet, web.APIPrefix+"/catalog", nil, tc.auth)
			assert.Equal(t, tc.status, status)

			if tc.status == http.StatusUnauthorized {
				var e handler.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &e))
				assert.Equal(t, handler.KindUnauthorized, e.Error)
			}
		})
	}
}

func TestAPIRoleGatesRoutes(t *testing.T) {
	c := setupWithRole(t, permission.Matrix{"permissions": {Read: true}})

	status := c.do(http.MethodGet, web.APIPrefix+"/catalog", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, web.APIPrefix + "/catalog"},
		{http.MethodGet, web.APIPrefix + "/roles"},
	} {
		var e handler.ErrorResponse

		status = c.do(tc.method, tc.path, map[string]string{"resource": "x", "action": "read"}, &e)
		assert.Equal(t, http.StatusForbidden, status, tc.path)
		assert.Equal(t, handler.KindForbidden, e.Error)
	}
}

func TestCatalogAPI(t *testing.T) {
	c := setup(t)
	base := web.APIPrefix + "/catalog"

	var entry models.Permission
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, base, map[string]string{"name": "documents:read"}, &entry))
	assert.Equal(t, "documents", entry.Resource)
	assert.Equal(t, "read", entry.Action)
	assert.True(t, entry.IsActive)

	var e handler.ErrorResponse
	require.Equal(t, http.StatusConflict, c.do(http.MethodPost, base, map[string]string{"name": "documents:read"}, &e))
	assert.Equal(t, permission.KindDuplicateName, e.Error)

	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, base, map[string]string{"name": "documents"}, &e))
	assert.Equal(t, permission.KindValidation, e.Error)

	require.Equal(t, http.StatusOK, c.do(http.MethodPatch, base+"/documents:read", map[string]any{"is_active": false}, &entry))
	assert.False(t, entry.IsActive)

	var list []models.Permission
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, base, nil, &list))
	assert.Empty(t, list)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, base+"?include_inactive=true", nil, &list))
	assert.Len(t, list, 1)

	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, base+"/documents:read/rename", map[string]string{"name": "docs:read"}, &entry))
	assert.Equal(t, "docs:read", entry.Name)

	require.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, base+"/documents:read", nil, nil))
	require.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, base+"/documents:read", nil, &e))
	assert.Equal(t, permission.KindNotFound, e.Error)
}

func TestRoleAPI(t *testing.T) {
	c := setup(t)
	base := web.APIPrefix + "/roles"

	var role models.Role
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, base, map[string]string{"name": "editor"}, &role))
	assert.Empty(t, role.Permissions)

	path := base + "/" + itoa(role.ID)

	require.Equal(t, http.StatusOK, c.do(http.MethodPut, path+"/permissions", map[string]any{
		"permissions": permission.Matrix{"documents": {Read: true, Update: true}},
	}, &role))
	assert.Equal(t, int64(1), role.Version)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, path+"/grants", map[string]any{
		"resource": "document", "action": "update", "enabled": false,
	}, &role))
	assert.Equal(t, permission.Matrix{"documents": {Read: true}}, role.Permissions)
	assert.Equal(t, int64(2), role.Version)

	var rows []permission.Row
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, path+"/rows", nil, &rows))
	assert.Len(t, rows, 2)

	var e handler.ErrorResponse
	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, path+"/grants", map[string]any{
		"resource": "documents", "action": "approve", "enabled": true,
	}, &e))
	assert.Equal(t, permission.KindValidation, e.Error)

	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, path+"/grants", map[string]any{
		"resource": "documents", "action": "read", "enabled": true, "domain": "company:6f1d2c3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f",
	}, &e))

	require.Equal(t, http.StatusNotFound, c.do(http.MethodGet, base+"/999", nil, &e))
	assert.Equal(t, permission.KindNotFound, e.Error)

	require.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, base+"/abc", nil, &e))

	status, _ := c.raw(http.MethodPost, base, bytes.NewBufferString("{"), "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, status)

	var roles []models.Role
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, base, nil, &roles))
	assert.Len(t, roles, 1)
}

func TestOverrideAndEvaluateAPI(t *testing.T) {
	c := setup(t)

	var role models.Role
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, web.APIPrefix+"/roles", map[string]string{"name": "editor"}, &role))
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, web.APIPrefix+"/roles/"+itoa(role.ID)+"/grants", map[string]any{
		"resource": "documents", "action": "update", "enabled": true,
	}, &role))

	overrides := web.APIPrefix + "/users/1/overrides"

	var e handler.ErrorResponse
	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, overrides, map[string]any{
		"resource": "documents", "action": "update",
		"time_restriction": map[string]any{"start_time": "18:00", "end_time": "08:00"},
	}, &e))
	assert.Equal(t, permission.KindValidation, e.Error)

	var ov models.UserPermissionOverride
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, overrides, map[string]any{
		"resource": "documents", "action": "update", "is_allowed": false, "priority": 5,
		"time_restriction": map[string]any{"allowed_days": []int{6, 7}, "start_time": "00:00", "end_time": "23:59"},
	}, &ov))

	evaluateAt := func(at time.Time) permission.Decision {
		var d permission.Decision
		require.Equal(t, http.StatusOK, c.do(http.MethodPost, web.APIPrefix+evaluate.Path, map[string]any{
			"user_id": 1, "role_id": role.ID, "resource": "documents", "action": "update", "domain": "*", "at": at,
		}, &d))

		return d
	}

	d := evaluateAt(time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC))
	assert.True(t, d.Allowed)
	assert.Equal(t, permission.MatchRole, d.Matched.Kind)

	d = evaluateAt(time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC))
	assert.False(t, d.Allowed)
	assert.Equal(t, permission.RuleRef{Kind: permission.MatchOverride, ID: ov.ID}, d.Matched)

	var batch evaluate.BatchResponse
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, web.APIPrefix+evaluate.Path, map[string]any{
		"role_id": role.ID, "resource": "documents", "actions": []string{"read", "update"},
	}, &batch))
	assert.False(t, batch.Decisions["read"].Allowed)
	assert.True(t, batch.Decisions["update"].Allowed)

	var m permission.Matrix
	require.Equal(t, http.StatusOK, c.do(http.MethodGet,
		web.APIPrefix+"/users/1/effective?role_id="+itoa(role.ID)+"&at=2026-10-17T12:00:00Z", nil, &m))
	assert.Equal(t, permission.Matrix{"documents": {}}, m)

	require.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, web.APIPrefix+"/users/1/effective?domain=tenant", nil, &e))

	require.Equal(t, http.StatusOK, c.do(http.MethodPut, overrides+"/"+itoa(ov.ID), map[string]any{
		"resource": "documents", "action": "update", "is_allowed": false, "is_active": false,
	}, &ov))
	assert.False(t, ov.IsActive)

	d = evaluateAt(time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC))
	assert.True(t, d.Allowed)

	var list []models.UserPermissionOverride
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, overrides, nil, &list))
	assert.Len(t, list, 1)

	require.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, overrides+"/"+itoa(ov.ID), nil, nil))
	require.Equal(t, http.StatusNotFound, c.do(http.MethodGet, overrides+"/"+itoa(ov.ID), nil, &e))
	require.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, web.APIPrefix+"/users/2/overrides/"+itoa(ov.ID), nil, &e))

	require.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, web.APIPrefix+evaluate.Path, map[string]any{"resource": "documents"}, &e))
}

func TestEvaluateRejectsMalformedDomain(t *testing.T) {
	c := setup(t)

	for _, domain := range []string{"company:acme", "tenant:6f1d2c3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f"} {
		var e handler.ErrorResponse

		status := c.do(http.MethodPost, web.APIPrefix+evaluate.Path, map[string]any{
			"user_id": 1, "resource": "documents", "action": "read", "domain": domain,
		}, &e)
		assert.Equal(t, http.StatusBadRequest, status, domain)
		assert.Equal(t, permission.KindValidation, e.Error, domain)
	}

	var d permission.Decision
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, web.APIPrefix+evaluate.Path, map[string]any{
		"user_id": 1, "resource": "documents", "action": "read",
	}, &d))
	assert.False(t, d.Allowed)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
