package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixSetReusesStoredKey(t *testing.T) {
	m := Matrix{"roles": {Read: true}}

	require.NoError(t, m.Set("Role", "update", true))
	assert.Equal(t, Matrix{"roles": {Read: true, Update: true}}, m)

	require.NoError(t, m.Set("invoices", "CREATE", true))
	assert.True(t, m.Allows("invoice", "create"))
	assert.Len(t, m, 2)
}

func TestMatrixSetValidation(t *testing.T) {
	m := Matrix{}

	require.ErrorIs(t, m.Set("", "read", true), ErrValidation)
	require.ErrorIs(t, m.Set("roles", "approve", true), ErrValidation)
	assert.Empty(t, m)
}

func TestMatrixValidateRejectsNormalizedDuplicates(t *testing.T) {
	testCases := []struct {
		name   string
		matrix Matrix
	}{
		{"plural", Matrix{"role": {Read: true}, "roles": {Read: true}}},
		{"case", Matrix{"Users": {Read: true}, "users": {}}},
		{"underscore", Matrix{"audit_log": {Read: true}, "auditlog": {Read: true}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.matrix.Validate(), ErrValidation)
		})
	}

	require.NoError(t, Matrix{"roles": {Read: true}, "users": {Read: true}}.Validate())
}

func TestMatrixGrants(t *testing.T) {
	m := Matrix{
		"users":   {Read: true, Delete: true},
		"invoice": {Create: true},
		"empty":   {},
	}

	assert.Equal(t, []Grant{
		{Resource: "invoice", Action: ActionCreate},
		{Resource: "users", Action: ActionRead},
		{Resource: "users", Action: ActionDelete},
	}, m.Grants())
}

func TestMatrixEqualIgnoresEmptyResources(t *testing.T) {
	a := Matrix{"users": {Read: true}}
	b := Matrix{"users": {Read: true}, "unused": {}}

	assert.True(t, a.Equal(b))

	b["users"] = CRUD{Read: true, Update: true}
	assert.False(t, a.Equal(b))
}

func TestMatrixClone(t *testing.T) {
	m := Matrix{"users": {Read: true}}
	c := m.Clone()
	c["users"] = CRUD{}

	assert.True(t, m.Allows("users", "read"))
	assert.NotNil(t, Matrix(nil).Clone())
}

func TestParseName(t *testing.T) {
	testCases := []struct {
		name     string
		resource string
		action   string
		wantErr  bool
	}{
		{"roles:read", "roles", "read", false},
		{"audit.log.read", "audit.log", "read", false},
		{"admin.server:config", "admin.server", "config", false},
		{"roles", "", "", true},
		{":read", "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, act, err := ParseName(tc.name)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.resource, res)
			assert.Equal(t, tc.action, act)
		})
	}
}

func TestValidateDomain(t *testing.T) {
	require.NoError(t, ValidateDomain(DomainAll))
	require.NoError(t, ValidateDomain(companyA))
	require.ErrorIs(t, ValidateDomain("company:acme"), ErrValidation)
	require.ErrorIs(t, ValidateDomain("tenant:6f1d2c3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f"), ErrValidation)
	assert.Equal(t, DomainAll, NormalizeDomain(""))
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindConflict, Kind(ErrConflict))
	assert.Equal(t, KindValidation, Kind(ValidateDomain("nope")))
	assert.Equal(t, KindInternal, Kind(assert.AnError))
	assert.Empty(t, Kind(nil))
}
