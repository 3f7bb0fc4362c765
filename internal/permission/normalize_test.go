package permission

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariants(t *testing.T) {
	testCases := []struct {
		name     string
		resource string
		expected []string
	}{
		{"singular gets plural", "Role", []string{"role", "roles"}},
		{"plural gets singular", "Roles", []string{"roles", "role"}},
		{"underscores removed", "user_group", []string{"user_group", "user_groups", "usergroup"}},
		{"dots removed", "audit.log", []string{"audit.log", "audit.logs", "auditlog"}},
		{"trimmed", "  Menus ", []string{"menus", "menu"}},
		{"empty", "", []string{"s"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Variants(tc.resource))
		})
	}
}

func TestResolvePersistedRow(t *testing.T) {
	rows := []Row{
		{ID: 1, Resource: "Roles", Action: "read"},
		{ID: 2, Resource: "roles", Action: "update"},
		{ID: 3, Resource: "user", Action: "read"},
		{ID: 4, Resource: "auditlog", Action: "read"},
		{ID: 5, Resource: "menu", Action: "READ"},
		{ID: 6, Resource: "menus", Action: "read"},
	}

	testCases := []struct {
		name       string
		resource   string
		action     string
		expectedID uint
		found      bool
	}{
		{"exact case insensitive", "roles", "read", 1, true},
		{"singular finds plural", "role", "read", 1, true},
		{"plural finds singular", "Users", "read", 3, true},
		{"dot variant", "audit.log", "read", 4, true},
		{"underscore variant", "audit_log", "read", 4, true},
		{"action must match", "role", "delete", 0, false},
		{"exact beats variant", "menu", "read", 5, true},
		{"exact beats variant plural", "menus", "read", 6, true},
		{"unknown resource", "documents", "read", 0, false},
		{"empty resource", "", "read", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			row, ok := ResolvePersistedRow(rows, tc.resource, tc.action)
			require.Equal(t, tc.found, ok)

			if tc.found {
				assert.Equal(t, tc.expectedID, row.ID)
			}
		})
	}
}

func TestResolvePersistedRowFirstInOrder(t *testing.T) {
	rows := []Row{
		{ID: 7, Resource: "Document", Action: "read"},
		{ID: 8, Resource: "document", Action: "read"},
	}

	row, ok := ResolvePersistedRow(rows, "DOCUMENT", "read")
	require.True(t, ok)
	assert.Equal(t, uint(7), row.ID)
}

// word turns arbitrary bytes into a non-empty lower-case name that does not end in "s".
func word(raw []byte) string {
	const letters = "abcdefghijklmnopqrtuvwxyz"

	var b strings.Builder

	for i, c := range raw {
		if i >= 12 {
			break
		}

		b.WriteByte(letters[int(c)%len(letters)])
	}

	if b.Len() == 0 {
		return "item"
	}

	return b.String()
}

func TestResolvePersistedRowSpellingProperty(t *testing.T) {
	// Only one spelling is stored; both spellings must resolve to that same row.
	singularStored := func(raw []byte) bool {
		w := word(raw)
		rows := []Row{{ID: 1, Resource: w, Action: "read"}}

		a, okA := ResolvePersistedRow(rows, w, "read")
		b, okB := ResolvePersistedRow(rows, strings.ToUpper(w[:1])+w[1:]+"s", "read")

		return okA && okB && a.ID == b.ID
	}

	pluralStored := func(raw []byte) bool {
		w := word(raw)
		rows := []Row{{ID: 1, Resource: strings.ToUpper(w[:1]) + w[1:] + "s", Action: "read"}}

		a, okA := ResolvePersistedRow(rows, w, "read")
		b, okB := ResolvePersistedRow(rows, rows[0].Resource, "read")

		return okA && okB && a.ID == b.ID
	}

	idempotent := func(raw []byte) bool {
		w := word(raw)
		rows := []Row{{ID: 1, Resource: w + "s", Action: "update"}, {ID: 2, Resource: "other", Action: "update"}}

		first, ok1 := ResolvePersistedRow(rows, w, "update")
		second, ok2 := ResolvePersistedRow(rows, first.Resource, "update")

		return ok1 && ok2 && first.ID == second.ID
	}

	require.NoError(t, quick.Check(singularStored, nil))
	require.NoError(t, quick.Check(pluralStored, nil))
	require.NoError(t, quick.Check(idempotent, nil))
}
