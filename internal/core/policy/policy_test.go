package policy

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/military-registry/personnel-api/internal/core/domain"
)

func TestNarrowMutation_AdminUnchanged(t *testing.T) {
	in := map[string]any{"rank": "Colonel", "unit": "A-1", "status": "leave"}

	out, err := NarrowMutation(domain.RoleAdmin, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNarrowMutation_AdminWithoutStatus(t *testing.T) {
	out, err := NarrowMutation(domain.RoleAdmin, map[string]any{"rank": "General"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"rank": "General"}, out)
}

func TestNarrowMutation_UserStatusOnly(t *testing.T) {
	out, err := NarrowMutation(domain.RoleUser, map[string]any{"status": "leave"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "leave"}, out)
}

func TestNarrowMutation_UserExtraFieldsDropped(t *testing.T) {
	out, err := NarrowMutation(domain.RoleUser, map[string]any{"status": "active", "rank": "X", "unit": "B"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "active"}, out)
}

func TestNarrowMutation_UserWithoutStatusDenied(t *testing.T) {
	cases := map[string]map[string]any{
		"only rank":    {"rank": "General"},
		"empty":        {},
		"nil map":      nil,
		"null status":  {"status": nil, "rank": "X"},
		"empty status": {"status": ""},
		"false status": {"status": false},
		"zero status":  {"status": float64(0)},
		"zero number":  {"status": json.Number("0")},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := NarrowMutation(domain.RoleUser, fields)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, domain.ErrStatusOnly)
			assert.True(t, errors.Is(err, domain.ErrForbidden))
		})
	}
}

func TestNarrowMutation_UnknownRoleTreatedAsUser(t *testing.T) {
	_, err := NarrowMutation(domain.Role("auditor"), map[string]any{"rank": "X"})
	assert.ErrorIs(t, err, domain.ErrStatusOnly)

	out, err := NarrowMutation(domain.Role(""), map[string]any{"status": "inactive", "rank": "X"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "inactive"}, out)
}

func TestNarrowMutation_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"status": "leave", "rank": "General"}
	_, err := NarrowMutation(domain.RoleUser, in)
	require.NoError(t, err)
	assert.Len(t, in, 2)
}

func TestCheckRoleChange(t *testing.T) {
	assert.ErrorIs(t, CheckRoleChange("65a1", "65a1"), domain.ErrSelfRoleChange)
	assert.NoError(t, CheckRoleChange("65a1", "65a2"))
	// Exact match only: no case folding.
	assert.NoError(t, CheckRoleChange("65A1", "65a1"))
}
