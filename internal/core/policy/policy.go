// Package policy holds the access rules applied to mutations once the
// caller's identity is known. Every function here is pure.
package policy

import (
	"encoding/json"

	"github.com/military-registry/personnel-api/internal/core/domain"
)

// StatusField is the only personnel field a non-admin may change.
const StatusField = "status"

// NarrowMutation converts a requested personnel update into the field set
// the caller is allowed to apply.
//
// Admins get the request back unchanged. Every other role is narrowed to
// {status: fields.status}; other keys are dropped silently. The request is
// denied with ErrStatusOnly when status is missing or falsy (null, "", false, 0).
func NarrowMutation(role domain.Role, fields map[string]any) (map[string]any, error) {
	if role.IsAdmin() {
		return fields, nil
	}

	status, ok := fields[StatusField]
	if !ok || isBlank(status) {
		return nil, domain.ErrStatusOnly
	}
	return map[string]any{StatusField: status}, nil
}

// CheckRoleChange rejects a role change aimed at the requester's own
// identity. The ids are compared exactly as given.
func CheckRoleChange(requesterID, targetID string) error {
	if requesterID == targetID {
		return domain.ErrSelfRoleChange
	}
	return nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	}
	return false
}
