package permission

import (
	"fmt"
	"sort"
	"strings"
)

// CRUD holds the four matrix flags of one resource.
type CRUD struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Get returns the flag for action. Unknown actions are false.
func (c CRUD) Get(action string) bool {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionCreate:
		return c.Create
	case ActionRead:
		return c.Read
	case ActionUpdate:
		return c.Update
	case ActionDelete:
		return c.Delete
	default:
		return false
	}
}

func (c *CRUD) set(action string, enabled bool) {
	switch action {
	case ActionCreate:
		c.Create = enabled
	case ActionRead:
		c.Read = enabled
	case ActionUpdate:
		c.Update = enabled
	case ActionDelete:
		c.Delete = enabled
	}
}

// Any reports whether at least one flag is set.
func (c CRUD) Any() bool {
	return c.Create || c.Read || c.Update || c.Delete
}

// Matrix is the denormalized role view: resource key to CRUD flags.
type Matrix map[string]CRUD

// Grant is one true flag of a Matrix.
type Grant struct {
	Resource string
	Action   string
}

// Clone returns a deep copy. A nil matrix clones to an empty one.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// Key finds the stored key for resource using the Normalizer variants.
func (m Matrix) Key(resource string) (string, bool) {
	keys := m.Resources()

	matches := resolveByVariants(keys, resource, "", func(k string) (string, string) { return k, "" })
	if len(matches) == 0 {
		return "", false
	}

	return matches[0], true
}

// Allows reports whether the matrix grants action on resource.
func (m Matrix) Allows(resource, action string) bool {
	key, ok := m.Key(resource)
	if !ok {
		return false
	}

	return m[key].Get(action)
}

// Set flips one flag in place. An existing key matched through the Normalizer is
// reused so "role" and "roles" never become two entries.
func (m Matrix) Set(resource, action string, enabled bool) error {
	resource = strings.TrimSpace(resource)
	action = strings.ToLower(strings.TrimSpace(action))

	if resource == "" {
		return fmt.Errorf("%w: resource is empty", ErrValidation)
	}

	if !IsCRUD(action) {
		return fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}

	key, ok := m.Key(resource)
	if !ok {
		key = resource
	}

	flags := m[key]
	flags.set(action, enabled)
	m[key] = flags

	return nil
}

// Validate checks every key of the matrix. Two keys the Normalizer resolves to the same
// resource, such as "role" and "roles", are rejected: both would map onto one row.
func (m Matrix) Validate() error {
	keys := m.Resources()

	for i, k := range keys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: matrix contains an empty resource", ErrValidation)
		}

		for _, other := range keys[i+1:] {
			if sameResource(k, other) {
				return fmt.Errorf("%w: matrix keys %q and %q name the same resource", ErrValidation, k, other)
			}
		}
	}

	return nil
}

func sameResource(a, b string) bool {
	key := func(k string) (string, string) { return k, "" }

	return len(resolveByVariants([]string{b}, a, "", key)) > 0 ||
		len(resolveByVariants([]string{a}, b, "", key)) > 0
}

// Resources returns the sorted resource keys.
func (m Matrix) Resources() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// Grants lists the true flags ordered by resource then CRUD order.
func (m Matrix) Grants() []Grant {
	var out []Grant

	for _, res := range m.Resources() {
		flags := m[res]

		for _, action := range CRUDActions {
			if flags.Get(action) {
				out = append(out, Grant{Resource: res, Action: action})
			}
		}
	}

	return out
}

// Equal reports whether both matrices grant exactly the same flags.
// Resources without any flag are ignored.
func (m Matrix) Equal(other Matrix) bool {
	a, b := m.Grants(), other.Grants()
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
