package permission

import "strings"

// Variants returns the resource spellings tried after an exact match failed, in order:
// lower-cased input, plural form (input+"s") or singular form (trailing "s" stripped),
// input without underscores, input without dots. Duplicates and empty strings are dropped.
func Variants(resource string) []string {
	r := strings.ToLower(strings.TrimSpace(resource))

	candidates := make([]string, 0, 4) //nolint:mnd
	candidates = append(candidates, r)

	if strings.HasSuffix(r, "s") {
		candidates = append(candidates, strings.TrimSuffix(r, "s"))
	} else {
		candidates = append(candidates, r+"s")
	}

	candidates = append(candidates,
		strings.ReplaceAll(r, "_", ""),
		strings.ReplaceAll(r, ".", ""),
	)

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		if c == "" {
			continue
		}

		if _, ok := seen[c]; ok {
			continue
		}

		seen[c] = struct{}{}
		out = append(out, c)
	}

	return out
}

// ResolvePersistedRow finds the row for (resource, action) among rows.
// An exact case-insensitive match wins; otherwise the first Variants entry that
// matches a stored resource name decides. Among several rows matched by the same
// step the first in rows order is returned. The boolean is false when nothing matched.
func ResolvePersistedRow(rows []Row, resource, action string) (Row, bool) {
	matches := resolveByVariants(rows, resource, action, rowKey)
	if len(matches) == 0 {
		return Row{}, false
	}

	return matches[0], true
}

func rowKey(r Row) (string, string) { return r.Resource, r.Action }

func overrideKey(o Override) (string, string) { return o.Resource, o.Action }

// resolveByVariants returns every item matched by the first successful step of the
// Normalizer, keeping the input order.
func resolveByVariants[T any](items []T, resource, action string, key func(T) (string, string)) []T {
	resource = strings.TrimSpace(resource)
	action = strings.TrimSpace(action)

	if len(items) == 0 || resource == "" {
		return nil
	}

	pick := func(want string) []T {
		var out []T

		for _, it := range items {
			res, act := key(it)
			if strings.EqualFold(strings.TrimSpace(res), want) && strings.EqualFold(strings.TrimSpace(act), action) {
				out = append(out, it)
			}
		}

		return out
	}

	if exact := pick(resource); len(exact) > 0 {
		return exact
	}

	for _, v := range Variants(resource) {
		if found := pick(v); len(found) > 0 {
			return found
		}
	}

	return nil
}

// Match applies the Normalizer to arbitrary items. key extracts the stored resource and action.
func Match[T any](items []T, resource, action string, key func(T) (string, string)) []T {
	return resolveByVariants(items, resource, action, key)
}
