package permission

import (
	"fmt"
	"sort"
	"strings"
)

// Evaluate computes the effective permission for req from snap.
// It has no side effects and is safe for concurrent use on shared snapshots.
func Evaluate(req Request, snap Snapshot) Decision {
	if strings.TrimSpace(req.Resource) == "" || strings.TrimSpace(req.Action) == "" {
		d := denyNone("empty resource or action")
		d.Anomalies = append(d.Anomalies, "request without resource or action")

		return d
	}

	var anomalies []string

	// 1. user overrides
	if ov, ok := selectOverride(snap.Overrides, req); ok {
		check := checkConditions(ov.TimeRestriction, ov.AllowedIPs, req.Now, req.ClientIP)
		for _, ip := range check.badIPs {
			anomalies = append(anomalies, fmt.Sprintf("override %d: malformed allowed ip %q", ov.ID, ip))
		}

		if check.malformed != nil {
			d := denyNone(fmt.Sprintf("override %d has a malformed time restriction", ov.ID))
			d.Anomalies = append(anomalies, fmt.Sprintf("override %d: %v", ov.ID, check.malformed))

			return d
		}

		if check.holds {
			return Decision{
				Allowed:   ov.IsAllowed,
				Matched:   RuleRef{Kind: MatchOverride, ID: ov.ID},
				Reason:    overrideReason(ov),
				Anomalies: anomalies,
			}
		}
	}

	// 2. role rows, exact domain before "*"
	domain := NormalizeDomain(req.Domain)
	for _, tier := range domainTiers(domain) {
		candidates := activeRowsIn(snap.Rows, tier)
		matches := resolveByVariants(candidates, req.Resource, req.Action, rowKey)

		for _, row := range matches {
			check := checkConditions(conditionsWindow(row.Conditions), conditionsIPs(row.Conditions), req.Now, req.ClientIP)
			for _, ip := range check.badIPs {
				anomalies = append(anomalies, fmt.Sprintf("role row %d: malformed allowed ip %q", row.ID, ip))
			}

			if check.malformed != nil {
				d := denyNone(fmt.Sprintf("role row %d has malformed conditions", row.ID))
				d.Anomalies = append(anomalies, fmt.Sprintf("role row %d: %v", row.ID, check.malformed))

				return d
			}

			if !check.holds {
				continue
			}

			if !row.Effect.Valid() {
				d := denyNone(fmt.Sprintf("role row %d has unknown effect %q", row.ID, row.Effect))
				d.Anomalies = append(anomalies, d.Reason)

				return d
			}

			return Decision{
				Allowed:   row.Effect == EffectAllow,
				Matched:   RuleRef{Kind: MatchRole, ID: row.ID},
				Reason:    fmt.Sprintf("role grant (%s in %s)", row.Effect, row.Domain),
				Anomalies: anomalies,
			}
		}
	}

	// 3. default deny
	d := denyNone("no matching override or role grant")
	d.Anomalies = anomalies

	return d
}

// selectOverride picks the highest priority active override of the request's user.
// Equal priorities go to the newest CreatedAt, then to the highest ID.
func selectOverride(overrides []Override, req Request) (Override, bool) {
	active := make([]Override, 0, len(overrides))

	for _, o := range overrides {
		if o.IsActive && o.UserID == req.UserID {
			active = append(active, o)
		}
	}

	matches := resolveByVariants(active, req.Resource, req.Action, overrideKey)
	if len(matches) == 0 {
		return Override{}, false
	}

	best := matches[0]
	for _, o := range matches[1:] {
		if outranks(o, best) {
			best = o
		}
	}

	return best, true
}

func outranks(a, b Override) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}

	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}

	return a.ID > b.ID
}

func overrideReason(o Override) string {
	if o.IsAllowed {
		return fmt.Sprintf("user override %d allows (priority %d)", o.ID, o.Priority)
	}

	return fmt.Sprintf("user override %d denies (priority %d)", o.ID, o.Priority)
}

func domainTiers(domain string) []string {
	if domain == DomainAll {
		return []string{DomainAll}
	}

	return []string{domain, DomainAll}
}

// activeRowsIn keeps the active rows of one domain ordered by priority desc, id asc.
func activeRowsIn(rows []Row, domain string) []Row {
	out := make([]Row, 0, len(rows))

	for _, r := range rows {
		if r.IsActive && NormalizeDomain(r.Domain) == domain {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}

		return out[i].ID < out[j].ID
	})

	return out
}

func conditionsWindow(c *Conditions) *TimeRestriction {
	if c == nil {
		return nil
	}

	return c.TimeRestriction
}

func conditionsIPs(c *Conditions) []string {
	if c == nil {
		return nil
	}

	return c.AllowedIPs
}
