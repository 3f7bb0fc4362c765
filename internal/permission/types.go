package permission

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions understood by the role matrix. Rows and overrides may carry other actions.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// CRUDActions lists the matrix actions in display order.
var CRUDActions = []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete} //nolint:gochecknoglobals

// IsCRUD reports whether action is one of the four matrix actions.
func IsCRUD(action string) bool {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// Effect of a persisted role row.
type Effect string

const (
	// EffectAllow grants the action.
	EffectAllow Effect = "allow"
	// EffectDeny refuses the action.
	EffectDeny Effect = "deny"
)

// Valid reports whether e is a known effect.
func (e Effect) Valid() bool {
	return e == EffectAllow || e == EffectDeny
}

// DomainAll is the system wide domain.
const DomainAll = "*"

const companyDomainPrefix = "company:"

// CompanyDomain builds the tenant domain string for a company id.
func CompanyDomain(companyID string) string {
	return companyDomainPrefix + companyID
}

// NormalizeDomain maps an empty domain to DomainAll and leaves everything else untouched.
// Domains are compared by exact string match.
func NormalizeDomain(domain string) string {
	if strings.TrimSpace(domain) == "" {
		return DomainAll
	}

	return domain
}

// ValidateDomain checks that domain is "*" or "company:<uuid>".
func ValidateDomain(domain string) error {
	if domain == DomainAll {
		return nil
	}

	id, ok := strings.CutPrefix(domain, companyDomainPrefix)
	if !ok {
		return fmt.Errorf("%w: domain %q must be %q or %q", ErrValidation, domain, DomainAll, companyDomainPrefix+"<id>")
	}

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: domain %q: company id is not a uuid", ErrValidation, domain)
	}

	return nil
}

// ParseName splits a catalog name of the form "resource:action" or "resource.action".
// The colon form wins when both separators are present, otherwise the last dot splits,
// so "admin.server.config" yields resource "admin.server" and action "config".
func ParseName(name string) (resource, action string, err error) {
	name = strings.TrimSpace(name)

	if i := strings.LastIndex(name, ":"); i >= 0 {
		resource, action = name[:i], name[i+1:]
	} else if i := strings.LastIndex(name, "."); i >= 0 {
		resource, action = name[:i], name[i+1:]
	}

	resource = strings.TrimSpace(resource)
	action = strings.TrimSpace(action)

	if resource == "" || action == "" {
		return "", "", fmt.Errorf("%w: permission name %q must look like resource:action", ErrValidation, name)
	}

	return resource, action, nil
}

// Row is a persisted role grant as seen by the Resolver.
type Row struct {
	ID         uint        `json:"id"`
	RoleID     uint        `json:"role_id"`
	Resource   string      `json:"resource"`
	Action     string      `json:"action"`
	Domain     string      `json:"domain"`
	IsActive   bool        `json:"is_active"`
	Effect     Effect      `json:"effect"`
	Priority   int         `json:"priority"`
	Conditions *Conditions `json:"conditions,omitempty"`
}

// Override is a user-specific rule as seen by the Resolver.
type Override struct {
	ID              uint
	UserID          uint64
	Resource        string
	Action          string
	IsAllowed       bool
	Priority        int
	TimeRestriction *TimeRestriction
	AllowedIPs      []string
	IsActive        bool
	CreatedAt       time.Time
}

// Request is one authorization question.
type Request struct {
	UserID   uint64
	RoleID   uint
	Resource string
	Action   string
	Domain   string
	Now      time.Time
	ClientIP string
}

// Snapshot is the immutable data a decision is computed from.
// Rows belong to the request's role, Overrides to the request's user.
type Snapshot struct {
	Overrides []Override
	Rows      []Row
}

// MatchKind tells which rule decided.
type MatchKind string

const (
	// MatchOverride means a user override decided.
	MatchOverride MatchKind = "override"
	// MatchRole means a role row decided.
	MatchRole MatchKind = "role"
	// MatchNone means nothing matched and the default deny applied.
	MatchNone MatchKind = "none"
)

// RuleRef points at the rule that produced a decision.
type RuleRef struct {
	Kind MatchKind `json:"kind"`
	ID   uint      `json:"id,omitempty"`
}

// Decision is the effective permission for one request.
type Decision struct {
	Allowed   bool     `json:"allowed"`
	Matched   RuleRef  `json:"matched"`
	Reason    string   `json:"reason"`
	Anomalies []string `json:"anomalies,omitempty"`
}

func denyNone(reason string) Decision {
	return Decision{Allowed: false, Matched: RuleRef{Kind: MatchNone}, Reason: reason}
}
