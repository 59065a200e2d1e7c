package rbac

import (
	"context"
	"slices"
	"strings"
)

// Checker answers permission questions against a role policy.
type Checker struct {
	policy map[string][]string
}

// NewChecker uses RolePermissions when policy is nil.
func NewChecker(policy map[string][]string) *Checker {
	if policy == nil {
		policy = RolePermissions
	}
	return &Checker{policy: policy}
}

func (c *Checker) Has(role, perm string) bool {
	return slices.ContainsFunc(c.policy[role], func(pattern string) bool {
		return grants(pattern, perm)
	})
}

// Permissions expands the role's patterns into the concrete permissions of
// AllPermissions, in that order.
func (c *Checker) Permissions(role string) []string {
	out := []string{}
	for _, p := range AllPermissions {
		if c.Has(role, p) {
			out = append(out, p)
		}
	}
	return out
}

// grants reports whether pattern covers perm: "*" covers everything and a
// trailing "*" covers every permission with that prefix.
func grants(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	prefix, ok := strings.CutSuffix(pattern, "*")
	return ok && strings.HasPrefix(perm, prefix)
}

/* ---- role in context ---- */

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	s, _ := ctx.Value(roleKey{}).(string)
	return s
}
