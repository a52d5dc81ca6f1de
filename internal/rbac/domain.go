package rbac

import "strings"

// Permission names a capability checked at the HTTP layer.
type Permission string

const (
	PermCatalogWrite Permission = "catalog.write"
	PermImportRun    Permission = "import.run"
	PermAuditRead    Permission = "audit.read"
)

// Role names carried in the token role claim.
const (
	RoleAdmin    = "admin"
	RoleManager  = "catalog_manager"
	RoleImporter = "importer"
	RoleViewer   = "viewer"
)

// Policy maps roles to the permissions they grant.
type Policy struct {
	grants map[string]map[Permission]struct{}
}

// DefaultPolicy returns the grants used by the catalog service.
func DefaultPolicy() *Policy {
	return NewPolicy(map[string][]Permission{
		RoleAdmin:    {PermCatalogWrite, PermImportRun, PermAuditRead},
		RoleManager:  {PermCatalogWrite, PermImportRun, PermAuditRead},
		RoleImporter: {PermImportRun},
		RoleViewer:   nil,
	})
}

// NewPolicy builds a policy from role grants. Role names are case-insensitive.
func NewPolicy(grants map[string][]Permission) *Policy {
	p := &Policy{grants: make(map[string]map[Permission]struct{}, len(grants))}
	for role, perms := range grants {
		set := make(map[Permission]struct{}, len(perms))
		for _, perm := range perms {
			set[perm] = struct{}{}
		}
		p.grants[normalizeRole(role)] = set
	}
	return p
}

// Allows reports whether role holds at least one of perms.
func (p *Policy) Allows(role string, perms ...Permission) bool {
	if len(perms) == 0 {
		return true
	}
	if p == nil {
		return false
	}
	granted := p.grants[normalizeRole(role)]
	for _, perm := range perms {
		if _, ok := granted[perm]; ok {
			return true
		}
	}
	return false
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
