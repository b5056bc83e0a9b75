package goAccess

import (
	"sort"
	"sync"
)

// PermissionCatalog is the static registry of permission names and
// role→permission assignments. It is seeded at initialization, may be
// frozen once seeding completes, and serves concurrent reads. Role
// assignments can be recomputed later through AssignRole (the
// administrative editing flow); registration of new permission names is
// rejected after Freeze.
type PermissionCatalog struct {
	mu          sync.RWMutex
	permissions map[string]struct{}
	roles       map[string][]string
	frozen      bool
}

// NewCatalog returns an empty catalog.
func NewCatalog() *PermissionCatalog {
	return &PermissionCatalog{
		permissions: make(map[string]struct{}),
		roles:       make(map[string][]string),
	}
}

// Register adds a permission name to the catalog. Names are globally
// unique; duplicates and post-Freeze registrations are rejected.
func (c *PermissionCatalog) Register(name string) error {
	if name == "" {
		return ErrPermissionUnknown
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return ErrCatalogFrozen
	}
	if _, exists := c.permissions[name]; exists {
		return ErrPermissionExists
	}
	c.permissions[name] = struct{}{}
	return nil
}

// AssignRole replaces the named role's permission set. Every permission
// must already be registered. Assignment stays available after Freeze:
// role editing is an administrative runtime flow, the permission
// vocabulary is not.
func (c *PermissionCatalog) AssignRole(role string, perms []string) error {
	if role == "" {
		return ErrPermissionUnknown
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range perms {
		if _, ok := c.permissions[p]; !ok {
			return ErrPermissionUnknown
		}
	}
	c.roles[role] = dedupe(perms)
	return nil
}

// Freeze locks the permission vocabulary. Idempotent.
func (c *PermissionCatalog) Freeze() {
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
}

// Permissions returns the sorted permission vocabulary.
func (c *PermissionCatalog) Permissions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.permissions))
	for p := range c.permissions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RolePermissions returns the named role's permission set, or nil for
// an unknown role.
func (c *PermissionCatalog) RolePermissions(role string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	perms, ok := c.roles[role]
	if !ok {
		return nil
	}
	return append([]string(nil), perms...)
}

// Roles returns the sorted role names known to the catalog.
func (c *PermissionCatalog) Roles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.roles))
	for r := range c.roles {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Resolve flattens role-inherited grants and direct grants into the
// permission set carried by a Principal snapshot. Unknown roles
// contribute nothing. Order is first-seen: role grants in role order,
// then direct grants.
func (c *PermissionCatalog) Resolve(roles []string, direct []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, role := range roles {
		for _, p := range c.roles[role] {
			add(p)
		}
	}
	for _, p := range direct {
		if _, ok := c.permissions[p]; ok {
			add(p)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// DefaultCatalog returns a frozen catalog seeded with the standard CMS
// role hierarchy: Super Admin holds everything, Admin everything except
// role/permission administration, Editor the content surface, Author a
// constrained own-content subset, Subscriber read-only access.
func DefaultCatalog() *PermissionCatalog {
	perms := []string{
		"view users", "create users", "edit users", "delete users",
		"restore users", "force delete users", "manage users", "manage user roles",
		"view pages", "create pages", "edit pages", "delete pages", "publish pages",
		"edit own pages", "delete own pages",
		"manage roles", "manage permissions", "manage settings",
		"view system stats", "view audit logs", "view dashboard",
		"upload media", "manage media", "delete media",
		"view comments", "moderate comments", "delete comments",
	}

	c := NewCatalog()
	for _, p := range perms {
		_ = c.Register(p)
	}

	_ = c.AssignRole("Super Admin", perms)
	_ = c.AssignRole("Admin", []string{
		"view users", "create users", "edit users", "delete users",
		"restore users", "manage users", "manage user roles",
		"view pages", "create pages", "edit pages", "delete pages", "publish pages",
		"manage settings", "view system stats", "view audit logs", "view dashboard",
		"upload media", "manage media", "delete media",
		"view comments", "moderate comments", "delete comments",
	})
	_ = c.AssignRole("Editor", []string{
		"view users",
		"view pages", "create pages", "edit pages", "delete pages", "publish pages",
		"view dashboard",
		"upload media", "manage media",
		"view comments", "moderate comments", "delete comments",
	})
	_ = c.AssignRole("Author", []string{
		"view pages", "create pages", "edit own pages", "delete own pages",
		"view dashboard",
		"upload media",
		"view comments",
	})
	_ = c.AssignRole("Subscriber", []string{
		"view pages", "view dashboard", "view comments",
	})

	c.Freeze()
	return c
}
