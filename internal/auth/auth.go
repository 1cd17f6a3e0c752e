package auth

import (
	"context"
	"fmt"
	"strings"
)

// Roles recognized by the pipeline. Admin and tenant-admin identities are
// read-only in SQL terms; plain users may also update their own records.
const (
	RoleAdmin       = "admin"
	RoleTenantAdmin = "tenantadmin"
	RoleUser        = "user"
)

// Identity is the verified caller context supplied by the auth layer.
type Identity struct {
	TenantID string
	UserID   string
	Role     string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTenantAdmin, RoleUser:
		return true
	default:
		return false
	}
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

// NewStaticAPIKeyValidator parses a comma-separated list of
// key:tenant:user:role entries.
func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return validator, nil
	}

	entries := strings.Split(spec, ",")
	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid static key entry %q: expected key:tenant:user:role", entry)
		}
		key := strings.TrimSpace(parts[0])
		tenant := strings.TrimSpace(parts[1])
		user := strings.TrimSpace(parts[2])
		role := strings.TrimSpace(parts[3])
		if key == "" || tenant == "" || user == "" {
			return nil, fmt.Errorf("invalid static key entry %q: empty key/tenant/user", entry)
		}
		if !ValidRole(role) {
			return nil, fmt.Errorf("invalid static key entry %q: unknown role %q", entry, role)
		}
		validator.keys[key] = Identity{TenantID: tenant, UserID: user, Role: role}
	}

	return validator, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}
