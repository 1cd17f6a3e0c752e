// Package fields holds the queryable-field registry exposed to the
// natural-language translator. The registry is loaded once at startup and is
// immutable afterwards, so concurrent readers need no synchronization.
package fields

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clockchat/clockchat/internal/auth"
)

var ErrScopeForbidden = errors.New("fields: scope not visible to role")

type Scope string

const (
	// ScopeTenant covers per-tenant business tables.
	ScopeTenant Scope = "tenant"
	// ScopeAdmin covers cross-tenant administrative tables.
	ScopeAdmin Scope = "admin"
)

// Field maps a column to its natural-language synonyms, ranked
// most-important-first.
type Field struct {
	Name     string
	Synonyms []string
}

type Table struct {
	Name   string
	Fields []Field
}

// Catalog is an ordered list of tables. Slices rather than maps keep lookup
// and serialization order deterministic.
type Catalog struct {
	Scope  Scope
	Tables []Table
}

// Registry bundles both scope catalogs behind role checks.
type Registry struct {
	tenant Catalog
	admin  Catalog
}

func NewRegistry(tenant, admin Catalog) *Registry {
	tenant.Scope = ScopeTenant
	admin.Scope = ScopeAdmin
	return &Registry{tenant: tenant, admin: admin}
}

// ForRole returns the catalog for the requested scope. The admin-scope
// catalog is visible only to the admin role; the tenant scope is visible to
// any authenticated role.
func (r *Registry) ForRole(scope Scope, role string) (Catalog, error) {
	if !auth.ValidRole(role) {
		return Catalog{}, fmt.Errorf("fields: unknown role %q", role)
	}
	switch scope {
	case ScopeTenant:
		return r.tenant, nil
	case ScopeAdmin:
		if role != auth.RoleAdmin {
			return Catalog{}, ErrScopeForbidden
		}
		return r.admin, nil
	default:
		return Catalog{}, fmt.Errorf("fields: unknown scope %q", scope)
	}
}

// Minimize returns a copy keeping only the first maxSynonyms synonyms per
// field, in their original order.
func (c Catalog) Minimize(maxSynonyms int) Catalog {
	if maxSynonyms < 1 {
		maxSynonyms = 1
	}
	out := Catalog{Scope: c.Scope, Tables: make([]Table, 0, len(c.Tables))}
	for _, table := range c.Tables {
		minimized := Table{Name: table.Name, Fields: make([]Field, 0, len(table.Fields))}
		for _, field := range table.Fields {
			synonyms := field.Synonyms
			if len(synonyms) > maxSynonyms {
				synonyms = synonyms[:maxSynonyms]
			}
			copied := make([]string, len(synonyms))
			copy(copied, synonyms)
			minimized.Fields = append(minimized.Fields, Field{Name: field.Name, Synonyms: copied})
		}
		out.Tables = append(out.Tables, minimized)
	}
	return out
}

// FormatForPrompt serializes the catalog into the text block handed to the
// SQL generator. Output size scales with field count times synonym count.
func (c Catalog) FormatForPrompt() string {
	var b strings.Builder
	for _, table := range c.Tables {
		fmt.Fprintf(&b, "Table %s:\n", table.Name)
		for _, field := range table.Fields {
			if len(field.Synonyms) == 0 {
				fmt.Fprintf(&b, "  - %s\n", field.Name)
				continue
			}
			fmt.Fprintf(&b, "  - %s (%s)\n", field.Name, strings.Join(field.Synonyms, ", "))
		}
	}
	return b.String()
}

// FormatForPromptMinimal is FormatForPrompt over a minimized copy, bounding
// prompt size regardless of how rich the full synonym lists are.
func (c Catalog) FormatForPromptMinimal(maxSynonyms int) string {
	return c.Minimize(maxSynonyms).FormatForPrompt()
}

// Match is a resolved synonym lookup.
type Match struct {
	Table      string
	Field      string
	Confidence float64
}

// FindFieldBySynonym resolves free text to a catalog field. Exact synonym
// matches score 1.0, substring matches in either direction score 0.7. The
// first qualifying field in catalog order wins; there is no secondary
// ranking.
func (r *Registry) FindFieldBySynonym(text string, scope Scope, role string) (Match, bool) {
	catalog, err := r.ForRole(scope, role)
	if err != nil {
		return Match{}, false
	}
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return Match{}, false
	}

	for _, table := range catalog.Tables {
		for _, field := range table.Fields {
			for _, synonym := range field.Synonyms {
				candidate := strings.ToLower(synonym)
				if candidate == needle {
					return Match{Table: table.Name, Field: field.Name, Confidence: 1.0}, true
				}
				if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
					return Match{Table: table.Name, Field: field.Name, Confidence: 0.7}, true
				}
			}
		}
	}
	return Match{}, false
}
