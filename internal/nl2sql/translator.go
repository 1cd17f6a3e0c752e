// Package nl2sql turns natural-language questions into candidate SQL. The
// output is untrusted by contract: every statement must pass the security
// gate before anything executes it.
package nl2sql

import "context"

// Request carries the question plus the prompt context. Schema is the
// minimized field-catalog rendering for the caller's scope and role.
type Request struct {
	TenantID        string `json:"tenant_id"`
	UserID          string `json:"user_id"`
	Role            string `json:"role"`
	NaturalLanguage string `json:"natural_language"`
	Schema          string `json:"schema"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
