// Package query executes validated SQL against the analytics database.
// Callers must hold a passing security-gate verdict before reaching this
// layer; the executor itself applies only resource limits.
package query

import "context"

type Row map[string]any

// ResultSet is the shaped output of one statement. Truncated reports that
// the row cap cut the result short.
type ResultSet struct {
	Columns   []string `json:"columns"`
	Rows      []Row    `json:"rows"`
	Truncated bool     `json:"truncated"`
}

type Executor interface {
	Execute(ctx context.Context, sql string) (ResultSet, error)
}
