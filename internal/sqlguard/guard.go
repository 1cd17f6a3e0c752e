// Package sqlguard validates candidate SQL statements before execution. It is
// pattern-matching defense in depth, not a grammar validator: generated SQL is
// treated as fully untrusted regardless of provenance, and the verdict errs on
// the side of rejection.
package sqlguard

import (
	"fmt"
	"strings"

	"github.com/clockchat/clockchat/internal/auth"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Issue is one finding from a validation stage. DetectedPattern carries the
// offending fragment for operator-facing audit logs.
type Issue struct {
	Severity        Severity `json:"severity"`
	Type            string   `json:"type"`
	Message         string   `json:"message"`
	DetectedPattern string   `json:"detected_pattern,omitempty"`
}

// Result is the verdict for one statement. AllowedToExecute holds exactly
// when Confidence is 100 and no issues were raised.
type Result struct {
	IsSafe           bool    `json:"is_safe"`
	Confidence       int     `json:"confidence"`
	Issues           []Issue `json:"issues"`
	AllowedToExecute bool    `json:"allowed_to_execute"`
}

const (
	maxStatementLength = 10000
	maxJoinCount       = 5
)

// Gate runs the validation stages. It holds no mutable state and is safe for
// concurrent use.
type Gate struct {
	maxLength int
	maxJoins  int
}

func NewGate() *Gate {
	return &Gate{maxLength: maxStatementLength, maxJoins: maxJoinCount}
}

type stageResult struct {
	issues     []Issue
	confidence int
}

// ValidateQuery runs every stage over the statement and aggregates the
// findings. Stages never short-circuit: a critical hit in an early stage
// still lets later stages report, so the issue list is exhaustive. The final
// confidence is the minimum across stages. Callers must check
// AllowedToExecute before running the statement.
func (g *Gate) ValidateQuery(sql, role, userID, tenantID string) Result {
	stages := []func(sql, role string) stageResult{
		g.checkInjection,
		g.checkForbiddenOperations,
		g.checkRoleAccess,
		g.checkStructure,
		g.checkBulkOperations,
		g.checkHardening,
	}

	result := Result{Confidence: 100, Issues: []Issue{}}
	for _, stage := range stages {
		outcome := stage(sql, role)
		result.Issues = append(result.Issues, outcome.issues...)
		if outcome.confidence < result.Confidence {
			result.Confidence = outcome.confidence
		}
	}

	result.IsSafe = result.Confidence == 100 && len(result.Issues) == 0
	result.AllowedToExecute = result.IsSafe
	return result
}

func (g *Gate) checkInjection(sql, _ string) stageResult {
	var issues []Issue

	for _, p := range injectionPatterns {
		if match := p.re.FindString(sql); match != "" {
			issues = append(issues, Issue{
				Severity:        SeverityCritical,
				Type:            p.issueType,
				Message:         p.message,
				DetectedPattern: match,
			})
		}
	}
	if strings.Count(sql, ";") > 1 {
		issues = append(issues, Issue{
			Severity: SeverityCritical,
			Type:     "statement_chaining",
			Message:  "multiple statements chained with semicolons",
		})
	}
	for _, r := range sql {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			issues = append(issues, Issue{
				Severity: SeverityCritical,
				Type:     "control_characters",
				Message:  "control characters in statement",
			})
			break
		}
	}

	return stageResult{issues: issues, confidence: confidenceFor(issues)}
}

func (g *Gate) checkForbiddenOperations(sql, _ string) stageResult {
	var issues []Issue

	seen := map[string]bool{}
	for _, match := range forbiddenKeywordRe.FindAllString(sql, -1) {
		keyword := strings.ToUpper(match)
		if seen[keyword] {
			continue
		}
		seen[keyword] = true
		issues = append(issues, Issue{
			Severity:        SeverityCritical,
			Type:            "forbidden_operation",
			Message:         fmt.Sprintf("operation %s is not permitted", keyword),
			DetectedPattern: keyword,
		})
	}
	for _, match := range writeKeywordRe.FindAllString(sql, -1) {
		keyword := strings.ToUpper(match)
		if seen[keyword] {
			continue
		}
		seen[keyword] = true
		issues = append(issues, Issue{
			Severity:        SeverityMedium,
			Type:            "write_operation",
			Message:         fmt.Sprintf("write operation %s requires scrutiny", keyword),
			DetectedPattern: keyword,
		})
	}

	return stageResult{issues: issues, confidence: confidenceFor(issues)}
}

func (g *Gate) checkRoleAccess(sql, role string) stageResult {
	var issues []Issue
	verb := firstKeyword(sql)

	switch {
	case verb == "INSERT":
		issues = append(issues, Issue{
			Severity: SeverityCritical,
			Type:     "insert_forbidden",
			Message:  "INSERT is not permitted for any role",
		})
	case role == auth.RoleAdmin || role == auth.RoleTenantAdmin:
		if verb != "SELECT" {
			issues = append(issues, Issue{
				Severity:        SeverityCritical,
				Type:            "role_violation",
				Message:         fmt.Sprintf("role %s may only issue SELECT", role),
				DetectedPattern: verb,
			})
		}
	case role == auth.RoleUser:
		if verb != "SELECT" && verb != "UPDATE" {
			issues = append(issues, Issue{
				Severity:        SeverityCritical,
				Type:            "role_violation",
				Message:         "role user may only issue SELECT or UPDATE",
				DetectedPattern: verb,
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityCritical,
			Type:     "unknown_role",
			Message:  fmt.Sprintf("role %q is not recognized", role),
		})
	}

	return stageResult{issues: issues, confidence: confidenceFor(issues)}
}

func (g *Gate) checkStructure(sql, role string) stageResult {
	var issues []Issue
	verb := firstKeyword(sql)

	if verb == "" {
		issues = append(issues, Issue{
			Severity: SeverityCritical,
			Type:     "empty_statement",
			Message:  "statement is empty",
		})
	}

	if whereMatch := whereClauseRe.FindStringSubmatch(sql); whereMatch != nil {
		clause := whereMatch[1]
		if verb == "UPDATE" {
			if tautologyRe.MatchString(clause) {
				issues = append(issues, Issue{
					Severity:        SeverityCritical,
					Type:            "tautological_where",
					Message:         "UPDATE WHERE clause is always true",
					DetectedPattern: tautologyRe.FindString(clause),
				})
			}
			if role == auth.RoleUser && !userColumnRe.MatchString(clause) {
				issues = append(issues, Issue{
					Severity: SeverityCritical,
					Type:     "missing_user_scope",
					Message:  "UPDATE for role user must filter on user_id",
				})
			}
		}
	}

	if verb == "SELECT" && !limitClauseRe.MatchString(sql) {
		issues = append(issues, Issue{
			Severity: SeverityLow,
			Type:     "missing_limit",
			Message:  "SELECT without LIMIT may return unbounded rows",
		})
	}
	if match := nestedSubqueryRe.FindString(sql); match != "" {
		issues = append(issues, Issue{
			Severity:        SeverityCritical,
			Type:            "nested_subquery",
			Message:         "nested subqueries are not permitted",
			DetectedPattern: match,
		})
	}

	return stageResult{issues: issues, confidence: confidenceFor(issues)}
}

func (g *Gate) checkBulkOperations(sql, _ string) stageResult {
	var issues []Issue
	verb := firstKeyword(sql)

	if verb == "UPDATE" && !whereClauseRe.MatchString(sql) {
		issues = append(issues, Issue{
			Severity: SeverityCritical,
			Type:     "bulk_update",
			Message:  "UPDATE without WHERE affects every row",
		})
	}
	if match := multiValuesRe.FindString(sql); match != "" {
		issues = append(issues, Issue{
			Severity:        SeverityCritical,
			Type:            "bulk_insert",
			Message:         "INSERT with multiple value tuples is not permitted",
			DetectedPattern: match,
		})
	}

	return stageResult{issues: issues, confidence: confidenceFor(issues)}
}

func (g *Gate) checkHardening(sql, _ string) stageResult {
	var issues []Issue

	if len(sql) > g.maxLength {
		issues = append(issues, Issue{
			Severity: SeverityCritical,
			Type:     "statement_too_long",
			Message:  fmt.Sprintf("statement exceeds %d characters", g.maxLength),
		})
	}
	if joins := len(joinRe.FindAllString(sql, -1)); joins > g.maxJoins {
		issues = append(issues, Issue{
			Severity: SeverityCritical,
			Type:     "too_many_joins",
			Message:  fmt.Sprintf("statement has %d joins, at most %d allowed", joins, g.maxJoins),
		})
	}
	for _, p := range hardeningPatterns {
		if match := p.re.FindString(sql); match != "" {
			issues = append(issues, Issue{
				Severity:        SeverityCritical,
				Type:            p.issueType,
				Message:         p.message,
				DetectedPattern: match,
			})
		}
	}
	for _, p := range enumerationPatterns {
		if match := p.re.FindString(sql); match != "" {
			issues = append(issues, Issue{
				Severity:        SeverityMedium,
				Type:            p.issueType,
				Message:         p.message,
				DetectedPattern: match,
			})
		}
	}

	return stageResult{issues: issues, confidence: confidenceFor(issues)}
}

// confidenceFor maps the worst issue in a stage to that stage's confidence.
func confidenceFor(issues []Issue) int {
	confidence := 100
	for _, issue := range issues {
		var value int
		switch issue.Severity {
		case SeverityCritical:
			value = 0
		case SeverityHigh:
			value = 25
		case SeverityMedium:
			value = 60
		case SeverityLow:
			value = 90
		default:
			value = 0
		}
		if value < confidence {
			confidence = value
		}
	}
	return confidence
}

func firstKeyword(sql string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(sql), "(")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Trim(fields[0], "();"))
}
