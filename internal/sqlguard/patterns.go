package sqlguard

import "regexp"

// pattern is one detectable signal. Each stage owns a table of them so the
// rule set stays declarative and independently testable.
type pattern struct {
	re        *regexp.Regexp
	issueType string
	message   string
}

var injectionPatterns = []pattern{
	{
		re:        regexp.MustCompile(`--|/\*`),
		issueType: "sql_comment",
		message:   "SQL comment token detected",
	},
	{
		re:        regexp.MustCompile(`(?i)\bunion\b[\s(]*(?:all\s+)?select\b`),
		issueType: "union_select",
		message:   "UNION SELECT detected",
	},
	{
		re:        regexp.MustCompile(`(?i)\b(?:or|and)\s+(?:1\s*=\s*1|'1'\s*=\s*'1'|true)\b`),
		issueType: "always_true_condition",
		message:   "always-true condition detected",
	},
	{
		re:        regexp.MustCompile(`(?i)\b(?:exec(?:ute)?\s*\(|sp_executesql\b|execute\s+immediate\b)`),
		issueType: "dynamic_execution",
		message:   "dynamic statement execution detected",
	},
	{
		re:        regexp.MustCompile(`(?i)\b(?:load_file\s*\(|pg_read_file\s*\(|into\s+(?:outfile|dumpfile)\b)`),
		issueType: "file_access",
		message:   "file read/write primitive detected",
	},
}

var (
	forbiddenKeywordRe = regexp.MustCompile(`(?i)\b(drop|truncate|delete|alter|create|grant|revoke|rename|replace)\b`)
	writeKeywordRe     = regexp.MustCompile(`(?i)\b(update|insert)\b`)

	// The s flag keeps the clause capture working across newlines in
	// multi-line statements.
	whereClauseRe = regexp.MustCompile(`(?is)\bwhere\b(.*)$`)
	// TRUE counts as a tautology only when it is an entire conjunct;
	// comparisons like "billable = true" are selective predicates.
	tautologyRe      = regexp.MustCompile(`(?i)(?:\b1\s*=\s*1\b|'1'\s*=\s*'1'|(?:^|\(|\bor\b|\band\b)\s*true\s*(?:\)|\bor\b|\band\b|$))`)
	userColumnRe     = regexp.MustCompile(`(?i)\buser_id\b`)
	limitClauseRe    = regexp.MustCompile(`(?i)\blimit\s+\d+`)
	nestedSubqueryRe = regexp.MustCompile(`(?i)\(\s*select\b`)
	multiValuesRe    = regexp.MustCompile(`(?i)\bvalues\s*\([^)]*\)\s*,\s*\(`)

	joinRe = regexp.MustCompile(`(?i)\bjoin\b`)
)

var hardeningPatterns = []pattern{
	{
		re:        regexp.MustCompile(`(?i)\b(?:information_schema|pg_catalog|pg_tables|pg_shadow|sqlite_master|mysql\.user|sys\.)`),
		issueType: "system_schema_access",
		message:   "system catalog access detected",
	},
	{
		re:        regexp.MustCompile(`(?i)(?:\b(?:char|chr)\s*\(|0x[0-9a-f]{4,})`),
		issueType: "obfuscation",
		message:   "obfuscation marker detected",
	},
	{
		re:        regexp.MustCompile(`(?i)\b(?:sleep|pg_sleep|benchmark)\s*\(|\bwaitfor\s+delay\b`),
		issueType: "timing_attack",
		message:   "timing-attack primitive detected",
	},
}

// enumerationPatterns only cap confidence, they do not force rejection.
var enumerationPatterns = []pattern{
	{
		re:        regexp.MustCompile(`(?i)\b(?:version|database|current_user|user|current_schema)\s*\(`),
		issueType: "database_enumeration",
		message:   "database enumeration call detected",
	},
}
