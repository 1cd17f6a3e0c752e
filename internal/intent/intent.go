// Package intent classifies free-text chat messages and extracts time-entry
// entities. Parsing is a pure function of the input text (plus an injectable
// clock for relative dates), so parsers are safe for concurrent use.
package intent

import (
	"regexp"
	"strings"
	"time"
)

type Type string

const (
	TypeTimeEntry Type = "time_entry"
	TypeQuery     Type = "query"
	TypeHelp      Type = "help"
	TypeGeneral   Type = "general"
)

// Duration is an extracted amount of worked time.
type Duration struct {
	Hours      float64
	Confidence float64
	Raw        string
}

type Project struct {
	ProjectName string
	Confidence  float64
	Raw         string
}

type DateTime struct {
	Date       time.Time
	Confidence float64
	Raw        string
}

// TimeRange holds 24-hour clock endpoints formatted as HH:MM.
type TimeRange struct {
	Start      string
	End        string
	Confidence float64
	Raw        string
}

type Entities struct {
	Duration    *Duration
	Project     *Project
	DateTime    *DateTime
	TimeRange   *TimeRange
	Description string
}

// Parsed is the classification result for one message. Entities are
// populated only when Type is TypeTimeEntry.
type Parsed struct {
	Type         Type
	Confidence   float64
	Entities     Entities
	OriginalText string
}

// patternGroup is one matchable signal for an intent. Each matched group
// raises confidence by 0.25 above the 0.5 baseline.
type patternGroup struct {
	intent   Type
	patterns []*regexp.Regexp
}

// Declaration order doubles as the tie-break order.
var intentPatterns = []patternGroup{
	{
		intent: TypeTimeEntry,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:i\s+)?(?:worked|spent|logged)\b`),
			regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:h(?:ou)?rs?|min(?:ute)?s?)\b`),
			regexp.MustCompile(`(?i)\b(?:log|add|track|record)\b.*\b(?:time|hours|entry)\b`),
		},
	},
	{
		intent: TypeQuery,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:show|list|display|give)\s+(?:me\s+)?`),
			regexp.MustCompile(`(?i)\bhow\s+(?:many|much)\b`),
			regexp.MustCompile(`(?i)\b(?:total|summary|report|breakdown|statistics|average|compare)\b`),
			regexp.MustCompile(`(?i)\b(?:which|what|who)\b.*\?`),
		},
	},
	{
		intent: TypeHelp,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bhelp\b`),
			regexp.MustCompile(`(?i)\bhow\s+do\s+i\b`),
			regexp.MustCompile(`(?i)\bwhat\s+can\s+you\b`),
		},
	},
}

var greetingPattern = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey|thanks|thank\s+you|ok|okay|yes|no)\b`)

const (
	baseConfidence     = 0.5
	perMatchConfidence = 0.25
	greetingMaxLength  = 30
	greetingConfidence = 0.9
	defaultConfidence  = 0.3
)

type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// NewParserAt pins the parser's clock, used to resolve relative dates.
func NewParserAt(now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{now: now}
}

// Parse classifies the message and, for time-entry intents, extracts
// entities. It never fails: unmatchable text classifies as general at low
// confidence.
func (p *Parser) Parse(text string) Parsed {
	parsed := Parsed{Type: TypeGeneral, Confidence: defaultConfidence, OriginalText: text}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parsed
	}
	if len(trimmed) < greetingMaxLength && greetingPattern.MatchString(trimmed) {
		parsed.Confidence = greetingConfidence
		return parsed
	}

	bestIntent := TypeGeneral
	bestConfidence := 0.0
	for _, group := range intentPatterns {
		matches := 0
		for _, pattern := range group.patterns {
			if pattern.MatchString(trimmed) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		confidence := baseConfidence + perMatchConfidence*float64(matches)
		if confidence > 1.0 {
			confidence = 1.0
		}
		// Strictly greater keeps the earlier declaration on ties.
		if confidence > bestConfidence {
			bestConfidence = confidence
			bestIntent = group.intent
		}
	}

	if bestConfidence > 0 {
		parsed.Type = bestIntent
		parsed.Confidence = bestConfidence
	}
	if parsed.Type == TypeTimeEntry {
		parsed.Entities = p.extractEntities(text)
	}
	return parsed
}
