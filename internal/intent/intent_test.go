package intent

import (
	"testing"
	"time"
)

func fixedClock(t *testing.T) func() time.Time {
	t.Helper()
	// Wednesday.
	return func() time.Time { return time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC) }
}

func TestParseClassifiesTimeEntry(t *testing.T) {
	parser := NewParserAt(fixedClock(t))

	parsed := parser.Parse("I worked 2.5 hours on Acme project yesterday")
	if parsed.Type != TypeTimeEntry {
		t.Fatalf("Parse() type = %s, want %s", parsed.Type, TypeTimeEntry)
	}
	if parsed.Confidence != 1.0 {
		t.Fatalf("Parse() confidence = %v, want 1.0", parsed.Confidence)
	}
	if parsed.Entities.Duration == nil || parsed.Entities.Duration.Hours != 2.5 {
		t.Fatalf("duration = %+v, want 2.5 hours", parsed.Entities.Duration)
	}
	if parsed.Entities.Project == nil || parsed.Entities.Project.ProjectName != "Acme" {
		t.Fatalf("project = %+v, want Acme", parsed.Entities.Project)
	}
	wantDate := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if parsed.Entities.DateTime == nil || !parsed.Entities.DateTime.Date.Equal(wantDate) {
		t.Fatalf("date = %+v, want %s", parsed.Entities.DateTime, wantDate)
	}
}

func TestParseClassifiesQuery(t *testing.T) {
	parser := NewParserAt(fixedClock(t))

	for _, text := range []string{
		"show me total hours by project",
		"how many hours did the team log this week?",
		"which project has the most unbilled work?",
	} {
		parsed := parser.Parse(text)
		if parsed.Type != TypeQuery {
			t.Fatalf("Parse(%q) type = %s, want %s", text, parsed.Type, TypeQuery)
		}
		if parsed.Confidence < 0.75 {
			t.Fatalf("Parse(%q) confidence = %v, want >= 0.75", text, parsed.Confidence)
		}
		if parsed.Entities.Duration != nil {
			t.Fatalf("Parse(%q) should not extract entities for queries", text)
		}
	}
}

func TestParseClassifiesHelp(t *testing.T) {
	parser := NewParserAt(fixedClock(t))

	parsed := parser.Parse("help")
	if parsed.Type != TypeHelp {
		t.Fatalf("Parse() type = %s, want %s", parsed.Type, TypeHelp)
	}
	if parsed.Confidence != 0.75 {
		t.Fatalf("Parse() confidence = %v, want 0.75", parsed.Confidence)
	}
}

func TestParseGreetingFallsBackToGeneral(t *testing.T) {
	parser := NewParserAt(fixedClock(t))

	parsed := parser.Parse("hi there")
	if parsed.Type != TypeGeneral {
		t.Fatalf("Parse() type = %s, want %s", parsed.Type, TypeGeneral)
	}
	if parsed.Confidence != greetingConfidence {
		t.Fatalf("Parse() confidence = %v, want %v", parsed.Confidence, greetingConfidence)
	}
}

func TestParseUnmatchableText(t *testing.T) {
	parser := NewParserAt(fixedClock(t))

	for _, text := range []string{"", "   ", "the quick brown fox"} {
		parsed := parser.Parse(text)
		if parsed.Type != TypeGeneral {
			t.Fatalf("Parse(%q) type = %s, want %s", text, parsed.Type, TypeGeneral)
		}
		if parsed.Confidence != defaultConfidence {
			t.Fatalf("Parse(%q) confidence = %v, want %v", text, parsed.Confidence, defaultConfidence)
		}
	}
}

func TestParseConfidenceCapsAtOne(t *testing.T) {
	parser := NewParserAt(fixedClock(t))

	parsed := parser.Parse("I worked and spent 3 hours, log the time entry")
	if parsed.Type != TypeTimeEntry {
		t.Fatalf("Parse() type = %s, want %s", parsed.Type, TypeTimeEntry)
	}
	if parsed.Confidence != 1.0 {
		t.Fatalf("Parse() confidence = %v, want capped at 1.0", parsed.Confidence)
	}
}
