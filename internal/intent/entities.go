package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	durationHoursRe   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*h(?:ou)?rs?\b(?:\s*(?:,|and)?\s*(\d+)\s*min(?:ute)?s?\b)?`)
	durationMinutesRe = regexp.MustCompile(`(?i)\b(\d+)\s*min(?:ute)?s?\b`)
	durationClockRe   = regexp.MustCompile(`\b(\d{1,2}):([0-5]\d)\b`)

	projectDoubleQuotedRe = regexp.MustCompile(`"([^"]+)"`)
	projectSingleQuotedRe = regexp.MustCompile(`'([^']+)'`)
	projectLabeledRe      = regexp.MustCompile(`(?i)\bproject:\s*([^,.;\n]+)`)
	projectPhraseRe       = regexp.MustCompile(`(?i)\b(?:on|for|in)\s+(?:the\s+)?(.{1,60}?)\s+project\b`)

	dateISORe         = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dateUSRe          = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	dateYesterdayRe   = regexp.MustCompile(`(?i)\byesterday\b`)
	dateTodayRe       = regexp.MustCompile(`(?i)\btoday\b`)
	dateDaysAgoRe     = regexp.MustCompile(`(?i)\b(\d+)\s+days?\s+ago\b`)
	dateLastWeekdayRe = regexp.MustCompile(`(?i)\blast\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	timeRangeFromRe    = regexp.MustCompile(`(?i)\bfrom\s+(\d{1,2})(?::([0-5]\d))?\s*(am|pm)?\s*(?:to|until|till|-|–)\s*(\d{1,2})(?::([0-5]\d))?\s*(am|pm)?`)
	timeRangeBetweenRe = regexp.MustCompile(`(?i)\bbetween\s+(\d{1,2})(?::([0-5]\d))?\s*(am|pm)?\s+and\s+(\d{1,2})(?::([0-5]\d))?\s*(am|pm)?`)
	timeRangeBareRe    = regexp.MustCompile(`(?i)\b(\d{1,2})(?::([0-5]\d))?\s*(am|pm)?\s*(?:to|until|till|-|–)\s*(\d{1,2})(?::([0-5]\d))?\s*(am|pm)?`)

	leadingVerbRe = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:log(?:ged)?|add(?:ed)?|track(?:ed)?|record(?:ed)?|i\s+worked|worked|i\s+spent|spent)\b[:,]?\s*`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// extractEntities pulls time-entry entities out of the message. Extraction
// order matters: the time range is consumed first so its clock tokens cannot
// be misread as an H:MM duration.
func (p *Parser) extractEntities(text string) Entities {
	entities := Entities{}
	working := text

	if timeRange, raw := extractTimeRange(working); timeRange != nil {
		entities.TimeRange = timeRange
		working = consume(working, raw)
	}
	if duration, raw := extractDuration(working); duration != nil {
		entities.Duration = duration
		working = consume(working, raw)
	}
	if project, raw := extractProject(working); project != nil {
		entities.Project = project
		working = consume(working, raw)
	}
	dateTime, raw := p.extractDate(working)
	entities.DateTime = dateTime
	if raw != "" {
		working = consume(working, raw)
	}

	entities.Description = buildDescription(text, working)
	return entities
}

func extractDuration(text string) (*Duration, string) {
	if match := durationHoursRe.FindStringSubmatch(text); match != nil {
		hours, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return nil, ""
		}
		if match[2] != "" {
			minutes, err := strconv.Atoi(match[2])
			if err != nil {
				return nil, ""
			}
			hours += float64(minutes) / 60.0
		}
		if !validDurationHours(hours) {
			return nil, ""
		}
		return &Duration{Hours: hours, Confidence: 0.95, Raw: match[0]}, match[0]
	}

	if match := durationMinutesRe.FindStringSubmatch(text); match != nil {
		minutes, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, ""
		}
		hours := float64(minutes) / 60.0
		if !validDurationHours(hours) {
			return nil, ""
		}
		return &Duration{Hours: hours, Confidence: 0.9, Raw: match[0]}, match[0]
	}

	if match := durationClockRe.FindStringSubmatch(text); match != nil {
		wholeHours, _ := strconv.Atoi(match[1])
		minutes, _ := strconv.Atoi(match[2])
		hours := float64(wholeHours) + float64(minutes)/60.0
		if !validDurationHours(hours) {
			return nil, ""
		}
		return &Duration{Hours: hours, Confidence: 0.8, Raw: match[0]}, match[0]
	}

	return nil, ""
}

func validDurationHours(hours float64) bool {
	return hours > 0 && hours <= 24
}

func extractProject(text string) (*Project, string) {
	if match := projectDoubleQuotedRe.FindStringSubmatch(text); match != nil {
		return projectFrom(match[1], 0.95, match[0])
	}
	if match := projectSingleQuotedRe.FindStringSubmatch(text); match != nil {
		return projectFrom(match[1], 0.95, match[0])
	}
	if match := projectLabeledRe.FindStringSubmatch(text); match != nil {
		return projectFrom(match[1], 0.9, match[0])
	}
	if match := projectPhraseRe.FindStringSubmatch(text); match != nil {
		return projectFrom(match[1], 0.8, match[0])
	}
	return nil, ""
}

func projectFrom(name string, confidence float64, raw string) (*Project, string) {
	name = strings.Trim(strings.TrimSpace(name), ",.;:")
	if name == "" {
		return nil, ""
	}
	return &Project{ProjectName: name, Confidence: confidence, Raw: raw}, raw
}

// extractDate resolves the entry date. When nothing matches it defaults to
// today at half confidence rather than failing.
func (p *Parser) extractDate(text string) (*DateTime, string) {
	today := midnight(p.now())

	if match := dateISORe.FindStringSubmatch(text); match != nil {
		if date, ok := dateFromParts(match[1], match[2], match[3]); ok {
			return &DateTime{Date: date, Confidence: 1.0, Raw: match[0]}, match[0]
		}
	}
	if match := dateUSRe.FindStringSubmatch(text); match != nil {
		// US ordering: MM/DD/YYYY.
		if date, ok := dateFromParts(match[3], match[1], match[2]); ok {
			return &DateTime{Date: date, Confidence: 0.95, Raw: match[0]}, match[0]
		}
	}
	if match := dateYesterdayRe.FindString(text); match != "" {
		return &DateTime{Date: today.AddDate(0, 0, -1), Confidence: 0.9, Raw: match}, match
	}
	if match := dateDaysAgoRe.FindStringSubmatch(text); match != nil {
		days, err := strconv.Atoi(match[1])
		if err == nil {
			return &DateTime{Date: today.AddDate(0, 0, -days), Confidence: 0.9, Raw: match[0]}, match[0]
		}
	}
	if match := dateLastWeekdayRe.FindStringSubmatch(text); match != nil {
		target := weekdayNames[strings.ToLower(match[1])]
		delta := (int(today.Weekday()) - int(target) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return &DateTime{Date: today.AddDate(0, 0, -delta), Confidence: 0.8, Raw: match[0]}, match[0]
	}
	if match := dateTodayRe.FindString(text); match != "" {
		return &DateTime{Date: today, Confidence: 0.9, Raw: match}, match
	}

	return &DateTime{Date: today, Confidence: 0.5}, ""
}

func dateFromParts(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}

func midnight(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
}

func extractTimeRange(text string) (*TimeRange, string) {
	for _, re := range []*regexp.Regexp{timeRangeFromRe, timeRangeBetweenRe} {
		if match := re.FindStringSubmatch(text); match != nil {
			if timeRange := timeRangeFromMatch(match); timeRange != nil {
				return timeRange, match[0]
			}
		}
	}
	// Without a from/between anchor, require a meridiem or minutes on both
	// sides so bare numbers ("2 to 3 tasks") don't read as clock times.
	if match := timeRangeBareRe.FindStringSubmatch(text); match != nil {
		startQualified := match[2] != "" || match[3] != ""
		endQualified := match[5] != "" || match[6] != ""
		if startQualified && endQualified {
			if timeRange := timeRangeFromMatch(match); timeRange != nil {
				return timeRange, match[0]
			}
		}
	}
	return nil, ""
}

func timeRangeFromMatch(match []string) *TimeRange {
	startHour, startMinute, ok := parseClock(match[1], match[2], match[3])
	if !ok {
		return nil
	}
	endHour, endMinute, ok := parseClock(match[4], match[5], match[6])
	if !ok {
		return nil
	}

	// Meridiem inference: "from 9 to 5" means the end is PM.
	if match[3] == "" && match[6] == "" && endHour <= startHour && startHour < 12 {
		endHour += 12
	}

	return &TimeRange{
		Start:      fmt.Sprintf("%02d:%02d", startHour, startMinute),
		End:        fmt.Sprintf("%02d:%02d", endHour, endMinute),
		Confidence: 0.9,
		Raw:        match[0],
	}
}

func parseClock(hourPart, minutePart, meridiem string) (int, int, bool) {
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, 0, false
	}
	minute := 0
	if minutePart != "" {
		minute, err = strconv.Atoi(minutePart)
		if err != nil {
			return 0, 0, false
		}
	}
	switch strings.ToLower(meridiem) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 12 {
			hour += 12
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

// DurationFromTimeRange converts a range to fractional hours with
// minute-level precision. Ranges spanning midnight are not adjusted.
func DurationFromTimeRange(timeRange TimeRange) float64 {
	startHour, startMinute, ok := splitClock(timeRange.Start)
	if !ok {
		return 0
	}
	endHour, endMinute, ok := splitClock(timeRange.End)
	if !ok {
		return 0
	}
	minutes := (endHour*60 + endMinute) - (startHour*60 + startMinute)
	return float64(minutes) / 60.0
}

func splitClock(value string) (int, int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return hour, minute, true
}

// consume blanks the first occurrence of raw so later extractors and the
// description builder do not see it again.
func consume(text, raw string) string {
	if raw == "" {
		return text
	}
	return strings.Replace(text, raw, " ", 1)
}

// buildDescription returns the residual text after entity extraction,
// falling back to the full original when too little remains.
func buildDescription(original, residual string) string {
	cleaned := leadingVerbRe.ReplaceAllString(residual, "")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " ,.;:-")
	if len(cleaned) < 3 {
		return original
	}
	return cleaned
}
