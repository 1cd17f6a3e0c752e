// Package report decides how a query result should be presented. It does not
// render anything itself: it picks a format from the phrasing of the request
// and returns instructions for a downstream renderer.
package report

import (
	"regexp"
	"sort"
)

type Format string

const (
	FormatTable      Format = "table"
	FormatList       Format = "list"
	FormatSummary    Format = "summary"
	FormatDetailed   Format = "detailed"
	FormatChart      Format = "chart"
	FormatStatistics Format = "statistics"
	FormatComparison Format = "comparison"
	FormatTimeline   Format = "timeline"
	FormatBreakdown  Format = "breakdown"
	FormatJSON       Format = "json"
	FormatCSV        Format = "csv"
	FormatMarkdown   Format = "markdown"
)

// Result is the formatting decision for one query.
type Result struct {
	PrimaryFormat    Format   `json:"primary_format"`
	SecondaryFormats []Format `json:"secondary_formats"`
	DetectedKeywords []string `json:"detected_keywords"`
	Confidence       float64  `json:"confidence"`
	Instructions     string   `json:"instructions"`
}

// formatKeyword maps one phrase to a format at a priority. Higher priority
// wins; 10 marks an explicit format request.
type formatKeyword struct {
	keyword  string
	format   Format
	priority int
}

var formatKeywords = []formatKeyword{
	{"table", FormatTable, 10},
	{"tabular", FormatTable, 9},
	{"grid", FormatTable, 8},
	{"columns", FormatTable, 7},

	{"list", FormatList, 10},
	{"bullet", FormatList, 9},
	{"enumerate", FormatList, 8},
	{"items", FormatList, 6},

	{"summary", FormatSummary, 10},
	{"summarize", FormatSummary, 9},
	{"overview", FormatSummary, 8},
	{"brief", FormatSummary, 7},

	{"detailed", FormatDetailed, 10},
	{"details", FormatDetailed, 9},
	{"in depth", FormatDetailed, 8},
	{"everything", FormatDetailed, 5},

	{"chart", FormatChart, 10},
	{"graph", FormatChart, 9},
	{"plot", FormatChart, 8},
	{"visualize", FormatChart, 8},
	{"histogram", FormatChart, 7},
	{"trend", FormatChart, 7},

	{"statistics", FormatStatistics, 10},
	{"stats", FormatStatistics, 9},
	{"average", FormatStatistics, 8},
	{"median", FormatStatistics, 7},
	{"total", FormatStatistics, 7},

	{"comparison", FormatComparison, 10},
	{"compare", FormatComparison, 9},
	{"versus", FormatComparison, 9},
	{"vs", FormatComparison, 8},
	{"difference between", FormatComparison, 7},

	{"timeline", FormatTimeline, 10},
	{"chronological", FormatTimeline, 8},
	{"day by day", FormatTimeline, 7},
	{"history", FormatTimeline, 6},

	{"breakdown", FormatBreakdown, 10},
	{"break down", FormatBreakdown, 9},
	{"split by", FormatBreakdown, 8},
	{"grouped by", FormatBreakdown, 7},
	{"per project", FormatBreakdown, 7},

	{"json", FormatJSON, 10},
	{"machine readable", FormatJSON, 7},

	{"csv", FormatCSV, 10},
	{"spreadsheet", FormatCSV, 9},
	{"excel", FormatCSV, 9},
	{"export", FormatCSV, 7},

	{"markdown", FormatMarkdown, 10},
}

var keywordRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(formatKeywords))
	for i, fk := range formatKeywords {
		res[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(fk.keyword) + `\b`)
	}
	return res
}()

const (
	defaultFormat     = FormatList
	defaultConfidence = 0.5
)

// DetectFormat scans the request for format keywords and picks the primary
// plus up to two secondary formats. With no keyword match it defaults to a
// list at half confidence.
func DetectFormat(query string) Result {
	type candidate struct {
		format    Format
		priority  int
		firstSeen int
	}

	best := map[Format]*candidate{}
	var detected []string

	for i, fk := range formatKeywords {
		if !keywordRes[i].MatchString(query) {
			continue
		}
		detected = append(detected, fk.keyword)
		existing, ok := best[fk.format]
		if !ok {
			best[fk.format] = &candidate{format: fk.format, priority: fk.priority, firstSeen: i}
			continue
		}
		if fk.priority > existing.priority {
			existing.priority = fk.priority
		}
	}

	if len(best) == 0 {
		return Result{
			PrimaryFormat:    defaultFormat,
			SecondaryFormats: []Format{},
			DetectedKeywords: []string{},
			Confidence:       defaultConfidence,
			Instructions:     instructionsFor(defaultFormat),
		}
	}

	ranked := make([]*candidate, 0, len(best))
	for _, c := range best {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].priority != ranked[j].priority {
			return ranked[i].priority > ranked[j].priority
		}
		return ranked[i].firstSeen < ranked[j].firstSeen
	})

	primary := ranked[0]
	secondary := make([]Format, 0, 2)
	for _, c := range ranked[1:] {
		if len(secondary) == 2 {
			break
		}
		secondary = append(secondary, c.format)
	}

	confidence := float64(primary.priority) / 10.0
	if confidence > 1.0 {
		confidence = 1.0
	}

	return Result{
		PrimaryFormat:    primary.format,
		SecondaryFormats: secondary,
		DetectedKeywords: detected,
		Confidence:       confidence,
		Instructions:     instructionsFor(primary.format),
	}
}
