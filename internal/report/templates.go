package report

// Each format maps to a fixed instructional template: a structural skeleton
// plus one worked example. The formatter concatenates the template with the
// generic guidelines and hands the text to the renderer.

const genericGuidelines = `General guidelines:
- Use the requester's wording for labels where possible.
- Round hour values to two decimals, percentages to whole numbers.
- Show dates as YYYY-MM-DD.
- If the result set is empty, say so plainly instead of rendering an empty structure.
- Never invent rows that are not present in the result set.`

var formatTemplates = map[Format]string{
	FormatTable: `Render the rows as a markdown table. First row is the header, one result row per line, numeric columns right-aligned.
Example:
| Project | Hours |
|---------|------:|
| Acme    |  12.5 |
| Beta    |   7.0 |`,

	FormatList: `Render the rows as a flat bulleted list, one result row per bullet, most significant value first.
Example:
- Acme: 12.5 hours
- Beta: 7.0 hours`,

	FormatSummary: `Render a short prose summary: one opening sentence with the headline number, then at most three supporting sentences.
Example:
You logged 19.5 hours this week. Most of it (12.5h) went to Acme, the rest to Beta.`,

	FormatDetailed: `Render every row with all available columns, grouped by the most selective dimension, no truncation.
Example:
Acme / 2025-03-10 / 8.0h / billable / "API integration"`,

	FormatChart: `Describe a chart of the data: name the chart type that fits the shape (bars for categories, a line for values over time), the axes, and each series.
Example:
Bar chart, hours per project:
Acme  ############ 12.5h
Beta  #######       7.0h`,

	FormatStatistics: `Render the aggregate figures: total, average, minimum and maximum, each with its unit, then one sentence of context.
Example:
Total 19.5h, average 3.9h/day, min 1.0h (Friday), max 8.0h (Monday).`,

	FormatComparison: `Render a side-by-side comparison of exactly the compared subjects: one column per subject, one row per metric, plus a delta row.
Example:
          Acme   Beta   delta
Hours     12.5    7.0    +5.5`,

	FormatTimeline: `Render entries in chronological order, one line per entry, date first.
Example:
2025-03-10: 8.0h on Acme (API integration)
2025-03-11: 6.5h on Beta (design review)`,

	FormatBreakdown: `Render the total split by the grouping dimension: one line per group with its value and share of the whole, largest first.
Example:
Acme: 12.5h (64%)
Beta: 7.0h (36%)`,

	FormatJSON: `Render the rows as a JSON array of objects, one object per row, column names as keys, no trailing commentary.
Example:
[{"project":"Acme","hours":12.5},{"project":"Beta","hours":7.0}]`,

	FormatCSV: `Render the rows as CSV: header line first, comma-separated, values quoted only when they contain commas.
Example:
project,hours
Acme,12.5
Beta,7.0`,

	FormatMarkdown: `Render the result as a markdown document: a heading with the question, then the data in the structure that fits it best, tables preferred.
Example:
## Hours by project
| Project | Hours |
|---------|------:|
| Acme    |  12.5 |`,
}

func instructionsFor(format Format) string {
	template, ok := formatTemplates[format]
	if !ok {
		template = formatTemplates[defaultFormat]
	}
	return template + "\n\n" + genericGuidelines
}
