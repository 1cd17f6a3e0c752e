// Package pipeline wires the chat flow: classify the message, pick a report
// format, translate queries to SQL, gate the SQL, and execute it only when
// the gate allows.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/clockchat/clockchat/internal/auth"
	"github.com/clockchat/clockchat/internal/fields"
	"github.com/clockchat/clockchat/internal/intent"
	"github.com/clockchat/clockchat/internal/nl2sql"
	"github.com/clockchat/clockchat/internal/observability"
	"github.com/clockchat/clockchat/internal/query"
	"github.com/clockchat/clockchat/internal/report"
	"github.com/clockchat/clockchat/internal/sqlguard"
)

type Config struct {
	MaxSynonymsPerField int
}

type Pipeline struct {
	logger      *slog.Logger
	registry    *fields.Registry
	parser      *intent.Parser
	gate        *sqlguard.Gate
	translator  nl2sql.Translator
	executor    query.Executor
	maxSynonyms int
}

// New builds the pipeline. translator and executor are optional: without a
// translator query intents stop after format detection, without an executor
// approved SQL is returned but not run.
func New(logger *slog.Logger, registry *fields.Registry, translator nl2sql.Translator, executor query.Executor, cfg Config) *Pipeline {
	maxSynonyms := cfg.MaxSynonymsPerField
	if maxSynonyms < 1 {
		maxSynonyms = 1
	}
	return &Pipeline{
		logger:      logger,
		registry:    registry,
		parser:      intent.NewParser(),
		gate:        sqlguard.NewGate(),
		translator:  translator,
		executor:    executor,
		maxSynonyms: maxSynonyms,
	}
}

// Response is the assembled outcome for one chat message. Fields beyond
// Intent and Reply are populated only for the flows that produce them.
type Response struct {
	Intent   intent.Parsed    `json:"intent"`
	Format   *report.Result   `json:"format,omitempty"`
	SQL      string           `json:"sql,omitempty"`
	Security *sqlguard.Result `json:"security,omitempty"`
	Results  *query.ResultSet `json:"results,omitempty"`
	Reply    string           `json:"reply"`
}

func (p *Pipeline) HandleMessage(ctx context.Context, identity auth.Identity, text string) (Response, error) {
	parsed := p.parser.Parse(text)
	observability.ObserveIntent(string(parsed.Type))

	response := Response{Intent: parsed}
	switch parsed.Type {
	case intent.TypeTimeEntry:
		response.Reply = timeEntryReply(parsed.Entities)
		return response, nil
	case intent.TypeHelp:
		response.Reply = helpReply
		return response, nil
	case intent.TypeQuery:
		return p.handleQuery(ctx, identity, text, response)
	default:
		response.Reply = generalReply
		return response, nil
	}
}

func (p *Pipeline) handleQuery(ctx context.Context, identity auth.Identity, text string, response Response) (Response, error) {
	format := report.DetectFormat(text)
	response.Format = &format

	catalog, err := p.registry.ForRole(fields.ScopeTenant, identity.Role)
	if err != nil {
		return Response{}, fmt.Errorf("resolve field catalog: %w", err)
	}

	if p.translator == nil {
		response.Reply = "Query understood, but SQL translation is disabled on this instance."
		return response, nil
	}

	translated, err := p.translator.Translate(ctx, nl2sql.Request{
		TenantID:        identity.TenantID,
		UserID:          identity.UserID,
		Role:            identity.Role,
		NaturalLanguage: text,
		Schema:          catalog.FormatForPromptMinimal(p.maxSynonyms),
	})
	if err != nil {
		observability.IncrementTranslationFailure()
		return Response{}, fmt.Errorf("translate query: %w", err)
	}
	response.SQL = translated.SQL

	started := time.Now()
	verdict := p.gate.ValidateQuery(translated.SQL, identity.Role, identity.UserID, identity.TenantID)
	response.Security = &verdict

	severities := make([]string, 0, len(verdict.Issues))
	for _, issue := range verdict.Issues {
		severities = append(severities, string(issue.Severity))
	}
	observability.ObserveValidation(verdict.AllowedToExecute, severities, time.Since(started))

	if !verdict.AllowedToExecute {
		observability.WithTrace(ctx, p.logger).Warn("query rejected by security gate",
			slog.String("tenant_id", identity.TenantID),
			slog.String("user_id", identity.UserID),
			slog.Int("confidence", verdict.Confidence),
			slog.Int("issues", len(verdict.Issues)))
		response.Reply = "The generated query did not pass the safety checks and was not run."
		return response, nil
	}

	if p.executor == nil {
		response.Reply = "Query approved. Execution is disabled on this instance."
		return response, nil
	}

	results, err := p.executor.Execute(ctx, translated.SQL)
	if err != nil {
		return Response{}, fmt.Errorf("execute query: %w", err)
	}
	response.Results = &results
	response.Reply = queryReply(results)
	return response, nil
}

const helpReply = "You can log time (\"I worked 2 hours on Acme yesterday\"), " +
	"ask questions about your entries (\"show me a table of hours by project\"), " +
	"or rate my answers with the feedback buttons."

const generalReply = "I track your working time. Ask me to log hours or to report on them, or say \"help\"."

func timeEntryReply(entities intent.Entities) string {
	var parts []string

	hours := 0.0
	switch {
	case entities.Duration != nil:
		hours = entities.Duration.Hours
	case entities.TimeRange != nil:
		hours = intent.DurationFromTimeRange(*entities.TimeRange)
	}
	if hours > 0 {
		parts = append(parts, strconv.FormatFloat(hours, 'f', -1, 64)+" hours")
	}
	if entities.Project != nil {
		parts = append(parts, "on "+entities.Project.ProjectName)
	}
	if entities.DateTime != nil {
		parts = append(parts, "for "+entities.DateTime.Date.Format("2006-01-02"))
	}

	if len(parts) == 0 {
		return "That looks like a time entry, but I could not extract the details. Try \"I worked 2 hours on Acme yesterday\"."
	}
	return "Logging " + strings.Join(parts, " ") + "."
}

func queryReply(results query.ResultSet) string {
	switch {
	case len(results.Rows) == 0:
		return "No matching entries found."
	case results.Truncated:
		return fmt.Sprintf("Found %d rows (truncated at the row limit).", len(results.Rows))
	default:
		return fmt.Sprintf("Found %d rows.", len(results.Rows))
	}
}
