package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/clockchat/clockchat/internal/fields"
	"github.com/clockchat/clockchat/internal/nl2sql"
	"github.com/clockchat/clockchat/internal/observability"
)

type validateRequest struct {
	SQL string `json:"sql"`
}

// handleValidateQuery exposes the security gate directly so operators and
// integration tests can probe candidate SQL without running the chat flow.
func handleValidateQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Gate == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "GATE_NOT_CONFIGURED", "security gate is not configured", false, nil)
		return
	}
	identity, err := identityFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnauthorized, "IDENTITY_REQUIRED", err.Error(), false, nil)
		return
	}

	var request validateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid validate request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}

	started := time.Now()
	verdict := deps.Gate.ValidateQuery(request.SQL, identity.Role, identity.UserID, identity.TenantID)
	severities := make([]string, 0, len(verdict.Issues))
	for _, issue := range verdict.Issues {
		severities = append(severities, string(issue.Severity))
	}
	observability.ObserveValidation(verdict.AllowedToExecute, severities, time.Since(started))

	writeJSON(w, http.StatusOK, verdict)
}

type translateRequest struct {
	Question string `json:"question"`
}

type translateResponse struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Security any    `json:"security,omitempty"`
}

func handleTranslateQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Translator == nil || deps.Registry == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", "translation dependencies are not configured", false, nil)
		return
	}
	identity, err := identityFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnauthorized, "IDENTITY_REQUIRED", err.Error(), false, nil)
		return
	}

	var request translateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid translate request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	catalog, err := deps.Registry.ForRole(fields.ScopeTenant, identity.Role)
	if err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}
	maxSynonyms := deps.MaxSynonyms
	if maxSynonyms < 1 {
		maxSynonyms = 1
	}

	translated, err := deps.Translator.Translate(r.Context(), nl2sql.Request{
		TenantID:        identity.TenantID,
		UserID:          identity.UserID,
		Role:            identity.Role,
		NaturalLanguage: request.Question,
		Schema:          catalog.FormatForPromptMinimal(maxSynonyms),
	})
	if err != nil {
		observability.IncrementTranslationFailure()
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", "question could not be translated", true, nil)
		return
	}

	response := translateResponse{SQL: translated.SQL, Provider: translated.Provider, Model: translated.Model}
	if deps.Gate != nil {
		verdict := deps.Gate.ValidateQuery(translated.SQL, identity.Role, identity.UserID, identity.TenantID)
		response.Security = verdict
	}
	writeJSON(w, http.StatusOK, response)
}
