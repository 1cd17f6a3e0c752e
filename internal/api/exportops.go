package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clockchat/clockchat/internal/export"
	"github.com/clockchat/clockchat/internal/observability"
)

type exportRequest struct {
	SQL    string `json:"sql"`
	Format string `json:"format"`
}

// handleExportReport runs an already-translated statement through the gate
// and writes the result set to the object store.
func handleExportReport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Gate == nil || deps.Executor == nil || deps.Exporter == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXPORT_NOT_CONFIGURED", "export dependencies are not configured", false, nil)
		return
	}
	identity, err := identityFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnauthorized, "IDENTITY_REQUIRED", err.Error(), false, nil)
		return
	}

	var request exportRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid export request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}
	format, err := export.ParseFormat(request.Format)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_FORMAT", err.Error(), false, nil)
		return
	}

	verdict := deps.Gate.ValidateQuery(request.SQL, identity.Role, identity.UserID, identity.TenantID)
	if !verdict.AllowedToExecute {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REJECTED", "statement did not pass the safety checks", false, map[string]any{
			"confidence": verdict.Confidence,
			"issues":     verdict.Issues,
		})
		return
	}

	results, err := deps.Executor.Execute(r.Context(), request.SQL)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "QUERY_FAILED", "statement could not be executed", true, nil)
		return
	}

	exported, err := deps.Exporter.Export(r.Context(), identity.TenantID, results, format)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", "report could not be stored", true, nil)
		return
	}
	observability.ObserveExport(string(exported.Format), exported.Size)

	writeJSON(w, http.StatusCreated, exported)
}
