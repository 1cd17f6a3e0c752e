package api

import (
	"errors"
	"net/http"

	"github.com/clockchat/clockchat/internal/fields"
)

type fieldResponse struct {
	Name     string   `json:"name"`
	Synonyms []string `json:"synonyms,omitempty"`
}

type tableResponse struct {
	Name   string          `json:"name"`
	Fields []fieldResponse `json:"fields"`
}

type fieldsResponse struct {
	Scope  string          `json:"scope"`
	Tables []tableResponse `json:"tables"`
}

func handleListFields(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Registry == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "FIELDS_NOT_CONFIGURED", "field registry is not configured", false, nil)
		return
	}
	identity, err := identityFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnauthorized, "IDENTITY_REQUIRED", err.Error(), false, nil)
		return
	}

	scope := fields.Scope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = fields.ScopeTenant
	}

	catalog, err := deps.Registry.ForRole(scope, identity.Role)
	if err != nil {
		if errors.Is(err, fields.ErrScopeForbidden) {
			writeError(r.Context(), w, http.StatusForbidden, "SCOPE_FORBIDDEN", "scope is not visible to this role", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SCOPE", err.Error(), false, nil)
		return
	}

	response := fieldsResponse{Scope: string(catalog.Scope), Tables: make([]tableResponse, 0, len(catalog.Tables))}
	for _, table := range catalog.Tables {
		converted := tableResponse{Name: table.Name, Fields: make([]fieldResponse, 0, len(table.Fields))}
		for _, field := range table.Fields {
			converted.Fields = append(converted.Fields, fieldResponse{Name: field.Name, Synonyms: field.Synonyms})
		}
		response.Tables = append(response.Tables, converted)
	}
	writeJSON(w, http.StatusOK, response)
}
