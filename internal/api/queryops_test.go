package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clockchat/clockchat/internal/auth"
	"github.com/clockchat/clockchat/internal/nl2sql"
	"github.com/clockchat/clockchat/internal/sqlguard"
)

type fakeTranslator struct {
	sql     string
	lastReq nl2sql.Request
}

func (f *fakeTranslator) Translate(_ context.Context, req nl2sql.Request) (nl2sql.Result, error) {
	f.lastReq = req
	return nl2sql.Result{SQL: f.sql, Provider: "fake", Model: "fake"}, nil
}

func TestValidateQueryEndpoint(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Logger: testLogger(), Gate: sqlguard.NewGate()})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/query/validate",
		strings.NewReader(`{"sql":"DROP TABLE time_entries"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	var verdict sqlguard.Result
	if err := json.Unmarshal(recorder.Body.Bytes(), &verdict); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	if verdict.AllowedToExecute || verdict.Confidence != 0 {
		t.Fatalf("verdict = %+v, want rejection", verdict)
	}
	if len(verdict.Issues) == 0 {
		t.Fatal("verdict should carry the issue list")
	}
}

func TestValidateQueryEndpointRequiresSQL(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Logger: testLogger(), Gate: sqlguard.NewGate()})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/query/validate", strings.NewReader(`{"sql":"  "}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestTranslateQueryEndpointAttachesVerdict(t *testing.T) {
	translator := &fakeTranslator{sql: "SELECT project_id FROM time_entries WHERE tenant_id = 'tenant-1' LIMIT 100"}
	handler := NewHandler(testConfig(), Dependencies{
		Logger:      testLogger(),
		Translator:  translator,
		Registry:    testRegistry(t),
		Gate:        sqlguard.NewGate(),
		MaxSynonyms: 1,
	})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/query/translate",
		strings.NewReader(`{"question":"hours by project"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	var response struct {
		SQL      string          `json:"sql"`
		Security sqlguard.Result `json:"security"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.SQL != translator.sql {
		t.Fatalf("sql = %q", response.SQL)
	}
	if !response.Security.AllowedToExecute {
		t.Fatalf("security = %+v", response.Security)
	}
	if !strings.Contains(translator.lastReq.Schema, "Table time_entries:") {
		t.Fatalf("translator schema = %q", translator.lastReq.Schema)
	}
}

func TestListFieldsScopeEnforcement(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Logger: testLogger(), Registry: testRegistry(t)})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodGet, "/v1/fields?scope=admin", nil))
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("user on admin scope: status = %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodGet, "/v1/fields?scope=admin", nil)
	request.Header.Set("X-Tenant-ID", "tenant-1")
	request.Header.Set("X-User-ID", "root")
	request.Header.Set("X-Role", auth.RoleAdmin)
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("admin on admin scope: status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "audit_log") {
		t.Fatalf("body = %s", recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	request = withIdentityHeaders(httptest.NewRequest(http.MethodGet, "/v1/fields", nil))
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("default scope: status = %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "time_entries") {
		t.Fatalf("body = %s", recorder.Body.String())
	}
}
