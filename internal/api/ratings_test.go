package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clockchat/clockchat/internal/export"
	"github.com/clockchat/clockchat/internal/query"
	"github.com/clockchat/clockchat/internal/rating"
	"github.com/clockchat/clockchat/internal/sqlguard"
)

type fakeRatingStore struct {
	lastInput rating.Input
	created   bool
	stats     rating.Stats
}

func (f *fakeRatingStore) GetOrCreate(_ context.Context, in rating.Input) (rating.Rating, bool, error) {
	if err := in.Validate(); err != nil {
		return rating.Rating{}, false, err
	}
	f.lastInput = in
	return rating.Rating{
		ID: 1, MessageID: in.MessageID, UserID: in.UserID, Type: in.Type,
		Value: in.Value, Feedback: in.Feedback, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}, f.created, nil
}

func (f *fakeRatingStore) Stats(_ context.Context, _ string) (rating.Stats, error) {
	return f.stats, nil
}

func (f *fakeRatingStore) Close() error { return nil }

func TestSubmitRatingCreatesAndUpdates(t *testing.T) {
	store := &fakeRatingStore{created: true}
	handler := NewHandler(testConfig(), Dependencies{Logger: testLogger(), Ratings: store})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/ratings",
		strings.NewReader(`{"message_id":"msg-1","type":"response_quality","value":"good","feedback":"nice"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	// The user id comes from the caller identity, never from the body.
	if store.lastInput.UserID != "user-1" {
		t.Fatalf("UserID = %q", store.lastInput.UserID)
	}

	store.created = false
	recorder = httptest.NewRecorder()
	request = withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/ratings",
		strings.NewReader(`{"message_id":"msg-1","type":"response_quality","value":"bad"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("update status = %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"created":false`) {
		t.Fatalf("body = %s", recorder.Body.String())
	}
}

func TestSubmitRatingRejectsInvalidValue(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Logger: testLogger(), Ratings: &fakeRatingStore{}})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/ratings",
		strings.NewReader(`{"message_id":"msg-1","type":"response_quality","value":"amazing"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "INVALID_RATING") {
		t.Fatalf("body = %s", recorder.Body.String())
	}
}

func TestRatingStatsEndpoint(t *testing.T) {
	store := &fakeRatingStore{stats: rating.ComputeStats(map[string]int{
		rating.ValueBad: 1, rating.ValueOK: 1, rating.ValueGood: 2,
	})}
	handler := NewHandler(testConfig(), Dependencies{Logger: testLogger(), Ratings: store})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodGet, "/v1/ratings/stats?type=response_quality", nil))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"average":2.25`) {
		t.Fatalf("body = %s", recorder.Body.String())
	}
}

type fakeExporter struct {
	result export.Result
}

func (f *fakeExporter) Export(_ context.Context, _ string, _ query.ResultSet, _ export.Format) (export.Result, error) {
	return f.result, nil
}

type fakeQueryExecutor struct {
	result query.ResultSet
}

func (f *fakeQueryExecutor) Execute(_ context.Context, _ string) (query.ResultSet, error) {
	return f.result, nil
}

func TestExportReportEndpoint(t *testing.T) {
	exporter := &fakeExporter{result: export.Result{
		Key: "tenant-1/exports/date=2025-03-12/report-a1.csv", Format: export.FormatCSV, RowCount: 1, Size: 42,
	}}
	handler := NewHandler(testConfig(), Dependencies{
		Logger:   testLogger(),
		Gate:     sqlguard.NewGate(),
		Executor: &fakeQueryExecutor{result: query.ResultSet{Columns: []string{"n"}, Rows: []query.Row{{"n": 1}}}},
		Exporter: exporter,
	})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/reports/export",
		strings.NewReader(`{"sql":"SELECT n FROM totals LIMIT 10","format":"csv"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "report-a1.csv") {
		t.Fatalf("body = %s", recorder.Body.String())
	}
}

func TestExportReportRejectsUnsafeSQL(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Logger:   testLogger(),
		Gate:     sqlguard.NewGate(),
		Executor: &fakeQueryExecutor{},
		Exporter: &fakeExporter{},
	})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/reports/export",
		strings.NewReader(`{"sql":"DELETE FROM time_entries","format":"csv"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "SQL_REJECTED") {
		t.Fatalf("body = %s", recorder.Body.String())
	}
}
