package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clockchat/clockchat/internal/intent"
	"github.com/clockchat/clockchat/internal/pipeline"
)

func TestChatMessageHappyPath(t *testing.T) {
	chat := &fakeChat{response: pipeline.Response{
		Intent: intent.Parsed{Type: intent.TypeTimeEntry, Confidence: 1.0},
		Reply:  "Logging 2.5 hours on Acme for 2025-03-11.",
	}}
	handler := NewHandler(testConfig(), Dependencies{Logger: testLogger(), Chat: chat})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/chat/message",
		strings.NewReader(`{"message":"I worked 2.5 hours on Acme project yesterday"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "time_entry") {
		t.Fatalf("body = %s", recorder.Body.String())
	}
	if !strings.Contains(recorder.Body.String(), "Logging 2.5 hours") {
		t.Fatalf("body = %s", recorder.Body.String())
	}
}

func TestChatMessageRequiresBodyAndIdentity(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Logger: testLogger(), Chat: &fakeChat{}})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/chat/message", strings.NewReader(`{"message":""}`)))
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("empty message: status = %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodPost, "/v1/chat/message", strings.NewReader(`{"message":"hi"}`))
	handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("missing identity: status = %d", recorder.Code)
	}
}

func TestChatMessagePipelineFailure(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Logger: testLogger(),
		Chat:   &fakeChat{err: errors.New("translator down")},
	})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/chat/message", strings.NewReader(`{"message":"show me totals"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "CHAT_FAILED") {
		t.Fatalf("body = %s", recorder.Body.String())
	}
}

func TestChatMessageNotConfigured(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{Logger: testLogger()})

	recorder := httptest.NewRecorder()
	request := withIdentityHeaders(httptest.NewRequest(http.MethodPost, "/v1/chat/message", strings.NewReader(`{"message":"hi"}`)))
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", recorder.Code)
	}
}
