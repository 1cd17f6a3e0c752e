// Package api exposes the chat, validation, rating and export surface over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clockchat/clockchat/internal/auth"
	"github.com/clockchat/clockchat/internal/config"
	"github.com/clockchat/clockchat/internal/export"
	"github.com/clockchat/clockchat/internal/fields"
	"github.com/clockchat/clockchat/internal/nl2sql"
	"github.com/clockchat/clockchat/internal/observability"
	"github.com/clockchat/clockchat/internal/pipeline"
	"github.com/clockchat/clockchat/internal/query"
	"github.com/clockchat/clockchat/internal/rating"
	"github.com/clockchat/clockchat/internal/sqlguard"
)

type ReadinessCheck func(ctx context.Context) error

type ChatPipeline interface {
	HandleMessage(ctx context.Context, identity auth.Identity, text string) (pipeline.Response, error)
}

type ReportExporter interface {
	Export(ctx context.Context, tenantID string, result query.ResultSet, format export.Format) (export.Result, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Chat              ChatPipeline
	Registry          *fields.Registry
	Gate              *sqlguard.Gate
	Translator        nl2sql.Translator
	Ratings           rating.Store
	Executor          query.Executor
	Exporter          ReportExporter
	MaxSynonyms       int
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/chat/message", func(w http.ResponseWriter, r *http.Request) {
		handleChatMessage(deps, w, r)
	})
	protected.HandleFunc("POST /v1/query/validate", func(w http.ResponseWriter, r *http.Request) {
		handleValidateQuery(deps, w, r)
	})
	protected.HandleFunc("POST /v1/query/translate", func(w http.ResponseWriter, r *http.Request) {
		handleTranslateQuery(deps, w, r)
	})
	protected.HandleFunc("GET /v1/fields", func(w http.ResponseWriter, r *http.Request) {
		handleListFields(deps, w, r)
	})
	protected.HandleFunc("POST /v1/ratings", func(w http.ResponseWriter, r *http.Request) {
		handleSubmitRating(deps, w, r)
	})
	protected.HandleFunc("GET /v1/ratings/stats", func(w http.ResponseWriter, r *http.Request) {
		handleRatingStats(deps, w, r)
	})
	protected.HandleFunc("POST /v1/reports/export", func(w http.ResponseWriter, r *http.Request) {
		handleExportReport(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("POST /v1/chat/message", protectedHandler)
	mux.Handle("POST /v1/query/validate", protectedHandler)
	mux.Handle("POST /v1/query/translate", protectedHandler)
	mux.Handle("GET /v1/fields", protectedHandler)
	mux.Handle("POST /v1/ratings", protectedHandler)
	mux.Handle("GET /v1/ratings/stats", protectedHandler)
	mux.Handle("POST /v1/reports/export", protectedHandler)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckRatingsStore(store rating.Store) ReadinessCheck {
	return func(_ context.Context) error {
		if store == nil {
			return errors.New("ratings store is not configured")
		}
		return nil
	}
}

func CheckFieldRegistry(registry *fields.Registry) ReadinessCheck {
	return func(_ context.Context) error {
		if registry == nil {
			return errors.New("field registry is not loaded")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

// identityFromRequest prefers the authenticated identity; in unauthenticated
// profiles the caller supplies it via headers.
func identityFromRequest(r *http.Request) (auth.Identity, error) {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		return identity, nil
	}
	identity := auth.Identity{
		TenantID: strings.TrimSpace(r.Header.Get("X-Tenant-ID")),
		UserID:   strings.TrimSpace(r.Header.Get("X-User-ID")),
		Role:     strings.TrimSpace(r.Header.Get("X-Role")),
	}
	if identity.Role == "" {
		identity.Role = auth.RoleUser
	}
	if identity.TenantID == "" || identity.UserID == "" {
		return auth.Identity{}, fmt.Errorf("tenant and user context are required")
	}
	if !auth.ValidRole(identity.Role) {
		return auth.Identity{}, fmt.Errorf("unknown role %q", identity.Role)
	}
	return identity, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
