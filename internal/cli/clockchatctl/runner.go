package clockchatctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	TenantID   string
	UserID     string
	Role       string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("clockchatctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "ClockChat API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	tenantID := fs.String("tenant-id", defaults.TenantID, "Tenant ID header (used when auth is disabled)")
	userID := fs.String("user-id", defaults.UserID, "User ID header (used when auth is disabled)")
	role := fs.String("role", defaults.Role, "Role header: user, tenantadmin or admin")
	scope := fs.String("scope", "", "Catalog scope for the fields command")
	ratingType := fs.String("type", "", "Rating type filter for the rating-stats command")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 10*time.Second), "HTTP timeout (e.g. 10s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	command := strings.TrimSpace(fs.Arg(0))
	method := ""
	path := ""
	var body []byte
	switch command {
	case "health":
		method, path = http.MethodGet, "/v1/health"
	case "ready":
		method, path = http.MethodGet, "/v1/ready"
	case "fields":
		method, path = http.MethodGet, "/v1/fields"
		if strings.TrimSpace(*scope) != "" {
			path += "?scope=" + strings.TrimSpace(*scope)
		}
	case "rating-stats":
		method, path = http.MethodGet, "/v1/ratings/stats"
		if strings.TrimSpace(*ratingType) != "" {
			path += "?type=" + strings.TrimSpace(*ratingType)
		}
	case "chat":
		method, path = http.MethodPost, "/v1/chat/message"
		body = mustJSON(map[string]string{"message": strings.Join(fs.Args()[1:], " ")})
	case "validate-sql":
		method, path = http.MethodPost, "/v1/query/validate"
		body = mustJSON(map[string]string{"sql": strings.Join(fs.Args()[1:], " ")})
	case "translate":
		method, path = http.MethodPost, "/v1/query/translate"
		body = mustJSON(map[string]string{"question": strings.Join(fs.Args()[1:], " ")})
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	identity := identityHeaders{APIKey: *apiKey, TenantID: *tenantID, UserID: *userID, Role: *role}
	endpoint := strings.TrimRight(*baseURL, "/") + path
	code, responseBody, err := doRequest(ctx, client, method, endpoint, body, identity)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

type identityHeaders struct {
	APIKey   string
	TenantID string
	UserID   string
	Role     string
}

func doRequest(ctx context.Context, client *http.Client, method, url string, body []byte, identity identityHeaders) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(identity.APIKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(identity.APIKey))
	}
	if strings.TrimSpace(identity.TenantID) != "" {
		req.Header.Set("X-Tenant-ID", strings.TrimSpace(identity.TenantID))
	}
	if strings.TrimSpace(identity.UserID) != "" {
		req.Header.Set("X-User-ID", strings.TrimSpace(identity.UserID))
	}
	if strings.TrimSpace(identity.Role) != "" {
		req.Header.Set("X-Role", strings.TrimSpace(identity.Role))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func mustJSON(v any) []byte {
	encoded, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return encoded
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: clockchatctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                  GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                   GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  fields                  GET /v1/fields (honours -scope)")
	_, _ = fmt.Fprintln(w, "  rating-stats            GET /v1/ratings/stats (honours -type)")
	_, _ = fmt.Fprintln(w, "  chat <message...>       POST /v1/chat/message")
	_, _ = fmt.Fprintln(w, "  validate-sql <sql...>   POST /v1/query/validate")
	_, _ = fmt.Fprintln(w, "  translate <question...> POST /v1/query/translate")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
