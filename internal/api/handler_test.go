package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/duckmesh/nlquery/internal/assistant"
	"github.com/duckmesh/nlquery/internal/auth"
	"github.com/duckmesh/nlquery/internal/config"
	"github.com/duckmesh/nlquery/internal/llm"
	"github.com/duckmesh/nlquery/internal/query"
	"github.com/duckmesh/nlquery/internal/synthesis"
)

func TestHealthEndpoint(t *testing.T) {
	cfg, err := config.Load("nlquery-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Trace-ID") == "" {
		t.Fatal("trace middleware did not set X-Trace-ID")
	}
}

func TestReadyEndpointReturns503WhenDependencyFails(t *testing.T) {
	cfg, err := config.Load("nlquery-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{
		Readiness: func(rctx context.Context) error {
			return errors.New("dependency down")
		},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestModelsEndpointListsSupportedModels(t *testing.T) {
	cfg, err := config.Load("nlquery-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{Session: assistant.SessionConfig{Model: llm.ModelLlama3_70B, MaxAttempts: 5}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		Models []modelInfo `json:"models"`
		Model  string      `json:"default_model"`
		Limit  int         `json:"max_attempts_limit"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(body.Models) != len(llm.SupportedModels()) {
		t.Fatalf("models = %d", len(body.Models))
	}
	if body.Model != string(llm.ModelLlama3_70B) || body.Limit != config.MaxSessionAttempts {
		t.Fatalf("body = %+v", body)
	}
	defaults := 0
	for _, model := range body.Models {
		if model.Default {
			defaults++
		}
	}
	if defaults != 1 {
		t.Fatalf("default models = %d, want 1", defaults)
	}
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	cfg, err := config.Load("nlquery-api", mapLookup(map[string]string{
		"NLQUERY_AUTH_REQUIRED": "true",
	}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	validator, err := auth.NewStaticAPIKeyValidator("k1:analyst:asker,k2:viewer:reader")
	if err != nil {
		t.Fatalf("validator setup failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{
		AuthMiddleware: auth.Middleware(nil, validator),
		QueryEngine:    &fakeEngine{result: query.Result{Columns: []string{"one"}, Rows: [][]any{{int64(1)}}}},
	})

	unauthResp := httptest.NewRecorder()
	h.ServeHTTP(unauthResp, httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"sql":"select 1"}`)))
	if unauthResp.Code != http.StatusUnauthorized {
		t.Fatalf("unauth status = %d", unauthResp.Code)
	}

	forbiddenReq := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"sql":"select 1"}`))
	forbiddenReq.Header.Set("X-API-Key", "k2")
	forbiddenResp := httptest.NewRecorder()
	h.ServeHTTP(forbiddenResp, forbiddenReq)
	if forbiddenResp.Code != http.StatusForbidden {
		t.Fatalf("forbidden status = %d", forbiddenResp.Code)
	}

	authReq := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"sql":"select 1"}`))
	authReq.Header.Set("Authorization", "Bearer k1")
	authResp := httptest.NewRecorder()
	h.ServeHTTP(authResp, authReq)
	if authResp.Code != http.StatusOK {
		t.Fatalf("auth status = %d, body=%s", authResp.Code, authResp.Body.String())
	}

	healthResp := httptest.NewRecorder()
	h.ServeHTTP(healthResp, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if healthResp.Code != http.StatusOK {
		t.Fatalf("health status = %d", healthResp.Code)
	}
}

func TestProtectedRouteFailsClosedWithoutMiddleware(t *testing.T) {
	cfg, err := config.Load("nlquery-api", mapLookup(map[string]string{
		"NLQUERY_AUTH_REQUIRED": "true",
	}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}

	h := NewHandler(cfg, Dependencies{Assistant: &fakeAsker{}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`)))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestCombineReadinessChecksStopsOnFirstFailure(t *testing.T) {
	order := make([]int, 0, 3)
	combined := CombineReadinessChecks(
		func(_ context.Context) error {
			order = append(order, 1)
			return nil
		},
		func(_ context.Context) error {
			order = append(order, 2)
			return errors.New("boom")
		},
		func(_ context.Context) error {
			order = append(order, 3)
			return nil
		},
	)

	err := combined(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("execution order = %#v", order)
	}
}

func TestCheckModelCredentials(t *testing.T) {
	cfg, err := config.Load("nlquery-api", mapLookup(map[string]string{
		"NLQUERY_AI_MODEL": "claude-haiku-4-5",
		"GROQ_API_KEY":     "gsk",
	}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	if err := CheckModelCredentials(cfg)(context.Background()); err == nil {
		t.Fatal("expected missing anthropic key error")
	}
	cfg.AI.AnthropicAPIKey = "sk-ant"
	if err := CheckModelCredentials(cfg)(context.Background()); err != nil {
		t.Fatalf("CheckModelCredentials() error = %v", err)
	}
}

func mapLookup(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

type fakeAsker struct {
	answer   assistant.Answer
	err      error
	question string
	session  assistant.SessionConfig
}

func (f *fakeAsker) Ask(_ context.Context, question string, session assistant.SessionConfig) (assistant.Answer, error) {
	f.question = question
	f.session = session
	answer := f.answer
	if answer.Model == "" {
		answer.Model = session.Model
	}
	if answer.Status == "" {
		answer.Status = synthesis.StatusSucceededQuery
	}
	return answer, f.err
}

type fakeEngine struct {
	result  query.Result
	err     error
	request query.Request
}

func (f *fakeEngine) Execute(_ context.Context, request query.Request) (query.Result, error) {
	f.request = request
	return f.result, f.err
}
