package nlquery

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duckmesh/nlquery/internal/assistant"
	"github.com/duckmesh/nlquery/internal/llm"
	"github.com/duckmesh/nlquery/internal/query"
	"github.com/duckmesh/nlquery/internal/storage"
	"github.com/duckmesh/nlquery/internal/summary"
	"github.com/duckmesh/nlquery/internal/synthesis"
)

func TestRunAskPrintsSQLTableAndSummary(t *testing.T) {
	asker := &fakeAsker{answer: assistant.Answer{
		Status:   synthesis.StatusSucceededQuery,
		SQL:      "SELECT e.name, SUM(p.amount) FROM employees e JOIN purchases p ON e.employee_id = p.employee_id GROUP BY e.name",
		Table:    query.Result{Columns: []string{"name", "total"}, Rows: [][]any{{"Monica Hall", int64(1200)}}},
		Summary:  "\n  Monica Hall spent 1200 USD.\n\n",
		Attempts: 1,
	}}
	stdout, stderr, code := runWith(t, Services{Assistant: asker}, "ask", "--model", "llama3-70b-8192", "-n", "3", "How", "much", "did", "Monica", "spend?")
	if code != exitCodeSuccess {
		t.Fatalf("exit = %d, stderr=%s", code, stderr)
	}
	for _, want := range []string{"SQL:\nSELECT", "\nFROM employees", "Monica Hall", "1200", "Summary:\nMonica Hall spent 1200 USD.", "1 reflection attempts"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if asker.question != "How much did Monica spend?" {
		t.Fatalf("question = %q", asker.question)
	}
	if asker.session.Model != llm.ModelLlama3_70B || asker.session.MaxAttempts != 3 {
		t.Fatalf("session = %+v", asker.session)
	}
}

func TestRunAskUsesSessionDefaults(t *testing.T) {
	asker := &fakeAsker{answer: assistant.Answer{Status: synthesis.StatusSucceededFailure, Message: "no weather data"}}
	stdout, _, code := runWith(t, Services{Assistant: asker}, "ask", "weather?")
	if code != exitCodeSuccess {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stdout, "no weather data") {
		t.Fatalf("stdout = %s", stdout)
	}
	if asker.session.Model != llm.ModelGemma7B || asker.session.MaxAttempts != 5 {
		t.Fatalf("session = %+v", asker.session)
	}
}

func TestRunAskExhaustedFails(t *testing.T) {
	asker := &fakeAsker{answer: assistant.Answer{
		Status:       synthesis.StatusExhausted,
		Message:      "could not produce a valid query after 5 reflection attempts",
		LastResponse: "SELECT broken",
	}}
	stdout, stderr, code := runWith(t, Services{Assistant: asker}, "ask", "q")
	if code != exitCodeError {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stdout, "SELECT broken") || !strings.Contains(stderr, "could not produce a valid query") {
		t.Fatalf("stdout=%s stderr=%s", stdout, stderr)
	}
}

func TestRunAskSummaryFailurePrintsTable(t *testing.T) {
	asker := &fakeAsker{
		answer: assistant.Answer{
			Status: synthesis.StatusSucceededQuery,
			SQL:    "SELECT count(*) FROM employees",
			Table:  query.Result{Columns: []string{"count"}, Rows: [][]any{{int64(7)}}},
		},
		err: &summary.SummarizationError{Err: errors.New("timeout")},
	}
	stdout, stderr, code := runWith(t, Services{Assistant: asker}, "ask", "how many employees?")
	if code != exitCodeError {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stdout, "count") || !strings.Contains(stderr, "summarize result") {
		t.Fatalf("stdout=%s stderr=%s", stdout, stderr)
	}
}

func TestRunAskProviderErrorFails(t *testing.T) {
	asker := &fakeAsker{err: &llm.ProviderError{Provider: llm.ProviderOpenAICompatible, Model: llm.ModelGemma7B, Err: errors.New("401")}}
	_, _, code := runWith(t, Services{Assistant: asker}, "ask", "q")
	if code != exitCodeError {
		t.Fatalf("exit = %d", code)
	}
}

func TestRunUsageErrors(t *testing.T) {
	cases := [][]string{
		{"ask"},
		{"ask", "--model", "gpt-4", "q"},
		{"ask", "--max-attempts", "11", "q"},
		{"query", "delete from employees"},
		{"query", "select 1; copy employees to 'out.csv'"},
		{"unknown-command"},
		{"models", "extra"},
		{"generate-data", "--format", "xlsx", "--out", "x"},
	}
	for _, args := range cases {
		if _, _, code := runWith(t, Services{Assistant: &fakeAsker{}}, args...); code != exitCodeUsage {
			t.Fatalf("Run(%v) = %d, want %d", args, code, exitCodeUsage)
		}
	}
}

func TestRunQueryPrintsTable(t *testing.T) {
	engine := &fakeEngine{result: query.Result{Columns: []string{"product_name"}, Rows: [][]any{{"Tesla"}, {"iPhone"}}}}
	stdout, _, code := runWith(t, Services{Engine: engine}, "query", "select distinct product_name from purchases")
	if code != exitCodeSuccess {
		t.Fatalf("exit = %d", code)
	}
	if engine.request.SQL != "SELECT DISTINCT product_name FROM purchases" {
		t.Fatalf("engine SQL = %q", engine.request.SQL)
	}
	if !strings.Contains(stdout, "Tesla") || !strings.Contains(stdout, "iPhone") {
		t.Fatalf("stdout = %s", stdout)
	}
}

func TestRunQueryEngineErrorFails(t *testing.T) {
	engine := &fakeEngine{err: &query.ExecutionError{SQL: "SELECT", Err: errors.New("Parser Error")}}
	_, stderr, code := runWith(t, Services{Engine: engine}, "query", "select")
	if code != exitCodeError || !strings.Contains(stderr, "Parser Error") {
		t.Fatalf("exit = %d, stderr=%s", code, stderr)
	}
}

func TestRunModelsListsEveryModel(t *testing.T) {
	stdout, _, code := runWith(t, Services{}, "models")
	if code != exitCodeSuccess {
		t.Fatalf("exit = %d", code)
	}
	for _, model := range llm.SupportedModels() {
		if !strings.Contains(stdout, model.String()) {
			t.Fatalf("stdout missing %s:\n%s", model, stdout)
		}
	}
}

func TestRunGenerateDataWritesAndUploads(t *testing.T) {
	dir := t.TempDir()
	store := &memoryStore{objects: map[string][]byte{}}
	var stdoutBuf, stderrBuf bytes.Buffer
	code := Run(context.Background(), []string{"generate-data", "--out", dir, "--format", "csv,parquet", "--purchases", "25", "--seed", "7", "--upload", "--prefix", "demo"}, Options{
		OpenStore: func(context.Context) (storage.ObjectStore, error) {
			return store, nil
		},
		Stdout: &stdoutBuf,
		Stderr: &stderrBuf,
	})
	stdout, stderr := stdoutBuf.String(), stderrBuf.String()
	if code != exitCodeSuccess {
		t.Fatalf("exit = %d, stderr=%s", code, stderr)
	}
	for _, name := range []string{"employees.csv", "purchases.csv", "employees.parquet", "purchases.parquet"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("Stat(%s) error = %v", name, err)
		}
		if _, ok := store.objects["demo/"+name]; !ok {
			t.Fatalf("object demo/%s was not uploaded", name)
		}
	}
	if !strings.Contains(stdout, "uploaded demo/purchases.csv") {
		t.Fatalf("stdout = %s", stdout)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "purchases.csv"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if lines := strings.Count(strings.TrimSpace(string(raw)), "\n") + 1; lines != 26 {
		t.Fatalf("purchases.csv lines = %d, want header plus 25 rows", lines)
	}
}

func TestRunGenerateDataUploadWithoutStoreFails(t *testing.T) {
	_, stderr, code := runWith(t, Services{}, "generate-data", "--upload")
	if code != exitCodeError || !strings.Contains(stderr, "object store is not configured") {
		t.Fatalf("exit = %d, stderr=%s", code, stderr)
	}
}

func TestRunBuildFailureIsRuntimeError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"ask", "q"}, Options{
		Session: assistant.SessionConfig{Model: llm.DefaultModel, MaxAttempts: 5},
		Build: func(context.Context) (Services, error) {
			return Services{}, errors.New("dataset root missing")
		},
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if code != exitCodeError || !strings.Contains(stderr.String(), "dataset root missing") {
		t.Fatalf("exit = %d, stderr=%s", code, stderr.String())
	}
}

func runWith(t *testing.T, services Services, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, Options{
		Session:     assistant.SessionConfig{Model: llm.ModelGemma7B, MaxAttempts: 5},
		DatasetRoot: "",
		Build: func(context.Context) (Services, error) {
			return services, nil
		},
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return stdout.String(), stderr.String(), code
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
	return f.answer, f.err
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

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ storage.PutOptions) (storage.ObjectInfo, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.objects[key] = raw
	return storage.ObjectInfo{Key: key, Size: int64(len(raw))}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *memoryStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	raw, ok := m.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(raw))}, nil
}
