package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage/memory"
)

var testNow = time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	store := memory.New()
	clock := services.WithClock(func() time.Time { return testNow })
	srv := NewServer(":0",
		services.NewLedgerService(store, clock),
		services.NewExpenseService(store, clock),
		store,
		applog.New(applog.Config{Output: io.Discard}))
	return srv.Handler
}

func do(t *testing.T, h http.Handler, method, path, user, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

const jsonType = "application/json"
const formType = "application/x-www-form-urlencoded"

func TestHealthAndReady(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/healthz", "", "", "")
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "ok" {
		t.Fatalf("healthz: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}

	rec = do(t, h, http.MethodGet, "/readyz", "", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d %s", rec.Code, rec.Body.String())
	}

	var logs bytes.Buffer
	store := memory.New()
	down := NewServer(":0", services.NewLedgerService(store), services.NewExpenseService(store), failingPinger{},
		applog.New(applog.Config{Output: &logs}))
	rec = do(t, down.Handler, http.MethodGet, "/readyz", "", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "database is locked") {
		t.Fatalf("storage error leaked to the client: %s", rec.Body.String())
	}
	checks, _ := decode(t, rec)["checks"].(map[string]any)
	if checks["storage"] != "failed" {
		t.Fatalf("unexpected checks %v", checks)
	}
	if !strings.Contains(logs.String(), "database is locked") {
		t.Fatalf("storage error was not logged: %s", logs.String())
	}
}

func TestRequestLoggerCarriesRequestID(t *testing.T) {
	var logs bytes.Buffer
	store := memory.New()
	srv := NewServer(":0", services.NewLedgerService(store), services.NewExpenseService(store), store,
		applog.New(applog.Config{Output: &logs}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req_fixed")
	srv.Handler.ServeHTTP(httptest.NewRecorder(), req)

	out := logs.String()
	if !strings.Contains(out, "HTTP request completed") || !strings.Contains(out, "request_id=req_fixed") {
		t.Fatalf("completion log missing request id: %s", out)
	}
}

func TestMissingUser(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/ledger", "", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLedgerFlow(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/ledger", "aryan", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get ledger: %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"income":[],"expenses":[],"total_income":0,"total_expense":0,"balance":0}` {
		t.Fatalf("unexpected empty ledger %s", got)
	}

	rec = do(t, h, http.MethodPost, "/api/ledger/income", "aryan", jsonType,
		`{"source":"Salary","amount":100,"planned":true,"contributor":"Sam"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add income: %d %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	income := body["income"].([]any)[0].(map[string]any)
	if income["id"] != float64(1) || income["planned"] != true || income["contributor"] != "Sam" || income["date"] != nil {
		t.Fatalf("unexpected income %v", income)
	}

	rec = do(t, h, http.MethodPost, "/api/ledger/expenses", "aryan", formType, "category=Rent&amount=150")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %s", rec.Code, rec.Body.String())
	}
	body = decode(t, rec)
	if body["error"] != "Error: Expense exceeds your available budget!" {
		t.Fatalf("unexpected error %v", body["error"])
	}
	values := body["values"].(map[string]any)
	if values["category"] != "Rent" || values["amount"] != "150" {
		t.Fatalf("submitted values not echoed: %v", values)
	}

	rec = do(t, h, http.MethodPost, "/api/ledger/expenses", "aryan", formType, "category=Food&amount=90")
	if rec.Code != http.StatusCreated {
		t.Fatalf("add expense: %d %s", rec.Code, rec.Body.String())
	}
	body = decode(t, rec)
	if body["total_expense"] != float64(90) || body["balance"] != float64(10) {
		t.Fatalf("unexpected totals %v", body)
	}

	rec = do(t, h, http.MethodPut, "/api/ledger/income/1", "aryan", jsonType, `{"source":"Salary","amount":"120"}`)
	if rec.Code != http.StatusOK || decode(t, rec)["balance"] != float64(30) {
		t.Fatalf("edit income: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPut, "/api/ledger/income/9", "aryan", jsonType, `{"source":"X","amount":"1"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if decode(t, rec)["ledger"] == nil {
		t.Fatal("not found response should carry the ledger")
	}

	rec = do(t, h, http.MethodDelete, "/api/ledger/income/abc", "aryan", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/api/ledger/income/1", "aryan", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete income: %d", rec.Code)
	}
	body = decode(t, rec)
	if body["total_income"] != float64(0) || body["balance"] != float64(-90) {
		t.Fatalf("unexpected totals after delete %v", body)
	}

	// another user is unaffected
	rec = do(t, h, http.MethodGet, "/api/ledger", "jamie", "", "")
	if decode(t, rec)["total_expense"] != float64(0) {
		t.Fatal("ledger leaked between users")
	}
}

func TestIncomeValidation(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/ledger/income", "aryan", formType, "source=&amount=10")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if decode(t, rec)["field"] != "source" {
		t.Fatalf("expected source field error: %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/ledger/income", "aryan", jsonType, `{"source":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", rec.Code)
	}
}

func TestExpenseRecordsAPI(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"created", `{"amount":"12.50","category":"Food","note":" lunch "}`, http.StatusCreated, ""},
		{"not a number", `{"amount":"abc","category":"Food"}`, http.StatusBadRequest, "Amount must be a number"},
		{"blank amount", `{"amount":"","category":"Food"}`, http.StatusBadRequest, "Amount must be a number"},
		{"missing amount", `{"category":"Food"}`, http.StatusBadRequest, "Invalid input"},
		{"missing amount form", "category=Food", http.StatusBadRequest, "Invalid input"},
		{"huge amount", `{"amount":"1e300000","category":"Food"}`, http.StatusBadRequest, "Amount must be a number"},
		{"zero", `{"amount":0,"category":"Food"}`, http.StatusBadRequest, "Invalid input"},
		{"blank category", `{"amount":5,"category":"  "}`, http.StatusBadRequest, "Invalid input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/expenses", "aryan", jsonType, tt.body)
			if rec.Code != tt.code {
				t.Fatalf("status %d, want %d: %s", rec.Code, tt.code, rec.Body.String())
			}
			body := decode(t, rec)
			if tt.message == "" {
				if body["message"] != "Expense created" {
					t.Fatalf("unexpected body %v", body)
				}
			} else if body["error"] != tt.message {
				t.Fatalf("error %v, want %q", body["error"], tt.message)
			}
		})
	}

	rec := do(t, h, http.MethodGet, "/api/expenses?month=2024-01", "aryan", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	want := `[{"id":1,"amount":12.50,"category":"Food","note":" lunch ","date":"2024-01-31"}]`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}

	rec = do(t, h, http.MethodGet, "/api/expenses?month=2024-02", "aryan", "", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/expenses", "aryan", "", "")
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "Month parameter is required" {
		t.Fatalf("missing month: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/expenses?month=2024-13", "aryan", "", "")
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "Invalid month format (use YYYY-MM)" {
		t.Fatalf("bad month: %d %s", rec.Code, rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)
	rec := do(t, h, http.MethodPatch, "/api/ledger/income", "aryan", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

// blockingStore holds ledger loads until release is closed.
type blockingStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Load(ctx context.Context, user string) (core.LedgerDocument, error) {
	close(s.entered)
	<-s.release
	return s.Store.Load(ctx, user)
}

func TestRunDrainsInFlightRequests(t *testing.T) {
	store := &blockingStore{Store: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	srv := NewServer("", services.NewLedgerService(store), services.NewExpenseService(store), store,
		applog.New(applog.Config{Output: io.Discard}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- srv.Run(ctx, ln, 5*time.Second) }()

	type result struct {
		code int
		err  error
	}
	reqDone := make(chan result, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodGet, "http://"+ln.Addr().String()+"/api/ledger", nil)
		req.Header.Set(UserHeader, "aryan")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			reqDone <- result{err: err}
			return
		}
		resp.Body.Close()
		reqDone <- result{code: resp.StatusCode}
	}()

	select {
	case <-store.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the store")
	}
	cancel()

	select {
	case err := <-runDone:
		t.Fatalf("Run returned with a request in flight: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(store.release)
	if r := <-reqDone; r.err != nil || r.code != http.StatusOK {
		t.Fatalf("in-flight request: code %d err %v", r.code, r.err)
	}
	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after draining")
	}
}
