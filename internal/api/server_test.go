package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rollover-fees/internal/logging"
	"github.com/rollover-fees/internal/types"
)

// mockRolloverService is a mock implementation of RolloverServiceInterface
type mockRolloverService struct {
	feesFunc    func(ctx context.Context) (*types.RolloverFeesResult, error)
	summaryFunc func(ctx context.Context, assets []string) (*types.RolloverFeesResult, *types.RolloverSummary, error)
}

func (m *mockRolloverService) GetRolloverFees(ctx context.Context) (*types.RolloverFeesResult, error) {
	if m.feesFunc != nil {
		return m.feesFunc(ctx)
	}
	return &types.RolloverFeesResult{Fees: []types.RolloverFee{}}, nil
}

func (m *mockRolloverService) GetRolloverSummary(ctx context.Context, assets []string) (*types.RolloverFeesResult, *types.RolloverSummary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx, assets)
	}
	return &types.RolloverFeesResult{Fees: []types.RolloverFee{}}, &types.RolloverSummary{}, nil
}

func createTestServer(svc RolloverServiceInterface) *Server {
	config := &ServerConfig{
		Host:            "localhost",
		Port:            "8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
	if svc == nil {
		svc = &mockRolloverService{}
	}
	return NewServer(config, svc)
}

func TestHealthEndpoint(t *testing.T) {
	server := createTestServer(nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", response["status"])
	}
	if response["service"] != "rollover-fees" {
		t.Errorf("Expected service 'rollover-fees', got '%s'", response["service"])
	}
}

func TestUnknownRoute(t *testing.T) {
	server := createTestServer(nil)

	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Code != ErrCodeNotFound {
		t.Errorf("Expected code %s, got %s", ErrCodeNotFound, response.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := createTestServer(nil)

	req := httptest.NewRequest("POST", "/rollover_fees", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := createTestServer(nil)

	req := httptest.NewRequest("OPTIONS", "/rollover_fees", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin '*', got '%s'", got)
	}
}

func TestRequestID_Generated(t *testing.T) {
	server := createTestServer(nil)

	req := httptest.NewRequest("GET", "/rollover_fees", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a generated request id header")
	}
}

func TestRequestID_PropagatedToLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	previous := logging.GetGlobalLogger()
	logging.SetGlobalLogger(logging.NewLoggerWithCore(core))
	defer logging.SetGlobalLogger(previous)

	server := createTestServer(nil)

	req := httptest.NewRequest("GET", "/rollover_fees", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "req-42" {
		t.Errorf("Expected request id 'req-42', got '%s'", got)
	}

	entries := logs.FilterMessage("HTTP request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-42" {
		t.Errorf("Expected request_id field 'req-42', got '%v'", fields["request_id"])
	}
	if fields["path"] != "/rollover_fees" {
		t.Errorf("Expected path field '/rollover_fees', got '%v'", fields["path"])
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	server := createTestServer(&mockRolloverService{
		feesFunc: func(ctx context.Context) (*types.RolloverFeesResult, error) {
			panic("boom")
		},
	})

	req := httptest.NewRequest("GET", "/rollover_fees", nil)
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestRecoveryMiddleware_GzipClient(t *testing.T) {
	server := createTestServer(&mockRolloverService{
		feesFunc: func(ctx context.Context) (*types.RolloverFeesResult, error) {
			panic("boom")
		},
	})

	req := httptest.NewRequest("GET", "/rollover_fees", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Expected gzip encoding, got '%s'", got)
	}

	gz, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("Failed to open gzip body: %v", err)
	}
	var response ErrorResponse
	if err := json.NewDecoder(gz).Decode(&response); err != nil {
		t.Fatalf("Failed to decode gzip body: %v", err)
	}
	if response.Code != ErrCodeInternalError {
		t.Errorf("Expected code %s, got %s", ErrCodeInternalError, response.Code)
	}
}

func TestCompressionMiddleware(t *testing.T) {
	server := createTestServer(nil)

	req := httptest.NewRequest("GET", "/rollover_fees", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	server.router.ServeHTTP(w, req)

	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Expected gzip encoding, got '%s'", got)
	}

	gz, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("Failed to open gzip body: %v", err)
	}
	body, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("Failed to read gzip body: %v", err)
	}
	if string(body) != "{\"rollover_fees\":[]}\n" {
		t.Errorf("Unexpected body %q", body)
	}
}

func TestServerShutdown(t *testing.T) {
	server := createTestServer(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Expected clean shutdown of an idle server, got %v", err)
	}
}
