package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Wgledston/certificate-manager/internal/types"
)

func TestNewServer(t *testing.T) {
	s := NewServer(NewStatusBoard())
	if s == nil {
		t.Fatal("NewServer() returned nil")
	}
	if s.router == nil {
		t.Error("NewServer() did not initialize router")
	}
	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}
}

func TestHealthCheckHandler(t *testing.T) {
	s := NewServer(NewStatusBoard())
	req, err := http.NewRequest("GET", "/api/v1/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("healthCheck handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	expected := `{"status":"healthy"}` + "\n" // json.Encoder adds a newline
	if rr.Body.String() != expected {
		t.Errorf("healthCheck handler returned unexpected body: got %v want %v",
			rr.Body.String(), expected)
	}
}

func TestProgressHandler(t *testing.T) {
	board := NewStatusBoard()
	s := NewServer(board)

	get := func() Progress {
		req, _ := http.NewRequest("GET", "/api/v1/progress", nil)
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("progress returned status %d", rr.Code)
		}
		var p Progress
		if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		return p
	}

	p := get()
	if p.State != StateStarting || p.Summary != nil {
		t.Errorf("unexpected initial progress: %+v", p)
	}

	board.SetState(StateRunning)
	board.Publish(types.Summary{RunID: "run-1", Total: 12, Processed: 5, Success: 4, Skipped: 1, TotalDuration: 10 * time.Second})

	p = get()
	if p.State != StateRunning {
		t.Errorf("state = %s, want running", p.State)
	}
	if p.Summary == nil || p.Summary.Processed != 5 || p.Summary.Total != 12 || p.Summary.TotalDuration != "10s" {
		t.Errorf("unexpected summary: %+v", p.Summary)
	}
}

func TestProgressMethodNotAllowed(t *testing.T) {
	s := NewServer(NewStatusBoard())
	req, _ := http.NewRequest("POST", "/api/v1/progress", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

// mockResponseWriter to simulate errors in json.Encode
type mockResponseWriter struct {
	httptest.ResponseRecorder
	failWrite bool // if true, Write will return an error
}

func (m *mockResponseWriter) WriteHeader(statusCode int) {
	m.ResponseRecorder.WriteHeader(statusCode)
}

// Write simulates a failure if m.failWrite is true
func (m *mockResponseWriter) Write(body []byte) (int, error) {
	if m.failWrite {
		return 0, http.ErrHandlerTimeout // Simulate some error
	}
	return m.ResponseRecorder.Write(body)
}

func TestHealthCheckHandler_EncodingError(t *testing.T) {
	s := NewServer(NewStatusBoard())
	req, err := http.NewRequest("GET", "/api/v1/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := &mockResponseWriter{ResponseRecorder: *httptest.NewRecorder(), failWrite: true}
	s.healthCheck(rr, req)

	if status := rr.Code; status != http.StatusInternalServerError {
		t.Errorf("healthCheck handler with encoding error returned wrong status code: got %v want %v",
			status, http.StatusInternalServerError)
	}
}

func TestServeAndShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	s := NewServer(NewStatusBoard())
	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + l.Addr().String() + "/api/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve() returned %v after shutdown", err)
	}
}
