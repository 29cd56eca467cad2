// Package integration contains integration tests for the relay server.
//
// These tests verify that the components work together correctly by testing
// the complete system behavior with real HTTP servers and WebSocket
// connections.
package integration

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mindmesh/mindmesh-server/internal/server"
	"github.com/mindmesh/mindmesh-server/test/testhelpers"
)

// startRelay boots a hub plus HTTP mux on an httptest server and registers
// its URL as an allowed websocket origin. The returned base URL doubles as
// the origin header for test dials.
func startRelay(t *testing.T, completer *stubCompleter, customize func(cfg *server.Config)) string {
	t.Helper()

	cfg := server.NewConfig()
	cfg.RateLimit.Burst = 100
	if customize != nil {
		customize(cfg)
	}
	server.SetConfig(cfg)
	t.Cleanup(func() { server.SetConfig(nil) })

	// A typed nil must not reach the llm.Provider interface field.
	var hub *server.Hub
	if completer != nil {
		hub = server.NewHub(completer)
	} else {
		hub = server.NewHub(nil)
	}
	go hub.Run()
	t.Cleanup(func() { _ = hub.Shutdown(2 * time.Second) })

	testServer := testhelpers.CreateTestServer(server.SetupRoutes(hub))
	t.Cleanup(testServer.Close)

	cfg.AllowedOrigins = append([]string{testServer.URL}, cfg.AllowedOrigins...)
	server.SetConfig(cfg)

	return testServer.URL
}

func wsURL(baseURL string) string {
	return "ws" + strings.TrimPrefix(baseURL, "http") + "/ws"
}

func TestHealthEndpoint(t *testing.T) {
	baseURL := startRelay(t, nil, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, baseURL+"/health")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if string(body) != "OK" {
		t.Errorf("Health body = %q, want OK", body)
	}
}

func TestRootBanner(t *testing.T) {
	baseURL := startRelay(t, nil, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, baseURL+"/")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "MindMesh") {
		t.Errorf("Root body = %q, want the service banner", body)
	}
}

func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	baseURL := startRelay(t, nil, nil)

	if conn, err := testhelpers.ConnectWebSocket(wsURL(baseURL), "http://evil.example"); err == nil {
		_ = conn.Close()
		t.Fatal("Dial with a disallowed origin succeeded")
	}
}

func TestWebSocketRejectsNonGet(t *testing.T) {
	baseURL := startRelay(t, nil, nil)

	resp := testhelpers.MakeRequest(t, http.MethodPost, baseURL+"/ws")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
}
