// Package testhelpers provides common utilities for testing the relay server.
//
// It contains reusable plumbing shared across the integration tests: creating
// test servers, dialing websockets with a valid origin, and exchanging event
// envelopes, to reduce duplication in the test files.
package testhelpers

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mindmesh/mindmesh-server/internal/server"
)

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// executed.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// ConnectWebSocket dials the websocket endpoint with the given Origin header.
func ConnectWebSocket(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// SendEvent marshals and sends an event envelope over the connection.
func SendEvent(conn *websocket.Conn, name string, payload any) error {
	ev := server.Event{Name: name}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		ev.Data = raw
	}
	return conn.WriteJSON(ev)
}

// ReceiveEvent reads the next event envelope, failing after the timeout.
func ReceiveEvent(conn *websocket.Conn, timeout time.Duration) (server.Event, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return server.Event{}, err
	}
	var ev server.Event
	err := conn.ReadJSON(&ev)
	return ev, err
}

// ExpectEvent reads the next envelope and fails the test unless it carries
// the expected event name.
func ExpectEvent(t *testing.T, conn *websocket.Conn, name string) server.Event {
	t.Helper()
	ev, err := ReceiveEvent(conn, 2*time.Second)
	if err != nil {
		t.Fatalf("Failed waiting for %s: %v", name, err)
	}
	if ev.Name != name {
		t.Fatalf("Got event %s, want %s (data: %s)", ev.Name, name, ev.Data)
	}
	return ev
}

// ExpectMessage reads the next envelope as a receive-message and returns the
// decoded message.
func ExpectMessage(t *testing.T, conn *websocket.Conn) server.Message {
	t.Helper()
	ev := ExpectEvent(t, conn, server.EventReceiveMessage)
	var msg server.Message
	if err := json.Unmarshal(ev.Data, &msg); err != nil {
		t.Fatalf("Invalid message payload: %v", err)
	}
	return msg
}

// ExpectNoEvent asserts that nothing arrives on the connection before the
// timeout elapses.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no event, but received one")
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of events: %v", err)
}

// CloseWebSocket gracefully closes a websocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
