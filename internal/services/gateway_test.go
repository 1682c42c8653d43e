package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/caliginous/jvs-checkout/internal/config"
	"github.com/caliginous/jvs-checkout/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testGatewayConfig(proxyURL, originURL string) config.GatewayConfig {
	return config.GatewayConfig{
		ProxyURL:       proxyURL,
		OriginURL:      originURL,
		AttemptTimeout: 250 * time.Millisecond,
		BackoffUnit:    time.Millisecond,
	}
}

const okBody = `{"data":{"event":{"databaseId":1}}}`

func TestGatewayClient_ProxySuccessNoFallback(t *testing.T) {
	var proxyCalls, originCalls int32

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxyCalls, 1)
		w.Write([]byte(okBody))
	}))
	defer proxy.Close()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&originCalls, 1)
		w.Write([]byte(okBody))
	}))
	defer origin.Close()

	client := NewGatewayClient(testGatewayConfig(proxy.URL, origin.URL), testLogger(), nil)

	resp, err := client.Send(context.Background(), NewMemorySessionStore(), GraphQLRequest{Query: "{event}"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.Data == nil {
		t.Errorf("expected data in response")
	}
	if proxyCalls != 1 || originCalls != 0 {
		t.Errorf("calls = proxy %d, origin %d; want 1, 0", proxyCalls, originCalls)
	}
}

func TestGatewayClient_ForbiddenProxyFallsBackExactlyOnce(t *testing.T) {
	var proxyCalls, originCalls int32

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxyCalls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer proxy.Close()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&originCalls, 1)
		w.Write([]byte(okBody))
	}))
	defer origin.Close()

	client := NewGatewayClient(testGatewayConfig(proxy.URL, origin.URL), testLogger(), nil)

	_, err := client.Send(context.Background(), NewMemorySessionStore(), GraphQLRequest{Query: "{event}"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if proxyCalls != 1 {
		t.Errorf("proxy calls = %d, want 1", proxyCalls)
	}
	if originCalls != 1 {
		t.Errorf("origin calls = %d, want 1", originCalls)
	}
}

func TestGatewayClient_BothEndpointsFailSurfacesLastError(t *testing.T) {
	var proxyCalls, originCalls int32

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxyCalls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer proxy.Close()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&originCalls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer origin.Close()

	client := NewGatewayClient(testGatewayConfig(proxy.URL, origin.URL), testLogger(), nil)

	_, err := client.Send(context.Background(), NewMemorySessionStore(), GraphQLRequest{Query: "{event}"})
	if err == nil {
		t.Fatal("Send() should fail when both endpoints fail")
	}
	if !errors.Is(err, models.ErrGatewayUnavailable) {
		t.Errorf("error = %v, want wrapped ErrGatewayUnavailable", err)
	}
	// Exactly two attempts, never a third
	if proxyCalls != 1 || originCalls != 1 {
		t.Errorf("calls = proxy %d, origin %d; want 1, 1", proxyCalls, originCalls)
	}
}

func TestGatewayClient_TimeoutFallsBackAndKeepsOriginToken(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second) // beyond the per-attempt timeout
	}))
	defer proxy.Close()

	var originSawToken string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		originSawToken = r.Header.Get(SessionHeader)
		w.Header().Set(SessionHeader, "Session fresh-from-origin")
		w.Write([]byte(okBody))
	}))
	defer origin.Close()

	client := NewGatewayClient(testGatewayConfig(proxy.URL, origin.URL), testLogger(), nil)

	store := NewMemorySessionStore()
	store.Set("initial-token")

	_, err := client.Send(context.Background(), store, GraphQLRequest{Query: "{event}"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if originSawToken != SessionTokenPrefix+"initial-token" {
		t.Errorf("origin received session header %q, want %q", originSawToken, SessionTokenPrefix+"initial-token")
	}

	token, ok := store.Get()
	if !ok {
		t.Fatal("session token missing after failover")
	}
	if token != "fresh-from-origin" {
		t.Errorf("stored token = %q, want %q (origin's value, not an earlier one)", token, "fresh-from-origin")
	}
}

// A token rotated by a failing proxy response must still be carried into the
// origin attempt: session continuity survives endpoint failover.
func TestGatewayClient_TokenFromFailedAttemptCarriedForward(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(SessionHeader, "Session rotated-by-proxy")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer proxy.Close()

	var originSawToken string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		originSawToken = r.Header.Get(SessionHeader)
		w.Write([]byte(okBody))
	}))
	defer origin.Close()

	client := NewGatewayClient(testGatewayConfig(proxy.URL, origin.URL), testLogger(), nil)

	store := NewMemorySessionStore()
	store.Set("initial-token")

	_, err := client.Send(context.Background(), store, GraphQLRequest{Query: "{event}"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if originSawToken != SessionTokenPrefix+"rotated-by-proxy" {
		t.Errorf("origin received session header %q, want rotated token", originSawToken)
	}
	token, _ := store.Get()
	if token != "rotated-by-proxy" {
		t.Errorf("stored token = %q, want %q", token, "rotated-by-proxy")
	}
}

// GraphQL-level errors in a 200 response are the caller's business: they
// must pass through unmodified without triggering the fallback.
func TestGatewayClient_GraphQLErrorsPassThrough(t *testing.T) {
	var originCalls int32

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"Cannot query field \"bogus\""}]}`))
	}))
	defer proxy.Close()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&originCalls, 1)
		w.Write([]byte(okBody))
	}))
	defer origin.Close()

	client := NewGatewayClient(testGatewayConfig(proxy.URL, origin.URL), testLogger(), nil)

	resp, err := client.Send(context.Background(), NewMemorySessionStore(), GraphQLRequest{Query: "{bogus}"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(resp.Errors))
	}
	if resp.Errors[0].Message != `Cannot query field "bogus"` {
		t.Errorf("error message = %q, not passed through unmodified", resp.Errors[0].Message)
	}
	if originCalls != 0 {
		t.Errorf("origin calls = %d, want 0: GraphQL errors must not trigger fallback", originCalls)
	}
}

func TestGatewayClient_NilSessionStore(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(SessionHeader, "Session whatever")
		w.Write([]byte(okBody))
	}))
	defer proxy.Close()

	client := NewGatewayClient(testGatewayConfig(proxy.URL, proxy.URL), testLogger(), nil)

	if _, err := client.Send(context.Background(), nil, GraphQLRequest{Query: "{event}"}); err != nil {
		t.Fatalf("Send() with nil session store error = %v", err)
	}
}
