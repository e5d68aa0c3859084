package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/apled/internal/actuator"
	"github.com/muurk/apled/internal/gpio"
	"github.com/muurk/apled/internal/metrics"
	"github.com/muurk/apled/internal/server"
	"github.com/muurk/apled/internal/version"
)

func newDevice(t *testing.T) (*httptest.Server, *actuator.State) {
	t.Helper()
	state, err := actuator.New(gpio.NewMemory(), "GPIO2")
	if err != nil {
		t.Fatal(err)
	}
	src := metrics.NewRuntime(metrics.ChipIdentity{Model: "test", Cores: 2, Features: metrics.FeatureNone})
	ts := httptest.NewServer(server.New(&server.Config{}, state, src).Handler())
	t.Cleanup(ts.Close)
	return ts, state
}

func fastClient(url string) *Client {
	c := New(url)
	c.RetryDelay = time.Millisecond
	c.MaxRetryDelay = 5 * time.Millisecond
	return c
}

func TestNewNormalisesBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"192.168.4.1", "http://192.168.4.1"},
		{"http://192.168.4.1/", "http://192.168.4.1"},
		{"https://apled.local:8443", "https://apled.local:8443"},
	}
	for _, tt := range tests {
		if got := New(tt.in).BaseURL; got != tt.want {
			t.Errorf("New(%q).BaseURL = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := NewForHost("fe80::1", 80).BaseURL; got != "http://[fe80::1]:80" {
		t.Errorf("NewForHost IPv6 BaseURL = %q", got)
	}
}

func TestClientAgainstServer(t *testing.T) {
	ts, state := newDevice(t)
	c := fastClient(ts.URL)
	ctx := context.Background()

	on, err := c.Home(ctx)
	if err != nil || on {
		t.Fatalf("Home() = %v, %v; want false, nil", on, err)
	}

	if on, err = c.Engage(ctx); err != nil || !on {
		t.Fatalf("Engage() = %v, %v; want true, nil", on, err)
	}
	if !state.Engaged() {
		t.Error("device should be engaged")
	}

	if on, err = c.Toggle(ctx); err != nil || on {
		t.Fatalf("Toggle() = %v, %v; want false, nil", on, err)
	}

	if on, err = c.Toggle(ctx); err != nil || !on {
		t.Fatalf("Toggle() = %v, %v; want true, nil", on, err)
	}

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.LEDState {
		t.Error("status led_state should be true")
	}
	if status.ChipModel != "test" || status.Cores != 2 || status.Features != metrics.FeatureNone {
		t.Errorf("unexpected chip fields: %+v", status)
	}

	if on, err = c.Disengage(ctx); err != nil || on {
		t.Fatalf("Disengage() = %v, %v; want false, nil", on, err)
	}
}

func TestUserAgentSent(t *testing.T) {
	var got atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.UserAgent())
		_, _ = w.Write([]byte(`<strong id="state">OFF</strong>`))
	}))
	defer ts.Close()

	if _, err := fastClient(ts.URL).Home(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ua, _ := got.Load().(string); ua != version.UserAgent() {
		t.Errorf("User-Agent = %q, want %q", ua, version.UserAgent())
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`<strong id="state">ON</strong>`))
	}))
	defer ts.Close()

	on, err := fastClient(ts.URL).Engage(context.Background())
	if err != nil {
		t.Fatalf("Engage() error = %v", err)
	}
	if !on {
		t.Error("Engage() should report ON")
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestToggleNeverRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := fastClient(ts.URL).Toggle(context.Background())
	if !IsHTTPError(err) {
		t.Fatalf("Toggle() error = %v, want HTTP error", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want exactly 1", n)
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, err := fastClient(ts.URL).Status(context.Background())
	devErr, ok := asDeviceError(err)
	if !ok || devErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Status() error = %v, want 404 DeviceError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("404 should not be retried, calls = %d", calls.Load())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(*Client) error
	}{
		{"status not json", "<html></html>", func(c *Client) error {
			_, err := c.Status(context.Background())
			return err
		}},
		{"page without state", "<html>hello</html>", func(c *Client) error {
			_, err := c.Home(context.Background())
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			if err := tt.call(fastClient(ts.URL)); !IsParseError(err) {
				t.Errorf("error = %v, want parse error", err)
			}
		})
	}
}

func TestConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := fastClient(url)
	c.MaxRetries = 0
	_, err := c.Status(context.Background())
	if !IsNetworkError(err) {
		t.Fatalf("Status() error = %v, want network error", err)
	}
	if !strings.Contains(GetShortErrorMessage(err), "refused") {
		t.Errorf("short message = %q, want connection refused", GetShortErrorMessage(err))
	}
}

func TestContextCancelStopsRetries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New(ts.URL)
	c.RetryDelay = time.Hour
	c.MaxRetryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Status(ctx)
	if err == nil {
		t.Fatal("Status() should fail")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancelled context should abort the retry wait")
	}
}
