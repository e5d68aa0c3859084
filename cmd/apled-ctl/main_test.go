package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/muurk/apled/internal/actuator"
	"github.com/muurk/apled/internal/gpio"
	"github.com/muurk/apled/internal/metrics"
	"github.com/muurk/apled/internal/server"
)

func TestNewClientAddressForms(t *testing.T) {
	tests := []struct {
		addr string
		port int
		want string
	}{
		{"192.168.4.1", 80, "http://192.168.4.1:80"},
		{"192.168.4.1", 8080, "http://192.168.4.1:8080"},
		{"192.168.4.1:9000", 80, "http://192.168.4.1:9000"},
		{"http://apled.local", 80, "http://apled.local"},
		{"fe80::1", 80, "http://[fe80::1]:80"},
	}
	for _, tt := range tests {
		if got := newClient(tt.addr, tt.port).BaseURL; got != tt.want {
			t.Errorf("newClient(%q, %d) = %q, want %q", tt.addr, tt.port, got, tt.want)
		}
	}
}

func TestActionsAgainstServer(t *testing.T) {
	state, err := actuator.New(gpio.NewMemory(), "GPIO2")
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(server.New(&server.Config{}, state, metrics.NewRuntime(metrics.ChipIdentity{})).Handler())
	defer ts.Close()

	deviceAddr = ts.URL
	outputFormat = formatJSON
	t.Cleanup(func() {
		deviceAddr = ""
		outputFormat = formatStyled
	})

	tests := []struct {
		cmd  *cobra.Command
		want string
	}{
		{onCmd, `"led_state": true`},
		{toggleCmd, `"led_state": false`},
		{toggleCmd, `"led_state": true`},
		{offCmd, `"led_state": false`},
		{statusCmd, `"chip_model"`},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		tt.cmd.SetOut(&buf)
		tt.cmd.SetContext(context.Background())
		if err := tt.cmd.RunE(tt.cmd, nil); err != nil {
			t.Fatalf("%s error = %v", tt.cmd.Name(), err)
		}
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("%s output = %s, want %s", tt.cmd.Name(), buf.String(), tt.want)
		}
	}

	if state.Engaged() {
		t.Error("device should end up off")
	}
}

func TestActionReportsShortError(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	deviceAddr = url
	outputFormat = formatJSON
	t.Cleanup(func() {
		deviceAddr = ""
		outputFormat = formatStyled
	})

	toggleCmd.SetContext(context.Background())
	err := toggleCmd.RunE(toggleCmd, nil)
	if err == nil {
		t.Fatal("toggle against a closed server should fail")
	}
	if !strings.Contains(err.Error(), "Toggle failed") {
		t.Errorf("error = %v", err)
	}
}
