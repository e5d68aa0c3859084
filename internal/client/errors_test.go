package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantType    ErrorType
		unreachable bool
		retryable   bool
	}{
		{"deadline", os.ErrDeadlineExceeded, ErrTypeTimeout, false, true},
		{"context deadline", context.DeadlineExceeded, ErrTypeTimeout, false, true},
		{"dns", &net.DNSError{Name: "apled.local", Err: "no such host"}, ErrTypeDNS, false, false},
		{"refused", &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, ErrTypeConnectionRefused, false, true},
		{"host unreachable", &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH}, ErrTypeNetwork, true, true},
		{"net unreachable", &net.OpError{Op: "dial", Err: syscall.ENETUNREACH}, ErrTypeNetwork, true, true},
		{"url wrapped refused", &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}}, ErrTypeConnectionRefused, false, true},
		{"generic", errors.New("boom"), ErrTypeNetwork, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.Unreachable != tt.unreachable {
				t.Errorf("Unreachable = %v, want %v", got.Unreachable, tt.unreachable)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}

	if ClassifyNetworkError(nil) != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestNewHTTPErrorRetryable(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{404, false},
		{400, false},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		if got := NewHTTPError(tt.code, "x").Retryable; got != tt.want {
			t.Errorf("NewHTTPError(%d).Retryable = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestPredicatesSeeWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("status: %w", NewHTTPError(500, "boom"))

	if !IsHTTPError(wrapped) {
		t.Error("IsHTTPError should unwrap")
	}
	if !IsRetryable(wrapped) {
		t.Error("IsRetryable should unwrap")
	}
	if IsNetworkError(wrapped) || IsParseError(wrapped) {
		t.Error("wrong category matched")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}

func TestErrorMessages(t *testing.T) {
	errs := []*DeviceError{
		ClassifyNetworkError(os.ErrDeadlineExceeded),
		ClassifyNetworkError(&net.OpError{Err: syscall.ECONNREFUSED}),
		ClassifyNetworkError(&net.DNSError{Name: "x"}),
		ClassifyNetworkError(&net.OpError{Err: syscall.EHOSTUNREACH}),
		ClassifyNetworkError(errors.New("x")),
		NewHTTPError(404, "x"),
		NewHTTPError(500, "x"),
		NewParseError("x", nil),
	}
	for _, e := range errs {
		if GetTroubleshootingHint(e) == "" {
			t.Errorf("%v: empty hint", e)
		}
		if GetShortErrorMessage(e) == "" {
			t.Errorf("%v: empty short message", e)
		}
	}

	if got := GetShortErrorMessage(errors.New("plain")); got != "plain" {
		t.Errorf("GetShortErrorMessage(plain) = %q", got)
	}
	if !strings.Contains(NewParseError("bad", errors.New("eof")).Error(), "caused by: eof") {
		t.Error("Error() should include the cause")
	}
}
