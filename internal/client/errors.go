package client

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates a non-200 response
	ErrTypeHTTP
	// ErrTypeParse indicates a response body we could not understand
	ErrTypeParse
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening on the port
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError is returned for every failed request.
type DeviceError struct {
	Type        ErrorType
	Message     string
	StatusCode  int   // HTTP status code, ErrTypeHTTP only
	Err         error // underlying error, if any
	Unreachable bool  // host or network unreachable
	Retryable   bool
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError maps a transport error onto a DeviceError.
func ClassifyNetworkError(err error) *DeviceError {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		if classified := ClassifyNetworkError(urlErr.Err); classified != nil {
			classified.Err = err
			return classified
		}
	}

	if os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		return &DeviceError{Type: ErrTypeTimeout, Message: "request timed out", Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return &DeviceError{Type: ErrTypeConnectionRefused, Message: "device refused connection", Err: err, Retryable: true}
	case errors.Is(err, syscall.EHOSTUNREACH):
		return &DeviceError{Type: ErrTypeNetwork, Message: "host unreachable", Err: err, Unreachable: true, Retryable: true}
	case errors.Is(err, syscall.ENETUNREACH):
		return &DeviceError{Type: ErrTypeNetwork, Message: "network unreachable", Err: err, Unreachable: true, Retryable: true}
	}

	return &DeviceError{Type: ErrTypeNetwork, Message: "network error occurred", Err: err, Retryable: true}
}

// NewNetworkError classifies err and replaces its message.
func NewNetworkError(message string, err error) *DeviceError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &DeviceError{Type: ErrTypeNetwork, Message: message, Retryable: true}
	}
	classified.Message = message
	return classified
}

// NewHTTPError creates an HTTP-level error. Server errors are retryable.
func NewHTTPError(statusCode int, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeParse, Message: message, Err: err}
}

func asDeviceError(err error) (*DeviceError, bool) {
	var devErr *DeviceError
	ok := errors.As(err, &devErr)
	return devErr, ok
}

// IsNetworkError reports whether err is any transport-level failure.
func IsNetworkError(err error) bool {
	devErr, ok := asDeviceError(err)
	if !ok {
		return false
	}
	switch devErr.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeHTTP
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Type == ErrTypeParse
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	devErr, ok := asDeviceError(err)
	return ok && devErr.Retryable
}

// GetTroubleshootingHint returns user-facing advice for err.
func GetTroubleshootingHint(err error) string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The device did not respond in time.",
			"Troubleshooting:",
			"  • Check that the device is powered on",
			"  • Verify you're joined to the device's access point",
			"  • Try a longer --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The device refused the connection.",
			"Troubleshooting:",
			"  • apled-server may not be running on the device",
			"  • Verify the port (default is 80)",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the device hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead (default 192.168.4.1)",
			"  • Run 'apled-ctl scan' to find devices via mDNS",
		}, "\n")

	case ErrTypeNetwork:
		if devErr.Unreachable {
			return strings.Join([]string{
				"The device is not reachable.",
				"Troubleshooting:",
				"  • Join the device's WiFi access point",
				"  • Verify the device address is correct",
			}, "\n")
		}
		return strings.Join([]string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check your network connection",
			"  • Verify the device is powered on",
		}, "\n")

	case ErrTypeHTTP:
		if devErr.StatusCode == http.StatusNotFound {
			return "The device does not serve this path. Check that it is running apled-server."
		}
		if devErr.StatusCode >= 500 {
			return fmt.Sprintf("The device returned an error (HTTP %d). Check the server logs.", devErr.StatusCode)
		}
		return fmt.Sprintf("The device returned HTTP error %d.", devErr.StatusCode)

	case ErrTypeParse:
		return "Failed to parse the device's response. Is this an apled device?"

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Device refused connection"
	case ErrTypeDNS:
		return "Cannot resolve device hostname"
	case ErrTypeNetwork:
		if devErr.Unreachable {
			return "Device unreachable - check WiFi connection"
		}
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Device error (HTTP %d)", devErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse device response"
	default:
		return devErr.Message
	}
}
