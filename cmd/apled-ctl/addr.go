package main

import (
	"net"
	"strings"
)

func hasScheme(addr string) bool {
	return strings.Contains(addr, "://")
}

func hasPort(addr string) bool {
	_, port, err := net.SplitHostPort(addr)
	return err == nil && port != ""
}
