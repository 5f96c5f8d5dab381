// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns network and RPC failures into troubleshooting hints.
// The raw error text is always shown first; hints only add context.
package httperrors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Category is a coarse classification of a failure reaching the backend.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryTimeout
	CategoryDNS
	CategoryRefused
	CategoryTLS
	CategoryAuth
	CategoryServer
)

func (c Category) String() string {
	switch c {
	case CategoryTimeout:
		return "timeout"
	case CategoryDNS:
		return "dns"
	case CategoryRefused:
		return "refused"
	case CategoryTLS:
		return "tls"
	case CategoryAuth:
		return "auth"
	case CategoryServer:
		return "server"
	default:
		return "unknown"
	}
}

// Classify inspects err and returns its category.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	if st, ok := status.FromError(unwrapStatus(err)); ok && st.Code() != codes.OK {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return CategoryTimeout
		case codes.Unauthenticated, codes.PermissionDenied:
			return CategoryAuth
		case codes.Unavailable:
			if c := classifyText(st.Message()); c != CategoryUnknown {
				return c
			}
			return CategoryRefused
		case codes.Internal, codes.Unknown:
			return CategoryServer
		}
	}
	if isTimeoutError(err) {
		return CategoryTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryDNS
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return CategoryRefused
	}
	return classifyText(err.Error())
}

// unwrapStatus finds the first error in the chain carrying a gRPC status.
func unwrapStatus(err error) error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if _, ok := e.(interface{ GRPCStatus() *status.Status }); ok {
			return e
		}
	}
	return err
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded")
}

func classifyText(s string) Category {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return CategoryTimeout
	case strings.Contains(lower, "no such host"):
		return CategoryDNS
	case strings.Contains(lower, "connection refused"):
		return CategoryRefused
	case strings.Contains(lower, "tls"), strings.Contains(lower, "x509"), strings.Contains(lower, "certificate"), strings.Contains(lower, "handshake"):
		return CategoryTLS
	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"), strings.Contains(lower, "unauthenticated"):
		return CategoryAuth
	case strings.Contains(lower, "500"), strings.Contains(lower, "502"), strings.Contains(lower, "503"), strings.Contains(lower, "504"),
		strings.Contains(lower, "internal server error"), strings.Contains(lower, "bad gateway"),
		strings.Contains(lower, "service unavailable"), strings.Contains(lower, "gateway timeout"):
		return CategoryServer
	}
	return CategoryUnknown
}

// Hints returns troubleshooting lines for a category. host names the backend.
func Hints(c Category, host string) []string {
	switch c {
	case CategoryTimeout:
		return []string{
			fmt.Sprintf("%s took too long to respond", host),
			"Raise backend.timeout or check the network path",
		}
	case CategoryDNS:
		return []string{
			fmt.Sprintf("Cannot resolve %s", host),
			"Check the --backend address and your DNS settings",
		}
	case CategoryRefused:
		return []string{
			fmt.Sprintf("Nothing is listening at %s", host),
			"Start the backend (querydesk serve) or fix the --backend address",
		}
	case CategoryTLS:
		return []string{
			"Secure connection failed",
			"Check the certificate and system clock, or use --insecure for a local backend",
		}
	case CategoryAuth:
		return []string{
			"The backend rejected the API token",
			"Run 'querydesk login' to store a new token",
		}
	case CategoryServer:
		return []string{
			fmt.Sprintf("%s reported an internal error", host),
			"Check the backend logs and try again",
		}
	default:
		return nil
	}
}

// Present writes the error and any hints to w.
func Present(w io.Writer, err error, backendURL string) {
	if err == nil {
		return
	}
	_, _ = io.WriteString(w, pterm.Error.Sprintln(err.Error()))
	for _, h := range Hints(Classify(err), ExtractHostFromURL(backendURL)) {
		_, _ = io.WriteString(w, pterm.NewStyle(pterm.FgGray).Sprint("  • "+h)+"\n")
	}
}

// ExtractHostFromURL extracts the host from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		if strings.TrimSpace(urlStr) != "" && !strings.Contains(urlStr, "/") {
			return urlStr
		}
		return "the backend"
	}
	return u.Host
}
