package llm

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"smartquiz/internal/domain"
)

var statusCodePattern = regexp.MustCompile(`(?:status code|status|code)[:= ]+(\d{3})\b`)

// classifyError converts any error returned while calling a backend into a
// typed BackendError. ctx is the per-call context carrying the timeout.
func classifyError(ctx context.Context, backend string, err error) *domain.BackendError {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded), isNetTimeout(err):
		return domain.NewBackendTimeoutError(backend, err)
	case errors.Is(err, context.Canceled):
		return domain.NewBackendFailure(backend, "request canceled", false, err)
	case isUnreachable(err):
		return domain.NewBackendUnreachableError(backend, err)
	}
	return classifyMessage(backend, err, statusCodeOf(err))
}

// classifyMessage maps what the SDKs report as plain text onto error codes.
// status is 0 when unknown.
func classifyMessage(backend string, err error, status int) *domain.BackendError {
	msg := strings.ToLower(err.Error())
	switch {
	case status == 401 || status == 403 ||
		strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "unauthenticated") || strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "permission_denied"):
		return domain.NewBackendAuthError(backend, "authentication failed", err)
	case status == 429 || strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "resource exhausted"):
		return domain.NewBackendQuotaError(backend, err)
	case status == 404 || (strings.Contains(msg, "model") && strings.Contains(msg, "not found")):
		return domain.NewBackendAuthError(backend, "model not supported", err)
	case status == 408 || status == 504:
		return domain.NewBackendTimeoutError(backend, err)
	case status >= 500:
		return domain.NewBackendFailure(backend, "server error", true, err)
	case status >= 400:
		return domain.NewBackendFailure(backend, "request rejected", false, err)
	}
	return domain.NewBackendFailure(backend, "request failed", true, err)
}

func statusCodeOf(err error) int {
	m := statusCodePattern.FindStringSubmatch(strings.ToLower(err.Error()))
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host")
}
