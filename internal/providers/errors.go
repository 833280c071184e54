package providers

// This file contains vendor error classification used for logging.

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// ErrorClass is a coarse bucket for a failed vendor call.
type ErrorClass string

const (
	ErrorClassAuth       ErrorClass = "auth"
	ErrorClassRateLimit  ErrorClass = "rate_limit"
	ErrorClassQuota      ErrorClass = "quota"
	ErrorClassServer     ErrorClass = "server"
	ErrorClassBadRequest ErrorClass = "bad_request"
	ErrorClassTimeout    ErrorClass = "timeout"
	ErrorClassNetwork    ErrorClass = "network"
	ErrorClassCanceled   ErrorClass = "canceled"
	ErrorClassUnknown    ErrorClass = "unknown"
)

// ClassifyError inspects typed SDK errors first and falls back to matching
// the error text.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassUnknown
	}
	if errors.Is(err, context.Canceled) {
		return ErrorClassCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return classifyStatus(apiErr.HTTPStatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorClassTimeout
		}
		return ErrorClassNetwork
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case containsAny(errStr, "429", "rate limit", "too many requests"):
		return ErrorClassRateLimit
	case containsAny(errStr, "401", "403", "unauthorized", "forbidden", "invalid api key", "authentication"):
		return ErrorClassAuth
	case containsAny(errStr, "402", "quota", "billing", "payment required"):
		return ErrorClassQuota
	case containsAny(errStr, "500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable", "overloaded"):
		return ErrorClassServer
	case containsAny(errStr, "timeout", "deadline exceeded"):
		return ErrorClassTimeout
	case containsAny(errStr, "connection reset", "connection refused", "no such host", "network", "dns"):
		return ErrorClassNetwork
	case containsAny(errStr, "400", "bad request", "invalid request", "malformed"):
		return ErrorClassBadRequest
	}
	return ErrorClassUnknown
}

func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorClassAuth
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status == http.StatusPaymentRequired:
		return ErrorClassQuota
	case status >= 500:
		return ErrorClassServer
	case status >= 400:
		return ErrorClassBadRequest
	}
	return ErrorClassUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
