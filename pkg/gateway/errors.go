package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// UpstreamErrorKind is the coarse category of a failed backend call.
type UpstreamErrorKind int

const (
	// UpstreamTimeout means no response arrived within the configured bound.
	UpstreamTimeout UpstreamErrorKind = iota
	// UpstreamUnreachable means the connection could not be established at
	// all (DNS failure, connection refused).
	UpstreamUnreachable
	// UpstreamBadResponse means a response arrived but was unusable: a
	// non-success HTTP status or a body that is not JSON.
	UpstreamBadResponse
)

func (k UpstreamErrorKind) String() string {
	switch k {
	case UpstreamTimeout:
		return "timeout"
	case UpstreamUnreachable:
		return "unreachable"
	case UpstreamBadResponse:
		return "bad response"
	default:
		return "unknown"
	}
}

// UpstreamError is a dispatch level failure: the gateway could not obtain a
// usable backend response. It is distinct from GraphQL errors reported by a
// reachable backend, which flow through inside a 200 envelope.
type UpstreamError struct {
	Kind       UpstreamErrorKind
	URL        string
	StatusCode int
	ParseError bool
	cause      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %s: %v", e.Kind, e.URL, e.cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.cause
}

// Gateway error codes surfaced to clients on dispatch level failures.
const (
	CodeGatewayTimeout      = "GATEWAY_TIMEOUT"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidResponse     = "INVALID_RESPONSE"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// GatewayError is the outward error shape written when a dispatch fails.
type GatewayError struct {
	Message string        `json:"message"`
	Details string        `json:"details,omitempty"`
	Code    string        `json:"code"`
	Path    []interface{} `json:"path,omitempty"`
}

func (e GatewayError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

type GatewayErrors []GatewayError

func (e GatewayErrors) Error() string {
	if len(e) > 0 {
		return e[0].Error()
	}
	return "no error"
}

// WriteResponse writes the errors as a GraphQL style envelope so that every
// failure path produces a response body.
func (e GatewayErrors) WriteResponse(writer io.Writer) (n int, err error) {
	body, err := json.Marshal(struct {
		Errors GatewayErrors `json:"errors"`
	}{Errors: e})
	if err != nil {
		return 0, err
	}
	return writer.Write(body)
}

// GatewayErrorFor translates a failed backend call into the HTTP status and
// client-facing error for the proxy response.
func GatewayErrorFor(err error) (status int, gatewayErr GatewayError) {
	upstream, ok := err.(*UpstreamError)
	if !ok {
		return http.StatusInternalServerError, GatewayError{
			Message: "internal gateway error",
			Details: err.Error(),
			Code:    CodeInternalServerError,
		}
	}
	switch upstream.Kind {
	case UpstreamTimeout:
		return http.StatusGatewayTimeout, GatewayError{
			Message: "backend did not respond in time",
			Details: upstream.Error(),
			Code:    CodeGatewayTimeout,
		}
	case UpstreamUnreachable:
		return http.StatusServiceUnavailable, GatewayError{
			Message: "backend unavailable",
			Details: upstream.Error(),
			Code:    CodeServiceUnavailable,
		}
	default:
		code := CodeInternalServerError
		if upstream.ParseError {
			code = CodeInvalidResponse
		}
		return http.StatusInternalServerError, GatewayError{
			Message: "backend returned an invalid response",
			Details: upstream.Error(),
			Code:    code,
		}
	}
}
