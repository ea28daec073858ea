package stitch

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/microshop/graphql-gateway/pkg/gateway"
)

// errNoData marks a backend response whose data slot for the requested
// field was absent or null without an accompanying error. Nullable
// resolvers translate it into a null result.
var errNoData = errors.New("backend returned no data")

func isNoData(err error) bool {
	return errors.Is(err, errNoData)
}

// backendError re-surfaces an operation level error reported by a backend.
// Message and extensions carry through unchanged so the execution engine
// reports them exactly as the backend phrased them.
type backendError struct {
	message    string
	extensions map[string]interface{}
}

func (e *backendError) Error() string {
	return e.message
}

// Extensions satisfies the execution engine's extensions hook so the
// backend's extension fields appear on the outgoing error.
func (e *backendError) Extensions() map[string]interface{} {
	return e.extensions
}

func backendErrorFrom(err gjson.Result) *backendError {
	var extensions map[string]interface{}
	if ext := err.Get("extensions"); ext.IsObject() {
		extensions = ext.Value().(map[string]interface{})
	}
	return &backendError{
		message:    err.Get("message").String(),
		extensions: extensions,
	}
}

// dispatchError shapes a failed backend call (timeout, unreachable, bad
// response) into a resolver error with the gateway's coarse error code in
// extensions. HTTP status stays 200 on this path; the engine owns the
// envelope.
func dispatchError(err error) error {
	_, gatewayErr := gateway.GatewayErrorFor(err)
	return &backendError{
		message: gatewayErr.Message,
		extensions: map[string]interface{}{
			"code":    gatewayErr.Code,
			"details": gatewayErr.Details,
		},
	}
}
