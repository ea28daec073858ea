package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newProxy(t *testing.T, authHandler, productsHandler http.HandlerFunc, timeout time.Duration) (*ProxyHandler, func()) {
	t.Helper()
	authServer := httptest.NewServer(authHandler)
	productsServer := httptest.NewServer(productsHandler)
	client := NewClient(nil, timeout, nil)
	proxy := NewProxyHandler(client, authServer.URL, productsServer.URL, nil)
	return proxy, func() {
		authServer.Close()
		productsServer.Close()
	}
}

func postGraphQL(proxy http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	proxy.ServeHTTP(recorder, request)
	return recorder
}

func TestProxyRoutesLoginToAuth(t *testing.T) {
	var authHits, productsHits int
	proxy, cleanup := newProxy(t,
		func(w http.ResponseWriter, r *http.Request) {
			authHits++
			w.Write([]byte(`{"data":{"login":{"token":"abc"}}}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			productsHits++
			w.Write([]byte(`{"data":null}`))
		},
		time.Second)
	defer cleanup()

	recorder := postGraphQL(proxy,
		`{"query":"mutation { login(input: {email:\"a@b.com\", password:\"x\"}) { token } }"}`, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, `{"data":{"login":{"token":"abc"}}}`, recorder.Body.String())
	assert.Equal(t, 1, authHits)
	assert.Equal(t, 0, productsHits, "an operation is never fanned out to both backends")
}

func TestProxyRoutesProductsAndNormalizesErrors(t *testing.T) {
	proxy, cleanup := newProxy(t,
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("auth backend must not be called")
		},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"errors":[{"message":"Product not found"}]}`))
		},
		time.Second)
	defer cleanup()

	recorder := postGraphQL(proxy, `{"query":"query { products { id } }"}`, nil)

	// Operation level errors stay inside a 200 envelope.
	assert.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	assert.Equal(t, "Product not found", gjson.Get(body, "errors.0.message").String())
	assert.Equal(t, "resource not found, verify input and retry",
		gjson.Get(body, "errors.0.userMessage").String())
}

func TestProxyForwardsAuthorization(t *testing.T) {
	proxy, cleanup := newProxy(t,
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
			w.Write([]byte(`{"data":{"me":null}}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("products backend must not be called")
		},
		time.Second)
	defer cleanup()

	recorder := postGraphQL(proxy, `{"query":"query { me { id } }"}`,
		map[string]string{"Authorization": "Bearer secret-token"})
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestProxyOmitsAbsentAuthorization(t *testing.T) {
	proxy, cleanup := newProxy(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, present := r.Header["Authorization"]
			assert.False(t, present, "absent authorization must not be forwarded")
			w.Write([]byte(`{"data":{"me":null}}`))
		},
		func(w http.ResponseWriter, r *http.Request) {},
		time.Second)
	defer cleanup()

	recorder := postGraphQL(proxy, `{"query":"query { me { id } }"}`, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestProxyTimeoutReturns504(t *testing.T) {
	proxy, cleanup := newProxy(t,
		func(w http.ResponseWriter, r *http.Request) {},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.ReadAll(r.Body)
			select {
			case <-r.Context().Done():
			case <-time.After(3 * time.Second):
			}
		},
		50*time.Millisecond)
	defer cleanup()

	recorder := postGraphQL(proxy, `{"query":"query { products { id } }"}`, nil)

	assert.Equal(t, http.StatusGatewayTimeout, recorder.Code)
	body := recorder.Body.String()
	assert.Equal(t, CodeGatewayTimeout, gjson.Get(body, "errors.0.code").String())
	assert.NotEmpty(t, gjson.Get(body, "errors.0.message").String())
	assert.NotEmpty(t, gjson.Get(body, "errors.0.details").String())
}

func TestProxyUnreachableReturns503(t *testing.T) {
	productsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	productsURL := productsServer.URL
	productsServer.Close()

	client := NewClient(nil, time.Second, nil)
	proxy := NewProxyHandler(client, "http://localhost:0", productsURL, nil)

	recorder := postGraphQL(proxy, `{"query":"query { products { id } }"}`, nil)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, CodeServiceUnavailable, gjson.Get(recorder.Body.String(), "errors.0.code").String())
}

func TestProxyInvalidUpstreamBodyReturns500(t *testing.T) {
	proxy, cleanup := newProxy(t,
		func(w http.ResponseWriter, r *http.Request) {},
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		},
		time.Second)
	defer cleanup()

	recorder := postGraphQL(proxy, `{"query":"query { products { id } }"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, CodeInvalidResponse, gjson.Get(recorder.Body.String(), "errors.0.code").String())
}

func TestProxyMissingQueryFallsBackToProducts(t *testing.T) {
	var productsHits int
	proxy, cleanup := newProxy(t,
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("auth backend must not be called")
		},
		func(w http.ResponseWriter, r *http.Request) {
			productsHits++
			w.Write([]byte(`{"data":null}`))
		},
		time.Second)
	defer cleanup()

	recorder := postGraphQL(proxy, `{"variables":{}}`, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, productsHits)
}

func TestGatewayErrorsWriteResponse(t *testing.T) {
	errs := GatewayErrors{{
		Message: "backend unavailable",
		Details: "dial tcp: connection refused",
		Code:    CodeServiceUnavailable,
	}}

	recorder := httptest.NewRecorder()
	_, err := errs.WriteResponse(recorder)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"errors":[{"message":"backend unavailable","details":"dial tcp: connection refused","code":"SERVICE_UNAVAILABLE"}]}`,
		recorder.Body.String())
}
