package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/buger/jsonparser"
	log "github.com/jensneuse/abstractlogger"
	"github.com/pkg/errors"
)

const (
	httpHeaderContentType   = "Content-Type"
	httpHeaderAccept        = "Accept"
	httpHeaderAuthorization = "Authorization"

	httpContentTypeApplicationJson = "application/json"
)

// DefaultUpstreamTimeout bounds a single backend call when the caller does
// not configure its own limit.
const DefaultUpstreamTimeout = 10 * time.Second

// DefaultHTTPClient is shared across all backend calls so the connection
// pool is reused. The transport level timeout stays unset; cancellation is
// driven per call through the request context.
var DefaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConnsPerHost: 1024,
	},
}

// ForwardEnvelope is the outbound payload for one backend call. Headers are
// restricted to the verbatim Authorization value; nothing else from the
// inbound request crosses over.
type ForwardEnvelope struct {
	Query         string          `json:"query"`
	Variables     json.RawMessage `json:"variables,omitempty"`
	Authorization string          `json:"-"`
}

// Client issues a single forward-and-parse call against one backend URL.
// It never retries: a failed call fails the whole dispatch.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	log        log.Logger
}

func NewClient(httpClient *http.Client, timeout time.Duration, logger log.Logger) *Client {
	if httpClient == nil {
		httpClient = DefaultHTTPClient
	}
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	if logger == nil {
		logger = log.NoopLogger
	}
	return &Client{
		httpClient: httpClient,
		timeout:    timeout,
		log:        logger,
	}
}

// Call posts the envelope to the backend at url and returns the raw response
// body once it is known to be valid JSON. The configured timeout is a hard
// upper bound: on expiry the in-flight request is cancelled through its
// context, which aborts the underlying connection rather than abandoning it.
func (c *Client) Call(ctx context.Context, url string, envelope ForwardEnvelope) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, errors.Wrap(err, "marshal forward envelope")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build backend request")
	}

	request.Header.Set(httpHeaderContentType, httpContentTypeApplicationJson)
	request.Header.Set(httpHeaderAccept, httpContentTypeApplicationJson)
	if envelope.Authorization != "" {
		request.Header.Set(httpHeaderAuthorization, envelope.Authorization)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.log.Error("backend call timed out",
				log.String("url", url),
				log.String("timeout", c.timeout.String()),
			)
			return nil, &UpstreamError{Kind: UpstreamTimeout, URL: url, cause: err}
		}
		c.log.Error("backend unreachable",
			log.String("url", url),
			log.Error(err),
		)
		return nil, &UpstreamError{Kind: UpstreamUnreachable, URL: url, cause: err}
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &UpstreamError{Kind: UpstreamTimeout, URL: url, cause: err}
		}
		return nil, &UpstreamError{Kind: UpstreamBadResponse, URL: url, StatusCode: response.StatusCode, cause: err}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		c.log.Error("backend returned non-success status",
			log.String("url", url),
			log.Int("status", response.StatusCode),
		)
		return nil, &UpstreamError{
			Kind:       UpstreamBadResponse,
			URL:        url,
			StatusCode: response.StatusCode,
			cause:      errors.Errorf("unexpected status %d", response.StatusCode),
		}
	}

	if err := validateJSON(data); err != nil {
		c.log.Error("backend returned unparsable body",
			log.String("url", url),
			log.Error(err),
		)
		return nil, &UpstreamError{
			Kind:       UpstreamBadResponse,
			URL:        url,
			StatusCode: response.StatusCode,
			ParseError: true,
			cause:      err,
		}
	}

	return data, nil
}

// validateJSON rejects bodies that are not a JSON object, which is the only
// shape a GraphQL backend may legally answer with.
func validateJSON(data []byte) error {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return errors.Wrap(err, "parse backend response")
	}
	if dataType != jsonparser.Object {
		return errors.Errorf("expected JSON object, got %s: %s", dataType, truncate(string(value), maxLoggedOperation))
	}
	return nil
}
