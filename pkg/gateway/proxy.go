package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/buger/jsonparser"
	log "github.com/jensneuse/abstractlogger"
)

// ProxyHandler is the raw pass-through dispatcher: classify the operation
// text, forward the request to the owning backend, normalize the response.
// Backend GraphQL errors stay inside a 200 envelope; only dispatch level
// failures map to HTTP error statuses.
type ProxyHandler struct {
	log         log.Logger
	classifier  *Classifier
	client      *Client
	backendURLs map[Backend]string
}

func NewProxyHandler(client *Client, authURL, productsURL string, logger log.Logger) *ProxyHandler {
	if logger == nil {
		logger = log.NoopLogger
	}
	return &ProxyHandler{
		log:        logger,
		classifier: NewClassifier(logger),
		client:     client,
		backendURLs: map[Backend]string{
			BackendAuth:     authURL,
			BackendProducts: productsURL,
		},
	}
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error("proxy: read request body", log.Error(err))
		writeGatewayError(w, http.StatusBadRequest, GatewayError{
			Message: "could not read request body",
			Details: err.Error(),
			Code:    CodeInternalServerError,
		})
		return
	}

	// Absent or malformed query text falls through to the classifier's
	// default fallback; the classifier is total.
	query, _ := jsonparser.GetString(body, "query")
	decision := h.classifier.Classify(query)

	variables, _, _, _ := jsonparser.Get(body, "variables")

	envelope := ForwardEnvelope{
		Query:         query,
		Variables:     json.RawMessage(variables),
		Authorization: r.Header.Get(httpHeaderAuthorization),
	}

	targetURL := h.backendURLs[decision.Backend]
	h.log.Debug("proxy: dispatching operation",
		log.String("backend", decision.Backend.String()),
		log.String("reason", decision.Reason),
	)

	result, err := h.client.Call(r.Context(), targetURL, envelope)
	if err != nil {
		status, gatewayErr := GatewayErrorFor(err)
		writeGatewayError(w, status, gatewayErr)
		return
	}

	w.Header().Set(httpHeaderContentType, httpContentTypeApplicationJson)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(Normalize(result))
}

func writeGatewayError(w http.ResponseWriter, status int, gatewayErr GatewayError) {
	w.Header().Set(httpHeaderContentType, httpContentTypeApplicationJson)
	w.WriteHeader(status)
	_, _ = GatewayErrors{gatewayErr}.WriteResponse(w)
}
