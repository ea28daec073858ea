package stitch

import (
	"encoding/json"
	"io"
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	log "github.com/jensneuse/abstractlogger"
	"github.com/pkg/errors"

	"github.com/microshop/graphql-gateway/pkg/gateway"
)

// maxParallelResolvers caps concurrent field resolution within one request.
// Field resolutions are independent backend calls and tolerate arbitrary
// interleaving.
const maxParallelResolvers = 20

type graphqlRequest struct {
	Query         string          `json:"query"`
	OperationName string          `json:"operationName"`
	Variables     json.RawMessage `json:"variables"`
}

// Handler is the stitched dispatcher: the unified schema is executed by the
// GraphQL engine, each root field forwards its fixed sub-query, and a
// single normalization pass shapes every surfaced error before the response
// is written. The proxy and stitched handlers are interchangeable behind
// http.Handler; deployments pick one via GATEWAY_MODE.
type Handler struct {
	log    log.Logger
	schema *graphql.Schema
}

func NewHandler(resolver *Resolver, logger log.Logger) (*Handler, error) {
	if logger == nil {
		logger = log.NoopLogger
	}
	opts := []graphql.SchemaOpt{
		graphql.UseFieldResolvers(),
		graphql.MaxParallelism(maxParallelResolvers),
	}
	schema, err := graphql.ParseSchema(SchemaSDL, resolver, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "parse unified schema")
	}
	return &Handler{log: logger, schema: schema}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error("stitch: read request body", log.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var request graphqlRequest
	if err := json.Unmarshal(body, &request); err != nil {
		h.log.Error("stitch: unmarshal request", log.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var variables map[string]interface{}
	if len(request.Variables) > 0 {
		if err := json.Unmarshal(request.Variables, &variables); err != nil {
			h.log.Error("stitch: unmarshal variables", log.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
	}

	ctx := WithAuthorization(r.Context(), r.Header.Get("Authorization"))
	response := h.schema.Exec(ctx, request.Query, request.OperationName, variables)

	out, err := json.Marshal(response)
	if err != nil {
		h.log.Error("stitch: marshal response", log.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// Same rule table as the proxy path, applied to whatever the engine
	// surfaced. Per-call backend errors and engine level errors end up
	// shaped identically.
	out = gateway.Normalize(out)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
