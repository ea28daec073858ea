package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	log "github.com/jensneuse/abstractlogger"

	"github.com/microshop/graphql-gateway/pkg/gateway"
)

// probeQuery is the minimal operation every GraphQL service answers.
const probeQuery = `{ __typename }`

// probeTimeout bounds each liveness probe independently of the much larger
// dispatch timeout.
const probeTimeout = 2 * time.Second

const (
	statusOK          = "ok"
	statusDegraded    = "degraded"
	statusUnreachable = "unreachable"
)

type serviceHealth struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

type healthReport struct {
	Status   string `json:"status"`
	Services struct {
		Auth     serviceHealth `json:"auth"`
		Products serviceHealth `json:"products"`
	} `json:"services"`
}

// HealthHandler reports gateway liveness plus the reachability of both
// backends, each checked with a __typename probe.
type HealthHandler struct {
	log         log.Logger
	client      *gateway.Client
	authURL     string
	productsURL string
}

func NewHealthHandler(client *gateway.Client, authURL, productsURL string, logger log.Logger) *HealthHandler {
	if logger == nil {
		logger = log.NoopLogger
	}
	return &HealthHandler{
		log:         logger,
		client:      client,
		authURL:     authURL,
		productsURL: productsURL,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var report healthReport
	report.Services.Auth = serviceHealth{URL: h.authURL}
	report.Services.Products = serviceHealth{URL: h.productsURL}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Services.Auth.Status = h.probe(r.Context(), h.authURL)
	}()
	go func() {
		defer wg.Done()
		report.Services.Products.Status = h.probe(r.Context(), h.productsURL)
	}()
	wg.Wait()

	report.Status = statusOK
	if report.Services.Auth.Status != statusOK || report.Services.Products.Status != statusOK {
		report.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(report)
}

func (h *HealthHandler) probe(ctx context.Context, url string) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, err := h.client.Call(ctx, url, gateway.ForwardEnvelope{Query: probeQuery}); err != nil {
		h.log.Debug("health probe failed",
			log.String("url", url),
			log.Error(err),
		)
		return statusUnreachable
	}
	return statusOK
}
