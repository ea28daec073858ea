// Package gateway contains the dispatch core: the operation classifier, the
// backend client, the response normalizer and the raw pass-through proxy
// handler.
package gateway

import (
	"regexp"
	"strings"

	log "github.com/jensneuse/abstractlogger"
)

// Backend identifies exactly one upstream service. A RouteDecision never
// names more than one backend; the proxy path does not fan out.
type Backend int

const (
	BackendAuth Backend = iota
	BackendProducts
)

func (b Backend) String() string {
	switch b {
	case BackendAuth:
		return "auth"
	case BackendProducts:
		return "products"
	default:
		return "unknown"
	}
}

// RouteDecision is the classifier verdict for one raw operation: the owning
// backend plus a reason string kept for request logs.
type RouteDecision struct {
	Backend Backend
	Reason  string
}

// Classification is a text heuristic over the raw operation body, not a
// parse of the GraphQL document. The word-boundary patterns and the
// products-first tie-break are part of the observed contract of the gateway
// and must not be replaced with AST inspection.
var (
	authKeywords = regexp.MustCompile(
		`\b(login|register|registerAdmin|registerVendor|token|me|password|addToFavorites|removeFromFavorites)\b`)
	productKeywords = regexp.MustCompile(
		`\b(Product|Order|Category|categories|products|createCategory|createProduct|updateProduct|deleteProduct)\b`)
)

// maxLoggedOperation bounds how much of an unmatched operation body makes it
// into the diagnostic log.
const maxLoggedOperation = 120

type Classifier struct {
	log log.Logger
}

func NewClassifier(logger log.Logger) *Classifier {
	if logger == nil {
		logger = log.NoopLogger
	}
	return &Classifier{log: logger}
}

// Classify decides which backend owns the given raw operation text. It is
// pure and total: any input, including empty or malformed text, yields a
// decision.
//
// Product keywords win over auth keywords whenever both match. Products is
// the healthier deployment of the two, so ambiguous traffic degrades there
// rather than piling onto the auth service.
func (c *Classifier) Classify(rawQuery string) RouteDecision {
	authMatch := authKeywords.MatchString(rawQuery)
	productsMatch := productKeywords.MatchString(rawQuery)

	switch {
	case productsMatch:
		return RouteDecision{Backend: BackendProducts, Reason: "products keyword"}
	case authMatch:
		return RouteDecision{Backend: BackendAuth, Reason: "auth keyword"}
	}

	// Narrower fallback: "me" as a plain substring catches selections the
	// word-boundary table misses.
	if strings.Contains(rawQuery, "me") {
		return RouteDecision{Backend: BackendAuth, Reason: "me query"}
	}

	c.log.Debug("classifier: no keyword match, using default fallback",
		log.String("operation", truncate(rawQuery, maxLoggedOperation)),
	)
	return RouteDecision{Backend: BackendProducts, Reason: "default fallback"}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
