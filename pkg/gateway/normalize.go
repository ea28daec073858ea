package gateway

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// normalizationRule maps backend error phrasing to a stable user-facing
// message and code. Conditions are matched case-insensitively; the backends
// emit both English and Spanish phrasing depending on service version.
type normalizationRule struct {
	substrings  []string
	userMessage string
	code        string
}

// Rules are evaluated in order; the first match wins and the rest are
// skipped for that error.
var normalizationRules = []normalizationRule{
	{
		substrings:  []string{"not found", "no encontrado"},
		userMessage: "resource not found, verify input and retry",
		code:        "NOT_FOUND",
	},
	{
		substrings:  []string{"already exists", "ya existe"},
		userMessage: "resource already exists, use a different identifier",
		code:        "ALREADY_EXISTS",
	},
	{
		substrings:  []string{"unauthenticated", "no autenticado"},
		userMessage: "session not started or expired, log in again",
		code:        "UNAUTHENTICATED",
	},
	{
		substrings:  []string{"forbidden", "no autorizado"},
		userMessage: "insufficient permission for this action",
		code:        "FORBIDDEN",
	},
}

// Normalize enriches every GraphQL error in the response body with a
// userMessage derived from the rule table. Backend-original fields are never
// touched: an error whose message matches no rule passes through
// byte-for-byte, and an error that already carries a userMessage is left
// alone, which makes Normalize idempotent. It never fails; on any shape it
// does not understand it returns the body unchanged.
func Normalize(body []byte) []byte {
	errs := gjson.GetBytes(body, "errors")
	if !errs.IsArray() {
		return body
	}

	out := body
	for i, item := range errs.Array() {
		if item.Get("userMessage").Exists() {
			continue
		}
		rule, ok := matchRule(item.Get("message").String())
		if !ok {
			continue
		}
		prefix := "errors." + strconv.Itoa(i)
		out, _ = sjson.SetBytes(out, prefix+".userMessage", rule.userMessage)
		if !item.Get("extensions.code").Exists() {
			out, _ = sjson.SetBytes(out, prefix+".extensions.code", rule.code)
		}
	}
	return out
}

func matchRule(message string) (normalizationRule, bool) {
	lowered := strings.ToLower(message)
	for _, rule := range normalizationRules {
		for _, substring := range rule.substrings {
			if strings.Contains(lowered, substring) {
				return rule, true
			}
		}
	}
	return normalizationRule{}, false
}

// UserMessageFor returns the normalized user message and code for a raw
// backend error message, for callers shaping errors outside a JSON body.
func UserMessageFor(message string) (userMessage, code string, ok bool) {
	rule, ok := matchRule(message)
	if !ok {
		return "", "", false
	}
	return rule.userMessage, rule.code, true
}
