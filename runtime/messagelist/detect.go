package messagelist

import (
	"strings"
)

// Dialect tags the six input message shapes the engine understands, plus the
// legacy canonical fallback. Detection is heuristic by necessity: the dialect
// families evolved from one another field by field, so classification is an
// ordered, short-circuiting decision table over duck-typed field presence.
// Ambiguous inputs fall back to a documented default; misclassification is a
// format choice, never an error.
type Dialect string

const (
	// DialectV1 is the flat legacy canonical shape.
	DialectV1 Dialect = "v1"
	// DialectV2 is the durable canonical shape (content.format == 2).
	DialectV2 Dialect = "v2"
	// DialectV3 is the richer canonical shape (content.format == 3).
	DialectV3 Dialect = "v3"
	// DialectUIV4 is the older UI dialect.
	DialectUIV4 Dialect = "ui-v4"
	// DialectUIV5 is the newer UI dialect.
	DialectUIV5 Dialect = "ui-v5"
	// DialectCoreV4 is the older model dialect.
	DialectCoreV4 Dialect = "core-v4"
	// DialectModelV5 is the newer model dialect.
	DialectModelV5 Dialect = "model-v5"
)

// Detect classifies a decoded JSON object into a dialect. It is total over
// any object that at minimum has a role field: every branch has a default.
//
// Canonical shapes are checked first (their format discriminant is
// authoritative), then UI shapes (presence of a parts array), then model
// shapes (everything else with content).
func Detect(obj map[string]any) Dialect {
	if content, ok := obj["content"].(map[string]any); ok {
		switch asInt(content["format"]) {
		case 2:
			return DialectV2
		case 3:
			return DialectV3
		}
	}
	_, hasThread := obj["threadId"]
	_, hasResource := obj["resourceId"]
	_, hasParts := obj["parts"]
	if (hasThread || hasResource) && !hasParts {
		// Canonical identity fields without a format discriminant: the
		// pre-format legacy shape.
		return DialectV1
	}
	if hasParts {
		return DetectUIVariant(obj)
	}
	return DetectModelVariant(obj)
}

// DetectUIVariant distinguishes the two UI dialects for an object known to
// carry a parts array. Default: the older dialect, which preserves backward
// compatibility for payloads with no distinguishing field.
func DetectUIVariant(obj map[string]any) Dialect {
	// Top-level fields that only ever existed in the older UI dialect.
	if hasAnyField(obj, "toolInvocations", "reasoning", "experimental_attachments", "data", "annotations") {
		return DialectUIV4
	}
	parts, _ := obj["parts"].([]any)
	for _, raw := range parts {
		part, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := part["type"].(string)
		if _, ok := part["toolInvocation"]; ok {
			return DialectUIV4
		}
		// Parts carrying metadata or a toolCallId directly (not nested under a
		// toolInvocation wrapper) only exist in the newer dialect.
		if hasAnyField(part, "metadata", "toolCallId", "providerMetadata") {
			return DialectUIV5
		}
		switch {
		case typ == "source":
			return DialectUIV4
		case typ == "source-url":
			return DialectUIV5
		case strings.HasPrefix(typ, "tool-") || typ == "dynamic-tool":
			return DialectUIV5
		case typ == "reasoning":
			if hasAnyField(part, "state", "text") {
				return DialectUIV5
			}
			if hasAnyField(part, "reasoning", "details") {
				return DialectUIV4
			}
		case typ == "file":
			if _, ok := part["mediaType"]; ok {
				return DialectUIV5
			}
			if _, ok := part["mimeType"]; ok {
				return DialectUIV4
			}
		}
	}
	return DialectUIV4
}

// DetectModelVariant distinguishes the two model dialects for an object with
// content but no parts array. Default: the newer dialect; the exceptions are
// scalar string content and the older-only experimental_providerMetadata
// field, both of which default older.
func DetectModelVariant(obj map[string]any) Dialect {
	// The newer dialect never carried experimental_providerMetadata.
	if _, ok := obj["experimental_providerMetadata"]; ok {
		return DialectCoreV4
	}
	content, ok := obj["content"].([]any)
	if !ok {
		// Scalar string content is ambiguous between the two; default older.
		return DialectCoreV4
	}
	for _, raw := range content {
		part, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := part["type"].(string)
		switch typ {
		case "tool-result":
			if _, ok := part["output"]; ok {
				return DialectModelV5
			}
			if _, ok := part["result"]; ok {
				return DialectCoreV4
			}
		case "tool-call":
			if _, ok := part["input"]; ok {
				return DialectModelV5
			}
			if _, ok := part["args"]; ok {
				return DialectCoreV4
			}
		case "reasoning":
			if _, ok := part["signature"]; ok {
				return DialectCoreV4
			}
		case "redacted-reasoning":
			return DialectCoreV4
		}
		if _, ok := part["mediaType"]; ok {
			return DialectModelV5
		}
		if _, ok := part["mimeType"]; ok {
			return DialectCoreV4
		}
	}
	return DialectModelV5
}

func hasAnyField(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// asInt extracts an integer discriminant from a decoded JSON value, which
// arrives as float64 from encoding/json and as int from in-memory maps.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
