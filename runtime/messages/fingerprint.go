package messages

import (
	"encoding/json"
	"fmt"
)

// Fingerprint returns a stable digest of a message's observable content:
// role, parts, legacy scalar content, and attachments. Two messages with the
// same fingerprint are treated as the same logical message by deduplication
// and by merge idempotence checks. Identity and timestamps are deliberately
// excluded so that a replayed message with a fresher timestamp still
// fingerprints equal.
//
// The digest is the canonical JSON encoding: encoding/json sorts map keys,
// so JSON-equivalent metadata values produce identical digests.
func Fingerprint(m *MessageV2) string {
	if m == nil {
		return ""
	}
	view := struct {
		Role        Role         `json:"role"`
		Parts       []Part       `json:"parts"`
		Content     string       `json:"content,omitempty"`
		Attachments []Attachment `json:"attachments,omitempty"`
	}{
		Role:        m.Role,
		Parts:       m.Content.Parts,
		Content:     m.Content.Content,
		Attachments: m.Content.Attachments,
	}
	data, err := json.Marshal(view)
	if err != nil {
		// Parts are JSON-encodable by construction; an error here means a
		// caller smuggled a non-serializable tool result. Degrade to a
		// formatted representation rather than fail equality checks.
		return fmt.Sprintf("%v|%v", m.Role, m.Content.Parts)
	}
	return string(data)
}

// PartFingerprint returns a stable digest of a single part, used when merging
// streamed assistant deltas to detect near-duplicate parts.
func PartFingerprint(p Part) string {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", p)
	}
	return string(data)
}

// EqualContent reports whether two messages have the same observable content.
func EqualContent(a, b *MessageV2) bool {
	return Fingerprint(a) == Fingerprint(b)
}
