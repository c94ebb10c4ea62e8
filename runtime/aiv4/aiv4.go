// Package aiv4 defines the older wire dialect family: the UI message shape
// whose parts follow the canonical V2 vocabulary, and the core message shape
// used for model invocation (string-or-array content, tool-call parts with
// "args", tool-result parts with "result", mimeType file fields).
package aiv4

import (
	"time"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

type (
	// UIMessage is the older UI dialect message. Its parts reuse the V2 part
	// vocabulary; toolInvocations, experimental_attachments, annotations, and
	// data are top-level fields unique to this dialect.
	UIMessage struct {
		ID              string                    `json:"id,omitempty"`
		Role            messages.Role             `json:"role"`
		Content         string                    `json:"content,omitempty"`
		CreatedAt       time.Time                 `json:"createdAt,omitzero"`
		Parts           []messages.Part           `json:"parts"`
		ToolInvocations []messages.ToolInvocation `json:"toolInvocations,omitempty"`
		Attachments     []messages.Attachment     `json:"experimental_attachments,omitempty"`
		Annotations     []any                     `json:"annotations,omitempty"`
		Data            any                       `json:"data,omitempty"`
	}

	// CoreMessage is the older model dialect message.
	CoreMessage struct {
		Role    messages.Role `json:"role"`
		Content CoreContent   `json:"content"`
		// ProviderMetadata is the dialect's experimental provider metadata;
		// the newer model dialect never carried this field.
		ProviderMetadata map[string]any `json:"experimental_providerMetadata,omitempty"`
	}

	// CoreContent is the core content union: a plain string or typed parts.
	CoreContent struct {
		Text     string
		Parts    []CorePart
		IsString bool
	}

	// CorePart is a typed content entry of a core message.
	CorePart interface {
		isCorePart()
	}

	// TextPart is visible text with optional provider metadata.
	TextPart struct {
		Text             string         `json:"text"`
		ProviderMetadata map[string]any `json:"experimental_providerMetadata,omitempty"`
	}

	// ImagePart references an image by URL or base64 payload.
	ImagePart struct {
		Image    string `json:"image"`
		MimeType string `json:"mimeType,omitempty"`
	}

	// FilePart references file content by URL or base64 payload.
	FilePart struct {
		Data     string `json:"data"`
		MimeType string `json:"mimeType"`
	}

	// ReasoningPart is signed plaintext reasoning.
	ReasoningPart struct {
		Text      string `json:"text"`
		Signature string `json:"signature,omitempty"`
	}

	// RedactedReasoningPart is opaque reasoning with no recoverable text.
	// This construct exists only in the older dialect.
	RedactedReasoningPart struct {
		Data string `json:"data"`
	}

	// ToolCallPart declares a tool invocation ("args" vocabulary).
	ToolCallPart struct {
		ToolCallID string         `json:"toolCallId"`
		ToolName   string         `json:"toolName"`
		Args       map[string]any `json:"args"`
	}

	// ToolResultPart communicates a tool result ("result" vocabulary).
	ToolResultPart struct {
		ToolCallID string `json:"toolCallId"`
		ToolName   string `json:"toolName"`
		Result     any    `json:"result"`
		IsError    bool   `json:"isError,omitempty"`
	}
)

func (TextPart) isCorePart()              {}
func (ImagePart) isCorePart()             {}
func (FilePart) isCorePart()              {}
func (ReasoningPart) isCorePart()         {}
func (RedactedReasoningPart) isCorePart() {}
func (ToolCallPart) isCorePart()          {}
func (ToolResultPart) isCorePart()        {}
