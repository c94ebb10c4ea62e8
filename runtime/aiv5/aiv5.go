// Package aiv5 defines the newer wire dialect family: the UI message shape
// whose parts follow the canonical V3 vocabulary (per-tool typed parts,
// source-url citations, url/mediaType files), and the model message shape
// used for invocation (tool-call parts with "input", tool-result parts with
// structured "output").
package aiv5

import (
	"time"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

type (
	// UIMessage is the newer UI dialect message. Its parts reuse the V3 part
	// vocabulary; metadata is a top-level field and parts may carry provider
	// metadata directly.
	UIMessage struct {
		ID        string            `json:"id,omitempty"`
		Role      messages.Role     `json:"role"`
		CreatedAt time.Time         `json:"createdAt,omitzero"`
		Metadata  map[string]any    `json:"metadata,omitempty"`
		Parts     []messages.PartV3 `json:"parts"`
	}

	// ModelMessage is the newer model dialect message.
	ModelMessage struct {
		Role            messages.Role  `json:"role"`
		Content         ModelContent   `json:"content"`
		ProviderOptions map[string]any `json:"providerOptions,omitempty"`
	}

	// ModelContent is the model content union: a plain string or typed parts.
	ModelContent struct {
		Text     string
		Parts    []ModelPart
		IsString bool
	}

	// ModelPart is a typed content entry of a model message.
	ModelPart interface {
		isModelPart()
	}

	// TextPart is visible text.
	TextPart struct {
		Text            string         `json:"text"`
		ProviderOptions map[string]any `json:"providerOptions,omitempty"`
	}

	// FilePart references file content ("mediaType" vocabulary).
	FilePart struct {
		Data      string `json:"data"`
		MediaType string `json:"mediaType"`
		Filename  string `json:"filename,omitempty"`
	}

	// ReasoningPart is plaintext reasoning.
	ReasoningPart struct {
		Text            string         `json:"text"`
		ProviderOptions map[string]any `json:"providerOptions,omitempty"`
	}

	// ToolCallPart declares a tool invocation ("input" vocabulary).
	ToolCallPart struct {
		ToolCallID string         `json:"toolCallId"`
		ToolName   string         `json:"toolName"`
		Input      map[string]any `json:"input"`
	}

	// ToolResultPart communicates a tool result as a structured output.
	ToolResultPart struct {
		ToolCallID string     `json:"toolCallId"`
		ToolName   string     `json:"toolName"`
		Output     ToolOutput `json:"output"`
	}

	// ToolOutput is the typed tool result payload. Type is "text", "json",
	// "error-text", or "error-json"; Value holds the corresponding payload.
	ToolOutput struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	}
)

func (TextPart) isModelPart()       {}
func (FilePart) isModelPart()       {}
func (ReasoningPart) isModelPart()  {}
func (ToolCallPart) isModelPart()   {}
func (ToolResultPart) isModelPart() {}

// NewToolOutput wraps a raw result value in the structured output union. A
// nil value is coerced to empty text so downstream invocation payloads never
// carry an undefined result.
func NewToolOutput(value any, isError bool) ToolOutput {
	switch v := value.(type) {
	case nil:
		if isError {
			return ToolOutput{Type: "error-text", Value: ""}
		}
		return ToolOutput{Type: "text", Value: ""}
	case string:
		if isError {
			return ToolOutput{Type: "error-text", Value: v}
		}
		return ToolOutput{Type: "text", Value: v}
	default:
		if isError {
			return ToolOutput{Type: "error-json", Value: v}
		}
		return ToolOutput{Type: "json", Value: v}
	}
}
