// Package llmclient adapts the ReAct orchestrator's single-call contract
// (spec.md §4.3 step 1, "synchronous invoke(messages) → text and nothing
// more") to concrete language-model SDKs. Adapters here satisfy
// react.LLMClient directly so the orchestrator never imports a provider
// SDK.
package llmclient

import (
	"github.com/arcflow/substrate/internal/react"
)

// Message is an alias for the orchestrator's turn type, kept local so
// call sites in this package read naturally.
type Message = react.Message

// Client is react.LLMClient, restated here for discoverability alongside
// the concrete adapters.
type Client = react.LLMClient

var _ Client = (*OpenAIClient)(nil)
var _ Client = (*GenAIClient)(nil)

func toPrompt(messages []Message) (system string, rest []Message) {
	for i, m := range messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		rest = append(rest, messages[i])
	}
	return system, rest
}

// noContent is returned when a provider responds with no text content at
// all — treated as an empty observation rather than an error, since the
// orchestrator's JSON-parse retry loop (spec.md §4.3) already handles
// malformed output.
const noContent = ""
