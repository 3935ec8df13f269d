package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPrompt_SplitsSystemFromRest(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "you are an orchestrator"},
		{Role: "user", Content: "run node a"},
		{Role: "assistant", Content: "ok"},
	}

	system, rest := toPrompt(messages)
	assert.Equal(t, "you are an orchestrator", system)
	assert.Len(t, rest, 2)
	assert.Equal(t, "user", rest[0].Role)
	assert.Equal(t, "assistant", rest[1].Role)
}

func TestToPrompt_NoSystemMessage(t *testing.T) {
	messages := []Message{{Role: "user", Content: "hi"}}
	system, rest := toPrompt(messages)
	assert.Empty(t, system)
	assert.Len(t, rest, 1)
}
