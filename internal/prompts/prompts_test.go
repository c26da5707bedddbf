package prompts

import (
	"testing"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSystemPromptForDefaults(t *testing.T) {
	agent := &domain.Agent{Name: "Riley", Language: "es"}

	prompt := SystemPromptFor(agent)
	assert.Contains(t, prompt, "You are Riley")
	assert.Contains(t, prompt, "Spanish")
}

func TestSystemPromptForConfigured(t *testing.T) {
	agent := &domain.Agent{Name: "Riley", SystemPrompt: "Speak like a pirate."}

	assert.Equal(t, "Speak like a pirate.", SystemPromptFor(agent))
}

func TestFirstMessageFor(t *testing.T) {
	agent := &domain.Agent{Name: "Riley"}
	assert.Equal(t, "Hi, this is Riley. Do you have a quick moment?", FirstMessageFor(agent))

	agent.FirstMessage = "Good morning!"
	assert.Equal(t, "Good morning!", FirstMessageFor(agent))
}

func TestLanguageNamePassThrough(t *testing.T) {
	agent := &domain.Agent{Name: "Riley", Language: "sw"}
	assert.Contains(t, SystemPromptFor(agent), "sw")

	agent.Language = ""
	assert.Contains(t, SystemPromptFor(agent), "English")
}
