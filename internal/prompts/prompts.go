package prompts

import (
	"strings"
	"text/template"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
)

// Defaults applied when an agent is created without its own prompt material.
const (
	defaultSystemPromptTemplate = `You are {{.Name}}, a professional voice agent making outbound calls on behalf of your organization.

Guidelines:
- Introduce yourself and the reason for the call within the first two sentences.
- Be concise. Spoken answers should rarely exceed three sentences.
- If the person is busy or uninterested, thank them and end the call politely.
- Never invent facts about pricing, availability or policy. Offer to follow up instead.
- Speak only in {{.Language}} unless the person switches language first.`

	defaultFirstMessage = "Hi, this is {{.Name}}. Do you have a quick moment?"
)

// languageNames maps the stored language codes to how the prompt refers to
// the language. Unlisted codes are passed through as-is.
var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"pt": "Portuguese",
	"zh": "Chinese",
	"ja": "Japanese",
	"id": "Indonesian",
}

type promptContext struct {
	Name     string
	Language string
}

// SystemPromptFor returns the agent's system prompt, falling back to the
// default outbound-calling prompt when none was configured.
func SystemPromptFor(agent *domain.Agent) string {
	if agent.SystemPrompt != "" {
		return agent.SystemPrompt
	}
	return render(defaultSystemPromptTemplate, agent)
}

// FirstMessageFor returns the agent's opening line, falling back to a
// generic introduction.
func FirstMessageFor(agent *domain.Agent) string {
	if agent.FirstMessage != "" {
		return agent.FirstMessage
	}
	return render(defaultFirstMessage, agent)
}

func render(text string, agent *domain.Agent) string {
	tmpl, err := template.New("prompt").Parse(text)
	if err != nil {
		return text
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, promptContext{
		Name:     agent.Name,
		Language: languageName(agent.Language),
	}); err != nil {
		return text
	}
	return sb.String()
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	if code == "" {
		return languageNames["en"]
	}
	return code
}
