package chat

import (
	"fmt"

	"github.com/blackai-app/backend/internal/ai"
	"github.com/blackai-app/backend/internal/stores/session"
)

// historyLimit bounds the context window sent to the provider: the system
// directive plus at most this many trailing turns.
const historyLimit = 10

// defaultSystemTemplate is the directive prepended to every prompt. The three
// placeholders are language, tone, and detail level. Deployments may override
// it through SYSTEM_PROMPT_FILE.
const defaultSystemTemplate = `You are Black, a helpful AI assistant.
Response Requirements:
- Language: %s
- Tone: %s
- Detail Level: %s`

// defaultTitlePrompt asks for a session title from the first user turn
const defaultTitlePrompt = "Generate a short, concise title (max 4-5 words) for a chat session " +
	"based on the following user message. Do not use quotes or punctuation. Just the title."

// PromptOptions customizes the assistant's reply for one request
type PromptOptions struct {
	Language string
	Tone     string
	Length   string
}

func (o PromptOptions) withDefaults() PromptOptions {
	if o.Language == "" {
		o.Language = "English"
	}
	if o.Tone == "" {
		o.Tone = "Friendly"
	}
	if o.Length == "" {
		o.Length = "Detailed"
	}
	return o
}

// buildPrompt assembles the message list sent to the provider: one system
// directive followed by the trailing window of the transcript in append
// order. Pure function of its inputs.
func buildPrompt(systemTemplate string, turns []session.Turn, opts PromptOptions) []ai.Message {
	opts = opts.withDefaults()

	start := 0
	if len(turns) > historyLimit {
		start = len(turns) - historyLimit
	}

	messages := make([]ai.Message, 0, len(turns)-start+1)
	messages = append(messages, ai.Message{
		Role:    session.RoleSystem,
		Content: fmt.Sprintf(systemTemplate, opts.Language, opts.Tone, opts.Length),
	})
	for _, turn := range turns[start:] {
		messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
	}

	return messages
}
