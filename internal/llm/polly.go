package llm

import (
	"github.com/alexschlessinger/pollytool/llm"
	"github.com/alexschlessinger/pollytool/messages"

	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/core"
)

// PollyLLM wraps pollytool's MultiPass to implement the core LLM interface
type PollyLLM struct {
	client          llm.LLM
	streamProcessor llm.EventStreamProcessor
}

func NewPollyLLM(config *config.APIConfig) *PollyLLM {
	apiKeys := map[string]string{
		"openai":    config.OpenAIKey,
		"anthropic": config.AnthropicKey,
		"gemini":    config.GeminiKey,
		"ollama":    config.OllamaKey,
	}

	return &PollyLLM{
		client:          llm.NewMultiPass(apiKeys),
		streamProcessor: messages.NewStreamProcessor(),
	}
}

// ChatCompletionStream runs one full completion round including any tool
// continuations, returning display-sized chunks. The channel closes once
// the assistant turn is finalized in the conversation store.
func (p *PollyLLM) ChatCompletionStream(chatCtx core.ChatContextInterface, req *llm.CompletionRequest) <-chan string {
	cfg := chatCtx.GetConfig()
	if cfg.API.OllamaURL != "" {
		req.BaseURL = cfg.API.OllamaURL
	}

	registry := chatCtx.GetSystem().GetToolRegistry()

	maxChunkSize := 400
	if cfg.Session.ChunkMax > 0 {
		maxChunkSize = cfg.Session.ChunkMax
	}

	out := make(chan string, 10)

	go func() {
		defer close(out)

		store := chatCtx.GetStore()

		handler := NewStreamHandler(chatCtx, out, maxChunkSize, registry, p.client, p.streamProcessor)
		handler.SetRequest(req)

		eventChan := p.client.ChatCompletionStream(chatCtx, req, p.streamProcessor)
		response := messages.ProcessEventStream(chatCtx, eventChan, handler)

		handler.FlushBuffer()

		if len(response.ToolCalls) > 0 {
			handler.HandleToolContinuation(chatCtx, req)
		}

		// A turn that was all tool calls has no visible text; give the
		// display layer something to show.
		if store.ActiveContent() == "" {
			store.SetActive(DefaultAcknowledgement)
			out <- DefaultAcknowledgement
		}
		store.EndAssistant()
	}()

	return out
}
