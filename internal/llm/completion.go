package llm

import (
	"time"

	"github.com/alexschlessinger/pollytool/llm"
	"github.com/alexschlessinger/pollytool/tools"

	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/conversation"
	"meshworks/meshgate/internal/core"
)

type CompletionRequest = llm.CompletionRequest

func NewCompletionRequest(config *config.Configuration, store *conversation.Store, tools []tools.Tool) *CompletionRequest {
	req := &CompletionRequest{
		BaseURL:     config.API.OpenAIURL,
		Timeout:     config.API.Timeout,
		Model:       config.Model.Model,
		MaxTokens:   config.Model.MaxTokens,
		Messages:    store.History(),
		Temperature: config.Model.Temperature,
		Tools:       tools,
	}

	if config.Model.Thinking {
		req.ThinkingEffort = "medium"
	}

	return req
}

// Complete processes a user message and returns a channel of response
// chunks. A repeated identical user message is not re-added to history,
// but still gets a fresh completion.
func Complete(ctx core.ChatContextInterface, msg string) (<-chan string, error) {
	store := ctx.GetStore()

	truncated := msg
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	ctx.GetLogger().Infof("Processing user message: %q", truncated)

	if !store.AddUser(msg) {
		ctx.GetLogger().Debug("Duplicate user message, history unchanged")
	}
	store.BeginAssistant()

	cfg := ctx.GetConfig()
	sys := ctx.GetSystem()

	var allTools []tools.Tool
	if sys.GetToolRegistry() != nil {
		allTools = sys.GetToolRegistry().All()
	}

	req := NewCompletionRequest(cfg, store, allTools)

	stream := sys.GetLLM().ChatCompletionStream(ctx, req)

	output := make(chan string, 10)
	startTime := time.Now()

	go func() {
		defer close(output)
		defer core.LogDuration(ctx.GetLogger(), "completion", startTime)

		for chunk := range stream {
			output <- chunk
		}
	}()

	return output, nil
}
