package core

import (
	"context"

	"github.com/alexschlessinger/pollytool/llm"
	"github.com/alexschlessinger/pollytool/tools"
	"go.uber.org/zap"

	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/conversation"
)

// ChatContextInterface provides all context needed for handling a chat turn
type ChatContextInterface interface {
	context.Context

	// Event methods
	IsAddressed() bool
	IsAdmin() bool
	Valid() bool
	IsPrivate() bool
	GetCommand() string
	GetSource() string
	GetArgs() []string

	// Responder methods
	Reply(string)
	Action(string)

	// Runtime methods
	GetStore() *conversation.Store
	GetConfig() *config.Configuration
	GetSystem() System
	GetLogger() *zap.SugaredLogger
}

// LLM defines the interface for the language model client
type LLM interface {
	// ChatCompletionStream returns a channel of display-sized chunks
	ChatCompletionStream(ChatContextInterface, *llm.CompletionRequest) <-chan string
}

type System interface {
	GetToolRegistry() *tools.ToolRegistry
	GetConversations() *conversation.Map
	GetLLM() LLM
}
