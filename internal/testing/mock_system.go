package testing

import (
	"time"

	"github.com/alexschlessinger/pollytool/llm"
	"github.com/alexschlessinger/pollytool/sessions"
	"github.com/alexschlessinger/pollytool/tools"

	"meshworks/meshgate/internal/conversation"
	"meshworks/meshgate/internal/core"
)

// MockLLM implements core.LLM for testing
type MockLLM struct {
	Responses []string      // Chunks to send
	Delay     time.Duration // Delay between chunks (0 = immediate)
	Error     error         // Error to return (sent as final chunk)
}

// ChatCompletionStream implements core.LLM
func (m *MockLLM) ChatCompletionStream(ctx core.ChatContextInterface, req *llm.CompletionRequest) <-chan string {
	ch := make(chan string, len(m.Responses)+1)
	go func() {
		defer close(ch)
		defer ctx.GetStore().EndAssistant()
		for _, resp := range m.Responses {
			if m.Delay > 0 {
				select {
				case <-time.After(m.Delay):
				case <-ctx.Done():
					return
				}
			}
			ctx.GetStore().AppendActive(resp)
			select {
			case <-ctx.Done():
				return
			case ch <- resp:
			}
		}
		if m.Error != nil {
			errMsg := "Error: " + m.Error.Error()
			ctx.GetStore().AppendActive(errMsg)
			ch <- errMsg
		}
	}()
	return ch
}

// Verify MockLLM implements core.LLM
var _ core.LLM = (*MockLLM)(nil)

// MockSystem implements core.System for testing
type MockSystem struct {
	ToolRegistry  *tools.ToolRegistry
	Conversations *conversation.Map
	LLM           core.LLM
}

// NewMockSystem creates a MockSystem with sensible defaults
func NewMockSystem() *MockSystem {
	return &MockSystem{
		ToolRegistry: tools.NewToolRegistry([]tools.Tool{}),
		Conversations: conversation.NewMap(sessions.NewSyncMapSessionStore(&sessions.Metadata{
			TTL:          time.Minute * 10,
			SystemPrompt: "You are a test bot.",
		})),
		LLM: &MockLLM{
			Responses: []string{"Hello from mock LLM"},
		},
	}
}

// GetToolRegistry implements core.System
func (m *MockSystem) GetToolRegistry() *tools.ToolRegistry {
	return m.ToolRegistry
}

// GetConversations implements core.System
func (m *MockSystem) GetConversations() *conversation.Map {
	return m.Conversations
}

// GetLLM implements core.System
func (m *MockSystem) GetLLM() core.LLM {
	return m.LLM
}

// Verify MockSystem implements core.System
var _ core.System = (*MockSystem)(nil)
