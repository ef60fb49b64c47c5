package core

import (
	"github.com/alexschlessinger/pollytool/tools"

	"meshworks/meshgate/internal/conversation"
)

type SystemImpl struct {
	Tools         *tools.ToolRegistry
	Conversations *conversation.Map
	LLM           LLM
}

func (s *SystemImpl) GetToolRegistry() *tools.ToolRegistry {
	return s.Tools
}

func (s *SystemImpl) GetConversations() *conversation.Map {
	return s.Conversations
}

func (s *SystemImpl) GetLLM() LLM {
	return s.LLM
}
