package testing

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/conversation"
	"meshworks/meshgate/internal/core"
)

// MockChatContext implements core.ChatContextInterface for testing
type MockChatContext struct {
	context.Context

	// Configurable return values
	Addressed bool
	Admin     bool
	Private   bool
	ValidFlag bool
	Command   string
	Source    string
	Args      []string

	// Recorded calls (for assertions)
	Replies []string
	Actions []string

	// Injected dependencies
	store  *conversation.Store
	cfg    *config.Configuration
	sys    core.System
	logger *zap.SugaredLogger
}

// Verify MockChatContext implements core.ChatContextInterface
var _ core.ChatContextInterface = (*MockChatContext)(nil)

// NewMockContext creates a new MockChatContext with sensible defaults
func NewMockContext() *MockChatContext {
	return &MockChatContext{
		Context:   context.Background(),
		ValidFlag: true,
		Addressed: true,
		Admin:     false,
		Private:   false,
		Source:    "testuser",
		Args:      []string{},
		Replies:   []string{},
		Actions:   []string{},
		cfg:       DefaultTestConfig(),
		logger:    zap.NewNop().Sugar(),
	}
}

// Builder methods for fluent test setup

// WithContext sets a custom context (for timeout/cancellation testing)
func (m *MockChatContext) WithContext(ctx context.Context) *MockChatContext {
	m.Context = ctx
	return m
}

// WithAdmin sets the admin flag
func (m *MockChatContext) WithAdmin(admin bool) *MockChatContext {
	m.Admin = admin
	return m
}

// WithAddressed sets whether the bot was addressed
func (m *MockChatContext) WithAddressed(addressed bool) *MockChatContext {
	m.Addressed = addressed
	return m
}

// WithPrivate sets whether this is a private message
func (m *MockChatContext) WithPrivate(private bool) *MockChatContext {
	m.Private = private
	return m
}

// WithValid sets whether the context is valid for processing
func (m *MockChatContext) WithValid(valid bool) *MockChatContext {
	m.ValidFlag = valid
	return m
}

// WithArgs sets the parsed arguments
func (m *MockChatContext) WithArgs(args ...string) *MockChatContext {
	m.Args = args
	if len(args) > 0 {
		m.Command = strings.ToLower(args[0])
	}
	return m
}

// WithSource sets the source nick
func (m *MockChatContext) WithSource(source string) *MockChatContext {
	m.Source = source
	return m
}

// WithConfig sets the configuration
func (m *MockChatContext) WithConfig(cfg *config.Configuration) *MockChatContext {
	m.cfg = cfg
	return m
}

// WithSystem sets the system
func (m *MockChatContext) WithSystem(sys core.System) *MockChatContext {
	m.sys = sys
	return m
}

// WithStore sets the conversation store
func (m *MockChatContext) WithStore(store *conversation.Store) *MockChatContext {
	m.store = store
	return m
}

// WithLogger sets the logger
func (m *MockChatContext) WithLogger(logger *zap.SugaredLogger) *MockChatContext {
	m.logger = logger
	return m
}

// Event methods

func (m *MockChatContext) IsAddressed() bool {
	return m.Addressed
}

func (m *MockChatContext) IsAdmin() bool {
	return m.Admin
}

func (m *MockChatContext) Valid() bool {
	return m.ValidFlag
}

func (m *MockChatContext) IsPrivate() bool {
	return m.Private
}

func (m *MockChatContext) GetCommand() string {
	return m.Command
}

func (m *MockChatContext) GetSource() string {
	return m.Source
}

func (m *MockChatContext) GetArgs() []string {
	return m.Args
}

// Responder methods

func (m *MockChatContext) Reply(msg string) {
	m.Replies = append(m.Replies, msg)
}

func (m *MockChatContext) Action(msg string) {
	m.Actions = append(m.Actions, msg)
}

// Runtime methods

func (m *MockChatContext) GetStore() *conversation.Store {
	if m.store != nil {
		return m.store
	}
	// Create a default store if none set
	if m.sys != nil {
		store, _ := m.sys.GetConversations().Get("test")
		m.store = store
		return store
	}
	return nil
}

func (m *MockChatContext) GetConfig() *config.Configuration {
	return m.cfg
}

func (m *MockChatContext) GetSystem() core.System {
	return m.sys
}

func (m *MockChatContext) GetLogger() *zap.SugaredLogger {
	return m.logger
}

// Assertion helpers

// HasReply checks if any reply contains the given substring
func (m *MockChatContext) HasReply(substring string) bool {
	for _, r := range m.Replies {
		if strings.Contains(r, substring) {
			return true
		}
	}
	return false
}

// LastReply returns the last reply, or empty string if none
func (m *MockChatContext) LastReply() string {
	if len(m.Replies) == 0 {
		return ""
	}
	return m.Replies[len(m.Replies)-1]
}

// ReplyCount returns the number of replies
func (m *MockChatContext) ReplyCount() int {
	return len(m.Replies)
}
