package conversation

import (
	"sync"
	"time"

	"github.com/alexschlessinger/pollytool/messages"
	"github.com/alexschlessinger/pollytool/sessions"
)

// ToolInvocation records one tool call made during an assistant turn.
// Result is empty while the call is pending.
type ToolInvocation struct {
	ToolName  string
	Arguments map[string]any
	Result    string
	Done      bool
}

// Turn is one entry in the conversation log. Turns are immutable once
// appended, except for the in-flight assistant turn which is updated in
// place as streamed content arrives.
type Turn struct {
	Role            string
	Content         string
	CreatedAt       time.Time
	ToolInvocations []ToolInvocation
}

// Store is the ordered, append-only log of conversation turns. It owns its
// turns exclusively; other components mutate it only through these methods.
// The model-facing message history (including tool calls and tool results)
// is kept in the backing pollytool session, which also carries the system
// prompt and history trimming.
type Store struct {
	mu      sync.Mutex
	session sessions.Session
	turns   []Turn
	active  int // index of the in-flight assistant turn, -1 when none
}

func NewStore(session sessions.Session) *Store {
	return &Store{
		session: session,
		active:  -1,
	}
}

// AddUser appends a user turn and the corresponding model message. If the
// last turn is already a user turn with identical content, nothing is
// appended and AddUser returns false. This guards against double-submission
// from the caller.
func (s *Store) AddUser(content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.turns); n > 0 {
		last := s.turns[n-1]
		if last.Role == messages.MessageRoleUser && last.Content == content {
			return false
		}
	}

	s.turns = append(s.turns, Turn{
		Role:      messages.MessageRoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	})
	s.session.AddMessage(messages.ChatMessage{
		Role:    messages.MessageRoleUser,
		Content: content,
	})
	return true
}

// BeginAssistant opens the in-flight assistant turn. Any previously open
// turn is closed first.
func (s *Store) BeginAssistant() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{
		Role:      messages.MessageRoleAssistant,
		CreatedAt: time.Now(),
	})
	s.active = len(s.turns) - 1
}

// AppendActive adds streamed content to the in-flight assistant turn. The
// turn is updated after every delta so a display layer can render partial
// content as it arrives.
func (s *Store) AppendActive(delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active < 0 {
		return
	}
	s.turns[s.active].Content += delta
}

// ActiveContent returns the accumulated content of the in-flight turn.
func (s *Store) ActiveContent() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active < 0 {
		return ""
	}
	return s.turns[s.active].Content
}

// SetActive replaces the in-flight turn's content wholesale. Used for the
// default acknowledgement when the model emitted nothing visible.
func (s *Store) SetActive(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active < 0 {
		return
	}
	s.turns[s.active].Content = content
}

// RecordInvocation attaches a pending tool invocation to the in-flight turn
// and returns its index for later completion.
func (s *Store) RecordInvocation(name string, args map[string]any) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active < 0 {
		return -1
	}
	s.turns[s.active].ToolInvocations = append(s.turns[s.active].ToolInvocations, ToolInvocation{
		ToolName:  name,
		Arguments: args,
	})
	return len(s.turns[s.active].ToolInvocations) - 1
}

// CompleteInvocation fills in the result of a previously recorded invocation.
func (s *Store) CompleteInvocation(idx int, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active < 0 || idx < 0 || idx >= len(s.turns[s.active].ToolInvocations) {
		return
	}
	s.turns[s.active].ToolInvocations[idx].Result = result
	s.turns[s.active].ToolInvocations[idx].Done = true
}

// EndAssistant closes the in-flight turn. Further AppendActive calls are
// dropped until a new turn begins.
func (s *Store) EndAssistant() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = -1
}

// Turns returns a copy of the turn log.
func (s *Store) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// History returns the model-facing message history from the backing session.
func (s *Store) History() []messages.ChatMessage {
	return s.session.GetHistory()
}

// AddMessage appends a raw model message (assistant or tool result) to the
// backing session without creating a display turn.
func (s *Store) AddMessage(m messages.ChatMessage) {
	s.session.AddMessage(m)
}

// Session exposes the backing pollytool session.
func (s *Store) Session() sessions.Session {
	return s.session
}

// Clear resets both the turn log and the model history.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	s.active = -1
	s.session.Clear()
}

// Map hands out one Store per conversation key, backed by a pollytool
// session store which handles TTL expiry and history trimming.
type Map struct {
	mu       sync.Mutex
	stores   map[string]*Store
	sessions sessions.SessionStore
}

func NewMap(store sessions.SessionStore) *Map {
	return &Map{
		stores:   make(map[string]*Store),
		sessions: store,
	}
}

func (m *Map) Get(key string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[key]; ok {
		return s, nil
	}

	session, err := m.sessions.Get(key)
	if err != nil {
		return nil, err
	}
	s := NewStore(session)
	m.stores[key] = s
	return s, nil
}
