package commands

import (
	"errors"
	"testing"

	mocktest "meshworks/meshgate/internal/testing"
)

func TestCompletionCommandBasicFlow(t *testing.T) {
	mockSys := mocktest.NewMockSystem()
	mockSys.LLM = &mocktest.MockLLM{
		Responses: []string{"Hello from the LLM!"},
	}

	ctx := mocktest.NewMockContext().
		WithSystem(mockSys).
		WithArgs("hello", "world")

	cmd := &CompletionCommand{}
	cmd.Execute(ctx)

	if ctx.ReplyCount() == 0 {
		t.Fatal("expected at least one reply from LLM")
	}
	if ctx.LastReply() != "Hello from the LLM!" {
		t.Errorf("expected 'Hello from the LLM!', got: %s", ctx.LastReply())
	}
}

func TestCompletionCommandMultiChunkResponse(t *testing.T) {
	mockSys := mocktest.NewMockSystem()
	mockSys.LLM = &mocktest.MockLLM{
		Responses: []string{"First chunk", "Second chunk", "Third chunk"},
	}

	ctx := mocktest.NewMockContext().
		WithSystem(mockSys).
		WithArgs("tell", "me", "a", "story")

	cmd := &CompletionCommand{}
	cmd.Execute(ctx)

	if ctx.ReplyCount() != 3 {
		t.Fatalf("expected 3 replies, got %d: %v", ctx.ReplyCount(), ctx.Replies)
	}

	expected := []string{"First chunk", "Second chunk", "Third chunk"}
	for i, exp := range expected {
		if ctx.Replies[i] != exp {
			t.Errorf("reply %d: expected %q, got %q", i, exp, ctx.Replies[i])
		}
	}
}

func TestCompletionCommandErrorSurfaced(t *testing.T) {
	mockSys := mocktest.NewMockSystem()
	mockSys.LLM = &mocktest.MockLLM{
		Error: errors.New("stream died"),
	}

	ctx := mocktest.NewMockContext().
		WithSystem(mockSys).
		WithArgs("hello")

	cmd := &CompletionCommand{}
	cmd.Execute(ctx)

	if !ctx.HasReply("stream died") {
		t.Errorf("expected error surfaced as a reply, got: %v", ctx.Replies)
	}
}

func TestCompletionCommandRecordsTurns(t *testing.T) {
	mockSys := mocktest.NewMockSystem()
	mockSys.LLM = &mocktest.MockLLM{
		Responses: []string{"sure thing"},
	}

	ctx := mocktest.NewMockContext().
		WithSystem(mockSys).
		WithSource("alice").
		WithArgs("send", "hello")

	cmd := &CompletionCommand{}
	cmd.Execute(ctx)

	turns := ctx.GetStore().Turns()
	if len(turns) != 2 {
		t.Fatalf("expected user + assistant turns, got %d", len(turns))
	}
	if turns[0].Content != "(nick:alice) send hello" {
		t.Errorf("unexpected user turn content: %q", turns[0].Content)
	}
	if turns[1].Content != "sure thing" {
		t.Errorf("unexpected assistant turn content: %q", turns[1].Content)
	}
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewHelpCommand(registry))
	registry.Register(&VersionCommand{Version: "v0.1.0"})
	registry.Register(&ClearCommand{})
	registry.Register(&CompletionCommand{})

	mockSys := mocktest.NewMockSystem()
	mockSys.LLM = &mocktest.MockLLM{Responses: []string{"chat response"}}

	// Slash command routes to the named command
	ctx := mocktest.NewMockContext().WithSystem(mockSys).WithArgs("/version")
	if !registry.Dispatch(ctx) {
		t.Fatal("expected dispatch to succeed")
	}
	if ctx.LastReply() != "testbot v0.1.0" {
		t.Errorf("unexpected version reply: %q", ctx.LastReply())
	}

	// Everything else falls through to completion
	ctx = mocktest.NewMockContext().WithSystem(mockSys).WithArgs("what's", "up")
	if !registry.Dispatch(ctx) {
		t.Fatal("expected dispatch to fall through to completion")
	}
	if ctx.LastReply() != "chat response" {
		t.Errorf("unexpected fallback reply: %q", ctx.LastReply())
	}

	// Admin-only commands are refused for non-admins
	ctx = mocktest.NewMockContext().WithSystem(mockSys).WithArgs("/clear").WithAdmin(false)
	registry.Dispatch(ctx)
	if ctx.LastReply() != "You don't have permission to perform this action." {
		t.Errorf("expected permission refusal, got %q", ctx.LastReply())
	}

	// And allowed for admins
	ctx = mocktest.NewMockContext().WithSystem(mockSys).WithArgs("/clear").WithAdmin(true)
	registry.Dispatch(ctx)
	if ctx.LastReply() != "Conversation history cleared." {
		t.Errorf("expected clear confirmation, got %q", ctx.LastReply())
	}
}
