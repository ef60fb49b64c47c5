package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexschlessinger/pollytool/llm"
	"github.com/alexschlessinger/pollytool/messages"
	"github.com/alexschlessinger/pollytool/tools"

	"meshworks/meshgate/internal/core"
)

// DefaultAcknowledgement stands in for an assistant turn that produced no
// visible text, which happens when the model replies with nothing but a
// tool call.
const DefaultAcknowledgement = "I've processed your request. The message should be sent over the Meshtastic network."

// StreamHandler consumes one model event stream, mirroring content into
// the conversation store and emitting display-sized chunks. Tool calls are
// executed synchronously, one at a time, between stream rounds.
type StreamHandler struct {
	ctx             core.ChatContextInterface
	out             chan<- string
	chunkBuffer     *bytes.Buffer
	maxChunkSize    int
	registry        *tools.ToolRegistry
	client          llm.LLM
	streamProcessor llm.EventStreamProcessor
	originalModel   string
	response        messages.ChatMessage
}

func NewStreamHandler(
	ctx core.ChatContextInterface,
	out chan<- string,
	maxChunkSize int,
	registry *tools.ToolRegistry,
	client llm.LLM,
	streamProcessor llm.EventStreamProcessor,
) *StreamHandler {
	return &StreamHandler{
		ctx:             ctx,
		out:             out,
		chunkBuffer:     &bytes.Buffer{},
		maxChunkSize:    maxChunkSize,
		registry:        registry,
		client:          client,
		streamProcessor: streamProcessor,
	}
}

func (h *StreamHandler) OnReasoning(content string, totalLength int) {
	h.ctx.GetLogger().Debugf("Reasoning update: %q", content)
}

// OnContent mirrors each delta into the in-flight assistant turn and
// feeds it through the chunker.
func (h *StreamHandler) OnContent(content string, firstChunk bool) {
	h.ctx.GetLogger().Debugf("Received content chunk: %q", content)
	h.ctx.GetStore().AppendActive(content)
	h.processContent(content)
}

func (h *StreamHandler) OnToolCall(toolCall messages.ChatMessageToolCall) {
	h.ctx.GetLogger().Debugf("Received tool call: %s (ID: %s)", toolCall.Name, toolCall.ID)
}

// OnComplete records the assistant message into the model history. Tool
// execution is deferred to HandleToolContinuation, which the owner of this
// handler drives after the stream drains.
func (h *StreamHandler) OnComplete(message *messages.ChatMessage) {
	if message == nil {
		return
	}

	h.ctx.GetStore().AddMessage(*message)

	if message.Content != "" && len(message.ToolCalls) == 0 {
		h.FlushBuffer()
	}

	h.response = *message
	h.ctx.GetLogger().Debugf("Message complete (Role: %s, ContentLen: %d, ToolCalls: %d)",
		message.Role, len(message.Content), len(message.ToolCalls))
}

// OnError surfaces a stream failure as assistant-visible text so the
// conversation ends in a readable state instead of dying silently.
func (h *StreamHandler) OnError(err error) {
	if err == nil {
		return
	}
	h.ctx.GetLogger().Warnf("Stream error: %v", err)
	errMsg := fmt.Sprintf("Error: %v", err)
	h.ctx.GetStore().AppendActive(errMsg)
	h.processContent(errMsg)
}

// GetResponse returns the accumulated response message
func (h *StreamHandler) GetResponse() messages.ChatMessage {
	return h.response
}

// HandleToolContinuation executes the pending tool calls and resumes the
// conversation with their results. Execution is strictly sequential; the
// model sees every result before it can request another call.
func (h *StreamHandler) HandleToolContinuation(ctx context.Context, req *llm.CompletionRequest) {
	if len(h.response.ToolCalls) == 0 {
		return
	}

	store := h.ctx.GetStore()

	for _, toolCall := range h.response.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(toolCall.Arguments), &args); err != nil {
			h.ctx.GetLogger().Errorf("Failed to parse tool arguments: %v", err)
			store.AddMessage(messages.ChatMessage{
				Role:       messages.MessageRoleTool,
				Content:    fmt.Sprintf("Error parsing arguments: %v", err),
				ToolCallID: toolCall.ID,
			})
			continue
		}

		toolLogger := core.WithTool(h.ctx.GetLogger(), toolCall.Name, args)

		tool, exists := h.registry.Get(toolCall.Name)
		if !exists {
			h.ctx.GetLogger().Warnf("Tool not found: %s", toolCall.Name)
			store.AddMessage(messages.ChatMessage{
				Role:       messages.MessageRoleTool,
				Content:    fmt.Sprintf("Tool not found: %s", toolCall.Name),
				ToolCallID: toolCall.ID,
			})
			continue
		}

		if h.ctx.GetConfig().Bot.ShowToolActions {
			h.ctx.Action(fmt.Sprintf("calling %s", toolCall.Name))
		}

		idx := store.RecordInvocation(toolCall.Name, args)

		startTime := time.Now()
		toolLogger.Info("Executing tool")
		result, err := tool.Execute(ctx, args)
		duration := time.Since(startTime)

		if err != nil {
			result = fmt.Sprintf("Error: %v", err)
			toolLogger.With(
				"duration_ms", duration.Milliseconds(),
				"error", err.Error(),
			).Error("Tool execution failed")
		} else {
			outputPreview := result
			if len(outputPreview) > 200 && !h.ctx.GetConfig().Bot.Verbose {
				outputPreview = outputPreview[:200] + "..."
			}
			toolLogger.With(
				"duration_ms", duration.Milliseconds(),
				"result_size", len(result),
			).Infof("Tool execution completed: %s", outputPreview)
		}

		store.CompleteInvocation(idx, result)
		store.AddMessage(messages.ChatMessage{
			Role:       messages.MessageRoleTool,
			Content:    result,
			ToolCallID: toolCall.ID,
		})
	}

	// Continue the conversation with the tool results
	req.Messages = store.History()
	// Restore the original model name (MultiPass strips the provider prefix)
	req.Model = h.originalModel

	continuation := NewStreamHandler(h.ctx, h.out, h.maxChunkSize, h.registry, h.client, h.streamProcessor)
	continuation.originalModel = h.originalModel

	eventChan := h.client.ChatCompletionStream(ctx, req, h.streamProcessor)
	response := messages.ProcessEventStream(ctx, eventChan, continuation)

	if len(response.ToolCalls) > 0 {
		continuation.HandleToolContinuation(ctx, req)
	} else {
		continuation.FlushBuffer()
	}
}

// SetRequest stores the request for tool continuation
func (h *StreamHandler) SetRequest(req *llm.CompletionRequest) {
	h.originalModel = req.Model
}

// processContent emits complete lines immediately and splits oversized
// remainders on a space boundary.
func (h *StreamHandler) processContent(content string) {
	h.chunkBuffer.WriteString(content)

	for {
		line, err := h.chunkBuffer.ReadString('\n')
		if err != nil {
			// No more complete lines, put back what we read
			if line != "" {
				h.chunkBuffer.WriteString(line)
			}
			break
		}
		if line = line[:len(line)-1]; line != "" {
			h.out <- line
		}
	}

	for h.chunkBuffer.Len() >= h.maxChunkSize {
		chunk := h.extractBestSplitChunk()
		if chunk == "" {
			break
		}
		h.out <- chunk
	}
}

// extractBestSplitChunk takes at most maxChunkSize bytes from the buffer,
// preferring to break on the last space it can find.
func (h *StreamHandler) extractBestSplitChunk() string {
	if h.chunkBuffer.Len() == 0 {
		return ""
	}

	data := h.chunkBuffer.Bytes()
	end := min(h.maxChunkSize, len(data))

	if idx := bytes.LastIndexByte(data[:end], ' '); idx > 0 {
		chunk := string(data[:idx])
		h.chunkBuffer.Next(idx + 1) // Skip the space itself
		return chunk
	}

	chunk := string(data[:end])
	h.chunkBuffer.Next(end)
	return chunk
}

// FlushBuffer sends any remaining content in the buffer, splitting it the
// same way as streamed content so no chunk exceeds the limit.
func (h *StreamHandler) FlushBuffer() {
	for h.chunkBuffer.Len() > h.maxChunkSize {
		chunk := h.extractBestSplitChunk()
		if chunk == "" {
			break
		}
		h.out <- chunk
	}
	if h.chunkBuffer.Len() > 0 {
		h.out <- h.chunkBuffer.String()
		h.chunkBuffer.Reset()
	}
}
