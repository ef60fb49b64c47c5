package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/alexschlessinger/pollytool/tools"
	"github.com/google/jsonschema-go/jsonschema"

	"meshworks/meshgate/internal/core"
	"meshworks/meshgate/internal/payment"
)

// MaxMessageLength is the longest text a single mesh packet will carry.
const MaxMessageLength = 100

const ToolName = "broadcast_meshtastic_message"

type broadcastRequest struct {
	Message       string  `json:"message"`
	DestinationID *string `json:"destinationId"`
}

type broadcastResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// BroadcastTool sends a message over the mesh through the payment-gated
// gateway. Validation failures and transport errors are reported back to
// the model as a JSON result rather than an execution error, so the
// conversation can continue and the model can correct itself.
type BroadcastTool struct {
	client *payment.Client
}

func NewBroadcastTool(client *payment.Client) *BroadcastTool {
	return &BroadcastTool{client: client}
}

func (t *BroadcastTool) GetName() string {
	return ToolName
}

func (t *BroadcastTool) SetContext(ctx any) {}
func (t *BroadcastTool) GetType() string    { return "native" }
func (t *BroadcastTool) GetSource() string  { return "builtin" }

func (t *BroadcastTool) GetSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Title:       ToolName,
		Description: "Broadcasts a message over the Meshtastic network using x402 payments. The message will be sent to all nodes in the mesh network unless a specific destination ID is provided. Each broadcast costs $0.01. IMPORTANT: Message must be 100 characters or less.",
		Type:        "object",
		Properties: map[string]*jsonschema.Schema{
			"message": {
				Type:        "string",
				Description: "The message text to broadcast over the Meshtastic network (max 100 characters)",
			},
			"destinationId": {
				Type:        "string",
				Description: "Optional destination node ID (e.g., '!12345678'). Leave null or omit for broadcast to all nodes",
			},
		},
		Required: []string{"message"},
	}
}

// Execute validates, pays, and broadcasts. It always returns a JSON
// document and a nil error; the model reads the outcome from the
// success field.
func (t *BroadcastTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	message, _ := args["message"].(string)
	message = strings.TrimSpace(message)

	if message == "" {
		return result(broadcastResult{
			Success: false,
			Error:   "Message cannot be empty",
		}), nil
	}

	if n := utf8.RuneCountInString(message); n > MaxMessageLength {
		return result(broadcastResult{
			Success: false,
			Error: fmt.Sprintf("Message is too long (%d characters). Maximum length is %d characters. Please shorten your message.",
				n, MaxMessageLength),
		}), nil
	}

	req := broadcastRequest{Message: message}
	if dest, ok := args["destinationId"].(string); ok && dest != "" {
		req.DestinationID = &dest
	}

	core.GetLogger().Infow("broadcasting message",
		"length", utf8.RuneCountInString(message),
		"destination", req.DestinationID)

	resp, err := t.client.Post(ctx, "/broadcast", req)
	if err != nil {
		core.GetLogger().Errorw("broadcast failed", "error", err)
		return result(broadcastResult{
			Success: false,
			Error:   err.Error(),
		}), nil
	}

	if resp.Status < http.StatusOK || resp.Status >= http.StatusMultipleChoices {
		core.GetLogger().Warnw("broadcast rejected", "status", resp.Status)
		return result(broadcastResult{
			Success: false,
			Error:   fmt.Sprintf("broadcast rejected with status %d: %s", resp.Status, strings.TrimSpace(string(resp.Body))),
		}), nil
	}

	var data any
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		data = string(resp.Body)
	}

	return result(broadcastResult{
		Success: true,
		Message: "Message broadcasted successfully",
		Data:    data,
	}), nil
}

func result(r broadcastResult) string {
	out, _ := json.Marshal(r)
	return string(out)
}

// Register makes the broadcast tool available to the model. The native
// factory alone only records how to build the tool; loading it by name
// instantiates it into the registry's active set.
func Register(registry *tools.ToolRegistry, client *payment.Client) error {
	registry.RegisterNative(ToolName, func() tools.Tool {
		return NewBroadcastTool(client)
	})
	if _, err := registry.LoadToolAuto(ToolName); err != nil {
		return err
	}
	return nil
}
