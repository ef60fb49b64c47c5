package bot

import (
	"fmt"
	"strings"

	"github.com/alexschlessinger/pollytool/sessions"
	"github.com/alexschlessinger/pollytool/tools"
	"go.uber.org/zap"

	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/conversation"
	"meshworks/meshgate/internal/core"
	"meshworks/meshgate/internal/llm"
	"meshworks/meshgate/internal/mesh"
	"meshworks/meshgate/internal/payment"
)

func NewSystem(c *config.Configuration) core.System {
	s := core.SystemImpl{}
	s.Tools = tools.NewToolRegistry([]tools.Tool{})

	// The broadcast tool pays its own way through the gateway
	signer := &payment.StaticSigner{Proof: c.Payment.Proof}
	payClient := payment.NewClient(c.Gateway.URL, signer, zap.S())
	if err := mesh.Register(s.Tools, payClient); err != nil {
		zap.S().Fatalw("Failed to load broadcast tool", "error", err)
	}

	zap.S().Infow("Loaded tools", "count", len(s.Tools.All()))

	prompt := c.Bot.Prompt
	if prompt == "" {
		prompt = systemPrompt(c)
	}

	zap.S().Info("Initialized session store: syncmap")
	s.Conversations = conversation.NewMap(sessions.NewSyncMapSessionStore(&sessions.Metadata{
		MaxHistoryTokens: c.Session.MaxHistoryTokens,
		TTL:              c.Session.TTL,
		SystemPrompt:     prompt,
	}))

	s.LLM = llm.NewPollyLLM(c.API)

	return &s
}

// systemPrompt builds the default agent instructions from the live
// gateway settings so the model always states the real price and limit.
func systemPrompt(c *config.Configuration) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant that helps users broadcast messages over the Meshtastic network.\n\n")
	b.WriteString("Key Information:\n")
	fmt.Fprintf(&b, "- The broadcast endpoint is: %s/broadcast\n", strings.TrimSuffix(c.Gateway.URL, "/"))
	fmt.Fprintf(&b, "- Each broadcast costs %s (paid automatically via x402)\n", c.Payment.Price)
	b.WriteString("- Messages are broadcast to all nodes in the mesh network by default\n")
	b.WriteString("- Users can optionally specify a destination node ID for targeted messages\n\n")
	b.WriteString("Instructions:\n")
	b.WriteString("1. When a user wants to send a message, use the broadcast_meshtastic_message tool\n")
	fmt.Fprintf(&b, "2. IMPORTANT: Messages must be %d characters or less. If the user's message exceeds %d characters, you must shorten it or ask them to provide a shorter message\n",
		mesh.MaxMessageLength, mesh.MaxMessageLength)
	b.WriteString("3. Always confirm when messages are sent successfully\n")
	b.WriteString("4. If there's an error, explain it clearly to the user\n")
	b.WriteString("5. Be friendly, helpful, and concise\n")
	b.WriteString("6. If the user doesn't specify a destination, use null for destinationId to broadcast to all nodes\n\n")
	b.WriteString("Remember: The payment is handled automatically, so you don't need to worry about payment details. Just use the tool when the user wants to send a message.")
	return b.String()
}
