package commands

import (
	"meshworks/meshgate/internal/core"
)

// ClearCommand handles the /clear command, wiping the channel's
// conversation history and turn log.
type ClearCommand struct{}

func (c *ClearCommand) Name() string    { return "/clear" }
func (c *ClearCommand) AdminOnly() bool { return true }

func (c *ClearCommand) Execute(ctx core.ChatContextInterface) {
	ctx.GetStore().Clear()
	ctx.GetLogger().Info("Conversation cleared")
	ctx.Reply("Conversation history cleared.")
}
