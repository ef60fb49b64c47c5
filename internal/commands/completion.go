package commands

import (
	"fmt"
	"strings"

	"meshworks/meshgate/internal/core"
	"meshworks/meshgate/internal/llm"
)

// CompletionCommand is the default fallback: anything that isn't a slash
// command becomes a chat turn for the model.
type CompletionCommand struct{}

func (c *CompletionCommand) Name() string    { return "" }
func (c *CompletionCommand) AdminOnly() bool { return false }

func (c *CompletionCommand) Execute(ctx core.ChatContextInterface) {
	msg := strings.Join(ctx.GetArgs(), " ")

	outch, err := llm.Complete(ctx, fmt.Sprintf("(nick:%s) %s", ctx.GetSource(), msg))

	if err != nil {
		ctx.GetLogger().Errorw("Completion response error", "error", err)
		ctx.Reply(err.Error())
		return
	}

	for res := range outch {
		ctx.Reply(res)
	}
}
