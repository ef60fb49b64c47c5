package bot

import (
	"meshworks/meshgate/internal/core"
	"meshworks/meshgate/internal/llm"
)

// Greeting sends a greeting message when the bot joins a channel
func Greeting(ctx core.ChatContextInterface) {
	config := ctx.GetConfig()
	if config.Bot.Greeting == "" {
		return
	}

	outch, err := llm.Complete(ctx, config.Bot.Greeting)
	if err != nil {
		ctx.Reply(err.Error())
		return
	}

	for res := range outch {
		ctx.Reply(res)
	}
}
