package bot

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/girc"
	"go.uber.org/zap"

	"meshworks/meshgate/internal/commands"
	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/core"
	"meshworks/meshgate/internal/irc"
)

// Version is the release tag, stamped at build time.
var Version = "0.1.0"

// Run starts the IRC chat frontend with the given configuration
func Run(ctx context.Context, cfg *config.Configuration) error {
	sys := NewSystem(cfg)

	cmdRegistry := commands.NewRegistry()
	cmdRegistry.Register(commands.NewHelpCommand(cmdRegistry))
	cmdRegistry.Register(&commands.VersionCommand{Version: "v" + Version})
	cmdRegistry.Register(&commands.ClearCommand{})
	cmdRegistry.Register(&commands.CompletionCommand{})

	ircClient := girc.New(girc.Config{
		Server:    cfg.Server.Server,
		Port:      cfg.Server.Port,
		Nick:      cfg.Server.Nick,
		User:      "meshgate",
		Name:      "meshgate",
		SSL:       cfg.Server.SSL,
		TLSConfig: &tls.Config{InsecureSkipVerify: cfg.Server.TLSInsecure},
	})

	if cfg.Server.SASLNick != "" && cfg.Server.SASLPass != "" {
		ircClient.Config.SASL = &girc.SASLPlain{
			User: cfg.Server.SASLNick,
			Pass: cfg.Server.SASLPass,
		}
	}

	go func() {
		<-ctx.Done()
		ircClient.Quit("Shutting down...")
		zap.S().Info("IRC client closed")
	}()

	ircClient.Handlers.AddBg(girc.CONNECTED, func(client *girc.Client, e girc.Event) {
		zap.S().Infof("Joining channel: %s", cfg.Server.Channel)
		client.Cmd.Join(cfg.Server.Channel)
	})

	ircClient.Handlers.AddBg(girc.JOIN, func(client *girc.Client, e girc.Event) {
		if e.Source.Name == cfg.Server.Nick {
			ctx, cancel := irc.NewChatContext(ctx, cfg, sys, client, &e)
			defer cancel()
			Greeting(ctx)
		}
	})

	ircClient.Handlers.AddBg(girc.PRIVMSG, func(client *girc.Client, e girc.Event) {
		ctx, cancel := irc.NewChatContext(ctx, cfg, sys, client, &e)
		defer cancel()

		if !ctx.Valid() {
			return
		}

		// One completion at a time per channel; a second request waits
		// until the in-flight one finishes or the context times out.
		channelKey := e.Params[0]
		if !girc.IsValidChannel(channelKey) {
			channelKey = e.Source.Name
		}
		lock := core.GetRequestLock(channelKey)

		ctx.GetLogger().Debugf("Acquiring lock for channel '%s'", channelKey)
		if !lock.LockWithContext(ctx) {
			ctx.GetLogger().Warnf("Failed to acquire lock for channel '%s' (timeout)", channelKey)
			ctx.Reply("Request timed out waiting for previous operation to complete")
			return
		}
		defer func() {
			ctx.GetLogger().Debugf("Releasing lock for channel '%s'", channelKey)
			lock.Unlock()
		}()

		ctx.GetLogger().Infof(">> %s", strings.Join(e.Params[1:], " "))
		cmdRegistry.Dispatch(ctx)
	})

	// Reconnect loop
	const maxRetries = 5
	for i := range maxRetries {
		if ctx.Err() != nil {
			return nil
		}

		zap.S().Infow("Connecting to server",
			"server", ircClient.Config.Server,
			"port", ircClient.Config.Port,
			"tls", ircClient.Config.SSL,
			"sasl", ircClient.Config.SASL != nil,
		)

		if err := ircClient.Connect(); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			zap.S().Errorw("Connection failed", "error", err)
			zap.S().Infof("Reconnecting in 5 seconds (attempt %d/%d)", i+1, maxRetries)

			select {
			case <-time.After(5 * time.Second):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	}

	return fmt.Errorf("failed to connect after %d attempts", maxRetries)
}
