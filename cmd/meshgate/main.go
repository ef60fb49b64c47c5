package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"meshworks/meshgate/internal/bot"
	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/core"
	"meshworks/meshgate/internal/gateway"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    "meshgate",
		Usage:   "payment-gated Meshtastic broadcast gateway and chat agent",
		Version: bot.Version,
		Flags:   config.GetFlags(),
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the x402 payment gateway in front of the Meshtastic backend",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := config.NewConfiguration(c)
					core.InitLogger(cfg.Bot.Verbose)
					defer zap.L().Sync()

					if err := cfg.VerifyGateway(); err != nil {
						return err
					}
					if cfg.Bot.Verbose {
						cfg.PrintConfig()
					}
					return gateway.Run(ctx, cfg)
				},
			},
			{
				Name:  "chat",
				Usage: "run the IRC chat agent that broadcasts through the gateway",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := config.NewConfiguration(c)
					core.InitLogger(cfg.Bot.Verbose)
					defer zap.L().Sync()

					if err := cfg.VerifyChat(); err != nil {
						return err
					}
					fmt.Print(bot.GetBanner(bot.Version))
					if cfg.Bot.Verbose {
						cfg.PrintConfig()
					}
					return bot.Run(ctx, cfg)
				},
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
