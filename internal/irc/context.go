package irc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"

	"github.com/lrstanley/girc"

	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/conversation"
	"meshworks/meshgate/internal/core"
)

// ChatContext carries one IRC event through a chat turn. It implements
// core.ChatContextInterface so the llm and commands packages stay
// transport-agnostic.
type ChatContext struct {
	context.Context
	Sys       core.System
	Store     *conversation.Store
	Config    *config.Configuration
	client    *girc.Client
	event     *girc.Event
	args      []string
	logger    *zap.SugaredLogger
	requestID string
}

var _ core.ChatContextInterface = (*ChatContext)(nil)

func NewChatContext(parentctx context.Context, config *config.Configuration, system core.System, ircclient *girc.Client, e *girc.Event) (core.ChatContextInterface, context.CancelFunc) {
	timedctx, cancel := context.WithTimeout(parentctx, config.API.Timeout)

	// Unique request ID for log correlation
	requestID := generateRequestID()

	ctx := &ChatContext{
		Context:   timedctx,
		Config:    config,
		Sys:       system,
		client:    ircclient,
		event:     e,
		args:      strings.Fields(e.Last()),
		requestID: requestID,
		logger: zap.S().With(
			"request_id", requestID,
			"channel", e.Params[0],
			"source", e.Source.Name,
		),
	}

	if ctx.IsAddressed() {
		ctx.args = ctx.args[1:]
	}

	if e.Source == nil {
		e.Source = &girc.Source{
			Name: config.Server.Channel,
		}
	}

	key := e.Params[0]
	if !girc.IsValidChannel(key) {
		key = e.Source.Name
	}

	store, err := system.GetConversations().Get(key)
	if err != nil {
		zap.S().Fatalw("Failed to get conversation for key", "key", key, "error", err)
	}
	ctx.Store = store
	return ctx, cancel
}

func (c *ChatContext) GetSystem() core.System {
	return c.Sys
}

func (c *ChatContext) GetConfig() *config.Configuration {
	return c.Config
}

func (c *ChatContext) GetLogger() *zap.SugaredLogger {
	return c.logger
}

func (c *ChatContext) GetStore() *conversation.Store {
	return c.Store
}

func (c *ChatContext) IsAddressed() bool {
	return CheckAddressed(c.event.Last(), c.client.GetNick())
}

func (c *ChatContext) GetArgs() []string {
	return c.args
}

func (c *ChatContext) GetSource() string {
	return c.event.Source.Name
}

func (c *ChatContext) IsAdmin() bool {
	hostmask := c.event.Source.String()
	c.logger.Debugw("Checking hostmask", "hostmask", hostmask)
	// XXX: if no admins are configured, all hostmasks are admins
	return CheckAdmin(hostmask, c.Config.Bot.Admins)
}

func (c *ChatContext) Reply(message string) {
	c.client.Cmd.Reply(*c.event, message)
}

func (c *ChatContext) Action(message string) {
	target := c.event.Params[0]
	if !girc.IsValidChannel(target) {
		// For PMs, send a regular message instead of an action
		c.client.Cmd.Message(c.event.Source.Name, message)
		return
	}
	c.client.Cmd.Action(target, message)
}

// Valid checks if the message should be processed at all
func (c *ChatContext) Valid() bool {
	return CheckValid(c.IsAddressed(), c.Config.Bot.Addressed, c.IsPrivate(), len(c.args))
}

func (c *ChatContext) IsPrivate() bool {
	return CheckPrivate(c.event.Params[0])
}

func (c *ChatContext) GetCommand() string {
	return strings.ToLower(c.args[0])
}

// generateRequestID creates a unique 8-character request ID for correlation
func generateRequestID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
