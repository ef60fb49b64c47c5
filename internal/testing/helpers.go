package testing

import (
	"time"

	"meshworks/meshgate/internal/config"
)

// DefaultTestConfig returns a minimal configuration for testing
func DefaultTestConfig() *config.Configuration {
	return &config.Configuration{
		Gateway: &config.GatewayConfig{
			Listen:  ":3000",
			Backend: "http://localhost:8000",
			URL:     "http://localhost:3000",
		},
		Payment: &config.PaymentConfig{
			Price:       "$0.01",
			PayTo:       "0x1111111111111111111111111111111111111111",
			Network:     "Monad",
			ChainID:     10143,
			Facilitator: "http://localhost:4021",
			Proof:       "test-proof",
		},
		Server: &config.ServerConfig{
			Nick:    "testbot",
			Server:  "irc.test.local",
			Port:    6667,
			Channel: "#test",
			SSL:     false,
		},
		Bot: &config.BotConfig{
			Admins:          []string{},
			Verbose:         false,
			Addressed:       true,
			Prompt:          "You are a test bot.",
			Greeting:        "hello",
			ShowToolActions: false,
		},
		Model: &config.ModelConfig{
			Model:       "test/model",
			MaxTokens:   100,
			Temperature: 0.7,
			TopP:        1.0,
			Thinking:    false,
		},
		Session: &config.SessionConfig{
			ChunkMax:         350,
			MaxHistoryTokens: 0,
			TTL:              time.Minute * 10,
		},
		API: &config.APIConfig{
			Timeout: time.Second * 30,
		},
	}
}
