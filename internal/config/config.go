package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Configuration struct {
	Gateway *GatewayConfig
	Payment *PaymentConfig
	Server  *ServerConfig
	Bot     *BotConfig
	Model   *ModelConfig
	Session *SessionConfig
	API     *APIConfig
}

// GatewayConfig configures the payment-gated HTTP gateway.
type GatewayConfig struct {
	Listen  string
	Backend string
	URL     string
}

// PaymentConfig is the immutable payment policy shared by the gate and the
// paid-call client. Price is an opaque decimal string (e.g. "$0.01").
type PaymentConfig struct {
	Price       string
	PayTo       string
	Network     string
	ChainID     int
	Facilitator string
	Proof       string
}

type ServerConfig struct {
	Nick        string
	Server      string
	Port        int
	Channel     string
	SSL         bool
	TLSInsecure bool
	SASLNick    string
	SASLPass    string
}

type BotConfig struct {
	Admins          []string
	Verbose         bool
	Addressed       bool
	Prompt          string
	Greeting        string
	ShowToolActions bool
}

type ModelConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
	TopP        float32
	Thinking    bool
}

type SessionConfig struct {
	ChunkMax         int
	MaxHistoryTokens int
	TTL              time.Duration
}

type APIConfig struct {
	Timeout      time.Duration
	OpenAIKey    string
	OpenAIURL    string
	AnthropicKey string
	GeminiKey    string
	OllamaURL    string
	OllamaKey    string
}

// YamlSource implements cli.ValueSource for a map loaded from YAML
type YamlSource struct {
	data map[string]any
	key  string
}

func (y *YamlSource) Lookup() (string, bool) {
	if v, ok := y.data[y.key]; ok {
		// Handle slices by joining with comma
		if slice, ok := v.([]any); ok {
			var strs []string
			for _, item := range slice {
				strs = append(strs, fmt.Sprintf("%v", item))
			}
			return strings.Join(strs, ","), true
		}
		return fmt.Sprintf("%v", v), true
	}
	return "", false
}

func (y *YamlSource) String() string   { return "yaml" }
func (y *YamlSource) GoString() string { return "yaml" }

func GetFlags() []cli.Flag {
	// Pre-parse config path
	configPath := getConfigPath()
	var configData map[string]any
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			_ = yaml.Unmarshal(data, &configData)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config file %s: %v\n", configPath, err)
		}
	}

	// Helper to create sources: EnvVar > YAML > Default
	src := func(key string, env ...string) cli.ValueSourceChain {
		chain := cli.ValueSourceChain{}
		for _, e := range env {
			chain.Chain = append(chain.Chain, cli.EnvVar(e))
		}
		if configData != nil {
			chain.Chain = append(chain.Chain, &YamlSource{data: configData, key: key})
		}
		return chain
	}

	return []cli.Flag{
		// Config file
		&cli.StringFlag{Name: "config", Aliases: []string{"b"}, Usage: "use the named configuration file", Sources: cli.EnvVars("MESHGATE_CONFIG")},

		// Gateway Configuration
		&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Value: ":3000", Usage: "gateway listen address", Sources: src("listen", "MESHGATE_LISTEN")},
		&cli.StringFlag{Name: "backend", Value: "http://localhost:8000", Usage: "Meshtastic backend execution service URL", Sources: src("backend", "MESHGATE_BACKEND")},
		&cli.StringFlag{Name: "gatewayurl", Value: "http://localhost:3000", Usage: "gateway base URL used by the chat agent for paid calls", Sources: src("gatewayurl", "MESHGATE_GATEWAYURL")},

		// Payment Configuration
		&cli.StringFlag{Name: "price", Value: "$0.01", Usage: "price charged per broadcast", Sources: src("price", "MESHGATE_PRICE")},
		&cli.StringFlag{Name: "payto", Usage: "wallet address that receives payments", Sources: src("payto", "MESHGATE_PAYTO")},
		&cli.StringFlag{Name: "network", Value: "Monad", Usage: "payment network name", Sources: src("network", "MESHGATE_NETWORK")},
		&cli.IntFlag{Name: "chainid", Value: 10143, Usage: "payment network chain id", Sources: src("chainid", "MESHGATE_CHAINID")},
		&cli.StringFlag{Name: "facilitator", Usage: "facilitator service URL for payment verification and settlement", Sources: src("facilitator", "MESHGATE_FACILITATOR")},
		&cli.StringFlag{Name: "proof", Usage: "pre-provisioned payment proof token for the chat agent's paid calls", Sources: src("proof", "MESHGATE_PROOF")},

		// IRC Client Configuration
		&cli.StringFlag{Name: "nick", Aliases: []string{"n"}, Value: "meshgate", Usage: "bot's nickname on the irc server", Sources: src("nick", "MESHGATE_NICK")},
		&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Value: "localhost", Usage: "irc server address", Sources: src("server", "MESHGATE_SERVER")},
		&cli.BoolFlag{Name: "tls", Aliases: []string{"e"}, Usage: "enable TLS for the IRC connection", Sources: src("tls", "MESHGATE_TLS")},
		&cli.BoolFlag{Name: "tlsinsecure", Usage: "skip TLS certificate verification", Sources: src("tlsinsecure", "MESHGATE_TLSINSECURE")},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 6667, Usage: "irc server port", Sources: src("port", "MESHGATE_PORT")},
		&cli.StringFlag{Name: "channel", Aliases: []string{"c"}, Usage: "irc channel to join", Sources: src("channel", "MESHGATE_CHANNEL")},
		&cli.StringFlag{Name: "saslnick", Usage: "nick used for SASL", Sources: src("saslnick", "MESHGATE_SASLNICK")},
		&cli.StringFlag{Name: "saslpass", Usage: "password for SASL plain", Sources: src("saslpass", "MESHGATE_SASLPASS")},

		// Bot Configuration
		&cli.StringSliceFlag{Name: "admins", Aliases: []string{"A"}, Usage: "comma-separated list of allowed hostmasks to administrate the bot", Sources: src("admins", "MESHGATE_ADMINS")},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "enable verbose logging of sessions and configuration", Sources: src("verbose", "MESHGATE_VERBOSE")},
		&cli.BoolFlag{Name: "addressed", Aliases: []string{"a"}, Value: true, Usage: "require bot be addressed by nick for response", Sources: src("addressed", "MESHGATE_ADDRESSED")},
		&cli.BoolFlag{Name: "showtoolactions", Value: true, Usage: "show '[calling toolname]' actions when executing tools", Sources: src("showtoolactions", "MESHGATE_SHOWTOOLACTIONS")},
		&cli.StringFlag{Name: "greeting", Value: "introduce yourself and say what a broadcast costs.", Usage: "prompt to be used when the bot joins the channel", Sources: src("greeting", "MESHGATE_GREETING")},
		&cli.StringFlag{Name: "prompt", Usage: "override the generated system prompt", Sources: src("prompt", "MESHGATE_PROMPT")},

		// API Configuration
		&cli.StringFlag{Name: "openaikey", Usage: "OpenAI API key", Sources: src("openaikey", "MESHGATE_OPENAIKEY")},
		&cli.StringFlag{Name: "openaiurl", Usage: "OpenAI API URL (for custom endpoints)", Sources: src("openaiurl", "MESHGATE_OPENAIURL")},
		&cli.StringFlag{Name: "anthropickey", Usage: "Anthropic API key", Sources: src("anthropickey", "MESHGATE_ANTHROPICKEY")},
		&cli.StringFlag{Name: "geminikey", Usage: "Google Gemini API key", Sources: src("geminikey", "MESHGATE_GEMINIKEY")},
		&cli.StringFlag{Name: "ollamaurl", Value: "http://localhost:11434", Usage: "Ollama API URL", Sources: src("ollamaurl", "MESHGATE_OLLAMAURL")},
		&cli.StringFlag{Name: "ollamakey", Usage: "Ollama API key (Bearer token for authentication)", Sources: src("ollamakey", "MESHGATE_OLLAMAKEY")},
		&cli.IntFlag{Name: "maxtokens", Value: 4096, Usage: "maximum number of tokens to generate", Sources: src("maxtokens", "MESHGATE_MAXTOKENS")},
		&cli.StringFlag{Name: "model", Value: "anthropic/claude-sonnet-4-5", Usage: "model to be used for responses", Sources: src("model", "MESHGATE_MODEL")},
		&cli.DurationFlag{Name: "apitimeout", Aliases: []string{"t"}, Value: time.Minute * 5, Usage: "timeout for each completion request", Sources: src("apitimeout", "MESHGATE_APITIMEOUT")},
		&cli.FloatFlag{Name: "temperature", Value: 0.7, Usage: "temperature for the completion", Sources: src("temperature", "MESHGATE_TEMPERATURE")},
		&cli.FloatFlag{Name: "top_p", Value: 1.0, Usage: "top P value for the completion", Sources: src("top_p", "MESHGATE_TOP_P")},
		&cli.BoolFlag{Name: "thinking", Usage: "enable thinking/reasoning for models that support it", Sources: src("thinking", "MESHGATE_THINKING")},

		// Timeouts and Behavior
		&cli.DurationFlag{Name: "sessionduration", Aliases: []string{"S"}, Value: time.Minute * 10, Usage: "message context will be cleared after it is unused for this duration", Sources: src("sessionduration", "MESHGATE_SESSIONDURATION")},
		&cli.IntFlag{Name: "sessionhistory", Aliases: []string{"H"}, Value: 16384, Usage: "maximum number of history tokens to keep per session (0 for no limit)", Sources: src("sessionhistory", "MESHGATE_SESSIONHISTORY")},
		&cli.IntFlag{Name: "chunkmax", Aliases: []string{"m"}, Value: 350, Usage: "maximum number of characters to send as a single message", Sources: src("chunkmax", "MESHGATE_CHUNKMAX")},
	}
}

func getConfigPath() string {
	// Check env first
	if v := os.Getenv("MESHGATE_CONFIG"); v != "" {
		return v
	}
	// Check args
	for i, arg := range os.Args {
		if arg == "--config" || arg == "-b" {
			if i+1 < len(os.Args) {
				return os.Args[i+1]
			}
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

func NewConfiguration(c *cli.Command) *Configuration {
	if c.IsSet("config") {
		zap.S().Infow("Using config file", "path", c.String("config"))
	}

	config := &Configuration{
		Gateway: &GatewayConfig{
			Listen:  c.String("listen"),
			Backend: c.String("backend"),
			URL:     c.String("gatewayurl"),
		},
		Payment: &PaymentConfig{
			Price:       c.String("price"),
			PayTo:       c.String("payto"),
			Network:     c.String("network"),
			ChainID:     c.Int("chainid"),
			Facilitator: c.String("facilitator"),
			Proof:       c.String("proof"),
		},
		Server: &ServerConfig{
			Nick:        c.String("nick"),
			Server:      c.String("server"),
			Port:        c.Int("port"),
			Channel:     c.String("channel"),
			SSL:         c.Bool("tls"),
			TLSInsecure: c.Bool("tlsinsecure"),
			SASLNick:    c.String("saslnick"),
			SASLPass:    c.String("saslpass"),
		},
		Bot: &BotConfig{
			Admins:          c.StringSlice("admins"),
			Verbose:         c.Bool("verbose"),
			Addressed:       c.Bool("addressed"),
			Prompt:          c.String("prompt"),
			Greeting:        c.String("greeting"),
			ShowToolActions: c.Bool("showtoolactions"),
		},
		Model: &ModelConfig{
			Model:       c.String("model"),
			MaxTokens:   c.Int("maxtokens"),
			Temperature: float32(c.Float("temperature")),
			TopP:        float32(c.Float("top_p")),
			Thinking:    c.Bool("thinking"),
		},

		Session: &SessionConfig{
			ChunkMax:         c.Int("chunkmax"),
			MaxHistoryTokens: c.Int("sessionhistory"),
			TTL:              c.Duration("sessionduration"),
		},

		API: &APIConfig{
			Timeout:      c.Duration("apitimeout"),
			OpenAIKey:    c.String("openaikey"),
			OpenAIURL:    c.String("openaiurl"),
			AnthropicKey: c.String("anthropickey"),
			GeminiKey:    c.String("geminikey"),
			OllamaURL:    c.String("ollamaurl"),
			OllamaKey:    c.String("ollamakey"),
		},
	}

	return config
}

// VerifyGateway checks the settings the gateway cannot run without.
func (c *Configuration) VerifyGateway() error {
	if c.Payment.PayTo == "" {
		return fmt.Errorf("missing required setting: payto")
	}
	if c.Payment.Facilitator == "" {
		return fmt.Errorf("missing required setting: facilitator")
	}
	if c.Gateway.Backend == "" {
		return fmt.Errorf("missing required setting: backend")
	}
	return nil
}

// VerifyChat checks the settings the chat agent cannot run without.
func (c *Configuration) VerifyChat() error {
	if c.Server.Channel == "" {
		return fmt.Errorf("missing required setting: channel")
	}
	if c.Gateway.URL == "" {
		return fmt.Errorf("missing required setting: gatewayurl")
	}
	return nil
}

func (c *Configuration) PrintConfig() {
	fmt.Printf("listen: %s\n", c.Gateway.Listen)
	fmt.Printf("backend: %s\n", c.Gateway.Backend)
	fmt.Printf("gatewayurl: %s\n", c.Gateway.URL)
	fmt.Printf("price: %s\n", c.Payment.Price)
	fmt.Printf("payto: %s\n", c.Payment.PayTo)
	fmt.Printf("network: %s\n", c.Payment.Network)
	fmt.Printf("chainid: %d\n", c.Payment.ChainID)
	fmt.Printf("facilitator: %s\n", c.Payment.Facilitator)
	fmt.Printf("nick: %s\n", c.Server.Nick)
	fmt.Printf("server: %s\n", c.Server.Server)
	fmt.Printf("port: %d\n", c.Server.Port)
	fmt.Printf("channel: %s\n", c.Server.Channel)
	fmt.Printf("tls: %t\n", c.Server.SSL)
	fmt.Printf("admins: %v\n", c.Bot.Admins)
	fmt.Printf("verbose: %t\n", c.Bot.Verbose)
	fmt.Printf("addressed: %t\n", c.Bot.Addressed)
	fmt.Printf("chunkmax: %d\n", c.Session.ChunkMax)
	fmt.Printf("maxhistorytokens: %d\n", c.Session.MaxHistoryTokens)
	fmt.Printf("sessionduration: %s\n", c.Session.TTL)
	fmt.Printf("clienttimeout: %s\n", c.API.Timeout)
	fmt.Printf("maxtokens: %d\n", c.Model.MaxTokens)
	fmt.Printf("model: %s\n", c.Model.Model)
	fmt.Printf("temperature: %f\n", c.Model.Temperature)
	fmt.Printf("topp: %f\n", c.Model.TopP)
	fmt.Printf("thinking: %t\n", c.Model.Thinking)
	if len(c.API.AnthropicKey) > 3 {
		fmt.Printf("anthropickey: %s\n", strings.Repeat("*", len(c.API.AnthropicKey)-3)+c.API.AnthropicKey[len(c.API.AnthropicKey)-3:])
	} else {
		fmt.Printf("anthropickey: %s\n", c.API.AnthropicKey)
	}
	if len(c.API.OpenAIKey) > 3 {
		fmt.Printf("openaikey: %s\n", strings.Repeat("*", len(c.API.OpenAIKey)-3)+c.API.OpenAIKey[len(c.API.OpenAIKey)-3:])
	} else {
		fmt.Printf("openaikey: %s\n", c.API.OpenAIKey)
	}
	fmt.Printf("ollamaurl: %s\n", c.API.OllamaURL)
	fmt.Printf("greeting: %s\n", c.Bot.Greeting)
}
