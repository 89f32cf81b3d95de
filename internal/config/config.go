package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every tunable of the service.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Chat   ChatConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Chat: chat}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig holds the chat-model credentials and sampling knobs.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials were provided.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens == nil {
		// Generated turns should read like short chat messages.
		def := 50
		maxTokens = &def
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// ChatConfig fixes the matchmaking and session limits.
type ChatConfig struct {
	// SessionDuration is the wall-clock limit of one session.
	SessionDuration time.Duration
	// MaxMessages caps the aggregate message count of one session.
	MaxMessages int
	// AIFallbackWait is how long a lone human waits before a synthetic
	// partner is manufactured.
	AIFallbackWait time.Duration
	// MatchRetryInterval is the cadence of matchmaking retries for a
	// party still waiting in the queue.
	MatchRetryInterval time.Duration
	// ReplyDelayMin/Max bound the randomized delay before a synthetic
	// reply is delivered, imitating human typing latency.
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration
	// HistoryLimit bounds the per-session conversation history kept as
	// generation context.
	HistoryLimit int
	// DestroyGrace is how long an ended session stays resolvable so
	// in-flight notifications are not invalidated.
	DestroyGrace time.Duration
}

func loadChatConfig() (ChatConfig, error) {
	cfg := ChatConfig{
		SessionDuration:    2 * time.Minute,
		MaxMessages:        12,
		AIFallbackWait:     3 * time.Second,
		MatchRetryInterval: 3 * time.Second,
		ReplyDelayMin:      800 * time.Millisecond,
		ReplyDelayMax:      2 * time.Second,
		HistoryLimit:       6,
		DestroyGrace:       time.Second,
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CHAT_MAX_DURATION", &cfg.SessionDuration},
		{"MATCH_AI_FALLBACK_WAIT", &cfg.AIFallbackWait},
		{"MATCH_RETRY_INTERVAL", &cfg.MatchRetryInterval},
		{"AI_REPLY_DELAY_MIN", &cfg.ReplyDelayMin},
		{"AI_REPLY_DELAY_MAX", &cfg.ReplyDelayMax},
		{"CHAT_DESTROY_GRACE", &cfg.DestroyGrace},
	}
	for _, d := range durations {
		if err := parseDurationEnv(d.key, d.dst); err != nil {
			return ChatConfig{}, err
		}
	}

	if v, err := parseOptionalIntEnv("CHAT_MAX_MESSAGES"); err != nil {
		return ChatConfig{}, err
	} else if v != nil {
		if *v < 1 {
			return ChatConfig{}, fmt.Errorf("CHAT_MAX_MESSAGES must be positive, got %d", *v)
		}
		cfg.MaxMessages = *v
	}

	if v, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return ChatConfig{}, err
	} else if v != nil {
		if *v < 1 {
			return ChatConfig{}, fmt.Errorf("AI_HISTORY_LIMIT must be positive, got %d", *v)
		}
		cfg.HistoryLimit = *v
	}

	if cfg.ReplyDelayMax < cfg.ReplyDelayMin {
		return ChatConfig{}, fmt.Errorf("AI_REPLY_DELAY_MAX %s is below AI_REPLY_DELAY_MIN %s", cfg.ReplyDelayMax, cfg.ReplyDelayMin)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationEnv(key string, dst *time.Duration) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	*dst = val
	return nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
