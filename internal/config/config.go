package config

import (
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Mode          string
	BaseURL       string
	APIKey        string
	APISecret     string
	RealtimeURL   string
	LogLevel      string
	MCPAddress    string
	RoomsLimit    int
	MessagesLimit int
}

func Load() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Mode, "mode", "interactive", "Run mode: interactive, headless, or mcp")
	flag.StringVar(&cfg.BaseURL, "url", getEnv("COMMCHAT_URL", "http://localhost:8000"), "Host ERP base URL")
	flag.StringVar(&cfg.APIKey, "api-key", getEnv("COMMCHAT_API_KEY", ""), "API key for token auth")
	flag.StringVar(&cfg.APISecret, "api-secret", getEnv("COMMCHAT_API_SECRET", ""), "API secret for token auth")
	flag.StringVar(&cfg.RealtimeURL, "realtime-url", getEnv("COMMCHAT_REALTIME_URL", ""), "Realtime websocket URL (defaults to <url>/ws)")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("COMMCHAT_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.MCPAddress, "mcp-port", getEnv("COMMCHAT_MCP_ADDRESS", "127.0.0.1:8080"), "MCP SSE server address")
	flag.IntVar(&cfg.RoomsLimit, "rooms-limit", getEnvInt("COMMCHAT_ROOMS_LIMIT", 20), "Rooms per page")
	flag.IntVar(&cfg.MessagesLimit, "messages-limit", getEnvInt("COMMCHAT_MESSAGES_LIMIT", 50), "Messages per page")

	flag.Parse()

	if cfg.RealtimeURL == "" {
		cfg.RealtimeURL = cfg.BaseURL + "/ws"
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
