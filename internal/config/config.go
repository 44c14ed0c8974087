package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type ServerConfig struct {
	Port string
}

type RESTConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SecurityConfig struct {
	JWTSecret    string
	JWTPublicKey string
}

type LoggingConfig struct {
	Level     string
	Format    string
	Directory string
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
}

type WebsocketConfig struct {
	SendBuffer     int
	AllowedActions []string
}

type EditorConfig struct {
	// OverlapPolicy is "allow" or "reject"; same-day ranges may overlap under allow.
	OverlapPolicy string
}

type Config struct {
	Server    ServerConfig
	REST      RESTConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Kafka     KafkaConfig
	Websocket WebsocketConfig
	Editor    EditorConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8081"),
		},
		REST: RESTConfig{
			BaseURL: getEnv("REST_BASE_URL", "http://localhost:3000"),
		},
		Security: SecurityConfig{
			JWTSecret:    os.Getenv("JWT_SECRET"),
			JWTPublicKey: os.Getenv("JWT_PUBLIC_KEY"),
		},
		Logging: LoggingConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			Format:    getEnv("LOG_FORMAT", "text"),
			Directory: getEnv("LOG_DIR", "./logs"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(firstNonEmpty(os.Getenv("KAFKA_BROKERS"), os.Getenv("KAFKA_BROKER"))),
			GroupID: getEnv("KAFKA_GROUP_ID", "mesa-ya-availability"),
			Topics: splitList(getEnv("KAFKA_TOPICS",
				"mesa-ya.availability.updated,mesa-ya.availability.deleted")),
		},
		Websocket: WebsocketConfig{
			AllowedActions: splitList(getEnv("WS_ALLOWED_ACTIONS", "snapshot,updated,deleted")),
		},
		Editor: EditorConfig{
			OverlapPolicy: getEnv("AVAILABILITY_OVERLAP_POLICY", "allow"),
		},
	}

	timeout, err := parseDuration(getEnv("REST_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("REST_TIMEOUT: %w", err)
	}
	cfg.REST.Timeout = timeout

	buffer, err := parseInt(getEnv("WS_SEND_BUFFER", "16"))
	if err != nil {
		return nil, fmt.Errorf("WS_SEND_BUFFER: %w", err)
	}
	cfg.Websocket.SendBuffer = buffer

	if cfg.Security.JWTSecret == "" && cfg.Security.JWTPublicKey == "" {
		return nil, fmt.Errorf("security: neither JWT_SECRET nor JWT_PUBLIC_KEY is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func parseInt(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	return n, nil
}
