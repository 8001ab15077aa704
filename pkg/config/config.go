package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	UploadDir   string

	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	// LLM
	LLMProvider        string // openrouter | gemini
	OpenRouterAPIKey   string
	OpenRouterBase     string
	OpenRouterModel    string
	OpenRouterAppTitle string
	OpenRouterReferer  string
	GeminiAPIKey       string
	GeminiModel        string

	// Лимиты шагов пайплайна
	ExtractTimeout     time.Duration
	ParseTimeout       time.Duration
	AnalysisTimeout    time.Duration
	OptimizeTimeout    time.Duration
	MetricsTimeout     time.Duration
	CoverLetterTimeout time.Duration
	JobFetchTimeout    time.Duration

	HeartbeatInterval time.Duration
	StreamMaxLifetime time.Duration

	VersionLedger string // postgres | redis | memory

	ChromePath string

	TelegramBotToken string
	TelegramChatID   int64

	SnapshotRetention time.Duration
	RetentionSchedule string
}

// Load reads configuration from an optional YAML file, .env and the process environment.
// Environment wins over the file; the file wins over built-in defaults.
func Load() Config {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	src := source{file: readFile(getenvRaw("CONFIG_FILE", "config.yaml"))}

	cfg := Config{
		Port:        src.str("PORT", "8080"),
		DatabaseURL: src.str("DATABASE_URL", ""),
		RedisURL:    src.str("REDIS_URL", ""),
		LogLevel:    src.str("LOG_LEVEL", "info"),
		UploadDir:   src.str("UPLOAD_DIR", "uploads"),

		JWTSecret:     src.str("JWT_SECRET", "dev-secret-change"),
		JWTIssuer:     src.str("JWT_ISSUER", "hr-optimizer"),
		JWTTTLMinutes: src.int("JWT_TTL_MINUTES", 60),

		LLMProvider:        strings.ToLower(src.str("LLM_PROVIDER", "openrouter")),
		OpenRouterAPIKey:   src.str("OPENROUTER_API_KEY", ""),
		OpenRouterBase:     src.str("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:    src.str("OPENROUTER_MODEL", "qwen/qwen2.5-32b-instruct"),
		OpenRouterAppTitle: src.str("OPENROUTER_APP_TITLE", "hr-optimizer"),
		OpenRouterReferer:  src.str("OPENROUTER_REFERER", ""),
		GeminiAPIKey:       src.str("GEMINI_API_KEY", ""),
		GeminiModel:        src.str("GEMINI_MODEL", "gemini-2.0-flash"),

		ExtractTimeout:     src.dur("EXTRACT_TIMEOUT", 60*time.Second),
		ParseTimeout:       src.dur("PARSE_TIMEOUT", 60*time.Second),
		AnalysisTimeout:    src.dur("ANALYSIS_TIMEOUT", 30*time.Second),
		OptimizeTimeout:    src.dur("OPTIMIZE_TIMEOUT", 240*time.Second),
		MetricsTimeout:     src.dur("METRICS_TIMEOUT", 30*time.Second),
		CoverLetterTimeout: src.dur("COVER_LETTER_TIMEOUT", 90*time.Second),
		JobFetchTimeout:    src.dur("JOB_FETCH_TIMEOUT", 20*time.Second),

		HeartbeatInterval: src.dur("HEARTBEAT_INTERVAL", 20*time.Second),
		StreamMaxLifetime: src.dur("STREAM_MAX_LIFETIME", 5*time.Minute),

		VersionLedger: strings.ToLower(src.str("VERSION_LEDGER", "postgres")),
		ChromePath:    src.str("CHROME_PATH", ""),

		TelegramBotToken: src.str("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   int64(src.int("TELEGRAM_CHAT_ID", 0)),

		SnapshotRetention: time.Duration(src.int("SNAPSHOT_RETENTION_DAYS", 14)) * 24 * time.Hour,
		RetentionSchedule: src.str("RETENTION_SCHEDULE", "0 3 * * *"),
	}

	// heartbeat держим в разумных пределах, иначе прокси рвут соединение
	if cfg.HeartbeatInterval < 15*time.Second || cfg.HeartbeatInterval > 30*time.Second {
		cfg.HeartbeatInterval = 20 * time.Second
	}
	return cfg
}

// source looks a key up in the environment first and then in the YAML file.
type source struct {
	file map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v, true
	}
	if v, ok := s.file[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	return "", false
}

func (s source) str(key, def string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	return def
}

func (s source) int(key string, def int) int {
	if v, ok := s.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// dur accepts Go durations ("90s", "4m") or plain seconds ("90").
func (s source) dur(key string, def time.Duration) time.Duration {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

// readFile parses a flat KEY: value YAML document. Missing or broken file means no overrides.
func readFile(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			out[strings.ToUpper(k)] = t
		case int:
			out[strings.ToUpper(k)] = strconv.Itoa(t)
		case bool:
			out[strings.ToUpper(k)] = strconv.FormatBool(t)
		case float64:
			out[strings.ToUpper(k)] = strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return out
}

func getenvRaw(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
