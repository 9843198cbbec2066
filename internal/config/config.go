package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nepallicenseprep/likhit-backend/internal/model"
)

// Archive backends.
const (
	ArchiveBackendRedis  = "redis"
	ArchiveBackendMemory = "memory"
)

// AdPlacements lists the ad positions each page renders, in display order.
var AdPlacements = map[string][]string{
	"practice":      {"side_1", "side_2", "bottom_mobile"},
	"real-exam":     {"side_1", "side_2", "side_3", "bottom_mobile"},
	"mock-exam":     {"side_1", "bottom_mobile"},
	"traffic-signs": {"bottom"},
	"blog":          {"bottom"},
}

// Config holds all application configuration.
type Config struct {
	ServerPort  string
	GinMode     string
	LogLevel    string
	LogFormat   string
	AppEnv      string
	DatabaseURL string
	MaxDBConns  int32
	RedisURL    string
	// ArchiveBackend selects where result histories live ("redis" or "memory").
	ArchiveBackend string
	JWTSecret      string
	JWTExpiry      time.Duration
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string

	SessionIdleTTL       time.Duration
	PracticePerPage      int
	Presets              map[model.Flow]model.FlowPreset
	Ads                  model.AdSlotConfig
	ContactRatePerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	appEnv := getEnv("APP_ENV", "development")
	passMark := float64(getEnvInt("PASS_PERCENTAGE", 70)) / 100
	practicePerPage := getEnvInt("PRACTICE_QUESTIONS_PER_PAGE", 20)

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		AppEnv:         appEnv,
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MaxDBConns:     int32(getEnvInt("MAX_DB_CONNS", 16)),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ArchiveBackend: getEnv("ARCHIVE_BACKEND", ArchiveBackendRedis),
		JWTSecret:      getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:      time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24*30)) * time.Hour,
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),

		SessionIdleTTL:  time.Duration(getEnvInt("SESSION_IDLE_TTL_MINUTES", 60)) * time.Minute,
		PracticePerPage: practicePerPage,
		Presets: map[model.Flow]model.FlowPreset{
			model.FlowPractice: {
				Flow:          model.FlowPractice,
				QuestionCount: practicePerPage,
				Discipline:    model.DisciplineImmediate,
				PassMark:      passMark,
			},
			model.FlowMock: {
				Flow:          model.FlowMock,
				QuestionCount: getEnvInt("MOCK_EXAM_QUESTIONS", 20),
				TimeLimit:     time.Duration(getEnvInt("MOCK_EXAM_MINUTES", 20)) * time.Minute,
				Discipline:    model.DisciplineDeferred,
				PassMark:      passMark,
			},
			model.FlowReal: {
				Flow:          model.FlowReal,
				QuestionCount: getEnvInt("REAL_EXAM_QUESTIONS", 25),
				TimeLimit:     time.Duration(getEnvInt("REAL_EXAM_MINUTES", 25)) * time.Minute,
				Discipline:    model.DisciplineDeferred,
				PassMark:      passMark,
			},
		},
		Ads:                  loadAdSlots(appEnv),
		ContactRatePerMinute: getEnvInt("CONTACT_RATE_PER_MINUTE", 5),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AnalyticsEnabled reports whether a relational store is configured.
func (c *Config) AnalyticsEnabled() bool {
	return c.DatabaseURL != ""
}

// loadAdSlots reads AD_SLOT_<PAGE>_<POSITION> for every known placement.
func loadAdSlots(appEnv string) model.AdSlotConfig {
	slots := make(map[string]map[string]string, len(AdPlacements))
	for page, positions := range AdPlacements {
		slots[page] = make(map[string]string, len(positions))
		for _, pos := range positions {
			if id := os.Getenv(AdSlotEnvName(page, pos)); id != "" {
				slots[page][pos] = id
			}
		}
	}
	return model.AdSlotConfig{
		ClientID:   os.Getenv("ADSENSE_CLIENT_ID"),
		Production: appEnv == "production",
		Slots:      slots,
	}
}

// AdSlotEnvName returns the variable holding the slot id for page and
// position, e.g. AD_SLOT_REAL_EXAM_SIDE_1.
func AdSlotEnvName(page, position string) string {
	name := "AD_SLOT_" + page + "_" + position
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
