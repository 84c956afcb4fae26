package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort     string
	Environment string
	JWTKey      []byte
	JWTExp      time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	MigrateOnStart bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LedgerLockPrefix    string
	LedgerLockTTL       time.Duration
	LedgerLockWait      time.Duration
	SubmissionCooldown  time.Duration
	SimilarityThreshold float64

	JudgeBaseURL string
	JudgeAPIKeys []string
	JudgeTimeout time.Duration

	CORSAllowedOrigins []string
	APIRateLimitRPS    float64
	APIRateLimitBurst  int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:     getEnv("API_PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		JWTKey:      []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:      time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "contest_arena"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		MigrateOnStart: getEnvAsBool("MIGRATE_ON_START", true),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		LedgerLockPrefix:    getEnv("LEDGER_LOCK_PREFIX", "ledger_lock"),
		LedgerLockTTL:       getEnvAsDuration("LEDGER_LOCK_TTL", 10*time.Second),
		LedgerLockWait:      getEnvAsDuration("LEDGER_LOCK_WAIT", 5*time.Second),
		SubmissionCooldown:  getEnvAsDuration("SUBMISSION_COOLDOWN", 10*time.Second),
		SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.8),

		JudgeBaseURL: strings.TrimRight(getEnv("JUDGE_BASE_URL", "https://judge0-ce.p.sulu.sh"), "/"),
		JudgeAPIKeys: splitList(getEnv("JUDGE_API_KEYS", "")),
		JudgeTimeout: getEnvAsDuration("JUDGE_TIMEOUT", 10*time.Second),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		APIRateLimitRPS:    getEnvAsFloat("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst:  getEnvAsInt("API_RATE_LIMIT_BURST", 50),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
