package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// MongoDB Configuration
	MongoEnabled  bool
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// HTTP Server Configuration
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Worker Pool Configuration
	WorkerPoolSize int
	JobQueueSize   int

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// arXiv Search Configuration
	ArxivBaseURL      string
	ArxivTimeout      time.Duration
	DefaultMaxResults int
	FetchConcurrency  int

	// Paper cache
	PapersDir string

	// QA Engine (Gemini)
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTimeout     time.Duration
	CodeArtifactPath  string
	MaxCorpusDocChars int

	// CORS Configuration
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int

	// Janitor Configuration
	JanitorEnabled  bool
	JanitorSchedule string
	JobTTL          time.Duration
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// MongoDB
		MongoEnabled:  getBoolEnv("MONGO_ENABLED", true),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/paperlens?authSource=admin"),
		MongoDatabase: getEnv("MONGO_DATABASE", "paperlens"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,

		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,

		// Worker Pool
		WorkerPoolSize: getIntEnv("WORKER_POOL_SIZE", 4),
		JobQueueSize:   getIntEnv("JOB_QUEUE_SIZE", 100),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// arXiv
		ArxivBaseURL:      getEnv("ARXIV_BASE_URL", "https://export.arxiv.org/api/query"),
		ArxivTimeout:      getDurationEnv("ARXIV_TIMEOUT_SEC", 30) * time.Second,
		DefaultMaxResults: getIntEnv("DEFAULT_MAX_RESULTS", 10),
		FetchConcurrency:  getIntEnv("FETCH_CONCURRENCY", 3),

		// Paper cache
		PapersDir: getEnv("PAPERS_DIR", "papers"),

		// QA Engine
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTimeout:     getDurationEnv("GEMINI_TIMEOUT_SEC", 120) * time.Second,
		CodeArtifactPath:  getEnv("CODE_ARTIFACT_PATH", "artifacts/starter_project.py"),
		MaxCorpusDocChars: getIntEnv("MAX_CORPUS_DOC_CHARS", 24000),

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, OPTIONS"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),

		// Janitor (opt-in; finished jobs are kept until an operator enables expiry)
		JanitorEnabled:  getBoolEnv("JANITOR_ENABLED", false),
		JanitorSchedule: getEnv("JANITOR_SCHEDULE", "@every 1h"),
		JobTTL:          getDurationEnv("JOB_TTL_SEC", 86400) * time.Second,
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
