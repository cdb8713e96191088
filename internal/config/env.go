package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Port           string
	LogLevel       string
	StoreDriver    string
	DatabaseURL    string
	SslCertPath    string
	JWTSecret      string
	AIAPIKey       string
	GenModel       string
	EmbedModel     string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string
	SketchfabKey   string
	SketchfabURL   string
	NCERTBaseURL   string
	APIScrape      bool
	IngestWorkers  int
	EmbedRate      int
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SslCertPath:    getEnv("SSL_CERT_PATH", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GenModel:       getEnv("GEN_MODEL", "gemini-1.5-flash"),
		EmbedModel:     getEnv("EMBED_MODEL", "text-embedding-004"),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "eduai-documents"),
		SketchfabKey:   getEnv("SKETCHFAB_API_KEY", ""),
		SketchfabURL:   getEnv("SKETCHFAB_BASE_URL", "https://api.sketchfab.com/v3"),
		NCERTBaseURL:   getEnv("NCERT_BASE_URL", "https://ncert.nic.in"),
		APIScrape:      getEnvBool("NCERT_API_SCRAPE", false),
		IngestWorkers:  getEnvInt("INGEST_WORKERS", 2),
		EmbedRate:      getEnvInt("EMBED_RATE_PER_SEC", 20),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 60)) * time.Second,
	}

	driver := DriverMemory
	if cfg.DatabaseURL != "" {
		driver = DriverPostgres
	}
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", driver))

	return cfg
}

// Validate checks the settings the HTTP server cannot start without.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if c.IngestWorkers < 1 {
		return fmt.Errorf("INGEST_WORKERS must be positive, got %d", c.IngestWorkers)
	}
	return nil
}

// HasObjectStorage reports whether S3 credentials are configured.
func (c *Config) HasObjectStorage() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != "" && c.BucketName != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARN: %s=%q not an int, using default %d\n", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARN: %s=%q not a bool, using default %t\n", key, v, def)
		return def
	}
	return b
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
