package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Matching   MatchingConfig
	Risk       RiskConfig
	Allocation AllocationConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type JWTConfig struct {
	SecretKey string
}

// MatchingConfig carries the global matching constants; per-commodity weights
// live in the matching_configurations table.
type MatchingConfig struct {
	WarnPenalty      float64
	AIBoost          float64
	MaxDistanceKm    float64
	AllowCrossRegion bool
	MaxResults       int
	DedupWindow      time.Duration
	Workers          int
	QueueCapacity    int
	MaxAttempts      int
	RetryBackoff     time.Duration
	SweepInterval    time.Duration
	SweepLookback    time.Duration
}

type RiskConfig struct {
	// CombineRule is "worst" or "mean" for merging buyer and seller
	// assessments into one trade assessment.
	CombineRule   string
	LookupTimeout time.Duration
}

type AllocationConfig struct {
	ReservationTTL time.Duration
	ExpirySweep    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "AgriMandi Matching API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "agri_mandi"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Matching: MatchingConfig{
			WarnPenalty:      getEnvFloat("MATCH_WARN_PENALTY", 0.10),
			AIBoost:          getEnvFloat("MATCH_AI_BOOST", 0.05),
			MaxDistanceKm:    getEnvFloat("MATCH_MAX_DISTANCE_KM", 500),
			AllowCrossRegion: getEnvBool("MATCH_ALLOW_CROSS_REGION", false),
			MaxResults:       getEnvInt("MATCH_MAX_RESULTS", 50),
			DedupWindow:      getEnvDuration("MATCH_DEDUP_WINDOW", 5*time.Minute),
			Workers:          getEnvInt("MATCH_WORKERS", 4),
			QueueCapacity:    getEnvInt("MATCH_QUEUE_CAPACITY", 1024),
			MaxAttempts:      getEnvInt("MATCH_MAX_ATTEMPTS", 3),
			RetryBackoff:     getEnvDuration("MATCH_RETRY_BACKOFF", 2*time.Second),
			SweepInterval:    getEnvDuration("MATCH_SWEEP_INTERVAL", 30*time.Second),
			SweepLookback:    getEnvDuration("MATCH_SWEEP_LOOKBACK", 15*time.Minute),
		},
		Risk: RiskConfig{
			CombineRule:   getEnv("RISK_COMBINE_RULE", "worst"),
			LookupTimeout: getEnvDuration("RISK_LOOKUP_TIMEOUT", 3*time.Second),
		},
		Allocation: AllocationConfig{
			ReservationTTL: getEnvDuration("ALLOCATION_RESERVATION_TTL", 24*time.Hour),
			ExpirySweep:    getEnvDuration("ALLOCATION_EXPIRY_SWEEP", time.Minute),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Risk.CombineRule != "worst" && cfg.Risk.CombineRule != "mean" {
		return nil, errors.New("invalid risk combine rule, want worst or mean")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}

	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}

	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}

	return defaultVal
}
