package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration. Values come from the
// environment so main stays lean; defaults suit local development.
type Server struct {
	Addr          string
	DatabaseURL   string
	Redis         RedisConfig
	JWTSigningKey string
	AdminToken    string

	// RegistrationWindowBypass disables the registration period check for
	// every event. Individual events can also opt out via AllowLateRegistration.
	RegistrationWindowBypass bool

	// AdmissionLeaseTTL bounds how long a single admission attempt may hold
	// the per-(organisation,event,category) lease.
	AdmissionLeaseTTL time.Duration
}

// RedisConfig describes the optional redis connection used for the
// distributed admission lease.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("ROBOREG_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - override in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "dev-admin-token"
	}

	return Server{
		Addr:                     addr,
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		Redis:                    redisFromEnv(),
		JWTSigningKey:            jwtSigningKey,
		AdminToken:               adminToken,
		RegistrationWindowBypass: os.Getenv("REGISTRATION_WINDOW_BYPASS") == "true",
		AdmissionLeaseTTL:        durationEnv("ADMISSION_LEASE_TTL", 5*time.Second),
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
		MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
