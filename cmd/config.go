package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverRedis     = "redis"

	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

type Config struct {
	HTTPPort string

	StoreDriver string
	FeedDriver  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirebaseProjectID       string
	FirebaseCredentialsPath string

	AuthDriver string
	JWTSecret  string

	GeocoderURL       string
	GeocoderUserAgent string

	TrackingInterval   time.Duration
	TrackingSimulation bool

	LogLevel  string
	LogFormat string
}

// LoadConfig reads the environment. A .env file in the working directory is
// loaded first when present; variables already set win over it.
func LoadConfig() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.HTTPPort = cast.ToString(getOrReturnDefault("HTTP_PORT", "8080"))

	cfg.StoreDriver = cast.ToString(getOrReturnDefault("STORE_DRIVER", DriverMemory))
	cfg.FeedDriver = cast.ToString(getOrReturnDefault("FEED_DRIVER", DriverMemory))

	cfg.DBHost = cast.ToString(getOrReturnDefault("DB_HOST", "localhost"))
	cfg.DBPort = cast.ToString(getOrReturnDefault("DB_PORT", "5432"))
	cfg.DBUser = cast.ToString(getOrReturnDefault("DB_USER", "postgres"))
	cfg.DBPassword = cast.ToString(getOrReturnDefault("DB_PASSWORD", ""))
	cfg.DBName = cast.ToString(getOrReturnDefault("DB_NAME", "courierdesk"))
	cfg.DBSslMode = cast.ToString(getOrReturnDefault("DB_SSLMODE", "disable"))

	cfg.RedisAddr = cast.ToString(getOrReturnDefault("REDIS_ADDR", "localhost:6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))
	cfg.RedisDB = cast.ToInt(getOrReturnDefault("REDIS_DB", 0))

	cfg.FirebaseProjectID = cast.ToString(getOrReturnDefault("FIREBASE_PROJECT_ID", ""))
	cfg.FirebaseCredentialsPath = cast.ToString(getOrReturnDefault("FIREBASE_CREDENTIALS_PATH", ""))

	cfg.AuthDriver = cast.ToString(getOrReturnDefault("AUTH_DRIVER", AuthJWT))
	cfg.JWTSecret = cast.ToString(getOrReturnDefault("JWT_SECRET", ""))

	cfg.GeocoderURL = cast.ToString(getOrReturnDefault("GEOCODER_URL", ""))
	cfg.GeocoderUserAgent = cast.ToString(getOrReturnDefault("GEOCODER_USER_AGENT", ""))

	cfg.TrackingInterval = cast.ToDuration(getOrReturnDefault("TRACKING_INTERVAL", "3s"))
	cfg.TrackingSimulation = cast.ToBool(getOrReturnDefault("TRACKING_SIMULATION", true))

	cfg.LogLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = cast.ToString(getOrReturnDefault("LOG_FORMAT", "json"))

	return cfg
}

// Validate reports every unsupported combination at once.
func (c Config) Validate() error {
	var problems []error

	if !slices.Contains([]string{DriverMemory, DriverPostgres, DriverFirestore}, c.StoreDriver) {
		problems = append(problems, fmt.Errorf("STORE_DRIVER %q is not one of memory, postgres, firestore", c.StoreDriver))
	}
	if !slices.Contains([]string{DriverMemory, DriverRedis, DriverPostgres, DriverFirestore}, c.FeedDriver) {
		problems = append(problems, fmt.Errorf("FEED_DRIVER %q is not one of memory, redis, postgres, firestore", c.FeedDriver))
	}
	if c.FeedDriver == DriverPostgres && c.StoreDriver != DriverPostgres {
		problems = append(problems, errors.New("FEED_DRIVER=postgres requires STORE_DRIVER=postgres"))
	}
	if c.FeedDriver == DriverFirestore && c.StoreDriver != DriverFirestore {
		problems = append(problems, errors.New("FEED_DRIVER=firestore requires STORE_DRIVER=firestore"))
	}

	switch c.AuthDriver {
	case AuthJWT:
		if c.JWTSecret == "" {
			problems = append(problems, errors.New("JWT_SECRET is required for AUTH_DRIVER=jwt"))
		}
	case AuthFirebase:
	default:
		problems = append(problems, fmt.Errorf("AUTH_DRIVER %q is not one of jwt, firebase", c.AuthDriver))
	}

	if c.usesFirebase() && c.FirebaseProjectID == "" {
		problems = append(problems, errors.New("FIREBASE_PROJECT_ID is required for the firestore store and firebase auth"))
	}
	if c.TrackingInterval <= 0 {
		problems = append(problems, errors.New("TRACKING_INTERVAL must be a positive duration"))
	}

	return errors.Join(problems...)
}

// DSN is the postgres connection string for gorm and the LISTEN connection.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) usesFirebase() bool {
	return c.StoreDriver == DriverFirestore || c.AuthDriver == AuthFirebase
}

func getOrReturnDefault(key string, defaultValue any) any {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
