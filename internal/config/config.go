package config

import (
	"fmt"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds every environment-driven parameter of the service.
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string

	Port        string
	MetricsPort string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBName      string
	DBUser      string
	DBPassword  string
	DBSchema    string

	RedisURL      string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	UploadDir      string
	MigrationsPath string

	// House edge applied when drawing round results, in percent.
	HouseProfit float64
}

func Load() Config {
	cfg := Config{
		Env:         getEnv("ENV", "local"),
		ServiceName: getEnv("SERVICE_NAME", "dindin"),

		Port:        getEnv("PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9095"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DINDIN_DB_HOST", "localhost"),
		DBPort:      getEnv("DINDIN_DB_PORT", "5432"),
		DBName:      getEnv("DINDIN_DB_DATABASE", "dindin"),
		DBUser:      getEnv("DINDIN_DB_USERNAME", "postgres"),
		DBPassword:  getEnv("DINDIN_DB_PASSWORD", "postgres"),
		DBSchema:    getEnv("DINDIN_DB_SCHEMA", "public"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		HouseProfit: getEnvAsFloat("HOUSE_PROFIT", 1.0),
	}
	return cfg
}

// DSN returns the postgres connection string, preferring DATABASE_URL when set.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSchema)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
