package config

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	pkgcfg "github.com/Skotchmaster/todo_list/pkg/config"
	pkgdb "github.com/Skotchmaster/todo_list/pkg/db"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTSecret         []byte
	JWTAlgorithm      string
	AccessTokenExpire time.Duration
	CipherKey         []byte

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Load reads the process environment, after merging an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("notice: cannot read .env: %v", err)
	}

	cfg := &Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "todo_list"),
		ServerPort:  pkgcfg.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DBDriver:    pkgcfg.EnvDefault("DB_DRIVER", pkgdb.DriverSQLite),
		DatabaseURL: pkgcfg.EnvDefault("DATABASE_URL", "todo.db"),

		JWTSecret:         []byte(os.Getenv("JWT_SECRET")),
		JWTAlgorithm:      pkgcfg.EnvDefault("JWT_ALGORITHM", "HS256"),
		AccessTokenExpire: time.Duration(pkgcfg.EnvIntDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    pkgcfg.EnvDefault("ES_INDEX", "todos"),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	var missing pkgcfg.Missing
	missing.Require(string(cfg.JWTSecret), "JWT_SECRET")
	missing.Require(os.Getenv("CIPHER_KEY"), "CIPHER_KEY")
	if err := missing.Err(); err != nil {
		return nil, err
	}

	key, err := base64.StdEncoding.DecodeString(os.Getenv("CIPHER_KEY"))
	if err != nil {
		return nil, fmt.Errorf("CIPHER_KEY is not valid base64: %w", err)
	}
	cfg.CipherKey = key

	if cfg.AccessTokenExpire <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}

	return cfg, nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// BootstrapAdmin reports whether all three admin seed variables are present.
func (c *Config) BootstrapAdmin() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}
