package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramToken string
	DBPath        string

	// AMQP fan-out for the live dashboard. Empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export.
	GoogleCredentialsPath string

	// Outbound queue tuning.
	SendBackoffBase time.Duration
	SendBackoffCap  time.Duration
	SendQueueSize   int
}

func Load() Config {
	return Config{
		TelegramToken:         getBotToken(),
		DBPath:                getEnv("DB_PATH", "./data/botdata.sqlite"),
		AMQPURL:               getEnv("AMQP_URL", ""),
		AMQPExchange:          getEnv("AMQP_EXCHANGE", "finbot"),
		AMQPQueue:             getEnv("AMQP_QUEUE", "ledger_updates"),
		GoogleCredentialsPath: getEnv("GOOGLE_CREDENTIALS_PATH", ""),
		SendBackoffBase:       getEnvDuration("SEND_BACKOFF_BASE", time.Second),
		SendBackoffCap:        getEnvDuration("SEND_BACKOFF_CAP", 30*time.Second),
		SendQueueSize:         getEnvInt("SEND_QUEUE_SIZE", 256),
	}
}

func (c Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("missing TELEGRAM_BOT_TOKEN (env or /run/secrets/telegram_bot_token)")
	}
	if c.SendQueueSize < 1 {
		return fmt.Errorf("SEND_QUEUE_SIZE must be positive, got %d", c.SendQueueSize)
	}
	return nil
}

// getBotToken prefers the Docker secret over the environment.
func getBotToken() string {
	if data, err := os.ReadFile("/run/secrets/telegram_bot_token"); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
