package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Port           int
	EndpointPrefix string
	GinMode        string
	StorageDriver  string
	PublicKeyPath  string

	DB     DBConfig
	Kafka  KafkaConfig
	Consul ConsulConfig
	Gemini GeminiConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the connection string understood by the pgx stdlib driver.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type KafkaConfig struct {
	Brokers             []string
	TopicOrderCompleted string
	TopicAccountCreated string
	ConsumerGroup       string
}

// Enabled reports whether any broker was configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type ConsulConfig struct {
	Addr        string
	ServiceName string
	ServiceHost string
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Load reads the service configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVICE_PORT", "8080"))
	if err != nil || port <= 0 {
		return Config{}, fmt.Errorf("invalid SERVICE_PORT %q", os.Getenv("SERVICE_PORT"))
	}

	cfg := Config{
		Port:           port,
		EndpointPrefix: getEnv("SERVICE_ENDPOINT_PREFIX", "/store"),
		GinMode:        os.Getenv("GIN_MODE"),
		StorageDriver:  getEnv("STORAGE_DRIVER", StoragePostgres),
		PublicKeyPath:  os.Getenv("PUBLIC_KEY_PATH"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:             splitList(os.Getenv("KAFKA_BROKERS")),
			TopicOrderCompleted: getEnv("KAFKA_TOPIC_ORDER_COMPLETED", "storefront.order-completed"),
			TopicAccountCreated: getEnv("KAFKA_TOPIC_ACCOUNT_CREATED", "user-service.account-created"),
			ConsumerGroup:       getEnv("KAFKA_CONSUMER_GROUP", "storefront"),
		},
		Consul: ConsulConfig{
			Addr:        os.Getenv("CONSUL_ADDR"),
			ServiceName: getEnv("SERVICE_NAME", "storefront"),
			ServiceHost: getEnv("SERVICE_HOST", "localhost"),
		},
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		},
	}

	switch cfg.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if !strings.HasPrefix(cfg.EndpointPrefix, "/") {
		return Config{}, fmt.Errorf("SERVICE_ENDPOINT_PREFIX must start with '/': %q", cfg.EndpointPrefix)
	}
	return cfg, nil
}

func getEnv(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
