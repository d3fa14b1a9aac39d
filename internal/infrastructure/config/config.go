package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"homefix_orders/internal/domain/lifecycle"

	"github.com/caarlos0/env/v6"
)

const (
	StorageDynamoDB = "dynamodb"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"dynamodb"`

	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" envDefault:"local"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:"local"`
	DynamoDBEndpoint   string `env:"DYNAMODB_ENDPOINT"`
	OrdersTable        string `env:"ORDERS_TABLE" envDefault:"orders"`
	AccountsTable      string `env:"ACCOUNTS_TABLE" envDefault:"accounts"`
	ServicesTable      string `env:"SERVICES_TABLE" envDefault:"services"`

	DatabaseURI string `env:"DATABASE_URI"`

	JWTSecret      string `env:"JWT_SECRET"`
	RolePolicyFile string `env:"ROLE_POLICY_FILE"`

	CascadeTimeout     time.Duration `env:"CASCADE_TIMEOUT" envDefault:"30s"`
	CascadeConcurrency int           `env:"CASCADE_CONCURRENCY" envDefault:"8"`

	NotifyBuffer    int    `env:"NOTIFY_BUFFER" envDefault:"256"`
	NotifyWorkers   int    `env:"NOTIFY_WORKERS" envDefault:"2"`
	PubSubProjectID string `env:"PUBSUB_PROJECT_ID"`
	PubSubTopic     string `env:"PUBSUB_TOPIC"`

	MercadoPagoAccessToken string `env:"MERCADOPAGO_ACCESS_TOKEN"`
	PaymentGatewayMock     bool   `env:"PAYMENT_GATEWAY_MOCK"`
}

// Load reads the process environment. .env files are loaded earlier by godotenv/autoload.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDynamoDB, StorageMemory:
	case StoragePostgres:
		if c.DatabaseURI == "" {
			return fmt.Errorf("DATABASE_URI is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.CascadeConcurrency < 1 {
		return fmt.Errorf("CASCADE_CONCURRENCY must be positive, got %d", c.CascadeConcurrency)
	}
	if c.CascadeTimeout <= 0 {
		return fmt.Errorf("CASCADE_TIMEOUT must be positive, got %s", c.CascadeTimeout)
	}
	if c.NotifyBuffer < 1 || c.NotifyWorkers < 1 {
		return fmt.Errorf("NOTIFY_BUFFER and NOTIFY_WORKERS must be positive")
	}
	if (c.PubSubProjectID == "") != (c.PubSubTopic == "") {
		return fmt.Errorf("PUBSUB_PROJECT_ID and PUBSUB_TOPIC must be set together")
	}
	return nil
}

// RolePolicy returns the default policy unless ROLE_POLICY_FILE points at a YAML override.
func (c *Config) RolePolicy(registry *lifecycle.Registry) (*lifecycle.RolePolicy, error) {
	if c.RolePolicyFile == "" {
		return lifecycle.DefaultRolePolicy(), nil
	}
	data, err := os.ReadFile(c.RolePolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read role policy file: %w", err)
	}
	return lifecycle.LoadRolePolicyYAML(data, registry)
}
