package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverKafkaGo = "kafka-go"
	DriverFranzGo = "franz-go"
	DriverMemory  = "memory"
)

type ProductConfig struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	ProductDB    `yaml:"product_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	Await        `yaml:"await"`
}

type HTTPServer struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type ProductDB struct {
	Dsn            string `yaml:"dsn" env:"PRODUCT_DB_DSN"`
	SkipMigrations bool   `yaml:"skip_migrations" env:"PRODUCT_DB_SKIP_MIGRATIONS"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type KafkaService struct {
	Host         string        `yaml:"host" env:"KAFKA_HOST" env-default:"localhost"`
	Port         string        `yaml:"port" env:"KAFKA_PORT" env-default:"9092"`
	Brokers      []string      `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic        string        `yaml:"topic" env:"KAFKA_TOPIC" env-default:"my-test-topic"`
	GroupID      string        `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"my-group-id"`
	Driver       string        `yaml:"driver" env:"KAFKA_DRIVER" env-default:"kafka-go"`
	Username     string        `yaml:"username" env:"KAFKA_USERNAME"`
	Password     string        `yaml:"password" env:"KAFKA_PASSWORD"`
	Mechanism    string        `yaml:"mechanism" env:"KAFKA_MECHANISM"`
	TLSEnabled   bool          `yaml:"tls_enabled" env:"KAFKA_TLS_ENABLED"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"KAFKA_WRITE_TIMEOUT" env-default:"10s"`
	// SkipEnsureTopic disables creating the topic on startup.
	SkipEnsureTopic bool `yaml:"skip_ensure_topic" env:"KAFKA_SKIP_ENSURE_TOPIC"`
}

// Await configures how verification code polls the delivered-message buffer.
type Await struct {
	Interval time.Duration `yaml:"interval" env:"AWAIT_INTERVAL" env-default:"100ms"`
	Timeout  time.Duration `yaml:"timeout" env:"AWAIT_TIMEOUT" env-default:"10s"`
}

// BrokerAddrs returns the configured broker list, falling back to host:port.
func (k KafkaService) BrokerAddrs() []string {
	var addrs []string
	for _, b := range k.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) > 0 {
		return addrs
	}
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

func (c *ProductConfig) Validate() error {
	switch c.KafkaService.Driver {
	case DriverKafkaGo, DriverFranzGo, DriverMemory:
	default:
		return fmt.Errorf("unknown kafka driver %q", c.KafkaService.Driver)
	}
	if c.KafkaService.Topic == "" {
		return fmt.Errorf("kafka topic must not be empty")
	}
	if c.KafkaService.GroupID == "" {
		return fmt.Errorf("kafka group id must not be empty")
	}
	if c.Await.Interval > c.Await.Timeout {
		return fmt.Errorf("await interval %s exceeds timeout %s", c.Await.Interval, c.Await.Timeout)
	}
	return nil
}

// Load reads the YAML file at path, overlays environment variables and
// validates the result. An empty path reads the environment only.
func Load(path string) (*ProductConfig, error) {
	var cfg ProductConfig
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to find config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *ProductConfig {
	// Processing env config variable and file
	configPath := os.Getenv("PRODUCT_CONFIG_PATH")
	if configPath == "" {
		log.Println("PRODUCT_CONFIG_PATH was not found, reading config from environment")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}
