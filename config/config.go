package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"bistro/infra/storage"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Log      LogConfig     `yaml:"log"`
	Storage  StorageConfig `yaml:"storage"`
	Users    UsersConfig   `yaml:"users"`
	Auth     AuthConfig    `yaml:"auth"`
	OrderIDs OrderIDConfig `yaml:"order_ids"`
	Events   EventsConfig  `yaml:"events"`
}

type ServerConfig struct {
	Addr                 string `yaml:"addr"`
	MetricsAddr          string `yaml:"metrics_addr"`
	Workers              uint32 `yaml:"workers"`
	MaxConcurrentStreams uint32 `yaml:"max_concurrent_streams"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type StorageConfig struct {
	Backend  storage.Kind `yaml:"backend"`
	Dir      string       `yaml:"dir"`
	SeedMenu string       `yaml:"seed_menu"`
}

type UsersConfig struct {
	File string `yaml:"file"`
}

type AuthConfig struct {
	Throttle      bool          `yaml:"throttle"`
	ThrottleCap   time.Duration `yaml:"throttle_cap"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type OrderIDConfig struct {
	Source string      `yaml:"source"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	PoolSize int    `yaml:"pool_size"`
}

type EventsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	OutboxDir string        `yaml:"outbox_dir"`
	Client    string        `yaml:"client"`
	Brokers   []string      `yaml:"brokers"`
	Topic     string        `yaml:"topic"`
	Interval  time.Duration `yaml:"interval"`
}

// Order id sources.
const (
	SourceSequence = "sequence"
	SourceRedis    = "redis"
)

// Kafka clients.
const (
	ClientSarama  = "sarama"
	ClientKafkaGo = "kafka-go"
)

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:                 ":50051",
			MetricsAddr:          ":9090",
			Workers:              10,
			MaxConcurrentStreams: 256,
		},
		Log:     LogConfig{Level: "info"},
		Storage: StorageConfig{Backend: storage.KindFile, Dir: "data"},
		Users:   UsersConfig{File: "data/users.json"},
		Auth: AuthConfig{
			Throttle:      true,
			ThrottleCap:   30 * time.Second,
			SweepInterval: time.Minute,
		},
		OrderIDs: OrderIDConfig{
			Source: SourceSequence,
			Redis:  RedisConfig{Addr: "localhost:6379", Key: "bistro:order:seq"},
		},
		Events: EventsConfig{
			OutboxDir: "data/outbox",
			Client:    ClientSarama,
			Brokers:   []string{"localhost:9092"},
			Topic:     "bistro.orders",
			Interval:  250 * time.Millisecond,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty), a .env file in the working directory and BISTRO_*
// environment variables, in that order of precedence. The result is not
// validated: callers apply their own overrides and then call Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse config %s", path)
		}
	}

	// .env is optional and never overrides variables already set.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("BISTRO_ADDR", &c.Server.Addr)
	str("BISTRO_METRICS_ADDR", &c.Server.MetricsAddr)
	str("BISTRO_LOG_LEVEL", &c.Log.Level)
	str("BISTRO_DATA_DIR", &c.Storage.Dir)
	str("BISTRO_SEED_MENU", &c.Storage.SeedMenu)
	str("BISTRO_USERS_FILE", &c.Users.File)
	str("BISTRO_ORDER_IDS", &c.OrderIDs.Source)
	str("BISTRO_REDIS_ADDR", &c.OrderIDs.Redis.Addr)
	str("BISTRO_REDIS_PASSWORD", &c.OrderIDs.Redis.Password)
	str("BISTRO_OUTBOX_DIR", &c.Events.OutboxDir)
	str("BISTRO_KAFKA_CLIENT", &c.Events.Client)
	str("BISTRO_KAFKA_TOPIC", &c.Events.Topic)

	if v, ok := os.LookupEnv("BISTRO_STORAGE_BACKEND"); ok {
		c.Storage.Backend = storage.Kind(v)
	}
	if v, ok := os.LookupEnv("BISTRO_KAFKA_BROKERS"); ok {
		c.Events.Brokers = splitList(v)
	}
	if v, ok := os.LookupEnv("BISTRO_EVENTS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "BISTRO_EVENTS_ENABLED")
		}
		c.Events.Enabled = b
	}
	if v, ok := os.LookupEnv("BISTRO_AUTH_THROTTLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "BISTRO_AUTH_THROTTLE")
		}
		c.Auth.Throttle = b
	}
	if v, ok := os.LookupEnv("BISTRO_SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(err, "BISTRO_SESSION_TTL")
		}
		c.Auth.SessionTTL = d
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is empty")
	}
	if !c.Storage.Backend.Valid() {
		return errors.Newf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Dir == "" {
		return errors.New("config: storage.dir is empty")
	}
	if c.Users.File == "" {
		return errors.New("config: users.file is empty")
	}
	if c.Auth.SessionTTL < 0 {
		return errors.New("config: auth.session_ttl is negative")
	}
	switch c.OrderIDs.Source {
	case SourceSequence:
	case SourceRedis:
		if c.OrderIDs.Redis.Addr == "" {
			return errors.New("config: order_ids.redis.addr is empty")
		}
	default:
		return errors.Newf("config: unknown order id source %q", c.OrderIDs.Source)
	}
	if c.Events.Enabled {
		switch c.Events.Client {
		case ClientSarama, ClientKafkaGo:
		default:
			return errors.Newf("config: unknown kafka client %q", c.Events.Client)
		}
		if len(c.Events.Brokers) == 0 || c.Events.Topic == "" {
			return errors.New("config: events need brokers and a topic")
		}
		if c.Events.Interval <= 0 {
			return errors.New("config: events.interval must be positive")
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
