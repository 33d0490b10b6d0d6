package agent

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Pew-X/sensegate/internal/core"
	"github.com/Pew-X/sensegate/internal/knowledge"
	"github.com/Pew-X/sensegate/internal/knowledge/babelnet"
	"github.com/Pew-X/sensegate/internal/knowledge/memory"
	"github.com/Pew-X/sensegate/internal/knowledge/snapshot"
)

// Backend names accepted in Config.Backend.
const (
	BackendBabelNet = "babelnet"
	BackendSnapshot = "snapshot"
	BackendDump     = "dump"
)

// EnvPrefix prefixes every environment override, e.g. SENSEGATE_GRPC_PORT.
const EnvPrefix = "SENSEGATE_"

// DefaultGRPCPort is the port the agent listens on unless configured otherwise.
const DefaultGRPCPort = 25333

// Config holds the agent config.
type Config struct {
	Host        string `yaml:"host" env:"HOST"`
	GRPCPort    int    `yaml:"grpc_port" env:"GRPC_PORT"`
	MetricsPort int    `yaml:"metrics_port" env:"METRICS_PORT"` // 0 disables /metrics
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT"` // text or json

	// LookupTimeout bounds one lookup when the caller sent no deadline (0 = unbounded)
	LookupTimeout time.Duration `yaml:"lookup_timeout" env:"LOOKUP_TIMEOUT"`
	Language      string        `yaml:"language" env:"LANGUAGE"`

	Backend      string          `yaml:"backend" env:"BACKEND"`
	BabelNet     babelnet.Config `yaml:"babelnet" envPrefix:"BABELNET_"`
	SnapshotPath string          `yaml:"snapshot_path" env:"SNAPSHOT_PATH"`
	DumpPath     string          `yaml:"dump_path" env:"DUMP_PATH"`

	// Knowledge base probing
	ProbeIntervalSeconds int64 `yaml:"probe_interval_seconds" env:"PROBE_INTERVAL_SECONDS"`
	ProbeEnabled         bool  `yaml:"probe_enabled" env:"PROBE_ENABLED"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		Host:                 "127.0.0.1",
		GRPCPort:             DefaultGRPCPort,
		LogLevel:             "info",
		LogFormat:            "text",
		Language:             string(core.English),
		Backend:              BackendSnapshot,
		SnapshotPath:         "data/sensegate.db",
		DumpPath:             "data/synsets.jsonl",
		ProbeIntervalSeconds: 30,
		ProbeEnabled:         true,
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (skipped when path is empty), then SENSEGATE_* environment variables.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&config, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the configuration for values the agent cannot start with.
func (c Config) Validate() error {
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc_port %d", c.GRPCPort)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics_port %d", c.MetricsPort)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want text or json)", c.LogFormat)
	}
	if c.LookupTimeout < 0 {
		return fmt.Errorf("lookup_timeout must not be negative")
	}
	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("language is required")
	}

	switch c.Backend {
	case BackendBabelNet:
		if strings.TrimSpace(c.BabelNet.Key) == "" {
			return fmt.Errorf("babelnet backend needs babelnet.key")
		}
	case BackendSnapshot:
		if strings.TrimSpace(c.SnapshotPath) == "" {
			return fmt.Errorf("snapshot backend needs snapshot_path")
		}
	case BackendDump:
		if strings.TrimSpace(c.DumpPath) == "" {
			return fmt.Errorf("dump backend needs dump_path")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// language returns the configured language in canonical form.
func (c Config) language() core.Language {
	return core.Language(strings.ToUpper(strings.TrimSpace(c.Language)))
}

// BabelNetConfig returns the BabelNet client settings with the agent language applied.
func (c Config) BabelNetConfig() babelnet.Config {
	cfg := c.BabelNet
	cfg.Language = c.language()
	return cfg
}

// Opener returns the function the knowledge handle uses to open the
// configured backend on first use.
func (c Config) Opener() knowledge.Opener {
	return func(ctx context.Context) (knowledge.Base, error) {
		logger := log.WithField("backend", c.Backend)
		switch c.Backend {
		case BackendBabelNet:
			logger.Info("Connecting to BabelNet API")
			return babelnet.NewClient(c.BabelNetConfig())
		case BackendSnapshot:
			logger.WithField("path", c.SnapshotPath).Info("Opening knowledge base snapshot")
			return snapshot.Open(c.SnapshotPath)
		case BackendDump:
			logger.WithField("path", c.DumpPath).Info("Loading knowledge base dump")
			return memory.Load(c.DumpPath)
		default:
			return nil, fmt.Errorf("unknown backend %q", c.Backend)
		}
	}
}

// ConfigureLogging applies log_level and log_format to the global logger.
func ConfigureLogging(c Config) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
