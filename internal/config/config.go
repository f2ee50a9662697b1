// Package config loads host configuration from a YAML file and the
// environment. The library core never reads configuration; only the
// commands under cmd/adjuster consume this package.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aretw0/adjuster/internal/negotiation"
)

// Config is the root configuration for every adjuster host.
type Config struct {
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Vision   VisionConfig   `mapstructure:"vision"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// WorkflowConfig tunes the claim workflow itself.
type WorkflowConfig struct {
	// ApprovalThreshold is the policy cutoff: estimated costs strictly below
	// it are auto-approved.
	ApprovalThreshold int64 `mapstructure:"approval_threshold"`

	// PhaseDelay is the deliberate pause between negotiation phases, there
	// so hosts can render the exchange at a human pace. Zero disables it.
	PhaseDelay time.Duration `mapstructure:"phase_delay"`
}

// ServerConfig describes the HTTP host.
type ServerConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout of zero keeps SSE streams open indefinitely.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the host:port the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig describes the optional redis snapshot mirror.
// An empty Addr disables it.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// Key and Channel override the adapter defaults when non-empty.
	Key     string `mapstructure:"key"`
	Channel string `mapstructure:"channel"`
}

// SnapshotConfig describes the optional file snapshot mirror and the
// privacy middleware applied to whichever mirror is active (file or redis).
// An empty File disables the file mirror.
type SnapshotConfig struct {
	File string `mapstructure:"file"`

	// EncryptionKey seals mirrored snapshots with AES-256-GCM.
	// Hex-encoded, 64 characters. Empty disables sealing.
	EncryptionKey string `mapstructure:"encryption_key"`

	// FallbackKeys are previous hex-encoded keys tried during decryption,
	// enabling zero-downtime rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`

	// MaskParams are regexp patterns; transcript payload params whose keys
	// match are replaced with "***" before the snapshot leaves the process.
	MaskParams []string `mapstructure:"mask_params"`
}

// VisionConfig selects the analysis backend. An empty Endpoint selects the
// built-in simulated backend.
type VisionConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`

	// ProfilesFile replaces the built-in simulated profiles with a YAML file.
	ProfilesFile string `mapstructure:"profiles_file"`

	// Profile pins the simulated backend to one named profile instead of
	// picking by evidence fingerprint.
	Profile string `mapstructure:"profile"`
}

// LoggerConfig configures the slog handler level: debug, info, warn, error.
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// Load merges, in increasing precedence: defaults, the config file, and
// ADJUSTER_* environment variables (dots become underscores, so
// ADJUSTER_WORKFLOW_APPROVAL_THRESHOLD overrides workflow.approval_threshold).
// Path selects an explicit config file; when empty, adjuster.yaml is looked
// up in the working directory and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("adjuster")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ADJUSTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file found: run on env and defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workflow.approval_threshold", negotiation.DefaultThreshold)
	v.SetDefault("workflow.phase_delay", 1500*time.Millisecond)
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", time.Duration(0))
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("snapshot.file", "")
	v.SetDefault("snapshot.encryption_key", "")
	v.SetDefault("vision.endpoint", "")
	v.SetDefault("logger.level", "info")
}
