package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/imdario/mergo"

	"github.com/fystack/toncenter-indexer/pkg/common/constant"
	"github.com/fystack/toncenter-indexer/pkg/common/enum"
)

var validate = validator.New()

// Defaults returns the values used for every field a config file leaves unset.
func Defaults() Config {
	return Config{
		Environment: constant.DefaultEnvironment,
		Log:         LogConfig{Level: "info"},
		TonCenter: TonCenterConfig{
			Endpoint: "https://toncenter.com",
			AuthMode: "header",
			Timeout:  30 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 500 * time.Millisecond,
				MaxElapsed:      30 * time.Second,
			},
		},
		Watcher: WatcherConfig{
			BatchSize:    constant.DefaultWatchBatchSize,
			PollInterval: constant.DefaultPollInterval,
		},
		KVStore: KVStoreConfig{
			Type:   enum.KVStoreTypeBadger,
			Codec:  enum.CodecJSON,
			Badger: BadgerConfig{Directory: "data/badger"},
			Redis:  RedisConfig{Addr: "127.0.0.1:6379"},
		},
		NATS: NATSConfig{
			Stream:        "TONCENTER",
			SubjectPrefix: constant.DefaultSubjectPrefix,
		},
	}
}

// Load reads a YAML config, expands ${VAR} references from the environment,
// fills unset fields from Defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// apply defaults
	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("struct validation failed: %w", err)
	}
	return &cfg, nil
}
