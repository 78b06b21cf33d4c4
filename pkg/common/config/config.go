package config

import (
	"time"

	"github.com/fystack/toncenter-indexer/pkg/common/enum"
)

type Config struct {
	Environment enum.Environment `yaml:"environment" validate:"required,oneof=development production"`
	Log         LogConfig        `yaml:"log"`
	TonCenter   TonCenterConfig  `yaml:"toncenter"`
	Watcher     WatcherConfig    `yaml:"watcher"`
	KVStore     KVStoreConfig    `yaml:"kvstore"`
	NATS        NATSConfig       `yaml:"nats"`
}

type LogConfig struct {
	Level   string `yaml:"level"    validate:"omitempty,oneof=debug info warn error"`
	NoColor bool   `yaml:"no_color"`
}

type TonCenterConfig struct {
	Endpoint  string          `yaml:"endpoint"   validate:"required,url"`
	APIKey    string          `yaml:"api_key"`
	AuthMode  string          `yaml:"auth_mode"  validate:"omitempty,oneof=header query"`
	Timeout   time.Duration   `yaml:"timeout"    validate:"min=0"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"   validate:"min=0"`
	Burst int     `yaml:"burst" validate:"min=0"`
}

type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"     validate:"min=0"`
	InitialInterval time.Duration `yaml:"initial_interval" validate:"min=0"`
	MaxElapsed      time.Duration `yaml:"max_elapsed"      validate:"min=0"`
}

type WatcherConfig struct {
	Addresses    []string      `yaml:"addresses"     validate:"dive,required"`
	BatchSize    int           `yaml:"batch_size"    validate:"min=1,max=1000"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"min=0"`
	// FromLatest starts accounts without a stored cursor at their newest
	// transaction instead of replaying the full history.
	FromLatest bool `yaml:"from_latest"`
}

type KVStoreConfig struct {
	Type   enum.KVStoreType `yaml:"type"   validate:"required,oneof=badger consul redis"`
	Codec  enum.CodecType   `yaml:"codec"  validate:"required,oneof=json gob"`
	Badger BadgerConfig     `yaml:"badger"`
	Consul ConsulConfig     `yaml:"consul"`
	Redis  RedisConfig      `yaml:"redis"`
}

type BadgerConfig struct {
	Directory string `yaml:"directory" validate:"required_if=InMemory false"`
	Prefix    string `yaml:"prefix"`
	InMemory  bool   `yaml:"in_memory"`
}

type ConsulConfig struct {
	Scheme   string         `yaml:"scheme"  validate:"omitempty,oneof=http https"`
	Address  string         `yaml:"address"`
	Folder   string         `yaml:"folder"`
	Token    string         `yaml:"token"`
	HttpAuth HttpAuthConfig `yaml:"http_auth"`
}

type HttpAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"     validate:"min=0"`
	Prefix   string `yaml:"prefix"`
}

type NATSConfig struct {
	URL           string        `yaml:"url"            validate:"omitempty,url"`
	Stream        string        `yaml:"stream"`
	SubjectPrefix string        `yaml:"subject_prefix" validate:"required"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	TLS           NATSTLSConfig `yaml:"tls"`
}

type NATSTLSConfig struct {
	ClientCert string `yaml:"client_cert" validate:"required_with=ClientKey"`
	ClientKey  string `yaml:"client_key"  validate:"required_with=ClientCert"`
	CACert     string `yaml:"ca_cert"`
}

// Enabled reports whether events should be published.
func (c NATSConfig) Enabled() bool { return c.URL != "" }
