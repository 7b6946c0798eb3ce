package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/codec"
	"github.com/spf13/viper"
)

const (
	ChannelSNS   = "sns"
	ChannelRedis = "redis"
	ChannelKafka = "kafka"
)

type Config struct {
	Filter   FilterConfig   `mapstructure:"filter"`
	Channel  ChannelConfig  `mapstructure:"channel"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
	Workers  WorkersConfig  `mapstructure:"workers"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type FilterConfig struct {
	EventSourcePattern string `mapstructure:"event_source_pattern"`
	EventNamePattern   string `mapstructure:"event_name_pattern"`
	Compression        string `mapstructure:"compression"`
}

type ChannelConfig struct {
	Type     string                 `mapstructure:"type"`
	Topic    string                 `mapstructure:"topic"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

type DispatchConfig struct {
	TagKey          string `mapstructure:"tag_key"`
	TagValues       string `mapstructure:"tag_values"`
	DocumentName    string `mapstructure:"document_name"`
	DocumentVersion string `mapstructure:"document_version"`
}

type AWSConfig struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	RoleARN         string `mapstructure:"role_arn"`
	RoleSessionName string `mapstructure:"role_session_name"`
}

type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type WorkersConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Port        int    `mapstructure:"port"`
	PushGateway string `mapstructure:"push_gateway"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// legacyEnv maps config keys to the environment variable names the Lambda
// functions were originally deployed with.
var legacyEnv = map[string]string{
	"filter.event_source_pattern": "EVENT_SOURCE_TO_TRACK",
	"filter.event_name_pattern":   "EVENT_NAME_TO_TRACK",
	"channel.topic":               "TOPIC_ARN",
	"dispatch.tag_key":            "TAG_KEY_TO_MATCH",
	"dispatch.tag_values":         "TAG_VALUES_TO_MATCH",
	"dispatch.document_name":      "DOCUMENT_NAME",
	"aws.region":                  "AWS_REGION",
	"log.level":                   "LOG_LEVEL",
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaultValues(v)
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file config.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("filter.event_source_pattern", "")
	v.SetDefault("filter.event_name_pattern", "")
	v.SetDefault("filter.compression", codec.Gzip)
	v.SetDefault("channel.type", ChannelSNS)
	v.SetDefault("channel.topic", "")
	v.SetDefault("dispatch.tag_key", "")
	v.SetDefault("dispatch.tag_values", "")
	v.SetDefault("dispatch.document_name", "")
	v.SetDefault("dispatch.document_version", "")
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.role_arn", "")
	v.SetDefault("aws.role_session_name", "trailtrigger")
	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("workers.concurrency", 4)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.push_gateway", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// ValidateNotifier checks the settings the log record filter needs.
func (c *Config) ValidateNotifier() error {
	var errs []error
	if c.Filter.EventSourcePattern == "" {
		errs = append(errs, errors.New("filter.event_source_pattern is required"))
	}
	if c.Filter.EventNamePattern == "" {
		errs = append(errs, errors.New("filter.event_name_pattern is required"))
	}
	if c.Filter.EventSourcePattern != "" && c.Filter.EventNamePattern != "" {
		if _, err := c.Filter.MatchPattern(); err != nil {
			errs = append(errs, err)
		}
	}
	if !codec.Supported(c.Filter.Compression) {
		errs = append(errs, fmt.Errorf("filter.compression %q is not supported", c.Filter.Compression))
	}
	errs = append(errs, c.validateChannel())
	return errors.Join(errs...)
}

// ValidateDispatcher checks the settings the tag-gated dispatcher needs.
func (c *Config) ValidateDispatcher() error {
	var errs []error
	if c.Dispatch.TagKey == "" {
		errs = append(errs, errors.New("dispatch.tag_key is required"))
	}
	if len(trail.ParseTagValues(c.Dispatch.TagValues)) == 0 {
		errs = append(errs, errors.New("dispatch.tag_values must list at least one value"))
	}
	if c.Dispatch.DocumentName == "" {
		errs = append(errs, errors.New("dispatch.document_name is required"))
	}
	return errors.Join(errs...)
}

// ValidateListener checks the settings of the long-running subscriber mode.
func (c *Config) ValidateListener() error {
	if c.Channel.Type == ChannelSNS {
		return errors.New("listen mode needs a redis or kafka channel, sns is consumed through lambda")
	}
	return errors.Join(c.ValidateDispatcher(), c.validateChannel())
}

func (c *Config) validateChannel() error {
	switch c.Channel.Type {
	case ChannelSNS, ChannelRedis, ChannelKafka:
	default:
		return fmt.Errorf("channel.type %q is not supported", c.Channel.Type)
	}
	if c.Channel.Topic == "" {
		return errors.New("channel.topic is required")
	}
	return nil
}

func (c FilterConfig) MatchPattern() (trail.MatchPattern, error) {
	return trail.NewMatchPattern(c.EventSourcePattern, c.EventNamePattern)
}

func (c DispatchConfig) TagRule() trail.TagFilterRule {
	return trail.NewTagFilterRule(c.TagKey, trail.ParseTagValues(c.TagValues))
}
