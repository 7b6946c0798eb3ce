package channel

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DeadLetterSuffix names the dead-letter destination of a topic: a Redis list
// or a Kafka topic called "<topic>.dlq".
const DeadLetterSuffix = ".dlq"

type RedisSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type KafkaSettings struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	GroupID string `mapstructure:"group_id"`
}

func DecodeRedisSettings(settings map[string]interface{}) (RedisSettings, error) {
	conf := RedisSettings{Port: 6379}
	if err := decode(settings, &conf); err != nil {
		return RedisSettings{}, fmt.Errorf("invalid redis channel config: %w", err)
	}
	if conf.Host == "" {
		return RedisSettings{}, errors.New("redis host is required")
	}
	return conf, nil
}

func DecodeKafkaSettings(settings map[string]interface{}) (KafkaSettings, error) {
	conf := KafkaSettings{GroupID: "trailtrigger-dispatcher"}
	if err := decode(settings, &conf); err != nil {
		return KafkaSettings{}, fmt.Errorf("invalid kafka channel config: %w", err)
	}
	if conf.Host == "" {
		return KafkaSettings{}, errors.New("kafka host is required")
	}
	if conf.Port == "" {
		return KafkaSettings{}, errors.New("kafka port is required")
	}
	return conf, nil
}

func decode(settings map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(settings)
}
