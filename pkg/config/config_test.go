package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "gzip", cfg.Filter.Compression)
	assert.Equal(t, ChannelSNS, cfg.Channel.Type)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Timeout)
	assert.Equal(t, 4, cfg.Workers.Concurrency)
	assert.Equal(t, "trailtrigger", cfg.AWS.RoleSessionName)
}

func TestLoad_LegacyEnvironmentNames(t *testing.T) {
	t.Setenv("EVENT_SOURCE_TO_TRACK", `ec2\.amazonaws\.com`)
	t.Setenv("EVENT_NAME_TO_TRACK", "AttachVolume")
	t.Setenv("TOPIC_ARN", "arn:aws:sns:us-east-1:111122223333:cloud-trail-events-topic")
	t.Setenv("TAG_KEY_TO_MATCH", "install-drs-agent")
	t.Setenv("TAG_VALUES_TO_MATCH", "true,TRUE,True,1,T")
	t.Setenv("DOCUMENT_NAME", "install-drs-agent")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, `ec2\.amazonaws\.com`, cfg.Filter.EventSourcePattern)
	assert.Equal(t, "AttachVolume", cfg.Filter.EventNamePattern)
	assert.Equal(t, "arn:aws:sns:us-east-1:111122223333:cloud-trail-events-topic", cfg.Channel.Topic)
	assert.Equal(t, "install-drs-agent", cfg.Dispatch.TagKey)
	assert.Equal(t, "install-drs-agent", cfg.Dispatch.DocumentName)
	assert.NoError(t, cfg.ValidateNotifier())
	assert.NoError(t, cfg.ValidateDispatcher())

	rule := cfg.Dispatch.TagRule()
	assert.True(t, rule.Accepts("T"))
	assert.False(t, rule.Accepts("yes"))
}

func TestLoad_ConfigFileAndOverride(t *testing.T) {
	dir := t.TempDir()
	content := `
filter:
  event_source_pattern: "ec2"
  event_name_pattern: "AttachVolume"
channel:
  type: redis
  topic: trail-events
  settings:
    host: localhost
    port: 6379
dispatch:
  tag_key: install-drs-agent
  tag_values: "true"
  document_name: install-drs-agent
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600))
	t.Setenv("DISPATCH_DOCUMENT_VERSION", "3")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ChannelRedis, cfg.Channel.Type)
	assert.Equal(t, "localhost", cfg.Channel.Settings["host"])
	assert.Equal(t, "3", cfg.Dispatch.DocumentVersion)
	assert.NoError(t, cfg.ValidateListener())
}

func TestValidateNotifier_Errors(t *testing.T) {
	cfg := &Config{
		Filter:  FilterConfig{EventSourcePattern: "(", EventNamePattern: "AttachVolume", Compression: "lz4"},
		Channel: ChannelConfig{Type: "sqs"},
	}

	err := cfg.ValidateNotifier()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid event source pattern")
	assert.Contains(t, err.Error(), "filter.compression")
	assert.Contains(t, err.Error(), "channel.type")
}

func TestValidateDispatcher_Errors(t *testing.T) {
	cfg := &Config{Dispatch: DispatchConfig{TagValues: ",,"}}

	err := cfg.ValidateDispatcher()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch.tag_key")
	assert.Contains(t, err.Error(), "dispatch.tag_values")
	assert.Contains(t, err.Error(), "dispatch.document_name")
}

func TestValidateListener_RejectsSNS(t *testing.T) {
	cfg := &Config{
		Channel:  ChannelConfig{Type: ChannelSNS, Topic: "t"},
		Dispatch: DispatchConfig{TagKey: "k", TagValues: "v", DocumentName: "d"},
	}
	assert.Error(t, cfg.ValidateListener())
}
