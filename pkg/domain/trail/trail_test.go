package trail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPattern_SearchSemantics(t *testing.T) {
	p, err := NewMatchPattern(`ec2\.amazonaws\.com`, "AttachVolume")
	require.NoError(t, err)

	assert.True(t, p.Matches("ec2.amazonaws.com", "AttachVolume"))
	assert.True(t, p.Matches("ec2.amazonaws.com", "XAttachVolumeX"))
	assert.False(t, p.Matches("ec2.amazonaws.com", "DetachVolume"))
	assert.False(t, p.Matches("s3.amazonaws.com", "AttachVolume"))
}

func TestMatchPattern_AnchoredExpression(t *testing.T) {
	p, err := NewMatchPattern(`^ec2\.amazonaws\.com$`, `^AttachVolume$`)
	require.NoError(t, err)

	assert.True(t, p.Matches("ec2.amazonaws.com", "AttachVolume"))
	assert.False(t, p.Matches("ec2.amazonaws.com", "AttachVolumes"))
}

func TestNewMatchPattern_InvalidExpression(t *testing.T) {
	_, err := NewMatchPattern("(", "AttachVolume")
	assert.Error(t, err)

	_, err = NewMatchPattern("ec2", "[")
	assert.Error(t, err)
}

func TestParseTagValues(t *testing.T) {
	assert.Equal(t, []string{"true", "TRUE", "True", "1", "T"}, ParseTagValues("true,TRUE,True,1,T"))
	assert.Equal(t, []string{"a", " b"}, ParseTagValues("a,, b,"))
	assert.Nil(t, ParseTagValues(""))
}

func TestTagFilterRule_Passes(t *testing.T) {
	rule := NewTagFilterRule("install-drs-agent", ParseTagValues("true,TRUE,True,1,T"))

	tests := []struct {
		name string
		tags []Tag
		want bool
	}{
		{"no tags", nil, false},
		{"accepted value", []Tag{{Key: "install-drs-agent", Value: "true"}}, true},
		{"accepted among others", []Tag{{Key: "Name", Value: "web"}, {Key: "install-drs-agent", Value: "T"}}, true},
		{"wrong value", []Tag{{Key: "install-drs-agent", Value: "false"}}, false},
		{"value not normalized", []Tag{{Key: "install-drs-agent", Value: "yes"}}, false},
		{"case sensitive value", []Tag{{Key: "install-drs-agent", Value: "tRUE"}}, false},
		{"case sensitive key", []Tag{{Key: "Install-DRS-Agent", Value: "true"}}, false},
		{"value on other key", []Tag{{Key: "Name", Value: "true"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Passes(tt.tags))
		})
	}
}

func TestDecodeAuditRecord(t *testing.T) {
	rec, err := DecodeAuditRecord([]byte(`{"eventID":"e-1","eventSource":"ec2.amazonaws.com","eventName":"AttachVolume","responseElements":{"instanceId":"i-0abc","volumeId":"vol-1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "e-1", rec.EventID)
	require.NotNil(t, rec.ResponseElements)
	assert.Equal(t, "i-0abc", rec.ResponseElements.InstanceID)

	_, err = DecodeAuditRecord([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeAuditRecord([]byte(`null`))
	assert.Error(t, err)

	_, err = DecodeAuditRecord([]byte(`["a"]`))
	assert.Error(t, err)
}

func TestLogBatchReference_String(t *testing.T) {
	ref := LogBatchReference{Bucket: "trail-bucket", Key: "AWSLogs/1/CloudTrail/x.json.gz"}
	assert.Equal(t, "s3://trail-bucket/AWSLogs/1/CloudTrail/x.json.gz", ref.String())
}
