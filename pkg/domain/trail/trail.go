package trail

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// LogBatchReference identifies one compressed CloudTrail log object.
type LogBatchReference struct {
	Bucket string
	Key    string
}

func (r LogBatchReference) String() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

// NotificationMessage is one matched audit record as published to the fan-out
// channel. ID carries the record's eventID and Body its JSON serialization.
type NotificationMessage struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// AuditRecord is the typed view of a CloudTrail record used by the dispatcher.
// Fields the pipeline does not read stay in the message body untouched.
type AuditRecord struct {
	EventSource      string            `json:"eventSource"`
	EventName        string            `json:"eventName"`
	EventID          string            `json:"eventID"`
	AWSRegion        string            `json:"awsRegion,omitempty"`
	ResponseElements *ResponseElements `json:"responseElements"`
}

type ResponseElements struct {
	InstanceID string `json:"instanceId"`
	VolumeID   string `json:"volumeId,omitempty"`
	Device     string `json:"device,omitempty"`
}

// DecodeAuditRecord parses body into an AuditRecord. The body must be a JSON
// object; field presence is checked by the caller.
func DecodeAuditRecord(body []byte) (*AuditRecord, error) {
	var rec *AuditRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("notification body is not an audit record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("notification body is null")
	}
	return rec, nil
}

// MatchPattern selects audit records by event source and event name. Both
// expressions use search semantics; they are only anchored if the expression
// itself anchors.
type MatchPattern struct {
	Source *regexp.Regexp
	Name   *regexp.Regexp
}

func NewMatchPattern(sourceExpr, nameExpr string) (MatchPattern, error) {
	source, err := regexp.Compile(sourceExpr)
	if err != nil {
		return MatchPattern{}, fmt.Errorf("invalid event source pattern %q: %w", sourceExpr, err)
	}
	name, err := regexp.Compile(nameExpr)
	if err != nil {
		return MatchPattern{}, fmt.Errorf("invalid event name pattern %q: %w", nameExpr, err)
	}
	return MatchPattern{Source: source, Name: name}, nil
}

func (p MatchPattern) Matches(eventSource, eventName string) bool {
	return p.Source.MatchString(eventSource) && p.Name.MatchString(eventName)
}

type Tag struct {
	Key   string
	Value string
}

// TagFilterRule passes a resource carrying a tag named Key whose value is one
// of the accepted values. Comparison is exact and case-sensitive.
type TagFilterRule struct {
	Key    string
	values map[string]struct{}
}

func NewTagFilterRule(key string, values []string) TagFilterRule {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return TagFilterRule{Key: key, values: set}
}

// ParseTagValues splits a comma-joined list of accepted values. Empty entries
// are dropped; no trimming or case folding is applied.
func ParseTagValues(joined string) []string {
	var out []string
	for _, v := range strings.Split(joined, ",") {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (r TagFilterRule) Accepts(value string) bool {
	_, ok := r.values[value]
	return ok
}

func (r TagFilterRule) Passes(tags []Tag) bool {
	for _, t := range tags {
		if t.Key == r.Key && r.Accepts(t.Value) {
			return true
		}
	}
	return false
}

// DispatchTarget is the command to run and the instance to run it on.
type DispatchTarget struct {
	InstanceID      string
	DocumentName    string
	DocumentVersion string
	Comment         string
}

type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeSkipped    Outcome = "skipped"
)
