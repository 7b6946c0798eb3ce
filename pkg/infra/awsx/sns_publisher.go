package awsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// maxBatchEntries is the PublishBatch limit per request.
const maxBatchEntries = 10

type SNSAPI interface {
	PublishBatch(ctx context.Context, params *sns.PublishBatchInput, optFns ...func(*sns.Options)) (*sns.PublishBatchOutput, error)
}

type snsPublisher struct {
	client SNSAPI
}

func NewSNSPublisher(client SNSAPI) trail.Publisher {
	return &snsPublisher{client: client}
}

// PublishBatch sends messages in requests of at most ten entries. Any rejected
// entry fails the whole call; entries of earlier requests stay published.
func (p *snsPublisher) PublishBatch(ctx context.Context, topic string, messages []trail.NotificationMessage) error {
	for start := 0; start < len(messages); start += maxBatchEntries {
		end := min(start+maxBatchEntries, len(messages))
		chunk := messages[start:end]

		entries := make([]types.PublishBatchRequestEntry, len(chunk))
		for i, m := range chunk {
			entries[i] = types.PublishBatchRequestEntry{
				Id:      aws.String(m.ID),
				Message: aws.String(m.Body),
			}
		}

		out, err := p.client.PublishBatch(ctx, &sns.PublishBatchInput{
			TopicArn:                   aws.String(topic),
			PublishBatchRequestEntries: entries,
		})
		if err != nil {
			return err
		}
		if len(out.Failed) > 0 {
			return batchError(out.Failed)
		}
	}
	return nil
}

func batchError(failed []types.BatchResultErrorEntry) error {
	parts := make([]string, len(failed))
	for i, f := range failed {
		parts[i] = fmt.Sprintf("%s: %s %s", aws.ToString(f.Id), aws.ToString(f.Code), aws.ToString(f.Message))
	}
	return fmt.Errorf("%d entries rejected: %s", len(failed), strings.Join(parts, "; "))
}
