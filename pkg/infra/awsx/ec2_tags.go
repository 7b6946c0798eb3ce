package awsx

import (
	"context"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

type ec2TagReader struct {
	client ec2.DescribeTagsAPIClient
}

func NewEC2TagReader(client ec2.DescribeTagsAPIClient) trail.TagReader {
	return &ec2TagReader{client: client}
}

func (r *ec2TagReader) DescribeTags(ctx context.Context, resourceID string) ([]trail.Tag, error) {
	paginator := ec2.NewDescribeTagsPaginator(r.client, &ec2.DescribeTagsInput{
		Filters: []types.Filter{{
			Name:   aws.String("resource-id"),
			Values: []string{resourceID},
		}},
	})

	var tags []trail.Tag
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range page.Tags {
			if t.Key == nil || t.Value == nil {
				continue
			}
			tags = append(tags, trail.Tag{Key: *t.Key, Value: *t.Value})
		}
	}
	return tags, nil
}
