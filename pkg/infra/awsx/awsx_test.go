package awsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

type mockSNS struct {
	mock.Mock
}

func (m *mockSNS) PublishBatch(ctx context.Context, params *sns.PublishBatchInput, _ ...func(*sns.Options)) (*sns.PublishBatchOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sns.PublishBatchOutput)
	return out, args.Error(1)
}

type mockEC2 struct {
	mock.Mock
}

func (m *mockEC2) DescribeTags(ctx context.Context, params *ec2.DescribeTagsInput, _ ...func(*ec2.Options)) (*ec2.DescribeTagsOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*ec2.DescribeTagsOutput)
	return out, args.Error(1)
}

type mockSSM struct {
	mock.Mock
}

func (m *mockSSM) SendCommand(ctx context.Context, params *ssm.SendCommandInput, _ ...func(*ssm.Options)) (*ssm.SendCommandOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*ssm.SendCommandOutput)
	return out, args.Error(1)
}

func TestS3Store_Fetch(t *testing.T) {
	client := new(mockS3)
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Bucket) == "bucket" && aws.ToString(in.Key) == "key.json.gz"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("payload"))}, nil)

	data, err := NewS3Store(client).Fetch(context.Background(), "bucket", "key.json.gz")

	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestS3Store_Fetch_NoBody(t *testing.T) {
	client := new(mockS3)
	client.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{}, nil)

	_, err := NewS3Store(client).Fetch(context.Background(), "bucket", "key")

	assert.EqualError(t, err, "no body on response")
}

func TestS3Store_Fetch_NotFound(t *testing.T) {
	client := new(mockS3)
	notFound := &smithy.GenericAPIError{Code: "NoSuchKey", Message: "The specified key does not exist."}
	client.On("GetObject", mock.Anything, mock.Anything).Return(nil, notFound)

	_, err := NewS3Store(client).Fetch(context.Background(), "bucket", "missing")

	require.Error(t, err)
	assert.Equal(t, "NoSuchKey", ErrorCode(fmt.Errorf("fetch: %w", err)))
	assert.Empty(t, ErrorCode(errors.New("plain")))
}

func messages(n int) []trail.NotificationMessage {
	out := make([]trail.NotificationMessage, n)
	for i := range out {
		out[i] = trail.NotificationMessage{ID: fmt.Sprintf("e-%d", i), Body: "{}"}
	}
	return out
}

func TestSNSPublisher_SplitsIntoTens(t *testing.T) {
	client := new(mockSNS)
	var sizes []int
	client.On("PublishBatch", mock.Anything, mock.Anything).Return(&sns.PublishBatchOutput{}, nil).Run(func(args mock.Arguments) {
		in := args.Get(1).(*sns.PublishBatchInput)
		assert.Equal(t, "topic-arn", aws.ToString(in.TopicArn))
		sizes = append(sizes, len(in.PublishBatchRequestEntries))
	})

	err := NewSNSPublisher(client).PublishBatch(context.Background(), "topic-arn", messages(23))

	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 3}, sizes)
}

func TestSNSPublisher_EntryFieldsAndOrder(t *testing.T) {
	client := new(mockSNS)
	var ids []string
	client.On("PublishBatch", mock.Anything, mock.Anything).Return(&sns.PublishBatchOutput{}, nil).Run(func(args mock.Arguments) {
		for _, e := range args.Get(1).(*sns.PublishBatchInput).PublishBatchRequestEntries {
			ids = append(ids, aws.ToString(e.Id))
			assert.Equal(t, "{}", aws.ToString(e.Message))
		}
	})

	require.NoError(t, NewSNSPublisher(client).PublishBatch(context.Background(), "t", messages(3)))
	assert.Equal(t, []string{"e-0", "e-1", "e-2"}, ids)
}

func TestSNSPublisher_PartialFailure(t *testing.T) {
	client := new(mockSNS)
	client.On("PublishBatch", mock.Anything, mock.Anything).Return(&sns.PublishBatchOutput{
		Failed: []snstypes.BatchResultErrorEntry{{
			Id:      aws.String("e-1"),
			Code:    aws.String("InternalError"),
			Message: aws.String("try again"),
		}},
	}, nil).Once()

	err := NewSNSPublisher(client).PublishBatch(context.Background(), "t", messages(15))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "e-1: InternalError try again")
	client.AssertNumberOfCalls(t, "PublishBatch", 1)
}

func TestSNSPublisher_CallError(t *testing.T) {
	client := new(mockSNS)
	client.On("PublishBatch", mock.Anything, mock.Anything).Return(nil, errors.New("AuthorizationError"))

	err := NewSNSPublisher(client).PublishBatch(context.Background(), "t", messages(1))

	assert.EqualError(t, err, "AuthorizationError")
}

func TestEC2TagReader_FollowsPages(t *testing.T) {
	client := new(mockEC2)
	client.On("DescribeTags", mock.Anything, mock.MatchedBy(func(in *ec2.DescribeTagsInput) bool {
		return in.NextToken == nil
	})).Return(&ec2.DescribeTagsOutput{
		Tags: []ec2types.TagDescription{
			{Key: aws.String("Name"), Value: aws.String("web-1")},
			{Key: aws.String("no-value")},
		},
		NextToken: aws.String("page-2"),
	}, nil).Once()
	client.On("DescribeTags", mock.Anything, mock.MatchedBy(func(in *ec2.DescribeTagsInput) bool {
		return aws.ToString(in.NextToken) == "page-2"
	})).Return(&ec2.DescribeTagsOutput{
		Tags: []ec2types.TagDescription{{Key: aws.String("install-drs-agent"), Value: aws.String("true")}},
	}, nil).Once()

	tags, err := NewEC2TagReader(client).DescribeTags(context.Background(), "i-1")

	require.NoError(t, err)
	assert.Equal(t, []trail.Tag{
		{Key: "Name", Value: "web-1"},
		{Key: "install-drs-agent", Value: "true"},
	}, tags)

	in := client.Calls[0].Arguments.Get(1).(*ec2.DescribeTagsInput)
	require.Len(t, in.Filters, 1)
	assert.Equal(t, "resource-id", aws.ToString(in.Filters[0].Name))
	assert.Equal(t, []string{"i-1"}, in.Filters[0].Values)
}

func TestEC2TagReader_Error(t *testing.T) {
	client := new(mockEC2)
	client.On("DescribeTags", mock.Anything, mock.Anything).Return(nil, errors.New("RequestLimitExceeded"))

	_, err := NewEC2TagReader(client).DescribeTags(context.Background(), "i-1")

	assert.Error(t, err)
}

func TestSSMSender_SendCommand(t *testing.T) {
	client := new(mockSSM)
	client.On("SendCommand", mock.Anything, mock.MatchedBy(func(in *ssm.SendCommandInput) bool {
		return aws.ToString(in.DocumentName) == "install-drs-agent" &&
			len(in.InstanceIds) == 1 && in.InstanceIds[0] == "i-1" &&
			in.DocumentVersion == nil &&
			aws.ToString(in.Comment) == "trailtrigger event e-1"
	})).Return(&ssm.SendCommandOutput{Command: &ssmtypes.Command{CommandId: aws.String("cmd-1")}}, nil)

	id, err := NewSSMSender(client).SendCommand(context.Background(), trail.DispatchTarget{
		InstanceID:   "i-1",
		DocumentName: "install-drs-agent",
		Comment:      "trailtrigger event e-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "cmd-1", id)
}

func TestSSMSender_Error(t *testing.T) {
	client := new(mockSSM)
	client.On("SendCommand", mock.Anything, mock.Anything).Return(nil, errors.New("InvalidInstanceId"))

	_, err := NewSSMSender(client).SendCommand(context.Background(), trail.DispatchTarget{InstanceID: "i-1", DocumentName: "d", DocumentVersion: "1"})

	assert.EqualError(t, err, "InvalidInstanceId")
}
