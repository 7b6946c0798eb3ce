package awsx

import (
	"context"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

type SSMAPI interface {
	SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)
}

type ssmSender struct {
	client SSMAPI
}

func NewSSMSender(client SSMAPI) trail.CommandSender {
	return &ssmSender{client: client}
}

func (s *ssmSender) SendCommand(ctx context.Context, target trail.DispatchTarget) (string, error) {
	input := &ssm.SendCommandInput{
		DocumentName: aws.String(target.DocumentName),
		InstanceIds:  []string{target.InstanceID},
	}
	if target.DocumentVersion != "" {
		input.DocumentVersion = aws.String(target.DocumentVersion)
	}
	if target.Comment != "" {
		input.Comment = aws.String(target.Comment)
	}

	out, err := s.client.SendCommand(ctx, input)
	if err != nil {
		return "", err
	}
	if out.Command == nil {
		return "", nil
	}
	return aws.ToString(out.Command.CommandId), nil
}
