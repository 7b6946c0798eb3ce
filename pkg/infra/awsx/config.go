package awsx

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/TrailTrigger/pkg/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"
)

// LoadConfig resolves the SDK configuration from the default chain (the Lambda
// execution role in production). When a role ARN is configured the resolved
// credentials are used to assume it, which lets one deployment act on another
// account's instances.
func LoadConfig(ctx context.Context, cfg config.AWSConfig, logger *logrus.Logger) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logger.WithError(err).Error("failed to load AWS config")
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	if cfg.RoleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(awsCfg), cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = cfg.RoleSessionName
		})
		awsCfg.Credentials = aws.NewCredentialsCache(provider)
		logger.WithField("role_arn", cfg.RoleARN).Info("assuming role for AWS calls")
	}

	return awsCfg, nil
}
