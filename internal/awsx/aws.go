// Package awsx wraps the AWS SDK clients used by nuoactl: CloudFormation
// export resolution, Lambda listing/updating, S3 bundle sync, CloudWatch log
// fetching, DynamoDB version bumps, and resource detection. Every client is
// consumed through a narrow interface so the workflows above it are testable.
package awsx

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// LoadConfig resolves an aws.Config for the given shared-config profile and
// optional region override.
func LoadConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithSharedConfigProfile(profile),
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config for profile %q: %w", profile, err)
	}
	return cfg, nil
}
