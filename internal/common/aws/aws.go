// internal/common/aws/aws.go
// Package aws holds the thin SES and SNS clients behind the critical-risk
// alert notifier. Credentials come from the default chain; the alerts
// config only chooses the region.
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

func regionConfig(ctx context.Context, region string) (awssdk.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}
