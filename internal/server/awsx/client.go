// Package awsx builds the AWS service clients from server configuration.
// All clients use static credentials and an overridable base endpoint so
// local stacks (MinIO, DynamoDB Local, LocalStack) work unchanged.
package awsx

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"

	"github.com/frameextractor/frameextractor/internal/server/config"
)

func load(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
}

func NewS3(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	ac, err := load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(ac, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewDynamo(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	ac, err := load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(ac, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	}), nil
}

func NewSES(ctx context.Context, cfg *config.Config) (*ses.Client, error) {
	ac, err := load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ses.NewFromConfig(ac, func(o *ses.Options) {
		if cfg.SESEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.SESEndpoint)
		}
	}), nil
}
