package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/smithy-go"

	"github.com/frameextractor/frameextractor/internal/server/config"
)

// ensureAccountsTable creates the identity-directory table if it does
// not exist yet and waits until it is usable.
func ensureAccountsTable(ctx context.Context, client *dynamodb.Client, table string) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err == nil {
		return nil
	}
	var notFound *ddbtypes.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table %s: %w", table, err)
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []ddbtypes.AttributeDefinition{
			{AttributeName: aws.String("username"), AttributeType: ddbtypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbtypes.KeySchemaElement{
			{AttributeName: aws.String("username"), KeyType: ddbtypes.KeyTypeHash},
		},
		BillingMode: ddbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", table, err)
	}

	return nil
}

// ensureArchiveBucket creates the archive bucket if absent and enables
// versioning on it either way.
func ensureArchiveBucket(ctx context.Context, client *s3.Client, cfg *config.Config) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.S3Bucket)})
	if err != nil {
		var apiErr smithy.APIError
		if !errors.As(err, &apiErr) {
			return fmt.Errorf("head bucket %s: %w", cfg.S3Bucket, err)
		}
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
		default:
			return fmt.Errorf("head bucket %s: %w", cfg.S3Bucket, err)
		}

		in := &s3.CreateBucketInput{Bucket: aws.String(cfg.S3Bucket)}
		if cfg.AWSRegion != "" && cfg.AWSRegion != "us-east-1" {
			in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
				LocationConstraint: s3types.BucketLocationConstraint(cfg.AWSRegion),
			}
		}
		if _, err := client.CreateBucket(ctx, in); err != nil {
			return fmt.Errorf("create bucket %s: %w", cfg.S3Bucket, err)
		}
	}

	_, err = client.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
		Bucket: aws.String(cfg.S3Bucket),
		VersioningConfiguration: &s3types.VersioningConfiguration{
			Status: s3types.BucketVersioningStatusEnabled,
		},
	})
	if err != nil {
		return fmt.Errorf("enable versioning on %s: %w", cfg.S3Bucket, err)
	}

	return nil
}

// ensureSenderIdentity starts sender verification if the configured
// address is not verified yet. Verification completes out of band, so
// the first emails after a cold bootstrap may be rejected until the
// address is confirmed.
func ensureSenderIdentity(ctx context.Context, client *ses.Client, sender string) error {
	out, err := client.ListVerifiedEmailAddresses(ctx, &ses.ListVerifiedEmailAddressesInput{})
	if err != nil {
		return fmt.Errorf("list verified senders: %w", err)
	}
	for _, addr := range out.VerifiedEmailAddresses {
		if addr == sender {
			return nil
		}
	}

	if _, err := client.VerifyEmailIdentity(ctx, &ses.VerifyEmailIdentityInput{
		EmailAddress: aws.String(sender),
	}); err != nil {
		return fmt.Errorf("verify sender %s: %w", sender, err)
	}

	return nil
}
