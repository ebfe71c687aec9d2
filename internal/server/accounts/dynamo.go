package accounts

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/frameextractor/frameextractor/internal/common"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoRepository.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRepository implements the identity directory on a DynamoDB table
// keyed by username. The fingerprint lookup is a full-table filter scan;
// acceptable at this system's expected scale.
type DynamoRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoRepository(client DynamoAPI, table string) *DynamoRepository {
	return &DynamoRepository{client: client, table: table}
}

func (r *DynamoRepository) Put(ctx context.Context, account *Account) error {
	item, err := attributevalue.MarshalMap(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put account %s: %w", account.Username, err)
	}

	return nil
}

func (r *DynamoRepository) Get(ctx context.Context, username string) (*Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"username": &types.AttributeValueMemberS{Value: username},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", username, err)
	}
	if out.Item == nil {
		return nil, common.ErrNotFound
	}

	account := &Account{}
	if err := attributevalue.UnmarshalMap(out.Item, account); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}

	return account, nil
}

func (r *DynamoRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*Account, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.table),
		FilterExpression: aws.String("email_hash = :fp"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fp": &types.AttributeValueMemberS{Value: fingerprint},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scan by fingerprint: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, common.ErrNotFound
	}

	account := &Account{}
	if err := attributevalue.UnmarshalMap(out.Items[0], account); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}

	return account, nil
}

func (r *DynamoRepository) List(ctx context.Context) ([]*Account, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
	})
	if err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}

	var result []*Account
	for _, item := range out.Items {
		account := &Account{}
		if err := attributevalue.UnmarshalMap(item, account); err != nil {
			return nil, fmt.Errorf("unmarshal account: %w", err)
		}
		result = append(result, account)
	}

	return result, nil
}
