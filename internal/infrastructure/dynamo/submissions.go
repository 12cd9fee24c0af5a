package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-video-intake/internal/domain"
)

// PutItemAPI is the slice of the DynamoDB client the submission repo needs.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// SubmissionRepo records recent submissions with a conditional put.
// PK: submission_key. expires_at is the TTL attribute (Unix seconds).
type SubmissionRepo struct {
	client    PutItemAPI
	tableName string
	now       func() time.Time
}

func NewSubmissionRepo(client PutItemAPI, tableName string) *SubmissionRepo {
	return &SubmissionRepo{client: client, tableName: tableName, now: time.Now}
}

// Claim returns false when a live record for key already exists.
func (r *SubmissionRepo) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := r.now().UTC()
	item, err := attributevalue.MarshalMap(domain.RecentSubmission{
		Key:         key,
		SubmittedAt: now,
		ExpiresAt:   now.Add(ttl).Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal recent submission: %w", err)
	}
	cond, values := claimCondition(now)
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeValues: values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: put recent submission: %w", domain.ErrStoreUnavailable, err)
	}
	return true, nil
}
