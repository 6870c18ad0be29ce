package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/minimalist-todo/api/internal/domain"
)

// VerificationRepo stores one-time codes in the owning user's partition,
// one item per issuance (SK: VERIFICATION#<code_id>), so multiple codes can
// be outstanding at once. The table's TTL on expires_at reaps stale items.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, v *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	item[attrPK] = &types.AttributeValueMemberS{Value: userPK(v.Email)}
	item[attrSK] = &types.AttributeValueMemberS{Value: verificationSK(v.CodeID)}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListByEmail returns up to limit codes for the email, newest first.
// ULID code ids sort by issuance time, so descending SK order is
// most-recent-first.
func (r *VerificationRepo) ListByEmail(ctx context.Context, email string, limit int32) ([]domain.VerificationCode, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(email)},
			":prefix": &types.AttributeValueMemberS{Value: verificationPrefix},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var codes []domain.VerificationCode
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// Delete removes a spent code. The existence condition makes consumption
// exclusive: if two requests race on the same code, only one delete succeeds
// and the loser gets domain.ErrNotFound.
func (r *VerificationRepo) Delete(ctx context.Context, email, codeID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey(userPK(email), verificationSK(codeID)),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if conditionFailed(err) {
		return fmt.Errorf("verification code already consumed: %w", domain.ErrNotFound)
	}
	return err
}
