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

// Attribute names used in todo update expressions.
const (
	fieldText          = "text"
	fieldCompleted     = "completed"
	fieldAttachmentKey = "attachment_key"
)

// TodoRepo stores todo items in the owning user's partition
// (SK: TODO#<todo_id>).
type TodoRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTodoRepo(client *dynamodb.Client, tableName string) *TodoRepo {
	return &TodoRepo{client: client, tableName: tableName}
}

func (r *TodoRepo) Put(ctx context.Context, t *domain.Todo) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal todo: %w", err)
	}
	item[attrPK] = &types.AttributeValueMemberS{Value: userPK(t.UserEmail)}
	item[attrSK] = &types.AttributeValueMemberS{Value: todoSK(t.TodoID)}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if conditionFailed(err) {
		return fmt.Errorf("todo already exists: %w", domain.ErrConflict)
	}
	return err
}

func (r *TodoRepo) Get(ctx context.Context, email, todoID string) (*domain.Todo, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(userPK(email), todoSK(todoID)),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("todo not found: %w", domain.ErrNotFound)
	}
	var t domain.Todo
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByEmail returns all todos for the user, newest first (ULID sort keys
// order by creation time).
func (r *TodoRepo) ListByEmail(ctx context.Context, email string) ([]domain.Todo, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(email)},
			":prefix": &types.AttributeValueMemberS{Value: todoPrefix},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var todos []domain.Todo
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// Update applies a partial update and returns the new state of the item.
// Returns domain.ErrNotFound when the todo does not exist.
func (r *TodoRepo) Update(ctx context.Context, email, todoID string, updates map[string]interface{}) (*domain.Todo, error) {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey(userPK(email), todoSK(todoID)),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ConditionExpression:       aws.String("attribute_exists(PK) AND attribute_exists(SK)"),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if conditionFailed(err) {
		return nil, fmt.Errorf("todo not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var t domain.Todo
	if err := attributevalue.UnmarshalMap(out.Attributes, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TodoRepo) Delete(ctx context.Context, email, todoID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey(userPK(email), todoSK(todoID)),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if conditionFailed(err) {
		return fmt.Errorf("todo not found: %w", domain.ErrNotFound)
	}
	return err
}
