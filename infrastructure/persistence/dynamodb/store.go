// Package dynamodb implements the PlanStore on a single DynamoDB table
// using the PK/SK single-table layout.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/ports"
	pkgerrors "github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/errors"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/observability"
)

// Store persists plans in DynamoDB. Tracing is optional; a nil tracer
// disables it.
type Store struct {
	client    *dynamodb.Client
	tableName string
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewStore creates a DynamoDB-backed plan store.
func NewStore(client *dynamodb.Client, tableName string, tracer *observability.Tracer, logger *zap.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		tracer:    tracer,
		logger:    logger,
	}
}

// planItem is the DynamoDB representation of a plan.
type planItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	PlanKey    string `dynamodbav:"PlanKey"`
	OwnerID    string `dynamodbav:"OwnerID"`
	Name       string `dynamodbav:"Name"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	Data       []byte `dynamodbav:"Data,omitempty"`
}

func ownerPK(ownerID string) string { return fmt.Sprintf("OWNER#%s", ownerID) }
func planSK(key string) string      { return fmt.Sprintf("PLAN#%s", key) }

// Get retrieves a plan.
func (s *Store) Get(ctx context.Context, ownerID, key string) (*ports.PlanRecord, error) {
	var record *ports.PlanRecord
	err := s.tracer.TraceFunction(ctx, "PlanStore.Get", func(ctx context.Context) error {
		result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: ownerPK(ownerID)},
				"SK": &types.AttributeValueMemberS{Value: planSK(key)},
			},
		})
		if err != nil {
			s.logger.Error("failed to get plan",
				zap.String("planKey", key),
				zap.Error(err))
			return pkgerrors.NewInternalError("failed to get plan", err)
		}
		if result.Item == nil {
			return pkgerrors.NewNotFoundError("plan")
		}

		var item planItem
		if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
			return pkgerrors.NewInternalError("failed to unmarshal plan item", err)
		}
		record = itemToRecord(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Set creates or overwrites a plan.
func (s *Store) Set(ctx context.Context, record *ports.PlanRecord) error {
	return s.tracer.TraceFunction(ctx, "PlanStore.Set", func(ctx context.Context) error {
		item := planItem{
			PK:         ownerPK(record.OwnerID),
			SK:         planSK(record.Key),
			EntityType: "PLAN",
			PlanKey:    record.Key,
			OwnerID:    record.OwnerID,
			Name:       record.Name,
			UpdatedAt:  record.UpdatedAt.UTC().Format(time.RFC3339Nano),
			Data:       record.Data,
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return pkgerrors.NewInternalError("failed to marshal plan item", err)
		}

		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.tableName),
			Item:      av,
		})
		if err != nil {
			s.logger.Error("failed to save plan",
				zap.String("planKey", record.Key),
				zap.Error(err))
			return pkgerrors.NewInternalError("failed to save plan", err)
		}
		return nil
	})
}

// Delete removes a plan.
func (s *Store) Delete(ctx context.Context, ownerID, key string) error {
	return s.tracer.TraceFunction(ctx, "PlanStore.Delete", func(ctx context.Context) error {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: ownerPK(ownerID)},
				"SK": &types.AttributeValueMemberS{Value: planSK(key)},
			},
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return pkgerrors.NewNotFoundError("plan")
			}
			s.logger.Error("failed to delete plan",
				zap.String("planKey", key),
				zap.Error(err))
			return pkgerrors.NewInternalError("failed to delete plan", err)
		}
		return nil
	})
}

// List retrieves all plans of an owner. Document data is omitted from the
// listing to keep responses small.
func (s *Store) List(ctx context.Context, ownerID string) ([]*ports.PlanRecord, error) {
	var records []*ports.PlanRecord
	err := s.tracer.TraceFunction(ctx, "PlanStore.List", func(ctx context.Context) error {
		keyCond := expression.Key("PK").Equal(expression.Value(ownerPK(ownerID))).
			And(expression.Key("SK").BeginsWith("PLAN#"))
		proj := expression.NamesList(
			expression.Name("PlanKey"),
			expression.Name("OwnerID"),
			expression.Name("Name"),
			expression.Name("UpdatedAt"),
		)
		expr, err := expression.NewBuilder().
			WithKeyCondition(keyCond).
			WithProjection(proj).
			Build()
		if err != nil {
			return pkgerrors.NewInternalError("failed to build plan query", err)
		}

		paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				s.logger.Error("failed to list plans",
					zap.String("ownerID", ownerID),
					zap.Error(err))
				return pkgerrors.NewInternalError("failed to list plans", err)
			}
			for _, raw := range page.Items {
				var item planItem
				if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
					return pkgerrors.NewInternalError("failed to unmarshal plan item", err)
				}
				records = append(records, itemToRecord(item))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func itemToRecord(item planItem) *ports.PlanRecord {
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return &ports.PlanRecord{
		Key:       item.PlanKey,
		OwnerID:   item.OwnerID,
		Name:      item.Name,
		UpdatedAt: updatedAt,
		Data:      item.Data,
	}
}
