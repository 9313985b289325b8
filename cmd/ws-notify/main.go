// Package main implements the plan-change notification Lambda. It consumes
// plan lifecycle events from EventBridge and pushes them to the owner's
// connected WebSocket clients.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var dynamoClient *dynamodb.Client

// PlanEventDetail is the EventBridge detail payload of plan events.
type PlanEventDetail struct {
	PlanKey string `json:"plan_key"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name,omitempty"`
}

// ClientMessage is the message format pushed to WebSocket clients.
type ClientMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	PlanKey   string `json:"planKey"`
	Name      string `json:"name,omitempty"`
}

func init() {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	dynamoClient = dynamodb.NewFromConfig(cfg)
	log.Println("Plan notification handler initialized")
}

func connectionsTable() string {
	if table := os.Getenv("CONNECTIONS_TABLE"); table != "" {
		return table
	}
	return "architect-connections"
}

// newAPIGatewayClient creates a management client for the given endpoint.
func newAPIGatewayClient(endpoint string) *apigatewaymanagementapi.Client {
	cfg, _ := config.LoadDefaultConfig(context.Background())
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
}

// connectionsForOwner retrieves the owner's active connection ids.
func connectionsForOwner(ctx context.Context, ownerID string) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(connectionsTable()),
		IndexName:              aws.String("owner-index"),
		KeyConditionExpression: aws.String("GSI1PK = :ownerpk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ownerpk": &types.AttributeValueMemberS{Value: fmt.Sprintf("OWNER#%s", ownerID)},
		},
	}

	result, err := dynamoClient.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	var connectionIDs []string
	for _, item := range result.Items {
		if connID, ok := item["ConnectionID"].(*types.AttributeValueMemberS); ok {
			connectionIDs = append(connectionIDs, connID.Value)
		}
	}
	return connectionIDs, nil
}

// sendToConnection pushes a message to one connection, pruning it when the
// connection has gone away.
func sendToConnection(ctx context.Context, apiClient *apigatewaymanagementapi.Client, connectionID string, message []byte) error {
	_, err := apiClient.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         message,
	})
	if err != nil {
		var goneErr *apigwTypes.GoneException
		if errors.As(err, &goneErr) {
			log.Printf("Connection %s is gone, removing", connectionID)
			removeStaleConnection(ctx, connectionID)
			return nil
		}
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func removeStaleConnection(ctx context.Context, connectionID string) {
	_, err := dynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(connectionsTable()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		log.Printf("Failed to remove stale connection %s: %v", connectionID, err)
	}
}

// Handler consumes one EventBridge event and notifies the plan owner's
// connected clients.
func Handler(ctx context.Context, event events.CloudWatchEvent) error {
	var detail PlanEventDetail
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return fmt.Errorf("failed to parse event detail: %w", err)
	}
	if detail.OwnerID == "" {
		log.Printf("Event %s has no owner, skipping", event.DetailType)
		return nil
	}

	endpoint := os.Getenv("WEBSOCKET_ENDPOINT")
	if endpoint == "" {
		return errors.New("WEBSOCKET_ENDPOINT is not configured")
	}

	connectionIDs, err := connectionsForOwner(ctx, detail.OwnerID)
	if err != nil {
		return err
	}
	if len(connectionIDs) == 0 {
		return nil
	}

	message, err := json.Marshal(ClientMessage{
		Type:      event.DetailType,
		Timestamp: time.Now().Unix(),
		PlanKey:   detail.PlanKey,
		Name:      detail.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal client message: %w", err)
	}

	apiClient := newAPIGatewayClient(endpoint)
	failures := 0
	for _, connectionID := range connectionIDs {
		if err := sendToConnection(ctx, apiClient, connectionID, message); err != nil {
			log.Printf("Failed to notify connection %s: %v", connectionID, err)
			failures++
		}
	}
	if failures == len(connectionIDs) {
		return fmt.Errorf("failed to notify all %d connections", failures)
	}
	return nil
}

func main() {
	lambda.Start(Handler)
}
