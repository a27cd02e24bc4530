// Package dynamodb implements the TreeStore on DynamoDB. Each user's tree is
// one item: the whole snapshot serialized as a JSON blob. The store never
// inspects the graph, so the item layout stays stable as the engine evolves.
package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"familytree-backend/domain/tree"
	apperrors "familytree-backend/pkg/errors"
	"familytree-backend/pkg/utils"
)

const (
	skTree         = "TREE"
	entityTypeTree = "FAMILY_TREE"
)

// treeItem is the DynamoDB representation of one user's tree
type treeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
	Data       string `dynamodbav:"Data"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

// TreeStore persists snapshots in a single DynamoDB table
type TreeStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewTreeStore creates a DynamoDB-backed TreeStore
func NewTreeStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *TreeStore {
	return &TreeStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Load fetches the user's snapshot, or (nil, nil) when the user has no saved
// tree.
func (s *TreeStore) Load(ctx context.Context, userID string) (*tree.Snapshot, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": userPK(userID),
		"SK": skTree,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal tree key").WithCause(err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseError("load tree", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item treeItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, apperrors.NewDatabaseError("unmarshal tree item", err)
	}

	var snapshot tree.Snapshot
	if err := json.Unmarshal([]byte(item.Data), &snapshot); err != nil {
		return nil, apperrors.NewDatabaseError("decode tree snapshot", err)
	}
	return &snapshot, nil
}

// Save writes the user's snapshot, replacing any previous one
func (s *TreeStore) Save(ctx context.Context, userID string, snapshot *tree.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return apperrors.NewInternalError("failed to encode tree snapshot").WithCause(err)
	}

	item, err := attributevalue.MarshalMap(treeItem{
		PK:         userPK(userID),
		SK:         skTree,
		EntityType: entityTypeTree,
		UserID:     userID,
		Data:       string(data),
		UpdatedAt:  utils.NowRFC3339(),
	})
	if err != nil {
		return apperrors.NewInternalError("failed to marshal tree item").WithCause(err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return apperrors.NewDatabaseError("save tree", err)
	}

	s.logger.Debug("saved tree item",
		zap.String("user_id", userID),
		zap.Int("bytes", len(data)))
	return nil
}

func userPK(userID string) string {
	return fmt.Sprintf("USER#%s", userID)
}
