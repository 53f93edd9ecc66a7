package dynamodb

import (
	"context"
	"fmt"
	"time"

	"workspacediff/application/ports"
	"workspacediff/domain/view"
	"workspacediff/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	// DynamoDB caps BatchGetItem at 100 keys
	batchGetLimit = 100
	maxRetries    = 3
)

// BatchGetAPI is the subset of the DynamoDB client the store uses
type BatchGetAPI interface {
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

// ElementStore resolves full vertex and edge records from a DynamoDB table
// keyed by workspace
type ElementStore struct {
	client    BatchGetAPI
	tableName string
	logger    *zap.Logger
	backoff   time.Duration

	// projection limits reads to the attributes a display record needs
	projection *expression.Expression
}

// NewElementStore creates a new ElementStore
func NewElementStore(client BatchGetAPI, tableName string, logger *zap.Logger) ports.ElementStore {
	store := &ElementStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		backoff:   100 * time.Millisecond,
	}

	proj := expression.NamesList(
		expression.Name("ElementID"),
		expression.Name("EntityType"),
		expression.Name("Title"),
		expression.Name("ConceptType"),
		expression.Name("Label"),
		expression.Name("OutVertexID"),
		expression.Name("InVertexID"),
	)
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		logger.Warn("Failed to build projection, reading full items", zap.Error(err))
	} else {
		store.projection = &expr
	}

	return store
}

func (s *ElementStore) request(keys []map[string]types.AttributeValue) map[string]types.KeysAndAttributes {
	req := types.KeysAndAttributes{Keys: keys}
	if s.projection != nil {
		req.ProjectionExpression = s.projection.Projection()
		req.ExpressionAttributeNames = s.projection.Names()
	}
	return map[string]types.KeysAndAttributes{s.tableName: req}
}

// elementItem represents the DynamoDB item structure for a vertex or edge
type elementItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	ElementID   string `dynamodbav:"ElementID"`
	Title       string `dynamodbav:"Title,omitempty"`
	ConceptType string `dynamodbav:"ConceptType,omitempty"`
	Label       string `dynamodbav:"Label,omitempty"`
	OutVertexID string `dynamodbav:"OutVertexID,omitempty"`
	InVertexID  string `dynamodbav:"InVertexID,omitempty"`
}

type keyItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
}

func workspaceKey(workspaceID string) string {
	return fmt.Sprintf("WORKSPACE#%s", workspaceID)
}

func elementKey(entityType, id string) string {
	return fmt.Sprintf("%s#%s", entityType, id)
}

// Vertices fetches vertex records
func (s *ElementStore) Vertices(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error) {
	return s.batchGet(ctx, workspaceID, "VERTEX", ids)
}

// Edges fetches edge records
func (s *ElementStore) Edges(ctx context.Context, workspaceID string, ids []string) ([]view.ElementRecord, error) {
	return s.batchGet(ctx, workspaceID, "EDGE", ids)
}

func (s *ElementStore) batchGet(ctx context.Context, workspaceID, entityType string, ids []string) ([]view.ElementRecord, error) {
	if len(ids) == 0 {
		return []view.ElementRecord{}, nil
	}

	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		key, err := attributevalue.MarshalMap(keyItem{
			PK: workspaceKey(workspaceID),
			SK: elementKey(entityType, id),
		})
		if err != nil {
			return nil, errors.NewStorageError("marshal key", err)
		}
		keys = append(keys, key)
	}

	records := make([]view.ElementRecord, 0, len(ids))
	for i := 0; i < len(keys); i += batchGetLimit {
		end := i + batchGetLimit
		if end > len(keys) {
			end = len(keys)
		}

		chunk, err := s.batchGetChunk(ctx, keys[i:end])
		if err != nil {
			return records, err
		}
		records = append(records, chunk...)
	}

	s.logger.Debug("Fetched element records",
		zap.String("workspaceID", workspaceID),
		zap.String("entityType", entityType),
		zap.Int("requested", len(ids)),
		zap.Int("found", len(records)),
	)

	return records, nil
}

// batchGetChunk processes a single chunk of keys, retrying unprocessed keys
// with exponential backoff
func (s *ElementStore) batchGetChunk(ctx context.Context, keys []map[string]types.AttributeValue) ([]view.ElementRecord, error) {
	input := &dynamodb.BatchGetItemInput{RequestItems: s.request(keys)}

	var records []view.ElementRecord
	for retry := 0; ; retry++ {
		output, err := s.client.BatchGetItem(ctx, input)
		if err != nil {
			return records, errors.NewStorageError("BatchGetItem", err)
		}

		for _, raw := range output.Responses[s.tableName] {
			var item elementItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				s.logger.Warn("Failed to parse element item", zap.Error(err))
				continue
			}
			records = append(records, view.ElementRecord{
				ID:          item.ElementID,
				Title:       item.Title,
				ConceptType: item.ConceptType,
				Label:       item.Label,
				OutVertexID: item.OutVertexID,
				InVertexID:  item.InVertexID,
			})
		}

		unprocessed := output.UnprocessedKeys[s.tableName].Keys
		if len(unprocessed) == 0 {
			return records, nil
		}
		if retry >= maxRetries {
			s.logger.Warn("Max retries exceeded for batch get", zap.Int("unprocessed", len(unprocessed)))
			return records, nil
		}

		select {
		case <-ctx.Done():
			return records, errors.NewTimeoutError("BatchGetItem").WithCause(ctx.Err())
		case <-time.After(time.Duration(1<<retry) * s.backoff):
		}

		input.RequestItems = s.request(unprocessed)
	}
}
