package dynamodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"workspacediff/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const table = "elements"

type MockBatchGetAPI struct {
	mock.Mock
}

func (m *MockBatchGetAPI) BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.BatchGetItemOutput), args.Error(1)
}

func newStore(client BatchGetAPI) *ElementStore {
	return &ElementStore{client: client, tableName: table, logger: zap.NewNop(), backoff: 0}
}

func item(t *testing.T, e elementItem) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(e)
	require.NoError(t, err)
	return av
}

func keyCount(n int) interface{} {
	return mock.MatchedBy(func(in *dynamodb.BatchGetItemInput) bool {
		return len(in.RequestItems[table].Keys) == n
	})
}

func TestElementStore_Vertices(t *testing.T) {
	client := &MockBatchGetAPI{}
	client.On("BatchGetItem", mock.Anything, keyCount(2)).Return(&dynamodb.BatchGetItemOutput{
		Responses: map[string][]map[string]types.AttributeValue{
			table: {item(t, elementItem{PK: "WORKSPACE#ws", SK: "VERTEX#v1", EntityType: "VERTEX", ElementID: "v1", Title: "Alice", ConceptType: "person"})},
		},
	}, nil)

	records, err := newStore(client).Vertices(context.Background(), "ws", []string{"v1", "v2"})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "Alice", records[0].Title)
	assert.Equal(t, "person", records[0].ConceptType)
}

func TestElementStore_ChunksAndRetries(t *testing.T) {
	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("e%d", i)
	}
	unprocessed := []map[string]types.AttributeValue{item(t, elementItem{PK: "WORKSPACE#ws", SK: "EDGE#e7"})}

	client := &MockBatchGetAPI{}
	client.On("BatchGetItem", mock.Anything, keyCount(100)).Return(&dynamodb.BatchGetItemOutput{
		UnprocessedKeys: map[string]types.KeysAndAttributes{table: {Keys: unprocessed}},
	}, nil).Once()
	client.On("BatchGetItem", mock.Anything, keyCount(1)).Return(&dynamodb.BatchGetItemOutput{
		Responses: map[string][]map[string]types.AttributeValue{
			table: {item(t, elementItem{ElementID: "e7", Label: "knows", OutVertexID: "v1", InVertexID: "v2"})},
		},
	}, nil).Once()
	client.On("BatchGetItem", mock.Anything, keyCount(50)).Return(&dynamodb.BatchGetItemOutput{}, nil).Once()

	records, err := newStore(client).Edges(context.Background(), "ws", ids)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "knows", records[0].Label)
	client.AssertNumberOfCalls(t, "BatchGetItem", 3)
}

func TestElementStore_Error(t *testing.T) {
	client := &MockBatchGetAPI{}
	client.On("BatchGetItem", mock.Anything, mock.Anything).Return(nil, stderrors.New("throttled"))

	_, err := newStore(client).Vertices(context.Background(), "ws", []string{"v1"})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))
}

func TestElementStore_NoIDs(t *testing.T) {
	client := &MockBatchGetAPI{}

	records, err := newStore(client).Edges(context.Background(), "ws", nil)

	require.NoError(t, err)
	assert.Empty(t, records)
	client.AssertNotCalled(t, "BatchGetItem", mock.Anything, mock.Anything)
}

func TestElementStore_ProjectsDisplayAttributes(t *testing.T) {
	client := &MockBatchGetAPI{}
	client.On("BatchGetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.BatchGetItemInput) bool {
		req := in.RequestItems[table]
		return req.ProjectionExpression != nil && len(req.ExpressionAttributeNames) == 7
	})).Return(&dynamodb.BatchGetItemOutput{}, nil)

	store := NewElementStore(client, table, zap.NewNop())
	records, err := store.Edges(context.Background(), "ws", []string{"e1"})
	require.NoError(t, err)

	assert.Empty(t, records)
	client.AssertExpectations(t)
}
