package store

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo understands just the access patterns DynamoEventStore uses.
// Query results are paged two items at a time to exercise pagination.
type fakeDynamo struct {
	mu        sync.Mutex
	events    []dynamoEvent
	snapshots map[string]map[string]types.AttributeValue

	QueryCalls    int
	FailCondition bool
}

const fakePageSize = 2

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{snapshots: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if aws.ToString(in.TableName) == "snapshots" {
		var s dynamoSnapshot
		if err := attributevalue.UnmarshalMap(in.Item, &s); err != nil {
			return nil, err
		}
		f.snapshots[s.AggregateID] = in.Item
		return &dynamodb.PutItemOutput{}, nil
	}

	var e dynamoEvent
	if err := attributevalue.UnmarshalMap(in.Item, &e); err != nil {
		return nil, err
	}
	if f.FailCondition {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("raced")}
	}
	for _, existing := range f.events {
		if existing.AggregateID == e.AggregateID && existing.Version == e.Version {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	}
	f.events = append(f.events, e)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := in.Key["aggregate_id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.snapshots[id]}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueryCalls++

	var matched []dynamoEvent
	values := in.ExpressionAttributeValues
	if _, ok := values[":pk"]; ok {
		matched = slices.Clone(f.events)
	} else {
		aid := values[":aid"].(*types.AttributeValueMemberS).Value
		after := -1
		if v, ok := values[":ver"]; ok {
			after, _ = strconv.Atoi(v.(*types.AttributeValueMemberN).Value)
		}
		for _, e := range f.events {
			if e.AggregateID == aid && e.Version > after {
				matched = append(matched, e)
			}
		}
		slices.SortFunc(matched, func(a, b dynamoEvent) int { return a.Version - b.Version })
	}
	if in.ScanIndexForward != nil && !*in.ScanIndexForward {
		slices.Reverse(matched)
	}
	if in.Limit != nil && int(*in.Limit) < len(matched) {
		matched = matched[:*in.Limit]
	}

	start := 0
	if k, ok := in.ExclusiveStartKey["offset"]; ok {
		start, _ = strconv.Atoi(k.(*types.AttributeValueMemberN).Value)
	}
	end := min(start+fakePageSize, len(matched))

	out := &dynamodb.QueryOutput{}
	for _, e := range matched[start:end] {
		item, err := attributevalue.MarshalMap(e)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, item)
	}
	if end < len(matched) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}
	return out, nil
}

func newTestDynamoStore() (*DynamoEventStore, *fakeDynamo) {
	fake := newFakeDynamo()
	return NewDynamoEventStore(fake, "events", "snapshots"), fake
}

func TestDynamoEventStore_AppendAndRead(t *testing.T) {
	es, _ := newTestDynamoStore()
	ctx := context.Background()

	for v := 0; v < 5; v++ {
		e, err := es.Append(ctx, "p-1", "Product", "ProductUpdated", v, testPayload{Name: "v" + strconv.Itoa(v)})
		require.NoError(t, err)
		assert.Equal(t, v+1, e.Version)
	}

	events, err := es.Events(ctx, "p-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 5, "all pages must be read")
	assert.Equal(t, 1, events[0].Version)
	assert.JSONEq(t, `{"name":"v4"}`, string(events[4].Data))

	tail, err := es.Events(ctx, "p-1", 3)
	require.NoError(t, err)
	assert.Len(t, tail, 2)
}

func TestDynamoEventStore_Append_VersionConflict(t *testing.T) {
	es, fake := newTestDynamoStore()
	ctx := context.Background()
	_, err := es.Append(ctx, "p-1", "Product", "ProductCreated", 0, testPayload{})
	require.NoError(t, err)

	_, err = es.Append(ctx, "p-1", "Product", "ProductUpdated", 0, testPayload{})
	assert.ErrorIs(t, err, ErrVersionConflict)

	// A writer that read the version before another write landed loses on the condition.
	fake.FailCondition = true
	_, err = es.Append(ctx, "p-1", "Product", "ProductUpdated", 1, testPayload{})
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestDynamoEventStore_AllEvents(t *testing.T) {
	es, _ := newTestDynamoStore()
	ctx := context.Background()
	_, _ = es.Append(ctx, "a", "Product", "ProductCreated", 0, testPayload{})
	_, _ = es.Append(ctx, "b", "Product", "ProductCreated", 0, testPayload{})
	_, _ = es.Append(ctx, "a", "Product", "ProductUpdated", 1, testPayload{})

	all, err := es.AllEvents(ctx)

	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDynamoEventStore_Snapshots(t *testing.T) {
	es, _ := newTestDynamoStore()
	ctx := context.Background()

	snap, err := es.LatestSnapshot(ctx, "p-1")
	require.NoError(t, err)
	assert.Nil(t, snap)

	require.NoError(t, es.SaveSnapshot(ctx, &Snapshot{
		AggregateID:   "p-1",
		AggregateType: "Product",
		Version:       10,
		State:         []byte(`{"name":"Ring"}`),
	}))

	snap, err = es.LatestSnapshot(ctx, "p-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 10, snap.Version)
	assert.JSONEq(t, `{"name":"Ring"}`, string(snap.State))
}
