package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo is an in-process table that pages Scan results pageSize items at a time.
type fakeDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	err      error
	puts     []*dynamodb.PutItemInput
	deletes  []*dynamodb.DeleteItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}, pageSize: 2}
}

func keyOf(key map[string]types.AttributeValue) string {
	return key[keyAttribute].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	if f.err != nil {
		return nil, f.err
	}
	f.items[keyOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, in)
	if f.err != nil {
		return nil, f.err
	}
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if len(in.ExclusiveStartKey) > 0 {
		after := keyOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(keys, after) + 1
	}
	end := min(start+f.pageSize, len(keys))

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = productKey(keys[end-1])
	}
	return out, nil
}

func Test_DynamoStore_PutGet(t *testing.T) {
	// given
	ctx := context.Background()
	fake := newFakeDynamo()
	s := NewDynamoStore(fake, "Products")
	pen := Product{ProductID: "p-1", Name: "Pen", Description: "Blue ink", Price: decimal.RequireFromString("1.5"), Category: "Stationery", Stock: 100}

	// when
	require.NoError(t, s.Put(ctx, pen))
	got, err := s.Get(ctx, "p-1")

	// then
	require.NoError(t, err)
	assert.Equal(t, "Products", aws.ToString(fake.puts[0].TableName))
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1.5"}, fake.puts[0].Item["price"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "100"}, fake.puts[0].Item["stock"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: ""}, fake.puts[0].Item["image_url"])
	assert.True(t, pen.Price.Equal(got.Price))
	got.Price = pen.Price
	assert.Equal(t, pen, *got)
}

func Test_DynamoStore_GetMissing(t *testing.T) {
	s := NewDynamoStore(newFakeDynamo(), "Products")

	got, err := s.Get(context.Background(), "nope")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, perrors.ErrProductNotFound)
}

func Test_DynamoStore_GetLegacyStringAttributes(t *testing.T) {
	// given: a row written by the legacy service, which stored raw form strings
	fake := newFakeDynamo()
	fake.items["legacy"] = map[string]types.AttributeValue{
		"product_id":  &types.AttributeValueMemberS{Value: "legacy"},
		"name":        &types.AttributeValueMemberS{Value: "Mug"},
		"description": &types.AttributeValueMemberS{Value: "Ceramic"},
		"price":       &types.AttributeValueMemberS{Value: "7.25"},
		"category":    &types.AttributeValueMemberS{Value: "Kitchen"},
		"stock":       &types.AttributeValueMemberS{Value: "12"},
		"image_url":   &types.AttributeValueMemberS{Value: "https://bucket.s3.amazonaws.com/t-mug.png"},
	}
	s := NewDynamoStore(fake, "Products")

	// when
	got, err := s.Get(context.Background(), "legacy")

	// then
	require.NoError(t, err)
	assert.Equal(t, "7.25", got.Price.String())
	assert.Equal(t, int32(12), got.Stock)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/t-mug.png", got.ImageURL)
}

func Test_DynamoStore_ScanAllPages(t *testing.T) {
	// given
	ctx := context.Background()
	fake := newFakeDynamo()
	s := NewDynamoStore(fake, "Products")
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.Put(ctx, Product{ProductID: id, Price: decimal.NewFromInt(1)}))
	}

	// when
	list, err := s.Scan(ctx)

	// then
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ProductID)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, ids)
}

func Test_DynamoStore_ScanEmpty(t *testing.T) {
	list, err := NewDynamoStore(newFakeDynamo(), "Products").Scan(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func Test_DynamoStore_Errors(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("throttled")
	fake := newFakeDynamo()
	fake.err = errBoom
	s := NewDynamoStore(fake, "Products")

	err := s.Put(ctx, Product{ProductID: "p-1"})
	assert.ErrorIs(t, err, perrors.ErrRecordWrite)
	assert.ErrorIs(t, err, errBoom)

	err = s.Delete(ctx, "p-1")
	assert.ErrorIs(t, err, perrors.ErrRecordDelete)
	assert.ErrorIs(t, err, errBoom)

	_, err = s.Get(ctx, "p-1")
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, perrors.ErrProductNotFound)

	_, err = s.Scan(ctx)
	assert.ErrorIs(t, err, errBoom)
}

func Test_DynamoStore_DeleteMissingIsNoop(t *testing.T) {
	fake := newFakeDynamo()
	s := NewDynamoStore(fake, "Products")

	require.NoError(t, s.Delete(context.Background(), "nope"))
	assert.Len(t, fake.deletes, 1)
}
