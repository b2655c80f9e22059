package store

import (
	"context"
	"fmt"
	"strconv"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// DefaultTableName is the table used by the original deployment.
const DefaultTableName = "Products"

const keyAttribute = "product_id"

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore implements ProductStore on a DynamoDB table keyed by product_id.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore creates a ProductStore backed by the given table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  table,
	}
}

// NewDynamoClient creates a DynamoDB client; a non-empty endpoint targets DynamoDB Local or LocalStack.
func NewDynamoClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// dynamoItem is the attribute layout of a product row.
type dynamoItem struct {
	ProductID   string      `dynamodbav:"product_id"`
	Name        string      `dynamodbav:"name"`
	Description string      `dynamodbav:"description"`
	Price       dynamoPrice `dynamodbav:"price"`
	Category    string      `dynamodbav:"category"`
	Stock       dynamoStock `dynamodbav:"stock"`
	ImageURL    string      `dynamodbav:"image_url"`
}

// Put writes the product item.
func (s *DynamoStore) Put(ctx context.Context, product Product) error {
	item, err := attributevalue.MarshalMap(toDynamoItem(product))
	if err != nil {
		return fmt.Errorf("%w: failed to marshal product %s: %w", perrors.ErrRecordWrite, product.ProductID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to put product %s: %w", perrors.ErrRecordWrite, product.ProductID, err)
	}
	return nil
}

// Get reads the product with a strongly consistent read.
// Returns ErrProductNotFound if no item exists with the given ID.
func (s *DynamoStore) Get(ctx context.Context, id string) (*Product, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            productKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, perrors.ErrProductNotFound
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product %s: %w", id, err)
	}
	product := item.toProduct()
	return &product, nil
}

// Scan reads the whole table, following LastEvaluatedKey until the last page.
func (s *DynamoStore) Scan(ctx context.Context) ([]Product, error) {
	products := make([]Product, 0)
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan products: %w", err)
		}
		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal products: %w", err)
		}
		for _, item := range items {
			products = append(products, item.toProduct())
		}
	}
	return products, nil
}

// Delete removes the item. DynamoDB treats deleting a missing key as success.
func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       productKey(id),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete product %s: %w", perrors.ErrRecordDelete, id, err)
	}
	return nil
}

func productKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

func toDynamoItem(p Product) dynamoItem {
	return dynamoItem{
		ProductID:   p.ProductID,
		Name:        p.Name,
		Description: p.Description,
		Price:       dynamoPrice{p.Price},
		Category:    p.Category,
		Stock:       dynamoStock(p.Stock),
		ImageURL:    p.ImageURL,
	}
}

func (i dynamoItem) toProduct() Product {
	return Product{
		ProductID:   i.ProductID,
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price.Decimal,
		Category:    i.Category,
		Stock:       int32(i.Stock),
		ImageURL:    i.ImageURL,
	}
}

// dynamoPrice is written as a DynamoDB number. Rows written by the legacy service
// hold the raw form string, so string attributes are accepted on read.
type dynamoPrice struct {
	decimal.Decimal
}

func (p dynamoPrice) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: p.Decimal.String()}, nil
}

func (p *dynamoPrice) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	raw, err := numericText(av)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if raw == "" {
		p.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	p.Decimal = d
	return nil
}

// dynamoStock is written as a DynamoDB number and, like dynamoPrice, tolerates legacy strings.
type dynamoStock int32

func (s dynamoStock) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(s), 10)}, nil
}

func (s *dynamoStock) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	raw, err := numericText(av)
	if err != nil {
		return fmt.Errorf("stock: %w", err)
	}
	if raw == "" {
		*s = 0
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("stock: %w", err)
	}
	*s = dynamoStock(v)
	return nil
}

func numericText(av types.AttributeValue) (string, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		return v.Value, nil
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberNULL:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported attribute type %T", av)
	}
}
