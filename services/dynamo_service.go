package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"irus/utils"
)

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrAlreadyExists = errors.New("item already exists")
)

const maxBatchSize = 25

// DynamoAPI is the part of the DynamoDB client the repositories use.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoService runs operations against the single invasion table.
type DynamoService struct {
	Client    DynamoAPI
	TableName string
	Logger    *zap.Logger
}

func NewDynamoService(client DynamoAPI, tableName string, log *zap.Logger) *DynamoService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DynamoService{Client: client, TableName: tableName, Logger: log}
}

// LoadAWSConfig loads the default AWS configuration for the region in the environment.
func LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// PutItem marshals and writes an item, overwriting any existing one.
func (ds *DynamoService) PutItem(ctx context.Context, item interface{}) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	ds.Logger.Debug("put item", zap.String("table", ds.TableName), zap.Any("item", marshaledItem))
	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &ds.TableName,
		Item:      marshaledItem,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in table '%s': %w", ds.TableName, err)
	}
	return nil
}

// CreateItem writes an item only when its key is not already present.
func (ds *DynamoService) CreateItem(ctx context.Context, item interface{}) error {
	marshaledItem, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                &ds.TableName,
		Item:                     marshaledItem,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create item in table '%s': %w", ds.TableName, err)
	}
	return nil
}

// GetItem reads one item into out, returning ErrItemNotFound when absent.
func (ds *DynamoService) GetItem(ctx context.Context, partition, id string, out interface{}) error {
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &ds.TableName,
		Key:       utils.StringKey(partition, id),
	})
	if err != nil {
		return fmt.Errorf("failed to get item from table '%s': %w", ds.TableName, err)
	}
	if len(output.Item) == 0 {
		return ErrItemNotFound
	}
	if err := attributevalue.UnmarshalMap(output.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return nil
}

// Query runs a query and follows LastEvaluatedKey until every page is read.
func (ds *DynamoService) Query(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	input.TableName = &ds.TableName

	var items []map[string]types.AttributeValue
	for {
		output, err := ds.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query table '%s': %w", ds.TableName, err)
		}
		items = append(items, output.Items...)
		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
	ds.Logger.Debug("query", zap.String("key", aws.ToString(input.KeyConditionExpression)), zap.Int("items", len(items)))
	return items, nil
}

// QueryItems returns every item in a partition.
func (ds *DynamoService) QueryItems(ctx context.Context, partition string, out interface{}) error {
	items, err := ds.Query(ctx, &dynamodb.QueryInput{
		KeyConditionExpression:   aws.String("#invasion = :partition"),
		ExpressionAttributeNames: map[string]string{"#invasion": "invasion"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":partition": &types.AttributeValueMemberS{Value: partition},
		},
	})
	if err != nil {
		return err
	}
	return unmarshalItems(items, out)
}

// QueryBeginsWith returns the items of a partition whose id starts with prefix.
func (ds *DynamoService) QueryBeginsWith(ctx context.Context, partition, prefix string, out interface{}) error {
	items, err := ds.Query(ctx, &dynamodb.QueryInput{
		KeyConditionExpression:   aws.String("#invasion = :partition AND begins_with(#id, :prefix)"),
		ExpressionAttributeNames: map[string]string{"#invasion": "invasion", "#id": "id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":partition": &types.AttributeValueMemberS{Value: partition},
			":prefix":    &types.AttributeValueMemberS{Value: prefix},
		},
	})
	if err != nil {
		return err
	}
	return unmarshalItems(items, out)
}

// QueryFrom returns the items of a partition whose id is at least start.
func (ds *DynamoService) QueryFrom(ctx context.Context, partition, start string, out interface{}) error {
	items, err := ds.Query(ctx, &dynamodb.QueryInput{
		KeyConditionExpression:   aws.String("#invasion = :partition AND #id >= :start"),
		ExpressionAttributeNames: map[string]string{"#invasion": "invasion", "#id": "id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":partition": &types.AttributeValueMemberS{Value: partition},
			":start":     &types.AttributeValueMemberS{Value: start},
		},
	})
	if err != nil {
		return err
	}
	return unmarshalItems(items, out)
}

// QueryBetween returns the items of a partition whose id is between from and to inclusive.
func (ds *DynamoService) QueryBetween(ctx context.Context, partition, from, to string, out interface{}) error {
	items, err := ds.Query(ctx, &dynamodb.QueryInput{
		KeyConditionExpression:   aws.String("#invasion = :partition AND #id BETWEEN :from AND :to"),
		ExpressionAttributeNames: map[string]string{"#invasion": "invasion", "#id": "id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":partition": &types.AttributeValueMemberS{Value: partition},
			":from":      &types.AttributeValueMemberS{Value: from},
			":to":        &types.AttributeValueMemberS{Value: to},
		},
	})
	if err != nil {
		return err
	}
	return unmarshalItems(items, out)
}

// QueryWithFilter returns the items of a partition matching a string attribute.
func (ds *DynamoService) QueryWithFilter(ctx context.Context, partition, attribute, value string, out interface{}) error {
	items, err := ds.Query(ctx, &dynamodb.QueryInput{
		KeyConditionExpression:   aws.String("#invasion = :partition"),
		FilterExpression:         aws.String("#attr = :value"),
		ExpressionAttributeNames: map[string]string{"#invasion": "invasion", "#attr": attribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":partition": &types.AttributeValueMemberS{Value: partition},
			":value":     &types.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return err
	}
	return unmarshalItems(items, out)
}

// UpdateItem applies a SET expression and returns the updated item.
func (ds *DynamoService) UpdateItem(
	ctx context.Context,
	partition, id string,
	updateExpression string,
	expressionAttributeNames map[string]string,
	expressionAttributeValues map[string]types.AttributeValue,
) (map[string]types.AttributeValue, error) {
	if updateExpression == "" {
		return nil, errors.New("update failed: updateExpression cannot be empty")
	}

	names := map[string]string{"#id": "id"}
	for k, v := range expressionAttributeNames {
		names[k] = v
	}
	output, err := ds.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &ds.TableName,
		Key:                       utils.StringKey(partition, id),
		UpdateExpression:          &updateExpression,
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: expressionAttributeValues,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update item in table '%s': %w", ds.TableName, err)
	}
	ds.Logger.Debug("updated item", zap.String("partition", partition), zap.String("id", id))
	return output.Attributes, nil
}

// DeleteItem removes an item and unmarshals the old value into old when given.
// It returns ErrItemNotFound when old is requested and nothing was deleted.
func (ds *DynamoService) DeleteItem(ctx context.Context, partition, id string, old interface{}) error {
	input := &dynamodb.DeleteItemInput{
		TableName: &ds.TableName,
		Key:       utils.StringKey(partition, id),
	}
	if old != nil {
		input.ReturnValues = types.ReturnValueAllOld
	}
	output, err := ds.Client.DeleteItem(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to delete item from table '%s': %w", ds.TableName, err)
	}
	if old == nil {
		return nil
	}
	if len(output.Attributes) == 0 {
		return ErrItemNotFound
	}
	if err := attributevalue.UnmarshalMap(output.Attributes, old); err != nil {
		return fmt.Errorf("failed to unmarshal deleted item: %w", err)
	}
	return nil
}

// BatchPutItems writes items in batches of 25.
func (ds *DynamoService) BatchPutItems(ctx context.Context, items []interface{}) error {
	requests := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}
	return ds.batchWrite(ctx, requests)
}

// BatchDeleteItems deletes the ids of a partition in batches of 25.
func (ds *DynamoService) BatchDeleteItems(ctx context.Context, partition string, ids []string) error {
	requests := make([]types.WriteRequest, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: utils.StringKey(partition, id)}})
	}
	return ds.batchWrite(ctx, requests)
}

func (ds *DynamoService) batchWrite(ctx context.Context, writeRequests []types.WriteRequest) error {
	for i := 0; i < len(writeRequests); i += maxBatchSize {
		end := min(i+maxBatchSize, len(writeRequests))

		pending := map[string][]types.WriteRequest{ds.TableName: writeRequests[i:end]}
		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt == 3 {
				return fmt.Errorf("failed to batch write items to table '%s': unprocessed items remain", ds.TableName)
			}
			output, err := ds.Client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("failed to batch write items to table '%s': %w", ds.TableName, err)
			}
			pending = output.UnprocessedItems
		}
	}
	ds.Logger.Debug("batch write", zap.String("table", ds.TableName), zap.Int("requests", len(writeRequests)))
	return nil
}

func unmarshalItems(items []map[string]types.AttributeValue, out interface{}) error {
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal query result: %w", err)
	}
	return nil
}
