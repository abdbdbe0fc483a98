package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/yashrajoria/asset-inventory-backend/models"
)

// sortableTime keeps a fixed width so sort keys order chronologically.
const sortableTime = "2006-01-02T15:04:05.000000000Z"

// DynamoAPI is the subset of the DynamoDB client used by the history store.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoImportHistoryRepository stores one item per completed import with
// partition key campus_id and sort key "<created_at>#<import_id>".
type DynamoImportHistoryRepository struct {
	client DynamoAPI
	table  string
}

func NewImportHistoryRepository(client DynamoAPI, table string) *DynamoImportHistoryRepository {
	return &DynamoImportHistoryRepository{client: client, table: table}
}

type ddbImportHistory struct {
	CampusID    string `dynamodbav:"campus_id"`
	SK          string `dynamodbav:"sk"`
	ImportID    string `dynamodbav:"import_id"`
	CreatedAt   string `dynamodbav:"created_at"`
	Processed   int    `dynamodbav:"processed"`
	Inserted    int    `dynamodbav:"inserted"`
	Skipped     int    `dynamodbav:"skipped"`
	ErrorsCount int    `dynamodbav:"errors_count"`
	Strict      bool   `dynamodbav:"strict"`
}

func toDDBHistory(e models.ImportHistoryEntry) ddbImportHistory {
	created := e.CreatedAt.UTC().Format(sortableTime)
	return ddbImportHistory{
		CampusID:    e.CampusID,
		SK:          created + "#" + e.ImportID,
		ImportID:    e.ImportID,
		CreatedAt:   created,
		Processed:   e.Processed,
		Inserted:    e.Inserted,
		Skipped:     e.Skipped,
		ErrorsCount: e.ErrorsCount,
		Strict:      e.Strict,
	}
}

func (d ddbImportHistory) toModel() models.ImportHistoryEntry {
	created, _ := time.Parse(sortableTime, d.CreatedAt)
	return models.ImportHistoryEntry{
		CampusID:    d.CampusID,
		ImportID:    d.ImportID,
		CreatedAt:   created,
		Processed:   d.Processed,
		Inserted:    d.Inserted,
		Skipped:     d.Skipped,
		ErrorsCount: d.ErrorsCount,
		Strict:      d.Strict,
	}
}

func (r *DynamoImportHistoryRepository) Record(ctx context.Context, entry models.ImportHistoryEntry) error {
	item, err := attributevalue.MarshalMap(toDDBHistory(entry))
	if err != nil {
		return fmt.Errorf("marshal import history: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (r *DynamoImportHistoryRepository) ListByCampus(ctx context.Context, campusID string, limit int) ([]models.ImportHistoryEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("campus_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: campusID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb Query failed: %w", err)
	}

	var items []ddbImportHistory
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal import history: %w", err)
	}

	entries := make([]models.ImportHistoryEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, it.toModel())
	}
	return entries, nil
}
