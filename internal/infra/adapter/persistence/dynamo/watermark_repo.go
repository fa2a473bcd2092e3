// Package dynamo stores watermarks in a DynamoDB table keyed by feed URL.
// The item layout (feed_url, last_check_date, last_entry_id, last_entry_title)
// matches tables written by earlier deployments of the watcher.
package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/repository"
)

const hashKey = "feed_url"

// API is the subset of *dynamodb.Client used by WatermarkRepo.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type item struct {
	FeedURL        string `dynamodbav:"feed_url"`
	LastCheckDate  string `dynamodbav:"last_check_date"`
	LastEntryID    string `dynamodbav:"last_entry_id"`
	LastEntryTitle string `dynamodbav:"last_entry_title"`
}

type WatermarkRepo struct {
	client API
	table  string
}

func NewWatermarkRepo(client API, table string) repository.WatermarkRepository {
	return &WatermarkRepo{client: client, table: table}
}

func keyOf(feedKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		hashKey: &types.AttributeValueMemberS{Value: feedKey},
	}
}

func (r *WatermarkRepo) Get(ctx context.Context, feedKey string) (*entity.Watermark, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            keyOf(feedKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("Get: %w: %w", repository.ErrStoreUnavailable, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	wm, err := decode(out.Item)
	if err != nil {
		return nil, fmt.Errorf("Get: %w: %w", repository.ErrStoreUnavailable, err)
	}
	return wm, nil
}

func (r *WatermarkRepo) Put(ctx context.Context, wm *entity.Watermark) error {
	if err := wm.Validate(); err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	av, err := attributevalue.MarshalMap(item{
		FeedURL:        wm.FeedKey,
		LastCheckDate:  wm.LastCheckedAt.UTC().Format(time.RFC3339Nano),
		LastEntryID:    wm.LastEntryID,
		LastEntryTitle: wm.LastEntryTitle,
	})
	if err != nil {
		return fmt.Errorf("Put: marshal: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("Put: %w: %w", repository.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *WatermarkRepo) Delete(ctx context.Context, feedKey string) error {
	if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       keyOf(feedKey),
	}); err != nil {
		return fmt.Errorf("Delete: %w: %w", repository.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *WatermarkRepo) List(ctx context.Context) ([]*entity.Watermark, error) {
	var out []*entity.Watermark
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("List: %w: %w", repository.ErrStoreUnavailable, err)
		}
		for _, raw := range page.Items {
			wm, err := decode(raw)
			if err != nil {
				return nil, fmt.Errorf("List: %w: %w", repository.ErrStoreUnavailable, err)
			}
			out = append(out, wm)
		}
	}
	return out, nil
}

// decode accepts both RFC 3339 dates and the zone-less ISO dates of older items.
func decode(raw map[string]types.AttributeValue) (*entity.Watermark, error) {
	var it item
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	checked, err := entity.ParseTimestamp(it.LastCheckDate)
	if err != nil {
		return nil, fmt.Errorf("last_check_date: %w", err)
	}
	return &entity.Watermark{
		FeedKey:        it.FeedURL,
		LastCheckedAt:  checked,
		LastEntryID:    it.LastEntryID,
		LastEntryTitle: it.LastEntryTitle,
	}, nil
}
