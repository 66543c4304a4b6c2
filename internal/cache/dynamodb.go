package cache

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBBackend is the optional remote Backend, selected by
// "--cache-backend=dynamodb". It never causes a run to fail: callers
// log and fall through to compiling normally on any network error.
type DynamoDBBackend struct {
	client *dynamodb.Client
	table  string
}

// OpenDynamoDB loads the default AWS config (region, credentials from
// the environment/shared config, same as the teacher's
// cmd/noxy-plugin-dynamodb) and returns a backend bound to table.
func OpenDynamoDB(ctx context.Context, region, table string) (*DynamoDBBackend, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("cache: loading aws config: %w", err)
	}
	return &DynamoDBBackend{
		client: dynamodb.NewFromConfig(cfg),
		table:  table,
	}, nil
}

type dynamoItem struct {
	Hash        string `dynamodbav:"hash"`
	RunID       string `dynamodbav:"run_id"`
	Source      string `dynamodbav:"source"`
	Constants   int    `dynamodbav:"constants"`
	Disassembly string `dynamodbav:"disassembly"`
	CompiledAt  string `dynamodbav:"compiled_at"`
}

func (b *DynamoDBBackend) Put(e Entry) error {
	item := dynamoItem{
		Hash: e.Hash, RunID: e.RunID, Source: e.Source,
		Constants: e.Constants, Disassembly: e.Disassembly, CompiledAt: e.CompiledAt,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("cache: marshaling entry: %w", err)
	}
	_, err = b.client.PutItem(context.TODO(), &dynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("cache: putting item: %w", err)
	}
	return nil
}

func (b *DynamoDBBackend) Get(hash string) (Entry, bool, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"hash": hash})
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: marshaling key: %w", err)
	}
	out, err := b.client.GetItem(context.TODO(), &dynamodb.GetItemInput{
		TableName: aws.String(b.table),
		Key:       key,
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: getting item: %w", err)
	}
	if out.Item == nil {
		return Entry{}, false, nil
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return Entry{}, false, fmt.Errorf("cache: unmarshaling item: %w", err)
	}
	return Entry{
		Hash: item.Hash, RunID: item.RunID, Source: item.Source,
		Constants: item.Constants, Disassembly: item.Disassembly, CompiledAt: item.CompiledAt,
	}, true, nil
}

func (b *DynamoDBBackend) List() ([]Entry, error) {
	out, err := b.client.Scan(context.TODO(), &dynamodb.ScanInput{
		TableName: aws.String(b.table),
	})
	if err != nil {
		return nil, fmt.Errorf("cache: scanning table: %w", err)
	}
	var items []dynamoItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("cache: unmarshaling scan results: %w", err)
	}
	entries := make([]Entry, len(items))
	for i, item := range items {
		entries[i] = Entry{
			Hash: item.Hash, RunID: item.RunID, Source: item.Source,
			Constants: item.Constants, Disassembly: item.Disassembly, CompiledAt: item.CompiledAt,
		}
	}
	return entries, nil
}

func (b *DynamoDBBackend) Clear() error {
	entries, err := b.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		key, err := attributevalue.MarshalMap(map[string]string{"hash": e.Hash})
		if err != nil {
			return fmt.Errorf("cache: marshaling key: %w", err)
		}
		_, err = b.client.DeleteItem(context.TODO(), &dynamodb.DeleteItemInput{
			TableName: aws.String(b.table),
			Key:       key,
		})
		if err != nil {
			return fmt.Errorf("cache: deleting item: %w", err)
		}
	}
	return nil
}

func (b *DynamoDBBackend) Close() error { return nil }
