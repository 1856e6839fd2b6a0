package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/soletrym/snipstore/persistence/driver/aws/internal/awsx"
	"github.com/soletrym/snipstore/persistence/kv"
)

// KeyValueStore is an implementation of [kv.Store] that persists keyspaces in a
// DynamoDB table.
type KeyValueStore struct {
	// Client is the DynamoDB client to use.
	Client *dynamodb.Client

	// Table is the table name used for storage of key/value pairs.
	Table string

	// DecorateGetItem is an optional function that is called before each
	// DynamoDB "GetItem" request.
	//
	// It may modify the API input in-place. It returns options that will be
	// applied to the request.
	DecorateGetItem func(*dynamodb.GetItemInput) []func(*dynamodb.Options)

	// DecorateQuery is an optional function that is called before each DynamoDB
	// "Query" request.
	//
	// It may modify the API input in-place. It returns options that will be
	// applied to the request.
	DecorateQuery func(*dynamodb.QueryInput) []func(*dynamodb.Options)

	// DecoratePutItem is an optional function that is called before each
	// DynamoDB "PutItem" request.
	//
	// It may modify the API input in-place. It returns options that will be
	// applied to the request.
	DecoratePutItem func(*dynamodb.PutItemInput) []func(*dynamodb.Options)

	// DecorateDeleteItem is an optional function that is called before each
	// DynamoDB "DeleteItem" request.
	//
	// It may modify the API input in-place. It returns options that will be
	// applied to the request.
	DecorateDeleteItem func(*dynamodb.DeleteItemInput) []func(*dynamodb.Options)
}

const (
	kvKeyspaceAttr = "Keyspace"
	kvKeyAttr      = "Key"
	kvValueAttr    = "Value"
)

// Open returns the keyspace with the given name.
func (s *KeyValueStore) Open(ctx context.Context, name string) (kv.Keyspace, error) {
	return &keyspace{
		store: s,
		name:  &types.AttributeValueMemberS{Value: name},
	}, ctx.Err()
}

type keyspace struct {
	store *KeyValueStore
	name  *types.AttributeValueMemberS
}

func (ks *keyspace) primaryKey(k []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		kvKeyspaceAttr: ks.name,
		kvKeyAttr:      &types.AttributeValueMemberB{Value: k},
	}
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, bool, error) {
	out, err := awsx.Do(
		ctx,
		ks.store.Client.GetItem,
		ks.store.DecorateGetItem,
		&dynamodb.GetItemInput{
			TableName:            aws.String(ks.store.Table),
			Key:                  ks.primaryKey(k),
			ConsistentRead:       aws.Bool(true),
			ProjectionExpression: aws.String(`#V`),
			ExpressionAttributeNames: map[string]string{
				"#V": kvValueAttr,
			},
		},
	)
	if err != nil || out.Item == nil {
		return nil, false, err
	}

	v, err := getAttr[*types.AttributeValueMemberB](out.Item, kvValueAttr)
	if err != nil {
		return nil, false, err
	}

	if v.Value == nil {
		return []byte{}, true, nil
	}

	return v.Value, true, nil
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	// Requests an unknown attribute to avoid fetching unnecessary data.
	out, err := awsx.Do(
		ctx,
		ks.store.Client.GetItem,
		ks.store.DecorateGetItem,
		&dynamodb.GetItemInput{
			TableName:            aws.String(ks.store.Table),
			Key:                  ks.primaryKey(k),
			ConsistentRead:       aws.Bool(true),
			ProjectionExpression: aws.String(`NonExistent`),
		},
	)
	if err != nil {
		return false, err
	}

	return out.Item != nil, nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte) error {
	if v == nil {
		v = []byte{}
	}

	item := ks.primaryKey(k)
	item[kvValueAttr] = &types.AttributeValueMemberB{Value: v}

	_, err := awsx.Do(
		ctx,
		ks.store.Client.PutItem,
		ks.store.DecoratePutItem,
		&dynamodb.PutItemInput{
			TableName: aws.String(ks.store.Table),
			Item:      item,
		},
	)

	return err
}

func (ks *keyspace) Delete(ctx context.Context, k []byte) error {
	_, err := awsx.Do(
		ctx,
		ks.store.Client.DeleteItem,
		ks.store.DecorateDeleteItem,
		&dynamodb.DeleteItemInput{
			TableName: aws.String(ks.store.Table),
			Key:       ks.primaryKey(k),
		},
	)

	return err
}

func (ks *keyspace) Range(
	ctx context.Context,
	fn kv.RangeFunc,
) error {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(ks.store.Table),
		KeyConditionExpression: aws.String(`#S = :S`),
		ProjectionExpression:   aws.String("#K, #V"),
		ConsistentRead:         aws.Bool(true),
		ExpressionAttributeNames: map[string]string{
			"#S": kvKeyspaceAttr,
			"#K": kvKeyAttr,
			"#V": kvValueAttr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":S": ks.name,
		},
	}

	for {
		out, err := awsx.Do(
			ctx,
			ks.store.Client.Query,
			ks.store.DecorateQuery,
			in,
		)
		if err != nil {
			return err
		}

		for _, item := range out.Items {
			key, err := getAttr[*types.AttributeValueMemberB](item, kvKeyAttr)
			if err != nil {
				return err
			}

			value, err := getAttr[*types.AttributeValueMemberB](item, kvValueAttr)
			if err != nil {
				return err
			}

			v := value.Value
			if v == nil {
				v = []byte{}
			}

			ok, err := fn(ctx, key.Value, v)
			if !ok || err != nil {
				return err
			}
		}

		if out.LastEvaluatedKey == nil {
			return nil
		}

		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (ks *keyspace) Close() error {
	return nil
}

// CreateKeyValueStoreTable creates a DynamoDB table for use with
// [KeyValueStore] and waits for it to become active.
//
// It is not an error if the table already exists.
func CreateKeyValueStoreTable(
	ctx context.Context,
	client *dynamodb.Client,
	table string,
	decorators ...func(*dynamodb.CreateTableInput) []func(*dynamodb.Options),
) error {
	_, err := awsx.Do(
		ctx,
		client.CreateTable,
		func(in *dynamodb.CreateTableInput) []func(*dynamodb.Options) {
			var options []func(*dynamodb.Options)
			for _, dec := range decorators {
				options = append(options, dec(in)...)
			}

			return options
		},
		&dynamodb.CreateTableInput{
			TableName: aws.String(table),
			AttributeDefinitions: []types.AttributeDefinition{
				{
					AttributeName: aws.String(kvKeyspaceAttr),
					AttributeType: types.ScalarAttributeTypeS,
				},
				{
					AttributeName: aws.String(kvKeyAttr),
					AttributeType: types.ScalarAttributeTypeB,
				},
			},
			KeySchema: []types.KeySchemaElement{
				{
					AttributeName: aws.String(kvKeyspaceAttr),
					KeyType:       types.KeyTypeHash,
				},
				{
					AttributeName: aws.String(kvKeyAttr),
					KeyType:       types.KeyTypeRange,
				},
			},
			BillingMode: types.BillingModePayPerRequest,
		},
	)

	if err != nil && !errors.As(err, new(*types.ResourceInUseException)) {
		return err
	}

	return dynamodb.
		NewTableExistsWaiter(client).
		Wait(
			ctx,
			&dynamodb.DescribeTableInput{
				TableName: aws.String(table),
			},
			tableCreationTimeout,
		)
}

// tableCreationTimeout is the maximum amount of time to wait for a new table
// to become active.
const tableCreationTimeout = 2 * time.Minute
