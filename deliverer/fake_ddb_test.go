package deliverer

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDDB is an in-memory table that understands the handful of expressions
// DynamoStore issues. Query and Scan return pages of pageSize items.
type fakeDDB struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[string]types.AttributeValue), pageSize: 2}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func itemKey(k map[string]types.AttributeValue) string {
	return str(k[attrPK]) + "\x00" + str(k[attrSK])
}

func clone(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("conditional check failed")}
}

func (f *fakeDDB) checkCondition(cond *string, exists bool) error {
	switch aws.ToString(cond) {
	case "attribute_not_exists(pk)":
		if exists {
			return conditionFailed()
		}
	case "attribute_exists(pk)":
		if !exists {
			return conditionFailed()
		}
	}
	return nil
}

func (f *fakeDDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Item)
	_, exists := f.items[k]
	if err := f.checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	f.items[k] = clone(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemKey(in.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: clone(item)}, nil
}

func (f *fakeDDB) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Key)
	item, exists := f.items[k]
	if err := f.checkCondition(in.ConditionExpression, exists); err != nil {
		return nil, err
	}
	if !exists {
		item = clone(in.Key)
	}

	// "ADD #v :one" or "SET #id = :id"
	fields := strings.Fields(aws.ToString(in.UpdateExpression))
	attr := in.ExpressionAttributeNames[fields[1]]
	value := in.ExpressionAttributeValues[fields[len(fields)-1]]
	switch fields[0] {
	case "ADD":
		cur := int64(0)
		if n, ok := item[attr].(*types.AttributeValueMemberN); ok {
			cur, _ = strconv.ParseInt(n.Value, 10, 64)
		}
		delta, _ := strconv.ParseInt(value.(*types.AttributeValueMemberN).Value, 10, 64)
		item[attr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(cur+delta, 10)}
	case "SET":
		item[attr] = value
	}
	f.items[k] = item

	out := &dynamodb.UpdateItemOutput{}
	if in.ReturnValues == types.ReturnValueUpdatedNew {
		out.Attributes = map[string]types.AttributeValue{attr: item[attr]}
	}
	return out, nil
}

// sorted returns the items matching keep ordered by (pk, sk).
func (f *fakeDDB) sorted(keep func(map[string]types.AttributeValue) bool) []map[string]types.AttributeValue {
	keys := make([]string, 0, len(f.items))
	for k, item := range f.items {
		if keep(item) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]map[string]types.AttributeValue, len(keys))
	for i, k := range keys {
		out[i] = clone(f.items[k])
	}
	return out
}

func (f *fakeDDB) page(items []map[string]types.AttributeValue, start map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	from := 0
	if len(start) > 0 {
		sk := itemKey(start)
		for from < len(items) && itemKey(items[from]) <= sk {
			from++
		}
	}
	to := min(from+f.pageSize, len(items))
	var last map[string]types.AttributeValue
	if to < len(items) {
		last = key(str(items[to-1][attrPK]), str(items[to-1][attrSK]))
	}
	return items[from:to], last
}

func (f *fakeDDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk := str(in.ExpressionAttributeValues[":pk"])
	items := f.sorted(func(item map[string]types.AttributeValue) bool {
		return str(item[attrPK]) == pk
	})
	page, last := f.page(items, in.ExclusiveStartKey)
	return &dynamodb.QueryOutput{Items: page, LastEvaluatedKey: last}, nil
}

func (f *fakeDDB) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.sorted(func(map[string]types.AttributeValue) bool { return true })
	// Filters apply after pagination, as in DynamoDB.
	page, last := f.page(items, in.ExclusiveStartKey)
	want := str(in.ExpressionAttributeValues[":profile"])
	filtered := page[:0:0]
	for _, item := range page {
		if str(item[attrSK]) == want {
			filtered = append(filtered, item)
		}
	}
	return &dynamodb.ScanOutput{Items: filtered, LastEvaluatedKey: last}, nil
}

var _ DDBClient = (*fakeDDB)(nil)
