package deliverer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the subset of the DynamoDB API DynamoStore uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Item layout. All items share one table keyed by (pk, sk):
//
//	pk=COUNTER           sk=deliverer   value         (last issued id)
//	pk=NAME#<name>       sk=NAME        id            (unique name claim)
//	pk=DELIVERER#<id>    sk=PROFILE     name, locs    (locs: locations added)
//	pk=DELIVERER#<id>    sk=LOC#<seq>   location
const (
	attrPK       = "pk"
	attrSK       = "sk"
	attrValue    = "value"
	attrID       = "id"
	attrName     = "name"
	attrLocCount = "locs"
	attrLocation = "location"

	counterPK       = "COUNTER"
	counterSK       = "deliverer"
	nameSK          = "NAME"
	profileSK       = "PROFILE"
	namePrefix      = "NAME#"
	delivererPrefix = "DELIVERER#"
	locPrefix       = "LOC#"
)

// DynamoStore is a Store backed by a single DynamoDB table.
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name routeplan-deliverers \
//	  --attribute-definitions AttributeName=pk,AttributeType=S AttributeName=sk,AttributeType=S \
//	  --key-schema AttributeName=pk,KeyType=HASH AttributeName=sk,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DynamoStore struct {
	client DDBClient
	table  string
}

// NewDynamoStore creates a DynamoStore over table.
func NewDynamoStore(client DDBClient, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

func delivererPK(id int64) string {
	return delivererPrefix + strconv.FormatInt(id, 10)
}

func isConditionFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}

// CreateDeliverer implements Store. The name is claimed with a conditional
// write before an id is drawn from the atomic counter.
func (s *DynamoStore) CreateDeliverer(ctx context.Context, name string) (Deliverer, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Deliverer{}, err
	}

	claim := key(namePrefix+name, nameSK)
	claim[attrID] = &types.AttributeValueMemberN{Value: "0"}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                claim,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return Deliverer{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		return Deliverer{}, fmt.Errorf("deliverer: claim name: %w", err)
	}

	id, err := s.increment(ctx, key(counterPK, counterSK), attrValue, false)
	if err != nil {
		return Deliverer{}, err
	}

	profile := key(delivererPK(id), profileSK)
	profile[attrName] = &types.AttributeValueMemberS{Value: name}
	profile[attrLocCount] = &types.AttributeValueMemberN{Value: "0"}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      profile,
	}); err != nil {
		return Deliverer{}, fmt.Errorf("deliverer: put profile: %w", err)
	}

	if _, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              key(namePrefix+name, nameSK),
		UpdateExpression: aws.String("SET #id = :id"),
		ExpressionAttributeNames: map[string]string{
			"#id": attrID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
		},
	}); err != nil {
		return Deliverer{}, fmt.Errorf("deliverer: link name: %w", err)
	}

	return Deliverer{ID: id, Name: name}, nil
}

// increment atomically adds one to attr of the item at k and returns the new
// value. With mustExist, a missing item yields ErrNotFound.
func (s *DynamoStore) increment(ctx context.Context, k map[string]types.AttributeValue, attr string, mustExist bool) (int64, error) {
	in := &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              k,
		UpdateExpression: aws.String("ADD #v :one"),
		ExpressionAttributeNames: map[string]string{
			"#v": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	if mustExist {
		in.ConditionExpression = aws.String("attribute_exists(pk)")
	}

	out, err := s.client.UpdateItem(ctx, in)
	if err != nil {
		if mustExist && isConditionFailed(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("deliverer: increment %s: %w", attr, err)
	}
	return numberAttr(out.Attributes, attr)
}

// ByName implements Store.
func (s *DynamoStore) ByName(ctx context.Context, name string) (Deliverer, error) {
	name, err := normalizeName(name)
	if err != nil {
		return Deliverer{}, err
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(namePrefix+name, nameSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Deliverer{}, fmt.Errorf("deliverer: get name: %w", err)
	}
	if len(out.Item) == 0 {
		return Deliverer{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	id, err := numberAttr(out.Item, attrID)
	if err != nil {
		return Deliverer{}, err
	}
	if id == 0 {
		// Claimed by a CreateDeliverer that has not finished.
		return Deliverer{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return Deliverer{ID: id, Name: name}, nil
}

// AddLocation implements Store.
func (s *DynamoStore) AddLocation(ctx context.Context, delivererID int64, location string) error {
	if err := checkLocation(location); err != nil {
		return err
	}

	seq, err := s.increment(ctx, key(delivererPK(delivererID), profileSK), attrLocCount, true)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrNotFound, delivererID)
		}
		return err
	}

	item := key(delivererPK(delivererID), fmt.Sprintf("%s%010d", locPrefix, seq))
	item[attrLocation] = &types.AttributeValueMemberS{Value: location}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("deliverer: put location: %w", err)
	}
	return nil
}

// Locations implements Store.
func (s *DynamoStore) Locations(ctx context.Context, delivererID int64) ([]string, error) {
	pk := delivererPK(delivererID)
	var (
		out      []string
		profile  bool
		startKey map[string]types.AttributeValue
	)
	for {
		resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			KeyConditionExpression: aws.String("pk = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: pk},
			},
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("deliverer: query locations: %w", err)
		}
		for _, item := range resp.Items {
			sk, _ := item[attrSK].(*types.AttributeValueMemberS)
			if sk == nil {
				continue
			}
			if sk.Value == profileSK {
				profile = true
				continue
			}
			if loc, ok := item[attrLocation].(*types.AttributeValueMemberS); ok {
				out = append(out, loc.Value)
			}
		}
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	if !profile {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, delivererID)
	}
	return out, nil
}

// List implements Store.
func (s *DynamoStore) List(ctx context.Context) ([]Deliverer, error) {
	var (
		out      []Deliverer
		startKey map[string]types.AttributeValue
	)
	for {
		resp, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.table),
			FilterExpression: aws.String("sk = :profile"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":profile": &types.AttributeValueMemberS{Value: profileSK},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("deliverer: scan: %w", err)
		}
		for _, item := range resp.Items {
			d, err := profileFromItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	slices.SortFunc(out, func(a, b Deliverer) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func profileFromItem(item map[string]types.AttributeValue) (Deliverer, error) {
	pk, ok := item[attrPK].(*types.AttributeValueMemberS)
	if !ok || len(pk.Value) <= len(delivererPrefix) {
		return Deliverer{}, errors.New("deliverer: invalid profile key")
	}
	id, err := strconv.ParseInt(pk.Value[len(delivererPrefix):], 10, 64)
	if err != nil {
		return Deliverer{}, fmt.Errorf("deliverer: invalid profile key %q: %w", pk.Value, err)
	}
	name, ok := item[attrName].(*types.AttributeValueMemberS)
	if !ok {
		return Deliverer{}, fmt.Errorf("deliverer: profile %d has no name", id)
	}
	return Deliverer{ID: id, Name: name.Value}, nil
}

func numberAttr(item map[string]types.AttributeValue, attr string) (int64, error) {
	n, ok := item[attr].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("deliverer: missing number attribute %q", attr)
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("deliverer: invalid number attribute %q: %w", attr, err)
	}
	return v, nil
}

var _ Store = (*DynamoStore)(nil)
