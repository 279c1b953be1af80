package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/classsync/internal/domain"
)

const (
	attrIdentity  = "identity"
	attrCode      = "code"
	attrExpiresAt = "expires_at"

	tableWait = 2 * time.Minute
)

// codeItem is the stored shape of a pending login code.
// expires_at is Unix seconds and doubles as the table's TTL attribute; DynamoDB
// deletes lazily, so reads still compare it against the clock.
type codeItem struct {
	Identity  string `dynamodbav:"identity"`
	Code      string `dynamodbav:"code"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

func toItem(p *domain.PendingCode) codeItem {
	return codeItem{Identity: p.Identity, Code: p.Code, ExpiresAt: p.ExpiresAt.Unix()}
}

func (i codeItem) pending() *domain.PendingCode {
	return &domain.PendingCode{Identity: i.Identity, Code: i.Code, ExpiresAt: time.Unix(i.ExpiresAt, 0)}
}

// CodeStore keeps pending login codes in DynamoDB so every instance sees the same codes.
// PK: identity.
type CodeStore struct {
	client    *dynamodb.Client
	tableName string
	now       func() time.Time
}

func NewCodeStore(client *dynamodb.Client, tableName string) *CodeStore {
	return &CodeStore{client: client, tableName: tableName, now: time.Now}
}

func (r *CodeStore) Put(ctx context.Context, p *domain.PendingCode) error {
	item, err := attributevalue.MarshalMap(toItem(p))
	if err != nil {
		return fmt.Errorf("marshal login code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CodeStore) Get(ctx context.Context, identity string) (*domain.PendingCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(attrIdentity, identity),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("login code not found: %w", domain.ErrNotFound)
	}
	var it codeItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	p := it.pending()
	if p.Expired(r.now()) {
		return nil, fmt.Errorf("login code not found: %w", domain.ErrNotFound)
	}
	return p, nil
}

func (r *CodeStore) Take(ctx context.Context, identity string) (*domain.PendingCode, error) {
	return r.deleteIf(ctx, identity, "#exp > :now", nil)
}

// TakeMatching deletes the entry only when its code equals code and it has not expired.
// The condition is evaluated by DynamoDB, so concurrent verifiers cannot both succeed.
func (r *CodeStore) TakeMatching(ctx context.Context, identity, code string) (*domain.PendingCode, error) {
	return r.deleteIf(ctx, identity, "#code = :code AND #exp > :now", map[string]types.AttributeValue{
		":code": &types.AttributeValueMemberS{Value: code},
	})
}

func (r *CodeStore) deleteIf(ctx context.Context, identity, cond string, values map[string]types.AttributeValue) (*domain.PendingCode, error) {
	names, vals := conditionParams(r.now(), values)
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(attrIdentity, identity),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: vals,
		ReturnValues:              types.ReturnValueAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("login code not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	var it codeItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return nil, err
	}
	return it.pending(), nil
}

// conditionParams adds the clock value and attribute-name placeholders shared by every
// conditional delete. Only the names a condition references may be passed to DynamoDB,
// so #code is included only alongside :code.
func conditionParams(now time.Time, values map[string]types.AttributeValue) (map[string]string, map[string]types.AttributeValue) {
	names := map[string]string{"#exp": attrExpiresAt}
	vals := map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
	}
	for k, v := range values {
		vals[k] = v
	}
	if _, ok := vals[":code"]; ok {
		names["#code"] = attrCode
	}
	return names, vals
}
