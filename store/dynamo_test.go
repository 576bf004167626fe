package store_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexcoman/arestor/store"
)

// fakeDynamo implements store.DynamoAPI over plain maps, interpreting the
// update expressions the adapter is known to emit.
type fakeDynamo struct {
	items         map[string]map[string]types.AttributeValue
	describeCalls int
	describeErr   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) pk(params map[string]types.AttributeValue) string {
	return params["pk"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	item, ok := f.items[f.pk(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	// Honor the projection: return only the requested attribute.
	projected := map[string]types.AttributeValue{}
	for _, attr := range params.ExpressionAttributeNames {
		if value, ok := item[attr]; ok {
			projected[attr] = value
		}
	}
	return &dynamodb.GetItemOutput{Item: projected}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	pk := f.pk(params.Key)
	item, ok := f.items[pk]
	if !ok {
		item = make(map[string]types.AttributeValue)
		f.items[pk] = item
	}

	attr := params.ExpressionAttributeNames["#f"]
	if attr == "" {
		attr = params.ExpressionAttributeNames["#m"]
	}

	switch expr := *params.UpdateExpression; expr {
	case "SET #f = :v":
		item[attr] = params.ExpressionAttributeValues[":v"]
	case "REMOVE #f":
		delete(item, attr)
	case "ADD #m :v":
		members := f.members(item, attr)
		for _, m := range params.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberSS).Value {
			members = appendUnique(members, m)
		}
		item[attr] = &types.AttributeValueMemberSS{Value: members}
	case "DELETE #m :v":
		members := f.members(item, attr)
		for _, m := range params.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberSS).Value {
			members = removeMember(members, m)
		}
		if len(members) == 0 {
			delete(item, attr)
		} else {
			item[attr] = &types.AttributeValueMemberSS{Value: members}
		}
	default:
		panic("unexpected update expression: " + expr)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.describeCalls++
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func (f *fakeDynamo) members(item map[string]types.AttributeValue, attr string) []string {
	if ss, ok := item[attr].(*types.AttributeValueMemberSS); ok {
		return ss.Value
	}
	return nil
}

func appendUnique(members []string, m string) []string {
	for _, existing := range members {
		if existing == m {
			return members
		}
	}
	return append(members, m)
}

func removeMember(members []string, m string) []string {
	result := members[:0]
	for _, existing := range members {
		if existing != m {
			result = append(result, existing)
		}
	}
	return result
}

// --- Hash Primitives ---

func TestDynamoKeyValue_HashPrimitives(t *testing.T) {
	kv := store.NewDynamoKeyValue(newFakeDynamo(), "")
	ctx := context.Background()

	require.NoError(t, kv.HSet(ctx, "Instance", "r-1.name", `"x"`))

	value, err := kv.HGet(ctx, "Instance", "r-1.name")
	require.NoError(t, err)
	assert.Equal(t, `"x"`, value)

	_, err = kv.HGet(ctx, "Instance", "r-1.missing")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)

	_, err = kv.HGet(ctx, "NoSuchHash", "r-1.name")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)

	require.NoError(t, kv.HDel(ctx, "Instance", "r-1.name"))
	_, err = kv.HGet(ctx, "Instance", "r-1.name")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

// --- Set Primitives ---

func TestDynamoKeyValue_SetPrimitives(t *testing.T) {
	kv := store.NewDynamoKeyValue(newFakeDynamo(), "")
	ctx := context.Background()

	require.NoError(t, kv.SAdd(ctx, "models.Instance", "r-1"))
	require.NoError(t, kv.SAdd(ctx, "models.Instance", "r-2"))
	require.NoError(t, kv.SAdd(ctx, "models.Instance", "r-1"))

	members, err := kv.SMembers(ctx, "models.Instance")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r-1", "r-2"}, members)

	member, err := kv.SIsMember(ctx, "models.Instance", "r-1")
	require.NoError(t, err)
	assert.True(t, member)

	require.NoError(t, kv.SRem(ctx, "models.Instance", "r-1"))
	member, err = kv.SIsMember(ctx, "models.Instance", "r-1")
	require.NoError(t, err)
	assert.False(t, member)

	// Unknown set behaves as empty.
	members, err = kv.SMembers(ctx, "models.Keypair")
	require.NoError(t, err)
	assert.Empty(t, members)
}

// --- Liveness ---

func TestDynamoKeyValue_Ping(t *testing.T) {
	fake := newFakeDynamo()
	kv := store.NewDynamoKeyValue(fake, "")
	ctx := context.Background()

	require.NoError(t, kv.Ping(ctx))
	assert.Equal(t, 1, fake.describeCalls)

	fake.describeErr = assert.AnError
	assert.Error(t, kv.Ping(ctx))
}

func TestDynamoKeyValue_PingWithoutClient(t *testing.T) {
	kv := store.NewDynamoKeyValue(nil, "")
	assert.Error(t, kv.Ping(context.Background()))
}

func TestDynamoKeyValue_DialKeepsInjectedClient(t *testing.T) {
	fake := newFakeDynamo()
	kv := store.NewDynamoKeyValue(fake, "")
	require.NoError(t, kv.Dial(context.Background()))

	// The injected client must still serve requests after Dial.
	require.NoError(t, kv.SAdd(context.Background(), "s", "m"))
	members, err := kv.SMembers(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"m"}, members)
}

// --- End To End Over The Fake ---

func TestKeyValueStore_OverDynamo(t *testing.T) {
	kv := store.NewDynamoKeyValue(newFakeDynamo(), "")
	s := store.New(kv, store.DefaultConfig())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "Keypair", map[string]any{
		"resource_id": "k-1",
		"name":        "deploy",
		"public_key":  "ssh-ed25519 AAAA",
	}))

	raw, err := s.Get(ctx, "Keypair", "k-1")
	require.NoError(t, err)
	assert.Equal(t, "deploy", raw["name"])

	require.NoError(t, s.Remove(ctx, "Keypair", "k-1"))
	_, err = s.Get(ctx, "Keypair", "k-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
