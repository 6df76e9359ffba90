package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"

	"github.com/myflix/catalog-api/internal/metrics"
	"github.com/myflix/catalog-api/internal/models"
)

// UserRepository persists user records in DynamoDB. The table is keyed by
// user_id with a username-index GSI for the login lookup.
type UserRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewUserRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// FindByUsername queries the username-index GSI for an exact match
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	start := time.Now()

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("username-index"),
		KeyConditionExpression: aws.String("username = :username"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":username": &types.AttributeValueMemberS{Value: username},
		},
	})

	if err != nil {
		metrics.RecordStoreOperation("user_find", "failure", time.Since(start))
		return nil, fmt.Errorf("query failed: %w", err)
	}
	metrics.RecordStoreOperation("user_find", "success", time.Since(start))

	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Items[0], &user); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	return &user, nil
}

// FindByID fetches a user by primary key
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	start := time.Now()

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: id},
		},
	})

	if err != nil {
		metrics.RecordStoreOperation("user_find", "failure", time.Since(start))
		return nil, fmt.Errorf("get item failed: %w", err)
	}
	metrics.RecordStoreOperation("user_find", "success", time.Since(start))

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Item, &user); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	return &user, nil
}

// Create writes a new user record, failing if the primary key is taken
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	start := time.Now()

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})

	if err != nil {
		metrics.RecordStoreOperation("user_create", "failure", time.Since(start))
		return fmt.Errorf("put item failed: %w", err)
	}
	metrics.RecordStoreOperation("user_create", "success", time.Since(start))

	return nil
}

// UpdateFields replaces the mutable profile attributes and returns the
// updated record. The password hash is stored as given; hashing is the
// caller's responsibility.
func (r *UserRepository) UpdateFields(ctx context.Context, id string, fields UserFields) (*models.User, error) {
	start := time.Now()

	expr := "SET username = :u, password_hash = :p, email = :e, updated_at = :t"
	values := map[string]types.AttributeValue{
		":u": &types.AttributeValueMemberS{Value: fields.Username},
		":p": &types.AttributeValueMemberS{Value: fields.PasswordHash},
		":e": &types.AttributeValueMemberS{Value: fields.Email},
		":t": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
	}
	if fields.Birthday != nil {
		expr += ", birthday = :b"
		values[":b"] = &types.AttributeValueMemberS{Value: fields.Birthday.Format(time.RFC3339Nano)}
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(user_id)"),
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})

	if err != nil {
		metrics.RecordStoreOperation("user_update", "failure", time.Since(start))
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item failed: %w", err)
	}
	metrics.RecordStoreOperation("user_update", "success", time.Since(start))

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Attributes, &user); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	return &user, nil
}

// Remove deletes a user and returns the removed record
func (r *UserRepository) Remove(ctx context.Context, id string) (*models.User, error) {
	start := time.Now()

	result, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: id},
		},
		ReturnValues: types.ReturnValueAllOld,
	})

	if err != nil {
		metrics.RecordStoreOperation("user_delete", "failure", time.Since(start))
		return nil, fmt.Errorf("delete item failed: %w", err)
	}
	metrics.RecordStoreOperation("user_delete", "success", time.Since(start))

	if result.Attributes == nil {
		return nil, ErrNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Attributes, &user); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	return &user, nil
}

// PushToFavorites appends a movie ID to the favorites list. Duplicates are
// permitted; the list keeps insertion order.
func (r *UserRepository) PushToFavorites(ctx context.Context, id, movieID string) (*models.User, error) {
	start := time.Now()

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET favorites = list_append(if_not_exists(favorites, :empty), :m)"),
		ConditionExpression: aws.String("attribute_exists(user_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":m":     &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: movieID}}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
		ReturnValues: types.ReturnValueAllNew,
	})

	if err != nil {
		metrics.RecordStoreOperation("favorites_push", "failure", time.Since(start))
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item failed: %w", err)
	}
	metrics.RecordStoreOperation("favorites_push", "success", time.Since(start))

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Attributes, &user); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	return &user, nil
}

// PullFromFavorites removes every occurrence of a movie ID from the
// favorites list. DynamoDB cannot remove list elements by value, so the
// record is read, filtered and written back. Concurrent writes to the same
// record resolve last-write-wins, which the store owns.
func (r *UserRepository) PullFromFavorites(ctx context.Context, id, movieID string) (*models.User, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	filtered := make([]string, 0, len(user.Favorites))
	for _, fav := range user.Favorites {
		if fav != movieID {
			filtered = append(filtered, fav)
		}
	}

	start := time.Now()

	favorites, err := attributevalue.Marshal(filtered)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET favorites = :f"),
		ConditionExpression: aws.String("attribute_exists(user_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f": favorites,
		},
		ReturnValues: types.ReturnValueAllNew,
	})

	if err != nil {
		metrics.RecordStoreOperation("favorites_pull", "failure", time.Since(start))
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update item failed: %w", err)
	}
	metrics.RecordStoreOperation("favorites_pull", "success", time.Since(start))

	var updated models.User
	if err := attributevalue.UnmarshalMap(result.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	return &updated, nil
}

// List scans the whole users table. Intended for operator use, not hot paths.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	start := time.Now()

	users := []models.User{}
	var lastKey map[string]types.AttributeValue

	for {
		result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			metrics.RecordStoreOperation("user_list", "failure", time.Since(start))
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		var page []models.User
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal failed: %w", err)
		}
		users = append(users, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	metrics.RecordStoreOperation("user_list", "success", time.Since(start))
	r.logger.WithField("count", len(users)).Debug("Listed users")

	return users, nil
}
