package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/myflix/catalog-api/internal/metrics"
	"github.com/myflix/catalog-api/internal/models"
)

// MovieRepository reads the movie catalog from DynamoDB. The table is keyed
// by movie_id with a title-index GSI; genre and director lookups filter a
// scan, which is acceptable for a catalog-sized table.
type MovieRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewMovieRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *MovieRepository {
	return &MovieRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// List returns the full catalog
func (r *MovieRepository) List(ctx context.Context) ([]models.Movie, error) {
	ctx, span := otel.Tracer("catalog-api").Start(ctx, "store.movies.list")
	defer span.End()

	start := time.Now()

	movies := []models.Movie{}
	var lastKey map[string]types.AttributeValue

	for {
		result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			metrics.RecordStoreOperation("movie_list", "failure", time.Since(start))
			span.RecordError(err)
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		var page []models.Movie
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal failed: %w", err)
		}
		movies = append(movies, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	metrics.RecordStoreOperation("movie_list", "success", time.Since(start))
	span.SetAttributes(attribute.Int("catalog.size", len(movies)))

	return movies, nil
}

// FindByTitle queries the title-index GSI for an exact match
func (r *MovieRepository) FindByTitle(ctx context.Context, title string) (*models.Movie, error) {
	start := time.Now()

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("title-index"),
		KeyConditionExpression: aws.String("title = :title"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":title": &types.AttributeValueMemberS{Value: title},
		},
	})

	if err != nil {
		metrics.RecordStoreOperation("movie_find", "failure", time.Since(start))
		return nil, fmt.Errorf("query failed: %w", err)
	}
	metrics.RecordStoreOperation("movie_find", "success", time.Since(start))

	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}

	var movie models.Movie
	if err := attributevalue.UnmarshalMap(result.Items[0], &movie); err != nil {
		return nil, fmt.Errorf("unmarshal failed: %w", err)
	}

	return &movie, nil
}

// FindByGenre returns the first movie whose genre matches the given name.
// Its genre block carries the description the genre endpoint serves.
func (r *MovieRepository) FindByGenre(ctx context.Context, name string) (*models.Movie, error) {
	return r.scanOne(ctx, "genre.#n = :name", name, "movie_find_genre")
}

// FindByDirector returns the first movie directed by the given name
func (r *MovieRepository) FindByDirector(ctx context.Context, name string) (*models.Movie, error) {
	return r.scanOne(ctx, "director.#n = :name", name, "movie_find_director")
}

func (r *MovieRepository) scanOne(ctx context.Context, filter, name, op string) (*models.Movie, error) {
	start := time.Now()

	var lastKey map[string]types.AttributeValue

	for {
		result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String(filter),
			ExpressionAttributeNames: map[string]string{
				"#n": "name", // reserved word in DynamoDB expressions
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":name": &types.AttributeValueMemberS{Value: name},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			metrics.RecordStoreOperation(op, "failure", time.Since(start))
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		if len(result.Items) > 0 {
			metrics.RecordStoreOperation(op, "success", time.Since(start))

			var movie models.Movie
			if err := attributevalue.UnmarshalMap(result.Items[0], &movie); err != nil {
				return nil, fmt.Errorf("unmarshal failed: %w", err)
			}
			return &movie, nil
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	metrics.RecordStoreOperation(op, "success", time.Since(start))
	return nil, ErrNotFound
}
