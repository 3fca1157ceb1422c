package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schemaflow/schemaflow/internal/apperror"
	"github.com/schemaflow/schemaflow/internal/schema"
)

// sampleLimit caps how many documents per collection are inspected for
// field and type inference.
const sampleLimit = 20

// MongoFetcher infers a schema by sampling documents across the
// collections of the source database.
type MongoFetcher struct {
	logger Logger
}

// NewMongoFetcher creates a new MongoDB schema fetcher
func NewMongoFetcher(logger Logger) *MongoFetcher {
	return &MongoFetcher{logger: logger}
}

func (f *MongoFetcher) Fetch(ctx context.Context, descriptor string) (string, error) {
	dbName, err := mongoDatabaseName(descriptor)
	if err != nil {
		return "", apperror.NewExtractionError("invalid mongodb descriptor", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(descriptor))
	if err != nil {
		return "", apperror.NewExtractionError("failed to connect to source database", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(dbName)
	collections, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return "", apperror.NewExtractionError("failed to list collections", err)
	}
	sort.Strings(collections)

	columns := make([]schema.Column, 0)
	for _, name := range collections {
		inferred, err := f.sampleCollection(ctx, db, name)
		if err != nil {
			return "", err
		}
		columns = append(columns, inferred...)
	}

	f.logger.LogInfo("Extracted source schema", map[string]interface{}{
		"engine":      "mongodb",
		"collections": len(collections),
	})
	return schema.Format(columns), nil
}

// sampleCollection unions field names and inferred types over a bounded
// sample of documents.
func (f *MongoFetcher) sampleCollection(ctx context.Context, db *mongo.Database, collection string) ([]schema.Column, error) {
	cursor, err := db.Collection(collection).Find(ctx, bson.D{}, options.Find().SetLimit(sampleLimit))
	if err != nil {
		return nil, apperror.NewExtractionError(fmt.Sprintf("failed to sample collection %s", collection), err)
	}
	defer cursor.Close(ctx)

	fieldTypes := make(map[string]string)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperror.NewExtractionError(fmt.Sprintf("failed to decode document in %s", collection), err)
		}
		for field, value := range doc {
			if _, seen := fieldTypes[field]; !seen {
				fieldTypes[field] = inferBSONType(value)
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, apperror.NewExtractionError(fmt.Sprintf("failed to sample collection %s", collection), err)
	}

	fields := make([]string, 0, len(fieldTypes))
	for field := range fieldTypes {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	columns := make([]schema.Column, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, schema.Column{
			Table:    collection,
			Name:     field,
			DataType: fieldTypes[field],
		})
	}
	return columns, nil
}

func inferBSONType(value interface{}) string {
	switch value.(type) {
	case string:
		return "text"
	case int32, int64, int:
		return "integer"
	case float32, float64:
		return "double"
	case bool:
		return "boolean"
	case bson.M, bson.D:
		return "document"
	case bson.A:
		return "array"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func mongoDatabaseName(descriptor string) (string, error) {
	u, err := url.Parse(descriptor)
	if err != nil {
		return "", err
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "", fmt.Errorf("descriptor is missing a database name")
	}
	return name, nil
}
