package audit

import (
	"context"

	"go-erp/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuditRepository interface {
	Append(ctx context.Context, entry ImportAuditLog) error
	List(ctx context.Context, filters QueryFilters, limit, offset int64) ([]ImportAuditLog, error)
}

type AuditRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewAuditRepository(mongodb *database.MongodbDB) AuditRepository {
	return &AuditRepositoryImpl{
		Collection: mongodb.DB.Collection(Collection),
	}
}

// Append inserts the entry. There is deliberately no update or delete path
// on this repository; the log is the durable record of what happened.
func (r *AuditRepositoryImpl) Append(ctx context.Context, entry ImportAuditLog) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, entry)
	return err
}

func (r *AuditRepositoryImpl) List(ctx context.Context, filters QueryFilters, limit, offset int64) ([]ImportAuditLog, error) {
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.M{"timestamp": -1})

	query := bson.M{}
	if filters.Master != "" {
		query["master"] = filters.Master
	}
	if filters.Status != "" {
		query["status"] = filters.Status
	}
	if filters.UserContains != "" {
		query["actor"] = bson.M{"$regex": primitive.Regex{Pattern: filters.UserContains, Options: "i"}}
	}
	dateRange := bson.M{}
	if !filters.From.IsZero() {
		dateRange["$gte"] = filters.From
	}
	if !filters.To.IsZero() {
		dateRange["$lte"] = filters.To
	}
	if len(dateRange) > 0 {
		query["timestamp"] = dateRange
	}

	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var logs []ImportAuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
