package usage

import (
	"context"
	"errors"
	"fmt"

	"gymcore/internal/clock"
	"gymcore/internal/plan"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "usage_records"

// mongoRepository keys records by (user_id, month); Record.ID is unused.
// created_at and updated_at come from clk.
type mongoRepository struct {
	col   *mongo.Collection
	clock clock.Clock
}

func NewMongoRepository(col *mongo.Collection, clk clock.Clock) Repository {
	return &mongoRepository{col: col, clock: clk}
}

// EnsureIndexes creates the unique (user_id, month) index that upserts rely on.
func EnsureIndexes(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "month", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_month_unique"),
	})
	if err != nil {
		return fmt.Errorf("create usage index: %w", err)
	}
	return nil
}

func recordKey(userID int, month string) bson.D {
	return bson.D{{Key: "user_id", Value: userID}, {Key: "month", Value: month}}
}

func (r *mongoRepository) GetOrCreate(ctx context.Context, userID, planID int, month string) (*Record, error) {
	now := r.clock.Now().UTC()
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "plan_id", Value: planID}}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: string(CounterPersonalTraining), Value: 0},
			{Key: string(CounterGuestPass), Value: 0},
			{Key: string(CounterMassage), Value: 0},
			{Key: "created_at", Value: now},
			{Key: "updated_at", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rec Record
	if err := r.col.FindOneAndUpdate(ctx, recordKey(userID, month), update, opts).Decode(&rec); err != nil {
		return nil, fmt.Errorf("get or create usage record: %w", err)
	}
	return &rec, nil
}

func (r *mongoRepository) Increment(ctx context.Context, rec *Record, counter Counter) error {
	if !counter.Valid() {
		return ErrUnknownCounter
	}

	res, err := r.col.UpdateOne(ctx, recordKey(rec.UserID, rec.Month), bson.D{
		{Key: "$inc", Value: bson.D{{Key: string(counter), Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: r.clock.Now().UTC()}}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *mongoRepository) TryConsume(ctx context.Context, rec *Record, counter Counter, limit plan.Limit) (*Record, error) {
	if !counter.Valid() {
		return nil, ErrUnknownCounter
	}

	filter := recordKey(rec.UserID, rec.Month)
	if !limit.Unlimited {
		filter = append(filter, bson.E{Key: string(counter), Value: bson.D{{Key: "$lt", Value: limit.Max}}})
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: string(counter), Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: r.clock.Now().UTC()}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Record
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLimitReached
		}
		return nil, err
	}
	return &updated, nil
}

func (r *mongoRepository) ListByMonth(ctx context.Context, month string) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.D{{Key: "month", Value: month}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
