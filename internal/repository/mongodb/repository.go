package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository"
)

const (
	collLaneLog     = "daily_lane_log"
	collCows        = "cows"
	collCowMetrics  = "daily_cow_metrics"
	collCowStatus   = "cow_daily_status"
	collFarmSummary = "daily_farm_summary"
)

// MongoDBRepository implements repository.Store on MongoDB. Dates are stored
// as BSON datetimes at UTC midnight.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
	now    func() time.Time
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects, pings and ensures the unique indexes.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
		now:    time.Now,
	}
	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return r, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		collLaneLog: {
			{Keys: bson.D{{Key: "date", Value: 1}, {Key: "lane_no", Value: 1}, {Key: "cow_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "cow_id", Value: 1}, {Key: "date", Value: 1}}},
		},
		collCows: {
			{Keys: bson.D{{Key: "cow_id", Value: 1}}, Options: unique},
		},
		collCowMetrics: {
			{Keys: bson.D{{Key: "cow_id", Value: 1}, {Key: "date", Value: 1}}, Options: unique},
		},
		collCowStatus: {
			{Keys: bson.D{{Key: "cow_id", Value: 1}, {Key: "date", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "date", Value: 1}, {Key: "status", Value: 1}}},
		},
		collFarmSummary: {
			{Keys: bson.D{{Key: "date", Value: 1}}, Options: unique},
		},
	}

	for coll, specs := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	r.logger.Debug("mongodb indexes ready")
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// laneLogFilter translates a repository filter into a query document.
func laneLogFilter(f repository.LaneLogFilter) bson.M {
	filter := bson.M{}
	if f.CowID != "" {
		filter["cow_id"] = f.CowID
	}
	if f.LaneNo > 0 {
		filter["lane_no"] = f.LaneNo
	}
	dateRange := bson.M{}
	if !f.From.IsZero() {
		dateRange["$gte"] = models.DateOf(f.From)
	}
	if !f.To.IsZero() {
		dateRange["$lte"] = models.DateOf(f.To)
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}
	return filter
}

func notFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// UpsertLaneLog writes the row on its natural key and returns the stored version.
func (r *MongoDBRepository) UpsertLaneLog(ctx context.Context, entry models.LaneLogEntry) (models.LaneLogEntry, error) {
	date := models.DateOf(entry.Date)
	now := r.now().UTC()

	key := bson.M{"date": date, "lane_no": entry.LaneNo, "cow_id": entry.CowID}
	update := bson.M{
		"$set": bson.M{
			"cow_type":        entry.CowType,
			"feed_given_kg":   entry.FeedGivenKg,
			"morning_yield_l": entry.MorningYieldL,
			"evening_yield_l": entry.EveningYieldL,
			"total_yield_l":   entry.TotalYieldL,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	_, err := r.db.Collection(collLaneLog).UpdateOne(ctx, key, update, options.Update().SetUpsert(true))
	if err != nil {
		return models.LaneLogEntry{}, fmt.Errorf("failed to upsert lane log: %w", err)
	}
	return r.FindLaneLog(ctx, date, entry.LaneNo, entry.CowID)
}

// FindLaneLog loads one row by natural key.
func (r *MongoDBRepository) FindLaneLog(ctx context.Context, date time.Time, laneNo int, cowID string) (models.LaneLogEntry, error) {
	var entry models.LaneLogEntry
	key := bson.M{"date": models.DateOf(date), "lane_no": laneNo, "cow_id": cowID}
	if err := r.db.Collection(collLaneLog).FindOne(ctx, key).Decode(&entry); err != nil {
		if notFound(err) {
			return models.LaneLogEntry{}, repository.ErrNotFound
		}
		return models.LaneLogEntry{}, fmt.Errorf("failed to find lane log: %w", err)
	}
	entry.Date = models.DateOf(entry.Date)
	return entry, nil
}

// ListLaneLogs returns matching rows ordered by date, lane and cow.
func (r *MongoDBRepository) ListLaneLogs(ctx context.Context, filter repository.LaneLogFilter) ([]models.LaneLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "lane_no", Value: 1}, {Key: "cow_id", Value: 1}})
	cursor, err := r.db.Collection(collLaneLog).Find(ctx, laneLogFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list lane logs: %w", err)
	}

	var entries []models.LaneLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode lane logs: %w", err)
	}
	for i := range entries {
		entries[i].Date = models.DateOf(entries[i].Date)
	}
	return entries, nil
}

// DeleteLaneLogs removes matching rows. An empty filter is refused.
func (r *MongoDBRepository) DeleteLaneLogs(ctx context.Context, filter repository.LaneLogFilter) (int64, error) {
	query := laneLogFilter(filter)
	if len(query) == 0 {
		return 0, fmt.Errorf("delete lane logs: empty filter")
	}
	res, err := r.db.Collection(collLaneLog).DeleteMany(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete lane logs: %w", err)
	}
	return res.DeletedCount, nil
}

type dayTotalDoc struct {
	ID struct {
		Date  time.Time `bson:"date"`
		CowID string    `bson:"cow_id"`
	} `bson:"_id"`
	Feed      float64 `bson:"feed"`
	Milk      float64 `bson:"milk"`
	FeedCount int     `bson:"feed_count"`
	MilkCount int     `bson:"milk_count"`
	LastLane  int     `bson:"last_lane"`
}

// aggregatePipeline groups lane-log rows per (date, cow). $sum skips nulls, so
// the counters record whether any row carried a value.
func aggregatePipeline(filter repository.LaneLogFilter) mongo.Pipeline {
	present := func(field string) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$isNumber": field}, 1, 0}}}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: laneLogFilter(filter)}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"date": "$date", "cow_id": "$cow_id"},
			"feed":       bson.M{"$sum": "$feed_given_kg"},
			"milk":       bson.M{"$sum": "$total_yield_l"},
			"feed_count": present("$feed_given_kg"),
			"milk_count": present("$total_yield_l"),
			"last_lane":  bson.M{"$max": "$lane_no"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.date", Value: 1}, {Key: "_id.cow_id", Value: 1}}}},
	}
}

// AggregateDaily sums feed and milk per (date, cow).
func (r *MongoDBRepository) AggregateDaily(ctx context.Context, filter repository.LaneLogFilter) ([]repository.DayTotal, error) {
	cursor, err := r.db.Collection(collLaneLog).Aggregate(ctx, aggregatePipeline(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate lane logs: %w", err)
	}

	var docs []dayTotalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode lane log totals: %w", err)
	}

	totals := make([]repository.DayTotal, 0, len(docs))
	for _, d := range docs {
		totals = append(totals, repository.DayTotal{
			Date:     models.DateOf(d.ID.Date),
			CowID:    d.ID.CowID,
			Feed:     d.Feed,
			Milk:     d.Milk,
			HasFeed:  d.FeedCount > 0,
			HasMilk:  d.MilkCount > 0,
			LastLane: d.LastLane,
		})
	}
	return totals, nil
}

// GetCow loads a cow by id.
func (r *MongoDBRepository) GetCow(ctx context.Context, cowID string) (models.Cow, error) {
	var cow models.Cow
	if err := r.db.Collection(collCows).FindOne(ctx, bson.M{"cow_id": cowID}).Decode(&cow); err != nil {
		if notFound(err) {
			return models.Cow{}, repository.ErrNotFound
		}
		return models.Cow{}, fmt.Errorf("failed to get cow: %w", err)
	}
	return cow, nil
}

// ListActiveCows returns active cows ordered by id.
func (r *MongoDBRepository) ListActiveCows(ctx context.Context) ([]models.Cow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "cow_id", Value: 1}})
	cursor, err := r.db.Collection(collCows).Find(ctx, bson.M{"status": models.CowStatusActive}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cows: %w", err)
	}

	var cows []models.Cow
	if err := cursor.All(ctx, &cows); err != nil {
		return nil, fmt.Errorf("failed to decode cows: %w", err)
	}
	return cows, nil
}

// UpsertCow inserts or replaces a cow keyed by cow id.
func (r *MongoDBRepository) UpsertCow(ctx context.Context, cow models.Cow) error {
	set := bson.M{
		"name":     cow.Name,
		"cow_type": cow.CowType,
		"status":   cow.Status,
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": r.now().UTC()},
	}
	if cow.RFIDUID != "" {
		set["rfid_uid"] = cow.RFIDUID
	} else {
		update["$unset"] = bson.M{"rfid_uid": ""}
	}

	_, err := r.db.Collection(collCows).UpdateOne(ctx, bson.M{"cow_id": cow.CowID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert cow: %w", err)
	}
	return nil
}

// DeleteCow removes a cow from the master collection.
func (r *MongoDBRepository) DeleteCow(ctx context.Context, cowID string) error {
	if _, err := r.db.Collection(collCows).DeleteOne(ctx, bson.M{"cow_id": cowID}); err != nil {
		return fmt.Errorf("failed to delete cow: %w", err)
	}
	return nil
}

// UpsertCowMetric writes the per-cow daily rollup.
func (r *MongoDBRepository) UpsertCowMetric(ctx context.Context, metric models.DailyCowMetric) error {
	key := bson.M{"cow_id": metric.CowID, "date": models.DateOf(metric.Date)}
	update := bson.M{
		"$set": bson.M{
			"feed_given_kg":    metric.FeedGivenKg,
			"milk_yield_litre": metric.MilkYieldL,
			"lane_id":          metric.LaneID,
		},
		"$setOnInsert": bson.M{"created_at": r.now().UTC()},
	}
	if _, err := r.db.Collection(collCowMetrics).UpdateOne(ctx, key, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert cow metric: %w", err)
	}
	return nil
}

// GetCowMetric loads the rollup of one cow on one day.
func (r *MongoDBRepository) GetCowMetric(ctx context.Context, cowID string, date time.Time) (models.DailyCowMetric, error) {
	var metric models.DailyCowMetric
	key := bson.M{"cow_id": cowID, "date": models.DateOf(date)}
	if err := r.db.Collection(collCowMetrics).FindOne(ctx, key).Decode(&metric); err != nil {
		if notFound(err) {
			return models.DailyCowMetric{}, repository.ErrNotFound
		}
		return models.DailyCowMetric{}, fmt.Errorf("failed to get cow metric: %w", err)
	}
	metric.Date = models.DateOf(metric.Date)
	return metric, nil
}

// ListCowMetrics returns every rollup of a day ordered by cow.
func (r *MongoDBRepository) ListCowMetrics(ctx context.Context, date time.Time) ([]models.DailyCowMetric, error) {
	opts := options.Find().SetSort(bson.D{{Key: "cow_id", Value: 1}})
	cursor, err := r.db.Collection(collCowMetrics).Find(ctx, bson.M{"date": models.DateOf(date)}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cow metrics: %w", err)
	}

	var metrics []models.DailyCowMetric
	if err := cursor.All(ctx, &metrics); err != nil {
		return nil, fmt.Errorf("failed to decode cow metrics: %w", err)
	}
	for i := range metrics {
		metrics[i].Date = models.DateOf(metrics[i].Date)
	}
	return metrics, nil
}

// UpsertCowStatus writes the status of a cow for a day, stamped with
// status.UpdatedAt when set.
func (r *MongoDBRepository) UpsertCowStatus(ctx context.Context, status models.CowDailyStatus) error {
	updatedAt := status.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}
	key := bson.M{"cow_id": status.CowID, "date": models.DateOf(status.Date)}
	update := bson.M{
		"$set": bson.M{
			"status":     status.Status,
			"reason":     status.Reason,
			"updated_at": updatedAt.UTC(),
		},
	}
	if _, err := r.db.Collection(collCowStatus).UpdateOne(ctx, key, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert cow status: %w", err)
	}
	return nil
}

// GetCowStatus loads the status of one cow on one day.
func (r *MongoDBRepository) GetCowStatus(ctx context.Context, cowID string, date time.Time) (models.CowDailyStatus, error) {
	var status models.CowDailyStatus
	key := bson.M{"cow_id": cowID, "date": models.DateOf(date)}
	if err := r.db.Collection(collCowStatus).FindOne(ctx, key).Decode(&status); err != nil {
		if notFound(err) {
			return models.CowDailyStatus{}, repository.ErrNotFound
		}
		return models.CowDailyStatus{}, fmt.Errorf("failed to get cow status: %w", err)
	}
	status.Date = models.DateOf(status.Date)
	return status, nil
}

// ListCowStatuses returns every status row of a day ordered by cow.
func (r *MongoDBRepository) ListCowStatuses(ctx context.Context, date time.Time) ([]models.CowDailyStatus, error) {
	opts := options.Find().SetSort(bson.D{{Key: "cow_id", Value: 1}})
	cursor, err := r.db.Collection(collCowStatus).Find(ctx, bson.M{"date": models.DateOf(date)}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cow statuses: %w", err)
	}

	var statuses []models.CowDailyStatus
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, fmt.Errorf("failed to decode cow statuses: %w", err)
	}
	for i := range statuses {
		statuses[i].Date = models.DateOf(statuses[i].Date)
	}
	return statuses, nil
}

// CountStatuses counts distinct cows holding the given status on a day.
func (r *MongoDBRepository) CountStatuses(ctx context.Context, date time.Time, status models.StatusCode) (int, error) {
	ids, err := r.db.Collection(collCowStatus).Distinct(ctx, "cow_id", bson.M{
		"date":   models.DateOf(date),
		"status": status,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count statuses: %w", err)
	}
	return len(ids), nil
}

// UpsertFarmSummary writes the farm rollup of a day.
func (r *MongoDBRepository) UpsertFarmSummary(ctx context.Context, summary models.DailyFarmSummary) error {
	key := bson.M{"date": models.DateOf(summary.Date)}
	update := bson.M{
		"$set": bson.M{
			"total_feed_kg":    summary.TotalFeedKg,
			"total_milk_litre": summary.TotalMilkL,
			"best_cow_id":      summary.BestCowID,
			"lowest_cow_id":    summary.LowestCowID,
		},
		"$setOnInsert": bson.M{"created_at": r.now().UTC()},
	}
	if _, err := r.db.Collection(collFarmSummary).UpdateOne(ctx, key, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert farm summary: %w", err)
	}
	return nil
}

// GetFarmSummary loads the farm rollup of a day.
func (r *MongoDBRepository) GetFarmSummary(ctx context.Context, date time.Time) (models.DailyFarmSummary, error) {
	var summary models.DailyFarmSummary
	if err := r.db.Collection(collFarmSummary).FindOne(ctx, bson.M{"date": models.DateOf(date)}).Decode(&summary); err != nil {
		if notFound(err) {
			return models.DailyFarmSummary{}, repository.ErrNotFound
		}
		return models.DailyFarmSummary{}, fmt.Errorf("failed to get farm summary: %w", err)
	}
	summary.Date = models.DateOf(summary.Date)
	return summary, nil
}

// DeleteCowDerived drops the cached metrics and statuses of a cow.
func (r *MongoDBRepository) DeleteCowDerived(ctx context.Context, cowID string) error {
	if _, err := r.db.Collection(collCowMetrics).DeleteMany(ctx, bson.M{"cow_id": cowID}); err != nil {
		return fmt.Errorf("failed to delete cow metrics: %w", err)
	}
	if _, err := r.db.Collection(collCowStatus).DeleteMany(ctx, bson.M{"cow_id": cowID}); err != nil {
		return fmt.Errorf("failed to delete cow statuses: %w", err)
	}
	return nil
}
