package docstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"haydigo.org/geoingest/internal/logging"
)

// MongoStore writes stops and route segments to two MongoDB collections.
type MongoStore struct {
	client   *mongo.Client
	stops    *mongo.Collection
	segments *mongo.Collection
	config   Config
	logger   *slog.Logger
}

// OpenMongo connects and pings the server. Writes are not retried by the driver;
// a failed batch surfaces to the caller.
func OpenMongo(ctx context.Context, cfg Config, logger *slog.Logger) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI).
		SetMaxPoolSize(10).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetSocketTimeout(cfg.SocketTimeout).
		SetRetryWrites(false).
		SetWriteConcern(writeconcern.W1()).
		SetReadPreference(readpref.Primary()).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, connectivity("connect", err)
	}

	db := client.Database(cfg.Database)
	store := &MongoStore{
		client:   client,
		stops:    db.Collection(cfg.StopsCollection),
		segments: db.Collection(cfg.SegmentsCollection),
		config:   cfg,
		logger:   logger,
	}

	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logging.LogOperation(logger, "mongo_connected",
		slog.String("database", cfg.Database),
		slog.String("stops_collection", cfg.StopsCollection),
		slog.String("segments_collection", cfg.SegmentsCollection),
		slog.String("component", "docstore"))

	return store, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()
	return connectivity("ping", s.client.Ping(pingCtx, readpref.Primary()))
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureStopIndexes creates the 2dsphere index used by bounding-box lookups.
func (s *MongoStore) EnsureStopIndexes(ctx context.Context) error {
	_, err := s.stops.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "geometry", Value: "2dsphere"}},
	})
	return err
}

// EnsureSegmentIndexes creates the geometry and route-code indexes.
func (s *MongoStore) EnsureSegmentIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "geometry", Value: "2dsphere"}}},
	}
	if s.config.RouteCodeProperty != "" {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: "properties." + s.config.RouteCodeProperty, Value: 1}},
		})
	}
	_, err := s.segments.Indexes().CreateMany(ctx, models)
	return err
}

// UpsertStops replaces each stop by _id, inserting it when absent.
func (s *MongoStore) UpsertStops(ctx context.Context, docs []StopDocument) (WriteResult, error) {
	if len(docs) == 0 {
		return WriteResult{}, nil
	}
	models := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: doc.ID}}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	_, err := s.stops.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return bulkResult("upsert stops", len(docs), err)
}

// ResetSegments drops the segment collection so a route run fully replaces it.
func (s *MongoStore) ResetSegments(ctx context.Context) error {
	return connectivity("drop segments", s.segments.Drop(ctx))
}

func (s *MongoStore) InsertSegments(ctx context.Context, docs []RouteSegmentDocument) (WriteResult, error) {
	if len(docs) == 0 {
		return WriteResult{}, nil
	}
	batch := make([]any, len(docs))
	for i := range docs {
		batch[i] = docs[i]
	}

	opts := options.InsertMany().SetOrdered(false).SetBypassDocumentValidation(true)
	_, err := s.segments.InsertMany(ctx, batch, opts)
	return bulkResult("insert segments", len(docs), err)
}

// bulkResult turns the error of an unordered bulk call into a WriteResult.
// Per-document write errors are a partial failure: everything not listed was
// committed. Any other error, including a timeout, is a connectivity failure.
func bulkResult(op string, attempted int, err error) (WriteResult, error) {
	if err == nil {
		return WriteResult{Attempted: attempted, Written: attempted}, nil
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 && bwe.WriteConcernError == nil {
		failures := make([]WriteFailure, 0, len(bwe.WriteErrors))
		for _, we := range bwe.WriteErrors {
			failures = append(failures, WriteFailure{Index: we.Index, Code: we.Code, Reason: we.Message})
		}
		return WriteResult{
			Attempted: attempted,
			Written:   attempted - len(failures),
			Failures:  failures,
		}, nil
	}

	return WriteResult{Attempted: attempted}, connectivity(op, err)
}

// StopsWithinBounds returns stops whose point lies inside bound.
func (s *MongoStore) StopsWithinBounds(ctx context.Context, bound orb.Bound, limit int) ([]StopDocument, error) {
	filter := bson.D{{Key: "geometry", Value: bson.D{{Key: "$geoWithin", Value: bson.D{
		{Key: "$geometry", Value: bson.D{
			{Key: "type", Value: "Polygon"},
			{Key: "coordinates", Value: bound.ToPolygon()},
		}},
	}}}}}

	cursor, err := s.stops.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var stops []StopDocument
	if err := cursor.All(ctx, &stops); err != nil {
		return nil, err
	}
	return stops, nil
}

// SegmentsForRoute returns segments whose route-code property equals code.
func (s *MongoStore) SegmentsForRoute(ctx context.Context, code string, limit int) ([]RouteSegmentDocument, error) {
	filter := bson.D{{Key: "properties." + s.config.RouteCodeProperty, Value: code}}
	cursor, err := s.segments.Find(ctx, filter, options.Find().SetLimit(int64(limit)).SetProjection(bson.D{{Key: "_id", Value: 0}}))
	if err != nil {
		return nil, err
	}
	var segments []RouteSegmentDocument
	if err := cursor.All(ctx, &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// Counts uses the same keys as SQLiteStore regardless of collection names.
func (s *MongoStore) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, 2)
	for key, coll := range map[string]*mongo.Collection{"stops": s.stops, "route_segments": s.segments} {
		n, err := coll.CountDocuments(ctx, bson.D{})
		if err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, nil
}
