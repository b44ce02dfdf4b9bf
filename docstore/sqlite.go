package docstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"haydigo.org/geoingest/internal/logging"
)

//go:embed schema.sql
var ddl string

// SQLiteStore keeps stops and segments in a local SQLite database. It has the
// same write semantics as MongoStore: a rejected row is reported as a failure
// while the rest of its batch commits.
type SQLiteStore struct {
	DB     *sql.DB
	config Config
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the database at cfg.SQLitePath and applies the schema.
func OpenSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if cfg.SQLitePath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &SQLiteStore{DB: db, config: cfg, logger: logger}
	if err := store.Ping(ctx); err != nil {
		logging.SafeCloseWithLogging(db, logger, "sqlite_open")
		return nil, err
	}
	if err := performDatabaseMigration(ctx, db); err != nil {
		logging.SafeCloseWithLogging(db, logger, "sqlite_open")
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}
	return store, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	pingCtx := ctx
	if s.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, s.config.ConnectTimeout)
		defer cancel()
	}
	return connectivity("ping", s.DB.PingContext(pingCtx))
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.DB.Close()
}

// EnsureStopIndexes is a no-op; the schema creates the indexes.
func (s *SQLiteStore) EnsureStopIndexes(context.Context) error { return nil }

// EnsureSegmentIndexes is a no-op; the schema creates the indexes.
func (s *SQLiteStore) EnsureSegmentIndexes(context.Context) error { return nil }

const upsertStopSQL = `
	INSERT OR REPLACE INTO stops (
		id, name, code, status, stop_type, direction, last_updated, built_at,
		district_id, neighborhood_id, version, version_num, has_shelter_flag,
		lon, lat, geohash, geometry, raw_properties
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`

// UpsertStops writes a batch in one transaction, replacing rows by id.
func (s *SQLiteStore) UpsertStops(ctx context.Context, docs []StopDocument) (WriteResult, error) {
	return writeBatch(ctx, s, "upsert stops", upsertStopSQL, docs, stopArgs)
}

const insertSegmentSQL = `
	INSERT INTO route_segments (
		route_code, geometry_type, point_count, properties, geometry
	) VALUES (?, ?, ?, ?, ?);
`

func (s *SQLiteStore) InsertSegments(ctx context.Context, docs []RouteSegmentDocument) (WriteResult, error) {
	return writeBatch(ctx, s, "insert segments", insertSegmentSQL, docs, s.segmentArgs)
}

// ResetSegments empties the segment table so a route run fully replaces it.
func (s *SQLiteStore) ResetSegments(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM route_segments")
	return connectivity("reset segments", err)
}

// writeBatch executes one prepared statement per document inside a single
// transaction. A row that fails (encoding or constraint) is recorded and the
// remaining rows still commit. Transaction-level failures are connectivity errors.
func writeBatch[T any](ctx context.Context, s *SQLiteStore, op, query string, docs []T, args func(T) ([]any, error)) (WriteResult, error) {
	result := WriteResult{Attempted: len(docs)}
	if len(docs) == 0 {
		return result, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return result, connectivity(op, err)
	}
	defer logging.SafeRollbackWithLogging(tx, s.logger, op)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return result, connectivity(op, err)
	}
	defer logging.SafeCloseWithLogging(stmt, s.logger, op)

	for i, doc := range docs {
		values, err := args(doc)
		if err == nil {
			_, err = stmt.ExecContext(ctx, values...)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return WriteResult{Attempted: len(docs)}, connectivity(op, ctxErr)
			}
			result.Failures = append(result.Failures, WriteFailure{Index: i, Reason: err.Error()})
			continue
		}
		result.Written++
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{Attempted: len(docs)}, connectivity(op, err)
	}
	return result, nil
}

func stopArgs(doc StopDocument) ([]any, error) {
	districtID, err := jsonColumn(doc.DistrictID)
	if err != nil {
		return nil, err
	}
	neighborhoodID, err := jsonColumn(doc.NeighborhoodID)
	if err != nil {
		return nil, err
	}
	shelter, err := jsonColumn(doc.HasShelterFlag)
	if err != nil {
		return nil, err
	}
	geometry, err := jsonColumn(doc.Geometry)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc.RawProperties)
	if err != nil {
		return nil, err
	}

	var lon, lat sql.NullFloat64
	if p, ok := doc.Geometry.(PointGeometry); ok {
		lon = sql.NullFloat64{Float64: p.Coordinates.Lon(), Valid: true}
		lat = sql.NullFloat64{Float64: p.Coordinates.Lat(), Valid: true}
	}

	return []any{
		doc.ID, nullString(doc.Name), nullString(doc.Code), nullInt64(doc.Status),
		nullString(doc.StopType), nullString(doc.Direction),
		nullTime(doc.LastUpdated), nullTime(doc.BuiltAt),
		districtID, neighborhoodID, nullString(doc.Version), nullFloat64(doc.VersionNum), shelter,
		lon, lat, sql.NullString{String: doc.Geohash, Valid: doc.Geohash != ""},
		geometry, string(raw),
	}, nil
}

func (s *SQLiteStore) segmentArgs(doc RouteSegmentDocument) ([]any, error) {
	props, err := json.Marshal(doc.Properties)
	if err != nil {
		return nil, err
	}
	geometry, err := json.Marshal(doc.Geometry)
	if err != nil {
		return nil, err
	}
	code, ok := propertyString(doc.Properties[s.config.RouteCodeProperty])
	return []any{
		sql.NullString{String: code, Valid: ok},
		doc.GeometryType(), doc.PointCount(), string(props), string(geometry),
	}, nil
}

// StopsWithinBounds returns stops whose point lies inside bound.
func (s *SQLiteStore) StopsWithinBounds(ctx context.Context, bound orb.Bound, limit int) (stops []StopDocument, err error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, code, status, stop_type, direction, last_updated, built_at,
			district_id, neighborhood_id, version, version_num, has_shelter_flag,
			geohash, geometry, raw_properties
		FROM stops
		WHERE lon BETWEEN ? AND ? AND lat BETWEEN ? AND ?
		ORDER BY id
		LIMIT ?`,
		bound.Min.Lon(), bound.Max.Lon(), bound.Min.Lat(), bound.Max.Lat(), limit)
	if err != nil {
		return nil, err
	}
	defer logging.HandleDeferredError(&err, rows.Close, s.logger, "stops_within_bounds")

	for rows.Next() {
		stop, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}
	return stops, rows.Err()
}

// Stop returns one stop by id, or sql.ErrNoRows.
func (s *SQLiteStore) Stop(ctx context.Context, id string) (StopDocument, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, code, status, stop_type, direction, last_updated, built_at,
			district_id, neighborhood_id, version, version_num, has_shelter_flag,
			geohash, geometry, raw_properties
		FROM stops WHERE id = ?`, id)
	return scanStop(row)
}

func scanStop(row interface{ Scan(...any) error }) (StopDocument, error) {
	var (
		doc                                         StopDocument
		name, code, stopType, direction, version    sql.NullString
		lastUpdated, builtAt, geohash               sql.NullString
		districtID, neighborhoodID, shelter, geomJS sql.NullString
		status                                      sql.NullInt64
		versionNum                                  sql.NullFloat64
		raw                                         string
	)
	err := row.Scan(&doc.ID, &name, &code, &status, &stopType, &direction, &lastUpdated, &builtAt,
		&districtID, &neighborhoodID, &version, &versionNum, &shelter, &geohash, &geomJS, &raw)
	if err != nil {
		return StopDocument{}, err
	}

	doc.Name = stringPtr(name)
	doc.Code = stringPtr(code)
	doc.StopType = stringPtr(stopType)
	doc.Direction = stringPtr(direction)
	doc.Version = stringPtr(version)
	doc.Geohash = geohash.String
	if status.Valid {
		doc.Status = &status.Int64
	}
	if versionNum.Valid {
		doc.VersionNum = &versionNum.Float64
	}
	if doc.LastUpdated, err = timePtr(lastUpdated); err != nil {
		return StopDocument{}, err
	}
	if doc.BuiltAt, err = timePtr(builtAt); err != nil {
		return StopDocument{}, err
	}
	for _, c := range []struct {
		src sql.NullString
		dst *any
	}{
		{districtID, &doc.DistrictID},
		{neighborhoodID, &doc.NeighborhoodID},
		{shelter, &doc.HasShelterFlag},
		{geomJS, &doc.Geometry},
	} {
		if !c.src.Valid {
			continue
		}
		if err := json.Unmarshal([]byte(c.src.String), c.dst); err != nil {
			return StopDocument{}, err
		}
	}
	if err := json.Unmarshal([]byte(raw), &doc.RawProperties); err != nil {
		return StopDocument{}, err
	}
	return doc, nil
}

// SegmentsForRoute returns segments whose route-code property equals code, in insertion order.
func (s *SQLiteStore) SegmentsForRoute(ctx context.Context, code string, limit int) (segments []RouteSegmentDocument, err error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT properties, geometry FROM route_segments WHERE route_code = ? ORDER BY id LIMIT ?`,
		code, limit)
	if err != nil {
		return nil, err
	}
	defer logging.HandleDeferredError(&err, rows.Close, s.logger, "segments_for_route")

	for rows.Next() {
		var props, geometry string
		if err := rows.Scan(&props, &geometry); err != nil {
			return nil, err
		}
		seg := RouteSegmentDocument{Type: "Feature"}
		if err := json.Unmarshal([]byte(props), &seg.Properties); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(geometry), &seg.Geometry); err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func (s *SQLiteStore) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, 2)
	for _, table := range []string{"stops", "route_segments"} {
		var n int64
		if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}

func jsonColumn(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func propertyString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case nil:
		return "", false
	default:
		return fmt.Sprint(t), true
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullFloat64(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func timePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
