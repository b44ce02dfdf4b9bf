// Package appconf loads the configuration shared by the import commands and
// the read API. Values are layered: built-in defaults, an optional YAML file,
// an optional .env file, then process environment variables.
package appconf

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/ingest"
	"haydigo.org/geoingest/internal/logging"
	"haydigo.org/geoingest/internal/normalize"
)

const memoryPath = ":memory:"

type Config struct {
	Env      Environment  `yaml:"env"`
	LogLevel string       `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	Store    StoreConfig  `yaml:"store"`
	Stops    StopsConfig  `yaml:"stops"`
	Routes   RoutesConfig `yaml:"routes"`
	API      APIConfig    `yaml:"api"`
}

type StoreConfig struct {
	Driver         string        `yaml:"driver" validate:"oneof=mongo sqlite"`
	URI            string        `yaml:"uri" validate:"required_if=Driver mongo"`
	Database       string        `yaml:"database" validate:"required_if=Driver mongo"`
	SQLitePath     string        `yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gt=0"`
	SocketTimeout  time.Duration `yaml:"socket_timeout" validate:"gte=0"`
}

// ImportConfig is shared by both import commands.
type ImportConfig struct {
	File         string        `yaml:"file"`
	Collection   string        `yaml:"collection" validate:"required"`
	BatchSize    int           `yaml:"batch_size" validate:"gte=1"`
	MaxFeatures  int           `yaml:"max_features" validate:"gte=0"`
	LogEvery     int           `yaml:"log_every" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gt=0"`
}

type StopsConfig struct {
	ImportConfig `yaml:",inline"`
	Fields       normalize.StopFields `yaml:"fields"`
}

type RoutesConfig struct {
	ImportConfig        `yaml:",inline"`
	MaxPointsPerSegment int    `yaml:"max_points_per_segment" validate:"gte=2"`
	CodeProperty        string `yaml:"code_property" validate:"required"`
}

type APIConfig struct {
	Port         int `yaml:"port" validate:"gt=0,lt=65536"`
	RateLimit    int `yaml:"rate_limit" validate:"gte=0"`
	DefaultLimit int `yaml:"default_limit" validate:"gte=1,lte=10000"`
	// Keys restricts the read API to requests carrying ?key=; empty leaves it open.
	Keys []string `yaml:"keys" validate:"dive,required"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Env:      Development,
		LogLevel: "info",
		Store: StoreConfig{
			Driver:         docstore.DriverMongo,
			URI:            "mongodb://localhost:27017",
			Database:       "HaydiGo",
			SQLitePath:     "geoingest.db",
			ConnectTimeout: 5 * time.Second,
			SocketTimeout:  10 * time.Minute,
		},
		Stops: StopsConfig{
			ImportConfig: ImportConfig{
				File:         "duraklar.json",
				Collection:   "stops",
				BatchSize:    500,
				LogEvery:     1000,
				WriteTimeout: 10 * time.Minute,
			},
			Fields: normalize.DefaultStopFields(),
		},
		Routes: RoutesConfig{
			ImportConfig: ImportConfig{
				File:         "Har-ta/routes.geojson",
				Collection:   "hat_guzergah_lite",
				BatchSize:    100,
				LogEvery:     1000,
				WriteTimeout: 10 * time.Minute,
			},
			MaxPointsPerSegment: normalize.DefaultMaxPointsPerSegment,
			CodeProperty:        "HAT_KODU",
		},
		API: APIConfig{
			Port:         4000,
			RateLimit:    100,
			DefaultLimit: 2000,
		},
	}
}

// Load builds the configuration. An empty path skips the YAML layer; a
// missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from path into the process environment without
// overriding variables that are already set.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	if v, ok := lookup("APP_ENV"); ok && v != "" {
		cfg.Env = EnvFlagToEnvironment(v)
	}
	str("LOG_LEVEL", &cfg.LogLevel)
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("MONGO_URI", &cfg.Store.URI)
	str("MONGO_DB", &cfg.Store.Database)
	str("SQLITE_PATH", &cfg.Store.SQLitePath)
	str("MONGO_COLL", &cfg.Stops.Collection)
	str("DEST_COLL", &cfg.Routes.Collection)
	str("STOPS_GEOJSON", &cfg.Stops.File)
	str("ROUTES_GEOJSON", &cfg.Routes.File)
	if v, ok := lookup("API_KEYS"); ok && v != "" {
		cfg.API.Keys = splitList(v)
	}

	// BATCH_SIZE, MAX_FEATURES and LOG_EVERY apply to whichever import runs.
	for _, imp := range []*ImportConfig{&cfg.Stops.ImportConfig, &cfg.Routes.ImportConfig} {
		if err := num("BATCH_SIZE", &imp.BatchSize); err != nil {
			return err
		}
		if err := num("MAX_FEATURES", &imp.MaxFeatures); err != nil {
			return err
		}
		if err := num("LOG_EVERY", &imp.LogEvery); err != nil {
			return err
		}
	}
	return num("MAX_POINTS_PER_SEG", &cfg.Routes.MaxPointsPerSegment)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks field constraints and environment rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Env == Test && c.Store.Driver == docstore.DriverSQLite && c.Store.SQLitePath != memoryPath {
		return errors.New("test database must use in-memory storage")
	}
	return nil
}

// SlogLevel returns the configured log level. Validate has already rejected
// unknown names.
func (c Config) SlogLevel() slog.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

// DocStore returns the backend settings for docstore.Open.
func (c Config) DocStore() docstore.Config {
	return docstore.Config{
		Driver:             c.Store.Driver,
		URI:                c.Store.URI,
		Database:           c.Store.Database,
		SQLitePath:         c.Store.SQLitePath,
		StopsCollection:    c.Stops.Collection,
		SegmentsCollection: c.Routes.Collection,
		RouteCodeProperty:  c.Routes.CodeProperty,
		ConnectTimeout:     c.Store.ConnectTimeout,
		SocketTimeout:      c.Store.SocketTimeout,
	}
}

// ImportOptions returns the run bounds for one import.
func (c Config) ImportOptions(imp ImportConfig) ingest.Options {
	return ingest.Options{
		BatchSize:      imp.BatchSize,
		MaxFeatures:    imp.MaxFeatures,
		LogEvery:       imp.LogEvery,
		ConnectTimeout: c.Store.ConnectTimeout,
		WriteTimeout:   imp.WriteTimeout,
	}
}
