package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	aws_pkg "github.com/yashrajoria/asset-inventory-backend/pkg/aws"
	"github.com/yashrajoria/asset-inventory-backend/services"
	"go.uber.org/zap"
)

const serviceName = "asset-import-service"

// Config holds all configuration for the asset import service.
type Config struct {
	Port        string `validate:"required,numeric"`
	Env         string `validate:"oneof=development production test"`
	MongoURI    string `validate:"required"`
	MongoDBName string `validate:"required"`
	RedisURL    string `validate:"required"`
	JWTSecret   string
	CORSOrigins []string `validate:"min=1,dive,url"`

	RecordDelimiter  string `validate:"required"`
	FieldDelimiter   string `validate:"required"`
	DataMarker       string `validate:"required"`
	StrictDuplicates bool
	RoomWorkers      int `validate:"min=1,max=32"`
	CampusLock       bool
	MaxUploadMB      int `validate:"min=1,max=512"`

	// Async staging goes to S3 when StorageBucket is set, else StorageDir
	StorageBucket string
	StorageDir    string

	ImportSNSTopicARN string
	HistoryTable      string `validate:"required"`
}

// LoadConfig reads configuration from environment variables (and an
// optional .env file) with optional Secrets Manager override.
func LoadConfig(logger *zap.Logger) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8086"),
		Env:         getEnv("ENV", "development"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDBName: getEnv("MONGO_DB_NAME", "asset_inventory"),
		RedisURL:    getEnv("REDIS_URL", "redis://redis:6379"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		RecordDelimiter:  unescape(getEnv("IMPORT_RECORD_DELIMITER", `\n`)),
		FieldDelimiter:   unescape(getEnv("IMPORT_FIELD_DELIMITER", "|")),
		DataMarker:       getEnv("IMPORT_DATA_MARKER", "[%]"),
		StrictDuplicates: getEnvBool("IMPORT_STRICT_DUPLICATES", false),
		RoomWorkers:      getEnvInt("IMPORT_ROOM_WORKERS", 1),
		CampusLock:       getEnvBool("IMPORT_CAMPUS_LOCK", false),
		MaxUploadMB:      getEnvInt("IMPORT_MAX_UPLOAD_MB", 20),

		StorageBucket: os.Getenv("IMPORT_STORAGE_BUCKET"),
		StorageDir:    getEnv("IMPORT_STORAGE_DIR", "./data/asset_imports"),

		ImportSNSTopicARN: os.Getenv("IMPORT_SNS_TOPIC_ARN"),
		HistoryTable:      getEnv("DDB_TABLE_IMPORTS", "AssetImports"),
	}

	// Override credentials from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		ctx := context.Background()
		if awsCfg, err := aws_pkg.LoadAWSConfig(ctx); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			for name, target := range map[string]*string{
				"asset/MONGO_URI":  &cfg.MongoURI,
				"asset/JWT_SECRET": &cfg.JWTSecret,
			} {
				if err := sm.Override(ctx, target, name); err != nil {
					logger.Warn("Secret override skipped", zap.String("secret", name), zap.Error(err))
				}
			}
		} else {
			logger.Warn("AWS config unavailable, secrets not loaded", zap.Error(err))
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ImportOptions maps the import settings onto the pipeline options.
func (c *Config) ImportOptions() services.ImportOptions {
	return services.ImportOptions{
		Format: services.FileFormat{
			RecordDelimiter: c.RecordDelimiter,
			FieldDelimiter:  c.FieldDelimiter,
			DataMarker:      c.DataMarker,
		},
		StrictDuplicates: c.StrictDuplicates,
		RoomWorkers:      c.RoomWorkers,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// unescape turns `\n`, `\t` and friends typed in an env file into the
// control characters they name. Unparseable values are used as-is.
func unescape(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	s, err := strconv.Unquote(`"` + v + `"`)
	if err != nil {
		return v
	}
	return s
}
