package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/config/connections/mongo"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/config/connections/postgres"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/config/connections/s3"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type JWT struct {
	Secret string
	TTL    time.Duration
}

type Master struct {
	Username     string
	PasswordHash string
}

type Backup struct {
	Auto      bool
	CheckSpec string
}

type Reminder struct {
	Enabled bool
	Spec    string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Config struct {
	Port        string
	LogLevel    string
	StoreDriver string

	JWT      JWT
	Master   Master
	Backup   Backup
	Reminder Reminder
	SMTP     SMTP
	Defaults models.FinancialConfig

	S3       *s3.S3
	Mongo    *mongo.Mongo
	Postgres *postgres.Postgres

	s3Info    s3.ConnectionInfo
	mongoInfo mongo.ConnectionInfo
	pgInfo    postgres.ConnectionInfo
}

// Load reads .env (when present) and the environment. It opens nothing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getenv("SERVER_PORT", "8070"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		StoreDriver: getenv("STORE_DRIVER", StoreMongo),
		JWT: JWT{
			Secret: getenv("JWT_SECRET", ""),
			TTL:    time.Duration(getint("JWT_TTL_HOURS", 12)) * time.Hour,
		},
		Master: Master{
			Username:     getenv("MASTER_USERNAME", "master"),
			PasswordHash: getenv("MASTER_PASSWORD_HASH", ""),
		},
		Backup: Backup{
			Auto:      getenv("BACKUP_AUTO", "true") == "true",
			CheckSpec: getenv("BACKUP_CHECK_SPEC", "@every 1m"),
		},
		Reminder: Reminder{
			Enabled: getenv("REMINDER_ENABLED", "false") == "true",
			Spec:    getenv("REMINDER_SPEC", "0 8 * * *"),
		},
		SMTP: SMTP{
			Host:     getenv("SMTP_HOST", "localhost"),
			Port:     getint("SMTP_PORT", 587),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "financeiro@localhost"),
		},
		Defaults: models.FinancialConfig{
			FineAmount:        getfloat("DEFAULT_FINE_AMOUNT", 10),
			DailyInterestRate: getfloat("DEFAULT_DAILY_INTEREST", 0.33),
			GracePeriodDays:   getint("DEFAULT_GRACE_DAYS", 3),
		},
		s3Info: s3.ConnectionInfo{
			Endpoint:  getenv("AWS_ENDPOINT", "localhost:9000"),
			AccessKey: getenv("AWS_ACCESS_KEY_ID", "minioadmin"),
			SecretKey: getenv("AWS_SECRET_ACCESS_KEY", "minioadmin"),
			Region:    getenv("AWS_DEFAULT_REGION", "us-east-1"),
			Bucket:    getenv("AWS_BUCKET", "school-backups"),
			UseSSL:    getenv("AWS_USE_SSL", "false") == "true",
		},
		mongoInfo: mongo.ConnectionInfo{
			Scheme:     getenv("MONGO_SCHEME", "mongodb"),
			User:       getenv("MONGO_USER", "root"),
			Password:   getenv("MONGO_PASSWORD", "secret"),
			Host:       getenv("MONGO_HOST", "127.0.0.1"),
			Port:       getenv("MONGO_PORT", "27017"),
			DB:         getenv("MONGO_DB", "school_admin"),
			AuthSource: getenv("MONGO_AUTH_SOURCE", "admin"),
		},
		pgInfo: postgres.ConnectionInfo{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     getenv("PG_PORT", "5432"),
			User:     getenv("PG_USER", "root"),
			Password: getenv("PG_PASSWORD", "hello-world"),
			DB:       getenv("PG_DB", "school_admin"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
			MaxConns: int32(getint("PG_MAX_CONNS", 8)),
		},
	}
}

// Validate rejects settings the service must not start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func (c *Config) usesPostgres() bool { return c.StoreDriver == StorePostgres }

// Connect opens S3 and Mongo, plus Postgres when it backs the school store.
// S3 and Mongo are required whatever the driver: backups live in S3, backup
// and import logs in Mongo.
func (c *Config) Connect(ctx context.Context, log *logrus.Logger) error {
	s3c, err := s3.NewConnection(c.s3Info)
	if err != nil {
		return fmt.Errorf("s3 connect: %w", err)
	}
	if err := s3c.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("s3 bucket: %w", err)
	}
	log.WithField("bucket", s3c.Bucket).Info("[CFG] s3 ready")

	mg, err := mongo.NewConnection(ctx, c.mongoInfo)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	log.WithField("db", c.mongoInfo.DB).Info("[CFG] mongo ready")

	c.S3, c.Mongo = s3c, mg
	if !c.usesPostgres() {
		return nil
	}

	pg, err := postgres.NewConnection(ctx, c.pgInfo)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	log.WithField("db", c.pgInfo.DB).Info("[CFG] postgres ready")

	c.Postgres = pg
	return nil
}

func (c *Config) CheckConnections(ctx context.Context) error {
	var errs []error

	if c.usesPostgres() {
		if c.Postgres == nil || c.Postgres.Pool == nil {
			errs = append(errs, errors.New("postgres not initialized"))
		} else if err := c.Postgres.Pool.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres ping failed: %w", err))
		}
	}

	if c.Mongo == nil || c.Mongo.Client == nil {
		errs = append(errs, errors.New("mongo not initialized"))
	} else if err := c.Mongo.Client.Ping(ctx, nil); err != nil {
		errs = append(errs, fmt.Errorf("mongo ping failed: %w", err))
	}

	if c.S3 == nil || c.S3.Client == nil {
		errs = append(errs, errors.New("s3 not initialized"))
	} else if ok, err := c.S3.Client.BucketExists(ctx, c.S3.Bucket); err != nil {
		errs = append(errs, fmt.Errorf("s3 bucket check failed: %w", err))
	} else if !ok {
		errs = append(errs, fmt.Errorf("s3 bucket %q not found", c.S3.Bucket))
	}

	return errors.Join(errs...)
}

func (c *Config) Close(ctx context.Context) {
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.Mongo != nil {
		_ = c.Mongo.Close(ctx)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	n, err := strconv.Atoi(getenv(k, ""))
	if err != nil {
		return def
	}
	return n
}

func getfloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(getenv(k, ""), 64)
	if err != nil {
		return def
	}
	return f
}
