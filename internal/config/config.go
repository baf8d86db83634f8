package config

import (
	"filedepot/internal/core/domain"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      Env
	Server   ServerConfig
	Database DatabaseConfig
	Minio    MinioConfig
	Upload   UploadConfig
	Quota    QuotaConfig
	GC       GCConfig
	Archive  ArchiveConfig
	NATS     NATSConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"localhost"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

type DatabaseConfig struct {
	Host           string        `envconfig:"DB_HOST" required:"true"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER" required:"true"`
	Password       string        `envconfig:"DB_PASSWORD" required:"true"`
	Name           string        `envconfig:"DB_NAME" required:"true"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

type MinioConfig struct {
	Endpoint      string `envconfig:"MINIO_ENDPOINT" required:"true"`
	BucketName    string `envconfig:"MINIO_BUCKET_NAME" required:"true"`
	AccessKey     string `envconfig:"MINIO_ACCESS_KEY" required:"true"`
	SecretKey     string `envconfig:"MINIO_SECRET_KEY" required:"true"`
	StagingPrefix string `envconfig:"MINIO_STAGING_PREFIX" default:"staging"`
	ObjectPrefix  string `envconfig:"MINIO_OBJECT_PREFIX" default:"objects"`
	UseSSL        bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type UploadConfig struct {
	MinPartSize        int64         `envconfig:"UPLOAD_MIN_PART_SIZE" default:"1048576"`              // 1MB
	MaxPartSize        int64         `envconfig:"UPLOAD_MAX_PART_SIZE" default:"67108864"`             // 64MB
	MaxFileSize        int64         `envconfig:"UPLOAD_MAX_FILE_SIZE" default:"5368709120"`           // 5GB
	MaxTotalParts      int           `envconfig:"UPLOAD_MAX_TOTAL_PARTS" default:"10000"`
	MaxParallelParts   int           `envconfig:"UPLOAD_MAX_PARALLEL_PARTS" default:"8"`
	MaxSessionsPerUser int           `envconfig:"UPLOAD_MAX_SESSIONS_PER_USER" default:"16"`
	LargeFileThreshold int64         `envconfig:"UPLOAD_LARGE_FILE_THRESHOLD" default:"104857600"`     // 100MB
	SessionTTL         time.Duration `envconfig:"UPLOAD_SESSION_TTL" default:"30m"`
	Resumable          bool          `envconfig:"UPLOAD_RESUMABLE" default:"true"`
	HashVerify         bool          `envconfig:"UPLOAD_HASH_VERIFY" default:"true"`
	InstantUpload      bool          `envconfig:"UPLOAD_INSTANT_UPLOAD" default:"true"`
	RetryBaseDelay     time.Duration `envconfig:"UPLOAD_RETRY_BASE_DELAY" default:"500ms"`
	RetryMaxDelay      time.Duration `envconfig:"UPLOAD_RETRY_MAX_DELAY" default:"10s"`
	RetryMaxAttempts   int           `envconfig:"UPLOAD_RETRY_MAX_ATTEMPTS" default:"5"`
}

type QuotaConfig struct {
	DefaultLimit int64 `envconfig:"QUOTA_DEFAULT_LIMIT" default:"10737418240"` // 10GB
}

type GCConfig struct {
	SweepEvery  time.Duration `envconfig:"GC_SWEEP_EVERY" default:"15m"`
	FailedGrace time.Duration `envconfig:"GC_FAILED_GRACE" default:"24h"`
}

type ArchiveConfig struct {
	Workers   int           `envconfig:"ARCHIVE_WORKERS" default:"2"`
	QueueSize int           `envconfig:"ARCHIVE_QUEUE_SIZE" default:"64"`
	Retention time.Duration `envconfig:"ARCHIVE_RETENTION" default:"1h"`
}

type NATSConfig struct {
	URL           string `envconfig:"NATS_URL" required:"true"`
	StreamName    string `envconfig:"NATS_STREAM_NAME" default:"FILEDEPOT_EVENTS"`
	SubjectPrefix string `envconfig:"NATS_SUBJECT_PREFIX" default:"filedepot.events"`
	ClientName    string `envconfig:"NATS_CLIENT_NAME" default:"filedepot-core"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Policy derives the immutable upload policy echoed to clients at session open
func (c UploadConfig) Policy() domain.UploadPolicy {
	return domain.UploadPolicy{
		MinPartSize:        c.MinPartSize,
		MaxPartSize:        c.MaxPartSize,
		MaxFileSize:        c.MaxFileSize,
		MaxParallelParts:   c.MaxParallelParts,
		MaxSessionsPerUser: c.MaxSessionsPerUser,
		LargeFileThreshold: c.LargeFileThreshold,
		Resumable:          c.Resumable,
		HashVerify:         c.HashVerify,
		InstantUpload:      c.InstantUpload,
		SessionTTL:         c.SessionTTL,
		RetryBaseDelay:     c.RetryBaseDelay,
		RetryMaxDelay:      c.RetryMaxDelay,
		RetryMaxAttempts:   c.RetryMaxAttempts,
	}
}
