package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Artifact *artifactConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"claims"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string        `envconfig:"REPORTER_ADDRESS" default:":8080"`
	MetricsAddress  string        `envconfig:"REPORTER_METRICS_ADDRESS" default:":8081"`
	BaseUrl         string        `envconfig:"REPORTER_BASE_URL" default:"http://localhost:8080"`
	LogLevel        string        `envconfig:"REPORTER_LOG_LEVEL" default:"info"`
	WorkerCount     int           `envconfig:"REPORTER_WORKER_COUNT" default:"4"`
	QueueSize       int           `envconfig:"REPORTER_QUEUE_SIZE" default:"100"`
	JobTimeout      time.Duration `envconfig:"REPORTER_JOB_TIMEOUT" default:"30m"`
	LeaseDuration   time.Duration `envconfig:"REPORTER_JOB_LEASE" default:"30m"`
	MigrationFolder string        `envconfig:"REPORTER_MIGRATIONS_FOLDER" default:"db/migrations"`
	Auth            Auth
}

type artifactConfig struct {
	Type            string `envconfig:"REPORTER_ARTIFACT_STORE" default:"filesystem"`
	Directory       string `envconfig:"REPORTER_ARTIFACT_DIR" default:"reports"`
	Endpoint        string `envconfig:"REPORTER_S3_ENDPOINT" default:""`
	Bucket          string `envconfig:"REPORTER_S3_BUCKET" default:"claims-reports"`
	AccessKey       string `envconfig:"REPORTER_S3_ACCESS_KEY" default:""`
	SecretAccessKey string `envconfig:"REPORTER_S3_SECRET_KEY" default:""`
}

type Auth struct {
	AuthenticationType string `envconfig:"REPORTER_AUTH" default:""`
	JwkCertURL         string `envconfig:"REPORTER_JWK_URL" default:""`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config populated with static defaults, ignoring the
// process environment. Tests use it to get an isolated sqlite-backed setup.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: "file::memory:?cache=shared",
		},
		Service: &svcConfig{
			Address:        ":8080",
			MetricsAddress: ":8081",
			BaseUrl:        "http://localhost:8080",
			LogLevel:       "debug",
			WorkerCount:    2,
			QueueSize:      10,
			JobTimeout:     time.Minute,
			LeaseDuration:  30 * time.Minute,
		},
		Artifact: &artifactConfig{
			Type:      "filesystem",
			Directory: "reports",
		},
	}
}
