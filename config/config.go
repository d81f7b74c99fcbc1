package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	WRDS        WRDS
	Redis       Redis
	API         API
	Cache       Cache
	Jobs        Jobs
	Server      Server
	Dataset     Dataset
	GoogleDrive GoogleDrive
}

// WRDS is the vendor postgres endpoint. User/password may stay empty: the
// driver then falls back to ~/.pgpass, and interactive runs prompt for them.
type WRDS struct {
	Host            string `env:"WRDS_HOST" envDefault:"wrds-pgdata.wharton.upenn.edu"`
	Port            int    `env:"WRDS_PORT" envDefault:"9737" validate:"min=1,max=65535"`
	DbName          string `env:"WRDS_DB_NAME" envDefault:"wrds"`
	User            string `env:"WRDS_USER" envDefault:""`
	Password        string `env:"WRDS_PASSWORD" envDefault:""`
	SSLMode         string `env:"WRDS_SSLMODE" envDefault:"require" validate:"oneof=disable require verify-ca verify-full"`
	MaxOpenConns    int    `env:"WRDS_MAX_OPEN_CONNS" envDefault:"4" validate:"min=1"`
	ConnMaxLifetime int    `env:"WRDS_CONN_MAX_LIFETIME" envDefault:"1800" validate:"min=1"`
	MaxIdleConns    int    `env:"WRDS_MAX_IDLE_CONNS" envDefault:"2" validate:"min=0"`
	ConnMaxIdleTime int    `env:"WRDS_CONN_MAX_IDLE_TIME" envDefault:"300" validate:"min=1"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379" validate:"min=1,max=65535"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0" validate:"min=0"`
}

type API struct {
	Debug    bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout  time.Duration `env:"API_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	YahooApi YahooApi
}

type YahooApi struct {
	Url string `env:"YAHOO_API_URL" envDefault:"https://query1.finance.yahoo.com"`
	// Yahoo rejects Go's default client UA, so a browser-style one is sent.
	UserAgent   string `env:"YAHOO_API_USER_AGENT" envDefault:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"`
	Concurrency int    `env:"YAHOO_API_CONCURRENCY" envDefault:"4" validate:"min=1"`
}

type Cache struct {
	BetaExpiration  time.Duration `env:"CACHE_BETA_EXPIRATION" envDefault:"24h" validate:"gt=0"`
	StatsExpiration time.Duration `env:"CACHE_STATS_EXPIRATION" envDefault:"10m" validate:"gt=0"`
}

type Jobs struct {
	// Empty crontab disables the nightly refresh. Default runs Tue-Sat 07:00
	// UTC, after CRSP's daily file update.
	DatasetRefreshCrontab string `env:"DATASET_REFRESH_CRONTAB" envDefault:"0 7 * * 2-6"`
}

type Server struct {
	Host            string        `env:"SERVER_HOST" envDefault:""`
	Port            int           `env:"SERVER_PORT" envDefault:"8050" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
}

type Dataset struct {
	File         string `env:"DATASET_FILE" envDefault:"sector_data.csv"`
	Format       string `env:"DATASET_FORMAT" envDefault:"csv" validate:"oneof=csv json parquet"`
	StartDate    string `env:"DATASET_START_DATE" envDefault:"2015-01-01" validate:"datetime=2006-01-02"`
	UniverseFile string `env:"UNIVERSE_FILE" envDefault:""`
}

type GoogleDrive struct {
	// Report sharing is disabled when no credentials file is configured.
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"720h" validate:"gt=0"`
	CleanupCrontab  string        `env:"GOOGLE_DRIVE_CLEANUP_CRONTAB" envDefault:"0 3 * * *"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		log.Fatalf("validate config error: %s", err)
	}

	return cfg
}
