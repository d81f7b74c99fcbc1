package data

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/sector_dashboard/config"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/jmoiron/sqlx"
)

const (
	defaultConnAttemts = 5
	connTimeout        = 2 * time.Second
)

// NewWRDSClient connects to the WRDS postgres endpoint. An empty password is
// left out of the DSN so the driver falls back to ~/.pgpass, the same lookup
// WRDS's own client tooling relies on.
func NewWRDSClient(cfg *config.Config) *sqlx.DB {
	dataSourceName := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		cfg.WRDS.Host,
		cfg.WRDS.Port,
		cfg.WRDS.User,
		cfg.WRDS.DbName,
		cfg.WRDS.SSLMode,
	)
	if cfg.WRDS.Password != "" {
		dataSourceName += fmt.Sprintf(" password=%s", cfg.WRDS.Password)
	}

	connAttempts := defaultConnAttemts
	var db *sqlx.DB
	var err error

	for connAttempts > 0 {
		db, err = sqlx.Connect("pgx", dataSourceName)
		if err == nil {
			break
		}

		slog.Info("WRDS is trying to connect", slog.Int("attempts left", connAttempts))

		time.Sleep(connTimeout)

		connAttempts--
	}

	if err != nil {
		slog.Error("WRDS connAttempts = 0")
		panic(err)
	}

	db.SetMaxOpenConns(cfg.WRDS.MaxOpenConns)
	db.SetConnMaxLifetime(time.Duration(cfg.WRDS.ConnMaxLifetime) * time.Second)
	db.SetMaxIdleConns(cfg.WRDS.MaxIdleConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.WRDS.ConnMaxIdleTime) * time.Second)

	slog.Info("WRDS connected", slog.String("host", cfg.WRDS.Host), slog.String("user", cfg.WRDS.User))

	return db
}
