package infrastructure

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite3"
)

func NewProvider(config *Config) *Provider {
	return &Provider{config: config}
}

type Provider struct {
	config *Config
}

// DataSourceName builds the connection string for the configured driver.
func (p *Provider) DataSourceName() (string, error) {
	switch p.config.DbDriverName {
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			p.config.DbHost, p.config.DbPort, p.config.DbUser, p.config.DbPassword, p.config.DbName), nil
	case DriverSqlite:
		return p.config.DbPath, nil
	default:
		return "", fmt.Errorf("unsupported db driver: %q", p.config.DbDriverName)
	}
}

func (p *Provider) InitDBConnection() (*sqlx.DB, error) {
	dsn, err := p.DataSourceName()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(p.config.DbDriverName, dsn)
	if err != nil {
		return nil, err
	}
	if p.config.DbDriverName == DriverSqlite {
		// sqlite allows one writer. Each pool opened on :memory: is its own empty database, so the host
		// must hand this pool to everything that reads the store instead of connecting again.
		db.SetMaxOpenConns(1)
	}

	log.Debug().Msgf("db connection initiated with driver: %s", p.config.DbDriverName)

	return db, nil
}
