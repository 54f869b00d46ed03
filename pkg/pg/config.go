// Package pg bootstraps the PostgreSQL connection pool and applies schema
// migrations at startup.
package pg

import "time"

type Config struct {
	ConnectionString string        `env:"PG_CONN_URL,required"`                  // ConnectionString is the pgx connection URL.
	MaxOpenConns     int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`     // MaxOpenConns caps the pool size.
	MaxIdleConns     int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"2"`      // MaxIdleConns keeps warm connections for burst traffic.
	MaxConnLifetime  time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"` // MaxConnLifetime bounds how long a connection is reused.

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"` // RetryAttempts is the number of connect attempts at startup.
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`

	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}
