package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"crewops/internal/config"
)

// sqlOpen is swapped out by tests.
var sqlOpen = sql.Open

const pingTimeout = 5 * time.Second

// BuildPostgresDSN renders the DB_* settings as a postgres:// URL. The
// password and sslmode are optional; the rest are not.
func BuildPostgresDSN(c config.DatabaseConfig) (string, error) {
	var missing []string
	for _, f := range []struct{ env, val string }{
		{"DB_HOST", c.Host}, {"DB_PORT", c.Port}, {"DB_USER", c.User}, {"DB_NAME", c.Name},
	} {
		if f.val == "" {
			missing = append(missing, f.env)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("database config incomplete: %s not set", strings.Join(missing, ", "))
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   c.Name,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}

	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NewPostgres connects the postgres repositories' handle. Queries are traced
// through otelsql and the pool is sized from the DB_* pool settings.
func NewPostgres(ctx context.Context, c config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return nil, err
	}
	return OpenDSN(ctx, dsn, c)
}

// OpenDSN skips DSN assembly; the integration tests hand it the URL of a
// throwaway container. The handle is closed again if the first ping fails.
func OpenDSN(ctx context.Context, dsn string, c config.DatabaseConfig) (*sql.DB, error) {
	driverName, err := otelsql.Register("pgx",
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithSQLCommenter(true),
	)
	if err != nil {
		return nil, fmt.Errorf("register traced driver: %w", err)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}
