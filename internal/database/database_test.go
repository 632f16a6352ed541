package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"crewops/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOpen swaps sqlOpen for the duration of the test and records the DSN
// it was called with.
func stubOpen(t *testing.T, db *sql.DB, err error) *string {
	t.Helper()
	var seen string
	orig := sqlOpen
	sqlOpen = func(_, dsn string) (*sql.DB, error) {
		seen = dsn
		return db, err
	}
	t.Cleanup(func() { sqlOpen = orig })
	return &seen
}

func crewDB() config.DatabaseConfig {
	return config.DatabaseConfig{Host: "db", Port: "5432", User: "crew", Name: "crewops"}
}

func TestBuildPostgresDSN(t *testing.T) {
	withPassword := crewDB()
	withPassword.Password = "s3cret"
	withPassword.SSLMode = "disable"

	withSSL := crewDB()
	withSSL.SSLMode = "require"

	noHost, noPort, noUser, noName := crewDB(), crewDB(), crewDB(), crewDB()
	noHost.Host, noPort.Port, noUser.User, noName.Name = "", "", "", ""

	tests := []struct {
		name    string
		cfg     config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{name: "password and sslmode", cfg: withPassword, want: "postgres://crew:s3cret@db:5432/crewops?sslmode=disable"},
		{name: "sslmode only", cfg: withSSL, want: "postgres://crew@db:5432/crewops?sslmode=require"},
		{name: "bare", cfg: crewDB(), want: "postgres://crew@db:5432/crewops"},
		{name: "missing host", cfg: noHost, wantErr: true},
		{name: "missing port", cfg: noPort, wantErr: true},
		{name: "missing user", cfg: noUser, wantErr: true},
		{name: "missing name", cfg: noName, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPostgresDSN(tt.cfg)
			if tt.wantErr {
				assert.ErrorContains(t, err, "database config incomplete")
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPostgres(t *testing.T) {
	cfg := crewDB()
	cfg.MaxOpenConns = 16
	cfg.MaxIdleConns = 4
	cfg.ConnMaxLifetimeSec = 120

	t.Run("opens and pings", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dsn := stubOpen(t, db, nil)
		mock.ExpectPing()

		got, err := NewPostgres(context.Background(), cfg)

		require.NoError(t, err)
		assert.Same(t, db, got)
		assert.Equal(t, "postgres://crew@db:5432/crewops", *dsn)
		assert.Equal(t, 16, got.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open fails", func(t *testing.T) {
		stubOpen(t, nil, errors.New("driver missing"))

		got, err := NewPostgres(context.Background(), cfg)

		assert.ErrorContains(t, err, "sql open: driver missing")
		assert.Nil(t, got)
	})

	t.Run("ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		got, err := NewPostgres(context.Background(), cfg)

		assert.ErrorContains(t, err, "db ping: connection refused")
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("incomplete config never opens", func(t *testing.T) {
		dsn := stubOpen(t, nil, errors.New("unreachable"))

		got, err := NewPostgres(context.Background(), config.DatabaseConfig{})

		assert.EqualError(t, err, "database config incomplete: DB_HOST, DB_PORT, DB_USER, DB_NAME not set")
		assert.Nil(t, got)
		assert.Empty(t, *dsn)
	})
}

func TestOpenDSN_CancelledContext(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	dsn := stubOpen(t, db, nil)
	mock.ExpectPing().WillReturnError(context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := OpenDSN(ctx, "postgres://crew@db:5432/crewops", config.DatabaseConfig{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.Equal(t, "postgres://crew@db:5432/crewops", *dsn)
}
