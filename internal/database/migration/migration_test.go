package migration

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEnsureMigrated_AppliesPendingSteps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	rows := sqlmock.NewRows([]string{"name"})
	for _, s := range steps[:len(steps)-1] {
		rows.AddRow(s.Name)
	}
	mock.ExpectQuery("SELECT name FROM schema_migrations").WillReturnRows(rows)

	last := steps[len(steps)-1]
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(last.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(last.Name).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = EnsureMigrated(context.Background(), db, quietLogger(), "localhost")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_UpToDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"name"})
	for _, name := range Names() {
		rows.AddRow(name)
	}
	mock.ExpectQuery("SELECT name FROM schema_migrations").WillReturnRows(rows)

	assert.NoError(t, EnsureMigrated(context.Background(), db, quietLogger(), "localhost"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_StepFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE EXTENSION").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = EnsureMigrated(context.Background(), db, quietLogger(), "localhost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create_extension_uuid_ossp")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSteps_ExclusivityIndexes(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "create_index_assignments_active_candidate")
	assert.Contains(t, names, "create_index_assignments_active_contract")

	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate step %s", n)
		seen[n] = true
	}
}
