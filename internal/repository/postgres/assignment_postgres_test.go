package postgres

import (
	"context"
	"testing"

	"crewops/internal/model"
	"crewops/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lockQuery = "SELECT kind, approval_status, status FROM contracts WHERE id = \\$1 FOR UPDATE"

func lockRow(kind, approval, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"kind", "approval_status", "status"}).AddRow(kind, approval, status)
}

func TestAssignmentPostgres_Assign(t *testing.T) {
	params := repository.AssignParams{ContractID: testContractID, CandidateID: testCandidateID, ActorID: "admin-1", At: fixedNow}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(testContractID).WillReturnRows(lockRow("one_off", "approved", "reviewing"))
		mock.ExpectExec("UPDATE candidates SET current_assignment = \\$1, status = \\$2, updated_at = \\$3 WHERE current_assignment IS NULL AND id = \\$4").
			WithArgs(testContractID, model.CandidateOnContract, fixedNow, testCandidateID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE contracts SET status = \\$1, assigned_candidate_id = \\$2").
			WithArgs(model.StatusAssigned, testCandidateID, fixedNow, "admin-1", fixedNow, testContractID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO assignments (.+) RETURNING").
			WithArgs(sqlmock.AnyArg(), testContractID, testCandidateID, fixedNow, "admin-1").
			WillReturnRows(sqlmock.NewRows(assignmentColumns).
				AddRow(testAssignmentID, testContractID, testCandidateID, fixedNow, "admin-1", nil, nil, nil))
		mock.ExpectExec("INSERT INTO contract_status_history").
			WithArgs(testContractID, model.FieldStatus, "reviewing", "assigned", "admin-1", nil, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		a, err := NewAssignmentPostgres(db).Assign(context.Background(), params)

		require.NoError(t, err)
		assert.Equal(t, testAssignmentID, a.ID)
		assert.True(t, a.Active())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("candidate already claimed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(testContractID).WillReturnRows(lockRow("one_off", "approved", "open"))
		mock.ExpectExec("UPDATE candidates").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM candidates WHERE id = \\$1\\)").WithArgs(testCandidateID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err = NewAssignmentPostgres(db).Assign(context.Background(), params)

		assert.ErrorIs(t, err, repository.ErrCandidateTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("contract no longer assignable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(testContractID).WillReturnRows(lockRow("one_off", "approved", "assigned"))
		mock.ExpectRollback()

		_, err = NewAssignmentPostgres(db).Assign(context.Background(), params)

		assert.ErrorIs(t, err, repository.ErrContractNotAssignable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAssignmentPostgres_Release(t *testing.T) {
	params := repository.ReleaseParams{
		ContractID: testContractID, Intent: model.ReleaseComplete, Target: model.StatusCompleted,
		ActorID: "admin-1", At: fixedNow,
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(testContractID).WillReturnRows(lockRow("one_off", "approved", "assigned"))
		mock.ExpectQuery("UPDATE assignments SET released_at = \\$1, released_by = \\$2, release_reason = \\$3 WHERE contract_id = \\$4 AND released_at IS NULL RETURNING").
			WithArgs(fixedNow, "admin-1", model.ReleaseComplete, testContractID).
			WillReturnRows(sqlmock.NewRows(assignmentColumns).
				AddRow(testAssignmentID, testContractID, testCandidateID, fixedNow, "admin-1", fixedNow, "admin-1", "complete"))
		mock.ExpectExec("UPDATE candidates SET current_assignment = \\$1, status = \\$2, updated_at = \\$3 WHERE current_assignment = \\$4 AND id = \\$5").
			WithArgs(nil, model.CandidateAvailable, fixedNow, testContractID, testCandidateID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE contracts SET status = \\$1").
			WithArgs(model.StatusCompleted, nil, fixedNow, "admin-1", fixedNow, testContractID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO contract_status_history").
			WithArgs(testContractID, model.FieldStatus, "assigned", "completed", "admin-1", nil, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		a, err := NewAssignmentPostgres(db).Release(context.Background(), params)

		require.NoError(t, err)
		assert.False(t, a.Active())
		require.NotNil(t, a.ReleaseReason)
		assert.Equal(t, model.ReleaseComplete, *a.ReleaseReason)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("contract not assigned", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(testContractID).WillReturnRows(lockRow("one_off", "approved", "open"))
		mock.ExpectRollback()

		_, err = NewAssignmentPostgres(db).Release(context.Background(), params)

		assert.ErrorIs(t, err, repository.ErrStaleStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no active assignment", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(lockQuery).WithArgs(testContractID).WillReturnRows(lockRow("one_off", "approved", "assigned"))
		mock.ExpectQuery("UPDATE assignments").WillReturnRows(sqlmock.NewRows(assignmentColumns))
		mock.ExpectRollback()

		_, err = NewAssignmentPostgres(db).Release(context.Background(), params)

		assert.ErrorIs(t, err, repository.ErrAssignmentNotActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCandidatePostgres_ListUnassigned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM candidates WHERE current_assignment IS NULL ORDER BY id").
		WillReturnRows(sqlmock.NewRows(candidateColumns).AddRow(
			testCandidateID, "seafarer-1", "Ana Reyes", "Chief Officer", 8.0, "Manila", "Philippines",
			fixedNow, nil, "{STCW,GMDSS}", "valid", "available", nil, fixedNow, fixedNow,
		))

	items, err := NewCandidatePostgres(db).ListUnassigned(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"STCW", "GMDSS"}, []string(items[0].Certifications))
	assert.False(t, items[0].Assigned())
	assert.NoError(t, mock.ExpectationsWereMet())
}
