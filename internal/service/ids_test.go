package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crewops/internal/apperr"
	"crewops/internal/repository/postgres"
)

// Ids that cannot be UUIDs surface as NOT_FOUND from the postgres-backed
// services rather than as a driver error.
func TestMalformedIDsAreNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	log := quietLogger()
	contractRepo := postgres.NewContractPostgres(db)
	candidateRepo := postgres.NewCandidatePostgres(db)

	contracts := NewContractService(contractRepo, 30*24*time.Hour, log)
	candidates := NewCandidateService(candidateRepo)
	verification := NewVerificationService(postgres.NewDocumentPostgres(db), nil, nil, log)
	assignments, err := NewAssignmentService(contractRepo, candidateRepo, postgres.NewAssignmentPostgres(db), prometheus.NewRegistry(), log)
	require.NoError(t, err)

	const bad = "OO-AbCdEfGhIj"
	tests := []struct {
		name   string
		entity string
		call   func() error
	}{
		{"contract get", "contract", func() error { _, err := contracts.Get(ctx, bad); return err }},
		{"contract history", "contract", func() error { _, err := contracts.History(ctx, bad); return err }},
		{"candidate get", "candidate", func() error { _, err := candidates.Get(ctx, bad); return err }},
		{"document approve", "document", func() error { _, err := verification.Approve(ctx, bad, admin.ID); return err }},
		{"assign", "contract", func() error {
			_, err := assignments.Assign(ctx, bad, "7a1e9f30-2c4b-4d6e-8f10-3b5c7d9e1f02", admin)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, apperr.IsNotFound(err), "got %v", err)
			assert.Equal(t, http.StatusNotFound, apperr.HTTPStatus(err))
			var nf *apperr.NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, tt.entity, nf.Entity)
			assert.Equal(t, bad, nf.ID)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
