package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"crewops/internal/model"
	"crewops/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func documentRow(d model.Document) *sqlmock.Rows {
	return sqlmock.NewRows(documentColumns).AddRow(
		d.ID, d.OwnerID, string(d.Type), d.FileRef, d.Filename, d.Size, d.ContentType,
		string(d.Status), d.AdminNote, d.VerifiedAt, d.VerifiedBy, d.SupersedesID, d.UploadedAt,
	)
}

func sampleDocument() model.Document {
	return model.Document{
		ID:          testDocumentID,
		OwnerID:     "seafarer-1",
		Type:        model.DocumentPassport,
		FileRef:     "documents/seafarer-1/abc.pdf",
		Filename:    "passport.pdf",
		Size:        2048,
		ContentType: "application/pdf",
		Status:      model.DocumentPending,
		UploadedAt:  time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	doc := sampleDocument()

	mock.ExpectQuery("INSERT INTO documents (.+) RETURNING").
		WithArgs(doc.ID, doc.OwnerID, doc.Type, doc.FileRef, doc.Filename, doc.Size, doc.ContentType,
			doc.Status, nil, nil, nil, nil, doc.UploadedAt).
		WillReturnRows(documentRow(doc))

	result, err := repo.Create(context.Background(), &doc)

	require.NoError(t, err)
	assert.Equal(t, doc.ID, result.ID)
	assert.Equal(t, model.DocumentPassport, result.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1").
			WithArgs(testDocumentID).
			WillReturnRows(documentRow(sampleDocument()))

		doc, err := repo.FindByID(ctx, testDocumentID)

		require.NoError(t, err)
		assert.Equal(t, testDocumentID, doc.ID)
		assert.Equal(t, model.DocumentPending, doc.Status)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1").
			WithArgs(testMissingID).
			WillReturnRows(sqlmock.NewRows(documentColumns))

		doc, err := repo.FindByID(ctx, testMissingID)

		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, doc)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE owner_id = \\$1 AND status = \\$2").
		WithArgs("seafarer-1", model.DocumentPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id = \\$1 AND status = \\$2 ORDER BY uploaded_at DESC, id DESC LIMIT 10 OFFSET 0").
		WithArgs("seafarer-1", model.DocumentPending).
		WillReturnRows(documentRow(sampleDocument()))

	res, err := repo.List(context.Background(),
		repository.DocumentFilter{OwnerID: "seafarer-1", Status: model.DocumentPending},
		repository.PageQuery{Limit: 10, Offset: 0})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_LatestPerType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("SELECT DISTINCT ON \\(type\\) (.+) FROM documents WHERE owner_id = \\$1 ORDER BY type").
		WithArgs("seafarer-1").
		WillReturnRows(documentRow(sampleDocument()))

	docs, err := repo.LatestPerType(context.Background(), "seafarer-1")

	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_UpdateStatus(t *testing.T) {
	at := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)
	review := repository.DocumentReview{Status: model.DocumentApproved, VerifiedBy: "admin-1", VerifiedAt: at}

	t.Run("pending document is updated", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		updated := sampleDocument()
		updated.Status = model.DocumentApproved
		updated.VerifiedAt = &at
		by := "admin-1"
		updated.VerifiedBy = &by

		mock.ExpectQuery("UPDATE documents SET status = \\$1, admin_note = \\$2, verified_by = \\$3, verified_at = \\$4 WHERE id = \\$5 AND status = \\$6 RETURNING").
			WithArgs(model.DocumentApproved, nil, "admin-1", at, testDocumentID, model.DocumentPending).
			WillReturnRows(documentRow(updated))

		doc, err := NewDocumentPostgres(db).UpdateStatus(context.Background(), testDocumentID, review)

		require.NoError(t, err)
		assert.Equal(t, model.DocumentApproved, doc.Status)
		assert.Equal(t, "admin-1", *doc.VerifiedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already decided document is stale", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE documents").WillReturnRows(sqlmock.NewRows(documentColumns))
		mock.ExpectQuery("SELECT EXISTS").WithArgs(testDocumentID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err = NewDocumentPostgres(db).UpdateStatus(context.Background(), testDocumentID, review)

		assert.ErrorIs(t, err, repository.ErrStaleStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown document", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("UPDATE documents").WillReturnRows(sqlmock.NewRows(documentColumns))
		mock.ExpectQuery("SELECT EXISTS").WithArgs(testMissingID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err = NewDocumentPostgres(db).UpdateStatus(context.Background(), testMissingID, review)

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
