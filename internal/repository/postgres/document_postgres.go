package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"crewops/internal/model"
	"crewops/internal/repository"
)

const documentsTable = "documents"

var documentColumns = []string{
	"id", "owner_id", "type", "file_ref", "filename", "size", "content_type",
	"status", "admin_note", "verified_at", "verified_by", "supersedes_id", "uploaded_at",
}

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	b := psql().Insert(documentsTable).
		Columns(documentColumns...).
		Values(
			doc.ID, doc.OwnerID, doc.Type, doc.FileRef, doc.Filename, doc.Size, doc.ContentType,
			doc.Status, doc.AdminNote, doc.VerifiedAt, doc.VerifiedBy, doc.SupersedesID, doc.UploadedAt,
		).
		Suffix("RETURNING " + strings.Join(documentColumns, ", "))

	var out model.Document
	if err := getOne(ctx, r.db, &out, b); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return &out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	b := psql().Select(documentColumns...).From(documentsTable).Where(sq.Eq{"id": id})

	var d model.Document
	if err := getOne(ctx, r.db, &d, b); err != nil {
		return nil, err
	}
	return &d, nil
}

// LatestByOwnerType returns the newest upload of type t for ownerID.
func (r *DocumentPostgres) LatestByOwnerType(ctx context.Context, ownerID string, t model.DocumentType) (*model.Document, error) {
	b := psql().Select(documentColumns...).From(documentsTable).
		Where(sq.Eq{"owner_id": ownerID, "type": t}).
		OrderBy("uploaded_at DESC", "id DESC").
		Limit(1)

	var d model.Document
	if err := getOne(ctx, r.db, &d, b); err != nil {
		return nil, err
	}
	return &d, nil
}

// LatestPerType returns one row per document type: the newest upload.
func (r *DocumentPostgres) LatestPerType(ctx context.Context, ownerID string) ([]model.Document, error) {
	b := psql().Select(documentColumns...).Options("DISTINCT ON (type)").
		From(documentsTable).
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("type", "uploaded_at DESC", "id DESC")

	items := make([]model.Document, 0)
	if err := selectAll(ctx, r.db, &items, b); err != nil {
		return nil, fmt.Errorf("latest documents: %w", err)
	}
	return items, nil
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where := sq.Eq{}
	if f.OwnerID != "" {
		where["owner_id"] = f.OwnerID
	}
	if f.Status != "" {
		where["status"] = f.Status
	}
	if f.Type != "" {
		where["type"] = f.Type
	}

	total, err := count(ctx, r.db, psql().Select("COUNT(*)").From(documentsTable).Where(where))
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	b := psql().Select(documentColumns...).From(documentsTable).
		Where(where).
		OrderBy("uploaded_at DESC", "id DESC").
		Limit(uint64(pq.Limit)).
		Offset(uint64(pq.Offset))

	items := make([]model.Document, 0)
	if err := selectAll(ctx, r.db, &items, b); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateStatus writes the review only if the document is still pending.
func (r *DocumentPostgres) UpdateStatus(ctx context.Context, id string, review repository.DocumentReview) (*model.Document, error) {
	if !validID(id) {
		return nil, sql.ErrNoRows
	}
	b := psql().Update(documentsTable).
		Set("status", review.Status).
		Set("admin_note", review.AdminNote).
		Set("verified_by", review.VerifiedBy).
		Set("verified_at", review.VerifiedAt).
		Where(sq.Eq{"id": id, "status": model.DocumentPending}).
		Suffix("RETURNING " + strings.Join(documentColumns, ", "))

	var out model.Document
	err := getOne(ctx, r.db, &out, b)
	if err == nil {
		return &out, nil
	}
	if !IsNoRowsError(err) {
		return nil, fmt.Errorf("update document status: %w", err)
	}

	found, err := exists(ctx, r.db, documentsTable, id)
	if err != nil {
		return nil, fmt.Errorf("check document: %w", err)
	}
	if !found {
		return nil, sql.ErrNoRows
	}
	return nil, repository.ErrStaleStatus
}
