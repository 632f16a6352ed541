package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"crewops/internal/apperr"
	"crewops/internal/events"
	"crewops/internal/model"
	"crewops/internal/repository"
	"crewops/internal/storage"
)

// DefaultRejectNote is stored when an admin rejects without a note.
const DefaultRejectNote = "Document rejected by administrator"

// DownloadURLExpiry bounds presigned download links.
const DownloadURLExpiry = 15 * time.Minute

// ErrStorageDisabled is returned by operations that need the object store
// when none is configured.
var ErrStorageDisabled = errors.New("document storage is not configured")

// SubmitInput registers a document whose bytes are already stored.
type SubmitInput struct {
	OwnerID     string             `json:"owner_id"`
	Type        model.DocumentType `json:"type"`
	FileRef     string             `json:"file_ref"`
	Filename    string             `json:"filename"`
	Size        int64              `json:"size"`
	ContentType string             `json:"content_type"`
}

// UploadInput describes bytes streamed through the service.
type UploadInput struct {
	OwnerID     string
	Type        model.DocumentType
	Filename    string
	ContentType string
	Size        int64
}

// DocumentListQuery filters and pages document listings.
type DocumentListQuery struct {
	OwnerID string
	Status  model.DocumentStatus
	Type    model.DocumentType
	Limit   int
	Offset  int
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items  []model.Document `json:"data"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// VerificationService owns the document review workflow.
type VerificationService interface {
	// Submit records a pending document that supersedes the owner's latest of the same type.
	Submit(ctx context.Context, in SubmitInput) (*model.Document, error)

	// Upload stores the bytes, then submits. The object is deleted again if the metadata write fails.
	Upload(ctx context.Context, r io.Reader, in UploadInput) (*model.Document, error)

	Approve(ctx context.Context, documentID, adminID string) (*model.Document, error)
	Reject(ctx context.Context, documentID, adminID, note string) (*model.Document, error)

	Get(ctx context.Context, id string) (*model.Document, error)
	List(ctx context.Context, q DocumentListQuery) (*DocumentListResult, error)

	// DownloadURL returns a presigned GET valid for DownloadURLExpiry.
	DownloadURL(ctx context.Context, id string) (string, error)
}

type verificationService struct {
	repo  repository.DocumentRepository
	store storage.DocumentStore
	pub   events.Publisher
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewVerificationService wires the workflow. store and pub may be nil.
func NewVerificationService(repo repository.DocumentRepository, store storage.DocumentStore, pub events.Publisher, log logrus.FieldLogger) VerificationService {
	return &verificationService{repo: repo, store: store, pub: pub, log: log, now: utcNow}
}

func (s *verificationService) Submit(ctx context.Context, in SubmitInput) (*model.Document, error) {
	if err := validateSubmit(in); err != nil {
		return nil, err
	}
	if s.store != nil {
		if _, err := s.store.Stat(ctx, in.FileRef); err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				ve := &apperr.ValidationError{}
				ve.Add("file_ref", "object does not exist")
				return nil, ve
			}
			return nil, fmt.Errorf("stat %s: %w", in.FileRef, err)
		}
	}
	return s.create(ctx, in)
}

func (s *verificationService) Upload(ctx context.Context, r io.Reader, in UploadInput) (*model.Document, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	ve := &apperr.ValidationError{}
	if r == nil {
		ve.Add("file", "is required")
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		ve.Add("owner_id", "is required")
	}
	if !in.Type.Valid() {
		ve.Add("type", "unknown document type")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	key := storage.DocumentKey(in.OwnerID, in.Filename)
	obj, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata:    map[string]string{"original-filename": in.Filename},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc, err := s.create(ctx, SubmitInput{
		OwnerID:     in.OwnerID,
		Type:        in.Type,
		FileRef:     obj.Key,
		Filename:    in.Filename,
		Size:        obj.Size,
		ContentType: in.ContentType,
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return doc, nil
}

func validateSubmit(in SubmitInput) error {
	ve := &apperr.ValidationError{}
	if strings.TrimSpace(in.OwnerID) == "" {
		ve.Add("owner_id", "is required")
	}
	if !in.Type.Valid() {
		ve.Add("type", "unknown document type")
	}
	if strings.TrimSpace(in.FileRef) == "" {
		ve.Add("file_ref", "is required")
	}
	if in.Size < 0 {
		ve.Add("size", "must not be negative")
	}
	return ve.OrNil()
}

func (s *verificationService) create(ctx context.Context, in SubmitInput) (*model.Document, error) {
	doc := &model.Document{
		ID:          uuid.NewString(),
		OwnerID:     in.OwnerID,
		Type:        in.Type,
		FileRef:     in.FileRef,
		Filename:    in.Filename,
		Size:        in.Size,
		ContentType: in.ContentType,
		Status:      model.DocumentPending,
		UploadedAt:  s.now(),
	}
	if doc.Filename == "" {
		doc.Filename = path.Base(in.FileRef)
	}

	prev, err := s.repo.LatestByOwnerType(ctx, in.OwnerID, in.Type)
	switch {
	case err == nil:
		doc.SupersedesID = &prev.ID
	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("find latest %s document: %w", in.Type, err)
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return stored, nil
}

func (s *verificationService) Approve(ctx context.Context, documentID, adminID string) (*model.Document, error) {
	return s.review(ctx, documentID, adminID, model.DocumentApproved, nil)
}

func (s *verificationService) Reject(ctx context.Context, documentID, adminID, note string) (*model.Document, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		note = DefaultRejectNote
	}
	return s.review(ctx, documentID, adminID, model.DocumentRejected, &note)
}

// review applies an admin decision. Repeating the stored decision is a no-op;
// reversing a decision is an invalid state.
func (s *verificationService) review(ctx context.Context, id, adminID string, target model.DocumentStatus, note *string) (*model.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == target {
		return doc, nil
	}
	if doc.Status != model.DocumentPending {
		return nil, apperr.InvalidState("document", id, string(doc.Status), verbFor(target))
	}

	updated, err := s.repo.UpdateStatus(ctx, id, repository.DocumentReview{
		Status:     target,
		AdminNote:  note,
		VerifiedBy: adminID,
		VerifiedAt: s.now(),
	})
	if errors.Is(err, repository.ErrStaleStatus) {
		// a concurrent review landed first
		fresh, ferr := s.find(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		if fresh.Status == target {
			return fresh, nil
		}
		return nil, apperr.InvalidState("document", id, string(fresh.Status), verbFor(target))
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("document", id)
		}
		return nil, fmt.Errorf("update document status: %w", err)
	}

	s.publish(ctx, updated)
	return updated, nil
}

func (s *verificationService) publish(ctx context.Context, d *model.Document) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, events.DocumentStatusChanged(d, s.now())); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"document_id": d.ID,
			"owner_id":    d.OwnerID,
			"status":      d.Status,
		}).Warn("publish document.status_changed failed")
	}
}

func verbFor(target model.DocumentStatus) string {
	if target == model.DocumentApproved {
		return "approve"
	}
	return "reject"
}

func (s *verificationService) Get(ctx context.Context, id string) (*model.Document, error) {
	return s.find(ctx, id)
}

func (s *verificationService) find(ctx context.Context, id string) (*model.Document, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.NotFound("document", id)
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("document", id)
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

// List returns paginated documents without exposing repository types.
func (s *verificationService) List(ctx context.Context, q DocumentListQuery) (*DocumentListResult, error) {
	ve := &apperr.ValidationError{}
	if q.Status != "" && q.Status != model.DocumentPending && q.Status != model.DocumentApproved && q.Status != model.DocumentRejected {
		ve.Add("status", "unknown document status")
	}
	if q.Type != "" && !q.Type.Valid() {
		ve.Add("type", "unknown document type")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	page := pageQuery(q.Limit, q.Offset)
	res, err := s.repo.List(ctx, repository.DocumentFilter{OwnerID: q.OwnerID, Status: q.Status, Type: q.Type}, page)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *verificationService) DownloadURL(ctx context.Context, id string) (string, error) {
	if s.store == nil {
		return "", ErrStorageDisabled
	}
	doc, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	u, err := s.store.PresignGet(ctx, doc.FileRef, DownloadURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", doc.FileRef, err)
	}
	return u, nil
}
