package model

import "time"

// DocumentType enumerates the certification documents a seafarer can upload.
type DocumentType string

const (
	DocumentPassport                DocumentType = "passport"
	DocumentSeamansBook             DocumentType = "seamans_book"
	DocumentSTCWCertificate         DocumentType = "stcw_certificate"
	DocumentMedicalCertificate      DocumentType = "medical_certificate"
	DocumentCertificateOfCompetency DocumentType = "certificate_of_competency"
	DocumentVisa                    DocumentType = "visa"
	DocumentOther                   DocumentType = "other"
)

// RequiredDocumentTypes must all have an approved latest document for a
// seafarer's documentation to count as complete.
var RequiredDocumentTypes = []DocumentType{
	DocumentPassport,
	DocumentSeamansBook,
	DocumentSTCWCertificate,
	DocumentMedicalCertificate,
}

// Valid reports whether t is a known document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentPassport, DocumentSeamansBook, DocumentSTCWCertificate, DocumentMedicalCertificate,
		DocumentCertificateOfCompetency, DocumentVisa, DocumentOther:
		return true
	}
	return false
}

// DocumentStatus is the review state of a document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentApproved DocumentStatus = "approved"
	DocumentRejected DocumentStatus = "rejected"
)

// Document is the metadata of an uploaded seafarer document.
// The bytes live in the object store; FileRef is the only handle the core keeps.
type Document struct {
	ID           string         `json:"id" db:"id"`
	OwnerID      string         `json:"owner_id" db:"owner_id"`
	Type         DocumentType   `json:"type" db:"type"`
	FileRef      string         `json:"file_ref" db:"file_ref"`
	Filename     string         `json:"filename" db:"filename"`
	Size         int64          `json:"size" db:"size"`
	ContentType  string         `json:"content_type" db:"content_type"`
	Status       DocumentStatus `json:"status" db:"status"`
	AdminNote    *string        `json:"admin_note,omitempty" db:"admin_note"`
	VerifiedAt   *time.Time     `json:"verified_at,omitempty" db:"verified_at"`
	VerifiedBy   *string        `json:"verified_by,omitempty" db:"verified_by"`
	SupersedesID *string        `json:"supersedes_id,omitempty" db:"supersedes_id"`
	UploadedAt   time.Time      `json:"uploaded_at" db:"uploaded_at"`
}

// DocumentationStatus summarizes whether a seafarer holds every required
// approved document.
type DocumentationStatus struct {
	SeafarerID    string         `json:"seafarer_id"`
	ApprovedTypes []DocumentType `json:"approved_types"`
	MissingTypes  []DocumentType `json:"missing_types"`
	PendingCount  int            `json:"pending_count"`
	Complete      bool           `json:"complete"`
	ComputedAt    time.Time      `json:"computed_at"`
}
