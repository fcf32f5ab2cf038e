package dossier

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// MaxDocumentSize is the upload limit for a single document.
const MaxDocumentSize int64 = 25 << 20

var allowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/png":          true,
	"image/tiff":         true,
	"text/plain":         true,
	"text/markdown":      true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.oasis.opendocument.text":                           true,
}

// IsAllowedContentType reports whether uploads of contentType are accepted.
func IsAllowedContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return allowedContentTypes[ct]
}

// IsText reports whether the content can be indexed for the assistant as-is.
func IsText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/")
}

// Document is a file attached to a dossier. The bytes live in object storage.
type Document struct {
	shared.TenantAggregateRoot
	DossierID   uuid.UUID
	Title       string
	FileName    string
	ContentType string
	Size        int64
	Checksum    string
	StorageKey  string
}

// NewDocument validates upload metadata and derives the storage key.
func NewDocument(tenantID, dossierID, uploadedBy uuid.UUID, title, fileName, contentType string, size int64) (*Document, error) {
	fileName = path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if size <= 0 {
		return nil, shared.NewDomainError("EMPTY_FILE", "Uploaded file is empty")
	}
	if size > MaxDocumentSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds the %d MiB limit", MaxDocumentSize>>20))
	}
	if !IsAllowedContentType(contentType) {
		return nil, shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "File type is not allowed")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = fileName
	}

	doc := &Document{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, uploadedBy),
		DossierID:           dossierID,
		Title:               title,
		FileName:            fileName,
		ContentType:         contentType,
		Size:                size,
	}
	doc.StorageKey = fmt.Sprintf("%s/dossiers/%s/%s%s", tenantID, dossierID, doc.ID, path.Ext(fileName))
	return doc, nil
}

// SetChecksum records the hex SHA-256 of the stored bytes.
func (d *Document) SetChecksum(sum string) {
	d.Checksum = sum
}

// Rename changes the document title.
func (d *Document) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 300 {
		return shared.NewDomainError("INVALID_TITLE", "Title must be between 1 and 300 characters")
	}
	d.Title = title
	d.IncrementVersion()
	return nil
}
