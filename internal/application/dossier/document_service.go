package dossier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/dossier"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DownloadExpiry is the lifetime of document download links.
const DownloadExpiry = 15 * time.Minute

// ObjectStorage keeps document bytes. Implemented by the storage package.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key, fileName string, expiresIn time.Duration) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
}

// TextIndexer feeds plain-text uploads to the assistant knowledge base.
type TextIndexer interface {
	IndexDocument(ctx context.Context, tenantID, documentID uuid.UUID, text string) (int, error)
	ForgetDocument(ctx context.Context, tenantID, documentID uuid.UUID) error
}

// ErrSizeMismatch is returned when the body length differs from the declared size.
var ErrSizeMismatch = shared.NewDomainError("SIZE_MISMATCH", "Uploaded file size does not match the declared size")

// UploadInput describes one uploaded file.
type UploadInput struct {
	DossierID   uuid.UUID
	Title       string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentService stores documents in object storage and their metadata in the database.
type DocumentService struct {
	dossiers dossier.Repository
	docs     dossier.DocumentRepository
	storage  ObjectStorage
	indexer  TextIndexer
	metrics  *telemetry.BusinessMetrics
	logger   *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(dossiers dossier.Repository, docs dossier.DocumentRepository, storage ObjectStorage, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{dossiers: dossiers, docs: docs, storage: storage, logger: logger}
}

// SetIndexer enables indexing of text uploads.
func (s *DocumentService) SetIndexer(indexer TextIndexer) {
	s.indexer = indexer
}

// SetMetrics enables business metrics.
func (s *DocumentService) SetMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// Upload checksums the body, stores it and records its metadata. When the
// metadata cannot be written the stored object is removed again.
func (s *DocumentService) Upload(ctx context.Context, tenantID, userID uuid.UUID, in UploadInput) (resp *DocumentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "upload",
		telemetry.TenantAttr(tenantID), telemetry.IDAttr("dossier.id", in.DossierID))
	defer func() { telemetry.End(span, err) }()

	d, err := s.dossiers.FindByID(ctx, tenantID, in.DossierID)
	if err != nil {
		return nil, err
	}
	if !d.IsEditable() {
		return nil, shared.NewDomainError("DOSSIER_LOCKED", "Closed or archived dossiers cannot receive documents")
	}

	doc, err := dossier.NewDocument(tenantID, d.ID, userID, in.Title, in.FileName, in.ContentType, in.Size)
	if err != nil {
		return nil, err
	}

	body, sum, err := checksum(in.Body, in.Size)
	if err != nil {
		return nil, err
	}
	doc.SetChecksum(sum)

	if err := s.storage.Put(ctx, doc.StorageKey, body, doc.Size, doc.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, doc.StorageKey); delErr != nil {
			s.logger.Error("Failed to remove orphaned object",
				zap.String("storage_key", doc.StorageKey), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("Document uploaded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.Int64("size", doc.Size))
	s.metrics.DocumentStored(ctx, tenantID)

	if s.indexer != nil && dossier.IsText(doc.ContentType) {
		s.index(ctx, tenantID, doc, body)
	}

	out := ToDocumentResponse(doc)
	return &out, nil
}

func (s *DocumentService) index(ctx context.Context, tenantID uuid.UUID, doc *dossier.Document, body io.ReadSeeker) {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return
	}
	text, err := io.ReadAll(body)
	if err != nil {
		return
	}
	n, err := s.indexer.IndexDocument(ctx, tenantID, doc.ID, string(text))
	if err != nil {
		s.logger.Warn("Failed to index document", zap.String("document_id", doc.ID.String()), zap.Error(err))
		return
	}
	s.logger.Debug("Document indexed", zap.String("document_id", doc.ID.String()), zap.Int("chunks", n))
}

// checksum hashes exactly size bytes of r and returns a reader positioned at
// the start of the same bytes.
func checksum(r io.Reader, size int64) (io.ReadSeeker, string, error) {
	h := sha256.New()
	if rs, ok := r.(io.ReadSeeker); ok {
		n, err := io.Copy(h, io.LimitReader(rs, size+1))
		if err != nil {
			return nil, "", fmt.Errorf("failed to read upload: %w", err)
		}
		if n != size {
			return nil, "", ErrSizeMismatch
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, "", fmt.Errorf("failed to rewind upload: %w", err)
		}
		return rs, hex.EncodeToString(h.Sum(nil)), nil
	}

	data, err := io.ReadAll(io.LimitReader(r, size+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) != size {
		return nil, "", ErrSizeMismatch
	}
	h.Write(data)
	return bytes.NewReader(data), hex.EncodeToString(h.Sum(nil)), nil
}

// List returns the documents of a dossier.
func (s *DocumentService) List(ctx context.Context, tenantID, dossierID uuid.UUID) ([]DocumentResponse, error) {
	if _, err := s.dossiers.FindByID(ctx, tenantID, dossierID); err != nil {
		return nil, err
	}
	docs, err := s.docs.FindByDossier(ctx, tenantID, dossierID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToDocumentResponse(d))
	}
	return out, nil
}

// Get returns document metadata.
func (s *DocumentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.docs.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	out := ToDocumentResponse(doc)
	return &out, nil
}

// DownloadURL returns a presigned link valid for DownloadExpiry.
func (s *DocumentService) DownloadURL(ctx context.Context, tenantID, id uuid.UUID) (*DownloadLink, error) {
	doc, err := s.docs.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	url, expires, err := s.storage.PresignGet(ctx, doc.StorageKey, doc.FileName, DownloadExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create download link: %w", err)
	}
	return &DownloadLink{URL: url, ExpiresAt: expires, FileName: doc.FileName}, nil
}

// Rename changes a document title.
func (s *DocumentService) Rename(ctx context.Context, tenantID, id uuid.UUID, title string) (*DocumentResponse, error) {
	doc, err := s.docs.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := doc.Rename(title); err != nil {
		return nil, err
	}
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	out := ToDocumentResponse(doc)
	return &out, nil
}

// Delete soft-deletes the metadata row. The stored object is kept.
func (s *DocumentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.docs.FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	if s.indexer != nil {
		if err := s.indexer.ForgetDocument(ctx, tenantID, id); err != nil {
			s.logger.Warn("Failed to drop document knowledge",
				zap.String("document_id", id.String()), zap.Error(err))
		}
	}
	s.logger.Info("Document deleted", zap.String("document_id", id.String()))
	return nil
}
