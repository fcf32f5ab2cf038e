package dossier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/dossier"
	"github.com/notaris/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentRepository is a mock implementation of dossier.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *dossier.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *dossier.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*dossier.Document, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossier.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByDossier(ctx context.Context, tenantID, dossierID uuid.UUID) ([]*dossier.Document, error) {
	args := m.Called(ctx, tenantID, dossierID)
	return args.Get(0).([]*dossier.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type recordingIndexer struct {
	text      string
	err       error
	forgotten []uuid.UUID
}

func (r *recordingIndexer) IndexDocument(_ context.Context, _, _ uuid.UUID, text string) (int, error) {
	r.text = text
	return 1, r.err
}

func (r *recordingIndexer) ForgetDocument(_ context.Context, _, documentID uuid.UUID) error {
	r.forgotten = append(r.forgotten, documentID)
	return nil
}

// plainReader hides Seek so the buffered path is taken.
type plainReader struct{ r *strings.Reader }

func (p plainReader) Read(b []byte) (int, error) { return p.r.Read(b) }

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()
	content := "Ontwerp van akte"
	sum := sha256.Sum256([]byte(content))

	setup := func(t *testing.T) (*DocumentService, *MockDossierRepository, *MockDocumentRepository, *storage.StubObjectStorage, *dossier.Dossier) {
		dossiers := new(MockDossierRepository)
		docs := new(MockDocumentRepository)
		store := storage.NewStubObjectStorage("")
		d := newTestDossier(t, tenantID)
		dossiers.On("FindByID", mock.Anything, tenantID, d.ID).Return(d, nil)
		return NewDocumentService(dossiers, docs, store, nil), dossiers, docs, store, d
	}

	t.Run("stores object and metadata", func(t *testing.T) {
		svc, _, docs, store, d := setup(t)
		indexer := &recordingIndexer{}
		svc.SetIndexer(indexer)
		docs.On("Create", mock.Anything, mock.AnythingOfType("*dossier.Document")).Return(nil)

		resp, err := svc.Upload(ctx, tenantID, userID, UploadInput{
			DossierID: d.ID, FileName: "ontwerp.txt", ContentType: "text/plain",
			Size: int64(len(content)), Body: strings.NewReader(content),
		})
		require.NoError(t, err)
		assert.Equal(t, hex.EncodeToString(sum[:]), resp.Checksum)
		assert.Equal(t, "ontwerp.txt", resp.Title)

		doc := docs.Calls[0].Arguments.Get(1).(*dossier.Document)
		assert.True(t, store.Has(doc.StorageKey))
		assert.Equal(t, content, indexer.text)
	})

	t.Run("non seekable body", func(t *testing.T) {
		svc, _, docs, _, d := setup(t)
		docs.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.Upload(ctx, tenantID, userID, UploadInput{
			DossierID: d.ID, FileName: "scan.pdf", ContentType: "application/pdf",
			Size: int64(len(content)), Body: plainReader{strings.NewReader(content)},
		})
		require.NoError(t, err)
		assert.Equal(t, hex.EncodeToString(sum[:]), resp.Checksum)
	})

	t.Run("size mismatch", func(t *testing.T) {
		svc, _, docs, _, d := setup(t)

		_, err := svc.Upload(ctx, tenantID, userID, UploadInput{
			DossierID: d.ID, FileName: "scan.pdf", ContentType: "application/pdf",
			Size: 3, Body: bytes.NewReader([]byte(content)),
		})
		assert.ErrorIs(t, err, ErrSizeMismatch)
		docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("removes object when metadata fails", func(t *testing.T) {
		svc, _, docs, store, d := setup(t)
		docs.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, err := svc.Upload(ctx, tenantID, userID, UploadInput{
			DossierID: d.ID, FileName: "scan.pdf", ContentType: "application/pdf",
			Size: int64(len(content)), Body: strings.NewReader(content),
		})
		require.Error(t, err)
		doc := docs.Calls[0].Arguments.Get(1).(*dossier.Document)
		assert.False(t, store.Has(doc.StorageKey))
	})

	t.Run("closed dossier", func(t *testing.T) {
		svc, _, _, _, d := setup(t)
		require.NoError(t, d.ChangeStatus(dossier.StatusClosed))

		_, err := svc.Upload(ctx, tenantID, userID, UploadInput{
			DossierID: d.ID, FileName: "scan.pdf", ContentType: "application/pdf",
			Size: int64(len(content)), Body: strings.NewReader(content),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Closed")
	})

	t.Run("indexing failure does not fail upload", func(t *testing.T) {
		svc, _, docs, _, d := setup(t)
		svc.SetIndexer(&recordingIndexer{err: errors.New("provider down")})
		docs.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Upload(ctx, tenantID, userID, UploadInput{
			DossierID: d.ID, FileName: "notes.md", ContentType: "text/markdown",
			Size: int64(len(content)), Body: strings.NewReader(content),
		})
		assert.NoError(t, err)
	})
}

func TestDocumentService_DownloadAndDelete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	docs := new(MockDocumentRepository)
	store := storage.NewStubObjectStorage("https://files.test")
	svc := NewDocumentService(new(MockDossierRepository), docs, store, nil)
	indexer := &recordingIndexer{}
	svc.SetIndexer(indexer)

	doc, err := dossier.NewDocument(tenantID, uuid.New(), uuid.New(), "", "akte.pdf", "application/pdf", 10)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, doc.StorageKey, strings.NewReader("0123456789"), 10, doc.ContentType))
	docs.On("FindByID", mock.Anything, tenantID, doc.ID).Return(doc, nil)
	docs.On("Delete", mock.Anything, tenantID, doc.ID).Return(nil)

	link, err := svc.DownloadURL(ctx, tenantID, doc.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "https://files.test/"+doc.StorageKey))
	assert.Contains(t, link.URL, "filename=akte.pdf")
	assert.Equal(t, "akte.pdf", link.FileName)

	require.NoError(t, svc.Delete(ctx, tenantID, doc.ID))
	assert.True(t, store.Has(doc.StorageKey))
	assert.Equal(t, []uuid.UUID{doc.ID}, indexer.forgotten)
}
