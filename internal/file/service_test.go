package file

import (
	"collaborative-docs-backend/internal/domain"
	apiErrors "collaborative-docs-backend/internal/errors"
	"context"
	defError "errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MockFileRepository is a mock implementation of FileRepository
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, file *domain.File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockFileRepository) FindByID(ctx context.Context, id uint64) (*domain.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.File), args.Error(1)
}

func (m *MockFileRepository) FindByFileName(ctx context.Context, fileName string) (*domain.File, error) {
	args := m.Called(ctx, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.File), args.Error(1)
}

func (m *MockFileRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]domain.File, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.File), args.Error(1)
}

func (m *MockFileRepository) ListByDocument(ctx context.Context, docID uint64) ([]domain.File, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.File), args.Error(1)
}

func (m *MockFileRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBlobStore is a mock implementation of storage.BlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, name, reader, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// MockDocumentProvider is a mock implementation of DocumentProvider
type MockDocumentProvider struct {
	mock.Mock
}

func (m *MockDocumentProvider) FindActiveByID(ctx context.Context, id uint64) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

// MockCollaboratorProvider is a mock implementation of CollaboratorProvider
type MockCollaboratorProvider struct {
	mock.Mock
}

func (m *MockCollaboratorProvider) GetCollaborator(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error) {
	args := m.Called(ctx, docID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentCollaborator), args.Error(1)
}

func newTestFileService() (*MockFileRepository, *MockBlobStore, *MockDocumentProvider, *MockCollaboratorProvider, Service) {
	repo := new(MockFileRepository)
	blobs := new(MockBlobStore)
	docs := new(MockDocumentProvider)
	collaborators := new(MockCollaboratorProvider)
	service := NewService(repo, blobs, docs, collaborators, zap.NewNop())
	return repo, blobs, docs, collaborators, service
}

func TestUpload_Unassociated(t *testing.T) {
	repo, blobs, _, _, service := newTestFileService()

	blobs.On("Put", mock.Anything, mock.MatchedBy(func(name string) bool {
		return strings.HasSuffix(name, ".png") && name != "photo.png"
	}), mock.Anything, int64(4), "image/png").Return("uploads/generated.png", nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(f *domain.File) bool {
		return f.OriginalName == "photo.png" &&
			f.OwnerID == 10 &&
			f.DocumentID == nil &&
			strings.HasPrefix(f.FileURL, "/api/files/download/")
	})).Return(nil)

	record, err := service.Upload(context.Background(), 10, strings.NewReader("data"), 4, "photo.png", "image/png", nil)

	assert.NoError(t, err)
	assert.Equal(t, "uploads/generated.png", record.StoragePath)
	// stored under a generated name, never the client supplied one
	assert.NotEqual(t, "photo.png", record.FileName)
	repo.AssertExpectations(t)
}

func TestUpload_DeniedDocumentRemovesBlob(t *testing.T) {
	repo, blobs, docs, collaborators, service := newTestFileService()

	docID := uint64(1)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, int64(4), "image/png").
		Return("uploads/generated.png", nil)
	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 99}, nil)
	collaborators.On("GetCollaborator", mock.Anything, uint64(1), uint64(10)).Return(nil, nil)
	blobs.On("Delete", mock.Anything, "uploads/generated.png").Return(nil)

	_, err := service.Upload(context.Background(), 10, strings.NewReader("data"), 4, "photo.png", "image/png", &docID)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	// the rejected upload must not leave an orphan blob behind
	blobs.AssertCalled(t, "Delete", mock.Anything, "uploads/generated.png")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpload_MissingDocumentRemovesBlob(t *testing.T) {
	repo, blobs, docs, _, service := newTestFileService()

	docID := uint64(42)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, int64(4), "image/png").
		Return("uploads/generated.png", nil)
	docs.On("FindActiveByID", mock.Anything, uint64(42)).
		Return(nil, gorm.ErrRecordNotFound)
	blobs.On("Delete", mock.Anything, "uploads/generated.png").Return(nil)

	_, err := service.Upload(context.Background(), 10, strings.NewReader("data"), 4, "photo.png", "image/png", &docID)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	blobs.AssertCalled(t, "Delete", mock.Anything, "uploads/generated.png")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpload_CollaboratorMayAttach(t *testing.T) {
	repo, blobs, docs, collaborators, service := newTestFileService()

	docID := uint64(1)
	blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, int64(4), "text/plain").
		Return("uploads/generated.txt", nil)
	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 99}, nil)
	collaborators.On("GetCollaborator", mock.Anything, uint64(1), uint64(10)).
		Return(&domain.DocumentCollaborator{
			DocumentID: 1, UserID: 10,
			Permission: domain.PermissionRead, IsActive: true,
		}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(f *domain.File) bool {
		return f.DocumentID != nil && *f.DocumentID == 1
	})).Return(nil)

	record, err := service.Upload(context.Background(), 10, strings.NewReader("data"), 4, "notes.txt", "text/plain", &docID)

	assert.NoError(t, err)
	assert.NotNil(t, record.DocumentID)
	repo.AssertExpectations(t)
}

func TestDelete_BlobFailureKeepsRecord(t *testing.T) {
	repo, blobs, _, _, service := newTestFileService()

	repo.On("FindByID", mock.Anything, uint64(5)).Return(&domain.File{
		ID: 5, OwnerID: 10, StoragePath: "uploads/generated.png",
	}, nil)
	blobs.On("Delete", mock.Anything, "uploads/generated.png").
		Return(defError.New("backend down"))

	err := service.Delete(context.Background(), 5, 10)

	assert.Error(t, err)
	// the record must survive a failed blob delete
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_OwnerRemovesBlobThenRecord(t *testing.T) {
	repo, blobs, _, _, service := newTestFileService()

	repo.On("FindByID", mock.Anything, uint64(5)).Return(&domain.File{
		ID: 5, OwnerID: 10, StoragePath: "uploads/generated.png",
	}, nil)
	blobs.On("Delete", mock.Anything, "uploads/generated.png").Return(nil)
	repo.On("Delete", mock.Anything, uint64(5)).Return(nil)

	err := service.Delete(context.Background(), 5, 10)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	blobs.AssertExpectations(t)
}

func TestDelete_DocumentOwnerAllowed(t *testing.T) {
	repo, blobs, _, _, service := newTestFileService()

	docID := uint64(1)
	repo.On("FindByID", mock.Anything, uint64(5)).Return(&domain.File{
		ID: 5, OwnerID: 20, StoragePath: "uploads/generated.png",
		DocumentID: &docID,
		Document:   &domain.Document{ID: 1, OwnerID: 10},
	}, nil)
	blobs.On("Delete", mock.Anything, "uploads/generated.png").Return(nil)
	repo.On("Delete", mock.Anything, uint64(5)).Return(nil)

	err := service.Delete(context.Background(), 5, 10)

	assert.NoError(t, err)
}

func TestDelete_StrangerDenied(t *testing.T) {
	repo, blobs, _, _, service := newTestFileService()

	repo.On("FindByID", mock.Anything, uint64(5)).Return(&domain.File{
		ID: 5, OwnerID: 20, StoragePath: "uploads/generated.png",
	}, nil)

	err := service.Delete(context.Background(), 5, 99)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDownload_NotFound(t *testing.T) {
	repo, _, _, _, service := newTestFileService()

	repo.On("FindByFileName", mock.Anything, "missing.png").
		Return(nil, gorm.ErrRecordNotFound)

	_, _, err := service.Download(context.Background(), "missing.png")

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestDownload_Success(t *testing.T) {
	repo, blobs, _, _, service := newTestFileService()

	repo.On("FindByFileName", mock.Anything, "generated.png").Return(&domain.File{
		ID: 5, FileName: "generated.png", OriginalName: "photo.png",
		StoragePath: "uploads/generated.png",
	}, nil)
	blobs.On("Open", mock.Anything, "uploads/generated.png").
		Return(io.NopCloser(strings.NewReader("data")), nil)

	record, blob, err := service.Download(context.Background(), "generated.png")

	assert.NoError(t, err)
	assert.Equal(t, "photo.png", record.OriginalName)
	body, _ := io.ReadAll(blob)
	assert.Equal(t, "data", string(body))
}

func TestListDocumentFiles_AccessDenied(t *testing.T) {
	repo, _, docs, collaborators, service := newTestFileService()

	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 99}, nil)
	collaborators.On("GetCollaborator", mock.Anything, uint64(1), uint64(10)).Return(nil, nil)

	_, err := service.ListDocumentFiles(context.Background(), 1, 10)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	repo.AssertNotCalled(t, "ListByDocument", mock.Anything, mock.Anything)
}
