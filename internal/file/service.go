package file

import (
	"collaborative-docs-backend/internal/collab"
	"collaborative-docs-backend/internal/domain"
	"collaborative-docs-backend/internal/errors"
	"collaborative-docs-backend/internal/metrics"
	"collaborative-docs-backend/internal/storage"
	"context"
	defError "errors"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DocumentProvider interface {
	FindActiveByID(ctx context.Context, id uint64) (*domain.Document, error)
}

type CollaboratorProvider interface {
	GetCollaborator(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error)
}

type Service interface {
	Upload(ctx context.Context, ownerID uint64, reader io.Reader, size int64, originalName, contentType string, documentID *uint64) (*domain.File, error)
	Download(ctx context.Context, fileName string) (*domain.File, io.ReadCloser, error)
	ListUserFiles(ctx context.Context, ownerID uint64) ([]domain.File, error)
	ListDocumentFiles(ctx context.Context, docID, requesterID uint64) ([]domain.File, error)
	Delete(ctx context.Context, fileID, requesterID uint64) error
}

type DefaultService struct {
	repository    FileRepository
	blobs         storage.BlobStore
	documents     DocumentProvider
	collaborators CollaboratorProvider
	logger        *zap.Logger
}

func NewService(
	repository FileRepository,
	blobs storage.BlobStore,
	documents DocumentProvider,
	collaborators CollaboratorProvider,
	logger *zap.Logger,
) Service {
	return &DefaultService{
		repository:    repository,
		blobs:         blobs,
		documents:     documents,
		collaborators: collaborators,
		logger:        logger,
	}
}

func (s *DefaultService) hasDocumentAccess(ctx context.Context, doc *domain.Document, userID uint64) (bool, error) {
	collaborator, err := s.collaborators.GetCollaborator(ctx, doc.ID, userID)
	if err != nil {
		return false, err
	}
	return collab.HasDocumentAccess(doc, userID, collaborator), nil
}

// Upload stores the blob under a generated unique name and records it.
// When a document association is requested but the uploader lacks access,
// the already-written blob is removed so no orphan outlives the rejection.
func (s *DefaultService) Upload(ctx context.Context, ownerID uint64, reader io.Reader, size int64, originalName, contentType string, documentID *uint64) (*domain.File, error) {
	storedName := uuid.New().String() + filepath.Ext(originalName)

	path, err := s.blobs.Put(ctx, storedName, reader, size, contentType)
	if err != nil {
		return nil, errors.Internal(err)
	}

	record := &domain.File{
		FileName:     storedName,
		OriginalName: originalName,
		FileType:     contentType,
		FileSize:     size,
		StoragePath:  path,
		FileURL:      "/api/files/download/" + storedName,
		OwnerID:      ownerID,
	}

	if documentID != nil {
		doc, err := s.documents.FindActiveByID(ctx, *documentID)
		if err != nil {
			s.compensateBlob(ctx, path)
			if defError.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.NotFound("Document not found", err)
			}
			return nil, err
		}

		allowed, err := s.hasDocumentAccess(ctx, doc, ownerID)
		if err != nil {
			s.compensateBlob(ctx, path)
			return nil, err
		}
		if !allowed {
			s.compensateBlob(ctx, path)
			return nil, errors.Forbidden("Access denied to document", nil)
		}

		record.DocumentID = documentID
	}

	if err := s.repository.Create(ctx, record); err != nil {
		s.compensateBlob(ctx, path)
		return nil, err
	}

	metrics.FileUploadsTotal.Inc()
	metrics.FileUploadBytes.Add(float64(size))

	return record, nil
}

func (s *DefaultService) compensateBlob(ctx context.Context, path string) {
	if err := s.blobs.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to remove blob after rejected upload",
			zap.String("path", path),
			zap.Error(err),
		)
	}
}

func (s *DefaultService) Download(ctx context.Context, fileName string) (*domain.File, io.ReadCloser, error) {
	record, err := s.repository.FindByFileName(ctx, fileName)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.NotFound("File not found", err)
		}
		return nil, nil, err
	}

	blob, err := s.blobs.Open(ctx, record.StoragePath)
	if err != nil {
		return nil, nil, errors.NotFound("File not found", err)
	}

	return record, blob, nil
}

func (s *DefaultService) ListUserFiles(ctx context.Context, ownerID uint64) ([]domain.File, error) {
	return s.repository.ListByOwner(ctx, ownerID)
}

func (s *DefaultService) ListDocumentFiles(ctx context.Context, docID, requesterID uint64) ([]domain.File, error) {
	doc, err := s.documents.FindActiveByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	allowed, err := s.hasDocumentAccess(ctx, doc, requesterID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errors.Forbidden("Access denied", nil)
	}

	return s.repository.ListByDocument(ctx, docID)
}

// Delete removes the blob first; only a successful blob delete lets the
// record go, so the table never points at missing blobs.
func (s *DefaultService) Delete(ctx context.Context, fileID, requesterID uint64) error {
	record, err := s.repository.FindByID(ctx, fileID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("File not found", err)
		}
		return err
	}

	// file owner, or the owner of the associated document
	if record.OwnerID != requesterID {
		if record.Document == nil || record.Document.OwnerID != requesterID {
			return errors.Forbidden("Access denied", nil)
		}
	}

	if err := s.blobs.Delete(ctx, record.StoragePath); err != nil {
		return errors.Internal(err)
	}

	return s.repository.Delete(ctx, fileID)
}
