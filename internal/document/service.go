package document

import (
	"collaborative-docs-backend/internal/domain"
	"collaborative-docs-backend/internal/errors"
	"collaborative-docs-backend/redis"
	"context"
	defError "errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AnonymousUser marks unauthenticated callers on the read paths.
const AnonymousUser uint64 = 0

type Service interface {
	CreateDocument(ctx context.Context, ownerID uint64, document *domain.Document) error
	GetDocument(ctx context.Context, docID uint64, userID uint64) (*domain.Document, error)
	UpdateDocument(ctx context.Context, docID uint64, userID uint64, title, content string, isPublic bool) (*domain.Document, error)
	DeleteDocument(ctx context.Context, docID uint64, userID uint64) error
	GetUserDocuments(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedDocuments, error)
	GetPublicDocuments(ctx context.Context, page, pageSize int) (*PaginatedDocuments, error)
	SearchDocuments(ctx context.Context, keyword string, userID uint64) ([]domain.Document, error)
}

type DefaultService struct {
	repository DocumentRepository
	cache      *redis.Cache
}

func NewService(repository DocumentRepository, cache *redis.Cache) Service {
	return &DefaultService{
		repository: repository,
		cache:      cache,
	}
}

type PaginatedDocuments struct {
	Data []domain.Document `json:"data"`
	Meta DocumentsMeta     `json:"meta"`
}

func (s *DefaultService) CreateDocument(ctx context.Context, ownerID uint64, document *domain.Document) error {
	if err := s.repository.Create(ctx, ownerID, document); err != nil {
		return err
	}
	// increase cache key, so any new fetch will get new version
	versionKey := fmt.Sprintf("user:%d:docs:version", ownerID)
	s.cache.IncrementVersion(ctx, versionKey)
	return nil
}

// GetDocument serves the authorized read path: public documents for anyone,
// private documents for the owner only. A successful read bumps the view
// counter; the increment is a plain read-modify-write and may lose updates
// under concurrency, which is acceptable for an analytics counter.
func (s *DefaultService) GetDocument(ctx context.Context, docID uint64, userID uint64) (*domain.Document, error) {
	doc, err := s.repository.FindActiveByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	if !doc.IsPublic && doc.OwnerID != userID {
		return nil, errors.Forbidden("Access denied", nil)
	}

	doc.ViewCount++
	if err := s.repository.Save(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *DefaultService) UpdateDocument(ctx context.Context, docID uint64, userID uint64, title, content string, isPublic bool) (*domain.Document, error) {
	doc, err := s.repository.FindActiveByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}

	if doc.OwnerID != userID {
		return nil, errors.Forbidden("Access denied", nil)
	}

	doc.Title = title
	doc.Content = content
	doc.IsPublic = isPublic
	doc.UpdatedAt = time.Now().UTC()
	if err := s.repository.Save(ctx, doc); err != nil {
		return nil, err
	}

	versionKey := fmt.Sprintf("user:%d:docs:version", userID)
	s.cache.IncrementVersion(ctx, versionKey)

	return doc, nil
}

func (s *DefaultService) DeleteDocument(ctx context.Context, docID uint64, userID uint64) error {
	doc, err := s.repository.FindActiveByID(ctx, docID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Document not found", err)
		}
		return err
	}

	if doc.OwnerID != userID {
		return errors.Forbidden("Only owner can delete document", nil)
	}

	if err := s.repository.SoftDelete(ctx, docID); err != nil {
		return err
	}

	versionKey := fmt.Sprintf("user:%d:docs:version", userID)
	s.cache.IncrementVersion(ctx, versionKey)

	return nil
}

func (s *DefaultService) GetUserDocuments(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedDocuments, error) {
	// Get the current data version for this user's documents
	versionKey := fmt.Sprintf("user:%d:docs:version", userID)
	v := s.cache.GetVersion(ctx, versionKey)

	cacheKey := fmt.Sprintf("docs:u:%d:v:%d:p:%d:ps:%d", userID, v, page, pageSize)

	var result PaginatedDocuments
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	documents, docsMeta, err := s.repository.ListByOwner(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	result = PaginatedDocuments{Data: documents, Meta: docsMeta}
	go s.cache.Set(context.Background(), cacheKey, result, 24*time.Hour)

	return &result, nil
}

func (s *DefaultService) GetPublicDocuments(ctx context.Context, page, pageSize int) (*PaginatedDocuments, error) {
	documents, docsMeta, err := s.repository.ListPublic(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &PaginatedDocuments{Data: documents, Meta: docsMeta}, nil
}

// SearchDocuments searches the caller's own documents when authenticated,
// public documents otherwise.
func (s *DefaultService) SearchDocuments(ctx context.Context, keyword string, userID uint64) ([]domain.Document, error) {
	if userID != AnonymousUser {
		return s.repository.SearchByOwnerAndTitle(ctx, userID, keyword)
	}
	return s.repository.SearchPublicByTitle(ctx, keyword)
}
