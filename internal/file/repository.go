package file

import (
	"collaborative-docs-backend/internal/domain"
	"context"
	"time"

	"gorm.io/gorm"
)

type FileRepository interface {
	Create(ctx context.Context, file *domain.File) error
	FindByID(ctx context.Context, id uint64) (*domain.File, error)
	FindByFileName(ctx context.Context, fileName string) (*domain.File, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]domain.File, error)
	ListByDocument(ctx context.Context, docID uint64) ([]domain.File, error)
	Delete(ctx context.Context, id uint64) error
}

type FileRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) FileRepository {
	return &FileRepositoryImpl{db: db}
}

func (r *FileRepositoryImpl) Create(ctx context.Context, file *domain.File) error {
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *FileRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.File, error) {
	var file domain.File
	err := r.db.WithContext(ctx).Preload("Document").First(&file, id).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepositoryImpl) FindByFileName(ctx context.Context, fileName string) (*domain.File, error) {
	var file domain.File
	err := r.db.WithContext(ctx).Where("file_name = ?", fileName).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint64) ([]domain.File, error) {
	var files []domain.File
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

func (r *FileRepositoryImpl) ListByDocument(ctx context.Context, docID uint64) ([]domain.File, error) {
	var files []domain.File
	err := r.db.WithContext(ctx).
		Where("document_id = ?", docID).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

func (r *FileRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&domain.File{}, id).Error
}
