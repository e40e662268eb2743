package collab

import (
	"collaborative-docs-backend/internal/domain"
	apiErrors "collaborative-docs-backend/internal/errors"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindCollaborator(ctx context.Context, docID, userID uint64) (*domain.DocumentCollaborator, error) {
	args := m.Called(ctx, docID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentCollaborator), args.Error(1)
}

func (m *MockRepository) SaveCollaborator(ctx context.Context, collaborator *domain.DocumentCollaborator) error {
	args := m.Called(ctx, collaborator)
	return args.Error(0)
}

func (m *MockRepository) ListActiveCollaborators(ctx context.Context, docID uint64) ([]domain.DocumentCollaborator, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentCollaborator), args.Error(1)
}

func (m *MockRepository) CreateActivity(ctx context.Context, activity *domain.DocumentActivity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockRepository) ListRecentActivities(ctx context.Context, docID uint64, limit int) ([]domain.DocumentActivity, error) {
	args := m.Called(ctx, docID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentActivity), args.Error(1)
}

func (m *MockRepository) CountVersions(ctx context.Context, docID uint64) (int64, error) {
	args := m.Called(ctx, docID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CreateVersion(ctx context.Context, version *domain.DocumentVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockRepository) FindVersionByID(ctx context.Context, id uint64) (*domain.DocumentVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentVersion), args.Error(1)
}

func (m *MockRepository) ListVersions(ctx context.Context, docID uint64) ([]domain.DocumentVersion, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentVersion), args.Error(1)
}

func (m *MockRepository) UpdateDocumentContent(ctx context.Context, docID uint64, title, content string, now time.Time) error {
	args := m.Called(ctx, docID, title, content, now)
	return args.Error(0)
}

// Transact hands the callback the mock itself, so the calls the restore
// flow makes inside the transaction are recorded like any other.
func (m *MockRepository) Transact(ctx context.Context, fn func(tx Repository) error) error {
	args := m.Called(ctx)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(m)
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

// MockUserProvider is a mock implementation of UserProvider
type MockUserProvider struct {
	mock.Mock
}

func (m *MockUserProvider) GetUserByEmail(email string) (*domain.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestService() (*MockRepository, *MockDocumentProvider, *MockUserProvider, Service) {
	repo := new(MockRepository)
	docs := new(MockDocumentProvider)
	users := new(MockUserProvider)
	return repo, docs, users, NewService(repo, docs, users)
}

func TestJoin_CreatesRowWithReadPermission(t *testing.T) {
	repo, _, _, service := newTestService()

	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(20)).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("SaveCollaborator", mock.Anything, mock.MatchedBy(func(c *domain.DocumentCollaborator) bool {
		return c.DocumentID == 1 && c.UserID == 20 &&
			c.Permission == domain.PermissionRead && c.IsActive
	})).Return(nil)

	collaborator, err := service.Join(context.Background(), 1, 20)

	assert.NoError(t, err)
	assert.True(t, collaborator.IsActive)
	assert.Equal(t, domain.PermissionRead, collaborator.Permission)
	repo.AssertExpectations(t)
}

func TestJoin_ReactivatesExistingRow(t *testing.T) {
	repo, _, _, service := newTestService()

	existing := &domain.DocumentCollaborator{
		ID:         5,
		DocumentID: 1,
		UserID:     20,
		Permission: domain.PermissionEdit,
		IsActive:   false,
	}
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(20)).Return(existing, nil)
	repo.On("SaveCollaborator", mock.Anything, mock.MatchedBy(func(c *domain.DocumentCollaborator) bool {
		// the same row is reactivated; no second row, permission untouched
		return c.ID == 5 && c.IsActive && c.Permission == domain.PermissionEdit
	})).Return(nil)

	collaborator, err := service.Join(context.Background(), 1, 20)

	assert.NoError(t, err)
	assert.Equal(t, uint64(5), collaborator.ID)
	assert.True(t, collaborator.IsActive)
	assert.False(t, collaborator.LastActivityAt.IsZero())
	repo.AssertExpectations(t)
}

func TestLeave_DeactivatesRow(t *testing.T) {
	repo, _, _, service := newTestService()

	existing := &domain.DocumentCollaborator{ID: 5, DocumentID: 1, UserID: 20, IsActive: true}
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(20)).Return(existing, nil)
	repo.On("SaveCollaborator", mock.Anything, mock.MatchedBy(func(c *domain.DocumentCollaborator) bool {
		return c.ID == 5 && !c.IsActive
	})).Return(nil)

	err := service.Leave(context.Background(), 1, 20)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLeave_MissingRowIsNoOp(t *testing.T) {
	repo, _, _, service := newTestService()

	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(20)).
		Return(nil, gorm.ErrRecordNotFound)

	err := service.Leave(context.Background(), 1, 20)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "SaveCollaborator", mock.Anything, mock.Anything)
}

func TestGetCollaborator_AbsentRowIsNil(t *testing.T) {
	repo, _, _, service := newTestService()

	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(20)).
		Return(nil, gorm.ErrRecordNotFound)

	collaborator, err := service.GetCollaborator(context.Background(), 1, 20)

	assert.NoError(t, err)
	assert.Nil(t, collaborator)
}

func TestListCollaborators_AccessDenied(t *testing.T) {
	repo, docs, _, service := newTestService()

	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 10}, nil)
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(99)).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := service.ListCollaborators(context.Background(), 1, 99)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	repo.AssertNotCalled(t, "ListActiveCollaborators", mock.Anything, mock.Anything)
}

func TestListActivities_DocumentNotFound(t *testing.T) {
	_, docs, _, service := newTestService()

	docs.On("FindActiveByID", mock.Anything, uint64(42)).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := service.ListActivities(context.Background(), 42, 10)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestInviteCollaborator_Success(t *testing.T) {
	repo, docs, users, service := newTestService()

	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 10}, nil)
	users.On("GetUserByEmail", "bob@example.com").
		Return(&domain.User{ID: 20, Username: "bob", Email: "bob@example.com"}, nil)
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(20)).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("SaveCollaborator", mock.Anything, mock.MatchedBy(func(c *domain.DocumentCollaborator) bool {
		return c.UserID == 20 && c.Permission == domain.PermissionEdit && c.IsActive
	})).Return(nil)
	repo.On("CreateActivity", mock.Anything, mock.MatchedBy(func(a *domain.DocumentActivity) bool {
		return a.ActivityType == domain.ActivityCollaboratorInvited &&
			a.UserID == 10 &&
			a.Description == "invited bob as a collaborator"
	})).Return(nil)

	result, err := service.InviteCollaborator(context.Background(), 1, 10, "bob@example.com", domain.PermissionEdit)

	assert.NoError(t, err)
	assert.Equal(t, "bob", result.User.Username)
	assert.Equal(t, domain.PermissionEdit, result.Permission)
	repo.AssertExpectations(t)
}

func TestInviteCollaborator_NotOwner(t *testing.T) {
	_, docs, _, service := newTestService()

	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 10}, nil)

	_, err := service.InviteCollaborator(context.Background(), 1, 20, "bob@example.com", domain.PermissionRead)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
}

func TestInviteCollaborator_Self(t *testing.T) {
	_, docs, users, service := newTestService()

	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 10}, nil)
	users.On("GetUserByEmail", "owner@example.com").
		Return(&domain.User{ID: 10, Username: "owner", Email: "owner@example.com"}, nil)

	_, err := service.InviteCollaborator(context.Background(), 1, 10, "owner@example.com", domain.PermissionRead)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
}

func TestInviteCollaborator_AlreadyActive(t *testing.T) {
	repo, docs, users, service := newTestService()

	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 10}, nil)
	users.On("GetUserByEmail", "bob@example.com").
		Return(&domain.User{ID: 20, Username: "bob", Email: "bob@example.com"}, nil)
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(20)).
		Return(&domain.DocumentCollaborator{ID: 5, DocumentID: 1, UserID: 20, IsActive: true}, nil)

	_, err := service.InviteCollaborator(context.Background(), 1, 10, "bob@example.com", domain.PermissionRead)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
	repo.AssertNotCalled(t, "SaveCollaborator", mock.Anything, mock.Anything)
}

func TestInviteCollaborator_ReusesInactiveRow(t *testing.T) {
	repo, docs, users, service := newTestService()

	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 10}, nil)
	users.On("GetUserByEmail", "bob@example.com").
		Return(&domain.User{ID: 20, Username: "bob", Email: "bob@example.com"}, nil)
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(20)).
		Return(&domain.DocumentCollaborator{
			ID: 5, DocumentID: 1, UserID: 20,
			Permission: domain.PermissionRead, IsActive: false,
		}, nil)
	repo.On("SaveCollaborator", mock.Anything, mock.MatchedBy(func(c *domain.DocumentCollaborator) bool {
		return c.ID == 5 && c.IsActive && c.Permission == domain.PermissionEdit
	})).Return(nil)
	repo.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)

	result, err := service.InviteCollaborator(context.Background(), 1, 10, "bob@example.com", domain.PermissionEdit)

	assert.NoError(t, err)
	assert.Equal(t, uint64(5), result.ID)
	repo.AssertExpectations(t)
}

func TestRestoreVersion_SnapshotsPreRestoreState(t *testing.T) {
	repo, docs, _, service := newTestService()

	doc := &domain.Document{ID: 1, OwnerID: 10, Title: "current", Content: "current body"}
	target := &domain.DocumentVersion{ID: 7, DocumentID: 1, VersionNumber: 2, Title: "old", Content: "old body"}

	docs.On("FindActiveByID", mock.Anything, uint64(1)).Return(doc, nil)
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(10)).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindVersionByID", mock.Anything, uint64(7)).Return(target, nil)
	repo.On("Transact", mock.Anything).Return(nil)
	repo.On("CountVersions", mock.Anything, uint64(1)).Return(int64(3), nil)
	// the new version carries the live state, numbered right after the
	// existing ones
	repo.On("CreateVersion", mock.Anything, mock.MatchedBy(func(v *domain.DocumentVersion) bool {
		return v.DocumentID == 1 &&
			v.VersionNumber == 4 &&
			v.Title == "current" &&
			v.Content == "current body" &&
			v.Changes == "restored to version 2" &&
			v.AuthorID == 10
	})).Return(nil)
	repo.On("UpdateDocumentContent", mock.Anything, uint64(1), "old", "old body", mock.Anything).
		Return(nil)
	repo.On("CreateActivity", mock.Anything, mock.MatchedBy(func(a *domain.DocumentActivity) bool {
		return a.DocumentID == 1 &&
			a.UserID == 10 &&
			a.ActivityType == domain.ActivityVersionRestored &&
			a.Description == "restored to version 2"
	})).Return(nil)

	err := service.RestoreVersion(context.Background(), 1, 7, 10)

	assert.NoError(t, err)
	assert.Equal(t, "old", doc.Title)
	assert.Equal(t, "old body", doc.Content)
	repo.AssertNumberOfCalls(t, "CreateVersion", 1)
	repo.AssertNumberOfCalls(t, "CreateActivity", 1)
	repo.AssertExpectations(t)
}

func TestRestoreVersion_FirstSnapshotIsVersionOne(t *testing.T) {
	repo, docs, _, service := newTestService()

	doc := &domain.Document{ID: 1, OwnerID: 10, Title: "current", Content: "current body"}
	target := &domain.DocumentVersion{ID: 7, DocumentID: 1, VersionNumber: 1, Title: "old", Content: "old body"}

	docs.On("FindActiveByID", mock.Anything, uint64(1)).Return(doc, nil)
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(10)).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindVersionByID", mock.Anything, uint64(7)).Return(target, nil)
	repo.On("Transact", mock.Anything).Return(nil)
	repo.On("CountVersions", mock.Anything, uint64(1)).Return(int64(0), nil)
	repo.On("CreateVersion", mock.Anything, mock.MatchedBy(func(v *domain.DocumentVersion) bool {
		return v.VersionNumber == 1
	})).Return(nil)
	repo.On("UpdateDocumentContent", mock.Anything, uint64(1), "old", "old body", mock.Anything).
		Return(nil)
	repo.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)

	err := service.RestoreVersion(context.Background(), 1, 7, 10)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRestoreVersion_WrongDocument(t *testing.T) {
	repo, docs, _, service := newTestService()

	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 10}, nil)
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(10)).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindVersionByID", mock.Anything, uint64(7)).
		Return(&domain.DocumentVersion{ID: 7, DocumentID: 2, VersionNumber: 1}, nil)

	err := service.RestoreVersion(context.Background(), 1, 7, 10)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	repo.AssertNotCalled(t, "Transact", mock.Anything)
}

func TestRestoreVersion_VersionNotFound(t *testing.T) {
	repo, docs, _, service := newTestService()

	docs.On("FindActiveByID", mock.Anything, uint64(1)).
		Return(&domain.Document{ID: 1, OwnerID: 10}, nil)
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(10)).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindVersionByID", mock.Anything, uint64(99)).
		Return(nil, gorm.ErrRecordNotFound)

	err := service.RestoreVersion(context.Background(), 1, 99, 10)

	var apiErr *apiErrors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestRestoreVersion_CollaboratorAllowed(t *testing.T) {
	repo, docs, _, service := newTestService()

	doc := &domain.Document{ID: 1, OwnerID: 10}
	target := &domain.DocumentVersion{ID: 7, DocumentID: 1, VersionNumber: 1}

	docs.On("FindActiveByID", mock.Anything, uint64(1)).Return(doc, nil)
	// read-only collaborators can restore; restore is gated on access, not edit
	repo.On("FindCollaborator", mock.Anything, uint64(1), uint64(20)).
		Return(&domain.DocumentCollaborator{
			DocumentID: 1, UserID: 20,
			Permission: domain.PermissionRead, IsActive: true,
		}, nil)
	repo.On("FindVersionByID", mock.Anything, uint64(7)).Return(target, nil)
	repo.On("Transact", mock.Anything).Return(nil)
	repo.On("CountVersions", mock.Anything, uint64(1)).Return(int64(1), nil)
	repo.On("CreateVersion", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateDocumentContent", mock.Anything, uint64(1), target.Title, target.Content, mock.Anything).
		Return(nil)
	repo.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)

	err := service.RestoreVersion(context.Background(), 1, 7, 20)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
