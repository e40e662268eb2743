package user

import (
	"collaborative-docs-backend/internal/domain"
	"collaborative-docs-backend/internal/errors"
	defError "errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service defines the interface for user business logic
type Service interface {
	Register(user *domain.User) error
	Login(username, password string) (*domain.User, error)
	GetUserByID(id uint64) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	SearchUsers(query string) ([]domain.SafeUser, error)
	DeactivateUser(id uint64) error
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
}

// NewService creates a new user service
func NewService(repository UserRepository) Service {
	return &DefaultService{repository: repository}
}

// Register registers a new user
func (s *DefaultService) Register(user *domain.User) error {
	// Username and email must both be unused
	if _, err := s.repository.FindByUsername(user.Username); err == nil {
		return errors.Conflict("Username is already taken", nil)
	} else if !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if _, err := s.repository.FindByEmail(user.Email); err == nil {
		return errors.Conflict("Email is already in use", nil)
	} else if !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't hash password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.IsActive = true

	return s.repository.Create(user)
}

// Login authenticates a user
func (s *DefaultService) Login(username, password string) (*domain.User, error) {
	user, err := s.repository.FindByUsername(username)
	if err != nil {
		return nil, errors.Unauthorized("User not found", err)
	}

	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Wrong password", err)
	}

	return user, nil
}

// GetUserByID gets a user by ID
func (s *DefaultService) GetUserByID(id uint64) (*domain.User, error) {
	return s.repository.FindByID(id)
}

// GetUserByEmail gets a user by email, used by collaborator invites
func (s *DefaultService) GetUserByEmail(email string) (*domain.User, error) {
	user, err := s.repository.FindByEmail(email)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User not found", err)
		}
		return nil, err
	}
	return user, nil
}

// SearchUsers finds users matching the query
func (s *DefaultService) SearchUsers(query string) ([]domain.SafeUser, error) {
	if query == "" {
		return []domain.SafeUser{}, nil
	}

	users, err := s.repository.Search(query, 20)
	if err != nil {
		return nil, err
	}

	result := make([]domain.SafeUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.ToSafeUser())
	}
	return result, nil
}

// DeactivateUser deactivates a user
func (s *DefaultService) DeactivateUser(id uint64) error {
	return s.repository.Deactivate(id)
}
