package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"nadlan/internal/cache"
	apperrors "nadlan/internal/errors"
	"nadlan/internal/models"
	"nadlan/internal/pagination"
)

// userService handles user-related business logic.
type userService struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewUserService creates a new UserServicer. store may be nil.
func NewUserService(db *gorm.DB, store *cache.Store) UserServicer {
	return &userService{db: db, cache: store}
}

// CreateUser registers a new user. The caller decides the role; an empty role
// creates an investor.
func (s *userService) CreateUser(input CreateUserInput) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" || input.Password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username and password are required")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	role := input.Role
	if role == "" {
		role = models.RoleInvestor
	}

	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(input.Email),
		Phone:    input.Phone,
		Role:     role,
		Status:   models.UserStatusActive,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if role == models.RoleInvestor {
		invalidateDashboard(s.cache)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (s *userService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", strings.ToLower(strings.TrimSpace(username))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// AttemptLogin checks credentials and stamps LastLoginAt on success. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *userService) AttemptLogin(username, password string) (*models.User, error) {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Status != models.UserStatusActive {
		return nil, apperrors.ErrInactiveUser
	}

	now := time.Now()
	if err := s.db.Model(user).Update("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now

	return user, nil
}

// ListInvestors returns a page of investor accounts ordered by name.
func (s *userService) ListInvestors(page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	query := s.db.Model(&models.User{}).Where("role = ?", models.RoleInvestor)
	result, err := pagination.Find[models.User](query, page, "name ASC, created_at ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// UpdateUser applies a profile patch. A new name is copied onto every
// calculator the user owns within the same transaction.
func (s *userService) UpdateUser(id string, patch UserPatch) (*models.User, error) {
	updates := make(map[string]interface{})
	if patch.Name != nil {
		updates["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		updates["email"] = strings.ToLower(*patch.Email)
	}
	if patch.Phone != nil {
		updates["phone"] = *patch.Phone
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(updates) == 0 {
			return nil
		}

		renamed := patch.Name != nil && updates["name"] != user.Name
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if renamed {
			if err := syncInvestorName(tx, user.ID, updates["name"].(string)); err != nil {
				return err
			}
		}
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// StoreRefreshTokenHash saves the hash of the user's current refresh token.
// An empty hash signs the user out everywhere.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash for a user.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}
