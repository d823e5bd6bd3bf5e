package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	resetTokenTTL     = time.Hour
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("email is invalid")
	ErrWeakPassword       = errors.New("password is too short")
	ErrEmptyDisplayName   = errors.New("display name is empty")
	ErrSelfAction         = errors.New("action not allowed on own account")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
)

type UserSummary struct {
	ID           uint       `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	IsAdmin      bool       `json:"is_admin"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	ProjectCount int64      `json:"project_count"`
}

type UserService struct {
	db    *gorm.DB
	store UploadStore
}

func NewUserService(db *gorm.DB, store UploadStore) (*UserService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if store == nil {
		return nil, errors.New("upload store is nil")
	}

	return &UserService{db: db, store: store}, nil
}

func (s *UserService) Register(ctx context.Context, email string, password string, displayName string) (*models.User, error) {
	if s == nil {
		return nil, errors.New("user service is nil")
	}

	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)

	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if displayName == "" {
		return nil, ErrEmptyDisplayName
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check existing email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Authenticate verifies the password of an active account and records the
// login time. Inactive accounts fail like wrong credentials.
func (s *UserService) Authenticate(ctx context.Context, email string, password string) (*models.User, error) {
	if s == nil {
		return nil, errors.New("user service is nil")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", normalizeEmail(email), true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now

	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	if s == nil {
		return nil, errors.New("user service is nil")
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	return &user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, oldPassword string, newPassword string) error {
	if s == nil {
		return errors.New("user service is nil")
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	return s.setPassword(ctx, user.ID, newPassword)
}

// CreateResetToken invalidates any previous tokens of the account and issues
// a fresh single-use token valid for one hour.
func (s *UserService) CreateResetToken(ctx context.Context, email string) (string, error) {
	if s == nil {
		return "", errors.New("user service is nil")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("user_id = ?", user.ID).Update("used", true).Error; err != nil {
		return "", fmt.Errorf("invalidate old tokens: %w", err)
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(resetTokenTTL),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return "", fmt.Errorf("create reset token: %w", err)
	}

	return reset.Token, nil
}

func (s *UserService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if s == nil {
		return errors.New("user service is nil")
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	var reset models.PasswordReset
	err := s.db.WithContext(ctx).Where("token = ? AND used = ?", token, false).First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("load reset token: %w", err)
	}
	if reset.ExpiresAt.Before(time.Now().UTC()) {
		return ErrInvalidResetToken
	}

	if err := s.setPassword(ctx, reset.UserID, newPassword); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&reset).Update("used", true).Error; err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}

	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	if s == nil {
		return nil, errors.New("user service is nil")
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, user := range users {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Project{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("count projects for user %d: %w", user.ID, err)
		}
		summaries = append(summaries, UserSummary{
			ID:           user.ID,
			Email:        user.Email,
			DisplayName:  user.DisplayName,
			IsAdmin:      user.IsAdmin,
			IsActive:     user.IsActive,
			CreatedAt:    user.CreatedAt,
			LastLogin:    user.LastLogin,
			ProjectCount: count,
		})
	}

	return summaries, nil
}

// ToggleActive flips the active flag of another account and returns the new
// state. Admins cannot deactivate themselves.
func (s *UserService) ToggleActive(ctx context.Context, actorID uint, targetID uint) (bool, error) {
	if s == nil {
		return false, errors.New("user service is nil")
	}
	if actorID == targetID {
		return false, ErrSelfAction
	}

	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return false, err
	}

	newState := !target.IsActive
	if err := s.db.WithContext(ctx).Model(target).Update("is_active", newState).Error; err != nil {
		return false, fmt.Errorf("update active flag: %w", err)
	}

	return newState, nil
}

func (s *UserService) AdminResetPassword(ctx context.Context, targetID uint, newPassword string) (*models.User, error) {
	if s == nil {
		return nil, errors.New("user service is nil")
	}
	if len(newPassword) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.setPassword(ctx, target.ID, newPassword); err != nil {
		return nil, err
	}

	return target, nil
}

// DeleteUser removes the account with everything it owns: files on disk,
// projects, images, reset tokens, and the user row itself.
func (s *UserService) DeleteUser(ctx context.Context, actorID uint, targetID uint) (*models.User, error) {
	if s == nil {
		return nil, errors.New("user service is nil")
	}
	if actorID == targetID {
		return nil, ErrSelfAction
	}

	target, err := s.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.store.RemoveUserData(target.ID); err != nil {
		return nil, fmt.Errorf("remove user files: %w", err)
	}

	var projectIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("user_id = ?", target.ID).Pluck("id", &projectIDs).Error; err != nil {
		return nil, fmt.Errorf("list user projects: %w", err)
	}
	if len(projectIDs) > 0 {
		if err := s.db.WithContext(ctx).Where("project_id IN ?", projectIDs).Delete(&models.Image{}).Error; err != nil {
			return nil, fmt.Errorf("delete user images: %w", err)
		}
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", target.ID).Delete(&models.Project{}).Error; err != nil {
		return nil, fmt.Errorf("delete user projects: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", target.ID).Delete(&models.PasswordReset{}).Error; err != nil {
		return nil, fmt.Errorf("delete user reset tokens: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.User{}, target.ID).Error; err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}

	return target, nil
}

func (s *UserService) setPassword(ctx context.Context, userID uint, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
