package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/pkg/crypto"
	apperrors "github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/logger"
)

// RegisterInput captures a new account registration.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileInput describes mutable profile fields.
type UpdateProfileInput struct {
	Username  *string
	FirstName *string
	LastName  *string
}

// UserService manages accounts and orchestrates the two-phase protocol for
// sensitive account mutations (email and password changes).
type UserService struct {
	db            *gorm.DB
	verification  *VerificationService
	notifications *NotificationService
	activity      *ActivityService
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, verification *VerificationService, notifications *NotificationService, activity *ActivityService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if verification == nil {
		return nil, errors.New("user service: verification service is required")
	}
	return &UserService{
		db:            db,
		verification:  verification,
		notifications: notifications,
		activity:      activity,
	}, nil
}

// Register creates a new account with the default USER role.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	if email == "" || username == "" {
		return nil, apperrors.NewBadRequest("email and username are required")
	}
	if input.Password == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("user service: check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:     email,
		Username:  username,
		Password:  hashed,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      models.RoleUser,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   &user.ID,
		Action:   "user.register",
		Resource: user.ID,
		Result:   "success",
	})

	return user, nil
}

// GetByEmail loads a user by their email address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = normaliseEmail(email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// UpdateProfile modifies the caller's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, email string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Username != nil {
		if username := strings.TrimSpace(*input.Username); username != "" && username != user.Username {
			updates["username"] = username
		}
	}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}

	return s.GetByEmail(ctx, user.Email)
}

// UpdateRole changes a user's global role. Authorization (admin only) is
// enforced by the caller.
func (s *UserService) UpdateRole(ctx context.Context, userID string, role models.UserRole) (*models.User, error) {
	ctx = ensureContext(ctx)

	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperrors.NewBadRequest("unknown role")
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", strings.TrimSpace(userID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("user service: update role: %w", err)
	}
	user.Role = role

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   &user.ID,
		Action:   "user.update_role",
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"role": role},
	})

	return &user, nil
}

// ChangeEmail starts the two-phase email change. The current password must
// match and the new address must be free. On success a verification code is
// created and mailed to the user's current address. A delivery failure is
// reported to the caller but does not undo the pending token.
func (s *UserService) ChangeEmail(ctx context.Context, email, newEmail, currentPassword string) error {
	ctx = ensureContext(ctx)

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if !crypto.VerifyPassword(user.Password, currentPassword) {
		return apperrors.ErrInvalidCredentials
	}

	newEmail = normaliseEmail(newEmail)
	if newEmail == "" {
		return apperrors.NewBadRequest("new email is required")
	}

	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", newEmail).Count(&taken).Error; err != nil {
		return fmt.Errorf("user service: check new email: %w", err)
	}
	if taken > 0 {
		return ErrEmailTaken
	}

	rawCode, err := s.verification.CreateToken(ctx, user, models.TokenEmailChange, newEmail)
	if err != nil {
		return err
	}

	logger.WithModule("users").Info("email change requested", zap.String("user_id", user.ID))

	if s.notifications != nil {
		return s.notifications.SendEmailChangeCode(ctx, user, newEmail, rawCode)
	}
	return nil
}

// ChangePassword starts the two-phase password change. The new password is
// hashed before it enters the token store, so the plaintext never persists.
func (s *UserService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	ctx = ensureContext(ctx)

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if !crypto.VerifyPassword(user.Password, currentPassword) {
		return apperrors.ErrInvalidCredentials
	}

	if newPassword == "" {
		return apperrors.NewBadRequest("new password is required")
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash new password: %w", err)
	}

	rawCode, err := s.verification.CreateToken(ctx, user, models.TokenPasswordChange, hashed)
	if err != nil {
		return err
	}

	logger.WithModule("users").Info("password change requested", zap.String("user_id", user.ID))

	if s.notifications != nil {
		return s.notifications.SendPasswordChangeCode(ctx, user, rawCode)
	}
	return nil
}

// ConfirmChange completes a pending account mutation. The code must match the
// user's current token; on success the pending value is applied and the token
// consumed in a single transaction. A failed confirmation leaves the token in
// place so the user can retry until it expires.
func (s *UserService) ConfirmChange(ctx context.Context, email, rawCode string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token, err := s.verification.FindToken(ctx, user)
	if err != nil {
		return nil, err
	}

	ok, err := s.verification.ValidateCode(ctx, user, rawCode, token.Kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidVerificationCode
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch token.Kind {
		case models.TokenEmailChange:
			if err := tx.Model(user).Update("email", token.PendingValue).Error; err != nil {
				if isUniqueConstraintError(err) {
					return ErrEmailTaken
				}
				return fmt.Errorf("user service: apply email change: %w", err)
			}
			user.Email = token.PendingValue
		case models.TokenPasswordChange:
			if err := tx.Model(user).Update("password", token.PendingValue).Error; err != nil {
				return fmt.Errorf("user service: apply password change: %w", err)
			}
			user.Password = token.PendingValue
		default:
			return fmt.Errorf("user service: unknown token kind %q", token.Kind)
		}

		if err := tx.Delete(&models.VerificationToken{}, "id = ?", token.ID).Error; err != nil {
			return fmt.Errorf("user service: consume token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithModule("users").Info("account change confirmed",
		zap.String("user_id", user.ID),
		zap.String("kind", string(token.Kind)),
	)

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   &user.ID,
		Action:   "user.confirm_change",
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"kind": token.Kind},
	})

	return user, nil
}
