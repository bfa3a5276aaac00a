package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/pkg/crypto"
	"github.com/dkovalov/taskhub/pkg/metrics"
)

const defaultVerificationExpiry = 20 * time.Minute

// VerificationOption customises the VerificationService.
type VerificationOption func(*VerificationService)

// WithVerificationExpiry overrides the token lifetime.
func WithVerificationExpiry(d time.Duration) VerificationOption {
	return func(s *VerificationService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithVerificationClock injects a custom time source.
func WithVerificationClock(clock func() time.Time) VerificationOption {
	return func(s *VerificationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// VerificationService owns the lifecycle of account verification tokens.
// Tokens gate sensitive account mutations behind a short-lived, single-use
// confirmation code delivered out of band. The service is the only writer
// of the verification_tokens table.
type VerificationService struct {
	db     *gorm.DB
	expiry time.Duration
	now    func() time.Time
}

// NewVerificationService constructs a verification service with the provided dependencies.
func NewVerificationService(db *gorm.DB, opts ...VerificationOption) (*VerificationService, error) {
	if db == nil {
		return nil, errors.New("verification service: db is required")
	}

	service := &VerificationService{
		db:     db,
		expiry: defaultVerificationExpiry,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CreateToken issues a fresh verification token for the user and returns the
// raw six digit code. Any existing token for the user is replaced in the same
// transaction, so at most one token per user survives concurrent requests.
// The raw code is never persisted; only its bcrypt hash is stored.
func (s *VerificationService) CreateToken(ctx context.Context, user *models.User, kind models.TokenKind, pendingValue string) (string, error) {
	ctx = ensureContext(ctx)

	if user == nil || user.ID == "" {
		return "", errors.New("verification service: user is required")
	}
	if kind != models.TokenEmailChange && kind != models.TokenPasswordChange {
		return "", fmt.Errorf("verification service: unknown token kind %q", kind)
	}
	if pendingValue == "" {
		return "", errors.New("verification service: pending value is required")
	}

	rawCode, err := crypto.GenerateVerificationCode()
	if err != nil {
		return "", fmt.Errorf("verification service: generate code: %w", err)
	}

	codeHash, err := crypto.HashPassword(rawCode)
	if err != nil {
		return "", fmt.Errorf("verification service: hash code: %w", err)
	}

	token := models.VerificationToken{
		UserID:       user.ID,
		Kind:         kind,
		CodeHash:     codeHash,
		PendingValue: pendingValue,
		ExpiresAt:    s.now().Add(s.expiry),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ?", user.ID).
			Delete(&models.VerificationToken{}).Error; err != nil {
			return fmt.Errorf("verification service: replace existing: %w", err)
		}
		if err := tx.Create(&token).Error; err != nil {
			return fmt.Errorf("verification service: create token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.VerificationCodesIssued.WithLabelValues(string(kind)).Inc()

	return rawCode, nil
}

// ValidateCode checks the raw code against the user's current token. It
// returns false when no token exists, the kind does not match, the token has
// expired, or the code hash comparison fails. The token is left untouched;
// consuming it after a successful confirmation is the caller's responsibility,
// which keeps failed confirmations retryable until expiry.
func (s *VerificationService) ValidateCode(ctx context.Context, user *models.User, rawCode string, kind models.TokenKind) (bool, error) {
	ctx = ensureContext(ctx)

	if user == nil || user.ID == "" {
		return false, errors.New("verification service: user is required")
	}
	if rawCode == "" {
		return false, nil
	}

	token, err := s.FindToken(ctx, user)
	if err != nil {
		if errors.Is(err, ErrVerificationNotFound) {
			return false, nil
		}
		return false, err
	}

	if token.Kind != kind {
		return false, nil
	}
	if s.now().After(token.ExpiresAt) {
		return false, nil
	}

	return crypto.VerifyPassword(token.CodeHash, rawCode), nil
}

// FindToken returns the user's current verification token, or
// ErrVerificationNotFound when none exists.
func (s *VerificationService) FindToken(ctx context.Context, user *models.User) (*models.VerificationToken, error) {
	ctx = ensureContext(ctx)

	if user == nil || user.ID == "" {
		return nil, errors.New("verification service: user is required")
	}

	var token models.VerificationToken
	err := s.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("verification service: find token: %w", err)
	}
	return &token, nil
}

// DeleteToken removes the token once a confirmation has been acted on.
func (s *VerificationService) DeleteToken(ctx context.Context, token *models.VerificationToken) error {
	ctx = ensureContext(ctx)

	if token == nil || token.ID == "" {
		return errors.New("verification service: token is required")
	}
	if err := s.db.WithContext(ctx).Delete(&models.VerificationToken{}, "id = ?", token.ID).Error; err != nil {
		return fmt.Errorf("verification service: delete token: %w", err)
	}
	return nil
}
