package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/pkg/crypto"
	apperrors "github.com/dkovalov/taskhub/pkg/errors"
)

func newUserServiceForTest(t *testing.T, db *gorm.DB, mailer *capturingMailer) *UserService {
	t.Helper()

	verification, err := NewVerificationService(db)
	require.NoError(t, err)

	var notifications *NotificationService
	if mailer != nil {
		notifications = NewNotificationService(mailer)
	}

	service, err := NewUserService(db, verification, notifications, nil)
	require.NoError(t, err)
	return service
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := openServiceTestDB(t)
	service := newUserServiceForTest(t, db, nil)

	ctx := context.Background()
	_, err := service.Register(ctx, RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret",
	})
	require.NoError(t, err)

	_, err = service.Register(ctx, RegisterInput{
		Email:    "Alice@Example.com",
		Username: "alice2",
		Password: "secret",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	db := openServiceTestDB(t)
	service := newUserServiceForTest(t, db, nil)

	ctx := context.Background()
	_, err := service.Register(ctx, RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "secret",
	})
	require.NoError(t, err)

	_, err = service.Register(ctx, RegisterInput{
		Email:    "bob@example.com",
		Username: "alice",
		Password: "secret",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestChangeEmailRequiresCurrentPassword(t *testing.T) {
	db := openServiceTestDB(t)
	service := newUserServiceForTest(t, db, nil)
	createTestUser(t, db, "alice@example.com", "secret", models.RoleUser)

	err := service.ChangeEmail(context.Background(), "alice@example.com", "new@example.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	var count int64
	require.NoError(t, db.Model(&models.VerificationToken{}).Count(&count).Error)
	require.Zero(t, count, "no token on failed authentication")
}

func TestChangeEmailRejectsTakenAddress(t *testing.T) {
	db := openServiceTestDB(t)
	service := newUserServiceForTest(t, db, nil)
	createTestUser(t, db, "alice@example.com", "secret", models.RoleUser)
	createTestUser(t, db, "bob@example.com", "secret", models.RoleUser)

	err := service.ChangeEmail(context.Background(), "alice@example.com", "bob@example.com", "secret")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestChangeEmailEndToEnd(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &capturingMailer{}
	service := newUserServiceForTest(t, db, mailer)
	createTestUser(t, db, "alice@example.com", "secret", models.RoleUser)

	ctx := context.Background()
	require.NoError(t, service.ChangeEmail(ctx, "alice@example.com", "alice.new@example.com", "secret"))

	// the code travels to the CURRENT address
	msg := mailer.last(t)
	require.Equal(t, []string{"alice@example.com"}, msg.To)
	code := extractCode(t, msg.Body)

	updated, err := service.ConfirmChange(ctx, "alice@example.com", code)
	require.NoError(t, err)
	require.Equal(t, "alice.new@example.com", updated.Email)

	// the token was consumed
	var count int64
	require.NoError(t, db.Model(&models.VerificationToken{}).Count(&count).Error)
	require.Zero(t, count)

	_, err = service.GetByEmail(ctx, "alice@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePasswordEndToEnd(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &capturingMailer{}
	service := newUserServiceForTest(t, db, mailer)
	createTestUser(t, db, "alice@example.com", "old-password", models.RoleUser)

	ctx := context.Background()
	require.NoError(t, service.ChangePassword(ctx, "alice@example.com", "old-password", "new-password"))
	code := extractCode(t, mailer.last(t).Body)

	// the pending value is already hashed, never the plaintext
	var token models.VerificationToken
	require.NoError(t, db.First(&token).Error)
	require.NotEqual(t, "new-password", token.PendingValue)
	require.True(t, crypto.VerifyPassword(token.PendingValue, "new-password"))

	updated, err := service.ConfirmChange(ctx, "alice@example.com", code)
	require.NoError(t, err)
	require.True(t, crypto.VerifyPassword(updated.Password, "new-password"))
	require.False(t, crypto.VerifyPassword(updated.Password, "old-password"))
}

func TestConfirmChangeRejectsWrongCode(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &capturingMailer{}
	service := newUserServiceForTest(t, db, mailer)
	createTestUser(t, db, "alice@example.com", "secret", models.RoleUser)

	ctx := context.Background()
	require.NoError(t, service.ChangeEmail(ctx, "alice@example.com", "new@example.com", "secret"))
	code := extractCode(t, mailer.last(t).Body)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err := service.ConfirmChange(ctx, "alice@example.com", wrong)
	require.ErrorIs(t, err, ErrInvalidVerificationCode)

	// failed confirmation leaves the token in place for a retry
	updated, err := service.ConfirmChange(ctx, "alice@example.com", code)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", updated.Email)
}

func TestConfirmChangeWithoutPendingToken(t *testing.T) {
	db := openServiceTestDB(t)
	service := newUserServiceForTest(t, db, nil)
	createTestUser(t, db, "alice@example.com", "secret", models.RoleUser)

	_, err := service.ConfirmChange(context.Background(), "alice@example.com", "123456")
	require.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestChangeEmailReportsDeliveryFailure(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &capturingMailer{fail: context.DeadlineExceeded}
	service := newUserServiceForTest(t, db, mailer)
	createTestUser(t, db, "alice@example.com", "secret", models.RoleUser)

	err := service.ChangeEmail(context.Background(), "alice@example.com", "new@example.com", "secret")
	require.ErrorIs(t, err, ErrEmailDelivery)

	// the pending token still exists, the change can be confirmed later
	var count int64
	require.NoError(t, db.Model(&models.VerificationToken{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpdateRoleValidatesRole(t *testing.T) {
	db := openServiceTestDB(t)
	service := newUserServiceForTest(t, db, nil)
	user := createTestUser(t, db, "alice@example.com", "secret", models.RoleUser)

	updated, err := service.UpdateRole(context.Background(), user.ID, models.RoleAdmin)
	require.NoError(t, err)
	require.True(t, updated.IsAdmin())

	_, err = service.UpdateRole(context.Background(), user.ID, models.UserRole("OWNER"))
	require.Error(t, err)
}
