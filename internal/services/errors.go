package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/dkovalov/taskhub/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrTaskNotFound indicates the requested task does not exist.
	ErrTaskNotFound = apperrors.New("TASK_NOT_FOUND", "Task not found", http.StatusNotFound)
	// ErrLabelNotFound indicates one or more requested labels do not exist.
	ErrLabelNotFound = apperrors.New("LABEL_NOT_FOUND", "One or more labels not found", http.StatusNotFound)
	// ErrCommentNotFound indicates the requested comment does not exist.
	ErrCommentNotFound = apperrors.New("COMMENT_NOT_FOUND", "Comment not found", http.StatusNotFound)
	// ErrAttachmentNotFound indicates the requested attachment does not exist.
	ErrAttachmentNotFound = apperrors.New("ATTACHMENT_NOT_FOUND", "Attachment not found", http.StatusNotFound)
	// ErrMemberNotFound indicates the user has no membership on the project.
	ErrMemberNotFound = apperrors.New("MEMBER_NOT_FOUND", "User is not part of this project", http.StatusNotFound)

	// ErrEmailTaken signals a registration or email-change conflict.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "Email already exists", http.StatusConflict)
	// ErrUsernameTaken signals a registration conflict on the username.
	ErrUsernameTaken = apperrors.New("USERNAME_TAKEN", "Username already exists", http.StatusConflict)
	// ErrLabelNameTaken signals a label name collision.
	ErrLabelNameTaken = apperrors.New("LABEL_NAME_TAKEN", "Label name already exists", http.StatusConflict)
	// ErrAttachmentExists signals a storage key collision on upload.
	ErrAttachmentExists = apperrors.New("ATTACHMENT_EXISTS", "File already exists", http.StatusConflict)

	// ErrInvalidVerificationCode covers wrong, expired and mismatched-kind codes.
	ErrInvalidVerificationCode = apperrors.New("INVALID_VERIFICATION_CODE", "Invalid verification code", http.StatusUnauthorized)
	// ErrVerificationNotFound indicates no pending verification token for the user.
	ErrVerificationNotFound = apperrors.New("VERIFICATION_NOT_FOUND", "Verification code not found", http.StatusNotFound)
)

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate")
}
