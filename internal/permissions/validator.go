package permissions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	apperrors "github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/metrics"
)

var (
	// ErrUserNotFound indicates the requesting user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrProjectNotFound indicates the target project does not exist.
	ErrProjectNotFound = apperrors.New("PROJECT_NOT_FOUND", "Project not found", http.StatusNotFound)
	// ErrAccessDenied signals the user is known but lacks the required project role.
	// Callers rely on matching this error specifically to trigger ownership fallbacks,
	// so it must stay distinct from the not-found conditions above.
	ErrAccessDenied = apperrors.New("ACCESS_DENIED", "You don't have permission to perform this action", http.StatusForbidden)
)

// Validator is the authorization gate consulted before every privileged
// project-scoped operation. It only reads user, project and membership
// state and never mutates it.
type Validator struct {
	db *gorm.DB
}

// NewValidator constructs a permission validator backed by the provided database.
func NewValidator(db *gorm.DB) (*Validator, error) {
	if db == nil {
		return nil, errors.New("permission validator: db is required")
	}
	return &Validator{db: db}, nil
}

// ValidateAccess checks that the user identified by email holds at least the
// required access level on the project.
//
// Evaluation order: user presence, project presence, admin bypass, membership,
// rank. Administrators skip the membership and rank checks only - a missing
// project still yields ErrProjectNotFound for them.
func (v *Validator) ValidateAccess(ctx context.Context, email, projectID string, required models.AccessLevel) error {
	err := v.validate(ctx, email, projectID, required)
	switch {
	case err == nil:
		metrics.AccessChecks.WithLabelValues("allow").Inc()
	case errors.Is(err, ErrAccessDenied):
		metrics.AccessChecks.WithLabelValues("deny").Inc()
	default:
		metrics.AccessChecks.WithLabelValues("error").Inc()
	}
	return err
}

func (v *Validator) validate(ctx context.Context, email, projectID string, required models.AccessLevel) error {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("permission validator: email is required")
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return errors.New("permission validator: project id is required")
	}
	if !required.Valid() {
		return fmt.Errorf("permission validator: unknown access level %q", required)
	}

	var user models.User
	if err := v.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("permission validator: load user: %w", err)
	}

	var projectCount int64
	if err := v.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Count(&projectCount).Error; err != nil {
		return fmt.Errorf("permission validator: load project: %w", err)
	}
	if projectCount == 0 {
		return ErrProjectNotFound
	}

	if user.IsAdmin() {
		return nil
	}

	membership, err := v.findMembership(ctx, user.ID, projectID)
	if err != nil {
		return err
	}
	if membership == nil {
		return ErrAccessDenied.WithInternal(errors.New("user is not a member of the project"))
	}

	if !Satisfies(membership.Level, required) {
		return ErrAccessDenied.WithInternal(fmt.Errorf("held level %s does not satisfy %s", membership.Level, required))
	}

	return nil
}

// findMembership resolves the user's membership row for the project,
// returning nil when no membership exists. Absence is a normal result,
// not an error.
func (v *Validator) findMembership(ctx context.Context, userID, projectID string) (*models.ProjectMember, error) {
	var membership models.ProjectMember
	err := v.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("permission validator: load membership: %w", err)
	}
	return &membership, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
