package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/internal/permissions"
	apperrors "github.com/dkovalov/taskhub/pkg/errors"
)

// CommentService manages task comments. Reading requires VIEWER access,
// writing MEMBER access; edits and deletions are reserved to the comment's
// author or a global admin.
type CommentService struct {
	db        *gorm.DB
	validator *permissions.Validator
	activity  *ActivityService
}

// NewCommentService constructs a CommentService instance.
func NewCommentService(db *gorm.DB, validator *permissions.Validator, activity *ActivityService) (*CommentService, error) {
	if db == nil {
		return nil, errors.New("comment service: db is required")
	}
	if validator == nil {
		return nil, errors.New("comment service: permission validator is required")
	}
	return &CommentService{db: db, validator: validator, activity: activity}, nil
}

// Create adds a comment to a task on the caller's behalf.
func (s *CommentService) Create(ctx context.Context, projectID, taskID, text, email string) (*models.Comment, error) {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessMember); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewBadRequest("comment text is required")
	}

	task, err := s.loadTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	author, err := s.loadUser(ctx, email)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID: task.ID,
		UserID: author.ID,
		Text:   text,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("comment service: create comment: %w", err)
	}
	comment.User = *author

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   &author.ID,
		Action:   "comment.create",
		Resource: comment.ID,
		Result:   "success",
		Metadata: map[string]any{"task_id": task.ID},
	})

	return comment, nil
}

// List returns a task's comments in chronological order.
func (s *CommentService) List(ctx context.Context, projectID, taskID, email string) ([]models.Comment, error) {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessViewer); err != nil {
		return nil, err
	}

	task, err := s.loadTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", task.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("comment service: list comments: %w", err)
	}
	return comments, nil
}

// Update rewrites a comment's text. Only the author or an admin may do so.
func (s *CommentService) Update(ctx context.Context, projectID, taskID, commentID, text, email string) (*models.Comment, error) {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessMember); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewBadRequest("comment text is required")
	}

	comment, err := s.loadComment(ctx, projectID, taskID, commentID)
	if err != nil {
		return nil, err
	}

	if err := s.requireAuthorOrAdmin(ctx, comment, email); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(comment).Update("text", text).Error; err != nil {
		return nil, fmt.Errorf("comment service: update comment: %w", err)
	}
	comment.Text = text
	return comment, nil
}

// Delete removes a comment. Only the author or an admin may do so.
func (s *CommentService) Delete(ctx context.Context, projectID, taskID, commentID, email string) error {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessMember); err != nil {
		return err
	}

	comment, err := s.loadComment(ctx, projectID, taskID, commentID)
	if err != nil {
		return err
	}

	if err := s.requireAuthorOrAdmin(ctx, comment, email); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", comment.ID).Error; err != nil {
		return fmt.Errorf("comment service: delete comment: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "comment.delete",
		Resource: comment.ID,
		Result:   "success",
		Metadata: map[string]any{"task_id": comment.TaskID},
	})

	return nil
}

// requireAuthorOrAdmin enforces the author-or-admin rule. Authorship is
// decided by email comparison, not record identity.
func (s *CommentService) requireAuthorOrAdmin(ctx context.Context, comment *models.Comment, email string) error {
	caller, err := s.loadUser(ctx, email)
	if err != nil {
		return err
	}
	if caller.IsAdmin() {
		return nil
	}
	if strings.EqualFold(comment.User.Email, caller.Email) {
		return nil
	}
	return permissions.ErrAccessDenied.WithInternal(errors.New("caller is not the comment author"))
}

func (s *CommentService) loadUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normaliseEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("comment service: load user: %w", err)
	}
	return &user, nil
}

func (s *CommentService) loadTask(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		First(&task, "id = ? AND project_id = ?", strings.TrimSpace(taskID), strings.TrimSpace(projectID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("comment service: load task: %w", err)
	}
	return &task, nil
}

func (s *CommentService) loadComment(ctx context.Context, projectID, taskID, commentID string) (*models.Comment, error) {
	task, err := s.loadTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	var comment models.Comment
	err = s.db.WithContext(ctx).
		Preload("User").
		First(&comment, "id = ? AND task_id = ?", strings.TrimSpace(commentID), task.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("comment service: load comment: %w", err)
	}
	return &comment, nil
}
