package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/internal/permissions"
	"github.com/dkovalov/taskhub/internal/storage"
	apperrors "github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/logger"
)

// UploadAttachmentInput describes one file to attach to a task.
type UploadAttachmentInput struct {
	Filename    string
	Size        int64
	ContentType string
	Content     io.Reader
}

// AttachmentDownload carries attachment metadata together with its bytes.
type AttachmentDownload struct {
	Attachment *models.Attachment
	Content    []byte
}

// AttachmentService stores task files in the object store and their metadata
// in the database. Managers control all attachments; the task's assignee may
// upload and remove files on their own task.
type AttachmentService struct {
	db        *gorm.DB
	validator *permissions.Validator
	store     storage.FileStore
	activity  *ActivityService
}

// NewAttachmentService constructs an AttachmentService instance.
func NewAttachmentService(db *gorm.DB, validator *permissions.Validator, store storage.FileStore, activity *ActivityService) (*AttachmentService, error) {
	if db == nil {
		return nil, errors.New("attachment service: db is required")
	}
	if validator == nil {
		return nil, errors.New("attachment service: permission validator is required")
	}
	if store == nil {
		return nil, errors.New("attachment service: file store is required")
	}
	return &AttachmentService{db: db, validator: validator, store: store, activity: activity}, nil
}

// Upload stores the file content and records the attachment. Requires
// MANAGER access, or the caller must be the task's assignee.
func (s *AttachmentService) Upload(ctx context.Context, projectID, taskID string, input UploadAttachmentInput, email string) (*models.Attachment, error) {
	ctx = ensureContext(ctx)

	filename := path.Base(strings.TrimSpace(input.Filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, apperrors.NewBadRequest("filename is required")
	}
	if input.Content == nil {
		return nil, apperrors.NewBadRequest("file content is required")
	}

	task, err := s.authorize(ctx, projectID, taskID, email)
	if err != nil {
		return nil, err
	}

	caller, err := s.loadUser(ctx, email)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tasks/%s/%s", task.ID, filename)

	var exists int64
	err = s.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("storage_key = ?", key).
		Count(&exists).Error
	if err != nil {
		return nil, fmt.Errorf("attachment service: check attachment: %w", err)
	}
	if exists > 0 {
		return nil, ErrAttachmentExists
	}

	if err := s.store.Put(ctx, key, input.Content, input.ContentType); err != nil {
		return nil, fmt.Errorf("attachment service: store file: %w", err)
	}

	attachment := &models.Attachment{
		TaskID:       task.ID,
		StorageKey:   key,
		Filename:     filename,
		Size:         input.Size,
		UploadedByID: caller.ID,
	}
	if err := s.db.WithContext(ctx).Create(attachment).Error; err != nil {
		// orphaned object cleanup is best effort
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.Warn("orphaned attachment object left in store",
				zap.String("key", key),
				zap.Error(delErr))
		}
		if isUniqueConstraintError(err) {
			return nil, ErrAttachmentExists
		}
		return nil, fmt.Errorf("attachment service: create attachment: %w", err)
	}
	attachment.UploadedBy = *caller

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   &caller.ID,
		Action:   "attachment.upload",
		Resource: attachment.ID,
		Result:   "success",
		Metadata: map[string]any{"task_id": task.ID, "filename": filename},
	})

	return attachment, nil
}

// List returns a task's attachments. Requires VIEWER access.
func (s *AttachmentService) List(ctx context.Context, projectID, taskID, email string) ([]models.Attachment, error) {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessViewer); err != nil {
		return nil, err
	}

	task, err := s.loadTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	var attachments []models.Attachment
	err = s.db.WithContext(ctx).
		Preload("UploadedBy").
		Where("task_id = ?", task.ID).
		Order("created_at ASC").
		Find(&attachments).Error
	if err != nil {
		return nil, fmt.Errorf("attachment service: list attachments: %w", err)
	}
	return attachments, nil
}

// Download fetches an attachment's content. Requires VIEWER access.
func (s *AttachmentService) Download(ctx context.Context, projectID, taskID, attachmentID, email string) (*AttachmentDownload, error) {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessViewer); err != nil {
		return nil, err
	}

	attachment, err := s.loadAttachment(ctx, projectID, taskID, attachmentID)
	if err != nil {
		return nil, err
	}

	content, err := s.store.Get(ctx, attachment.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("attachment service: fetch file: %w", err)
	}
	return &AttachmentDownload{Attachment: attachment, Content: content}, nil
}

// Delete removes an attachment and its stored object. Requires MANAGER
// access, or the caller must be the task's assignee.
func (s *AttachmentService) Delete(ctx context.Context, projectID, taskID, attachmentID, email string) error {
	ctx = ensureContext(ctx)

	if _, err := s.authorize(ctx, projectID, taskID, email); err != nil {
		return err
	}

	attachment, err := s.loadAttachment(ctx, projectID, taskID, attachmentID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Attachment{}, "id = ?", attachment.ID).Error; err != nil {
		return fmt.Errorf("attachment service: delete attachment: %w", err)
	}

	if err := s.store.Delete(ctx, attachment.StorageKey); err != nil {
		logger.Warn("attachment object removal failed",
			zap.String("key", attachment.StorageKey),
			zap.Error(err))
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "attachment.delete",
		Resource: attachment.ID,
		Result:   "success",
		Metadata: map[string]any{"task_id": attachment.TaskID},
	})

	return nil
}

// authorize admits managers, and otherwise falls back to the assignee of
// the task identified by email comparison.
func (s *AttachmentService) authorize(ctx context.Context, projectID, taskID, email string) (*models.Task, error) {
	err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessManager)
	if err == nil {
		return s.loadTask(ctx, projectID, taskID)
	}
	if !errors.Is(err, permissions.ErrAccessDenied) {
		return nil, err
	}

	task, getErr := s.loadTask(ctx, projectID, taskID)
	if getErr != nil {
		return nil, getErr
	}
	if !strings.EqualFold(task.Assignee.Email, normaliseEmail(email)) {
		return nil, err
	}
	return task, nil
}

func (s *AttachmentService) loadUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normaliseEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("attachment service: load user: %w", err)
	}
	return &user, nil
}

func (s *AttachmentService) loadTask(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Preload("Assignee").
		First(&task, "id = ? AND project_id = ?", strings.TrimSpace(taskID), strings.TrimSpace(projectID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("attachment service: load task: %w", err)
	}
	return &task, nil
}

func (s *AttachmentService) loadAttachment(ctx context.Context, projectID, taskID, attachmentID string) (*models.Attachment, error) {
	task, err := s.loadTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	var attachment models.Attachment
	err = s.db.WithContext(ctx).
		Preload("UploadedBy").
		First(&attachment, "id = ? AND task_id = ?", strings.TrimSpace(attachmentID), task.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("attachment service: load attachment: %w", err)
	}
	return &attachment, nil
}
