package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	apperrors "github.com/dkovalov/taskhub/pkg/errors"
)

// LabelInput captures label creation or update fields.
type LabelInput struct {
	Name  string
	Color string
}

// LabelService manages the shared label catalogue. Labels are global:
// any authenticated user may read them, admins manage them.
type LabelService struct {
	db       *gorm.DB
	activity *ActivityService
}

// NewLabelService constructs a LabelService instance.
func NewLabelService(db *gorm.DB, activity *ActivityService) (*LabelService, error) {
	if db == nil {
		return nil, errors.New("label service: db is required")
	}
	return &LabelService{db: db, activity: activity}, nil
}

// Create adds a new label. Names are unique.
func (s *LabelService) Create(ctx context.Context, input LabelInput) (*models.Label, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("label name is required")
	}

	label := &models.Label{
		Name:  name,
		Color: strings.TrimSpace(input.Color),
	}
	if err := s.db.WithContext(ctx).Create(label).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrLabelNameTaken
		}
		return nil, fmt.Errorf("label service: create label: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "label.create",
		Resource: label.ID,
		Result:   "success",
		Metadata: map[string]any{"name": label.Name},
	})

	return label, nil
}

// List returns all labels ordered by name.
func (s *LabelService) List(ctx context.Context) ([]models.Label, error) {
	ctx = ensureContext(ctx)

	var labels []models.Label
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&labels).Error; err != nil {
		return nil, fmt.Errorf("label service: list labels: %w", err)
	}
	return labels, nil
}

// Get loads one label by id.
func (s *LabelService) Get(ctx context.Context, id string) (*models.Label, error) {
	ctx = ensureContext(ctx)

	var label models.Label
	err := s.db.WithContext(ctx).First(&label, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLabelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("label service: load label: %w", err)
	}
	return &label, nil
}

// Update renames or recolours a label.
func (s *LabelService) Update(ctx context.Context, id string, input LabelInput) (*models.Label, error) {
	ctx = ensureContext(ctx)

	label, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" {
		updates["name"] = name
	}
	if color := strings.TrimSpace(input.Color); color != "" {
		updates["color"] = color
	}
	if len(updates) == 0 {
		return label, nil
	}

	if err := s.db.WithContext(ctx).Model(label).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrLabelNameTaken
		}
		return nil, fmt.Errorf("label service: update label: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a label and detaches it from all tasks.
func (s *LabelService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	label, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_labels WHERE label_id = ?", label.ID).Error; err != nil {
			return fmt.Errorf("label service: detach label: %w", err)
		}
		if err := tx.Delete(&models.Label{}, "id = ?", label.ID).Error; err != nil {
			return fmt.Errorf("label service: delete label: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "label.delete",
		Resource: label.ID,
		Result:   "success",
	})

	return nil
}
