package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/internal/permissions"
	apperrors "github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/logger"
)

// CreateTaskInput captures a new task. The assignee is addressed by email and
// must already be a member of the target project.
type CreateTaskInput struct {
	Name          string
	Description   string
	Priority      models.TaskPriority
	DueDate       *time.Time
	AssigneeEmail string
	LabelIDs      []string
}

// UpdateTaskInput describes a partial task update. Nil fields are untouched.
type UpdateTaskInput struct {
	Name          *string
	Description   *string
	Priority      *models.TaskPriority
	Status        *models.TaskStatus
	DueDate       *time.Time
	AssigneeEmail *string
	LabelIDs      *[]string
}

// restrictedOnly reports whether the update touches nothing beyond the
// fields an assignee may change on their own task.
func (in UpdateTaskInput) restrictedOnly() bool {
	return in.Name == nil &&
		in.Description == nil &&
		in.Priority == nil &&
		in.DueDate == nil &&
		in.AssigneeEmail == nil
}

// ListTasksOptions controls task listing pagination.
type ListTasksOptions struct {
	Page     int
	PageSize int
}

// TaskPage is one page of tasks together with the total count.
type TaskPage struct {
	Tasks      []models.Task `json:"tasks"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// TaskService manages tasks within projects. Managers hold full control;
// assignees may advance the status and relabel their own tasks.
type TaskService struct {
	db            *gorm.DB
	validator     *permissions.Validator
	notifications *NotificationService
	activity      *ActivityService
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(db *gorm.DB, validator *permissions.Validator, notifications *NotificationService, activity *ActivityService) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	if validator == nil {
		return nil, errors.New("task service: permission validator is required")
	}
	return &TaskService{db: db, validator: validator, notifications: notifications, activity: activity}, nil
}

// Create adds a task to a project. Requires MEMBER access.
func (s *TaskService) Create(ctx context.Context, projectID string, input CreateTaskInput, email string) (*models.Task, error) {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessMember); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("task name is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", strings.TrimSpace(projectID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permissions.ErrProjectNotFound
		}
		return nil, fmt.Errorf("task service: load project: %w", err)
	}

	assignee, err := s.projectMemberByEmail(ctx, project.ID, input.AssigneeEmail)
	if err != nil {
		return nil, err
	}

	labels, err := s.loadLabels(ctx, normaliseIDs(input.LabelIDs))
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Priority:    priority,
		Status:      models.TaskNotStarted,
		DueDate:     input.DueDate,
		ProjectID:   project.ID,
		AssigneeID:  assignee.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("task service: create task: %w", err)
		}
		if len(labels) > 0 {
			if err := tx.Model(task).Association("Labels").Replace(labels); err != nil {
				return fmt.Errorf("task service: attach labels: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		if err := s.notifications.SendTaskAssigned(ctx, assignee, task, project.Name); err != nil {
			logger.Warn("task assignment email failed",
				zap.String("task_id", task.ID),
				zap.Error(err))
		}
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "task.create",
		Resource: task.ID,
		Result:   "success",
		Metadata: map[string]any{"project_id": project.ID, "assignee_id": assignee.ID},
	})

	return s.getTask(ctx, project.ID, task.ID)
}

// List returns a page of a project's tasks ordered by due date.
// Requires VIEWER access.
func (s *TaskService) List(ctx context.Context, projectID string, opts ListTasksOptions, email string) (*TaskPage, error) {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessViewer); err != nil {
		return nil, err
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Task{}).Where("project_id = ?", strings.TrimSpace(projectID))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("task service: count tasks: %w", err)
	}

	var tasks []models.Task
	err := query.
		Preload("Assignee").
		Preload("Labels").
		Order("due_date ASC, created_at ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("task service: list tasks: %w", err)
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &TaskPage{Tasks: tasks, Total: total, Page: page, PageSize: size, TotalPages: totalPages}, nil
}

// Get loads a single task. Requires VIEWER access.
func (s *TaskService) Get(ctx context.Context, projectID, taskID, email string) (*models.Task, error) {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessViewer); err != nil {
		return nil, err
	}
	return s.getTask(ctx, projectID, taskID)
}

// Update applies a partial update to a task. Managers may change any field.
// The task's assignee may change only the status and labels; an assignee
// update that touches any other field is rejected outright.
func (s *TaskService) Update(ctx context.Context, projectID, taskID string, input UpdateTaskInput, email string) (*models.Task, error) {
	ctx = ensureContext(ctx)

	err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessManager)
	if err != nil {
		if !errors.Is(err, permissions.ErrAccessDenied) {
			return nil, err
		}
		task, getErr := s.getTask(ctx, projectID, taskID)
		if getErr != nil {
			return nil, getErr
		}
		if !strings.EqualFold(task.Assignee.Email, normaliseEmail(email)) {
			return nil, err
		}
		if !input.restrictedOnly() {
			return nil, permissions.ErrAccessDenied.WithInternal(
				errors.New("assignee may only change status and labels"))
		}
	}

	task, err := s.getTask(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		updates["priority"] = *input.Priority
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}

	var newAssignee *models.User
	if input.AssigneeEmail != nil {
		assignee, err := s.projectMemberByEmail(ctx, task.ProjectID, *input.AssigneeEmail)
		if err != nil {
			return nil, err
		}
		updates["assignee_id"] = assignee.ID
		newAssignee = assignee
	}

	var labels []models.Label
	if input.LabelIDs != nil {
		labels, err = s.loadLabels(ctx, normaliseIDs(*input.LabelIDs))
		if err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(task).Updates(updates).Error; err != nil {
				return fmt.Errorf("task service: update task: %w", err)
			}
		}
		if input.LabelIDs != nil {
			if err := tx.Model(task).Association("Labels").Replace(labels); err != nil {
				return fmt.Errorf("task service: replace labels: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if newAssignee != nil && s.notifications != nil {
		if err := s.notifications.SendTaskAssigned(ctx, newAssignee, task, ""); err != nil {
			logger.Warn("task reassignment email failed",
				zap.String("task_id", task.ID),
				zap.Error(err))
		}
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "task.update",
		Resource: task.ID,
		Result:   "success",
		Metadata: map[string]any{"project_id": task.ProjectID},
	})

	return s.getTask(ctx, projectID, taskID)
}

// Delete removes a task. Requires MANAGER access.
func (s *TaskService) Delete(ctx context.Context, projectID, taskID, email string) error {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, projectID, models.AccessManager); err != nil {
		return err
	}

	task, err := s.getTask(ctx, projectID, taskID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(task).Association("Labels").Clear(); err != nil {
			return fmt.Errorf("task service: clear labels: %w", err)
		}
		if err := tx.Delete(&models.Task{}, "id = ?", task.ID).Error; err != nil {
			return fmt.Errorf("task service: delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "task.delete",
		Resource: task.ID,
		Result:   "success",
		Metadata: map[string]any{"project_id": task.ProjectID},
	})

	return nil
}

// DueWithin returns tasks not yet completed whose due date falls inside the
// given window. Used by the reminder scheduler.
func (s *TaskService) DueWithin(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	ctx = ensureContext(ctx)

	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Preload("Assignee").
		Where("due_date >= ? AND due_date < ? AND status <> ?", from, to, models.TaskCompleted).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("task service: due tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) getTask(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Preload("Assignee").
		Preload("Labels").
		First(&task, "id = ? AND project_id = ?", strings.TrimSpace(taskID), strings.TrimSpace(projectID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: load task: %w", err)
	}
	return &task, nil
}

// projectMemberByEmail resolves a user by email and verifies project
// membership. Assignees must belong to the task's project.
func (s *TaskService) projectMemberByEmail(ctx context.Context, projectID, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normaliseEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: load user: %w", err)
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, user.ID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("task service: check membership: %w", err)
	}
	if count == 0 {
		return nil, ErrMemberNotFound
	}
	return &user, nil
}

func (s *TaskService) loadLabels(ctx context.Context, ids []string) ([]models.Label, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var labels []models.Label
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&labels).Error; err != nil {
		return nil, fmt.Errorf("task service: load labels: %w", err)
	}
	if len(labels) != len(ids) {
		return nil, ErrLabelNotFound
	}
	return labels, nil
}
