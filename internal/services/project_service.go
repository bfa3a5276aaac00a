package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/internal/permissions"
	apperrors "github.com/dkovalov/taskhub/pkg/errors"
)

// CreateProjectInput captures new project metadata.
type CreateProjectInput struct {
	Name        string
	Description string
	EndDate     *time.Time
	// ManagerEmail optionally designates the initial manager. When empty the
	// creating user becomes the manager.
	ManagerEmail string
}

// UpdateProjectInput describes mutable project fields.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *models.ProjectStatus
}

// ProjectSummary is the reduced listing form of a project.
type ProjectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectService handles project lifecycle and membership management.
// Every mutating operation consults the permission validator first.
type ProjectService struct {
	db        *gorm.DB
	validator *permissions.Validator
	activity  *ActivityService
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(db *gorm.DB, validator *permissions.Validator, activity *ActivityService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	if validator == nil {
		return nil, errors.New("project service: permission validator is required")
	}
	return &ProjectService{db: db, validator: validator, activity: activity}, nil
}

// Create registers a new project and grants the initial manager membership.
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput, email string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("project name is required")
	}

	managerEmail := normaliseEmail(input.ManagerEmail)
	if managerEmail == "" {
		managerEmail = normaliseEmail(email)
	}

	var manager models.User
	err := s.db.WithContext(ctx).First(&manager, "email = ?", managerEmail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: load manager: %w", err)
	}

	project := &models.Project{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		StartDate:   time.Now().Truncate(24 * time.Hour),
		EndDate:     input.EndDate,
		Status:      models.ProjectInitiated,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.NewBadRequest("project name already exists")
			}
			return fmt.Errorf("project service: create project: %w", err)
		}

		member := models.ProjectMember{
			ProjectID: project.ID,
			UserID:    manager.ID,
			Level:     models.AccessManager,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("project service: create manager membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   &manager.ID,
		Action:   "project.create",
		Resource: project.ID,
		Result:   "success",
		Metadata: map[string]any{"name": project.Name},
	})

	return s.loadProject(ctx, project.ID)
}

// GetByID loads a project with its memberships. Requires VIEWER access: the
// roster exposes member emails and levels, so reads go through the same gate
// as every other project-scoped operation.
func (s *ProjectService) GetByID(ctx context.Context, id, email string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	if err := s.validator.ValidateAccess(ctx, email, id, models.AccessViewer); err != nil {
		return nil, err
	}
	return s.loadProject(ctx, id)
}

// loadProject fetches a project without an access check. Callers either run
// their own ValidateAccess or are completing an operation already authorized.
func (s *ProjectService) loadProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("Members.User").
		First(&project, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, permissions.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: load project: %w", err)
	}
	return &project, nil
}

// ListForUser returns summaries of the projects the user belongs to.
func (s *ProjectService) ListForUser(ctx context.Context, email string) ([]ProjectSummary, error) {
	ctx = ensureContext(ctx)

	var projects []models.Project
	err := s.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Joins("JOIN users ON users.id = project_members.user_id").
		Where("users.email = ?", normaliseEmail(email)).
		Order("projects.created_at ASC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for _, project := range projects {
		summaries = append(summaries, ProjectSummary{ID: project.ID, Name: project.Name})
	}
	return summaries, nil
}

// Update modifies project metadata. Requires MANAGER access.
func (s *ProjectService) Update(ctx context.Context, projectID string, input UpdateProjectInput, email string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateAccess(ctx, email, project.ID, models.AccessManager); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != project.Name {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}

	if len(updates) == 0 {
		return project, nil
	}

	if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("project name already exists")
		}
		return nil, fmt.Errorf("project service: update project: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "project.update",
		Resource: project.ID,
		Result:   "success",
		Metadata: updates,
	})

	return s.loadProject(ctx, project.ID)
}

// Delete removes a project and its memberships. Requires MANAGER access.
func (s *ProjectService) Delete(ctx context.Context, projectID, email string) error {
	ctx = ensureContext(ctx)

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateAccess(ctx, email, project.ID, models.AccessManager); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMember{}).Error; err != nil {
			return fmt.Errorf("project service: delete memberships: %w", err)
		}
		if err := tx.Delete(&models.Project{}, "id = ?", project.ID).Error; err != nil {
			return fmt.Errorf("project service: delete project: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "project.delete",
		Resource: project.ID,
		Result:   "success",
	})

	return nil
}

// AddMember attaches a user to the project with the given access level.
// Requires MANAGER access.
func (s *ProjectService) AddMember(ctx context.Context, projectID, memberEmail string, level models.AccessLevel, email string) (*models.ProjectMember, error) {
	ctx = ensureContext(ctx)

	if !level.Valid() {
		return nil, apperrors.NewBadRequest("unknown access level")
	}

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateAccess(ctx, email, project.ID, models.AccessManager); err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "email = ?", normaliseEmail(memberEmail)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: load member: %w", err)
	}

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
		Level:     level,
	}
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("user is already a member of the project")
		}
		return nil, fmt.Errorf("project service: add member: %w", err)
	}
	member.User = user

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "project.add_member",
		Resource: project.ID,
		Result:   "success",
		Metadata: map[string]any{"user_id": user.ID, "level": level},
	})

	return member, nil
}

// RemoveMember detaches a user from the project. Requires MANAGER access.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, memberEmail, email string) error {
	ctx = ensureContext(ctx)

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateAccess(ctx, email, project.ID, models.AccessManager); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id IN (?)",
			project.ID,
			s.db.Model(&models.User{}).Select("id").Where("email = ?", normaliseEmail(memberEmail)),
		).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return fmt.Errorf("project service: remove member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		Action:   "project.remove_member",
		Resource: project.ID,
		Result:   "success",
		Metadata: map[string]any{"member_email": normaliseEmail(memberEmail)},
	})

	return nil
}
