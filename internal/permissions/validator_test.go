package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
)

func openValidatorTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
	))

	// shared cache persists between opens; start each test clean
	for _, table := range []string{"project_members", "projects", "users"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) models.User {
	t.Helper()
	user := models.User{
		Email:    email,
		Username: email,
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProject(t *testing.T, db *gorm.DB, name string) models.Project {
	t.Helper()
	project := models.Project{
		Name:   name,
		Status: models.ProjectInitiated,
	}
	require.NoError(t, db.Create(&project).Error)
	return project
}

func seedMembership(t *testing.T, db *gorm.DB, user models.User, project models.Project, level models.AccessLevel) {
	t.Helper()
	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
		Level:     level,
	}
	require.NoError(t, db.Create(&member).Error)
}

func TestValidateAccessRankOrdering(t *testing.T) {
	db := openValidatorTestDB(t)
	validator, err := NewValidator(db)
	require.NoError(t, err)

	ctx := context.Background()
	viewer := seedUser(t, db, "viewer@example.com", models.RoleUser)
	manager := seedUser(t, db, "manager@example.com", models.RoleUser)
	project := seedProject(t, db, "apollo")
	seedMembership(t, db, viewer, project, models.AccessViewer)
	seedMembership(t, db, manager, project, models.AccessManager)

	require.NoError(t, validator.ValidateAccess(ctx, viewer.Email, project.ID, models.AccessViewer))
	err = validator.ValidateAccess(ctx, viewer.Email, project.ID, models.AccessManager)
	require.ErrorIs(t, err, ErrAccessDenied)

	require.NoError(t, validator.ValidateAccess(ctx, manager.Email, project.ID, models.AccessViewer))
	require.NoError(t, validator.ValidateAccess(ctx, manager.Email, project.ID, models.AccessManager))
}

func TestValidateAccessAdminBypassesMembership(t *testing.T) {
	db := openValidatorTestDB(t)
	validator, err := NewValidator(db)
	require.NoError(t, err)

	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)
	project := seedProject(t, db, "apollo")

	// Admin never joined the project, still passes.
	require.NoError(t, validator.ValidateAccess(ctx, admin.Email, project.ID, models.AccessManager))
}

func TestValidateAccessMissingProjectIsNotFoundEvenForAdmin(t *testing.T) {
	db := openValidatorTestDB(t)
	validator, err := NewValidator(db)
	require.NoError(t, err)

	ctx := context.Background()
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)

	err = validator.ValidateAccess(ctx, admin.Email, "missing-project", models.AccessViewer)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestValidateAccessNonMemberIsDeniedNotMissing(t *testing.T) {
	db := openValidatorTestDB(t)
	validator, err := NewValidator(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := seedUser(t, db, "outsider@example.com", models.RoleUser)
	project := seedProject(t, db, "apollo")

	err = validator.ValidateAccess(ctx, user.Email, project.ID, models.AccessViewer)
	require.ErrorIs(t, err, ErrAccessDenied)
	require.NotErrorIs(t, err, ErrProjectNotFound)
}

func TestValidateAccessUnknownUser(t *testing.T) {
	db := openValidatorTestDB(t)
	validator, err := NewValidator(db)
	require.NoError(t, err)

	project := seedProject(t, db, "apollo")

	err = validator.ValidateAccess(context.Background(), "ghost@example.com", project.ID, models.AccessViewer)
	require.ErrorIs(t, err, ErrUserNotFound)
}
