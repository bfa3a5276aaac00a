package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/internal/permissions"
	"github.com/dkovalov/taskhub/pkg/crypto"
	"github.com/dkovalov/taskhub/pkg/mail"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.Label{},
		&models.Comment{},
		&models.Attachment{},
		&models.VerificationToken{},
		&models.ActivityLog{},
	))

	// shared cache persists between opens; start each test clean
	for _, table := range []string{
		"task_labels", "attachments", "comments", "verification_tokens",
		"activity_logs", "tasks", "labels", "project_members", "projects", "users",
	} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func newTestValidator(t *testing.T, db *gorm.DB) *permissions.Validator {
	t.Helper()
	validator, err := permissions.NewValidator(db)
	require.NoError(t, err)
	return validator
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) models.User {
	t.Helper()
	hashed, err := crypto.HashPassword(password)
	require.NoError(t, err)
	user := models.User{
		Email:    email,
		Username: email,
		Password: hashed,
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, name string) models.Project {
	t.Helper()
	project := models.Project{
		Name:      name,
		StartDate: time.Now(),
		Status:    models.ProjectInitiated,
	}
	require.NoError(t, db.Create(&project).Error)
	return project
}

func addTestMember(t *testing.T, db *gorm.DB, user models.User, project models.Project, level models.AccessLevel) {
	t.Helper()
	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
		Level:     level,
	}
	require.NoError(t, db.Create(&member).Error)
}

func createTestTask(t *testing.T, db *gorm.DB, project models.Project, assignee models.User, name string) models.Task {
	t.Helper()
	task := models.Task{
		Name:       name,
		Priority:   models.PriorityMedium,
		Status:     models.TaskNotStarted,
		ProjectID:  project.ID,
		AssigneeID: assignee.ID,
	}
	require.NoError(t, db.Create(&task).Error)
	return task
}

// capturingMailer records outbound messages for assertions.
type capturingMailer struct {
	messages []mail.Message
	fail     error
}

func (m *capturingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.fail != nil {
		return m.fail
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *capturingMailer) last(t *testing.T) mail.Message {
	t.Helper()
	require.NotEmpty(t, m.messages)
	return m.messages[len(m.messages)-1]
}

var verificationCodePattern = regexp.MustCompile(`code is: (\d{6})`)

func extractCode(t *testing.T, body string) string {
	t.Helper()
	match := verificationCodePattern.FindStringSubmatch(body)
	require.Len(t, match, 2, "mail body should carry a six digit code")
	return match[1]
}

// memoryStore is an in-process stand-in for the object store.
type memoryStore struct {
	objects map[string][]byte
	fail    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (s *memoryStore) Put(_ context.Context, key string, content io.Reader, _ string) error {
	if s.fail != nil {
		return s.fail
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object for key %s", key)
	}
	return bytes.Clone(data), nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	if s.fail != nil {
		return s.fail
	}
	delete(s.objects, key)
	return nil
}
