package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/internal/permissions"
)

func newTaskServiceForTest(t *testing.T, db *gorm.DB, mailer *capturingMailer) *TaskService {
	t.Helper()

	var notifications *NotificationService
	if mailer != nil {
		notifications = NewNotificationService(mailer)
	}
	service, err := NewTaskService(db, newTestValidator(t, db), notifications, nil)
	require.NoError(t, err)
	return service
}

func TestCreateTaskRequiresMemberAccess(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	ctx := context.Background()
	viewer := createTestUser(t, db, "viewer@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, viewer, project, models.AccessViewer)

	_, err := service.Create(ctx, project.ID, CreateTaskInput{
		Name:          "write report",
		AssigneeEmail: viewer.Email,
	}, viewer.Email)
	require.ErrorIs(t, err, permissions.ErrAccessDenied)
}

func TestCreateTaskAssigneeMustBeProjectMember(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	ctx := context.Background()
	manager := createTestUser(t, db, "manager@example.com", "secret", models.RoleUser)
	outsider := createTestUser(t, db, "outsider@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, manager, project, models.AccessManager)

	_, err := service.Create(ctx, project.ID, CreateTaskInput{
		Name:          "write report",
		AssigneeEmail: outsider.Email,
	}, manager.Email)
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestCreateTaskNotifiesAssignee(t *testing.T) {
	db := openServiceTestDB(t)
	mailer := &capturingMailer{}
	service := newTaskServiceForTest(t, db, mailer)

	ctx := context.Background()
	manager := createTestUser(t, db, "manager@example.com", "secret", models.RoleUser)
	member := createTestUser(t, db, "member@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, manager, project, models.AccessManager)
	addTestMember(t, db, member, project, models.AccessMember)

	due := time.Now().AddDate(0, 0, 7)
	task, err := service.Create(ctx, project.ID, CreateTaskInput{
		Name:          "write report",
		Priority:      models.PriorityHigh,
		DueDate:       &due,
		AssigneeEmail: member.Email,
	}, manager.Email)
	require.NoError(t, err)
	require.Equal(t, models.TaskNotStarted, task.Status)
	require.Equal(t, member.ID, task.AssigneeID)

	msg := mailer.last(t)
	require.Equal(t, []string{member.Email}, msg.To)
	require.Contains(t, msg.Subject, "write report")
}

func TestUpdateTaskManagerMayChangeAnything(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	ctx := context.Background()
	manager := createTestUser(t, db, "manager@example.com", "secret", models.RoleUser)
	member := createTestUser(t, db, "member@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, manager, project, models.AccessManager)
	addTestMember(t, db, member, project, models.AccessMember)
	task := createTestTask(t, db, project, member, "write report")

	name := "write final report"
	status := models.TaskInProgress
	priority := models.PriorityHigh
	updated, err := service.Update(ctx, project.ID, task.ID, UpdateTaskInput{
		Name:     &name,
		Status:   &status,
		Priority: &priority,
	}, manager.Email)
	require.NoError(t, err)
	require.Equal(t, "write final report", updated.Name)
	require.Equal(t, models.TaskInProgress, updated.Status)
	require.Equal(t, models.PriorityHigh, updated.Priority)
}

func TestUpdateTaskAssigneeMayChangeStatusAndLabels(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	ctx := context.Background()
	member := createTestUser(t, db, "member@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, member, project, models.AccessMember)
	task := createTestTask(t, db, project, member, "write report")

	label := models.Label{Name: "urgent", Color: "#ff0000"}
	require.NoError(t, db.Create(&label).Error)

	status := models.TaskCompleted
	labelIDs := []string{label.ID}
	updated, err := service.Update(ctx, project.ID, task.ID, UpdateTaskInput{
		Status:   &status,
		LabelIDs: &labelIDs,
	}, member.Email)
	require.NoError(t, err)
	require.Equal(t, models.TaskCompleted, updated.Status)
	require.Len(t, updated.Labels, 1)
	require.Equal(t, "urgent", updated.Labels[0].Name)
}

func TestUpdateTaskAssigneeMayNotTouchOtherFields(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	ctx := context.Background()
	member := createTestUser(t, db, "member@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, member, project, models.AccessMember)
	task := createTestTask(t, db, project, member, "write report")

	// status alone would be fine; bundling the rename rejects the whole update
	status := models.TaskCompleted
	name := "renamed"
	_, err := service.Update(ctx, project.ID, task.ID, UpdateTaskInput{
		Status: &status,
		Name:   &name,
	}, member.Email)
	require.ErrorIs(t, err, permissions.ErrAccessDenied)

	var unchanged models.Task
	require.NoError(t, db.First(&unchanged, "id = ?", task.ID).Error)
	require.Equal(t, "write report", unchanged.Name)
	require.Equal(t, models.TaskNotStarted, unchanged.Status)
}

func TestUpdateTaskNonAssigneeMemberIsDenied(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	ctx := context.Background()
	assignee := createTestUser(t, db, "assignee@example.com", "secret", models.RoleUser)
	other := createTestUser(t, db, "other@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, assignee, project, models.AccessMember)
	addTestMember(t, db, other, project, models.AccessMember)
	task := createTestTask(t, db, project, assignee, "write report")

	status := models.TaskCompleted
	_, err := service.Update(ctx, project.ID, task.ID, UpdateTaskInput{Status: &status}, other.Email)
	require.ErrorIs(t, err, permissions.ErrAccessDenied)
}

func TestUpdateTaskAdminBypassesMembership(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	ctx := context.Background()
	admin := createTestUser(t, db, "admin@example.com", "secret", models.RoleAdmin)
	assignee := createTestUser(t, db, "assignee@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, assignee, project, models.AccessMember)
	task := createTestTask(t, db, project, assignee, "write report")

	name := "renamed by admin"
	updated, err := service.Update(ctx, project.ID, task.ID, UpdateTaskInput{Name: &name}, admin.Email)
	require.NoError(t, err)
	require.Equal(t, "renamed by admin", updated.Name)
}

func TestListTasksPaginates(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	ctx := context.Background()
	member := createTestUser(t, db, "member@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, member, project, models.AccessViewer)
	for i := 0; i < 5; i++ {
		createTestTask(t, db, project, member, "task "+string(rune('a'+i)))
	}

	page, err := service.List(ctx, project.ID, ListTasksOptions{Page: 1, PageSize: 2}, member.Email)
	require.NoError(t, err)
	require.Len(t, page.Tasks, 2)
	require.EqualValues(t, 5, page.Total)
	require.Equal(t, 3, page.TotalPages)

	last, err := service.List(ctx, project.ID, ListTasksOptions{Page: 3, PageSize: 2}, member.Email)
	require.NoError(t, err)
	require.Len(t, last.Tasks, 1)
}

func TestDeleteTaskRequiresManager(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	ctx := context.Background()
	manager := createTestUser(t, db, "manager@example.com", "secret", models.RoleUser)
	assignee := createTestUser(t, db, "assignee@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, manager, project, models.AccessManager)
	addTestMember(t, db, assignee, project, models.AccessMember)
	task := createTestTask(t, db, project, assignee, "write report")

	err := service.Delete(ctx, project.ID, task.ID, assignee.Email)
	require.ErrorIs(t, err, permissions.ErrAccessDenied)

	require.NoError(t, service.Delete(ctx, project.ID, task.ID, manager.Email))

	_, err = service.Get(ctx, project.ID, task.ID, manager.Email)
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDueWithinFindsUnfinishedTasks(t *testing.T) {
	db := openServiceTestDB(t)
	service := newTaskServiceForTest(t, db, nil)

	member := createTestUser(t, db, "member@example.com", "secret", models.RoleUser)
	project := createTestProject(t, db, "apollo")
	addTestMember(t, db, member, project, models.AccessMember)

	tomorrow := time.Now().AddDate(0, 0, 1)
	nextWeek := time.Now().AddDate(0, 0, 7)

	due := createTestTask(t, db, project, member, "due soon")
	require.NoError(t, db.Model(&due).Update("due_date", tomorrow).Error)

	done := createTestTask(t, db, project, member, "already done")
	require.NoError(t, db.Model(&done).Updates(map[string]any{
		"due_date": tomorrow,
		"status":   models.TaskCompleted,
	}).Error)

	far := createTestTask(t, db, project, member, "far away")
	require.NoError(t, db.Model(&far).Update("due_date", nextWeek).Error)

	from := time.Now()
	to := from.AddDate(0, 0, 2)
	tasks, err := service.DueWithin(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "due soon", tasks[0].Name)
}
