package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dkovalov/taskhub/internal/models"
	apperrors "github.com/dkovalov/taskhub/pkg/errors"
	"github.com/dkovalov/taskhub/pkg/mail"
)

// ErrEmailDelivery indicates an outbound email could not be delivered. The
// triggering operation has already succeeded when this is returned; callers
// surface it separately instead of rolling back.
var ErrEmailDelivery = apperrors.New("EMAIL_DELIVERY_FAILED", "Failed to send email", http.StatusBadGateway)

// NotificationService composes and dispatches the application's outbound
// emails. When no mailer is configured (or SMTP is disabled) every send is a
// silent no-op.
type NotificationService struct {
	mailer mail.Mailer
}

// NewNotificationService constructs a NotificationService. A nil mailer disables delivery.
func NewNotificationService(mailer mail.Mailer) *NotificationService {
	return &NotificationService{mailer: mailer}
}

// SendEmailChangeCode delivers the verification code for a pending email change
// to the user's current address.
func (s *NotificationService) SendEmailChangeCode(ctx context.Context, user *models.User, newEmail, code string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYou requested to change your account email to %s.\n\nYour verification code is: %s\n\nThe code expires in 20 minutes. If you did not request this change, you can ignore this message.\n",
		user.Username, newEmail, code,
	)
	return s.send(ctx, user.Email, "Email Change Verification Code", body)
}

// SendPasswordChangeCode delivers the verification code for a pending password change.
func (s *NotificationService) SendPasswordChangeCode(ctx context.Context, user *models.User, code string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYou requested to change your account password.\n\nYour verification code is: %s\n\nThe code expires in 20 minutes. If you did not request this change, you can ignore this message.\n",
		user.Username, code,
	)
	return s.send(ctx, user.Email, "Password Change Verification Code", body)
}

// SendTaskAssigned notifies an assignee about a newly assigned task.
func (s *NotificationService) SendTaskAssigned(ctx context.Context, assignee *models.User, task *models.Task, projectName string) error {
	due := "not set"
	if task.DueDate != nil {
		due = task.DueDate.Format("2006-01-02")
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have been assigned a new task in project %s.\n\nTask: %s\nDue date: %s\n",
		assignee.Username, projectName, task.Name, due,
	)
	return s.send(ctx, assignee.Email, "New Task Assigned: "+task.Name, body)
}

// SendTaskReminder notifies an assignee that a task is due tomorrow.
func (s *NotificationService) SendTaskReminder(ctx context.Context, assignee *models.User, task *models.Task) error {
	due := ""
	if task.DueDate != nil {
		due = task.DueDate.Format("2006-01-02")
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder that the task %q is due on %s.\n",
		assignee.Username, task.Name, due,
	)
	return s.send(ctx, assignee.Email, "Task Reminder: "+task.Name, body)
}

func (s *NotificationService) send(ctx context.Context, to, subject, body string) error {
	if s.mailer == nil {
		return nil
	}

	msg := mail.Message{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	}
	if err := s.mailer.Send(ensureContext(ctx), msg); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			return nil
		}
		return ErrEmailDelivery.WithInternal(err)
	}
	return nil
}
