package mail

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendWhenDisabledReturnsSentinel(t *testing.T) {
	m, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = m.Send(context.Background(), Message{To: []string{"alice@example.com"}})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestNewSMTPMailerRejectsIncompleteConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true, Port: 587})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com"})
	require.Error(t, err)
}

func TestEnvelopeDeduplicatesAndValidatesRecipients(t *testing.T) {
	m := &smtpMailer{cfg: SMTPSettings{From: "noreply@taskhub.example"}}

	from, to, err := m.envelope(Message{
		To: []string{" alice@example.com", "alice@example.com", "", "bob@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, "noreply@taskhub.example", from)
	require.Equal(t, []string{"alice@example.com", "bob@example.com"}, to)

	_, _, err = m.envelope(Message{To: []string{"not-an-address"}})
	require.Error(t, err)

	_, _, err = m.envelope(Message{})
	require.Error(t, err)
}

func TestEnvelopeRequiresSomeSender(t *testing.T) {
	m := &smtpMailer{}
	_, _, err := m.envelope(Message{To: []string{"alice@example.com"}})
	require.Error(t, err)
}

func TestRenderNeutralisesHeaderInjection(t *testing.T) {
	msg := render("noreply@taskhub.example", []string{"alice@example.com"},
		"Reminder\r\nBcc: sneaky@example.com", "task apollo/launch is due")

	require.True(t, strings.HasPrefix(msg, "From: noreply@taskhub.example\r\n"))
	require.Contains(t, msg, "Subject: Reminder Bcc: sneaky@example.com\r\n")
	require.NotContains(t, msg, "\nBcc:")
	require.Contains(t, msg, "\r\n\r\ntask apollo/launch is due")
}
