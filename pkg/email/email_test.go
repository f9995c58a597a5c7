package email_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodispatchai/platform/pkg/email"
)

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	valid := email.Message{
		To:       "owner@haulage.example",
		Subject:  "Your trial has started",
		BodyHTML: "<p>Welcome aboard.</p>",
	}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*email.Message){
		"missing recipient": func(m *email.Message) { m.To = "" },
		"bad recipient":     func(m *email.Message) { m.To = "not-an-email" },
		"missing subject":   func(m *email.Message) { m.Subject = "" },
		"missing body":      func(m *email.Message) { m.BodyHTML = "" },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			msg := valid
			mutate(&msg)
			assert.ErrorIs(t, msg.Validate(), email.ErrInvalidMessage)
		})
	}
}

func TestNewPostmarkSenderConfig(t *testing.T) {
	t.Parallel()

	_, err := email.NewPostmarkSender(email.Config{
		SenderEmail:  "noreply@autodispatchai.com",
		SupportEmail: "support@autodispatchai.com",
	})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.Send(context.Background(), email.Message{
		To:       "owner@haulage.example",
		Subject:  "Trial started",
		BodyHTML: "<p>14 days on PRO.</p>",
		Tag:      "trial-started",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".html", filepath.Ext(entries[0].Name()))
	assert.Contains(t, entries[0].Name(), "trial-started")
}
