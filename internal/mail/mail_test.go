package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledMailer(t *testing.T) {
	var m Mailer = Disabled{}
	assert.False(t, m.Enabled())
	require.ErrorIs(t, m.Send(context.Background(), "a@example.com", "s", "b"), ErrDisabled)
}

func TestSMTPEnabled(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"both set", "bot@example.com", "app-password", true},
		{"missing password", "bot@example.com", "", false},
		{"missing username", "", "app-password", false},
		{"neither", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewSMTP("smtp.example.com", 587, tc.username, tc.password, "")
			assert.Equal(t, tc.want, m.Enabled())
		})
	}
}

func TestSMTPFromDefaultsToUsername(t *testing.T) {
	m := NewSMTP("smtp.example.com", 587, "bot@example.com", "pw", "")
	assert.Equal(t, "bot@example.com", m.from)

	m = NewSMTP("smtp.example.com", 587, "bot@example.com", "pw", "noreply@example.com")
	assert.Equal(t, "noreply@example.com", m.from)
}

func TestSMTPSendRefusesWhenDisabled(t *testing.T) {
	m := NewSMTP("smtp.example.com", 587, "", "", "")
	require.ErrorIs(t, m.Send(context.Background(), "a@example.com", "s", "b"), ErrDisabled)
}

func TestSMTPSendHonorsContext(t *testing.T) {
	m := NewSMTP("smtp.example.com", 587, "bot@example.com", "pw", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.Send(ctx, "a@example.com", "s", "b"), context.Canceled)
}
