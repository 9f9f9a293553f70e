package smtp

import (
	"io"
	"log/slog"
	"testing"

	"github.com/magabrotheeeer/gym-membership/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_Sender(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	withFrom := NewTransport(config.SMTP{SMTPUser: "robot@gym.local", From: "no-reply@gym.local"}, log)
	assert.Equal(t, "no-reply@gym.local", withFrom.Sender())

	withoutFrom := NewTransport(config.SMTP{SMTPUser: "robot@gym.local"}, log)
	assert.Equal(t, "robot@gym.local", withoutFrom.Sender())
}

func TestTransport_Connect_DialError(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := NewTransport(config.SMTP{SMTPHost: "127.0.0.1", SMTPPort: "1"}, log)

	client, err := tr.Connect()
	require.Error(t, err)
	assert.Nil(t, client)
}
