package mail

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

func TestNewSenderRequiresCredentials(t *testing.T) {
	_, err := NewSender(Config{Host: "smtp.example.com"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))

	s, err := NewSender(Config{Host: "smtp.example.com", Username: "ops@example.com", Password: "pw"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", s.From())
	assert.Equal(t, "smtp://ops@example.com@smtp.example.com:587", s.String())
}

func TestBuild(t *testing.T) {
	s, err := NewSender(Config{Host: "smtp.example.com", Username: "ops@example.com", Password: "pw", From: "updates@example.com"}, nil)
	require.NoError(t, err)

	_, err = s.Build(Message{Subject: "no one"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = s.Build(Message{To: []string{"not an address"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	m, err := s.Build(Message{To: []string{"ceo@example.com"}, Subject: "Portfolio update", HTML: "<h1>Hi</h1>"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: Portfolio update")
	assert.Contains(t, raw, "<updates@example.com>")
	assert.Contains(t, raw, "text/html")
}

func TestSendReportsUpstreamFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	s, err := NewSender(Config{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "ops@example.com",
		Password: "pw",
		Timeout:  2 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = s.Send(context.Background(), Message{To: []string{"ceo@example.com"}, Subject: "x", Text: "y"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}
