package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipients(t *testing.T) {
	assert.Equal(t, []string{"a@example.com"}, Recipients("a@example.com"))
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, Recipients(" a@example.com, ,b@example.com "))
	assert.Nil(t, Recipients(""))
}

func TestWriterSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewWriterSender(&buf)

	err := sender.Send(context.Background(), Message{Subject: "RSS updates (1 new)", Text: "body\n"})
	require.NoError(t, err)
	assert.Equal(t, "Subject: RSS updates (1 new)\n\nbody\n", buf.String())
}

func TestSMTPSenderBuildMessage(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "digest@example.com",
		To:   "reader@example.com, other@example.com",
	})

	m, err := sender.buildMessage(Message{Subject: "s", Text: "t", HTML: "<p>h</p>"})
	require.NoError(t, err)
	assert.Len(t, m.GetTo(), 2)
}

func TestSMTPSenderRejectsBadAddress(t *testing.T) {
	sender := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "not an address", To: "reader@example.com"})

	_, err := sender.buildMessage(Message{Subject: "s"})
	assert.Error(t, err)
}
