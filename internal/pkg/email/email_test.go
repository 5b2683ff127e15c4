package email

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWithoutCredentialsIsLogged(t *testing.T) {
	var buf bytes.Buffer
	svc := NewEmailService(SMTPConfig{Host: "smtp.test"}, zerolog.New(&buf))

	require.NoError(t, svc.SendNotificationEmail("a@b.c", "Ada", "Application approved", "Welcome aboard", "/student/courses"))
	require.NoError(t, svc.SendPaymentReceipt("a@b.c", "Ada", "Go 101", "49.99 USD", "PAY-1"))

	out := buf.String()
	assert.Contains(t, out, "notification email not sent")
	assert.Contains(t, out, "PAY-1")
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("LearnSphere <no-reply@x>", "a@b.c", "Hi", "<p>body</p>"))

	assert.True(t, strings.HasPrefix(msg, "Content-Type: text/html; charset=UTF-8\r\n"))
	assert.Contains(t, msg, "Subject: Hi\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>body</p>"))
}

func TestRenderNotificationEscapes(t *testing.T) {
	out := renderNotification("<Ada>", "Graded", "score 5 > 4", "http://x/y?a=1&b=2")
	assert.Contains(t, out, "&lt;Ada&gt;")
	assert.Contains(t, out, "score 5 &gt; 4")
	assert.Contains(t, out, "a=1&amp;b=2")
}

func TestAbsoluteLink(t *testing.T) {
	svc := &EmailServiceImpl{config: SMTPConfig{BaseURL: "http://app.test/"}}
	assert.Equal(t, "http://app.test/student", svc.absoluteLink("/student"))
	assert.Equal(t, "https://other", svc.absoluteLink("https://other"))
	assert.Equal(t, "", svc.absoluteLink(""))
}
