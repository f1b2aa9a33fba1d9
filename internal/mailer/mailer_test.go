package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	from    string
	rcpt    []string
	data    bytes.Buffer
	rcptErr error
	quit    bool
	closed  bool
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (c *fakeClient) Mail(from string) error { c.from = from; return nil }
func (c *fakeClient) Rcpt(to string) error {
	if c.rcptErr != nil {
		return c.rcptErr
	}
	c.rcpt = append(c.rcpt, to)
	return nil
}
func (c *fakeClient) Data() (io.WriteCloser, error) { return nopCloser{&c.data}, nil }
func (c *fakeClient) Quit() error                   { c.quit = true; return nil }
func (c *fakeClient) Close() error                  { c.closed = true; return nil }

type fakeDialer struct {
	client *fakeClient
	err    error
}

func (d *fakeDialer) Dial(context.Context) (Client, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.client, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSMTPMailerSend(t *testing.T) {
	client := &fakeClient{}
	m := NewSMTPMailer(&fakeDialer{client: client}, "no-reply@estate.test", discardLogger())

	err := m.Send(context.Background(), "ana@example.com", "Confirm your email", "line one\nline two")
	require.NoError(t, err)

	assert.Equal(t, "no-reply@estate.test", client.from)
	assert.Equal(t, []string{"ana@example.com"}, client.rcpt)
	assert.True(t, client.quit)
	assert.True(t, client.closed)
	body := client.data.String()
	assert.Contains(t, body, "Subject: Confirm your email\r\n")
	assert.True(t, strings.HasSuffix(body, "line one\r\nline two"))
}

func TestSMTPMailerDialFailure(t *testing.T) {
	m := NewSMTPMailer(&fakeDialer{err: errors.New("refused")}, "a@b.c", discardLogger())

	err := m.Send(context.Background(), "x@y.z", "s", "b")
	assert.ErrorContains(t, err, "refused")
}

func TestSMTPMailerRecipientRejected(t *testing.T) {
	client := &fakeClient{rcptErr: errors.New("550 no such user")}
	m := NewSMTPMailer(&fakeDialer{client: client}, "a@b.c", discardLogger())

	err := m.Send(context.Background(), "ghost@example.com", "s", "b")
	assert.ErrorContains(t, err, "RCPT TO ghost@example.com")
	assert.True(t, client.closed)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, m.Send(context.Background(), "ana@example.com", "Reset", "https://x/reset?token=abc"))
	assert.Contains(t, buf.String(), "token=abc")
}
