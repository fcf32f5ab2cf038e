package mail

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net"
	netmail "net/mail"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     *Message
		wantErr error
	}{
		{"nil", nil, ErrNoRecipients},
		{"no recipients", &Message{Text: "x"}, ErrNoRecipients},
		{"no body", &Message{To: []string{"a@example.com"}}, ErrNoBody},
		{"valid text", &Message{To: []string{"An <a@example.com>"}, Text: "x"}, nil},
		{"attachment only", &Message{To: []string{"a@example.com"}, Attachments: []Attachment{{FileName: "a.pdf"}}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	assert.Error(t, (&Message{To: []string{"not-an-address"}, Text: "x"}).Validate())
	assert.Error(t, (&Message{To: []string{"a@example.com"}, Cc: []string{"@@"}, Text: "x"}).Validate())
	assert.Error(t, (&Message{To: []string{"a@example.com"}, ReplyTo: "nope", Text: "x"}).Validate())
}

func TestMessage_Recipients(t *testing.T) {
	msg := &Message{To: []string{"An Peeters <an@example.com>"}, Cc: []string{"tom@example.com"}}
	assert.Equal(t, []string{"an@example.com", "tom@example.com"}, msg.Recipients())
}

func TestCompose_PlainText(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	raw, err := compose(`"Notaris Peeters" <kantoor@notaris.be>`, &Message{
		To:      []string{"an@example.com"},
		Subject: "Afspraak bevestigd – ondertekening",
		Text:    "Beste,\n\nUw afspraak is bevestigd.",
	}, now)
	require.NoError(t, err)

	parsed, err := netmail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Afspraak bevestigd – ondertekening", subject)
	assert.Equal(t, "an@example.com", parsed.Header.Get("To"))
	assert.True(t, strings.HasSuffix(parsed.Header.Get("Message-Id"), "@notaris.be>"))
	assert.Equal(t, "quoted-printable", parsed.Header.Get("Content-Transfer-Encoding"))

	date, err := parsed.Header.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(now))
}

func TestCompose_HTMLWithAttachment(t *testing.T) {
	pdf := bytes.Repeat([]byte("%PDF"), 100)
	raw, err := compose("kantoor@notaris.be", &Message{
		To:          []string{"client@example.com"},
		Subject:     "Factuur F2026-0001",
		Text:        "In bijlage uw factuur.",
		HTML:        "<p>In bijlage uw factuur.</p>",
		Attachments: []Attachment{{FileName: "F2026-0001.pdf", ContentType: "application/pdf", Data: pdf}},
	}, time.Now())
	require.NoError(t, err)

	parsed, err := netmail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])

	body, err := mr.NextPart()
	require.NoError(t, err)
	bodyType, _, err := mime.ParseMediaType(body.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", bodyType)

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "F2026-0001.pdf", att.FileName())
	// multipart.Part decodes quoted-printable only; base64 is left to us
	encoded, err := io.ReadAll(att)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), "JVBERi")

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(nil)
	ctx := context.Background()

	require.NoError(t, s.Send(ctx, &Message{To: []string{"a@example.com"}, Subject: "Hallo", Text: "x"}))
	assert.ErrorIs(t, s.Send(ctx, &Message{Text: "x"}), ErrNoRecipients)

	sent := s.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Hallo", sent[0].Subject)

	for i := 0; i < logSenderKeep+5; i++ {
		require.NoError(t, s.Send(ctx, &Message{To: []string{"a@example.com"}, Subject: strconv.Itoa(i), Text: "x"}))
	}
	sent = s.Sent()
	assert.Len(t, sent, logSenderKeep)
	assert.Equal(t, strconv.Itoa(logSenderKeep+4), sent[len(sent)-1].Subject)
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(config.SMTPConfig{Driver: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)

	s, err = NewSender(config.SMTPConfig{Driver: "smtp", Host: "mail.example.com", From: "kantoor@notaris.be"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(config.SMTPConfig{Driver: "smtp", From: "kantoor@notaris.be"}, nil)
	assert.Error(t, err)
	_, err = NewSender(config.SMTPConfig{Driver: "smtp", Host: "mail.example.com", From: "bad"}, nil)
	assert.Error(t, err)
	_, err = NewSender(config.SMTPConfig{Driver: "sendgrid"}, nil)
	assert.Error(t, err)
}

type envelope struct {
	from  string
	rcpts []string
	data  string
}

// fakeSMTPServer accepts one plain-text session and reports what it got.
func fakeSMTPServer(t *testing.T) (int, <-chan envelope) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan envelope, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		var env envelope
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			upper := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(upper, "EHLO"):
				_ = tp.PrintfLine("250-localhost")
				_ = tp.PrintfLine("250 8BITMIME")
			case strings.HasPrefix(upper, "HELO"):
				_ = tp.PrintfLine("250 localhost")
			case strings.HasPrefix(upper, "MAIL FROM:"):
				env.from = line
				_ = tp.PrintfLine("250 OK")
			case strings.HasPrefix(upper, "RCPT TO:"):
				env.rcpts = append(env.rcpts, line)
				_ = tp.PrintfLine("250 OK")
			case upper == "DATA":
				_ = tp.PrintfLine("354 end with <CRLF>.<CRLF>")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				env.data = string(data)
				_ = tp.PrintfLine("250 queued")
			case upper == "QUIT":
				_ = tp.PrintfLine("221 bye")
				out <- env
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port, out
}

func TestSMTPSender_Send(t *testing.T) {
	port, received := fakeSMTPServer(t)
	sender, err := NewSMTPSender(config.SMTPConfig{
		Host:     "127.0.0.1",
		Port:     port,
		From:     "kantoor@notaris.be",
		FromName: "Notaris Peeters",
		Timeout:  5 * time.Second,
	}, nil)
	require.NoError(t, err)

	err = sender.Send(context.Background(), &Message{
		To:      []string{"An <an@example.com>"},
		Cc:      []string{"tom@example.com"},
		Subject: "Herinnering",
		Text:    "Tot morgen.",
	})
	require.NoError(t, err)

	select {
	case env := <-received:
		assert.Contains(t, env.from, "<kantoor@notaris.be>")
		require.Len(t, env.rcpts, 2)
		assert.Contains(t, env.rcpts[0], "<an@example.com>")
		assert.Contains(t, env.rcpts[1], "<tom@example.com>")
		assert.Contains(t, env.data, "Subject: Herinnering")
		assert.Contains(t, env.data, `From: "Notaris Peeters" <kantoor@notaris.be>`)
		assert.Contains(t, env.data, "Tot morgen.")
	case <-time.After(5 * time.Second):
		t.Fatal("smtp server received nothing")
	}
}

func TestSMTPSender_RejectsInvalidMessage(t *testing.T) {
	sender, err := NewSMTPSender(config.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "kantoor@notaris.be"}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, sender.Send(context.Background(), &Message{Text: "x"}), ErrNoRecipients)
}
