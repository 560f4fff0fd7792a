package mailer

import (
	"bufio"
	"context"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fuelflow/fuelflow/pkg/config"
)

func TestSend_Disabled(t *testing.T) {
	m := NewSMTP(&config.Config{})
	require.ErrorIs(t, m.Send(context.Background(), &Message{To: "a@b.c"}), ErrDisabled)
}

func TestSend_BuildsMultipartWithAttachment(t *testing.T) {
	m := NewSMTP(&config.Config{SMTP: config.SMTPConfig{Host: "smtp.example.com", Port: 2525, From: "billing@fuelflow.test", Username: "u", Password: "p"}})
	m.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m.sendMail = func(_ context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		require.NotNil(t, a)
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), &Message{
		To:       "jo@example.com",
		Subject:  "Your invoice",
		TextBody: "Thanks for your order.",
		Attachments: []Attachment{{
			Filename:    "INV-1.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4 fake"),
		}},
	})
	require.NoError(t, err)
	require.Equal(t, "smtp.example.com:2525", gotAddr)
	require.Equal(t, []string{"jo@example.com"}, gotTo)
	require.Contains(t, gotMsg, "Content-Type: multipart/mixed; boundary=")
	require.Contains(t, gotMsg, `filename="INV-1.pdf"`)
	require.Contains(t, gotMsg, "Thanks for your order.")
	require.True(t, strings.HasPrefix(gotMsg, "From: billing@fuelflow.test\r\n"))
}

func localSMTPConfig(t *testing.T, ln net.Listener) *config.Config {
	t.Helper()
	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return &config.Config{SMTP: config.SMTPConfig{Host: host, Port: p, From: "billing@fuelflow.test"}}
}

// serveSMTP answers one plain SMTP session and returns the DATA section.
func serveSMTP(t *testing.T, ln net.Listener) <-chan string {
	t.Helper()
	data := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch cmd {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250 localhost")
			case "MAIL", "RCPT":
				_ = tp.PrintfLine("250 ok")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				data <- string(body)
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()
	return data
}

func TestSend_DeliversOverSMTP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	data := serveSMTP(t, ln)

	m := NewSMTP(localSMTPConfig(t, ln))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Send(ctx, &Message{To: "jo@example.com", Subject: "Your invoice", TextBody: "Thanks."}))

	select {
	case body := <-data:
		require.Contains(t, body, "To: jo@example.com")
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestSend_StopsAtContextDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	// accept and never greet
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = bufio.NewReader(conn).ReadString('\n')
	}()

	m := NewSMTP(localSMTPConfig(t, ln))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = m.Send(ctx, &Message{To: "jo@example.com", Subject: "Your invoice", TextBody: "Thanks."})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
}
