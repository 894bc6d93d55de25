package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josecyberpro/site/internal/config"
	"github.com/josecyberpro/site/internal/version"
)

// startFakeSMTP accepts a single plain SMTP session and reports the DATA payload.
func startFakeSMTP(t *testing.T) (host string, port int, received <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { fmt.Fprintf(conn, "%s\r\n", s) }

		reply("220 localhost ESMTP test")
		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- data.String()
					reply("250 OK queued")
					continue
				}
				data.WriteString(line)
				continue
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"):
				reply("250-localhost")
				reply("250 8BITMIME")
			case strings.HasPrefix(cmd, "DATA"):
				inData = true
				reply("354 end with .")
			case strings.HasPrefix(cmd, "QUIT"):
				reply("221 bye")
				return
			default:
				reply("250 OK")
			}
		}
	}()

	h, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(p)
	require.NoError(t, err)
	return h, portNum, out
}

func TestSMTPMailer_SendPlain(t *testing.T) {
	host, port, received := startFakeSMTP(t)
	m := NewSMTPMailer(SMTPConfig{Host: host, Port: port, Encryption: "none"})

	err := m.Send(context.Background(), Email{
		From:    "Jose <jose@example.com>",
		To:      "client@example.com",
		ReplyTo: "ops@example.com",
		Subject: "Got your audit request for example.com",
		Text:    "Hi Ann,\nThanks.",
	})
	require.NoError(t, err)

	select {
	case data := <-received:
		assert.Contains(t, data, "To: client@example.com\r\n")
		assert.Contains(t, data, "Reply-To: ops@example.com\r\n")
		assert.Contains(t, data, "Subject: Got your audit request for example.com\r\n")
		assert.Contains(t, data, "Hi Ann,\r\nThanks.")
	case <-time.After(5 * time.Second):
		t.Fatal("fake SMTP server did not receive a message")
	}
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Email{To: "x@example.com"}), context.Canceled)
}

// startSilentServer accepts connections and never writes, like a stalled relay.
func startSilentServer(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var conns []net.Conn
	var mu sync.Mutex
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	h, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return h, port
}

func TestSMTPMailer_StalledServerTimesOut(t *testing.T) {
	host, port := startSilentServer(t)

	for _, enc := range []string{"none", "starttls", "ssl"} {
		t.Run(enc, func(t *testing.T) {
			m := NewSMTPMailer(SMTPConfig{Host: host, Port: port, Encryption: enc})
			m.timeout = 200 * time.Millisecond

			start := time.Now()
			err := m.Send(context.Background(), Email{From: "a@example.com", To: "b@example.com"})
			require.Error(t, err)
			assert.Less(t, time.Since(start), 5*time.Second)
		})
	}
}

func TestSMTPMailer_ContextDeadlineBoundsSession(t *testing.T) {
	host, port := startSilentServer(t)
	m := NewSMTPMailer(SMTPConfig{Host: host, Port: port, Encryption: "none"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	require.Error(t, m.Send(ctx, Email{From: "a@example.com", To: "b@example.com"}))
	assert.Less(t, time.Since(start), 5*time.Second, "the 15s default must not apply")
}

func TestResendMailer_Send(t *testing.T) {
	var gotUA, gotAuth string
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	m := NewResendMailer("re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	m.client.BaseURL = base

	err = m.Send(context.Background(), Email{
		From: "Jose <audits@example.com>", To: "ann@example.com", ReplyTo: "jose@example.com",
		Subject: "Thanks for reaching out", Text: "Hi Ann",
	})
	require.NoError(t, err)
	assert.Equal(t, version.UserAgent(), gotUA)
	assert.Equal(t, "Bearer re_test", gotAuth)
	assert.Equal(t, "jose@example.com", got["reply_to"])
	assert.Equal(t, []interface{}{"ann@example.com"}, got["to"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Email{To: "ann@example.com"}), context.Canceled)
}

func TestBuildMessage_HeaderInjectionPrevention(t *testing.T) {
	msg := buildMessage(Email{
		From:    "jose@example.com",
		To:      "victim@example.com\r\nBcc: attacker@example.com",
		Subject: "New Audit Request\r\nBcc: attacker@example.com",
		Text:    "body",
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	s := string(msg)
	assert.NotContains(t, s, "\r\nBcc:")
	assert.Contains(t, s, "MIME-Version: 1.0\r\n")
	assert.Contains(t, s, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.NotContains(t, s, "Reply-To:", "no Reply-To header when empty")

	headerEnd := strings.Index(s, "\r\n\r\n")
	require.Greater(t, headerEnd, 0)
	assert.True(t, strings.HasSuffix(s, "body"))
}

func TestBuildMessage_EncodesNonASCIISubject(t *testing.T) {
	msg := string(buildMessage(Email{From: "a@example.com", To: "b@example.com", Subject: "New Audit Request — café.com"}, time.Now()))
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
}

func TestEnvelopeAddress(t *testing.T) {
	assert.Equal(t, "jose@example.com", envelopeAddress("Jose <jose@example.com>"))
	assert.Equal(t, "jose@example.com", envelopeAddress(" jose@example.com "))
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(config.MailConfig{Provider: config.MailProviderNone})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Send(context.Background(), Email{}), ErrMailNotConfigured)

	m, err = NewMailer(config.MailConfig{Provider: config.MailProviderSMTP, SMTPHost: "smtp.example.com"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)

	m, err = NewMailer(config.MailConfig{Provider: config.MailProviderResend, ResendAPIKey: "re_123"})
	require.NoError(t, err)
	assert.IsType(t, &ResendMailer{}, m)

	_, err = NewMailer(config.MailConfig{Provider: config.MailProviderSMTP})
	assert.Error(t, err)
	_, err = NewMailer(config.MailConfig{Provider: config.MailProviderResend})
	assert.Error(t, err)
	_, err = NewMailer(config.MailConfig{Provider: "pigeon"})
	assert.Error(t, err)
}
