package email

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/config"
)

func smtpConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host: "smtp.example.com",
		Port: 2525,
		From: "noreply@example.com",
	}
}

func TestNewSMTPProviderValidation(t *testing.T) {
	logger := zerolog.New(io.Discard)

	tests := []struct {
		name string
		cfg  config.SMTPConfig
	}{
		{name: "missing host", cfg: config.SMTPConfig{Port: 25, From: "noreply@example.com"}},
		{name: "invalid port", cfg: config.SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"}},
		{name: "missing from", cfg: config.SMTPConfig{Host: "smtp.example.com", Port: 25}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSMTPProvider(tc.cfg, logger); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestSMTPProviderRejectsIncompletePayloads(t *testing.T) {
	provider, err := NewSMTPProvider(smtpConfig(), zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("NewSMTPProvider: %v", err)
	}
	if _, err := provider.Send(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil payload")
	}
	if _, err := provider.Send(context.Background(), &Payload{MessageID: "msg-1"}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
}

func TestSMTPProviderDeliversMessage(t *testing.T) {
	transcript := &smtpTranscript{}
	dialer, wait := fakeSMTPDialer(t, transcript, nil)
	defer wait()

	provider, err := NewSMTPProvider(smtpConfig(), zerolog.New(io.Discard), WithSMTPDialer(dialer))
	if err != nil {
		t.Fatalf("NewSMTPProvider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload := &Payload{
		MessageID: "msg-1",
		To:        "user@example.com",
		Subject:   "Greetings",
		Body:      "hello there",
		Headers:   map[string]string{"X-Request-ID": "msg-1"},
	}
	resp, err := provider.Send(ctx, payload)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp == nil || resp.Code != 250 {
		t.Fatalf("expected code 250, got %+v", resp)
	}

	if transcript.mailFrom != "noreply@example.com" {
		t.Fatalf("expected configured from, got %q", transcript.mailFrom)
	}
	if len(transcript.rcpts) != 1 || transcript.rcpts[0] != "user@example.com" {
		t.Fatalf("unexpected recipients %v", transcript.rcpts)
	}
	if !strings.Contains(transcript.data, "Subject: Greetings") {
		t.Fatalf("expected subject header, got %q", transcript.data)
	}
	if !strings.Contains(transcript.data, "X-Request-ID: msg-1") {
		t.Fatalf("expected custom header, got %q", transcript.data)
	}
	if !strings.Contains(transcript.data, "hello there") {
		t.Fatalf("expected body, got %q", transcript.data)
	}
}

func TestSMTPProviderSurfacesRejectedRecipient(t *testing.T) {
	transcript := &smtpTranscript{}
	dialer, wait := fakeSMTPDialer(t, transcript, map[string]string{
		"RCPT TO:": "550 5.1.1 user unknown",
	})
	defer wait()

	provider, err := NewSMTPProvider(smtpConfig(), zerolog.New(io.Discard), WithSMTPDialer(dialer))
	if err != nil {
		t.Fatalf("NewSMTPProvider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = provider.Send(ctx, &Payload{MessageID: "msg-1", To: "gone@example.com", Body: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "smtp 550") {
		t.Fatalf("expected reply code folded into error, got %v", err)
	}
}

// Helpers.

type dialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (d dialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d(ctx, network, address)
}

type smtpTranscript struct {
	mailFrom string
	rcpts    []string
	data     string
}

// fakeSMTPDialer returns a dialer whose connections talk to an in-memory
// server goroutine. overrides maps a command prefix to the reply line used
// instead of the default 250.
func fakeSMTPDialer(t *testing.T, transcript *smtpTranscript, overrides map[string]string) (Dialer, func()) {
	t.Helper()

	var wg sync.WaitGroup
	dialer := dialerFunc(func(context.Context, string, string) (net.Conn, error) {
		server, client := net.Pipe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer server.Close()
			if err := runFakeSMTPConversation(server, transcript, overrides); err != nil && !errors.Is(err, io.EOF) {
				t.Errorf("fake smtp server: %v", err)
			}
		}()
		return client, nil
	})
	return dialer, wg.Wait
}

func runFakeSMTPConversation(conn net.Conn, transcript *smtpTranscript, overrides map[string]string) error {
	writer := bufio.NewWriter(conn)
	reader := bufio.NewReader(conn)

	writeLine := func(format string, args ...any) error {
		if _, err := fmt.Fprintf(writer, format+"\r\n", args...); err != nil {
			return err
		}
		return writer.Flush()
	}

	if err := writeLine("220 fake smtp ready"); err != nil {
		return err
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		upper := strings.ToUpper(line)

		reply := ""
		for prefix, r := range overrides {
			if strings.HasPrefix(upper, strings.ToUpper(prefix)) {
				reply = r
				break
			}
		}

		switch {
		case strings.HasPrefix(upper, "EHLO ") || strings.HasPrefix(upper, "HELO "):
			if err := writeLine("250-fake"); err != nil {
				return err
			}
			if err := writeLine("250 OK"); err != nil {
				return err
			}
		case strings.HasPrefix(upper, "MAIL FROM:"):
			transcript.mailFrom = extractSMTPAddress(line)
			if reply == "" {
				reply = "250 OK"
			}
			if err := writeLine(reply); err != nil {
				return err
			}
		case strings.HasPrefix(upper, "RCPT TO:"):
			transcript.rcpts = append(transcript.rcpts, extractSMTPAddress(line))
			if reply == "" {
				reply = "250 OK"
			}
			if err := writeLine(reply); err != nil {
				return err
			}
		case upper == "DATA":
			if err := writeLine("354 End data with <CRLF>.<CRLF>"); err != nil {
				return err
			}
			var data strings.Builder
			for {
				msgLine, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				if msgLine == ".\r\n" {
					break
				}
				data.WriteString(msgLine)
			}
			transcript.data = data.String()
			if err := writeLine("250 OK"); err != nil {
				return err
			}
		case upper == "QUIT":
			return writeLine("221 Bye")
		default:
			if reply == "" {
				reply = "250 OK"
			}
			if err := writeLine(reply); err != nil {
				return err
			}
		}
	}
}

func extractSMTPAddress(line string) string {
	start := strings.Index(line, "<")
	end := strings.Index(line, ">")
	if start < 0 || end < start {
		return strings.TrimSpace(line)
	}
	return line[start+1 : end]
}
