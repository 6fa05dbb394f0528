package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/notification-service/internal/config"
)

// Dialer abstracts net.Dialer to simplify testing.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// SMTPOption configures the SMTP provider.
type SMTPOption func(*SMTPProvider)

// WithSMTPDialer swaps the network dialer used to establish connections.
func WithSMTPDialer(d Dialer) SMTPOption {
	return func(p *SMTPProvider) {
		if d != nil {
			p.dialer = d
		}
	}
}

// WithSMTPAuth supplies a custom SMTP auth strategy.
func WithSMTPAuth(auth smtp.Auth) SMTPOption {
	return func(p *SMTPProvider) {
		p.auth = auth
	}
}

// WithSMTPClock replaces the clock used for timestamps.
func WithSMTPClock(now func() time.Time) SMTPOption {
	return func(p *SMTPProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// SMTPProvider delivers email via a configured SMTP relay.
type SMTPProvider struct {
	logger      zerolog.Logger
	cfg         config.SMTPConfig
	dialer      Dialer
	auth        smtp.Auth
	defaultFrom string
	now         func() time.Time
}

// NewSMTPProvider constructs an SMTP provider from configuration.
func NewSMTPProvider(cfg config.SMTPConfig, logger zerolog.Logger, opts ...SMTPOption) (*SMTPProvider, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp provider: host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp provider: invalid port %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp provider: from address is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &SMTPProvider{
		logger:      logger,
		cfg:         cfg,
		dialer:      &net.Dialer{Timeout: 30 * time.Second},
		defaultFrom: strings.TrimSpace(cfg.From),
		now:         time.Now,
	}
	if cfg.User != "" {
		p.auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p, nil
}

// Send delivers the payload through the relay. SMTP reply codes are folded
// into the returned error text so adapters can classify failures.
func (p *SMTPProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("smtp provider: payload is required")
	}
	if strings.TrimSpace(payload.To) == "" {
		return nil, errors.New("smtp provider: recipient is required")
	}

	from := strings.TrimSpace(payload.From)
	if from == "" {
		from = p.defaultFrom
	}

	addr := net.JoinHostPort(p.cfg.Host, fmt.Sprintf("%d", p.cfg.Port))
	conn, err := p.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("smtp provider: dial %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, p.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, p.wrapSMTPError("handshake", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(nil); err != nil {
			return nil, p.wrapSMTPError("starttls", err)
		}
	}

	if p.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(p.auth); err != nil {
				return nil, p.wrapSMTPError("auth", err)
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return nil, p.wrapSMTPError("mail from", err)
	}
	if err := client.Rcpt(payload.To); err != nil {
		return nil, p.wrapSMTPError("rcpt to", err)
	}

	writer, err := client.Data()
	if err != nil {
		return nil, p.wrapSMTPError("data", err)
	}
	if _, err := writer.Write(p.buildMessage(from, payload)); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("smtp provider: write body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, p.wrapSMTPError("close data", err)
	}

	if err := client.Quit(); err != nil {
		p.logger.Debug().Err(err).Msg("smtp provider: quit failed after accepted message")
	}

	return &RawResponse{
		ID:        payload.MessageID,
		Code:      250,
		Body:      "message accepted",
		Timestamp: p.now(),
	}, nil
}

func (p *SMTPProvider) buildMessage(from string, payload *Payload) []byte {
	var sb strings.Builder

	subject := payload.Subject
	if subject == "" {
		subject = "Notification"
	}

	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", payload.To)
	fmt.Fprintf(&sb, "Subject: %s\r\n", sanitizeHeader(subject))
	fmt.Fprintf(&sb, "Date: %s\r\n", p.now().UTC().Format(time.RFC1123Z))

	keys := make([]string, 0, len(payload.Headers))
	for k := range payload.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\r\n", sanitizeHeader(k), sanitizeHeader(payload.Headers[k]))
	}

	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(payload.Body)
	sb.WriteString("\r\n")

	return []byte(sb.String())
}

func (p *SMTPProvider) wrapSMTPError(op string, err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return fmt.Errorf("smtp provider: %s: smtp %d %s", op, protoErr.Code, protoErr.Msg)
	}
	return fmt.Errorf("smtp provider: %s: %w", op, err)
}

func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	return strings.ReplaceAll(value, "\n", " ")
}
