package mail

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")
	ErrNoRecipients         = errors.New("mail: no recipients")
	ErrNoSender             = errors.New("mail: no sender")
	ErrInvalidAddress       = errors.New("mail: invalid address")
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP sends through net/smtp, authenticating with PLAIN when credentials
// are set. SendMail upgrades to STARTTLS when the server offers it.
type SMTP struct {
	addr string
	from string
	auth smtp.Auth
	now  func() time.Time
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	s := &SMTP{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		now:  time.Now,
	}
	if cfg.Username != "" && cfg.Password != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s, nil
}

func (*SMTP) Close() error { return nil }

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := msg.From
	if from == "" {
		from = s.from
	}

	raw, envelopeFrom, rcpts, err := s.build(from, msg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- smtp.SendMail(s.addr, s.auth, envelopeFrom, rcpts, raw) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mail: smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// build renders the RFC 5322 message and returns the envelope sender and
// recipients. Addresses are parsed so header injection is impossible.
func (s *SMTP) build(from string, msg Message) ([]byte, string, []string, error) {
	if from == "" {
		return nil, "", nil, ErrNoSender
	}
	sender, err := mail.ParseAddress(from)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%w: %q", ErrInvalidAddress, from)
	}

	if len(msg.To) == 0 {
		return nil, "", nil, ErrNoRecipients
	}
	to := make([]string, 0, len(msg.To))
	rcpts := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		addr, err := mail.ParseAddress(a)
		if err != nil {
			return nil, "", nil, fmt.Errorf("%w: %q", ErrInvalidAddress, a)
		}
		to = append(to, addr.String())
		rcpts = append(rcpts, addr.Address)
	}

	body, contentType := renderBody(msg)

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", sender.String())
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", oneLine(msg.Subject)))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", randomHex(12), domainOf(sender.Address))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n\r\n", contentType)
	b.WriteString(body)

	return b.Bytes(), sender.Address, rcpts, nil
}

func renderBody(msg Message) (string, string) {
	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := "otpgate-" + randomHex(12)

		var sb strings.Builder
		for _, part := range []struct{ ct, body string }{
			{"text/plain; charset=UTF-8", msg.TextBody},
			{"text/html; charset=UTF-8", msg.HTMLBody},
		} {
			fmt.Fprintf(&sb, "--%s\r\nContent-Type: %s\r\n\r\n%s\r\n", boundary, part.ct, part.body)
		}
		fmt.Fprintf(&sb, "--%s--\r\n", boundary)

		return sb.String(), "multipart/alternative; boundary=" + boundary
	case msg.HTMLBody != "":
		return msg.HTMLBody, "text/html; charset=UTF-8"
	default:
		return msg.TextBody, "text/plain; charset=UTF-8"
	}
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func domainOf(addr string) string {
	if _, domain, ok := strings.Cut(addr, "@"); ok && domain != "" {
		return domain
	}
	return "localhost"
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
