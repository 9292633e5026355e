// Package mailer sends report email through a fixed SMTP relay.
package mailer

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
	"github.com/webanalyzer/webanalyzer/internal/config"
)

// SMTP sends mail over a deploy-time configured relay. Each Send opens a
// fresh connection, so the type is safe for concurrent workers.
type SMTP struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

var _ analyzer.Mailer = (*SMTP)(nil)

func New(cfg config.SMTPConfig, logger *zap.Logger) *SMTP {
	return &SMTP{cfg: cfg, logger: logger}
}

// Send delivers a plain-text message.
func (m *SMTP) Send(ctx context.Context, to, subject, body string) error {
	var msg strings.Builder
	m.writeHeaders(&msg, to, subject)
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64WithLineBreaks(body))
	msg.WriteString("\r\n")

	return m.submit(ctx, to, msg.String())
}

// SendWithAttachment delivers a plain-text message plus one attachment as a
// multipart/mixed document.
func (m *SMTP) SendWithAttachment(ctx context.Context, to, subject, body string, att analyzer.Attachment) error {
	boundary := generateBoundary()

	var msg strings.Builder
	m.writeHeaders(&msg, to, subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", boundary))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64WithLineBreaks(body))
	msg.WriteString("\r\n")

	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString(fmt.Sprintf("Content-Type: %s; name=%q\r\n", contentType, att.Filename))
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", att.Filename))
	msg.WriteString("\r\n")
	msg.WriteString(encodeBase64WithLineBreaks(string(att.Content)))
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return m.submit(ctx, to, msg.String())
}

func (m *SMTP) writeHeaders(msg *strings.Builder, to, subject string) {
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
}

func (m *SMTP) submit(ctx context.Context, to, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if m.cfg.From == "" {
		return fmt.Errorf("smtp from address not configured")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var err error
	if m.cfg.UseTLS {
		err = m.sendTLS(addr, auth, to, msg)
	} else {
		err = smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
	}
	if err != nil {
		return fmt.Errorf("smtp submit to %s: %w", m.cfg.Host, err)
	}

	m.logger.Debug("email submitted", zap.String("to", to), zap.Int("bytes", len(msg)))
	return nil
}

// sendTLS dials the relay over implicit TLS and falls back to a STARTTLS
// upgrade when the direct handshake is refused.
func (m *SMTP) sendTLS(addr string, auth smtp.Auth, to, msg string) error {
	host := strings.Split(addr, ":")[0]

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return m.sendSTARTTLS(addr, auth, to, msg)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	return m.transmit(client, auth, to, msg)
}

func (m *SMTP) sendSTARTTLS(addr string, auth smtp.Auth, to, msg string) error {
	host := strings.Split(addr, ":")[0]

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}

	return m.transmit(client, auth, to, msg)
}

func (m *SMTP) transmit(client *smtp.Client, auth smtp.Auth, to, msg string) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}

	return client.Quit()
}

func generateBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "webanalyzer_boundary_fallback"
	}
	return fmt.Sprintf("webanalyzer_%x", b)
}

// encodeBase64WithLineBreaks wraps base64 output at 76 characters per RFC
// 2045 so long report bodies survive every relay.
func encodeBase64WithLineBreaks(content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	var out strings.Builder
	const lineLen = 76
	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		out.WriteString(encoded[i:end])
		if end < len(encoded) {
			out.WriteString("\r\n")
		}
	}
	return out.String()
}
