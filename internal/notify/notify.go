// Package notify delivers the final document artifact by email.
package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wneessen/go-mail"
)

const (
	// DefaultSMTPHost is the relay used when none is configured.
	DefaultSMTPHost = "smtp.gmail.com"

	// DefaultSMTPPort is the STARTTLS submission port.
	DefaultSMTPPort = 587
)

// subjectTemplate takes the artifact's base name without extension.
const subjectTemplate = "Documento Processado - %s"

// bodyTemplate takes the summary text.
const bodyTemplate = `Olá,

Seu documento foi processado com sucesso.

Resumo:
%s

O documento completo com QR code está anexado.

Atenciosamente,
Sistema de Automação de Documentos
`

// ConfigurationError reports a missing value required before any network
// attempt is made.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("email configuration incomplete: %s is not set", e.Missing)
}

// SendError represents a transport or authentication failure while sending.
type SendError struct {
	Message string
	Cause   error
}

func (e *SendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("notification failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("notification failed: %s", e.Message)
}

func (e *SendError) Unwrap() error {
	return e.Cause
}

// Notifier sends the final artifact plus a text body to a recipient.
type Notifier interface {
	Notify(ctx context.Context, artifactPath, recipient, bodyText string) error
}

// SMTPNotifier sends mail through a transport-secured SMTP session.
type SMTPNotifier struct {
	Sender   string
	Password string
	Host     string
	Port     int
}

// NewSMTPNotifier creates a notifier for the given sender identity. Host
// and port default to the Gmail submission endpoint when zero.
func NewSMTPNotifier(sender, password, host string, port int) *SMTPNotifier {
	if host == "" {
		host = DefaultSMTPHost
	}
	if port == 0 {
		port = DefaultSMTPPort
	}
	return &SMTPNotifier{Sender: sender, Password: password, Host: host, Port: port}
}

// Notify attaches the artifact to a fixed-template message and sends it in
// one STARTTLS session. Configuration completeness is checked before any
// network I/O; there is no retry.
func (n *SMTPNotifier) Notify(ctx context.Context, artifactPath, recipient, bodyText string) error {
	switch {
	case n.Sender == "":
		return &ConfigurationError{Missing: "sender address"}
	case n.Password == "":
		return &ConfigurationError{Missing: "sender password"}
	case recipient == "":
		return &ConfigurationError{Missing: "recipient address"}
	}

	msg, err := buildMessage(artifactPath, n.Sender, recipient, bodyText)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.Host,
		mail.WithPort(n.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(n.Sender),
		mail.WithPassword(n.Password),
	)
	if err != nil {
		return &SendError{Message: "cannot create mail client", Cause: err}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &SendError{Message: "sending message failed", Cause: err}
	}
	return nil
}

// buildMessage assembles the fixed-template message with the artifact as a
// base64-encoded binary attachment.
func buildMessage(artifactPath, sender, recipient, bodyText string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(sender); err != nil {
		return nil, &SendError{Message: "invalid sender address", Cause: err}
	}
	if err := msg.To(recipient); err != nil {
		return nil, &SendError{Message: "invalid recipient address", Cause: err}
	}

	msg.Subject(fmt.Sprintf(subjectTemplate, artifactStem(artifactPath)))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(bodyTemplate, bodyText))
	msg.AttachFile(artifactPath)

	return msg, nil
}

func artifactStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
