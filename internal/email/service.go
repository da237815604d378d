package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/rowanvale/souk/internal/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service renders templates and hands the composed message to the
// configured transport.
type Service struct {
	sender      Sender
	fromAddress string
	fromName    string
	templates   *template.Template
}

func NewService(sender Sender, fromAddress, fromName string) (*Service, error) {
	tmpl, err := template.New("email").Funcs(template.FuncMap{
		"cents": FormatCents,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Service{
		sender:      sender,
		fromAddress: fromAddress,
		fromName:    fromName,
		templates:   tmpl,
	}, nil
}

// SendOrderPlaced sends the order confirmation with a rendered HTML
// invoice attached.
func (s *Service) SendOrderPlaced(ctx context.Context, data OrderPlacedEmail) error {
	msg, err := s.compose(data.To, data)
	if err != nil {
		return err
	}

	var invoice bytes.Buffer
	if err := s.templates.ExecuteTemplate(&invoice, "invoice.html", data); err != nil {
		return fmt.Errorf("failed to render invoice: %w", err)
	}
	msg.Attachments = append(msg.Attachments, Attachment{
		Filename: fmt.Sprintf("invoice-%s.html", data.OrderNumber),
		Data:     invoice.Bytes(),
	})

	return s.deliver(ctx, msg, data.TemplateName())
}

func (s *Service) SendOrderCompleted(ctx context.Context, data OrderCompletedEmail) error {
	return s.send(ctx, data.To, data)
}

func (s *Service) SendOrderCancelled(ctx context.Context, data OrderCancelledEmail) error {
	return s.send(ctx, data.To, data)
}

func (s *Service) SendOrderRefunded(ctx context.Context, data OrderRefundedEmail) error {
	return s.send(ctx, data.To, data)
}

func (s *Service) send(ctx context.Context, to string, data Template) error {
	msg, err := s.compose(to, data)
	if err != nil {
		return err
	}
	return s.deliver(ctx, msg, data.TemplateName())
}

func (s *Service) compose(to string, data Template) (*Message, error) {
	htmlBody, err := s.render(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", data.TemplateName(), err)
	}

	return &Message{
		To:       []string{to},
		From:     fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress),
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textFallback(htmlBody),
	}, nil
}

func (s *Service) deliver(ctx context.Context, msg *Message, name string) error {
	if err := s.sender.Send(ctx, msg); err != nil {
		telemetry.RecordEmailFailed(name)
		return fmt.Errorf("failed to send %s: %w", name, err)
	}
	telemetry.RecordEmailSent(name)
	return nil
}

func (s *Service) render(data Template) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, data.TemplateName(), data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// textFallback produces a crude plain-text alternative by stripping
// tags. Good enough for clients that refuse HTML.
func textFallback(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
