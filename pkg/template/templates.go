package template

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttmpl "text/template"

	"notification-service/internal/domain"
)

// Service renders channel-specific message bodies from on-disk
// templates. Templates are looked up as <dir>/<type>.<ext> wrapped in
// <dir>/base.<ext>; a missing template is an error the caller treats
// as "fall back to the raw message body".
type Service struct {
	emailPath string
	smsPath   string
	pushPath  string
}

func NewService(emailPath, smsPath, pushPath string) *Service {
	return &Service{
		emailPath: emailPath,
		smsPath:   smsPath,
		pushPath:  pushPath,
	}
}

// Render produces the body for the given channel and notification
// type. Email bodies are HTML; everything else is plain text.
func (s *Service) Render(channel domain.Channel, typeTag string, data map[string]any) (string, error) {
	name := strings.ToLower(domain.NormalizeType(typeTag))
	if data == nil {
		data = map[string]any{}
	}

	switch channel {
	case domain.ChannelEmail:
		basePath := fmt.Sprintf("%s/base.html", s.emailPath)
		bodyPath := fmt.Sprintf("%s/%s.html", s.emailPath, name)

		tmpl, err := template.ParseFiles(basePath, bodyPath)
		if err != nil {
			return "", fmt.Errorf("parse email templates: %w", err)
		}
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
			return "", fmt.Errorf("execute email template: %w", err)
		}
		return buf.String(), nil

	case domain.ChannelSMS, domain.ChannelPush:
		dir := s.smsPath
		if channel == domain.ChannelPush {
			dir = s.pushPath
		}
		basePath := fmt.Sprintf("%s/base.txt", dir)
		bodyPath := fmt.Sprintf("%s/%s.txt", dir, name)

		tmpl, err := texttmpl.ParseFiles(basePath, bodyPath)
		if err != nil {
			return "", fmt.Errorf("parse %s templates: %w", channel, err)
		}
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, "base.txt", data); err != nil {
			return "", fmt.Errorf("execute %s template: %w", channel, err)
		}
		return buf.String(), nil

	default:
		return "", fmt.Errorf("unsupported channel: %s", channel)
	}
}
