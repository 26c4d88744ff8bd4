package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"identity_service/internal/models"
)

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#f4f4f5;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h2 style="color:#18181b;font-size:18px;margin:0 0 24px 0;">{{.Subject}}</h2>
              <p style="color:#3f3f46;font-size:15px;line-height:1.6;margin:0 0 24px 0;">{{.Payload.Body}}</p>
              {{block "action" .}}{{end}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const withButton = `{{define "action"}}
<table cellpadding="0" cellspacing="0" style="margin:0 0 24px 0;">
  <tr>
    <td style="background-color:#2563eb;border-radius:6px;padding:12px 32px;">
      <a href="{{.Payload.URL}}" style="color:#ffffff;text-decoration:none;font-size:15px;font-weight:600;">{{.Payload.Button}}</a>
    </td>
  </tr>
</table>
<p style="color:#71717a;font-size:13px;line-height:1.6;margin:0;word-break:break-all;">
  <a href="{{.Payload.URL}}" style="color:#2563eb;">{{.Payload.URL}}</a>
</p>
{{end}}`

type Templates struct {
	byName map[string]*template.Template
}

func NewTemplates() (*Templates, error) {
	const op = "mailer.NewTemplates"

	simple, err := template.New(models.TemplateSimple).Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	base, err := template.New(models.TemplateWithButton).Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	button, err := base.Parse(withButton)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Templates{
		byName: map[string]*template.Template{
			models.TemplateSimple:     simple,
			models.TemplateWithButton: button,
		},
	}, nil
}

// * Render собирает html письма по имени шаблона из сообщения
func (t *Templates) Render(msg models.EmailMessage) (string, error) {
	const op = "mailer.Render"

	tmpl, ok := t.byName[msg.Template]
	if !ok {
		return "", fmt.Errorf("%s: %w: %q", op, ErrUnknownTemplate, msg.Template)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return buf.String(), nil
}
