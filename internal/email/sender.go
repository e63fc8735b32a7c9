package email

import (
	"context"
	"fmt"
)

const (
	SubjectWelcome       = "Welcome to the Natours Family!"
	SubjectPasswordReset = "Your password reset token (valid for only 10 minutes)"

	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "passwordReset"
)

// Sender - транзакционные письма приложения
type Sender interface {
	SendWelcome(ctx context.Context, to Recipient, url string) error
	SendPasswordReset(ctx context.Context, to Recipient, url string) error
}

// Mailer рендерит шаблон и передает письмо провайдеру
type Mailer struct {
	provider Provider
	renderer TemplateRenderer
	from     string
}

func NewMailer(provider Provider, renderer TemplateRenderer, from string) *Mailer {
	return &Mailer{
		provider: provider,
		renderer: renderer,
		from:     from,
	}
}

// SendWelcome - письмо после регистрации, url ведет на страницу аккаунта
func (m *Mailer) SendWelcome(ctx context.Context, to Recipient, url string) error {
	return m.send(ctx, to, TemplateWelcome, SubjectWelcome, url)
}

// SendPasswordReset - письмо со ссылкой сброса пароля
func (m *Mailer) SendPasswordReset(ctx context.Context, to Recipient, url string) error {
	return m.send(ctx, to, TemplatePasswordReset, SubjectPasswordReset, url)
}

func (m *Mailer) send(ctx context.Context, to Recipient, templateName, subject, url string) error {
	htmlBody, err := m.renderer.Render(templateName, TemplateData{
		"FirstName": to.FirstName(),
		"URL":       url,
		"Subject":   subject,
	})
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return m.provider.Send(ctx, &Email{
		From:     m.from,
		To:       []string{to.Email},
		Subject:  subject,
		Body:     htmlToText(htmlBody),
		HTMLBody: htmlBody,
	})
}
