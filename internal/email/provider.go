package email

import "context"

// Provider доставляет готовое письмо (SMTP или только лог)
type Provider interface {
	Send(ctx context.Context, email *Email) error
	// Validate вызывается один раз при старте, до первой отправки
	Validate() error
	Close() error
}

// TemplateRenderer превращает имя шаблона и данные в HTML письма
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
}
